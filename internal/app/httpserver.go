package app

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/Spok95/school-platform-api/internal/metrics"
	"github.com/Spok95/school-platform-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server — HTTP-поверхность сервиса: аутентификация, провижининг, аудит.
type Server struct {
	db   *sql.DB
	auth *service.Auth
	prov *service.Provisioning
	boot *service.Bootstrap
	log  *zap.SugaredLogger
	srv  *http.Server
}

func NewServer(database *sql.DB, authSvc *service.Auth, prov *service.Provisioning, boot *service.Bootstrap, log *zap.SugaredLogger) *Server {
	return &Server{db: database, auth: authSvc, prov: prov, boot: boot, log: log}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.countRequests)

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", metrics.Handler())

	r.Post("/auth/admin/login", s.handleLogin)
	r.Post("/init/create-first-superadmin", s.handleCreateFirstSuperadmin)

	r.Route("/api/superadmin", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/create-school", s.handleCreateSchool)
		r.Post("/create-school-admin", s.handleCreateSchoolAdmin)
		r.Get("/schools", s.handleListSchools)
		r.Get("/audit/users.xlsx", s.handleAuditExport)
	})

	return r
}

// StartHTTP поднимает сервер и аккуратно гасит его по отмене контекста.
func StartHTTP(ctx context.Context, addr string, s *Server) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.srv = srv

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Errorw("http server", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	return srv
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
	defer cancel()
	t0 := time.Now()
	if err := s.db.PingContext(ctx); err != nil {
		http.Error(w, "db not ok: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	metrics.ObserveDBPing(time.Since(t0))
	_, _ = w.Write([]byte("ok"))
}

// countRequests — счётчик запросов по маршруту и статусу.
func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
	})
}
