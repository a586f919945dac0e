package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/Spok95/school-platform-api/internal/app"
	"github.com/Spok95/school-platform-api/internal/config"
	"github.com/Spok95/school-platform-api/internal/db"
	"github.com/Spok95/school-platform-api/internal/jobs"
	"github.com/Spok95/school-platform-api/internal/logging"
	"github.com/Spok95/school-platform-api/internal/observability"
	"github.com/Spok95/school-platform-api/internal/service"
	"github.com/joho/godotenv"
)

func main() {
	// Загрузка переменных окружения
	if err := godotenv.Load(); err != nil {
		log.Println("Не удалось загрузить .env файл, используем переменные окружения")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("конфигурация: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("логгер: %v", err)
	}
	defer lg.Closer()

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, "school-platform-api")
	if err != nil {
		lg.Sugar.Warnw("sentry не инициализирован", "err", err)
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		lg.Sugar.Fatalw("подключение к БД", "err", err)
	}
	defer func() { _ = database.Close() }()

	if err := db.Migrate(database); err != nil {
		lg.Sugar.Fatalw("миграция", "err", err)
	}

	// стартовая проверка инварианта единственного суперадмина
	if _, err := service.CheckSuperadminInvariant(ctx, database, lg.Sugar); err != nil {
		lg.Sugar.Errorw("проверка инварианта", "err", err)
		observability.CaptureErr(err)
	}

	authSvc := &service.Auth{
		DB:       database,
		Secret:   cfg.SecretKey,
		TokenTTL: cfg.TokenTTL,
		Log:      lg.Named("auth"),
	}
	prov := &service.Provisioning{DB: database, Log: lg.Named("provisioning")}
	boot := &service.Bootstrap{DB: database, Log: lg.Named("bootstrap")}

	srv := app.NewServer(database, authSvc, prov, boot, lg.Named("http"))
	app.StartHTTP(ctx, cfg.HTTPAddr, srv)
	lg.Sugar.Infow("сервер запущен", "addr", cfg.HTTPAddr, "env", cfg.Env)

	runner := jobs.New(ctx)
	runner.Every(30*time.Second, "db_ping", jobs.DBPing(database))
	runner.Every(5*time.Minute, "role_audit", jobs.RoleAudit(database, lg.Named("jobs")))

	<-ctx.Done()
	lg.Sugar.Info("остановка по сигналу")
}
