package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Spok95/school-platform-api/internal/apperr"
	"github.com/Spok95/school-platform-api/internal/ctxutil"
	"github.com/Spok95/school-platform-api/internal/db"
	"github.com/Spok95/school-platform-api/internal/export"
	"github.com/Spok95/school-platform-api/internal/observability"
	"github.com/Spok95/school-platform-api/internal/policy"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	SchoolID    *int64 `json:"school_id"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := ctxutil.WithOp(r.Context(), "login")
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, apperr.KindValidation, "некорректное тело запроса")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeErr(w, http.StatusBadRequest, apperr.KindValidation, "email и пароль обязательны")
		return
	}

	res, err := s.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		s.writeFailure(w, ctx, err)
		return
	}
	var schoolID *int64
	if res.User.SchoolID.Valid {
		schoolID = &res.User.SchoolID.Int64
	}
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: res.AccessToken,
		TokenType:   "bearer",
		Role:        string(res.User.Role),
		Email:       res.User.Email,
		FullName:    res.User.FullName,
		SchoolID:    schoolID,
	})
}

type createFirstSuperadminRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleCreateFirstSuperadmin(w http.ResponseWriter, r *http.Request) {
	ctx := ctxutil.WithOp(r.Context(), "create_first_superadmin")
	var req createFirstSuperadminRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, apperr.KindValidation, "некорректное тело запроса")
		return
	}
	if len(req.FullName) < 2 || req.Email == "" || len(req.Password) < 6 {
		writeErr(w, http.StatusBadRequest, apperr.KindValidation, "имя, email и пароль (от 6 символов) обязательны")
		return
	}

	u, err := s.boot.CreateFirstSuperadmin(ctx, req.FullName, req.Email, req.Password)
	if err != nil {
		s.writeFailure(w, ctx, err)
		return
	}
	// сразу логиним созданного суперадмина
	res, err := s.auth.Login(ctx, u.Email, req.Password)
	if err != nil {
		s.writeFailure(w, ctx, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"access_token": res.AccessToken,
		"token_type":   "bearer",
		"role":         string(u.Role),
		"email":        u.Email,
		"full_name":    u.FullName,
		"user_id":      u.ID,
		"message":      "первый суперадмин создан",
	})
}

type createSchoolRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type createSchoolResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleCreateSchool(w http.ResponseWriter, r *http.Request) {
	ctx := ctxutil.WithOp(r.Context(), "create_school")
	caller, ok := callerFrom(ctx)
	if !ok {
		writeErr(w, http.StatusUnauthorized, apperr.KindInvalidCredentials, "нет аутентификации")
		return
	}
	var req createSchoolRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, apperr.KindValidation, "некорректное тело запроса")
		return
	}
	if len(req.Name) < 2 || len(req.Code) < 4 {
		writeErr(w, http.StatusBadRequest, apperr.KindValidation, "название (от 2 символов) и код (от 4 символов) обязательны")
		return
	}

	school, err := s.prov.CreateSchool(ctx, caller, req.Name, req.Code)
	if err != nil {
		s.writeFailure(w, ctx, err)
		return
	}
	writeJSON(w, http.StatusCreated, createSchoolResponse{
		ID:      school.ID,
		Name:    school.Name,
		Code:    school.Code,
		Message: "школа успешно создана",
	})
}

type createSchoolAdminRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	SchoolID int64  `json:"school_id"`
}

type createSchoolAdminResponse struct {
	UserID     int64  `json:"user_id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	SchoolID   int64  `json:"school_id"`
	SchoolName string `json:"school_name"`
	Message    string `json:"message"`
}

func (s *Server) handleCreateSchoolAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := ctxutil.WithOp(r.Context(), "create_school_admin")
	caller, ok := callerFrom(ctx)
	if !ok {
		writeErr(w, http.StatusUnauthorized, apperr.KindInvalidCredentials, "нет аутентификации")
		return
	}
	var req createSchoolAdminRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, apperr.KindValidation, "некорректное тело запроса")
		return
	}
	if len(req.FullName) < 2 || req.Email == "" || len(req.Password) < 4 || req.SchoolID <= 0 {
		writeErr(w, http.StatusBadRequest, apperr.KindValidation, "имя, email, пароль (от 4 символов) и school_id обязательны")
		return
	}

	u, school, err := s.prov.CreateSchoolAdmin(ctx, caller, req.FullName, req.Email, req.Password, req.SchoolID)
	if err != nil {
		s.writeFailure(w, ctx, err)
		return
	}
	writeJSON(w, http.StatusCreated, createSchoolAdminResponse{
		UserID:     u.ID,
		FullName:   u.FullName,
		Email:      u.Email,
		Role:       string(u.Role),
		SchoolID:   school.ID,
		SchoolName: school.Name,
		Message:    fmt.Sprintf("администратор школы успешно создан для %s", school.Name),
	})
}

type schoolListItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

func (s *Server) handleListSchools(w http.ResponseWriter, r *http.Request) {
	ctx := ctxutil.WithOp(r.Context(), "list_schools")
	caller, ok := callerFrom(ctx)
	if !ok {
		writeErr(w, http.StatusUnauthorized, apperr.KindInvalidCredentials, "нет аутентификации")
		return
	}
	schools, err := s.prov.ListSchools(ctx, caller)
	if err != nil {
		s.writeFailure(w, ctx, err)
		return
	}
	items := make([]schoolListItem, 0, len(schools))
	for _, sc := range schools {
		items = append(items, schoolListItem{ID: sc.ID, Name: sc.Name, Code: sc.Code})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    items,
	})
}

func (s *Server) handleAuditExport(w http.ResponseWriter, r *http.Request) {
	ctx := ctxutil.WithOp(r.Context(), "audit_users")
	caller, ok := callerFrom(ctx)
	if !ok {
		writeErr(w, http.StatusUnauthorized, apperr.KindInvalidCredentials, "нет аутентификации")
		return
	}
	if err := policy.Authorize(caller, policy.AuditUsers, policy.Scope{}); err != nil {
		s.writeFailure(w, ctx, err)
		return
	}

	users, err := db.ListUsers(ctx, s.db, db.UserFilter{})
	if err != nil {
		s.writeFailure(w, ctx, err)
		return
	}
	schools, err := db.CountUsersBySchool(ctx, s.db)
	if err != nil {
		s.writeFailure(w, ctx, err)
		return
	}
	unverified, err := db.ListUnverifiedUsers(ctx, s.db)
	if err != nil {
		s.writeFailure(w, ctx, err)
		return
	}

	wb, err := export.NewAuditWorkbook(users, schools, unverified)
	if err != nil {
		s.writeFailure(w, ctx, err)
		return
	}
	name := fmt.Sprintf("users_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := wb.WriteTo(w); err != nil {
		s.log.Errorw("выгрузка аудита", "err", err)
	}
}

// ---- helpers ----

func decodeJSON(r *http.Request, dst any) error {
	defer func() { _ = r.Body.Close() }()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error  apperr.Kind `json:"error"`
	Detail string      `json:"detail"`
}

func writeErr(w http.ResponseWriter, status int, kind apperr.Kind, detail string) {
	writeJSON(w, status, errorBody{Error: kind, Detail: detail})
}

// writeFailure переводит ошибку таксономии в HTTP-статус.
// Всё нераспознанное — 500 с отправкой в Sentry, без деталей наружу.
func (s *Server) writeFailure(w http.ResponseWriter, ctx context.Context, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		op, _ := ctxutil.Op(ctx)
		s.log.Errorw("внутренняя ошибка", "op", op, "err", err)
		observability.CaptureOpErr(op, err)
		writeErr(w, http.StatusInternalServerError, apperr.KindInternal, "внутренняя ошибка сервера")
		return
	}
	switch e.Kind {
	case apperr.KindDuplicateEmail, apperr.KindDuplicateCode:
		writeErr(w, http.StatusBadRequest, e.Kind, e.Message)
	case apperr.KindUnknownSchool:
		writeErr(w, http.StatusNotFound, e.Kind, e.Message)
	case apperr.KindForbidden:
		writeErr(w, http.StatusForbidden, e.Kind, e.Message)
	case apperr.KindInvalidCredentials:
		writeErr(w, http.StatusUnauthorized, e.Kind, e.Message)
	default:
		writeErr(w, http.StatusInternalServerError, apperr.KindInternal, "внутренняя ошибка сервера")
	}
}
