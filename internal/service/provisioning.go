package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Spok95/school-platform-api/internal/apperr"
	"github.com/Spok95/school-platform-api/internal/auth"
	"github.com/Spok95/school-platform-api/internal/db"
	"github.com/Spok95/school-platform-api/internal/metrics"
	"github.com/Spok95/school-platform-api/internal/models"
	"github.com/Spok95/school-platform-api/internal/policy"
	"go.uber.org/zap"
)

// Provisioning — операции суперадмина: школы и их администраторы.
type Provisioning struct {
	DB  *sql.DB
	Log *zap.SugaredLogger
}

// CreateSchool создаёт школу. Код школы глобально уникален.
func (p *Provisioning) CreateSchool(ctx context.Context, caller policy.Caller, name, code string) (*models.School, error) {
	if err := policy.Authorize(caller, policy.CreateSchool, policy.Scope{}); err != nil {
		return nil, err
	}
	s, err := db.CreateSchool(ctx, p.DB, name, code)
	if err != nil {
		if !errors.Is(err, apperr.ErrDuplicateCode) {
			metrics.ProvisionErrors.Inc()
		}
		return nil, err
	}
	p.Log.Infow("школа создана", "id", s.ID, "code", s.Code, "by", caller.UserID)
	return s, nil
}

// CreateSchoolAdmin создаёт администратора существующей школы.
// Пароль хешируется до обращения к хранилищу; админ сразу верифицирован.
func (p *Provisioning) CreateSchoolAdmin(ctx context.Context, caller policy.Caller, fullName, email, password string, schoolID int64) (*models.User, *models.School, error) {
	if err := policy.Authorize(caller, policy.CreateSchoolAdmin, policy.Scope{SchoolID: schoolID}); err != nil {
		return nil, nil, err
	}

	school, err := db.GetSchoolByID(ctx, p.DB, schoolID)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup school %d: %w", schoolID, err)
	}
	if school == nil {
		return nil, nil, apperr.ErrUnknownSchool
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := db.CreateUser(ctx, p.DB, db.NewUser{
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Role:         models.SchoolAdmin,
		SchoolID:     sql.NullInt64{Int64: school.ID, Valid: true},
		IsVerified:   true,
	})
	if err != nil {
		if !errors.Is(err, apperr.ErrDuplicateEmail) {
			metrics.ProvisionErrors.Inc()
		}
		return nil, nil, err
	}
	p.Log.Infow("админ школы создан", "id", u.ID, "school", school.Code, "by", caller.UserID)
	return u, school, nil
}

// ListSchools возвращает все школы платформы.
func (p *Provisioning) ListSchools(ctx context.Context, caller policy.Caller) ([]models.School, error) {
	if err := policy.Authorize(caller, policy.ListSchools, policy.Scope{}); err != nil {
		return nil, err
	}
	return db.ListSchools(ctx, p.DB)
}
