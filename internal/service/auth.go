package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Spok95/school-platform-api/internal/apperr"
	"github.com/Spok95/school-platform-api/internal/auth"
	"github.com/Spok95/school-platform-api/internal/db"
	"github.com/Spok95/school-platform-api/internal/metrics"
	"github.com/Spok95/school-platform-api/internal/models"
	"go.uber.org/zap"
)

// Auth — выдача access-токенов по email и паролю.
type Auth struct {
	DB       *sql.DB
	Secret   string
	TokenTTL time.Duration
	Log      *zap.SugaredLogger
}

// LoginResult — токен и снимок аккаунта на момент выдачи.
type LoginResult struct {
	AccessToken string
	User        models.User
}

// Login проверяет пару email/пароль и выдаёт подписанный токен.
// «Нет такого пользователя» и «неверный пароль» намеренно неразличимы.
func (a *Auth) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := db.GetUserByEmail(ctx, a.DB, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		metrics.LoginFailures.Inc()
		return nil, apperr.ErrInvalidCredentials
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		metrics.LoginFailures.Inc()
		a.Log.Infow("неудачный вход", "user", user.ID)
		return nil, apperr.ErrInvalidCredentials
	}

	var schoolID *int64
	if user.SchoolID.Valid {
		schoolID = &user.SchoolID.Int64
	}
	token, err := auth.NewAccessToken(a.Secret, a.TokenTTL, user.ID, string(user.Role), schoolID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &LoginResult{AccessToken: token, User: *user}, nil
}

// Identify восстанавливает caller-а по токену из заголовка Authorization.
// Роль берётся из БД, а не из claims: токен мог пережить смену роли.
func (a *Auth) Identify(ctx context.Context, token string) (*models.User, error) {
	claims, err := auth.ParseToken(a.Secret, token)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidCredentials, "недействительный токен", err)
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidCredentials, "недействительный токен", err)
	}
	user, err := db.GetUserByID(ctx, a.DB, id)
	if err != nil {
		return nil, fmt.Errorf("lookup user %d: %w", id, err)
	}
	if user == nil {
		return nil, apperr.ErrInvalidCredentials
	}
	return user, nil
}
