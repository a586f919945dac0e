package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Spok95/school-platform-api/internal/apperr"
	"github.com/Spok95/school-platform-api/internal/auth"
	"github.com/Spok95/school-platform-api/internal/db"
	"github.com/Spok95/school-platform-api/internal/models"
	"go.uber.org/zap"
)

// Bootstrap — одноразовое создание первого суперадмина.
// После появления суперадмина операция блокируется навсегда.
type Bootstrap struct {
	DB  *sql.DB
	Log *zap.SugaredLogger
}

func (b *Bootstrap) CreateFirstSuperadmin(ctx context.Context, fullName, email, password string) (*models.User, error) {
	counts, err := db.CountByRole(ctx, b.DB)
	if err != nil {
		return nil, fmt.Errorf("count roles: %w", err)
	}
	if counts[models.Superadmin] > 0 {
		return nil, apperr.New(apperr.KindForbidden, "суперадмин уже создан")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	// гонка двух одновременных bootstrap-вызовов разрешается
	// частичным уникальным индексом по role='superadmin'
	u, err := db.CreateUser(ctx, b.DB, db.NewUser{
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Role:         models.Superadmin,
		IsVerified:   true,
	})
	if err != nil {
		return nil, err
	}
	b.Log.Infow("создан первый суперадмин", "id", u.ID)
	return u, nil
}

// CheckSuperadminInvariant — в системе должен быть ровно один суперадмин.
// Возвращает фактическое число; вызывается на старте и из фонового аудита.
func CheckSuperadminInvariant(ctx context.Context, database *sql.DB, log *zap.SugaredLogger) (int, error) {
	counts, err := db.CountByRole(ctx, database)
	if err != nil {
		return 0, err
	}
	n := counts[models.Superadmin]
	switch {
	case n == 0:
		log.Warnw("в системе нет суперадмина; выполните /init/create-first-superadmin")
	case n > 1:
		// индекс users_single_superadmin должен делать это невозможным
		log.Errorw("нарушен инвариант единственного суперадмина", "count", n)
	}
	return n, nil
}
