package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Spok95/school-platform-api/internal/apperr"
	"github.com/Spok95/school-platform-api/internal/ctxutil"
	"github.com/Spok95/school-platform-api/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// NormalizeEmail — единая нормализация email для хранения и поиска.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type NewUser struct {
	FullName     string
	Email        string
	PasswordHash string
	Role         models.Role
	SchoolID     sql.NullInt64
	IsVerified   bool
}

// CreateUser — атомарная вставка; дубликат email превращается в ErrDuplicateEmail.
func CreateUser(ctx context.Context, database *sql.DB, nu NewUser) (*models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	u := models.User{
		FullName:     strings.TrimSpace(nu.FullName),
		Email:        NormalizeEmail(nu.Email),
		PasswordHash: nu.PasswordHash,
		Role:         nu.Role,
		SchoolID:     nu.SchoolID,
		IsVerified:   nu.IsVerified,
	}
	err := database.QueryRowContext(ctx, `
		INSERT INTO users (full_name, email, password_hash, role, school_id, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		u.FullName, u.Email, u.PasswordHash, string(u.Role), u.SchoolID, u.IsVerified,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if constraintViolated(err, "users_email_key") {
			return nil, apperr.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &u, nil
}

func GetUserByEmail(ctx context.Context, database *sql.DB, email string) (*models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	row := database.QueryRowContext(ctx, `
		SELECT id, full_name, email, password_hash, role, school_id, is_verified, created_at
		FROM users WHERE email = $1`, NormalizeEmail(email))
	return scanUser(row)
}

func GetUserByID(ctx context.Context, database *sql.DB, id int64) (*models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	row := database.QueryRowContext(ctx, `
		SELECT id, full_name, email, password_hash, role, school_id, is_verified, created_at
		FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// UserFilter — опциональные фильтры списка пользователей.
type UserFilter struct {
	Role     *models.Role
	SchoolID *int64
}

func ListUsers(ctx context.Context, database *sql.DB, f UserFilter) ([]models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	q := `
		SELECT id, full_name, email, password_hash, role, school_id, is_verified, created_at
		FROM users WHERE 1=1`
	args := []any{}
	idx := 1
	if f.Role != nil {
		q += fmt.Sprintf(" AND role = $%d", idx)
		args = append(args, string(*f.Role))
		idx++
	}
	if f.SchoolID != nil {
		q += fmt.Sprintf(" AND school_id = $%d", idx)
		args = append(args, *f.SchoolID)
		idx++
	}
	q += " ORDER BY id"

	rows, err := database.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		var u models.User
		var role string
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &role, &u.SchoolID, &u.IsVerified, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.Role = models.Role(role)
		out = append(out, u)
	}
	return out, rows.Err()
}

func CountUsers(ctx context.Context, database *sql.DB) (int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var n int
	err := database.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var role string
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &role, &u.SchoolID, &u.IsVerified, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}

// constraintViolated — нарушение конкретного уникального ограничения (23505).
// Понимает оба наших драйвера: pgx (боевой) и lib/pq (тестовый).
func constraintViolated(err error, constraint string) bool {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == "23505" && pgxErr.ConstraintName == constraint
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && pqErr.Constraint == constraint
	}
	return false
}
