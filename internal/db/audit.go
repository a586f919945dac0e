package db

// Типизированные версии ручных аудиторских запросов,
// раньше жившие в виде ad-hoc SQL при разборе инцидентов.

import (
	"context"
	"database/sql"

	"github.com/Spok95/school-platform-api/internal/ctxutil"
	"github.com/Spok95/school-platform-api/internal/models"
)

// CountByRole — сколько пользователей в каждой роли.
func CountByRole(ctx context.Context, database *sql.DB) (map[models.Role]int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[models.Role]int)
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		out[models.Role(role)] = n
	}
	return out, rows.Err()
}

type SchoolUserCount struct {
	SchoolID   int64
	SchoolName string
	Code       string
	Admins     int
	Teachers   int
	Students   int
}

// CountUsersBySchool — разбивка пользователей по школам и ролям.
func CountUsersBySchool(ctx context.Context, database *sql.DB) ([]SchoolUserCount, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT s.id, s.name, s.code,
		       COUNT(*) FILTER (WHERE u.role = 'school_admin'),
		       COUNT(*) FILTER (WHERE u.role = 'teacher'),
		       COUNT(*) FILTER (WHERE u.role = 'student')
		FROM schools s
		LEFT JOIN users u ON u.school_id = s.id
		GROUP BY s.id, s.name, s.code
		ORDER BY s.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SchoolUserCount
	for rows.Next() {
		var c SchoolUserCount
		if err := rows.Scan(&c.SchoolID, &c.SchoolName, &c.Code, &c.Admins, &c.Teachers, &c.Students); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListUnverifiedUsers — аккаунты без подтверждения, кандидаты на ручную проверку.
func ListUnverifiedUsers(ctx context.Context, database *sql.DB) ([]models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT id, full_name, email, password_hash, role, school_id, is_verified, created_at
		FROM users WHERE is_verified = FALSE ORDER BY created_at`)
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
