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
)

// CreateSchool — атомарная вставка; дубликат кода превращается в ErrDuplicateCode.
func CreateSchool(ctx context.Context, database *sql.DB, name, code string) (*models.School, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	s := models.School{
		Name: strings.TrimSpace(name),
		Code: strings.TrimSpace(code),
	}
	err := database.QueryRowContext(ctx, `
		INSERT INTO schools (name, code)
		VALUES ($1, $2)
		RETURNING id, created_at`,
		s.Name, s.Code,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		if constraintViolated(err, "schools_code_key") {
			return nil, apperr.ErrDuplicateCode
		}
		return nil, fmt.Errorf("insert school: %w", err)
	}
	return &s, nil
}

func GetSchoolByID(ctx context.Context, database *sql.DB, id int64) (*models.School, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	row := database.QueryRowContext(ctx, `
		SELECT id, name, code, created_at FROM schools WHERE id = $1`, id)
	return scanSchool(row)
}

func GetSchoolByCode(ctx context.Context, database *sql.DB, code string) (*models.School, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	row := database.QueryRowContext(ctx, `
		SELECT id, name, code, created_at FROM schools WHERE code = $1`, strings.TrimSpace(code))
	return scanSchool(row)
}

func ListSchools(ctx context.Context, database *sql.DB) ([]models.School, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT id, name, code, created_at FROM schools ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.School
	for rows.Next() {
		var s models.School
		if err := rows.Scan(&s.ID, &s.Name, &s.Code, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func CountSchools(ctx context.Context, database *sql.DB) (int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var n int
	err := database.QueryRowContext(ctx, `SELECT COUNT(*) FROM schools`).Scan(&n)
	return n, err
}

func scanSchool(row *sql.Row) (*models.School, error) {
	var s models.School
	err := row.Scan(&s.ID, &s.Name, &s.Code, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
