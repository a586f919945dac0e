package jobs

import (
	"context"
	"database/sql"
	"time"

	"github.com/Spok95/school-platform-api/internal/db"
	"github.com/Spok95/school-platform-api/internal/metrics"
	"github.com/Spok95/school-platform-api/internal/models"
	"github.com/Spok95/school-platform-api/internal/service"
	"go.uber.org/zap"
)

// RoleAudit — фоновый самоконтроль: гейджи числа пользователей по ролям
// и проверка инварианта единственного суперадмина.
func RoleAudit(database *sql.DB, log *zap.SugaredLogger) Job {
	roles := []models.Role{models.Superadmin, models.SchoolAdmin, models.Teacher, models.Student}
	return func(ctx context.Context) error {
		counts, err := db.CountByRole(ctx, database)
		if err != nil {
			return err
		}
		for _, r := range roles {
			metrics.UsersByRole.WithLabelValues(string(r)).Set(float64(counts[r]))
		}
		_, err = service.CheckSuperadminInvariant(ctx, database, log)
		return err
	}
}

// DBPing — периодическая проверка живости БД с записью латентности.
func DBPing(database *sql.DB) Job {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 800*time.Millisecond)
		defer cancel()
		t0 := time.Now()
		if err := database.PingContext(ctx); err != nil {
			return err
		}
		metrics.ObserveDBPing(time.Since(t0))
		return nil
	}
}
