package policy

import (
	"database/sql"

	"github.com/Spok95/school-platform-api/internal/apperr"
	"github.com/Spok95/school-platform-api/internal/models"
)

// Action — провижининг-операция, требующая авторизации.
type Action string

const (
	CreateSchool      Action = "create_school"
	CreateSchoolAdmin Action = "create_school_admin"
	ListSchools       Action = "list_schools"
	AuditUsers        Action = "audit_users"
)

// Caller — кто запрашивает операцию: роль и школьная привязка из токена.
type Caller struct {
	UserID   int64
	Role     models.Role
	SchoolID sql.NullInt64
}

// Scope — школа, которой касается операция (0 — платформенный уровень).
type Scope struct {
	SchoolID int64
}

// Authorize решает, может ли caller выполнить action в данном scope.
// Неизвестная роль или действие — отказ (fail closed).
func Authorize(c Caller, action Action, scope Scope) error {
	if !c.Role.Known() {
		return apperr.ErrForbidden
	}
	switch action {
	case CreateSchool, CreateSchoolAdmin, ListSchools, AuditUsers:
		// провижининг и аудит — только платформенный уровень
		if c.Role != models.Superadmin {
			return apperr.ErrForbidden
		}
		return nil
	}
	return apperr.ErrForbidden
}

// OwnScope — неявная область действия school_admin: только своя школа.
// Для остальных ролей области нет.
func OwnScope(c Caller) (Scope, bool) {
	if c.Role == models.SchoolAdmin && c.SchoolID.Valid {
		return Scope{SchoolID: c.SchoolID.Int64}, true
	}
	return Scope{}, false
}
