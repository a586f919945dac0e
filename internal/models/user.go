package models

import (
	"database/sql"
	"time"
)

type Role string

const (
	Superadmin  Role = "superadmin"
	SchoolAdmin Role = "school_admin"
	Teacher     Role = "teacher"
	Student     Role = "student"
)

// Known — известна ли роль системе. Всё неизвестное считаем запрещённым.
func (r Role) Known() bool {
	switch r {
	case Superadmin, SchoolAdmin, Teacher, Student:
		return true
	}
	return false
}

// RequiresSchool — роли, которые не существуют без привязки к школе.
func (r Role) RequiresSchool() bool {
	return r == SchoolAdmin || r == Teacher || r == Student
}

type User struct {
	ID           int64
	FullName     string
	Email        string
	PasswordHash string
	Role         Role
	SchoolID     sql.NullInt64
	IsVerified   bool
	CreatedAt    time.Time
}
