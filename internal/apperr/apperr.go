package apperr

import (
	"errors"
	"fmt"
)

// Kind — стабильный машинный код ошибки для API и логов.
type Kind string

const (
	KindDuplicateEmail     Kind = "duplicate_email"
	KindDuplicateCode      Kind = "duplicate_code"
	KindUnknownSchool      Kind = "unknown_school"
	KindForbidden          Kind = "forbidden"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindValidation         Kind = "invalid_request"
	KindInternal           Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.err }

// Is — две ошибки совпадают, если совпадают их Kind.
// Позволяет сравнивать через errors.Is с сентинелами ниже.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, err: err}
}

// Сентинелы таксономии. Сообщения — человеку, Kind — машине.
var (
	ErrDuplicateEmail     = New(KindDuplicateEmail, "пользователь с таким email уже существует")
	ErrDuplicateCode      = New(KindDuplicateCode, "школа с таким кодом уже существует")
	ErrUnknownSchool      = New(KindUnknownSchool, "школа не найдена")
	ErrForbidden          = New(KindForbidden, "доступ запрещён")
	ErrInvalidCredentials = New(KindInvalidCredentials, "неверный email или пароль")
)

// KindOf — Kind произвольной ошибки; всё нераспознанное считаем internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
