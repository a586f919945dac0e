package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIsMatchesByKind(t *testing.T) {
	wrapped := fmt.Errorf("create admin: %w", ErrDuplicateEmail)
	if !errors.Is(wrapped, ErrDuplicateEmail) {
		t.Fatal("обёрнутая ошибка должна матчиться по kind")
	}
	if errors.Is(wrapped, ErrDuplicateCode) {
		t.Fatal("разные kind не должны матчиться")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(KindInvalidCredentials, "недействительный токен", cause)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("wrap должен матчиться с сентинелом того же kind")
	}
	if !errors.Is(err, cause) {
		t.Fatal("wrap должен сохранять причину")
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(ErrForbidden) != KindForbidden {
		t.Fatal("kind сентинела")
	}
	if KindOf(errors.New("random")) != KindInternal {
		t.Fatal("незнакомая ошибка — internal")
	}
}
