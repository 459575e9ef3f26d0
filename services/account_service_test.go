package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	// Обернутая ошибка уникальности распознается
	wrapped := fmt.Errorf("не удалось создать банковский счет: %w", &pgconn.PgError{Code: pgUniqueViolation})
	if !isUniqueViolation(wrapped) {
		t.Error("wrapped unique violation not recognized")
	}

	// Прочие ошибки не считаются нарушением уникальности
	if isUniqueViolation(errors.New("ошибка подключения")) {
		t.Error("generic error treated as unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: pgLockNotAvailable}) {
		t.Error("lock timeout treated as unique violation")
	}
	if isUniqueViolation(nil) {
		t.Error("nil treated as unique violation")
	}
}

func TestGenerateAccountNumber(t *testing.T) {
	number := generateAccountNumber()

	if len(number) != 20 {
		t.Errorf("number length: got %d want 20", len(number))
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			t.Fatalf("number contains non-digit %q: %s", r, number)
		}
	}
}
