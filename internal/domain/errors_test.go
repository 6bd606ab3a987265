package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"foodpoints/internal/domain"
)

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", domain.Validation("start %s after end %s", "2026-01-02", "2026-01-01"))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatal("expected errors.Is(err, ErrValidation)")
	}
	if errors.Is(err, domain.ErrNotFound) {
		t.Fatal("validation error must not match ErrNotFound")
	}
	if got := domain.KindOf(err); got != domain.KindValidation {
		t.Fatalf("KindOf = %q; want %q", got, domain.KindValidation)
	}
}

func TestErrorUnwrapCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := domain.Persistence("insert log entry", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable through Unwrap")
	}
	if err.Error() != "insert log entry: connection refused" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestKindOf_PlainError(t *testing.T) {
	if got := domain.KindOf(errors.New("boom")); got != "" {
		t.Fatalf("KindOf(plain) = %q; want empty", got)
	}
}
