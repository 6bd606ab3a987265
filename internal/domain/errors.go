package domain

import (
	"errors"
	"fmt"
)

// Kind categorizes an Error. Each kind is also a sentinel usable with errors.Is.
type Kind string

const (
	KindAuthentication Kind = "authentication"
	KindForbidden      Kind = "forbidden"
	KindProvider       Kind = "provider"
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindNoSelection    Kind = "no_selection"
	KindPersistence    Kind = "persistence"
)

func (k Kind) Error() string { return string(k) }

// Sentinels for errors.Is checks against an *Error of the same kind.
var (
	ErrAuthentication error = KindAuthentication
	ErrForbidden      error = KindForbidden
	ErrProvider       error = KindProvider
	ErrValidation     error = KindValidation
	ErrNotFound       error = KindNotFound
	ErrNoSelection    error = KindNoSelection
	ErrPersistence    error = KindPersistence
)

// Error is the structured error returned by workflow and account operations.
// None of these are fatal; they describe the outcome of a single event.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Authentication reports rejected credentials or a missing login.
func Authentication(msg string) *Error { return newError(KindAuthentication, nil, "%s", msg) }

// Forbidden reports an operation the current identity may not perform.
func Forbidden(msg string) *Error { return newError(KindForbidden, nil, "%s", msg) }

// Provider wraps a failed or timed-out food lookup.
func Provider(msg string, cause error) *Error { return newError(KindProvider, cause, "%s", msg) }

// Validation reports input rejected before any mutation.
func Validation(format string, args ...any) *Error {
	return newError(KindValidation, nil, format, args...)
}

// NotFound reports a missing account or log entry.
func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, nil, format, args...)
}

// NoSelection reports a log confirmation without a selected food.
func NoSelection() *Error { return newError(KindNoSelection, nil, "no food selected") }

// Persistence wraps a failed store operation.
func Persistence(msg string, cause error) *Error { return newError(KindPersistence, cause, "%s", msg) }
