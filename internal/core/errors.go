package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a referenced entity as absent from the store.
	ErrNotFound = errors.New("not found")

	ErrEmptyAmount   = errors.New("empty amount")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
)

// ValidationError carries a human-readable description of rejected input.
// Row is the 1-indexed spreadsheet row (header is row 1) when the failure is
// row-scoped, 0 otherwise.
type ValidationError struct {
	Row     int
	Message string
	cause   error
}

func (e *ValidationError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return e.cause }

// Invalidf builds a batch-scoped validation error.
func Invalidf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// RowInvalidf builds a validation error scoped to one spreadsheet row.
func RowInvalidf(row int, format string, args ...any) *ValidationError {
	return &ValidationError{Row: row, Message: fmt.Sprintf(format, args...)}
}

// InvalidWrap builds a validation error that preserves the underlying cause
// for errors.Is/As while keeping the caller-visible message.
func InvalidWrap(cause error, format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...), cause: cause}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// SetupError reports broken reference data discovered before any row is
// processed, such as a missing canonical category. It is fatal for the
// operation, not row-scoped.
type SetupError struct {
	Message string
}

func (e *SetupError) Error() string { return e.Message }

// Setupf builds a SetupError.
func Setupf(format string, args ...any) *SetupError {
	return &SetupError{Message: fmt.Sprintf(format, args...)}
}
