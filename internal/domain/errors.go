package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. Services return these wrapped with context; the HTTP
// layer maps them to status codes with errors.Is. Storage failures are
// wrapped verbatim and fall through to the internal-error branch.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrInvalidCode  = errors.New("invalid check-in code")
	ErrNotApproved  = errors.New("guest pending approval")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
