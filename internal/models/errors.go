package models

import (
	"errors"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrMissingFields      = errors.New("missing required fields")
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("request already in progress")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")

	// ErrIdempotencyMismatch is a key reused for a draft other than the one it was first sent with.
	ErrIdempotencyMismatch = errors.New("idempotency key reused with a different order")
)

// ValidationError carries one message per offending field.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(e.Errors, " // ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
