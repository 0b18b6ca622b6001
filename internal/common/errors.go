// Package common defines shared constants and sentinel errors used across
// the server and the client. Callers should use errors.Is to match these
// values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors. The HTTP layer maps each of them onto one status.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorBadRequest   = errors.New("bad request")
	ErrorConflict     = errors.New("conflict")

	// Auth errors (missing, malformed, forged or expired credential).
	ErrTokenMissing = errors.New("token missing")
	ErrInvalidToken = errors.New("invalid token")
)

// ConflictError reports which unique field collided on signup.
type ConflictError struct {
	Field string
	Value string
}

func (e *ConflictError) Error() string {
	switch e.Field {
	case "email":
		return fmt.Sprintf("Email '%s' is already registered", e.Value)
	default:
		return fmt.Sprintf("User '%s' is already registered", e.Value)
	}
}

// Unwrap lets errors.Is(err, ErrorConflict) match.
func (e *ConflictError) Unwrap() error {
	return ErrorConflict
}

// NewConflictError is a shorthand used by the credential service.
func NewConflictError(field, value string) error {
	return &ConflictError{Field: field, Value: value}
}
