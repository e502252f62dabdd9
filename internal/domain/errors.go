// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common validation errors
var (
	ErrEmptyAccountID  = errors.New("account ID cannot be empty")
	ErrEmptyLogin      = errors.New("login cannot be empty")
	ErrInvalidLogin    = errors.New("login must contain only latin letters and digits")
	ErrEmptyPassword   = errors.New("password cannot be empty")
	ErrInvalidPassword = errors.New("password must contain only latin letters and digits")
	ErrEmptyName       = errors.New("name cannot be empty")
	ErrInvalidName     = errors.New("name must contain only latin or cyrillic letters")

	// ErrInconsistentRevocation is returned when exactly one of the
	// revocation audit fields is set.
	ErrInconsistentRevocation = errors.New("revoked_at and revoked_by must be set together")
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)

// IsValidationError reports whether err is one of the field validation errors.
// Handlers use this to surface 400s before any store access happens.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrEmptyAccountID) ||
		errors.Is(err, ErrEmptyLogin) ||
		errors.Is(err, ErrInvalidLogin) ||
		errors.Is(err, ErrEmptyPassword) ||
		errors.Is(err, ErrInvalidPassword) ||
		errors.Is(err, ErrEmptyName) ||
		errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrInconsistentRevocation)
}
