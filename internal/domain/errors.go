package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// It is usually wrapped in a ValidationError naming the field.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or nil.
	ErrInvalidID = errors.New("invalid ID")

	// ErrEmptyContent is returned when required text is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidVoteKind is returned when a vote kind is neither up nor down.
	ErrInvalidVoteKind = errors.New("invalid vote kind")
)

// ValidationError reports which field failed validation and why.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped sentinel so callers can use errors.Is.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError builds a ValidationError for field. A nil err defaults
// to ErrValidation.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{Field: field, Message: message, Err: err}
}

// IsValidationError reports whether err is any domain validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrEmptyContent) ||
		errors.Is(err, ErrInvalidVoteKind)
}
