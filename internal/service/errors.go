package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/answers-api/internal/store"
)

// Service error taxonomy. Callers check these with errors.Is; the API layer
// maps each to a status code.
var (
	// ErrNotFound indicates the requested question, answer or notification does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates the operation needs an authenticated user.
	ErrUnauthorized = errors.New("authentication required")

	// ErrForbidden indicates the authenticated user may not perform the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict indicates the operation collides with existing state.
	ErrConflict = errors.New("conflict")

	// ErrNotQuestionOwner is returned when someone other than the question
	// author tries to accept an answer.
	ErrNotQuestionOwner = fmt.Errorf("%w: only the question author can accept an answer", ErrForbidden)

	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = fmt.Errorf("%w: username already exists", ErrConflict)
)

// ServiceError adds the failing service and operation to an unexpected error.
type ServiceError struct {
	Service   string
	Operation string
	Err       error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s service %s operation failed", e.Service, e.Operation)
	}
	return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Operation, e.Err)
}

// Unwrap returns the wrapped error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a ServiceError.
func NewServiceError(service, operation string, err error) *ServiceError {
	return &ServiceError{Service: service, Operation: operation, Err: err}
}

// translateStoreError converts store sentinels into the service taxonomy,
// keeping the original error in the chain. Errors with no service meaning
// are wrapped in a ServiceError.
func translateStoreError(service, operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case store.IsNotFoundError(err):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case store.IsDuplicateError(err):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		return NewServiceError(service, operation, err)
	}
}
