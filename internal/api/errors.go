package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/answers-api/internal/api/shared"
	"github.com/phrazzld/answers-api/internal/domain"
	"github.com/phrazzld/answers-api/internal/service"
	"github.com/phrazzld/answers-api/internal/service/auth"
	"github.com/phrazzld/answers-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing internal error types to clients.
func MapErrorToStatusCode(err error) int {
	var validationErrs validator.ValidationErrors

	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrConflict),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case domain.IsValidationError(err),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, domain.ErrInvalidVoteKind),
		errors.Is(err, domain.ErrEmptyUsername),
		errors.Is(err, domain.ErrUsernameTooLong),
		errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrPasswordTooLong),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, shared.ErrEmptyBody),
		errors.As(err, &validationErrs):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err. Messages of
// unexpected errors never reach the client.
func GetSafeErrorMessage(err error) string {
	var (
		validationErr  *domain.ValidationError
		validationErrs validator.ValidationErrors
	)

	switch {
	case err == nil:
		return "An unexpected error occurred"

	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"
	case errors.Is(err, auth.ErrMissingToken):
		return "Authorization header required"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, service.ErrUnauthorized):
		return "Authentication required"

	case errors.Is(err, service.ErrNotQuestionOwner):
		return "Only the question author can accept an answer"
	case errors.Is(err, service.ErrForbidden):
		return "You are not allowed to perform this action"

	case errors.Is(err, store.ErrQuestionNotFound):
		return "Question not found"
	case errors.Is(err, store.ErrAnswerNotFound):
		return "Answer not found"
	case errors.Is(err, store.ErrNotificationNotFound):
		return "Notification not found"
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, store.ErrUsernameExists):
		return "Username already exists"
	case errors.Is(err, service.ErrConflict),
		errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"
	case errors.As(err, &validationErrs):
		return SanitizeValidationError(validationErrs)
	case errors.As(err, &validationErr):
		return fmt.Sprintf("Invalid %s: %s", validationErr.Field, validationErr.Message)
	case errors.Is(err, domain.ErrEmptyUsername),
		errors.Is(err, domain.ErrUsernameTooLong),
		errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrPasswordTooLong):
		return upperFirst(err.Error())
	case MapErrorToStatusCode(err) == http.StatusBadRequest:
		return "Invalid request"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError describes the first failed field of a validator
// error without echoing submitted values.
func SanitizeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return "Validation error"
	}

	fe := validationErrs[0]
	return fmt.Sprintf("Invalid %s: %s", strings.ToLower(fe.Field()), validationTagMessage(fe.Tag()))
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "uuid":
		return "invalid identifier"
	default:
		return "validation failed"
	}
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// HandleAPIError writes the response for err. fallback replaces the safe
// message for server errors when non-empty.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
