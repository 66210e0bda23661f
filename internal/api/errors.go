package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/service/assistant"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/phrazzld/taskflow-api/internal/taskquery"
)

// MapErrorToStatusCode translates service and store errors into HTTP status
// codes. Unrecognized errors map to 500.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, taskquery.ErrInvalidQuery),
		errors.Is(err, taskquery.ErrInvalidCursor),
		errors.Is(err, assistant.ErrEmptyQuery),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	case errors.Is(err, domain.ErrNotTaskParticipant):
		return http.StatusForbidden

	case store.IsNotFoundError(err):
		return http.StatusNotFound

	case store.IsDuplicateError(err),
		errors.Is(err, store.ErrUserHasTasks):
		return http.StatusConflict

	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-safe message for the given error.
// Internal detail (driver errors, SQL) never reaches the response body.
func GetSafeErrorMessage(err error) string {
	switch {
	case errors.Is(err, taskquery.ErrInvalidCursor):
		return "Invalid pagination cursor"
	case errors.Is(err, taskquery.ErrInvalidQuery):
		return "Invalid query parameters"
	case errors.Is(err, assistant.ErrEmptyQuery):
		return "Query cannot be empty"
	case errors.Is(err, store.ErrEmailExists):
		return "Email address is already registered"
	case errors.Is(err, store.ErrUsernameExists):
		return "Username is already taken"
	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"
	case errors.Is(err, store.ErrUserHasTasks):
		return "User still has tasks assigned or created"
	case errors.Is(err, domain.ErrNotTaskParticipant):
		return "Only the task's creator or assignee may modify it"
	case errors.Is(err, store.ErrInvalidEntity):
		return "Request references an entity that does not exist"
	case errors.Is(err, domain.ErrValidation):
		// Domain validation messages never carry user data.
		return err.Error()
	case errors.Is(err, store.ErrUnavailable):
		return "Service temporarily unavailable"
	default:
		return "An internal error occurred"
	}
}

// QueryFieldDetails extracts the per-field detail from a compilation error,
// if the error carries any.
func QueryFieldDetails(err error) []shared.FieldDetail {
	var invalid *taskquery.InvalidQueryError
	if !errors.As(err, &invalid) {
		return nil
	}

	details := make([]shared.FieldDetail, 0, len(invalid.Fields))
	for _, f := range invalid.Fields {
		details = append(details, shared.FieldDetail{Field: f.Field, Message: f.Message})
	}
	return details
}

// SanitizeValidationError converts validator.ValidationErrors into a
// client-safe message naming the offending fields without echoing values.
func SanitizeValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "Invalid request"
	}

	fields := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		fields = append(fields, strings.ToLower(fieldError.Field()))
	}

	return "Invalid request: check the following fields: " + strings.Join(fields, ", ")
}
