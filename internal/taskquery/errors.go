package taskquery

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for query compilation and cursor decoding.
var (
	// ErrInvalidQuery is returned when listing parameters fail validation.
	// It is wrapped by *InvalidQueryError, which carries field-level detail.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidCursor is returned when a pagination token cannot be decoded.
	ErrInvalidCursor = errors.New("invalid cursor")
)

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// InvalidQueryError aggregates every invalid field found during compilation.
// Validation does not stop at the first offending field.
type InvalidQueryError struct {
	Fields []FieldError
}

// Error implements the error interface for InvalidQueryError.
func (e *InvalidQueryError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidQuery.Error()
	}

	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return fmt.Sprintf("%s: %s", ErrInvalidQuery.Error(), strings.Join(parts, "; "))
}

// Unwrap returns ErrInvalidQuery to support errors.Is checks.
func (e *InvalidQueryError) Unwrap() error {
	return ErrInvalidQuery
}

// add records an invalid field.
func (e *InvalidQueryError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// orNil returns the error when at least one field failed, nil otherwise.
func (e *InvalidQueryError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
