package shared

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// Envelope is the standard wrapper for successful API payloads.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// FieldDetail reports one invalid request field in an error response.
type FieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse defines the standard error response structure.
type ErrorResponse struct {
	Success bool          `json:"success"`
	Error   string        `json:"error"`
	Fields  []FieldDetail `json:"fields,omitempty"`
	Code    int           `json:"-"` // Not serialized to JSON, used for logging
	TraceID string        `json:"trace_id,omitempty"`
}

// RespondWithJSON writes a JSON response with the given status code and data.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// RespondWithSuccess wraps the payload in the standard success envelope.
func RespondWithSuccess(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	data interface{},
	message string,
) {
	RespondWithJSON(w, r, status, Envelope{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// RespondWithError writes a JSON error response with the given status code and message.
// It also sets the TraceID from the request context if available.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	RespondWithFieldErrors(w, r, status, message, nil)
}

// RespondWithFieldErrors writes a JSON error response carrying field-level
// validation detail alongside the top-level message.
func RespondWithFieldErrors(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	message string,
	fields []FieldDetail,
) {
	traceID := GetTraceID(r.Context())

	errorResponse := ErrorResponse{
		Success: false,
		Error:   message,
		Fields:  fields,
		Code:    status,
		TraceID: traceID,
	}

	slog.Debug("sending error response",
		"status_code", status,
		"message", message,
		"trace_id", traceID,
		"path", r.URL.Path,
		"method", r.Method)

	RespondWithJSON(w, r, status, errorResponse)
}

// RespondWithErrorAndLog writes a JSON error response and also logs the detailed error.
// This is useful for handling errors where you want to log the full error but only
// expose a sanitized version to the client.
//
// Log level strategy: 5xx errors at ERROR level, 4xx at DEBUG level.
func RespondWithErrorAndLog(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	userMessage string,
	err error,
) {
	traceID := GetTraceID(r.Context())

	// Only the safe message goes to the client; the raw error stays in logs.
	errorResponse := ErrorResponse{
		Success: false,
		Error:   userMessage,
		Code:    status,
		TraceID: traceID,
	}

	logAttrs := []slog.Attr{
		slog.String("trace_id", traceID),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.Int("status_code", status),
		slog.String("user_message", userMessage),
	}

	if err != nil {
		logAttrs = append(logAttrs,
			slog.String("error", err.Error()),
			slog.String("error_type", fmt.Sprintf("%T", err)))
	}

	logLevel := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		logLevel = slog.LevelError
	}

	slog.LogAttrs(r.Context(), logLevel, "API error response", logAttrs...)

	RespondWithJSON(w, r, status, errorResponse)
}
