package middleware

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
)

// TraceMiddleware assigns each request a trace ID and attaches a
// request-scoped logger carrying it, so every log line emitted while
// handling the request can be correlated with its error responses.
func TraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context())

			requestLogger := base.With(
				slog.String("trace_id", shared.GetTraceID(ctx)),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			ctx = logger.WithLogger(ctx, requestLogger)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
