package logger

import (
	"context"
	"log/slog"
)

// loggerContextKey is the private key type for loggers stored in a context.
type loggerContextKey struct{}

// WithLogger returns a copy of the context carrying the given logger.
// Request middleware uses this to propagate a logger enriched with
// per-request attributes (trace ID) down to stores and services.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, log)
}

// FromContext retrieves the logger from the context, falling back to the
// process default logger when none was attached.
func FromContext(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return slog.Default()
}

// FromContextOrDefault retrieves the logger from the context, falling back
// to the provided logger. Components use this so their component-scoped
// attributes survive when no request logger is present.
func FromContextOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if log, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}
