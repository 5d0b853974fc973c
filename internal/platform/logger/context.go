package logger

import (
	"context"
	"log/slog"
)

// contextKey is a private type so context values set here can't collide with
// values set by other packages.
type contextKey int

const (
	loggerContextKey contextKey = iota
	requestIDContextKey
)

// WithLogger returns a copy of ctx carrying the given logger. Handlers and
// services retrieve it with FromContext so request-scoped attributes (like the
// request ID) follow the work wherever it goes.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, log)
}

// FromContext returns the logger stored in ctx, if any.
func FromContext(ctx context.Context) (*slog.Logger, bool) {
	log, ok := ctx.Value(loggerContextKey).(*slog.Logger)
	return log, ok
}

// FromContextOrDefault returns the logger stored in ctx, falling back to def,
// and finally to slog.Default when def is nil. It never returns nil.
func FromContextOrDefault(ctx context.Context, def *slog.Logger) *slog.Logger {
	if log, ok := FromContext(ctx); ok {
		return log
	}
	if def != nil {
		return def
	}
	return slog.Default()
}

// WithRequestID returns a copy of ctx carrying a correlation ID for the
// current request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// RequestID returns the correlation ID stored in ctx, or "" when none is set.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}
