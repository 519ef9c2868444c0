package logger

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// With stores a child logger carrying the given fields in the context, so
// everything downstream of a middleware logs with the request's identity.
func With(ctx context.Context, fields ...any) context.Context {
	return context.WithValue(ctx, ctxKey{}, From(ctx).With(fields...))
}

// WithSession scopes the context logger to an authenticated session.
func WithSession(ctx context.Context, tenantID, userID string) context.Context {
	return With(ctx, "tenant_id", tenantID, "user_id", userID)
}

// From returns the context's logger, falling back to the process default.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return LoggerWrapper()
}
