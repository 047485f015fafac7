package middleware

import (
	"context"

	"github.com/jrybusiness/stylerental-backend/internal/listing/domain"
)

// ContextKey is the type of the request-scoped values set by this package.
type ContextKey string

const (
	CallerCtxKey    = ContextKey("caller")
	RequestIDCtxKey = ContextKey("request_id")
)

func WithCaller(ctx context.Context, caller domain.Caller) context.Context {
	return context.WithValue(ctx, CallerCtxKey, caller)
}

// CallerFromContext returns the identity attached by JWTAuth.
func CallerFromContext(ctx context.Context) (domain.Caller, bool) {
	caller, ok := ctx.Value(CallerCtxKey).(domain.Caller)
	return caller, ok
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDCtxKey).(string)
	return id
}
