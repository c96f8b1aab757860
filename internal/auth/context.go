package auth

import (
	"context"

	"licitadocs/internal/models"
)

type ctxKey string

const callerKey ctxKey = "caller"

// WithCaller stores the resolved user on the request context.
func WithCaller(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, callerKey, u)
}

// Caller returns the authenticated user, or nil outside protected routes.
func Caller(ctx context.Context) *models.User {
	if v, ok := ctx.Value(callerKey).(*models.User); ok {
		return v
	}
	return nil
}
