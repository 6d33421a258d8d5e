package middleware

import (
	"context"

	"perftrack/internal/domain/auth"
)

func withTestUser(ctx context.Context, user auth.UserContext) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}
