package authctx

import (
	"context"

	"hr-attendance-backend/internal/domain"
)

type contextKey string

const principalContextKey contextKey = "principal"

func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

func FromContext(ctx context.Context) *domain.Principal {
	val, ok := ctx.Value(principalContextKey).(domain.Principal)
	if !ok {
		return nil
	}
	return &val
}
