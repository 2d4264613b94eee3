package auth

import (
	"context"

	"github.com/streamtube/backend/internal/models"
)

type identityKey struct{}

// WithIdentity attaches the authenticated user's sanitized record to the context.
func WithIdentity(ctx context.Context, user models.PublicUser) context.Context {
	return context.WithValue(ctx, identityKey{}, user)
}

// IdentityFromContext returns the authenticated identity set by the auth gate.
func IdentityFromContext(ctx context.Context) (models.PublicUser, bool) {
	user, ok := ctx.Value(identityKey{}).(models.PublicUser)
	return user, ok
}
