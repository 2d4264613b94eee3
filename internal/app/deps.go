package app

import (
	"context"
	"time"

	"github.com/streamtube/backend/internal/auth"
	"github.com/streamtube/backend/internal/config"
	"github.com/streamtube/backend/internal/db"
	"github.com/streamtube/backend/internal/handlers"
	"github.com/streamtube/backend/internal/middleware"
	"github.com/streamtube/backend/internal/repositories"
	"github.com/streamtube/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	media, err := storage.NewS3MediaStore(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, err
	}

	users := repositories.NewPostgresUserRepository(pool)
	tokens := auth.NewTokenService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	sessions := auth.NewManager(users, tokens, media)

	return handlers.Dependencies{
		Users:         users,
		Sessions:      sessions,
		Tokens:        tokens,
		Channels:      repositories.NewPostgresChannelRepository(pool),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		Media:         media,
		Limiter:       middleware.NewIPRateLimiter(10, time.Minute, 5, 10*time.Minute),
		CookieSecure:  cfg.CookieSecure,
	}, nil
}
