package repositories

import (
	"context"

	"github.com/streamtube/backend/internal/models"
)

// SubscriptionRepository defines data access for channel subscription edges.
type SubscriptionRepository interface {
	Subscribe(ctx context.Context, sub models.Subscription) error
	Unsubscribe(ctx context.Context, subscriberID, channelID string) error
	IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error)
}
