package repositories

import (
	"context"

	"github.com/streamtube/backend/internal/models"
)

// ChannelRepository exposes the relationship-aggregation read path: channel
// profiles with subscriber counts and the watch-history expansion.
type ChannelRepository interface {
	// ChannelProfile aggregates subscriber counts for the named channel and the
	// viewer's subscription state. viewerID may be empty for anonymous viewers.
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	// WatchHistory returns the user's watched videos in insertion order, each
	// carrying a denormalized owner summary.
	WatchHistory(ctx context.Context, userID string) ([]models.VideoWithOwner, error)
	// AppendWatchHistory records a watch event at the end of the history.
	AppendWatchHistory(ctx context.Context, userID, videoID string) error
}
