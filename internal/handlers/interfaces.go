package handlers

import (
	"context"

	"github.com/streamtube/backend/internal/auth"
	"github.com/streamtube/backend/internal/models"
)

// SessionManager orchestrates the account session lifecycle for the HTTP surface.
type SessionManager interface {
	Register(ctx context.Context, params auth.RegisterParams) (models.PublicUser, error)
	Login(ctx context.Context, username, email, password string) (models.PublicUser, models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Logout(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}

// TokenVerifier checks an access token and resolves the encoded user id.
type TokenVerifier interface {
	VerifyAccessToken(token string) (string, error)
}

// UserStore captures the persistence operations required by the HTTP handlers.
type UserStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIdentifier(ctx context.Context, username, email string) (models.User, error)
	UpdateAccount(ctx context.Context, userID, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, userID, avatarURL string) (models.User, error)
	UpdateCoverImage(ctx context.Context, userID, coverImageURL string) (models.User, error)
}

// ChannelStore exposes the relationship-aggregation read path.
type ChannelStore interface {
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.VideoWithOwner, error)
	AppendWatchHistory(ctx context.Context, userID, videoID string) error
}

// SubscriptionStore mutates subscription edges.
type SubscriptionStore interface {
	Subscribe(ctx context.Context, sub models.Subscription) error
	Unsubscribe(ctx context.Context, subscriberID, channelID string) error
}

// MediaUploader stores a local media file remotely and returns its public URL.
type MediaUploader interface {
	UploadFile(ctx context.Context, localPath, keyPrefix string) (string, error)
}
