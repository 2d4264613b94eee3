package repositories

import (
	"context"

	"github.com/streamtube/backend/internal/models"
)

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIdentifier(ctx context.Context, username, email string) (models.User, error)
	SetRefreshToken(ctx context.Context, userID, token string) error
	RotateRefreshToken(ctx context.Context, userID, previous, next string) error
	ClearRefreshToken(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateAccount(ctx context.Context, userID, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, userID, avatarURL string) (models.User, error)
	UpdateCoverImage(ctx context.Context, userID, coverImageURL string) (models.User, error)
}
