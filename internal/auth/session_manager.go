package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/streamtube/backend/internal/logging"
	"github.com/streamtube/backend/internal/models"
	"github.com/streamtube/backend/internal/repositories"
)

// UserStore captures the persistence operations the session manager depends on.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIdentifier(ctx context.Context, username, email string) (models.User, error)
	SetRefreshToken(ctx context.Context, userID, token string) error
	RotateRefreshToken(ctx context.Context, userID, previous, next string) error
	ClearRefreshToken(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// Uploader stores a local media file remotely and returns its public URL.
type Uploader interface {
	UploadFile(ctx context.Context, localPath, keyPrefix string) (string, error)
}

// Manager orchestrates the account session lifecycle: registration, credential
// login, refresh-token rotation, revocation, and password changes. The refresh
// token persisted on the user record is the single source of session state; at
// most one session is active per user.
type Manager struct {
	users  UserStore
	tokens *TokenService
	media  Uploader

	nowFunc func() time.Time
}

// NewManager constructs a Manager atop the provided collaborators.
func NewManager(users UserStore, tokens *TokenService, media Uploader) *Manager {
	if users == nil || tokens == nil {
		panic("auth: user store and token service must not be nil")
	}
	return &Manager{
		users:   users,
		tokens:  tokens,
		media:   media,
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// RegisterParams carries the inputs for account creation. AvatarPath and
// CoverPath point at local temporary files produced by the multipart intake.
type RegisterParams struct {
	FullName   string
	Email      string
	Username   string
	Password   string
	AvatarPath string
	CoverPath  string
}

// Register validates and creates a new account. The avatar upload must succeed
// before any record is written; a failed precondition leaves no user behind.
func (m *Manager) Register(ctx context.Context, params RegisterParams) (models.PublicUser, error) {
	fullName := strings.TrimSpace(params.FullName)
	email := strings.ToLower(strings.TrimSpace(params.Email))
	username := strings.ToLower(strings.TrimSpace(params.Username))

	// The password is hashed as supplied; only blankness is validated on the
	// trimmed value so login compares the same bytes the user registered with.
	if fullName == "" || email == "" || username == "" || strings.TrimSpace(params.Password) == "" {
		return models.PublicUser{}, ErrFieldsRequired
	}

	if _, err := m.users.FindByIdentifier(ctx, username, email); err == nil {
		return models.PublicUser{}, ErrUserExists
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return models.PublicUser{}, fmt.Errorf("check existing user: %w", err)
	}

	if strings.TrimSpace(params.AvatarPath) == "" {
		return models.PublicUser{}, ErrAvatarRequired
	}

	avatarURL, err := m.media.UploadFile(ctx, params.AvatarPath, "avatars")
	if err != nil || avatarURL == "" {
		logging.FromContext(ctx).Warn("avatar upload failed", "error", err)
		return models.PublicUser{}, ErrAvatarRequired
	}

	coverURL := ""
	if strings.TrimSpace(params.CoverPath) != "" {
		coverURL, err = m.media.UploadFile(ctx, params.CoverPath, "covers")
		if err != nil {
			// Cover image is optional; a failed upload degrades to none.
			logging.FromContext(ctx).Warn("cover image upload failed", "error", err)
			coverURL = ""
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("hash password: %w", err)
	}

	now := m.nowFunc()
	user := models.User{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         email,
		FullName:      fullName,
		Password:      string(hashed),
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := m.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.PublicUser{}, ErrUserExists
		}
		return models.PublicUser{}, fmt.Errorf("create user: %w", err)
	}

	return user.Public(), nil
}

// Login verifies credentials and opens a session. Either username or email
// identifies the account. Issuing a new pair overwrites any previously stored
// refresh token, which deliberately invalidates the prior session.
func (m *Manager) Login(ctx context.Context, username, email, password string) (models.PublicUser, models.SessionTokens, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	if (username == "" && email == "") || password == "" {
		return models.PublicUser{}, models.SessionTokens{}, ErrCredentialsRequired
	}

	user, err := m.users.FindByIdentifier(ctx, username, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.PublicUser{}, models.SessionTokens{}, ErrUserNotFound
		}
		return models.PublicUser{}, models.SessionTokens{}, fmt.Errorf("find user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return models.PublicUser{}, models.SessionTokens{}, ErrInvalidPassword
	}

	tokens, err := m.issuePair(user)
	if err != nil {
		return models.PublicUser{}, models.SessionTokens{}, err
	}

	if err := m.users.SetRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return models.PublicUser{}, models.SessionTokens{}, fmt.Errorf("persist refresh token: %w", err)
	}

	return user.Public(), tokens, nil
}

// Refresh exchanges a valid, current refresh token for a new pair. The
// presented token must byte-equal the persisted value; anything else is a
// replay of a rotated or revoked token. The overwrite is a compare-and-swap on
// the presented value so concurrent refreshes cannot both rotate.
func (m *Manager) Refresh(ctx context.Context, presented string) (models.SessionTokens, error) {
	if presented == "" {
		return models.SessionTokens{}, ErrTokenInvalid
	}

	userID, err := m.tokens.VerifyRefreshToken(presented)
	if err != nil {
		return models.SessionTokens{}, err
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, ErrTokenInvalid
		}
		return models.SessionTokens{}, fmt.Errorf("find user: %w", err)
	}

	if user.RefreshToken == "" || user.RefreshToken != presented {
		return models.SessionTokens{}, ErrTokenReplayed
	}

	tokens, err := m.issuePair(user)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.users.RotateRefreshToken(ctx, user.ID, presented, tokens.RefreshToken); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Lost the rotation race: another refresh already consumed the token.
			return models.SessionTokens{}, ErrTokenReplayed
		}
		return models.SessionTokens{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	return tokens, nil
}

// Logout revokes the user's session by clearing the stored refresh token.
// Calling it without an active session is a no-op.
func (m *Manager) Logout(ctx context.Context, userID string) error {
	if err := m.users.ClearRefreshToken(ctx, userID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// ChangePassword replaces the password hash after verifying the old password.
// The active refresh token is intentionally left in place; a password change
// does not force re-login.
func (m *Manager) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return ErrFieldsRequired
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return ErrInvalidPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := m.users.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return nil
}

func (m *Manager) issuePair(user models.User) (models.SessionTokens, error) {
	accessToken, accessExpiry, err := m.tokens.IssueAccessToken(user)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, refreshExpiry, err := m.tokens.IssueRefreshToken(user)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("issue refresh token: %w", err)
	}

	return models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiry,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}
