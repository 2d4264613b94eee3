package models

import "time"

// User represents an account within the StreamTube platform. Password holds the
// bcrypt hash, never a plaintext value. RefreshToken is the single currently
// active refresh credential for the account, empty when no session exists.
type User struct {
	ID            string
	Username      string
	Email         string
	FullName      string
	Password      string
	AvatarURL     string
	CoverImageURL string
	RefreshToken  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Public returns a client-safe view of the user with credential material removed.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
	}
}

// PublicUser is the sanitized projection returned to clients; it never carries
// the password hash or refresh token.
type PublicUser struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullname"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Subscription is a relation edge: Subscriber follows Channel. A user may
// appear on either side; the (subscriber, channel) pair is unique.
type Subscription struct {
	ID         string
	Subscriber string
	Channel    string
	CreatedAt  time.Time
}

// Video stores the metadata needed to project watch-history entries. Intake and
// transcoding happen elsewhere; this service only reads these records.
type Video struct {
	ID           string
	OwnerID      string
	Title        string
	ThumbnailURL string
	VideoURL     string
	Duration     int64
	CreatedAt    time.Time
}

// OwnerSummary is the denormalized channel owner attached to history entries.
type OwnerSummary struct {
	FullName  string `json:"fullname"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar"`
}

// VideoWithOwner pairs a watched video with a summary of its owner.
type VideoWithOwner struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	ThumbnailURL string       `json:"thumbnail"`
	VideoURL     string       `json:"videoUrl"`
	Duration     int64        `json:"duration"`
	CreatedAt    time.Time    `json:"createdAt"`
	Owner        OwnerSummary `json:"owner"`
}

// ChannelProfile is the aggregated public view of a channel, including the
// viewer's subscription state.
type ChannelProfile struct {
	Username        string `json:"username"`
	FullName        string `json:"fullname"`
	Email           string `json:"email"`
	AvatarURL       string `json:"avatar"`
	CoverImageURL   string `json:"coverImage"`
	SubscriberCount int64  `json:"subscribersCount"`
	SubscribedTo    int64  `json:"subscribedToCount"`
	IsSubscribed    bool   `json:"isSubscribed"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
