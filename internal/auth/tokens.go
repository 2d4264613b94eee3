package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/streamtube/backend/internal/models"
)

const issuer = "streamtube"

// accessClaims carries the minimal non-sensitive identity encoded in access tokens.
type accessClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService mints and verifies the two bearer token classes. Access and
// refresh tokens are signed with distinct secrets so that compromise of one
// class cannot forge the other.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	nowFunc func() time.Time
}

// NewTokenService constructs a TokenService with the provided secrets and TTLs.
func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	if accessSecret == "" || refreshSecret == "" {
		panic("auth: token secrets must not be empty")
	}
	if accessSecret == refreshSecret {
		panic("auth: access and refresh secrets must differ")
	}
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		nowFunc:       func() time.Time { return time.Now().UTC() },
	}
}

// IssueAccessToken signs a short-lived stateless token identifying the user.
func (s *TokenService) IssueAccessToken(user models.User) (string, time.Time, error) {
	now := s.nowFunc()
	expiresAt := now.Add(s.accessTTL)

	claims := accessClaims{
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// IssueRefreshToken signs a longer-lived token carrying only the user id.
func (s *TokenService) IssueRefreshToken(user models.User) (string, time.Time, error) {
	now := s.nowFunc()
	expiresAt := now.Add(s.refreshTTL)

	// The jti claim keeps every issuance unique even within the same second,
	// which rotation relies on to distinguish the new token from the old.
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   user.ID,
		ID:        uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// VerifyAccessToken checks signature and expiry and returns the encoded user id.
func (s *TokenService) VerifyAccessToken(token string) (string, error) {
	return s.verify(token, s.accessSecret)
}

// VerifyRefreshToken checks signature and expiry and returns the encoded user id.
func (s *TokenService) VerifyRefreshToken(token string) (string, error) {
	return s.verify(token, s.refreshSecret)
}

func (s *TokenService) verify(token string, secret []byte) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	}, jwt.WithTimeFunc(s.nowFunc))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", ErrTokenInvalid
	}

	return claims.Subject, nil
}
