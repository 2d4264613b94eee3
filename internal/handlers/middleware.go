package handlers

import (
	"net/http"
	"strings"

	"github.com/streamtube/backend/internal/auth"
	"github.com/streamtube/backend/internal/logging"
)

const accessTokenCookie = "accessToken"

// AuthGate authenticates bearer credentials and attaches the resolved identity
// to the request context. It is stateless with respect to refresh-token
// revocation: an unexpired access token stays valid until natural expiry.
type AuthGate struct {
	Tokens TokenVerifier
	Users  UserStore
}

// Require wraps a handler so it only runs for authenticated requests.
func (g AuthGate) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := bearerToken(r)
		if token == "" {
			respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
			return
		}

		userID, err := g.Tokens.VerifyAccessToken(token)
		if err != nil {
			logging.FromContext(ctx).Warn("access token rejected", "error", err)
			respondError(ctx, w, http.StatusUnauthorized, "invalid access token")
			return
		}

		user, err := g.Users.FindByID(ctx, userID)
		if err != nil {
			logging.FromContext(ctx).Warn("token subject no longer exists", "userId", userID, "error", err)
			respondError(ctx, w, http.StatusUnauthorized, "invalid access token")
			return
		}

		ctx = auth.WithIdentity(ctx, user.Public())
		next(w, r.WithContext(ctx))
	}
}

// bearerToken extracts the access token, preferring the cookie over the
// Authorization header.
func bearerToken(r *http.Request) string {
	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}

	return ""
}
