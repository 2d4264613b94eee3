package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/mail"
	"os"
	"path/filepath"
	"strings"

	"github.com/streamtube/backend/internal/auth"
	"github.com/streamtube/backend/internal/logging"
	"github.com/streamtube/backend/internal/models"
)

const (
	refreshTokenCookie = "refreshToken"

	maxUploadBytes = 32 << 20
)

// UserHandler implements the account and session endpoints.
type UserHandler struct {
	Sessions SessionManager
	Users    UserStore
	Media    MediaUploader
	Limiter  RateLimiter

	// CookieSecure sets the Secure attribute on token cookies; disable only
	// for non-TLS local development.
	CookieSecure bool
}

// Register handles POST /api/v1/users/register (multipart form).
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "register") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many registration attempts")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		logger.Warn("invalid register payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	avatarPath, err := saveFormFile(r, "avatar")
	if err != nil {
		logger.Warn("avatar intake failed", "error", err)
		respondError(ctx, w, http.StatusBadRequest, auth.ErrAvatarRequired.Error())
		return
	}
	defer removeTemp(avatarPath)

	coverPath, err := saveFormFile(r, "coverImage")
	if err != nil {
		// Cover image is optional.
		coverPath = ""
	}
	defer removeTemp(coverPath)

	user, err := h.Sessions.Register(ctx, auth.RegisterParams{
		FullName:   r.FormValue("fullname"),
		Email:      r.FormValue("email"),
		Username:   r.FormValue("username"),
		Password:   r.FormValue("password"),
		AvatarPath: avatarPath,
		CoverPath:  coverPath,
	})
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusCreated, user, "user registered successfully")
}

// Login handles POST /api/v1/users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, tokens, err := h.Sessions.Login(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	h.setAuthCookies(w, tokens)
	respondData(ctx, w, http.StatusOK, loginResponse{User: user, Tokens: tokens}, "user logged in successfully")
}

// Logout handles POST /api/v1/users/logout (authenticated).
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	if err := h.Sessions.Logout(ctx, identity.ID); err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	h.clearAuthCookies(w)
	respondData(ctx, w, http.StatusOK, nil, "user logged out successfully")
}

// Refresh handles POST /api/v1/users/refresh-token. The refresh token arrives
// via cookie or request body.
func (h UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "refresh") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many refresh attempts")
		return
	}

	token := ""
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		token = cookie.Value
	}
	if token == "" {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			token = strings.TrimSpace(req.RefreshToken)
		}
	}

	if token == "" {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	h.setAuthCookies(w, tokens)
	respondData(ctx, w, http.StatusOK, tokens, "access token refreshed successfully")
}

// ChangePassword handles POST /api/v1/users/change-password (authenticated).
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Sessions.ChangePassword(ctx, identity.ID, req.OldPassword, req.NewPassword); err != nil {
		// A wrong old password is a bad request here, not a session failure.
		if errors.Is(err, auth.ErrInvalidPassword) {
			respondError(ctx, w, http.StatusBadRequest, "old password is incorrect")
			return
		}
		respondDomainError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "password changed successfully")
}

// CurrentUser handles GET /api/v1/users/current-user (authenticated).
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	respondData(ctx, w, http.StatusOK, identity, "current user fetched successfully")
}

// UpdateAccount handles PATCH /api/v1/users/update-account (authenticated).
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.FullName == "" || req.Email == "" {
		respondError(ctx, w, http.StatusBadRequest, "email and fullname are required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}

	user, err := h.Users.UpdateAccount(ctx, identity.ID, req.FullName, req.Email)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, user.Public(), "account details updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar (authenticated, multipart).
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateMedia(w, r, "avatar", h.Users.UpdateAvatar)
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image (authenticated, multipart).
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateMedia(w, r, "coverImage", h.Users.UpdateCoverImage)
}

func (h UserHandler) updateMedia(w http.ResponseWriter, r *http.Request, field string, persist func(ctx context.Context, userID, url string) (models.User, error)) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	localPath, err := saveFormFile(r, field)
	if err != nil {
		logger.Warn("media intake failed", "field", field, "error", err)
		respondError(ctx, w, http.StatusBadRequest, field+" file is required")
		return
	}
	defer removeTemp(localPath)

	keyPrefix := "avatars"
	if field == "coverImage" {
		keyPrefix = "covers"
	}

	url, err := h.Media.UploadFile(ctx, localPath, keyPrefix)
	if err != nil || url == "" {
		logger.Warn("media upload failed", "field", field, "error", err)
		respondError(ctx, w, http.StatusBadRequest, "error while uploading "+field)
		return
	}

	user, err := persist(ctx, identity.ID, url)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, user.Public(), field+" updated successfully")
}

func (h UserHandler) setAuthCookies(w http.ResponseWriter, tokens models.SessionTokens) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		Expires:  tokens.AccessExpiresAt,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    tokens.RefreshToken,
		Path:     "/",
		Expires:  tokens.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h UserHandler) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// saveFormFile copies the named multipart file to a local temporary file and
// returns its path. http.ErrMissingFile surfaces when the part is absent.
func saveFormFile(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", err
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "streamtube-upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", err
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}

	return tmp.Name(), nil
}

func removeTemp(path string) {
	if path != "" {
		_ = os.Remove(path)
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User   models.PublicUser    `json:"user"`
	Tokens models.SessionTokens `json:"tokens"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	FullName string `json:"fullname"`
	Email    string `json:"email"`
}
