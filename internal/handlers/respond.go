package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/streamtube/backend/internal/auth"
	"github.com/streamtube/backend/internal/logging"
	"github.com/streamtube/backend/internal/repositories"
)

// apiResponse is the envelope wrapping every JSON response.
type apiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func respondData(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	writeJSON(ctx, w, status, apiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeJSON(ctx, w, status, apiResponse{
		StatusCode: status,
		Message:    message,
		Success:    false,
	})
}

// respondDomainError maps a domain error to its HTTP status, preserving the
// specific failure kind end to end instead of collapsing to a generic 500.
func respondDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	status, message := statusForError(err)
	if status == http.StatusInternalServerError {
		logging.FromContext(ctx).Error("request failed unexpectedly", "error", err)
	}
	respondError(ctx, w, status, message)
}

func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrFieldsRequired),
		errors.Is(err, auth.ErrAvatarRequired),
		errors.Is(err, auth.ErrCredentialsRequired):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrUserExists):
		return http.StatusConflict, auth.ErrUserExists.Error()
	case errors.Is(err, repositories.ErrConflict):
		return http.StatusConflict, "resource already exists"
	case errors.Is(err, auth.ErrUserNotFound):
		return http.StatusNotFound, auth.ErrUserNotFound.Error()
	case errors.Is(err, auth.ErrInvalidPassword):
		return http.StatusUnauthorized, auth.ErrInvalidPassword.Error()
	case errors.Is(err, auth.ErrTokenReplayed):
		return http.StatusUnauthorized, auth.ErrTokenReplayed.Error()
	case errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenInvalid):
		return http.StatusUnauthorized, auth.ErrTokenInvalid.Error()
	case errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound, "not found"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "message", payload.Message)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "message", payload.Message)
	}
}
