package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streamtube/backend/internal/auth"
	"github.com/streamtube/backend/internal/logging"
	"github.com/streamtube/backend/internal/models"
	"github.com/streamtube/backend/internal/repositories"
)

const channelPathPrefix = "/api/v1/users/c/"

// ChannelHandler serves the relationship-graph read endpoints and the
// subscription toggle.
type ChannelHandler struct {
	Channels      ChannelStore
	Subscriptions SubscriptionStore
	Users         UserStore
}

// Channel dispatches /api/v1/users/c/{username} and
// /api/v1/users/c/{username}/subscribe.
func (h ChannelHandler) Channel(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, channelPathPrefix), "/")
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		h.profile(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "subscribe":
		h.toggleSubscription(w, r, parts[0])
	default:
		respondError(r.Context(), w, http.StatusNotFound, "not found")
	}
}

func (h ChannelHandler) profile(w http.ResponseWriter, r *http.Request, username string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	viewerID := ""
	if identity, ok := auth.IdentityFromContext(ctx); ok {
		viewerID = identity.ID
	}

	ctx, span := logging.StartSpan(ctx, "channel.profile")
	profile, err := h.Channels.ChannelProfile(ctx, username, viewerID)
	span.End()
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "channel does not exist")
			return
		}
		respondDomainError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, profile, "user channel profile fetched successfully")
}

func (h ChannelHandler) toggleSubscription(w http.ResponseWriter, r *http.Request, username string) {
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

	channel, err := h.Users.FindByIdentifier(ctx, strings.ToLower(strings.TrimSpace(username)), "")
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "channel does not exist")
			return
		}
		respondDomainError(ctx, w, err)
		return
	}

	if channel.ID == identity.ID {
		respondError(ctx, w, http.StatusBadRequest, "cannot subscribe to your own channel")
		return
	}

	err = h.Subscriptions.Subscribe(ctx, models.Subscription{
		ID:         uuid.NewString(),
		Subscriber: identity.ID,
		Channel:    channel.ID,
		CreatedAt:  time.Now().UTC(),
	})
	switch {
	case err == nil:
		respondData(ctx, w, http.StatusOK, subscriptionState{Subscribed: true}, "subscribed successfully")
	case errors.Is(err, repositories.ErrConflict):
		// The edge already exists: toggle it off.
		if err := h.Subscriptions.Unsubscribe(ctx, identity.ID, channel.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			respondDomainError(ctx, w, err)
			return
		}
		respondData(ctx, w, http.StatusOK, subscriptionState{Subscribed: false}, "unsubscribed successfully")
	default:
		respondDomainError(ctx, w, err)
	}
}

// History dispatches GET /api/v1/users/history and
// POST /api/v1/users/history/{videoID}.
func (h ChannelHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	videoID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/users/history"), "/")

	switch {
	case videoID == "" && r.Method == http.MethodGet:
		ctx, span := logging.StartSpan(ctx, "channel.watch_history")
		history, err := h.Channels.WatchHistory(ctx, identity.ID)
		span.End()
		if err != nil {
			respondDomainError(ctx, w, err)
			return
		}
		respondData(ctx, w, http.StatusOK, history, "watch history fetched successfully")
	case videoID != "" && r.Method == http.MethodPost:
		if err := h.Channels.AppendWatchHistory(ctx, identity.ID, videoID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				respondError(ctx, w, http.StatusNotFound, "video does not exist")
				return
			}
			respondDomainError(ctx, w, err)
			return
		}
		respondData(ctx, w, http.StatusOK, nil, "watch history updated successfully")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type subscriptionState struct {
	Subscribed bool `json:"subscribed"`
}
