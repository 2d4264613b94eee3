package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/streamtube/backend/internal/auth"
	"github.com/streamtube/backend/internal/models"
	"github.com/streamtube/backend/internal/repositories"
)

// memoryChannels implements ChannelStore and SubscriptionStore over the same
// in-memory user set used by the other handler tests.
type memoryChannels struct {
	users   *memoryUsers
	edges   map[string]map[string]bool // subscriber -> channel set
	videos  map[string]models.Video
	history map[string][]string // userID -> watched video IDs in order
}

func newMemoryChannels(users *memoryUsers) *memoryChannels {
	return &memoryChannels{
		users:   users,
		edges:   make(map[string]map[string]bool),
		videos:  make(map[string]models.Video),
		history: make(map[string][]string),
	}
}

func (s *memoryChannels) Subscribe(_ context.Context, sub models.Subscription) error {
	if s.edges[sub.Subscriber][sub.Channel] {
		return repositories.ErrConflict
	}
	if s.edges[sub.Subscriber] == nil {
		s.edges[sub.Subscriber] = make(map[string]bool)
	}
	s.edges[sub.Subscriber][sub.Channel] = true
	return nil
}

func (s *memoryChannels) Unsubscribe(_ context.Context, subscriberID, channelID string) error {
	if !s.edges[subscriberID][channelID] {
		return repositories.ErrNotFound
	}
	delete(s.edges[subscriberID], channelID)
	return nil
}

func (s *memoryChannels) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	channel, err := s.users.FindByIdentifier(ctx, username, "")
	if err != nil {
		return models.ChannelProfile{}, err
	}

	var subscribers int64
	for _, channels := range s.edges {
		if channels[channel.ID] {
			subscribers++
		}
	}

	return models.ChannelProfile{
		Username:        channel.Username,
		FullName:        channel.FullName,
		Email:           channel.Email,
		AvatarURL:       channel.AvatarURL,
		CoverImageURL:   channel.CoverImageURL,
		SubscriberCount: subscribers,
		SubscribedTo:    int64(len(s.edges[channel.ID])),
		IsSubscribed:    viewerID != "" && s.edges[viewerID][channel.ID],
	}, nil
}

func (s *memoryChannels) WatchHistory(_ context.Context, userID string) ([]models.VideoWithOwner, error) {
	entries := make([]models.VideoWithOwner, 0, len(s.history[userID]))
	for _, videoID := range s.history[userID] {
		video := s.videos[videoID]
		owner := s.users.users[video.OwnerID]
		entries = append(entries, models.VideoWithOwner{
			ID:           video.ID,
			Title:        video.Title,
			ThumbnailURL: video.ThumbnailURL,
			VideoURL:     video.VideoURL,
			Duration:     video.Duration,
			CreatedAt:    video.CreatedAt,
			Owner: models.OwnerSummary{
				FullName:  owner.FullName,
				Username:  owner.Username,
				AvatarURL: owner.AvatarURL,
			},
		})
	}
	return entries, nil
}

func (s *memoryChannels) AppendWatchHistory(_ context.Context, userID, videoID string) error {
	if _, ok := s.videos[videoID]; !ok {
		return repositories.ErrNotFound
	}
	s.history[userID] = append(s.history[userID], videoID)
	return nil
}

func seedUser(store *memoryUsers, id, username string) models.User {
	user := models.User{
		ID:        id,
		Username:  username,
		Email:     username + "@example.com",
		FullName:  "User " + username,
		AvatarURL: "https://cdn.example.com/avatars/" + username + ".png",
		CreatedAt: time.Now().UTC(),
	}
	store.users[id] = user
	return user
}

func newChannelFixture(t *testing.T) (ChannelHandler, *memoryUsers, *memoryChannels) {
	t.Helper()
	users := newMemoryUsers()
	channels := newMemoryChannels(users)
	handler := ChannelHandler{Channels: channels, Subscriptions: channels, Users: users}
	return handler, users, channels
}

func asIdentity(req *http.Request, user models.User) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), user.Public()))
}

func TestChannelProfile(t *testing.T) {
	handler, users, channels := newChannelFixture(t)
	owner := seedUser(users, "u1", "creator")
	viewer := seedUser(users, "u2", "viewer")
	fan := seedUser(users, "u3", "fan")

	mustSubscribe := func(subscriber, channel string) {
		if err := channels.Subscribe(context.Background(), models.Subscription{Subscriber: subscriber, Channel: channel}); err != nil {
			t.Fatalf("seed subscription: %v", err)
		}
	}
	mustSubscribe(viewer.ID, owner.ID)
	mustSubscribe(fan.ID, owner.ID)
	mustSubscribe(owner.ID, fan.ID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/c/creator", nil)
	req = asIdentity(req, viewer)
	rec := httptest.NewRecorder()

	handler.Channel(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data models.ChannelProfile `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.SubscriberCount != 2 {
		t.Fatalf("expected 2 subscribers got %d", resp.Data.SubscriberCount)
	}
	if resp.Data.SubscribedTo != 1 {
		t.Fatalf("expected 1 subscribed-to got %d", resp.Data.SubscribedTo)
	}
	if !resp.Data.IsSubscribed {
		t.Fatal("expected the viewer to be marked subscribed")
	}
}

func TestChannelProfileAnonymousViewer(t *testing.T) {
	handler, users, channels := newChannelFixture(t)
	owner := seedUser(users, "u1", "creator")
	fan := seedUser(users, "u2", "fan")
	if err := channels.Subscribe(context.Background(), models.Subscription{Subscriber: fan.ID, Channel: owner.ID}); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/c/creator", nil)
	rec := httptest.NewRecorder()

	handler.Channel(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}

	var resp struct {
		Data models.ChannelProfile `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.IsSubscribed {
		t.Fatal("anonymous viewers are never subscribed")
	}
}

func TestChannelProfileNotFound(t *testing.T) {
	handler, _, _ := newChannelFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/c/ghost", nil)
	rec := httptest.NewRecorder()

	handler.Channel(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 got %d", rec.Code)
	}
}

func TestSubscribeToggle(t *testing.T) {
	handler, users, channels := newChannelFixture(t)
	owner := seedUser(users, "u1", "creator")
	viewer := seedUser(users, "u2", "viewer")

	toggle := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/c/creator/subscribe", nil)
		req = asIdentity(req, viewer)
		rec := httptest.NewRecorder()
		handler.Channel(rec, req)
		return rec
	}

	rec := toggle()
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data subscriptionState `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Data.Subscribed {
		t.Fatal("first toggle must subscribe")
	}
	if !channels.edges[viewer.ID][owner.ID] {
		t.Fatal("expected edge to be stored")
	}

	rec = toggle()
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Subscribed {
		t.Fatal("second toggle must unsubscribe")
	}
	if channels.edges[viewer.ID][owner.ID] {
		t.Fatal("expected edge to be removed")
	}
}

func TestSubscribeSelf(t *testing.T) {
	handler, users, _ := newChannelFixture(t)
	owner := seedUser(users, "u1", "creator")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/c/creator/subscribe", nil)
	req = asIdentity(req, owner)
	rec := httptest.NewRecorder()

	handler.Channel(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
}

func TestSubscribeUnknownChannel(t *testing.T) {
	handler, users, _ := newChannelFixture(t)
	viewer := seedUser(users, "u1", "viewer")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/c/ghost/subscribe", nil)
	req = asIdentity(req, viewer)
	rec := httptest.NewRecorder()

	handler.Channel(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 got %d", rec.Code)
	}
}

func TestWatchHistoryEmpty(t *testing.T) {
	handler, users, _ := newChannelFixture(t)
	viewer := seedUser(users, "u1", "viewer")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/history", nil)
	req = asIdentity(req, viewer)
	rec := httptest.NewRecorder()

	handler.History(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}

	var resp struct {
		Data []models.VideoWithOwner `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data == nil || len(resp.Data) != 0 {
		t.Fatalf("expected an empty array, got %v", resp.Data)
	}
}

func TestWatchHistoryLifecycle(t *testing.T) {
	handler, users, channels := newChannelFixture(t)
	owner := seedUser(users, "u1", "creator")
	viewer := seedUser(users, "u2", "viewer")

	channels.videos["v1"] = models.Video{ID: "v1", OwnerID: owner.ID, Title: "First", CreatedAt: time.Now().UTC()}
	channels.videos["v2"] = models.Video{ID: "v2", OwnerID: owner.ID, Title: "Second", CreatedAt: time.Now().UTC()}

	record := func(videoID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/history/"+videoID, nil)
		req = asIdentity(req, viewer)
		rec := httptest.NewRecorder()
		handler.History(rec, req)
		return rec
	}

	if rec := record("v1"); rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := record("v2"); rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if rec := record("ghost"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for unknown video got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/history", nil)
	req = asIdentity(req, viewer)
	rec := httptest.NewRecorder()
	handler.History(rec, req)

	var resp struct {
		Data []models.VideoWithOwner `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("expected 2 entries got %d", len(resp.Data))
	}
	if resp.Data[0].Title != "First" || resp.Data[1].Title != "Second" {
		t.Fatalf("history out of order: %v", resp.Data)
	}
	if resp.Data[0].Owner.Username != "creator" {
		t.Fatalf("expected owner summary, got %+v", resp.Data[0].Owner)
	}
}

func TestWatchHistoryRequiresIdentity(t *testing.T) {
	handler, _, _ := newChannelFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/history", nil)
	rec := httptest.NewRecorder()

	handler.History(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 got %d", rec.Code)
	}
}
