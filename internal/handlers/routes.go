package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	gate := AuthGate{Tokens: deps.Tokens, Users: deps.Users}
	users := UserHandler{
		Sessions:     deps.Sessions,
		Users:        deps.Users,
		Media:        deps.Media,
		Limiter:      deps.Limiter,
		CookieSecure: deps.CookieSecure,
	}
	channels := ChannelHandler{
		Channels:      deps.Channels,
		Subscriptions: deps.Subscriptions,
		Users:         deps.Users,
	}

	mux.HandleFunc("/healthz", health.Handle)

	mux.HandleFunc("/api/v1/users/register", users.Register)
	mux.HandleFunc("/api/v1/users/login", users.Login)
	mux.HandleFunc("/api/v1/users/refresh-token", users.Refresh)

	mux.HandleFunc("/api/v1/users/logout", gate.Require(users.Logout))
	mux.HandleFunc("/api/v1/users/change-password", gate.Require(users.ChangePassword))
	mux.HandleFunc("/api/v1/users/current-user", gate.Require(users.CurrentUser))
	mux.HandleFunc("/api/v1/users/update-account", gate.Require(users.UpdateAccount))
	mux.HandleFunc("/api/v1/users/avatar", gate.Require(users.UpdateAvatar))
	mux.HandleFunc("/api/v1/users/cover-image", gate.Require(users.UpdateCoverImage))

	mux.HandleFunc(channelPathPrefix, gate.Require(channels.Channel))
	mux.HandleFunc("/api/v1/users/history", gate.Require(channels.History))
	mux.HandleFunc("/api/v1/users/history/", gate.Require(channels.History))
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Tokens        TokenVerifier
	Channels      ChannelStore
	Subscriptions SubscriptionStore
	Media         MediaUploader
	Limiter       RateLimiter
	CookieSecure  bool
}
