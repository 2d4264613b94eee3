package handlers

import (
	"net"
	"net/http"
	"strings"
)

// RateLimiter guards the credential endpoints against brute-force attempts.
type RateLimiter interface {
	Allow(key string) bool
}

// allowRequest checks the caller's budget for the given scope. A nil limiter
// disables throttling, which the handler tests rely on.
func allowRequest(limiter RateLimiter, r *http.Request, scope string) bool {
	if limiter == nil {
		return true
	}
	return limiter.Allow(scope + ":" + clientIP(r))
}

// clientIP resolves the originating address, honoring proxy headers first so a
// shared load balancer address does not throttle every caller at once.
func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
