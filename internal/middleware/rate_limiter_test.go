package middleware

import (
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, requests int, window time.Duration, burst int, ttl time.Duration) (*keyedRateLimiter, *time.Time) {
	t.Helper()
	limiter, ok := NewIPRateLimiter(requests, window, burst, ttl).(*keyedRateLimiter)
	if !ok {
		t.Fatal("expected keyed limiter implementation")
	}
	clock := time.Now()
	limiter.now = func() time.Time { return clock }
	return limiter, &clock
}

func TestRateLimiterBudget(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, time.Minute, 1, time.Hour)

	if !limiter.Allow("login:1.2.3.4") {
		t.Fatal("first request must pass")
	}
	if limiter.Allow("login:1.2.3.4") {
		t.Fatal("second request within the window must be throttled")
	}

	// Budgets are per key.
	if !limiter.Allow("login:5.6.7.8") {
		t.Fatal("a different caller must have its own budget")
	}
}

func TestRateLimiterAmortizedEviction(t *testing.T) {
	ttl := time.Minute
	limiter, clock := newTestLimiter(t, 1, time.Second, 1, ttl)

	limiter.Allow("a")
	*clock = clock.Add(time.Second)
	limiter.Allow("b")
	*clock = clock.Add(time.Second)
	limiter.Allow("c")

	// Calls inside the sweep interval must not scan entries away.
	limiter.mu.Lock()
	if got := len(limiter.clients); got != 3 {
		limiter.mu.Unlock()
		t.Fatalf("expected 3 tracked clients before the sweep, got %d", got)
	}
	limiter.mu.Unlock()

	// Once every earlier entry is idle past the ttl, the next request sweeps
	// them out while keeping itself.
	*clock = clock.Add(2 * ttl)
	limiter.Allow("d")

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if got := len(limiter.clients); got != 1 {
		t.Fatalf("expected only the live client after the sweep, got %d", got)
	}
	if _, ok := limiter.clients["d"]; !ok {
		t.Fatal("the sweeping caller must survive the sweep")
	}
}
