package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter controls how frequently a caller may perform an action.
type RateLimiter interface {
	Allow(key string) bool
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// keyedRateLimiter tracks a token bucket per key. Keys are scope-prefixed
// client addresses, so login and registration budgets stay independent.
type keyedRateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	now       func() time.Time
	nextSweep time.Time
}

// NewIPRateLimiter allows up to requests events per window with extra burst
// capacity. Idle entries are dropped after ttl so the map stays bounded.
func NewIPRateLimiter(requests int, window time.Duration, burst int, ttl time.Duration) RateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Second
	}
	if burst <= 0 {
		burst = 1
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &keyedRateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Every(window / time.Duration(requests)),
		burst:   burst,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (l *keyedRateLimiter) Allow(key string) bool {
	if key == "" {
		key = "unknown"
	}

	now := l.now()

	l.mu.Lock()
	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now

	// Sweep at most once per ttl so a hot endpoint does not pay a full map
	// scan on every request.
	if now.After(l.nextSweep) {
		l.evictIdleLocked(now)
		l.nextSweep = now.Add(l.ttl)
	}
	l.mu.Unlock()

	return c.limiter.Allow()
}

func (l *keyedRateLimiter) evictIdleLocked(now time.Time) {
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > l.ttl {
			delete(l.clients, key)
		}
	}
}
