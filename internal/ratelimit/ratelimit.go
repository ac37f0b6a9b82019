// Package ratelimit provides per-client token-bucket limiting for the
// write path. Submissions are hand-authored, so the budget is deliberately
// small: the default allows 10 per hour per client.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	cleanupInterval = 5 * time.Minute
	staleThreshold  = 2 * time.Hour
)

// Limiter tracks a token bucket per client key. Stale clients are swept
// inline during Allow calls rather than by a background goroutine.
type Limiter struct {
	mu          sync.Mutex
	clients     map[string]*client
	limit       rate.Limit
	burst       int
	lastCleanup time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a limiter refilling r tokens per second with the given burst.
func New(r float64, burst int) *Limiter {
	return &Limiter{
		clients:     make(map[string]*client),
		limit:       rate.Limit(r),
		burst:       burst,
		lastCleanup: time.Now(),
	}
}

// PerHour creates a limiter allowing n requests per hour per client, with
// the full hour's budget available as burst.
func PerHour(n int) *Limiter {
	return New(float64(n)/3600.0, n)
}

// Allow reports whether a request from the given client key may proceed,
// consuming one token if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastCleanup) > cleanupInterval {
		for k, c := range l.clients {
			if now.Sub(c.lastSeen) > staleThreshold {
				delete(l.clients, k)
			}
		}
		l.lastCleanup = now
	}

	c, ok := l.clients[key]
	if !ok {
		limiter := rate.NewLimiter(l.limit, l.burst)
		l.clients[key] = &client{limiter: limiter, lastSeen: now}
		return limiter.Allow()
	}

	c.lastSeen = now
	return c.limiter.Allow()
}
