package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Rrens/lingocode/internal/api/response"
	"github.com/Rrens/lingocode/internal/domain"
)

// Limiter decides whether a keyed request may proceed.
// Returns (allowed, remaining, resetTime, error).
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, int, time.Time, error)
}

// RateLimitMiddleware handles rate limiting
type RateLimitMiddleware struct {
	limiter Limiter
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(limiter Limiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter}
}

// Limit applies rate limiting based on user ID. It must run after Authenticate.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserID(r.Context())
		if !ok {
			response.Unauthorized(w, domain.ErrTokenMissing)
			return
		}

		allowed, remaining, resetTime, err := m.limiter.Allow(r.Context(), userID.String())
		if err != nil {
			// Fail open: a limiter outage must not take generation down
			log.Warn().Err(err).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", resetTime.UTC().Format(time.RFC3339))

		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(resetTime)))
			response.Fail(w, r, domain.ErrRateLimited)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func retryAfterSeconds(reset time.Time) int {
	secs := int(time.Until(reset).Seconds() + 0.5)
	if secs < 1 {
		return 1
	}
	return secs
}

// LocalLimiterIdleTTL is how long an unused key keeps its bucket
const LocalLimiterIdleTTL = 10 * time.Minute

// LocalLimiter is an in-process token bucket per key, used when Redis is
// not configured. Limits are not shared between server instances.
type LocalLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	limit   rate.Limit
	burst   int
}

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// NewLocalLimiter allows requestsPerMinute sustained plus burst extra requests
func NewLocalLimiter(requestsPerMinute, burst int) *LocalLimiter {
	return &LocalLimiter{
		entries: make(map[string]*limiterEntry),
		limit:   rate.Limit(float64(requestsPerMinute) / 60),
		burst:   requestsPerMinute + burst,
	}
}

// Allow implements Limiter
func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, int, time.Time, error) {
	now := time.Now()

	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastUse = now
	l.mu.Unlock()

	allowed := e.limiter.AllowN(now, 1)

	remaining := int(e.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}

	reset := now
	if !allowed && l.limit > 0 {
		reset = now.Add(time.Duration(float64(time.Second) / float64(l.limit)))
	}
	return allowed, remaining, reset, nil
}

// Sweep drops buckets last used before cutoff and returns how many were removed
func (l *LocalLimiter) Sweep(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, e := range l.entries {
		if e.lastUse.Before(cutoff) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Run sweeps keys idle for longer than idleTTL every interval until ctx is done
func (l *LocalLimiter) Run(ctx context.Context, interval, idleTTL time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := l.Sweep(now.Add(-idleTTL)); n > 0 {
				log.Debug().Int("count", n).Msg("evicted idle rate limiters")
			}
		}
	}
}
