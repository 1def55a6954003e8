package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Strob0t/rentalmanager/internal/config"
	"github.com/Strob0t/rentalmanager/internal/domain/user"
)

// RateLimiter is token bucket rate limiting middleware. Authenticated
// requests are limited per user, anonymous ones per client IP.
type RateLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	rate       float64 // tokens per second
	burst      int     // max tokens
	maxBuckets int     // max tracked clients
}

type bucket struct {
	tokens    float64
	lastSeen  time.Time
	updatedAt time.Time
}

// NewRateLimiter creates a rate limiter with the given sustained rate
// (requests per second) and burst size.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	return &RateLimiter{
		buckets:    make(map[string]*bucket),
		rate:       rate,
		burst:      burst,
		maxBuckets: 100000,
	}
}

// NewRateLimiterFromConfig creates a limiter from cfg and starts its
// cleanup loop, which stops with ctx.
func NewRateLimiterFromConfig(ctx context.Context, cfg config.Rate) *RateLimiter {
	rl := NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst)
	if cfg.CleanupInterval > 0 {
		rl.StartCleanup(ctx, cfg.CleanupInterval, cfg.MaxIdleTime)
	}
	return rl
}

// Handler returns HTTP middleware that enforces the limit. Health probes
// and stored files are not limited.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		remaining, retryAfter, allowed := rl.allow(clientKey(r))

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Second).Unix(), 10))

		if !allowed {
			w.Header().Set("Retry-After", strconv.FormatFloat(math.Ceil(retryAfter), 'f', 0, 64))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allow checks whether a request from key is allowed.
// Returns remaining tokens, seconds until next token, and whether the request is allowed.
func (rl *RateLimiter) allow(key string) (remaining int, retryAfter float64, allowed bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, exists := rl.buckets[key]
	if !exists {
		if len(rl.buckets) >= rl.maxBuckets {
			return 0, 1.0 / rl.rate, false
		}
		b = &bucket{
			tokens:    float64(rl.burst) - 1, // this request
			updatedAt: now,
			lastSeen:  now,
		}
		rl.buckets[key] = b
		return int(b.tokens), 0, true
	}

	elapsed := now.Sub(b.updatedAt).Seconds()
	b.tokens = math.Min(b.tokens+elapsed*rl.rate, float64(rl.burst))
	b.updatedAt = now
	b.lastSeen = now

	if b.tokens < 1 {
		return 0, (1 - b.tokens) / rl.rate, false
	}

	b.tokens--
	return int(b.tokens), 0, true
}

// StartCleanup removes buckets idle for longer than maxIdle every interval
// until ctx is cancelled.
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval, maxIdle time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.cleanup(maxIdle)
			}
		}
	}()
}

func (rl *RateLimiter) cleanup(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := time.Now().Add(-maxIdle)
	for key, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
}

// Len returns the number of tracked buckets.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// clientKey identifies the caller: the user when the request passed the
// session gate, otherwise the remote IP. Proxy headers are not trusted.
func clientKey(r *http.Request) string {
	if u := user.FromContext(r.Context()); u != nil {
		return "user:" + u.ID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}
