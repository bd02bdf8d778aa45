package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/mealweek/internal/auth"
)

// RealIP returns the client address for anonymous rate-limit keys. The first
// X-Forwarded-For hop wins over RemoteAddr.
func RealIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// UserKey keys rate limits by authenticated user, falling back to the client
// IP for anonymous requests.
func UserKey(r *http.Request) string {
	if id := auth.UserID(r.Context()); id != "" {
		return "user:" + id
	}
	return "ip:" + RealIP(r)
}

// Quota is the state of one key after a request was counted against it.
type Quota struct {
	Limit     int
	Remaining int
	Reset     time.Time
	allowed   bool
}

func (q Quota) Allowed() bool {
	return q.allowed
}

type bucket struct {
	used  int
	reset time.Time
}

// RateLimiter counts requests per key in fixed windows. Windows start at a
// key's first request.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Take counts one request for key and reports whether it fits in limit.
// Denied requests still count, so hammering a key does not reopen it early.
func (rl *RateLimiter) Take(key string, limit int, per time.Duration) Quota {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok || !now.Before(b.reset) {
		b = &bucket{reset: now.Add(per)}
		rl.buckets[key] = b
	}
	b.used++

	return Quota{
		Limit:     limit,
		Remaining: max(limit-b.used, 0),
		Reset:     b.reset,
		allowed:   b.used <= limit,
	}
}

// Cleanup drops buckets whose window has passed.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		if !now.Before(b.reset) {
			delete(rl.buckets, key)
		}
	}
}

// RateLimit limits the wrapped handler to limit requests per window for each
// key. The prefix separates buckets of routes sharing one limiter. Every
// response carries X-RateLimit-Limit and X-RateLimit-Remaining.
func RateLimit(limiter *RateLimiter, prefix string, keyFunc func(*http.Request) string, limit int, per time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := limiter.Take(prefix+"|"+keyFunc(r), limit, per)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(q.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(q.Remaining))
			if !q.Allowed() {
				wait := q.Reset.Sub(limiter.now()).Seconds()
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait))))
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"too many requests"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
