// Package ratelimit throttles write endpoints per requester with token
// buckets.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/agora-forum/agora/shared/logger"
	mw "github.com/agora-forum/agora/shared/middleware"
)

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// Limiter holds one token bucket per key. Buckets untouched for longer than
// idle are dropped by Sweep.
type Limiter struct {
	rate     float64 // tokens per second
	capacity float64
	idle     time.Duration
	now      func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

// New allows perMinute requests per key on average with bursts of up to burst.
func New(perMinute float64, burst int, idle time.Duration) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		rate:     perMinute / 60,
		capacity: float64(burst),
		idle:     idle,
		now:      time.Now,
		buckets:  make(map[string]*bucket),
	}
}

// Allow takes a token from key's bucket. When the bucket is empty it returns
// false and how long until the next token.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.capacity, lastRefill: now}
		l.buckets[key] = b
	}

	b.tokens = math.Min(l.capacity, b.tokens+now.Sub(b.lastRefill).Seconds()*l.rate)
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if l.rate <= 0 {
		return false, time.Minute
	}
	return false, time.Duration((1 - b.tokens) / l.rate * float64(time.Second))
}

// Sweep drops idle buckets and returns how many it removed.
func (l *Limiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, b := range l.buckets {
		if now.Sub(b.lastRefill) > l.idle {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps every interval until ctx is done.
func (l *Limiter) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := l.Sweep(); n > 0 {
					logger.Log.Debug("rate limiter dropped idle buckets", "count", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Identity extracts the rate limit key of a request.
type Identity func(r *http.Request) (string, error)

// ByUser keys authenticated requests by user id and anonymous ones by
// client IP.
func ByUser(r *http.Request) (string, error) {
	if user := mw.GetUserFromContext(r); user != nil {
		return "user:" + strconv.FormatInt(user.Id, 10), nil
	}
	return ByIP(r)
}

func ByIP(r *http.Request) (string, error) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr == "" {
			return "", fmt.Errorf("request has no remote address")
		}
		host = r.RemoteAddr
	}
	return "ip:" + host, nil
}

// Middleware rejects requests over the limit with 429. A nil limiter lets
// everything through.
func Middleware(l *Limiter, identity Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, err := identity(r)
			if err != nil {
				logger.Log.Warn("rate limit identity unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			ok, wait := l.Allow(key)
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
