package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// visitor pairs a token bucket with the last time its IP was seen, so
// idle buckets can be dropped without resetting active ones.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a per-IP token bucket across all routes. Each IP
// gets `requests` tokens refilled over `window`, with a burst of the
// full budget.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	requests int
	window   time.Duration
}

func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		requests: requests,
		window:   window,
	}
}

// limiterFor returns the bucket for ip, creating it on first sight and
// refreshing its last-seen time.
func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		perSecond := float64(rl.requests) / rl.window.Seconds()
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(perSecond), rl.requests)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Middleware rejects callers over their per-IP budget with 429.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.limiterFor(clientIP(r)).Allow() {
				writeError(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// StartCleanup drops buckets idle for three windows, once per window,
// until ctx is cancelled. The server cancels it at shutdown.
func (rl *RateLimiter) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(rl.window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.purge(time.Now().Add(-3 * rl.window))
			}
		}
	}()
}

func (rl *RateLimiter) purge(idleSince time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(idleSince) {
			delete(rl.visitors, ip)
		}
	}
}

// clientIP takes the first hop of X-Forwarded-For when a proxy set it,
// and otherwise strips the port from RemoteAddr.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if i := strings.IndexByte(forwarded, ','); i >= 0 {
			forwarded = forwarded[:i]
		}
		return strings.TrimSpace(forwarded)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
