package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitBudgetPerIP(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	handler := rl.Middleware()(okHandler())

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/roster", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("10.0.0.1:4711"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, code)
		}
	}
	if code := send("10.0.0.1:4711"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 over budget, got %d", code)
	}

	// Another IP carries its own budget.
	if code := send("10.0.0.2:4711"); code != http.StatusOK {
		t.Fatalf("expected 200 for a fresh IP, got %d", code)
	}
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"10.0.0.1:4711", "", "10.0.0.1"},
		{"10.0.0.1:4711", "203.0.113.9", "203.0.113.9"},
		{"10.0.0.1:4711", "203.0.113.9, 10.0.0.2", "203.0.113.9"},
		{"bogus", "", "bogus"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tc.remoteAddr
		if tc.forwarded != "" {
			req.Header.Set("X-Forwarded-For", tc.forwarded)
		}
		if got := clientIP(req); got != tc.want {
			t.Fatalf("remote=%q forwarded=%q: expected %q, got %q",
				tc.remoteAddr, tc.forwarded, tc.want, got)
		}
	}
}

func TestPurgeDropsOnlyIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	rl.limiterFor("10.0.0.1")

	// A cutoff in the future makes every bucket idle.
	rl.purge(time.Now().Add(time.Second))
	if len(rl.visitors) != 0 {
		t.Fatalf("expected idle bucket to be dropped, %d left", len(rl.visitors))
	}

	// A cutoff in the past keeps a fresh bucket alive.
	rl.limiterFor("10.0.0.2")
	rl.purge(time.Now().Add(-time.Minute))
	if _, ok := rl.visitors["10.0.0.2"]; !ok {
		t.Fatal("fresh bucket must survive the purge")
	}
}
