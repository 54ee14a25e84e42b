package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRateLimiter(t *testing.T, limit int, exempt ...string) *RateLimiter {
	t.Helper()
	logger := zerolog.Nop()
	rl := NewRateLimiter(limit, &logger, exempt...)
	t.Cleanup(rl.Close)
	return rl
}

// TestNewRateLimiter tests rate limiter creation.
func TestNewRateLimiter(t *testing.T) {
	rl := newTestRateLimiter(t, 100, "/health")

	require.NotNil(t, rl)
	assert.NotNil(t, rl.visitors)
	assert.Equal(t, 100, rl.limit)
	assert.Equal(t, time.Minute, rl.interval)
	assert.True(t, rl.exempt["/health"])
}

// TestRateLimiter_Allow tests basic rate limiting logic.
func TestRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name          string
		limit         int
		requests      int
		expectedAllow int
	}{
		{name: "within limit", limit: 10, requests: 5, expectedAllow: 5},
		{name: "at limit", limit: 10, requests: 10, expectedAllow: 10},
		{name: "exceeds limit", limit: 10, requests: 15, expectedAllow: 10},
		{name: "zero limit", limit: 0, requests: 3, expectedAllow: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := newTestRateLimiter(t, tt.limit)
			allowed := 0
			for range tt.requests {
				if rl.allow("192.0.2.1") {
					allowed++
				}
			}
			assert.Equal(t, tt.expectedAllow, allowed)
		})
	}
}

// TestRateLimiter_MultipleIPs tests that IPs have independent budgets.
func TestRateLimiter_MultipleIPs(t *testing.T) {
	rl := newTestRateLimiter(t, 2)

	assert.True(t, rl.allow("192.0.2.1"))
	assert.True(t, rl.allow("192.0.2.1"))
	assert.False(t, rl.allow("192.0.2.1"))
	assert.True(t, rl.allow("192.0.2.2"))
}

// TestRateLimiter_TokenRefresh tests that the window refills.
func TestRateLimiter_TokenRefresh(t *testing.T) {
	rl := newTestRateLimiter(t, 1)
	rl.interval = 20 * time.Millisecond

	assert.True(t, rl.allow("192.0.2.1"))
	assert.False(t, rl.allow("192.0.2.1"))
	time.Sleep(30 * time.Millisecond)
	assert.True(t, rl.allow("192.0.2.1"))
}

// TestRateLimiter_ConcurrentRequests tests that the budget holds under contention.
func TestRateLimiter_ConcurrentRequests(t *testing.T) {
	rl := newTestRateLimiter(t, 50)

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.allow("192.0.2.1") {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(50), allowed.Load())
}

// TestRateLimiter_Middleware tests the HTTP middleware.
func TestRateLimiter_Middleware(t *testing.T) {
	rl := newTestRateLimiter(t, 2, "/management/health")
	handler := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(path, remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	// Different source ports share the same budget.
	assert.Equal(t, http.StatusOK, do("/api/dispositivos", "192.0.2.1:1111").Code)
	assert.Equal(t, http.StatusOK, do("/api/dispositivos", "192.0.2.1:2222").Code)

	rec := do("/api/dispositivos", "192.0.2.1:3333")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")

	assert.Equal(t, http.StatusOK, do("/management/health", "192.0.2.1:4444").Code, "exempt path")
}

// TestClientIP tests client address extraction.
func TestClientIP(t *testing.T) {
	tests := []struct {
		name      string
		remote    string
		forwarded string
		expected  string
	}{
		{name: "remote with port", remote: "192.0.2.1:5555", expected: "192.0.2.1"},
		{name: "remote without port", remote: "192.0.2.1", expected: "192.0.2.1"},
		{name: "ipv6", remote: "[2001:db8::1]:443", expected: "2001:db8::1"},
		{name: "forwarded chain", remote: "10.0.0.1:80", forwarded: "198.51.100.7, 10.0.0.1", expected: "198.51.100.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.expected, clientIP(req))
		})
	}
}

// TestRateLimiter_Sweep tests that idle visitors are dropped.
func TestRateLimiter_Sweep(t *testing.T) {
	rl := newTestRateLimiter(t, 5)
	rl.allow("192.0.2.1")
	rl.getVisitor("192.0.2.1").lastReset = time.Now().Add(-time.Hour)
	rl.allow("192.0.2.2")

	rl.sweep(10 * time.Minute)

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	assert.NotContains(t, rl.visitors, "192.0.2.1")
	assert.Contains(t, rl.visitors, "192.0.2.2")
}

func TestRateLimiter_CloseIsIdempotent(t *testing.T) {
	logger := zerolog.Nop()
	rl := NewRateLimiter(1, &logger)
	rl.Close()
	assert.NotPanics(t, rl.Close)
}
