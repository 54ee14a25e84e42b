package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/storefront/internal/server/response"
)

// RateLimiter implements fixed-window rate limiting per client IP.
type RateLimiter struct {
	mu       sync.RWMutex
	visitors map[string]*visitor
	limit    int           // requests per interval
	interval time.Duration // refill window
	exempt   map[string]bool
	logger   *zerolog.Logger
	done     chan struct{}
	once     sync.Once
}

// visitor tracks rate limit state for a single IP.
type visitor struct {
	tokens    int
	lastReset time.Time
	mu        sync.Mutex
}

// NewRateLimiter creates a new rate limiter allowing limit requests per
// minute per IP. Requests to exemptPaths are never counted.
func NewRateLimiter(limit int, logger *zerolog.Logger, exemptPaths ...string) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		interval: time.Minute,
		exempt:   make(map[string]bool, len(exemptPaths)),
		logger:   logger,
		done:     make(chan struct{}),
	}
	for _, p := range exemptPaths {
		rl.exempt[p] = true
	}

	go rl.cleanup(5 * time.Minute)

	return rl
}

// Close stops the cleanup goroutine.
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.done) })
}

// cleanup drops visitors idle for two full sweeps.
func (rl *RateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.sweep(2 * every)
		}
	}
}

func (rl *RateLimiter) sweep(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		v.mu.Lock()
		if time.Since(v.lastReset) > maxIdle {
			delete(rl.visitors, ip)
		}
		v.mu.Unlock()
	}
}

// getVisitor returns or creates a visitor for the IP.
func (rl *RateLimiter) getVisitor(ip string) *visitor {
	rl.mu.RLock()
	v, exists := rl.visitors[ip]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		v, exists = rl.visitors[ip]
		if !exists {
			v = &visitor{
				tokens:    rl.limit,
				lastReset: time.Now(),
			}
			rl.visitors[ip] = v
		}
		rl.mu.Unlock()
	}

	return v
}

// allow checks if a request from the IP is allowed.
func (rl *RateLimiter) allow(ip string) bool {
	v := rl.getVisitor(ip)

	v.mu.Lock()
	defer v.mu.Unlock()

	if time.Since(v.lastReset) > rl.interval {
		v.tokens = rl.limit
		v.lastReset = time.Now()
	}

	if v.tokens > 0 {
		v.tokens--
		return true
	}

	return false
}

// RateLimit middleware limits requests per IP address.
func RateLimit(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl.exempt[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			if !rl.allow(ip) {
				rl.logger.Warn().
					Str("ip", ip).
					Str("path", r.URL.Path).
					Msg("Rate limit exceeded")

				w.Header().Set("Retry-After", "60")
				response.RateLimited(w, "Too many requests. Please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the first X-Forwarded-For hop, or the remote address
// without its port.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
