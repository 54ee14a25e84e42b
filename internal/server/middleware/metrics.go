package middleware

import (
	"net/http"
	"time"
)

// HTTPObserver records served requests.
type HTTPObserver interface {
	ObserveHTTP(method, route string, code int, elapsed time.Duration)
}

// Metrics records request counts and latency by route pattern. It must sit
// directly in front of the mux so the matched pattern is visible once the
// mux returns.
func Metrics(observer HTTPObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			observer.ObserveHTTP(r.Method, route, wrapped.statusCode, time.Since(start))
		})
	}
}
