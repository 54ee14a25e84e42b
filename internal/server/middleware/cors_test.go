package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDefaultCORSConfig tests default CORS configuration.
func TestDefaultCORSConfig(t *testing.T) {
	config := DefaultCORSConfig()

	assert.False(t, config.AllowAll)
	assert.Equal(t, []string{"*"}, config.AllowedOrigins)
	assert.Contains(t, config.AllowedMethods, "PATCH")
	assert.Contains(t, config.ExposedHeaders, "X-Total-Count")
	assert.Contains(t, config.ExposedHeaders, "Location")
}

// TestCORS tests the CORS middleware with various scenarios.
func TestCORS(t *testing.T) {
	tests := []struct {
		name           string
		config         CORSConfig
		origin         string
		expectedOrigin string
	}{
		{
			name:           "allow all",
			config:         CORSConfig{AllowAll: true},
			origin:         "https://shop.example.com",
			expectedOrigin: "*",
		},
		{
			name:           "empty origin list allows all",
			config:         CORSConfig{},
			origin:         "https://shop.example.com",
			expectedOrigin: "*",
		},
		{
			name:           "listed origin is echoed",
			config:         CORSConfig{AllowedOrigins: []string{"https://admin.example.com", "https://shop.example.com"}},
			origin:         "https://shop.example.com",
			expectedOrigin: "https://shop.example.com",
		},
		{
			name:           "unlisted origin gets nothing",
			config:         CORSConfig{AllowedOrigins: []string{"https://admin.example.com"}},
			origin:         "https://evil.example.com",
			expectedOrigin: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := CORS(tt.config)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/dispositivos", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.expectedOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

// TestCORS_PreflightShortCircuit tests that preflight requests don't reach the handler.
func TestCORS_PreflightShortCircuit(t *testing.T) {
	called := false
	handler := CORS(DefaultCORSConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/dispositivos/1", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "X-Total-Count")
}

func TestIsOriginAllowed(t *testing.T) {
	assert.True(t, isOriginAllowed("https://a.example.com", []string{"*"}))
	assert.True(t, isOriginAllowed("https://a.example.com", []string{"https://a.example.com"}))
	assert.False(t, isOriginAllowed("https://b.example.com", []string{"https://a.example.com"}))
	assert.False(t, isOriginAllowed("https://a.example.com", nil))
}
