package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observation struct {
	method string
	route  string
	code   int
}

type recordingObserver struct {
	mu  sync.Mutex
	obs []observation
}

func (o *recordingObserver) ObserveHTTP(method, route string, code int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.obs = append(o.obs, observation{method, route, code})
}

func TestMetrics(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/dispositivos/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	observer := &recordingObserver{}
	handler := Metrics(observer)(mux)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/dispositivos/42", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Len(t, observer.obs, 2)
	assert.Equal(t, observation{"GET", "GET /api/dispositivos/{id}", http.StatusNotFound}, observer.obs[0])
	assert.Equal(t, observation{"GET", "unmatched", http.StatusNotFound}, observer.obs[1])
}
