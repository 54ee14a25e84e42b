package transport_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/storefront/internal/transport"
	"github.com/agentstation/storefront/pkg/errors"
)

func TestClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "storefront-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"name":"ok"}`))
	}))
	defer srv.Close()

	client := transport.New(&transport.BearerAuth{}, transport.WithUserAgent("storefront-test"))
	resp, err := client.Get(context.Background(), srv.URL, "tok")
	require.NoError(t, err)

	var out struct{ Name string }
	require.NoError(t, transport.DecodeResponse(resp, "test", &out))
	assert.Equal(t, "ok", out.Name)
}

func TestClientPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"id":7}`, string(body))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]int{"id": 7})
	}))
	defer srv.Close()

	client := transport.New(nil)
	resp, err := client.PostJSON(context.Background(), srv.URL, "", map[string]int{"id": 7})
	require.NoError(t, err)

	var out map[string]int
	require.NoError(t, transport.DecodeResponse(resp, "test", &out))
	assert.Equal(t, 7, out["id"])
}

func TestDecodeResponseErrors(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		resp := &http.Response{
			StatusCode: http.StatusServiceUnavailable,
			Body:       io.NopCloser(strings.NewReader("maintenance")),
		}
		err := transport.DecodeResponse(resp, "catedra", &struct{}{})
		var apiErr *errors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
		assert.Equal(t, "maintenance", apiErr.Message)
		assert.True(t, errors.IsUpstreamUnavailable(err))
	})

	t.Run("malformed json", func(t *testing.T) {
		resp := &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader("[{")),
		}
		err := transport.DecodeResponse(resp, "catedra", &[]struct{}{})
		var parseErr *errors.ParseError
		assert.ErrorAs(t, err, &parseErr)
	})

	t.Run("nil target", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusNoContent, Body: io.NopCloser(strings.NewReader(""))}
		assert.NoError(t, transport.DecodeResponse(resp, "catedra", nil))
	})
}

func TestClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	client := transport.New(nil, transport.WithTimeout(20*time.Millisecond))
	_, err := client.Get(context.Background(), srv.URL, "")
	assert.Error(t, err)
}
