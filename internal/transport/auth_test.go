package transport

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoAuth(t *testing.T) {
	req := &http.Request{Header: make(http.Header)}
	(&NoAuth{}).Apply(req, "secret")
	assert.Empty(t, req.Header)
}

func TestBearerAuth(t *testing.T) {
	req := &http.Request{Header: make(http.Header)}
	(&BearerAuth{}).Apply(req, "secret")
	assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))

	empty := &http.Request{Header: make(http.Header)}
	(&BearerAuth{}).Apply(empty, "")
	assert.Empty(t, empty.Header.Get("Authorization"))
}

func TestHeaderAuth(t *testing.T) {
	req := &http.Request{Header: make(http.Header)}
	(&HeaderAuth{Header: "X-Api-Key"}).Apply(req, "secret")
	assert.Equal(t, "secret", req.Header.Get("X-Api-Key"))
	assert.Empty(t, req.Header.Get("Authorization"))
}
