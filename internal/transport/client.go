// Package transport is the HTTP plumbing used to talk to the upstream
// catalog service: authenticated requests and response decoding.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// Client performs authenticated JSON requests.
type Client struct {
	http      *http.Client
	auth      Authenticator
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header of every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a new transport client with the specified authenticator.
func New(auth Authenticator, opts ...Option) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	c := &Client{
		http: &http.Client{Timeout: DefaultHTTPTimeout},
		auth: auth,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs req with the credential applied.
func (c *Client) Do(ctx context.Context, req *http.Request, credential string) (*http.Response, error) {
	c.auth.Apply(req, credential)

	req.Header.Set("Accept", "application/json")
	if req.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)

	event := logging.FromContext(ctx).Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Dur("elapsed", time.Since(start))
	if resp != nil {
		event = event.Int("status", resp.StatusCode)
	}
	event.Err(err).Msg("Upstream request")

	return resp, err
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url, credential string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req, credential)
}

// PostJSON encodes body as JSON and POSTs it.
func (c *Client) PostJSON(ctx context.Context, url, credential string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.WrapParse("json", "request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req, credential)
}

// DecodeResponse reads a JSON response into target and closes the body.
// Any non-2xx status becomes an *errors.APIError carrying the body text.
func DecodeResponse(resp *http.Response, service string, target any) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, constants.MaxUpstreamBodySize))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &errors.APIError{
			Service:    service,
			StatusCode: resp.StatusCode,
			Message:    truncate(string(bytes.TrimSpace(body)), 512),
		}
		if resp.Request != nil && resp.Request.URL != nil {
			apiErr.Endpoint = resp.Request.URL.String()
		}
		return apiErr
	}

	if target == nil {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", "response", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
