package transport

import "net/http"

// Authenticator applies a credential to outbound HTTP requests.
type Authenticator interface {
	Apply(req *http.Request, credential string)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request, _ string) {}

// BearerAuth sends the credential as an OAuth-style bearer token.
type BearerAuth struct{}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request, credential string) {
	if credential == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+credential)
}

// HeaderAuth sends the credential verbatim in a custom header.
type HeaderAuth struct {
	Header string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a *HeaderAuth) Apply(req *http.Request, credential string) {
	if credential == "" {
		return
	}
	req.Header.Set(a.Header, credential)
}
