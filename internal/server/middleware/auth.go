package middleware

import (
	"net/http"
	"strings"

	"github.com/agentstation/storefront/internal/auth"
	"github.com/agentstation/storefront/internal/server/response"
	"github.com/agentstation/storefront/pkg/logging"
)

// Verifier turns a bearer token into a principal.
type Verifier interface {
	Verify(token string) (*auth.Principal, error)
}

// Authenticate resolves the bearer token, if any, to a principal and stores
// it in the request context. Requests without a valid token continue as
// anonymous; route wrappers decide whether that is acceptable.
func Authenticate(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" || verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := verifier.Verify(token)
			if err != nil {
				logging.FromContext(r.Context()).Debug().
					Err(err).
					Str("path", r.URL.Path).
					Msg("Ignoring invalid bearer token")
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.WithPrincipal(r.Context(), principal)
			ctx = logging.WithUser(ctx, principal.Login)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthenticated rejects anonymous requests with 401.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.FromContext(r.Context()) == nil {
			response.Unauthorized(w, "Authentication required", "Provide a valid bearer token in the Authorization header")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuthority rejects anonymous requests with 401 and principals
// lacking authority with 403.
func RequireAuthority(authority string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return RequireAuthenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.FromContext(r.Context()).HasAuthority(authority) {
				response.Forbidden(w, "Missing authority "+authority)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// Browsers cannot set headers on EventSource or WebSocket requests, so GET
// requests may carry it as ?access_token= instead.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) >= 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	if r.Method == http.MethodGet {
		return r.URL.Query().Get("access_token")
	}
	return ""
}
