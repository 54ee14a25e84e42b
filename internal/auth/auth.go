// Package auth issues and verifies the bearer tokens used by the HTTP API
// and hashes account passwords.
package auth

import (
	"context"
	"slices"
	"strings"

	"github.com/agentstation/storefront/pkg/users"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	Login       string
	Authorities []string
}

// HasAuthority reports whether the principal holds authority.
func (p *Principal) HasAuthority(authority string) bool {
	return p != nil && slices.Contains(p.Authorities, authority)
}

// IsAdmin reports whether the principal holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p.HasAuthority(users.RoleAdmin)
}

type principalKey struct{}

// WithPrincipal stores the principal in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored in ctx, or nil for anonymous
// requests.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}

func joinAuthorities(authorities []string) string {
	return strings.Join(authorities, ",")
}

func splitAuthorities(claim string) []string {
	var out []string
	for _, a := range strings.Split(claim, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
