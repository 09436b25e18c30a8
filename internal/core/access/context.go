// Package access holds the request principal and the declarative rules that
// decide whether a principal may reach a path or use a capability.
package access

import (
	"context"

	"github.com/eduacademy/academy-api/internal/core/domain"
)

// Principal is the authenticated identity of a single request.
type Principal struct {
	User        domain.User
	authorities map[string]struct{}
}

// NewPrincipal builds a principal from u. The password hash is never copied.
func NewPrincipal(u *domain.User) *Principal {
	user := *u
	user.PasswordHash = ""
	auth := domain.Authorities(user.Role)
	set := make(map[string]struct{}, len(auth))
	for _, a := range auth {
		set[a] = struct{}{}
	}
	return &Principal{User: user, authorities: set}
}

// HasAuthority reports whether the principal holds the role marker or
// capability a.
func (p *Principal) HasAuthority(a string) bool {
	if p == nil {
		return false
	}
	_, ok := p.authorities[a]
	return ok
}

// Can reports whether the principal was granted c.
func (p *Principal) Can(c domain.Capability) bool {
	return p.HasAuthority(string(c))
}

// Authorities returns the role marker followed by the sorted capabilities.
func (p *Principal) Authorities() []string {
	if p == nil {
		return nil
	}
	return domain.Authorities(p.User.Role)
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal attached to ctx, if any.
func FromContext(ctx context.Context) (*Principal, bool) {
	if ctx == nil {
		return nil, false
	}
	p, ok := ctx.Value(principalKey{}).(*Principal)
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}
