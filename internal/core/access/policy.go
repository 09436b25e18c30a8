package access

import (
	"path"
	"strings"

	"github.com/eduacademy/academy-api/internal/core/domain"
)

// RoleRule restricts every path under Prefix to principals holding Authority.
type RoleRule struct {
	Prefix    string
	Authority string
}

// Decision is the outcome of a policy evaluation.
type Decision string

const (
	DecisionPublic          Decision = "public"
	DecisionAllowed         Decision = "allowed"
	DecisionUnauthenticated Decision = "unauthenticated"
	DecisionDenied          Decision = "denied"
)

// Policy is an immutable set of path rules. Rules are checked in order:
// public prefixes, then authentication, then role rules.
type Policy struct {
	public []string
	rules  []RoleRule
}

// NewPolicy copies its arguments; later changes by the caller have no effect.
func NewPolicy(public []string, rules []RoleRule) *Policy {
	p := &Policy{
		public: make([]string, 0, len(public)),
		rules:  make([]RoleRule, 0, len(rules)),
	}
	for _, prefix := range public {
		p.public = append(p.public, normalizePrefix(prefix))
	}
	for _, r := range rules {
		p.rules = append(p.rules, RoleRule{Prefix: normalizePrefix(r.Prefix), Authority: r.Authority})
	}
	return p
}

// DefaultPolicy returns the rules the API is served with.
func DefaultPolicy() *Policy {
	return NewPolicy(
		[]string{"/auth/", "/health", "/metrics", "/swagger/"},
		[]RoleRule{
			{Prefix: "/v1/admin/", Authority: domain.RoleAdmin.Marker()},
			{Prefix: "/v1/instructor/", Authority: domain.RoleInstructor.Marker()},
			{Prefix: "/v1/student/", Authority: domain.RoleStudent.Marker()},
		},
	)
}

// IsPublic reports whether urlPath needs no authentication. Only canonical
// paths can be public.
func (p *Policy) IsPublic(urlPath string) bool {
	if !isCanonical(urlPath) {
		return false
	}
	for _, prefix := range p.public {
		if underPrefix(urlPath, prefix) {
			return true
		}
	}
	return false
}

// Evaluate decides whether principal may reach urlPath. principal may be nil.
// urlPath must be the path the router matches on, still escaped: an encoded
// slash is part of a segment, not a separator. Paths carrying dot segments
// or empty segments are never public and are denied to every role.
// The returned error is nil, domain.ErrUnauthenticated or
// domain.ErrAccessDenied.
func (p *Policy) Evaluate(urlPath string, principal *Principal) (Decision, error) {
	if p.IsPublic(urlPath) {
		return DecisionPublic, nil
	}
	if principal == nil {
		return DecisionUnauthenticated, domain.ErrUnauthenticated
	}
	if !isCanonical(urlPath) {
		return DecisionDenied, domain.ErrAccessDenied
	}
	for _, r := range p.rules {
		if underPrefix(urlPath, r.Prefix) && !principal.HasAuthority(r.Authority) {
			return DecisionDenied, domain.ErrAccessDenied
		}
	}
	return DecisionAllowed, nil
}

// Authorize checks a single capability.
func Authorize(principal *Principal, c domain.Capability) error {
	if principal == nil {
		return domain.ErrUnauthenticated
	}
	if !principal.Can(c) {
		return domain.ErrAccessDenied
	}
	return nil
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// isCanonical reports whether cleaning p would change anything beyond a
// trailing slash.
func isCanonical(p string) bool {
	if p == "/" {
		return true
	}
	if !strings.HasPrefix(p, "/") {
		return false
	}
	return path.Clean(p) == strings.TrimSuffix(p, "/")
}

// normalizePrefix strips the trailing slash so "/v1/admin/" also covers
// "/v1/admin" itself.
func normalizePrefix(prefix string) string {
	prefix = cleanPath(prefix)
	if prefix != "/" {
		prefix = strings.TrimSuffix(prefix, "/")
	}
	return prefix
}

// underPrefix matches whole path segments: "/health" covers "/health/ready"
// but not "/healthcheck".
func underPrefix(p, prefix string) bool {
	if prefix == "/" {
		return true
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}
