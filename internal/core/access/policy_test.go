package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduacademy/academy-api/internal/core/domain"
)

func principalFor(role domain.Role) *Principal {
	return NewPrincipal(&domain.User{ID: 7, Email: string(role) + "@example.com", Role: role, PasswordHash: "$2a$hash"})
}

func TestPolicy_Evaluate(t *testing.T) {
	t.Parallel()

	policy := DefaultPolicy()
	student := principalFor(domain.RoleStudent)
	instructor := principalFor(domain.RoleInstructor)
	admin := principalFor(domain.RoleAdmin)

	tests := []struct {
		name      string
		path      string
		principal *Principal
		decision  Decision
		err       error
	}{
		{"public auth route", "/auth/login", nil, DecisionPublic, nil},
		{"public health", "/health", nil, DecisionPublic, nil},
		{"public readiness", "/health/ready", nil, DecisionPublic, nil},
		{"public swagger", "/swagger/index.html", nil, DecisionPublic, nil},
		{"health prefix is segment based", "/healthcheck", nil, DecisionUnauthenticated, domain.ErrUnauthenticated},
		{"anonymous on protected", "/v1/me", nil, DecisionUnauthenticated, domain.ErrUnauthenticated},
		{"anonymous on role route", "/v1/student/courses", nil, DecisionUnauthenticated, domain.ErrUnauthenticated},
		{"authenticated on other route", "/v1/me", student, DecisionAllowed, nil},
		{"student on student route", "/v1/student/courses", student, DecisionAllowed, nil},
		{"student on instructor route", "/v1/instructor/courses", student, DecisionDenied, domain.ErrAccessDenied},
		{"instructor on admin route", "/v1/admin/courses", instructor, DecisionDenied, domain.ErrAccessDenied},
		{"admin on admin route", "/v1/admin/courses", admin, DecisionAllowed, nil},
		{"admin on student route", "/v1/student/courses", admin, DecisionDenied, domain.ErrAccessDenied},
		{"prefix root itself", "/v1/admin", student, DecisionDenied, domain.ErrAccessDenied},
		{"dot segments are cleaned", "/v1/student/../admin/courses", student, DecisionDenied, domain.ErrAccessDenied},
		{"double slash is cleaned", "/v1//admin/courses", student, DecisionDenied, domain.ErrAccessDenied},
		{"dot segments cannot reach public", "/auth/../v1/me", nil, DecisionUnauthenticated, domain.ErrUnauthenticated},
		{"dot segments never resolve to public", "/v1/admin/../auth/login", nil, DecisionUnauthenticated, domain.ErrUnauthenticated},
		{"dot segments denied even off role prefixes", "/auth/../v1/admin/users", student, DecisionDenied, domain.ErrAccessDenied},
		{"trailing slash stays public", "/auth/", nil, DecisionPublic, nil},
		{"escaped slash stays in its segment", "/v1/admin/users/1%2F..%2F..%2F..%2F..%2Fauth", nil, DecisionUnauthenticated, domain.ErrUnauthenticated},
		{"escaped dots stay in their segment", "/v1/admin/users/%2E%2E%2F%2E%2E%2F%2E%2E%2Fhealth", nil, DecisionUnauthenticated, domain.ErrUnauthenticated},
		{"escaped slash cannot dodge role rule", "/v1/admin/users/1%2F..%2F..%2Fstudent", student, DecisionDenied, domain.ErrAccessDenied},
		{"relative path", "auth/login", nil, DecisionUnauthenticated, domain.ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			decision, err := policy.Evaluate(tt.path, tt.principal)
			assert.Equal(t, tt.decision, decision)
			if tt.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestNewPolicy_CopiesInput(t *testing.T) {
	t.Parallel()

	public := []string{"/open/"}
	policy := NewPolicy(public, nil)
	public[0] = "/v1/"

	assert.True(t, policy.IsPublic("/open/x"))
	assert.False(t, policy.IsPublic("/v1/x"))
}

func TestAuthorize(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, Authorize(nil, domain.CapInstructorAddCourse), domain.ErrUnauthenticated)
	assert.ErrorIs(t, Authorize(principalFor(domain.RoleStudent), domain.CapInstructorAddCourse), domain.ErrAccessDenied)
	assert.NoError(t, Authorize(principalFor(domain.RoleInstructor), domain.CapInstructorAddCourse))
}

func TestNewPrincipal(t *testing.T) {
	t.Parallel()

	p := principalFor(domain.RoleInstructor)
	assert.Empty(t, p.User.PasswordHash)
	assert.True(t, p.HasAuthority("ROLE_INSTRUCTOR"))
	assert.True(t, p.Can(domain.CapInstructorEditCourseLesson))
	assert.False(t, p.Can(domain.CapStudentSendEnrollmentRequest))
	assert.Equal(t, domain.Authorities(domain.RoleInstructor), p.Authorities())

	var nilPrincipal *Principal
	assert.False(t, nilPrincipal.HasAuthority("ROLE_ADMIN"))
}

func TestPrincipalContext(t *testing.T) {
	t.Parallel()

	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	p := principalFor(domain.RoleAdmin)
	ctx := WithPrincipal(context.Background(), p)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, p, got)
}
