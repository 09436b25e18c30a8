package ports

import (
	"context"

	"github.com/eduacademy/academy-api/internal/core/domain"
)

// RegisterInput carries the fields of a registration request. Role is the
// raw wire name and is parsed by the service.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (string, *domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}

// TokenService issues and verifies signed bearer tokens.
type TokenService interface {
	Issue(subject string, extra map[string]any) (string, error)
	ExtractSubject(token string) (string, error)
	Validate(token, expectedSubject string) bool
}
