package ports

import (
	"context"

	"github.com/eduacademy/academy-api/internal/core/domain"
)

// AuthRepository is the credential store. Email and username are unique;
// Create returns domain.ErrDuplicateIdentity when either collides and assigns
// the numeric id.
type AuthRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}

// IdentityLookup resolves a token subject to a user. The returned user never
// carries a password hash.
type IdentityLookup interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

// IdentityCache holds recently resolved identities. Misses return
// domain.ErrUserNotFound.
type IdentityCache interface {
	Get(ctx context.Context, email string) (*domain.User, error)
	Set(ctx context.Context, user *domain.User) error
	// Evict drops the entry and keeps Set from re-filling the email until
	// one TTL has passed.
	Evict(ctx context.Context, email string) error
}
