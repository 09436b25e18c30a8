package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/eduacademy/academy-api/internal/core/domain"
	"github.com/eduacademy/academy-api/internal/core/ports"
)

// IdentityService resolves token subjects to identities, reading through an
// optional cache. Cache failures fall back to the store.
type IdentityService struct {
	store ports.IdentityLookup
	cache ports.IdentityCache
	log   zerolog.Logger
}

// NewIdentityService returns a resolver. cache may be nil.
func NewIdentityService(store ports.IdentityLookup, cache ports.IdentityCache, log zerolog.Logger) *IdentityService {
	return &IdentityService{store: store, cache: cache, log: log}
}

// FindByEmail returns the identity for email without its password hash, or
// domain.ErrUserNotFound.
func (s *IdentityService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if s.cache != nil {
		u, err := s.cache.Get(ctx, email)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.log.Warn().Err(err).Msg("identity cache lookup failed, using store")
		}
	}

	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	public := u.Public()

	if s.cache != nil {
		if err := s.cache.Set(ctx, public); err != nil {
			s.log.Warn().Err(err).Msg("identity cache fill failed")
		}
	}
	return public, nil
}
