package ports

import (
	"context"

	"github.com/eduacademy/academy-api/internal/core/domain"
)

// UserRepository backs the admin user directory.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// List returns users ordered by id. An empty role lists everyone.
	List(ctx context.Context, role domain.Role) ([]*domain.User, error)
	Delete(ctx context.Context, id int64) error
}
