package ports

import (
	"context"

	"github.com/eduacademy/academy-api/internal/core/domain"
)

// AdminService covers course moderation and the user directory.
type AdminService interface {
	// ListCourses lists every course, or only published or hidden ones when
	// published is set.
	ListCourses(ctx context.Context, published *bool) ([]*domain.Course, error)
	GetCourse(ctx context.Context, courseID int64) (*domain.Course, error)
	PublishCourse(ctx context.Context, courseID int64) (*domain.Course, error)
	HideCourse(ctx context.Context, courseID int64) (*domain.Course, error)
	DeleteCourse(ctx context.Context, courseID int64) error

	ListUsers(ctx context.Context, role string) ([]*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
}
