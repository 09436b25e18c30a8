package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduacademy/academy-api/internal/core/domain"
	"github.com/eduacademy/academy-api/internal/core/ports"
)

// AdminService implements course moderation and the user directory.
type AdminService struct {
	st    CourseStores
	cache ports.IdentityCache
	log   zerolog.Logger
}

// NewAdminService wires the admin operations. cache may be nil.
func NewAdminService(st CourseStores, cache ports.IdentityCache, log zerolog.Logger) *AdminService {
	return &AdminService{st: st, cache: cache, log: log}
}

func (s *AdminService) ListCourses(ctx context.Context, published *bool) ([]*domain.Course, error) {
	return s.st.Courses.List(ctx, ports.CourseFilter{Published: published})
}

func (s *AdminService) GetCourse(ctx context.Context, courseID int64) (*domain.Course, error) {
	return s.st.Courses.FindByID(ctx, courseID)
}

func (s *AdminService) PublishCourse(ctx context.Context, courseID int64) (*domain.Course, error) {
	return s.setPublished(ctx, courseID, true)
}

func (s *AdminService) HideCourse(ctx context.Context, courseID int64) (*domain.Course, error) {
	return s.setPublished(ctx, courseID, false)
}

func (s *AdminService) setPublished(ctx context.Context, courseID int64, published bool) (*domain.Course, error) {
	course, err := s.st.Courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.Published == published {
		if published {
			return nil, domain.ErrAlreadyPublished
		}
		return nil, domain.ErrAlreadyHidden
	}

	course.Published = published
	course.UpdatedAt = time.Now().UTC()
	if err := s.st.Courses.Update(ctx, course); err != nil {
		return nil, err
	}

	s.log.Info().Int64("course_id", courseID).Bool("published", published).Msg("course visibility changed")
	return course, nil
}

func (s *AdminService) DeleteCourse(ctx context.Context, courseID int64) error {
	if _, err := s.st.Courses.FindByID(ctx, courseID); err != nil {
		return err
	}
	return deleteCourseCascade(ctx, s.st, courseID)
}

// ListUsers lists every user, or only those holding role when it is set.
func (s *AdminService) ListUsers(ctx context.Context, role string) ([]*domain.User, error) {
	var r domain.Role
	if role != "" {
		parsed, err := domain.ParseRole(role)
		if err != nil {
			return nil, err
		}
		r = parsed
	}
	users, err := s.st.Users.List(ctx, r)
	if err != nil {
		return nil, err
	}
	for i, u := range users {
		users[i] = u.Public()
	}
	return users, nil
}

func (s *AdminService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.st.Users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Public(), nil
}

// DeleteUser removes the identity and evicts it from the identity cache so
// outstanding tokens stop resolving. The cache refuses to re-fill the email
// for one TTL after the eviction, which closes the race with a lookup that
// read the store just before the delete.
func (s *AdminService) DeleteUser(ctx context.Context, id int64) error {
	u, err := s.st.Users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.st.Users.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Evict(ctx, u.Email); err != nil {
			s.log.Warn().Err(err).Int64("user_id", id).Msg("failed to evict identity cache entry")
		}
	}
	s.log.Info().Int64("user_id", id).Str("role", string(u.Role)).Msg("user deleted")
	return nil
}
