package ports

import (
	"context"

	"github.com/eduacademy/academy-api/internal/core/domain"
)

// CourseFilter narrows a course listing. Zero values do not filter.
type CourseFilter struct {
	Published    *bool
	InstructorID int64
	StudentID    int64
}

// CourseRepository persists courses together with their membership lists.
type CourseRepository interface {
	Create(ctx context.Context, c *domain.Course) (*domain.Course, error)
	FindByID(ctx context.Context, id int64) (*domain.Course, error)
	List(ctx context.Context, filter CourseFilter) ([]*domain.Course, error)
	Update(ctx context.Context, c *domain.Course) error
	// AddStudent appends studentID to the course roster if absent.
	AddStudent(ctx context.Context, courseID, studentID int64) error
	// RemoveStudent drops studentID from the roster, or returns
	// domain.ErrNotEnrolled when it is not on it.
	RemoveStudent(ctx context.Context, courseID, studentID int64) error
	Delete(ctx context.Context, id int64) error
}

// LessonRepository persists lessons, always scoped to a course.
type LessonRepository interface {
	Create(ctx context.Context, l *domain.Lesson) (*domain.Lesson, error)
	FindByID(ctx context.Context, courseID, lessonID int64) (*domain.Lesson, error)
	ListByCourse(ctx context.Context, courseID int64) ([]*domain.Lesson, error)
	Update(ctx context.Context, l *domain.Lesson) error
	Delete(ctx context.Context, courseID, lessonID int64) error
	DeleteByCourse(ctx context.Context, courseID int64) error
}

// EnrollmentRepository persists enrollment requests. At most one request per
// course and student is pending at any time.
type EnrollmentRepository interface {
	// Create returns domain.ErrDuplicateRequest when r is pending and another
	// pending request for the same course and student exists.
	Create(ctx context.Context, r *domain.EnrollmentRequest) (*domain.EnrollmentRequest, error)
	FindByID(ctx context.Context, id int64) (*domain.EnrollmentRequest, error)
	// FindPending returns the pending request of studentID for courseID, or
	// domain.ErrRequestNotFound.
	FindPending(ctx context.Context, courseID, studentID int64) (*domain.EnrollmentRequest, error)
	ListByCourse(ctx context.Context, courseID int64) ([]*domain.EnrollmentRequest, error)
	ListByStudent(ctx context.Context, studentID int64) ([]*domain.EnrollmentRequest, error)
	// UpdateStatus moves request id from status from to status to in one
	// write. It returns domain.ErrRequestNotPending when the stored status is
	// no longer from, and domain.ErrRequestNotFound when id does not exist.
	UpdateStatus(ctx context.Context, id int64, from, to domain.EnrollmentStatus) error
	DeleteByCourse(ctx context.Context, courseID int64) error
}

// AssessmentRepository persists assignments and exams, scoped to a course.
type AssessmentRepository interface {
	Create(ctx context.Context, a *domain.Assessment) (*domain.Assessment, error)
	FindByID(ctx context.Context, courseID, id int64) (*domain.Assessment, error)
	ListByCourse(ctx context.Context, courseID int64, kind domain.AssessmentKind) ([]*domain.Assessment, error)
	Update(ctx context.Context, a *domain.Assessment) error
	Delete(ctx context.Context, courseID, id int64) error
	DeleteByCourse(ctx context.Context, courseID int64) error
}

// SubmissionRepository persists student answers and their grades.
type SubmissionRepository interface {
	// Submit stores the answer of s.StudentID for s.AssessmentID, replacing an
	// ungraded earlier answer. It returns domain.ErrAlreadyGraded when the
	// existing submission is graded.
	Submit(ctx context.Context, s *domain.Submission) (*domain.Submission, error)
	FindByID(ctx context.Context, assessmentID, id int64) (*domain.Submission, error)
	FindByStudent(ctx context.Context, assessmentID, studentID int64) (*domain.Submission, error)
	ListByAssessment(ctx context.Context, assessmentID int64) ([]*domain.Submission, error)
	// SetScore grades the submission, or clears its grade when score is nil.
	SetScore(ctx context.Context, assessmentID, id int64, score *int) (*domain.Submission, error)
	DeleteByAssessment(ctx context.Context, assessmentID int64) error
	DeleteByCourse(ctx context.Context, courseID int64) error
}

// ReviewRepository persists course reviews, one per course and student.
type ReviewRepository interface {
	// Create returns domain.ErrDuplicateReview when the student already
	// reviewed the course.
	Create(ctx context.Context, r *domain.Review) (*domain.Review, error)
	FindByStudent(ctx context.Context, courseID, studentID int64) (*domain.Review, error)
	ListByCourse(ctx context.Context, courseID int64) ([]*domain.Review, error)
	Update(ctx context.Context, r *domain.Review) error
	Delete(ctx context.Context, courseID, studentID int64) error
	DeleteByCourse(ctx context.Context, courseID int64) error
}
