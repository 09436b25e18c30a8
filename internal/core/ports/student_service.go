package ports

import (
	"context"

	"github.com/eduacademy/academy-api/internal/core/domain"
)

// ReviewInput carries the editable fields of a course review.
type ReviewInput struct {
	Rating  int
	Comment string
}

// StudentService covers course discovery, enrollment and course work for
// students. Course work is limited to courses the student is enrolled in.
type StudentService interface {
	ListPublishedCourses(ctx context.Context) ([]*domain.Course, error)
	GetPublishedCourse(ctx context.Context, courseID int64) (*domain.Course, error)
	ListCourseReviews(ctx context.Context, courseID int64) ([]*domain.Review, error)

	ListEnrolledCourses(ctx context.Context, studentID int64) ([]*domain.Course, error)
	GetEnrolledCourse(ctx context.Context, studentID, courseID int64) (*domain.Course, error)
	ListEnrolledLessons(ctx context.Context, studentID, courseID int64) ([]*domain.Lesson, error)
	GetEnrolledLesson(ctx context.Context, studentID, courseID, lessonID int64) (*domain.Lesson, error)
	Unenroll(ctx context.Context, studentID, courseID int64) error

	SendRequest(ctx context.Context, studentID, courseID int64) (*domain.EnrollmentRequest, error)
	CancelRequest(ctx context.Context, studentID, courseID int64) (*domain.EnrollmentRequest, error)
	ListRequests(ctx context.Context, studentID int64) ([]*domain.EnrollmentRequest, error)
	GetRequest(ctx context.Context, studentID, requestID int64) (*domain.EnrollmentRequest, error)

	ListAssessments(ctx context.Context, studentID int64, ref AssessmentRef) ([]*domain.Assessment, error)
	GetAssessment(ctx context.Context, studentID int64, ref AssessmentRef) (*domain.Assessment, error)
	SubmitAnswer(ctx context.Context, studentID int64, ref AssessmentRef, answer string) (*domain.Submission, error)
	GetSubmission(ctx context.Context, studentID int64, ref AssessmentRef) (*domain.Submission, error)

	AddReview(ctx context.Context, studentID, courseID int64, in ReviewInput) (*domain.Review, error)
	EditReview(ctx context.Context, studentID, courseID int64, in ReviewInput) (*domain.Review, error)
	DeleteReview(ctx context.Context, studentID, courseID int64) error
}
