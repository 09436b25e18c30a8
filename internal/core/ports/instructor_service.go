package ports

import (
	"context"
	"time"

	"github.com/eduacademy/academy-api/internal/core/domain"
)

// CourseInput carries the editable fields of a course.
type CourseInput struct {
	Name        string
	Description string
}

// LessonInput carries the editable fields of a lesson.
type LessonInput struct {
	Title   string
	Content string
}

// AssessmentInput carries the editable fields of an assignment or exam. A nil
// DueAt keeps the current due time, or opens a new assessment for
// domain.DefaultAssessmentWindow.
type AssessmentInput struct {
	Title   string
	Content string
	DueAt   *time.Time
}

// AssessmentRef addresses one assessment of a course. ID is ignored by
// listing and creating calls.
type AssessmentRef struct {
	CourseID int64
	Kind     domain.AssessmentKind
	ID       int64
}

// InstructorService covers the operations of a course instructor. Every call
// is scoped to courses the instructor teaches.
type InstructorService interface {
	CreateCourse(ctx context.Context, instructorID int64, in CourseInput) (*domain.Course, error)
	ListCourses(ctx context.Context, instructorID int64) ([]*domain.Course, error)
	GetCourse(ctx context.Context, instructorID, courseID int64) (*domain.Course, error)
	UpdateCourse(ctx context.Context, instructorID, courseID int64, in CourseInput) (*domain.Course, error)
	DeleteCourse(ctx context.Context, instructorID, courseID int64) error

	ListStudents(ctx context.Context, instructorID, courseID int64) ([]*domain.User, error)
	GetStudent(ctx context.Context, instructorID, courseID, studentID int64) (*domain.User, error)
	ListReviews(ctx context.Context, instructorID, courseID int64) ([]*domain.Review, error)

	ListLessons(ctx context.Context, instructorID, courseID int64) ([]*domain.Lesson, error)
	GetLesson(ctx context.Context, instructorID, courseID, lessonID int64) (*domain.Lesson, error)
	AddLesson(ctx context.Context, instructorID, courseID int64, in LessonInput) (*domain.Lesson, error)
	UpdateLesson(ctx context.Context, instructorID, courseID, lessonID int64, in LessonInput) (*domain.Lesson, error)
	DeleteLesson(ctx context.Context, instructorID, courseID, lessonID int64) error

	ListRequests(ctx context.Context, instructorID, courseID int64) ([]*domain.EnrollmentRequest, error)
	GetRequest(ctx context.Context, instructorID, courseID, requestID int64) (*domain.EnrollmentRequest, error)
	ApproveRequest(ctx context.Context, instructorID, requestID int64) (*domain.EnrollmentRequest, error)
	RejectRequest(ctx context.Context, instructorID, requestID int64) (*domain.EnrollmentRequest, error)

	ListAssessments(ctx context.Context, instructorID int64, ref AssessmentRef) ([]*domain.Assessment, error)
	GetAssessment(ctx context.Context, instructorID int64, ref AssessmentRef) (*domain.Assessment, error)
	AddAssessment(ctx context.Context, instructorID int64, ref AssessmentRef, in AssessmentInput) (*domain.Assessment, error)
	UpdateAssessment(ctx context.Context, instructorID int64, ref AssessmentRef, in AssessmentInput) (*domain.Assessment, error)
	DeleteAssessment(ctx context.Context, instructorID int64, ref AssessmentRef) error

	ListSubmissions(ctx context.Context, instructorID int64, ref AssessmentRef) ([]*domain.Submission, error)
	// GradeSubmission records score; it may regrade a graded submission.
	GradeSubmission(ctx context.Context, instructorID int64, ref AssessmentRef, submissionID int64, score int) (*domain.Submission, error)
	// ClearGrade reopens a graded submission for resubmission.
	ClearGrade(ctx context.Context, instructorID int64, ref AssessmentRef, submissionID int64) (*domain.Submission, error)
}
