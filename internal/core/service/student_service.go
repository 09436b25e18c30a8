package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduacademy/academy-api/internal/core/domain"
	"github.com/eduacademy/academy-api/internal/core/ports"
)

// StudentService implements course discovery, enrollment and course work.
type StudentService struct {
	st  CourseStores
	log zerolog.Logger
}

func NewStudentService(st CourseStores, log zerolog.Logger) *StudentService {
	return &StudentService{st: st, log: log}
}

func (s *StudentService) ListPublishedCourses(ctx context.Context) ([]*domain.Course, error) {
	published := true
	return s.st.Courses.List(ctx, ports.CourseFilter{Published: &published})
}

// GetPublishedCourse hides unpublished courses behind domain.ErrCourseNotFound.
func (s *StudentService) GetPublishedCourse(ctx context.Context, courseID int64) (*domain.Course, error) {
	course, err := s.st.Courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.Published {
		return nil, domain.ErrCourseNotFound
	}
	return course, nil
}

func (s *StudentService) ListCourseReviews(ctx context.Context, courseID int64) ([]*domain.Review, error) {
	if _, err := s.GetPublishedCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return s.st.Reviews.ListByCourse(ctx, courseID)
}

func (s *StudentService) ListEnrolledCourses(ctx context.Context, studentID int64) ([]*domain.Course, error) {
	return s.st.Courses.List(ctx, ports.CourseFilter{StudentID: studentID})
}

func (s *StudentService) GetEnrolledCourse(ctx context.Context, studentID, courseID int64) (*domain.Course, error) {
	return enrolledCourse(ctx, s.st.Courses, studentID, courseID)
}

func (s *StudentService) ListEnrolledLessons(ctx context.Context, studentID, courseID int64) ([]*domain.Lesson, error) {
	if _, err := enrolledCourse(ctx, s.st.Courses, studentID, courseID); err != nil {
		return nil, err
	}
	return s.st.Lessons.ListByCourse(ctx, courseID)
}

func (s *StudentService) GetEnrolledLesson(ctx context.Context, studentID, courseID, lessonID int64) (*domain.Lesson, error) {
	if _, err := enrolledCourse(ctx, s.st.Courses, studentID, courseID); err != nil {
		return nil, err
	}
	return s.st.Lessons.FindByID(ctx, courseID, lessonID)
}

// Unenroll takes the student off the roster. Submissions and reviews stay.
func (s *StudentService) Unenroll(ctx context.Context, studentID, courseID int64) error {
	if err := s.st.Courses.RemoveStudent(ctx, courseID, studentID); err != nil {
		return err
	}
	s.log.Info().Int64("course_id", courseID).Int64("student_id", studentID).Msg("student unenrolled")
	return nil
}

// SendRequest files a pending enrollment request. The store rejects a second
// pending request for the same course, so concurrent sends cannot both land.
func (s *StudentService) SendRequest(ctx context.Context, studentID, courseID int64) (*domain.EnrollmentRequest, error) {
	course, err := s.GetPublishedCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.HasStudent(studentID) {
		return nil, domain.ErrAlreadyEnrolled
	}

	now := time.Now().UTC()
	created, err := s.st.Enrollments.Create(ctx, &domain.EnrollmentRequest{
		CourseID:  courseID,
		StudentID: studentID,
		Status:    domain.EnrollmentPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("request_id", created.ID).Int64("course_id", courseID).Int64("student_id", studentID).Msg("enrollment request sent")
	return created, nil
}

// CancelRequest withdraws the student's pending request for courseID. It
// returns domain.ErrRequestNotPending when an instructor decided it first.
func (s *StudentService) CancelRequest(ctx context.Context, studentID, courseID int64) (*domain.EnrollmentRequest, error) {
	req, err := s.st.Enrollments.FindPending(ctx, courseID, studentID)
	if err != nil {
		return nil, err
	}
	if err := s.st.Enrollments.UpdateStatus(ctx, req.ID, domain.EnrollmentPending, domain.EnrollmentCancelled); err != nil {
		return nil, err
	}
	req.Status = domain.EnrollmentCancelled
	req.UpdatedAt = time.Now().UTC()
	return req, nil
}

func (s *StudentService) ListRequests(ctx context.Context, studentID int64) ([]*domain.EnrollmentRequest, error) {
	return s.st.Enrollments.ListByStudent(ctx, studentID)
}

// GetRequest returns one of the student's own requests. Other students'
// requests read as not found.
func (s *StudentService) GetRequest(ctx context.Context, studentID, requestID int64) (*domain.EnrollmentRequest, error) {
	req, err := s.st.Enrollments.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.StudentID != studentID {
		return nil, domain.ErrRequestNotFound
	}
	return req, nil
}

func (s *StudentService) ListAssessments(ctx context.Context, studentID int64, ref ports.AssessmentRef) ([]*domain.Assessment, error) {
	if _, err := enrolledCourse(ctx, s.st.Courses, studentID, ref.CourseID); err != nil {
		return nil, err
	}
	return s.st.Assessments.ListByCourse(ctx, ref.CourseID, ref.Kind)
}

func (s *StudentService) GetAssessment(ctx context.Context, studentID int64, ref ports.AssessmentRef) (*domain.Assessment, error) {
	if _, err := enrolledCourse(ctx, s.st.Courses, studentID, ref.CourseID); err != nil {
		return nil, err
	}
	return courseAssessment(ctx, s.st.Assessments, ref)
}

// SubmitAnswer stores the student's answer while the assessment is open. An
// earlier answer is replaced until it has been graded.
func (s *StudentService) SubmitAnswer(ctx context.Context, studentID int64, ref ports.AssessmentRef, answer string) (*domain.Submission, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, fmt.Errorf("%w: answer is required", domain.ErrInvalidInput)
	}
	if _, err := enrolledCourse(ctx, s.st.Courses, studentID, ref.CourseID); err != nil {
		return nil, err
	}
	a, err := courseAssessment(ctx, s.st.Assessments, ref)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if !a.OpenAt(now) {
		return nil, domain.ErrSubmissionClosed
	}

	sub, err := s.st.Submissions.Submit(ctx, &domain.Submission{
		AssessmentID: a.ID,
		CourseID:     a.CourseID,
		StudentID:    studentID,
		Answer:       answer,
		SubmittedAt:  now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("submission_id", sub.ID).Int64("assessment_id", a.ID).Int64("student_id", studentID).Msg("answer submitted")
	return sub, nil
}

// GetSubmission returns the student's own answer together with its grade.
func (s *StudentService) GetSubmission(ctx context.Context, studentID int64, ref ports.AssessmentRef) (*domain.Submission, error) {
	if _, err := enrolledCourse(ctx, s.st.Courses, studentID, ref.CourseID); err != nil {
		return nil, err
	}
	if _, err := courseAssessment(ctx, s.st.Assessments, ref); err != nil {
		return nil, err
	}
	return s.st.Submissions.FindByStudent(ctx, ref.ID, studentID)
}

func (s *StudentService) AddReview(ctx context.Context, studentID, courseID int64, in ports.ReviewInput) (*domain.Review, error) {
	if err := validateReview(in); err != nil {
		return nil, err
	}
	if _, err := enrolledCourse(ctx, s.st.Courses, studentID, courseID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return s.st.Reviews.Create(ctx, &domain.Review{
		CourseID:  courseID,
		StudentID: studentID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *StudentService) EditReview(ctx context.Context, studentID, courseID int64, in ports.ReviewInput) (*domain.Review, error) {
	if err := validateReview(in); err != nil {
		return nil, err
	}
	if _, err := enrolledCourse(ctx, s.st.Courses, studentID, courseID); err != nil {
		return nil, err
	}
	rev, err := s.st.Reviews.FindByStudent(ctx, courseID, studentID)
	if err != nil {
		return nil, err
	}

	rev.Rating = in.Rating
	rev.Comment = strings.TrimSpace(in.Comment)
	rev.UpdatedAt = time.Now().UTC()
	if err := s.st.Reviews.Update(ctx, rev); err != nil {
		return nil, err
	}
	return rev, nil
}

// DeleteReview removes the student's own review, enrolled or not.
func (s *StudentService) DeleteReview(ctx context.Context, studentID, courseID int64) error {
	return s.st.Reviews.Delete(ctx, courseID, studentID)
}

func validateReview(in ports.ReviewInput) error {
	if !domain.ValidRating(in.Rating) {
		return fmt.Errorf("%w: rating must be between %d and %d", domain.ErrInvalidInput, domain.MinRating, domain.MaxRating)
	}
	return nil
}
