package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduacademy/academy-api/internal/core/domain"
	"github.com/eduacademy/academy-api/internal/core/ports"
)

// InstructorService implements course authoring, grading and enrollment
// review.
type InstructorService struct {
	st  CourseStores
	log zerolog.Logger
}

func NewInstructorService(st CourseStores, log zerolog.Logger) *InstructorService {
	return &InstructorService{st: st, log: log}
}

// CreateCourse stores a hidden course taught by instructorID.
func (s *InstructorService) CreateCourse(ctx context.Context, instructorID int64, in ports.CourseInput) (*domain.Course, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: course name is required", domain.ErrInvalidInput)
	}

	now := time.Now().UTC()
	created, err := s.st.Courses.Create(ctx, &domain.Course{
		Name:          name,
		Description:   strings.TrimSpace(in.Description),
		InstructorIDs: []int64{instructorID},
		StudentIDs:    []int64{},
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("course_id", created.ID).Int64("instructor_id", instructorID).Msg("course created")
	return created, nil
}

func (s *InstructorService) ListCourses(ctx context.Context, instructorID int64) ([]*domain.Course, error) {
	return s.st.Courses.List(ctx, ports.CourseFilter{InstructorID: instructorID})
}

func (s *InstructorService) GetCourse(ctx context.Context, instructorID, courseID int64) (*domain.Course, error) {
	return taughtCourse(ctx, s.st.Courses, instructorID, courseID)
}

func (s *InstructorService) UpdateCourse(ctx context.Context, instructorID, courseID int64, in ports.CourseInput) (*domain.Course, error) {
	course, err := taughtCourse(ctx, s.st.Courses, instructorID, courseID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		course.Name = name
	}
	course.Description = strings.TrimSpace(in.Description)
	course.UpdatedAt = time.Now().UTC()

	if err := s.st.Courses.Update(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// DeleteCourse removes the course together with everything attached to it.
func (s *InstructorService) DeleteCourse(ctx context.Context, instructorID, courseID int64) error {
	if _, err := taughtCourse(ctx, s.st.Courses, instructorID, courseID); err != nil {
		return err
	}
	if err := deleteCourseCascade(ctx, s.st, courseID); err != nil {
		return err
	}
	s.log.Info().Int64("course_id", courseID).Int64("instructor_id", instructorID).Msg("course deleted")
	return nil
}

// ListStudents returns the public profiles of the course roster. Roster
// entries whose account is gone are skipped.
func (s *InstructorService) ListStudents(ctx context.Context, instructorID, courseID int64) ([]*domain.User, error) {
	course, err := taughtCourse(ctx, s.st.Courses, instructorID, courseID)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.User, 0, len(course.StudentIDs))
	for _, id := range course.StudentIDs {
		u, err := s.st.Users.FindByID(ctx, id)
		if errors.Is(err, domain.ErrUserNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, u.Public())
	}
	return out, nil
}

func (s *InstructorService) GetStudent(ctx context.Context, instructorID, courseID, studentID int64) (*domain.User, error) {
	course, err := taughtCourse(ctx, s.st.Courses, instructorID, courseID)
	if err != nil {
		return nil, err
	}
	if !course.HasStudent(studentID) {
		return nil, domain.ErrUserNotFound
	}
	u, err := s.st.Users.FindByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return u.Public(), nil
}

func (s *InstructorService) ListReviews(ctx context.Context, instructorID, courseID int64) ([]*domain.Review, error) {
	if _, err := taughtCourse(ctx, s.st.Courses, instructorID, courseID); err != nil {
		return nil, err
	}
	return s.st.Reviews.ListByCourse(ctx, courseID)
}

func (s *InstructorService) ListLessons(ctx context.Context, instructorID, courseID int64) ([]*domain.Lesson, error) {
	if _, err := taughtCourse(ctx, s.st.Courses, instructorID, courseID); err != nil {
		return nil, err
	}
	return s.st.Lessons.ListByCourse(ctx, courseID)
}

func (s *InstructorService) GetLesson(ctx context.Context, instructorID, courseID, lessonID int64) (*domain.Lesson, error) {
	if _, err := taughtCourse(ctx, s.st.Courses, instructorID, courseID); err != nil {
		return nil, err
	}
	return s.st.Lessons.FindByID(ctx, courseID, lessonID)
}

func (s *InstructorService) AddLesson(ctx context.Context, instructorID, courseID int64, in ports.LessonInput) (*domain.Lesson, error) {
	if _, err := taughtCourse(ctx, s.st.Courses, instructorID, courseID); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: lesson title is required", domain.ErrInvalidInput)
	}

	now := time.Now().UTC()
	return s.st.Lessons.Create(ctx, &domain.Lesson{
		CourseID:  courseID,
		Title:     title,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *InstructorService) UpdateLesson(ctx context.Context, instructorID, courseID, lessonID int64, in ports.LessonInput) (*domain.Lesson, error) {
	if _, err := taughtCourse(ctx, s.st.Courses, instructorID, courseID); err != nil {
		return nil, err
	}
	lesson, err := s.st.Lessons.FindByID(ctx, courseID, lessonID)
	if err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(in.Title); title != "" {
		lesson.Title = title
	}
	lesson.Content = in.Content
	lesson.UpdatedAt = time.Now().UTC()

	if err := s.st.Lessons.Update(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *InstructorService) DeleteLesson(ctx context.Context, instructorID, courseID, lessonID int64) error {
	if _, err := taughtCourse(ctx, s.st.Courses, instructorID, courseID); err != nil {
		return err
	}
	return s.st.Lessons.Delete(ctx, courseID, lessonID)
}

func (s *InstructorService) ListRequests(ctx context.Context, instructorID, courseID int64) ([]*domain.EnrollmentRequest, error) {
	if _, err := taughtCourse(ctx, s.st.Courses, instructorID, courseID); err != nil {
		return nil, err
	}
	return s.st.Enrollments.ListByCourse(ctx, courseID)
}

// GetRequest returns one request filed against courseID. Requests of other
// courses read as not found.
func (s *InstructorService) GetRequest(ctx context.Context, instructorID, courseID, requestID int64) (*domain.EnrollmentRequest, error) {
	if _, err := taughtCourse(ctx, s.st.Courses, instructorID, courseID); err != nil {
		return nil, err
	}
	req, err := s.st.Enrollments.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.CourseID != courseID {
		return nil, domain.ErrRequestNotFound
	}
	return req, nil
}

// ApproveRequest closes the request and enrolls the student. The status write
// is conditional on the request still being pending, so a cancellation that
// lands between the read and the write wins and nobody is enrolled.
func (s *InstructorService) ApproveRequest(ctx context.Context, instructorID, requestID int64) (*domain.EnrollmentRequest, error) {
	req, err := s.reviewableRequest(ctx, instructorID, requestID, domain.EnrollmentApproved)
	if err != nil {
		return nil, err
	}
	if err := s.st.Enrollments.UpdateStatus(ctx, req.ID, domain.EnrollmentPending, domain.EnrollmentApproved); err != nil {
		return nil, err
	}

	if err := s.st.Courses.AddStudent(ctx, req.CourseID, req.StudentID); err != nil {
		// Put the request back so the instructor can retry.
		if rerr := s.st.Enrollments.UpdateStatus(ctx, req.ID, domain.EnrollmentApproved, domain.EnrollmentPending); rerr != nil {
			s.log.Error().Err(rerr).Int64("request_id", req.ID).Msg("failed to reopen request after enrollment error")
		}
		return nil, err
	}
	return s.closed(req, domain.EnrollmentApproved), nil
}

func (s *InstructorService) RejectRequest(ctx context.Context, instructorID, requestID int64) (*domain.EnrollmentRequest, error) {
	req, err := s.reviewableRequest(ctx, instructorID, requestID, domain.EnrollmentRejected)
	if err != nil {
		return nil, err
	}
	if err := s.st.Enrollments.UpdateStatus(ctx, req.ID, domain.EnrollmentPending, domain.EnrollmentRejected); err != nil {
		return nil, err
	}
	return s.closed(req, domain.EnrollmentRejected), nil
}

func (s *InstructorService) reviewableRequest(ctx context.Context, instructorID, requestID int64, next domain.EnrollmentStatus) (*domain.EnrollmentRequest, error) {
	req, err := s.st.Enrollments.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if _, err := taughtCourse(ctx, s.st.Courses, instructorID, req.CourseID); err != nil {
		return nil, err
	}
	if !req.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w (status %s)", domain.ErrRequestNotPending, req.Status)
	}
	return req, nil
}

func (s *InstructorService) closed(req *domain.EnrollmentRequest, status domain.EnrollmentStatus) *domain.EnrollmentRequest {
	req.Status = status
	req.UpdatedAt = time.Now().UTC()

	s.log.Info().
		Int64("request_id", req.ID).
		Int64("course_id", req.CourseID).
		Int64("student_id", req.StudentID).
		Str("status", string(status)).
		Msg("enrollment request reviewed")
	return req
}

func (s *InstructorService) ListAssessments(ctx context.Context, instructorID int64, ref ports.AssessmentRef) ([]*domain.Assessment, error) {
	if _, err := taughtCourse(ctx, s.st.Courses, instructorID, ref.CourseID); err != nil {
		return nil, err
	}
	return s.st.Assessments.ListByCourse(ctx, ref.CourseID, ref.Kind)
}

func (s *InstructorService) GetAssessment(ctx context.Context, instructorID int64, ref ports.AssessmentRef) (*domain.Assessment, error) {
	if _, err := taughtCourse(ctx, s.st.Courses, instructorID, ref.CourseID); err != nil {
		return nil, err
	}
	return courseAssessment(ctx, s.st.Assessments, ref)
}

// AddAssessment opens an assignment or exam now. It stays open until in.DueAt,
// or for domain.DefaultAssessmentWindow when no due time is given.
func (s *InstructorService) AddAssessment(ctx context.Context, instructorID int64, ref ports.AssessmentRef, in ports.AssessmentInput) (*domain.Assessment, error) {
	if !ref.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown assessment kind %q", domain.ErrInvalidInput, ref.Kind)
	}
	if _, err := taughtCourse(ctx, s.st.Courses, instructorID, ref.CourseID); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: %s title is required", domain.ErrInvalidInput, ref.Kind)
	}

	now := time.Now().UTC()
	due := now.Add(domain.DefaultAssessmentWindow)
	if in.DueAt != nil {
		due = in.DueAt.UTC()
	}
	if !due.After(now) {
		return nil, fmt.Errorf("%w: due_at must be in the future", domain.ErrInvalidInput)
	}

	created, err := s.st.Assessments.Create(ctx, &domain.Assessment{
		CourseID:  ref.CourseID,
		Kind:      ref.Kind,
		Title:     title,
		Content:   in.Content,
		StartsAt:  now,
		DueAt:     due,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("assessment_id", created.ID).
		Int64("course_id", ref.CourseID).
		Str("kind", string(ref.Kind)).
		Msg("assessment created")
	return created, nil
}

func (s *InstructorService) UpdateAssessment(ctx context.Context, instructorID int64, ref ports.AssessmentRef, in ports.AssessmentInput) (*domain.Assessment, error) {
	if _, err := taughtCourse(ctx, s.st.Courses, instructorID, ref.CourseID); err != nil {
		return nil, err
	}
	a, err := courseAssessment(ctx, s.st.Assessments, ref)
	if err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(in.Title); title != "" {
		a.Title = title
	}
	a.Content = in.Content
	if in.DueAt != nil {
		due := in.DueAt.UTC()
		if !due.After(a.StartsAt) {
			return nil, fmt.Errorf("%w: due_at must be after the assessment opened", domain.ErrInvalidInput)
		}
		a.DueAt = due
	}
	a.UpdatedAt = time.Now().UTC()

	if err := s.st.Assessments.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteAssessment drops the assessment and every answer filed for it.
func (s *InstructorService) DeleteAssessment(ctx context.Context, instructorID int64, ref ports.AssessmentRef) error {
	if _, err := taughtCourse(ctx, s.st.Courses, instructorID, ref.CourseID); err != nil {
		return err
	}
	if _, err := courseAssessment(ctx, s.st.Assessments, ref); err != nil {
		return err
	}
	if err := s.st.Submissions.DeleteByAssessment(ctx, ref.ID); err != nil {
		return fmt.Errorf("delete assessment submissions: %w", err)
	}
	return s.st.Assessments.Delete(ctx, ref.CourseID, ref.ID)
}

func (s *InstructorService) ListSubmissions(ctx context.Context, instructorID int64, ref ports.AssessmentRef) ([]*domain.Submission, error) {
	if _, err := taughtCourse(ctx, s.st.Courses, instructorID, ref.CourseID); err != nil {
		return nil, err
	}
	if _, err := courseAssessment(ctx, s.st.Assessments, ref); err != nil {
		return nil, err
	}
	return s.st.Submissions.ListByAssessment(ctx, ref.ID)
}

func (s *InstructorService) GradeSubmission(ctx context.Context, instructorID int64, ref ports.AssessmentRef, submissionID int64, score int) (*domain.Submission, error) {
	if !domain.ValidScore(score) {
		return nil, fmt.Errorf("%w: score must be between %d and %d", domain.ErrInvalidInput, domain.MinScore, domain.MaxScore)
	}
	sub, err := s.setScore(ctx, instructorID, ref, submissionID, &score)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("submission_id", sub.ID).
		Int64("assessment_id", ref.ID).
		Int64("student_id", sub.StudentID).
		Int("score", score).
		Msg("submission graded")
	return sub, nil
}

func (s *InstructorService) ClearGrade(ctx context.Context, instructorID int64, ref ports.AssessmentRef, submissionID int64) (*domain.Submission, error) {
	return s.setScore(ctx, instructorID, ref, submissionID, nil)
}

func (s *InstructorService) setScore(ctx context.Context, instructorID int64, ref ports.AssessmentRef, submissionID int64, score *int) (*domain.Submission, error) {
	if _, err := taughtCourse(ctx, s.st.Courses, instructorID, ref.CourseID); err != nil {
		return nil, err
	}
	if _, err := courseAssessment(ctx, s.st.Assessments, ref); err != nil {
		return nil, err
	}
	return s.st.Submissions.SetScore(ctx, ref.ID, submissionID, score)
}
