package service

import (
	"context"
	"fmt"

	"github.com/eduacademy/academy-api/internal/core/domain"
	"github.com/eduacademy/academy-api/internal/core/ports"
)

// CourseStores bundles the repositories behind the course services.
type CourseStores struct {
	Courses     ports.CourseRepository
	Lessons     ports.LessonRepository
	Enrollments ports.EnrollmentRepository
	Assessments ports.AssessmentRepository
	Submissions ports.SubmissionRepository
	Reviews     ports.ReviewRepository
	Users       ports.UserRepository
}

// taughtCourse loads a course and checks that instructorID teaches it.
func taughtCourse(ctx context.Context, courses ports.CourseRepository, instructorID, courseID int64) (*domain.Course, error) {
	course, err := courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.HasInstructor(instructorID) {
		return nil, domain.ErrNotCourseInstructor
	}
	return course, nil
}

// enrolledCourse loads a course and checks that studentID is on its roster.
func enrolledCourse(ctx context.Context, courses ports.CourseRepository, studentID, courseID int64) (*domain.Course, error) {
	course, err := courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.HasStudent(studentID) {
		return nil, domain.ErrNotEnrolled
	}
	return course, nil
}

// courseAssessment loads the assessment ref points at. A kind mismatch reads
// as not found so an exam id cannot be used on the assignment routes.
func courseAssessment(ctx context.Context, assessments ports.AssessmentRepository, ref ports.AssessmentRef) (*domain.Assessment, error) {
	a, err := assessments.FindByID(ctx, ref.CourseID, ref.ID)
	if err != nil {
		return nil, err
	}
	if a.Kind != ref.Kind {
		return nil, domain.ErrAssessmentNotFound
	}
	return a, nil
}

// deleteCourseCascade removes everything hanging off a course before the
// course itself.
func deleteCourseCascade(ctx context.Context, st CourseStores, courseID int64) error {
	if err := st.Submissions.DeleteByCourse(ctx, courseID); err != nil {
		return fmt.Errorf("delete course submissions: %w", err)
	}
	if err := st.Assessments.DeleteByCourse(ctx, courseID); err != nil {
		return fmt.Errorf("delete course assessments: %w", err)
	}
	if err := st.Reviews.DeleteByCourse(ctx, courseID); err != nil {
		return fmt.Errorf("delete course reviews: %w", err)
	}
	if err := st.Lessons.DeleteByCourse(ctx, courseID); err != nil {
		return fmt.Errorf("delete course lessons: %w", err)
	}
	if err := st.Enrollments.DeleteByCourse(ctx, courseID); err != nil {
		return fmt.Errorf("delete course requests: %w", err)
	}
	return st.Courses.Delete(ctx, courseID)
}
