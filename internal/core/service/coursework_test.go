package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduacademy/academy-api/internal/core/domain"
	"github.com/eduacademy/academy-api/internal/core/ports"
)

const otherStudent int64 = 21

func TestInstructorService_Assessments(t *testing.T) {
	t.Parallel()
	f := newCourseFixture()
	ctx := context.Background()
	c := f.publishedCourse(t)
	ref := ports.AssessmentRef{CourseID: c.ID, Kind: domain.AssessmentAssignment}

	before := time.Now().UTC()
	a, err := f.instructor.AddAssessment(ctx, instructorID, ref, ports.AssessmentInput{Title: " Essay ", Content: "500 words"})
	require.NoError(t, err)
	assert.Equal(t, "Essay", a.Title)
	assert.Equal(t, domain.AssessmentAssignment, a.Kind)
	assert.WithinDuration(t, before.Add(domain.DefaultAssessmentWindow), a.DueAt, 5*time.Second)

	_, err = f.instructor.AddAssessment(ctx, otherInstructor, ref, ports.AssessmentInput{Title: "x"})
	assert.ErrorIs(t, err, domain.ErrNotCourseInstructor)

	_, err = f.instructor.AddAssessment(ctx, instructorID, ref, ports.AssessmentInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	past := time.Now().Add(-time.Hour)
	_, err = f.instructor.AddAssessment(ctx, instructorID, ref, ports.AssessmentInput{Title: "late", DueAt: &past})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	examRef := ports.AssessmentRef{CourseID: c.ID, Kind: domain.AssessmentExam}
	exam, err := f.instructor.AddAssessment(ctx, instructorID, examRef, ports.AssessmentInput{Title: "Midterm"})
	require.NoError(t, err)

	assignments, err := f.instructor.ListAssessments(ctx, instructorID, ref)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, a.ID, assignments[0].ID)

	// An exam id is not reachable through the assignment routes.
	_, err = f.instructor.GetAssessment(ctx, instructorID, ports.AssessmentRef{CourseID: c.ID, Kind: domain.AssessmentAssignment, ID: exam.ID})
	assert.ErrorIs(t, err, domain.ErrAssessmentNotFound)

	due := time.Now().Add(72 * time.Hour).UTC()
	ref.ID = a.ID
	updated, err := f.instructor.UpdateAssessment(ctx, instructorID, ref, ports.AssessmentInput{Content: "1000 words", DueAt: &due})
	require.NoError(t, err)
	assert.Equal(t, "Essay", updated.Title)
	assert.Equal(t, "1000 words", updated.Content)
	assert.True(t, due.Equal(updated.DueAt))

	require.NoError(t, f.instructor.DeleteAssessment(ctx, instructorID, ref))
	_, err = f.instructor.GetAssessment(ctx, instructorID, ref)
	assert.ErrorIs(t, err, domain.ErrAssessmentNotFound)
}

func TestSubmissionAndGrading(t *testing.T) {
	t.Parallel()
	f := newCourseFixture()
	ctx := context.Background()
	c := f.publishedCourse(t)
	f.enroll(t, c.ID, studentID)

	a, err := f.instructor.AddAssessment(ctx, instructorID,
		ports.AssessmentRef{CourseID: c.ID, Kind: domain.AssessmentExam},
		ports.AssessmentInput{Title: "Final"})
	require.NoError(t, err)
	ref := ports.AssessmentRef{CourseID: c.ID, Kind: domain.AssessmentExam, ID: a.ID}

	_, err = f.student.SubmitAnswer(ctx, otherStudent, ref, "42")
	assert.ErrorIs(t, err, domain.ErrNotEnrolled)

	_, err = f.student.SubmitAnswer(ctx, studentID, ref, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	first, err := f.student.SubmitAnswer(ctx, studentID, ref, "41")
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionSubmitted, first.Status)

	second, err := f.student.SubmitAnswer(ctx, studentID, ref, "42")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "42", second.Answer)

	_, err = f.instructor.GradeSubmission(ctx, instructorID, ref, first.ID, 101)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.instructor.GradeSubmission(ctx, otherInstructor, ref, first.ID, 90)
	assert.ErrorIs(t, err, domain.ErrNotCourseInstructor)

	graded, err := f.instructor.GradeSubmission(ctx, instructorID, ref, first.ID, 90)
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionGraded, graded.Status)
	require.NotNil(t, graded.Score)
	assert.Equal(t, 90, *graded.Score)

	_, err = f.student.SubmitAnswer(ctx, studentID, ref, "43")
	assert.ErrorIs(t, err, domain.ErrAlreadyGraded)

	mine, err := f.student.GetSubmission(ctx, studentID, ref)
	require.NoError(t, err)
	assert.Equal(t, "42", mine.Answer)
	require.NotNil(t, mine.Score)
	assert.Equal(t, 90, *mine.Score)

	cleared, err := f.instructor.ClearGrade(ctx, instructorID, ref, first.ID)
	require.NoError(t, err)
	assert.Nil(t, cleared.Score)
	assert.Equal(t, domain.SubmissionSubmitted, cleared.Status)

	_, err = f.student.SubmitAnswer(ctx, studentID, ref, "43")
	require.NoError(t, err)

	all, err := f.instructor.ListSubmissions(ctx, instructorID, ref)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSubmitAnswer_ClosedAfterDue(t *testing.T) {
	t.Parallel()
	f := newCourseFixture()
	ctx := context.Background()
	c := f.publishedCourse(t)
	f.enroll(t, c.ID, studentID)

	a, err := f.instructor.AddAssessment(ctx, instructorID,
		ports.AssessmentRef{CourseID: c.ID, Kind: domain.AssessmentAssignment},
		ports.AssessmentInput{Title: "Quick"})
	require.NoError(t, err)

	// Move the due time into the past behind the service's back.
	a.DueAt = time.Now().Add(-time.Minute).UTC()
	require.NoError(t, f.store.Assessments().Update(ctx, a))

	_, err = f.student.SubmitAnswer(ctx, studentID, ports.AssessmentRef{CourseID: c.ID, Kind: domain.AssessmentAssignment, ID: a.ID}, "late")
	assert.ErrorIs(t, err, domain.ErrSubmissionClosed)
}

func TestReviews(t *testing.T) {
	t.Parallel()
	f := newCourseFixture()
	ctx := context.Background()
	c := f.publishedCourse(t)

	_, err := f.student.AddReview(ctx, studentID, c.ID, ports.ReviewInput{Rating: 5})
	assert.ErrorIs(t, err, domain.ErrNotEnrolled)

	f.enroll(t, c.ID, studentID)

	_, err = f.student.AddReview(ctx, studentID, c.ID, ports.ReviewInput{Rating: 6})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	rev, err := f.student.AddReview(ctx, studentID, c.ID, ports.ReviewInput{Rating: 4, Comment: " solid "})
	require.NoError(t, err)
	assert.Equal(t, "solid", rev.Comment)

	_, err = f.student.AddReview(ctx, studentID, c.ID, ports.ReviewInput{Rating: 3})
	assert.ErrorIs(t, err, domain.ErrDuplicateReview)

	edited, err := f.student.EditReview(ctx, studentID, c.ID, ports.ReviewInput{Rating: 5, Comment: "great"})
	require.NoError(t, err)
	assert.Equal(t, rev.ID, edited.ID)
	assert.Equal(t, 5, edited.Rating)

	public, err := f.student.ListCourseReviews(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "great", public[0].Comment)

	own, err := f.instructor.ListReviews(ctx, instructorID, c.ID)
	require.NoError(t, err)
	assert.Len(t, own, 1)

	require.NoError(t, f.student.DeleteReview(ctx, studentID, c.ID))
	assert.ErrorIs(t, f.student.DeleteReview(ctx, studentID, c.ID), domain.ErrReviewNotFound)
}

func TestRosterAndUnenroll(t *testing.T) {
	t.Parallel()
	f := newCourseFixture()
	ctx := context.Background()
	c := f.publishedCourse(t)

	alice, err := f.store.Users().Create(ctx, &domain.User{Username: "alice", Email: "alice@x.com", Role: domain.RoleStudent, PasswordHash: "h"})
	require.NoError(t, err)
	f.enroll(t, c.ID, alice.ID)

	roster, err := f.instructor.ListStudents(ctx, instructorID, c.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "alice", roster[0].Username)
	assert.Empty(t, roster[0].PasswordHash)

	got, err := f.instructor.GetStudent(ctx, instructorID, c.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = f.instructor.GetStudent(ctx, instructorID, c.ID, otherStudent)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = f.instructor.ListStudents(ctx, otherInstructor, c.ID)
	assert.ErrorIs(t, err, domain.ErrNotCourseInstructor)

	course, err := f.student.GetEnrolledCourse(ctx, alice.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, course.ID)

	require.NoError(t, f.student.Unenroll(ctx, alice.ID, c.ID))
	assert.ErrorIs(t, f.student.Unenroll(ctx, alice.ID, c.ID), domain.ErrNotEnrolled)

	_, err = f.student.GetEnrolledCourse(ctx, alice.ID, c.ID)
	assert.ErrorIs(t, err, domain.ErrNotEnrolled)

	roster, err = f.instructor.ListStudents(ctx, instructorID, c.ID)
	require.NoError(t, err)
	assert.Empty(t, roster)
}

func TestSingleReads_AreScoped(t *testing.T) {
	t.Parallel()
	f := newCourseFixture()
	ctx := context.Background()
	c := f.publishedCourse(t)
	other := f.publishedCourse(t)

	req, err := f.student.SendRequest(ctx, studentID, c.ID)
	require.NoError(t, err)

	got, err := f.instructor.GetRequest(ctx, instructorID, c.ID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, got.ID)

	_, err = f.instructor.GetRequest(ctx, instructorID, other.ID, req.ID)
	assert.ErrorIs(t, err, domain.ErrRequestNotFound)

	own, err := f.student.GetRequest(ctx, studentID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentPending, own.Status)

	_, err = f.student.GetRequest(ctx, otherStudent, req.ID)
	assert.ErrorIs(t, err, domain.ErrRequestNotFound)

	l, err := f.instructor.AddLesson(ctx, instructorID, c.ID, ports.LessonInput{Title: "Intro"})
	require.NoError(t, err)

	lesson, err := f.instructor.GetLesson(ctx, instructorID, c.ID, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Intro", lesson.Title)

	_, err = f.student.GetEnrolledLesson(ctx, studentID, c.ID, l.ID)
	assert.ErrorIs(t, err, domain.ErrNotEnrolled)

	_, err = f.instructor.ApproveRequest(ctx, instructorID, req.ID)
	require.NoError(t, err)

	lesson, err = f.student.GetEnrolledLesson(ctx, studentID, c.ID, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.ID, lesson.ID)

	_, err = f.student.GetEnrolledLesson(ctx, studentID, other.ID, l.ID)
	assert.ErrorIs(t, err, domain.ErrNotEnrolled)
}

func TestDeleteCourse_CascadesCourseWork(t *testing.T) {
	t.Parallel()
	f := newCourseFixture()
	ctx := context.Background()
	c := f.publishedCourse(t)
	f.enroll(t, c.ID, studentID)

	ref := ports.AssessmentRef{CourseID: c.ID, Kind: domain.AssessmentAssignment}
	a, err := f.instructor.AddAssessment(ctx, instructorID, ref, ports.AssessmentInput{Title: "HW"})
	require.NoError(t, err)
	ref.ID = a.ID
	_, err = f.student.SubmitAnswer(ctx, studentID, ref, "done")
	require.NoError(t, err)
	_, err = f.student.AddReview(ctx, studentID, c.ID, ports.ReviewInput{Rating: 4})
	require.NoError(t, err)

	require.NoError(t, f.admin.DeleteCourse(ctx, c.ID))

	left, err := f.store.Assessments().ListByCourse(ctx, c.ID, "")
	require.NoError(t, err)
	assert.Empty(t, left)

	subs, err := f.store.Submissions().ListByAssessment(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)

	reviews, err := f.store.Reviews().ListByCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, reviews)
}
