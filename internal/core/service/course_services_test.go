package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduacademy/academy-api/internal/core/domain"
	"github.com/eduacademy/academy-api/internal/core/ports"
	"github.com/eduacademy/academy-api/internal/infrastructure/db/memory"
)

const (
	instructorID    int64 = 10
	otherInstructor int64 = 11
	studentID       int64 = 20
)

type stubCache struct{ evicted []string }

func (c *stubCache) Get(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}
func (c *stubCache) Set(context.Context, *domain.User) error { return nil }
func (c *stubCache) Evict(_ context.Context, email string) error {
	c.evicted = append(c.evicted, email)
	return nil
}

type courseFixture struct {
	store      *memory.Store
	instructor *InstructorService
	student    *StudentService
	admin      *AdminService
	cache      *stubCache
}

func memoryStores(store *memory.Store) CourseStores {
	return CourseStores{
		Courses:     store.Courses(),
		Lessons:     store.Lessons(),
		Enrollments: store.Enrollments(),
		Assessments: store.Assessments(),
		Submissions: store.Submissions(),
		Reviews:     store.Reviews(),
		Users:       store.Users(),
	}
}

func newCourseFixture() *courseFixture {
	store := memory.New()
	cache := &stubCache{}
	log := zerolog.Nop()
	st := memoryStores(store)
	return &courseFixture{
		store:      store,
		instructor: NewInstructorService(st, log),
		student:    NewStudentService(st, log),
		admin:      NewAdminService(st, cache, log),
		cache:      cache,
	}
}

// enroll runs a request for studentID through approval.
func (f *courseFixture) enroll(t *testing.T, courseID, studentID int64) {
	t.Helper()
	ctx := context.Background()
	req, err := f.student.SendRequest(ctx, studentID, courseID)
	require.NoError(t, err)
	_, err = f.instructor.ApproveRequest(ctx, instructorID, req.ID)
	require.NoError(t, err)
}

// interleavedEnrollments runs before once, right ahead of the next status
// write, to simulate a competing request landing between read and write.
type interleavedEnrollments struct {
	ports.EnrollmentRepository
	before func()
}

func (r *interleavedEnrollments) UpdateStatus(ctx context.Context, id int64, from, to domain.EnrollmentStatus) error {
	if hook := r.before; hook != nil {
		r.before = nil
		hook()
	}
	return r.EnrollmentRepository.UpdateStatus(ctx, id, from, to)
}

type failingRoster struct {
	ports.CourseRepository
}

func (failingRoster) AddStudent(context.Context, int64, int64) error {
	return errors.New("roster unavailable")
}

// publishedCourse creates a course owned by instructorID and publishes it.
func (f *courseFixture) publishedCourse(t *testing.T) *domain.Course {
	t.Helper()
	ctx := context.Background()
	c, err := f.instructor.CreateCourse(ctx, instructorID, ports.CourseInput{Name: "Go 101", Description: "intro"})
	require.NoError(t, err)
	c, err = f.admin.PublishCourse(ctx, c.ID)
	require.NoError(t, err)
	return c
}

func TestInstructorService_CourseLifecycle(t *testing.T) {
	t.Parallel()
	f := newCourseFixture()
	ctx := context.Background()

	c, err := f.instructor.CreateCourse(ctx, instructorID, ports.CourseInput{Name: "  Go 101 "})
	require.NoError(t, err)
	assert.Equal(t, "Go 101", c.Name)
	assert.False(t, c.Published)
	assert.Equal(t, []int64{instructorID}, c.InstructorIDs)

	_, err = f.instructor.CreateCourse(ctx, instructorID, ports.CourseInput{Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	mine, err := f.instructor.ListCourses(ctx, instructorID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := f.instructor.ListCourses(ctx, otherInstructor)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	updated, err := f.instructor.UpdateCourse(ctx, instructorID, c.ID, ports.CourseInput{Name: "Go 102", Description: "next"})
	require.NoError(t, err)
	assert.Equal(t, "Go 102", updated.Name)

	_, err = f.instructor.UpdateCourse(ctx, otherInstructor, c.ID, ports.CourseInput{Name: "hijack"})
	assert.ErrorIs(t, err, domain.ErrNotCourseInstructor)

	_, err = f.instructor.GetCourse(ctx, instructorID, 999)
	assert.ErrorIs(t, err, domain.ErrCourseNotFound)

	require.NoError(t, f.instructor.DeleteCourse(ctx, instructorID, c.ID))
	_, err = f.instructor.GetCourse(ctx, instructorID, c.ID)
	assert.ErrorIs(t, err, domain.ErrCourseNotFound)
}

func TestInstructorService_Lessons(t *testing.T) {
	t.Parallel()
	f := newCourseFixture()
	ctx := context.Background()
	c := f.publishedCourse(t)

	l, err := f.instructor.AddLesson(ctx, instructorID, c.ID, ports.LessonInput{Title: "Types", Content: "int, string"})
	require.NoError(t, err)
	assert.Equal(t, c.ID, l.CourseID)

	_, err = f.instructor.AddLesson(ctx, otherInstructor, c.ID, ports.LessonInput{Title: "nope"})
	assert.ErrorIs(t, err, domain.ErrNotCourseInstructor)

	_, err = f.instructor.AddLesson(ctx, instructorID, c.ID, ports.LessonInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	updated, err := f.instructor.UpdateLesson(ctx, instructorID, c.ID, l.ID, ports.LessonInput{Title: "Types 2", Content: "more"})
	require.NoError(t, err)
	assert.Equal(t, "Types 2", updated.Title)

	_, err = f.instructor.UpdateLesson(ctx, instructorID, c.ID, 999, ports.LessonInput{Title: "x"})
	assert.ErrorIs(t, err, domain.ErrLessonNotFound)

	lessons, err := f.instructor.ListLessons(ctx, instructorID, c.ID)
	require.NoError(t, err)
	assert.Len(t, lessons, 1)

	require.NoError(t, f.instructor.DeleteLesson(ctx, instructorID, c.ID, l.ID))
	lessons, err = f.instructor.ListLessons(ctx, instructorID, c.ID)
	require.NoError(t, err)
	assert.Empty(t, lessons)
}

func TestEnrollmentFlow(t *testing.T) {
	t.Parallel()
	f := newCourseFixture()
	ctx := context.Background()
	c := f.publishedCourse(t)

	req, err := f.student.SendRequest(ctx, studentID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentPending, req.Status)

	_, err = f.student.SendRequest(ctx, studentID, c.ID)
	assert.ErrorIs(t, err, domain.ErrDuplicateRequest)

	_, err = f.student.ListEnrolledLessons(ctx, studentID, c.ID)
	assert.ErrorIs(t, err, domain.ErrNotEnrolled)

	_, err = f.instructor.ApproveRequest(ctx, otherInstructor, req.ID)
	assert.ErrorIs(t, err, domain.ErrNotCourseInstructor)

	approved, err := f.instructor.ApproveRequest(ctx, instructorID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentApproved, approved.Status)

	_, err = f.instructor.RejectRequest(ctx, instructorID, req.ID)
	assert.ErrorIs(t, err, domain.ErrRequestNotPending)

	enrolled, err := f.student.ListEnrolledCourses(ctx, studentID)
	require.NoError(t, err)
	require.Len(t, enrolled, 1)
	assert.Equal(t, c.ID, enrolled[0].ID)

	_, err = f.student.SendRequest(ctx, studentID, c.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyEnrolled)

	lessons, err := f.student.ListEnrolledLessons(ctx, studentID, c.ID)
	require.NoError(t, err)
	assert.Empty(t, lessons)

	requests, err := f.student.ListRequests(ctx, studentID)
	require.NoError(t, err)
	assert.Len(t, requests, 1)
}

func TestStudentService_CancelRequest(t *testing.T) {
	t.Parallel()
	f := newCourseFixture()
	ctx := context.Background()
	c := f.publishedCourse(t)

	_, err := f.student.CancelRequest(ctx, studentID, c.ID)
	assert.ErrorIs(t, err, domain.ErrRequestNotFound)

	_, err = f.student.SendRequest(ctx, studentID, c.ID)
	require.NoError(t, err)

	cancelled, err := f.student.CancelRequest(ctx, studentID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentCancelled, cancelled.Status)

	again, err := f.student.SendRequest(ctx, studentID, c.ID)
	require.NoError(t, err)
	assert.NotEqual(t, cancelled.ID, again.ID)
}

func TestApproveRequest_LosesToConcurrentCancel(t *testing.T) {
	t.Parallel()
	f := newCourseFixture()
	ctx := context.Background()
	c := f.publishedCourse(t)

	req, err := f.student.SendRequest(ctx, studentID, c.ID)
	require.NoError(t, err)

	st := memoryStores(f.store)
	st.Enrollments = &interleavedEnrollments{
		EnrollmentRepository: f.store.Enrollments(),
		before: func() {
			_, err := f.student.CancelRequest(ctx, studentID, c.ID)
			require.NoError(t, err)
		},
	}
	instructor := NewInstructorService(st, zerolog.Nop())

	_, err = instructor.ApproveRequest(ctx, instructorID, req.ID)
	assert.ErrorIs(t, err, domain.ErrRequestNotPending)

	stored, err := f.store.Enrollments().FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentCancelled, stored.Status)

	course, err := f.store.Courses().FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, course.HasStudent(studentID))
}

func TestCancelRequest_LosesToConcurrentReject(t *testing.T) {
	t.Parallel()
	f := newCourseFixture()
	ctx := context.Background()
	c := f.publishedCourse(t)

	req, err := f.student.SendRequest(ctx, studentID, c.ID)
	require.NoError(t, err)

	st := memoryStores(f.store)
	st.Enrollments = &interleavedEnrollments{
		EnrollmentRepository: f.store.Enrollments(),
		before: func() {
			_, err := f.instructor.RejectRequest(ctx, instructorID, req.ID)
			require.NoError(t, err)
		},
	}
	student := NewStudentService(st, zerolog.Nop())

	_, err = student.CancelRequest(ctx, studentID, c.ID)
	assert.ErrorIs(t, err, domain.ErrRequestNotPending)

	stored, err := f.store.Enrollments().FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentRejected, stored.Status)
}

func TestApproveRequest_ReopensWhenEnrollmentFails(t *testing.T) {
	t.Parallel()
	f := newCourseFixture()
	ctx := context.Background()
	c := f.publishedCourse(t)

	req, err := f.student.SendRequest(ctx, studentID, c.ID)
	require.NoError(t, err)

	st := memoryStores(f.store)
	st.Courses = failingRoster{CourseRepository: f.store.Courses()}
	instructor := NewInstructorService(st, zerolog.Nop())

	_, err = instructor.ApproveRequest(ctx, instructorID, req.ID)
	require.Error(t, err)

	stored, err := f.store.Enrollments().FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentPending, stored.Status)
}

func TestSendRequest_ConcurrentSendsKeepOnePending(t *testing.T) {
	t.Parallel()
	f := newCourseFixture()
	ctx := context.Background()
	c := f.publishedCourse(t)

	const senders = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		duplicate int
	)
	for range senders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.student.SendRequest(ctx, studentID, c.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, domain.ErrDuplicateRequest):
				duplicate++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, senders-1, duplicate)

	requests, err := f.student.ListRequests(ctx, studentID)
	require.NoError(t, err)
	assert.Len(t, requests, 1)
}

func TestStudentService_HiddenCoursesAreInvisible(t *testing.T) {
	t.Parallel()
	f := newCourseFixture()
	ctx := context.Background()

	hidden, err := f.instructor.CreateCourse(ctx, instructorID, ports.CourseInput{Name: "Draft"})
	require.NoError(t, err)
	visible := f.publishedCourse(t)

	_, err = f.student.GetPublishedCourse(ctx, hidden.ID)
	assert.ErrorIs(t, err, domain.ErrCourseNotFound)

	_, err = f.student.SendRequest(ctx, studentID, hidden.ID)
	assert.ErrorIs(t, err, domain.ErrCourseNotFound)

	courses, err := f.student.ListPublishedCourses(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, visible.ID, courses[0].ID)
}

func TestAdminService_PublishAndHide(t *testing.T) {
	t.Parallel()
	f := newCourseFixture()
	ctx := context.Background()
	c := f.publishedCourse(t)

	_, err := f.admin.PublishCourse(ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyPublished)

	hidden, err := f.admin.HideCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, hidden.Published)

	_, err = f.admin.HideCourse(ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyHidden)

	published := true
	list, err := f.admin.ListCourses(ctx, &published)
	require.NoError(t, err)
	assert.Empty(t, list)

	all, err := f.admin.ListCourses(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = f.admin.PublishCourse(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrCourseNotFound)

	require.NoError(t, f.admin.DeleteCourse(ctx, c.ID))
	_, err = f.admin.GetCourse(ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrCourseNotFound)
}

func TestAdminService_Users(t *testing.T) {
	t.Parallel()
	f := newCourseFixture()
	ctx := context.Background()
	users := f.store.Users()

	alice, err := users.Create(ctx, &domain.User{Username: "alice", Email: "alice@x.com", Role: domain.RoleStudent, PasswordHash: "h"})
	require.NoError(t, err)
	_, err = users.Create(ctx, &domain.User{Username: "ivan", Email: "ivan@x.com", Role: domain.RoleInstructor, PasswordHash: "h"})
	require.NoError(t, err)

	all, err := f.admin.ListUsers(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, u := range all {
		assert.Empty(t, u.PasswordHash)
	}

	instructors, err := f.admin.ListUsers(ctx, "instructor")
	require.NoError(t, err)
	require.Len(t, instructors, 1)
	assert.Equal(t, "ivan", instructors[0].Username)

	_, err = f.admin.ListUsers(ctx, "teacher")
	assert.ErrorIs(t, err, domain.ErrUnknownRole)

	got, err := f.admin.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, got.PasswordHash)

	require.NoError(t, f.admin.DeleteUser(ctx, alice.ID))
	assert.Equal(t, []string{"alice@x.com"}, f.cache.evicted)

	_, err = f.admin.GetUser(ctx, alice.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.ErrorIs(t, f.admin.DeleteUser(ctx, alice.ID), domain.ErrUserNotFound)
}
