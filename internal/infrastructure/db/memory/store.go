// Package memory provides process-local implementations of the repository
// ports. It backs STORE=memory for local runs and the HTTP tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/eduacademy/academy-api/internal/core/domain"
	"github.com/eduacademy/academy-api/internal/core/ports"
)

// Store keeps every collection behind one lock. The typed views returned by
// its accessors share that state.
type Store struct {
	mu          sync.RWMutex
	seq         map[string]int64
	users       map[int64]*domain.User
	courses     map[int64]*domain.Course
	lessons     map[int64]*domain.Lesson
	requests    map[int64]*domain.EnrollmentRequest
	assessments map[int64]*domain.Assessment
	submissions map[int64]*domain.Submission
	reviews     map[int64]*domain.Review
	events      []domain.AuthEvent
}

func New() *Store {
	return &Store{
		seq:         make(map[string]int64),
		users:       make(map[int64]*domain.User),
		courses:     make(map[int64]*domain.Course),
		lessons:     make(map[int64]*domain.Lesson),
		requests:    make(map[int64]*domain.EnrollmentRequest),
		assessments: make(map[int64]*domain.Assessment),
		submissions: make(map[int64]*domain.Submission),
		reviews:     make(map[int64]*domain.Review),
	}
}

func (s *Store) Users() *UserRepository             { return &UserRepository{s: s} }
func (s *Store) Courses() *CourseRepository         { return &CourseRepository{s: s} }
func (s *Store) Lessons() *LessonRepository         { return &LessonRepository{s: s} }
func (s *Store) Enrollments() *EnrollmentRepository { return &EnrollmentRepository{s: s} }
func (s *Store) Assessments() *AssessmentRepository { return &AssessmentRepository{s: s} }
func (s *Store) Submissions() *SubmissionRepository { return &SubmissionRepository{s: s} }
func (s *Store) Reviews() *ReviewRepository         { return &ReviewRepository{s: s} }
func (s *Store) Audit() *AuditRepository            { return &AuditRepository{s: s} }

// Ping always succeeds; it satisfies the readiness checker.
func (s *Store) Ping(context.Context) error { return nil }

// next must be called with mu held for writing.
func (s *Store) next(name string) int64 {
	s.seq[name]++
	return s.seq[name]
}

func cloneCourse(c *domain.Course) *domain.Course {
	out := *c
	out.InstructorIDs = slices.Clone(c.InstructorIDs)
	out.StudentIDs = slices.Clone(c.StudentIDs)
	return &out
}

// ── users ────────────────────────────────────────────────────────────────────

type UserRepository struct{ s *Store }

var (
	_ ports.AuthRepository = (*UserRepository)(nil)
	_ ports.UserRepository = (*UserRepository)(nil)
)

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return nil, domain.ErrDuplicateIdentity
		}
	}
	created := *user
	created.ID = r.s.next("users")
	r.s.users[created.ID] = &created
	out := created
	return &out, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *UserRepository) List(_ context.Context, role domain.Role) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if role != "" && u.Role != role {
			continue
		}
		clone := *u
		out = append(out, &clone)
	}
	slices.SortFunc(out, func(a, b *domain.User) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *UserRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.users, id)
	return nil
}

// ── courses ──────────────────────────────────────────────────────────────────

type CourseRepository struct{ s *Store }

var _ ports.CourseRepository = (*CourseRepository)(nil)

func (r *CourseRepository) Create(_ context.Context, c *domain.Course) (*domain.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	created := cloneCourse(c)
	created.ID = r.s.next("courses")
	r.s.courses[created.ID] = created
	return cloneCourse(created), nil
}

func (r *CourseRepository) FindByID(_ context.Context, id int64) (*domain.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.courses[id]
	if !ok {
		return nil, domain.ErrCourseNotFound
	}
	return cloneCourse(c), nil
}

func (r *CourseRepository) List(_ context.Context, f ports.CourseFilter) ([]*domain.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Course, 0)
	for _, c := range r.s.courses {
		if f.Published != nil && c.Published != *f.Published {
			continue
		}
		if f.InstructorID != 0 && !c.HasInstructor(f.InstructorID) {
			continue
		}
		if f.StudentID != 0 && !c.HasStudent(f.StudentID) {
			continue
		}
		out = append(out, cloneCourse(c))
	}
	slices.SortFunc(out, func(a, b *domain.Course) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *CourseRepository) Update(_ context.Context, c *domain.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.courses[c.ID]; !ok {
		return domain.ErrCourseNotFound
	}
	r.s.courses[c.ID] = cloneCourse(c)
	return nil
}

func (r *CourseRepository) AddStudent(_ context.Context, courseID, studentID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.courses[courseID]
	if !ok {
		return domain.ErrCourseNotFound
	}
	if !c.HasStudent(studentID) {
		c.StudentIDs = append(c.StudentIDs, studentID)
	}
	return nil
}

func (r *CourseRepository) RemoveStudent(_ context.Context, courseID, studentID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.courses[courseID]
	if !ok {
		return domain.ErrCourseNotFound
	}
	i := slices.Index(c.StudentIDs, studentID)
	if i < 0 {
		return domain.ErrNotEnrolled
	}
	c.StudentIDs = slices.Delete(c.StudentIDs, i, i+1)
	return nil
}

func (r *CourseRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.courses[id]; !ok {
		return domain.ErrCourseNotFound
	}
	delete(r.s.courses, id)
	return nil
}

// ── lessons ──────────────────────────────────────────────────────────────────

type LessonRepository struct{ s *Store }

var _ ports.LessonRepository = (*LessonRepository)(nil)

func (r *LessonRepository) Create(_ context.Context, l *domain.Lesson) (*domain.Lesson, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	created := *l
	created.ID = r.s.next("lessons")
	r.s.lessons[created.ID] = &created
	out := created
	return &out, nil
}

func (r *LessonRepository) FindByID(_ context.Context, courseID, lessonID int64) (*domain.Lesson, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.lessons[lessonID]
	if !ok || l.CourseID != courseID {
		return nil, domain.ErrLessonNotFound
	}
	out := *l
	return &out, nil
}

func (r *LessonRepository) ListByCourse(_ context.Context, courseID int64) ([]*domain.Lesson, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Lesson, 0)
	for _, l := range r.s.lessons {
		if l.CourseID == courseID {
			clone := *l
			out = append(out, &clone)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Lesson) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *LessonRepository) Update(_ context.Context, l *domain.Lesson) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.lessons[l.ID]
	if !ok || existing.CourseID != l.CourseID {
		return domain.ErrLessonNotFound
	}
	updated := *l
	r.s.lessons[l.ID] = &updated
	return nil
}

func (r *LessonRepository) Delete(_ context.Context, courseID, lessonID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.lessons[lessonID]
	if !ok || l.CourseID != courseID {
		return domain.ErrLessonNotFound
	}
	delete(r.s.lessons, lessonID)
	return nil
}

func (r *LessonRepository) DeleteByCourse(_ context.Context, courseID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, l := range r.s.lessons {
		if l.CourseID == courseID {
			delete(r.s.lessons, id)
		}
	}
	return nil
}

// ── enrollment requests ──────────────────────────────────────────────────────

type EnrollmentRepository struct{ s *Store }

var _ ports.EnrollmentRepository = (*EnrollmentRepository)(nil)

func (r *EnrollmentRepository) Create(_ context.Context, req *domain.EnrollmentRequest) (*domain.EnrollmentRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if req.Status == domain.EnrollmentPending {
		for _, existing := range r.s.requests {
			if existing.CourseID == req.CourseID && existing.StudentID == req.StudentID && existing.Status == domain.EnrollmentPending {
				return nil, domain.ErrDuplicateRequest
			}
		}
	}
	created := *req
	created.ID = r.s.next("enrollment_requests")
	r.s.requests[created.ID] = &created
	out := created
	return &out, nil
}

func (r *EnrollmentRepository) FindByID(_ context.Context, id int64) (*domain.EnrollmentRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	req, ok := r.s.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	out := *req
	return &out, nil
}

func (r *EnrollmentRepository) FindPending(_ context.Context, courseID, studentID int64) (*domain.EnrollmentRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, req := range r.s.requests {
		if req.CourseID == courseID && req.StudentID == studentID && req.Status == domain.EnrollmentPending {
			out := *req
			return &out, nil
		}
	}
	return nil, domain.ErrRequestNotFound
}

func (r *EnrollmentRepository) ListByCourse(_ context.Context, courseID int64) ([]*domain.EnrollmentRequest, error) {
	return r.list(func(req *domain.EnrollmentRequest) bool { return req.CourseID == courseID }), nil
}

func (r *EnrollmentRepository) ListByStudent(_ context.Context, studentID int64) ([]*domain.EnrollmentRequest, error) {
	return r.list(func(req *domain.EnrollmentRequest) bool { return req.StudentID == studentID }), nil
}

func (r *EnrollmentRepository) list(keep func(*domain.EnrollmentRequest) bool) []*domain.EnrollmentRequest {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.EnrollmentRequest, 0)
	for _, req := range r.s.requests {
		if keep(req) {
			clone := *req
			out = append(out, &clone)
		}
	}
	slices.SortFunc(out, func(a, b *domain.EnrollmentRequest) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (r *EnrollmentRepository) UpdateStatus(_ context.Context, id int64, from, to domain.EnrollmentStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.requests[id]
	if !ok {
		return domain.ErrRequestNotFound
	}
	if req.Status != from {
		return domain.ErrRequestNotPending
	}
	req.Status = to
	req.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *EnrollmentRepository) DeleteByCourse(_ context.Context, courseID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, req := range r.s.requests {
		if req.CourseID == courseID {
			delete(r.s.requests, id)
		}
	}
	return nil
}

// ── assessments ──────────────────────────────────────────────────────────────

type AssessmentRepository struct{ s *Store }

var _ ports.AssessmentRepository = (*AssessmentRepository)(nil)

func (r *AssessmentRepository) Create(_ context.Context, a *domain.Assessment) (*domain.Assessment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	created := *a
	created.ID = r.s.next("assessments")
	r.s.assessments[created.ID] = &created
	out := created
	return &out, nil
}

func (r *AssessmentRepository) FindByID(_ context.Context, courseID, id int64) (*domain.Assessment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.assessments[id]
	if !ok || a.CourseID != courseID {
		return nil, domain.ErrAssessmentNotFound
	}
	out := *a
	return &out, nil
}

func (r *AssessmentRepository) ListByCourse(_ context.Context, courseID int64, kind domain.AssessmentKind) ([]*domain.Assessment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Assessment, 0)
	for _, a := range r.s.assessments {
		if a.CourseID == courseID && (kind == "" || a.Kind == kind) {
			clone := *a
			out = append(out, &clone)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Assessment) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *AssessmentRepository) Update(_ context.Context, a *domain.Assessment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.assessments[a.ID]
	if !ok || existing.CourseID != a.CourseID {
		return domain.ErrAssessmentNotFound
	}
	updated := *a
	r.s.assessments[a.ID] = &updated
	return nil
}

func (r *AssessmentRepository) Delete(_ context.Context, courseID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.assessments[id]
	if !ok || a.CourseID != courseID {
		return domain.ErrAssessmentNotFound
	}
	delete(r.s.assessments, id)
	return nil
}

func (r *AssessmentRepository) DeleteByCourse(_ context.Context, courseID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, a := range r.s.assessments {
		if a.CourseID == courseID {
			delete(r.s.assessments, id)
		}
	}
	return nil
}

// ── submissions ──────────────────────────────────────────────────────────────

type SubmissionRepository struct{ s *Store }

var _ ports.SubmissionRepository = (*SubmissionRepository)(nil)

func cloneSubmission(sub *domain.Submission) *domain.Submission {
	out := *sub
	if sub.Score != nil {
		score := *sub.Score
		out.Score = &score
	}
	if sub.GradedAt != nil {
		at := *sub.GradedAt
		out.GradedAt = &at
	}
	return &out
}

func (r *SubmissionRepository) Submit(_ context.Context, sub *domain.Submission) (*domain.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.submissions {
		if existing.AssessmentID != sub.AssessmentID || existing.StudentID != sub.StudentID {
			continue
		}
		if existing.Status == domain.SubmissionGraded {
			return nil, domain.ErrAlreadyGraded
		}
		existing.Answer = sub.Answer
		existing.SubmittedAt = sub.SubmittedAt
		return cloneSubmission(existing), nil
	}

	created := cloneSubmission(sub)
	created.ID = r.s.next("submissions")
	created.Status = domain.SubmissionSubmitted
	created.Score = nil
	created.GradedAt = nil
	r.s.submissions[created.ID] = created
	return cloneSubmission(created), nil
}

func (r *SubmissionRepository) FindByID(_ context.Context, assessmentID, id int64) (*domain.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sub, ok := r.s.submissions[id]
	if !ok || sub.AssessmentID != assessmentID {
		return nil, domain.ErrSubmissionNotFound
	}
	return cloneSubmission(sub), nil
}

func (r *SubmissionRepository) FindByStudent(_ context.Context, assessmentID, studentID int64) (*domain.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, sub := range r.s.submissions {
		if sub.AssessmentID == assessmentID && sub.StudentID == studentID {
			return cloneSubmission(sub), nil
		}
	}
	return nil, domain.ErrSubmissionNotFound
}

func (r *SubmissionRepository) ListByAssessment(_ context.Context, assessmentID int64) ([]*domain.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Submission, 0)
	for _, sub := range r.s.submissions {
		if sub.AssessmentID == assessmentID {
			out = append(out, cloneSubmission(sub))
		}
	}
	slices.SortFunc(out, func(a, b *domain.Submission) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *SubmissionRepository) SetScore(_ context.Context, assessmentID, id int64, score *int) (*domain.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sub, ok := r.s.submissions[id]
	if !ok || sub.AssessmentID != assessmentID {
		return nil, domain.ErrSubmissionNotFound
	}
	if score == nil {
		sub.Score = nil
		sub.GradedAt = nil
		sub.Status = domain.SubmissionSubmitted
		return cloneSubmission(sub), nil
	}
	value := *score
	now := time.Now().UTC()
	sub.Score = &value
	sub.GradedAt = &now
	sub.Status = domain.SubmissionGraded
	return cloneSubmission(sub), nil
}

func (r *SubmissionRepository) DeleteByAssessment(_ context.Context, assessmentID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, sub := range r.s.submissions {
		if sub.AssessmentID == assessmentID {
			delete(r.s.submissions, id)
		}
	}
	return nil
}

func (r *SubmissionRepository) DeleteByCourse(_ context.Context, courseID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, sub := range r.s.submissions {
		if sub.CourseID == courseID {
			delete(r.s.submissions, id)
		}
	}
	return nil
}

// ── reviews ──────────────────────────────────────────────────────────────────

type ReviewRepository struct{ s *Store }

var _ ports.ReviewRepository = (*ReviewRepository)(nil)

func (r *ReviewRepository) Create(_ context.Context, rev *domain.Review) (*domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.reviews {
		if existing.CourseID == rev.CourseID && existing.StudentID == rev.StudentID {
			return nil, domain.ErrDuplicateReview
		}
	}
	created := *rev
	created.ID = r.s.next("reviews")
	r.s.reviews[created.ID] = &created
	out := created
	return &out, nil
}

func (r *ReviewRepository) FindByStudent(_ context.Context, courseID, studentID int64) (*domain.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, rev := range r.s.reviews {
		if rev.CourseID == courseID && rev.StudentID == studentID {
			out := *rev
			return &out, nil
		}
	}
	return nil, domain.ErrReviewNotFound
}

func (r *ReviewRepository) ListByCourse(_ context.Context, courseID int64) ([]*domain.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Review, 0)
	for _, rev := range r.s.reviews {
		if rev.CourseID == courseID {
			clone := *rev
			out = append(out, &clone)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Review) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *ReviewRepository) Update(_ context.Context, rev *domain.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.reviews[rev.ID]
	if !ok || existing.CourseID != rev.CourseID || existing.StudentID != rev.StudentID {
		return domain.ErrReviewNotFound
	}
	updated := *rev
	r.s.reviews[rev.ID] = &updated
	return nil
}

func (r *ReviewRepository) Delete(_ context.Context, courseID, studentID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, rev := range r.s.reviews {
		if rev.CourseID == courseID && rev.StudentID == studentID {
			delete(r.s.reviews, id)
			return nil
		}
	}
	return domain.ErrReviewNotFound
}

func (r *ReviewRepository) DeleteByCourse(_ context.Context, courseID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, rev := range r.s.reviews {
		if rev.CourseID == courseID {
			delete(r.s.reviews, id)
		}
	}
	return nil
}

// ── audit ────────────────────────────────────────────────────────────────────

type AuditRepository struct{ s *Store }

var _ ports.AuditRepository = (*AuditRepository)(nil)

func (r *AuditRepository) InsertAuthEvent(_ context.Context, event *domain.AuthEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.events = append(r.s.events, *event)
	return nil
}

// Events returns a copy of every stored audit event in insertion order.
func (r *AuditRepository) Events() []domain.AuthEvent {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return slices.Clone(r.s.events)
}
