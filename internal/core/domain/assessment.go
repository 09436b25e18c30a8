package domain

import "time"

// AssessmentKind separates assignments from exams. Both share one lifecycle.
type AssessmentKind string

const (
	AssessmentAssignment AssessmentKind = "assignment"
	AssessmentExam       AssessmentKind = "exam"
)

// DefaultAssessmentWindow is how long an assessment stays open when no due
// time is given.
const DefaultAssessmentWindow = 48 * time.Hour

// Score bounds for a graded submission.
const (
	MinScore = 0
	MaxScore = 100
)

// Valid reports whether k is a declared kind.
func (k AssessmentKind) Valid() bool {
	return k == AssessmentAssignment || k == AssessmentExam
}

// Assessment is an assignment or exam attached to one course.
type Assessment struct {
	ID        int64          `json:"id"`
	CourseID  int64          `json:"course_id"`
	Kind      AssessmentKind `json:"kind"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	StartsAt  time.Time      `json:"starts_at"`
	DueAt     time.Time      `json:"due_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// OpenAt reports whether answers are still accepted at t.
func (a *Assessment) OpenAt(t time.Time) bool {
	return !t.Before(a.StartsAt) && !t.After(a.DueAt)
}

// SubmissionStatus is the grading state of a submission.
type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionGraded    SubmissionStatus = "graded"
)

// Submission is one student's answer to an assessment. A student has at most
// one submission per assessment; it can be replaced until it is graded.
type Submission struct {
	ID           int64            `json:"id"`
	AssessmentID int64            `json:"assessment_id"`
	CourseID     int64            `json:"course_id"`
	StudentID    int64            `json:"student_id"`
	Answer       string           `json:"answer"`
	Status       SubmissionStatus `json:"status"`
	Score        *int             `json:"score,omitempty"`
	SubmittedAt  time.Time        `json:"submitted_at"`
	GradedAt     *time.Time       `json:"graded_at,omitempty"`
}

// ValidScore reports whether score lies within the grading scale.
func ValidScore(score int) bool {
	return score >= MinScore && score <= MaxScore
}

// Rating bounds for a course review.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a student's rating of a course they are enrolled in. One review
// per student and course.
type Review struct {
	ID        int64     `json:"id"`
	CourseID  int64     `json:"course_id"`
	StudentID int64     `json:"student_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}
