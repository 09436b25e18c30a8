package domain

import (
	"slices"
	"time"
)

// Course is the single owner of its instructor and student membership lists.
// "Courses of a user" is always answered by querying courses.
type Course struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Published     bool      `json:"published"`
	InstructorIDs []int64   `json:"instructor_ids"`
	StudentIDs    []int64   `json:"student_ids"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasInstructor reports whether userID teaches the course.
func (c *Course) HasInstructor(userID int64) bool {
	return slices.Contains(c.InstructorIDs, userID)
}

// HasStudent reports whether userID is enrolled in the course.
func (c *Course) HasStudent(userID int64) bool {
	return slices.Contains(c.StudentIDs, userID)
}

// Lesson belongs to exactly one course.
type Lesson struct {
	ID        int64     `json:"id"`
	CourseID  int64     `json:"course_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EnrollmentStatus is the lifecycle state of an enrollment request.
type EnrollmentStatus string

const (
	EnrollmentPending   EnrollmentStatus = "pending"
	EnrollmentApproved  EnrollmentStatus = "approved"
	EnrollmentRejected  EnrollmentStatus = "rejected"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
)

// enrollmentTransitions lists the allowed moves out of each state. Terminal
// states have no entry.
var enrollmentTransitions = map[EnrollmentStatus][]EnrollmentStatus{
	EnrollmentPending: {EnrollmentApproved, EnrollmentRejected, EnrollmentCancelled},
}

// CanTransitionTo reports whether a request in status s may move to next.
func (s EnrollmentStatus) CanTransitionTo(next EnrollmentStatus) bool {
	return slices.Contains(enrollmentTransitions[s], next)
}

// EnrollmentRequest is a student's request to join a course.
type EnrollmentRequest struct {
	ID        int64            `json:"id"`
	CourseID  int64            `json:"course_id"`
	StudentID int64            `json:"student_id"`
	Status    EnrollmentStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
