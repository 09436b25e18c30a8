package domain

import "errors"

// Authentication and authorization.
var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrUnknownRole        = errors.New("unknown role")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateIdentity  = errors.New("email or username already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccessDenied       = errors.New("access denied")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrUserNotFound       = errors.New("user not found")
)

// Courses and enrollment.
var (
	ErrCourseNotFound      = errors.New("course not found")
	ErrLessonNotFound      = errors.New("lesson not found")
	ErrRequestNotFound     = errors.New("enrollment request not found")
	ErrNotCourseInstructor = errors.New("you are not an instructor of this course")
	ErrNotEnrolled         = errors.New("you are not enrolled in this course")
	ErrAlreadyEnrolled     = errors.New("already enrolled in this course")
	ErrDuplicateRequest    = errors.New("enrollment request already sent for this course")
	ErrRequestNotPending   = errors.New("enrollment request is not pending")
	ErrAlreadyPublished    = errors.New("course is already published")
	ErrAlreadyHidden       = errors.New("course is already hidden")
)

// Assessments and reviews.
var (
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAlreadyGraded      = errors.New("submission is already graded")
	ErrSubmissionClosed   = errors.New("assessment is not accepting answers")
	ErrReviewNotFound     = errors.New("review not found")
	ErrDuplicateReview    = errors.New("course already reviewed")
)
