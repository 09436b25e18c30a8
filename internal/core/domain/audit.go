package domain

import "time"

// AuthEventKind classifies an entry of the authentication audit trail.
type AuthEventKind string

const (
	AuthEventRegister     AuthEventKind = "register"
	AuthEventLoginSuccess AuthEventKind = "login_success"
	AuthEventLoginFailure AuthEventKind = "login_failure"
)

// AuthEvent records a single register or login attempt.
type AuthEvent struct {
	Kind       AuthEventKind
	Email      string
	RemoteIP   string
	UserAgent  string
	OccurredAt time.Time
}
