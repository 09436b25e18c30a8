package ports

import (
	"context"

	"github.com/eduacademy/academy-api/internal/core/domain"
)

// AuditRepository stores the authentication audit trail.
type AuditRepository interface {
	InsertAuthEvent(ctx context.Context, event *domain.AuthEvent) error
}

// AuditSink accepts audit events without blocking. It reports false when the
// event was dropped.
type AuditSink interface {
	Enqueue(event domain.AuthEvent) bool
}
