package ports

import (
	"context"

	"github.com/darkr4m/5StarK9/internal/core/domain"
)

// AuditRepository persists audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
}

// AuditRecorder accepts audit events without blocking the request path.
type AuditRecorder interface {
	Record(event domain.AuditEvent)
}
