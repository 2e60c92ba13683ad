package domain

import "time"

// AuditAction names an account or client lifecycle step.
type AuditAction string

const (
	AuditRegistered    AuditAction = "registered"
	AuditAdminCreated  AuditAction = "admin_created"
	AuditLoginSuccess  AuditAction = "login_success"
	AuditLoginFailure  AuditAction = "login_failure"
	AuditLogout        AuditAction = "logout"
	AuditClientCreated AuditAction = "client_created"
	AuditClientUpdated AuditAction = "client_updated"
	AuditClientClosed  AuditAction = "client_deactivated"
)

// AuditEvent is an append-only record of something a caller did.
type AuditEvent struct {
	Action    AuditAction
	Email     string // subject account, or the actor for client actions
	ActorID   string // empty for anonymous callers
	SubjectID string
	Timestamp time.Time
	Details   map[string]string
}
