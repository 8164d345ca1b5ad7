package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit action kinds for security and privacy relevant events.
const (
	AuditInvitationCreated  = "invitation_created"
	AuditInvitationRevoked  = "invitation_revoked"
	AuditInvitationsClaimed = "invitations_claimed"
	AuditMemberRemoved      = "member_removed"
	AuditMemberRoleChanged  = "member_role_changed"
	AuditBudgetAssigned     = "budget_assigned"
)

// AuditEvent is an append-only audit_log row. Writes are best-effort: a
// failed audit insert never fails the operation that produced it.
type AuditEvent struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
