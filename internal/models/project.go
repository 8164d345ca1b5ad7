package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Membership roles, strongest first.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// ValidInviteRole reports whether role can be granted through an invitation.
// Ownership is never granted by invite.
func ValidInviteRole(role string) bool {
	return role == RoleAdmin || role == RoleMember || role == RoleViewer
}

type Project struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	OwnerID      uuid.UUID       `json:"owner_id"`
	BudgetAmount decimal.Decimal `json:"budget_amount"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ProjectMember is one (project, user) pair. The unique constraint on that
// pair is the membership invariant the claim flow relies on.
type ProjectMember struct {
	ID        uuid.UUID  `json:"id"`
	ProjectID uuid.UUID  `json:"project_id"`
	UserID    uuid.UUID  `json:"user_id"`
	Role      string     `json:"role"`
	InvitedBy *uuid.UUID `json:"invited_by,omitempty"`
	JoinedAt  time.Time  `json:"joined_at"`
}
