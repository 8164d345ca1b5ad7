package models

import (
	"time"

	"github.com/google/uuid"
)

// Invitation statuses. pending -> accepted (claim), pending -> expired
// (sweep), pending -> gone (revoke). Nothing leaves accepted.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"
	InvitationExpired  = "expired"
)

// InvitationTTL is how long an invitation stays claimable.
const InvitationTTL = 7 * 24 * time.Hour

type Invitation struct {
	ID           uuid.UUID  `json:"id"`
	ProjectID    uuid.UUID  `json:"project_id"`
	InvitedEmail string     `json:"invited_email"`
	Role         string     `json:"role"`
	InvitedBy    uuid.UUID  `json:"invited_by"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	AcceptedAt   *time.Time `json:"accepted_at,omitempty"`
	AcceptedBy   *uuid.UUID `json:"accepted_by,omitempty"`
}
