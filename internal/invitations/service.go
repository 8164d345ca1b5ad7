package invitations

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/collabhub/backend/internal/models"
)

var (
	ErrDuplicateInvitation = errors.New("a pending invitation already exists for this email")
	ErrInvalidEmail        = errors.New("email is required")
	ErrInvalidRole         = errors.New("invalid role")
	ErrInvitationNotFound  = errors.New("invitation not found")
)

// InvitationStore is the repository slice the service needs.
type InvitationStore interface {
	Insert(ctx context.Context, inv *models.Invitation) error
	ListClaimable(ctx context.Context, email string) ([]*models.Invitation, error)
	ListPendingByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Invitation, error)
	MarkAccepted(ctx context.Context, id, acceptedBy uuid.UUID) error
	DeletePending(ctx context.Context, projectID, invitationID uuid.UUID) (bool, error)
}

// MembershipStore inserts membership rows during a claim and answers whether
// one already exists.
type MembershipStore interface {
	GetMember(ctx context.Context, projectID, userID uuid.UUID) (*models.ProjectMember, error)
	InsertMember(ctx context.Context, m *models.ProjectMember) error
}

// AuditLog records security-relevant actions best-effort.
type AuditLog interface {
	Record(ctx context.Context, userID uuid.UUID, action string, details map[string]any) error
}

type Service struct {
	repo    InvitationStore
	members MembershipStore
	audit   AuditLog
	log     *slog.Logger
}

func NewService(repo InvitationStore, members MembershipStore, audit AuditLog, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, members: members, audit: audit, log: log}
}

// InviteMember creates a pending invitation expiring seven days out. The
// caller has already been authorized as owner/admin at the API boundary.
func (s *Service) InviteMember(ctx context.Context, projectID uuid.UUID, email, role string, invitedBy uuid.UUID) (*models.Invitation, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, ErrInvalidEmail
	}
	if role == "" {
		role = models.RoleMember
	}
	if !models.ValidInviteRole(role) {
		return nil, ErrInvalidRole
	}

	inv := &models.Invitation{
		ID:           uuid.New(),
		ProjectID:    projectID,
		InvitedEmail: email,
		Role:         role,
		InvitedBy:    invitedBy,
		Status:       models.InvitationPending,
		ExpiresAt:    NewExpiry(),
	}
	if err := s.repo.Insert(ctx, inv); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateInvitation
		}
		return nil, err
	}

	if err := s.audit.Record(ctx, invitedBy, models.AuditInvitationCreated, map[string]any{
		"project_id":    projectID.String(),
		"invited_email": email,
		"role":          role,
	}); err != nil {
		s.log.Warn("audit write failed", "action", models.AuditInvitationCreated, "error", err)
	}
	return inv, nil
}

// ClaimPendingInvitations converts every pending, unexpired invitation for
// the email into a membership and marks it accepted. Each invitation is
// processed independently: one failure is logged and skipped so it cannot
// block the rest of the batch. Safe to call on every sign-in; a second call
// finds nothing pending and returns zero.
func (s *Service) ClaimPendingInvitations(ctx context.Context, userID uuid.UUID, email string) (int, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return 0, ErrInvalidEmail
	}

	pending, err := s.repo.ListClaimable(ctx, email)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	claimed := 0
	for _, inv := range pending {
		existing, err := s.members.GetMember(ctx, inv.ProjectID, userID)
		if err != nil {
			s.log.Error("claim: membership lookup failed", "invitation_id", inv.ID, "error", err)
			continue
		}
		if existing == nil {
			invitedBy := inv.InvitedBy
			member := &models.ProjectMember{
				ID:        uuid.New(),
				ProjectID: inv.ProjectID,
				UserID:    userID,
				Role:      inv.Role,
				InvitedBy: &invitedBy,
			}
			if err := s.members.InsertMember(ctx, member); err != nil {
				s.log.Error("claim: membership insert failed", "invitation_id", inv.ID, "error", err)
				continue
			}
		}
		// Accept even when the user already joined on their own, so the
		// invitation cannot be claimed again.
		if err := s.repo.MarkAccepted(ctx, inv.ID, userID); err != nil {
			s.log.Error("claim: mark accepted failed", "invitation_id", inv.ID, "error", err)
			continue
		}
		claimed++
	}

	if claimed > 0 {
		if err := s.audit.Record(ctx, userID, models.AuditInvitationsClaimed, map[string]any{
			"claimed_count": claimed,
			"email":         email,
		}); err != nil {
			s.log.Warn("audit write failed", "action", models.AuditInvitationsClaimed, "error", err)
		}
	}
	return claimed, nil
}

// ListPending returns a project's open invitations.
func (s *Service) ListPending(ctx context.Context, projectID uuid.UUID) ([]*models.Invitation, error) {
	return s.repo.ListPendingByProject(ctx, projectID)
}

// Revoke deletes a pending invitation. Accepted or expired invitations
// cannot be revoked.
func (s *Service) Revoke(ctx context.Context, actorID, projectID, invitationID uuid.UUID) error {
	deleted, err := s.repo.DeletePending(ctx, projectID, invitationID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrInvitationNotFound
	}
	if err := s.audit.Record(ctx, actorID, models.AuditInvitationRevoked, map[string]any{
		"project_id":    projectID.String(),
		"invitation_id": invitationID.String(),
	}); err != nil {
		s.log.Warn("audit write failed", "action", models.AuditInvitationRevoked, "error", err)
	}
	return nil
}
