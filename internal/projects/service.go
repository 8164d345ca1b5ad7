package projects

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/collabhub/backend/internal/models"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrForbidden       = errors.New("caller lacks owner or admin role")
	ErrMemberNotFound  = errors.New("member not found")
	ErrInvalidRole     = errors.New("invalid role")
)

// MembershipStore is the repository slice the service needs.
type MembershipStore interface {
	Create(ctx context.Context, p *models.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Project, error)
	GetMember(ctx context.Context, projectID, userID uuid.UUID) (*models.ProjectMember, error)
	ListMembers(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectMember, error)
	DeleteMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
	UpdateMemberRole(ctx context.Context, projectID, userID uuid.UUID, role string) (bool, error)
}

// AuditLog records security-relevant actions. Failures are logged by the
// caller and never propagated.
type AuditLog interface {
	Record(ctx context.Context, userID uuid.UUID, action string, details map[string]any) error
}

type Service struct {
	repo  MembershipStore
	audit AuditLog
	log   *slog.Logger
}

func NewService(repo MembershipStore, audit AuditLog, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, audit: audit, log: log}
}

func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, name, description string) (*models.Project, error) {
	p := &models.Project{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	p, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProjectNotFound
	}
	return p, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Project, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) Members(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectMember, error) {
	return s.repo.ListMembers(ctx, projectID)
}

// RoleOf resolves the caller's effective role in a project. The owner is not
// stored as a membership row; ownership comes from the project itself.
func (s *Service) RoleOf(ctx context.Context, projectID, userID uuid.UUID) (string, error) {
	p, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", ErrProjectNotFound
	}
	if p.OwnerID == userID {
		return models.RoleOwner, nil
	}
	m, err := s.repo.GetMember(ctx, projectID, userID)
	if err != nil {
		return "", err
	}
	if m == nil {
		return "", nil
	}
	return m.Role, nil
}

// AuthorizeManager is the capability check performed once at the API
// boundary: only owners and admins may assign budget, invite, revoke, or
// manage members.
func (s *Service) AuthorizeManager(ctx context.Context, projectID, userID uuid.UUID) error {
	role, err := s.RoleOf(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if role != models.RoleOwner && role != models.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

// RemoveMember deletes a membership row and records an audit event.
func (s *Service) RemoveMember(ctx context.Context, actorID, projectID, userID uuid.UUID) error {
	removed, err := s.repo.DeleteMember(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrMemberNotFound
	}
	if err := s.audit.Record(ctx, actorID, models.AuditMemberRemoved, map[string]any{
		"project_id": projectID.String(),
		"member_id":  userID.String(),
	}); err != nil {
		s.log.Warn("audit write failed", "action", models.AuditMemberRemoved, "error", err)
	}
	return nil
}

// ChangeMemberRole updates a member's role and records an audit event.
func (s *Service) ChangeMemberRole(ctx context.Context, actorID, projectID, userID uuid.UUID, role string) error {
	if !models.ValidInviteRole(role) {
		return ErrInvalidRole
	}
	updated, err := s.repo.UpdateMemberRole(ctx, projectID, userID, role)
	if err != nil {
		return err
	}
	if !updated {
		return ErrMemberNotFound
	}
	if err := s.audit.Record(ctx, actorID, models.AuditMemberRoleChanged, map[string]any{
		"project_id": projectID.String(),
		"member_id":  userID.String(),
		"new_role":   role,
	}); err != nil {
		s.log.Warn("audit write failed", "action", models.AuditMemberRoleChanged, "error", err)
	}
	return nil
}
