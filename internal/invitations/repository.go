package invitations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/collabhub/backend/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert creates a pending invitation. The unique constraint on
// (project_id, invited_email) surfaces duplicates as a pg error 23505.
func (r *Repository) Insert(ctx context.Context, inv *models.Invitation) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO project_invitations (id, project_id, invited_email, role, invited_by, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, inv.ID, inv.ProjectID, inv.InvitedEmail, inv.Role, inv.InvitedBy, inv.Status, inv.ExpiresAt).Scan(&inv.CreatedAt)
}

// ListClaimable returns pending, unexpired invitations for an email. Expiry
// is enforced here at query time; the sweep only tidies stale rows.
func (r *Repository) ListClaimable(ctx context.Context, email string) ([]*models.Invitation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, invited_email, role, invited_by, status, created_at, expires_at, accepted_at, accepted_by
		FROM project_invitations
		WHERE invited_email = $1 AND status = $2 AND expires_at > now()
	`, email, models.InvitationPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvitations(rows)
}

// ListPendingByProject returns a project's open invitations, newest first.
func (r *Repository) ListPendingByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Invitation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, invited_email, role, invited_by, status, created_at, expires_at, accepted_at, accepted_by
		FROM project_invitations
		WHERE project_id = $1 AND status = $2 AND expires_at > now()
		ORDER BY created_at DESC
	`, projectID, models.InvitationPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvitations(rows)
}

// MarkAccepted finalizes a claim. Only pending rows transition.
func (r *Repository) MarkAccepted(ctx context.Context, id, acceptedBy uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE project_invitations
		SET status = $2, accepted_at = now(), accepted_by = $3
		WHERE id = $1 AND status = $4
	`, id, models.InvitationAccepted, acceptedBy, models.InvitationPending)
	return err
}

// DeletePending revokes an open invitation. Returns false when there was no
// pending row to revoke.
func (r *Repository) DeletePending(ctx context.Context, projectID, invitationID uuid.UUID) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM project_invitations
		WHERE id = $1 AND project_id = $2 AND status = $3
	`, invitationID, projectID, models.InvitationPending)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// ExpireOverdue marks pending invitations past their expiry as expired and
// returns how many rows changed.
func (r *Repository) ExpireOverdue(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE project_invitations SET status = $1
		WHERE status = $2 AND expires_at <= now()
	`, models.InvitationExpired, models.InvitationPending)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanInvitations(rows pgxRows) ([]*models.Invitation, error) {
	var list []*models.Invitation
	for rows.Next() {
		var inv models.Invitation
		if err := rows.Scan(&inv.ID, &inv.ProjectID, &inv.InvitedEmail, &inv.Role, &inv.InvitedBy,
			&inv.Status, &inv.CreatedAt, &inv.ExpiresAt, &inv.AcceptedAt, &inv.AcceptedBy); err != nil {
			return nil, err
		}
		list = append(list, &inv)
	}
	return list, rows.Err()
}

// NewExpiry returns the expiry timestamp for an invitation created now.
func NewExpiry() time.Time {
	return time.Now().Add(models.InvitationTTL)
}
