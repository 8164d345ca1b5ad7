package projects

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/collabhub/backend/internal/models"
)

// Repository owns project and membership rows.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, p *models.Project) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO projects (id, name, description, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING budget_amount, created_at, updated_at
	`, p.ID, p.Name, p.Description, p.OwnerID).Scan(&p.BudgetAmount, &p.CreatedAt, &p.UpdatedAt)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var p models.Project
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, owner_id, budget_amount, created_at, updated_at
		FROM projects WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.BudgetAmount, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByUser returns projects the user owns or belongs to, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Project, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT p.id, p.name, p.description, p.owner_id, p.budget_amount, p.created_at, p.updated_at
		FROM projects p
		LEFT JOIN project_members m ON m.project_id = p.id
		WHERE p.owner_id = $1 OR m.user_id = $1
		ORDER BY p.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.BudgetAmount, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// GetMember returns the membership row for (project, user), or nil.
func (r *Repository) GetMember(ctx context.Context, projectID, userID uuid.UUID) (*models.ProjectMember, error) {
	var m models.ProjectMember
	err := r.pool.QueryRow(ctx, `
		SELECT id, project_id, user_id, role, invited_by, joined_at
		FROM project_members WHERE project_id = $1 AND user_id = $2
	`, projectID, userID).Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Role, &m.InvitedBy, &m.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repository) ListMembers(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectMember, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, user_id, role, invited_by, joined_at
		FROM project_members WHERE project_id = $1 ORDER BY joined_at
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.ProjectMember
	for rows.Next() {
		var m models.ProjectMember
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Role, &m.InvitedBy, &m.JoinedAt); err != nil {
			return nil, err
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// InsertMember adds a membership row. The (project_id, user_id) conflict
// clause makes the claim flow safe to replay.
func (r *Repository) InsertMember(ctx context.Context, m *models.ProjectMember) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO project_members (id, project_id, user_id, role, invited_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (project_id, user_id) DO NOTHING
	`, m.ID, m.ProjectID, m.UserID, m.Role, m.InvitedBy)
	return err
}

// DeleteMember removes the (project, user) membership. Returns false when no
// such row existed.
func (r *Repository) DeleteMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM project_members WHERE project_id = $1 AND user_id = $2
	`, projectID, userID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// UpdateMemberRole changes an existing member's role. Returns false when the
// membership does not exist.
func (r *Repository) UpdateMemberRole(ctx context.Context, projectID, userID uuid.UUID, role string) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE project_members SET role = $3 WHERE project_id = $1 AND user_id = $2
	`, projectID, userID, role)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}
