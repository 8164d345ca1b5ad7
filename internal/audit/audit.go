// Package audit writes the append-only audit_log. Audit writes are a
// non-critical side effect: Record returns its error so callers (and tests)
// can observe failures, but callers log and carry on — an audit outage never
// fails the operation being audited.
package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Recorder struct {
	pool *pgxpool.Pool
}

func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

func (r *Recorder) Record(ctx context.Context, userID uuid.UUID, action string, details map[string]any) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_log (id, user_id, action, details)
		VALUES ($1, $2, $3, $4)
	`, uuid.New(), userID, action, details)
	return err
}
