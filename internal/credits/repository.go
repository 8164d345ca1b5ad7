package credits

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/collabhub/backend/internal/models"
)

// Repository is the ledger store: user_credits balances, the append-only
// transactions table, and the running budget total on projects.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *Repository) InsertTransaction(ctx context.Context, t *models.Transaction) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO transactions (id, user_id, type, status, amount, currency, project_id, description, metadata, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, t.ID, t.UserID, t.Type, t.Status, t.Amount, t.Currency, t.ProjectID, t.Description, t.Metadata, t.CompletedAt).Scan(&t.CreatedAt)
}

// InsertTransactionTx inserts a ledger record inside the given transaction.
func (r *Repository) InsertTransactionTx(ctx context.Context, tx pgx.Tx, t *models.Transaction) error {
	return tx.QueryRow(ctx, `
		INSERT INTO transactions (id, user_id, type, status, amount, currency, project_id, description, metadata, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, t.ID, t.UserID, t.Type, t.Status, t.Amount, t.Currency, t.ProjectID, t.Description, t.Metadata, t.CompletedAt).Scan(&t.CreatedAt)
}

// SetGatewayRefs persists the external session and payment-intent ids after
// checkout-session creation.
func (r *Repository) SetGatewayRefs(ctx context.Context, id uuid.UUID, sessionID, paymentIntentID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE transactions SET stripe_session_id = $2, stripe_payment_intent_id = NULLIF($3, '')
		WHERE id = $1
	`, id, sessionID, paymentIntentID)
	return err
}

// MarkCompleted transitions a transaction out of pending. The status guard in
// the WHERE clause is the idempotency check: a redelivered webhook finds zero
// rows and touches nothing.
func (r *Repository) MarkCompleted(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	result, err := tx.Exec(ctx, `
		UPDATE transactions SET status = $2, completed_at = now()
		WHERE id = $1 AND status = $3
	`, id, models.TxStatusCompleted, models.TxStatusPending)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// MarkRefunded moves a completed transaction to refunded.
func (r *Repository) MarkRefunded(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE transactions SET status = $2
		WHERE id = $1 AND status = $3
	`, id, models.TxStatusRefunded, models.TxStatusCompleted)
	return err
}

// CreditBalance adds amount to the user's balance, creating the row on first
// purchase. Runs inside the caller's transaction.
func (r *Repository) CreditBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, currency string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO user_credits (user_id, balance, currency)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET balance = user_credits.balance + EXCLUDED.balance, updated_at = now()
	`, userID, amount, currency)
	return err
}

// DebitBalance atomically deducts amount if the balance covers it. The
// condition and the decrement are one statement, so two concurrent debits
// cannot both pass against a stale read.
func (r *Repository) DebitBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) (bool, error) {
	result, err := tx.Exec(ctx, `
		UPDATE user_credits SET balance = balance - $1, updated_at = now()
		WHERE user_id = $2 AND balance >= $1
	`, amount, userID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// GetBalance returns the user's balance row, or nil if none exists yet.
func (r *Repository) GetBalance(ctx context.Context, userID uuid.UUID) (*models.Balance, error) {
	var b models.Balance
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, balance, currency, updated_at
		FROM user_credits WHERE user_id = $1
	`, userID).Scan(&b.UserID, &b.Balance, &b.Currency, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// AddProjectBudget increments the project's running budget total inside the
// caller's transaction. Returns false when the project does not exist.
func (r *Repository) AddProjectBudget(ctx context.Context, tx pgx.Tx, projectID uuid.UUID, amount decimal.Decimal) (bool, error) {
	result, err := tx.Exec(ctx, `
		UPDATE projects SET budget_amount = budget_amount + $1, updated_at = now()
		WHERE id = $2
	`, amount, projectID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var t models.Transaction
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, type, status, amount, currency, project_id,
		       stripe_session_id, stripe_payment_intent_id, description, metadata,
		       created_at, completed_at
		FROM transactions WHERE id = $1
	`, id).Scan(&t.ID, &t.UserID, &t.Type, &t.Status, &t.Amount, &t.Currency, &t.ProjectID,
		&t.StripeSessionID, &t.StripePaymentIntentID, &t.Description, &t.Metadata,
		&t.CreatedAt, &t.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByUser returns the user's transactions, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, type, status, amount, currency, project_id,
		       stripe_session_id, stripe_payment_intent_id, description, metadata,
		       created_at, completed_at
		FROM transactions WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Status, &t.Amount, &t.Currency, &t.ProjectID,
			&t.StripeSessionID, &t.StripePaymentIntentID, &t.Description, &t.Metadata,
			&t.CreatedAt, &t.CompletedAt); err != nil {
			return nil, err
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}
