package credits

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/collabhub/backend/internal/models"
	"github.com/collabhub/backend/internal/payments"
)

// Service-level error taxonomy. Handlers translate these to HTTP statuses;
// none of them leaves partial ledger effects behind.
var (
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrProjectNotFound     = errors.New("project not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrNotRefundable       = errors.New("transaction is not eligible for refund")
	ErrPaymentGateway      = errors.New("payment gateway error")
)

// Store is the ledger persistence the service needs. *Repository implements
// it; tests substitute an in-memory version.
type Store interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	InsertTransaction(ctx context.Context, t *models.Transaction) error
	InsertTransactionTx(ctx context.Context, tx pgx.Tx, t *models.Transaction) error
	SetGatewayRefs(ctx context.Context, id uuid.UUID, sessionID, paymentIntentID string) error
	MarkCompleted(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
	MarkRefunded(ctx context.Context, id uuid.UUID) error
	CreditBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, currency string) error
	DebitBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) (bool, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (*models.Balance, error)
	AddProjectBudget(ctx context.Context, tx pgx.Tx, projectID uuid.UUID, amount decimal.Decimal) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Transaction, error)
}

// Gateway is the slice of the payment processor the service consumes.
type Gateway interface {
	CreateSession(ctx context.Context, amount decimal.Decimal, currency, successURL, cancelURL string, metadata map[string]string) (*payments.CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*payments.SessionStatus, error)
	CreateRefund(ctx context.Context, paymentIntentID string, metadata map[string]string) error
}

// Service orchestrates checkout, payment confirmation, balance reads and
// mutations, budget assignment, history, and refunds.
type Service struct {
	store   Store
	gateway Gateway
	log     *slog.Logger
}

func NewService(store Store, gateway Gateway, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, gateway: gateway, log: log}
}

// CheckoutResult is returned to the client for redirect to hosted checkout.
type CheckoutResult struct {
	SessionID     string    `json:"session_id"`
	CheckoutURL   string    `json:"checkout_url"`
	TransactionID uuid.UUID `json:"transaction_id"`
}

func validatePurchase(amount decimal.Decimal, currency string) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if !models.SupportedCurrencies[currency] {
		return fmt.Errorf("%w: %q", ErrUnsupportedCurrency, currency)
	}
	return nil
}

// CreateCheckoutSession records a pending purchase transaction and asks the
// gateway for a hosted checkout session carrying the transaction id in its
// metadata. A gateway failure leaves the transaction pending, which is safe:
// it can only complete through a matching webhook that will never arrive.
func (s *Service) CreateCheckoutSession(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, currency, successURL, cancelURL string) (*CheckoutResult, error) {
	if err := validatePurchase(amount, currency); err != nil {
		return nil, err
	}

	t := &models.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        models.TxTypeCreditPurchase,
		Status:      models.TxStatusPending,
		Amount:      amount,
		Currency:    currency,
		Description: fmt.Sprintf("Credit purchase: %s %s", amount.StringFixed(2), currency),
	}
	if err := s.store.InsertTransaction(ctx, t); err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateSession(ctx, amount, currency, successURL, cancelURL, map[string]string{
		"user_id":        userID.String(),
		"transaction_id": t.ID.String(),
		"amount":         amount.String(),
		"currency":       currency,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}

	if err := s.store.SetGatewayRefs(ctx, t.ID, session.SessionID, session.PaymentIntentID); err != nil {
		return nil, err
	}

	return &CheckoutResult{
		SessionID:     session.SessionID,
		CheckoutURL:   session.CheckoutURL,
		TransactionID: t.ID,
	}, nil
}

// HandleSuccessfulPayment finalizes a paid checkout session: the pending
// transaction is marked completed and the balance credited, atomically.
// Redelivery of the same session is a no-op because only pending
// transactions transition; the check-and-set happens inside one database
// transaction so two concurrent deliveries cannot both credit.
func (s *Service) HandleSuccessfulPayment(ctx context.Context, sessionID string) error {
	session, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	if session.PaymentStatus != payments.PaymentStatusPaid {
		return payments.ErrPaymentNotCompleted
	}

	transactionID, err := uuid.Parse(session.Metadata["transaction_id"])
	if err != nil {
		return fmt.Errorf("session %s metadata missing transaction_id: %w", sessionID, err)
	}
	userID, err := uuid.Parse(session.Metadata["user_id"])
	if err != nil {
		return fmt.Errorf("session %s metadata missing user_id: %w", sessionID, err)
	}
	amount, err := decimal.NewFromString(session.Metadata["amount"])
	if err != nil {
		return fmt.Errorf("session %s metadata has bad amount: %w", sessionID, err)
	}
	currency := session.Metadata["currency"]
	if currency == "" {
		currency = models.DefaultCurrency
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	completed, err := s.store.MarkCompleted(ctx, tx, transactionID)
	if err != nil {
		return err
	}
	if !completed {
		// Already confirmed by an earlier delivery.
		s.log.Info("payment already confirmed, skipping", "session_id", sessionID, "transaction_id", transactionID)
		return nil
	}
	if err := s.store.CreditBalance(ctx, tx, userID, amount, currency); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetUserBalance reports an absent balance row as zero.
func (s *Service) GetUserBalance(ctx context.Context, userID uuid.UUID) (*models.Balance, error) {
	b, err := s.store.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return &models.Balance{UserID: userID, Balance: decimal.Zero, Currency: models.DefaultCurrency}, nil
	}
	return b, nil
}

// AssignBudgetToProject moves amount from the user's balance to the project's
// running budget. The sufficiency check and the debit are the same
// conditional UPDATE, executed in the same database transaction as the
// ledger insert and budget increment, so concurrent assignments cannot
// jointly overdraw. Authorization (owner/admin) is the caller's concern.
func (s *Service) AssignBudgetToProject(ctx context.Context, fromUserID, projectID uuid.UUID, amount decimal.Decimal, currency string) (uuid.UUID, error) {
	if err := validatePurchase(amount, currency); err != nil {
		return uuid.Nil, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback(ctx)

	debited, err := s.store.DebitBalance(ctx, tx, fromUserID, amount)
	if err != nil {
		return uuid.Nil, err
	}
	if !debited {
		return uuid.Nil, ErrInsufficientBalance
	}

	now := time.Now()
	t := &models.Transaction{
		ID:          uuid.New(),
		UserID:      fromUserID,
		Type:        models.TxTypeBudgetAssignment,
		Status:      models.TxStatusCompleted,
		Amount:      amount,
		Currency:    currency,
		ProjectID:   &projectID,
		Description: "Budget assigned to project",
		CompletedAt: &now,
	}
	if err := s.store.InsertTransactionTx(ctx, tx, t); err != nil {
		return uuid.Nil, err
	}

	credited, err := s.store.AddProjectBudget(ctx, tx, projectID, amount)
	if err != nil {
		return uuid.Nil, err
	}
	if !credited {
		return uuid.Nil, ErrProjectNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, err
	}
	return t.ID, nil
}

const defaultHistoryLimit = 50

// GetTransactionHistory returns the user's transactions, newest first.
func (s *Service) GetTransactionHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Transaction, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.store.ListByUser(ctx, userID, limit)
}

// RefundTransaction reverses a completed transaction at the gateway, records
// a credit_refund entry with a back-reference, and marks the original
// refunded. The balance the original purchase credited is left untouched;
// see DESIGN.md for why this inherited behavior is preserved.
func (s *Service) RefundTransaction(ctx context.Context, transactionID uuid.UUID, reason string) error {
	t, err := s.store.GetByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTransactionNotFound
		}
		return err
	}
	if t.Status != models.TxStatusCompleted {
		return ErrNotRefundable
	}

	if reason == "" {
		reason = "User requested refund"
	}

	if t.StripePaymentIntentID != nil {
		err := s.gateway.CreateRefund(ctx, *t.StripePaymentIntentID, map[string]string{
			"original_transaction_id": transactionID.String(),
			"refund_reason":           reason,
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPaymentGateway, err)
		}
	}

	now := time.Now()
	refund := &models.Transaction{
		ID:          uuid.New(),
		UserID:      t.UserID,
		Type:        models.TxTypeCreditRefund,
		Status:      models.TxStatusCompleted,
		Amount:      t.Amount,
		Currency:    t.Currency,
		Description: fmt.Sprintf("Refund for transaction %s", transactionID),
		Metadata: map[string]any{
			"original_transaction_id": transactionID.String(),
			"refund_reason":           reason,
		},
		CompletedAt: &now,
	}
	if err := s.store.InsertTransaction(ctx, refund); err != nil {
		return err
	}

	return s.store.MarkRefunded(ctx, transactionID)
}
