package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction type enums. Every balance change traces back to exactly one
// transaction row of one of these types.
const (
	TxTypeCreditPurchase   = "credit_purchase"
	TxTypeCreditRefund     = "credit_refund"
	TxTypeBudgetAssignment = "budget_assignment"
	TxTypeBudgetUsage      = "budget_usage"
	TxTypeBudgetWithdrawal = "budget_withdrawal"
)

// Transaction status enums. Transitions are monotonic:
// pending -> {completed, failed, cancelled}, completed -> refunded.
const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusFailed    = "failed"
	TxStatusCancelled = "cancelled"
	TxStatusRefunded  = "refunded"
)

// SupportedCurrencies is the set of currency codes checkout accepts.
var SupportedCurrencies = map[string]bool{
	"usd": true,
	"eur": true,
	"gbp": true,
}

// DefaultCurrency is used when a request omits the currency.
const DefaultCurrency = "usd"

// Balance is one row per user in user_credits. The amount never goes below
// zero and is only ever mutated relatively (+=/-=) inside a transaction.
type Balance struct {
	UserID    uuid.UUID       `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Transaction is an immutable append-only ledger record.
type Transaction struct {
	ID                    uuid.UUID       `json:"id"`
	UserID                uuid.UUID       `json:"user_id"`
	Type                  string          `json:"type"`
	Status                string          `json:"status"`
	Amount                decimal.Decimal `json:"amount"`
	Currency              string          `json:"currency"`
	ProjectID             *uuid.UUID      `json:"project_id,omitempty"`
	StripeSessionID       *string         `json:"stripe_session_id,omitempty"`
	StripePaymentIntentID *string         `json:"stripe_payment_intent_id,omitempty"`
	Description           string          `json:"description"`
	Metadata              map[string]any  `json:"metadata,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	CompletedAt           *time.Time      `json:"completed_at,omitempty"`
}
