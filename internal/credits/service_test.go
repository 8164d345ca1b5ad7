package credits

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/collabhub/backend/internal/models"
	"github.com/collabhub/backend/internal/payments"
)

// ---------------------------------------------------------------------------
// In-memory mocks for Store and Gateway.
// These let us test the real Service logic without a database. The mock
// mirrors the SQL semantics that matter: conditional status transitions and
// the balance-sufficiency check are atomic under one mutex, like the
// single-statement UPDATEs they stand in for.
// ---------------------------------------------------------------------------

// --- noopTx satisfies pgx.Tx for test use; only Commit/Rollback are called. ---

type noopTx struct{}

func (noopTx) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }
func (noopTx) Commit(context.Context) error          { return nil }
func (noopTx) Rollback(context.Context) error        { return nil }
func (noopTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (noopTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (noopTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (noopTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (noopTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (noopTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (noopTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (noopTx) Conn() *pgx.Conn { return nil }

// --- mockStore ---

type mockStore struct {
	mu           sync.Mutex
	transactions map[uuid.UUID]*models.Transaction
	balances     map[uuid.UUID]decimal.Decimal
	currencies   map[uuid.UUID]string
	budgets      map[uuid.UUID]decimal.Decimal
}

func newMockStore() *mockStore {
	return &mockStore{
		transactions: make(map[uuid.UUID]*models.Transaction),
		balances:     make(map[uuid.UUID]decimal.Decimal),
		currencies:   make(map[uuid.UUID]string),
		budgets:      make(map[uuid.UUID]decimal.Decimal),
	}
}

func (m *mockStore) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }

func (m *mockStore) InsertTransaction(_ context.Context, t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.transactions[t.ID] = &cp
	return nil
}

func (m *mockStore) InsertTransactionTx(ctx context.Context, _ pgx.Tx, t *models.Transaction) error {
	return m.InsertTransaction(ctx, t)
}

func (m *mockStore) SetGatewayRefs(_ context.Context, id uuid.UUID, sessionID, paymentIntentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return fmt.Errorf("transaction %s not found", id)
	}
	t.StripeSessionID = &sessionID
	if paymentIntentID != "" {
		t.StripePaymentIntentID = &paymentIntentID
	}
	return nil
}

func (m *mockStore) MarkCompleted(_ context.Context, _ pgx.Tx, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok || t.Status != models.TxStatusPending {
		return false, nil
	}
	t.Status = models.TxStatusCompleted
	now := time.Now()
	t.CompletedAt = &now
	return true, nil
}

func (m *mockStore) MarkRefunded(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if ok && t.Status == models.TxStatusCompleted {
		t.Status = models.TxStatusRefunded
	}
	return nil
}

func (m *mockStore) CreditBalance(_ context.Context, _ pgx.Tx, userID uuid.UUID, amount decimal.Decimal, currency string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.balances[userID]; !ok {
		m.currencies[userID] = currency
	}
	m.balances[userID] = m.balances[userID].Add(amount)
	return nil
}

func (m *mockStore) DebitBalance(_ context.Context, _ pgx.Tx, userID uuid.UUID, amount decimal.Decimal) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bal, ok := m.balances[userID]
	if !ok || bal.LessThan(amount) {
		return false, nil
	}
	m.balances[userID] = bal.Sub(amount)
	return true, nil
}

func (m *mockStore) GetBalance(_ context.Context, userID uuid.UUID) (*models.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bal, ok := m.balances[userID]
	if !ok {
		return nil, nil
	}
	return &models.Balance{UserID: userID, Balance: bal, Currency: m.currencies[userID]}, nil
}

func (m *mockStore) AddProjectBudget(_ context.Context, _ pgx.Tx, projectID uuid.UUID, amount decimal.Decimal) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	budget, ok := m.budgets[projectID]
	if !ok {
		return false, nil
	}
	m.budgets[projectID] = budget.Add(amount)
	return true, nil
}

func (m *mockStore) GetByID(_ context.Context, id uuid.UUID) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (m *mockStore) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.Transaction
	for _, t := range m.transactions {
		if t.UserID == userID {
			cp := *t
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *mockStore) balance(userID uuid.UUID) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[userID]
}

func (m *mockStore) byType(txType string) []*models.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Transaction
	for _, t := range m.transactions {
		if t.Type == txType {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out
}

// --- mockGateway ---

type mockGateway struct {
	mu         sync.Mutex
	sessions   map[string]*payments.SessionStatus
	refunds    []string
	createErr  error
	nextID     int
	lastParams map[string]string
}

func newMockGateway() *mockGateway {
	return &mockGateway{sessions: make(map[string]*payments.SessionStatus)}
}

func (g *mockGateway) CreateSession(_ context.Context, _ decimal.Decimal, _, _, _ string, metadata map[string]string) (*payments.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.nextID++
	g.lastParams = metadata
	id := fmt.Sprintf("cs_test_%d", g.nextID)
	return &payments.CheckoutSession{
		SessionID:       id,
		CheckoutURL:     "https://checkout.stripe.com/pay/" + id,
		PaymentIntentID: fmt.Sprintf("pi_test_%d", g.nextID),
	}, nil
}

func (g *mockGateway) RetrieveSession(_ context.Context, sessionID string) (*payments.SessionStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	return s, nil
}

func (g *mockGateway) CreateRefund(_ context.Context, paymentIntentID string, _ map[string]string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunds = append(g.refunds, paymentIntentID)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func newTestService() (*Service, *mockStore, *mockGateway) {
	store := newMockStore()
	gateway := newMockGateway()
	return NewService(store, gateway, nil), store, gateway
}

// paidSession registers a paid session in the gateway mock carrying the
// metadata HandleSuccessfulPayment needs.
func paidSession(g *mockGateway, sessionID string, userID, transactionID uuid.UUID, amount, currency string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[sessionID] = &payments.SessionStatus{
		PaymentStatus: payments.PaymentStatusPaid,
		Metadata: map[string]string{
			"user_id":        userID.String(),
			"transaction_id": transactionID.String(),
			"amount":         amount,
			"currency":       currency,
		},
	}
}

// ---------------------------------------------------------------------------
// CreateCheckoutSession
// ---------------------------------------------------------------------------

func TestCreateCheckoutSession(t *testing.T) {
	svc, store, gateway := newTestService()
	user := uuid.New()
	ctx := context.Background()

	result, err := svc.CreateCheckoutSession(ctx, user, dec(t, "25.00"), "usd", "https://app/success", "https://app/cancel")
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}
	if result.CheckoutURL == "" || result.SessionID == "" {
		t.Error("expected session id and checkout url")
	}

	// A pending purchase transaction exists with the gateway refs persisted.
	purchases := store.byType(models.TxTypeCreditPurchase)
	if len(purchases) != 1 {
		t.Fatalf("purchase transactions: got %d, want 1", len(purchases))
	}
	p := purchases[0]
	if p.Status != models.TxStatusPending {
		t.Errorf("status: got %q, want pending", p.Status)
	}
	if p.CompletedAt != nil {
		t.Error("pending transaction must have nil completed_at")
	}
	if p.StripeSessionID == nil || *p.StripeSessionID != result.SessionID {
		t.Error("stripe session id not persisted on transaction")
	}

	// The session metadata must carry the transaction id for the webhook.
	if gateway.lastParams["transaction_id"] != p.ID.String() {
		t.Errorf("session metadata transaction_id: got %q, want %q", gateway.lastParams["transaction_id"], p.ID)
	}

	// No balance moved.
	if !store.balance(user).IsZero() {
		t.Error("checkout must not touch the balance")
	}
}

func TestCreateCheckoutSession_Validation(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	user := uuid.New()

	if _, err := svc.CreateCheckoutSession(ctx, user, dec(t, "0"), "usd", "s", "c"); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount: got %v, want ErrInvalidAmount", err)
	}
	if _, err := svc.CreateCheckoutSession(ctx, user, dec(t, "-5"), "usd", "s", "c"); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative amount: got %v, want ErrInvalidAmount", err)
	}
	if _, err := svc.CreateCheckoutSession(ctx, user, dec(t, "10"), "jpy", "s", "c"); !errors.Is(err, ErrUnsupportedCurrency) {
		t.Errorf("unsupported currency: got %v, want ErrUnsupportedCurrency", err)
	}
	if n := len(store.byType(models.TxTypeCreditPurchase)); n != 0 {
		t.Errorf("rejected requests must not persist transactions, found %d", n)
	}
}

func TestCreateCheckoutSession_GatewayError(t *testing.T) {
	svc, store, gateway := newTestService()
	gateway.createErr = errors.New("stripe is down")

	_, err := svc.CreateCheckoutSession(context.Background(), uuid.New(), dec(t, "10.00"), "usd", "s", "c")
	if !errors.Is(err, ErrPaymentGateway) {
		t.Fatalf("got %v, want ErrPaymentGateway", err)
	}

	// The pending transaction stays behind; it can never complete without a
	// webhook, so it is safe to leave.
	purchases := store.byType(models.TxTypeCreditPurchase)
	if len(purchases) != 1 || purchases[0].Status != models.TxStatusPending {
		t.Error("expected one pending transaction left after gateway failure")
	}
}

// ---------------------------------------------------------------------------
// HandleSuccessfulPayment
// ---------------------------------------------------------------------------

func TestHandleSuccessfulPayment_CreditsOnce(t *testing.T) {
	svc, store, gateway := newTestService()
	ctx := context.Background()
	user := uuid.New()

	result, err := svc.CreateCheckoutSession(ctx, user, dec(t, "25.00"), "usd", "s", "c")
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}
	paidSession(gateway, result.SessionID, user, result.TransactionID, "25.00", "usd")

	if err := svc.HandleSuccessfulPayment(ctx, result.SessionID); err != nil {
		t.Fatalf("HandleSuccessfulPayment: %v", err)
	}

	if got := store.balance(user); !got.Equal(dec(t, "25.00")) {
		t.Errorf("balance after first delivery: got %s, want 25.00", got)
	}

	tx, err := store.GetByID(ctx, result.TransactionID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if tx.Status != models.TxStatusCompleted {
		t.Errorf("status: got %q, want completed", tx.Status)
	}
	if tx.CompletedAt == nil {
		t.Error("completed transaction must have a completion timestamp")
	}

	// Webhook redelivery: exact same session, must be a no-op.
	if err := svc.HandleSuccessfulPayment(ctx, result.SessionID); err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if got := store.balance(user); !got.Equal(dec(t, "25.00")) {
		t.Errorf("balance after redelivery: got %s, want 25.00 (not 50.00)", got)
	}
}

func TestHandleSuccessfulPayment_Concurrent(t *testing.T) {
	svc, store, gateway := newTestService()
	ctx := context.Background()
	user := uuid.New()

	result, err := svc.CreateCheckoutSession(ctx, user, dec(t, "25.00"), "usd", "s", "c")
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}
	paidSession(gateway, result.SessionID, user, result.TransactionID, "25.00", "usd")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.HandleSuccessfulPayment(ctx, result.SessionID)
		}()
	}
	wg.Wait()

	if got := store.balance(user); !got.Equal(dec(t, "25.00")) {
		t.Errorf("balance after 10 concurrent deliveries: got %s, want 25.00", got)
	}
}

func TestHandleSuccessfulPayment_NotPaid(t *testing.T) {
	svc, store, gateway := newTestService()
	ctx := context.Background()
	user := uuid.New()

	result, err := svc.CreateCheckoutSession(ctx, user, dec(t, "10.00"), "usd", "s", "c")
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}
	gateway.mu.Lock()
	gateway.sessions[result.SessionID] = &payments.SessionStatus{
		PaymentStatus: "unpaid",
		Metadata:      map[string]string{"transaction_id": result.TransactionID.String()},
	}
	gateway.mu.Unlock()

	if err := svc.HandleSuccessfulPayment(ctx, result.SessionID); !errors.Is(err, payments.ErrPaymentNotCompleted) {
		t.Fatalf("got %v, want ErrPaymentNotCompleted", err)
	}

	tx, _ := store.GetByID(ctx, result.TransactionID)
	if tx.Status != models.TxStatusPending {
		t.Errorf("unpaid session must leave the transaction pending, got %q", tx.Status)
	}
	if !store.balance(user).IsZero() {
		t.Error("unpaid session must not credit the balance")
	}
}

// ---------------------------------------------------------------------------
// GetUserBalance
// ---------------------------------------------------------------------------

func TestGetUserBalance_AbsentIsZero(t *testing.T) {
	svc, _, _ := newTestService()
	b, err := svc.GetUserBalance(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetUserBalance: %v", err)
	}
	if !b.Balance.IsZero() {
		t.Errorf("absent balance: got %s, want 0", b.Balance)
	}
	if b.Currency != models.DefaultCurrency {
		t.Errorf("absent balance currency: got %q, want %q", b.Currency, models.DefaultCurrency)
	}
}

// ---------------------------------------------------------------------------
// AssignBudgetToProject
// ---------------------------------------------------------------------------

func seedBalance(store *mockStore, userID uuid.UUID, amount decimal.Decimal) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.balances[userID] = amount
	store.currencies[userID] = "usd"
}

func seedProject(store *mockStore, projectID uuid.UUID) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.budgets[projectID] = decimal.Zero
}

func TestAssignBudget_Success(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	user := uuid.New()
	project := uuid.New()
	seedBalance(store, user, dec(t, "100.00"))
	seedProject(store, project)

	txID, err := svc.AssignBudgetToProject(ctx, user, project, dec(t, "30.00"), "usd")
	if err != nil {
		t.Fatalf("AssignBudgetToProject: %v", err)
	}

	if got := store.balance(user); !got.Equal(dec(t, "70.00")) {
		t.Errorf("balance: got %s, want 70.00", got)
	}
	store.mu.Lock()
	budget := store.budgets[project]
	store.mu.Unlock()
	if !budget.Equal(dec(t, "30.00")) {
		t.Errorf("project budget: got %s, want 30.00", budget)
	}

	tx, err := store.GetByID(ctx, txID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if tx.Type != models.TxTypeBudgetAssignment || tx.Status != models.TxStatusCompleted {
		t.Errorf("transaction: got type=%q status=%q", tx.Type, tx.Status)
	}
	if tx.CompletedAt == nil {
		t.Error("completed transaction must have a completion timestamp")
	}
	if tx.ProjectID == nil || *tx.ProjectID != project {
		t.Error("transaction must link the project")
	}
}

func TestAssignBudget_InsufficientBalance(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	user := uuid.New()
	project := uuid.New()
	seedBalance(store, user, dec(t, "0.00"))
	seedProject(store, project)

	_, err := svc.AssignBudgetToProject(ctx, user, project, dec(t, "10.00"), "usd")
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("got %v, want ErrInsufficientBalance", err)
	}

	// No partial effects.
	if !store.balance(user).IsZero() {
		t.Error("balance must be unchanged")
	}
	if n := len(store.byType(models.TxTypeBudgetAssignment)); n != 0 {
		t.Errorf("no transaction may be recorded, found %d", n)
	}
	store.mu.Lock()
	budget := store.budgets[project]
	store.mu.Unlock()
	if !budget.IsZero() {
		t.Error("project budget must be unchanged")
	}
}

func TestAssignBudget_Concurrent(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	user := uuid.New()
	project := uuid.New()
	seedBalance(store, user, dec(t, "100.00"))
	seedProject(store, project)

	// 10 concurrent assignments of 30.00 against 100.00: exactly 3 can win.
	const n = 10
	amount := dec(t, "30.00")
	results := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AssignBudgetToProject(ctx, user, project, amount, "usd")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes, insufficient := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrInsufficientBalance):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 3 || insufficient != 7 {
		t.Errorf("got %d successes and %d insufficient, want 3 and 7", successes, insufficient)
	}
	if got := store.balance(user); !got.Equal(dec(t, "10.00")) {
		t.Errorf("final balance: got %s, want 10.00", got)
	}
}

func TestAssignBudget_ProjectNotFound(t *testing.T) {
	svc, store, _ := newTestService()
	user := uuid.New()
	seedBalance(store, user, dec(t, "50.00"))

	_, err := svc.AssignBudgetToProject(context.Background(), user, uuid.New(), dec(t, "10.00"), "usd")
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("got %v, want ErrProjectNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// RefundTransaction
// ---------------------------------------------------------------------------

func TestRefundTransaction(t *testing.T) {
	svc, store, gateway := newTestService()
	ctx := context.Background()
	user := uuid.New()

	// Complete a purchase first.
	result, err := svc.CreateCheckoutSession(ctx, user, dec(t, "25.00"), "usd", "s", "c")
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}
	paidSession(gateway, result.SessionID, user, result.TransactionID, "25.00", "usd")
	if err := svc.HandleSuccessfulPayment(ctx, result.SessionID); err != nil {
		t.Fatalf("HandleSuccessfulPayment: %v", err)
	}

	if err := svc.RefundTransaction(ctx, result.TransactionID, "duplicate charge"); err != nil {
		t.Fatalf("RefundTransaction: %v", err)
	}

	// Gateway asked to refund the payment intent.
	gateway.mu.Lock()
	refunds := len(gateway.refunds)
	gateway.mu.Unlock()
	if refunds != 1 {
		t.Errorf("gateway refunds: got %d, want 1", refunds)
	}

	// Original marked refunded; a credit_refund entry back-references it.
	original, _ := store.GetByID(ctx, result.TransactionID)
	if original.Status != models.TxStatusRefunded {
		t.Errorf("original status: got %q, want refunded", original.Status)
	}
	entries := store.byType(models.TxTypeCreditRefund)
	if len(entries) != 1 {
		t.Fatalf("credit_refund entries: got %d, want 1", len(entries))
	}
	if ref, _ := entries[0].Metadata["original_transaction_id"].(string); ref != result.TransactionID.String() {
		t.Errorf("refund back-reference: got %q, want %q", ref, result.TransactionID)
	}

	// Inherited behavior: the refunded purchase does not debit the balance.
	if got := store.balance(user); !got.Equal(dec(t, "25.00")) {
		t.Errorf("balance after refund: got %s, want 25.00", got)
	}

	// A refunded transaction cannot be refunded again.
	if err := svc.RefundTransaction(ctx, result.TransactionID, ""); !errors.Is(err, ErrNotRefundable) {
		t.Errorf("double refund: got %v, want ErrNotRefundable", err)
	}
}

func TestRefundTransaction_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	err := svc.RefundTransaction(context.Background(), uuid.New(), "")
	if !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("got %v, want ErrTransactionNotFound", err)
	}
}

func TestRefundTransaction_PendingNotEligible(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	user := uuid.New()

	result, err := svc.CreateCheckoutSession(ctx, user, dec(t, "10.00"), "usd", "s", "c")
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}
	if err := svc.RefundTransaction(ctx, result.TransactionID, ""); !errors.Is(err, ErrNotRefundable) {
		t.Fatalf("got %v, want ErrNotRefundable", err)
	}
	tx, _ := store.GetByID(ctx, result.TransactionID)
	if tx.Status != models.TxStatusPending {
		t.Errorf("status: got %q, want pending", tx.Status)
	}
}
