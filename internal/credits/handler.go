package credits

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/collabhub/backend/internal/middleware"
	"github.com/collabhub/backend/internal/models"
)

// Handler serves the credit endpoints: checkout, balance, history, refund.
type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type checkoutRequest struct {
	Amount   json.Number `json:"amount"`
	Currency string      `json:"currency"`
}

// Checkout handles POST /api/v1/payments/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromCtx(r.Context())
	if id == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		http.Error(w, `{"error":"invalid amount"}`, http.StatusBadRequest)
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = "http://localhost:3000"
	}

	result, err := h.svc.CreateCheckoutSession(r.Context(), id.UserID, amount, currency,
		origin+"/dashboard/credits?success=true",
		origin+"/dashboard/credits?cancelled=true")
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrUnsupportedCurrency):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			h.log.Error("checkout session creation failed", "user_id", id.UserID, "error", err)
			http.Error(w, `{"error":"failed to create checkout session"}`, http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Balance handles GET /api/v1/credits/balance.
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromCtx(r.Context())
	if id == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	b, err := h.svc.GetUserBalance(r.Context(), id.UserID)
	if err != nil {
		h.log.Error("get balance failed", "user_id", id.UserID, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"balance":  b.Balance.StringFixed(2),
		"currency": b.Currency,
	})
}

// Transactions handles GET /api/v1/credits/transactions?limit=.
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromCtx(r.Context())
	if id == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, `{"error":"invalid limit"}`, http.StatusBadRequest)
			return
		}
		limit = n
	}
	list, err := h.svc.GetTransactionHistory(r.Context(), id.UserID, limit)
	if err != nil {
		h.log.Error("list transactions failed", "user_id", id.UserID, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*models.Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": list})
}

type refundRequest struct {
	Reason string `json:"reason"`
}

// Refund handles POST /api/v1/credits/transactions/{id}/refund.
func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromCtx(r.Context())
	if id == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	transactionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid transaction id"}`, http.StatusBadRequest)
		return
	}

	var req refundRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.svc.RefundTransaction(r.Context(), transactionID, req.Reason); err != nil {
		switch {
		case errors.Is(err, ErrTransactionNotFound):
			http.Error(w, `{"error":"transaction not found"}`, http.StatusNotFound)
		case errors.Is(err, ErrNotRefundable):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			h.log.Error("refund failed", "transaction_id", transactionID, "error", err)
			http.Error(w, `{"error":"refund failed"}`, http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refunded"})
}
