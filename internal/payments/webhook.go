package payments

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Stripe caps event payloads well below this; anything larger is not a
// legitimate webhook delivery.
const maxWebhookBody = 1 << 16

// EventVerifier checks a raw webhook payload against its signature header and
// returns the decoded event.
type EventVerifier interface {
	Verify(payload []byte, sigHeader string) (stripe.Event, error)
}

type stripeVerifier struct {
	secret string
}

func (v stripeVerifier) Verify(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, v.secret)
}

// PaymentConfirmer finalizes a paid checkout session: marks the pending
// transaction completed and credits the balance.
type PaymentConfirmer interface {
	HandleSuccessfulPayment(ctx context.Context, sessionID string) error
}

// ErrPaymentNotCompleted is returned by the confirmer when the retrieved
// session does not report a paid status. The receiver logs and acknowledges;
// the transaction stays pending for a later delivery.
var ErrPaymentNotCompleted = errors.New("payment not completed")

// WebhookHandler receives Stripe events. Signature failures are rejected with
// 400 before anything is processed; recognized but unhandled kinds are logged
// and acknowledged so Stripe stops retrying them.
type WebhookHandler struct {
	verifier EventVerifier
	credits  PaymentConfirmer
	log      *slog.Logger
}

func NewWebhookHandler(webhookSecret string, credits PaymentConfirmer, log *slog.Logger) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{
		verifier: stripeVerifier{secret: webhookSecret},
		credits:  credits,
		log:      log,
	}
}

// NewWebhookHandlerWithVerifier is used by tests to substitute signature
// verification.
func NewWebhookHandlerWithVerifier(verifier EventVerifier, credits PaymentConfirmer, log *slog.Logger) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{verifier: verifier, credits: credits, log: log}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, `{"error":"failed to read body"}`, http.StatusBadRequest)
		return
	}

	event, err := h.verifier.Verify(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.log.Warn("webhook signature verification failed", "error", err)
		http.Error(w, `{"error":"invalid signature"}`, http.StatusBadRequest)
		return
	}

	switch string(event.Type) {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			h.log.Error("webhook: bad checkout.session payload", "error", err)
			http.Error(w, `{"error":"malformed event payload"}`, http.StatusBadRequest)
			return
		}
		if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			h.log.Info("webhook: checkout completed but not paid", "session_id", session.ID, "payment_status", session.PaymentStatus)
			break
		}
		if err := h.credits.HandleSuccessfulPayment(r.Context(), session.ID); err != nil {
			if errors.Is(err, ErrPaymentNotCompleted) {
				h.log.Warn("webhook: session not paid on retrieval", "session_id", session.ID)
				break
			}
			// Processing failed after a valid signature. 500 so Stripe
			// redelivers; confirmation is idempotent under retry.
			h.log.Error("webhook: payment confirmation failed", "session_id", session.ID, "error", err)
			http.Error(w, `{"error":"webhook processing failed"}`, http.StatusInternalServerError)
			return
		}
		h.log.Info("webhook: payment confirmed", "session_id", session.ID)

	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err == nil {
			h.log.Info("webhook: payment failed", "payment_intent_id", intent.ID)
		}

	case "charge.dispute.created":
		var dispute stripe.Dispute
		if err := json.Unmarshal(event.Data.Raw, &dispute); err == nil {
			h.log.Warn("webhook: dispute opened", "dispute_id", dispute.ID)
		}

	default:
		h.log.Debug("webhook: unhandled event type", "type", event.Type)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"received":true}`))
}
