package payments

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// CheckoutSession is what the gateway returns for a newly created hosted
// checkout.
type CheckoutSession struct {
	SessionID       string
	CheckoutURL     string
	PaymentIntentID string
}

// SessionStatus is the retrieved state of an existing checkout session.
type SessionStatus struct {
	PaymentStatus string
	Metadata      map[string]string
}

// PaymentStatusPaid is the gateway's "the money actually moved" status.
const PaymentStatusPaid = "paid"

// StripeGateway talks to Stripe's hosted checkout, refund, and session APIs.
// All calls carry the request context and a bounded HTTP timeout.
type StripeGateway struct {
	api *client.API
}

const gatewayTimeout = 15 * time.Second

func NewStripeGateway(secretKey string) *StripeGateway {
	config := &stripe.BackendConfig{
		HTTPClient: &http.Client{Timeout: gatewayTimeout},
	}
	api := &client.API{}
	api.Init(secretKey, &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, config),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, config),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, config),
	})
	return &StripeGateway{api: api}
}

// CreateSession creates a hosted checkout session for a one-off credit
// purchase. amount is in major currency units; Stripe wants minor units.
func (g *StripeGateway) CreateSession(ctx context.Context, amount decimal.Decimal, currency, successURL, cancelURL string, metadata map[string]string) (*CheckoutSession, error) {
	unitAmount := amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String("Account Credits"),
						Description: stripe.String(fmt.Sprintf("Add %s %s to your account balance", amount.StringFixed(2), currency)),
					},
					UnitAmount: stripe.Int64(unitAmount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(cancelURL),
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, err
	}
	var paymentIntentID string
	if s.PaymentIntent != nil {
		paymentIntentID = s.PaymentIntent.ID
	}
	return &CheckoutSession{
		SessionID:       s.ID,
		CheckoutURL:     s.URL,
		PaymentIntentID: paymentIntentID,
	}, nil
}

// RetrieveSession fetches the payment status and metadata of a session.
func (g *StripeGateway) RetrieveSession(ctx context.Context, sessionID string) (*SessionStatus, error) {
	s, err := g.api.CheckoutSessions.Get(sessionID, &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, err
	}
	return &SessionStatus{
		PaymentStatus: string(s.PaymentStatus),
		Metadata:      s.Metadata,
	}, nil
}

// CreateRefund refunds the payment intent behind a completed purchase.
func (g *StripeGateway) CreateRefund(ctx context.Context, paymentIntentID string, metadata map[string]string) error {
	params := &stripe.RefundParams{
		Params:        stripe.Params{Context: ctx},
		PaymentIntent: stripe.String(paymentIntentID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	_, err := g.api.Refunds.New(params)
	return err
}
