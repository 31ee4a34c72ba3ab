// File: internal/infra/adapters/payment/stripe_gateway.go
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"

	"membership-billing/internal/domain"
	"membership-billing/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*StripeGateway)(nil)

// StripeGateway is the intent-style adapter: it creates a PaymentIntent and
// hands the client secret back so the frontend can run 3-D-Secure style
// confirmation. The outcome arrives later through the confirm callback.
type StripeGateway struct {
	secretKey string
}

func NewStripeGateway(secretKey string) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("%w: stripe secret_key", domain.ErrGatewayConfig)
	}
	stripe.Key = secretKey
	return &StripeGateway{secretKey: secretKey}, nil
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) BuildDirective(ctx context.Context, req adapter.PaymentRequest) (*adapter.Directive, error) {
	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(req.AmountMinor),
		Currency:     stripe.String(strings.ToLower(req.Currency)),
		ReceiptEmail: stripe.String(req.Customer.Email),
		Description:  stripe.String(fmt.Sprintf("%s membership (%s)", req.Tier, req.BillingCycle)),
	}
	params.Context = ctx
	params.AddMetadata("reference", req.Reference)
	params.AddMetadata("tier", req.Tier)
	params.AddMetadata("billing_cycle", string(req.BillingCycle))

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: create payment intent: %v", domain.ErrUpstream, err)
	}
	return &adapter.Directive{
		Gateway:      g.Name(),
		Reference:    req.Reference,
		ClientSecret: pi.ClientSecret,
		IntentID:     pi.ID,
	}, nil
}

// stripeCallback is the confirm payload the frontend (or a webhook relay)
// PUTs after the intent settles.
type stripeCallback struct {
	Reference       string `json:"reference"`
	PaymentIntentID string `json:"paymentIntentId"`
	Status          string `json:"status"`
	Error           string `json:"error"`
}

func (g *StripeGateway) ParseCallback(query url.Values, body []byte) (adapter.CallbackResult, error) {
	var cb stripeCallback
	if len(body) > 0 {
		if err := json.Unmarshal(body, &cb); err != nil {
			return adapter.CallbackResult{}, fmt.Errorf("%w: malformed stripe callback: %v", domain.ErrValidation, err)
		}
	}
	if cb.Reference == "" {
		cb.Reference = query.Get("reference")
	}
	if cb.Reference == "" {
		return adapter.CallbackResult{}, fmt.Errorf("%w: stripe callback missing reference", domain.ErrValidation)
	}
	if cb.Status == "" {
		return adapter.CallbackResult{}, fmt.Errorf("%w: stripe callback missing status", domain.ErrValidation)
	}

	succeeded := cb.Status == "succeeded"
	reason := cb.Error
	if !succeeded && reason == "" {
		reason = fmt.Sprintf("stripe status %s", cb.Status)
	}
	return adapter.CallbackResult{
		Reference:    cb.Reference,
		Succeeded:    succeeded,
		GatewayTxnID: cb.PaymentIntentID,
		Reason:       reason,
		Raw:          body,
	}, nil
}
