package adapter

import (
	"context"
	"net/url"

	"membership-billing/internal/domain/model"
)

// Customer carries the contact fields forwarded to a gateway.
type Customer struct {
	Email    string
	FullName string
	Phone    string
	Country  string
	City     string
	Address  string
}

// PaymentRequest is the normalized input every gateway adapter consumes.
// Amounts are already in minor units; adapters never do currency math.
type PaymentRequest struct {
	Tier         string
	BillingCycle model.BillingCycle
	AmountMinor  int64
	Currency     string
	Reference    string
	Customer     Customer
}

// Directive is the gateway-specific continuation returned to the caller.
// Intent-style gateways fill ClientSecret/IntentID; redirect-style gateways
// fill PaymentURL/FormFields (the browser POSTs the fields to PaymentURL).
type Directive struct {
	Gateway   string
	Reference string

	ClientSecret string
	IntentID     string

	PaymentURL string
	FormFields map[string]string
}

// CallbackResult is a gateway callback normalized into the shape the
// orchestrator reconciles on.
type CallbackResult struct {
	Reference    string
	Succeeded    bool
	GatewayTxnID string
	Reason       string // decline/cancel reason when Succeeded is false
	Raw          []byte // original payload, preserved for the ledger
}

// PaymentGateway is the hex port for payment providers.
type PaymentGateway interface {
	Name() string

	// BuildDirective translates a payment request into the provider-specific
	// continuation. It has no side effect on our own store; persistence is
	// the orchestrator's job and happens only after this succeeds.
	BuildDirective(ctx context.Context, req PaymentRequest) (*Directive, error)

	// ParseCallback extracts the reference and outcome from a provider
	// callback. Providers differ on whether they deliver via query string or
	// body, so both are passed.
	ParseCallback(query url.Values, body []byte) (CallbackResult, error)
}
