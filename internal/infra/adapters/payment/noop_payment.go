package payment

import (
	"context"
	"fmt"
	"net/url"

	"membership-billing/internal/domain"
	"membership-billing/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopGateway)(nil)

// NoopGateway is a dev/test gateway: every directive "succeeds" immediately
// and callbacks are driven by query parameters.
type NoopGateway struct{}

func NewNoopGateway() *NoopGateway { return &NoopGateway{} }

func (g *NoopGateway) Name() string { return "noop" }

func (g *NoopGateway) BuildDirective(ctx context.Context, req adapter.PaymentRequest) (*adapter.Directive, error) {
	return &adapter.Directive{
		Gateway:      g.Name(),
		Reference:    req.Reference,
		ClientSecret: "noop_secret_" + req.Reference,
		IntentID:     "noop_intent_" + req.Reference,
	}, nil
}

func (g *NoopGateway) ParseCallback(query url.Values, body []byte) (adapter.CallbackResult, error) {
	ref := query.Get("reference")
	if ref == "" {
		return adapter.CallbackResult{}, fmt.Errorf("%w: missing reference", domain.ErrValidation)
	}
	return adapter.CallbackResult{
		Reference: ref,
		Succeeded: query.Get("status") != "declined",
		Reason:    query.Get("reason"),
		Raw:       body,
	}, nil
}
