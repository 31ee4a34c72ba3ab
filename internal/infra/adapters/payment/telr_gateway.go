// File: internal/infra/adapters/payment/telr_gateway.go
package payment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"membership-billing/internal/domain"
	"membership-billing/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*TelrGateway)(nil)

// TelrGateway is the redirect-style adapter: it never calls Telr directly.
// It builds the signed form fields the customer's browser POSTs to the hosted
// payment page; Telr authenticates the request from the signature alone.
type TelrGateway struct {
	storeID    string
	authKey    string
	paymentURL string
	returnBase string // public base URL for return/cancel/decline links
}

func NewTelrGateway(storeID, authKey, paymentURL, returnBase string) (*TelrGateway, error) {
	if storeID == "" || authKey == "" {
		return nil, fmt.Errorf("%w: telr store_id/auth_key", domain.ErrGatewayConfig)
	}
	if paymentURL == "" {
		paymentURL = "https://secure.telr.com/gateway/order.json"
	}
	if _, err := url.Parse(returnBase); err != nil {
		return nil, fmt.Errorf("invalid return base url: %w", err)
	}
	return &TelrGateway{
		storeID:    storeID,
		authKey:    authKey,
		paymentURL: paymentURL,
		returnBase: strings.TrimRight(returnBase, "/"),
	}, nil
}

func (g *TelrGateway) Name() string { return "telr" }

// sign computes the request signature Telr verifies on its side:
// SHA-256 over "store:amountMinor:currency:cartReference:authKey", hex encoded.
// Field order and algorithm are an integration contract; do not change them.
func (g *TelrGateway) sign(amountMinor int64, currency, reference string) string {
	input := g.storeID + ":" + strconv.FormatInt(amountMinor, 10) + ":" + currency + ":" + reference + ":" + g.authKey
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

func (g *TelrGateway) BuildDirective(ctx context.Context, req adapter.PaymentRequest) (*adapter.Directive, error) {
	fields := map[string]string{
		"ivp_method":   "create",
		"ivp_store":    g.storeID,
		"ivp_cart":     req.Reference,
		"ivp_amount":   strconv.FormatInt(req.AmountMinor, 10),
		"ivp_currency": req.Currency,
		"ivp_desc":     fmt.Sprintf("%s membership (%s)", req.Tier, req.BillingCycle),
		"return_auth":  g.returnBase + "/payments/telr/return",
		"return_can":   g.returnBase + "/payments/telr/cancel",
		"return_decl":  g.returnBase + "/payments/telr/declined",
		"bill_fname":   req.Customer.FullName,
		"bill_email":   req.Customer.Email,
	}
	if req.Customer.Phone != "" {
		fields["bill_tel"] = req.Customer.Phone
	}
	if req.Customer.City != "" {
		fields["bill_city"] = req.Customer.City
	}
	if req.Customer.Country != "" {
		fields["bill_country"] = req.Customer.Country
	}
	if req.Customer.Address != "" {
		fields["bill_addr1"] = req.Customer.Address
	}
	fields["ivp_signature"] = g.sign(req.AmountMinor, req.Currency, req.Reference)

	return &adapter.Directive{
		Gateway:    g.Name(),
		Reference:  req.Reference,
		PaymentURL: g.paymentURL,
		FormFields: fields,
	}, nil
}

// telrCallback is the JSON body variant of the Telr completion callback.
type telrCallback struct {
	Reference string `json:"reference"`
	CartID    string `json:"cartid"`
	Status    string `json:"status"`
	TranRef   string `json:"tranref"`
	Message   string `json:"message"`
}

// ParseCallback accepts the hosted-page transaction advice. Telr delivers
// either query parameters (cartid/status/tranref) or a JSON body with the
// same fields.
func (g *TelrGateway) ParseCallback(query url.Values, body []byte) (adapter.CallbackResult, error) {
	cb := telrCallback{
		Reference: query.Get("reference"),
		CartID:    query.Get("cartid"),
		Status:    query.Get("status"),
		TranRef:   query.Get("tranref"),
		Message:   query.Get("message"),
	}
	if cb.Status == "" && len(body) > 0 {
		if err := json.Unmarshal(body, &cb); err != nil {
			return adapter.CallbackResult{}, fmt.Errorf("%w: malformed telr callback: %v", domain.ErrValidation, err)
		}
	}
	ref := cb.Reference
	if ref == "" {
		ref = cb.CartID
	}
	if ref == "" {
		return adapter.CallbackResult{}, fmt.Errorf("%w: telr callback missing cart reference", domain.ErrValidation)
	}
	if cb.Status == "" {
		return adapter.CallbackResult{}, fmt.Errorf("%w: telr callback missing status", domain.ErrValidation)
	}

	succeeded := false
	switch strings.ToLower(cb.Status) {
	case "a", "authorised", "authorized", "paid", "success":
		succeeded = true
	}
	reason := cb.Message
	if !succeeded && reason == "" {
		reason = fmt.Sprintf("telr status %s", cb.Status)
	}
	return adapter.CallbackResult{
		Reference:    ref,
		Succeeded:    succeeded,
		GatewayTxnID: cb.TranRef,
		Reason:       reason,
		Raw:          body,
	}, nil
}
