package model

import (
	"time"

	"membership-billing/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // redirected/handed to gateway; awaiting callback
	PaymentStatusCompleted PaymentStatus = "completed" // gateway confirmed capture
	PaymentStatusFailed    PaymentStatus = "failed"    // declined, cancelled, or expired
)

type SubscriptionStatus string

const (
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
	SubscriptionStatusActive   SubscriptionStatus = "active"
)

type Gateway string

const (
	GatewayStripe Gateway = "stripe"
	GatewayTelr   Gateway = "telr"
)

// ParseGateway validates the wire value for a gateway tag.
func ParseGateway(s string) (Gateway, error) {
	switch Gateway(s) {
	case GatewayStripe, GatewayTelr:
		return Gateway(s), nil
	}
	return "", domain.ErrValidation
}

// Subscription records one user's attempt to obtain a membership tier and
// the durable outcome of that attempt. The payment reference is issued once
// at initiation and is the key gateways echo back in callbacks.
type Subscription struct {
	ID       string // UUID
	UserID   string // optional external account id
	Email    string
	FullName string

	Tier         string
	BillingCycle BillingCycle

	AmountMinor          int64  // settlement currency (USD cents)
	AmountSecondaryMinor int64  // display currency (AED fils)
	Currency             string // settlement currency code

	Gateway          Gateway
	PaymentReference string

	PaymentStatus PaymentStatus
	Status        SubscriptionStatus

	ConfirmationEmailSent bool
	ConfirmationSentAt    *time.Time

	// Optional contact fields
	Phone        string
	Country      string
	City         string
	Address      string
	BusinessName string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Terminal reports whether the payment has reached a final state. Terminal
// subscriptions are never transitioned again; duplicate callbacks replay the
// stored outcome.
func (s *Subscription) Terminal() bool {
	return s.PaymentStatus == PaymentStatusCompleted || s.PaymentStatus == PaymentStatusFailed
}
