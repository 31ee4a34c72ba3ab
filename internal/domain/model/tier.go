package model

import (
	"time"

	"membership-billing/internal/domain"
)

type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleAnnual  BillingCycle = "annual"
)

// ParseBillingCycle validates the wire value for a billing cycle.
func ParseBillingCycle(s string) (BillingCycle, error) {
	switch BillingCycle(s) {
	case BillingCycleMonthly, BillingCycleAnnual:
		return BillingCycle(s), nil
	}
	return "", domain.ErrInvalidBillingCycle
}

// PricingTier is immutable reference data: a purchasable membership plan with
// fixed prices in USD (settlement) and AED (display), both in minor units.
// Exchange rates are baked into the table at seed time; nothing converts
// currency at request time.
type PricingTier struct {
	ID          string // UUID
	Name        string // stable slug used by clients, e.g. "founder-pass"
	DisplayName string

	USDMonthlyMinor int64 // cents
	USDAnnualMinor  int64
	AEDMonthlyMinor int64 // fils
	AEDAnnualMinor  int64

	CreatedAt time.Time
}

func (t *PricingTier) IsZero() bool { return t == nil || t.Name == "" }

// PriceFor selects the USD/AED minor-unit pair for a billing cycle.
func (t *PricingTier) PriceFor(cycle BillingCycle) (usdMinor, aedMinor int64, err error) {
	switch cycle {
	case BillingCycleMonthly:
		return t.USDMonthlyMinor, t.AEDMonthlyMinor, nil
	case BillingCycleAnnual:
		return t.USDAnnualMinor, t.AEDAnnualMinor, nil
	}
	return 0, 0, domain.ErrInvalidBillingCycle
}

// NewPricingTier validates and constructs a tier.
func NewPricingTier(id, name, displayName string, usdMonthly, usdAnnual, aedMonthly, aedAnnual int64) (*PricingTier, error) {
	if id == "" || name == "" || usdMonthly <= 0 || usdAnnual <= 0 || aedMonthly <= 0 || aedAnnual <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if displayName == "" {
		displayName = name
	}
	return &PricingTier{
		ID:              id,
		Name:            name,
		DisplayName:     displayName,
		USDMonthlyMinor: usdMonthly,
		USDAnnualMinor:  usdAnnual,
		AEDMonthlyMinor: aedMonthly,
		AEDAnnualMinor:  aedAnnual,
		CreatedAt:       time.Now(),
	}, nil
}
