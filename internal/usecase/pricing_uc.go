// File: internal/usecase/pricing_uc.go
package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"membership-billing/internal/domain/model"
	"membership-billing/internal/domain/ports/repository"
)

// Compile-time check
var _ PricingUseCase = (*pricingUC)(nil)

// Price is a resolved tier/cycle price pair. Amounts are minor units.
type Price struct {
	AmountMinor          int64  // settlement currency
	AmountSecondaryMinor int64  // display currency
	Currency             string // settlement currency code
	SecondaryCurrency    string
}

type PricingUseCase interface {
	// Resolve looks up the price for a tier and billing cycle. Pure read;
	// repeated calls with the same inputs return identical output.
	Resolve(ctx context.Context, tier string, cycle model.BillingCycle) (Price, error)
	// ListTiers returns the full reference table (seed tool, admin listing).
	ListTiers(ctx context.Context) ([]*model.PricingTier, error)
}

type pricingUC struct {
	tiers repository.PricingTierRepository
	log   *zerolog.Logger
}

func NewPricingUseCase(tiers repository.PricingTierRepository, logger *zerolog.Logger) *pricingUC {
	return &pricingUC{tiers: tiers, log: logger}
}

func (u *pricingUC) Resolve(ctx context.Context, tier string, cycle model.BillingCycle) (Price, error) {
	if _, err := model.ParseBillingCycle(string(cycle)); err != nil {
		return Price{}, err
	}
	t, err := u.tiers.FindByName(ctx, repository.NoTX, tier)
	if err != nil {
		return Price{}, fmt.Errorf("resolve tier %q: %w", tier, err)
	}
	usd, aed, err := t.PriceFor(cycle)
	if err != nil {
		return Price{}, err
	}
	return Price{
		AmountMinor:          usd,
		AmountSecondaryMinor: aed,
		Currency:             "USD",
		SecondaryCurrency:    "AED",
	}, nil
}

func (u *pricingUC) ListTiers(ctx context.Context) ([]*model.PricingTier, error) {
	return u.tiers.ListAll(ctx, repository.NoTX)
}
