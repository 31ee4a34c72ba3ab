package repository

import (
	"context"

	"membership-billing/internal/domain/model"
)

// PricingTierRepository reads the immutable pricing reference table.
// Save exists for the seed tool only; the orchestrator never writes tiers.
type PricingTierRepository interface {
	FindByName(ctx context.Context, tx Tx, name string) (*model.PricingTier, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.PricingTier, error)
	Save(ctx context.Context, tx Tx, t *model.PricingTier) error
}
