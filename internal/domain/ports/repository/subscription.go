package repository

import (
	"context"
	"time"

	"membership-billing/internal/domain/model"
)

// SubscriptionRepository is the durable store of subscription attempts.
// All mutation goes through the orchestrator; nothing else writes these rows.
type SubscriptionRepository interface {
	Insert(ctx context.Context, tx Tx, s *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	FindByReference(ctx context.Context, tx Tx, reference string) (*model.Subscription, error)

	// HasPending reports whether a non-terminal attempt already exists for
	// the (email, tier, cycle) combination.
	HasPending(ctx context.Context, tx Tx, email, tier string, cycle model.BillingCycle) (bool, error)

	// UpdateStatusIfPending atomically transitions payment and subscription
	// status only when the current payment status is still 'pending'.
	// Returns false when another caller already finalized the row, which is
	// how concurrent gateway callbacks elect a single winner.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, ps model.PaymentStatus, ss model.SubscriptionStatus) (bool, error)

	// MarkNotified records a successful confirmation send.
	MarkNotified(ctx context.Context, tx Tx, id string, at time.Time) error

	// ListPendingOlderThan feeds the stale-pending reaper.
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Subscription, error)

	// ListCompletedUnnotified feeds the confirmation retry sweep.
	ListCompletedUnnotified(ctx context.Context, tx Tx, limit int) ([]*model.Subscription, error)

	// SumRevenueByPeriod sums settlement-currency minor units of completed
	// subscriptions since the start of the given period ("week"|"month"|"year").
	SumRevenueByPeriod(ctx context.Context, tx Tx, period string) (int64, error)
}
