package adapter

import (
	"context"

	"membership-billing/internal/domain/model"
)

// ConfirmationSender delivers the membership confirmation message once a
// subscription turns active. Delivery is best-effort: callers log failures
// and move on, and a background sweep re-attempts unsent confirmations.
type ConfirmationSender interface {
	SendConfirmation(ctx context.Context, sub *model.Subscription) error
}
