package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"membership-billing/internal/domain/ports/adapter"
	"membership-billing/internal/domain/ports/repository"
	"membership-billing/internal/infra/metrics"
)

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

type NotificationUseCase interface {
	// SendPendingConfirmations re-attempts the confirmation email for
	// completed subscriptions whose send flag is still unset. Returns how
	// many were sent.
	SendPendingConfirmations(ctx context.Context, limit int) (int, error)
}

type notificationUC struct {
	subs   repository.SubscriptionRepository
	sender adapter.ConfirmationSender
	log    *zerolog.Logger
}

func NewNotificationUseCase(subs repository.SubscriptionRepository, sender adapter.ConfirmationSender, logger *zerolog.Logger) *notificationUC {
	return &notificationUC{subs: subs, sender: sender, log: logger}
}

func (n *notificationUC) SendPendingConfirmations(ctx context.Context, limit int) (int, error) {
	unsent, err := n.subs.ListCompletedUnnotified(ctx, repository.NoTX, limit)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, sub := range unsent {
		if err := n.sender.SendConfirmation(ctx, sub); err != nil {
			metrics.IncNotification("failed")
			n.log.Warn().Err(err).Str("subscription_id", sub.ID).Msg("confirmation retry failed")
			continue
		}
		if err := n.subs.MarkNotified(ctx, repository.NoTX, sub.ID, time.Now()); err != nil {
			n.log.Warn().Err(err).Str("subscription_id", sub.ID).Msg("mark notified failed")
			continue
		}
		metrics.IncNotification("sent")
		sent++
	}
	return sent, nil
}
