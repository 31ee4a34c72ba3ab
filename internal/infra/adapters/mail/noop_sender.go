package mail

import (
	"context"

	"github.com/rs/zerolog"

	"membership-billing/internal/domain/model"
	"membership-billing/internal/domain/ports/adapter"
)

var _ adapter.ConfirmationSender = (*NoopSender)(nil)

// NoopSender logs instead of sending. Used in dev mode and tests.
type NoopSender struct {
	log *zerolog.Logger
}

func NewNoopSender(logger *zerolog.Logger) *NoopSender { return &NoopSender{log: logger} }

func (s *NoopSender) SendConfirmation(ctx context.Context, sub *model.Subscription) error {
	s.log.Info().
		Str("subscription_id", sub.ID).
		Str("email", sub.Email).
		Msg("noop confirmation (mail disabled)")
	return nil
}
