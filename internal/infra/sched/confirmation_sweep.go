package sched

import (
	"context"
	"time"

	"membership-billing/internal/usecase"

	"github.com/rs/zerolog"
)

// ConfirmationSweep re-attempts confirmation emails for completed
// subscriptions whose first send failed.
type ConfirmationSweep struct {
	interval  time.Duration
	batchSize int
	notifUC   usecase.NotificationUseCase
	log       *zerolog.Logger
}

func NewConfirmationSweep(interval time.Duration, notifUC usecase.NotificationUseCase, logger *zerolog.Logger) *ConfirmationSweep {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	compLog := logger.With().Str("component", "ConfirmationSweep").Logger()
	return &ConfirmationSweep{
		interval:  interval,
		batchSize: 100,
		notifUC:   notifUC,
		log:       &compLog,
	}
}

func (w *ConfirmationSweep) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting confirmation sweep")
	w.runCheck(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping confirmation sweep")
			return ctx.Err()
		case <-ticker.C:
			w.runCheck(ctx)
		}
	}
}

func (w *ConfirmationSweep) runCheck(ctx context.Context) {
	sent, err := w.notifUC.SendPendingConfirmations(ctx, w.batchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("confirmation sweep failed")
	}
	if sent > 0 {
		w.log.Info().Int("count", sent).Msg("confirmation emails sent")
	}
}
