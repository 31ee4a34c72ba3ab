package sched

import (
	"context"
	"time"

	"membership-billing/internal/usecase"

	"github.com/rs/zerolog"
)

// PendingReaper periodically fails pending subscriptions that never received a
// gateway callback. This covers abandoned checkouts and lost callbacks; the
// attempt transitions through the same reconcile path as a declined payment.
type PendingReaper struct {
	interval   time.Duration
	pendingTTL time.Duration
	batchSize  int
	payUC      usecase.PaymentUseCase
	log        *zerolog.Logger
}

func NewPendingReaper(interval, pendingTTL time.Duration, payUC usecase.PaymentUseCase, logger *zerolog.Logger) *PendingReaper {
	if interval <= 0 {
		interval = time.Hour
	}
	if pendingTTL <= 0 {
		pendingTTL = 24 * time.Hour
	}
	compLog := logger.With().Str("component", "PendingReaper").Logger()
	return &PendingReaper{
		interval:   interval,
		pendingTTL: pendingTTL,
		batchSize:  200,
		payUC:      payUC,
		log:        &compLog,
	}
}

func (w *PendingReaper) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting pending reaper")
	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping pending reaper")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *PendingReaper) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.pendingTTL)
	expired, err := w.payUC.ExpireStale(ctx, cutoff, w.batchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("expire stale pending failed")
		return
	}
	if expired > 0 {
		w.log.Info().Int("count", expired).Msg("stale pending subscriptions expired")
	}
}
