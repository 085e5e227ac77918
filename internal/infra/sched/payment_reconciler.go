package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"sodai-platform/internal/domain"
	"sodai-platform/internal/domain/ports/repository"
	"sodai-platform/internal/usecase"
)

// PaymentReconciler periodically scans for stale pending checkout sessions
// and retries settlement. This covers callbacks that never arrived or a
// crash between the gateway confirming and the session completing; the
// ledger's payment-id idempotency makes the retry safe.
type PaymentReconciler struct {
	uc         usecase.PaymentUseCase
	sessions   repository.PaymentSessionRepository
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending session must be to retry
	log        *zerolog.Logger
}

func NewPaymentReconciler(uc usecase.PaymentUseCase, sessions repository.PaymentSessionRepository, interval, staleAfter time.Duration, logger *zerolog.Logger) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	compLog := logger.With().Str("component", "PaymentReconciler").Logger()
	return &PaymentReconciler{
		uc:         uc,
		sessions:   sessions,
		interval:   interval,
		staleAfter: staleAfter,
		log:        &compLog,
	}
}

func (w *PaymentReconciler) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Starting payment reconciler")
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping payment reconciler")
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentReconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	pending, err := w.sessions.ListPendingOlderThan(ctx, repository.NoTX, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("list pending sessions failed")
		return
	}
	for _, s := range pending {
		if s.Token == "" {
			continue
		}
		if _, err := w.uc.VerifyAndSettle(ctx, s.Token); err != nil {
			// ErrGatewayRejected means the session reached failed, which is
			// a terminal outcome, not a reconciler error.
			if errors.Is(err, domain.ErrGatewayRejected) {
				w.log.Info().Str("session_id", s.ID).Msg("stale session settled as failed")
				continue
			}
			w.log.Warn().Err(err).Str("session_id", s.ID).Msg("reconcile attempt failed")
			continue
		}
		w.log.Info().Str("session_id", s.ID).Msg("stale session reconciled")
	}
}
