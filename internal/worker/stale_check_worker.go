package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/PesaGate/pesa_api/internal/ledger"
	"github.com/PesaGate/pesa_api/internal/metrics"
)

// StaleCheckWorker periodically scans the ledger for pending operations whose
// callback never arrived. It only observes and reports: the gateway may still
// deliver very late, so the record stays pending and the ledger flags it
// stale for operators instead of forcing a terminal state.
type StaleCheckWorker struct {
	ledger   *ledger.Ledger
	interval time.Duration
}

// NewStaleCheckWorker constructs a StaleCheckWorker.
func NewStaleCheckWorker(lgr *ledger.Ledger, interval time.Duration) *StaleCheckWorker {
	return &StaleCheckWorker{ledger: lgr, interval: interval}
}

// Start begins the periodic stale scan loop until context is canceled.
func (w *StaleCheckWorker) Start(ctx context.Context) {
	log.Info().
		Dur("interval", w.interval).
		Msg("Starting stale check worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Stale check worker stopped")
			return
		}
	}
}

func (w *StaleCheckWorker) run(ctx context.Context) {
	recs, err := w.ledger.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to scan ledger for stale operations")
		return
	}

	var pending, stale int
	for _, rec := range recs {
		if rec.Status.Terminal() {
			continue
		}
		pending++
		if rec.Stale {
			stale++
			log.Warn().
				Str("operation_id", rec.OperationID).
				Str("conversation_id", rec.ConversationID).
				Str("kind", string(rec.Kind)).
				Dur("age", time.Since(rec.SubmittedAt)).
				Msg("Pending operation has not received its callback")
		}
	}

	metrics.PendingOperations.Set(float64(pending))
	metrics.StaleOperations.Set(float64(stale))
}
