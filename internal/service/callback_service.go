package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/PesaGate/pesa_api/internal/ledger"
	"github.com/PesaGate/pesa_api/internal/metrics"
	"github.com/PesaGate/pesa_api/internal/models"
	"github.com/PesaGate/pesa_api/internal/store"
	"github.com/PesaGate/pesa_api/pkg/daraja"
)

// CallbackService correlates inbound gateway callbacks with pending ledger
// records. Callbacks for unknown conversations and repeats of already
// terminal ones are absorbed, not errored: the gateway retries on non-2xx
// and a retry storm helps nobody.
type CallbackService struct {
	ledger *ledger.Ledger
}

// NewCallbackService constructs a CallbackService.
func NewCallbackService(lgr *ledger.Ledger) *CallbackService {
	return &CallbackService{ledger: lgr}
}

// ProcessResult applies a result callback to the ledger. The returned record
// is nil when no pending operation matched.
func (s *CallbackService) ProcessResult(ctx context.Context, env *models.ResultEnvelope) (*models.PendingRecord, error) {
	cb := env.ToCallbackResult()
	if cb.ConversationID == "" {
		log.Warn().Msg("Result callback without conversation id")
		metrics.CallbacksReceived.WithLabelValues(metrics.OutcomeUnmatched).Inc()
		return nil, nil
	}

	rec, changed, err := s.ledger.CorrelateResult(ctx, cb)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn().Str("conversation_id", cb.ConversationID).
				Msg("Result callback for unknown conversation")
			metrics.CallbacksReceived.WithLabelValues(metrics.OutcomeUnmatched).Inc()
			return nil, nil
		}
		return nil, err
	}

	if !changed {
		metrics.CallbacksReceived.WithLabelValues(metrics.OutcomeDuplicate).Inc()
		return rec, nil
	}

	switch rec.Status {
	case models.StatusCompleted:
		metrics.CallbacksReceived.WithLabelValues(metrics.OutcomeCompleted).Inc()
	default:
		metrics.CallbacksReceived.WithLabelValues(metrics.OutcomeFailed).Inc()
	}

	log.Info().
		Str("conversation_id", cb.ConversationID).
		Str("operation_id", rec.OperationID).
		Str("status", string(rec.Status)).
		Str("result_code", cb.ResultCode).
		Str("result_meaning", daraja.DescribeResultCode(cb.ResultCode)).
		Msg("Callback correlated")
	return rec, nil
}

// ProcessTimeout applies a queue-timeout callback to the ledger.
func (s *CallbackService) ProcessTimeout(ctx context.Context, env *models.TimeoutEnvelope) (*models.PendingRecord, error) {
	conversationID := env.ResolveConversationID()
	if conversationID == "" {
		log.Warn().Msg("Timeout callback without conversation id")
		metrics.CallbacksReceived.WithLabelValues(metrics.OutcomeUnmatched).Inc()
		return nil, nil
	}

	rec, changed, err := s.ledger.CorrelateTimeout(ctx, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn().Str("conversation_id", conversationID).
				Msg("Timeout callback for unknown conversation")
			metrics.CallbacksReceived.WithLabelValues(metrics.OutcomeUnmatched).Inc()
			return nil, nil
		}
		return nil, err
	}

	if !changed {
		metrics.CallbacksReceived.WithLabelValues(metrics.OutcomeDuplicate).Inc()
		return rec, nil
	}

	metrics.CallbacksReceived.WithLabelValues(metrics.OutcomeTimedOut).Inc()
	log.Info().
		Str("conversation_id", conversationID).
		Str("operation_id", rec.OperationID).
		Msg("Operation timed out in gateway queue")
	return rec, nil
}
