package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/PesaGate/pesa_api/internal/models"
	"github.com/PesaGate/pesa_api/internal/store"
	"github.com/PesaGate/pesa_api/pkg/daraja"
)

// Ledger tracks in-flight asynchronous operations and correlates inbound
// gateway callbacks to them. Registration, lookup, and status transitions are
// serialized under one lock; expected cardinality is low and nothing here
// blocks on the network while holding it.
type Ledger struct {
	mu    sync.Mutex
	store store.Store
	// staleAge classifies pending records as suspect in List output. It is
	// operational visibility only; the gateway delivers the authoritative
	// timeout callback.
	staleAge time.Duration

	now func() time.Time
}

// New creates a Ledger over the given store. staleAge <= 0 disables stale
// classification.
func New(s store.Store, staleAge time.Duration) *Ledger {
	return &Ledger{store: s, staleAge: staleAge, now: time.Now}
}

// Register records a freshly acknowledged submission as pending. Called after
// the gateway returned a conversation id.
func (l *Ledger) Register(ctx context.Context, kind models.OperationKind, conversationID, originatorID string) (*models.PendingRecord, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("cannot register operation without a conversation id")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rec := &models.PendingRecord{
		OperationID:              uuid.New().String(),
		ConversationID:           conversationID,
		OriginatorConversationID: originatorID,
		Kind:                     kind,
		Status:                   models.StatusPending,
		SubmittedAt:              l.now(),
	}
	if err := l.store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to store pending record: %w", err)
	}

	log.Info().
		Str("operation_id", rec.OperationID).
		Str("conversation_id", conversationID).
		Str("kind", string(kind)).
		Msg("Operation registered as pending")

	return rec, nil
}

// CorrelateResult matches a result callback to its pending record and applies
// the terminal transition: completed for result code "0", failed otherwise.
// A callback for an already-terminal record is discarded and the record
// returned unchanged with changed=false, tolerating at-least-once delivery.
// Unknown conversation ids return store.ErrNotFound.
func (l *Ledger) CorrelateResult(ctx context.Context, cb *models.CallbackResult) (rec *models.PendingRecord, changed bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, err = l.store.GetByConversationID(ctx, cb.ConversationID)
	if err != nil {
		return nil, false, err
	}

	if rec.Status.Terminal() {
		log.Debug().
			Str("conversation_id", cb.ConversationID).
			Str("status", string(rec.Status)).
			Msg("Callback received for terminal operation, ignoring")
		return rec, false, nil
	}

	status := models.StatusFailed
	if daraja.IsSuccess(cb.ResultCode) {
		status = models.StatusCompleted
	}
	rec, err = l.transition(ctx, rec, status, cb)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// CorrelateTimeout matches a timeout notice to its pending record and marks
// it timed out. Terminal records are returned unchanged with changed=false.
func (l *Ledger) CorrelateTimeout(ctx context.Context, conversationID string) (rec *models.PendingRecord, changed bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, err = l.store.GetByConversationID(ctx, conversationID)
	if err != nil {
		return nil, false, err
	}

	if rec.Status.Terminal() {
		log.Debug().
			Str("conversation_id", conversationID).
			Str("status", string(rec.Status)).
			Msg("Timeout received for terminal operation, ignoring")
		return rec, false, nil
	}

	rec, err = l.transition(ctx, rec, models.StatusTimedOut, nil)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// transition applies a terminal state and persists the record. Callers hold
// the lock.
func (l *Ledger) transition(ctx context.Context, rec *models.PendingRecord, status models.OperationStatus, cb *models.CallbackResult) (*models.PendingRecord, error) {
	now := l.now()
	rec.Status = status
	rec.CompletedAt = &now
	if cb != nil {
		rec.ResultCode = &cb.ResultCode
		rec.ResultDesc = &cb.ResultDesc
		if len(cb.Parameters) > 0 {
			raw, err := json.Marshal(cb.Parameters)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal result parameters: %w", err)
			}
			rec.ResultParams = raw
		}
	}
	if err := l.store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to persist transition: %w", err)
	}

	log.Info().
		Str("operation_id", rec.OperationID).
		Str("conversation_id", rec.ConversationID).
		Str("status", string(status)).
		Msg("Operation reached terminal state")

	return rec, nil
}

// Get returns the record for an operation id.
func (l *Ledger) Get(ctx context.Context, operationID string) (*models.PendingRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.GetByOperationID(ctx, operationID)
}

// GetByConversationID returns the record for a conversation id.
func (l *Ledger) GetByConversationID(ctx context.Context, conversationID string) (*models.PendingRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.GetByConversationID(ctx, conversationID)
}

// List returns all records, flagging pending ones older than the configured
// stale age.
func (l *Ledger) List(ctx context.Context) ([]*models.PendingRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	recs, err := l.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if l.staleAge > 0 {
		cutoff := l.now().Add(-l.staleAge)
		for _, rec := range recs {
			if rec.Status == models.StatusPending && rec.SubmittedAt.Before(cutoff) {
				rec.Stale = true
			}
		}
	}
	return recs, nil
}
