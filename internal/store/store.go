package store

import (
	"context"
	"errors"

	"github.com/PesaGate/pesa_api/internal/models"
)

// ErrNotFound is returned when no record exists for the given identifier.
// During callback correlation this is a benign outcome, not a failure.
var ErrNotFound = errors.New("OPERATION_NOT_FOUND")

// Store is the key-value seam the ledger persists pending records behind.
// Implementations must treat Put as an upsert keyed by conversation id.
type Store interface {
	Put(ctx context.Context, rec *models.PendingRecord) error
	GetByConversationID(ctx context.Context, conversationID string) (*models.PendingRecord, error)
	GetByOperationID(ctx context.Context, operationID string) (*models.PendingRecord, error)
	List(ctx context.Context) ([]*models.PendingRecord, error)
}
