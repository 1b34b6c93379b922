package store

import (
	"context"
	"sort"
	"sync"

	"github.com/PesaGate/pesa_api/internal/models"
)

// MemoryStore keeps pending records in process memory. Sufficient for a
// single-process deployment; durability is a deployment concern handled by
// the redis/postgres drivers.
type MemoryStore struct {
	mu       sync.RWMutex
	byConv   map[string]*models.PendingRecord
	opToConv map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byConv:   make(map[string]*models.PendingRecord),
		opToConv: make(map[string]string),
	}
}

// Put upserts a record keyed by conversation id.
func (s *MemoryStore) Put(_ context.Context, rec *models.PendingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.byConv[rec.ConversationID] = &cp
	s.opToConv[rec.OperationID] = rec.ConversationID
	return nil
}

// GetByConversationID returns the record for a conversation id.
func (s *MemoryStore) GetByConversationID(_ context.Context, conversationID string) (*models.PendingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byConv[conversationID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// GetByOperationID returns the record for an operation id.
func (s *MemoryStore) GetByOperationID(_ context.Context, operationID string) (*models.PendingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.opToConv[operationID]
	if !ok {
		return nil, ErrNotFound
	}
	rec, ok := s.byConv[conv]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// List returns all records, newest submission first.
func (s *MemoryStore) List(_ context.Context) ([]*models.PendingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.PendingRecord, 0, len(s.byConv))
	for _, rec := range s.byConv {
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out, nil
}
