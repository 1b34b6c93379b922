package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PesaGate/pesa_api/internal/models"
)

func TestMemoryStorePutGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec := &models.PendingRecord{
		OperationID:    "op-1",
		ConversationID: "AG_1",
		Kind:           models.KindB2C,
		Status:         models.StatusPending,
		SubmittedAt:    time.Now(),
	}
	if err := s.Put(ctx, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	byConv, err := s.GetByConversationID(ctx, "AG_1")
	if err != nil {
		t.Fatalf("GetByConversationID: %v", err)
	}
	if byConv.OperationID != "op-1" {
		t.Errorf("operation id = %q", byConv.OperationID)
	}

	byOp, err := s.GetByOperationID(ctx, "op-1")
	if err != nil {
		t.Fatalf("GetByOperationID: %v", err)
	}
	if byOp.ConversationID != "AG_1" {
		t.Errorf("conversation id = %q", byOp.ConversationID)
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.GetByConversationID(ctx, "AG_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByConversationID error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetByOperationID(ctx, "op-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByOperationID error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Put(ctx, &models.PendingRecord{
		OperationID:    "op-1",
		ConversationID: "AG_1",
		Status:         models.StatusPending,
	}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.GetByConversationID(ctx, "AG_1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got.Status = models.StatusFailed // caller-side mutation must not leak

	again, err := s.GetByConversationID(ctx, "AG_1")
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if again.Status != models.StatusPending {
		t.Errorf("stored status mutated to %q", again.Status)
	}
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Now()

	for i, conv := range []string{"AG_oldest", "AG_middle", "AG_newest"} {
		if err := s.Put(ctx, &models.PendingRecord{
			OperationID:    conv + "-op",
			ConversationID: conv,
			Status:         models.StatusPending,
			SubmittedAt:    base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Put %s: %v", conv, err)
		}
	}

	recs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len = %d, want 3", len(recs))
	}
	if recs[0].ConversationID != "AG_newest" || recs[2].ConversationID != "AG_oldest" {
		t.Errorf("order = %s, %s, %s", recs[0].ConversationID, recs[1].ConversationID, recs[2].ConversationID)
	}
}

func TestMemoryStoreUpsertByConversationID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec := &models.PendingRecord{OperationID: "op-1", ConversationID: "AG_1", Status: models.StatusPending}
	if err := s.Put(ctx, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	rec.Status = models.StatusCompleted
	if err := s.Put(ctx, rec); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	got, err := s.GetByConversationID(ctx, "AG_1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}

	recs, _ := s.List(ctx)
	if len(recs) != 1 {
		t.Errorf("len = %d, want 1 after upsert", len(recs))
	}
}
