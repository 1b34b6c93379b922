package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PesaGate/pesa_api/internal/models"
	"github.com/PesaGate/pesa_api/internal/store"
)

func newTestLedger(staleAge time.Duration) *Ledger {
	return New(store.NewMemoryStore(), staleAge)
}

func TestRegisterCreatesPendingRecord(t *testing.T) {
	l := newTestLedger(0)
	ctx := context.Background()

	rec, err := l.Register(ctx, models.KindB2C, "AG_20240601_1", "29115-1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if rec.OperationID == "" {
		t.Error("operation id not assigned")
	}
	if rec.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", rec.Status)
	}
	if rec.SubmittedAt.IsZero() {
		t.Error("submitted_at not stamped")
	}

	got, err := l.Get(ctx, rec.OperationID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ConversationID != "AG_20240601_1" {
		t.Errorf("conversation id = %q", got.ConversationID)
	}
}

func TestRegisterRejectsEmptyConversationID(t *testing.T) {
	l := newTestLedger(0)
	if _, err := l.Register(context.Background(), models.KindB2C, "", "29115-1"); err == nil {
		t.Fatal("expected error for empty conversation id")
	}
}

func TestCorrelateResultCompletes(t *testing.T) {
	l := newTestLedger(0)
	ctx := context.Background()

	rec, err := l.Register(ctx, models.KindB2C, "AG_1", "29115-1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, changed, err := l.CorrelateResult(ctx, &models.CallbackResult{
		ConversationID: "AG_1",
		ResultCode:     "0",
		ResultDesc:     "The service request is processed successfully.",
		Parameters:     map[string]string{"TransactionReceipt": "OEI2AK4Q16", "TransactionAmount": "1000"},
	})
	if err != nil {
		t.Fatalf("CorrelateResult: %v", err)
	}
	if !changed {
		t.Error("expected state change")
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.OperationID != rec.OperationID {
		t.Errorf("operation id mismatch: %q != %q", got.OperationID, rec.OperationID)
	}
	if got.CompletedAt == nil {
		t.Error("completed_at not stamped")
	}
	if got.ResultCode == nil || *got.ResultCode != "0" {
		t.Errorf("result code = %v", got.ResultCode)
	}
	params := got.Parameters()
	if params["TransactionReceipt"] != "OEI2AK4Q16" {
		t.Errorf("parameters = %v", params)
	}
}

func TestCorrelateResultNonZeroCodeFails(t *testing.T) {
	l := newTestLedger(0)
	ctx := context.Background()

	if _, err := l.Register(ctx, models.KindReversal, "AG_2", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, changed, err := l.CorrelateResult(ctx, &models.CallbackResult{
		ConversationID: "AG_2",
		ResultCode:     "2001",
		ResultDesc:     "The initiator information is invalid.",
	})
	if err != nil {
		t.Fatalf("CorrelateResult: %v", err)
	}
	if !changed || got.Status != models.StatusFailed {
		t.Errorf("status = %q (changed=%v), want failed", got.Status, changed)
	}
}

func TestTerminalRecordAbsorbsDuplicates(t *testing.T) {
	l := newTestLedger(0)
	ctx := context.Background()

	if _, err := l.Register(ctx, models.KindB2C, "AG_3", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	first, changed, err := l.CorrelateResult(ctx, &models.CallbackResult{ConversationID: "AG_3", ResultCode: "0"})
	if err != nil || !changed {
		t.Fatalf("first correlation: changed=%v err=%v", changed, err)
	}

	// Replayed failure callback must not flip a completed record.
	second, changed, err := l.CorrelateResult(ctx, &models.CallbackResult{ConversationID: "AG_3", ResultCode: "1032"})
	if err != nil {
		t.Fatalf("duplicate correlation: %v", err)
	}
	if changed {
		t.Error("duplicate callback changed a terminal record")
	}
	if second.Status != models.StatusCompleted {
		t.Errorf("status = %q, want completed unchanged", second.Status)
	}
	if !first.CompletedAt.Equal(*second.CompletedAt) {
		t.Error("completed_at shifted on duplicate")
	}

	// A late timeout notice is absorbed too.
	third, changed, err := l.CorrelateTimeout(ctx, "AG_3")
	if err != nil {
		t.Fatalf("late timeout: %v", err)
	}
	if changed {
		t.Error("late timeout changed a terminal record")
	}
	if third.Status != models.StatusCompleted {
		t.Errorf("status after late timeout = %q, want completed", third.Status)
	}
}

func TestCorrelateUnknownConversation(t *testing.T) {
	l := newTestLedger(0)
	ctx := context.Background()

	_, _, err := l.CorrelateResult(ctx, &models.CallbackResult{ConversationID: "AG_missing", ResultCode: "0"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want store.ErrNotFound", err)
	}

	_, _, err = l.CorrelateTimeout(ctx, "AG_missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("timeout error = %v, want store.ErrNotFound", err)
	}
}

func TestCorrelateTimeout(t *testing.T) {
	l := newTestLedger(0)
	ctx := context.Background()

	if _, err := l.Register(ctx, models.KindBalance, "AG_4", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, changed, err := l.CorrelateTimeout(ctx, "AG_4")
	if err != nil {
		t.Fatalf("CorrelateTimeout: %v", err)
	}
	if !changed || got.Status != models.StatusTimedOut {
		t.Errorf("status = %q (changed=%v), want timed_out", got.Status, changed)
	}

	// A result callback racing in after the timeout is absorbed.
	after, changed, err := l.CorrelateResult(ctx, &models.CallbackResult{ConversationID: "AG_4", ResultCode: "0"})
	if err != nil {
		t.Fatalf("post-timeout result: %v", err)
	}
	if changed || after.Status != models.StatusTimedOut {
		t.Errorf("status = %q (changed=%v), want timed_out unchanged", after.Status, changed)
	}
}

func TestListFlagsStalePending(t *testing.T) {
	l := newTestLedger(5 * time.Minute)
	ctx := context.Background()

	base := time.Now()
	l.now = func() time.Time { return base }

	if _, err := l.Register(ctx, models.KindB2C, "AG_old", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}

	l.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := l.Register(ctx, models.KindB2C, "AG_fresh", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Ten minutes in: the first submission crossed the stale age, the second
	// has not.
	l.now = func() time.Time { return base.Add(6 * time.Minute) }
	recs, err := l.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	staleByConv := map[string]bool{}
	for _, rec := range recs {
		staleByConv[rec.ConversationID] = rec.Stale
	}
	if !staleByConv["AG_old"] {
		t.Error("old pending record not flagged stale")
	}
	if staleByConv["AG_fresh"] {
		t.Error("fresh pending record flagged stale")
	}
}

func TestTerminalRecordsNeverStale(t *testing.T) {
	l := newTestLedger(time.Minute)
	ctx := context.Background()

	base := time.Now()
	l.now = func() time.Time { return base }
	if _, err := l.Register(ctx, models.KindB2C, "AG_done", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, err := l.CorrelateResult(ctx, &models.CallbackResult{ConversationID: "AG_done", ResultCode: "0"}); err != nil {
		t.Fatalf("CorrelateResult: %v", err)
	}

	l.now = func() time.Time { return base.Add(time.Hour) }
	recs, err := l.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, rec := range recs {
		if rec.Stale {
			t.Errorf("terminal record %s flagged stale", rec.ConversationID)
		}
	}
}
