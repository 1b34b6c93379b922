package models

import (
	"encoding/json"
	"time"
)

type OperationKind string
type OperationStatus string

const (
	KindSTKPush     OperationKind = "stk_push"
	KindSTKQuery    OperationKind = "stk_query"
	KindC2BRegister OperationKind = "c2b_register"
	KindC2BSimulate OperationKind = "c2b_simulate"
	KindB2C         OperationKind = "b2c"
	KindB2B         OperationKind = "b2b"
	KindBalance     OperationKind = "balance"
	KindStatus      OperationKind = "transaction_status"
	KindReversal    OperationKind = "reversal"
	KindQR          OperationKind = "qr_generate"
	KindToken       OperationKind = "token_generate"
)

const (
	StatusPending   OperationStatus = "pending"
	StatusCompleted OperationStatus = "completed"
	StatusFailed    OperationStatus = "failed"
	StatusTimedOut  OperationStatus = "timed_out"
)

// Terminal reports whether a status accepts no further transitions.
func (s OperationStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusTimedOut
}

// PendingRecord tracks one in-flight (or finished) asynchronous gateway
// operation. Records are retained after reaching a terminal state for query
// and audit access.
type PendingRecord struct {
	OperationID              string          `db:"operation_id" json:"operationId"`
	ConversationID           string          `db:"conversation_id" json:"conversationId"`
	OriginatorConversationID string          `db:"originator_conversation_id" json:"originatorConversationId,omitempty"`
	Kind                     OperationKind   `db:"kind" json:"kind"`
	Status                   OperationStatus `db:"status" json:"status"`
	ResultCode               *string         `db:"result_code" json:"resultCode,omitempty"`
	ResultDesc               *string         `db:"result_desc" json:"resultDesc,omitempty"`
	ResultParams             json.RawMessage `db:"result_params" json:"resultParams,omitempty"`
	SubmittedAt              time.Time       `db:"submitted_at" json:"submittedAt"`
	CompletedAt              *time.Time      `db:"completed_at" json:"completedAt,omitempty"`
	// Stale flags pending records older than the configured max age. It is
	// operational visibility only, never a transition.
	Stale bool `db:"-" json:"stale,omitempty"`
}

// Parameters decodes the flattened result parameters, or nil when the record
// is not terminal yet.
func (r *PendingRecord) Parameters() map[string]string {
	if len(r.ResultParams) == 0 {
		return nil
	}
	var params map[string]string
	if err := json.Unmarshal(r.ResultParams, &params); err != nil {
		return nil
	}
	return params
}
