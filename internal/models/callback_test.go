package models

import (
	"encoding/json"
	"testing"
)

func TestToCallbackResultFlattensParameters(t *testing.T) {
	payload := []byte(`{
		"Result": {
			"ResultType": 0,
			"ResultCode": 0,
			"ResultDesc": "The service request is processed successfully.",
			"OriginatorConversationID": "29115-34620561-1",
			"ConversationID": "AG_20240601_1234",
			"TransactionID": "OEI2AK4Q16",
			"ResultParameters": {
				"ResultParameter": [
					{"Key": "TransactionAmount", "Value": 1000},
					{"Key": "TransactionReceipt", "Value": "OEI2AK4Q16"},
					{"Key": "B2CChargesPaidAccountAvailableFunds", "Value": 236.5},
					{"Key": "TransactionCompletedDateTime", "Value": "01.06.2024 12:01:59"}
				]
			}
		}
	}`)

	var env ResultEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	cb := env.ToCallbackResult()
	if cb.ConversationID != "AG_20240601_1234" {
		t.Errorf("conversation id = %q", cb.ConversationID)
	}
	if cb.ResultCode != "0" {
		t.Errorf("result code = %q, want \"0\"", cb.ResultCode)
	}
	if cb.Parameters["TransactionAmount"] != "1000" {
		t.Errorf("TransactionAmount = %q, want 1000 without decimal point", cb.Parameters["TransactionAmount"])
	}
	if cb.Parameters["B2CChargesPaidAccountAvailableFunds"] != "236.5" {
		t.Errorf("fractional value = %q", cb.Parameters["B2CChargesPaidAccountAvailableFunds"])
	}
	if cb.Parameters["TransactionCompletedDateTime"] != "01.06.2024 12:01:59" {
		t.Errorf("string value = %q", cb.Parameters["TransactionCompletedDateTime"])
	}
}

func TestToCallbackResultStringResultCode(t *testing.T) {
	// Some operation kinds deliver the code as a JSON string.
	payload := []byte(`{"Result":{"ResultCode":"2001","ResultDesc":"The initiator information is invalid.","ConversationID":"AG_1"}}`)

	var env ResultEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	cb := env.ToCallbackResult()
	if cb.ResultCode != "2001" {
		t.Errorf("result code = %q, want 2001", cb.ResultCode)
	}
}

func TestToCallbackResultDuplicateKeysLastWins(t *testing.T) {
	env := ResultEnvelope{Result: ResultBody{
		ConversationID: "AG_1",
		ResultParameters: ResultParameters{ResultParameter: []ResultParameter{
			{Key: "ReceiptNo", Value: "FIRST"},
			{Key: "ReceiptNo", Value: "SECOND"},
		}},
	}}
	cb := env.ToCallbackResult()
	if cb.Parameters["ReceiptNo"] != "SECOND" {
		t.Errorf("ReceiptNo = %q, want SECOND", cb.Parameters["ReceiptNo"])
	}
}

func TestTimeoutEnvelopeResolveConversationID(t *testing.T) {
	top := TimeoutEnvelope{ConversationID: "AG_top"}
	if got := top.ResolveConversationID(); got != "AG_top" {
		t.Errorf("top-level = %q", got)
	}

	nested := TimeoutEnvelope{Result: &ResultBody{ConversationID: "AG_nested"}}
	if got := nested.ResolveConversationID(); got != "AG_nested" {
		t.Errorf("nested = %q", got)
	}

	var empty TimeoutEnvelope
	if got := empty.ResolveConversationID(); got != "" {
		t.Errorf("empty = %q, want empty string", got)
	}
}

func TestPendingRecordParameters(t *testing.T) {
	rec := PendingRecord{ResultParams: json.RawMessage(`{"TransactionReceipt":"OEI2AK4Q16"}`)}
	params := rec.Parameters()
	if params["TransactionReceipt"] != "OEI2AK4Q16" {
		t.Errorf("params = %v", params)
	}

	var bare PendingRecord
	if got := bare.Parameters(); got != nil {
		t.Errorf("empty record params = %v, want nil", got)
	}
}

func TestOperationStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() {
		t.Error("pending must not be terminal")
	}
	for _, st := range []OperationStatus{StatusCompleted, StatusFailed, StatusTimedOut} {
		if !st.Terminal() {
			t.Errorf("%s must be terminal", st)
		}
	}
}
