package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PesaGate/pesa_api/internal/ledger"
	"github.com/PesaGate/pesa_api/internal/models"
	"github.com/PesaGate/pesa_api/internal/store"
	"github.com/PesaGate/pesa_api/pkg/daraja"
)

// fakeGateway answers the oauth exchange and every operation path.
func fakeGateway(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/oauth/"):
			w.Write([]byte(`{"access_token":"test-token","expires_in":"3599"}`))
		case strings.Contains(r.URL.Path, "stkpush"):
			w.Write([]byte(`{"MerchantRequestID":"29115-34620561-1","CheckoutRequestID":"ws_CO_191220191020363925","ResponseCode":"0","ResponseDescription":"Success. Request accepted for processing","CustomerMessage":"Success"}`))
		default:
			w.Write([]byte(`{"ConversationID":"AG_20240601_7000abc","OriginatorConversationID":"29115-34620561-1","ResponseCode":"0","ResponseDescription":"Accept the service request successfully."}`))
		}
	}))
}

func newServices(t *testing.T, gatewayURL string) (*OperationService, *CallbackService, *ledger.Ledger) {
	t.Helper()
	client := daraja.NewClient(daraja.Config{
		ConsumerKey:       "key",
		ConsumerSecret:    "secret",
		BusinessShortCode: "174379",
		PassKey:           "passkey",
		Environment:       daraja.EnvironmentSandbox,
		InitiatorName:     "testapi",
		InitiatorPassword: "credential",
		BaseURL:           gatewayURL,
	})
	lgr := ledger.New(store.NewMemoryStore(), 5*time.Minute)
	return NewOperationService(client, lgr), NewCallbackService(lgr), lgr
}

func TestB2CSubmissionThroughCallback(t *testing.T) {
	gw := fakeGateway(t)
	defer gw.Close()
	ops, callbacks, _ := newServices(t, gw.URL)
	ctx := context.Background()

	// Submit a salary payment.
	result, err := ops.B2C(ctx, daraja.B2CInput{
		Amount:          1000,
		PartyB:          "0708374149",
		Remarks:         "Salary",
		QueueTimeoutURL: "https://example.com/timeout",
		ResultURL:       "https://example.com/result",
	})
	if err != nil {
		t.Fatalf("B2C: %v", err)
	}
	if result.Response.ConversationID != "AG_20240601_7000abc" {
		t.Fatalf("conversation id = %q", result.Response.ConversationID)
	}
	if result.Record == nil {
		t.Fatal("no pending record registered")
	}
	if result.Record.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", result.Record.Status)
	}
	if result.Record.Kind != models.KindB2C {
		t.Errorf("kind = %q, want b2c", result.Record.Kind)
	}

	// The gateway delivers the result callback.
	var env models.ResultEnvelope
	payload := `{
		"Result": {
			"ResultType": 0,
			"ResultCode": 0,
			"ResultDesc": "The service request is processed successfully.",
			"OriginatorConversationID": "29115-34620561-1",
			"ConversationID": "AG_20240601_7000abc",
			"TransactionID": "OEI2AK4Q16",
			"ResultParameters": {
				"ResultParameter": [
					{"Key": "TransactionReceipt", "Value": "OEI2AK4Q16"},
					{"Key": "TransactionAmount", "Value": 1000}
				]
			}
		}
	}`
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		t.Fatalf("unmarshal callback: %v", err)
	}

	rec, err := callbacks.ProcessResult(ctx, &env)
	if err != nil {
		t.Fatalf("ProcessResult: %v", err)
	}
	if rec == nil {
		t.Fatal("callback did not match the pending record")
	}
	if rec.Status != models.StatusCompleted {
		t.Errorf("status = %q, want completed", rec.Status)
	}
	if rec.OperationID != result.Record.OperationID {
		t.Errorf("operation id mismatch")
	}
	if rec.Parameters()["TransactionReceipt"] != "OEI2AK4Q16" {
		t.Errorf("parameters = %v", rec.Parameters())
	}

	// The ledger now serves the terminal record by operation id.
	got, err := ops.GetOperation(ctx, result.Record.OperationID)
	if err != nil {
		t.Fatalf("GetOperation: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("persisted status = %q, want completed", got.Status)
	}
}

func TestSTKPushRegistersCheckoutRequestID(t *testing.T) {
	gw := fakeGateway(t)
	defer gw.Close()
	ops, _, lgr := newServices(t, gw.URL)
	ctx := context.Background()

	result, err := ops.STKPush(ctx, daraja.STKPushInput{
		Amount:           100,
		PhoneNumber:      "0712345678",
		CallbackURL:      "https://example.com/cb",
		AccountReference: "INV-1001",
		TransactionDesc:  "Test pay",
	})
	if err != nil {
		t.Fatalf("STKPush: %v", err)
	}
	if result.Record == nil {
		t.Fatal("no pending record registered")
	}
	if result.Record.ConversationID != "ws_CO_191220191020363925" {
		t.Errorf("record keyed by %q, want the checkout request id", result.Record.ConversationID)
	}

	rec, err := lgr.GetByConversationID(ctx, "ws_CO_191220191020363925")
	if err != nil {
		t.Fatalf("GetByConversationID: %v", err)
	}
	if rec.Kind != models.KindSTKPush {
		t.Errorf("kind = %q", rec.Kind)
	}
}

func TestCallbackForUnknownConversationIsBenign(t *testing.T) {
	gw := fakeGateway(t)
	defer gw.Close()
	_, callbacks, _ := newServices(t, gw.URL)

	env := models.ResultEnvelope{Result: models.ResultBody{
		ConversationID: "AG_never_submitted",
		ResultCode:     json.Number("0"),
	}}
	rec, err := callbacks.ProcessResult(context.Background(), &env)
	if err != nil {
		t.Fatalf("unknown conversation should not error: %v", err)
	}
	if rec != nil {
		t.Errorf("rec = %+v, want nil", rec)
	}

	timeout := models.TimeoutEnvelope{ConversationID: "AG_never_submitted"}
	rec, err = callbacks.ProcessTimeout(context.Background(), &timeout)
	if err != nil {
		t.Fatalf("unknown timeout should not error: %v", err)
	}
	if rec != nil {
		t.Errorf("timeout rec = %+v, want nil", rec)
	}
}

func TestTimeoutThenLateResult(t *testing.T) {
	gw := fakeGateway(t)
	defer gw.Close()
	ops, callbacks, _ := newServices(t, gw.URL)
	ctx := context.Background()

	result, err := ops.AccountBalance(ctx, daraja.BalanceInput{
		Remarks:         "balance check",
		QueueTimeoutURL: "https://example.com/timeout",
		ResultURL:       "https://example.com/result",
	})
	if err != nil {
		t.Fatalf("AccountBalance: %v", err)
	}

	timeout := models.TimeoutEnvelope{ConversationID: result.Response.ConversationID}
	rec, err := callbacks.ProcessTimeout(ctx, &timeout)
	if err != nil {
		t.Fatalf("ProcessTimeout: %v", err)
	}
	if rec.Status != models.StatusTimedOut {
		t.Errorf("status = %q, want timed_out", rec.Status)
	}

	// A very late result must not resurrect the record.
	env := models.ResultEnvelope{Result: models.ResultBody{
		ConversationID: result.Response.ConversationID,
		ResultCode:     json.Number("0"),
	}}
	rec, err = callbacks.ProcessResult(ctx, &env)
	if err != nil {
		t.Fatalf("late result: %v", err)
	}
	if rec.Status != models.StatusTimedOut {
		t.Errorf("status = %q, want timed_out unchanged", rec.Status)
	}
}

func TestErrorClass(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&daraja.ValidationError{Field: "amount"}, "validation"},
		{&daraja.ConfigurationError{Message: "x"}, "configuration"},
		{&daraja.AuthError{Message: "x"}, "auth"},
		{&daraja.NetworkError{}, "network"},
		{&daraja.GatewayError{Code: "x"}, "gateway"},
		{&daraja.DecodingError{}, "decoding"},
		{context.Canceled, "internal"},
	}
	for _, tc := range cases {
		if got := ErrorClass(tc.err); got != tc.want {
			t.Errorf("ErrorClass(%T) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
