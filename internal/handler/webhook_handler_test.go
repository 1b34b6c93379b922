package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PesaGate/pesa_api/internal/ledger"
	"github.com/PesaGate/pesa_api/internal/models"
	"github.com/PesaGate/pesa_api/internal/service"
	"github.com/PesaGate/pesa_api/internal/store"
)

func newWebhookRouter(t *testing.T) (*gin.Engine, *ledger.Ledger) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	lgr := ledger.New(store.NewMemoryStore(), 5*time.Minute)
	h := NewWebhookHandler(service.NewCallbackService(lgr))

	router := gin.New()
	router.POST("/webhooks/mpesa/result", h.HandleResult)
	router.POST("/webhooks/mpesa/timeout", h.HandleTimeout)
	return router, lgr
}

func TestHandleResultCompletesPending(t *testing.T) {
	router, lgr := newWebhookRouter(t)

	rec, err := lgr.Register(context.Background(), models.KindB2C, "AG_1", "29115-1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	body := `{"Result":{"ResultCode":0,"ResultDesc":"ok","ConversationID":"AG_1","ResultParameters":{"ResultParameter":[{"Key":"TransactionReceipt","Value":"OEI2AK4Q16"}]}}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/mpesa/result", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["OperationID"] != rec.OperationID {
		t.Errorf("OperationID = %v, want %s", resp["OperationID"], rec.OperationID)
	}

	got, err := lgr.Get(context.Background(), rec.OperationID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
}

func TestHandleResultUnknownConversationStill200(t *testing.T) {
	router, _ := newWebhookRouter(t)

	body := `{"Result":{"ResultCode":0,"ConversationID":"AG_unknown"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/mpesa/result", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 so the gateway stops retrying", w.Code)
	}
}

func TestHandleResultMalformedBody(t *testing.T) {
	router, _ := newWebhookRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/mpesa/result", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleTimeoutMarksTimedOut(t *testing.T) {
	router, lgr := newWebhookRouter(t)

	rec, err := lgr.Register(context.Background(), models.KindBalance, "AG_2", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/mpesa/timeout", strings.NewReader(`{"ConversationID":"AG_2"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	got, err := lgr.Get(context.Background(), rec.OperationID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.StatusTimedOut {
		t.Errorf("status = %q, want timed_out", got.Status)
	}
}
