package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/PesaGate/pesa_api/internal/models"
	"github.com/PesaGate/pesa_api/internal/service"
)

// WebhookHandler receives gateway result and timeout callbacks. These
// endpoints always acknowledge with 200 on processable payloads: the gateway
// retries on anything else, and a dropped or duplicate callback is already
// handled by the ledger.
type WebhookHandler struct {
	callbacks *service.CallbackService
}

// NewWebhookHandler constructs a WebhookHandler.
func NewWebhookHandler(callbacks *service.CallbackService) *WebhookHandler {
	return &WebhookHandler{callbacks: callbacks}
}

// HandleResult handles POST /webhooks/mpesa/result
func (h *WebhookHandler) HandleResult(c *gin.Context) {
	var env models.ResultEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		log.Warn().Err(err).Msg("Malformed result callback")
		c.JSON(400, gin.H{"ResultCode": 1, "ResultDesc": "Invalid payload"})
		return
	}

	rec, err := h.callbacks.ProcessResult(c.Request.Context(), &env)
	if err != nil {
		log.Error().Err(err).Msg("Failed to process result callback")
		c.JSON(500, gin.H{"ResultCode": 1, "ResultDesc": "Processing failed"})
		return
	}

	resp := gin.H{"ResultCode": 0, "ResultDesc": "Accepted"}
	if rec != nil {
		resp["OperationID"] = rec.OperationID
	}
	c.JSON(200, resp)
}

// HandleTimeout handles POST /webhooks/mpesa/timeout
func (h *WebhookHandler) HandleTimeout(c *gin.Context) {
	var env models.TimeoutEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		log.Warn().Err(err).Msg("Malformed timeout callback")
		c.JSON(400, gin.H{"ResultCode": 1, "ResultDesc": "Invalid payload"})
		return
	}

	rec, err := h.callbacks.ProcessTimeout(c.Request.Context(), &env)
	if err != nil {
		log.Error().Err(err).Msg("Failed to process timeout callback")
		c.JSON(500, gin.H{"ResultCode": 1, "ResultDesc": "Processing failed"})
		return
	}

	resp := gin.H{"ResultCode": 0, "ResultDesc": "Accepted"}
	if rec != nil {
		resp["OperationID"] = rec.OperationID
	}
	c.JSON(200, resp)
}
