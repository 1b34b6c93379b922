package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/PesaGate/pesa_api/internal/service"
	"github.com/PesaGate/pesa_api/internal/store"
	"github.com/PesaGate/pesa_api/internal/utils"
	"github.com/PesaGate/pesa_api/pkg/daraja"
)

// OperationHandler exposes the gateway operations over HTTP.
type OperationHandler struct {
	operations *service.OperationService
}

// NewOperationHandler constructs an OperationHandler.
func NewOperationHandler(operations *service.OperationService) *OperationHandler {
	return &OperationHandler{operations: operations}
}

// STKPush handles POST /v1/mpesa/stk-push
func (h *OperationHandler) STKPush(c *gin.Context) {
	var in daraja.STKPushInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	result, err := h.operations.STKPush(c.Request.Context(), in)
	if err != nil {
		respondClientError(c, err)
		return
	}
	utils.Success(c, 200, "STK push submitted", result)
}

// STKQuery handles POST /v1/mpesa/stk-query
func (h *OperationHandler) STKQuery(c *gin.Context) {
	var in daraja.STKQueryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	result, err := h.operations.STKQuery(c.Request.Context(), in)
	if err != nil {
		respondClientError(c, err)
		return
	}
	utils.Success(c, 200, "STK query completed", result)
}

// C2BRegister handles POST /v1/mpesa/c2b/register
func (h *OperationHandler) C2BRegister(c *gin.Context) {
	var in daraja.C2BRegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	result, err := h.operations.C2BRegister(c.Request.Context(), in)
	if err != nil {
		respondClientError(c, err)
		return
	}
	utils.Success(c, 200, "C2B URLs registered", result)
}

// C2BSimulate handles POST /v1/mpesa/c2b/simulate
func (h *OperationHandler) C2BSimulate(c *gin.Context) {
	var in daraja.C2BSimulateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	result, err := h.operations.C2BSimulate(c.Request.Context(), in)
	if err != nil {
		respondClientError(c, err)
		return
	}
	utils.Success(c, 200, "C2B payment simulated", result)
}

// B2C handles POST /v1/mpesa/b2c
func (h *OperationHandler) B2C(c *gin.Context) {
	var in daraja.B2CInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	result, err := h.operations.B2C(c.Request.Context(), in)
	if err != nil {
		respondClientError(c, err)
		return
	}
	utils.Success(c, 200, "B2C payment submitted", result)
}

// B2B handles POST /v1/mpesa/b2b
func (h *OperationHandler) B2B(c *gin.Context) {
	var in daraja.B2BInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	result, err := h.operations.B2B(c.Request.Context(), in)
	if err != nil {
		respondClientError(c, err)
		return
	}
	utils.Success(c, 200, "B2B payment submitted", result)
}

// AccountBalance handles POST /v1/mpesa/balance
func (h *OperationHandler) AccountBalance(c *gin.Context) {
	var in daraja.BalanceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	result, err := h.operations.AccountBalance(c.Request.Context(), in)
	if err != nil {
		respondClientError(c, err)
		return
	}
	utils.Success(c, 200, "Balance query submitted", result)
}

// TransactionStatus handles POST /v1/mpesa/transaction-status
func (h *OperationHandler) TransactionStatus(c *gin.Context) {
	var in daraja.StatusInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	result, err := h.operations.TransactionStatus(c.Request.Context(), in)
	if err != nil {
		respondClientError(c, err)
		return
	}
	utils.Success(c, 200, "Status query submitted", result)
}

// Reverse handles POST /v1/mpesa/reversal
func (h *OperationHandler) Reverse(c *gin.Context) {
	var in daraja.ReversalInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	result, err := h.operations.Reverse(c.Request.Context(), in)
	if err != nil {
		respondClientError(c, err)
		return
	}
	utils.Success(c, 200, "Reversal submitted", result)
}

// GenerateQR handles POST /v1/mpesa/qr
func (h *OperationHandler) GenerateQR(c *gin.Context) {
	var in daraja.QRInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	result, err := h.operations.GenerateQR(c.Request.Context(), in)
	if err != nil {
		respondClientError(c, err)
		return
	}
	utils.Success(c, 200, "QR code generated", result)
}

// GenerateToken handles POST /v1/mpesa/token
func (h *OperationHandler) GenerateToken(c *gin.Context) {
	result, err := h.operations.GenerateToken(c.Request.Context())
	if err != nil {
		respondClientError(c, err)
		return
	}
	utils.Success(c, 200, "Token generated", result)
}

// GetOperation handles GET /v1/operations/:id
func (h *OperationHandler) GetOperation(c *gin.Context) {
	rec, err := h.operations.GetOperation(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Error(c, 404, "OPERATION_NOT_FOUND", "No operation with that id")
			return
		}
		log.Error().Err(err).Msg("Failed to load operation")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load operation")
		return
	}
	utils.Success(c, 200, "Operation found", rec)
}

// ListOperations handles GET /v1/operations
func (h *OperationHandler) ListOperations(c *gin.Context) {
	recs, err := h.operations.ListOperations(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list operations")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to list operations")
		return
	}
	utils.Success(c, 200, "Operations listed", gin.H{
		"operations": recs,
		"count":      len(recs),
	})
}

// respondClientError maps client error types to HTTP responses.
func respondClientError(c *gin.Context, err error) {
	var (
		validationErr    *daraja.ValidationError
		configurationErr *daraja.ConfigurationError
		authErr          *daraja.AuthError
		networkErr       *daraja.NetworkError
		gatewayErr       *daraja.GatewayError
		decodingErr      *daraja.DecodingError
	)
	switch {
	case errors.As(err, &validationErr):
		utils.Error(c, 400, "VALIDATION_ERROR", validationErr.Error())
	case errors.As(err, &configurationErr):
		utils.Error(c, 422, "CONFIGURATION_ERROR", configurationErr.Error())
	case errors.As(err, &authErr):
		utils.Error(c, 502, "AUTH_ERROR", authErr.Error())
	case errors.As(err, &gatewayErr):
		utils.Error(c, 502, "GATEWAY_ERROR", gatewayErr.Error())
	case errors.As(err, &networkErr):
		utils.Error(c, 504, "NETWORK_ERROR", networkErr.Error())
	case errors.As(err, &decodingErr):
		utils.Error(c, 502, "DECODING_ERROR", decodingErr.Error())
	default:
		log.Error().Err(err).Msg("Unexpected operation error")
		utils.Error(c, 500, "INTERNAL_ERROR", "Unexpected error")
	}
}
