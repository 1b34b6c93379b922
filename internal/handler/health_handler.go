package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PesaGate/pesa_api/internal/service"
	"github.com/PesaGate/pesa_api/internal/utils"
	"github.com/PesaGate/pesa_api/pkg/daraja"
)

var startTime = time.Now()

// HealthHandler provides the health endpoint.
type HealthHandler struct {
	operations   *service.OperationService
	environment  daraja.Environment
	ledgerDriver string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(operations *service.OperationService, environment daraja.Environment, ledgerDriver string) *HealthHandler {
	return &HealthHandler{operations: operations, environment: environment, ledgerDriver: ledgerDriver}
}

// GetHealth responds with service status and a pending-operation snapshot.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ledgerStatus := "ok"
	var pending, stale int
	recs, err := h.operations.ListOperations(c.Request.Context())
	if err != nil {
		ledgerStatus = "unavailable"
	} else {
		for _, rec := range recs {
			if !rec.Status.Terminal() {
				pending++
				if rec.Stale {
					stale++
				}
			}
		}
	}

	utils.Success(c, 200, "Service is healthy", gin.H{
		"status":      "healthy",
		"version":     "1.0.0",
		"uptime":      int(time.Since(startTime).Seconds()),
		"environment": string(h.environment),
		"ledger": gin.H{
			"driver":  h.ledgerDriver,
			"status":  ledgerStatus,
			"pending": pending,
			"stale":   stale,
		},
	})
}
