package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gateway operation metrics.
var (
	OperationsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pesa_operations_submitted_total",
		Help: "Operations submitted to the gateway by kind",
	}, []string{"kind"})

	OperationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pesa_operation_failures_total",
		Help: "Failed operation submissions by kind and error class",
	}, []string{"kind", "error"})

	CallbacksReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pesa_callbacks_total",
		Help: "Inbound gateway callbacks by outcome",
	}, []string{"outcome"})

	PendingOperations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pesa_pending_operations",
		Help: "Operations currently awaiting a gateway callback",
	})

	StaleOperations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pesa_stale_pending_operations",
		Help: "Pending operations older than the configured stale age",
	})
)

// Callback outcome label values.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeTimedOut  = "timed_out"
	OutcomeDuplicate = "duplicate"
	OutcomeUnmatched = "unmatched"
)
