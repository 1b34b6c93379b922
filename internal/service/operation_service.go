package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/PesaGate/pesa_api/internal/ledger"
	"github.com/PesaGate/pesa_api/internal/metrics"
	"github.com/PesaGate/pesa_api/internal/models"
	"github.com/PesaGate/pesa_api/pkg/daraja"
)

// OperationService submits gateway operations and records every acknowledged
// asynchronous submission in the ledger so the later callback can be
// correlated.
type OperationService struct {
	client *daraja.Client
	ledger *ledger.Ledger
}

// NewOperationService constructs an OperationService.
func NewOperationService(client *daraja.Client, lgr *ledger.Ledger) *OperationService {
	return &OperationService{client: client, ledger: lgr}
}

// SubmissionResult pairs a gateway acknowledgment with the ledger record
// created for it. Record is nil for synchronous operations.
type SubmissionResult[T any] struct {
	Response *T                    `json:"response"`
	Record   *models.PendingRecord `json:"operation,omitempty"`
}

// STKPush initiates a push payment and registers the pending operation keyed
// by the returned checkout request id.
func (s *OperationService) STKPush(ctx context.Context, in daraja.STKPushInput) (*SubmissionResult[daraja.STKPushResponse], error) {
	resp, err := s.client.STKPush(ctx, in)
	if err != nil {
		s.countFailure(models.KindSTKPush, err)
		return nil, err
	}
	metrics.OperationsSubmitted.WithLabelValues(string(models.KindSTKPush)).Inc()

	rec, err := s.ledger.Register(ctx, models.KindSTKPush, resp.CheckoutRequestID, resp.MerchantRequestID)
	if err != nil {
		// The gateway accepted the submission; surface the record failure but
		// keep the acknowledgment so the caller can still track manually.
		log.Error().Err(err).Str("checkout_request_id", resp.CheckoutRequestID).
			Msg("Failed to register pending STK push")
		return &SubmissionResult[daraja.STKPushResponse]{Response: resp}, nil
	}
	return &SubmissionResult[daraja.STKPushResponse]{Response: resp, Record: rec}, nil
}

// STKQuery queries a push payment synchronously. Nothing is registered.
func (s *OperationService) STKQuery(ctx context.Context, in daraja.STKQueryInput) (*daraja.STKQueryResponse, error) {
	resp, err := s.client.STKQuery(ctx, in)
	if err != nil {
		s.countFailure(models.KindSTKQuery, err)
		return nil, err
	}
	metrics.OperationsSubmitted.WithLabelValues(string(models.KindSTKQuery)).Inc()
	return resp, nil
}

// C2BRegister registers merchant callback URLs. Synchronous.
func (s *OperationService) C2BRegister(ctx context.Context, in daraja.C2BRegisterInput) (*daraja.AsyncResponse, error) {
	resp, err := s.client.C2BRegister(ctx, in)
	if err != nil {
		s.countFailure(models.KindC2BRegister, err)
		return nil, err
	}
	metrics.OperationsSubmitted.WithLabelValues(string(models.KindC2BRegister)).Inc()
	return resp, nil
}

// C2BSimulate simulates a customer payment (sandbox only) and registers the
// pending operation when the gateway returned a conversation id.
func (s *OperationService) C2BSimulate(ctx context.Context, in daraja.C2BSimulateInput) (*SubmissionResult[daraja.AsyncResponse], error) {
	return s.submitAsync(ctx, models.KindC2BSimulate, func() (*daraja.AsyncResponse, error) {
		return s.client.C2BSimulate(ctx, in)
	})
}

// B2C disburses money to a customer and registers the pending operation.
func (s *OperationService) B2C(ctx context.Context, in daraja.B2CInput) (*SubmissionResult[daraja.AsyncResponse], error) {
	return s.submitAsync(ctx, models.KindB2C, func() (*daraja.AsyncResponse, error) {
		return s.client.B2C(ctx, in)
	})
}

// B2B transfers money to another business and registers the pending operation.
func (s *OperationService) B2B(ctx context.Context, in daraja.B2BInput) (*SubmissionResult[daraja.AsyncResponse], error) {
	return s.submitAsync(ctx, models.KindB2B, func() (*daraja.AsyncResponse, error) {
		return s.client.B2B(ctx, in)
	})
}

// AccountBalance queries the account balance and registers the pending
// operation answering it.
func (s *OperationService) AccountBalance(ctx context.Context, in daraja.BalanceInput) (*SubmissionResult[daraja.AsyncResponse], error) {
	return s.submitAsync(ctx, models.KindBalance, func() (*daraja.AsyncResponse, error) {
		return s.client.AccountBalance(ctx, in)
	})
}

// TransactionStatus queries a transaction's status and registers the pending
// operation answering it.
func (s *OperationService) TransactionStatus(ctx context.Context, in daraja.StatusInput) (*SubmissionResult[daraja.AsyncResponse], error) {
	return s.submitAsync(ctx, models.KindStatus, func() (*daraja.AsyncResponse, error) {
		return s.client.TransactionStatus(ctx, in)
	})
}

// Reverse reverses a transaction and registers the pending operation.
func (s *OperationService) Reverse(ctx context.Context, in daraja.ReversalInput) (*SubmissionResult[daraja.AsyncResponse], error) {
	return s.submitAsync(ctx, models.KindReversal, func() (*daraja.AsyncResponse, error) {
		return s.client.Reverse(ctx, in)
	})
}

// GenerateQR generates a payment QR code. Synchronous.
func (s *OperationService) GenerateQR(ctx context.Context, in daraja.QRInput) (*daraja.QRResponse, error) {
	resp, err := s.client.GenerateQR(ctx, in)
	if err != nil {
		s.countFailure(models.KindQR, err)
		return nil, err
	}
	metrics.OperationsSubmitted.WithLabelValues(string(models.KindQR)).Inc()
	return resp, nil
}

// GenerateToken performs an explicit OAuth exchange. Synchronous.
func (s *OperationService) GenerateToken(ctx context.Context) (*daraja.TokenResponse, error) {
	resp, err := s.client.GenerateToken(ctx)
	if err != nil {
		s.countFailure(models.KindToken, err)
		return nil, err
	}
	metrics.OperationsSubmitted.WithLabelValues(string(models.KindToken)).Inc()
	return resp, nil
}

// GetOperation returns a ledger record by operation id.
func (s *OperationService) GetOperation(ctx context.Context, operationID string) (*models.PendingRecord, error) {
	return s.ledger.Get(ctx, operationID)
}

// ListOperations returns all ledger records with stale classification applied.
func (s *OperationService) ListOperations(ctx context.Context) ([]*models.PendingRecord, error) {
	return s.ledger.List(ctx)
}

// submitAsync runs one conversation-producing operation and registers its
// pending record.
func (s *OperationService) submitAsync(ctx context.Context, kind models.OperationKind, call func() (*daraja.AsyncResponse, error)) (*SubmissionResult[daraja.AsyncResponse], error) {
	resp, err := call()
	if err != nil {
		s.countFailure(kind, err)
		return nil, err
	}
	metrics.OperationsSubmitted.WithLabelValues(string(kind)).Inc()

	rec, err := s.ledger.Register(ctx, kind, resp.ConversationID, resp.OriginatorConversationID)
	if err != nil {
		log.Error().Err(err).Str("conversation_id", resp.ConversationID).Str("kind", string(kind)).
			Msg("Failed to register pending operation")
		return &SubmissionResult[daraja.AsyncResponse]{Response: resp}, nil
	}
	return &SubmissionResult[daraja.AsyncResponse]{Response: resp, Record: rec}, nil
}

func (s *OperationService) countFailure(kind models.OperationKind, err error) {
	metrics.OperationFailures.WithLabelValues(string(kind), ErrorClass(err)).Inc()
}

// ErrorClass buckets a client error for metrics and API error codes.
func ErrorClass(err error) string {
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
		return "validation"
	case errors.As(err, &configurationErr):
		return "configuration"
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &networkErr):
		return "network"
	case errors.As(err, &gatewayErr):
		return "gateway"
	case errors.As(err, &decodingErr):
		return "decoding"
	default:
		return "internal"
	}
}
