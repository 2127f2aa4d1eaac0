package payment

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/payflow/server/internal/module/payment/provider"
	apperrors "github.com/payflow/server/internal/shared/errors"
	"github.com/payflow/server/internal/store"
)

// Policy holds payment policy configuration.
type Policy struct {
	// GatewayTimeout bounds every provider call.
	GatewayTimeout time.Duration
	// AllowTestRefundProcessing permits refunds against test-mode payments
	// that are still processing.
	AllowTestRefundProcessing bool
}

// CreateParams holds the validated inputs for creating a payment. Amount is
// in minor units.
type CreateParams struct {
	Amount     int64
	Currency   string
	CustomerID string
	Metadata   map[string]string
	TestMode   bool
}

// Service drives the payment lifecycle. Transitions are only ever reported
// by the gateway or a webhook event; the service never invents one.
type Service struct {
	store   *store.Store[Payment]
	gateway provider.Gateway
	policy  Policy
	logger  *zap.Logger
}

// NewService creates a new payment service.
func NewService(st *store.Store[Payment], gateway provider.Gateway, policy Policy, logger *zap.Logger) *Service {
	if policy.GatewayTimeout <= 0 {
		policy.GatewayTimeout = 15 * time.Second
	}
	return &Service{
		store:   st,
		gateway: gateway,
		policy:  policy,
		logger:  logger,
	}
}

// Create validates the request and creates a payment intent at the provider.
// Test-mode payments auto-confirm with the provider's designated test payment
// method, collapsing the multi-step confirmation flow into the create call.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Payment, error) {
	if params.Amount <= 0 {
		return nil, apperrors.InvalidRequest("amount must be positive")
	}
	if !SupportedCurrency(params.Currency) {
		return nil, apperrors.InvalidRequest("unsupported currency: " + params.Currency)
	}

	ctx, cancel := context.WithTimeout(ctx, s.policy.GatewayTimeout)
	defer cancel()

	pi, err := s.gateway.CreatePaymentIntent(ctx, provider.CreateIntentParams{
		Amount:          params.Amount,
		Currency:        params.Currency,
		CustomerID:      params.CustomerID,
		Metadata:        params.Metadata,
		TestModeConfirm: params.TestMode,
	})
	if err != nil {
		return nil, provider.TranslateError(err)
	}

	status, ok := ParseStatus(pi.Status)
	if !ok {
		return nil, apperrors.Internal("gateway reported unknown payment status: "+pi.Status, nil)
	}

	p := Payment{
		ID:         pi.ID,
		Amount:     pi.Amount,
		Currency:   pi.Currency,
		Status:     status,
		TestMode:   params.TestMode,
		CustomerID: params.CustomerID,
		Metadata:   params.Metadata,
		CreatedAt:  time.Unix(pi.Created, 0).UTC(),
	}
	// Seed the observation baseline with the provider's creation time, not
	// the local clock: webhook events are ordered by the provider's
	// second-granularity timestamps, and a success event created in the
	// same second as the payment must not be dropped as stale.
	if err := s.store.Put(p.ID, p, p.CreatedAt); err != nil {
		return nil, apperrors.Internal("store payment", err)
	}

	s.logger.Info("payment created",
		zap.String("payment_id", p.ID),
		zap.Int64("amount", p.Amount),
		zap.String("currency", p.Currency),
		zap.String("status", string(p.Status)),
		zap.Bool("test_mode", p.TestMode),
	)
	return &p, nil
}

// Get returns a payment by id.
func (s *Service) Get(id string) (*Payment, error) {
	p, err := s.store.Get(id)
	if err != nil {
		return nil, apperrors.NotFound("payment")
	}
	return &p, nil
}

// List returns all payments in insertion order, optionally filtered by
// customer id.
func (s *Service) List(customerID string) []*Payment {
	all := s.store.List()
	out := make([]*Payment, 0, len(all))
	for i := range all {
		if customerID != "" && all[i].CustomerID != customerID {
			continue
		}
		out = append(out, &all[i])
	}
	return out
}

// GetLiveStatus fetches the payment's current status from the gateway and
// merges it into the stored record. The gateway is authoritative, but a
// terminal local status never regresses, and a concurrent webhook carrying a
// newer observation wins.
func (s *Service) GetLiveStatus(ctx context.Context, id string) (*Payment, error) {
	if _, err := s.store.Get(id); err != nil {
		return nil, apperrors.NotFound("payment")
	}

	ctx, cancel := context.WithTimeout(ctx, s.policy.GatewayTimeout)
	defer cancel()

	pi, err := s.gateway.RetrievePaymentIntent(ctx, id)
	if err != nil {
		return nil, provider.TranslateError(err)
	}

	status, ok := ParseStatus(pi.Status)
	if !ok {
		return nil, apperrors.Internal("gateway reported unknown payment status: "+pi.Status, nil)
	}

	observedAt := time.Now()
	snap, applied, err := s.store.Apply(id, observedAt, func(p *Payment) error {
		if p.Status.Terminal() && status != p.Status {
			s.logger.Info("ignoring live status for terminal payment",
				zap.String("payment_id", id),
				zap.String("status", string(p.Status)),
				zap.String("reported", string(status)),
			)
			return nil
		}
		p.Status = status
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("payment")
		}
		return nil, apperrors.Internal("sync payment status", err)
	}
	if !applied {
		s.logger.Debug("live status superseded by newer observation",
			zap.String("payment_id", id))
	}
	return &snap, nil
}

// ApplyStatus applies a webhook-reported status transition. eventTime orders
// the write against concurrent gateway reads; stale events are skipped.
// Transitions on terminal payments are ignored, not errors, because webhooks
// are delivered at least once.
func (s *Service) ApplyStatus(id string, reported string, eventTime time.Time) (bool, error) {
	status, ok := ParseStatus(reported)
	if !ok {
		return false, apperrors.InvalidRequest("unknown payment status: " + reported)
	}

	_, applied, err := s.store.Apply(id, eventTime, func(p *Payment) error {
		if p.Status.Terminal() && status != p.Status {
			s.logger.Info("ignoring transition for terminal payment",
				zap.String("payment_id", id),
				zap.String("status", string(p.Status)),
				zap.String("reported", string(status)),
			)
			return nil
		}
		p.Status = status
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, apperrors.NotFound("payment")
		}
		return false, apperrors.Internal("apply payment status", err)
	}
	return applied, nil
}

// ReserveRefund validates a refund request against the payment's state and
// remaining balance, then reserves the amount under the payment's lock. A nil
// amount means the full remaining balance. The reservation keeps concurrent
// refunds from jointly exceeding the refundable amount while the provider
// call runs unlocked; callers must follow with CommitRefund or
// ReleaseRefund.
func (s *Service) ReserveRefund(paymentID string, amount *int64) (int64, *Payment, error) {
	var reserved int64

	snap, err := s.store.Mutate(paymentID, func(p *Payment) error {
		if !p.Refundable(s.policy.AllowTestRefundProcessing) {
			return apperrors.InvalidState("payment is not refundable in status " + string(p.Status))
		}

		remaining := p.RemainingRefundable()
		amt := remaining
		if amount != nil {
			amt = *amount
		}
		if amt <= 0 {
			return apperrors.InvalidRequest("refund amount must be positive")
		}
		if amt > remaining {
			return apperrors.InvalidRequest("refund amount exceeds refundable balance")
		}

		p.ReservedAmount += amt
		reserved = amt
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, nil, apperrors.NotFound("payment")
		}
		return 0, nil, err
	}
	return reserved, &snap, nil
}

// CommitRefund converts a reservation into refunded amount after the
// provider confirmed the refund.
func (s *Service) CommitRefund(paymentID string, amount int64) error {
	_, err := s.store.Mutate(paymentID, func(p *Payment) error {
		p.ReservedAmount -= amount
		p.RefundedAmount += amount
		return nil
	})
	if err != nil {
		return apperrors.Internal("commit refund", err)
	}
	return nil
}

// ReleaseRefund drops a reservation after a failed provider call, leaving
// the payment as it was.
func (s *Service) ReleaseRefund(paymentID string, amount int64) error {
	_, err := s.store.Mutate(paymentID, func(p *Payment) error {
		p.ReservedAmount -= amount
		return nil
	})
	if err != nil {
		return apperrors.Internal("release refund reservation", err)
	}
	return nil
}
