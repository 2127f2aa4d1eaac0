package refund

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/payflow/server/internal/module/payment"
	"github.com/payflow/server/internal/module/payment/provider"
	apperrors "github.com/payflow/server/internal/shared/errors"
	"github.com/payflow/server/internal/store"
)

// Service drives the refund lifecycle against the owning payment.
type Service struct {
	store          *store.Store[Refund]
	ledger         PaymentLedger
	gateway        provider.Gateway
	gatewayTimeout time.Duration
	logger         *zap.Logger
}

// NewService creates a new refund service.
func NewService(st *store.Store[Refund], ledger PaymentLedger, gateway provider.Gateway, gatewayTimeout time.Duration, logger *zap.Logger) *Service {
	if gatewayTimeout <= 0 {
		gatewayTimeout = 15 * time.Second
	}
	return &Service{
		store:          st,
		ledger:         ledger,
		gateway:        gateway,
		gatewayTimeout: gatewayTimeout,
		logger:         logger,
	}
}

// Create refunds amount (decimal major units; nil means the full remaining
// refundable balance) against a payment. The amount is reserved on the
// payment before the provider call and committed only on success, so the
// payment's refunded_amount can never exceed its amount under concurrent
// requests. A provider failure leaves the payment unmodified and records the
// refund with status failed.
func (s *Service) Create(ctx context.Context, paymentID string, amount *json.Number, metadata map[string]string) (*Refund, error) {
	p, err := s.ledger.Get(paymentID)
	if err != nil {
		return nil, err
	}

	var minor *int64
	if amount != nil {
		m, err := payment.ToMinorUnits(*amount, p.Currency)
		if err != nil {
			return nil, apperrors.InvalidRequest(err.Error())
		}
		minor = &m
	}

	reserved, p, err := s.ledger.ReserveRefund(paymentID, minor)
	if err != nil {
		return nil, err
	}

	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	pr, err := s.gateway.CreateRefund(gctx, paymentID, reserved)
	if err != nil {
		if rerr := s.ledger.ReleaseRefund(paymentID, reserved); rerr != nil {
			s.logger.Error("failed to release refund reservation",
				zap.Error(rerr), zap.String("payment_id", paymentID))
		}
		failed := s.recordFailed(paymentID, reserved, p.Currency, metadata)
		s.logger.Warn("refund rejected by provider",
			zap.Error(err),
			zap.String("payment_id", paymentID),
			zap.String("refund_id", failed.ID),
		)
		return nil, provider.TranslateError(err)
	}

	status, ok := ParseStatus(pr.Status)
	if !ok {
		status = StatusPending
	}
	if status == StatusFailed {
		if rerr := s.ledger.ReleaseRefund(paymentID, reserved); rerr != nil {
			s.logger.Error("failed to release refund reservation",
				zap.Error(rerr), zap.String("payment_id", paymentID))
		}
	} else {
		if cerr := s.ledger.CommitRefund(paymentID, reserved); cerr != nil {
			return nil, cerr
		}
	}

	r := Refund{
		ID:        pr.ID,
		PaymentID: paymentID,
		Amount:    reserved,
		Currency:  p.Currency,
		Status:    status,
		Metadata:  metadata,
		CreatedAt: time.Unix(pr.Created, 0).UTC(),
	}
	if err := s.store.Put(r.ID, r, r.CreatedAt); err != nil {
		return nil, apperrors.Internal("store refund", err)
	}

	s.logger.Info("refund created",
		zap.String("refund_id", r.ID),
		zap.String("payment_id", paymentID),
		zap.Int64("amount", r.Amount),
		zap.String("status", string(r.Status)),
	)
	return &r, nil
}

// Get returns a refund by id.
func (s *Service) Get(id string) (*Refund, error) {
	r, err := s.store.Get(id)
	if err != nil {
		return nil, apperrors.NotFound("refund")
	}
	return &r, nil
}

// List returns all refunds in insertion order, optionally filtered by
// payment id.
func (s *Service) List(paymentID string) []*Refund {
	all := s.store.List()
	out := make([]*Refund, 0, len(all))
	for i := range all {
		if paymentID != "" && all[i].PaymentID != paymentID {
			continue
		}
		out = append(out, &all[i])
	}
	return out
}

// recordFailed stores a failed refund under a locally-generated id; the
// provider never issued one.
func (s *Service) recordFailed(paymentID string, amount int64, currency string, metadata map[string]string) *Refund {
	r := Refund{
		ID:        "re_local_" + uuid.NewString(),
		PaymentID: paymentID,
		Amount:    amount,
		Currency:  currency,
		Status:    StatusFailed,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Put(r.ID, r, time.Now()); err != nil {
		s.logger.Error("failed to store failed refund", zap.Error(err))
	}
	return &r
}
