package subscription

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/payflow/server/internal/module/payment/provider"
	apperrors "github.com/payflow/server/internal/shared/errors"
	"github.com/payflow/server/internal/store"
)

// Service drives the subscription lifecycle. After creation, every status
// transition arrives via webhook; the service never advances a subscription
// on its own.
type Service struct {
	store          *store.Store[Subscription]
	gateway        provider.Gateway
	gatewayTimeout time.Duration
	logger         *zap.Logger
}

// NewService creates a new subscription service.
func NewService(st *store.Store[Subscription], gateway provider.Gateway, gatewayTimeout time.Duration, logger *zap.Logger) *Service {
	if gatewayTimeout <= 0 {
		gatewayTimeout = 15 * time.Second
	}
	return &Service{
		store:          st,
		gateway:        gateway,
		gatewayTimeout: gatewayTimeout,
		logger:         logger,
	}
}

// Create creates a subscription at the provider, optionally with a trial
// period in days, and stores it with whatever initial status the provider
// reports.
func (s *Service) Create(ctx context.Context, customerID, priceID string, trialDays int64) (*Subscription, error) {
	if customerID == "" {
		return nil, apperrors.InvalidRequest("customer_id is required")
	}
	if priceID == "" {
		return nil, apperrors.InvalidRequest("price_id is required")
	}
	if trialDays < 0 {
		return nil, apperrors.InvalidRequest("trial_period_days must not be negative")
	}

	ctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	ps, err := s.gateway.CreateSubscription(ctx, customerID, priceID, trialDays)
	if err != nil {
		return nil, provider.TranslateError(err)
	}

	status, ok := ParseStatus(ps.Status)
	if !ok {
		return nil, apperrors.Internal("gateway reported unknown subscription status: "+ps.Status, nil)
	}

	sub := Subscription{
		ID:         ps.ID,
		CustomerID: customerID,
		PriceID:    priceID,
		Status:     status,
		CreatedAt:  time.Unix(ps.Created, 0).UTC(),
	}
	if ps.TrialEnd > 0 {
		te := time.Unix(ps.TrialEnd, 0).UTC()
		sub.TrialEnd = &te
	}
	// The provider's creation time seeds the observation baseline so a
	// subscription event created in the same second is not dropped.
	if err := s.store.Put(sub.ID, sub, sub.CreatedAt); err != nil {
		return nil, apperrors.Internal("store subscription", err)
	}

	s.logger.Info("subscription created",
		zap.String("subscription_id", sub.ID),
		zap.String("customer_id", customerID),
		zap.String("price_id", priceID),
		zap.String("status", string(sub.Status)),
	)
	return &sub, nil
}

// Get returns a subscription by id.
func (s *Service) Get(id string) (*Subscription, error) {
	sub, err := s.store.Get(id)
	if err != nil {
		return nil, apperrors.NotFound("subscription")
	}
	return &sub, nil
}

// List returns all subscriptions in insertion order, optionally filtered by
// customer id.
func (s *Service) List(customerID string) []*Subscription {
	all := s.store.List()
	out := make([]*Subscription, 0, len(all))
	for i := range all {
		if customerID != "" && all[i].CustomerID != customerID {
			continue
		}
		out = append(out, &all[i])
	}
	return out
}

// ApplyStatus applies a webhook-reported status transition. eventTime orders
// the write; stale events are skipped. Transitions on canceled subscriptions
// are ignored, not errors.
func (s *Service) ApplyStatus(id string, reported string, eventTime time.Time) (bool, error) {
	status, ok := ParseStatus(reported)
	if !ok {
		return false, apperrors.InvalidRequest("unknown subscription status: " + reported)
	}

	_, applied, err := s.store.Apply(id, eventTime, func(sub *Subscription) error {
		if sub.Status.Terminal() && status != sub.Status {
			s.logger.Info("ignoring transition for canceled subscription",
				zap.String("subscription_id", id),
				zap.String("reported", string(status)),
			)
			return nil
		}
		sub.Status = status
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, apperrors.NotFound("subscription")
		}
		return false, apperrors.Internal("apply subscription status", err)
	}
	return applied, nil
}
