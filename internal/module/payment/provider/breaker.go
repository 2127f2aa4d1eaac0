package provider

import (
	"context"
	"errors"

	"github.com/sony/gobreaker/v2"
)

// BreakerGateway wraps a Gateway with a circuit breaker so a provider
// outage fails fast instead of tying up request handlers on timeouts.
// Signature verification is local computation and bypasses the breaker.
type BreakerGateway struct {
	inner Gateway
	cb    *gobreaker.CircuitBreaker[any]
}

// BreakerSettings configures the circuit breaker.
type BreakerSettings struct {
	FailureThreshold uint32
	MaxHalfOpenCalls uint32
}

// NewBreakerGateway wraps gateway with a circuit breaker.
func NewBreakerGateway(gateway Gateway, settings BreakerSettings) *BreakerGateway {
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = 5
	}
	if settings.MaxHalfOpenCalls == 0 {
		settings.MaxHalfOpenCalls = 1
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        gateway.Name(),
		MaxRequests: settings.MaxHalfOpenCalls,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// Rejections of a single request are not provider outages.
			if gerr, ok := AsError(err); ok {
				return gerr.Kind == KindInvalidRequest || gerr.Kind == KindCardDeclined
			}
			return false
		},
	})

	return &BreakerGateway{inner: gateway, cb: cb}
}

// Name returns the wrapped provider name.
func (b *BreakerGateway) Name() string { return b.inner.Name() }

func (b *BreakerGateway) CreatePaymentIntent(ctx context.Context, params CreateIntentParams) (*PaymentIntent, error) {
	out, err := execute(b.cb, func() (any, error) {
		return b.inner.CreatePaymentIntent(ctx, params)
	})
	if err != nil {
		return nil, err
	}
	return out.(*PaymentIntent), nil
}

func (b *BreakerGateway) RetrievePaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	out, err := execute(b.cb, func() (any, error) {
		return b.inner.RetrievePaymentIntent(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return out.(*PaymentIntent), nil
}

func (b *BreakerGateway) CreateRefund(ctx context.Context, paymentIntentID string, amount int64) (*Refund, error) {
	out, err := execute(b.cb, func() (any, error) {
		return b.inner.CreateRefund(ctx, paymentIntentID, amount)
	})
	if err != nil {
		return nil, err
	}
	return out.(*Refund), nil
}

func (b *BreakerGateway) CreateSubscription(ctx context.Context, customerID, priceID string, trialDays int64) (*Subscription, error) {
	out, err := execute(b.cb, func() (any, error) {
		return b.inner.CreateSubscription(ctx, customerID, priceID, trialDays)
	})
	if err != nil {
		return nil, err
	}
	return out.(*Subscription), nil
}

func (b *BreakerGateway) VerifyWebhookSignature(payload []byte, signatureHeader string) (*Event, error) {
	return b.inner.VerifyWebhookSignature(payload, signatureHeader)
}

func execute(cb *gobreaker.CircuitBreaker[any], fn func() (any, error)) (any, error) {
	out, err := cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &Error{Kind: KindUnavailable, Message: "provider circuit open", Err: err}
		}
		return nil, err
	}
	return out, nil
}
