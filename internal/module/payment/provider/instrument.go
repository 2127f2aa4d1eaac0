package provider

import (
	"context"
	"time"

	"github.com/payflow/server/internal/shared/metrics"
)

// InstrumentedGateway records call counts and latency for every gateway
// operation. Wrap the breaker with it so circuit rejections are visible too.
type InstrumentedGateway struct {
	inner   Gateway
	metrics *metrics.Metrics
}

// NewInstrumentedGateway wraps gateway with metrics recording.
func NewInstrumentedGateway(gateway Gateway, m *metrics.Metrics) *InstrumentedGateway {
	return &InstrumentedGateway{inner: gateway, metrics: m}
}

// Name returns the wrapped provider name.
func (g *InstrumentedGateway) Name() string { return g.inner.Name() }

func (g *InstrumentedGateway) CreatePaymentIntent(ctx context.Context, params CreateIntentParams) (*PaymentIntent, error) {
	start := time.Now()
	pi, err := g.inner.CreatePaymentIntent(ctx, params)
	g.metrics.RecordGatewayCall("create_payment_intent", outcome(err), time.Since(start))
	return pi, err
}

func (g *InstrumentedGateway) RetrievePaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	start := time.Now()
	pi, err := g.inner.RetrievePaymentIntent(ctx, id)
	g.metrics.RecordGatewayCall("retrieve_payment_intent", outcome(err), time.Since(start))
	return pi, err
}

func (g *InstrumentedGateway) CreateRefund(ctx context.Context, paymentIntentID string, amount int64) (*Refund, error) {
	start := time.Now()
	r, err := g.inner.CreateRefund(ctx, paymentIntentID, amount)
	g.metrics.RecordGatewayCall("create_refund", outcome(err), time.Since(start))
	return r, err
}

func (g *InstrumentedGateway) CreateSubscription(ctx context.Context, customerID, priceID string, trialDays int64) (*Subscription, error) {
	start := time.Now()
	sub, err := g.inner.CreateSubscription(ctx, customerID, priceID, trialDays)
	g.metrics.RecordGatewayCall("create_subscription", outcome(err), time.Since(start))
	return sub, err
}

func (g *InstrumentedGateway) VerifyWebhookSignature(payload []byte, signatureHeader string) (*Event, error) {
	return g.inner.VerifyWebhookSignature(payload, signatureHeader)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if gerr, ok := AsError(err); ok && gerr.Kind == KindTimeout {
		return "timeout"
	}
	return "error"
}
