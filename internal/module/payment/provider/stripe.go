package provider

import (
	"context"
	"errors"
	"net/http"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
	"github.com/stripe/stripe-go/v76/subscription"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	// testPaymentMethod is Stripe's always-succeeding test card token, used
	// when a test-mode create auto-confirms.
	testPaymentMethod = "pm_card_visa"
	// testReturnURL satisfies Stripe's return_url requirement on confirmed
	// creates; test-mode payments never redirect.
	testReturnURL = "https://example.com/return"
)

// StripeGateway implements Gateway against the Stripe API.
type StripeGateway struct {
	webhookSecret string
}

// StripeConfig holds Stripe configuration.
type StripeConfig struct {
	APIKey        string
	WebhookSecret string
}

// NewStripeGateway creates a new Stripe gateway.
func NewStripeGateway(config *StripeConfig) *StripeGateway {
	stripe.Key = config.APIKey
	return &StripeGateway{
		webhookSecret: config.WebhookSecret,
	}
}

// Name returns the provider name.
func (g *StripeGateway) Name() string {
	return "stripe"
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, p CreateIntentParams) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(p.Amount),
		Currency: stripe.String(p.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if p.CustomerID != "" {
		params.Customer = stripe.String(p.CustomerID)
	}
	if len(p.Metadata) > 0 {
		params.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			params.Metadata[k] = v
		}
	}
	if p.TestModeConfirm {
		params.Confirm = stripe.Bool(true)
		params.PaymentMethod = stripe.String(testPaymentMethod)
		params.ReturnURL = stripe.String(testReturnURL)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, wrapStripeError(ctx, "create payment intent", err)
	}
	return mapStripePaymentIntent(pi), nil
}

func (g *StripeGateway) RetrievePaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{Params: stripe.Params{Context: ctx}}
	pi, err := paymentintent.Get(id, params)
	if err != nil {
		return nil, wrapStripeError(ctx, "retrieve payment intent", err)
	}
	return mapStripePaymentIntent(pi), nil
}

func (g *StripeGateway) CreateRefund(ctx context.Context, paymentIntentID string, amount int64) (*Refund, error) {
	params := &stripe.RefundParams{
		Params:        stripe.Params{Context: ctx},
		PaymentIntent: stripe.String(paymentIntentID),
	}
	if amount > 0 {
		params.Amount = stripe.Int64(amount)
	}

	r, err := refund.New(params)
	if err != nil {
		return nil, wrapStripeError(ctx, "create refund", err)
	}

	out := &Refund{
		ID:       r.ID,
		Amount:   r.Amount,
		Currency: string(r.Currency),
		Status:   string(r.Status),
		Created:  r.Created,
	}
	if r.PaymentIntent != nil {
		out.PaymentIntentID = r.PaymentIntent.ID
	}
	return out, nil
}

func (g *StripeGateway) CreateSubscription(ctx context.Context, customerID, priceID string, trialDays int64) (*Subscription, error) {
	params := &stripe.SubscriptionParams{
		Params:   stripe.Params{Context: ctx},
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
	}
	if trialDays > 0 {
		params.TrialPeriodDays = stripe.Int64(trialDays)
	}

	sub, err := subscription.New(params)
	if err != nil {
		return nil, wrapStripeError(ctx, "create subscription", err)
	}

	out := &Subscription{
		ID:       sub.ID,
		Status:   string(sub.Status),
		TrialEnd: sub.TrialEnd,
		Created:  sub.Created,
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		out.PriceID = sub.Items.Data[0].Price.ID
	}
	return out, nil
}

func (g *StripeGateway) VerifyWebhookSignature(payload []byte, signatureHeader string) (*Event, error) {
	ev, err := webhook.ConstructEvent(payload, signatureHeader, g.webhookSecret)
	if err != nil {
		return nil, &Error{Kind: KindAuth, Message: "webhook signature verification failed", Err: err}
	}
	return &Event{
		ID:      ev.ID,
		Type:    string(ev.Type),
		Created: ev.Created,
		Object:  ev.Data.Raw,
	}, nil
}

// --- Helpers ---

func mapStripePaymentIntent(pi *stripe.PaymentIntent) *PaymentIntent {
	out := &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		Metadata:     pi.Metadata,
		Created:      pi.Created,
	}
	if pi.Customer != nil {
		out.CustomerID = pi.Customer.ID
	}
	return out
}

// wrapStripeError maps Stripe's exception taxonomy onto tagged gateway
// error kinds. Raw stripe errors never cross the gateway boundary.
func wrapStripeError(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: op + " timed out", Err: err}
	}

	var serr *stripe.Error
	if errors.As(err, &serr) {
		// Auth and rate-limit failures arrive as generic API errors; the
		// HTTP status is what distinguishes them.
		kind := KindUnavailable
		switch {
		case serr.Type == stripe.ErrorTypeCard:
			kind = KindCardDeclined
		case serr.HTTPStatusCode == http.StatusUnauthorized:
			kind = KindAuth
		case serr.HTTPStatusCode == http.StatusTooManyRequests:
			kind = KindRateLimited
		case serr.Type == stripe.ErrorTypeInvalidRequest:
			kind = KindInvalidRequest
		}
		return &Error{Kind: kind, Code: string(serr.Code), Message: serr.Msg, Err: err}
	}

	return &Error{Kind: KindUnavailable, Message: op + " failed", Err: err}
}
