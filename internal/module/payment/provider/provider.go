// Package provider defines the abstract payment gateway the lifecycle
// engines depend on, plus the concrete Stripe implementation.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// PaymentIntent represents a payment intent as reported by the provider.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Status       string
	CustomerID   string
	Metadata     map[string]string
	Created      int64 // Unix timestamp
}

// Refund represents a refund as reported by the provider.
type Refund struct {
	ID              string
	PaymentIntentID string
	Amount          int64
	Currency        string
	Status          string
	Created         int64
}

// Subscription represents a subscription as reported by the provider.
type Subscription struct {
	ID         string
	CustomerID string
	PriceID    string
	Status     string
	TrialEnd   int64 // Unix timestamp, 0 when no trial
	Created    int64
}

// Event is a verified webhook event. Object holds the raw JSON of the
// event's data object; callers decode only the fields they need.
type Event struct {
	ID      string
	Type    string
	Created int64
	Object  []byte
}

// CreateIntentParams holds the inputs for creating a payment intent.
// TestModeConfirm collapses the multi-step confirmation flow into the
// create call using the provider's designated test payment method.
type CreateIntentParams struct {
	Amount          int64
	Currency        string
	CustomerID      string
	Metadata        map[string]string
	TestModeConfirm bool
}

// Gateway is the capability the lifecycle engines consume. Implementations
// must return *Error values so engines can translate failures without
// inspecting provider-specific types.
type Gateway interface {
	// Name returns the provider name.
	Name() string

	CreatePaymentIntent(ctx context.Context, params CreateIntentParams) (*PaymentIntent, error)
	RetrievePaymentIntent(ctx context.Context, id string) (*PaymentIntent, error)

	// CreateRefund refunds amount minor units against a payment intent.
	// The provider's create call accepts no reason field; audit reasons
	// stay in local metadata.
	CreateRefund(ctx context.Context, paymentIntentID string, amount int64) (*Refund, error)

	// CreateSubscription creates a subscription, optionally with a trial
	// period in days.
	CreateSubscription(ctx context.Context, customerID, priceID string, trialDays int64) (*Subscription, error)

	// VerifyWebhookSignature verifies an inbound notification against the
	// pre-shared webhook secret and returns the parsed event. It must be
	// called before any part of the payload is trusted.
	VerifyWebhookSignature(payload []byte, signatureHeader string) (*Event, error)
}

// ErrorKind tags gateway failures so engines can map them onto the
// application error taxonomy without depending on provider error types.
type ErrorKind string

const (
	KindInvalidRequest ErrorKind = "invalid_request"
	KindCardDeclined   ErrorKind = "card_declined"
	KindAuth           ErrorKind = "authentication"
	KindRateLimited    ErrorKind = "rate_limited"
	KindTimeout        ErrorKind = "timeout"
	KindUnavailable    ErrorKind = "unavailable"
)

// Error is a tagged gateway error.
type Error struct {
	Kind    ErrorKind
	Code    string // provider error code, when available
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway %s (%s): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("gateway %s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying provider error.
func (e *Error) Unwrap() error { return e.Err }

// AsError extracts a gateway *Error, if err carries one.
func AsError(err error) (*Error, bool) {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr, true
	}
	return nil, false
}
