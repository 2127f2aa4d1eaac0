package payment

import "time"

// Status represents the status of a payment intent.
type Status string

const (
	StatusRequiresPaymentMethod Status = "requires_payment_method"
	StatusRequiresConfirmation  Status = "requires_confirmation"
	StatusRequiresAction        Status = "requires_action"
	StatusProcessing            Status = "processing"
	StatusSucceeded             Status = "succeeded"
	StatusCanceled              Status = "canceled"
	StatusFailed                Status = "failed"
)

// ParseStatus validates a provider-reported status string.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusRequiresPaymentMethod, StatusRequiresConfirmation, StatusRequiresAction,
		StatusProcessing, StatusSucceeded, StatusCanceled, StatusFailed:
		return Status(s), true
	}
	return "", false
}

// Terminal reports whether the status admits no further transition.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusCanceled || s == StatusFailed
}

// Payment represents a payment tracked against the provider.
type Payment struct {
	ID         string            `json:"id"`
	Amount     int64             `json:"amount"` // In minor units (cents)
	Currency   string            `json:"currency"`
	Status     Status            `json:"status"`
	TestMode   bool              `json:"test_mode"`
	CustomerID string            `json:"customer_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`

	// RefundedAmount is the running total of successfully refunded minor
	// units. Invariant: 0 <= RefundedAmount <= Amount.
	RefundedAmount int64 `json:"refunded_amount"`

	// ReservedAmount covers refunds accepted but not yet confirmed by the
	// provider, so concurrent refunds cannot jointly exceed the balance.
	// Never serialized; it is a bookkeeping value, not payment state.
	ReservedAmount int64 `json:"-"`
}

// Refundable reports whether a refund may be created against the payment.
// Test-mode payments still processing are refundable only when the relaxed
// policy is enabled.
func (p *Payment) Refundable(allowTestProcessing bool) bool {
	if p.Status == StatusSucceeded {
		return true
	}
	return allowTestProcessing && p.TestMode && p.Status == StatusProcessing
}

// RemainingRefundable returns the amount still available to refund, net of
// in-flight reservations.
func (p *Payment) RemainingRefundable() int64 {
	return p.Amount - p.RefundedAmount - p.ReservedAmount
}
