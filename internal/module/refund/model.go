package refund

import "time"

// Status represents the status of a refund.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// ParseStatus validates a provider-reported refund status string.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusSucceeded, StatusFailed:
		return Status(s), true
	}
	return "", false
}

// Refund represents a refund against a payment. Metadata is local-only audit
// information and is never forwarded to the provider, whose refund-creation
// call accepts no reason field.
type Refund struct {
	ID        string            `json:"id"`
	PaymentID string            `json:"payment_id"`
	Amount    int64             `json:"amount"` // In minor units
	Currency  string            `json:"currency"`
	Status    Status            `json:"status"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
