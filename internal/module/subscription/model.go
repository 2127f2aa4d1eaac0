package subscription

import "time"

// Status represents the status of a subscription.
type Status string

const (
	StatusIncomplete Status = "incomplete"
	StatusTrialing   Status = "trialing"
	StatusActive     Status = "active"
	StatusPastDue    Status = "past_due"
	StatusCanceled   Status = "canceled"
	StatusUnpaid     Status = "unpaid"
)

// ParseStatus validates a provider-reported subscription status string.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusIncomplete, StatusTrialing, StatusActive, StatusPastDue,
		StatusCanceled, StatusUnpaid:
		return Status(s), true
	}
	return "", false
}

// Terminal reports whether the status admits no further transition.
func (s Status) Terminal() bool {
	return s == StatusCanceled
}

// Subscription represents a recurring subscription at the provider.
type Subscription struct {
	ID         string     `json:"id"`
	CustomerID string     `json:"customer_id"`
	PriceID    string     `json:"price_id"`
	Status     Status     `json:"status"`
	TrialEnd   *time.Time `json:"trial_end,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
