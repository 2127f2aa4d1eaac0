package subscription

import "time"

// CreateSubscriptionRequest represents a subscription creation request.
type CreateSubscriptionRequest struct {
	CustomerID      string `json:"customer_id" binding:"required"`
	PriceID         string `json:"price_id" binding:"required"`
	TrialPeriodDays int64  `json:"trial_period_days"`
}

// SubscriptionResponse is the API projection of a subscription.
type SubscriptionResponse struct {
	ID         string     `json:"id"`
	CustomerID string     `json:"customer_id"`
	PriceID    string     `json:"price_id"`
	Status     string     `json:"status"`
	TrialEnd   *time.Time `json:"trial_end,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ToResponse converts a subscription to its API projection.
func ToResponse(s *Subscription) *SubscriptionResponse {
	return &SubscriptionResponse{
		ID:         s.ID,
		CustomerID: s.CustomerID,
		PriceID:    s.PriceID,
		Status:     string(s.Status),
		TrialEnd:   s.TrialEnd,
		CreatedAt:  s.CreatedAt,
	}
}
