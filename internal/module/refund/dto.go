package refund

import (
	"encoding/json"
	"time"
)

// CreateRefundRequest represents a refund creation request. Amount is a
// decimal in major units; omitted means the full remaining refundable
// balance. Metadata stays local and is never sent to the provider.
type CreateRefundRequest struct {
	PaymentID string            `json:"payment_id" binding:"required"`
	Amount    *json.Number      `json:"amount"`
	Metadata  map[string]string `json:"metadata"`
}

// RefundResponse is the API projection of a refund.
type RefundResponse struct {
	ID        string            `json:"id"`
	PaymentID string            `json:"payment_id"`
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	Status    string            `json:"status"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// ToResponse converts a refund to its API projection.
func ToResponse(r *Refund) *RefundResponse {
	return &RefundResponse{
		ID:        r.ID,
		PaymentID: r.PaymentID,
		Amount:    r.Amount,
		Currency:  r.Currency,
		Status:    string(r.Status),
		Metadata:  r.Metadata,
		CreatedAt: r.CreatedAt,
	}
}
