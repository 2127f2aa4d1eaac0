package refund

import (
	"github.com/payflow/server/internal/module/payment"
)

// PaymentLedger is the slice of the payment engine the refund engine
// depends on. Reservations keep concurrent refunds from jointly exceeding a
// payment's refundable balance while the provider call runs unlocked.
type PaymentLedger interface {
	// Get returns the payment by id.
	Get(id string) (*payment.Payment, error)

	// ReserveRefund validates refundability and reserves amount (nil means
	// the full remaining balance) under the payment's lock.
	ReserveRefund(paymentID string, amount *int64) (int64, *payment.Payment, error)

	// CommitRefund converts a reservation into refunded amount.
	CommitRefund(paymentID string, amount int64) error

	// ReleaseRefund drops a reservation, leaving the payment unmodified.
	ReleaseRefund(paymentID string, amount int64) error
}
