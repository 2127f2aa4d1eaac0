package payment

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// currencyExponents lists the supported ISO 4217 codes with the number of
// minor-unit digits for each. Amounts cross the API boundary in decimal major
// units and are stored in minor units.
var currencyExponents = map[string]int{
	"usd": 2,
	"eur": 2,
	"gbp": 2,
	"aud": 2,
	"cad": 2,
	"chf": 2,
	"sgd": 2,
	"jpy": 0,
	"krw": 0,
}

// CreatePaymentRequest represents a payment creation request. Amount is a
// decimal in major units, accepted as either a JSON number or string.
type CreatePaymentRequest struct {
	Amount     json.Number       `json:"amount" binding:"required"`
	Currency   string            `json:"currency" binding:"required"`
	CustomerID string            `json:"customer_id"`
	Metadata   map[string]string `json:"metadata"`
	TestMode   bool              `json:"test_mode"`
}

// PaymentResponse is the API projection of a payment.
type PaymentResponse struct {
	ID             string            `json:"id"`
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Status         string            `json:"status"`
	TestMode       bool              `json:"test_mode"`
	CustomerID     string            `json:"customer_id,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	RefundedAmount int64             `json:"refunded_amount"`
	CreatedAt      time.Time         `json:"created_at"`
}

// ToResponse converts a payment to its API projection.
func ToResponse(p *Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:             p.ID,
		Amount:         p.Amount,
		Currency:       p.Currency,
		Status:         string(p.Status),
		TestMode:       p.TestMode,
		CustomerID:     p.CustomerID,
		Metadata:       p.Metadata,
		RefundedAmount: p.RefundedAmount,
		CreatedAt:      p.CreatedAt,
	}
}

// SupportedCurrency reports whether code is an accepted lowercase ISO 4217
// currency.
func SupportedCurrency(code string) bool {
	_, ok := currencyExponents[code]
	return ok
}

// ToMinorUnits converts a decimal major-unit amount to minor units without
// going through floating point, so "19.99" is exactly 1999 and never 1998.
func ToMinorUnits(amount json.Number, currency string) (int64, error) {
	exp, ok := currencyExponents[currency]
	if !ok {
		return 0, fmt.Errorf("unsupported currency %q", currency)
	}

	s := strings.TrimSpace(amount.String())
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	neg := false
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		s = s[1:]
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("malformed amount %q", amount)
	}
	if len(frac) > exp {
		return 0, fmt.Errorf("amount %q has more than %d decimal places for %s", amount, exp, currency)
	}
	frac += strings.Repeat("0", exp-len(frac))

	var minor int64
	for _, c := range whole + frac {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("malformed amount %q", amount)
		}
		d := int64(c - '0')
		if minor > (1<<62)/10 {
			return 0, fmt.Errorf("amount %q out of range", amount)
		}
		minor = minor*10 + d
	}
	if neg {
		minor = -minor
	}
	return minor, nil
}
