package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{
		"requires_payment_method", "requires_confirmation", "requires_action",
		"processing", "succeeded", "canceled", "failed",
	} {
		got, ok := ParseStatus(valid)
		assert.True(t, ok, valid)
		assert.Equal(t, Status(valid), got)
	}

	_, ok := ParseStatus("definitely_not_a_status")
	assert.False(t, ok)
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusSucceeded.Terminal())
	assert.True(t, StatusCanceled.Terminal())
	assert.True(t, StatusFailed.Terminal())

	assert.False(t, StatusRequiresPaymentMethod.Terminal())
	assert.False(t, StatusRequiresConfirmation.Terminal())
	assert.False(t, StatusRequiresAction.Terminal())
	assert.False(t, StatusProcessing.Terminal())
}

func TestRefundable(t *testing.T) {
	tests := []struct {
		name      string
		status    Status
		testMode  bool
		allowTest bool
		want      bool
	}{
		{"succeeded live", StatusSucceeded, false, false, true},
		{"succeeded test", StatusSucceeded, true, true, true},
		{"processing test with relaxed policy", StatusProcessing, true, true, true},
		{"processing test without relaxed policy", StatusProcessing, true, false, false},
		{"processing live", StatusProcessing, false, true, false},
		{"failed", StatusFailed, true, true, false},
		{"requires_confirmation", StatusRequiresConfirmation, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Payment{Status: tt.status, TestMode: tt.testMode}
			assert.Equal(t, tt.want, p.Refundable(tt.allowTest))
		})
	}
}

func TestRemainingRefundable(t *testing.T) {
	p := &Payment{Amount: 2000, RefundedAmount: 500, ReservedAmount: 300}
	assert.Equal(t, int64(1200), p.RemainingRefundable())
}
