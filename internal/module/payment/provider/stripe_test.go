package provider

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

func TestWrapStripeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind ErrorKind
	}{
		{
			name: "card declined",
			err:  &stripe.Error{Type: stripe.ErrorTypeCard, Code: stripe.ErrorCodeCardDeclined, Msg: "card declined"},
			kind: KindCardDeclined,
		},
		{
			name: "invalid request",
			err:  &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, HTTPStatusCode: http.StatusBadRequest, Msg: "no such payment_intent"},
			kind: KindInvalidRequest,
		},
		{
			name: "bad api key",
			err:  &stripe.Error{Type: stripe.ErrorTypeAPI, HTTPStatusCode: http.StatusUnauthorized, Msg: "invalid api key"},
			kind: KindAuth,
		},
		{
			name: "rate limited",
			err:  &stripe.Error{Type: stripe.ErrorTypeAPI, HTTPStatusCode: http.StatusTooManyRequests, Msg: "too many requests"},
			kind: KindRateLimited,
		},
		{
			name: "api error",
			err:  &stripe.Error{Type: stripe.ErrorTypeAPI, HTTPStatusCode: http.StatusInternalServerError, Msg: "server error"},
			kind: KindUnavailable,
		},
		{
			name: "plain error",
			err:  errors.New("connection refused"),
			kind: KindUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := wrapStripeError(context.Background(), "create payment intent", tt.err)
			gerr, ok := AsError(wrapped)
			require.True(t, ok)
			assert.Equal(t, tt.kind, gerr.Kind)
			assert.ErrorIs(t, wrapped, tt.err)
		})
	}
}

func TestWrapStripeErrorTimeout(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	<-ctx.Done()

	wrapped := wrapStripeError(ctx, "retrieve payment intent", ctx.Err())
	gerr, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindTimeout, gerr.Kind)

	// A timeout buried under a stripe transport error still maps to timeout.
	wrapped = wrapStripeError(context.Background(), "create refund", context.DeadlineExceeded)
	gerr, ok = AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindTimeout, gerr.Kind)
}
