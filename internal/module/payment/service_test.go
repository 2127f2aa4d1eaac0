package payment

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/payflow/server/internal/module/payment/provider"
	apperrors "github.com/payflow/server/internal/shared/errors"
	"github.com/payflow/server/internal/store"
)

// fakeGateway is a func-based Gateway stub.
type fakeGateway struct {
	mu            sync.Mutex
	intents       int
	createFunc    func(ctx context.Context, params provider.CreateIntentParams) (*provider.PaymentIntent, error)
	retrieveFunc  func(ctx context.Context, id string) (*provider.PaymentIntent, error)
	refundFunc    func(ctx context.Context, paymentIntentID string, amount int64) (*provider.Refund, error)
	subscribeFunc func(ctx context.Context, customerID, priceID string, trialDays int64) (*provider.Subscription, error)
}

func (f *fakeGateway) Name() string { return "fake" }

func (f *fakeGateway) CreatePaymentIntent(ctx context.Context, params provider.CreateIntentParams) (*provider.PaymentIntent, error) {
	if f.createFunc != nil {
		return f.createFunc(ctx, params)
	}
	f.mu.Lock()
	f.intents++
	n := f.intents
	f.mu.Unlock()

	status := "requires_confirmation"
	if params.TestModeConfirm {
		status = "succeeded"
	}
	return &provider.PaymentIntent{
		ID:         fmt.Sprintf("pi_%d", n),
		Amount:     params.Amount,
		Currency:   params.Currency,
		Status:     status,
		CustomerID: params.CustomerID,
		Metadata:   params.Metadata,
		Created:    time.Now().Unix(),
	}, nil
}

func (f *fakeGateway) RetrievePaymentIntent(ctx context.Context, id string) (*provider.PaymentIntent, error) {
	if f.retrieveFunc != nil {
		return f.retrieveFunc(ctx, id)
	}
	return nil, &provider.Error{Kind: provider.KindInvalidRequest, Message: "no such payment intent"}
}

func (f *fakeGateway) CreateRefund(ctx context.Context, paymentIntentID string, amount int64) (*provider.Refund, error) {
	if f.refundFunc != nil {
		return f.refundFunc(ctx, paymentIntentID, amount)
	}
	return &provider.Refund{
		ID:              "re_1",
		PaymentIntentID: paymentIntentID,
		Amount:          amount,
		Status:          "succeeded",
		Created:         time.Now().Unix(),
	}, nil
}

func (f *fakeGateway) CreateSubscription(ctx context.Context, customerID, priceID string, trialDays int64) (*provider.Subscription, error) {
	if f.subscribeFunc != nil {
		return f.subscribeFunc(ctx, customerID, priceID, trialDays)
	}
	return nil, &provider.Error{Kind: provider.KindUnavailable, Message: "not implemented"}
}

func (f *fakeGateway) VerifyWebhookSignature(payload []byte, signatureHeader string) (*provider.Event, error) {
	return nil, &provider.Error{Kind: provider.KindAuth, Message: "not implemented"}
}

func newTestService(gw provider.Gateway) *Service {
	return NewService(store.New[Payment](), gw, Policy{
		GatewayTimeout:            time.Second,
		AllowTestRefundProcessing: true,
	}, zap.NewNop())
}

func TestCreateTestModeAutoConfirms(t *testing.T) {
	svc := newTestService(&fakeGateway{})

	p, err := svc.Create(context.Background(), CreateParams{
		Amount:   2000,
		Currency: "eur",
		TestMode: true,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, p.Status)

	got, err := svc.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, got.Status)
}

func TestCreateLiveModeDoesNotAutoAdvance(t *testing.T) {
	gw := &fakeGateway{}
	gw.retrieveFunc = func(ctx context.Context, id string) (*provider.PaymentIntent, error) {
		return &provider.PaymentIntent{ID: id, Status: "requires_confirmation"}, nil
	}
	svc := newTestService(gw)

	p, err := svc.Create(context.Background(), CreateParams{
		Amount:   1000,
		Currency: "usd",
		TestMode: false,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusRequiresConfirmation, p.Status)

	live, err := svc.GetLiveStatus(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRequiresConfirmation, live.Status)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(&fakeGateway{})

	_, err := svc.Create(context.Background(), CreateParams{Amount: 0, Currency: "usd"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	_, err = svc.Create(context.Background(), CreateParams{Amount: -100, Currency: "usd"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	_, err = svc.Create(context.Background(), CreateParams{Amount: 1000, Currency: "doge"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
}

func TestCreateGatewayTimeout(t *testing.T) {
	gw := &fakeGateway{}
	gw.createFunc = func(ctx context.Context, params provider.CreateIntentParams) (*provider.PaymentIntent, error) {
		return nil, &provider.Error{Kind: provider.KindTimeout, Message: "create payment intent timed out"}
	}
	svc := newTestService(gw)

	_, err := svc.Create(context.Background(), CreateParams{Amount: 1000, Currency: "usd"})
	assert.ErrorIs(t, err, apperrors.ErrUpstreamTimeout)
	assert.Empty(t, svc.List(""))
}

func TestGetUnknownPayment(t *testing.T) {
	svc := newTestService(&fakeGateway{})
	_, err := svc.Get("pi_missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListFiltersByCustomer(t *testing.T) {
	svc := newTestService(&fakeGateway{})

	for _, cust := range []string{"cus_a", "cus_b", "cus_a"} {
		_, err := svc.Create(context.Background(), CreateParams{
			Amount:     1000,
			Currency:   "usd",
			CustomerID: cust,
			TestMode:   true,
		})
		require.NoError(t, err)
	}

	assert.Len(t, svc.List(""), 3)
	assert.Len(t, svc.List("cus_a"), 2)
	assert.Len(t, svc.List("cus_b"), 1)
	assert.Empty(t, svc.List("cus_c"))
}

func TestGetLiveStatusNeverRegressesTerminal(t *testing.T) {
	gw := &fakeGateway{}
	gw.retrieveFunc = func(ctx context.Context, id string) (*provider.PaymentIntent, error) {
		return &provider.PaymentIntent{ID: id, Status: "processing"}, nil
	}
	svc := newTestService(gw)

	p, err := svc.Create(context.Background(), CreateParams{
		Amount:   2000,
		Currency: "eur",
		TestMode: true,
	})
	require.NoError(t, err)
	require.Equal(t, StatusSucceeded, p.Status)

	live, err := svc.GetLiveStatus(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, live.Status)
}

func TestApplyStatusIdempotent(t *testing.T) {
	svc := newTestService(&fakeGateway{})

	p, err := svc.Create(context.Background(), CreateParams{
		Amount:   1000,
		Currency: "usd",
	})
	require.NoError(t, err)

	eventTime := time.Now().Add(time.Second)
	applied, err := svc.ApplyStatus(p.ID, "succeeded", eventTime)
	require.NoError(t, err)
	assert.True(t, applied)

	// Redelivery of the same event changes nothing and raises no error.
	_, err = svc.ApplyStatus(p.ID, "succeeded", eventTime)
	require.NoError(t, err)

	got, err := svc.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, got.Status)
}

func TestApplyStatusAtCreationSecondApplies(t *testing.T) {
	svc := newTestService(&fakeGateway{})

	p, err := svc.Create(context.Background(), CreateParams{
		Amount:   1000,
		Currency: "usd",
	})
	require.NoError(t, err)
	require.Equal(t, StatusRequiresConfirmation, p.Status)

	// Provider event timestamps have second granularity: a success event
	// created in the same second as the payment must still land.
	applied, err := svc.ApplyStatus(p.ID, "succeeded", p.CreatedAt)
	require.NoError(t, err)
	assert.True(t, applied)

	got, err := svc.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, got.Status)
}

func TestApplyStatusStaleEventSkipped(t *testing.T) {
	svc := newTestService(&fakeGateway{})

	p, err := svc.Create(context.Background(), CreateParams{
		Amount:   1000,
		Currency: "usd",
	})
	require.NoError(t, err)

	base := time.Now().Add(time.Minute)
	applied, err := svc.ApplyStatus(p.ID, "succeeded", base)
	require.NoError(t, err)
	require.True(t, applied)

	// A delayed webhook for an earlier state must not overwrite.
	applied, err = svc.ApplyStatus(p.ID, "processing", base.Add(-30*time.Second))
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := svc.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, got.Status)
}

func TestApplyStatusUnknownPayment(t *testing.T) {
	svc := newTestService(&fakeGateway{})
	_, err := svc.ApplyStatus("pi_missing", "succeeded", time.Now())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestReserveCommitRefund(t *testing.T) {
	svc := newTestService(&fakeGateway{})

	p, err := svc.Create(context.Background(), CreateParams{
		Amount:   2000,
		Currency: "eur",
		TestMode: true,
	})
	require.NoError(t, err)

	// Omitted amount defaults to the full remaining balance.
	reserved, _, err := svc.ReserveRefund(p.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), reserved)

	require.NoError(t, svc.CommitRefund(p.ID, reserved))

	got, err := svc.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), got.RefundedAmount)

	// Nothing left to refund.
	_, _, err = svc.ReserveRefund(p.ID, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
}

func TestReserveRefundValidation(t *testing.T) {
	svc := newTestService(&fakeGateway{})

	p, err := svc.Create(context.Background(), CreateParams{
		Amount:   2000,
		Currency: "eur",
		TestMode: true,
	})
	require.NoError(t, err)

	over := int64(2500)
	_, _, err = svc.ReserveRefund(p.ID, &over)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	neg := int64(-5)
	_, _, err = svc.ReserveRefund(p.ID, &neg)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	got, err := svc.Get(p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.RefundedAmount)
}

func TestReserveRefundNotRefundableState(t *testing.T) {
	svc := newTestService(&fakeGateway{})

	p, err := svc.Create(context.Background(), CreateParams{
		Amount:   1000,
		Currency: "usd",
	})
	require.NoError(t, err)
	require.Equal(t, StatusRequiresConfirmation, p.Status)

	_, _, err = svc.ReserveRefund(p.ID, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestReleaseRefundRestoresBalance(t *testing.T) {
	svc := newTestService(&fakeGateway{})

	p, err := svc.Create(context.Background(), CreateParams{
		Amount:   2000,
		Currency: "eur",
		TestMode: true,
	})
	require.NoError(t, err)

	amt := int64(1500)
	reserved, _, err := svc.ReserveRefund(p.ID, &amt)
	require.NoError(t, err)
	require.NoError(t, svc.ReleaseRefund(p.ID, reserved))

	// Full balance is available again.
	reserved, _, err = svc.ReserveRefund(p.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), reserved)
}

func TestConcurrentReservationsNeverOversell(t *testing.T) {
	svc := newTestService(&fakeGateway{})

	p, err := svc.Create(context.Background(), CreateParams{
		Amount:   2000,
		Currency: "eur",
		TestMode: true,
	})
	require.NoError(t, err)

	// Each fits alone; together they exceed the balance.
	const workers = 2
	amt := int64(1500)
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reserved, _, err := svc.ReserveRefund(p.ID, &amt)
			if err == nil {
				err = svc.CommitRefund(p.ID, reserved)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, failed int
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
			failed++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)

	got, err := svc.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), got.RefundedAmount)
	assert.LessOrEqual(t, got.RefundedAmount, got.Amount)
}
