package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/payflow/server/internal/module/payment/provider"
	apperrors "github.com/payflow/server/internal/shared/errors"
	"github.com/payflow/server/internal/shared/events"
)

// PaymentSink applies webhook-reported payment transitions.
type PaymentSink interface {
	ApplyStatus(id string, status string, eventTime time.Time) (bool, error)
}

// SubscriptionSink applies webhook-reported subscription transitions.
type SubscriptionSink interface {
	ApplyStatus(id string, status string, eventTime time.Time) (bool, error)
}

// Dispatcher maps verified provider events onto idempotent state
// transitions. Unknown event types are acknowledged and logged, never
// errors, so future provider event types cannot break delivery.
type Dispatcher struct {
	payments      PaymentSink
	subscriptions SubscriptionSink
	bus           *events.Bus
	logger        *zap.Logger
}

// NewDispatcher creates a new event dispatcher.
func NewDispatcher(payments PaymentSink, subscriptions SubscriptionSink, bus *events.Bus, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		payments:      payments,
		subscriptions: subscriptions,
		bus:           bus,
		logger:        logger,
	}
}

// Outcome classifies a dispatch for logging and metrics.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeFailed    Outcome = "failed"
)

// Dispatch routes a verified event to its handler. The event's created
// timestamp orders the transition against concurrent gateway reads.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *provider.Event) (Outcome, error) {
	eventTime := time.Unix(ev.Created, 0)

	switch ev.Type {
	case "payment_intent.succeeded":
		return d.applyPaymentStatus(ev, "succeeded", eventTime)

	case "payment_intent.payment_failed":
		return d.applyPaymentStatus(ev, "failed", eventTime)

	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		return d.applySubscriptionStatus(ev, eventTime)

	case "account.updated":
		var obj struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(ev.Object, &obj); err != nil {
			return OutcomeFailed, fmt.Errorf("decode account: %w", err)
		}
		d.bus.Publish(ctx, &events.AccountUpdatedEvent{AccountID: obj.ID, At: eventTime})
		return OutcomeProcessed, nil

	case "invoice.payment_succeeded":
		// Informational; invoices are tracked provider-side.
		d.logger.Info("invoice payment succeeded", zap.String("event_id", ev.ID))
		return OutcomeProcessed, nil

	default:
		d.logger.Debug("unhandled webhook event type",
			zap.String("event_id", ev.ID),
			zap.String("type", ev.Type),
		)
		return OutcomeIgnored, nil
	}
}

func (d *Dispatcher) applyPaymentStatus(ev *provider.Event, status string, eventTime time.Time) (Outcome, error) {
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(ev.Object, &obj); err != nil {
		return OutcomeFailed, fmt.Errorf("decode payment intent: %w", err)
	}

	applied, err := d.payments.ApplyStatus(obj.ID, status, eventTime)
	if err != nil {
		// A payment created outside this process is not ours to track.
		if errors.Is(err, apperrors.ErrNotFound) {
			d.logger.Info("webhook for unknown payment",
				zap.String("event_id", ev.ID),
				zap.String("payment_id", obj.ID),
			)
			return OutcomeIgnored, nil
		}
		return OutcomeFailed, err
	}
	if !applied {
		d.logger.Debug("payment event superseded by newer observation",
			zap.String("event_id", ev.ID),
			zap.String("payment_id", obj.ID),
		)
	}
	return OutcomeProcessed, nil
}

func (d *Dispatcher) applySubscriptionStatus(ev *provider.Event, eventTime time.Time) (Outcome, error) {
	var obj struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(ev.Object, &obj); err != nil {
		return OutcomeFailed, fmt.Errorf("decode subscription: %w", err)
	}

	applied, err := d.subscriptions.ApplyStatus(obj.ID, obj.Status, eventTime)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			d.logger.Info("webhook for unknown subscription",
				zap.String("event_id", ev.ID),
				zap.String("subscription_id", obj.ID),
			)
			return OutcomeIgnored, nil
		}
		// A status value this version does not know must not break
		// delivery acknowledgement.
		if errors.Is(err, apperrors.ErrInvalidRequest) {
			d.logger.Warn("webhook reported unknown subscription status",
				zap.String("event_id", ev.ID),
				zap.String("subscription_id", obj.ID),
				zap.String("status", obj.Status),
			)
			return OutcomeIgnored, nil
		}
		return OutcomeFailed, err
	}
	if !applied {
		d.logger.Debug("subscription event superseded by newer observation",
			zap.String("event_id", ev.ID),
			zap.String("subscription_id", obj.ID),
		)
	}
	return OutcomeProcessed, nil
}
