package events

import "time"

// Event type constants.
const (
	AccountUpdatedType = "AccountUpdated"
)

// Event is a domain event carried by the bus.
type Event interface {
	// EventType returns the type name used for handler registration.
	EventType() string
	// OccurredAt returns when the event happened at the source.
	OccurredAt() time.Time
}

// AccountUpdatedEvent is emitted when the payment provider reports a change
// to a connected account. The core takes no action on it; interested
// collaborators subscribe on the bus.
type AccountUpdatedEvent struct {
	AccountID string
	At        time.Time
}

// EventType returns the event type name.
func (e *AccountUpdatedEvent) EventType() string { return AccountUpdatedType }

// OccurredAt returns when the provider observed the change.
func (e *AccountUpdatedEvent) OccurredAt() time.Time { return e.At }
