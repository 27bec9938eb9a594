package notify

import (
	"time"

	"github.com/google/uuid"
)

// Channel is a notification transport.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Valid reports whether the channel is one the engine knows how to dispatch.
func (c Channel) Valid() bool {
	return c == ChannelEmail || c == ChannelSMS
}

// Status is the lifecycle state of a Delivery.
type Status string

const (
	// StatusPending marks a delivery that has been fanned out but not yet
	// picked up by a dispatcher.
	StatusPending Status = "pending"
	// StatusProcessing marks a delivery claimed by exactly one dispatcher.
	// It is an internal in-flight state; a crashed dispatcher leaves rows
	// here until ReleaseStale returns them to pending.
	StatusProcessing Status = "processing"
	// StatusSent and StatusFailed are terminal. A terminal delivery is never
	// revisited.
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusFailed
}

// canTransition encodes the allowed status transitions:
// pending → processing → sent|failed, processing → pending (retry/stale
// release). Terminal states have no outgoing edges.
func canTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusSent || to == StatusFailed || to == StatusPending
	default:
		return false
	}
}

// Delivery is one attempt unit: a single (event, recipient, channel) triple
// with its own lifecycle. Deliveries are created at fan-out time and are the
// only mutable state in the engine.
type Delivery struct {
	ID               uuid.UUID  `json:"id"`
	EventID          uuid.UUID  `json:"event_id"`
	RecipientID      uuid.UUID  `json:"recipient_id"`
	Channel          Channel    `json:"channel"`
	Status           Status     `json:"status"`
	Attempts         int        `json:"attempts"`
	ProviderResponse string     `json:"provider_response,omitempty"`
	NextAttemptAt    time.Time  `json:"next_attempt_at"`
	SentAt           *time.Time `json:"sent_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// DeliveryFilter narrows ListDeliveries results for operational review.
// Zero values mean "no constraint".
type DeliveryFilter struct {
	EventID     uuid.UUID
	RecipientID uuid.UUID
	Status      Status
	Limit       int
}
