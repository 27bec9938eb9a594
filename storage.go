package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EmitterStorage covers the writes and lookups the Emitter performs at
// fan-out time.
type EmitterStorage interface {
	// CreateEvent persists a new immutable event.
	CreateEvent(ctx context.Context, event *Event) error

	// ActiveRecipients returns all recipients with IsActive set.
	ActiveRecipients(ctx context.Context) ([]Recipient, error)

	// Preference returns the preference row for (recipient, event type),
	// or ErrNotFound when none exists.
	Preference(ctx context.Context, recipientID uuid.UUID, eventType EventType) (*Preference, error)

	// CreateDelivery persists one pending delivery.
	CreateDelivery(ctx context.Context, delivery *Delivery) error
}

// DispatcherStorage covers the claim/outcome operations the Dispatcher
// performs. ClaimPending is the concurrency-critical operation: it must flip
// pending rows to processing in a single atomic step so that two concurrent
// dispatchers never act on the same row.
type DispatcherStorage interface {
	// ClaimPending atomically claims up to limit pending deliveries whose
	// NextAttemptAt is due, oldest first. Claimed rows are returned already
	// in StatusProcessing. Returns ErrNoDeliveryToClaim when nothing is due.
	ClaimPending(ctx context.Context, limit int) ([]Delivery, error)

	// MarkSent transitions a processing delivery to sent, recording the raw
	// provider acknowledgment for audit.
	MarkSent(ctx context.Context, deliveryID uuid.UUID, providerResponse string, sentAt time.Time) error

	// MarkFailed transitions a processing delivery to failed with the error
	// text as provider response.
	MarkFailed(ctx context.Context, deliveryID uuid.UUID, reason string) error

	// ScheduleRetry returns a processing delivery to pending with a future
	// NextAttemptAt. Used only when a RetryPolicy allows another attempt.
	ScheduleRetry(ctx context.Context, deliveryID uuid.UUID, reason string, at time.Time) error

	// ReleaseStale returns deliveries stuck in processing longer than
	// olderThan back to pending, recovering rows claimed by dead
	// dispatchers. Returns the number of released rows.
	ReleaseStale(ctx context.Context, olderThan time.Duration) (int, error)

	// Event and Recipient resolve the rows a claimed delivery references.
	// Either may return ErrNotFound, which fails the delivery without a
	// transport attempt.
	Event(ctx context.Context, id uuid.UUID) (*Event, error)
	Recipient(ctx context.Context, id uuid.UUID) (*Recipient, error)

	// Template returns the stored template for (event type, channel), or
	// ErrNotFound. Absence is tolerated by the renderer.
	Template(ctx context.Context, eventType EventType, channel Channel) (*Template, error)
}

// Storage is the full persistence contract of the engine: read access to
// recipients, preferences and templates, read-write access to events and
// deliveries.
type Storage interface {
	EmitterStorage
	DispatcherStorage

	// ListDeliveries returns deliveries matching the filter, newest first,
	// for operational review.
	ListDeliveries(ctx context.Context, filter DeliveryFilter) ([]Delivery, error)
}
