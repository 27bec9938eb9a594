package notify

import (
	"context"

	"github.com/google/uuid"
)

// Message is the channel-agnostic payload handed to a Sender. Email senders
// use Recipient.Email, Subject and Body; SMS senders use Recipient.Phone and
// Body. Metadata carries the originating event's metadata for transports
// that forward it.
type Message struct {
	EventID   uuid.UUID
	EventType EventType
	Recipient Recipient
	Subject   string
	Body      string
	Metadata  map[string]any
}

// SendResult is the normalized outcome of a successful transport call.
// Response holds the raw provider acknowledgment and is persisted on the
// delivery for audit.
type SendResult struct {
	Response string
}

// Sender sends one message over one transport. Implementations normalize
// whatever the underlying provider returns into a SendResult or an error;
// the dispatcher never branches on transport-specific response shapes.
//
// A sender that discovers it is misconfigured (missing credentials) must
// return an error wrapping its package's ErrInvalidConfig without making an
// outbound call.
type Sender interface {
	Send(ctx context.Context, msg Message) (SendResult, error)
}

// SendError is a transport-level failure carrying the provider's own error
// text. Error() returns the bare provider text, which the dispatcher
// persists verbatim as the delivery's provider response.
type SendError struct {
	Reason string
	Raw    string // raw response body, when available
}

func (e *SendError) Error() string { return e.Reason }

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, msg Message) (SendResult, error)

func (f SenderFunc) Send(ctx context.Context, msg Message) (SendResult, error) {
	return f(ctx, msg)
}
