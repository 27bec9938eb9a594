package notify

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a kind of business event (e.g. "payment.succeeded",
// "generation.failed"). Types are free-form strings owned by the caller;
// the engine treats them opaquely.
type EventType string

// ActorType classifies who triggered an event.
type ActorType string

const (
	ActorAdmin  ActorType = "admin"
	ActorUser   ActorType = "user"
	ActorSystem ActorType = "system"
)

// Actor describes the originator of an event.
type Actor struct {
	Type       ActorType `json:"type"`
	Identifier string    `json:"identifier"`
}

// Event is an immutable record that something happened. Events are created
// only by the Emitter and never mutated afterwards.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Type      EventType      `json:"type"`
	Actor     Actor          `json:"actor"`
	Summary   string         `json:"summary"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
