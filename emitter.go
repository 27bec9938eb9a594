package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Waker nudges a dispatcher that new deliveries are waiting. The trigger
// package provides in-process and Redis-backed implementations.
type Waker interface {
	Wake(ctx context.Context)
}

// EmitParams carries the fields of one business event.
type EmitParams struct {
	Type     EventType
	Actor    Actor
	Summary  string
	Metadata map[string]any
}

// Emitter is the single entry point business code calls when something
// notification-worthy happens. Emit persists the event, computes the
// fan-out and wakes the dispatcher; it never reports failure to the caller
// because notification problems must not affect the business operation that
// triggered them.
type Emitter struct {
	storage EmitterStorage
	waker   Waker
	logger  *slog.Logger
}

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithEmitterLogger sets the logger used for swallowed failures.
func WithEmitterLogger(logger *slog.Logger) EmitterOption {
	return func(e *Emitter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithWaker sets the dispatch handoff. Without one, deliveries wait for the
// dispatcher's next poll tick or an external scheduler.
func WithWaker(w Waker) EmitterOption {
	return func(e *Emitter) {
		e.waker = w
	}
}

// NewEmitter creates an Emitter backed by the given storage.
func NewEmitter(storage EmitterStorage, opts ...EmitterOption) (*Emitter, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	e := &Emitter{
		storage: storage,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Emit records an event and fans it out into pending deliveries. It is
// fire-and-forget: all failures are logged and swallowed, and the transport
// work happens later in the dispatcher, so the caller only pays for the
// storage writes.
func (e *Emitter) Emit(ctx context.Context, params EmitParams) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("emit panicked",
				slog.String("event_type", string(params.Type)),
				slog.Any("panic", r))
		}
	}()

	event := &Event{
		ID:        uuid.New(),
		Type:      params.Type,
		Actor:     params.Actor,
		Summary:   params.Summary,
		Metadata:  params.Metadata,
		CreatedAt: time.Now(),
	}
	if err := e.storage.CreateEvent(ctx, event); err != nil {
		e.logger.Error("failed to persist event",
			slog.String("event_type", string(params.Type)),
			slog.String("error", err.Error()))
		return
	}

	created := e.fanOut(ctx, event)
	e.logger.Info("event emitted",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.Type)),
		slog.Int("deliveries", created))

	if created > 0 && e.waker != nil {
		e.waker.Wake(ctx)
	}
}

// fanOut expands one event into pending deliveries and returns how many
// were created. Each recipient is handled independently so one recipient's
// failure cannot suppress another's notifications.
func (e *Emitter) fanOut(ctx context.Context, event *Event) int {
	recipients, err := e.storage.ActiveRecipients(ctx)
	if err != nil {
		e.logger.Error("failed to load recipients, event recorded without fan-out",
			slog.String("event_id", event.ID.String()),
			slog.String("error", err.Error()))
		return 0
	}

	created := 0
	for _, recipient := range recipients {
		pref, err := e.storage.Preference(ctx, recipient.ID, event.Type)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				e.logger.Error("failed to load preference",
					slog.String("event_id", event.ID.String()),
					slog.String("recipient_id", recipient.ID.String()),
					slog.String("error", err.Error()))
			}
			// No preference row means no opt-in: skip silently.
			continue
		}

		for _, channel := range pref.Channels(recipient) {
			delivery := &Delivery{
				ID:            uuid.New(),
				EventID:       event.ID,
				RecipientID:   recipient.ID,
				Channel:       channel,
				Status:        StatusPending,
				NextAttemptAt: time.Now(),
				CreatedAt:     time.Now(),
			}
			if err := e.storage.CreateDelivery(ctx, delivery); err != nil {
				e.logger.Error("failed to create delivery",
					slog.String("event_id", event.ID.String()),
					slog.String("recipient_id", recipient.ID.String()),
					slog.String("channel", string(channel)),
					slog.String("error", err.Error()))
				continue
			}
			created++
		}
	}
	return created
}
