package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Content is rendered notification text ready for a Sender. Subject is only
// meaningful for email.
type Content struct {
	Subject string
	Body    string
}

// Renderer resolves notification text for (event type, channel, metadata).
// Rendering must never fail a delivery: implementations fall back to a
// generic message when no template exists or the template source is
// unreachable. The render package provides the implementation.
type Renderer interface {
	Render(ctx context.Context, eventType EventType, channel Channel, metadata map[string]any) Content
}

// Dispatcher drains pending deliveries: it claims a bounded batch
// atomically, renders content, invokes the matching channel sender and
// records the terminal outcome per row. It holds no state between
// invocations, so running several dispatchers against the same storage is
// safe: the claim step guarantees each delivery is attempted by exactly
// one of them.
type Dispatcher struct {
	storage  DispatcherStorage
	renderer Renderer
	senders  map[Channel]Sender
	policy   RetryPolicy

	batchSize    int
	pullInterval time.Duration
	sendTimeout  time.Duration
	staleAfter   time.Duration
	wake         <-chan struct{}
	logger       *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDispatcher creates a Dispatcher. The renderer is required because every
// delivery is rendered before sending; senders are registered per channel
// via RegisterSender or the WithSender option.
func NewDispatcher(storage DispatcherStorage, renderer Renderer, opts ...DispatcherOption) (*Dispatcher, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	if renderer == nil {
		return nil, errors.New("notify: renderer is nil")
	}
	d := &Dispatcher{
		storage:      storage,
		renderer:     renderer,
		senders:      make(map[Channel]Sender),
		policy:       NoRetry{},
		batchSize:    50,
		pullInterval: 5 * time.Second,
		sendTimeout:  30 * time.Second,
		staleAfter:   5 * time.Minute,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// RegisterSender binds a sender to a channel, replacing any previous one.
// Must be called before Start.
func (d *Dispatcher) RegisterSender(channel Channel, sender Sender) {
	if sender != nil {
		d.senders[channel] = sender
	}
}

// DispatchPending claims and processes one batch of due deliveries. It
// returns the number of processed rows; an empty queue is not an error.
// Safe to invoke repeatedly and concurrently with other dispatchers.
func (d *Dispatcher) DispatchPending(ctx context.Context) (int, error) {
	claimed, err := d.storage.ClaimPending(ctx, d.batchSize)
	if err != nil {
		if errors.Is(err, ErrNoDeliveryToClaim) {
			return 0, nil
		}
		return 0, fmt.Errorf("claim pending deliveries: %w", err)
	}

	for i := range claimed {
		d.processOne(ctx, &claimed[i])
	}
	return len(claimed), nil
}

// processOne resolves, renders and sends a single claimed delivery. Every
// failure path terminates the row; nothing escapes to abort the batch.
func (d *Dispatcher) processOne(ctx context.Context, delivery *Delivery) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("delivery processing panicked",
				slog.String("delivery_id", delivery.ID.String()),
				slog.Any("panic", r))
			d.fail(ctx, delivery, fmt.Sprintf("panic: %v", r))
		}
	}()

	recipient, err := d.storage.Recipient(ctx, delivery.RecipientID)
	if err != nil {
		d.fail(ctx, delivery, lookupReason("recipient", err))
		return
	}
	event, err := d.storage.Event(ctx, delivery.EventID)
	if err != nil {
		d.fail(ctx, delivery, lookupReason("event", err))
		return
	}

	sender, ok := d.senders[delivery.Channel]
	if !ok {
		d.fail(ctx, delivery, fmt.Sprintf("%s: %s", ErrSenderNotRegistered, delivery.Channel))
		return
	}

	content := d.renderer.Render(ctx, event.Type, delivery.Channel, event.Metadata)

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()
	result, err := sender.Send(sendCtx, Message{
		EventID:   event.ID,
		EventType: event.Type,
		Recipient: *recipient,
		Subject:   content.Subject,
		Body:      content.Body,
		Metadata:  event.Metadata,
	})
	if err != nil {
		d.handleSendFailure(ctx, delivery, err)
		return
	}

	if err := d.storage.MarkSent(ctx, delivery.ID, result.Response, time.Now()); err != nil {
		d.logger.Error("failed to mark delivery sent",
			slog.String("delivery_id", delivery.ID.String()),
			slog.String("error", err.Error()))
		return
	}
	d.logger.Info("delivery sent",
		slog.String("delivery_id", delivery.ID.String()),
		slog.String("event_type", string(event.Type)),
		slog.String("channel", string(delivery.Channel)))
}

// handleSendFailure consults the retry policy before terminalizing the row.
// With the default NoRetry policy every transport failure is final.
func (d *Dispatcher) handleSendFailure(ctx context.Context, delivery *Delivery, sendErr error) {
	attempts := delivery.Attempts + 1
	if delay, retry := d.policy.NextAttempt(attempts); retry {
		at := time.Now().Add(delay)
		if err := d.storage.ScheduleRetry(ctx, delivery.ID, sendErr.Error(), at); err != nil {
			d.logger.Error("failed to schedule retry",
				slog.String("delivery_id", delivery.ID.String()),
				slog.String("error", err.Error()))
			return
		}
		d.logger.Warn("delivery failed, retry scheduled",
			slog.String("delivery_id", delivery.ID.String()),
			slog.String("channel", string(delivery.Channel)),
			slog.Int("attempts", attempts),
			slog.Time("next_attempt_at", at),
			slog.String("error", sendErr.Error()))
		return
	}
	d.fail(ctx, delivery, sendErr.Error())
}

func (d *Dispatcher) fail(ctx context.Context, delivery *Delivery, reason string) {
	if err := d.storage.MarkFailed(ctx, delivery.ID, reason); err != nil {
		d.logger.Error("failed to mark delivery failed",
			slog.String("delivery_id", delivery.ID.String()),
			slog.String("reason", reason),
			slog.String("error", err.Error()))
		return
	}
	d.logger.Warn("delivery failed",
		slog.String("delivery_id", delivery.ID.String()),
		slog.String("channel", string(delivery.Channel)),
		slog.String("reason", reason))
}

func lookupReason(entity string, err error) string {
	if errors.Is(err, ErrNotFound) {
		return entity + " not found"
	}
	return fmt.Sprintf("%s lookup: %s", entity, err)
}

// Start launches the background poll loop: each tick (or wake signal from
// an emitter's trigger) drains due deliveries, and stale processing rows
// left behind by dead dispatchers are periodically released.
func (d *Dispatcher) Start(ctx context.Context) error {
	if d.ctx != nil {
		return ErrAlreadyStarted
	}
	if len(d.senders) == 0 {
		return ErrNoSenders
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})
	go d.run()

	d.logger.Info("dispatcher started",
		slog.Int("batch_size", d.batchSize),
		slog.Duration("pull_interval", d.pullInterval))
	return nil
}

// Stop cancels the poll loop and waits for the in-flight batch to finish.
func (d *Dispatcher) Stop() error {
	if d.cancel == nil {
		return ErrNotStarted
	}
	d.cancel()
	<-d.done
	d.ctx, d.cancel = nil, nil
	d.logger.Info("dispatcher stopped")
	return nil
}

// Run returns a function suitable for errgroup: it starts the dispatcher,
// blocks until the context is canceled and then stops it.
func (d *Dispatcher) Run(ctx context.Context) func() error {
	return func() error {
		if err := d.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return d.Stop()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)

	ticker := time.NewTicker(d.pullInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.releaseStale()
			d.drain()
		case <-d.wake:
			d.drain()
		}
	}
}

// drain keeps dispatching until a batch comes back short, so a burst of
// fan-out is worked off without waiting for the next tick.
func (d *Dispatcher) drain() {
	for {
		n, err := d.DispatchPending(d.ctx)
		if err != nil {
			if d.ctx.Err() == nil {
				d.logger.Error("dispatch batch failed", slog.String("error", err.Error()))
			}
			return
		}
		if n < d.batchSize {
			return
		}
	}
}

func (d *Dispatcher) releaseStale() {
	if d.staleAfter <= 0 {
		return
	}
	released, err := d.storage.ReleaseStale(d.ctx, d.staleAfter)
	if err != nil {
		if d.ctx.Err() == nil {
			d.logger.Error("failed to release stale deliveries", slog.String("error", err.Error()))
		}
		return
	}
	if released > 0 {
		d.logger.Warn("released stale deliveries back to pending", slog.Int("count", released))
	}
}
