// Package notify turns business events into per-recipient notifications
// over pluggable channels, without letting notification failures affect the
// code that produced the event.
//
// # Architecture
//
// The engine is an event → fan-out → delivery → dispatch pipeline built
// around two actors and a durable store:
//
//   - Emitter: the single entry point. Emit persists an immutable Event,
//     resolves each active recipient's per-event-type Preference into a set
//     of eligible channels, and inserts one pending Delivery per
//     (recipient, channel). Emit never returns an error; failures are
//     logged and swallowed so the business operation that triggered the
//     event is never affected.
//   - Dispatcher: claims bounded batches of pending deliveries atomically,
//     renders content through a Renderer, invokes the matching channel
//     Sender and records the terminal outcome per row. One row's failure
//     never aborts the batch.
//
// Deliveries move pending → processing → sent|failed. The processing state
// is the claim marker: the storage flips pending rows to processing in a
// single atomic operation, so two dispatchers racing over the same queue
// never double-send. Terminal rows are never revisited.
//
// Eligibility is strict opt-in: a recipient with no Preference row for an
// event type receives nothing, and a channel is used only when its flag is
// set and the matching contact field is populated.
//
// # Usage
//
//	storage := notify.NewMemoryStorage()
//	renderer := render.New(storage)
//	wake := trigger.NewLocal()
//
//	emitter, _ := notify.NewEmitter(storage, notify.WithWaker(wake))
//	dispatcher, _ := notify.NewDispatcher(storage, renderer,
//		notify.WithSender(notify.ChannelEmail, emailSender),
//		notify.WithSender(notify.ChannelSMS, smsSender),
//		notify.WithWakeChannel(wake.Wakeups()),
//	)
//
//	_ = dispatcher.Start(ctx)
//	defer dispatcher.Stop()
//
//	emitter.Emit(ctx, notify.EmitParams{
//		Type:     "payment.succeeded",
//		Actor:    notify.Actor{Type: notify.ActorUser, Identifier: "u-42"},
//		Summary:  "Payment of $50 received",
//		Metadata: map[string]any{"amount": 50, "currency": "USD"},
//	})
//
// Storage implementations: MemoryStorage (tests, local development), the pg
// package (PostgreSQL via pgx, claim via FOR UPDATE SKIP LOCKED) and the
// mongo package (FindOneAndUpdate claim).
//
// # Retries
//
// The default policy is NoRetry: one attempt per delivery, ever. Callers
// opt into retries explicitly with WithRetryPolicy(LinearBackoff{...}).
package notify
