package notify_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notify"
)

type countingWaker struct {
	calls atomic.Int64
}

func (w *countingWaker) Wake(ctx context.Context) { w.calls.Add(1) }

// faultyStorage wraps MemoryStorage with injectable failures and records
// the IDs of events that made it to the store.
type faultyStorage struct {
	*notify.MemoryStorage

	eventErr      error
	recipientsErr error
	deliveryErr   error

	eventIDs []uuid.UUID
}

func newFaultyStorage() *faultyStorage {
	return &faultyStorage{MemoryStorage: notify.NewMemoryStorage()}
}

func (fs *faultyStorage) CreateEvent(ctx context.Context, event *notify.Event) error {
	if fs.eventErr != nil {
		return fs.eventErr
	}
	if err := fs.MemoryStorage.CreateEvent(ctx, event); err != nil {
		return err
	}
	fs.eventIDs = append(fs.eventIDs, event.ID)
	return nil
}

func (fs *faultyStorage) ActiveRecipients(ctx context.Context) ([]notify.Recipient, error) {
	if fs.recipientsErr != nil {
		return nil, fs.recipientsErr
	}
	return fs.MemoryStorage.ActiveRecipients(ctx)
}

func (fs *faultyStorage) CreateDelivery(ctx context.Context, delivery *notify.Delivery) error {
	if fs.deliveryErr != nil {
		return fs.deliveryErr
	}
	return fs.MemoryStorage.CreateDelivery(ctx, delivery)
}

func seedRecipient(storage *notify.MemoryStorage, email, phone string, active bool) notify.Recipient {
	r := notify.Recipient{
		ID:       uuid.New(),
		Name:     "Asha",
		Role:     "admin",
		Email:    email,
		Phone:    phone,
		IsActive: active,
	}
	storage.PutRecipient(r)
	return r
}

func TestNewEmitter(t *testing.T) {
	t.Parallel()

	t.Run("nil storage", func(t *testing.T) {
		t.Parallel()

		emitter, err := notify.NewEmitter(nil)
		assert.ErrorIs(t, err, notify.ErrStorageNil)
		assert.Nil(t, emitter)
	})

	t.Run("with options", func(t *testing.T) {
		t.Parallel()

		emitter, err := notify.NewEmitter(notify.NewMemoryStorage(),
			notify.WithWaker(&countingWaker{}))
		require.NoError(t, err)
		require.NotNil(t, emitter)
	})
}

func TestEmitter_Emit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	const eventType = notify.EventType("payment.succeeded")

	emit := func(t *testing.T, storage *notify.MemoryStorage, opts ...notify.EmitterOption) {
		t.Helper()
		emitter, err := notify.NewEmitter(storage, opts...)
		require.NoError(t, err)
		emitter.Emit(ctx, notify.EmitParams{
			Type:    eventType,
			Actor:   notify.Actor{Type: notify.ActorSystem, Identifier: "billing"},
			Summary: "payment received",
			Metadata: map[string]any{
				"amount": 50,
			},
		})
	}

	t.Run("fans out one delivery per eligible channel", func(t *testing.T) {
		t.Parallel()

		storage := notify.NewMemoryStorage()
		r := seedRecipient(storage, "asha@example.com", "+15550100", true)
		storage.PutPreference(notify.Preference{
			RecipientID: r.ID,
			EventType:   eventType,
			Enabled:     true,
			ViaEmail:    true,
			ViaSMS:      true,
		})

		emit(t, storage)

		rows, err := storage.ListDeliveries(ctx, notify.DeliveryFilter{RecipientID: r.ID})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		channels := []notify.Channel{rows[0].Channel, rows[1].Channel}
		assert.ElementsMatch(t, []notify.Channel{notify.ChannelEmail, notify.ChannelSMS}, channels)
		for _, d := range rows {
			assert.Equal(t, notify.StatusPending, d.Status)
			assert.Equal(t, 0, d.Attempts)
		}
	})

	t.Run("both flags but only an email address yields one delivery", func(t *testing.T) {
		t.Parallel()

		storage := notify.NewMemoryStorage()
		r := seedRecipient(storage, "asha@example.com", "", true)
		storage.PutPreference(notify.Preference{
			RecipientID: r.ID,
			EventType:   eventType,
			Enabled:     true,
			ViaEmail:    true,
			ViaSMS:      true,
		})

		emit(t, storage)

		rows, err := storage.ListDeliveries(ctx, notify.DeliveryFilter{RecipientID: r.ID})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, notify.ChannelEmail, rows[0].Channel)
	})

	t.Run("no preference row means no deliveries", func(t *testing.T) {
		t.Parallel()

		storage := notify.NewMemoryStorage()
		seedRecipient(storage, "asha@example.com", "+15550100", true)

		emit(t, storage)

		rows, err := storage.ListDeliveries(ctx, notify.DeliveryFilter{})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("disabled preference yields nothing", func(t *testing.T) {
		t.Parallel()

		storage := notify.NewMemoryStorage()
		r := seedRecipient(storage, "asha@example.com", "+15550100", true)
		storage.PutPreference(notify.Preference{
			RecipientID: r.ID,
			EventType:   eventType,
			Enabled:     false,
			ViaEmail:    true,
			ViaSMS:      true,
		})

		emit(t, storage)

		rows, err := storage.ListDeliveries(ctx, notify.DeliveryFilter{})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("inactive recipients are skipped", func(t *testing.T) {
		t.Parallel()

		storage := notify.NewMemoryStorage()
		r := seedRecipient(storage, "asha@example.com", "+15550100", false)
		storage.PutPreference(notify.Preference{
			RecipientID: r.ID,
			EventType:   eventType,
			Enabled:     true,
			ViaEmail:    true,
		})

		emit(t, storage)

		rows, err := storage.ListDeliveries(ctx, notify.DeliveryFilter{})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("one recipient's eligibility does not depend on another's", func(t *testing.T) {
		t.Parallel()

		storage := notify.NewMemoryStorage()
		optedIn := seedRecipient(storage, "asha@example.com", "", true)
		seedRecipient(storage, "omar@example.com", "", true) // no preference row
		storage.PutPreference(notify.Preference{
			RecipientID: optedIn.ID,
			EventType:   eventType,
			Enabled:     true,
			ViaEmail:    true,
		})

		emit(t, storage)

		rows, err := storage.ListDeliveries(ctx, notify.DeliveryFilter{})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, optedIn.ID, rows[0].RecipientID)
	})

	t.Run("waker fires only when deliveries were created", func(t *testing.T) {
		t.Parallel()

		storage := notify.NewMemoryStorage()
		waker := &countingWaker{}

		emit(t, storage, notify.WithWaker(waker))
		assert.Equal(t, int64(0), waker.calls.Load(), "no deliveries, no wake")

		r := seedRecipient(storage, "asha@example.com", "", true)
		storage.PutPreference(notify.Preference{
			RecipientID: r.ID,
			EventType:   eventType,
			Enabled:     true,
			ViaEmail:    true,
		})

		emit(t, storage, notify.WithWaker(waker))
		assert.Equal(t, int64(1), waker.calls.Load())
	})

	t.Run("emit never blocks on dispatch", func(t *testing.T) {
		t.Parallel()

		storage := notify.NewMemoryStorage()
		r := seedRecipient(storage, "asha@example.com", "", true)
		storage.PutPreference(notify.Preference{
			RecipientID: r.ID,
			EventType:   eventType,
			Enabled:     true,
			ViaEmail:    true,
		})

		emitter, err := notify.NewEmitter(storage)
		require.NoError(t, err)

		// No dispatcher is running; Emit must return promptly anyway.
		done := make(chan struct{})
		go func() {
			emitter.Emit(ctx, notify.EmitParams{Type: eventType})
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("emit blocked waiting for a dispatcher")
		}
	})
}

func TestEmitter_Emit_StorageFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	const eventType = notify.EventType("payment.succeeded")

	seedOptIn := func(storage *faultyStorage) notify.Recipient {
		r := seedRecipient(storage.MemoryStorage, "asha@example.com", "+15550100", true)
		storage.PutPreference(notify.Preference{
			RecipientID: r.ID,
			EventType:   eventType,
			Enabled:     true,
			ViaEmail:    true,
			ViaSMS:      true,
		})
		return r
	}

	t.Run("delivery failure leaves the event recorded", func(t *testing.T) {
		t.Parallel()

		storage := newFaultyStorage()
		seedOptIn(storage)
		storage.deliveryErr = errors.New("disk full")

		emitter, err := notify.NewEmitter(storage)
		require.NoError(t, err)

		assert.NotPanics(t, func() {
			emitter.Emit(ctx, notify.EmitParams{Type: eventType, Summary: "payment received"})
		})

		// Exactly one event row exists even though every delivery write failed.
		require.Len(t, storage.eventIDs, 1)
		event, err := storage.Event(ctx, storage.eventIDs[0])
		require.NoError(t, err)
		assert.Equal(t, eventType, event.Type)

		rows, err := storage.ListDeliveries(ctx, notify.DeliveryFilter{})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("event write failure does not reach the caller", func(t *testing.T) {
		t.Parallel()

		storage := newFaultyStorage()
		seedOptIn(storage)
		storage.eventErr = errors.New("connection refused")

		emitter, err := notify.NewEmitter(storage)
		require.NoError(t, err)

		assert.NotPanics(t, func() {
			emitter.Emit(ctx, notify.EmitParams{Type: eventType})
		})

		// No event, so no fan-out either.
		rows, err := storage.ListDeliveries(ctx, notify.DeliveryFilter{})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("recipient lookup failure still records the event", func(t *testing.T) {
		t.Parallel()

		storage := newFaultyStorage()
		seedOptIn(storage)
		storage.recipientsErr = errors.New("timeout")

		emitter, err := notify.NewEmitter(storage)
		require.NoError(t, err)

		assert.NotPanics(t, func() {
			emitter.Emit(ctx, notify.EmitParams{Type: eventType})
		})

		require.Len(t, storage.eventIDs, 1)
		_, err = storage.Event(ctx, storage.eventIDs[0])
		require.NoError(t, err)

		rows, err := storage.ListDeliveries(ctx, notify.DeliveryFilter{})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("failed fan-out never wakes the dispatcher", func(t *testing.T) {
		t.Parallel()

		storage := newFaultyStorage()
		seedOptIn(storage)
		storage.deliveryErr = errors.New("disk full")
		waker := &countingWaker{}

		emitter, err := notify.NewEmitter(storage, notify.WithWaker(waker))
		require.NoError(t, err)

		emitter.Emit(ctx, notify.EmitParams{Type: eventType})
		assert.Equal(t, int64(0), waker.calls.Load())
	})

	t.Run("one recipient's delivery failure does not suppress another's", func(t *testing.T) {
		t.Parallel()

		storage := newFaultyStorage()
		first := seedOptIn(storage)
		second := seedRecipient(storage.MemoryStorage, "omar@example.com", "", true)
		storage.PutPreference(notify.Preference{
			RecipientID: second.ID,
			EventType:   eventType,
			Enabled:     true,
			ViaEmail:    true,
		})

		// Fail only the first recipient's writes.
		base := storage.MemoryStorage
		selective := &selectiveFailStorage{MemoryStorage: base, failRecipient: first.ID}

		emitter, err := notify.NewEmitter(selective)
		require.NoError(t, err)
		emitter.Emit(ctx, notify.EmitParams{Type: eventType})

		rows, err := base.ListDeliveries(ctx, notify.DeliveryFilter{})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, second.ID, rows[0].RecipientID)
	})
}

// selectiveFailStorage fails delivery writes for one recipient only.
type selectiveFailStorage struct {
	*notify.MemoryStorage
	failRecipient uuid.UUID
}

func (s *selectiveFailStorage) CreateDelivery(ctx context.Context, delivery *notify.Delivery) error {
	if delivery.RecipientID == s.failRecipient {
		return errors.New("disk full")
	}
	return s.MemoryStorage.CreateDelivery(ctx, delivery)
}
