package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage implements Storage in memory for tests and local
// development. Recipients, preferences and templates are seeded through the
// Put* methods, standing in for the external administrative surface.
type MemoryStorage struct {
	mu          sync.RWMutex
	events      map[uuid.UUID]*Event
	recipients  map[uuid.UUID]*Recipient
	preferences map[string]*Preference
	templates   map[string]*Template
	deliveries  map[uuid.UUID]*Delivery
	claimedAt   map[uuid.UUID]time.Time
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		events:      make(map[uuid.UUID]*Event),
		recipients:  make(map[uuid.UUID]*Recipient),
		preferences: make(map[string]*Preference),
		templates:   make(map[string]*Template),
		deliveries:  make(map[uuid.UUID]*Delivery),
		claimedAt:   make(map[uuid.UUID]time.Time),
	}
}

func prefKey(recipientID uuid.UUID, eventType EventType) string {
	return recipientID.String() + "|" + string(eventType)
}

func tmplKey(eventType EventType, channel Channel) string {
	return string(eventType) + "|" + string(channel)
}

// PutRecipient seeds or replaces a recipient.
func (ms *MemoryStorage) PutRecipient(r Recipient) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	cp := r
	ms.recipients[r.ID] = &cp
}

// PutPreference seeds or replaces a preference row.
func (ms *MemoryStorage) PutPreference(p Preference) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	cp := p
	ms.preferences[prefKey(p.RecipientID, p.EventType)] = &cp
}

// PutTemplate seeds or replaces a template row.
func (ms *MemoryStorage) PutTemplate(t Template) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	cp := t
	ms.templates[tmplKey(t.EventType, t.Channel)] = &cp
}

// CreateEvent implements EmitterStorage.
func (ms *MemoryStorage) CreateEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("notify: event cannot be nil")
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, exists := ms.events[event.ID]; exists {
		return fmt.Errorf("notify: event %s already exists", event.ID)
	}
	cp := *event
	ms.events[event.ID] = &cp
	return nil
}

// ActiveRecipients implements EmitterStorage.
func (ms *MemoryStorage) ActiveRecipients(ctx context.Context) ([]Recipient, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	var out []Recipient
	for _, r := range ms.recipients {
		if r.IsActive {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.Compare(out[i].ID.String(), out[j].ID.String()) < 0
	})
	return out, nil
}

// Preference implements EmitterStorage.
func (ms *MemoryStorage) Preference(ctx context.Context, recipientID uuid.UUID, eventType EventType) (*Preference, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	p, ok := ms.preferences[prefKey(recipientID, eventType)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// CreateDelivery implements EmitterStorage.
func (ms *MemoryStorage) CreateDelivery(ctx context.Context, delivery *Delivery) error {
	if delivery == nil {
		return fmt.Errorf("notify: delivery cannot be nil")
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, exists := ms.deliveries[delivery.ID]; exists {
		return fmt.Errorf("notify: delivery %s already exists", delivery.ID)
	}
	cp := *delivery
	ms.deliveries[delivery.ID] = &cp
	return nil
}

// ClaimPending implements DispatcherStorage. The pending→processing flip
// happens under the write lock, so exactly one caller wins each row.
func (ms *MemoryStorage) ClaimPending(ctx context.Context, limit int) ([]Delivery, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	var due []*Delivery
	for _, d := range ms.deliveries {
		if d.Status == StatusPending && !d.NextAttemptAt.After(now) {
			due = append(due, d)
		}
	}
	// Oldest first so no delivery starves behind newer traffic.
	sort.Slice(due, func(i, j int) bool {
		if !due[i].CreatedAt.Equal(due[j].CreatedAt) {
			return due[i].CreatedAt.Before(due[j].CreatedAt)
		}
		return strings.Compare(due[i].ID.String(), due[j].ID.String()) < 0
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	if len(due) == 0 {
		return nil, ErrNoDeliveryToClaim
	}

	claimed := make([]Delivery, 0, len(due))
	for _, d := range due {
		d.Status = StatusProcessing
		ms.claimedAt[d.ID] = now
		claimed = append(claimed, *d)
	}
	return claimed, nil
}

func (ms *MemoryStorage) transition(deliveryID uuid.UUID, to Status, mutate func(*Delivery)) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	d, ok := ms.deliveries[deliveryID]
	if !ok {
		return ErrNotFound
	}
	if !canTransition(d.Status, to) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, d.Status, to)
	}
	d.Status = to
	delete(ms.claimedAt, deliveryID)
	mutate(d)
	return nil
}

// MarkSent implements DispatcherStorage.
func (ms *MemoryStorage) MarkSent(ctx context.Context, deliveryID uuid.UUID, providerResponse string, sentAt time.Time) error {
	return ms.transition(deliveryID, StatusSent, func(d *Delivery) {
		d.Attempts++
		d.ProviderResponse = providerResponse
		d.SentAt = &sentAt
	})
}

// MarkFailed implements DispatcherStorage.
func (ms *MemoryStorage) MarkFailed(ctx context.Context, deliveryID uuid.UUID, reason string) error {
	return ms.transition(deliveryID, StatusFailed, func(d *Delivery) {
		d.Attempts++
		d.ProviderResponse = reason
	})
}

// ScheduleRetry implements DispatcherStorage.
func (ms *MemoryStorage) ScheduleRetry(ctx context.Context, deliveryID uuid.UUID, reason string, at time.Time) error {
	return ms.transition(deliveryID, StatusPending, func(d *Delivery) {
		d.Attempts++
		d.ProviderResponse = reason
		d.NextAttemptAt = at
	})
}

// ReleaseStale implements DispatcherStorage.
func (ms *MemoryStorage) ReleaseStale(ctx context.Context, olderThan time.Duration) (int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	released := 0
	for id, d := range ms.deliveries {
		if d.Status != StatusProcessing {
			continue
		}
		if claimed, ok := ms.claimedAt[id]; ok && claimed.After(cutoff) {
			continue
		}
		d.Status = StatusPending
		delete(ms.claimedAt, id)
		released++
	}
	return released, nil
}

// Event implements DispatcherStorage.
func (ms *MemoryStorage) Event(ctx context.Context, id uuid.UUID) (*Event, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	e, ok := ms.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

// Recipient implements DispatcherStorage.
func (ms *MemoryStorage) Recipient(ctx context.Context, id uuid.UUID) (*Recipient, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	r, ok := ms.recipients[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// Template implements DispatcherStorage.
func (ms *MemoryStorage) Template(ctx context.Context, eventType EventType, channel Channel) (*Template, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	t, ok := ms.templates[tmplKey(eventType, channel)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// ListDeliveries implements Storage.
func (ms *MemoryStorage) ListDeliveries(ctx context.Context, filter DeliveryFilter) ([]Delivery, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var out []Delivery
	for _, d := range ms.deliveries {
		if filter.EventID != uuid.Nil && d.EventID != filter.EventID {
			continue
		}
		if filter.RecipientID != uuid.Nil && d.RecipientID != filter.RecipientID {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
