package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/notify"
)

// Storage implements notify.Storage on MongoDB. The claim step relies on
// FindOneAndUpdate, which is atomic per document: each due delivery is
// flipped pending → processing by exactly one caller, so concurrent
// dispatchers never double-claim.
type Storage struct {
	events      *mongo.Collection
	recipients  *mongo.Collection
	preferences *mongo.Collection
	templates   *mongo.Collection
	deliveries  *mongo.Collection
}

// NewStorage creates a MongoDB-backed storage over the given database.
func NewStorage(db *mongo.Database) *Storage {
	return &Storage{
		events:      db.Collection("notify_events"),
		recipients:  db.Collection("notify_recipients"),
		preferences: db.Collection("notify_preferences"),
		templates:   db.Collection("notify_templates"),
		deliveries:  db.Collection("notify_deliveries"),
	}
}

// EnsureIndexes creates the indexes the claim query depends on. Call once
// at startup.
func (s *Storage) EnsureIndexes(ctx context.Context) error {
	_, err := s.deliveries.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "next_attempt_at", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "event_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create delivery indexes: %w", err)
	}
	_, err = s.preferences.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "recipient_id", Value: 1}, {Key: "event_type", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create preference index: %w", err)
	}
	return nil
}

// UUIDs are stored as their canonical string form; BSON binary subtypes
// buy nothing here and strings keep the documents inspectable.
type eventDoc struct {
	ID              string         `bson:"_id"`
	Type            string         `bson:"event_type"`
	ActorType       string         `bson:"actor_type"`
	ActorIdentifier string         `bson:"actor_identifier"`
	Summary         string         `bson:"summary"`
	Metadata        map[string]any `bson:"metadata,omitempty"`
	CreatedAt       time.Time      `bson:"created_at"`
}

type recipientDoc struct {
	ID       string `bson:"_id"`
	Name     string `bson:"name"`
	Role     string `bson:"role"`
	Email    string `bson:"email"`
	Phone    string `bson:"phone"`
	IsActive bool   `bson:"is_active"`
}

type preferenceDoc struct {
	RecipientID string `bson:"recipient_id"`
	EventType   string `bson:"event_type"`
	Enabled     bool   `bson:"enabled"`
	ViaEmail    bool   `bson:"via_email"`
	ViaSMS      bool   `bson:"via_sms"`
}

type templateDoc struct {
	EventType string `bson:"event_type"`
	Channel   string `bson:"channel"`
	Subject   string `bson:"subject"`
	Body      string `bson:"body"`
}

type deliveryDoc struct {
	ID               string     `bson:"_id"`
	EventID          string     `bson:"event_id"`
	RecipientID      string     `bson:"recipient_id"`
	Channel          string     `bson:"channel"`
	Status           string     `bson:"status"`
	Attempts         int        `bson:"attempts"`
	ProviderResponse string     `bson:"provider_response"`
	NextAttemptAt    time.Time  `bson:"next_attempt_at"`
	ClaimedAt        *time.Time `bson:"claimed_at,omitempty"`
	SentAt           *time.Time `bson:"sent_at,omitempty"`
	CreatedAt        time.Time  `bson:"created_at"`
}

func (d deliveryDoc) toDelivery() (notify.Delivery, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return notify.Delivery{}, fmt.Errorf("parse delivery id: %w", err)
	}
	eventID, err := uuid.Parse(d.EventID)
	if err != nil {
		return notify.Delivery{}, fmt.Errorf("parse event id: %w", err)
	}
	recipientID, err := uuid.Parse(d.RecipientID)
	if err != nil {
		return notify.Delivery{}, fmt.Errorf("parse recipient id: %w", err)
	}
	return notify.Delivery{
		ID:               id,
		EventID:          eventID,
		RecipientID:      recipientID,
		Channel:          notify.Channel(d.Channel),
		Status:           notify.Status(d.Status),
		Attempts:         d.Attempts,
		ProviderResponse: d.ProviderResponse,
		NextAttemptAt:    d.NextAttemptAt,
		SentAt:           d.SentAt,
		CreatedAt:        d.CreatedAt,
	}, nil
}

// CreateEvent implements notify.EmitterStorage.
func (s *Storage) CreateEvent(ctx context.Context, event *notify.Event) error {
	_, err := s.events.InsertOne(ctx, eventDoc{
		ID:              event.ID.String(),
		Type:            string(event.Type),
		ActorType:       string(event.Actor.Type),
		ActorIdentifier: event.Actor.Identifier,
		Summary:         event.Summary,
		Metadata:        event.Metadata,
		CreatedAt:       event.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ActiveRecipients implements notify.EmitterStorage.
func (s *Storage) ActiveRecipients(ctx context.Context) ([]notify.Recipient, error) {
	cursor, err := s.recipients.Find(ctx, bson.M{"is_active": true},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find recipients: %w", err)
	}
	defer cursor.Close(ctx)

	var out []notify.Recipient
	for cursor.Next(ctx) {
		var doc recipientDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode recipient: %w", err)
		}
		r, err := doc.toRecipient()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, cursor.Err()
}

func (d recipientDoc) toRecipient() (notify.Recipient, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return notify.Recipient{}, fmt.Errorf("parse recipient id: %w", err)
	}
	return notify.Recipient{
		ID:       id,
		Name:     d.Name,
		Role:     d.Role,
		Email:    d.Email,
		Phone:    d.Phone,
		IsActive: d.IsActive,
	}, nil
}

// Recipient implements notify.DispatcherStorage.
func (s *Storage) Recipient(ctx context.Context, id uuid.UUID) (*notify.Recipient, error) {
	var doc recipientDoc
	err := s.recipients.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notify.ErrNotFound
		}
		return nil, fmt.Errorf("find recipient: %w", err)
	}
	r, err := doc.toRecipient()
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Preference implements notify.EmitterStorage.
func (s *Storage) Preference(ctx context.Context, recipientID uuid.UUID, eventType notify.EventType) (*notify.Preference, error) {
	var doc preferenceDoc
	err := s.preferences.FindOne(ctx, bson.M{
		"recipient_id": recipientID.String(),
		"event_type":   string(eventType),
	}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notify.ErrNotFound
		}
		return nil, fmt.Errorf("find preference: %w", err)
	}
	return &notify.Preference{
		RecipientID: recipientID,
		EventType:   eventType,
		Enabled:     doc.Enabled,
		ViaEmail:    doc.ViaEmail,
		ViaSMS:      doc.ViaSMS,
	}, nil
}

// Template implements notify.DispatcherStorage.
func (s *Storage) Template(ctx context.Context, eventType notify.EventType, channel notify.Channel) (*notify.Template, error) {
	var doc templateDoc
	err := s.templates.FindOne(ctx, bson.M{
		"event_type": string(eventType),
		"channel":    string(channel),
	}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notify.ErrNotFound
		}
		return nil, fmt.Errorf("find template: %w", err)
	}
	return &notify.Template{
		EventType: eventType,
		Channel:   channel,
		Subject:   doc.Subject,
		Body:      doc.Body,
	}, nil
}

// Event implements notify.DispatcherStorage.
func (s *Storage) Event(ctx context.Context, id uuid.UUID) (*notify.Event, error) {
	var doc eventDoc
	err := s.events.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notify.ErrNotFound
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	eventID, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("parse event id: %w", err)
	}
	return &notify.Event{
		ID:        eventID,
		Type:      notify.EventType(doc.Type),
		Actor:     notify.Actor{Type: notify.ActorType(doc.ActorType), Identifier: doc.ActorIdentifier},
		Summary:   doc.Summary,
		Metadata:  doc.Metadata,
		CreatedAt: doc.CreatedAt,
	}, nil
}

// CreateDelivery implements notify.EmitterStorage.
func (s *Storage) CreateDelivery(ctx context.Context, delivery *notify.Delivery) error {
	_, err := s.deliveries.InsertOne(ctx, deliveryDoc{
		ID:               delivery.ID.String(),
		EventID:          delivery.EventID.String(),
		RecipientID:      delivery.RecipientID.String(),
		Channel:          string(delivery.Channel),
		Status:           string(delivery.Status),
		Attempts:         delivery.Attempts,
		ProviderResponse: delivery.ProviderResponse,
		NextAttemptAt:    delivery.NextAttemptAt,
		SentAt:           delivery.SentAt,
		CreatedAt:        delivery.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

// ClaimPending implements notify.DispatcherStorage. Claims are taken one
// document at a time: each FindOneAndUpdate atomically flips the oldest due
// pending delivery to processing, so racing dispatchers interleave instead
// of colliding.
func (s *Storage) ClaimPending(ctx context.Context, limit int) ([]notify.Delivery, error) {
	now := time.Now()
	var claimed []notify.Delivery

	for len(claimed) < limit {
		var doc deliveryDoc
		err := s.deliveries.FindOneAndUpdate(ctx,
			bson.M{
				"status":          string(notify.StatusPending),
				"next_attempt_at": bson.M{"$lte": now},
			},
			bson.M{"$set": bson.M{
				"status":     string(notify.StatusProcessing),
				"claimed_at": now,
			}},
			options.FindOneAndUpdate().
				SetSort(bson.D{{Key: "created_at", Value: 1}}).
				SetReturnDocument(options.After),
		).Decode(&doc)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				break
			}
			return nil, fmt.Errorf("claim delivery: %w", err)
		}
		d, err := doc.toDelivery()
		if err != nil {
			return nil, err
		}
		claimed = append(claimed, d)
	}

	if len(claimed) == 0 {
		return nil, notify.ErrNoDeliveryToClaim
	}
	return claimed, nil
}

func (s *Storage) terminalize(ctx context.Context, deliveryID uuid.UUID, set bson.M) error {
	res, err := s.deliveries.UpdateOne(ctx,
		bson.M{"_id": deliveryID.String(), "status": string(notify.StatusProcessing)},
		bson.M{
			"$set": set,
			"$inc": bson.M{"attempts": 1},
		})
	if err != nil {
		return fmt.Errorf("update delivery: %w", err)
	}
	if res.MatchedCount == 0 {
		return notify.ErrInvalidTransition
	}
	return nil
}

// MarkSent implements notify.DispatcherStorage.
func (s *Storage) MarkSent(ctx context.Context, deliveryID uuid.UUID, providerResponse string, sentAt time.Time) error {
	return s.terminalize(ctx, deliveryID, bson.M{
		"status":            string(notify.StatusSent),
		"provider_response": providerResponse,
		"sent_at":           sentAt,
		"claimed_at":        nil,
	})
}

// MarkFailed implements notify.DispatcherStorage.
func (s *Storage) MarkFailed(ctx context.Context, deliveryID uuid.UUID, reason string) error {
	return s.terminalize(ctx, deliveryID, bson.M{
		"status":            string(notify.StatusFailed),
		"provider_response": reason,
		"claimed_at":        nil,
	})
}

// ScheduleRetry implements notify.DispatcherStorage.
func (s *Storage) ScheduleRetry(ctx context.Context, deliveryID uuid.UUID, reason string, at time.Time) error {
	return s.terminalize(ctx, deliveryID, bson.M{
		"status":            string(notify.StatusPending),
		"provider_response": reason,
		"next_attempt_at":   at,
		"claimed_at":        nil,
	})
}

// ReleaseStale implements notify.DispatcherStorage.
func (s *Storage) ReleaseStale(ctx context.Context, olderThan time.Duration) (int, error) {
	res, err := s.deliveries.UpdateMany(ctx,
		bson.M{
			"status":     string(notify.StatusProcessing),
			"claimed_at": bson.M{"$lt": time.Now().Add(-olderThan)},
		},
		bson.M{"$set": bson.M{
			"status":     string(notify.StatusPending),
			"claimed_at": nil,
		}})
	if err != nil {
		return 0, fmt.Errorf("release stale deliveries: %w", err)
	}
	return int(res.ModifiedCount), nil
}

// ListDeliveries implements notify.Storage.
func (s *Storage) ListDeliveries(ctx context.Context, filter notify.DeliveryFilter) ([]notify.Delivery, error) {
	query := bson.M{}
	if filter.EventID != uuid.Nil {
		query["event_id"] = filter.EventID.String()
	}
	if filter.RecipientID != uuid.Nil {
		query["recipient_id"] = filter.RecipientID.String()
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Limit > 0 {
		opts = opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := s.deliveries.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer cursor.Close(ctx)

	var out []notify.Delivery
	for cursor.Next(ctx) {
		var doc deliveryDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode delivery: %w", err)
		}
		d, err := doc.toDelivery()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, cursor.Err()
}
