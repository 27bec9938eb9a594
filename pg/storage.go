package pg

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/notify"
)

// DBTX is the subset of pgx operations the storage needs, satisfied by
// both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Storage implements notify.Storage on PostgreSQL. The claim step uses
// UPDATE … FOR UPDATE SKIP LOCKED so concurrent dispatchers partition the
// pending queue instead of double-claiming rows.
type Storage struct {
	db DBTX
}

// NewStorage creates a PostgreSQL-backed storage.
func NewStorage(db DBTX) *Storage {
	return &Storage{db: db}
}

// NewStorageFromPool is a convenience constructor for the common case.
func NewStorageFromPool(pool *pgxpool.Pool) *Storage {
	return &Storage{db: pool}
}

// CreateEvent implements notify.EmitterStorage.
func (s *Storage) CreateEvent(ctx context.Context, event *notify.Event) error {
	metadata := event.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO notify_events (id, event_type, actor_type, actor_identifier, summary, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.Type, event.Actor.Type, event.Actor.Identifier,
		event.Summary, metadata, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ActiveRecipients implements notify.EmitterStorage.
func (s *Storage) ActiveRecipients(ctx context.Context) ([]notify.Recipient, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, role, email, phone, is_active
		FROM notify_recipients
		WHERE is_active
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select recipients: %w", err)
	}
	defer rows.Close()

	var out []notify.Recipient
	for rows.Next() {
		var r notify.Recipient
		if err := rows.Scan(&r.ID, &r.Name, &r.Role, &r.Email, &r.Phone, &r.IsActive); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Recipient implements notify.DispatcherStorage.
func (s *Storage) Recipient(ctx context.Context, id uuid.UUID) (*notify.Recipient, error) {
	var r notify.Recipient
	err := s.db.QueryRow(ctx, `
		SELECT id, name, role, email, phone, is_active
		FROM notify_recipients
		WHERE id = $1`, id,
	).Scan(&r.ID, &r.Name, &r.Role, &r.Email, &r.Phone, &r.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notify.ErrNotFound
		}
		return nil, fmt.Errorf("select recipient: %w", err)
	}
	return &r, nil
}

// Preference implements notify.EmitterStorage.
func (s *Storage) Preference(ctx context.Context, recipientID uuid.UUID, eventType notify.EventType) (*notify.Preference, error) {
	p := notify.Preference{RecipientID: recipientID, EventType: eventType}
	err := s.db.QueryRow(ctx, `
		SELECT enabled, via_email, via_sms
		FROM notify_preferences
		WHERE recipient_id = $1 AND event_type = $2`,
		recipientID, eventType,
	).Scan(&p.Enabled, &p.ViaEmail, &p.ViaSMS)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notify.ErrNotFound
		}
		return nil, fmt.Errorf("select preference: %w", err)
	}
	return &p, nil
}

// Template implements notify.DispatcherStorage.
func (s *Storage) Template(ctx context.Context, eventType notify.EventType, channel notify.Channel) (*notify.Template, error) {
	t := notify.Template{EventType: eventType, Channel: channel}
	err := s.db.QueryRow(ctx, `
		SELECT subject, body
		FROM notify_templates
		WHERE event_type = $1 AND channel = $2`,
		eventType, channel,
	).Scan(&t.Subject, &t.Body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notify.ErrNotFound
		}
		return nil, fmt.Errorf("select template: %w", err)
	}
	return &t, nil
}

// Event implements notify.DispatcherStorage.
func (s *Storage) Event(ctx context.Context, id uuid.UUID) (*notify.Event, error) {
	var e notify.Event
	err := s.db.QueryRow(ctx, `
		SELECT id, event_type, actor_type, actor_identifier, summary, metadata, created_at
		FROM notify_events
		WHERE id = $1`, id,
	).Scan(&e.ID, &e.Type, &e.Actor.Type, &e.Actor.Identifier, &e.Summary, &e.Metadata, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notify.ErrNotFound
		}
		return nil, fmt.Errorf("select event: %w", err)
	}
	return &e, nil
}

// CreateDelivery implements notify.EmitterStorage.
func (s *Storage) CreateDelivery(ctx context.Context, delivery *notify.Delivery) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO notify_deliveries (id, event_id, recipient_id, channel, status, attempts, provider_response, next_attempt_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		delivery.ID, delivery.EventID, delivery.RecipientID, delivery.Channel,
		delivery.Status, delivery.Attempts, delivery.ProviderResponse,
		delivery.NextAttemptAt, delivery.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

const deliveryColumns = `id, event_id, recipient_id, channel, status, attempts, provider_response, next_attempt_at, sent_at, created_at`

func scanDelivery(row pgx.Row) (notify.Delivery, error) {
	var d notify.Delivery
	err := row.Scan(&d.ID, &d.EventID, &d.RecipientID, &d.Channel, &d.Status,
		&d.Attempts, &d.ProviderResponse, &d.NextAttemptAt, &d.SentAt, &d.CreatedAt)
	return d, err
}

// ClaimPending implements notify.DispatcherStorage. The inner SELECT with
// FOR UPDATE SKIP LOCKED and the status flip run as one statement, so each
// due row is handed to exactly one caller even under concurrent claims.
func (s *Storage) ClaimPending(ctx context.Context, limit int) ([]notify.Delivery, error) {
	rows, err := s.db.Query(ctx, `
		UPDATE notify_deliveries
		SET status = 'processing', claimed_at = now()
		WHERE id IN (
			SELECT id FROM notify_deliveries
			WHERE status = 'pending' AND next_attempt_at <= now()
			ORDER BY created_at, id
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+deliveryColumns, limit)
	if err != nil {
		return nil, fmt.Errorf("claim deliveries: %w", err)
	}
	defer rows.Close()

	var claimed []notify.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		claimed = append(claimed, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(claimed) == 0 {
		return nil, notify.ErrNoDeliveryToClaim
	}
	// RETURNING order is not guaranteed to follow the inner SELECT.
	sort.Slice(claimed, func(i, j int) bool {
		return claimed[i].CreatedAt.Before(claimed[j].CreatedAt)
	})
	return claimed, nil
}

// MarkSent implements notify.DispatcherStorage.
func (s *Storage) MarkSent(ctx context.Context, deliveryID uuid.UUID, providerResponse string, sentAt time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE notify_deliveries
		SET status = 'sent', attempts = attempts + 1, provider_response = $2, sent_at = $3, claimed_at = NULL
		WHERE id = $1 AND status = 'processing'`,
		deliveryID, providerResponse, sentAt)
	if err != nil {
		return fmt.Errorf("mark delivery sent: %w", err)
	}
	return checkTransition(tag)
}

// MarkFailed implements notify.DispatcherStorage.
func (s *Storage) MarkFailed(ctx context.Context, deliveryID uuid.UUID, reason string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE notify_deliveries
		SET status = 'failed', attempts = attempts + 1, provider_response = $2, claimed_at = NULL
		WHERE id = $1 AND status = 'processing'`,
		deliveryID, reason)
	if err != nil {
		return fmt.Errorf("mark delivery failed: %w", err)
	}
	return checkTransition(tag)
}

// ScheduleRetry implements notify.DispatcherStorage.
func (s *Storage) ScheduleRetry(ctx context.Context, deliveryID uuid.UUID, reason string, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE notify_deliveries
		SET status = 'pending', attempts = attempts + 1, provider_response = $2, next_attempt_at = $3, claimed_at = NULL
		WHERE id = $1 AND status = 'processing'`,
		deliveryID, reason, at)
	if err != nil {
		return fmt.Errorf("schedule delivery retry: %w", err)
	}
	return checkTransition(tag)
}

// checkTransition maps a zero-row update to the lifecycle error: the row is
// either gone or not in the state the transition requires.
func checkTransition(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return notify.ErrInvalidTransition
	}
	return nil
}

// ReleaseStale implements notify.DispatcherStorage.
func (s *Storage) ReleaseStale(ctx context.Context, olderThan time.Duration) (int, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE notify_deliveries
		SET status = 'pending', claimed_at = NULL
		WHERE status = 'processing' AND claimed_at < now() - $1::interval`,
		olderThan.String())
	if err != nil {
		return 0, fmt.Errorf("release stale deliveries: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ListDeliveries implements notify.Storage.
func (s *Storage) ListDeliveries(ctx context.Context, filter notify.DeliveryFilter) ([]notify.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM notify_deliveries WHERE true`
	var args []any
	if filter.EventID != uuid.Nil {
		args = append(args, filter.EventID)
		query += fmt.Sprintf(" AND event_id = $%d", len(args))
	}
	if filter.RecipientID != uuid.Nil {
		args = append(args, filter.RecipientID)
		query += fmt.Sprintf(" AND recipient_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var out []notify.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
