package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opencode-ai/webmodal/internal/models"
)

// Event repository errors.
var (
	ErrEventNotFound = errors.New("event not found")
	ErrInvalidEvent  = errors.New("invalid event")
)

// EventRepository handles event persistence.
type EventRepository struct {
	db *DB
}

type eventExecer interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// EventQuery defines filters for querying events.
type EventQuery struct {
	Type       *models.EventType  // Filter by event type
	EntityType *models.EntityType // Filter by entity type
	EntityID   *string            // Filter by entity ID
	Host       *string            // Filter by host surface
	Since      *time.Time         // Events at or after this time (inclusive)
	Until      *time.Time         // Events before this time (exclusive)
	Cursor     string             // Pagination cursor (event ID); must exist
	Limit      int                // Max results to return
}

// EventPage represents a page of query results.
type EventPage struct {
	Events []*models.Event
	// NextCursor resumes after the last returned event. When the page is
	// empty it echoes the query cursor, so followers can keep polling.
	NextCursor string
	HasMore    bool
}

// timestampLayout is fixed-width so timestamps compare lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const eventColumns = `id, timestamp, type, entity_type, entity_id, host, payload_json, metadata_json`

// Append adds a new event to the event log.
// Returns ErrInvalidEvent if required fields are missing.
func (r *EventRepository) Append(ctx context.Context, event *models.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return r.Create(ctx, event)
}

// Create appends a new event to the event log.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	return r.createWithExecutor(ctx, r.db, event)
}

// CreateWithTx appends a new event using an existing transaction.
func (r *EventRepository) CreateWithTx(ctx context.Context, tx *sql.Tx, event *models.Event) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	return r.createWithExecutor(ctx, tx, event)
}

func (r *EventRepository) createWithExecutor(ctx context.Context, execer eventExecer, event *models.Event) error {
	switch {
	case event.Type == "":
		return fmt.Errorf("event type is required")
	case event.EntityType == "":
		return fmt.Errorf("event entity type is required")
	case event.EntityID == "":
		return fmt.Errorf("event entity id is required")
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.Timestamp = event.Timestamp.UTC()

	values, err := eventValues(event)
	if err != nil {
		return err
	}
	if _, err := execer.ExecContext(ctx, `INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, values...); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// eventValues lists the column values in eventColumns order. Empty
// payloads and nil metadata are stored as NULL.
func eventValues(event *models.Event) ([]any, error) {
	var payload, metadata sql.NullString
	if len(event.Payload) > 0 {
		payload = sql.NullString{String: string(event.Payload), Valid: true}
	}
	if event.Metadata != nil {
		data, err := json.Marshal(event.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadata = sql.NullString{String: string(data), Valid: true}
	}
	return []any{
		event.ID,
		event.Timestamp.Format(timestampLayout),
		string(event.Type),
		string(event.EntityType),
		event.EntityID,
		event.Host,
		payload,
		metadata,
	}, nil
}

// Get retrieves an event by ID.
func (r *EventRepository) Get(ctx context.Context, id string) (*models.Event, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	return r.scan(row)
}

// Query retrieves events matching the given filters with cursor-based
// pagination, in insertion order.
func (r *EventRepository) Query(ctx context.Context, q EventQuery) (*EventPage, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	var after int64
	if q.Cursor != "" {
		err := r.db.QueryRowContext(ctx, `SELECT seq FROM events WHERE id = ?`, q.Cursor).Scan(&after)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("cursor %q: %w", q.Cursor, ErrEventNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve cursor: %w", err)
		}
	}

	where, args := q.clauses(after)
	stmt := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		stmt += ` WHERE ` + strings.Join(where, ` AND `)
	}
	// One extra row tells whether another page exists.
	stmt += ` ORDER BY seq LIMIT ?`
	args = append(args, limit+1)

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	page := &EventPage{NextCursor: q.Cursor}
	if len(events) > limit {
		events = events[:limit]
		page.HasMore = true
	}
	page.Events = events
	if n := len(events); n > 0 {
		page.NextCursor = events[n-1].ID
	}
	return page, nil
}

// clauses turns the set filters into WHERE fragments and their arguments.
// after is the sequence number the cursor resolved to.
func (q EventQuery) clauses(after int64) ([]string, []any) {
	var where []string
	var args []any
	add := func(clause string, arg any) {
		where = append(where, clause)
		args = append(args, arg)
	}

	if q.Type != nil {
		add(`type = ?`, string(*q.Type))
	}
	if q.EntityType != nil {
		add(`entity_type = ?`, string(*q.EntityType))
	}
	if q.EntityID != nil {
		add(`entity_id = ?`, *q.EntityID)
	}
	if q.Host != nil {
		add(`host = ?`, *q.Host)
	}
	if q.Since != nil {
		add(`timestamp >= ?`, q.Since.UTC().Format(timestampLayout))
	}
	if q.Until != nil {
		add(`timestamp < ?`, q.Until.UTC().Format(timestampLayout))
	}
	if q.Cursor != "" {
		add(`seq > ?`, after)
	}
	return where, args
}

// ListByEntity retrieves events for an entity, oldest first.
func (r *EventRepository) ListByEntity(ctx context.Context, entityType models.EntityType, entityID string, limit int) ([]*models.Event, error) {
	page, err := r.Query(ctx, EventQuery{
		EntityType: &entityType,
		EntityID:   &entityID,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	return page.Events, nil
}

// CountByType returns the number of events of each type, optionally
// limited to one host.
func (r *EventRepository) CountByType(ctx context.Context, host string) (map[models.EventType]int64, error) {
	query := `SELECT type, COUNT(*) FROM events`
	args := []any{}
	if host != "" {
		query += ` WHERE host = ?`
		args = append(args, host)
	}
	query += ` GROUP BY type`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.EventType]int64)
	for rows.Next() {
		var eventType string
		var count int64
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		counts[models.EventType(eventType)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event counts: %w", err)
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *EventRepository) scan(row rowScanner) (*models.Event, error) {
	var (
		event                            models.Event
		timestamp, eventType, entityType string
		payloadJSON, metadataJSON        sql.NullString
	)
	if err := row.Scan(&event.ID, &timestamp, &eventType, &entityType, &event.EntityID, &event.Host, &payloadJSON, &metadataJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}

	event.Type = models.EventType(eventType)
	event.EntityType = models.EntityType(entityType)
	ts, err := time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		r.db.logger.Warn().Err(err).Str("event_id", event.ID).Msg("bad event timestamp")
	}
	event.Timestamp = ts

	if payloadJSON.Valid {
		event.Payload = json.RawMessage(payloadJSON.String)
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &event.Metadata); err != nil {
			r.db.logger.Warn().Err(err).Str("event_id", event.ID).Msg("failed to parse event metadata")
		}
	}
	return &event, nil
}
