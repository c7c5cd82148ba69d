package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is a committed calendar entry. Start and End are stored as
// RFC 3339 normalized to UTC so the TEXT columns compare and sort as
// instants regardless of the offset the caller supplied.
type Event struct {
	ID          string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	CreatedAt   time.Time
}

// EventStore persists calendar events.
type EventStore struct {
	db *DB
}

func NewEventStore(db *DB) *EventStore {
	return &EventStore{db: db}
}

// Insert writes a new event and returns its generated id.
func (s *EventStore) Insert(ctx context.Context, ev Event) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.SQLDB().ExecContext(ctx, s.db.rebind(
		`INSERT INTO events (id, summary, description, location, start_at, end_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		id, ev.Summary, ev.Description, ev.Location,
		ev.Start.UTC().Format(time.RFC3339), ev.End.UTC().Format(time.RFC3339), now)
	if err != nil {
		return "", fmt.Errorf("event insert: %w", err)
	}
	return id, nil
}

// List returns all events ordered by start time.
func (s *EventStore) List(ctx context.Context) ([]Event, error) {
	return s.list(ctx, s.db.rebind(`SELECT id, summary, description, location, start_at, end_at, created_at FROM events ORDER BY start_at`))
}

// ListBetween returns events starting inside [from, to).
func (s *EventStore) ListBetween(ctx context.Context, from, to time.Time) ([]Event, error) {
	return s.list(ctx, s.db.rebind(
		`SELECT id, summary, description, location, start_at, end_at, created_at FROM events WHERE start_at >= ? AND start_at < ? ORDER BY start_at`),
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
}

func (s *EventStore) list(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := s.db.SQLDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("event list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		var ev Event
		var start, end, created string
		if err := rows.Scan(&ev.ID, &ev.Summary, &ev.Description, &ev.Location, &start, &end, &created); err != nil {
			return nil, fmt.Errorf("event scan: %w", err)
		}
		if ev.Start, err = time.Parse(time.RFC3339, start); err != nil {
			return nil, fmt.Errorf("event %s: bad start_at %q", ev.ID, start)
		}
		if ev.End, err = time.Parse(time.RFC3339, end); err != nil {
			return nil, fmt.Errorf("event %s: bad end_at %q", ev.ID, end)
		}
		ev.CreatedAt, _ = time.Parse(time.RFC3339, created)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Delete removes an event by id. Deleting an unknown id is an error so a
// resolution step never reports success for a no-op.
func (s *EventStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.SQLDB().ExecContext(ctx, s.db.rebind(`DELETE FROM events WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("event delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("event delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("event %q not found", id)
	}
	return nil
}
