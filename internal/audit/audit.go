package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"garagedesk/internal/events"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Entry is one recorded booking change.
type Entry struct {
	ID        int64
	EventType string
	BookingID int64
	Customer  string
	OldStatus string
	NewStatus string
	OldDate   string
	NewDate   string
	OldTime   string
	NewTime   string
	CreatedAt time.Time
}

// Trail persists booking events to a local sqlite file so status changes
// survive restarts and can be reviewed per booking.
type Trail struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewTrail(path string, logger zerolog.Logger) (*Trail, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect to audit database: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("create audit tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("audit trail ready")
	return &Trail{db: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS booking_events (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            event_type TEXT NOT NULL,
            booking_id INTEGER NOT NULL,
            customer TEXT,
            old_status TEXT,
            new_status TEXT,
            old_date TEXT,
            new_date TEXT,
            old_time TEXT,
            new_time TEXT,
            created_at DATETIME NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_booking_events_booking_id ON booking_events(booking_id)`,
		`CREATE INDEX IF NOT EXISTS idx_booking_events_type ON booking_events(event_type)`,
	}
	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("execute %q: %w", query, err)
		}
	}
	return nil
}

// Record stores one entry.
func (t *Trail) Record(ctx context.Context, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	query := `
        INSERT INTO booking_events
            (event_type, booking_id, customer, old_status, new_status, old_date, new_date, old_time, new_time, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := t.db.ExecContext(ctx, query,
		entry.EventType, entry.BookingID, entry.Customer,
		entry.OldStatus, entry.NewStatus,
		entry.OldDate, entry.NewDate, entry.OldTime, entry.NewTime,
		entry.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// ByBooking returns the recorded history of one booking, oldest first.
func (t *Trail) ByBooking(ctx context.Context, bookingID int64) ([]Entry, error) {
	query := `
        SELECT id, event_type, booking_id, customer, old_status, new_status, old_date, new_date, old_time, new_time, created_at
        FROM booking_events
        WHERE booking_id = ?
        ORDER BY id
    `
	return t.query(ctx, query, bookingID)
}

// Recent returns the latest entries across all bookings, newest first.
func (t *Trail) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `
        SELECT id, event_type, booking_id, customer, old_status, new_status, old_date, new_date, old_time, new_time, created_at
        FROM booking_events
        ORDER BY id DESC
        LIMIT ?
    `
	return t.query(ctx, query, limit)
}

func (t *Trail) query(ctx context.Context, query string, args ...interface{}) ([]Entry, error) {
	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.EventType, &e.BookingID, &e.Customer,
			&e.OldStatus, &e.NewStatus, &e.OldDate, &e.NewDate, &e.OldTime, &e.NewTime,
			&e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the underlying database handle.
func (t *Trail) Close() error {
	return t.db.Close()
}

// SubscribeTo wires the trail to the booking events on the bus. Handler
// failures are logged, never propagated: a broken audit disk must not block
// a status change.
func (t *Trail) SubscribeTo(bus *events.Bus) {
	handler := func(event *events.Event) error {
		var payload events.BookingEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			t.logger.Error().Err(err).Str("event", event.Type).Msg("undecodable audit payload")
			return nil
		}
		entry := Entry{
			EventType: event.Type,
			BookingID: payload.BookingID,
			Customer:  payload.Customer,
			OldStatus: payload.OldStatus,
			NewStatus: payload.NewStatus,
			OldDate:   payload.OldDate,
			NewDate:   payload.NewDate,
			OldTime:   payload.OldTime,
			NewTime:   payload.NewTime,
			CreatedAt: event.CreatedAt,
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := t.Record(ctx, entry); err != nil {
			t.logger.Error().Err(err).Int64("booking_id", payload.BookingID).Msg("audit entry not recorded")
		}
		return nil
	}

	for _, eventType := range []string{
		events.EventBookingConfirmed,
		events.EventBookingCancelled,
		events.EventBookingRescheduled,
	} {
		bus.Subscribe(eventType, handler)
	}
}
