package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const eventColumns = `id, created_at, updated_at, title, description, event_from, event_to, google_calendar_event_id`

// CreateEvent inserts e, assigning its id and timestamps. EventTo must be
// strictly after EventFrom.
func (d *DB) CreateEvent(ctx context.Context, e *CalendarEvent) error {
	e.EventFrom = e.EventFrom.UTC()
	e.EventTo = e.EventTo.UTC()
	if err := e.Validate(); err != nil {
		return err
	}

	now := d.timestamp()
	e.ID = newID()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := d.exec(ctx,
		`INSERT INTO calendar_events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt, e.UpdatedAt, e.Title, nullString(e.Description),
		e.EventFrom, e.EventTo, nullString(e.GoogleCalendarEventID),
	)
	if err != nil {
		return fmt.Errorf("insert calendar event: %w", err)
	}
	return nil
}

// GetEvent returns the calendar event with the given id.
func (d *DB) GetEvent(ctx context.Context, id string) (*CalendarEvent, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	e, err := scanEvent(d.queryRow(ctx, `SELECT `+eventColumns+` FROM calendar_events WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get calendar event: %w", err)
	}
	return e, nil
}

// ListEvents returns events that overlap the filter window, ordered by
// start time.
func (d *DB) ListEvents(ctx context.Context, f EventFilter) ([]CalendarEvent, error) {
	var (
		where []string
		args  []any
	)
	if f.From != nil {
		where = append(where, "event_to > ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		where = append(where, "event_from < ?")
		args = append(args, f.To.UTC())
	}
	if f.Unlinked {
		where = append(where, "(google_calendar_event_id IS NULL OR google_calendar_event_id = '')")
	}

	q := `SELECT ` + eventColumns + ` FROM calendar_events`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY event_from, id"

	rows, err := d.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	defer rows.Close()

	events := []CalendarEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calendar event: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	return events, nil
}

// SetEventCalendarEventID links the event to a remote calendar event.
func (d *DB) SetEventCalendarEventID(ctx context.Context, id, eventID string) error {
	return d.setCalendarEventID(ctx, "calendar_events", id, eventID)
}

// DeleteEvent removes the calendar event.
func (d *DB) DeleteEvent(ctx context.Context, id string) error {
	return d.deleteByID(ctx, "calendar_events", id)
}

func scanEvent(s scanner) (*CalendarEvent, error) {
	var (
		e       CalendarEvent
		desc    sql.NullString
		eventID sql.NullString
	)
	if err := s.Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt, &e.Title, &desc, &e.EventFrom, &e.EventTo, &eventID); err != nil {
		return nil, err
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	e.EventFrom = e.EventFrom.UTC()
	e.EventTo = e.EventTo.UTC()
	e.Description = desc.String
	e.GoogleCalendarEventID = eventID.String
	return &e, nil
}
