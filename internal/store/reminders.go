package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const reminderColumns = `id, created_at, updated_at, reminder_text, importance, reminder_date, google_calendar_event_id`

// CreateReminder inserts r, assigning its id and timestamps. An empty
// importance defaults to medium.
func (d *DB) CreateReminder(ctx context.Context, r *Reminder) error {
	if r.Importance == "" {
		r.Importance = LevelMedium
	}
	if err := r.Validate(); err != nil {
		return err
	}

	now := d.timestamp()
	r.ID = newID()
	r.CreatedAt = now
	r.UpdatedAt = now

	_, err := d.exec(ctx,
		`INSERT INTO reminders (`+reminderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt, r.UpdatedAt, r.ReminderText, string(r.Importance),
		nullTime(r.ReminderDate), nullString(r.GoogleCalendarEventID),
	)
	if err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

// GetReminder returns the reminder with the given id.
func (d *DB) GetReminder(ctx context.Context, id string) (*Reminder, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	r, err := scanReminder(d.queryRow(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	return r, nil
}

// ListReminders returns reminders oldest first.
func (d *DB) ListReminders(ctx context.Context, f ReminderFilter) ([]Reminder, error) {
	q := `SELECT ` + reminderColumns + ` FROM reminders`
	var args []any
	if f.Unlinked {
		q += " WHERE (google_calendar_event_id IS NULL OR google_calendar_event_id = '')"
	}
	q += " ORDER BY created_at, id"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := d.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	reminders := []Reminder{}
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		reminders = append(reminders, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}

// SetReminderCalendarEventID links the reminder to a remote calendar event.
func (d *DB) SetReminderCalendarEventID(ctx context.Context, id, eventID string) error {
	return d.setCalendarEventID(ctx, "reminders", id, eventID)
}

// DeleteReminder removes the reminder.
func (d *DB) DeleteReminder(ctx context.Context, id string) error {
	return d.deleteByID(ctx, "reminders", id)
}

func scanReminder(s scanner) (*Reminder, error) {
	var (
		r          Reminder
		importance string
		date       sql.NullTime
		eventID    sql.NullString
	)
	if err := s.Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt, &r.ReminderText, &importance, &date, &eventID); err != nil {
		return nil, err
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	r.Importance = Level(importance)
	r.ReminderDate = timePtr(date)
	r.GoogleCalendarEventID = eventID.String
	return &r, nil
}
