package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const todoColumns = `id, created_at, updated_at, title, description, completed, priority, due_date, google_calendar_event_id`

// CreateTodo inserts t, assigning its id and timestamps. An empty priority
// defaults to medium.
func (d *DB) CreateTodo(ctx context.Context, t *Todo) error {
	if t.Priority == "" {
		t.Priority = LevelMedium
	}
	if err := t.Validate(); err != nil {
		return err
	}

	now := d.timestamp()
	t.ID = newID()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := d.exec(ctx,
		`INSERT INTO todos (`+todoColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.CreatedAt, t.UpdatedAt, t.Title, nullString(t.Description), t.Completed,
		string(t.Priority), nullTime(t.DueDate), nullString(t.GoogleCalendarEventID),
	)
	if err != nil {
		return fmt.Errorf("insert todo: %w", err)
	}
	return nil
}

// GetTodo returns the todo with the given id.
func (d *DB) GetTodo(ctx context.Context, id string) (*Todo, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	t, err := scanTodo(d.queryRow(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get todo: %w", err)
	}
	return t, nil
}

// ListTodos returns todos matching f, oldest first.
func (d *DB) ListTodos(ctx context.Context, f TodoFilter) ([]Todo, error) {
	var (
		where []string
		args  []any
	)
	switch f.Status {
	case TodoStatusPending:
		where = append(where, "completed = ?")
		args = append(args, false)
	case TodoStatusCompleted:
		where = append(where, "completed = ?")
		args = append(args, true)
	case "", TodoStatusAll:
	default:
		return nil, fmt.Errorf("invalid status %q, must be one of: all, pending, completed", f.Status)
	}
	if f.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, string(f.Priority))
	}
	if f.Unlinked {
		where = append(where, "(google_calendar_event_id IS NULL OR google_calendar_event_id = '')")
	}

	q := `SELECT ` + todoColumns + ` FROM todos`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at, id"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := d.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	todos := []Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

// UpdateTodo writes the mutable fields of t and refreshes UpdatedAt.
func (d *DB) UpdateTodo(ctx context.Context, t *Todo) error {
	id, err := normalizeID(t.ID)
	if err != nil {
		return err
	}
	if err := t.Validate(); err != nil {
		return err
	}

	updated := d.timestamp()
	res, err := d.exec(ctx,
		`UPDATE todos SET updated_at = ?, title = ?, description = ?, completed = ?, priority = ?, due_date = ?
		 WHERE id = ?`,
		updated, t.Title, nullString(t.Description), t.Completed, string(t.Priority), nullTime(t.DueDate), id,
	)
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	if err := expectOne(res); err != nil {
		return err
	}
	t.ID = id
	t.UpdatedAt = updated
	return nil
}

// CompleteTodo marks the todo completed and returns the updated row.
// Completing an already completed todo is not an error.
func (d *DB) CompleteTodo(ctx context.Context, id string) (*Todo, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	res, err := d.exec(ctx, `UPDATE todos SET completed = ?, updated_at = ? WHERE id = ?`, true, d.timestamp(), id)
	if err != nil {
		return nil, fmt.Errorf("complete todo: %w", err)
	}
	if err := expectOne(res); err != nil {
		return nil, err
	}
	return d.GetTodo(ctx, id)
}

// SetTodoCalendarEventID links the todo to a remote calendar event. An
// empty eventID clears the link.
func (d *DB) SetTodoCalendarEventID(ctx context.Context, id, eventID string) error {
	return d.setCalendarEventID(ctx, "todos", id, eventID)
}

// DeleteTodo removes the todo.
func (d *DB) DeleteTodo(ctx context.Context, id string) error {
	return d.deleteByID(ctx, "todos", id)
}

func scanTodo(s scanner) (*Todo, error) {
	var (
		t        Todo
		desc     sql.NullString
		priority string
		due      sql.NullTime
		eventID  sql.NullString
	)
	if err := s.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt, &t.Title, &desc, &t.Completed, &priority, &due, &eventID); err != nil {
		return nil, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	t.Description = desc.String
	t.Priority = Level(priority)
	t.DueDate = timePtr(due)
	t.GoogleCalendarEventID = eventID.String
	return &t, nil
}

// setCalendarEventID and deleteByID are shared by the three syncable tables.
// table is always a package constant, never user input.
func (d *DB) setCalendarEventID(ctx context.Context, table, id, eventID string) error {
	id, err := normalizeID(id)
	if err != nil {
		return err
	}
	res, err := d.exec(ctx,
		`UPDATE `+table+` SET google_calendar_event_id = ?, updated_at = ? WHERE id = ?`,
		nullString(eventID), d.timestamp(), id,
	)
	if err != nil {
		return fmt.Errorf("link %s calendar event: %w", table, err)
	}
	return expectOne(res)
}

func (d *DB) deleteByID(ctx context.Context, table, id string) error {
	id, err := normalizeID(id)
	if err != nil {
		return err
	}
	res, err := d.exec(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return expectOne(res)
}
