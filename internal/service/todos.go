package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lgch/luna/internal/calsync"
	"github.com/lgch/luna/internal/store"
)

// TodoResult is a persisted todo and the outcome of mirroring it.
type TodoResult struct {
	Todo *store.Todo    `json:"todo"`
	Sync calsync.Status `json:"sync"`
}

// TodoUpdate is a partial todo update. Nil fields are left unchanged.
type TodoUpdate struct {
	Title       *string
	Description *string
	Priority    *store.Level
	DueDate     *time.Time
	Completed   *bool
}

// Empty reports whether the update changes nothing.
func (u TodoUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Priority == nil && u.DueDate == nil && u.Completed == nil
}

// CreateTodo stores a new todo and pushes it to the calendar. A todo
// without a due date is due now.
func (s *Service) CreateTodo(ctx context.Context, t *store.Todo) (*TodoResult, error) {
	if t.DueDate == nil {
		t.DueDate = store.Time(s.Now())
	}
	if err := s.store.CreateTodo(ctx, t); err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}

	st := s.sync.PushTodo(ctx, t)
	st = s.link(ctx, calsync.KindTodo, t.ID, st, s.store.SetTodoCalendarEventID)
	if st.State == calsync.StateSynced {
		t.GoogleCalendarEventID = st.EventID
	}
	return &TodoResult{Todo: t, Sync: st}, nil
}

// GetTodo returns one todo.
func (s *Service) GetTodo(ctx context.Context, id string) (*store.Todo, error) {
	return s.store.GetTodo(ctx, id)
}

// ListTodos returns the todos matching f.
func (s *Service) ListTodos(ctx context.Context, f store.TodoFilter) ([]store.Todo, error) {
	return s.store.ListTodos(ctx, f)
}

// CompleteTodo marks a todo completed and updates its remote event when
// linked.
func (s *Service) CompleteTodo(ctx context.Context, id string) (*TodoResult, error) {
	t, err := s.store.CompleteTodo(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("complete todo: %w", err)
	}

	st := s.sync.CompleteTodo(ctx, t)
	st = s.link(ctx, calsync.KindTodo, t.ID, st, s.store.SetTodoCalendarEventID)
	if st.State == calsync.StateSynced {
		t.GoogleCalendarEventID = st.EventID
	}
	return &TodoResult{Todo: t, Sync: st}, nil
}

// UpdateTodo applies u and re-pushes the todo when it is linked.
func (s *Service) UpdateTodo(ctx context.Context, id string, u TodoUpdate) (*TodoResult, error) {
	t, err := s.store.GetTodo(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update todo: %w", err)
	}

	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Priority != nil {
		t.Priority = *u.Priority
	}
	if u.DueDate != nil {
		t.DueDate = u.DueDate
	}
	if u.Completed != nil {
		t.Completed = *u.Completed
	}

	if err := s.store.UpdateTodo(ctx, t); err != nil {
		return nil, fmt.Errorf("update todo: %w", err)
	}

	if t.GoogleCalendarEventID == "" {
		return &TodoResult{Todo: t, Sync: calsync.Status{State: calsync.StateSkipped}}, nil
	}
	st := s.sync.PushTodo(ctx, t)
	st = s.link(ctx, calsync.KindTodo, t.ID, st, s.store.SetTodoCalendarEventID)
	if st.State == calsync.StateSynced {
		t.GoogleCalendarEventID = st.EventID
	}
	return &TodoResult{Todo: t, Sync: st}, nil
}

// DeleteTodo removes a todo. The remote event is deleted first on a best
// effort basis; the local delete happens regardless of its outcome.
func (s *Service) DeleteTodo(ctx context.Context, id string) (*TodoResult, error) {
	t, err := s.store.GetTodo(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete todo: %w", err)
	}

	st := s.sync.Remove(ctx, calsync.KindTodo, t.ID, t.GoogleCalendarEventID)
	if err := s.store.DeleteTodo(ctx, t.ID); err != nil {
		return nil, fmt.Errorf("delete todo: %w", err)
	}
	return &TodoResult{Todo: t, Sync: st}, nil
}
