package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTodo(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	todo := &Todo{Title: "Buy milk", Priority: LevelHigh}
	require.NoError(t, db.CreateTodo(ctx, todo))

	assert.NotEmpty(t, todo.ID)
	assert.False(t, todo.CreatedAt.IsZero())
	assert.Equal(t, todo.CreatedAt, todo.UpdatedAt)

	got, err := db.GetTodo(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", got.Title)
	assert.False(t, got.Completed)
	assert.Equal(t, LevelHigh, got.Priority)
	assert.Nil(t, got.DueDate)
	assert.Empty(t, got.GoogleCalendarEventID)
	assert.True(t, todo.CreatedAt.Equal(got.CreatedAt))
}

func TestCreateTodo_DefaultsAndDueDate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	due := time.Date(2025, 7, 4, 17, 30, 0, 0, time.UTC)
	todo := &Todo{Title: "Fireworks", Description: "buy some", DueDate: &due}
	require.NoError(t, db.CreateTodo(ctx, todo))
	assert.Equal(t, LevelMedium, todo.Priority)

	got, err := db.GetTodo(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "buy some", got.Description)
	require.NotNil(t, got.DueDate)
	assert.True(t, due.Equal(*got.DueDate))
}

func TestCreateTodo_Validation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		todo       Todo
		constraint string
	}{
		{name: "empty title", todo: Todo{Title: "  "}, constraint: ConstraintTodoTitle},
		{name: "unknown priority", todo: Todo{Title: "x", Priority: "critical"}, constraint: ConstraintTodoPriority},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.CreateTodo(ctx, &tt.todo)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConstraint))

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.constraint, ve.Constraint)
		})
	}

	todos, err := db.ListTodos(ctx, TodoFilter{})
	require.NoError(t, err)
	assert.Empty(t, todos)
}

func TestCompleteTodo(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	todo := &Todo{Title: "Buy milk", Priority: LevelHigh}
	require.NoError(t, db.CreateTodo(ctx, todo))

	done, err := db.CompleteTodo(ctx, todo.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	assert.Equal(t, LevelHigh, done.Priority)
	assert.True(t, done.UpdatedAt.After(todo.UpdatedAt))

	again, err := db.CompleteTodo(ctx, todo.ID)
	require.NoError(t, err)
	assert.True(t, again.Completed)
}

func TestTodo_NotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	missing := newID()
	_, err := db.GetTodo(ctx, missing)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.CompleteTodo(ctx, missing)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, db.DeleteTodo(ctx, missing), ErrNotFound)
	assert.ErrorIs(t, db.SetTodoCalendarEventID(ctx, missing, "evt"), ErrNotFound)

	_, err = db.GetTodo(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateTodo(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	todo := &Todo{Title: "Draft report"}
	require.NoError(t, db.CreateTodo(ctx, todo))

	todo.Title = "Finish report"
	todo.Priority = LevelUrgent
	require.NoError(t, db.UpdateTodo(ctx, todo))

	got, err := db.GetTodo(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "Finish report", got.Title)
	assert.Equal(t, LevelUrgent, got.Priority)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	todo.Priority = "whenever"
	assert.ErrorIs(t, db.UpdateTodo(ctx, todo), ErrConstraint)
}

func TestListTodos_Filters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a := &Todo{Title: "a", Priority: LevelLow}
	b := &Todo{Title: "b", Priority: LevelHigh}
	c := &Todo{Title: "c", Priority: LevelHigh}
	for _, td := range []*Todo{a, b, c} {
		require.NoError(t, db.CreateTodo(ctx, td))
	}
	_, err := db.CompleteTodo(ctx, b.ID)
	require.NoError(t, err)
	require.NoError(t, db.SetTodoCalendarEventID(ctx, c.ID, "evt-c"))

	titles := func(todos []Todo) []string {
		out := make([]string, len(todos))
		for i, td := range todos {
			out[i] = td.Title
		}
		return out
	}

	all, err := db.ListTodos(ctx, TodoFilter{Status: TodoStatusAll})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, titles(all))

	pending, err := db.ListTodos(ctx, TodoFilter{Status: TodoStatusPending})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, titles(pending))

	completed, err := db.ListTodos(ctx, TodoFilter{Status: TodoStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, titles(completed))

	high, err := db.ListTodos(ctx, TodoFilter{Priority: LevelHigh})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, titles(high))

	unlinked, err := db.ListTodos(ctx, TodoFilter{Unlinked: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, titles(unlinked))

	limited, err := db.ListTodos(ctx, TodoFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, titles(limited))

	_, err = db.ListTodos(ctx, TodoFilter{Status: "someday"})
	assert.Error(t, err)
}

func TestSetTodoCalendarEventID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	todo := &Todo{Title: "Call mom"}
	require.NoError(t, db.CreateTodo(ctx, todo))
	require.NoError(t, db.SetTodoCalendarEventID(ctx, todo.ID, "evt-1"))

	got, err := db.GetTodo(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", got.GoogleCalendarEventID)

	require.NoError(t, db.SetTodoCalendarEventID(ctx, todo.ID, ""))
	got, err = db.GetTodo(ctx, todo.ID)
	require.NoError(t, err)
	assert.Empty(t, got.GoogleCalendarEventID)
}

func TestDeleteTodo(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	todo := &Todo{Title: "Temporary"}
	require.NoError(t, db.CreateTodo(ctx, todo))
	require.NoError(t, db.DeleteTodo(ctx, todo.ID))

	_, err := db.GetTodo(ctx, todo.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
