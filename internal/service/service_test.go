package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgch/luna/internal/calendar/calendartest"
	"github.com/lgch/luna/internal/calsync"
	"github.com/lgch/luna/internal/store"
	"github.com/lgch/luna/internal/store/storetest"
)

var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, opts ...Option) (*Service, *calendartest.Fake, *store.DB) {
	t.Helper()
	db := storetest.New(t)
	fake := calendartest.New()
	syncer := calsync.New(fake, calsync.Options{Logger: discardLogger(), Now: func() time.Time { return testNow }})
	opts = append([]Option{WithLogger(discardLogger()), WithClock(func() time.Time { return testNow })}, opts...)
	svc := New(db, syncer, opts...)
	return svc, fake, db
}

func TestCreateAndCompleteTodo(t *testing.T) {
	svc, fake, db := newTestService(t)
	ctx := context.Background()

	res, err := svc.CreateTodo(ctx, &store.Todo{Title: "Buy milk", Priority: store.LevelHigh})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Todo.ID)
	assert.False(t, res.Todo.CreatedAt.IsZero())
	assert.False(t, res.Todo.Completed)
	assert.Equal(t, store.LevelHigh, res.Todo.Priority)
	require.NotNil(t, res.Todo.DueDate)
	assert.True(t, res.Todo.DueDate.Equal(testNow))
	assert.Equal(t, calsync.StateSynced, res.Sync.State)

	stored, err := db.GetTodo(ctx, res.Todo.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Sync.EventID, stored.GoogleCalendarEventID)

	done, err := svc.CompleteTodo(ctx, res.Todo.ID)
	require.NoError(t, err)
	assert.True(t, done.Todo.Completed)
	assert.Equal(t, store.LevelHigh, done.Todo.Priority)
	assert.Equal(t, calsync.StateSynced, done.Sync.State)

	ev, ok := fake.Event(stored.GoogleCalendarEventID)
	require.True(t, ok)
	assert.Equal(t, "COMPLETED: Buy milk", ev.Summary)
	assert.Len(t, fake.Events(), 1)
}

func TestCreateTodo_ValidationBeforeWrite(t *testing.T) {
	svc, fake, db := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateTodo(ctx, &store.Todo{Title: "Buy milk", Priority: "critical"})
	require.Error(t, err)
	var verr *store.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.ErrorIs(t, err, store.ErrConstraint)

	todos, err := db.ListTodos(ctx, store.TodoFilter{})
	require.NoError(t, err)
	assert.Empty(t, todos)
	assert.Zero(t, fake.CallCount("create"))
}

func TestCreateTodo_SurvivesSyncFailure(t *testing.T) {
	svc, fake, db := newTestService(t)
	fake.Fail(errors.New("calendar unavailable"))
	ctx := context.Background()

	res, err := svc.CreateTodo(ctx, &store.Todo{Title: "Buy milk"})
	require.NoError(t, err)
	assert.Equal(t, calsync.StateFailed, res.Sync.State)
	assert.Contains(t, res.Sync.Error, "calendar unavailable")

	stored, err := db.GetTodo(ctx, res.Todo.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.GoogleCalendarEventID)
	assert.Equal(t, store.LevelMedium, stored.Priority)
}

func TestCompleteTodo_UnlinkedIsSkipped(t *testing.T) {
	db := storetest.New(t)
	svc := New(db, nil, WithLogger(discardLogger()))
	ctx := context.Background()

	res, err := svc.CreateTodo(ctx, &store.Todo{Title: "Offline"})
	require.NoError(t, err)
	assert.Equal(t, calsync.StateSkipped, res.Sync.State)
	assert.False(t, svc.CalendarEnabled())

	done, err := svc.CompleteTodo(ctx, res.Todo.ID)
	require.NoError(t, err)
	assert.Equal(t, calsync.StateSkipped, done.Sync.State)
}

func TestCompleteTodo_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.CompleteTodo(context.Background(), "6c1c3c1e-0000-4000-8000-000000000000")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateTodo_RepushesLinked(t *testing.T) {
	svc, fake, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.CreateTodo(ctx, &store.Todo{Title: "Buy milk"})
	require.NoError(t, err)

	title := "Buy oat milk"
	prio := store.LevelUrgent
	upd, err := svc.UpdateTodo(ctx, res.Todo.ID, TodoUpdate{Title: &title, Priority: &prio})
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", upd.Todo.Title)
	assert.Equal(t, store.LevelUrgent, upd.Todo.Priority)
	assert.Equal(t, calsync.StateSynced, upd.Sync.State)
	assert.Equal(t, res.Sync.EventID, upd.Todo.GoogleCalendarEventID)

	ev, ok := fake.Event(res.Sync.EventID)
	require.True(t, ok)
	assert.Equal(t, "TODO: Buy oat milk", ev.Summary)
	assert.Equal(t, 1, fake.CallCount("create"))

	bad := store.Level("someday")
	_, err = svc.UpdateTodo(ctx, res.Todo.ID, TodoUpdate{Priority: &bad})
	assert.ErrorIs(t, err, store.ErrConstraint)
}

func TestDeleteTodo_LocalDeleteSurvivesRemoteFailure(t *testing.T) {
	svc, fake, db := newTestService(t)
	ctx := context.Background()

	res, err := svc.CreateTodo(ctx, &store.Todo{Title: "Buy milk"})
	require.NoError(t, err)

	fake.Fail(nil, "delete")
	del, err := svc.DeleteTodo(ctx, res.Todo.ID)
	require.NoError(t, err)
	assert.Equal(t, calsync.StateFailed, del.Sync.State)
	assert.Equal(t, 1, fake.CallCount("delete"))

	_, err = db.GetTodo(ctx, res.Todo.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteTodo_RemovesRemoteEvent(t *testing.T) {
	svc, fake, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.CreateTodo(ctx, &store.Todo{Title: "Buy milk"})
	require.NoError(t, err)

	del, err := svc.DeleteTodo(ctx, res.Todo.ID)
	require.NoError(t, err)
	assert.Equal(t, calsync.StateSynced, del.Sync.State)
	assert.Empty(t, fake.Events())
}

func TestReminders(t *testing.T) {
	svc, fake, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.CreateReminder(ctx, &store.Reminder{ReminderText: "Pay rent"})
	require.NoError(t, err)
	assert.Equal(t, store.LevelMedium, res.Reminder.Importance)
	assert.Equal(t, calsync.StateSynced, res.Sync.State)

	_, err = svc.CreateReminder(ctx, &store.Reminder{ReminderText: "Bad", Importance: "extreme"})
	assert.ErrorIs(t, err, store.ErrConstraint)

	list, err := svc.ListReminders(ctx, store.ReminderFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)

	del, err := svc.DeleteReminder(ctx, res.Reminder.ID)
	require.NoError(t, err)
	assert.Equal(t, calsync.StateSynced, del.Sync.State)
	assert.Empty(t, fake.Events())
}

func TestEvents(t *testing.T) {
	svc, fake, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateEvent(ctx, &store.CalendarEvent{Title: "Backwards", EventFrom: testNow, EventTo: testNow})
	assert.ErrorIs(t, err, store.ErrConstraint)
	assert.Zero(t, fake.CallCount("create"))

	res, err := svc.CreateEvent(ctx, &store.CalendarEvent{
		Title: "Standup", EventFrom: testNow, EventTo: testNow.Add(15 * time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, calsync.StateSynced, res.Sync.State)

	ev, ok := fake.Event(res.Event.GoogleCalendarEventID)
	require.True(t, ok)
	assert.Equal(t, "Standup", ev.Summary)

	from := testNow.Add(-time.Hour)
	to := testNow.Add(time.Hour)
	list, err := svc.ListEvents(ctx, store.EventFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.DeleteEvent(ctx, res.Event.ID)
	require.NoError(t, err)
	assert.Empty(t, fake.Events())
}

func TestCallRecordings(t *testing.T) {
	dir := t.TempDir()
	svc, _, _ := newTestService(t, WithRecordingDir(dir))
	ctx := context.Background()

	path := filepath.Join(dir, "call_CA1.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o600))

	rec, err := svc.CreateCallRecording(ctx, &store.CallRecording{
		CallSID: "CA1", RecordingPath: path, DurationSeconds: store.Int64(12),
	})
	require.NoError(t, err)
	assert.Equal(t, store.RecordingCompleted, rec.Status)

	_, err = svc.CreateCallRecording(ctx, &store.CallRecording{CallSID: "CA1", RecordingPath: path})
	assert.ErrorIs(t, err, store.ErrDuplicateCallSID)

	text := "add a todo"
	upd, err := svc.UpdateCallRecording(ctx, "CA1", store.RecordingUpdate{Transcription: &text})
	require.NoError(t, err)
	assert.Equal(t, "add a todo", upd.Transcription)

	_, err = svc.DeleteCallRecording(ctx, "CA1")
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "recording file should be removed")

	_, err = svc.GetCallRecording(ctx, "CA1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteCallRecording_KeepsFilesOutsideRecordingDir(t *testing.T) {
	dir := t.TempDir()
	svc, _, _ := newTestService(t, WithRecordingDir(filepath.Join(dir, "recordings")))
	ctx := context.Background()

	outside := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep me"), 0o600))
	escaping := filepath.Join(dir, "recordings", "..", "notes.txt")

	for _, tc := range []struct{ sid, path string }{
		{"CA1", outside},
		{"CA2", escaping},
		{"CA3", filepath.Join(dir, "recordings")},
	} {
		_, err := svc.CreateCallRecording(ctx, &store.CallRecording{CallSID: tc.sid, RecordingPath: tc.path})
		require.NoError(t, err)
		_, err = svc.DeleteCallRecording(ctx, tc.sid)
		require.NoError(t, err)

		_, err = svc.GetCallRecording(ctx, tc.sid)
		assert.ErrorIs(t, err, store.ErrNotFound, "row for %s should be gone", tc.sid)
	}

	data, err := os.ReadFile(outside)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))
}

func TestDeleteCallRecording_NoRecordingDir(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "call_CA1.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o600))

	_, err := svc.CreateCallRecording(ctx, &store.CallRecording{CallSID: "CA1", RecordingPath: path})
	require.NoError(t, err)
	_, err = svc.DeleteCallRecording(ctx, "CA1")
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err, "files are kept when no recording directory is configured")
}

func TestResync(t *testing.T) {
	svc, fake, db := newTestService(t)
	ctx := context.Background()

	fake.Fail(nil, "create")
	todo, err := svc.CreateTodo(ctx, &store.Todo{Title: "Buy milk"})
	require.NoError(t, err)
	_, err = svc.CreateReminder(ctx, &store.Reminder{ReminderText: "Pay rent"})
	require.NoError(t, err)
	fake.Recover()

	reports, err := svc.Resync(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, ResyncReport{Kind: ResyncTodos, Pending: 1, Synced: 1}, reports[0])
	assert.Equal(t, ResyncReport{Kind: ResyncReminders, Pending: 1, Synced: 1}, reports[1])
	assert.Equal(t, ResyncReport{Kind: ResyncEvents}, reports[2])

	stored, err := db.GetTodo(ctx, todo.Todo.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.GoogleCalendarEventID)

	// A second pass finds nothing unlinked and creates nothing.
	creates := fake.CallCount("create")
	reports, err = svc.Resync(ctx, ResyncTodos)
	require.NoError(t, err)
	assert.Equal(t, 0, reports[0].Pending)
	assert.Equal(t, creates, fake.CallCount("create"))

	_, err = svc.Resync(ctx, "notes")
	assert.Error(t, err)
}

func TestResync_RequiresCalendar(t *testing.T) {
	svc := New(storetest.New(t), nil)
	_, err := svc.Resync(context.Background())
	assert.Error(t, err)
}
