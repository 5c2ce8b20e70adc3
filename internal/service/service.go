package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/lgch/luna/internal/calsync"
	"github.com/lgch/luna/internal/logging"
	"github.com/lgch/luna/internal/store"
)

// Store is the persistence surface the service depends on. *store.DB
// implements it.
type Store interface {
	Ping(ctx context.Context) error

	CreateTodo(ctx context.Context, t *store.Todo) error
	GetTodo(ctx context.Context, id string) (*store.Todo, error)
	ListTodos(ctx context.Context, f store.TodoFilter) ([]store.Todo, error)
	UpdateTodo(ctx context.Context, t *store.Todo) error
	CompleteTodo(ctx context.Context, id string) (*store.Todo, error)
	SetTodoCalendarEventID(ctx context.Context, id, eventID string) error
	DeleteTodo(ctx context.Context, id string) error

	CreateReminder(ctx context.Context, r *store.Reminder) error
	GetReminder(ctx context.Context, id string) (*store.Reminder, error)
	ListReminders(ctx context.Context, f store.ReminderFilter) ([]store.Reminder, error)
	SetReminderCalendarEventID(ctx context.Context, id, eventID string) error
	DeleteReminder(ctx context.Context, id string) error

	CreateEvent(ctx context.Context, e *store.CalendarEvent) error
	GetEvent(ctx context.Context, id string) (*store.CalendarEvent, error)
	ListEvents(ctx context.Context, f store.EventFilter) ([]store.CalendarEvent, error)
	SetEventCalendarEventID(ctx context.Context, id, eventID string) error
	DeleteEvent(ctx context.Context, id string) error

	CreateCallRecording(ctx context.Context, c *store.CallRecording) error
	GetCallRecording(ctx context.Context, callSID string) (*store.CallRecording, error)
	ListCallRecordings(ctx context.Context, limit int) ([]store.CallRecording, error)
	UpdateCallRecording(ctx context.Context, callSID string, u store.RecordingUpdate) (*store.CallRecording, error)
	DeleteCallRecording(ctx context.Context, callSID string) error
}

var _ Store = (*store.DB)(nil)

// Service performs each operation as one logical unit: store mutation,
// then best-effort calendar sync.
type Service struct {
	store  Store
	sync   *calsync.Syncer
	logger *slog.Logger
	now    func() time.Time

	// recordingDir bounds which audio files DeleteCallRecording may remove.
	recordingDir string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the clock used for default due dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRecordingDir sets the directory call audio is saved in. Deleting a
// recording only removes its file when the file lies inside dir; without a
// directory files are never removed.
func WithRecordingDir(dir string) Option {
	return func(s *Service) {
		s.recordingDir = dir
	}
}

// New creates a Service. syncer may be nil, in which case every sync is
// skipped.
func New(st Store, syncer *calsync.Syncer, opts ...Option) *Service {
	s := &Service{
		store:  st,
		sync:   syncer,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks the database connection.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// CalendarEnabled reports whether records are mirrored to a calendar.
func (s *Service) CalendarEnabled() bool {
	return s.sync.Enabled()
}

// link stores a new remote event id after a successful push. A failed link
// downgrades the status to failed; the remote event stays and the next push
// of the still unlinked record creates another one.
func (s *Service) link(ctx context.Context, kind, id string, st calsync.Status, set func(context.Context, string, string) error) calsync.Status {
	if st.State != calsync.StateSynced || !st.Relinked {
		return st
	}
	if err := set(ctx, id, st.EventID); err != nil {
		s.logger.Error("failed to link calendar event",
			logging.Kind(kind), logging.RecordID(id), logging.EventID(st.EventID), logging.Err(err))
		return calsync.Status{State: calsync.StateFailed, Error: err.Error()}
	}
	return st
}

// Now returns the service clock's current time in UTC. Relative dates in
// tool arguments are resolved against it.
func (s *Service) Now() time.Time {
	return s.now().UTC()
}
