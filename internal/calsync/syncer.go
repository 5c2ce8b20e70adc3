package calsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lgch/luna/internal/calendar"
	"github.com/lgch/luna/internal/instrumentation"
	"github.com/lgch/luna/internal/logging"
	"github.com/lgch/luna/internal/store"
)

// DefaultTimeout bounds every remote calendar call.
const DefaultTimeout = 10 * time.Second

// Record kinds used in metrics, logs and sync results.
const (
	KindTodo     = "todo"
	KindReminder = "reminder"
	KindEvent    = "event"
)

// State is the outcome of a sync attempt.
type State string

// State values.
const (
	StateSynced  State = "synced"
	StateFailed  State = "failed"
	StateSkipped State = "skipped"
)

// Status reports the result of mirroring one record.
type Status struct {
	State State  `json:"state"`
	Error string `json:"error,omitempty"`
	// EventID is the remote event the record is linked to after the push.
	// It is empty for removals and skipped pushes.
	EventID string `json:"event_id,omitempty"`
	// Relinked is true when EventID differs from the id the record carried.
	Relinked bool `json:"-"`
}

// OK reports whether the sync did not fail.
func (s Status) OK() bool {
	return s.State != StateFailed
}

func skipped() Status { return Status{State: StateSkipped} }

func failed(err error) Status {
	return Status{State: StateFailed, Error: err.Error()}
}

// Options configures a Syncer.
type Options struct {
	// Timeout bounds each remote call. Zero means DefaultTimeout.
	Timeout time.Duration
	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
	// Now returns the current time for records without a date.
	Now func() time.Time
}

// Syncer mirrors local records to a calendar.Provider. A Syncer with a nil
// provider skips every push.
type Syncer struct {
	provider calendar.Provider
	timeout  time.Duration
	metrics  *instrumentation.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Syncer. provider may be nil when no calendar is configured.
func New(provider calendar.Provider, opts Options) *Syncer {
	s := &Syncer{
		provider: provider,
		timeout:  opts.Timeout,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Enabled reports whether a remote calendar is configured.
func (s *Syncer) Enabled() bool {
	return s != nil && s.provider != nil
}

// PushTodo creates or updates the remote event for a todo.
func (s *Syncer) PushTodo(ctx context.Context, t *store.Todo) Status {
	if !s.Enabled() {
		return skipped()
	}
	return s.push(ctx, KindTodo, t.ID, t.GoogleCalendarEventID, TodoEvent(t, s.now()))
}

// CompleteTodo marks the remote event of a completed todo. Unlinked todos
// are skipped.
func (s *Syncer) CompleteTodo(ctx context.Context, t *store.Todo) Status {
	if !s.Enabled() || t.GoogleCalendarEventID == "" {
		return skipped()
	}
	done := *t
	done.Completed = true
	return s.push(ctx, KindTodo, t.ID, t.GoogleCalendarEventID, TodoEvent(&done, s.now()))
}

// PushReminder creates or updates the remote event for a reminder.
func (s *Syncer) PushReminder(ctx context.Context, r *store.Reminder) Status {
	if !s.Enabled() {
		return skipped()
	}
	return s.push(ctx, KindReminder, r.ID, r.GoogleCalendarEventID, ReminderEvent(r, s.now()))
}

// PushEvent creates or updates the remote event for a calendar event.
func (s *Syncer) PushEvent(ctx context.Context, e *store.CalendarEvent) Status {
	if !s.Enabled() {
		return skipped()
	}
	return s.push(ctx, KindEvent, e.ID, e.GoogleCalendarEventID, CalendarEventInput(e))
}

// Remove deletes a remote event. An empty eventID is skipped. A remote
// event that is already gone counts as synced.
func (s *Syncer) Remove(ctx context.Context, kind, recordID, eventID string) Status {
	if !s.Enabled() || eventID == "" {
		return skipped()
	}

	err := s.call(ctx, kind, instrumentation.OperationDelete, recordID, func(ctx context.Context) error {
		return s.provider.DeleteEvent(ctx, eventID)
	})
	if err != nil && !calendar.IsNotFound(err) {
		s.logFailure(kind, instrumentation.OperationDelete, recordID, err)
		return failed(err)
	}
	return Status{State: StateSynced}
}

var errEventWithoutID = errors.New("calendar returned an event without id")

// push updates the linked event, or creates one when the record is unlinked
// or its remote event no longer exists.
func (s *Syncer) push(ctx context.Context, kind, recordID, eventID string, in calendar.EventInput) Status {
	if eventID != "" {
		var updated *calendar.EventSummary
		err := s.call(ctx, kind, instrumentation.OperationUpdate, recordID, func(ctx context.Context) error {
			var err error
			updated, err = s.provider.UpdateEvent(ctx, eventID, in)
			if err == nil && (updated == nil || updated.ID == "") {
				err = errEventWithoutID
			}
			return err
		})
		switch {
		case err == nil:
			return Status{State: StateSynced, EventID: updated.ID, Relinked: updated.ID != eventID}
		case !calendar.IsNotFound(err):
			s.logFailure(kind, instrumentation.OperationUpdate, recordID, err)
			return failed(err)
		}
		s.logger.Info("remote calendar event gone, recreating",
			logging.Kind(kind), logging.RecordID(recordID), logging.EventID(eventID))
	}

	var created *calendar.EventSummary
	err := s.call(ctx, kind, instrumentation.OperationCreate, recordID, func(ctx context.Context) error {
		var err error
		created, err = s.provider.CreateEvent(ctx, in)
		if err == nil && (created == nil || created.ID == "") {
			err = errEventWithoutID
		}
		return err
	})
	if err != nil {
		s.logFailure(kind, instrumentation.OperationCreate, recordID, err)
		return failed(err)
	}
	return Status{State: StateSynced, EventID: created.ID, Relinked: created.ID != eventID}
}

// call runs fn under the sync timeout inside a client span and records
// the outcome.
func (s *Syncer) call(ctx context.Context, kind, op, recordID string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	attrs := instrumentation.NewSpanAttributeBuilder().WithRecord(kind, recordID).Build()
	ctx, span := instrumentation.StartCalendarSpan(ctx, op, attrs...)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("calendar %s timed out after %s: %w", op, s.timeout, err)
	}

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	s.metrics.RecordCalendarSync(ctx, kind, op, status, time.Since(start))
	return err
}

func (s *Syncer) logFailure(kind, op, recordID string, err error) {
	s.logger.Warn("calendar sync failed",
		logging.Kind(kind),
		logging.Operation(op),
		logging.RecordID(recordID),
		logging.Err(err))
}
