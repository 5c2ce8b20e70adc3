package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/lgch/luna/internal/calsync"
	"github.com/lgch/luna/internal/logging"
	"github.com/lgch/luna/internal/store"
)

// Kinds accepted by Resync.
const (
	ResyncTodos     = "todos"
	ResyncReminders = "reminders"
	ResyncEvents    = "events"
)

// ResyncKinds lists every kind in push order.
var ResyncKinds = []string{ResyncTodos, ResyncReminders, ResyncEvents}

// ResyncReport counts the outcome of a reconciliation pass per kind.
type ResyncReport struct {
	Kind    string `json:"kind"`
	Pending int    `json:"pending"`
	Synced  int    `json:"synced"`
	Failed  int    `json:"failed"`
}

func (r ResyncReport) String() string {
	return fmt.Sprintf("%s: %d unlinked, %d synced, %d failed", r.Kind, r.Pending, r.Synced, r.Failed)
}

// Resync pushes every record that has no remote event yet. It restores the
// calendar link of records whose sync failed earlier. Linked records are
// left alone, so running it repeatedly is safe.
func (s *Service) Resync(ctx context.Context, kinds ...string) ([]ResyncReport, error) {
	if !s.sync.Enabled() {
		return nil, fmt.Errorf("resync: no calendar configured")
	}
	if len(kinds) == 0 {
		kinds = ResyncKinds
	}

	reports := make([]ResyncReport, 0, len(kinds))
	for _, kind := range kinds {
		var (
			report ResyncReport
			err    error
		)
		switch strings.ToLower(kind) {
		case ResyncTodos:
			report, err = s.resyncTodos(ctx)
		case ResyncReminders:
			report, err = s.resyncReminders(ctx)
		case ResyncEvents:
			report, err = s.resyncEvents(ctx)
		default:
			return reports, fmt.Errorf("resync: unknown kind %q, must be one of: %s", kind, strings.Join(ResyncKinds, ", "))
		}
		if err != nil {
			return reports, err
		}
		s.logger.Info("resync finished", logging.Kind(report.Kind),
			"pending", report.Pending, "synced", report.Synced, "failed", report.Failed)
		reports = append(reports, report)
	}
	return reports, nil
}

func (r *ResyncReport) add(st calsync.Status) {
	if st.State == calsync.StateSynced {
		r.Synced++
	} else {
		r.Failed++
	}
}

func (s *Service) resyncTodos(ctx context.Context) (ResyncReport, error) {
	report := ResyncReport{Kind: ResyncTodos}
	todos, err := s.store.ListTodos(ctx, store.TodoFilter{Unlinked: true})
	if err != nil {
		return report, fmt.Errorf("resync todos: %w", err)
	}
	report.Pending = len(todos)
	for i := range todos {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		t := &todos[i]
		st := s.sync.PushTodo(ctx, t)
		report.add(s.link(ctx, calsync.KindTodo, t.ID, st, s.store.SetTodoCalendarEventID))
	}
	return report, nil
}

func (s *Service) resyncReminders(ctx context.Context) (ResyncReport, error) {
	report := ResyncReport{Kind: ResyncReminders}
	reminders, err := s.store.ListReminders(ctx, store.ReminderFilter{Unlinked: true})
	if err != nil {
		return report, fmt.Errorf("resync reminders: %w", err)
	}
	report.Pending = len(reminders)
	for i := range reminders {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		r := &reminders[i]
		st := s.sync.PushReminder(ctx, r)
		report.add(s.link(ctx, calsync.KindReminder, r.ID, st, s.store.SetReminderCalendarEventID))
	}
	return report, nil
}

func (s *Service) resyncEvents(ctx context.Context) (ResyncReport, error) {
	report := ResyncReport{Kind: ResyncEvents}
	events, err := s.store.ListEvents(ctx, store.EventFilter{Unlinked: true})
	if err != nil {
		return report, fmt.Errorf("resync events: %w", err)
	}
	report.Pending = len(events)
	for i := range events {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		e := &events[i]
		st := s.sync.PushEvent(ctx, e)
		report.add(s.link(ctx, calsync.KindEvent, e.ID, st, s.store.SetEventCalendarEventID))
	}
	return report, nil
}
