package service

import (
	"context"
	"fmt"

	"github.com/lgch/luna/internal/calsync"
	"github.com/lgch/luna/internal/store"
)

// ReminderResult is a persisted reminder and the outcome of mirroring it.
type ReminderResult struct {
	Reminder *store.Reminder `json:"reminder"`
	Sync     calsync.Status  `json:"sync"`
}

// CreateReminder stores a reminder and pushes it to the calendar.
func (s *Service) CreateReminder(ctx context.Context, r *store.Reminder) (*ReminderResult, error) {
	if err := s.store.CreateReminder(ctx, r); err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}

	st := s.sync.PushReminder(ctx, r)
	st = s.link(ctx, calsync.KindReminder, r.ID, st, s.store.SetReminderCalendarEventID)
	if st.State == calsync.StateSynced {
		r.GoogleCalendarEventID = st.EventID
	}
	return &ReminderResult{Reminder: r, Sync: st}, nil
}

// ListReminders returns the reminders matching f.
func (s *Service) ListReminders(ctx context.Context, f store.ReminderFilter) ([]store.Reminder, error) {
	return s.store.ListReminders(ctx, f)
}

// DeleteReminder removes a reminder and, best effort, its remote event.
func (s *Service) DeleteReminder(ctx context.Context, id string) (*ReminderResult, error) {
	r, err := s.store.GetReminder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete reminder: %w", err)
	}

	st := s.sync.Remove(ctx, calsync.KindReminder, r.ID, r.GoogleCalendarEventID)
	if err := s.store.DeleteReminder(ctx, r.ID); err != nil {
		return nil, fmt.Errorf("delete reminder: %w", err)
	}
	return &ReminderResult{Reminder: r, Sync: st}, nil
}
