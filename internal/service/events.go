package service

import (
	"context"
	"fmt"

	"github.com/lgch/luna/internal/calsync"
	"github.com/lgch/luna/internal/store"
)

// EventResult is a persisted calendar event and the outcome of mirroring it.
type EventResult struct {
	Event *store.CalendarEvent `json:"event"`
	Sync  calsync.Status       `json:"sync"`
}

// CreateEvent stores a calendar event and pushes it to the calendar.
// Events that do not end after they start are rejected before any write.
func (s *Service) CreateEvent(ctx context.Context, e *store.CalendarEvent) (*EventResult, error) {
	if err := s.store.CreateEvent(ctx, e); err != nil {
		return nil, fmt.Errorf("create calendar event: %w", err)
	}

	st := s.sync.PushEvent(ctx, e)
	st = s.link(ctx, calsync.KindEvent, e.ID, st, s.store.SetEventCalendarEventID)
	if st.State == calsync.StateSynced {
		e.GoogleCalendarEventID = st.EventID
	}
	return &EventResult{Event: e, Sync: st}, nil
}

// ListEvents returns the events overlapping the filter range.
func (s *Service) ListEvents(ctx context.Context, f store.EventFilter) ([]store.CalendarEvent, error) {
	return s.store.ListEvents(ctx, f)
}

// DeleteEvent removes a calendar event and, best effort, its remote event.
func (s *Service) DeleteEvent(ctx context.Context, id string) (*EventResult, error) {
	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete calendar event: %w", err)
	}

	st := s.sync.Remove(ctx, calsync.KindEvent, e.ID, e.GoogleCalendarEventID)
	if err := s.store.DeleteEvent(ctx, e.ID); err != nil {
		return nil, fmt.Errorf("delete calendar event: %w", err)
	}
	return &EventResult{Event: e, Sync: st}, nil
}
