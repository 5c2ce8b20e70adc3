package calsync

import (
	"fmt"
	"time"

	"github.com/lgch/luna/internal/calendar"
	"github.com/lgch/luna/internal/store"
)

// Title prefixes and footers of remote events.
const (
	TodoPrefix      = "TODO: "
	ReminderPrefix  = "REMINDER: "
	CompletedPrefix = "COMPLETED: "

	sourceFooter = "From: LGCH Todo System"
)

// Default remote event lengths for records without an explicit end.
const (
	TodoDuration     = time.Hour
	ReminderDuration = 30 * time.Minute
)

// TodoEvent maps a todo to a remote event. Todos without a due date start
// at now. Completed todos carry the COMPLETED prefix and a status line.
func TodoEvent(t *store.Todo, now time.Time) calendar.EventInput {
	start := now.UTC()
	if t.DueDate != nil {
		start = t.DueDate.UTC()
	}

	in := calendar.EventInput{
		Summary:     TodoPrefix + t.Title,
		Description: fmt.Sprintf("%s\n\nPriority: %s\n%s", t.Description, t.Priority, sourceFooter),
		Start:       start,
		End:         start.Add(TodoDuration),
		TimeZone:    "UTC",
	}
	if t.Completed {
		in.Summary = CompletedPrefix + t.Title
		in.Description = fmt.Sprintf("%s\n\nPriority: %s\nStatus: Completed\n%s", t.Description, t.Priority, sourceFooter)
	}
	return in
}

// ReminderEvent maps a reminder to a remote event.
func ReminderEvent(r *store.Reminder, now time.Time) calendar.EventInput {
	start := now.UTC()
	if r.ReminderDate != nil {
		start = r.ReminderDate.UTC()
	}
	return calendar.EventInput{
		Summary:     ReminderPrefix + r.ReminderText,
		Description: fmt.Sprintf("Importance: %s\n%s", r.Importance, sourceFooter),
		Start:       start,
		End:         start.Add(ReminderDuration),
		TimeZone:    "UTC",
	}
}

// CalendarEventInput maps a local calendar event to a remote event.
func CalendarEventInput(e *store.CalendarEvent) calendar.EventInput {
	return calendar.EventInput{
		Summary:     e.Title,
		Description: fmt.Sprintf("%s\n\n%s", e.Description, sourceFooter),
		Start:       e.EventFrom.UTC(),
		End:         e.EventTo.UTC(),
		TimeZone:    "UTC",
	}
}
