package luna_tools

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/lgch/luna/internal/calsync"
	"github.com/lgch/luna/internal/store"
)

const timeLayout = "Mon Jan 2 2006 15:04 MST"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// syncSentence describes the calendar outcome. Skipped syncs say nothing.
func syncSentence(st calsync.Status, action string) string {
	switch st.State {
	case calsync.StateSynced:
		return " " + action
	case calsync.StateFailed:
		return fmt.Sprintf(" The calendar could not be updated: %s.", st.Error)
	}
	return ""
}

func describeTodo(t *store.Todo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%q (priority %s", t.Title, t.Priority)
	if t.DueDate != nil {
		fmt.Fprintf(&b, ", due %s", formatTime(*t.DueDate))
	}
	if t.Completed {
		b.WriteString(", completed")
	}
	fmt.Fprintf(&b, ", id %s)", t.ID)
	return b.String()
}

func describeReminder(r *store.Reminder) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%q (importance %s", r.ReminderText, r.Importance)
	if r.ReminderDate != nil {
		fmt.Fprintf(&b, ", on %s", formatTime(*r.ReminderDate))
	}
	fmt.Fprintf(&b, ", id %s)", r.ID)
	return b.String()
}

func describeEvent(e *store.CalendarEvent) string {
	return fmt.Sprintf("%q from %s to %s (id %s)", e.Title, formatTime(e.EventFrom), formatTime(e.EventTo), e.ID)
}

func describeRecording(c *store.CallRecording) string {
	var b strings.Builder
	fmt.Fprintf(&b, "call %s (%s", c.CallSID, c.Status)
	if c.FromNumber != "" {
		fmt.Fprintf(&b, ", from %s", c.FromNumber)
	}
	if c.DurationSeconds != nil {
		fmt.Fprintf(&b, ", %d seconds", *c.DurationSeconds)
	}
	fmt.Fprintf(&b, ", recorded %s, file %s)", formatTime(c.CreatedAt), c.RecordingPath)
	return b.String()
}

func numbered[T any](header string, items []T, describe func(*T) string) string {
	var b strings.Builder
	b.WriteString(header)
	for i := range items {
		fmt.Fprintf(&b, "\n%d. %s", i+1, describe(&items[i]))
	}
	return b.String()
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return "1 " + singular
	}
	return fmt.Sprintf("%d %s", n, pluralForm)
}

// toolError turns an operation error into a tool error result the agent can
// relay to the user.
func toolError(noun, action string, err error) *mcp.CallToolResult {
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		return mcp.NewToolResultError(fmt.Sprintf("Could not %s: %s.", action, verr.Message))
	case errors.Is(err, store.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("No %s was found with that id.", noun))
	case errors.Is(err, store.ErrDuplicateCallSID):
		return mcp.NewToolResultError("A recording for this call already exists.")
	case errors.Is(err, store.ErrConstraint):
		return mcp.NewToolResultError(fmt.Sprintf("Could not %s: %v.", action, err))
	}
	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
}
