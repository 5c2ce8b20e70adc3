package store

import (
	"fmt"
	"strings"
	"time"
)

// Level is the shared enumeration for todo priority and reminder importance.
type Level string

// Level values.
const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
	LevelUrgent Level = "urgent"
)

// Levels lists the valid levels in ascending order.
var Levels = []Level{LevelLow, LevelMedium, LevelHigh, LevelUrgent}

// Valid reports whether l is one of the enumerated levels.
func (l Level) Valid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh, LevelUrgent:
		return true
	}
	return false
}

// ParseLevel normalizes user input into a Level. An empty string yields
// LevelMedium. Unknown values are returned unchanged together with an error
// so that callers can surface the rejected value.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return LevelMedium, nil
	}
	l := Level(s)
	if !l.Valid() {
		return l, fmt.Errorf("invalid level %q, must be one of: low, medium, high, urgent", s)
	}
	return l, nil
}

// RecordingStatus is the processing state of a call recording.
type RecordingStatus string

// RecordingStatus values.
const (
	RecordingCompleted  RecordingStatus = "completed"
	RecordingFailed     RecordingStatus = "failed"
	RecordingProcessing RecordingStatus = "processing"
)

// Valid reports whether s is a known recording status.
func (s RecordingStatus) Valid() bool {
	switch s {
	case RecordingCompleted, RecordingFailed, RecordingProcessing:
		return true
	}
	return false
}

// Todo is a task with an optional due date.
type Todo struct {
	ID                    string     `json:"id"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
	Title                 string     `json:"title"`
	Description           string     `json:"description,omitempty"`
	Completed             bool       `json:"completed"`
	Priority              Level      `json:"priority"`
	DueDate               *time.Time `json:"due_date,omitempty"`
	GoogleCalendarEventID string     `json:"google_calendar_event_id,omitempty"`
}

// Reminder is a short note anchored to an optional date.
type Reminder struct {
	ID                    string     `json:"id"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
	ReminderText          string     `json:"reminder_text"`
	Importance            Level      `json:"importance"`
	ReminderDate          *time.Time `json:"reminder_date,omitempty"`
	GoogleCalendarEventID string     `json:"google_calendar_event_id,omitempty"`
}

// CalendarEvent is a time block with an explicit start and end.
type CalendarEvent struct {
	ID                    string    `json:"id"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
	Title                 string    `json:"title"`
	Description           string    `json:"description,omitempty"`
	EventFrom             time.Time `json:"event_from"`
	EventTo               time.Time `json:"event_to"`
	GoogleCalendarEventID string    `json:"google_calendar_event_id,omitempty"`
}

// CallRecording describes the saved audio of one phone call.
type CallRecording struct {
	ID              string          `json:"id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	CallSID         string          `json:"call_sid"`
	FromNumber      string          `json:"from_number,omitempty"`
	ToNumber        string          `json:"to_number,omitempty"`
	RecordingPath   string          `json:"recording_path"`
	DurationSeconds *int64          `json:"duration_seconds,omitempty"`
	FileSizeBytes   *int64          `json:"file_size_bytes,omitempty"`
	Transcription   string          `json:"transcription,omitempty"`
	Status          RecordingStatus `json:"status"`
}

// TodoStatus filters todos by completion.
type TodoStatus string

// TodoStatus values.
const (
	TodoStatusAll       TodoStatus = "all"
	TodoStatusPending   TodoStatus = "pending"
	TodoStatusCompleted TodoStatus = "completed"
)

// TodoFilter narrows ListTodos. Zero values match everything.
type TodoFilter struct {
	Status   TodoStatus
	Priority Level
	// Unlinked keeps only todos without a remote calendar event.
	Unlinked bool
	Limit    int
}

// ReminderFilter narrows ListReminders.
type ReminderFilter struct {
	Unlinked bool
	Limit    int
}

// EventFilter selects events overlapping [From, To). Nil bounds are open.
type EventFilter struct {
	From     *time.Time
	To       *time.Time
	Unlinked bool
}

// RecordingUpdate is a partial update of a call recording. Nil fields are
// left unchanged.
type RecordingUpdate struct {
	RecordingPath   *string
	DurationSeconds *int64
	FileSizeBytes   *int64
	Transcription   *string
	Status          *RecordingStatus
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// Time returns a pointer to t.
func Time(t time.Time) *time.Time { return &t }
