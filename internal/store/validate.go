package store

import "strings"

// Validate checks the todo against the table constraints.
func (t *Todo) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return &ValidationError{Constraint: ConstraintTodoTitle, Field: "title", Message: "title is required"}
	}
	if !t.Priority.Valid() {
		return &ValidationError{
			Constraint: ConstraintTodoPriority,
			Field:      "priority",
			Message:    levelMessage(t.Priority),
		}
	}
	return nil
}

// Validate checks the reminder against the table constraints.
func (r *Reminder) Validate() error {
	if strings.TrimSpace(r.ReminderText) == "" {
		return &ValidationError{Constraint: ConstraintReminderText, Field: "reminder_text", Message: "reminder text is required"}
	}
	if !r.Importance.Valid() {
		return &ValidationError{
			Constraint: ConstraintReminderImportance,
			Field:      "importance",
			Message:    levelMessage(r.Importance),
		}
	}
	return nil
}

// Validate checks the event against the table constraints. The end time
// must be strictly after the start time.
func (e *CalendarEvent) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return &ValidationError{Constraint: ConstraintEventTitle, Field: "title", Message: "title is required"}
	}
	if !e.EventTo.After(e.EventFrom) {
		return &ValidationError{
			Constraint: ConstraintEventTimeOrder,
			Field:      "event_to",
			Message:    "end time must be after start time",
		}
	}
	return nil
}

// Validate checks the recording against the table constraints.
func (c *CallRecording) Validate() error {
	if strings.TrimSpace(c.CallSID) == "" {
		return &ValidationError{Constraint: ConstraintRecordingCallSID, Field: "call_sid", Message: "call sid is required"}
	}
	if strings.TrimSpace(c.RecordingPath) == "" {
		return &ValidationError{Constraint: ConstraintRecordingPath, Field: "recording_path", Message: "recording path is required"}
	}
	return validateRecordingFields(c.DurationSeconds, c.FileSizeBytes, c.Status)
}

// Validate checks the non-nil fields of a partial update.
func (u *RecordingUpdate) Validate() error {
	if u.RecordingPath != nil && strings.TrimSpace(*u.RecordingPath) == "" {
		return &ValidationError{Constraint: ConstraintRecordingPath, Field: "recording_path", Message: "recording path is required"}
	}
	status := RecordingCompleted
	if u.Status != nil {
		status = *u.Status
	}
	return validateRecordingFields(u.DurationSeconds, u.FileSizeBytes, status)
}

func validateRecordingFields(duration, size *int64, status RecordingStatus) error {
	if duration != nil && *duration < 0 {
		return &ValidationError{
			Constraint: ConstraintRecordingDuration,
			Field:      "duration_seconds",
			Message:    "duration must not be negative",
		}
	}
	if size != nil && *size < 0 {
		return &ValidationError{
			Constraint: ConstraintRecordingFileSize,
			Field:      "file_size_bytes",
			Message:    "file size must not be negative",
		}
	}
	if !status.Valid() {
		return &ValidationError{
			Constraint: ConstraintRecordingStatus,
			Field:      "status",
			Message:    "status must be one of: completed, failed, processing",
		}
	}
	return nil
}

func levelMessage(l Level) string {
	return "\"" + string(l) + "\" is not one of: low, medium, high, urgent"
}
