package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Constraint names. They match the named constraints in the migrations so
// that validation failures and database rejections carry the same identity.
const (
	ConstraintTodoTitle          = "todos_title_check"
	ConstraintTodoPriority       = "todos_priority_check"
	ConstraintReminderText       = "reminders_text_check"
	ConstraintReminderImportance = "reminders_importance_check"
	ConstraintEventTitle         = "calendar_events_title_check"
	ConstraintEventTimeOrder     = "calendar_events_time_order_check"
	ConstraintRecordingCallSID   = "call_recordings_call_sid_check"
	ConstraintRecordingPath      = "call_recordings_path_check"
	ConstraintRecordingDuration  = "call_recordings_duration_check"
	ConstraintRecordingFileSize  = "call_recordings_file_size_check"
	ConstraintRecordingStatus    = "call_recordings_status_check"
	ConstraintRecordingUnique    = "call_recordings_call_sid_key"
)

var (
	// ErrNotFound is returned when no row matches the requested identifier.
	ErrNotFound = errors.New("record not found")

	// ErrConstraint matches every *ConstraintError and *ValidationError.
	ErrConstraint = errors.New("constraint violation")

	// ErrDuplicateCallSID matches a rejected second recording for the same call.
	ErrDuplicateCallSID = errors.New("call recording already exists for call sid")
)

// ValidationError is returned before a write when a record violates a
// constraint.
type ValidationError struct {
	Constraint string
	Field      string
	Message    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s (%s)", e.Field, e.Message, e.Constraint)
}

// Is reports whether target is ErrConstraint.
func (e *ValidationError) Is(target error) bool {
	return target == ErrConstraint
}

// ConstraintKind tells unique violations from check violations.
type ConstraintKind string

// ConstraintKind values.
const (
	ConstraintUnique ConstraintKind = "unique"
	ConstraintCheck  ConstraintKind = "check"
)

// ConstraintError is a write rejected by the database.
type ConstraintError struct {
	Constraint string
	Kind       ConstraintKind
	Err        error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s constraint %q violated: %v", e.Kind, e.Constraint, e.Err)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrConstraint, or ErrDuplicateCallSID for a
// unique violation on the call sid.
func (e *ConstraintError) Is(target error) bool {
	switch target {
	case ErrConstraint:
		return true
	case ErrDuplicateCallSID:
		return e.Constraint == ConstraintRecordingUnique
	}
	return false
}

// translateError maps driver specific constraint failures to
// *ConstraintError. Other errors are returned unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return &ConstraintError{Constraint: pgErr.ConstraintName, Kind: ConstraintUnique, Err: err}
		case "23514":
			return &ConstraintError{Constraint: pgErr.ConstraintName, Kind: ConstraintCheck, Err: err}
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return &ConstraintError{Constraint: sqliteUniqueName(liteErr.Error()), Kind: ConstraintUnique, Err: err}
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return &ConstraintError{Constraint: sqliteCheckName(liteErr.Error()), Kind: ConstraintCheck, Err: err}
		}
	}
	return err
}

// sqliteUniqueName turns "UNIQUE constraint failed: call_recordings.call_sid"
// into the PostgreSQL style name "call_recordings_call_sid_key".
func sqliteUniqueName(msg string) string {
	const marker = "UNIQUE constraint failed: "
	i := strings.LastIndex(msg, marker)
	if i < 0 {
		return ""
	}
	cols := msg[i+len(marker):]
	if j := strings.IndexAny(cols, " ("); j >= 0 {
		cols = cols[:j]
	}
	cols = strings.TrimSuffix(cols, ",")
	return strings.ReplaceAll(cols, ".", "_") + "_key"
}

// sqliteCheckName extracts the constraint name from
// "CHECK constraint failed: todos_priority_check".
func sqliteCheckName(msg string) string {
	const marker = "CHECK constraint failed: "
	i := strings.LastIndex(msg, marker)
	if i < 0 {
		return ""
	}
	name := msg[i+len(marker):]
	if j := strings.IndexAny(name, " ("); j >= 0 {
		name = name[:j]
	}
	return name
}
