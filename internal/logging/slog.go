package logging

import (
	"fmt"
	"log/slog"
	"strings"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeyService   = "service"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyTool      = "tool"
	KeyKind      = "kind"
	KeyRecordID  = "record_id"
	KeyEventID   = "event_id"
	KeyCallSID   = "call_sid"
	KeyStreamSID = "stream_sid"
	KeyThread    = "thread_id"
	KeyPhone     = "phone"
)

// Status values for consistent logging.
// Note: These are intentionally duplicated from instrumentation package
// to avoid circular dependencies (instrumentation imports logging).
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithService returns a logger with the service attribute set.
func WithService(logger *slog.Logger, service string) *slog.Logger {
	return logger.With(slog.String(KeyService, service))
}

// WithCall returns a logger scoped to a single phone call.
func WithCall(logger *slog.Logger, callSID string) *slog.Logger {
	return logger.With(slog.String(KeyCallSID, callSID))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Service returns a slog attribute for the service name.
func Service(svc string) slog.Attr {
	return slog.String(KeyService, svc)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Kind returns a slog attribute for the record kind (todo, reminder, event, recording).
func Kind(kind string) slog.Attr {
	return slog.String(KeyKind, kind)
}

// RecordID returns a slog attribute for a local record identifier.
func RecordID(id string) slog.Attr {
	return slog.String(KeyRecordID, id)
}

// EventID returns a slog attribute for a remote calendar event identifier.
func EventID(id string) slog.Attr {
	return slog.String(KeyEventID, id)
}

// CallSID returns a slog attribute for a Twilio call SID.
func CallSID(sid string) slog.Attr {
	return slog.String(KeyCallSID, sid)
}

// StreamSID returns a slog attribute for a Twilio media stream SID.
func StreamSID(sid string) slog.Attr {
	return slog.String(KeyStreamSID, sid)
}

// Thread returns a slog attribute for an agent conversation thread.
func Thread(id string) slog.Attr {
	return slog.String(KeyThread, id)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
// This allows safely passing Err(maybeNilErr) without adding empty attributes.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// MaskPhone returns a masked representation of a phone number that keeps
// only the last four digits.
func MaskPhone(number string) string {
	digits := make([]rune, 0, len(number))
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) == 0 {
		return ""
	}
	if len(digits) <= 4 {
		return strings.Repeat("*", len(digits))
	}
	return strings.Repeat("*", len(digits)-4) + string(digits[len(digits)-4:])
}

// Phone returns a slog attribute with the masked phone number.
func Phone(number string) slog.Attr {
	return slog.String(KeyPhone, MaskPhone(number))
}

// SanitizeToken returns a masked version of a token for logging.
// It returns a length indicator without exposing any token content.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}

// Truncate shortens free text (prompts, transcriptions) for log lines.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
