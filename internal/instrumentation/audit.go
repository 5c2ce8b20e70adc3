package instrumentation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/lgch/luna/internal/logging"
)

// Transport names used in caller info and metrics labels.
const (
	TransportHTTP   = "http"
	TransportTwilio = "twilio"
	TransportMCP    = "mcp"
	TransportCLI    = "cli"
)

// Caller identifies who triggered a tool call.
type Caller struct {
	Transport string
	ThreadID  string
	// Phone is the caller's number for phone conversations. It is PII.
	Phone string
}

type callerKey struct{}

// WithCaller attaches caller information to ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext returns the caller attached by WithCaller. Calls that
// arrive without one, such as direct MCP requests, are attributed to the
// MCP transport.
func CallerFromContext(ctx context.Context) Caller {
	if c, ok := ctx.Value(callerKey{}).(Caller); ok {
		return c
	}
	return Caller{Transport: TransportMCP}
}

// ToolInvocation captures all information about a tool invocation for audit logging.
//
// The Caller.Phone field contains PII. LogAttrs masks it; LogAuditAttrs does not.
type ToolInvocation struct {
	Tool   string
	Caller Caller

	// Target record
	Kind      string // todo, reminder, event, recording
	Operation string // create, list, complete, update, delete
	RecordID  string
	SyncState string // synced, failed, skipped

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

func (ti *ToolInvocation) attrs(phone string) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	if ti.Caller.Transport != "" {
		attrs = append(attrs, slog.String("transport", ti.Caller.Transport))
	}
	if ti.Caller.ThreadID != "" {
		attrs = append(attrs, slog.String(logging.KeyThread, ti.Caller.ThreadID))
	}
	if phone != "" {
		attrs = append(attrs, slog.String(logging.KeyPhone, phone))
	}
	if ti.Kind != "" {
		attrs = append(attrs, slog.String(logging.KeyKind, ti.Kind))
	}
	if ti.Operation != "" {
		attrs = append(attrs, slog.String(logging.KeyOperation, ti.Operation))
	}
	if ti.RecordID != "" {
		attrs = append(attrs, slog.String(logging.KeyRecordID, ti.RecordID))
	}
	if ti.SyncState != "" {
		attrs = append(attrs, slog.String("sync", ti.SyncState))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String(logging.KeyError, ti.Error))
	}
	return attrs
}

// LogAttrs returns slog attributes with the caller's phone number masked.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	return ti.attrs(logging.MaskPhone(ti.Caller.Phone))
}

// LogAuditAttrs returns slog attributes including the full phone number.
func (ti *ToolInvocation) LogAuditAttrs() []slog.Attr {
	return ti.attrs(ti.Caller.Phone)
}

// NewToolInvocation creates a new ToolInvocation with timing started.
// Call Complete() when the tool operation finishes.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithCaller sets the caller information.
func (ti *ToolInvocation) WithCaller(c Caller) *ToolInvocation {
	ti.Caller = c
	return ti
}

// WithRecord sets the target record kind and operation.
func (ti *ToolInvocation) WithRecord(kind, operation string) *ToolInvocation {
	ti.Kind = kind
	ti.Operation = operation
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		ti.TraceID = span.SpanContext().TraceID().String()
		ti.SpanID = span.SpanContext().SpanID().String()
	}
	return ti
}

// Complete marks the invocation as completed and calculates duration.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// CompleteWithError marks the invocation as failed with the given error.
func (ti *ToolInvocation) CompleteWithError(err error) *ToolInvocation {
	return ti.Complete(false, err)
}

// CompleteSuccess marks the invocation as successful.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, nil)
}

// AuditLogger provides structured audit logging for tool invocations.
type AuditLogger struct {
	logger     *slog.Logger
	level      slog.Level
	includePII bool
	enabled    bool
}

// NewAuditLogger creates a new AuditLogger with the given slog.Logger.
// Phone numbers are masked by default.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:  logger,
		enabled: true,
	}
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	al := NewAuditLogger(logger)
	al.includePII = config.IncludePII
	al.enabled = config.Enabled
	al.level = parseLevel(config.LogLevel)
	return al
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogToolInvocation logs a tool invocation. Successful calls are logged at
// the configured level, failures at warn or above.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	var attrs []slog.Attr
	if al.includePII {
		attrs = ti.LogAuditAttrs()
	} else {
		attrs = ti.LogAttrs()
	}

	level := al.level
	msg := "tool_executed"
	if !ti.Success {
		level = max(level, slog.LevelWarn)
		msg = "tool_failed"
	}
	al.logger.LogAttrs(context.Background(), level, msg, attrs...)
}
