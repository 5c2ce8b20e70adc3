package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrKind      = "kind"
	attrTool      = "tool"
	attrTransport = "transport"
	attrAgent     = "agent"
)

// Metrics provides methods for recording observability metrics.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
	activeCalls         metric.Int64UpDownCounter

	// Calendar sync metrics
	calendarSyncTotal    metric.Int64Counter
	calendarSyncDuration metric.Float64Histogram

	// MCP Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// Agent metrics
	agentRequestsTotal   metric.Int64Counter
	agentRequestDuration metric.Float64Histogram

	// Voice metrics
	voiceOperationsTotal   metric.Int64Counter
	voiceOperationDuration metric.Float64Histogram

	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

var latencyBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	counter := func(name, desc, unit string) metric.Int64Counter {
		if err != nil {
			return nil
		}
		var c metric.Int64Counter
		c, err = meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			err = fmt.Errorf("failed to create %s counter: %w", name, err)
		}
		return c
	}
	histogram := func(name, desc string, buckets ...float64) metric.Float64Histogram {
		if err != nil {
			return nil
		}
		var h metric.Float64Histogram
		h, err = meter.Float64Histogram(name,
			metric.WithDescription(desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(buckets...),
		)
		if err != nil {
			err = fmt.Errorf("failed to create %s histogram: %w", name, err)
		}
		return h
	}

	m.httpRequestsTotal = counter("http_requests_total", "Total number of HTTP requests", "{request}")
	m.httpRequestDuration = histogram("http_request_duration_seconds", "HTTP request duration in seconds",
		0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0)

	m.calendarSyncTotal = counter("calendar_sync_operations_total", "Total number of remote calendar sync operations", "{operation}")
	m.calendarSyncDuration = histogram("calendar_sync_duration_seconds", "Remote calendar sync duration in seconds", latencyBuckets...)

	m.toolInvocationsTotal = counter("mcp_tool_invocations_total", "Total number of MCP tool invocations", "{invocation}")
	m.toolDuration = histogram("mcp_tool_duration_seconds", "MCP tool execution duration in seconds", latencyBuckets...)

	m.agentRequestsTotal = counter("agent_requests_total", "Total number of prompts handled by the agent", "{request}")
	m.agentRequestDuration = histogram("agent_request_duration_seconds", "Agent prompt handling duration in seconds",
		0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0)

	m.voiceOperationsTotal = counter("voice_operations_total", "Total number of speech transcriptions and syntheses", "{operation}")
	m.voiceOperationDuration = histogram("voice_operation_duration_seconds", "Voice operation duration in seconds", latencyBuckets...)

	if err != nil {
		return nil, err
	}

	m.activeCalls, err = meter.Int64UpDownCounter(
		"active_calls",
		metric.WithDescription("Number of open Twilio media streams"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active_calls gauge: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
// The path is normalized to bound cardinality.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, NormalizeHTTPPath(path)),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordCalendarSync records one remote calendar call.
//
// Parameters:
//   - kind: Record kind (todo, reminder, event)
//   - operation: Operation type (create, update, delete)
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the remote call
func (m *Metrics) RecordCalendarSync(ctx context.Context, kind, operation, status string, duration time.Duration) {
	if m == nil || m.calendarSyncTotal == nil || m.calendarSyncDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrKind, kind),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.calendarSyncTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.calendarSyncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	m.RecordToolInvocationWithTransport(ctx, toolName, status, "", duration)
}

// RecordToolInvocationWithTransport records a tool invocation including the
// transport that triggered it (http, twilio, mcp, cli) when detailed labels
// are enabled.
func (m *Metrics) RecordToolInvocationWithTransport(ctx context.Context, toolName, status, transport string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	// Only add high-cardinality labels if explicitly enabled
	if m.detailedLabels && transport != "" {
		attrs = append(attrs, attribute.String(attrTransport, transport))
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordAgentRequest records one prompt handled by the agent.
func (m *Metrics) RecordAgentRequest(ctx context.Context, agent, status string, duration time.Duration) {
	if m == nil || m.agentRequestsTotal == nil || m.agentRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrAgent, agent),
		attribute.String(attrStatus, status),
	}

	m.agentRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.agentRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordVoiceOperation records a transcription or synthesis.
func (m *Metrics) RecordVoiceOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil || m.voiceOperationsTotal == nil || m.voiceOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.voiceOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.voiceOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// IncrementActiveCalls increments the open media stream gauge.
func (m *Metrics) IncrementActiveCalls(ctx context.Context) {
	if m == nil || m.activeCalls == nil {
		return // Instrumentation not initialized
	}

	m.activeCalls.Add(ctx, 1)
}

// DecrementActiveCalls decrements the open media stream gauge.
func (m *Metrics) DecrementActiveCalls(ctx context.Context) {
	if m == nil || m.activeCalls == nil {
		return // Instrumentation not initialized
	}

	m.activeCalls.Add(ctx, -1)
}
