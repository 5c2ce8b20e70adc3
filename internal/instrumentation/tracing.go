package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer name used for all Luna spans.
const TracerName = "github.com/lgch/luna"

// Span attribute keys for operations.
const (
	// SpanAttrTool is the MCP tool name attribute.
	SpanAttrTool = "mcp.tool"

	// SpanAttrService is the external service attribute (calendar, openai, twilio).
	SpanAttrService = "luna.service"

	// SpanAttrOperation is the operation type attribute.
	SpanAttrOperation = "luna.operation"

	// SpanAttrThread is the conversation thread attribute.
	SpanAttrThread = "luna.thread_id"

	// SpanAttrAgent is the agent implementation attribute.
	SpanAttrAgent = "luna.agent"

	// SpanAttrRecordID is the local record identifier.
	SpanAttrRecordID = "luna.record_id"

	// SpanAttrRecordKind is the local record kind (todo, reminder, event, recording).
	SpanAttrRecordKind = "luna.record_kind"

	// SpanAttrCallSID is the Twilio call identifier.
	SpanAttrCallSID = "twilio.call_sid"
)

// SpanAttributeBuilder helps construct OpenTelemetry span attributes
// with consistent naming.
type SpanAttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewSpanAttributeBuilder creates a new SpanAttributeBuilder.
func NewSpanAttributeBuilder() *SpanAttributeBuilder {
	return &SpanAttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 8),
	}
}

// WithTool adds the MCP tool name attribute.
func (b *SpanAttributeBuilder) WithTool(tool string) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.String(SpanAttrTool, tool))
	return b
}

// WithOperation adds the operation type attribute.
func (b *SpanAttributeBuilder) WithOperation(operation string) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.String(SpanAttrOperation, operation))
	return b
}

// WithThread adds the conversation thread attribute.
func (b *SpanAttributeBuilder) WithThread(threadID string) *SpanAttributeBuilder {
	if threadID != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrThread, threadID))
	}
	return b
}

// WithRecord adds the local record attributes.
func (b *SpanAttributeBuilder) WithRecord(kind, id string) *SpanAttributeBuilder {
	if kind != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrRecordKind, kind))
	}
	if id != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrRecordID, id))
	}
	return b
}

// WithCallSID adds the Twilio call attribute.
func (b *SpanAttributeBuilder) WithCallSID(callSID string) *SpanAttributeBuilder {
	if callSID != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrCallSID, callSID))
	}
	return b
}

// Build returns the constructed attributes.
func (b *SpanAttributeBuilder) Build() []attribute.KeyValue {
	return b.attrs
}

// StartToolSpan starts a span for an MCP tool invocation.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append(NewSpanAttributeBuilder().WithTool(toolName).Build(), attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "tool."+toolName,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartCalendarSpan starts a client span for a Google Calendar call, named
// google.calendar.<operation>.
func StartCalendarSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+2)
	allAttrs = append(allAttrs,
		attribute.String(SpanAttrService, ServiceCalendar),
		attribute.String(SpanAttrOperation, operation),
	)
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "google.calendar."+operation,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// StartAgentSpan starts a span for one agent turn.
func StartAgentSpan(ctx context.Context, agent, threadID string) (context.Context, trace.Span) {
	attrs := NewSpanAttributeBuilder().WithThread(threadID).Build()
	attrs = append(attrs, attribute.String(SpanAttrAgent, agent))

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "agent.handle_prompt", trace.WithAttributes(attrs...))
}

// StartVoiceSpan starts a client span for a speech call to OpenAI, named
// voice.<operation>.
func StartVoiceSpan(ctx context.Context, operation, callSID string) (context.Context, trace.Span) {
	attrs := NewSpanAttributeBuilder().WithOperation(operation).WithCallSID(callSID).Build()
	attrs = append(attrs, attribute.String(SpanAttrService, ServiceOpenAI))

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "voice."+operation,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// GetTraceID returns the trace ID from the current span in context.
// Returns empty string if no valid span is present.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}
