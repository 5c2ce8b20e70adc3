package instrumentation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

const (
	testPhone      = "+15551234567"
	testMasked     = "*******4567"
	testToolCreate = "create_todo"
)

func newBufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, nil)), &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("invalid log line %q: %v", buf.String(), err)
	}
	return m
}

func TestToolInvocation_NewAndComplete(t *testing.T) {
	ti := NewToolInvocation(testToolCreate)
	if ti.StartTime.IsZero() {
		t.Error("StartTime should not be zero")
	}

	ti.CompleteSuccess()
	if !ti.Success || ti.Status() != StatusSuccess {
		t.Error("invocation should be successful")
	}
	if ti.Duration < 0 {
		t.Error("Duration should not be negative")
	}

	ti = NewToolInvocation(testToolCreate).CompleteWithError(errors.New("title is required"))
	if ti.Success || ti.Status() != StatusError {
		t.Error("invocation should have failed")
	}
	if ti.Error != "title is required" {
		t.Errorf("Error = %q", ti.Error)
	}
}

func TestToolInvocation_LogAttrs_MasksPhone(t *testing.T) {
	ti := NewToolInvocation(testToolCreate).
		WithCaller(Caller{Transport: TransportTwilio, ThreadID: "twilio-CA1", Phone: testPhone}).
		WithRecord("todo", "create").
		CompleteSuccess()

	attrs := map[string]string{}
	for _, a := range ti.LogAttrs() {
		attrs[a.Key] = a.Value.String()
	}
	if attrs["phone"] != testMasked {
		t.Errorf("phone = %q, want %q", attrs["phone"], testMasked)
	}
	if attrs["transport"] != TransportTwilio {
		t.Errorf("transport = %q", attrs["transport"])
	}
	if attrs["thread_id"] != "twilio-CA1" {
		t.Errorf("thread_id = %q", attrs["thread_id"])
	}

	full := map[string]string{}
	for _, a := range ti.LogAuditAttrs() {
		full[a.Key] = a.Value.String()
	}
	if full["phone"] != testPhone {
		t.Errorf("audit phone = %q, want %q", full["phone"], testPhone)
	}
}

func TestToolInvocation_LogAttrs_MinimalFields(t *testing.T) {
	ti := NewToolInvocation("list_todos").CompleteSuccess()
	if got := len(ti.LogAttrs()); got != 3 {
		t.Errorf("expected 3 attributes, got %d", got)
	}
}

func TestCallerFromContext(t *testing.T) {
	if got := CallerFromContext(context.Background()); got.Transport != TransportMCP {
		t.Errorf("default transport = %q, want mcp", got.Transport)
	}
	ctx := WithCaller(context.Background(), Caller{Transport: TransportHTTP, ThreadID: "http-default"})
	if got := CallerFromContext(ctx); got.ThreadID != "http-default" {
		t.Errorf("thread = %q", got.ThreadID)
	}
}

func TestAuditLogger_LogToolInvocation(t *testing.T) {
	logger, buf := newBufferLogger()
	al := NewAuditLogger(logger)

	al.LogToolInvocation(NewToolInvocation(testToolCreate).
		WithCaller(Caller{Transport: TransportTwilio, Phone: testPhone}).
		CompleteWithError(errors.New("boom")))

	line := decodeLine(t, buf)
	if line["msg"] != "tool_failed" || line["level"] != "WARN" {
		t.Errorf("unexpected record: %v", line)
	}
	if line["phone"] != testMasked {
		t.Errorf("phone = %v, want masked", line["phone"])
	}
}

func TestAuditLogger_IncludePII(t *testing.T) {
	logger, buf := newBufferLogger()
	al := NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true, IncludePII: true})

	al.LogToolInvocation(NewToolInvocation(testToolCreate).
		WithCaller(Caller{Phone: testPhone}).
		CompleteSuccess())

	line := decodeLine(t, buf)
	if line["msg"] != "tool_executed" {
		t.Errorf("msg = %v", line["msg"])
	}
	if line["phone"] != testPhone {
		t.Errorf("phone = %v, want full number", line["phone"])
	}
}

func TestAuditLogger_Disabled(t *testing.T) {
	logger, buf := newBufferLogger()
	al := NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: false})
	al.LogToolInvocation(NewToolInvocation(testToolCreate).CompleteSuccess())
	if buf.Len() != 0 {
		t.Errorf("disabled audit logger wrote %q", buf.String())
	}

	var nilLogger *AuditLogger
	nilLogger.LogToolInvocation(NewToolInvocation(testToolCreate).CompleteSuccess())
}

func TestToolInvocation_WithSpanContext_NoSpan(t *testing.T) {
	ti := NewToolInvocation("test").WithSpanContext(context.Background())
	if ti.TraceID != "" || ti.SpanID != "" {
		t.Errorf("expected empty trace context, got %q/%q", ti.TraceID, ti.SpanID)
	}
}
