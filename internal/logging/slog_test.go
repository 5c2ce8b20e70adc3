package logging

import (
	"errors"
	"log/slog"
	"testing"
)

func TestWithOperation(t *testing.T) {
	logger := slog.Default()
	result := WithOperation(logger, "test_operation")
	if result == nil {
		t.Error("WithOperation returned nil")
	}
}

func TestWithTool(t *testing.T) {
	logger := slog.Default()
	result := WithTool(logger, "create_todo")
	if result == nil {
		t.Error("WithTool returned nil")
	}
}

func TestWithCall(t *testing.T) {
	logger := slog.Default()
	result := WithCall(logger, "CA123")
	if result == nil {
		t.Error("WithCall returned nil")
	}
}

func TestAttrKeys(t *testing.T) {
	tests := []struct {
		name  string
		attr  slog.Attr
		key   string
		value string
	}{
		{"operation", Operation("create"), KeyOperation, "create"},
		{"service", Service("calendar"), KeyService, "calendar"},
		{"tool", Tool("create_todo"), KeyTool, "create_todo"},
		{"status", Status(StatusSuccess), KeyStatus, StatusSuccess},
		{"kind", Kind("reminder"), KeyKind, "reminder"},
		{"record", RecordID("abc"), KeyRecordID, "abc"},
		{"event", EventID("evt1"), KeyEventID, "evt1"},
		{"call", CallSID("CA1"), KeyCallSID, "CA1"},
		{"stream", StreamSID("MZ1"), KeyStreamSID, "MZ1"},
		{"thread", Thread("twilio-CA1"), KeyThread, "twilio-CA1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.key {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.key)
			}
			if tt.attr.Value.String() != tt.value {
				t.Errorf("value = %q, want %q", tt.attr.Value.String(), tt.value)
			}
		})
	}
}

func TestErr(t *testing.T) {
	err := errors.New("test error")
	attr := Err(err)
	if attr.Key != KeyError {
		t.Errorf("Err key = %q, want %q", attr.Key, KeyError)
	}
	if attr.Value.String() != "test error" {
		t.Errorf("Err value = %q, want %q", attr.Value.String(), "test error")
	}

	// Empty Group has empty key
	attr = Err(nil)
	if attr.Key != "" {
		t.Errorf("Err(nil) key = %q, want empty string (empty group)", attr.Key)
	}
}

func TestMaskPhone(t *testing.T) {
	tests := []struct {
		number   string
		expected string
	}{
		{"+15551234567", "*******4567"},
		{"(555) 123-4567", "******4567"},
		{"1234", "****"},
		{"", ""},
		{"anonymous", ""},
	}

	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			result := MaskPhone(tt.number)
			if result != tt.expected {
				t.Errorf("MaskPhone(%q) = %q, want %q", tt.number, result, tt.expected)
			}
		})
	}
}

func TestPhone(t *testing.T) {
	attr := Phone("+15551234567")
	if attr.Key != KeyPhone {
		t.Errorf("Phone key = %q, want %q", attr.Key, KeyPhone)
	}
	if attr.Value.String() != "*******4567" {
		t.Errorf("Phone value = %q", attr.Value.String())
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		token    string
		expected string
	}{
		{"", "<empty>"},
		{"abc123", "[token:6 chars]"},
		{"a_very_long_token_string", "[token:24 chars]"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := SanitizeToken(tt.token)
			if result != tt.expected {
				t.Errorf("SanitizeToken(%q) = %q, want %q", tt.token, result, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Errorf("Truncate = %q, want %q", got, "hello...")
	}
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate = %q, want %q", got, "short")
	}
	if got := Truncate("héllo", 2); got != "hé..." {
		t.Errorf("Truncate = %q, want %q", got, "hé...")
	}
}

func TestStatusConstants(t *testing.T) {
	if StatusSuccess != "success" {
		t.Errorf("StatusSuccess = %q, want %q", StatusSuccess, "success")
	}
	if StatusError != "error" {
		t.Errorf("StatusError = %q, want %q", StatusError, "error")
	}
}
