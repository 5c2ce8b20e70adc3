package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
)

// dateLayouts are tried before natural language parsing. Layouts without a
// zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDate parses an absolute date ("2025-06-03 17:00") or a natural
// language expression ("tomorrow 5pm", "next friday") relative to now. The
// result is in UTC.
func ParseDate(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, input); err == nil {
			return t.UTC(), nil
		}
	}

	cfg := &dateparser.Configuration{
		CurrentTime: now,
	}
	result, err := dateparser.Parse(cfg, input)
	if err != nil || result.Time.IsZero() {
		return time.Time{}, fmt.Errorf("could not understand date %q, use a format like 2025-06-03 17:00 or tomorrow 5pm", input)
	}
	return result.Time.UTC(), nil
}

// OptionalDate parses the date argument key. It returns nil when the
// argument is absent or empty.
func OptionalDate(args map[string]any, key string, now time.Time) (*time.Time, error) {
	s := OptionalString(args, key)
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := ParseDate(*s, now)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &t, nil
}
