package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dateNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func TestParseDate_Layouts(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2025-06-03T17:00:00Z", time.Date(2025, 6, 3, 17, 0, 0, 0, time.UTC)},
		{"2025-06-03T17:00:00+02:00", time.Date(2025, 6, 3, 15, 0, 0, 0, time.UTC)},
		{"2025-06-03T17:00", time.Date(2025, 6, 3, 17, 0, 0, 0, time.UTC)},
		{"2025-06-03 17:00", time.Date(2025, 6, 3, 17, 0, 0, 0, time.UTC)},
		{"2025-06-03 17:00:30", time.Date(2025, 6, 3, 17, 0, 30, 0, time.UTC)},
		{" 2025-06-03 ", time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input, dateNow)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseDate_NaturalLanguage(t *testing.T) {
	got, err := ParseDate("tomorrow", dateNow)
	require.NoError(t, err)
	assert.Equal(t, 2025, got.Year())
	assert.Equal(t, time.June, got.Month())
	assert.Equal(t, 2, got.Day())
}

func TestParseDate_Errors(t *testing.T) {
	_, err := ParseDate("", dateNow)
	assert.Error(t, err)

	_, err = ParseDate("qwxz plorf", dateNow)
	assert.Error(t, err)
}

func TestOptionalDate(t *testing.T) {
	got, err := OptionalDate(map[string]any{"due_date": ""}, "due_date", dateNow)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = OptionalDate(map[string]any{}, "due_date", dateNow)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = OptionalDate(map[string]any{"due_date": "2025-06-03"}, "due_date", dateNow)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.Day())

	_, err = OptionalDate(map[string]any{"due_date": "qwxz plorf"}, "due_date", dateNow)
	assert.ErrorContains(t, err, "invalid due_date")
}
