package common

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordIDFromArgs(t *testing.T) {
	assert.Equal(t, "abc", RecordIDFromArgs(map[string]any{"id": "abc"}))
	assert.Equal(t, "CA1", RecordIDFromArgs(map[string]any{"call_sid": "CA1"}))
	assert.Equal(t, "", RecordIDFromArgs(map[string]any{"id": 12}))
	assert.Equal(t, "", RecordIDFromArgs(nil))
}

func TestOptionalString(t *testing.T) {
	args := map[string]any{"title": "Buy milk", "empty": "", "null": nil, "num": 3.0}

	require.NotNil(t, OptionalString(args, "title"))
	assert.Equal(t, "Buy milk", *OptionalString(args, "title"))
	require.NotNil(t, OptionalString(args, "empty"))
	assert.Equal(t, "", *OptionalString(args, "empty"))
	assert.Nil(t, OptionalString(args, "null"))
	assert.Nil(t, OptionalString(args, "missing"))
	assert.Equal(t, "3", *OptionalString(args, "num"))
}

func TestOptionalBool(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    *bool
		wantErr bool
	}{
		{name: "json true", value: true, want: boolPtr(true)},
		{name: "json false", value: false, want: boolPtr(false)},
		{name: "string yes", value: "yes", want: boolPtr(true)},
		{name: "string 0", value: "0", want: boolPtr(false)},
		{name: "null", value: nil, want: nil},
		{name: "garbage", value: "maybe", wantErr: true},
		{name: "number", value: 1.0, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OptionalBool(map[string]any{"completed": tt.value}, "completed")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOptionalInt64(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    int64
		wantErr bool
	}{
		{name: "float", value: 42.0, want: 42},
		{name: "int", value: 7, want: 7},
		{name: "json number", value: json.Number("1024"), want: 1024},
		{name: "string", value: " 15 ", want: 15},
		{name: "negative is parsed", value: -3.0, want: -3},
		{name: "fraction", value: 1.5, wantErr: true},
		{name: "text", value: "ten", wantErr: true},
		{name: "bool", value: true, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OptionalInt64(map[string]any{"n": tt.value}, "n")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}

	got, err := OptionalInt64(map[string]any{}, "n")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func boolPtr(b bool) *bool { return &b }
