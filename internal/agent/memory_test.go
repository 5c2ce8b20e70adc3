package agent

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleHistory = []Message{
	{Role: RoleUser, Content: "add todo buy milk"},
	{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "call_1", Name: "create_todo", Arguments: `{"title":"buy milk"}`}}},
	{Role: RoleTool, ToolCallID: "call_1", Content: "Created todo."},
	{Role: RoleAssistant, Content: "Done."},
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	s := NewInMemoryStore(time.Hour)
	s.now = func() time.Time { return now }

	got, err := s.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Save(ctx, "t1", sampleHistory))
	got, err = s.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, sampleHistory, got)

	got[0].Content = "mutated"
	again, _ := s.Load(ctx, "t1")
	assert.Equal(t, "add todo buy milk", again[0].Content)

	now = now.Add(time.Hour)
	got, err = s.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, s.Len())
}

func TestInMemoryStore_SavePrunesExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	s := NewInMemoryStore(time.Minute)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(ctx, "old", sampleHistory))
	now = now.Add(2 * time.Minute)
	require.NoError(t, s.Save(ctx, "new", sampleHistory))
	assert.Equal(t, 1, s.Len())
}

func TestBadgerMemoryStore(t *testing.T) {
	ctx := context.Background()

	for name, opts := range map[string]BadgerOptions{
		"in memory": {InMemory: true},
		"on disk":   {Path: filepath.Join(t.TempDir(), "memory")},
	} {
		t.Run(name, func(t *testing.T) {
			s, err := OpenBadgerMemoryStore(opts)
			require.NoError(t, err)
			defer s.Close()

			got, err := s.Load(ctx, "twilio-CA1")
			require.NoError(t, err)
			assert.Nil(t, got)

			require.NoError(t, s.Save(ctx, "twilio-CA1", sampleHistory))
			got, err = s.Load(ctx, "twilio-CA1")
			require.NoError(t, err)
			assert.Equal(t, sampleHistory, got)

			require.NoError(t, s.Save(ctx, "twilio-CA1", sampleHistory[:1]))
			got, err = s.Load(ctx, "twilio-CA1")
			require.NoError(t, err)
			assert.Len(t, got, 1)
		})
	}
}

func TestBadgerMemoryStore_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "memory")

	s, err := OpenBadgerMemoryStore(BadgerOptions{Path: path})
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "cli-1", sampleHistory))
	require.NoError(t, s.Close())

	s, err = OpenBadgerMemoryStore(BadgerOptions{Path: path})
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Load(ctx, "cli-1")
	require.NoError(t, err)
	assert.Equal(t, sampleHistory, got)
}
