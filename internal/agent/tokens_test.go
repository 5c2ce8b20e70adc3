package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeuristicTokens(t *testing.T) {
	tok := &Tokenizer{}
	assert.False(t, tok.Precise())
	assert.Equal(t, 0, tok.Count(""))
	assert.Equal(t, 1, tok.Count("hi"))
	assert.Equal(t, 3, tok.Count("twelve chars"))
}

func TestNewTokenizer_Counts(t *testing.T) {
	tok := NewTokenizer("gpt-4.1-mini")
	n := tok.Count("Add a todo to buy milk tomorrow morning.")
	assert.Greater(t, n, 0)
	assert.Less(t, n, 40)
}

func TestTrimHistory(t *testing.T) {
	tok := &Tokenizer{}
	long := strings.Repeat("x", 400) // 100 tokens + 4 overhead

	msgs := []Message{
		{Role: RoleUser, Content: long},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "1", Name: "list_todos", Arguments: "{}"}}},
		{Role: RoleTool, ToolCallID: "1", Content: long},
		{Role: RoleAssistant, Content: long},
		{Role: RoleUser, Content: long},
	}

	t.Run("fits", func(t *testing.T) {
		assert.Equal(t, msgs, TrimHistory(msgs, 10000, tok))
	})

	t.Run("keeps newest", func(t *testing.T) {
		got := TrimHistory(msgs, 220, tok)
		assert.Equal(t, msgs[3:], got)
	})

	t.Run("drops orphaned tool result", func(t *testing.T) {
		got := TrimHistory(msgs, 320, tok)
		assert.Equal(t, msgs[3:], got)
	})

	t.Run("always keeps last", func(t *testing.T) {
		got := TrimHistory(msgs, 1, tok)
		assert.Equal(t, msgs[4:], got)
	})
}
