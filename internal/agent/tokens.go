package agent

import (
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Tokenizer counts tokens with tiktoken. When the encoding cannot be
// loaded (for example offline, without a BPE cache) it falls back to a
// character heuristic.
type Tokenizer struct {
	mu      sync.Mutex
	encoder *tiktoken.Tiktoken
}

// NewTokenizer returns a tokenizer for model.
func NewTokenizer(model string) *Tokenizer {
	enc, err := tiktoken.EncodingForModel(strings.TrimSpace(model))
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err != nil {
		return &Tokenizer{}
	}
	return &Tokenizer{encoder: enc}
}

// Precise reports whether tiktoken is in use.
func (t *Tokenizer) Precise() bool {
	return t != nil && t.encoder != nil
}

// Count returns the number of tokens in text.
func (t *Tokenizer) Count(text string) int {
	if text == "" {
		return 0
	}
	if !t.Precise() {
		return heuristicTokens(text)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.encoder.Encode(text, nil, nil))
}

// CountMessage returns the tokens a message costs, including the
// per-message overhead of the chat format.
func (t *Tokenizer) CountMessage(m Message) int {
	n := 4 + t.Count(m.Content)
	for _, tc := range m.ToolCalls {
		n += 8 + t.Count(tc.Name) + t.Count(tc.Arguments)
	}
	return n
}

// about four characters per token for English text
func heuristicTokens(text string) int {
	n := (len([]rune(text)) + 3) / 4
	if n < 1 {
		n = 1
	}
	return n
}

// TrimHistory returns the newest suffix of messages that fits in budget
// tokens. The last message is always kept. The result never starts with a
// tool result whose call was trimmed away.
func TrimHistory(messages []Message, budget int, t *Tokenizer) []Message {
	if len(messages) == 0 || budget <= 0 {
		return messages
	}

	start := len(messages) - 1
	used := t.CountMessage(messages[start])
	for start > 0 {
		cost := t.CountMessage(messages[start-1])
		if used+cost > budget {
			break
		}
		used += cost
		start--
	}
	for start < len(messages)-1 && messages[start].Role == RoleTool {
		start++
	}
	return messages[start:]
}
