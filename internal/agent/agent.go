package agent

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrEmptyPrompt is returned when the prompt is blank.
var ErrEmptyPrompt = errors.New("prompt is empty")

// DefaultHTTPThread is the thread used by HTTP requests without a thread_id.
const DefaultHTTPThread = "http-default"

// PromptHandler answers a prompt within a conversation thread.
type PromptHandler interface {
	HandlePrompt(ctx context.Context, threadID, prompt string) (string, error)
}

// Roles used in conversation history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of a conversation thread.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// CallThread returns the thread id for a phone call.
func CallThread(callSID string) string {
	return "twilio-" + callSID
}

// NewCLIThread returns a fresh thread id for an interactive session.
func NewCLIThread() string {
	return "cli-" + uuid.NewString()
}
