package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	openai "github.com/sashabaranov/go-openai"

	"github.com/lgch/luna/internal/logging"
	"github.com/lgch/luna/internal/tools/dispatch"
)

// Defaults for OpenAIConfig.
const (
	DefaultModel         = "gpt-4.1-mini"
	DefaultMaxRetries    = 3
	DefaultMaxIterations = 8
	DefaultHistoryTokens = 4000
	DefaultTimeout       = 60 * time.Second
)

// ErrTooManyToolRounds is returned when the model keeps calling tools past
// the iteration limit.
var ErrTooManyToolRounds = errors.New("agent exceeded the tool call limit")

// OpenAIConfig configures an OpenAIAgent.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// Name is the assistant's name used in the system prompt.
	Name          string
	Timeout       time.Duration
	MaxRetries    int
	MaxIterations int
	// HistoryTokens bounds the conversation history sent with each request.
	HistoryTokens int
}

func (c *OpenAIConfig) setDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.HistoryTokens <= 0 {
		c.HistoryTokens = DefaultHistoryTokens
	}
}

// Option configures an OpenAIAgent.
type Option func(*OpenAIAgent)

// WithMemory sets the conversation memory. Defaults to an InMemoryStore.
func WithMemory(m MemoryStore) Option {
	return func(a *OpenAIAgent) { a.memory = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *OpenAIAgent) { a.logger = l }
}

// WithClock sets the clock used for the date in the system prompt.
func WithClock(now func() time.Time) Option {
	return func(a *OpenAIAgent) { a.now = now }
}

// WithTokenizer sets the tokenizer used to trim history.
func WithTokenizer(t *Tokenizer) Option {
	return func(a *OpenAIAgent) { a.tokenizer = t }
}

// OpenAIAgent answers prompts with an OpenAI chat completion tool loop.
type OpenAIAgent struct {
	client    *openai.Client
	cfg       OpenAIConfig
	tools     *dispatch.Dispatcher
	memory    MemoryStore
	tokenizer *Tokenizer
	logger    *slog.Logger
	now       func() time.Time
	retryBase time.Duration

	threads threadLocks
}

// NewOpenAIAgent returns an agent calling tools through d.
func NewOpenAIAgent(cfg OpenAIConfig, d *dispatch.Dispatcher, opts ...Option) (*OpenAIAgent, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	cfg.setDefaults()

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	config.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	a := &OpenAIAgent{
		client:    openai.NewClientWithConfig(config),
		cfg:       cfg,
		tools:     d,
		retryBase: 150 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.memory == nil {
		a.memory = NewInMemoryStore(DefaultMemoryTTL)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.tokenizer == nil {
		a.tokenizer = NewTokenizer(cfg.Model)
	}
	return a, nil
}

// Close releases the conversation memory.
func (a *OpenAIAgent) Close() error {
	return a.memory.Close()
}

// HandlePrompt implements PromptHandler. Requests on the same thread are
// serialized so the history stays consistent.
func (a *OpenAIAgent) HandlePrompt(ctx context.Context, threadID, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}
	unlock := a.threads.lock(threadID)
	defer unlock()

	logger := a.logger.With(logging.Thread(threadID))

	history, err := a.memory.Load(ctx, threadID)
	if err != nil {
		logger.Warn("failed to load conversation memory, starting fresh", logging.Err(err))
		history = nil
	}
	history = append(history, Message{Role: RoleUser, Content: prompt})

	tools := openAITools(a.tools.Tools())
	system := SystemPrompt(a.cfg.Name, a.now())

	for round := 0; round < a.cfg.MaxIterations; round++ {
		trimmed := TrimHistory(history, a.cfg.HistoryTokens, a.tokenizer)
		req := openai.ChatCompletionRequest{
			Model:    a.cfg.Model,
			Messages: toOpenAIMessages(system, trimmed),
		}
		if len(tools) > 0 {
			req.Tools = tools
			req.ToolChoice = "auto"
		}

		resp, err := a.complete(ctx, req)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("chat completion returned no choices")
		}

		reply := fromOpenAIMessage(resp.Choices[0].Message)
		history = append(history, reply)

		if len(reply.ToolCalls) == 0 {
			a.save(ctx, logger, threadID, history)
			return strings.TrimSpace(reply.Content), nil
		}

		for _, tc := range reply.ToolCalls {
			history = append(history, Message{
				Role:       RoleTool,
				ToolCallID: tc.ID,
				Content:    a.callTool(ctx, logger, tc),
			})
		}
	}

	a.save(ctx, logger, threadID, history)
	return "", fmt.Errorf("%w (%d rounds)", ErrTooManyToolRounds, a.cfg.MaxIterations)
}

func (a *OpenAIAgent) callTool(ctx context.Context, logger *slog.Logger, tc ToolCall) string {
	res, err := a.tools.CallJSON(ctx, tc.Name, tc.Arguments)
	if err != nil {
		logger.Warn("tool call failed", logging.Tool(tc.Name), logging.Err(err))
		return "Error: " + err.Error()
	}
	if res.IsError {
		logger.Debug("tool reported an error", logging.Tool(tc.Name), slog.String("result", res.Text))
		return "Error: " + res.Text
	}
	logger.Debug("tool call succeeded", logging.Tool(tc.Name))
	return res.Text
}

func (a *OpenAIAgent) save(ctx context.Context, logger *slog.Logger, threadID string, history []Message) {
	if err := a.memory.Save(ctx, threadID, history); err != nil {
		logger.Warn("failed to save conversation memory", logging.Err(err))
	}
}

// complete calls the chat completion API, retrying transient failures with
// exponential backoff.
func (a *OpenAIAgent) complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= a.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := a.retryBase * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return openai.ChatCompletionResponse{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := a.client.CreateChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable(err) {
			return openai.ChatCompletionResponse{}, fmt.Errorf("chat completion: %w", err)
		}
		a.logger.Debug("chat completion failed, retrying", slog.Int("attempt", attempt+1), logging.Err(err))
	}
	return openai.ChatCompletionResponse{}, fmt.Errorf("chat completion failed after %d retries: %w", a.cfg.MaxRetries, lastErr)
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	return true
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func openAITools(tools []mcp.Tool) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		var params any
		if len(t.RawInputSchema) > 0 {
			params = t.RawInputSchema
		} else {
			props := t.InputSchema.Properties
			if props == nil {
				props = map[string]any{}
			}
			schema := map[string]any{"type": "object", "properties": props}
			if len(t.InputSchema.Required) > 0 {
				schema["required"] = t.InputSchema.Required
			}
			params = schema
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

func toOpenAIMessages(system string, history []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	for _, m := range history {
		msg := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func fromOpenAIMessage(m openai.ChatCompletionMessage) Message {
	msg := Message{Role: RoleAssistant, Content: m.Content}
	for i, tc := range m.ToolCalls {
		id := tc.ID
		if id == "" {
			id = fmt.Sprintf("call_%d", i)
		}
		msg.ToolCalls = append(msg.ToolCalls, ToolCall{
			ID:        id,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return msg
}
