package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// ErrUnknownTool is returned when a tool is not registered or is excluded.
var ErrUnknownTool = errors.New("unknown tool")

// Result is the outcome of a tool call. IsError marks results the tool
// reported as failures (validation, not found); the text explains why.
type Result struct {
	Text    string
	IsError bool
}

// Dispatcher calls MCP tools in-process.
type Dispatcher struct {
	server  *mcpserver.MCPServer
	exclude []string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithExcludedPrefixes hides tools whose name starts with any of prefixes.
func WithExcludedPrefixes(prefixes ...string) Option {
	return func(d *Dispatcher) {
		d.exclude = append(d.exclude, prefixes...)
	}
}

// New returns a Dispatcher over the tools registered on s.
func New(s *mcpserver.MCPServer, opts ...Option) *Dispatcher {
	d := &Dispatcher{server: s}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) excluded(name string) bool {
	for _, p := range d.exclude {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// Tools returns the visible tool definitions sorted by name.
func (d *Dispatcher) Tools() []mcp.Tool {
	registered := d.server.ListTools()
	tools := make([]mcp.Tool, 0, len(registered))
	for name, st := range registered {
		if d.excluded(name) {
			continue
		}
		tools = append(tools, st.Tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// Call invokes the named tool. An error is returned only when the tool does
// not exist or its handler failed; tool-reported failures come back as a
// Result with IsError set.
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]any) (Result, error) {
	if d.excluded(name) {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	st := d.server.GetTool(name)
	if st == nil {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if args == nil {
		args = map[string]any{}
	}

	res, err := st.Handler(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	if err != nil {
		return Result{}, fmt.Errorf("tool %s: %w", name, err)
	}
	if res == nil {
		return Result{}, fmt.Errorf("tool %s returned no result", name)
	}
	return Result{Text: text(res), IsError: res.IsError}, nil
}

// CallJSON decodes a JSON object of arguments, as produced by a language
// model, and invokes the named tool.
func (d *Dispatcher) CallJSON(ctx context.Context, name, rawArgs string) (Result, error) {
	args := map[string]any{}
	if s := strings.TrimSpace(rawArgs); s != "" {
		if err := json.Unmarshal([]byte(s), &args); err != nil {
			return Result{}, fmt.Errorf("invalid arguments for %s: %w", name, err)
		}
	}
	return d.Call(ctx, name, args)
}

func text(res *mcp.CallToolResult) string {
	parts := make([]string, 0, len(res.Content))
	for _, c := range res.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
