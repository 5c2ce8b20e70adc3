package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	s := mcpserver.NewMCPServer("dispatch-test", "test", mcpserver.WithToolCapabilities(true))

	s.AddTool(mcp.NewTool("echo", mcp.WithString("text", mcp.Required())),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			text, err := request.RequireString("text")
			if err != nil {
				return mcp.NewToolResultError("text is required"), nil
			}
			return mcp.NewToolResultText(text), nil
		})
	s.AddTool(mcp.NewTool("broken"),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return nil, errors.New("boom")
		})
	s.AddTool(mcp.NewTool("google_get_auth_url"),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("secret"), nil
		})

	return New(s, WithExcludedPrefixes("google_"))
}

func TestTools(t *testing.T) {
	d := newDispatcher(t)

	var names []string
	for _, tool := range d.Tools() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"broken", "echo"}, names)
}

func TestCall(t *testing.T) {
	d := newDispatcher(t)
	ctx := context.Background()

	res, err := d.Call(ctx, "echo", map[string]any{"text": "hello"})
	require.NoError(t, err)
	assert.Equal(t, Result{Text: "hello"}, res)

	res, err = d.Call(ctx, "echo", nil)
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "text is required", res.Text)

	_, err = d.Call(ctx, "broken", nil)
	assert.EqualError(t, err, "tool broken: boom")

	_, err = d.Call(ctx, "missing", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)

	_, err = d.Call(ctx, "google_get_auth_url", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestCallJSON(t *testing.T) {
	d := newDispatcher(t)
	ctx := context.Background()

	res, err := d.CallJSON(ctx, "echo", `{"text":"hi"}`)
	require.NoError(t, err)
	assert.Equal(t, "hi", res.Text)

	res, err = d.CallJSON(ctx, "echo", "")
	require.NoError(t, err)
	assert.True(t, res.IsError)

	_, err = d.CallJSON(ctx, "echo", `{"text":`)
	assert.ErrorContains(t, err, "invalid arguments for echo")
}
