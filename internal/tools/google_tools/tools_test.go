package google_tools

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgch/luna/internal/calsync"
	"github.com/lgch/luna/internal/google"
	"github.com/lgch/luna/internal/server"
	"github.com/lgch/luna/internal/service"
	"github.com/lgch/luna/internal/store/storetest"
	"github.com/lgch/luna/internal/tools/common"
)

func newServer(t *testing.T, opts ...server.ServerContextOption) *mcpserver.MCPServer {
	t.Helper()
	svc := service.New(storetest.New(t), calsync.New(nil, calsync.Options{}))
	sc := server.NewServerContext(context.Background(), svc, opts...)
	t.Cleanup(func() { _ = sc.Shutdown() })

	s := mcpserver.NewMCPServer("luna-test", "test", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterGoogleTools(s, sc))
	return s
}

func call(t *testing.T, s *mcpserver.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool)
	result, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err)
	return result
}

func TestRegisterGoogleTools_WithoutAuth(t *testing.T) {
	s := newServer(t)
	assert.Nil(t, s.GetTool("google_get_auth_url"))
	assert.Nil(t, s.GetTool("google_save_auth_code"))
}

func TestGoogleTools(t *testing.T) {
	auth, err := google.NewAuth(google.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenFile:    filepath.Join(t.TempDir(), "google.token"),
	})
	require.NoError(t, err)
	s := newServer(t, server.WithGoogleAuth(auth))

	result := call(t, s, "google_get_auth_url", nil)
	require.False(t, result.IsError)
	text := common.ResultText(result)
	assert.Contains(t, text, "No token is saved yet.")
	assert.Contains(t, text, "client_id=client-id")

	result = call(t, s, "google_save_auth_code", map[string]any{})
	assert.True(t, result.IsError)
	assert.Equal(t, "authCode is required", common.ResultText(result))
}
