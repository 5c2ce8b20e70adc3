package google_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/lgch/luna/internal/server"
	"github.com/lgch/luna/internal/tools/common"
)

// RegisterGoogleTools registers the Google OAuth tools with the MCP server.
// Nothing is registered when no OAuth client is configured.
func RegisterGoogleTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc.GoogleAuth() == nil {
		return nil
	}

	getAuthURLTool := mcp.NewTool("google_get_auth_url",
		mcp.WithDescription("Get the OAuth URL to authorize Luna to manage your Google Calendar"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(getAuthURLTool, common.InstrumentedToolHandler("google_get_auth_url", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetAuthURL(ctx, request, sc)
		}))

	saveAuthCodeTool := mcp.NewTool("google_save_auth_code",
		mcp.WithDescription("Save the OAuth authorization code to complete Google Calendar authorization"),
		mcp.WithString("authCode",
			mcp.Required(),
			mcp.Description("The authorization code from Google OAuth"),
		),
	)
	s.AddTool(saveAuthCodeTool, common.InstrumentedToolHandler("google_save_auth_code", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSaveAuthCode(ctx, request, sc)
		}))

	return nil
}

func handleGetAuthURL(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	auth := sc.GoogleAuth()

	status := "No token is saved yet."
	if auth.HasToken() {
		status = "A token is already saved. Authorizing again replaces it."
	}

	result := fmt.Sprintf(`%s

To authorize Google Calendar access:

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account
3. Grant access to your calendar
4. Copy the authorization code

5. Call the google_save_auth_code tool with the code to complete authorization`, status, auth.AuthURL())

	return mcp.NewToolResultText(result), nil
}

func handleSaveAuthCode(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	authCode, err := request.RequireString("authCode")
	if err != nil || authCode == "" {
		return mcp.NewToolResultError("authCode is required"), nil
	}

	if err := sc.GoogleAuth().Exchange(ctx, authCode); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save authorization code: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Authorization successful. The Google token was saved to %s and calendar sync is enabled on the next start.", sc.GoogleAuth().TokenFile())), nil
}
