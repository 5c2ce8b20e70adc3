package luna_tools

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/lgch/luna/internal/server"
)

// RegisterLunaTools registers all todo, reminder, event and recording tools
// with the MCP server
func RegisterLunaTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := RegisterTodoTools(s, sc); err != nil {
		return fmt.Errorf("failed to register todo tools: %w", err)
	}

	if err := RegisterReminderTools(s, sc); err != nil {
		return fmt.Errorf("failed to register reminder tools: %w", err)
	}

	if err := RegisterEventTools(s, sc); err != nil {
		return fmt.Errorf("failed to register event tools: %w", err)
	}

	if err := RegisterRecordingTools(s, sc); err != nil {
		return fmt.Errorf("failed to register recording tools: %w", err)
	}

	return nil
}
