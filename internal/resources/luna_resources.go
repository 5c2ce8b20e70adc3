package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/lgch/luna/internal/server"
	"github.com/lgch/luna/internal/store"
)

// Resource URIs.
const (
	PendingTodosURI   = "luna://todos/pending"
	RemindersURI      = "luna://reminders"
	UpcomingEventsURI = "luna://events/upcoming"
)

// UpcomingWindow is how far ahead luna://events/upcoming looks.
const UpcomingWindow = 7 * 24 * time.Hour

// RegisterLunaResources registers the Luna resources.
func RegisterLunaResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc == nil || sc.Service() == nil {
		return fmt.Errorf("server context with a service is required")
	}

	s.AddResource(mcp.NewResource(
		PendingTodosURI,
		"Pending Todos",
		mcp.WithResourceDescription("Todos that are not completed yet, most recent first"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		todos, err := sc.Service().ListTodos(ctx, store.TodoFilter{Status: store.TodoStatusPending})
		if err != nil {
			return nil, fmt.Errorf("failed to list pending todos: %w", err)
		}
		return jsonContents(request, map[string]any{"count": len(todos), "todos": todos})
	})

	s.AddResource(mcp.NewResource(
		RemindersURI,
		"Reminders",
		mcp.WithResourceDescription("All reminders"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		reminders, err := sc.Service().ListReminders(ctx, store.ReminderFilter{})
		if err != nil {
			return nil, fmt.Errorf("failed to list reminders: %w", err)
		}
		return jsonContents(request, map[string]any{"count": len(reminders), "reminders": reminders})
	})

	s.AddResource(mcp.NewResource(
		UpcomingEventsURI,
		"Upcoming Events",
		mcp.WithResourceDescription("Calendar events in the next seven days"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		from := sc.Service().Now()
		to := from.Add(UpcomingWindow)
		events, err := sc.Service().ListEvents(ctx, store.EventFilter{From: &from, To: &to})
		if err != nil {
			return nil, fmt.Errorf("failed to list upcoming events: %w", err)
		}
		return jsonContents(request, map[string]any{
			"from":   from,
			"to":     to,
			"count":  len(events),
			"events": events,
		})
	})

	return nil
}

func jsonContents(request mcp.ReadResourceRequest, data any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
