package luna_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/lgch/luna/internal/calsync"
	"github.com/lgch/luna/internal/instrumentation"
	"github.com/lgch/luna/internal/server"
	"github.com/lgch/luna/internal/store"
	"github.com/lgch/luna/internal/tools/common"
)

// RegisterEventTools registers the calendar event tools with the MCP server
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	createEventTool := mcp.NewTool("create_calendar_event",
		mcp.WithDescription("Schedule a calendar event with a start and end time"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Event title"),
		),
		mcp.WithString("description",
			mcp.Description("Optional event description"),
		),
		mcp.WithString("event_from",
			mcp.Required(),
			mcp.Description("Start time, e.g. '2025-06-03 14:00' or 'tomorrow 2pm'"),
		),
		mcp.WithString("event_to",
			mcp.Required(),
			mcp.Description("End time, must be after the start time"),
		),
	)
	s.AddTool(createEventTool, common.InstrumentedToolHandlerWithService("create_calendar_event", calsync.KindEvent, instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateEvent(ctx, request, sc)
		}))

	listEventsTool := mcp.NewTool("list_calendar_events",
		mcp.WithDescription("List calendar events, optionally only those overlapping a time range"),
		mcp.WithString("from",
			mcp.Description("Only events ending after this time"),
		),
		mcp.WithString("to",
			mcp.Description("Only events starting before this time"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(listEventsTool, common.InstrumentedToolHandlerWithService("list_calendar_events", calsync.KindEvent, "list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEvents(ctx, request, sc)
		}))

	deleteEventTool := mcp.NewTool("delete_calendar_event",
		mcp.WithDescription("Delete a calendar event"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The id of the event"),
		),
		mcp.WithDestructiveHintAnnotation(true),
	)
	s.AddTool(deleteEventTool, common.InstrumentedToolHandlerWithService("delete_calendar_event", calsync.KindEvent, instrumentation.OperationDelete, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteEvent(ctx, request, sc)
		}))

	return nil
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	svc := sc.Service()

	title := strings.TrimSpace(request.GetString("title", ""))
	if title == "" {
		return mcp.NewToolResultError("title is required"), nil
	}

	from, err := common.OptionalDate(args, "event_from", svc.Now())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if from == nil {
		return mcp.NewToolResultError("event_from is required"), nil
	}
	to, err := common.OptionalDate(args, "event_to", svc.Now())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if to == nil {
		return mcp.NewToolResultError("event_to is required"), nil
	}

	res, err := svc.CreateEvent(ctx, &store.CalendarEvent{
		Title:       title,
		Description: request.GetString("description", ""),
		EventFrom:   *from,
		EventTo:     *to,
	})
	if err != nil {
		return toolError("event", "create the event", err), nil
	}

	text := "Scheduled " + describeEvent(res.Event) + "." + syncSentence(res.Sync, "It was added to your calendar.")
	return mcp.NewToolResultText(text), nil
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	svc := sc.Service()

	from, err := common.OptionalDate(args, "from", svc.Now())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := common.OptionalDate(args, "to", svc.Now())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	events, err := svc.ListEvents(ctx, store.EventFilter{From: from, To: to})
	if err != nil {
		return toolError("event", "list events", err), nil
	}
	if len(events) == 0 {
		return mcp.NewToolResultText("You have no calendar events in that range."), nil
	}
	header := fmt.Sprintf("You have %s:", plural(len(events), "calendar event", "calendar events"))
	return mcp.NewToolResultText(numbered(header, events, describeEvent)), nil
}

func handleDeleteEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil || strings.TrimSpace(id) == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	res, err := sc.Service().DeleteEvent(ctx, strings.TrimSpace(id))
	if err != nil {
		return toolError("event", "delete the event", err), nil
	}

	text := fmt.Sprintf("Deleted event %q.", res.Event.Title) + syncSentence(res.Sync, "It was removed from your calendar.")
	return mcp.NewToolResultText(text), nil
}
