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

// RegisterReminderTools registers the reminder tools with the MCP server
func RegisterReminderTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	createReminderTool := mcp.NewTool("create_reminder",
		mcp.WithDescription("Create a reminder. It is also added to the user's calendar when one is connected."),
		mcp.WithString("reminder_text",
			mcp.Required(),
			mcp.Description("What to remind the user about"),
		),
		mcp.WithString("importance",
			mcp.Description("Importance. "+levelDescription+". Defaults to medium."),
			mcp.Enum("low", "medium", "high", "urgent"),
		),
		mcp.WithString("reminder_date",
			mcp.Description("When to remind, e.g. '2025-06-03 09:00' or 'next monday 9am'"),
		),
	)
	s.AddTool(createReminderTool, common.InstrumentedToolHandlerWithService("create_reminder", calsync.KindReminder, instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateReminder(ctx, request, sc)
		}))

	listRemindersTool := mcp.NewTool("list_reminders",
		mcp.WithDescription("List all reminders, oldest first"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(listRemindersTool, common.InstrumentedToolHandlerWithService("list_reminders", calsync.KindReminder, "list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListReminders(ctx, sc)
		}))

	deleteReminderTool := mcp.NewTool("delete_reminder",
		mcp.WithDescription("Delete a reminder and remove it from the calendar"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The id of the reminder"),
		),
		mcp.WithDestructiveHintAnnotation(true),
	)
	s.AddTool(deleteReminderTool, common.InstrumentedToolHandlerWithService("delete_reminder", calsync.KindReminder, instrumentation.OperationDelete, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteReminder(ctx, request, sc)
		}))

	return nil
}

func handleCreateReminder(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc := sc.Service()

	text := strings.TrimSpace(request.GetString("reminder_text", ""))
	if text == "" {
		return mcp.NewToolResultError("reminder_text is required"), nil
	}

	importance, err := store.ParseLevel(request.GetString("importance", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	date, err := common.OptionalDate(request.GetArguments(), "reminder_date", svc.Now())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := svc.CreateReminder(ctx, &store.Reminder{
		ReminderText: text,
		Importance:   importance,
		ReminderDate: date,
	})
	if err != nil {
		return toolError("reminder", "create the reminder", err), nil
	}

	out := "Created reminder " + describeReminder(res.Reminder) + "." + syncSentence(res.Sync, "It was added to your calendar.")
	return mcp.NewToolResultText(out), nil
}

func handleListReminders(ctx context.Context, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	reminders, err := sc.Service().ListReminders(ctx, store.ReminderFilter{})
	if err != nil {
		return toolError("reminder", "list reminders", err), nil
	}
	if len(reminders) == 0 {
		return mcp.NewToolResultText("You have no reminders."), nil
	}
	header := fmt.Sprintf("You have %s:", plural(len(reminders), "reminder", "reminders"))
	return mcp.NewToolResultText(numbered(header, reminders, describeReminder)), nil
}

func handleDeleteReminder(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil || strings.TrimSpace(id) == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	res, err := sc.Service().DeleteReminder(ctx, strings.TrimSpace(id))
	if err != nil {
		return toolError("reminder", "delete the reminder", err), nil
	}

	out := fmt.Sprintf("Deleted reminder %q.", res.Reminder.ReminderText) + syncSentence(res.Sync, "It was removed from your calendar.")
	return mcp.NewToolResultText(out), nil
}
