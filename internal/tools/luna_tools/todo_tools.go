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
	"github.com/lgch/luna/internal/service"
	"github.com/lgch/luna/internal/store"
	"github.com/lgch/luna/internal/tools/batch"
	"github.com/lgch/luna/internal/tools/common"
)

const levelDescription = "One of: low, medium, high, urgent"

// RegisterTodoTools registers the todo tools with the MCP server
func RegisterTodoTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	createTodoTool := mcp.NewTool("create_todo",
		mcp.WithDescription("Create a new todo item. It is also added to the user's calendar when one is connected."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short title of the todo"),
		),
		mcp.WithString("description",
			mcp.Description("Optional longer description"),
		),
		mcp.WithString("priority",
			mcp.Description("Priority. "+levelDescription+". Defaults to medium."),
			mcp.Enum("low", "medium", "high", "urgent"),
		),
		mcp.WithString("due_date",
			mcp.Description("When the todo is due, e.g. '2025-06-03 17:00' or 'tomorrow 5pm'. Defaults to today."),
		),
	)
	s.AddTool(createTodoTool, common.InstrumentedToolHandlerWithService("create_todo", calsync.KindTodo, instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateTodo(ctx, request, sc)
		}))

	listTodosTool := mcp.NewTool("list_todos",
		mcp.WithDescription("List todo items, oldest first"),
		mcp.WithString("status",
			mcp.Description("Which todos to list: all, pending or completed. Defaults to all."),
			mcp.Enum("all", "pending", "completed"),
		),
		mcp.WithString("priority",
			mcp.Description("Only list todos with this priority. "+levelDescription),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(listTodosTool, common.InstrumentedToolHandlerWithService("list_todos", calsync.KindTodo, "list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListTodos(ctx, request, sc)
		}))

	completeTodoTool := mcp.NewTool("complete_todo",
		mcp.WithDescription("Mark a todo as completed"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The id of the todo"),
		),
	)
	s.AddTool(completeTodoTool, common.InstrumentedToolHandlerWithService("complete_todo", calsync.KindTodo, "complete", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCompleteTodo(ctx, request, sc)
		}))

	updateTodoTool := mcp.NewTool("update_todo",
		mcp.WithDescription("Change an existing todo. Only the given fields are changed."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The id of the todo"),
		),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("priority", mcp.Description("New priority. "+levelDescription)),
		mcp.WithString("due_date", mcp.Description("New due date, e.g. '2025-06-03 17:00' or 'friday 9am'")),
		mcp.WithBoolean("completed", mcp.Description("Whether the todo is completed")),
	)
	s.AddTool(updateTodoTool, common.InstrumentedToolHandlerWithService("update_todo", calsync.KindTodo, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateTodo(ctx, request, sc)
		}))

	deleteTodoTool := mcp.NewTool("delete_todo",
		mcp.WithDescription("Delete a todo and remove it from the calendar"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The id of the todo"),
		),
		mcp.WithDestructiveHintAnnotation(true),
	)
	s.AddTool(deleteTodoTool, common.InstrumentedToolHandlerWithService("delete_todo", calsync.KindTodo, instrumentation.OperationDelete, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteTodo(ctx, request, sc)
		}))

	completeTodosTool := mcp.NewTool("complete_todos",
		mcp.WithDescription("Mark several todos as completed at once"),
		mcp.WithArray("ids",
			mcp.Required(),
			mcp.Description("Todo ids, as an array or a comma separated string"),
			mcp.WithStringItems(),
		),
	)
	s.AddTool(completeTodosTool, common.InstrumentedToolHandlerWithService("complete_todos", calsync.KindTodo, "complete", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleBatchTodos(ctx, request, "completed", sc.Service().CompleteTodo)
		}))

	deleteTodosTool := mcp.NewTool("delete_todos",
		mcp.WithDescription("Delete several todos at once"),
		mcp.WithArray("ids",
			mcp.Required(),
			mcp.Description("Todo ids, as an array or a comma separated string"),
			mcp.WithStringItems(),
		),
		mcp.WithDestructiveHintAnnotation(true),
	)
	s.AddTool(deleteTodosTool, common.InstrumentedToolHandlerWithService("delete_todos", calsync.KindTodo, instrumentation.OperationDelete, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleBatchTodos(ctx, request, "deleted", sc.Service().DeleteTodo)
		}))

	return nil
}

func handleCreateTodo(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	svc := sc.Service()

	title := strings.TrimSpace(request.GetString("title", ""))
	if title == "" {
		return mcp.NewToolResultError("title is required"), nil
	}

	priority, err := store.ParseLevel(request.GetString("priority", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	dueDate, err := common.OptionalDate(args, "due_date", svc.Now())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := svc.CreateTodo(ctx, &store.Todo{
		Title:       title,
		Description: request.GetString("description", ""),
		Priority:    priority,
		DueDate:     dueDate,
	})
	if err != nil {
		return toolError("todo", "create the todo", err), nil
	}

	text := "Created todo " + describeTodo(res.Todo) + "." + syncSentence(res.Sync, "It was added to your calendar.")
	return mcp.NewToolResultText(text), nil
}

func handleListTodos(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	status := store.TodoStatus(strings.ToLower(strings.TrimSpace(request.GetString("status", "all"))))

	filter := store.TodoFilter{Status: status}
	if p := strings.TrimSpace(request.GetString("priority", "")); p != "" {
		level, err := store.ParseLevel(p)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		filter.Priority = level
	}

	todos, err := sc.Service().ListTodos(ctx, filter)
	if err != nil {
		return toolError("todo", "list todos", err), nil
	}

	label := "todos"
	if status == store.TodoStatusPending || status == store.TodoStatusCompleted {
		label = string(status) + " todos"
	}
	if len(todos) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("You have no %s.", label)), nil
	}
	header := fmt.Sprintf("You have %s:", plural(len(todos), strings.TrimSuffix(label, "s"), label))
	return mcp.NewToolResultText(numbered(header, todos, describeTodo)), nil
}

func handleCompleteTodo(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil || strings.TrimSpace(id) == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	res, err := sc.Service().CompleteTodo(ctx, strings.TrimSpace(id))
	if err != nil {
		return toolError("todo", "complete the todo", err), nil
	}

	text := "Marked " + describeTodo(res.Todo) + " as completed." + syncSentence(res.Sync, "Your calendar was updated.")
	return mcp.NewToolResultText(text), nil
}

func handleUpdateTodo(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	svc := sc.Service()

	id, err := request.RequireString("id")
	if err != nil || strings.TrimSpace(id) == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	update := service.TodoUpdate{
		Title:       common.OptionalString(args, "title"),
		Description: common.OptionalString(args, "description"),
	}
	if p := common.OptionalString(args, "priority"); p != nil {
		level, err := store.ParseLevel(*p)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		update.Priority = &level
	}
	if update.DueDate, err = common.OptionalDate(args, "due_date", svc.Now()); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if update.Completed, err = common.OptionalBool(args, "completed"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if update.Empty() {
		return mcp.NewToolResultError("nothing to update, give at least one of: title, description, priority, due_date, completed"), nil
	}

	res, err := svc.UpdateTodo(ctx, strings.TrimSpace(id), update)
	if err != nil {
		return toolError("todo", "update the todo", err), nil
	}

	text := "Updated todo " + describeTodo(res.Todo) + "." + syncSentence(res.Sync, "Your calendar was updated.")
	return mcp.NewToolResultText(text), nil
}

func handleDeleteTodo(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil || strings.TrimSpace(id) == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	res, err := sc.Service().DeleteTodo(ctx, strings.TrimSpace(id))
	if err != nil {
		return toolError("todo", "delete the todo", err), nil
	}

	text := fmt.Sprintf("Deleted todo %q.", res.Todo.Title) + syncSentence(res.Sync, "It was removed from your calendar.")
	return mcp.NewToolResultText(text), nil
}

func handleBatchTodos(ctx context.Context, request mcp.CallToolRequest, verb string, op func(context.Context, string) (*service.TodoResult, error)) (*mcp.CallToolResult, error) {
	ids, err := batch.ParseStringOrArray(request.GetArguments()["ids"], "ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := batch.ProcessBatch(ctx, ids, func(ctx context.Context, id string) (string, error) {
		res, err := op(ctx, id)
		if err != nil {
			return "", err
		}
		return res.Todo.Title, nil
	})

	summary := batch.Summarize(verb, "todos", results)
	if batch.Aggregate(results).Successful == 0 {
		return mcp.NewToolResultError(summary), nil
	}
	return mcp.NewToolResultText(summary), nil
}
