package common

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/lgch/luna/internal/instrumentation"
	"github.com/lgch/luna/internal/server"
)

// InstrumentedToolHandler wraps a tool handler with metrics and audit logging.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(
	toolName string,
	sc *server.ServerContext,
	handler mcpserver.ToolHandlerFunc,
) mcpserver.ToolHandlerFunc {
	return InstrumentedToolHandlerWithService(toolName, "", "", sc, handler)
}

// InstrumentedToolHandlerWithService is like InstrumentedToolHandler but also
// records the record kind (todo, reminder, event, recording) and operation the
// tool performs.
//
// Each call runs inside a tool span, records mcp_tool_invocations_total and
// mcp_tool_duration_seconds, and writes one audit log line. A result with
// IsError set counts as a failed invocation.
func InstrumentedToolHandlerWithService(
	toolName string,
	kind string,
	operation string,
	sc *server.ServerContext,
	handler mcpserver.ToolHandlerFunc,
) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()
		caller := instrumentation.CallerFromContext(ctx)

		attrs := instrumentation.NewSpanAttributeBuilder().
			WithOperation(operation).
			WithThread(caller.ThreadID).
			WithRecord(kind, RecordIDFromArgs(request.GetArguments())).
			Build()
		ctx, span := instrumentation.StartToolSpan(ctx, toolName, attrs...)
		defer span.End()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx).
			WithCaller(caller).
			WithRecord(kind, operation)
		invocation.RecordID = RecordIDFromArgs(request.GetArguments())

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			invocation.CompleteWithError(err)
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			invocation.Complete(false, nil)
			invocation.Error = ResultText(result)
			instrumentation.SetSpanError(span, errors.New(invocation.Error))
		default:
			invocation.CompleteSuccess()
			instrumentation.SetSpanSuccess(span)
		}

		metrics.RecordToolInvocationWithTransport(ctx, toolName, status, caller.Transport, duration)
		auditLogger.LogToolInvocation(invocation)

		return result, err
	}
}

// ResultText concatenates the text content of a tool result.
func ResultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var text string
	for _, c := range result.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			if text != "" {
				text += "\n"
			}
			text += tc.Text
		}
	}
	return text
}
