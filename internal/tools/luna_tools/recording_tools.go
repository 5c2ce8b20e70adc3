package luna_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/lgch/luna/internal/instrumentation"
	"github.com/lgch/luna/internal/server"
	"github.com/lgch/luna/internal/store"
	"github.com/lgch/luna/internal/tools/common"
)

const kindRecording = "recording"

// RegisterRecordingTools registers the call recording tools with the MCP server
func RegisterRecordingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	createRecordingTool := mcp.NewTool("create_call_recording",
		mcp.WithDescription("Store the metadata of a recorded phone call"),
		mcp.WithString("call_sid", mcp.Required(), mcp.Description("Twilio call SID")),
		mcp.WithString("recording_path", mcp.Required(), mcp.Description("Path of the saved audio file")),
		mcp.WithString("from_number", mcp.Description("Caller phone number")),
		mcp.WithString("to_number", mcp.Description("Called phone number")),
		mcp.WithNumber("duration_seconds", mcp.Description("Call length in seconds")),
		mcp.WithNumber("file_size_bytes", mcp.Description("Size of the audio file in bytes")),
		mcp.WithString("transcription", mcp.Description("Transcript of the call")),
		mcp.WithString("status",
			mcp.Description("Recording status. Defaults to completed."),
			mcp.Enum(string(store.RecordingCompleted), string(store.RecordingFailed), string(store.RecordingProcessing)),
		),
	)
	s.AddTool(createRecordingTool, common.InstrumentedToolHandlerWithService("create_call_recording", kindRecording, instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateRecording(ctx, request, sc)
		}))

	listRecordingsTool := mcp.NewTool("list_call_recordings",
		mcp.WithDescription("List recorded phone calls, newest first"),
		mcp.WithNumber("limit", mcp.Description("Maximum number of recordings to return")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(listRecordingsTool, common.InstrumentedToolHandlerWithService("list_call_recordings", kindRecording, "list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListRecordings(ctx, request, sc)
		}))

	getRecordingTool := mcp.NewTool("get_call_recording",
		mcp.WithDescription("Show the details and transcript of a recorded call"),
		mcp.WithString("call_sid", mcp.Required(), mcp.Description("Twilio call SID")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(getRecordingTool, common.InstrumentedToolHandlerWithService("get_call_recording", kindRecording, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetRecording(ctx, request, sc)
		}))

	updateRecordingTool := mcp.NewTool("update_call_recording",
		mcp.WithDescription("Update a call recording. Only the given fields are changed."),
		mcp.WithString("call_sid", mcp.Required(), mcp.Description("Twilio call SID")),
		mcp.WithString("recording_path", mcp.Description("New audio file path")),
		mcp.WithNumber("duration_seconds", mcp.Description("Call length in seconds")),
		mcp.WithNumber("file_size_bytes", mcp.Description("Size of the audio file in bytes")),
		mcp.WithString("transcription", mcp.Description("Transcript of the call")),
		mcp.WithString("status",
			mcp.Description("Recording status"),
			mcp.Enum(string(store.RecordingCompleted), string(store.RecordingFailed), string(store.RecordingProcessing)),
		),
	)
	s.AddTool(updateRecordingTool, common.InstrumentedToolHandlerWithService("update_call_recording", kindRecording, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateRecording(ctx, request, sc)
		}))

	deleteRecordingTool := mcp.NewTool("delete_call_recording",
		mcp.WithDescription("Delete a call recording and its audio file"),
		mcp.WithString("call_sid", mcp.Required(), mcp.Description("Twilio call SID")),
		mcp.WithDestructiveHintAnnotation(true),
	)
	s.AddTool(deleteRecordingTool, common.InstrumentedToolHandlerWithService("delete_call_recording", kindRecording, instrumentation.OperationDelete, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteRecording(ctx, request, sc)
		}))

	return nil
}

func requireCallSID(request mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	sid, err := request.RequireString("call_sid")
	if err != nil || strings.TrimSpace(sid) == "" {
		return "", mcp.NewToolResultError("call_sid is required")
	}
	return strings.TrimSpace(sid), nil
}

func handleCreateRecording(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	sid, errResult := requireCallSID(request)
	if errResult != nil {
		return errResult, nil
	}

	rec := &store.CallRecording{
		CallSID:       sid,
		RecordingPath: request.GetString("recording_path", ""),
		FromNumber:    request.GetString("from_number", ""),
		ToNumber:      request.GetString("to_number", ""),
		Transcription: request.GetString("transcription", ""),
		Status:        store.RecordingStatus(request.GetString("status", "")),
	}

	var err error
	if rec.DurationSeconds, err = common.OptionalInt64(args, "duration_seconds"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if rec.FileSizeBytes, err = common.OptionalInt64(args, "file_size_bytes"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, err := sc.Service().CreateCallRecording(ctx, rec); err != nil {
		return toolError("recording", "save the recording", err), nil
	}
	return mcp.NewToolResultText("Saved recording of " + describeRecording(rec) + "."), nil
}

func handleListRecordings(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 0)

	recs, err := sc.Service().ListCallRecordings(ctx, limit)
	if err != nil {
		return toolError("recording", "list recordings", err), nil
	}
	if len(recs) == 0 {
		return mcp.NewToolResultText("There are no call recordings."), nil
	}
	header := fmt.Sprintf("There are %s:", plural(len(recs), "call recording", "call recordings"))
	if len(recs) == 1 {
		header = "There is 1 call recording:"
	}
	return mcp.NewToolResultText(numbered(header, recs, describeRecording)), nil
}

func handleGetRecording(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	sid, errResult := requireCallSID(request)
	if errResult != nil {
		return errResult, nil
	}

	rec, err := sc.Service().GetCallRecording(ctx, sid)
	if err != nil {
		return toolError("recording", "get the recording", err), nil
	}

	text := "Recording of " + describeRecording(rec) + "."
	if rec.Transcription != "" {
		text += "\nTranscript:\n" + rec.Transcription
	}
	return mcp.NewToolResultText(text), nil
}

func handleUpdateRecording(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	sid, errResult := requireCallSID(request)
	if errResult != nil {
		return errResult, nil
	}

	update := store.RecordingUpdate{
		RecordingPath: common.OptionalString(args, "recording_path"),
		Transcription: common.OptionalString(args, "transcription"),
	}
	if s := common.OptionalString(args, "status"); s != nil {
		status := store.RecordingStatus(strings.ToLower(strings.TrimSpace(*s)))
		update.Status = &status
	}

	var err error
	if update.DurationSeconds, err = common.OptionalInt64(args, "duration_seconds"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if update.FileSizeBytes, err = common.OptionalInt64(args, "file_size_bytes"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, err := sc.Service().UpdateCallRecording(ctx, sid, update)
	if err != nil {
		return toolError("recording", "update the recording", err), nil
	}
	return mcp.NewToolResultText("Updated recording of " + describeRecording(rec) + "."), nil
}

func handleDeleteRecording(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	sid, errResult := requireCallSID(request)
	if errResult != nil {
		return errResult, nil
	}

	if _, err := sc.Service().DeleteCallRecording(ctx, sid); err != nil {
		return toolError("recording", "delete the recording", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted the recording of call %s.", sid)), nil
}
