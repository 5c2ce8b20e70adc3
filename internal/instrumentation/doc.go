// Package instrumentation provides OpenTelemetry instrumentation for Luna.
//
// Metrics:
//
// Server/HTTP:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//   - active_calls: Gauge of open Twilio media streams
//
// Calendar sync:
//   - calendar_sync_operations_total: Counter by kind, operation, and status
//   - calendar_sync_duration_seconds: Histogram of remote calendar call durations
//
// Tools and agent:
//   - mcp_tool_invocations_total: Counter of tool invocations by tool and status
//   - mcp_tool_duration_seconds: Histogram of tool execution durations
//   - agent_requests_total: Counter of prompts handled by agent and status
//   - agent_request_duration_seconds: Histogram of prompt handling durations
//
// Voice:
//   - voice_operations_total: Counter of transcriptions and syntheses by status
//   - voice_operation_duration_seconds: Histogram of voice operation durations
//
// Spans are created for tool invocations (tool.<name>), agent turns
// (agent.handle_prompt) and Google Calendar calls (google.calendar.<op>).
//
// ConfigFromEnv overrides DefaultConfig with:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: luna)
//   - LUNA_ENV: deployment.environment resource attribute
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_PII, AUDIT_LOGGING_LEVEL
//
// Example:
//
//	cfg, err := instrumentation.ConfigFromOSEnv()
//	if err != nil {
//		return err
//	}
//	provider, err := instrumentation.NewProvider(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordCalendarSync(ctx, "todo", "create", "success", time.Since(start))
package instrumentation
