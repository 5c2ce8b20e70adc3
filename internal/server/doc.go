// Package server hosts the shared server context and the public HTTP
// surface of Luna.
//
// # Key Components
//
// ServerContext carries the operation layer, the optional Google OAuth
// helper, metrics and the audit logger to the MCP tools and transports.
//
// HTTPServer routes:
//   - POST /run_agent: {prompt, thread_id?} -> {result}
//   - POST /twilio/call and /twilio/process_audio: TwiML voice webhooks,
//     validated against X-Twilio-Signature when an auth token is set
//   - GET /media-stream: Twilio Media Streams WebSocket; caller turns are
//     transcribed, answered and the call audio is saved as a recording
//   - /mcp: the MCP streamable HTTP endpoint
//   - /healthz, /readyz, /healthz/detailed
//
// MetricsServer exposes Prometheus metrics on a dedicated port, and
// MetricsMiddleware counts every request on the public server.
//
// Every prompt runs under its own timeout and conversation thread
// (http-default or the thread_id field, twilio-<CallSid> for calls). Agent
// failures become 500 responses or a spoken apology; they never stop the
// server.
package server
