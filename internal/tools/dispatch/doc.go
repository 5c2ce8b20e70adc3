// Package dispatch exposes the tools registered on an MCP server to an
// in-process caller such as the voice agent. The agent and the /mcp endpoint
// run the same handlers with the same instrumentation.
package dispatch
