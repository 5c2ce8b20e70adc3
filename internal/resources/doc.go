// Package resources exposes read-only MCP resources over Luna's data:
// pending todos, reminders and the upcoming calendar events. MCP clients
// can read them as JSON context without calling a tool.
package resources
