// Package cmd implements the command-line interface for luna.
//
// This package provides the following commands:
//   - serve: Start the HTTP server (Twilio voice, agent API, MCP) or the stdio MCP server
//   - chat: Talk to the agent interactively in the terminal
//   - migrate: Apply or list database schema migrations
//   - resync: Push todos, reminders and events that never reached Google Calendar
//   - auth: Authorize Google Calendar access
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
package cmd
