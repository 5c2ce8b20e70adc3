// Package luna_tools provides the MCP tools Luna's agent uses to manage
// todos, reminders, calendar events and call recordings.
//
// Results are short, human readable sentences because the agent reads them
// aloud. Validation and lookup failures are returned as tool errors so the
// agent can explain them; a failed calendar sync never makes a tool call
// fail and is mentioned in the result text instead.
package luna_tools
