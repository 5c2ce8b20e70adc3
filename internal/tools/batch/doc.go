// Package batch provides helpers for tools that act on several records at
// once, such as complete_todos and delete_todos.
//
// This package includes helpers for:
//   - Parsing id parameters given as an array, a JSON array string, or a comma separated list
//   - Running an operation per id while tolerating partial failures
//   - Summarizing the outcome in a sentence the agent can read aloud
package batch
