package instrumentation

import "strings"

// Cardinality management helpers for metrics.
// These functions reduce high-cardinality label values to prevent metrics explosion.

// knownPaths are the HTTP routes Luna serves. Anything else is reported as
// "other" so that scanners probing random URLs cannot create new series.
var knownPaths = map[string]bool{
	"/":                     true,
	"/run_agent":            true,
	"/twilio/call":          true,
	"/twilio/process_audio": true,
	"/media-stream":         true,
	"/mcp":                  true,
	"/healthz":              true,
	"/readyz":               true,
	"/healthz/detailed":     true,
	"/metrics":              true,
}

// NormalizeHTTPPath maps a request path to a bounded label value.
//
// Example:
//
//	NormalizeHTTPPath("/run_agent")    // "/run_agent"
//	NormalizeHTTPPath("/run_agent/")   // "/run_agent"
//	NormalizeHTTPPath("/wp-login.php") // "other"
func NormalizeHTTPPath(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	if knownPaths[path] {
		return path
	}
	return "other"
}

// Common operation types for calendar sync and voice metrics.
const (
	OperationCreate     = "create"
	OperationUpdate     = "update"
	OperationDelete     = "delete"
	OperationGet        = "get"
	OperationTranscribe = "transcribe"
	OperationSynthesize = "synthesize"
)
