// Package common provides shared helpers for Luna's MCP tools: the
// instrumentation wrapper every handler runs behind, argument parsing, and
// date parsing for spoken or typed dates.
package common
