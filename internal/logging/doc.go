// Package logging provides structured logging utilities for Luna.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - PII masking for caller phone numbers
//   - Consistent attribute naming across the codebase
//   - Logger adapter interface for libraries that expect printf-style loggers
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "calendar.create")
//	logger.Info("event created",
//	    logging.Kind("todo"),
//	    logging.Status("success"))
//
// Mask caller identity before logging:
//
//	logger.Info("call started",
//	    logging.CallSID(sid),
//	    logging.Phone(from))
//
// # Security Considerations
//
//   - Phone numbers are masked, only the last four digits are kept
//   - API keys and auth tokens are never logged directly
package logging
