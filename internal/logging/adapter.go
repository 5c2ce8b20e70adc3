package logging

import (
	"fmt"
	"log/slog"
)

// Logger is the canonical interface for structured logging throughout the application.
// It provides a simple, level-based logging API compatible with slog.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// SlogAdapter adapts an slog.Logger to the Logger interface.
// It also implements the printf-style logger expected by badger
// (Errorf, Warningf, Infof, Debugf).
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter wrapping the given slog.Logger.
// If logger is nil, slog.Default() is used.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

// Debug logs a debug message with key-value pairs.
func (a *SlogAdapter) Debug(msg string, args ...interface{}) {
	a.logger.Debug(msg, args...)
}

// Info logs an info message with key-value pairs.
func (a *SlogAdapter) Info(msg string, args ...interface{}) {
	a.logger.Info(msg, args...)
}

// Warn logs a warning message with key-value pairs.
func (a *SlogAdapter) Warn(msg string, args ...interface{}) {
	a.logger.Warn(msg, args...)
}

// Error logs an error message with key-value pairs.
func (a *SlogAdapter) Error(msg string, args ...interface{}) {
	a.logger.Error(msg, args...)
}

// Errorf logs a formatted error message.
func (a *SlogAdapter) Errorf(format string, args ...interface{}) {
	a.logger.Error(trimNewline(fmt.Sprintf(format, args...)))
}

// Warningf logs a formatted warning message.
func (a *SlogAdapter) Warningf(format string, args ...interface{}) {
	a.logger.Warn(trimNewline(fmt.Sprintf(format, args...)))
}

// Infof logs a formatted info message.
func (a *SlogAdapter) Infof(format string, args ...interface{}) {
	a.logger.Info(trimNewline(fmt.Sprintf(format, args...)))
}

// Debugf logs a formatted debug message.
func (a *SlogAdapter) Debugf(format string, args ...interface{}) {
	a.logger.Debug(trimNewline(fmt.Sprintf(format, args...)))
}

// Logger returns the underlying slog.Logger for direct access when needed.
func (a *SlogAdapter) Logger() *slog.Logger {
	return a.logger
}

// DefaultLogger returns a Logger using the default slog.Logger.
func DefaultLogger() *SlogAdapter {
	return NewSlogAdapter(slog.Default())
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
