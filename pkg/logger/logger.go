// Package logger provides the logging interface shared by all wetmap
// components. Implementations may write to console, files, or nothing at all.
package logger

import (
	"fmt"
	"log"
)

// Logger is the leveled logging contract used across wetlib and the CLI.
type Logger interface {
	// Debug logs chatty diagnostics (e.g., "tile 12/512/308 cached").
	Debug(format string, args ...interface{})

	// Info logs an informational message (e.g., "sync pass started").
	Info(format string, args ...interface{})

	// Warning logs a recoverable problem (e.g., "tile fetch failed, skipping").
	Warning(format string, args ...interface{})

	// Error logs a failure (e.g., "cannot persist pending actions").
	Error(format string, args ...interface{})
}

// Standard wraps a stdlib *log.Logger for console or file output.
type Standard struct {
	logger  *log.Logger
	verbose bool
}

// NewStandard creates a logger that wraps the given *log.Logger.
// Debug output is suppressed unless verbose is set.
func NewStandard(l *log.Logger, verbose bool) *Standard {
	return &Standard{logger: l, verbose: verbose}
}

// Debug logs a diagnostic message with [DEBUG] prefix when verbose.
func (s *Standard) Debug(format string, args ...interface{}) {
	if !s.verbose {
		return
	}
	s.logger.Printf("[DEBUG] "+format, args...)
}

// Info logs an informational message with [INFO] prefix.
func (s *Standard) Info(format string, args ...interface{}) {
	s.logger.Printf("[INFO] "+format, args...)
}

// Warning logs a warning message with [WARNING] prefix.
func (s *Standard) Warning(format string, args ...interface{}) {
	s.logger.Printf("[WARNING] "+format, args...)
}

// Error logs an error message with [ERROR] prefix.
func (s *Standard) Error(format string, args ...interface{}) {
	s.logger.Printf("[ERROR] "+format, args...)
}

// Nop is a logger that discards all messages.
type Nop struct{}

// NewNop creates a logger that discards all messages.
func NewNop() *Nop {
	return &Nop{}
}

// Debug discards the message.
func (n *Nop) Debug(format string, args ...interface{}) {}

// Info discards the message.
func (n *Nop) Info(format string, args ...interface{}) {}

// Warning discards the message.
func (n *Nop) Warning(format string, args ...interface{}) {}

// Error discards the message.
func (n *Nop) Error(format string, args ...interface{}) {}

var (
	_ Logger = (*Standard)(nil)
	_ Logger = (*Nop)(nil)
)

// Mock records all log calls for verification in tests.
type Mock struct {
	DebugCalls   []string
	InfoCalls    []string
	WarningCalls []string
	ErrorCalls   []string
}

// NewMock creates a new Mock logger.
func NewMock() *Mock {
	return &Mock{}
}

// Debug records the formatted message.
func (m *Mock) Debug(format string, args ...interface{}) {
	m.DebugCalls = append(m.DebugCalls, fmt.Sprintf(format, args...))
}

// Info records the formatted message.
func (m *Mock) Info(format string, args ...interface{}) {
	m.InfoCalls = append(m.InfoCalls, fmt.Sprintf(format, args...))
}

// Warning records the formatted message.
func (m *Mock) Warning(format string, args ...interface{}) {
	m.WarningCalls = append(m.WarningCalls, fmt.Sprintf(format, args...))
}

// Error records the formatted message.
func (m *Mock) Error(format string, args ...interface{}) {
	m.ErrorCalls = append(m.ErrorCalls, fmt.Sprintf(format, args...))
}

var _ Logger = (*Mock)(nil)
