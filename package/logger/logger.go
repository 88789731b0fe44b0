package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
)

// LogLevel type
type LogLevel int32

// Log levels, from the most verbose to the least.
const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
)

// ParseLogLevel parses a string into a LogLevel
func ParseLogLevel(level string) LogLevel {
	switch level {
	case "debug", "Debug", "DEBUG":
		return DEBUG
	case "info", "Info", "INFO":
		return INFO
	case "warning", "Warning", "WARNING", "warn", "WARN":
		return WARNING
	case "error", "Error", "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// String returns the label printed in front of every message.
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case WARNING:
		return "WARNING"
	case ERROR:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Logger struct
type Logger struct {
	logger *log.Logger
	level  *atomic.Int32
	prefix string
}

// NewLogger creates a new logger instance writing to stdout
func NewLogger(level string) *Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(level string, w io.Writer) *Logger {
	lvl := &atomic.Int32{}
	lvl.Store(int32(ParseLogLevel(level)))
	return &Logger{
		logger: log.New(w, "", log.Ldate|log.Ltime),
		level:  lvl,
	}
}

// With returns a logger tagging every line with component. The level is
// shared with the parent, so SetLevel on either affects both.
func (l *Logger) With(component string) *Logger {
	prefix := component
	if l.prefix != "" {
		prefix = l.prefix + "." + component
	}
	return &Logger{
		logger: l.logger,
		level:  l.level,
		prefix: prefix,
	}
}

// SetLevel changes the minimum level that gets written.
func (l *Logger) SetLevel(level string) {
	l.level.Store(int32(ParseLogLevel(level)))
}

// Level returns the current minimum level.
func (l *Logger) Level() LogLevel {
	return LogLevel(l.level.Load())
}

func (l *Logger) write(level LogLevel, msg string) {
	if LogLevel(l.level.Load()) > level {
		return
	}
	if l.prefix != "" {
		msg = "[" + l.prefix + "] " + msg
	}
	l.logger.Println(level.String() + ": " + msg)
}

// Info logs an info message
func (l *Logger) Info(msg string) {
	l.write(INFO, msg)
}

// Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.write(WARNING, msg)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) {
	l.write(DEBUG, msg)
}

// Error logs an error message
func (l *Logger) Error(msg string) {
	l.write(ERROR, msg)
}

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...any) {
	l.write(INFO, fmt.Sprintf(format, args...))
}

// Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...any) {
	l.write(WARNING, fmt.Sprintf(format, args...))
}

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...any) {
	l.write(DEBUG, fmt.Sprintf(format, args...))
}

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...any) {
	l.write(ERROR, fmt.Sprintf(format, args...))
}
