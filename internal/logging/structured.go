// Package logging provides structured JSON logging for agentchat components.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	base   = zerolog.New(os.Stderr).With().Timestamp().Logger()
	baseMu sync.RWMutex
)

// Setup points every component logger at w and sets the minimum level.
// The TUI passes a log file here because it owns the terminal.
func Setup(w io.Writer, level string) {
	baseMu.Lock()
	defer baseMu.Unlock()
	base = zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel converts a string level into zerolog.Level with a safe default.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger provides structured logging for one component.
type Logger struct {
	component string
	fields    map[string]interface{}
}

// New creates a new logger for a component
func New(component string) *Logger {
	return &Logger{component: component}
}

// With returns a copy that attaches key=value to every event.
func (l *Logger) With(key string, value interface{}) *Logger {
	fields := make(map[string]interface{}, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[key] = value
	return &Logger{component: l.component, fields: fields}
}

// Component returns the component name.
func (l *Logger) Component() string {
	return l.component
}

func (l *Logger) log(level zerolog.Level, event string, extra map[string]interface{}, err error) {
	baseMu.RLock()
	zl := base
	baseMu.RUnlock()

	e := zl.WithLevel(level)
	if e == nil {
		return
	}
	e = e.Str("component", l.component)
	if len(l.fields) > 0 {
		e = e.Fields(l.fields)
	}
	if len(extra) > 0 {
		e = e.Fields(extra)
	}
	if err != nil {
		e = e.Err(err)
	}
	e.Msg(event)
}

// Debug logs a debug event
func (l *Logger) Debug(event string, extra map[string]interface{}) {
	l.log(zerolog.DebugLevel, event, extra, nil)
}

// Info logs an info event
func (l *Logger) Info(event string, extra map[string]interface{}) {
	l.log(zerolog.InfoLevel, event, extra, nil)
}

// Warn logs a warning event
func (l *Logger) Warn(event string, extra map[string]interface{}, err error) {
	l.log(zerolog.WarnLevel, event, extra, err)
}

// Error logs an error event
func (l *Logger) Error(event string, extra map[string]interface{}, err error) {
	l.log(zerolog.ErrorLevel, event, extra, err)
}

// TimedEvent logs an event with its duration since start.
// A non-nil err raises the level to warn.
func (l *Logger) TimedEvent(event string, start time.Time, extra map[string]interface{}, err error) {
	fields := make(map[string]interface{}, len(extra)+1)
	for k, v := range extra {
		fields[k] = v
	}
	fields["duration_ms"] = time.Since(start).Milliseconds()

	level := zerolog.InfoLevel
	if err != nil {
		level = zerolog.WarnLevel
	}
	l.log(level, event, fields, err)
}
