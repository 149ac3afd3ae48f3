package logging

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	debugStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// ConsoleLogger writes human-readable entries to a terminal stream
type ConsoleLogger struct {
	mu     *sync.Mutex
	w      io.Writer
	level  Level
	color  bool
	fields Fields
}

// NewConsoleLogger creates a logger writing entries at or above level to w.
// Level tags are coloured when color is set.
func NewConsoleLogger(w io.Writer, level Level, color bool) *ConsoleLogger {
	return &ConsoleLogger{mu: &sync.Mutex{}, w: w, level: level, color: color}
}

// Debug logs a debug message
func (l *ConsoleLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.log(DebugLevel, msg, nil, fields)
}

// Info logs an info message
func (l *ConsoleLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.log(InfoLevel, msg, nil, fields)
}

// Warn logs a warning message
func (l *ConsoleLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.log(WarnLevel, msg, nil, fields)
}

// Error logs an error message
func (l *ConsoleLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	l.log(ErrorLevel, msg, err, fields)
}

// WithFields returns a logger with additional fields
func (l *ConsoleLogger) WithFields(fields Fields) Logger {
	child := *l
	child.fields = mergeFields(l.fields, fields)
	return &child
}

// Close does nothing; the stream belongs to the caller
func (l *ConsoleLogger) Close() error {
	return nil
}

func (l *ConsoleLogger) log(level Level, msg string, err error, fields Fields) {
	if level < l.level {
		return
	}
	line := string(formatText(time.Now(), level, msg, err, mergeFields(l.fields, fields)))
	// drop the timestamp, the console shows entries as they happen
	if idx := strings.IndexByte(line, ' '); idx >= 0 {
		line = line[idx+1:]
	}
	if l.color {
		tag := "[" + level.String() + "]"
		switch level {
		case WarnLevel:
			line = strings.Replace(line, tag, warnStyle.Render(tag), 1)
		case ErrorLevel:
			line = strings.Replace(line, tag, errorStyle.Render(tag), 1)
		case DebugLevel:
			line = strings.Replace(line, tag, debugStyle.Render(tag), 1)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.w, line)
}
