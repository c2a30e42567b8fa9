// Package obslog implements corekit.Logger with the same layered
// observability approach the teacher framework uses for its
// TelemetryLogger: console output that always works, JSON in CI/Kubernetes,
// text for local development, and rate-limited error logging.
package obslog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/itsneelabh/ralph/internal/corekit"
)

// Logger is a leveled, structured logger. Safe for concurrent use.
type Logger struct {
	level       string
	debug       bool
	component   string
	format      string
	output      io.Writer
	mu          sync.RWMutex
	errLimiter  *RateLimiter
}

var levelOrder = map[string]int{"DEBUG": 0, "INFO": 1, "WARN": 2, "ERROR": 3}

// New creates a logger for the named component.
//
// Configuration priority: explicit env vars, then Kubernetes/CI
// auto-detection, then defaults (INFO level, text format).
func New(component string) *Logger {
	level := strings.ToUpper(os.Getenv("RALPH_LOG_LEVEL"))
	if level == "" {
		level = "INFO"
	}

	format := "text"
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" || os.Getenv("CI") != "" {
		format = "json"
	}
	if envFormat := os.Getenv("RALPH_LOG_FORMAT"); envFormat != "" {
		format = envFormat
	}

	return &Logger{
		level:      level,
		debug:      level == "DEBUG",
		component:  component,
		format:     format,
		output:     os.Stdout,
		errLimiter: NewRateLimiter(time.Second),
	}
}

// WithComponent returns a new logger scoped to a different component,
// sharing the same level/format configuration.
func (l *Logger) WithComponent(component string) corekit.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &Logger{
		level:      l.level,
		debug:      l.debug,
		component:  component,
		format:     l.format,
		output:     l.output,
		errLimiter: NewRateLimiter(time.Second),
	}
}

func (l *Logger) Info(msg string, fields map[string]interface{})  { l.log("INFO", msg, fields) }
func (l *Logger) Warn(msg string, fields map[string]interface{})  { l.log("WARN", msg, fields) }

func (l *Logger) Error(msg string, fields map[string]interface{}) {
	if l.errLimiter != nil && !l.errLimiter.Allow() {
		return
	}
	l.log("ERROR", msg, fields)
}

func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	if !l.debug {
		return
	}
	l.log("DEBUG", msg, fields)
}

func (l *Logger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.Info(msg, fields)
}
func (l *Logger) ErrorWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.Error(msg, fields)
}
func (l *Logger) WarnWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.Warn(msg, fields)
}
func (l *Logger) DebugWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.Debug(msg, fields)
}

func (l *Logger) log(level, msg string, fields map[string]interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.shouldLog(level) {
		return
	}

	ts := time.Now().Format(time.RFC3339)
	if l.format == "json" {
		l.logJSON(ts, level, msg, fields)
	} else {
		l.logText(ts, level, msg, fields)
	}
}

func (l *Logger) logJSON(ts, level, msg string, fields map[string]interface{}) {
	entry := map[string]interface{}{
		"timestamp": ts,
		"level":     level,
		"component": l.component,
		"message":   msg,
	}
	for k, v := range fields {
		if k != "timestamp" && k != "level" && k != "component" && k != "message" {
			entry[k] = v
		}
	}
	if data, err := json.Marshal(entry); err == nil {
		fmt.Fprintln(l.output, string(data))
	}
}

func (l *Logger) logText(ts, level, msg string, fields map[string]interface{}) {
	var b strings.Builder
	if len(fields) > 0 {
		b.WriteString(" ")
		if err, ok := fields["error"]; ok {
			b.WriteString(fmt.Sprintf("error=%q ", fmt.Sprint(err)))
		}
		for k, v := range fields {
			if k == "error" {
				continue
			}
			b.WriteString(fmt.Sprintf("%s=%v ", k, v))
		}
	}
	fmt.Fprintf(l.output, "%s [%s] [%s] %s%s\n", ts, level, l.component, msg, b.String())
}

func (l *Logger) shouldLog(level string) bool {
	cur, ok1 := levelOrder[l.level]
	msg, ok2 := levelOrder[level]
	if !ok1 || !ok2 {
		return true
	}
	return msg >= cur
}

// SetOutput redirects log output, primarily for tests.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

var _ corekit.ComponentAwareLogger = (*Logger)(nil)
