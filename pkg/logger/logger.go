// Package logger provides component-scoped leveled logging for vectocart.
//
// Call sites pass a short component name ("coordinator", "notify", ...) and
// an optional field map; output formatting and level filtering are delegated
// to charmbracelet/log.
package logger

import (
	"os"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var (
	mu  sync.RWMutex
	std = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		Level:           charmlog.InfoLevel,
		ReportTimestamp: true,
	})
)

// SetLevel sets the global log level.
func SetLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()
	std.SetLevel(charmLevel(level))
}

// SetOutput redirects log output, primarily for tests.
func SetOutput(w *os.File) {
	mu.Lock()
	defer mu.Unlock()
	std.SetOutput(w)
}

func charmLevel(level Level) charmlog.Level {
	switch level {
	case DEBUG:
		return charmlog.DebugLevel
	case WARN:
		return charmlog.WarnLevel
	case ERROR:
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

func logWith(fn func(msg any, kv ...any), component, msg string, fields map[string]any) {
	kv := make([]any, 0, 2+2*len(fields))
	kv = append(kv, "component", component)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	fn(msg, kv...)
}

func DebugC(component, msg string)  { logWith(std.Debug, component, msg, nil) }
func InfoC(component, msg string)   { logWith(std.Info, component, msg, nil) }
func WarnC(component, msg string)   { logWith(std.Warn, component, msg, nil) }
func ErrorC(component, msg string)  { logWith(std.Error, component, msg, nil) }

func DebugCF(component, msg string, fields map[string]any) { logWith(std.Debug, component, msg, fields) }
func InfoCF(component, msg string, fields map[string]any)  { logWith(std.Info, component, msg, fields) }
func WarnCF(component, msg string, fields map[string]any)  { logWith(std.Warn, component, msg, fields) }
func ErrorCF(component, msg string, fields map[string]any) { logWith(std.Error, component, msg, fields) }
