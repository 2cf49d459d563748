// Package log provides the structured logging used throughout the
// forwarder and NFP routing protocol: a thin wrapper over log/slog that
// takes a "module" (anything naming itself) plus key-value pairs, the
// same call shape used across this codebase's tables and protocol
// threads.
package log

import (
	"context"
	"log/slog"
	"os"
)

// Module is anything that can identify itself in a log line: tables,
// the forwarder, NFP's neighbor/prefix/routing-protocol types.
type Module interface {
	String() string
}

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

// SetLevel adjusts the minimum level emitted (Info by default).
func SetLevel(level slog.Level) {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

func withModule(m Module, args []any) []any {
	return append([]any{"module", m.String()}, args...)
}

// Trace logs at trace (debug-minus) verbosity.
func Trace(m Module, msg string, args ...any) {
	logger.Log(context.Background(), slog.LevelDebug-4, msg, withModule(m, args)...)
}

// Debug logs at debug verbosity.
func Debug(m Module, msg string, args ...any) {
	logger.Debug(msg, withModule(m, args)...)
}

// Info logs at info verbosity.
func Info(m Module, msg string, args ...any) {
	logger.Info(msg, withModule(m, args)...)
}

// Warn logs at warn verbosity.
func Warn(m Module, msg string, args ...any) {
	logger.Warn(msg, withModule(m, args)...)
}

// Error logs at error verbosity.
func Error(m Module, msg string, args ...any) {
	logger.Error(msg, withModule(m, args)...)
}
