// Package logging configures the diagnostic logger shared by httper's
// packages. Diagnostics go to stderr so they never mix with response output.
package logging

import (
	"fmt"
	"io"
	"log/slog"
)

// New returns a text logger writing to w. Verbose lowers the level from Warn
// to Debug.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WarnFunc adapts logger to printf-style warning callbacks.
func WarnFunc(logger *slog.Logger) func(format string, args ...any) {
	return func(format string, args ...any) {
		logger.Warn(fmt.Sprintf(format, args...))
	}
}
