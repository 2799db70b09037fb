// Package logger configures the process-wide slog logger. All components
// accept a *slog.Logger; this package only decides handler, level and
// output once, in main.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the log output encoding.
type Format string

const (
	// FormatJSON emits one JSON object per line, for log shippers.
	FormatJSON Format = "json"
	// FormatText emits human-readable key=value lines, for development.
	FormatText Format = "text"
)

// Options configures the logger.
type Options struct {
	// Level is the minimum level to emit ("debug", "info", "warn", "error").
	Level string

	// Format is the output encoding. Defaults to JSON.
	Format Format

	// Output is where log lines are written. Defaults to stdout.
	Output io.Writer

	// AddSource includes the file:line of the call site.
	AddSource bool
}

// New builds a *slog.Logger from the options and returns it.
func New(opts Options) *slog.Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     ParseLevel(opts.Level),
		AddSource: opts.AddSource,
	}

	var handler slog.Handler
	switch opts.Format {
	case FormatText:
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	default:
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	}

	return slog.New(handler)
}

// Setup builds a logger, installs it as the slog default and returns it.
func Setup(opts Options) *slog.Logger {
	log := New(opts)
	slog.SetDefault(log)
	return log
}

// ParseLevel parses a level string, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
