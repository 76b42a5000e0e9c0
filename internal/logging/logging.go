// Package logging builds the process logger: human-readable text on stderr
// fanned out with JSON lines to an optional log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	slogmulti "github.com/samber/slog-multi"
)

// Options configures New.
type Options struct {
	Level   string
	File    string
	Command string
	Stderr  io.Writer
}

// Logger is a configured slog.Logger together with the file it writes to.
type Logger struct {
	*slog.Logger
	RunID string
	file  *os.File
}

// New creates the logger. Every record carries the run ID and command.
func New(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	runID := uuid.NewString()
	attrs := []slog.Attr{
		slog.String("run_id", runID),
		slog.String("command", opts.Command),
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}),
	}

	var file *os.File
	if opts.File != "" {
		file, err = os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		var jsonHandler slog.Handler = slog.NewJSONHandler(file, &slog.HandlerOptions{
			AddSource: true,
			Level:     slog.LevelDebug,
		})
		jsonHandler = jsonHandler.WithAttrs(attrs)
		handlers = append(handlers, jsonHandler)
	}

	return &Logger{
		Logger: slog.New(slogmulti.Fanout(handlers...)),
		RunID:  runID,
		file:   file,
	}, nil
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ParseLevel maps a level name to a slog level. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
