package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"winter/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// File appends records to a log file. It takes precedence over Writer.
	File string
	// Writer receives records when no File is set; nil means stderr.
	Writer io.Writer
}

// New constructs a slog logger using the provided options. Debug loggers
// report the caller. The returned function closes the log file, if one was
// opened, and must be called once the logger is no longer used.
func New(opts Options) (*slog.Logger, func() error, error) {
	level := parseLevel(opts.Level)
	addSource := level <= slog.LevelDebug

	var newHandler func(io.Writer, slog.Leveler, bool) slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		newHandler = func(w io.Writer, l slog.Leveler, src bool) slog.Handler { return newConsoleHandler(w, l, src) }
	case "json":
		newHandler = newJSONHandler
	default:
		return nil, nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	w, closeFn, err := openOutput(opts)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(newHandler(w, level, addSource)), closeFn, nil
}

// NewFromConfig creates a logger from the [logging] section. Records go to
// the configured file, else to w, else to stderr; stdout is reserved for the
// forwarded command.
func NewFromConfig(cfg *config.Config, w io.Writer) (*slog.Logger, func() error, error) {
	if cfg == nil {
		return New(Options{Writer: w})
	}
	return New(Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
		Writer: w,
	})
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func noClose() error { return nil }

func openOutput(opts Options) (io.Writer, func() error, error) {
	path := strings.TrimSpace(opts.File)
	if path == "" {
		if opts.Writer != nil {
			return opts.Writer, noClose, nil
		}
		return os.Stderr, noClose, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return file, file.Close, nil
}
