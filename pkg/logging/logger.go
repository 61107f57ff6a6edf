package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config defines the configuration for structured logging.
type Config struct {
	Level  string // "DEBUG", "INFO", "WARN" or "ERROR"
	Format string // "json" or "text"
}

// ParseLevel maps a config string to a slog level, defaulting to INFO.
func ParseLevel(v string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO", "":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// InitLogger builds the process logger and installs it as the slog default.
func InitLogger(cfg Config) *slog.Logger {
	return initLogger(os.Stdout, cfg)
}

// InitLoggerTo is InitLogger writing to w; CLI commands log to stderr so
// their stdout stays parseable.
func InitLoggerTo(w io.Writer, cfg Config) *slog.Logger {
	return initLogger(w, cfg)
}

func initLogger(w io.Writer, cfg Config) *slog.Logger {
	level, ok := ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	if !ok {
		logger.Warn("invalid log level specified, defaulting to INFO", "specified_level", cfg.Level)
	}
	logger.Debug("logger initialized", "level", level.String(), "format", cfg.Format)
	return logger
}

// NewComponentLogger creates a component-specific logger with context.
// It adds the component name to all log messages for better traceability.
func NewComponentLogger(base *slog.Logger, component string) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	return base.With(
		slog.String("component", component),
	)
}

// Discard returns a logger that drops everything; handy for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
