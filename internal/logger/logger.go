package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/overdevelop/graft/internal/config"
)

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelPanic = slog.Level(12)
)

var defaultLogger *slog.Logger

func init() {
	defaultLogger = New(config.FromEnv())
}

// Default returns the logger configured from the process environment.
func Default() *slog.Logger {
	return defaultLogger
}

// New builds a logger writing to stdout.
func New(cfg config.Config) *slog.Logger {
	return NewWriter(os.Stdout, cfg)
}

// NewWriter builds a logger writing to w. Debug enables debug records and
// source locations; LogFormat "json" selects the JSON handler.
func NewWriter(w io.Writer, cfg config.Config) *slog.Logger {
	level := LevelInfo
	if cfg.Debug {
		level = LevelDebug
	}

	handlerOptions := &slog.HandlerOptions{
		AddSource:   cfg.Debug,
		Level:       level,
		ReplaceAttr: replaceLevel,
	}

	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOptions))
	}
	return slog.New(slog.NewTextHandler(w, handlerOptions))
}

func replaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}

	level, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}

	switch {
	case level < LevelInfo:
		a.Value = slog.StringValue("DEBUG")
	case level < LevelWarn:
		a.Value = slog.StringValue("INFO")
	case level < LevelError:
		a.Value = slog.StringValue("WARN")
	case level < LevelPanic:
		a.Value = slog.StringValue("ERROR")
	default:
		a.Value = slog.StringValue("PANIC")
	}

	return a
}
