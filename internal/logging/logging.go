package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// New builds a JSON-lines logger. Records carry "ts" (RFC3339Nano in loc) and a lower-case "level".
func New(w io.Writer, loc *time.Location, level slog.Level) *slog.Logger {
	if loc == nil {
		loc = time.UTC
	}
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				return slog.String("ts", a.Value.Time().In(loc).Format(time.RFC3339Nano))
			case slog.LevelKey:
				if lvl, ok := a.Value.Any().(slog.Level); ok {
					return slog.String(slog.LevelKey, strings.ToLower(lvl.String()))
				}
			}
			return a
		},
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Init creates the process logger on stdout and installs it as the slog default.
func Init(loc *time.Location, level slog.Level) *slog.Logger {
	logger := New(os.Stdout, loc, level)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel converts a string ("debug", "info", "warn", "error") to slog.Level.
// Unknown strings default to LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
