package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Logg is the process-wide logger, initialized once in main.
var Logg *slog.Logger

func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := NewColorHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
