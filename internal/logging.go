package internal

import (
	"log/slog"
	"os"
	"strings"
)

// LoggerFromLevel builds the process logger from a level name.
// Unknown names fall back to INFO.
func LoggerFromLevel(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		l = slog.LevelDebug
	case "WARN":
		l = slog.LevelWarn
	case "ERROR":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}
