package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup installs the boot logger, JSON to stdout at LOG_LEVEL (default info).
// main swaps in the full pipeline (stdout plus the Postgres batch writer)
// once the database connection is up.
func Setup() {
	slog.SetDefault(slog.New(StdoutHandler()))
}

// StdoutHandler is the stdout JSON sink, shared between the boot logger and
// the fan-out pipeline.
func StdoutHandler() slog.Handler {
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: levelFromEnv()})
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
