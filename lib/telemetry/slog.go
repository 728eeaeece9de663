package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog points the default slog logger at stderr. Debug mode drops
// the level filter so request dumps and scraper internals show up.
func InitSlog(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
