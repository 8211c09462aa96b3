// Package main is the entry point for the playback synchronizer.
package main

import (
	"log/slog"
	"os"

	"github.com/stacklok/playback-sync/cmd/playback-sync/app"
)

func main() {
	// stdout is reserved for command output (version --format json, simulate reports)
	base := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: getLogLevel()})
	slog.SetDefault(slog.New(&traceHandler{Handler: base}))

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
