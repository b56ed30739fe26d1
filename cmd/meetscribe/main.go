// meetscribe - joins meetings, streams live transcription, and produces
// periodic AI summaries.
package main

import (
	"log/slog"
	"os"

	"github.com/meetscribe/meetscribe/internal/cli"
	"github.com/meetscribe/meetscribe/internal/config"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	deps := &cli.Dependencies{
		Config: config.Load(),
	}

	if err := cli.NewRootCmd(deps).Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
