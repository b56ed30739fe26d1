// Package cli wires the session components into cobra commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/meetscribe/meetscribe/internal/audio"
	"github.com/meetscribe/meetscribe/internal/config"
	"github.com/meetscribe/meetscribe/internal/joiner"
	"github.com/meetscribe/meetscribe/internal/session"
	"github.com/meetscribe/meetscribe/internal/summary"
	"github.com/meetscribe/meetscribe/internal/transcribe"
	"github.com/meetscribe/meetscribe/internal/version"
)

// captureBuffer bounds unconsumed audio frames before capture drops them.
const captureBuffer = 32

type Dependencies struct {
	Config *config.Config
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "meetscribe",
		Short: "Join meetings, transcribe them live, and summarize with AI",
		Long:  "meetscribe joins a Google Meet call through a browser, streams meeting audio to a speech-to-text provider, generates periodic AI summaries, and exports the full record.",
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	rootCmd.AddCommand(NewRecordCmd(deps))
	rootCmd.AddCommand(NewServeCmd(deps))
	rootCmd.AddCommand(NewDevicesCmd(deps))

	return rootCmd
}

// newOrchestrator builds a session from the configured providers. Provider
// selection errors surface later, during Initialize.
func newOrchestrator(cfg *config.Config) (*session.Orchestrator, error) {
	provider, err := summary.NewProvider(cfg)
	if err != nil {
		return nil, err
	}

	return session.New(session.Options{
		Config: cfg,
		Joiner: joiner.New(cfg),
		Source: audio.NewCapture(cfg.SampleRate, cfg.Channels, captureBuffer),
		NewTranscriber: func(h transcribe.Handler) (session.Transcriber, error) {
			return transcribe.New(cfg, h)
		},
		Summarizer: summary.NewGenerator(provider),
	}), nil
}
