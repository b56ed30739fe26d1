package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meetscribe/meetscribe/internal/audio"
	"github.com/meetscribe/meetscribe/internal/session"
	"github.com/meetscribe/meetscribe/internal/trace"
	"github.com/meetscribe/meetscribe/internal/transcribe"
)

func NewRecordCmd(deps *Dependencies) *cobra.Command {
	var (
		meetingURL string
		password   string
		deviceID   int
		format     string
		outPath    string
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Join a meeting and record until interrupted",
		Long:  "Join the meeting, stream audio for live transcription with periodic summaries, and export the session record on Ctrl+C.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _ := trace.EnsureContext(cmd.Context())
			log := trace.Logger(ctx)

			orch, err := newOrchestrator(deps.Config)
			if err != nil {
				return err
			}
			defer func() {
				if err := orch.Cleanup(context.WithoutCancel(ctx)); err != nil {
					log.Error("cleanup failed", "error", err)
				}
			}()

			if !quiet {
				orch.OnTranscript(func(ev transcribe.Event) {
					if ev.IsFinal {
						fmt.Fprintln(cmd.OutOrStdout(), ev.Text)
					}
				})
				orch.OnStatus(func(s session.Status) {
					fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", s.State, s.Details)
				})
			}

			if err := orch.Initialize(ctx); err != nil {
				return err
			}
			if err := orch.Start(ctx, meetingURL, password, deviceID); err != nil {
				return err
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			select {
			case <-sigCh:
				log.Info("interrupt received, stopping session")
			case <-ctx.Done():
			}

			stopCtx := context.WithoutCancel(ctx)
			if err := orch.Stop(stopCtx); err != nil {
				log.Error("stop reported errors", "error", err)
			}

			out, err := orch.Export(format)
			if err != nil {
				return err
			}
			if outPath == "" {
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			}
			if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			log.Info("session exported", "path", outPath, "format", format)
			return nil
		},
	}

	cmd.Flags().StringVarP(&meetingURL, "url", "u", "", "Meeting URL to join")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Meeting password, if any")
	cmd.Flags().IntVarP(&deviceID, "device", "d", audio.DefaultDevice, "Audio input device ID (see 'meetscribe devices')")
	cmd.Flags().StringVarP(&format, "format", "f", session.FormatStructured, "Export format: json, markdown, or text")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Write the export to a file instead of stdout")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress live transcript and status output")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}
