package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/meetscribe/meetscribe/internal/server"
)

func NewServeCmd(deps *Dependencies) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard server",
		Long:  "Serve the REST and WebSocket dashboard. Meetings are started and stopped through the API; transcripts and summaries stream to connected clients.",
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := newOrchestrator(deps.Config)
			if err != nil {
				return err
			}

			srv := server.New(orch)
			httpServer := &http.Server{
				Addr:         addr,
				Handler:      srv.Handler(),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("dashboard server starting", "addr", addr)
				if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case err := <-errCh:
				return err
			case <-sigCh:
			case <-cmd.Context().Done():
			}

			slog.Info("shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("http shutdown error", "error", err)
			}
			if err := orch.Cleanup(shutdownCtx); err != nil {
				slog.Error("session cleanup error", "error", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", deps.Config.HTTPAddr, "Listen address")
	return cmd
}
