package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/pakmandi/bazaar/internal/capture"
	"github.com/pakmandi/bazaar/internal/credentials"
	"github.com/pakmandi/bazaar/internal/device"
	"github.com/pakmandi/bazaar/internal/handlers"
	"github.com/pakmandi/bazaar/internal/veo"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port           string
		ffmpegPath     string
		model          string
		scriptProvider string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the marketplace API server",
		Long: `Starts the Bazaar JSON API on the specified port.

The API exposes listing search, seller profiles, role dashboards and capture
sessions. Capture sessions use the local camera through ffmpeg and generate
videos with Veo when GEMINI_API_KEY is set or a key is PUT to /api/credential.`,
		Example: `  # Start server on default port 8888
  bazaar serve

  # Serve a custom dataset on port 3000
  bazaar serve --port 3000 --dataset listings.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog(cmd)
			if err != nil {
				return err
			}
			script, err := scriptWriter(scriptProvider, "")
			if err != nil {
				return err
			}

			cfg := capture.Config{
				Device:       device.New(),
				Recorder:     device.NewRecorder(ffmpegPath),
				Generators:   veo.Factory(veo.Config{Model: veoModel(model)}),
				Script:       script,
				PollInterval: pollInterval(),
			}
			handler := handlers.New(c, cfg, credentials.FromEnv("GEMINI_API_KEY"))
			defer handler.Shutdown()

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: handler.Routes(),
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Bazaar API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVar(&ffmpegPath, "ffmpeg", "ffmpeg", "Path to the ffmpeg binary used for recording")
	cmd.Flags().StringVar(&model, "model", "", "Veo model (default VEO_MODEL or "+veo.DefaultModel+")")
	cmd.Flags().StringVar(&scriptProvider, "script-provider", "", "Prompt scripting provider: ollama, openai, gemini or none (default SCRIPT_PROVIDER)")

	return cmd
}
