package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "bazaar",
		Short: "Livestock marketplace with listing search and AI video capture",
		Long: `Bazaar serves a livestock marketplace: searchable cattle listings, seller
profiles and role dashboards, plus a capture workflow that scans ear tags,
records clips and generates promotional videos with Veo.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			setupLogging(verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().String("dataset", "", "Dataset file (.yaml, .jsonl or .parquet); defaults to BAZAAR_DATASET or the bundled seed")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newListingsCmd())
	cmd.AddCommand(newSellerCmd())
	cmd.AddCommand(newDashboardCmd())
	cmd.AddCommand(newCaptureCmd())
	cmd.AddCommand(newGenerateCmd())

	return cmd
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
