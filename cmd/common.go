package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pakmandi/bazaar/internal/capture"
	"github.com/pakmandi/bazaar/internal/catalog"
	"github.com/pakmandi/bazaar/internal/dataset"
	"github.com/pakmandi/bazaar/internal/scripting"
	"github.com/spf13/cobra"
)

// loadCatalog builds the catalog from --dataset, BAZAAR_DATASET or the bundled seed
func loadCatalog(cmd *cobra.Command) (*catalog.Catalog, error) {
	path, _ := cmd.Flags().GetString("dataset")
	if path == "" {
		path = os.Getenv("BAZAAR_DATASET")
	}

	var (
		ds  *dataset.Dataset
		err error
	)
	if path == "" {
		ds, err = dataset.Seed()
	} else {
		ds, err = dataset.NewLoader(path).Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	slog.Debug("Dataset loaded", "path", path, "listings", len(ds.Listings), "users", len(ds.Users))
	return catalog.New(ds), nil
}

// pollInterval reads CAPTURE_POLL_INTERVAL, falling back to the capture default
func pollInterval() time.Duration {
	raw := os.Getenv("CAPTURE_POLL_INTERVAL")
	if raw == "" {
		return capture.DefaultPollInterval
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		slog.Warn("Ignoring invalid CAPTURE_POLL_INTERVAL", "value", raw)
		return capture.DefaultPollInterval
	}
	return d
}

// scriptWriter returns a prompt scripting service when a provider is configured
func scriptWriter(provider, model string) (capture.ScriptWriter, error) {
	if provider == "" {
		provider = os.Getenv("SCRIPT_PROVIDER")
	}
	if provider == "" || provider == "none" {
		return nil, nil
	}
	svc, err := scripting.NewService(provider, model)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func veoModel(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv("VEO_MODEL")
}
