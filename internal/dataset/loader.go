package dataset

import (
	"bufio"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pakmandi/bazaar/internal/models"
	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

// Seed returns the bundled demo marketplace
func Seed() (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(seedYAML, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse bundled seed: %w", err)
	}
	return &ds, nil
}

// Loader reads a marketplace dataset from disk
type Loader struct {
	datasetPath string
}

// NewLoader creates a new dataset loader
func NewLoader(datasetPath string) *Loader {
	return &Loader{
		datasetPath: datasetPath,
	}
}

// Load reads the dataset file. YAML files carry a whole dataset; JSONL and
// Parquet files carry listings only, and the remaining sections are taken
// from the bundled seed.
func (l *Loader) Load() (*Dataset, error) {
	ext := strings.ToLower(filepath.Ext(l.datasetPath))

	switch ext {
	case ".yaml", ".yml":
		return l.loadYAML()
	case ".jsonl", ".json":
		listings, err := l.loadJSONL()
		if err != nil {
			return nil, err
		}
		return withSeed(listings)
	case ".parquet":
		listings, err := l.loadParquet()
		if err != nil {
			return nil, err
		}
		return withSeed(listings)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .yaml, .jsonl, .parquet)", ext)
	}
}

func withSeed(listings []models.Listing) (*Dataset, error) {
	ds, err := Seed()
	if err != nil {
		return nil, err
	}
	ds.Listings = listings
	return ds, nil
}

func (l *Loader) loadYAML() (*Dataset, error) {
	data, err := os.ReadFile(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}

	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse YAML dataset: %w", err)
	}

	slog.Debug("Loaded YAML dataset", "path", l.datasetPath, "listings", len(ds.Listings), "users", len(ds.Users))
	return &ds, nil
}

// loadJSONL loads one listing per line
func (l *Loader) loadJSONL() ([]models.Listing, error) {
	slog.Debug("Opening JSONL file", "path", l.datasetPath)

	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	var listings []models.Listing
	scanner := bufio.NewScanner(file)

	const maxCapacity = 1024 * 1024 // 1MB per line
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()

		if len(line) == 0 {
			continue
		}

		var listing models.Listing
		if err := json.Unmarshal(line, &listing); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}

		listings = append(listings, listing)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}

	slog.Debug("Finished reading JSONL file", "total_listings", len(listings), "total_lines", lineNum)

	return listings, nil
}

// loadParquet loads listings from a Parquet file
func (l *Loader) loadParquet() ([]models.Listing, error) {
	slog.Debug("Opening Parquet file", "path", l.datasetPath)

	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened successfully", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[listingRow](pf)
	defer reader.Close()

	var listings []models.Listing
	rows := make([]listingRow, 128)

	for {
		n, err := reader.Read(rows)
		for _, row := range rows[:n] {
			listing, convErr := row.toListing()
			if convErr != nil {
				return nil, convErr
			}
			listings = append(listings, listing)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	slog.Debug("Finished reading Parquet file", "total_listings", len(listings))

	return listings, nil
}

// WriteParquet writes listings in the layout loadParquet reads
func WriteParquet(w io.Writer, listings []models.Listing) error {
	rows := make([]listingRow, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, fromListing(l))
	}

	writer := parquet.NewGenericWriter[listingRow](w)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
