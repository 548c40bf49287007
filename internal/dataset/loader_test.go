package dataset

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pakmandi/bazaar/internal/models"
)

func TestNewLoader(t *testing.T) {
	path := "./listings.parquet"
	loader := NewLoader(path)

	if loader.datasetPath != path {
		t.Errorf("Expected path %s, got %s", path, loader.datasetPath)
	}
}

func TestSeed(t *testing.T) {
	ds, err := Seed()
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	if len(ds.Listings) != 8 {
		t.Errorf("Expected 8 listings, got %d", len(ds.Listings))
	}
	if len(ds.Users) == 0 || len(ds.Reviews) == 0 || len(ds.MarketTrends) == 0 || len(ds.Verification) == 0 {
		t.Errorf("Expected every seed section to be populated, got %+v", ds)
	}

	first := ds.Listings[0]
	want := time.Date(2024, 7, 20, 10, 0, 0, 0, time.UTC)
	if !first.DateListed.Equal(want) {
		t.Errorf("Expected date_listed %v, got %v", want, first.DateListed)
	}
	if len(first.HealthRecords) != 2 || first.HealthRecords[0].Date != "2023-01-15" {
		t.Errorf("Unexpected health records: %+v", first.HealthRecords)
	}
}

func TestLoadJSONL(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "listings.jsonl")

	listings := []models.Listing{
		{ID: "x1", Breed: "Sahiwal Cow", Age: 2, Gender: models.GenderFemale, Weight: 300, Price: 150000, Location: "Okara, PK", SellerID: "u1", DateListed: time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "x2", Breed: "Kundi Buffalo", Age: 6, Gender: models.GenderFemale, Weight: 550, Price: 330000, Location: "Thatta, PK", SellerID: "u2", DateListed: time.Date(2024, 8, 2, 0, 0, 0, 0, time.UTC)},
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := json.NewEncoder(f)
	for _, l := range listings {
		if err := enc.Encode(l); err != nil {
			t.Fatal(err)
		}
	}
	f.Close()

	ds, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(ds.Listings) != 2 || ds.Listings[1].Breed != "Kundi Buffalo" {
		t.Errorf("Unexpected listings: %+v", ds.Listings)
	}
	if len(ds.Users) == 0 {
		t.Error("Expected users to come from the bundled seed")
	}
}

func TestLoadParquet(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "listings.parquet")

	seed, err := Seed()
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteParquet(f, seed.Listings); err != nil {
		t.Fatalf("WriteParquet() error = %v", err)
	}
	f.Close()

	ds, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(ds.Listings) != len(seed.Listings) {
		t.Fatalf("Expected %d listings, got %d", len(seed.Listings), len(ds.Listings))
	}
	got := ds.Listings[3]
	if got.ID != "c4" || got.Weight != 500 || len(got.HealthRecords) != 2 || got.HealthRecords[1].Vaccine != "BQ" {
		t.Errorf("Unexpected listing after parquet load: %+v", got)
	}
	if !got.DateListed.Equal(seed.Listings[3].DateListed) {
		t.Errorf("Expected date %v, got %v", seed.Listings[3].DateListed, got.DateListed)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	_, err := NewLoader("listings.csv").Load()
	if err == nil {
		t.Error("Expected error for unsupported format")
	}
}
