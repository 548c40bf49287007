package dataset

import (
	"fmt"
	"time"

	"github.com/pakmandi/bazaar/internal/models"
)

// Dataset is everything the marketplace serves from memory
type Dataset struct {
	Listings     []models.Listing          `yaml:"listings"`
	Users        []models.User             `yaml:"users"`
	Reviews      []models.Review           `yaml:"reviews"`
	MarketTrends []models.ChartData        `yaml:"market_trends"`
	Verification []models.VerificationItem `yaml:"verification"`
}

// listingRow is the flat on-disk shape of a listing in Parquet files
type listingRow struct {
	ID            string      `parquet:"id"`
	Breed         string      `parquet:"breed"`
	Age           float64     `parquet:"age"`
	Gender        string      `parquet:"gender"`
	Weight        float64     `parquet:"weight"`
	Price         float64     `parquet:"price"`
	ImageURL      string      `parquet:"image_url,optional"`
	IsVerified    bool        `parquet:"is_verified"`
	Location      string      `parquet:"location"`
	SellerID      string      `parquet:"seller_id"`
	DateListed    string      `parquet:"date_listed"`
	HealthRecords []healthRow `parquet:"health_records"`
}

type healthRow struct {
	Date    string `parquet:"date"`
	Vaccine string `parquet:"vaccine"`
	Notes   string `parquet:"notes"`
	Vet     string `parquet:"vet"`
}

func (r listingRow) toListing() (models.Listing, error) {
	listed, err := time.Parse(time.RFC3339, r.DateListed)
	if err != nil {
		return models.Listing{}, fmt.Errorf("listing %s: invalid date_listed %q: %w", r.ID, r.DateListed, err)
	}

	records := make([]models.HealthRecord, 0, len(r.HealthRecords))
	for _, h := range r.HealthRecords {
		records = append(records, models.HealthRecord{
			Date:    h.Date,
			Vaccine: h.Vaccine,
			Notes:   h.Notes,
			Vet:     h.Vet,
		})
	}

	return models.Listing{
		ID:            r.ID,
		Breed:         r.Breed,
		Age:           r.Age,
		Gender:        models.Gender(r.Gender),
		Weight:        r.Weight,
		Price:         r.Price,
		ImageURL:      r.ImageURL,
		IsVerified:    r.IsVerified,
		Location:      r.Location,
		SellerID:      r.SellerID,
		DateListed:    listed,
		HealthRecords: records,
	}, nil
}

func fromListing(l models.Listing) listingRow {
	records := make([]healthRow, 0, len(l.HealthRecords))
	for _, h := range l.HealthRecords {
		records = append(records, healthRow(h))
	}

	return listingRow{
		ID:            l.ID,
		Breed:         l.Breed,
		Age:           l.Age,
		Gender:        string(l.Gender),
		Weight:        l.Weight,
		Price:         l.Price,
		ImageURL:      l.ImageURL,
		IsVerified:    l.IsVerified,
		Location:      l.Location,
		SellerID:      l.SellerID,
		DateListed:    l.DateListed.UTC().Format(time.RFC3339),
		HealthRecords: records,
	}
}
