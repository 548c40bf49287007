package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pakmandi/bazaar/internal/dataset"
	"github.com/pakmandi/bazaar/internal/models"
)

var (
	ErrListingNotFound = errors.New("listing not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidDraft    = errors.New("invalid listing data")
)

// Catalog is the in-memory marketplace shared by the CLI and the HTTP server
type Catalog struct {
	mu           sync.RWMutex
	listings     []models.Listing
	users        []models.User
	reviews      []models.Review
	trends       []models.ChartData
	verification []models.VerificationItem
	nextListing  int
	nextReview   int
}

// Facets are the distinct values offered in the marketplace filter selects
type Facets struct {
	Breeds    []string `json:"breeds"`
	Locations []string `json:"locations"`
}

// New builds a catalog from a loaded dataset
func New(ds *dataset.Dataset) *Catalog {
	c := &Catalog{
		listings:     slices.Clone(ds.Listings),
		users:        slices.Clone(ds.Users),
		reviews:      slices.Clone(ds.Reviews),
		trends:       slices.Clone(ds.MarketTrends),
		verification: slices.Clone(ds.Verification),
		nextListing:  len(ds.Listings) + 1,
		nextReview:   len(ds.Reviews) + 1,
	}
	return c
}

// Listings returns a snapshot of every listing in load order
func (c *Catalog) Listings() []models.Listing {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.listings)
}

// Listing looks up a listing by ID
func (c *Catalog) Listing(id string) (models.Listing, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, l := range c.listings {
		if l.ID == id {
			return l, nil
		}
	}
	return models.Listing{}, fmt.Errorf("%w: %s", ErrListingNotFound, id)
}

// ListingsBySeller returns the seller's listings in load order
func (c *Catalog) ListingsBySeller(sellerID string) []models.Listing {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Listing
	for _, l := range c.listings {
		if l.SellerID == sellerID {
			out = append(out, l)
		}
	}
	return out
}

// User looks up a user by ID
func (c *Catalog) User(id string) (models.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, u := range c.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, fmt.Errorf("%w: %s", ErrUserNotFound, id)
}

// Users returns every registered user
func (c *Catalog) Users() []models.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.users)
}

// ReviewsForSeller returns the reviews left for a seller
func (c *Catalog) ReviewsForSeller(sellerID string) []models.Review {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Review
	for _, r := range c.reviews {
		if r.SellerID == sellerID {
			out = append(out, r)
		}
	}
	return out
}

// MarketTrends returns monthly average price and demand
func (c *Catalog) MarketTrends() []models.ChartData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.trends)
}

// Verification returns the KYC checklist shown on the dashboard profile tab
func (c *Catalog) Verification() []models.VerificationItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.verification)
}

// Facets lists distinct breeds and locations in first-seen order
func (c *Catalog) Facets() Facets {
	c.mu.RLock()
	defer c.mu.RUnlock()

	f := Facets{Breeds: []string{}, Locations: []string{}}
	for _, l := range c.listings {
		if !slices.Contains(f.Breeds, l.Breed) {
			f.Breeds = append(f.Breeds, l.Breed)
		}
		if !slices.Contains(f.Locations, l.Location) {
			f.Locations = append(f.Locations, l.Location)
		}
	}
	return f
}

// ValidateDraft checks the listing creation form
func ValidateDraft(d models.ListingDraft) error {
	var problems []string
	if strings.TrimSpace(d.Breed) == "" {
		problems = append(problems, "breed is required")
	}
	if strings.TrimSpace(d.Location) == "" {
		problems = append(problems, "location is required")
	}
	if d.Gender != models.GenderMale && d.Gender != models.GenderFemale {
		problems = append(problems, "gender must be Male or Female")
	}
	if d.Age <= 0 {
		problems = append(problems, "age must be positive")
	}
	if d.Weight <= 0 {
		problems = append(problems, "weight must be positive")
	}
	if d.Price <= 0 {
		problems = append(problems, "price must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDraft, strings.Join(problems, "; "))
	}
	return nil
}

// AddListing registers a new listing for a seller from the creation form
func (c *Catalog) AddListing(sellerID string, d models.ListingDraft, now time.Time) (models.Listing, error) {
	if err := ValidateDraft(d); err != nil {
		return models.Listing{}, err
	}
	if _, err := c.User(sellerID); err != nil {
		return models.Listing{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	listing := models.Listing{
		ID:            fmt.Sprintf("c%d", c.nextListing),
		Breed:         strings.TrimSpace(d.Breed),
		Age:           d.Age,
		Gender:        d.Gender,
		Weight:        d.Weight,
		Price:         d.Price,
		Location:      strings.TrimSpace(d.Location),
		SellerID:      sellerID,
		HealthRecords: []models.HealthRecord{},
		Videos:        slices.Clone(d.Videos),
		DateListed:    now.UTC(),
	}
	c.nextListing++
	c.listings = append(c.listings, listing)
	return listing, nil
}

// AddReview appends a review; callers validate the rating first
func (c *Catalog) AddReview(r models.Review) models.Review {
	c.mu.Lock()
	defer c.mu.Unlock()

	r.ID = fmt.Sprintf("r%d", c.nextReview)
	c.nextReview++
	c.reviews = append(c.reviews, r)
	return r
}
