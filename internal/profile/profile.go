package profile

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pakmandi/bazaar/internal/catalog"
	"github.com/pakmandi/bazaar/internal/models"
)

var (
	ErrSellerNotFound = errors.New("seller not found")
	ErrRatingRequired = errors.New("please select a star rating")
	ErrInvalidRating  = errors.New("rating must be a whole number of stars between 1 and 5")
)

// Profile is everything the seller page shows
type Profile struct {
	Seller       models.User      `json:"seller"`
	Listings     []models.Listing `json:"listings"`
	Reviews      []models.Review  `json:"reviews"`
	Distribution Distribution     `json:"distribution"`
}

// Distribution counts reviews per star, index 0 holding one-star reviews
type Distribution [5]int

// Count returns how many reviews landed on the given star (1..5)
func (d Distribution) Count(stars int) int {
	if stars < 1 || stars > 5 {
		return 0
	}
	return d[stars-1]
}

// Share returns the percentage of total reviews that landed on the given star
func (d Distribution) Share(stars, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(d.Count(stars)) / float64(total) * 100
}

// NewDistribution buckets review ratings by star.
// Fractional ratings round to the nearest star; anything outside 1..5 after rounding is skipped.
func NewDistribution(reviews []models.Review) Distribution {
	var d Distribution
	for _, r := range reviews {
		if math.IsNaN(r.Rating) {
			continue
		}
		stars := int(math.Round(r.Rating))
		if stars < 1 || stars > 5 {
			continue
		}
		d[stars-1]++
	}
	return d
}

// Build assembles a seller profile
func Build(c *catalog.Catalog, sellerID string) (*Profile, error) {
	seller, err := c.User(sellerID)
	if err != nil {
		if errors.Is(err, catalog.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSellerNotFound, sellerID)
		}
		return nil, err
	}

	reviews := c.ReviewsForSeller(sellerID)
	listings := c.ListingsBySeller(sellerID)
	if listings == nil {
		listings = []models.Listing{}
	}
	if reviews == nil {
		reviews = []models.Review{}
	}

	return &Profile{
		Seller:       seller,
		Listings:     listings,
		Reviews:      reviews,
		Distribution: NewDistribution(reviews),
	}, nil
}

// Submit validates and records a review for a seller
func Submit(c *catalog.Catalog, sellerID, reviewer string, rating int, comment string, now time.Time) (models.Review, error) {
	if _, err := c.User(sellerID); err != nil {
		return models.Review{}, fmt.Errorf("%w: %s", ErrSellerNotFound, sellerID)
	}
	if rating == 0 {
		return models.Review{}, ErrRatingRequired
	}
	if rating < 1 || rating > 5 {
		return models.Review{}, ErrInvalidRating
	}

	reviewer = strings.TrimSpace(reviewer)
	if reviewer == "" {
		reviewer = "Anonymous"
	}

	return c.AddReview(models.Review{
		SellerID:     sellerID,
		ReviewerName: reviewer,
		Rating:       float64(rating),
		Comment:      strings.TrimSpace(comment),
		Date:         now.UTC().Format(time.DateOnly),
	}), nil
}
