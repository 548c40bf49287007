package query

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/pakmandi/bazaar/internal/models"
)

// Verified is the tri-state verification constraint
type Verified string

const (
	VerifiedAny Verified = "any"
	VerifiedYes Verified = "yes"
	VerifiedNo  Verified = "no"
)

// Filter narrows the visible listing set. Nil pointers mean "no restriction".
type Filter struct {
	SearchTerm string
	Breed      *string
	Location   *string
	Verified   Verified
	MinAge     *float64
	MaxAge     *float64
	MinWeight  *float64
	MaxWeight  *float64
}

// SortField selects the listing attribute to order by
type SortField string

const (
	SortByPrice      SortField = "price"
	SortByAge        SortField = "age"
	SortByWeight     SortField = "weight"
	SortByDateListed SortField = "dateListed"
)

// Direction of a sort
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort is the single active ordering
type Sort struct {
	Field     SortField
	Direction Direction
}

// DefaultSort lists the newest animals first
var DefaultSort = Sort{Field: SortByDateListed, Direction: Desc}

// Run filters and orders listings. The input slice and its elements are never modified.
func Run(listings []models.Listing, f Filter, s Sort) ([]models.Listing, error) {
	compare, err := comparator(s)
	if err != nil {
		return nil, err
	}
	if err := f.validate(); err != nil {
		return nil, err
	}

	result := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if f.Match(l) {
			result = append(result, l)
		}
	}

	slices.SortStableFunc(result, compare)
	return result, nil
}

// Match reports whether a single listing satisfies every constraint of the filter
func (f Filter) Match(l models.Listing) bool {
	if f.SearchTerm != "" {
		term := strings.ToLower(f.SearchTerm)
		if !strings.Contains(strings.ToLower(l.Breed), term) &&
			!strings.Contains(strings.ToLower(l.Location), term) {
			return false
		}
	}
	if f.Breed != nil && *f.Breed != l.Breed {
		return false
	}
	if f.Location != nil && *f.Location != l.Location {
		return false
	}

	switch f.Verified {
	case VerifiedYes:
		if !l.IsVerified {
			return false
		}
	case VerifiedNo:
		if l.IsVerified {
			return false
		}
	}

	return inRange(l.Age, f.MinAge, f.MaxAge) && inRange(l.Weight, f.MinWeight, f.MaxWeight)
}

func inRange(v float64, lower, upper *float64) bool {
	if lower != nil && v < *lower {
		return false
	}
	if upper != nil && v > *upper {
		return false
	}
	return true
}

// validate rejects bounds that could never compare true
func (f Filter) validate() error {
	bounds := []struct {
		name  string
		value *float64
	}{
		{"minAge", f.MinAge},
		{"maxAge", f.MaxAge},
		{"minWeight", f.MinWeight},
		{"maxWeight", f.MaxWeight},
	}
	for _, b := range bounds {
		if b.value == nil {
			continue
		}
		if math.IsNaN(*b.value) || math.IsInf(*b.value, 0) {
			return &ValidationError{Field: b.name, Value: formatFloat(*b.value)}
		}
	}

	switch f.Verified {
	case "", VerifiedAny, VerifiedYes, VerifiedNo:
		return nil
	default:
		return &ValidationError{Field: "verified", Value: string(f.Verified)}
	}
}

func comparator(s Sort) (func(a, b models.Listing) int, error) {
	var compare func(a, b models.Listing) int
	switch s.Field {
	case SortByPrice:
		compare = func(a, b models.Listing) int { return cmp.Compare(a.Price, b.Price) }
	case SortByAge:
		compare = func(a, b models.Listing) int { return cmp.Compare(a.Age, b.Age) }
	case SortByWeight:
		compare = func(a, b models.Listing) int { return cmp.Compare(a.Weight, b.Weight) }
	case SortByDateListed:
		compare = func(a, b models.Listing) int { return a.DateListed.Compare(b.DateListed) }
	default:
		return nil, &ConfigurationError{Field: s.Field}
	}

	switch s.Direction {
	case Asc, "":
		return compare, nil
	case Desc:
		return func(a, b models.Listing) int { return -compare(a, b) }, nil
	default:
		return nil, &ValidationError{Field: "sort direction", Value: string(s.Direction)}
	}
}
