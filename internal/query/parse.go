package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Placeholder option values the marketplace form submits when a select is left untouched
const (
	AnyBreed    = "Any Breed"
	AnyLocation = "Any Location"
)

// ParseFilter builds a Filter from raw form values.
// Empty strings and the "any" placeholders are treated as unset.
// A non-numeric bound is rejected with a *ValidationError rather than silently excluding every listing.
func ParseFilter(v url.Values) (Filter, error) {
	f := Filter{
		SearchTerm: strings.TrimSpace(v.Get("search")),
		Breed:      optionalString(v.Get("breed"), AnyBreed),
		Location:   optionalString(v.Get("location"), AnyLocation),
	}

	verified, err := ParseVerified(v.Get("verified"))
	if err != nil {
		return Filter{}, err
	}
	f.Verified = verified

	bounds := []struct {
		name string
		dst  **float64
	}{
		{"minAge", &f.MinAge},
		{"maxAge", &f.MaxAge},
		{"minWeight", &f.MinWeight},
		{"maxWeight", &f.MaxWeight},
	}
	for _, b := range bounds {
		parsed, err := ParseBound(b.name, v.Get(b.name))
		if err != nil {
			return Filter{}, err
		}
		*b.dst = parsed
	}

	return f, nil
}

// ParseBound parses one numeric bound; an empty input yields nil
func ParseBound(name, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &ValidationError{Field: name, Value: raw, Err: err}
	}
	return &n, nil
}

// ParseVerified accepts any/yes/no and the boolean spellings true/false
func ParseVerified(raw string) (Verified, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "any":
		return VerifiedAny, nil
	case "yes", "true":
		return VerifiedYes, nil
	case "no", "false":
		return VerifiedNo, nil
	default:
		return "", &ValidationError{Field: "verified", Value: raw}
	}
}

// ParseSort parses the "field-direction" token used by the sort select, e.g. "price-asc".
// An empty token selects DefaultSort.
func ParseSort(raw string) (Sort, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultSort, nil
	}

	field, direction, found := strings.Cut(raw, "-")
	if !found {
		direction = string(Asc)
	}

	s := Sort{Field: SortField(field), Direction: Direction(direction)}
	if _, err := comparator(s); err != nil {
		return Sort{}, err
	}
	return s, nil
}

func optionalString(raw, anyValue string) *string {
	if raw == "" || raw == anyValue {
		return nil
	}
	return &raw
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
