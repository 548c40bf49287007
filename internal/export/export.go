package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pakmandi/bazaar/internal/dataset"
	"github.com/pakmandi/bazaar/internal/models"
	"github.com/pakmandi/bazaar/internal/profile"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding
type Format string

const (
	FormatTable   Format = "table"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatParquet Format = "parquet"
)

// ParseFormat validates a --format value
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML, FormatParquet:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want table, json, yaml or parquet)", s)
	}
}

// QueryConfig records the query that produced a result set
type QueryConfig struct {
	Search    string `yaml:"search,omitempty" json:"search,omitempty"`
	Filter    string `yaml:"filter,omitempty" json:"filter,omitempty"`
	Sort      string `yaml:"sort" json:"sort"`
	Count     int    `yaml:"count" json:"count"`
	Timestamp string `yaml:"timestamp" json:"timestamp"`
}

// QueryResult is the document written for json and yaml listing exports
type QueryResult struct {
	Config  QueryConfig      `yaml:"config" json:"config"`
	Results []models.Listing `yaml:"results" json:"results"`
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
)

// Listings writes a query result in the requested format
func Listings(w io.Writer, format Format, cfg QueryConfig, listings []models.Listing) error {
	cfg.Count = len(listings)
	if cfg.Timestamp == "" {
		cfg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	switch format {
	case FormatJSON:
		return writeJSON(w, QueryResult{Config: cfg, Results: listings})
	case FormatYAML:
		return writeYAML(w, QueryResult{Config: cfg, Results: listings})
	case FormatParquet:
		return dataset.WriteParquet(w, listings)
	case FormatTable, "":
		if len(listings) == 0 {
			_, err := fmt.Fprintln(w, mutedStyle.Render("No listings match the current filters."))
			return err
		}
		_, err := fmt.Fprintln(w, listingTable(listings))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%d listings, sorted by %s", len(listings), cfg.Sort)))
		return err
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func listingTable(listings []models.Listing) *table.Table {
	rows := make([][]string, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, []string{
			l.ID,
			l.Breed,
			trimFloat(l.Age),
			string(l.Gender),
			trimFloat(l.Weight),
			FormatPKR(l.Price),
			l.Location,
			verifiedMark(l.IsVerified),
			l.DateListed.Format(time.DateOnly),
		})
	}
	return newTable([]string{"ID", "BREED", "AGE", "GENDER", "KG", "PRICE", "LOCATION", "VERIFIED", "LISTED"}, rows)
}

// Profile writes a seller profile
func Profile(w io.Writer, format Format, p *profile.Profile) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, p)
	case FormatYAML:
		return writeYAML(w, p)
	case FormatTable, "":
	default:
		return fmt.Errorf("format %q is not supported for profiles", format)
	}

	s := p.Seller
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s (%s)", s.Name, s.Role)))
	fmt.Fprintf(w, " %s  %s  rating %.1f from %d reviews  %s\n\n", s.Location, s.Email, s.Rating, s.RatingCount, verifiedMark(s.IsVerified))

	total := len(p.Reviews)
	for stars := 5; stars >= 1; stars-- {
		share := p.Distribution.Share(stars, total)
		bar := strings.Repeat("█", int(share/5))
		fmt.Fprintf(w, " %d★ %-20s %3.0f%%\n", stars, bar, share)
	}
	fmt.Fprintln(w)

	if len(p.Listings) > 0 {
		fmt.Fprintln(w, listingTable(p.Listings))
	} else {
		fmt.Fprintln(w, mutedStyle.Render("No active listings."))
	}

	if len(p.Reviews) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("No reviews yet."))
		return err
	}
	rows := make([][]string, 0, len(p.Reviews))
	for _, r := range p.Reviews {
		rows = append(rows, []string{r.Date, r.ReviewerName, strconv.FormatFloat(r.Rating, 'f', -1, 64), r.Comment})
	}
	_, err := fmt.Fprintln(w, newTable([]string{"DATE", "REVIEWER", "STARS", "COMMENT"}, rows))
	return err
}

// Value writes any document as json or yaml
func Value(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, v)
	case FormatYAML, FormatTable, "":
		return writeYAML(w, v)
	default:
		return fmt.Errorf("format %q is not supported here", format)
	}
}

// FormatPKR renders a price the way listings display it
func FormatPKR(price float64) string {
	s := strconv.FormatInt(int64(price), 10)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return "PKR " + b.String()
}

func newTable(headers []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return enc.Close()
}

func verifiedMark(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
