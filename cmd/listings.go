package cmd

import (
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/pakmandi/bazaar/internal/export"
	"github.com/pakmandi/bazaar/internal/query"
	"github.com/spf13/cobra"
)

func newListingsCmd() *cobra.Command {
	var (
		search, breed, location, verified string
		minAge, maxAge                    string
		minWeight, maxWeight              string
		sortBy, format, output            string
	)

	cmd := &cobra.Command{
		Use:   "listings",
		Short: "Search and sort cattle listings",
		Example: `  # Verified Sahiwal listings, cheapest first
  bazaar listings --breed "Sahiwal Bull" --verified yes --sort price-asc

  # Export everything under 400 kg to Parquet
  bazaar listings --max-weight 400 --format parquet --output light.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmtOut, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			values := url.Values{}
			for key, v := range map[string]string{
				"search":    search,
				"breed":     breed,
				"location":  location,
				"verified":  verified,
				"minAge":    minAge,
				"maxAge":    maxAge,
				"minWeight": minWeight,
				"maxWeight": maxWeight,
			} {
				if v != "" {
					values.Set(key, v)
				}
			}

			filter, err := query.ParseFilter(values)
			if err != nil {
				return err
			}
			sort, err := query.ParseSort(sortBy)
			if err != nil {
				return err
			}

			c, err := loadCatalog(cmd)
			if err != nil {
				return err
			}
			results, err := query.Run(c.Listings(), filter, sort)
			if err != nil {
				return err
			}

			w, closeOut, err := openOutput(cmd, output)
			if err != nil {
				return err
			}
			defer closeOut()

			return export.Listings(w, fmtOut, export.QueryConfig{
				Search: search,
				Filter: values.Encode(),
				Sort:   fmt.Sprintf("%s-%s", sort.Field, sort.Direction),
			}, results)
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Match breed or location (case-insensitive)")
	cmd.Flags().StringVar(&breed, "breed", "", "Exact breed")
	cmd.Flags().StringVar(&location, "location", "", "Exact location")
	cmd.Flags().StringVar(&verified, "verified", "", "any, yes or no")
	cmd.Flags().StringVar(&minAge, "min-age", "", "Minimum age in years")
	cmd.Flags().StringVar(&maxAge, "max-age", "", "Maximum age in years")
	cmd.Flags().StringVar(&minWeight, "min-weight", "", "Minimum weight in kg")
	cmd.Flags().StringVar(&maxWeight, "max-weight", "", "Maximum weight in kg")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort as field-direction, e.g. price-asc (default dateListed-desc)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json, yaml or parquet")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")

	return cmd
}

// openOutput returns stdout or the named file
func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}
