package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pakmandi/bazaar/internal/dashboard"
)

// Dashboard writes the content of the active dashboard tab
func Dashboard(w io.Writer, format Format, d *dashboard.Dashboard, content dashboard.Content) error {
	switch format {
	case FormatJSON, FormatYAML:
		return Value(w, format, map[string]any{
			"tabs":            d.Tabs(),
			"active":          d.Active(),
			"can_add_listing": d.CanAddListing(),
			"kind":            content.Kind(),
			"content":         content,
		})
	case FormatTable, "":
	default:
		return fmt.Errorf("format %q is not supported for dashboards", format)
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s dashboard", content.Kind())))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("tabs: %v  active: %s", d.Tabs(), d.Active())))

	switch c := content.(type) {
	case dashboard.ProfileContent:
		rows := make([][]string, 0, len(c.Items))
		for _, item := range c.Items {
			rows = append(rows, []string{item.Title, string(item.Status), item.Description, item.ActionText})
		}
		_, err := fmt.Fprintln(w, newTable([]string{"STEP", "STATUS", "DETAILS", "ACTION"}, rows))
		return err
	case dashboard.FarmerContent:
		if c.Tab == dashboard.TabListings {
			return Listings(w, FormatTable, QueryConfig{Sort: "dateListed-desc", Timestamp: "-"}, c.Listings)
		}
		fmt.Fprintf(w, " Listings: %d  Sales: %s  Verification: %s\n", c.TotalListings, FormatPKR(c.TotalSales), c.VerificationStatus)
		rows := make([][]string, 0, len(c.Sales))
		for _, p := range c.Sales {
			rows = append(rows, []string{p.Name, strconv.Itoa(p.Sales), FormatPKR(p.Revenue)})
		}
		_, err := fmt.Fprintln(w, newTable([]string{"MONTH", "SALES", "REVENUE"}, rows))
		return err
	case dashboard.BuyerContent:
		return Listings(w, FormatTable, QueryConfig{Sort: "dateListed-desc", Timestamp: "-"}, c.Recommended)
	case dashboard.TraderContent:
		rows := make([][]string, 0, len(c.Trends))
		for _, t := range c.Trends {
			rows = append(rows, []string{t.Name, FormatPKR(t.Price), strconv.Itoa(t.Demand)})
		}
		_, err := fmt.Fprintln(w, newTable([]string{"MONTH", "AVG PRICE", "DEMAND"}, rows))
		return err
	case dashboard.VetContent:
		return Listings(w, FormatTable, QueryConfig{Sort: "dateListed-desc", Timestamp: "-"}, c.AwaitingRecords)
	case dashboard.DefaultContent:
		_, err := fmt.Fprintln(w, c.Message())
		return err
	default:
		return fmt.Errorf("unknown dashboard content %q", content.Kind())
	}
}
