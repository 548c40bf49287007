package dashboard

import (
	"errors"
	"fmt"
	"slices"

	"github.com/pakmandi/bazaar/internal/catalog"
	"github.com/pakmandi/bazaar/internal/models"
	"github.com/pakmandi/bazaar/internal/query"
)

// Tab is a dashboard navigation tab
type Tab string

const (
	TabOverview Tab = "overview"
	TabListings Tab = "listings"
	TabProfile  Tab = "profile"
)

// ErrTabUnavailable is returned when a role selects a tab it does not have
var ErrTabUnavailable = errors.New("tab not available for role")

// Dashboard is the per-user tab state
type Dashboard struct {
	user   models.User
	active Tab
}

// New opens the dashboard on the overview tab
func New(user models.User) *Dashboard {
	return &Dashboard{user: user, active: TabOverview}
}

// Tabs lists the tabs the user's role can navigate to
func (d *Dashboard) Tabs() []Tab {
	if d.user.Role == models.RoleFarmer {
		return []Tab{TabOverview, TabListings, TabProfile}
	}
	return []Tab{TabOverview, TabProfile}
}

// Active returns the selected tab
func (d *Dashboard) Active() Tab {
	return d.active
}

// Select switches tabs. Unknown tabs and tabs gated away from the role are rejected and the current tab is kept.
func (d *Dashboard) Select(tab Tab) error {
	if !slices.Contains(d.Tabs(), tab) {
		return fmt.Errorf("%w: %s cannot open %q", ErrTabUnavailable, d.user.Role, tab)
	}
	d.active = tab
	return nil
}

// CanAddListing reports whether the "add new cattle" action is offered
func (d *Dashboard) CanAddListing() bool {
	return d.user.Role == models.RoleFarmer
}

// Content resolves what to render for the active tab
func (d *Dashboard) Content(c *catalog.Catalog) (Content, error) {
	if d.active == TabProfile {
		return ProfileContent{User: d.user, Items: c.Verification()}, nil
	}

	switch d.user.Role {
	case models.RoleFarmer:
		return newFarmerContent(c, d.user, d.active), nil
	case models.RoleBuyer:
		return newBuyerContent(c)
	case models.RoleTrader:
		return TraderContent{Trends: c.MarketTrends()}, nil
	case models.RoleVet:
		return newVetContent(c), nil
	default:
		return DefaultContent{Role: d.user.Role}, nil
	}
}

// Content is one of the dashboard variants
type Content interface {
	Kind() string
}

// ProfileContent is the verification and KYC checklist
type ProfileContent struct {
	User  models.User               `json:"user"`
	Items []models.VerificationItem `json:"items"`
}

func (ProfileContent) Kind() string { return "profile" }

// SalesPoint is one month of a farmer's sales
type SalesPoint struct {
	Name    string  `json:"name"`
	Sales   int     `json:"sales"`
	Revenue float64 `json:"revenue"`
}

// FarmerContent is the seller overview or the seller's listing table
type FarmerContent struct {
	Tab                Tab                      `json:"tab"`
	TotalListings      int                      `json:"total_listings,omitempty"`
	TotalSales         float64                  `json:"total_sales,omitempty"`
	VerificationStatus models.VerificationStatus `json:"verification_status,omitempty"`
	Sales              []SalesPoint             `json:"sales,omitempty"`
	Listings           []models.Listing         `json:"listings,omitempty"`
}

func (FarmerContent) Kind() string { return "farmer" }

var farmerSales = []SalesPoint{
	{Name: "Jan", Sales: 4, Revenue: 800000},
	{Name: "Feb", Sales: 2, Revenue: 450000},
	{Name: "Mar", Sales: 5, Revenue: 1100000},
	{Name: "Apr", Sales: 3, Revenue: 700000},
}

func newFarmerContent(c *catalog.Catalog, user models.User, tab Tab) FarmerContent {
	own := c.ListingsBySeller(user.ID)
	if tab == TabListings {
		if own == nil {
			own = []models.Listing{}
		}
		return FarmerContent{Tab: TabListings, Listings: own}
	}

	var revenue float64
	for _, p := range farmerSales {
		revenue += p.Revenue
	}

	status := models.VerificationPending
	if user.IsVerified {
		status = models.VerificationVerified
	}

	return FarmerContent{
		Tab:                TabOverview,
		TotalListings:      len(own),
		TotalSales:         revenue,
		VerificationStatus: status,
		Sales:              slices.Clone(farmerSales),
	}
}

// BuyerContent highlights the newest verified animals
type BuyerContent struct {
	Recommended []models.Listing `json:"recommended"`
}

func (BuyerContent) Kind() string { return "buyer" }

const buyerRecommendations = 4

func newBuyerContent(c *catalog.Catalog) (BuyerContent, error) {
	listings, err := query.Run(c.Listings(), query.Filter{Verified: query.VerifiedYes}, query.DefaultSort)
	if err != nil {
		return BuyerContent{}, err
	}
	if len(listings) > buyerRecommendations {
		listings = listings[:buyerRecommendations]
	}
	return BuyerContent{Recommended: listings}, nil
}

// TraderContent charts market price against demand
type TraderContent struct {
	Trends []models.ChartData `json:"trends"`
}

func (TraderContent) Kind() string { return "trader" }

// VetContent lists animals with no recorded treatments
type VetContent struct {
	AwaitingRecords []models.Listing `json:"awaiting_records"`
}

func (VetContent) Kind() string { return "vet" }

func newVetContent(c *catalog.Catalog) VetContent {
	out := []models.Listing{}
	for _, l := range c.Listings() {
		if len(l.HealthRecords) == 0 {
			out = append(out, l)
		}
	}
	return VetContent{AwaitingRecords: out}
}

// DefaultContent is shown for roles without a dedicated dashboard
type DefaultContent struct {
	Role models.Role `json:"role"`
}

func (DefaultContent) Kind() string { return "default" }

// Message is the placeholder text for the role
func (d DefaultContent) Message() string {
	return fmt.Sprintf("Dashboard for %s is coming soon.", d.Role)
}
