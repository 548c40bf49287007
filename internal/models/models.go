package models

import "time"

// Role is the marketplace role a user signs in with
type Role string

const (
	RoleFarmer Role = "Farmer"
	RoleBuyer  Role = "Buyer"
	RoleTrader Role = "Trader"
	RoleVet    Role = "Vet"
	RoleAdmin  Role = "Admin"
)

// Gender of a listed animal
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// VerificationStatus tracks a single KYC step
type VerificationStatus string

const (
	VerificationVerified     VerificationStatus = "Verified"
	VerificationPending      VerificationStatus = "Pending"
	VerificationRejected     VerificationStatus = "Rejected"
	VerificationNotSubmitted VerificationStatus = "Not Submitted"
)

// Listing represents one animal offered on the marketplace
type Listing struct {
	ID            string         `json:"id" yaml:"id"`
	Breed         string         `json:"breed" yaml:"breed"`
	Age           float64        `json:"age" yaml:"age"`
	Gender        Gender         `json:"gender" yaml:"gender"`
	Weight        float64        `json:"weight" yaml:"weight"`
	Price         float64        `json:"price" yaml:"price"`
	ImageURL      string         `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	IsVerified    bool           `json:"is_verified" yaml:"is_verified"`
	Location      string         `json:"location" yaml:"location"`
	SellerID      string         `json:"seller_id" yaml:"seller_id"`
	HealthRecords []HealthRecord `json:"health_records" yaml:"health_records"`
	Videos        []string       `json:"videos,omitempty" yaml:"videos,omitempty"`
	Certificates  []string       `json:"certificates,omitempty" yaml:"certificates,omitempty"`
	DateListed    time.Time      `json:"date_listed" yaml:"date_listed"`
}

// HealthRecord is a treatment entry signed off by a vet
type HealthRecord struct {
	Date    string `json:"date" yaml:"date"`
	Vaccine string `json:"vaccine" yaml:"vaccine"`
	Notes   string `json:"notes" yaml:"notes"`
	Vet     string `json:"vet" yaml:"vet"`
}

// User is a marketplace participant
type User struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Email       string  `json:"email" yaml:"email"`
	Role        Role    `json:"role" yaml:"role"`
	IsVerified  bool    `json:"is_verified" yaml:"is_verified"`
	Rating      float64 `json:"rating" yaml:"rating"`
	RatingCount int     `json:"rating_count" yaml:"rating_count"`
	Location    string  `json:"location" yaml:"location"`
}

// Review is a buyer's feedback on a seller.
// Rating is stored as a float because upstream data does not guarantee whole stars.
type Review struct {
	ID           string  `json:"id" yaml:"id"`
	SellerID     string  `json:"seller_id" yaml:"seller_id"`
	ReviewerName string  `json:"reviewer_name" yaml:"reviewer_name"`
	Rating       float64 `json:"rating" yaml:"rating"`
	Comment      string  `json:"comment" yaml:"comment"`
	Date         string  `json:"date" yaml:"date"`
}

// VerificationItem is one step of the seller KYC checklist
type VerificationItem struct {
	ID          string             `json:"id" yaml:"id"`
	Title       string             `json:"title" yaml:"title"`
	Status      VerificationStatus `json:"status" yaml:"status"`
	Description string             `json:"description" yaml:"description"`
	ActionText  string             `json:"action_text" yaml:"action_text"`
}

// ActionDisabled reports whether the item's call to action should be greyed out
func (v VerificationItem) ActionDisabled() bool {
	return v.Status == VerificationVerified
}

// ChartData is one month of market price and demand
type ChartData struct {
	Name   string  `json:"name" yaml:"name"`
	Price  float64 `json:"price" yaml:"price"`
	Demand int     `json:"demand" yaml:"demand"`
}

// ListingDraft holds the fields of the listing creation form
type ListingDraft struct {
	Breed    string   `json:"breed"`
	Age      float64  `json:"age"`
	Gender   Gender   `json:"gender"`
	Weight   float64  `json:"weight"`
	Location string   `json:"location"`
	Price    float64  `json:"price"`
	Videos   []string `json:"videos,omitempty"`
}
