// Package model defines the core entities for buyer-deal fit scoring.
package model

// Listing is a for-sale business being matched against prospective buyers.
// Financial fields are pointers: a nil Revenue means "unknown", which scores
// differently from a reported zero.
type Listing struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Revenue             *float64 `json:"revenue,omitempty"`
	EBITDA              *float64 `json:"ebitda,omitempty"`
	State               string   `json:"state,omitempty"`
	City                string   `json:"city,omitempty"`
	LocationCount       *int     `json:"location_count,omitempty"`
	Services            []string `json:"services,omitempty"`
	Category            string   `json:"category,omitempty"`
	OwnerGoals          string   `json:"owner_goals,omitempty"`
	SellerMotivation    string   `json:"seller_motivation,omitempty"`
	SpecialRequirements string   `json:"special_requirements,omitempty"`
	OwnershipStructure  string   `json:"ownership_structure,omitempty"`
	Description         string   `json:"description,omitempty"`
}

// PrimaryService returns the listing's lead service line, falling back to
// the category when no explicit service list exists.
func (l *Listing) PrimaryService() string {
	if len(l.Services) > 0 {
		return l.Services[0]
	}
	return l.Category
}

// HasFinancials reports whether the listing carries any usable size signal.
func (l *Listing) HasFinancials() bool {
	return l.Revenue != nil || l.EBITDA != nil
}

// HasServices reports whether the listing carries any service signal.
func (l *Listing) HasServices() bool {
	return len(l.Services) > 0 || l.Category != ""
}
