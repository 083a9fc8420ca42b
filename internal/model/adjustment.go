package model

import "time"

// AdjustmentType classifies a manual scoring adjustment.
type AdjustmentType string

const (
	AdjustmentBoost      AdjustmentType = "boost"
	AdjustmentPenalize   AdjustmentType = "penalize"
	AdjustmentDisqualify AdjustmentType = "disqualify"
)

// ScoringAdjustment is a manual boost/penalize/disqualify entry recorded by
// the deal team against a listing, optionally scoped to one buyer.
type ScoringAdjustment struct {
	ID        string         `json:"id"`
	ListingID string         `json:"listing_id"`
	BuyerID   string         `json:"buyer_id,omitempty"`
	Type      AdjustmentType `json:"type"`
	Amount    float64        `json:"amount"`
	Reason    string         `json:"reason,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AppliesTo reports whether the adjustment covers the given buyer. An empty
// BuyerID means listing-wide.
func (a *ScoringAdjustment) AppliesTo(buyerID string) bool {
	return a.BuyerID == "" || a.BuyerID == buyerID
}
