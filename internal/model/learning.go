package model

// Rejection reason categories tracked in LearningPattern.RejectionReasons.
const (
	RejectionSize              = "size"
	RejectionGeography         = "geography"
	RejectionService           = "service"
	RejectionTiming            = "timing"
	RejectionPortfolioConflict = "portfolio_conflict"
	RejectionOther             = "other"
)

// LearningPattern aggregates a buyer's historical approve/pass behavior.
// Patterns with fewer than three actions carry no signal and are ignored by
// the learning penalty calculator.
type LearningPattern struct {
	BuyerID          string         `json:"buyer_id"`
	TotalActions     int            `json:"total_actions"`
	ApprovalRate     float64        `json:"approval_rate"`
	AvgApprovedScore float64        `json:"avg_approved_score"`
	AvgPassedScore   float64        `json:"avg_passed_score"`
	RejectionReasons map[string]int `json:"rejection_reasons,omitempty"`
}
