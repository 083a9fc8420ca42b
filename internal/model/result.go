package model

import "time"

// Tier is the letter grade derived from the final composite score.
type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
	TierF Tier = "F"
)

// TierForScore maps a non-disqualified composite score to a letter tier.
func TierForScore(score float64) Tier {
	switch {
	case score >= 80:
		return TierA
	case score >= 65:
		return TierB
	case score >= 50:
		return TierC
	case score >= 35:
		return TierD
	default:
		return TierF
	}
}

// ResultStatus is the human triage state of a scored result.
type ResultStatus string

const (
	StatusPending  ResultStatus = "pending"
	StatusApproved ResultStatus = "approved"
	StatusPassed   ResultStatus = "passed"
)

// DealSnapshot captures the listing's key fields at scoring time so a
// stale score can be detected when the listing is later edited.
type DealSnapshot struct {
	Revenue  *float64 `json:"revenue,omitempty"`
	EBITDA   *float64 `json:"ebitda,omitempty"`
	State    string   `json:"state,omitempty"`
	Services []string `json:"services,omitempty"`
}

// ScoredResult is the output of scoring one (listing, buyer, universe)
// triple. Exactly one live row exists per triple; rescoring upserts it.
type ScoredResult struct {
	ID         string `json:"id"`
	ListingID  string `json:"listing_id"`
	BuyerID    string `json:"buyer_id"`
	UniverseID string `json:"universe_id"`

	CompositeScore  float64 `json:"composite_score"`
	SizeScore       float64 `json:"size_score"`
	GeographyScore  float64 `json:"geography_score"`
	ServiceScore    float64 `json:"service_score"`
	OwnerGoalsScore float64 `json:"owner_goals_score"`

	SizeMultiplier      float64 `json:"size_multiplier"`
	ServiceMultiplier   float64 `json:"service_multiplier"`
	GeographyModeFactor float64 `json:"geography_mode_factor"`

	ThesisBonus      float64 `json:"thesis_bonus"`
	DataQualityBonus float64 `json:"data_quality_bonus"`
	AdjustmentDelta  float64 `json:"adjustment_delta"`
	LearningPenalty  float64 `json:"learning_penalty"`

	Tier             Tier         `json:"tier"`
	IsDisqualified   bool         `json:"is_disqualified"`
	DisqualifyReason string       `json:"disqualify_reason,omitempty"`
	NeedsReview      bool         `json:"needs_review"`
	Reasoning        string       `json:"reasoning"`
	Status           ResultStatus `json:"status"`

	DealSnapshot DealSnapshot `json:"deal_snapshot"`
	ScoredAt     time.Time    `json:"scored_at"`
}

// ScoreSnapshot is an immutable audit copy of a ScoredResult, recorded once
// per scoring event and never updated.
type ScoreSnapshot struct {
	ID         string       `json:"id"`
	ResultID   string       `json:"result_id"`
	ListingID  string       `json:"listing_id"`
	BuyerID    string       `json:"buyer_id"`
	UniverseID string       `json:"universe_id"`
	Result     ScoredResult `json:"result"`
	RecordedAt time.Time    `json:"recorded_at"`
}
