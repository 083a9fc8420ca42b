package model

// BelowMinimumHandling controls how far-below-minimum deals are treated by
// the size scorer.
type BelowMinimumHandling string

const (
	BelowMinDisqualify BelowMinimumHandling = "disqualify"
	BelowMinPenalize   BelowMinimumHandling = "penalize"
	BelowMinAllow      BelowMinimumHandling = "allow"
)

// DimensionWeights holds the nominal per-dimension weights for a scoring run.
type DimensionWeights struct {
	Size       float64 `json:"size" yaml:"size"`
	Geography  float64 `json:"geography" yaml:"geography"`
	Service    float64 `json:"service" yaml:"service"`
	OwnerGoals float64 `json:"owner_goals" yaml:"owner_goals"`
}

// Total returns the sum of the configured weights.
func (w DimensionWeights) Total() float64 {
	return w.Size + w.Geography + w.Service + w.OwnerGoals
}

// DefaultWeights returns the standard 30/20/45/5 weight split.
func DefaultWeights() DimensionWeights {
	return DimensionWeights{Size: 30, Geography: 20, Service: 45, OwnerGoals: 5}
}

// BehaviorConfig holds the strictness knobs for a scoring run.
type BehaviorConfig struct {
	BelowMinimumHandling   BelowMinimumHandling `json:"below_minimum_handling" yaml:"below_minimum_handling"`
	PenalizeSingleLocation bool                 `json:"penalize_single_location" yaml:"penalize_single_location"`
	AllowSemanticMatch     bool                 `json:"allow_semantic_match" yaml:"allow_semantic_match"`
	GeographyStrictness    string               `json:"geography_strictness,omitempty" yaml:"geography_strictness"`
}

// Universe is the per-scoring-run configuration: which buyers are in play,
// how dimensions are weighted, and how edge cases are handled.
type Universe struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Weights          DimensionWeights `json:"weights"`
	Behavior         BehaviorConfig   `json:"behavior"`
	PrimaryFocus     string           `json:"primary_focus,omitempty"`
	ExcludedServices []string         `json:"excluded_services,omitempty"`
}

// GeographyMode controls how heavily geography can hurt a composite score.
type GeographyMode string

const (
	GeoModeCritical  GeographyMode = "critical"
	GeoModePreferred GeographyMode = "preferred"
	GeoModeMinimal   GeographyMode = "minimal"
)

// IndustryTracker carries per-buyer tracker configuration: the geography
// mode and an optional override of the service adjacency map.
type IndustryTracker struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	GeographyMode    GeographyMode       `json:"geography_mode"`
	ServiceAdjacency map[string][]string `json:"service_adjacency,omitempty"`
}
