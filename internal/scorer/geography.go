package scorer

import (
	"fmt"
	"strings"

	"github.com/sells-group/dealmatch-cli/internal/geo"
	"github.com/sells-group/dealmatch-cli/internal/model"
)

// disqualifiedMarker flags a hard geography disqualification in reasoning
// text; the composite assembler keys off it.
const disqualifiedMarker = "DISQUALIFIED"

// GeographyResult holds the geography dimension outcome.
type GeographyResult struct {
	Score      float64 `json:"score"`
	ModeFactor float64 `json:"mode_factor"`
	Reasoning  string  `json:"reasoning"`
	Tier       string  `json:"tier,omitempty"`
}

// Disqualified reports whether the geography scorer hard-disqualified the
// pair (excluded state or exclusive regional constraint).
func (r GeographyResult) Disqualified() bool {
	return strings.Contains(r.Reasoning, disqualifiedMarker)
}

// modeParams returns the multiplicative factor and score floor for a
// geography mode. Unknown modes are treated as critical.
func modeParams(mode model.GeographyMode) (factor, floor float64) {
	switch mode {
	case model.GeoModePreferred:
		return 0.6, 30
	case model.GeoModeMinimal:
		return 0.25, 50
	default:
		return 1.0, 0
	}
}

// ScoreGeography evaluates state proximity between the listing and the
// buyer's geographic signal, modulated by the tracker's geography mode.
func ScoreGeography(listing *model.Listing, buyer *model.Buyer, mode model.GeographyMode, prox geo.Proximity) GeographyResult {
	factor, floor := modeParams(mode)
	dealState := geo.Normalize(listing.State)

	// Hard exclusions first: they override mode floors entirely.
	if dealState != "" {
		for _, ex := range buyer.ExcludedStates {
			if geo.Normalize(ex) == dealState {
				return GeographyResult{
					Score:      0,
					ModeFactor: factor,
					Reasoning:  fmt.Sprintf("%s: deal state %s is on the buyer's exclusion list", disqualifiedMarker, dealState),
				}
			}
		}
		if allowed, exclusive := exclusiveRegion(buyer.Thesis); exclusive && !containsState(allowed, dealState) {
			return GeographyResult{
				Score:      0,
				ModeFactor: factor,
				Reasoning:  fmt.Sprintf("%s: buyer thesis restricts geography to a region excluding %s", disqualifiedMarker, dealState),
			}
		}
	}

	buyerStates := normalizeStates(buyer.GeographyStates())
	if dealState == "" || len(buyerStates) == 0 {
		score := floor
		if score < 50 {
			score = 50
		}
		return GeographyResult{
			Score:      score,
			ModeFactor: factor,
			Reasoning:  "limited geography data; neutral score",
		}
	}

	res := prox.Score(dealState, buyerStates)
	score := res.Score
	reasoning := res.Reasoning
	if score < floor {
		score = floor
		reasoning = fmt.Sprintf("%s (raised to %s-mode floor)", reasoning, mode)
	}

	return GeographyResult{
		Score:      round2(score),
		ModeFactor: factor,
		Reasoning:  reasoning,
		Tier:       prox.Tier(dealState, buyerStates),
	}
}

func normalizeStates(states []string) []string {
	var out []string
	for _, s := range states {
		if code := geo.Normalize(s); code != "" {
			out = append(out, code)
		}
	}
	return out
}

func containsState(states []string, code string) bool {
	for _, s := range states {
		if s == code {
			return true
		}
	}
	return false
}

// exclusivity markers that, combined with a named region or state, turn a
// thesis into a hard geographic constraint.
var exclusivityMarkers = []string{"only in", "exclusively", "limited to", "solely in", "strictly in"}

// exclusiveRegion scans thesis text for an exclusive regional constraint.
// It returns the allowed state set and whether a constraint was found. A
// marker with no recognizable region or state is ignored: we cannot enforce
// what we cannot parse.
func exclusiveRegion(thesis string) ([]string, bool) {
	lower := strings.ToLower(thesis)
	if lower == "" {
		return nil, false
	}

	marked := false
	for _, m := range exclusivityMarkers {
		if strings.Contains(lower, m) {
			marked = true
			break
		}
	}
	if !marked {
		return nil, false
	}

	var allowed []string
	for _, region := range geo.RegionNames() {
		if strings.Contains(lower, region) {
			allowed = append(allowed, geo.RegionStates(region)...)
		}
	}
	for name, code := range geo.StateNames() {
		if strings.Contains(lower, name) {
			allowed = append(allowed, code)
		}
	}

	if len(allowed) == 0 {
		return nil, false
	}
	return allowed, true
}
