package scorer

import (
	"fmt"
	"strings"

	"github.com/sells-group/dealmatch-cli/internal/model"
)

// SizeResult holds the size dimension outcome. A zero Multiplier is a hard
// disqualification signal to the composite assembler.
type SizeResult struct {
	Score      float64 `json:"score"`
	Multiplier float64 `json:"multiplier"`
	Reasoning  string  `json:"reasoning"`
}

// ScoreSize evaluates revenue/EBITDA fit between a listing and a buyer's
// stated size criteria. Revenue drives the base score; EBITDA layers on top
// and can only lower it when far below the buyer's minimum.
func ScoreSize(listing *model.Listing, buyer *model.Buyer, behavior model.BehaviorConfig) SizeResult {
	var notes []string

	// No financials on the listing at all: fit is unverifiable. How bad that
	// is depends on how specific the buyer's criteria are.
	if listing.Revenue == nil && listing.EBITDA == nil {
		switch {
		case !buyer.HasSizeCriteria():
			return SizeResult{Score: 55, Multiplier: 0.8,
				Reasoning: "no listing financials and no buyer size criteria; neutral"}
		case isFlexibleRange(buyer):
			return SizeResult{Score: 50, Multiplier: 0.75,
				Reasoning: "no listing financials; buyer's wide range tolerates uncertainty"}
		default:
			return SizeResult{Score: 35, Multiplier: 0.6,
				Reasoning: "no listing financials against narrow buyer criteria; fit unverifiable"}
		}
	}

	if !buyer.HasSizeCriteria() {
		return SizeResult{Score: 60, Multiplier: 1.0,
			Reasoning: "buyer states no size criteria; neutral"}
	}

	var score, mult float64
	if listing.Revenue != nil {
		score, mult, notes = scoreRevenue(*listing.Revenue, buyer, behavior, notes)
	} else {
		// EBITDA-only listing: start neutral-low and let the EBITDA layer
		// move the result.
		score, mult = 55, 0.8
		notes = append(notes, "revenue unknown; judging size from EBITDA")
	}

	score, mult, notes = layerEBITDA(listing, buyer, score, mult, notes)

	if behavior.PenalizeSingleLocation && listing.LocationCount != nil && *listing.LocationCount == 1 {
		score *= 0.85
		notes = append(notes, "single-location penalty applied")
	}

	return SizeResult{
		Score:      round2(clamp(score, 0, 100)),
		Multiplier: mult,
		Reasoning:  strings.Join(notes, "; "),
	}
}

// isFlexibleRange reports whether the buyer's revenue max/min ratio is >= 3,
// i.e. the buyer tolerates a wide size band.
func isFlexibleRange(buyer *model.Buyer) bool {
	if buyer.RevenueMin == nil || buyer.RevenueMax == nil || *buyer.RevenueMin <= 0 {
		return false
	}
	return *buyer.RevenueMax / *buyer.RevenueMin >= 3
}

func scoreRevenue(rev float64, buyer *model.Buyer, behavior model.BehaviorConfig, notes []string) (float64, float64, []string) {
	// Sweet spot beats range membership.
	if buyer.RevenueSweet != nil {
		if within(rev, *buyer.RevenueSweet, 0.10) {
			notes = append(notes, fmt.Sprintf("revenue %s within 10%% of sweet spot %s",
				formatMoney(rev), formatMoney(*buyer.RevenueSweet)))
			return 97, 1.0, notes
		}
		if within(rev, *buyer.RevenueSweet, 0.20) {
			notes = append(notes, fmt.Sprintf("revenue %s within 20%% of sweet spot %s",
				formatMoney(rev), formatMoney(*buyer.RevenueSweet)))
			return 90, 0.95, notes
		}
	}

	// Above the stated maximum.
	if buyer.RevenueMax != nil && rev > *buyer.RevenueMax {
		over := (rev - *buyer.RevenueMax) / *buyer.RevenueMax
		if over > 0.5 {
			notes = append(notes, fmt.Sprintf("revenue %s is more than 50%% above buyer maximum %s",
				formatMoney(rev), formatMoney(*buyer.RevenueMax)))
			return 0, 0.0, notes
		}
		notes = append(notes, fmt.Sprintf("revenue %s exceeds buyer maximum %s",
			formatMoney(rev), formatMoney(*buyer.RevenueMax)))
		return 50, 0.7, notes
	}

	// Below the stated minimum.
	if buyer.RevenueMin != nil && rev < *buyer.RevenueMin {
		gap := (*buyer.RevenueMin - rev) / *buyer.RevenueMin
		switch {
		case gap <= 0.10:
			notes = append(notes, fmt.Sprintf("revenue %s slightly below buyer minimum %s",
				formatMoney(rev), formatMoney(*buyer.RevenueMin)))
			return 62, 0.7, notes
		case gap <= 0.30:
			notes = append(notes, fmt.Sprintf("revenue %s well below buyer minimum %s",
				formatMoney(rev), formatMoney(*buyer.RevenueMin)))
			return 45, 0.5, notes
		}
		notes = append(notes, fmt.Sprintf("revenue %s is more than 30%% below buyer minimum %s",
			formatMoney(rev), formatMoney(*buyer.RevenueMin)))
		switch behavior.BelowMinimumHandling {
		case model.BelowMinDisqualify:
			return 0, 0.0, notes
		case model.BelowMinPenalize:
			return 15, 0.3, notes
		default:
			return 30, 0.5, notes
		}
	}

	// In range (or no bound violated).
	notes = append(notes, fmt.Sprintf("revenue %s within buyer range", formatMoney(rev)))
	return 80, 1.0, notes
}

// layerEBITDA applies the EBITDA rules on top of the revenue-derived score.
// Sweet-spot matches can only raise; far-below-minimum values cap.
func layerEBITDA(listing *model.Listing, buyer *model.Buyer, score, mult float64, notes []string) (float64, float64, []string) {
	if listing.EBITDA == nil {
		return score, mult, notes
	}
	eb := *listing.EBITDA

	if eb <= 0 {
		notes = append(notes, "EBITDA non-positive; excluded from size scoring")
		return score, mult, notes
	}

	if buyer.EBITDASweet != nil {
		if within(eb, *buyer.EBITDASweet, 0.10) && score < 95 {
			score, mult = 95, 1.0
			notes = append(notes, fmt.Sprintf("EBITDA %s within 10%% of sweet spot", formatMoney(eb)))
		} else if within(eb, *buyer.EBITDASweet, 0.20) && score < 88 {
			score, mult = 88, 0.95
			notes = append(notes, fmt.Sprintf("EBITDA %s within 20%% of sweet spot", formatMoney(eb)))
		}
	}

	if buyer.EBITDAMin != nil && *buyer.EBITDAMin > 0 && eb < *buyer.EBITDAMin {
		if eb < *buyer.EBITDAMin*0.5 {
			if score > 20 {
				score = 20
			}
			if mult > 0.25 {
				mult = 0.25
			}
			notes = append(notes, fmt.Sprintf("EBITDA %s under half of buyer minimum %s",
				formatMoney(eb), formatMoney(*buyer.EBITDAMin)))
		} else {
			if score > 40 {
				score = 40
			}
			if mult > 0.6 {
				mult = 0.6
			}
			notes = append(notes, fmt.Sprintf("EBITDA %s below buyer minimum %s",
				formatMoney(eb), formatMoney(*buyer.EBITDAMin)))
		}
	}

	return score, mult, notes
}
