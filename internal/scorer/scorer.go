// Package scorer implements the buyer-deal fit scoring engine: per-dimension
// scorers, bonus and penalty calculators, and the composite assembler that
// combines them into a 0-100 score, tier, and rationale.
package scorer

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/dealmatch-cli/pkg/anthropic"
)

// Classifier is the AI capability consumed by the service, owner-goals, and
// thesis scorers. A nil classifier means deterministic-only scoring.
type Classifier = anthropic.Classifier

// Metrics counts scoring events for one run. The orchestrator owns the
// lifecycle; scorers only increment.
type Metrics struct {
	AIFallbacks  int `json:"ai_fallbacks"`
	AICalls      int `json:"ai_calls"`
	Scored       int `json:"scored"`
	Disqualified int `json:"disqualified"`
}

// matchKeywords returns all keywords that appear (case-insensitive) in the
// given texts.
func matchKeywords(keywords []string, texts ...string) []string {
	var combined string
	for _, t := range texts {
		if t != "" {
			combined += " " + strings.ToLower(t)
		}
	}
	if combined == "" {
		return nil
	}

	var matched []string
	for _, kw := range keywords {
		if strings.Contains(combined, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}
	return matched
}

// containsFold reports whether needle appears in haystack, case-insensitive.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

var moneyPrinter = message.NewPrinter(language.AmericanEnglish)

// formatMoney renders a dollar amount with thousands separators for
// reasoning strings ("$5,000,000").
func formatMoney(v float64) string {
	return moneyPrinter.Sprintf("$%.0f", v)
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// round2 rounds to two decimal places, matching stored score precision.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// within reports whether v is within frac of target (e.g. frac=0.10 for
// ±10%). Non-positive targets never match.
func within(v, target, frac float64) bool {
	if target <= 0 {
		return false
	}
	return math.Abs(v-target) <= target*frac
}
