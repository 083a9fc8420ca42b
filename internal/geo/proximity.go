// Package geo provides the state-proximity capability used by the geography
// scorer. The default implementation is a static US-state adjacency and
// region table; callers depend only on the Proximity interface.
package geo

import (
	"fmt"
	"strings"
)

// Proximity tiers, strongest to weakest.
const (
	TierExact    = "exact"
	TierAdjacent = "adjacent"
	TierRegional = "regional"
	TierDistant  = "distant"
)

// Result holds a proximity lookup outcome.
type Result struct {
	Score     float64
	Reasoning string
}

// Proximity scores how close a deal's state is to a buyer's footprint.
type Proximity interface {
	Score(dealState string, buyerStates []string) Result
	Tier(dealState string, buyerStates []string) string
}

// tier scores for the static table.
const (
	scoreExact    = 100
	scoreAdjacent = 75
	scoreRegional = 55
	scoreDistant  = 25
)

// StateTable is the default Proximity implementation backed by the adjacency
// and region maps below.
type StateTable struct{}

// NewStateTable returns the default static proximity table.
func NewStateTable() *StateTable {
	return &StateTable{}
}

func (t *StateTable) Tier(dealState string, buyerStates []string) string {
	deal := Normalize(dealState)
	if deal == "" || len(buyerStates) == 0 {
		return TierDistant
	}

	best := TierDistant
	for _, bs := range buyerStates {
		b := Normalize(bs)
		if b == "" {
			continue
		}
		switch {
		case b == deal:
			return TierExact
		case adjacentTo(deal, b):
			best = TierAdjacent
		case best != TierAdjacent && sameRegion(deal, b):
			best = TierRegional
		}
	}
	return best
}

func (t *StateTable) Score(dealState string, buyerStates []string) Result {
	tier := t.Tier(dealState, buyerStates)
	deal := Normalize(dealState)

	switch tier {
	case TierExact:
		return Result{Score: scoreExact, Reasoning: fmt.Sprintf("deal state %s is in the buyer's footprint", deal)}
	case TierAdjacent:
		return Result{Score: scoreAdjacent, Reasoning: fmt.Sprintf("deal state %s borders the buyer's footprint", deal)}
	case TierRegional:
		return Result{Score: scoreRegional, Reasoning: fmt.Sprintf("deal state %s shares a region with the buyer's footprint", deal)}
	default:
		return Result{Score: scoreDistant, Reasoning: fmt.Sprintf("deal state %s is distant from the buyer's footprint", deal)}
	}
}

func adjacentTo(a, b string) bool {
	for _, n := range stateAdjacency[a] {
		if n == b {
			return true
		}
	}
	return false
}

func sameRegion(a, b string) bool {
	return stateRegion[a] != "" && stateRegion[a] == stateRegion[b]
}

// Normalize maps a state name or postal code to its two-letter code.
// Unrecognized inputs return "".
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	upper := strings.ToUpper(s)
	if len(upper) == 2 {
		if _, ok := stateRegion[upper]; ok {
			return upper
		}
		return ""
	}
	if code, ok := stateNames[strings.ToLower(s)]; ok {
		return code
	}
	return ""
}

// RegionStates returns the state codes belonging to a named region
// (e.g. "southeast"), or nil for an unknown region.
func RegionStates(region string) []string {
	return namedRegions[strings.ToLower(strings.TrimSpace(region))]
}

// RegionNames returns the colloquial region names recognized by RegionStates.
func RegionNames() []string {
	names := make([]string, 0, len(namedRegions))
	for name := range namedRegions {
		names = append(names, name)
	}
	return names
}

// StateNames returns the full-name → postal-code map for state mention
// detection in free text.
func StateNames() map[string]string {
	return stateNames
}
