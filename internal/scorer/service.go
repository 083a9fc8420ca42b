package scorer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/dealmatch-cli/internal/model"
	"github.com/sells-group/dealmatch-cli/pkg/anthropic"
)

// ServiceResult is the service-fit dimension outcome.
type ServiceResult struct {
	Score        float64
	Multiplier   float64
	Reasoning    string
	Disqualified bool
}

const serviceSystemPrompt = `You are an M&A analyst judging how well a target company's service lines fit an acquirer's service interests. Consider direct overlap, adjacent capabilities, and cross-sell potential. A score of 90+ means the deal is squarely in the buyer's wheelhouse; below 30 means the service lines are unrelated.`

// ScoreService scores the service-line fit between a listing and a buyer.
// When the universe allows semantic matching and a classifier is available it
// asks the model first, falling back to keyword overlap on any error.
func ScoreService(ctx context.Context, listing *model.Listing, buyer *model.Buyer, universe *model.Universe, adjacency map[string][]string, classifier Classifier, metrics *Metrics) ServiceResult {
	primary := listing.PrimaryService()

	if reason := excludedService(primary, buyer, universe); reason != "" {
		return ServiceResult{Score: 0, Multiplier: 0, Reasoning: reason, Disqualified: true}
	}

	if !listing.HasServices() {
		return ServiceResult{Score: 45, Multiplier: 0.7, Reasoning: "no service data on listing"}
	}
	if !buyer.HasServiceSignal() {
		return ServiceResult{Score: 50, Multiplier: 0.7, Reasoning: "buyer has no stated service focus"}
	}

	var (
		score     float64
		reasoning string
	)

	if universe.Behavior.AllowSemanticMatch && classifier != nil {
		res, err := classifyService(ctx, listing, buyer, classifier, metrics)
		if err != nil {
			zap.L().Warn("service classification failed, using keyword overlap",
				zap.String("listing_id", listing.ID),
				zap.String("buyer_id", buyer.ID),
				zap.Error(err))
			if metrics != nil {
				metrics.AIFallbacks++
			}
			score, reasoning = keywordOverlap(listing, buyer, adjacency)
		} else {
			score, reasoning = res.Score, res.Reasoning
		}
	} else {
		score, reasoning = keywordOverlap(listing, buyer, adjacency)
	}

	if bonus, note := primaryFocusBonus(primary, buyer, universe); bonus > 0 {
		score += bonus
		reasoning += "; " + note
	}
	score = clamp(score, 0, 100)

	return ServiceResult{Score: score, Multiplier: serviceMultiplier(score), Reasoning: reasoning}
}

func classifyService(ctx context.Context, listing *model.Listing, buyer *model.Buyer, classifier Classifier, metrics *Metrics) (*anthropic.ClassifyResult, error) {
	if metrics != nil {
		metrics.AICalls++
	}
	dealText := strings.Join(listing.Services, ", ")
	if listing.Category != "" {
		dealText += " (" + listing.Category + ")"
	}
	if listing.Description != "" {
		dealText += ". " + listing.Description
	}
	return classifier.Classify(ctx, anthropic.ClassifyRequest{
		System:    serviceSystemPrompt,
		DealText:  dealText,
		BuyerText: buyer.ServiceText(),
	})
}

// keywordOverlap computes the share of listing service lines that appear in
// the buyer's service text, then maps it onto a score band. Zero direct
// overlap falls through to the adjacency map.
func keywordOverlap(listing *model.Listing, buyer *model.Buyer, adjacency map[string][]string) (float64, string) {
	buyerText := buyer.ServiceText()
	lines := serviceLines(listing)

	matched := 0
	for _, svc := range lines {
		if serviceMatches(svc, buyerText) {
			matched++
		}
	}

	total := len(lines)
	pct := float64(matched) / float64(total) * 100

	switch {
	case pct >= 80:
		return 90, fmt.Sprintf("strong service overlap (%d of %d lines match buyer focus)", matched, total)
	case pct >= 50:
		return 75, fmt.Sprintf("good service overlap (%d of %d lines match buyer focus)", matched, total)
	case pct >= 25:
		return 55, fmt.Sprintf("partial service overlap (%d of %d lines match buyer focus)", matched, total)
	case pct > 0:
		return 40, fmt.Sprintf("weak service overlap (%d of %d lines match buyer focus)", matched, total)
	}

	if related := adjacentMatch(lines, buyerText, adjacency); related != "" {
		return 45, fmt.Sprintf("no direct overlap, but %s is adjacent to buyer focus", related)
	}
	return 22, "no service overlap with buyer focus"
}

// serviceLines returns the listing's service lines, folding the category in
// when it adds a signal the lines do not already carry. A category-only
// listing still gets a real overlap comparison this way.
func serviceLines(listing *model.Listing) []string {
	lines := append([]string(nil), listing.Services...)
	if listing.Category == "" {
		return lines
	}
	for _, svc := range lines {
		if containsFold(svc, listing.Category) || containsFold(listing.Category, svc) {
			return lines
		}
	}
	return append(lines, listing.Category)
}

// serviceMatches reports whether a listing service line appears in the
// buyer's combined service text, either as a whole phrase or by any
// meaningful word.
func serviceMatches(svc, buyerText string) bool {
	svc = strings.ToLower(strings.TrimSpace(svc))
	if svc == "" {
		return false
	}
	if strings.Contains(buyerText, svc) {
		return true
	}
	for _, word := range strings.Fields(svc) {
		if len(word) > 3 && strings.Contains(buyerText, word) {
			return true
		}
	}
	return false
}

func adjacentMatch(services []string, buyerText string, adjacency map[string][]string) string {
	for _, svc := range services {
		key := strings.ToLower(strings.TrimSpace(svc))
		for mapped, related := range adjacency {
			if !strings.Contains(key, mapped) && !strings.Contains(mapped, key) {
				continue
			}
			for _, rel := range related {
				if strings.Contains(buyerText, rel) {
					return svc
				}
			}
		}
	}
	return ""
}

func primaryFocusBonus(primary string, buyer *model.Buyer, universe *model.Universe) (float64, string) {
	if primary == "" {
		return 0, ""
	}
	if universe.PrimaryFocus != "" && containsFold(primary, universe.PrimaryFocus) {
		return 10, "primary service matches universe focus"
	}
	if len(buyer.TargetServices) > 0 && containsFold(primary, buyer.TargetServices[0]) {
		return 5, "primary service matches buyer's top target"
	}
	return 0, ""
}

func excludedService(primary string, buyer *model.Buyer, universe *model.Universe) string {
	if primary == "" {
		return ""
	}
	for _, excl := range buyer.ExcludedServices {
		if containsFold(primary, excl) {
			return fmt.Sprintf("primary service %q is excluded by buyer", primary)
		}
	}
	for _, excl := range universe.ExcludedServices {
		if containsFold(primary, excl) {
			return fmt.Sprintf("primary service %q is excluded in this universe", primary)
		}
	}
	return ""
}

// serviceMultiplier gates the composite on service fit. A zero service score
// zeroes the deal for that buyer.
func serviceMultiplier(score float64) float64 {
	switch {
	case score == 0:
		return 0.0
	case score <= 20:
		return 0.15
	case score <= 40:
		return 0.4
	case score <= 60:
		return 0.7
	case score <= 80:
		return 0.9
	default:
		return 1.0
	}
}
