package scorer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/dealmatch-cli/internal/model"
	"github.com/sells-group/dealmatch-cli/pkg/anthropic"
)

// Confidence labels for the owner-goals dimension.
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// OwnerGoalsResult is the seller-alignment dimension outcome.
type OwnerGoalsResult struct {
	Score      float64
	Confidence string
	Reasoning  string
}

// Seller-goal categories detected in owner-goals text.
const (
	goalCashExit        = "cash-exit"
	goalGrowthPartner   = "growth-partner"
	goalQuickExit       = "quick-exit"
	goalStayLong        = "stay-long"
	goalRetainEmployees = "retain-employees"
	goalKeepAutonomy    = "keep-autonomy"
)

var goalKeywords = map[string][]string{
	goalCashExit:        {"full exit", "cash out", "retire", "retirement", "clean exit", "sell outright", "100% sale"},
	goalGrowthPartner:   {"growth partner", "growth capital", "scale the business", "next level", "roll equity", "second bite", "capital partner"},
	goalQuickExit:       {"quick sale", "fast close", "close quickly", "as soon as possible", "urgent", "immediately"},
	goalStayLong:        {"stay on", "remain involved", "continue to run", "long-term role", "stay with the business"},
	goalRetainEmployees: {"employees", "staff", "keep the team", "take care of our people", "workforce"},
	goalKeepAutonomy:    {"autonomy", "independence", "operate independently", "keep the brand", "hands-off", "legacy", "keep our name"},
}

// buyerTypeNorms holds the deterministic base score for each seller-goal
// category by buyer type. A family office tolerates long owner involvement
// that a strategic acquirer does not, and so on.
var buyerTypeNorms = map[model.BuyerType]map[string]float64{
	model.BuyerTypeFinancialSponsor: {
		goalCashExit: 75, goalGrowthPartner: 85, goalQuickExit: 60,
		goalStayLong: 70, goalRetainEmployees: 65, goalKeepAutonomy: 55,
	},
	model.BuyerTypeOperatingPlatform: {
		goalCashExit: 80, goalGrowthPartner: 70, goalQuickExit: 75,
		goalStayLong: 55, goalRetainEmployees: 75, goalKeepAutonomy: 40,
	},
	model.BuyerTypeStrategicAcquirer: {
		goalCashExit: 85, goalGrowthPartner: 60, goalQuickExit: 80,
		goalStayLong: 50, goalRetainEmployees: 60, goalKeepAutonomy: 35,
	},
	model.BuyerTypeFamilyOffice: {
		goalCashExit: 70, goalGrowthPartner: 80, goalQuickExit: 50,
		goalStayLong: 85, goalRetainEmployees: 85, goalKeepAutonomy: 80,
	},
	model.BuyerTypeIndividual: {
		goalCashExit: 75, goalGrowthPartner: 65, goalQuickExit: 70,
		goalStayLong: 60, goalRetainEmployees: 70, goalKeepAutonomy: 65,
	},
}

// forbiddenTypeMarkers maps special-requirements phrases to the buyer type
// they rule out.
var forbiddenTypeMarkers = map[string]model.BuyerType{
	"no private equity":    model.BuyerTypeFinancialSponsor,
	"no pe firms":          model.BuyerTypeFinancialSponsor,
	"no financial buyers":  model.BuyerTypeFinancialSponsor,
	"no strategics":        model.BuyerTypeStrategicAcquirer,
	"no strategic buyers":  model.BuyerTypeStrategicAcquirer,
	"no competitors":       model.BuyerTypeStrategicAcquirer,
	"no individual buyers": model.BuyerTypeIndividual,
}

const ownerGoalsSystemPrompt = `You are an M&A analyst judging how well a seller's stated goals align with what a given type of buyer typically offers. Consider exit structure, post-close involvement, employee treatment, and operational autonomy. Score 80+ only when the seller's goals map cleanly onto this buyer type's usual deal behavior.`

// ScoreOwnerGoals scores the alignment between the seller's stated goals and
// the buyer's typical behavior. The AI path is preferred when a classifier is
// available; any failure falls back to the buyer-type norms table.
func ScoreOwnerGoals(ctx context.Context, listing *model.Listing, buyer *model.Buyer, classifier Classifier, metrics *Metrics) OwnerGoalsResult {
	goalsText := ownerGoalsText(listing)

	res := ownerGoalsFromNorms(goalsText, buyer)

	if classifier != nil && goalsText != "" {
		if metrics != nil {
			metrics.AICalls++
		}
		ai, err := classifier.Classify(ctx, anthropic.ClassifyRequest{
			System:    ownerGoalsSystemPrompt,
			DealText:  goalsText,
			BuyerText: ownerGoalsBuyerText(buyer),
		})
		if err != nil {
			zap.L().Warn("owner goals classification failed, using norms table",
				zap.String("listing_id", listing.ID),
				zap.String("buyer_id", buyer.ID),
				zap.Error(err))
			if metrics != nil {
				metrics.AIFallbacks++
			}
		} else {
			res = OwnerGoalsResult{Score: ai.Score, Confidence: ConfidenceHigh, Reasoning: ai.Reasoning}
		}
	}

	if reason := forbiddenType(listing.SpecialRequirements, buyer.Type); reason != "" {
		res.Score = clamp(res.Score-25, 0, 100)
		res.Reasoning += "; " + reason
	}
	return res
}

// ownerGoalsFromNorms matches keyword categories in the goals text against
// the buyer-type norms table. No match yields a neutral base score at low
// confidence.
func ownerGoalsFromNorms(goalsText string, buyer *model.Buyer) OwnerGoalsResult {
	norms, ok := buyerTypeNorms[buyer.Type]
	if !ok {
		norms = buyerTypeNorms[model.BuyerTypeIndividual]
	}

	var (
		total   float64
		matched []string
	)
	for category, keywords := range goalKeywords {
		if len(matchKeywords(keywords, goalsText)) > 0 {
			total += norms[category]
			matched = append(matched, category)
		}
	}

	if len(matched) == 0 {
		return OwnerGoalsResult{
			Score:      60,
			Confidence: ConfidenceLow,
			Reasoning:  "no specific seller goals detected, neutral alignment assumed",
		}
	}
	return OwnerGoalsResult{
		Score:      round2(total / float64(len(matched))),
		Confidence: ConfidenceMedium,
		Reasoning:  fmt.Sprintf("seller goals (%s) scored against %s norms", strings.Join(matched, ", "), buyer.Type),
	}
}

func ownerGoalsText(listing *model.Listing) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{listing.OwnerGoals, listing.SellerMotivation, listing.SpecialRequirements} {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, strings.TrimSpace(s))
		}
	}
	return strings.Join(parts, ". ")
}

func ownerGoalsBuyerText(buyer *model.Buyer) string {
	parts := []string{fmt.Sprintf("Buyer type: %s", buyer.Type)}
	if buyer.Thesis != "" {
		parts = append(parts, "Thesis: "+buyer.Thesis)
	}
	if buyer.DealPreferences != "" {
		parts = append(parts, "Deal preferences: "+buyer.DealPreferences)
	}
	if len(buyer.DealBreakers) > 0 {
		parts = append(parts, "Deal breakers: "+strings.Join(buyer.DealBreakers, "; "))
	}
	return strings.Join(parts, "\n")
}

func forbiddenType(requirements string, buyerType model.BuyerType) string {
	lower := strings.ToLower(requirements)
	for marker, forbidden := range forbiddenTypeMarkers {
		if forbidden == buyerType && strings.Contains(lower, marker) {
			return fmt.Sprintf("seller requirements forbid %s buyers", buyerType)
		}
	}
	return ""
}
