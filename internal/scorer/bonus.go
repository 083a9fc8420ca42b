package scorer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/dealmatch-cli/internal/model"
	"github.com/sells-group/dealmatch-cli/pkg/anthropic"
)

// BonusResult is a small additive bonus with its explanation.
type BonusResult struct {
	Value     float64
	Reasoning string
}

const thesisSystemPrompt = `You are an M&A analyst judging how well a specific deal supports an acquirer's stated investment thesis. Return a score between 0 and 20, where 20 means the deal is a textbook example of the thesis and 0 means the thesis says nothing about deals like this.`

// thesisKeywordWeights drive the deterministic thesis fallback. Each pair
// found in both the thesis and the deal text adds its weight, capped at 20.
var thesisKeywordWeights = map[string]float64{
	"roll-up":           3,
	"rollup":            3,
	"platform":          3,
	"add-on":            3,
	"tuck-in":           2,
	"recurring revenue": 3,
	"multi-location":    2,
	"consolidation":     3,
	"fragmented":        2,
	"buy and build":     3,
	"route density":     2,
	"commercial":        2,
	"residential":       2,
}

// ThesisBonus computes a 0-20 additive bonus for alignment between the
// buyer's investment thesis and the deal. Theses of 30 characters or fewer
// carry no signal and earn nothing.
func ThesisBonus(ctx context.Context, listing *model.Listing, buyer *model.Buyer, classifier Classifier, metrics *Metrics) BonusResult {
	thesis := strings.TrimSpace(buyer.Thesis)
	if len(thesis) <= 30 {
		return BonusResult{Value: 0, Reasoning: "no substantive thesis on file"}
	}

	if classifier != nil {
		if metrics != nil {
			metrics.AICalls++
		}
		res, err := classifier.Classify(ctx, anthropic.ClassifyRequest{
			System:    thesisSystemPrompt,
			DealText:  thesisDealText(listing),
			BuyerText: thesis,
		})
		if err != nil {
			zap.L().Warn("thesis classification failed, using keyword pairs",
				zap.String("buyer_id", buyer.ID),
				zap.Error(err))
			if metrics != nil {
				metrics.AIFallbacks++
			}
		} else {
			bonus := clamp(res.Score, 0, 20)
			return BonusResult{Value: bonus, Reasoning: res.Reasoning}
		}
	}

	return thesisKeywordBonus(thesis, listing)
}

func thesisKeywordBonus(thesis string, listing *model.Listing) BonusResult {
	dealText := strings.ToLower(thesisDealText(listing))
	thesisLower := strings.ToLower(thesis)

	var (
		total float64
		hits  []string
	)
	for kw, weight := range thesisKeywordWeights {
		if strings.Contains(thesisLower, kw) && strings.Contains(dealText, kw) {
			total += weight
			hits = append(hits, kw)
		}
	}
	if total == 0 {
		return BonusResult{Value: 0, Reasoning: "no thesis keyword alignment"}
	}
	if total > 20 {
		total = 20
	}
	return BonusResult{
		Value:     total,
		Reasoning: fmt.Sprintf("thesis alignment on %s", strings.Join(hits, ", ")),
	}
}

func thesisDealText(listing *model.Listing) string {
	parts := []string{listing.Name, strings.Join(listing.Services, ", "), listing.Category, listing.Description}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ". ")
}

// DataQualityBonus rewards buyer-profile completeness, capped at 10. A
// well-documented buyer earns a small edge over a thin profile.
func DataQualityBonus(buyer *model.Buyer) BonusResult {
	var (
		total float64
		notes []string
	)
	if len(strings.TrimSpace(buyer.Thesis)) > 50 {
		total += 3
		notes = append(notes, "thesis")
	}
	if len(buyer.TargetServices) > 0 {
		total += 2
		notes = append(notes, "target services")
	}
	if len(buyer.TargetGeographies) > 0 {
		total += 2
		notes = append(notes, "target geographies")
	}
	if buyer.RevenueMin != nil || buyer.RevenueMax != nil {
		total += 2
		notes = append(notes, "revenue range")
	}
	if len(buyer.KeyQuotes) > 0 {
		total += 1
		notes = append(notes, "key quotes")
	}
	if total > 10 {
		total = 10
	}
	if total == 0 {
		return BonusResult{Value: 0, Reasoning: "thin buyer profile"}
	}
	return BonusResult{
		Value:     total,
		Reasoning: "buyer profile completeness: " + strings.Join(notes, ", "),
	}
}
