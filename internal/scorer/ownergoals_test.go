package scorer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/dealmatch-cli/internal/model"
	"github.com/sells-group/dealmatch-cli/pkg/anthropic"
)

func TestMatchKeywordsAcrossTexts(t *testing.T) {
	matched := matchKeywords([]string{"retire", "urgent", "legacy"},
		"Owner plans to RETIRE within two years", "", "wants to protect the company legacy")

	assert.Equal(t, []string{"retire", "legacy"}, matched)
	assert.Nil(t, matchKeywords([]string{"retire"}, "", ""))
}

func TestScoreOwnerGoalsNoGoalsText(t *testing.T) {
	listing := &model.Listing{ID: "l1"}
	buyer := &model.Buyer{ID: "b1", Type: model.BuyerTypeFinancialSponsor}

	res := ScoreOwnerGoals(context.Background(), listing, buyer, nil, nil)

	assert.Equal(t, 60.0, res.Score)
	assert.Equal(t, ConfidenceLow, res.Confidence)
}

func TestScoreOwnerGoalsNormsByBuyerType(t *testing.T) {
	listing := &model.Listing{ID: "l1", OwnerGoals: "Owner wants a full exit and to retire."}

	sponsor := &model.Buyer{ID: "b1", Type: model.BuyerTypeFinancialSponsor}
	strategic := &model.Buyer{ID: "b2", Type: model.BuyerTypeStrategicAcquirer}

	resSponsor := ScoreOwnerGoals(context.Background(), listing, sponsor, nil, nil)
	resStrategic := ScoreOwnerGoals(context.Background(), listing, strategic, nil, nil)

	assert.Equal(t, 75.0, resSponsor.Score)
	assert.Equal(t, 85.0, resStrategic.Score)
	assert.Equal(t, ConfidenceMedium, resSponsor.Confidence)
}

func TestScoreOwnerGoalsMultipleCategoriesAveraged(t *testing.T) {
	listing := &model.Listing{
		ID:         "l1",
		OwnerGoals: "Full exit for the owner, but we must keep the team in place.",
	}
	buyer := &model.Buyer{ID: "b1", Type: model.BuyerTypeFamilyOffice}

	res := ScoreOwnerGoals(context.Background(), listing, buyer, nil, nil)

	// cash-exit 70 and retain-employees 85 average to 77.5.
	assert.Equal(t, 77.5, res.Score)
	assert.Equal(t, ConfidenceMedium, res.Confidence)
}

func TestScoreOwnerGoalsForbiddenTypePenalty(t *testing.T) {
	listing := &model.Listing{
		ID:                  "l1",
		OwnerGoals:          "Owner wants a full exit.",
		SpecialRequirements: "No private equity buyers.",
	}
	buyer := &model.Buyer{ID: "b1", Type: model.BuyerTypeFinancialSponsor}

	res := ScoreOwnerGoals(context.Background(), listing, buyer, nil, nil)

	// cash-exit norm 75 minus the forbidden-type penalty.
	assert.Equal(t, 50.0, res.Score)
	assert.Contains(t, res.Reasoning, "forbid")
}

func TestScoreOwnerGoalsForbiddenTypeOtherBuyerUnaffected(t *testing.T) {
	listing := &model.Listing{
		ID:                  "l1",
		OwnerGoals:          "Owner wants a full exit.",
		SpecialRequirements: "No private equity buyers.",
	}
	buyer := &model.Buyer{ID: "b1", Type: model.BuyerTypeFamilyOffice}

	res := ScoreOwnerGoals(context.Background(), listing, buyer, nil, nil)

	assert.Equal(t, 70.0, res.Score)
}

func TestScoreOwnerGoalsAIPath(t *testing.T) {
	listing := &model.Listing{ID: "l1", OwnerGoals: "Owner wants a growth partner."}
	buyer := &model.Buyer{ID: "b1", Type: model.BuyerTypeFinancialSponsor}
	classifier := &stubClassifier{res: &anthropic.ClassifyResult{Score: 88, Reasoning: "growth capital is the sponsor's core model"}}

	res := ScoreOwnerGoals(context.Background(), listing, buyer, classifier, nil)

	assert.Equal(t, 88.0, res.Score)
	assert.Equal(t, ConfidenceHigh, res.Confidence)
}

func TestScoreOwnerGoalsAIFailureFallsBack(t *testing.T) {
	listing := &model.Listing{ID: "l1", OwnerGoals: "Owner wants a growth partner."}
	buyer := &model.Buyer{ID: "b1", Type: model.BuyerTypeFinancialSponsor}
	classifier := &stubClassifier{err: errClassifier}
	metrics := &Metrics{}

	res := ScoreOwnerGoals(context.Background(), listing, buyer, classifier, metrics)

	assert.Equal(t, 85.0, res.Score)
	assert.Equal(t, ConfidenceMedium, res.Confidence)
	assert.Equal(t, 1, metrics.AIFallbacks)
}
