package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/dealmatch-cli/internal/model"
)

func TestScoreSizeNoFinancialsNoCriteria(t *testing.T) {
	listing := &model.Listing{ID: "l1"}
	buyer := &model.Buyer{ID: "b1"}

	res := ScoreSize(listing, buyer, model.BehaviorConfig{})

	assert.Equal(t, 55.0, res.Score)
	assert.Equal(t, 0.8, res.Multiplier)
}

func TestScoreSizeNoFinancialsFlexibleBuyer(t *testing.T) {
	listing := &model.Listing{ID: "l1"}
	buyer := &model.Buyer{ID: "b1", RevenueMin: f64(2_000_000), RevenueMax: f64(10_000_000)}

	res := ScoreSize(listing, buyer, model.BehaviorConfig{})

	assert.Equal(t, 50.0, res.Score)
	assert.Equal(t, 0.75, res.Multiplier)
}

func TestScoreSizeNoFinancialsNarrowBuyer(t *testing.T) {
	listing := &model.Listing{ID: "l1"}
	buyer := &model.Buyer{ID: "b1", RevenueMin: f64(8_000_000), RevenueMax: f64(12_000_000)}

	res := ScoreSize(listing, buyer, model.BehaviorConfig{})

	assert.Equal(t, 35.0, res.Score)
	assert.Equal(t, 0.6, res.Multiplier)
}

func TestScoreSizeBuyerWithoutCriteria(t *testing.T) {
	listing := &model.Listing{ID: "l1", Revenue: f64(5_000_000)}
	buyer := &model.Buyer{ID: "b1"}

	res := ScoreSize(listing, buyer, model.BehaviorConfig{})

	assert.Equal(t, 60.0, res.Score)
	assert.Equal(t, 1.0, res.Multiplier)
}

func TestScoreSizeSweetSpot(t *testing.T) {
	buyer := &model.Buyer{ID: "b1", RevenueSweet: f64(10_000_000)}

	tests := []struct {
		name    string
		revenue float64
		score   float64
		mult    float64
	}{
		{"exact", 10_000_000, 97, 1.0},
		{"within 10 percent", 10_900_000, 97, 1.0},
		{"within 20 percent", 11_800_000, 90, 0.95},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listing := &model.Listing{ID: "l1", Revenue: f64(tt.revenue)}
			res := ScoreSize(listing, buyer, model.BehaviorConfig{})
			assert.Equal(t, tt.score, res.Score)
			assert.Equal(t, tt.mult, res.Multiplier)
		})
	}
}

func TestScoreSizeInRange(t *testing.T) {
	listing := &model.Listing{ID: "l1", Revenue: f64(8_000_000)}
	buyer := &model.Buyer{ID: "b1", RevenueMin: f64(5_000_000), RevenueMax: f64(25_000_000)}

	res := ScoreSize(listing, buyer, model.BehaviorConfig{})

	assert.Equal(t, 80.0, res.Score)
	assert.Equal(t, 1.0, res.Multiplier)
}

func TestScoreSizeAboveMax(t *testing.T) {
	buyer := &model.Buyer{ID: "b1", RevenueMax: f64(10_000_000)}

	res := ScoreSize(&model.Listing{ID: "l1", Revenue: f64(12_000_000)}, buyer, model.BehaviorConfig{})
	assert.Equal(t, 50.0, res.Score)
	assert.Equal(t, 0.7, res.Multiplier)

	res = ScoreSize(&model.Listing{ID: "l1", Revenue: f64(16_000_000)}, buyer, model.BehaviorConfig{})
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, 0.0, res.Multiplier)
}

func TestScoreSizeBelowMin(t *testing.T) {
	buyer := &model.Buyer{ID: "b1", RevenueMin: f64(10_000_000)}

	res := ScoreSize(&model.Listing{ID: "l1", Revenue: f64(9_500_000)}, buyer, model.BehaviorConfig{})
	assert.Equal(t, 62.0, res.Score)
	assert.Equal(t, 0.7, res.Multiplier)

	res = ScoreSize(&model.Listing{ID: "l1", Revenue: f64(7_500_000)}, buyer, model.BehaviorConfig{})
	assert.Equal(t, 45.0, res.Score)
	assert.Equal(t, 0.5, res.Multiplier)
}

func TestScoreSizeFarBelowMinByPolicy(t *testing.T) {
	buyer := &model.Buyer{ID: "b1", RevenueMin: f64(10_000_000)}
	listing := &model.Listing{ID: "l1", Revenue: f64(4_000_000)}

	tests := []struct {
		policy model.BelowMinimumHandling
		score  float64
		mult   float64
	}{
		{model.BelowMinDisqualify, 0, 0.0},
		{model.BelowMinPenalize, 15, 0.3},
		{model.BelowMinAllow, 30, 0.5},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			res := ScoreSize(listing, buyer, model.BehaviorConfig{BelowMinimumHandling: tt.policy})
			assert.Equal(t, tt.score, res.Score)
			assert.Equal(t, tt.mult, res.Multiplier)
		})
	}
}

func TestScoreSizeEBITDACaps(t *testing.T) {
	buyer := &model.Buyer{
		ID:         "b1",
		RevenueMin: f64(5_000_000),
		RevenueMax: f64(25_000_000),
		EBITDAMin:  f64(2_000_000),
	}

	// Under half the EBITDA minimum caps hard.
	res := ScoreSize(&model.Listing{ID: "l1", Revenue: f64(8_000_000), EBITDA: f64(800_000)}, buyer, model.BehaviorConfig{})
	assert.Equal(t, 20.0, res.Score)
	assert.Equal(t, 0.25, res.Multiplier)

	// Below the minimum but above half caps softer.
	res = ScoreSize(&model.Listing{ID: "l1", Revenue: f64(8_000_000), EBITDA: f64(1_500_000)}, buyer, model.BehaviorConfig{})
	assert.Equal(t, 40.0, res.Score)
	assert.Equal(t, 0.6, res.Multiplier)
}

func TestScoreSizeEBITDASweetSpotRaises(t *testing.T) {
	buyer := &model.Buyer{
		ID:          "b1",
		RevenueMin:  f64(5_000_000),
		RevenueMax:  f64(25_000_000),
		EBITDASweet: f64(1_200_000),
	}
	listing := &model.Listing{ID: "l1", Revenue: f64(8_000_000), EBITDA: f64(1_200_000)}

	res := ScoreSize(listing, buyer, model.BehaviorConfig{})

	assert.Equal(t, 95.0, res.Score)
	assert.Equal(t, 1.0, res.Multiplier)
}

func TestScoreSizeNonPositiveEBITDAIgnored(t *testing.T) {
	buyer := &model.Buyer{ID: "b1", RevenueMin: f64(5_000_000), RevenueMax: f64(25_000_000), EBITDAMin: f64(1_000_000)}
	listing := &model.Listing{ID: "l1", Revenue: f64(8_000_000), EBITDA: f64(-200_000)}

	res := ScoreSize(listing, buyer, model.BehaviorConfig{})

	assert.Equal(t, 80.0, res.Score)
	assert.Contains(t, res.Reasoning, "non-positive")
}

func TestScoreSizeEBITDAOnlyListing(t *testing.T) {
	buyer := &model.Buyer{ID: "b1", EBITDAMin: f64(1_000_000), EBITDAMax: f64(5_000_000)}
	listing := &model.Listing{ID: "l1", EBITDA: f64(2_000_000)}

	res := ScoreSize(listing, buyer, model.BehaviorConfig{})

	assert.Equal(t, 55.0, res.Score)
	assert.Equal(t, 0.8, res.Multiplier)
	assert.Contains(t, res.Reasoning, "revenue unknown")
}

func TestScoreSizeSingleLocationPenalty(t *testing.T) {
	buyer := &model.Buyer{ID: "b1", RevenueMin: f64(5_000_000), RevenueMax: f64(25_000_000)}
	listing := &model.Listing{ID: "l1", Revenue: f64(8_000_000), LocationCount: intp(1)}

	res := ScoreSize(listing, buyer, model.BehaviorConfig{PenalizeSingleLocation: true})

	assert.Equal(t, 68.0, res.Score)

	// Without the behavior flag the penalty never applies.
	res = ScoreSize(listing, buyer, model.BehaviorConfig{})
	assert.Equal(t, 80.0, res.Score)
}
