package scorer

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dealmatch-cli/internal/model"
	"github.com/sells-group/dealmatch-cli/pkg/anthropic"
)

func f64(v float64) *float64 { return &v }

func intp(v int) *int { return &v }

// stubClassifier returns a fixed result or error for every call, counting
// invocations.
type stubClassifier struct {
	res   *anthropic.ClassifyResult
	err   error
	calls int
}

func (s *stubClassifier) Classify(_ context.Context, _ anthropic.ClassifyRequest) (*anthropic.ClassifyResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.res, nil
}

var errClassifier = eris.New("classifier unavailable")

func testListing() *model.Listing {
	return &model.Listing{
		ID:       "listing-1",
		Name:     "Lone Star Comfort Systems",
		Revenue:  f64(8_000_000),
		EBITDA:   f64(1_200_000),
		State:    "TX",
		Services: []string{"HVAC", "plumbing"},
		Category: "home services",
	}
}

func testBuyer() *model.Buyer {
	return &model.Buyer{
		ID:              "buyer-1",
		Name:            "Summit Platform Partners",
		Type:            model.BuyerTypeFinancialSponsor,
		RevenueMin:      f64(5_000_000),
		RevenueMax:      f64(25_000_000),
		TargetServices:  []string{"HVAC", "plumbing", "electrical"},
		ServicesOffered: "residential hvac and plumbing services",
		OperatingStates: []string{"TX", "OK"},
	}
}

func testUniverse() *model.Universe {
	return &model.Universe{
		ID:      "universe-1",
		Name:    "Home Services Q3",
		Weights: model.DefaultWeights(),
	}
}
