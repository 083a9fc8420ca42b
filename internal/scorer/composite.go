package scorer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/dealmatch-cli/internal/geo"
	"github.com/sells-group/dealmatch-cli/internal/model"
	"github.com/sells-group/dealmatch-cli/pkg/anthropic"
)

var errMissingInput = eris.New("scorer: listing, buyer and universe are required")

// Input carries everything needed to score one (listing, buyer, universe)
// pair. Tracker, Adjustments and Pattern are optional.
type Input struct {
	Listing     *model.Listing
	Buyer       *model.Buyer
	Universe    *model.Universe
	Tracker     *model.IndustryTracker
	Adjustments []model.ScoringAdjustment
	Pattern     *model.LearningPattern

	// GeographyMode overrides the tracker's mode when set.
	GeographyMode model.GeographyMode

	// CustomInstructions are appended to every AI prompt for this call.
	CustomInstructions string
}

// instructedClassifier appends per-run analyst instructions to the system
// prompt of every classification call.
type instructedClassifier struct {
	inner Classifier
	extra string
}

func (c instructedClassifier) Classify(ctx context.Context, req anthropic.ClassifyRequest) (*anthropic.ClassifyResult, error) {
	req.System += "\n\nAdditional instructions: " + c.extra
	return c.inner.Classify(ctx, req)
}

// Assembler combines the dimension scorers, bonuses and penalties into one
// composite score per buyer. It holds no per-call state; one Assembler is
// shared across a whole bulk run.
type Assembler struct {
	prox       geo.Proximity
	classifier Classifier
	adjacency  map[string][]string
	now        func() time.Time
}

// NewAssembler builds an Assembler. classifier may be nil, which forces
// every AI-backed scorer onto its deterministic path. adjacency may be nil,
// which selects the built-in service adjacency map.
func NewAssembler(prox geo.Proximity, classifier Classifier, adjacency map[string][]string) *Assembler {
	if adjacency == nil {
		adjacency = DefaultServiceAdjacency()
	}
	return &Assembler{
		prox:       prox,
		classifier: classifier,
		adjacency:  adjacency,
		now:        time.Now,
	}
}

// WithClock overrides the assembler's clock. Test hook.
func (a *Assembler) WithClock(now func() time.Time) *Assembler {
	a.now = now
	return a
}

// Score computes the composite ScoredResult for one buyer. Dimension scorer
// failures never surface as errors: every AI-backed path has a deterministic
// fallback, so the only way Score fails is a nil required input.
func (a *Assembler) Score(ctx context.Context, in Input, metrics *Metrics) (*model.ScoredResult, error) {
	if in.Listing == nil || in.Buyer == nil || in.Universe == nil {
		return nil, errMissingInput
	}

	listing, buyer, universe := in.Listing, in.Buyer, in.Universe
	mode := a.geographyMode(in)
	adjacency := a.adjacency
	if in.Tracker != nil && len(in.Tracker.ServiceAdjacency) > 0 {
		adjacency = in.Tracker.ServiceAdjacency
	}
	classifier := a.classifier
	if classifier != nil && in.CustomInstructions != "" {
		classifier = instructedClassifier{inner: classifier, extra: in.CustomInstructions}
	}

	// Size is cheap and fully deterministic; the other dimensions may each
	// make an AI call, so they run concurrently.
	size := ScoreSize(listing, buyer, universe.Behavior)

	var (
		geoRes GeographyResult
		svc    ServiceResult
		goals  OwnerGoalsResult
		thesis BonusResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		geoRes = ScoreGeography(listing, buyer, mode, a.prox)
		return nil
	})
	g.Go(func() error {
		svc = ScoreService(gctx, listing, buyer, universe, adjacency, classifier, metrics)
		return nil
	})
	g.Go(func() error {
		goals = ScoreOwnerGoals(gctx, listing, buyer, classifier, metrics)
		return nil
	})
	g.Go(func() error {
		thesis = ThesisBonus(gctx, listing, buyer, classifier, metrics)
		return nil
	})
	_ = g.Wait()

	sizeOK := buyer.HasSizeCriteria() && listing.HasFinancials()
	geoOK := buyer.HasGeographySignal() && listing.State != ""
	svcOK := buyer.HasServiceSignal() && listing.HasServices()

	weights, redistributed := effectiveWeights(universe.Weights, sizeOK, geoOK, svcOK)
	if len(redistributed) > 0 {
		zap.L().Debug("redistributed dimension weights",
			zap.String("listing_id", listing.ID),
			zap.String("buyer_id", buyer.ID),
			zap.Strings("dimensions", redistributed))
	}

	// Geography weight is scaled by mode factor on both sides of the
	// average, so a minimal-mode run barely feels geography at all.
	geoWeight := weights.Geography * geoRes.ModeFactor
	denom := weights.Size + geoWeight + weights.Service + weights.OwnerGoals
	var base float64
	if denom > 0 {
		base = (weights.Size*size.Score +
			geoWeight*geoRes.Score +
			weights.Service*svc.Score +
			weights.OwnerGoals*goals.Score) / denom
	}

	// Gates apply only when the dimension had real data; otherwise a
	// no-data dimension could zero the whole score.
	sizeGate, svcGate := 1.0, 1.0
	if sizeOK {
		sizeGate = size.Multiplier
	}
	if svcOK {
		svcGate = svc.Multiplier
	}
	base *= sizeGate * svcGate

	dq := DataQualityBonus(buyer)
	learning := LearningPenalty(in.Pattern)
	adjDelta, adjDQ := adjustmentDelta(in.Adjustments, buyer.ID)

	score := round2(clamp(base+thesis.Value+dq.Value+adjDelta-learning.Penalty, 0, 100))

	disqualifyReason := firstDisqualifyReason(size, svc, geoRes, sizeOK, svcOK, adjDQ)
	disqualified := disqualifyReason != ""
	if disqualified {
		score = 0
		if metrics != nil {
			metrics.Disqualified++
		}
	}
	if metrics != nil {
		metrics.Scored++
	}

	tier := model.TierForScore(score)
	if disqualified {
		tier = model.TierF
	}

	result := &model.ScoredResult{
		ID:         uuid.NewString(),
		ListingID:  listing.ID,
		BuyerID:    buyer.ID,
		UniverseID: universe.ID,

		CompositeScore:  score,
		SizeScore:       size.Score,
		GeographyScore:  geoRes.Score,
		ServiceScore:    svc.Score,
		OwnerGoalsScore: goals.Score,

		SizeMultiplier:      size.Multiplier,
		ServiceMultiplier:   svc.Multiplier,
		GeographyModeFactor: geoRes.ModeFactor,

		ThesisBonus:      thesis.Value,
		DataQualityBonus: dq.Value,
		AdjustmentDelta:  adjDelta,
		LearningPenalty:  learning.Penalty,

		Tier:             tier,
		IsDisqualified:   disqualified,
		DisqualifyReason: disqualifyReason,
		NeedsReview:      !disqualified && score >= 50 && score <= 65,
		Status:           model.StatusPending,

		DealSnapshot: model.DealSnapshot{
			Revenue:  listing.Revenue,
			EBITDA:   listing.EBITDA,
			State:    listing.State,
			Services: listing.Services,
		},
		ScoredAt: a.now(),
	}
	result.Reasoning = buildReasoning(result, size, geoRes, svc, thesis, learning, redistributed, sizeGate*svcGate, listing)
	return result, nil
}

func (a *Assembler) geographyMode(in Input) model.GeographyMode {
	if in.GeographyMode != "" {
		return in.GeographyMode
	}
	if in.Tracker != nil && in.Tracker.GeographyMode != "" {
		return in.Tracker.GeographyMode
	}
	return model.GeoModeCritical
}

// effectiveWeights zeroes the weight of every dimension without usable data
// and redistributes the freed weight proportionally across the dimensions
// that remain. Owner goals is always active, so the pool always has a home.
func effectiveWeights(nominal model.DimensionWeights, sizeOK, geoOK, svcOK bool) (model.DimensionWeights, []string) {
	if nominal.Total() == 0 {
		nominal = model.DefaultWeights()
	}

	eff := nominal
	var (
		pool          float64
		redistributed []string
	)
	if !sizeOK {
		pool += eff.Size
		eff.Size = 0
		redistributed = append(redistributed, "size")
	}
	if !geoOK {
		pool += eff.Geography
		eff.Geography = 0
		redistributed = append(redistributed, "geography")
	}
	if !svcOK {
		pool += eff.Service
		eff.Service = 0
		redistributed = append(redistributed, "service")
	}
	if pool == 0 {
		return eff, nil
	}

	active := eff.Total()
	if active == 0 {
		// Everything but owner goals is dark; it takes the whole budget.
		eff.OwnerGoals = nominal.Total()
		return eff, redistributed
	}

	scale := (active + pool) / active
	eff.Size *= scale
	eff.Geography *= scale
	eff.Service *= scale
	eff.OwnerGoals *= scale
	return eff, redistributed
}

// adjustmentDelta sums the manual boosts and penalties that apply to this
// buyer, and reports the first disqualify adjustment's reason if any.
func adjustmentDelta(adjustments []model.ScoringAdjustment, buyerID string) (delta float64, dqReason string) {
	for i := range adjustments {
		adj := &adjustments[i]
		if !adj.AppliesTo(buyerID) {
			continue
		}
		switch adj.Type {
		case model.AdjustmentBoost:
			delta += adj.Amount
		case model.AdjustmentPenalize:
			delta -= adj.Amount
		case model.AdjustmentDisqualify:
			if dqReason == "" {
				dqReason = adj.Reason
				if dqReason == "" {
					dqReason = "manual disqualification"
				}
			}
		}
	}
	return delta, dqReason
}

func firstDisqualifyReason(size SizeResult, svc ServiceResult, geoRes GeographyResult, sizeOK, svcOK bool, adjDQ string) string {
	if sizeOK && size.Multiplier == 0 {
		return "size: " + size.Reasoning
	}
	if svcOK && svc.Multiplier == 0 {
		return "service: " + svc.Reasoning
	}
	if geoRes.Disqualified() {
		return "geography: " + geoRes.Reasoning
	}
	if adjDQ != "" {
		return "manual: " + adjDQ
	}
	return ""
}

func buildReasoning(result *model.ScoredResult, size SizeResult, geoRes GeographyResult, svc ServiceResult, thesis BonusResult, learning LearningResult, redistributed []string, gate float64, listing *model.Listing) string {
	parts := make([]string, 0, 8)

	if result.IsDisqualified {
		parts = append(parts, "DISQUALIFIED: "+result.DisqualifyReason)
	} else {
		parts = append(parts, fitLabel(result.CompositeScore)+fmt.Sprintf(" (%.0f)", result.CompositeScore))
	}

	parts = append(parts, "Geography: "+geoRes.Reasoning)
	parts = append(parts, "Services: "+svc.Reasoning)
	parts = append(parts, "Size: "+size.Reasoning)

	if len(redistributed) > 0 {
		parts = append(parts, "Weights redistributed from: "+strings.Join(redistributed, ", "))
	}
	if gate < 1.0 {
		parts = append(parts, fmt.Sprintf("Fit gates applied at %.0f%%", gate*100))
	}
	if result.ThesisBonus > 0 {
		parts = append(parts, fmt.Sprintf("Thesis bonus +%.0f (%s)", result.ThesisBonus, thesis.Reasoning))
	}
	if result.LearningPenalty != 0 {
		parts = append(parts, fmt.Sprintf("History adjustment %+.0f (%s)", -result.LearningPenalty, learning.Note))
	}
	if warnings := dealDataWarnings(listing); len(warnings) > 0 {
		parts = append(parts, "Limited deal data: "+strings.Join(warnings, ", "))
	}

	return strings.Join(parts, " | ")
}

func fitLabel(score float64) string {
	switch {
	case score >= 80:
		return "Strong fit"
	case score >= 65:
		return "Good fit"
	case score >= 50:
		return "Fair fit"
	default:
		return "Poor fit"
	}
}

func dealDataWarnings(listing *model.Listing) []string {
	var warnings []string
	if listing.Revenue == nil {
		warnings = append(warnings, "revenue missing")
	}
	if listing.EBITDA == nil {
		warnings = append(warnings, "EBITDA missing")
	}
	if listing.State == "" {
		warnings = append(warnings, "location missing")
	}
	if !listing.HasServices() {
		warnings = append(warnings, "services missing")
	}
	return warnings
}
