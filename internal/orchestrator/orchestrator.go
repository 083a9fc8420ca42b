// Package orchestrator exposes the single- and bulk-score entry points. It
// fetches inputs, runs the composite assembler per buyer, persists results,
// and reports diagnostics about the run.
package orchestrator

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/dealmatch-cli/internal/model"
	"github.com/sells-group/dealmatch-cli/internal/scorer"
	"github.com/sells-group/dealmatch-cli/internal/snapshot"
	"github.com/sells-group/dealmatch-cli/internal/store"
)

// defaultBatchSize is the number of buyers scored concurrently per batch.
const defaultBatchSize = 5

// ProgressTracker receives completion deltas during a bulk run. The caller
// wires the surrounding platform's queue tracker in; a nil tracker is fine.
type ProgressTracker interface {
	Report(ctx context.Context, completed, total int)
}

// Options tune an Orchestrator.
type Options struct {
	BatchSize  int
	RunTimeout time.Duration

	// Pause is polled between batches; returning true stops the run early.
	Pause func(ctx context.Context) bool

	Progress ProgressTracker
}

// Orchestrator wires the stores, the assembler, and the snapshot recorder
// into the scoring entry points.
type Orchestrator struct {
	store    store.Store
	asm      *scorer.Assembler
	recorder *snapshot.Recorder
	opts     Options
	now      func() time.Time
}

// New builds an Orchestrator. recorder may be nil to skip audit snapshots.
func New(st store.Store, asm *scorer.Assembler, recorder *snapshot.Recorder, opts Options) *Orchestrator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	return &Orchestrator{
		store:    st,
		asm:      asm,
		recorder: recorder,
		opts:     opts,
		now:      time.Now,
	}
}

// SingleRequest identifies one (listing, buyer, universe) pair to score.
type SingleRequest struct {
	ListingID          string              `json:"listing_id"`
	BuyerID            string              `json:"buyer_id"`
	UniverseID         string              `json:"universe_id"`
	CustomInstructions string              `json:"custom_instructions,omitempty"`
	GeographyMode      model.GeographyMode `json:"geography_mode,omitempty"`
}

// ScoreOne scores a single buyer against a listing, persists the result,
// and fires an audit snapshot.
func (o *Orchestrator) ScoreOne(ctx context.Context, req SingleRequest) (*model.ScoredResult, error) {
	listing, err := o.store.GetListing(ctx, req.ListingID)
	if err != nil {
		return nil, eris.Wrap(err, "orchestrator: score one")
	}
	buyer, err := o.store.GetBuyer(ctx, req.BuyerID)
	if err != nil {
		return nil, eris.Wrap(err, "orchestrator: score one")
	}
	universe, err := o.store.GetUniverse(ctx, req.UniverseID)
	if err != nil {
		return nil, eris.Wrap(err, "orchestrator: score one")
	}

	tracker := o.fetchTracker(ctx, buyer)
	adjustments, err := o.store.ListAdjustments(ctx, req.ListingID)
	if err != nil {
		zap.L().Warn("failed to load adjustments, scoring without them",
			zap.String("listing_id", req.ListingID), zap.Error(err))
	}
	patterns, err := o.store.GetLearningPatterns(ctx, []string{req.BuyerID})
	if err != nil {
		zap.L().Warn("failed to load learning pattern, scoring without it",
			zap.String("buyer_id", req.BuyerID), zap.Error(err))
	}

	result, err := o.asm.Score(ctx, scorer.Input{
		Listing:            listing,
		Buyer:              buyer,
		Universe:           universe,
		Tracker:            tracker,
		Adjustments:        adjustments,
		Pattern:            patterns[req.BuyerID],
		GeographyMode:      req.GeographyMode,
		CustomInstructions: req.CustomInstructions,
	}, nil)
	if err != nil {
		return nil, eris.Wrap(err, "orchestrator: score one")
	}

	if err := o.persistResult(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// persistResult carries an approved/passed status forward from any prior
// score, upserts, and queues the audit snapshot.
func (o *Orchestrator) persistResult(ctx context.Context, result *model.ScoredResult) error {
	o.preserveStatus(ctx, result)

	if err := o.store.UpsertScore(ctx, result); err != nil {
		return eris.Wrap(err, "orchestrator: persist result")
	}
	if o.recorder != nil {
		o.recorder.Record(result)
	}
	return nil
}

func (o *Orchestrator) preserveStatus(ctx context.Context, result *model.ScoredResult) {
	prior, err := o.store.GetScore(ctx, result.ListingID, result.BuyerID, result.UniverseID)
	if err != nil {
		zap.L().Warn("failed to check prior score, keeping pending status",
			zap.String("buyer_id", result.BuyerID), zap.Error(err))
		return
	}
	if prior == nil {
		return
	}
	if prior.Status == model.StatusApproved || prior.Status == model.StatusPassed {
		result.Status = prior.Status
	}
}

func (o *Orchestrator) fetchTracker(ctx context.Context, buyer *model.Buyer) *model.IndustryTracker {
	if buyer.TrackerID == nil || *buyer.TrackerID == "" {
		return nil
	}
	tracker, err := o.store.GetTracker(ctx, *buyer.TrackerID)
	if err != nil {
		zap.L().Warn("failed to load industry tracker, using defaults",
			zap.String("buyer_id", buyer.ID),
			zap.String("tracker_id", *buyer.TrackerID),
			zap.Error(err))
		return nil
	}
	return tracker
}

// interBatchLimiter returns a rate limiter implementing the adaptive pacing
// policy: larger candidate sets get a longer gap between batches so a big
// run does not saturate the AI capability.
func interBatchLimiter(totalBuyers int) *rate.Limiter {
	var gap time.Duration
	switch {
	case totalBuyers <= 25:
		gap = 500 * time.Millisecond
	case totalBuyers <= 100:
		gap = time.Second
	default:
		gap = 2 * time.Second
	}
	return rate.NewLimiter(rate.Every(gap), 1)
}
