package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/dealmatch-cli/internal/model"
	"github.com/sells-group/dealmatch-cli/internal/scorer"
	"github.com/sells-group/dealmatch-cli/internal/store"
)

// BulkOptions tune a bulk run.
type BulkOptions struct {
	// RescoreExisting rescored buyers that already hold a score for this
	// listing and universe; by default they are skipped.
	RescoreExisting bool `json:"rescore_existing,omitempty"`

	// MinDataCompleteness skips buyers whose profile completeness (0-1)
	// falls below it.
	MinDataCompleteness float64 `json:"min_data_completeness,omitempty"`
}

// BulkRequest identifies a listing and the buyer universe to score it
// against.
type BulkRequest struct {
	ListingID          string              `json:"listing_id"`
	UniverseID         string              `json:"universe_id"`
	BuyerIDs           []string            `json:"buyer_ids,omitempty"`
	CustomInstructions string              `json:"custom_instructions,omitempty"`
	GeographyMode      model.GeographyMode `json:"geography_mode,omitempty"`
	Options            BulkOptions         `json:"options,omitempty"`
}

// BulkResult is the outcome of a bulk run.
type BulkResult struct {
	Results     []*model.ScoredResult `json:"results"`
	Diagnostics Diagnostics           `json:"diagnostics"`
	Errors      map[string]string     `json:"errors,omitempty"`
	Partial     bool                  `json:"partial"`
}

// Diagnostics is the run-level report returned alongside results.
type Diagnostics struct {
	Deal     DealDiagnostics `json:"deal"`
	Buyers   BuyerReadiness  `json:"buyers"`
	Summary  ScoringSummary  `json:"scoring_summary"`
	Warnings []string        `json:"warnings,omitempty"`
}

// DealDiagnostics describes how complete the listing's data is.
type DealDiagnostics struct {
	Warnings    []string `json:"warnings,omitempty"`
	DataQuality string   `json:"data_quality"`
}

// BuyerReadiness counts candidate buyers by profile readiness.
type BuyerReadiness struct {
	Total   int `json:"total"`
	Ready   int `json:"ready"`
	Thin    int `json:"thin"`
	Skipped int `json:"skipped"`
}

// ScoringSummary aggregates the run's outcomes.
type ScoringSummary struct {
	Qualified    int     `json:"qualified"`
	Disqualified int     `json:"disqualified"`
	AvgScore     float64 `json:"avg_score"`
}

// ScoreBulk scores every candidate buyer against the listing in fixed-size
// batches. Pause and deadline are checked only at batch boundaries; a run
// stopped early returns its partial results with Partial set.
func (o *Orchestrator) ScoreBulk(ctx context.Context, req BulkRequest) (*BulkResult, error) {
	listing, err := o.store.GetListing(ctx, req.ListingID)
	if err != nil {
		return nil, eris.Wrap(err, "orchestrator: score bulk")
	}
	universe, err := o.store.GetUniverse(ctx, req.UniverseID)
	if err != nil {
		return nil, eris.Wrap(err, "orchestrator: score bulk")
	}
	buyers, err := o.store.ListBuyers(ctx, store.BuyerFilter{UniverseID: req.UniverseID, BuyerIDs: req.BuyerIDs})
	if err != nil {
		return nil, eris.Wrap(err, "orchestrator: score bulk")
	}

	adjustments, err := o.store.ListAdjustments(ctx, req.ListingID)
	if err != nil {
		zap.L().Warn("failed to load adjustments, scoring without them",
			zap.String("listing_id", req.ListingID), zap.Error(err))
	}

	out := &BulkResult{Errors: map[string]string{}}
	out.Diagnostics.Deal = dealDiagnostics(listing)
	zap.L().Info("bulk scoring run starting",
		zap.String("listing_id", req.ListingID),
		zap.String("universe_id", req.UniverseID),
		zap.Int("candidates", len(buyers)),
		zap.String("deal_data_quality", out.Diagnostics.Deal.DataQuality))

	candidates, alreadyScored := o.selectCandidates(ctx, req, buyers, &out.Diagnostics.Buyers)
	if alreadyScored > 0 {
		out.Diagnostics.Warnings = append(out.Diagnostics.Warnings, fmt.Sprintf(
			"%d of %d buyers already scored; pass rescore to refresh them", alreadyScored, len(buyers)))
	}
	if len(candidates) == 0 {
		zap.L().Info("no candidates to score",
			zap.String("listing_id", req.ListingID),
			zap.Int("already_scored", alreadyScored))
		return out, nil
	}

	buyerIDs := make([]string, 0, len(candidates))
	for i := range candidates {
		buyerIDs = append(buyerIDs, candidates[i].ID)
	}
	patterns, err := o.store.GetLearningPatterns(ctx, buyerIDs)
	if err != nil {
		zap.L().Warn("failed to load learning patterns, scoring without them", zap.Error(err))
		patterns = map[string]*model.LearningPattern{}
	}

	deadline := time.Time{}
	if o.opts.RunTimeout > 0 {
		deadline = o.now().Add(o.opts.RunTimeout)
	}
	limiter := interBatchLimiter(len(candidates))
	metrics := &scorer.Metrics{}

	completed := 0
	for start := 0; start < len(candidates); start += o.opts.BatchSize {
		if start > 0 {
			if o.opts.Pause != nil && o.opts.Pause(ctx) {
				zap.L().Info("bulk run paused, returning partial results",
					zap.Int("completed", completed), zap.Int("total", len(candidates)))
				out.Partial = true
				break
			}
			if !deadline.IsZero() && o.now().After(deadline) {
				zap.L().Warn("bulk run hit wall-clock budget, returning partial results",
					zap.Int("completed", completed), zap.Int("total", len(candidates)))
				out.Partial = true
				break
			}
			if err := limiter.Wait(ctx); err != nil {
				out.Partial = true
				break
			}
		}

		end := start + o.opts.BatchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]

		results := o.scoreBatch(ctx, listing, universe, batch, adjustments, patterns, req, metrics, out.Errors)
		if err := o.commitBatch(ctx, results); err != nil {
			zap.L().Error("batch commit failed", zap.Error(err))
			names := make(map[string]string, len(batch))
			for i := range batch {
				names[batch[i].ID] = batch[i].Name
			}
			for _, r := range results {
				out.Errors[r.BuyerID] = names[r.BuyerID] + ": persist failed"
			}
		} else {
			out.Results = append(out.Results, results...)
		}

		completed += len(batch)
		if o.opts.Progress != nil {
			o.opts.Progress.Report(ctx, completed, len(candidates))
		}
	}

	out.Diagnostics.Summary = summarize(out.Results)
	out.Diagnostics.Warnings = append(out.Diagnostics.Warnings, guardrails(out.Results)...)
	zap.L().Info("bulk scoring run finished",
		zap.Int("scored", len(out.Results)),
		zap.Int("qualified", out.Diagnostics.Summary.Qualified),
		zap.Int("disqualified", out.Diagnostics.Summary.Disqualified),
		zap.Int("ai_calls", metrics.AICalls),
		zap.Int("ai_fallbacks", metrics.AIFallbacks),
		zap.Bool("partial", out.Partial),
		zap.Strings("warnings", out.Diagnostics.Warnings))
	return out, nil
}

// selectCandidates applies the rescore and completeness filters and fills
// the readiness counts. The second return value counts buyers skipped
// because a score already exists.
func (o *Orchestrator) selectCandidates(ctx context.Context, req BulkRequest, buyers []model.Buyer, readiness *BuyerReadiness) ([]model.Buyer, int) {
	readiness.Total = len(buyers)

	alreadyScored := 0
	candidates := make([]model.Buyer, 0, len(buyers))
	for i := range buyers {
		buyer := buyers[i]

		completeness := profileCompleteness(&buyer)
		if completeness >= 0.6 {
			readiness.Ready++
		} else {
			readiness.Thin++
		}
		if req.Options.MinDataCompleteness > 0 && completeness < req.Options.MinDataCompleteness {
			readiness.Skipped++
			continue
		}

		if !req.Options.RescoreExisting {
			prior, err := o.store.GetScore(ctx, req.ListingID, buyer.ID, req.UniverseID)
			if err != nil {
				zap.L().Warn("failed to check existing score, scoring anyway",
					zap.String("buyer_id", buyer.ID), zap.Error(err))
			} else if prior != nil {
				readiness.Skipped++
				alreadyScored++
				continue
			}
		}
		candidates = append(candidates, buyer)
	}
	return candidates, alreadyScored
}

// scoreBatch runs the assembler for one batch of buyers concurrently.
func (o *Orchestrator) scoreBatch(ctx context.Context, listing *model.Listing, universe *model.Universe, batch []model.Buyer, adjustments []model.ScoringAdjustment, patterns map[string]*model.LearningPattern, req BulkRequest, metrics *scorer.Metrics, errs map[string]string) []*model.ScoredResult {
	var (
		mu      sync.Mutex
		results []*model.ScoredResult
	)

	g, gctx := errgroup.WithContext(ctx)
	for i := range batch {
		buyer := batch[i]
		g.Go(func() error {
			tracker := o.fetchTracker(gctx, &buyer)
			result, err := o.asm.Score(gctx, scorer.Input{
				Listing:            listing,
				Buyer:              &buyer,
				Universe:           universe,
				Tracker:            tracker,
				Adjustments:        adjustments,
				Pattern:            patterns[buyer.ID],
				GeographyMode:      req.GeographyMode,
				CustomInstructions: req.CustomInstructions,
			}, metrics)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[buyer.ID] = fmt.Sprintf("%s: %s", buyer.Name, err.Error())
				return nil
			}
			results = append(results, result)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// commitBatch preserves prior statuses, bulk-upserts the batch, and queues
// audit snapshots.
func (o *Orchestrator) commitBatch(ctx context.Context, results []*model.ScoredResult) error {
	if len(results) == 0 {
		return nil
	}
	for _, r := range results {
		o.preserveStatus(ctx, r)
	}
	if err := o.store.UpsertScores(ctx, results); err != nil {
		return eris.Wrap(err, "orchestrator: commit batch")
	}
	if o.recorder != nil {
		for _, r := range results {
			o.recorder.Record(r)
		}
	}
	return nil
}

func summarize(results []*model.ScoredResult) ScoringSummary {
	var summary ScoringSummary
	var total float64
	for _, r := range results {
		if r.IsDisqualified {
			summary.Disqualified++
			continue
		}
		summary.Qualified++
		total += r.CompositeScore
	}
	if summary.Qualified > 0 {
		summary.AvgScore = total / float64(summary.Qualified)
	}
	return summary
}

// guardrails flags result patterns that usually indicate a configuration
// problem rather than a bad deal.
func guardrails(results []*model.ScoredResult) []string {
	if len(results) == 0 {
		return nil
	}

	var warnings []string

	allDQ := true
	for _, r := range results {
		if !r.IsDisqualified {
			allDQ = false
			break
		}
	}
	if allDQ {
		warnings = append(warnings, "every buyer was disqualified; check universe behavior and exclusion lists")
	}

	if len(results) > 5 && !allDQ {
		minScore, maxScore := results[0].CompositeScore, results[0].CompositeScore
		for _, r := range results {
			if r.CompositeScore < minScore {
				minScore = r.CompositeScore
			}
			if r.CompositeScore > maxScore {
				maxScore = r.CompositeScore
			}
		}
		if maxScore-minScore <= 5 {
			warnings = append(warnings, fmt.Sprintf(
				"score spread across %d buyers is only %.1f points; scoring may not be differentiating",
				len(results), maxScore-minScore))
		}
	}
	return warnings
}

// dealDiagnostics summarizes listing completeness into warnings and a
// quality level.
func dealDiagnostics(listing *model.Listing) DealDiagnostics {
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
	if listing.Description == "" {
		warnings = append(warnings, "description missing")
	}

	quality := "high"
	switch {
	case len(warnings) > 2:
		quality = "low"
	case len(warnings) > 0:
		quality = "medium"
	}
	return DealDiagnostics{Warnings: warnings, DataQuality: quality}
}

// profileCompleteness scores a buyer profile 0-1 over the five signal
// groups the scorers read.
func profileCompleteness(buyer *model.Buyer) float64 {
	var present int
	if buyer.HasSizeCriteria() {
		present++
	}
	if buyer.HasGeographySignal() {
		present++
	}
	if buyer.HasServiceSignal() {
		present++
	}
	if len(buyer.Thesis) > 30 {
		present++
	}
	if buyer.Type != "" {
		present++
	}
	return float64(present) / 5
}
