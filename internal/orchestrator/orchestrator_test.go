package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dealmatch-cli/internal/geo"
	"github.com/sells-group/dealmatch-cli/internal/model"
	"github.com/sells-group/dealmatch-cli/internal/scorer"
	"github.com/sells-group/dealmatch-cli/internal/snapshot"
	"github.com/sells-group/dealmatch-cli/internal/store"
)

// memStore is an in-memory Store for orchestrator tests.
type memStore struct {
	mu          sync.Mutex
	listings    map[string]*model.Listing
	buyers      []model.Buyer
	universes   map[string]*model.Universe
	trackers    map[string]*model.IndustryTracker
	adjusts     map[string][]model.ScoringAdjustment
	patterns    map[string]*model.LearningPattern
	scores      map[string]*model.ScoredResult
	snapshots   []*model.ScoreSnapshot
	failUpserts bool
}

func newMemStore() *memStore {
	return &memStore{
		listings:  map[string]*model.Listing{},
		universes: map[string]*model.Universe{},
		trackers:  map[string]*model.IndustryTracker{},
		adjusts:   map[string][]model.ScoringAdjustment{},
		patterns:  map[string]*model.LearningPattern{},
		scores:    map[string]*model.ScoredResult{},
	}
}

func scoreKey(listingID, buyerID, universeID string) string {
	return listingID + "|" + buyerID + "|" + universeID
}

func (m *memStore) GetListing(_ context.Context, id string) (*model.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.listings[id]; ok {
		return l, nil
	}
	return nil, eris.Errorf("listing not found: %s", id)
}

func (m *memStore) GetBuyer(_ context.Context, id string) (*model.Buyer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.buyers {
		if m.buyers[i].ID == id {
			return &m.buyers[i], nil
		}
	}
	return nil, eris.Errorf("buyer not found: %s", id)
}

func (m *memStore) ListBuyers(_ context.Context, filter store.BuyerFilter) ([]model.Buyer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(filter.BuyerIDs) == 0 {
		return append([]model.Buyer(nil), m.buyers...), nil
	}
	want := map[string]bool{}
	for _, id := range filter.BuyerIDs {
		want[id] = true
	}
	var out []model.Buyer
	for _, b := range m.buyers {
		if want[b.ID] {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) GetUniverse(_ context.Context, id string) (*model.Universe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.universes[id]; ok {
		return u, nil
	}
	return nil, eris.Errorf("universe not found: %s", id)
}

func (m *memStore) GetTracker(_ context.Context, id string) (*model.IndustryTracker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trackers[id], nil
}

func (m *memStore) ListAdjustments(_ context.Context, listingID string) ([]model.ScoringAdjustment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adjusts[listingID], nil
}

func (m *memStore) GetLearningPatterns(_ context.Context, buyerIDs []string) (map[string]*model.LearningPattern, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]*model.LearningPattern{}
	for _, id := range buyerIDs {
		if p, ok := m.patterns[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *memStore) UpsertScore(_ context.Context, result *model.ScoredResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpserts {
		return eris.New("write refused")
	}
	m.scores[scoreKey(result.ListingID, result.BuyerID, result.UniverseID)] = result
	return nil
}

func (m *memStore) UpsertScores(ctx context.Context, results []*model.ScoredResult) error {
	for _, r := range results {
		if err := m.UpsertScore(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStore) GetScore(_ context.Context, listingID, buyerID, universeID string) (*model.ScoredResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scores[scoreKey(listingID, buyerID, universeID)], nil
}

func (m *memStore) ListScores(_ context.Context, listingID, universeID string) ([]model.ScoredResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ScoredResult
	for _, r := range m.scores {
		if r.ListingID == listingID && r.UniverseID == universeID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) InsertSnapshot(_ context.Context, snap *model.ScoreSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, snap)
	return nil
}

func (m *memStore) snapshotCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snapshots)
}

func (m *memStore) Migrate(context.Context) error { return nil }
func (m *memStore) Ping(context.Context) error    { return nil }
func (m *memStore) Close() error                  { return nil }

func seedStore(st *memStore, buyerCount int) {
	rev := 8_000_000.0
	st.listings["l1"] = &model.Listing{
		ID:          "l1",
		Name:        "Lone Star Comfort Systems",
		Revenue:     &rev,
		State:       "TX",
		Services:    []string{"HVAC", "plumbing"},
		Description: "Residential HVAC and plumbing operator.",
	}
	st.universes["u1"] = &model.Universe{ID: "u1", Weights: model.DefaultWeights()}

	min, max := 5_000_000.0, 25_000_000.0
	for i := 0; i < buyerCount; i++ {
		st.buyers = append(st.buyers, model.Buyer{
			ID:              fmt.Sprintf("b%d", i+1),
			Name:            fmt.Sprintf("Buyer %d", i+1),
			Type:            model.BuyerTypeFinancialSponsor,
			RevenueMin:      &min,
			RevenueMax:      &max,
			TargetServices:  []string{"HVAC"},
			OperatingStates: []string{"TX"},
		})
	}
}

func newTestOrchestrator(st *memStore, opts Options) *Orchestrator {
	asm := scorer.NewAssembler(geo.NewStateTable(), nil, nil)
	return New(st, asm, nil, opts)
}

func TestScoreOne(t *testing.T) {
	st := newMemStore()
	seedStore(st, 1)
	o := newTestOrchestrator(st, Options{})

	result, err := o.ScoreOne(context.Background(), SingleRequest{
		ListingID: "l1", BuyerID: "b1", UniverseID: "u1",
	})
	require.NoError(t, err)

	assert.Greater(t, result.CompositeScore, 0.0)
	assert.False(t, result.IsDisqualified)
	assert.Equal(t, model.StatusPending, result.Status)

	stored, err := st.GetScore(context.Background(), "l1", "b1", "u1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, result.ID, stored.ID)
}

func TestScoreOneListingNotFound(t *testing.T) {
	st := newMemStore()
	seedStore(st, 1)
	o := newTestOrchestrator(st, Options{})

	_, err := o.ScoreOne(context.Background(), SingleRequest{
		ListingID: "missing", BuyerID: "b1", UniverseID: "u1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestScoreOnePreservesApprovedStatus(t *testing.T) {
	st := newMemStore()
	seedStore(st, 1)
	st.scores[scoreKey("l1", "b1", "u1")] = &model.ScoredResult{
		ID: "old", ListingID: "l1", BuyerID: "b1", UniverseID: "u1",
		Status: model.StatusApproved,
	}
	o := newTestOrchestrator(st, Options{})

	result, err := o.ScoreOne(context.Background(), SingleRequest{
		ListingID: "l1", BuyerID: "b1", UniverseID: "u1",
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusApproved, result.Status)
}

func TestScoreOneRecordsSnapshot(t *testing.T) {
	st := newMemStore()
	seedStore(st, 1)
	rec := snapshot.NewRecorder(st, 8)
	o := New(st, scorer.NewAssembler(geo.NewStateTable(), nil, nil), rec, Options{})

	_, err := o.ScoreOne(context.Background(), SingleRequest{
		ListingID: "l1", BuyerID: "b1", UniverseID: "u1",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rec.Close(ctx))
	assert.Equal(t, 1, st.snapshotCount())
}

func TestScoreBulkScoresAllCandidates(t *testing.T) {
	st := newMemStore()
	seedStore(st, 7)
	o := newTestOrchestrator(st, Options{})

	out, err := o.ScoreBulk(context.Background(), BulkRequest{ListingID: "l1", UniverseID: "u1"})
	require.NoError(t, err)

	assert.Len(t, out.Results, 7)
	assert.False(t, out.Partial)
	assert.Equal(t, 7, out.Diagnostics.Buyers.Total)
	assert.Equal(t, 7, out.Diagnostics.Summary.Qualified)
	assert.Greater(t, out.Diagnostics.Summary.AvgScore, 0.0)
	assert.Empty(t, out.Errors)

	stored, err := st.ListScores(context.Background(), "l1", "u1")
	require.NoError(t, err)
	assert.Len(t, stored, 7)
}

func TestScoreBulkSkipsAlreadyScored(t *testing.T) {
	st := newMemStore()
	seedStore(st, 3)
	st.scores[scoreKey("l1", "b2", "u1")] = &model.ScoredResult{
		ID: "old", ListingID: "l1", BuyerID: "b2", UniverseID: "u1",
	}
	o := newTestOrchestrator(st, Options{})

	out, err := o.ScoreBulk(context.Background(), BulkRequest{ListingID: "l1", UniverseID: "u1"})
	require.NoError(t, err)

	assert.Len(t, out.Results, 2)
	assert.Equal(t, 1, out.Diagnostics.Buyers.Skipped)
	require.NotEmpty(t, out.Diagnostics.Warnings)
	assert.Contains(t, out.Diagnostics.Warnings[0], "already scored")
}

func TestScoreBulkAllAlreadyScored(t *testing.T) {
	st := newMemStore()
	seedStore(st, 2)
	for _, id := range []string{"b1", "b2"} {
		st.scores[scoreKey("l1", id, "u1")] = &model.ScoredResult{
			ID: "old-" + id, ListingID: "l1", BuyerID: id, UniverseID: "u1",
		}
	}
	o := newTestOrchestrator(st, Options{})

	out, err := o.ScoreBulk(context.Background(), BulkRequest{ListingID: "l1", UniverseID: "u1"})
	require.NoError(t, err)

	assert.Empty(t, out.Results)
	assert.Equal(t, 2, out.Diagnostics.Buyers.Skipped)
	require.NotEmpty(t, out.Diagnostics.Warnings)
	assert.Contains(t, out.Diagnostics.Warnings[0], "2 of 2 buyers already scored")
}

func TestScoreBulkPersistFailureNamesBuyer(t *testing.T) {
	st := newMemStore()
	seedStore(st, 1)
	st.failUpserts = true
	o := newTestOrchestrator(st, Options{})

	out, err := o.ScoreBulk(context.Background(), BulkRequest{ListingID: "l1", UniverseID: "u1"})
	require.NoError(t, err)

	assert.Empty(t, out.Results)
	require.Contains(t, out.Errors, "b1")
	assert.Contains(t, out.Errors["b1"], "Buyer 1")
	assert.Contains(t, out.Errors["b1"], "persist failed")
}

func TestScoreBulkRescoreExisting(t *testing.T) {
	st := newMemStore()
	seedStore(st, 3)
	st.scores[scoreKey("l1", "b2", "u1")] = &model.ScoredResult{
		ID: "old", ListingID: "l1", BuyerID: "b2", UniverseID: "u1",
		Status: model.StatusPassed,
	}
	o := newTestOrchestrator(st, Options{})

	out, err := o.ScoreBulk(context.Background(), BulkRequest{
		ListingID: "l1", UniverseID: "u1",
		Options: BulkOptions{RescoreExisting: true},
	})
	require.NoError(t, err)

	assert.Len(t, out.Results, 3)

	// The human triage decision survives the rescore.
	stored, err := st.GetScore(context.Background(), "l1", "b2", "u1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPassed, stored.Status)
	assert.NotEqual(t, "old", stored.ID)
}

func TestScoreBulkExplicitBuyerList(t *testing.T) {
	st := newMemStore()
	seedStore(st, 5)
	o := newTestOrchestrator(st, Options{})

	out, err := o.ScoreBulk(context.Background(), BulkRequest{
		ListingID: "l1", UniverseID: "u1", BuyerIDs: []string{"b1", "b4"},
	})
	require.NoError(t, err)

	assert.Len(t, out.Results, 2)
}

func TestScoreBulkPauseStopsAtBatchBoundary(t *testing.T) {
	st := newMemStore()
	seedStore(st, 12)
	o := newTestOrchestrator(st, Options{
		BatchSize: 5,
		Pause:     func(context.Context) bool { return true },
	})

	out, err := o.ScoreBulk(context.Background(), BulkRequest{ListingID: "l1", UniverseID: "u1"})
	require.NoError(t, err)

	// The first batch runs before the first pause check.
	assert.Len(t, out.Results, 5)
	assert.True(t, out.Partial)
}

func TestScoreBulkDeadlineStopsAtBatchBoundary(t *testing.T) {
	st := newMemStore()
	seedStore(st, 12)
	o := newTestOrchestrator(st, Options{BatchSize: 5, RunTimeout: time.Nanosecond})

	out, err := o.ScoreBulk(context.Background(), BulkRequest{ListingID: "l1", UniverseID: "u1"})
	require.NoError(t, err)

	assert.Len(t, out.Results, 5)
	assert.True(t, out.Partial)
}

func TestScoreBulkMinDataCompleteness(t *testing.T) {
	st := newMemStore()
	seedStore(st, 2)
	st.buyers = append(st.buyers, model.Buyer{ID: "thin", Name: "Thin Profile"})
	o := newTestOrchestrator(st, Options{})

	out, err := o.ScoreBulk(context.Background(), BulkRequest{
		ListingID: "l1", UniverseID: "u1",
		Options: BulkOptions{MinDataCompleteness: 0.5},
	})
	require.NoError(t, err)

	assert.Len(t, out.Results, 2)
	assert.Equal(t, 1, out.Diagnostics.Buyers.Skipped)
	assert.Equal(t, 1, out.Diagnostics.Buyers.Thin)
}

func TestScoreBulkAllDisqualifiedGuardrail(t *testing.T) {
	st := newMemStore()
	seedStore(st, 2)
	for i := range st.buyers {
		st.buyers[i].ExcludedStates = []string{"TX"}
	}
	o := newTestOrchestrator(st, Options{})

	out, err := o.ScoreBulk(context.Background(), BulkRequest{ListingID: "l1", UniverseID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, 2, out.Diagnostics.Summary.Disqualified)
	require.NotEmpty(t, out.Diagnostics.Warnings)
	assert.Contains(t, out.Diagnostics.Warnings[0], "disqualified")
}

func TestScoreBulkTightSpreadGuardrail(t *testing.T) {
	st := newMemStore()
	seedStore(st, 6)
	o := newTestOrchestrator(st, Options{})

	out, err := o.ScoreBulk(context.Background(), BulkRequest{ListingID: "l1", UniverseID: "u1"})
	require.NoError(t, err)

	// Six identical buyers produce identical scores.
	require.NotEmpty(t, out.Diagnostics.Warnings)
	assert.Contains(t, out.Diagnostics.Warnings[0], "spread")
}

func TestScoreBulkDealDiagnostics(t *testing.T) {
	st := newMemStore()
	seedStore(st, 1)
	st.listings["l1"].EBITDA = nil
	o := newTestOrchestrator(st, Options{})

	out, err := o.ScoreBulk(context.Background(), BulkRequest{ListingID: "l1", UniverseID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, "medium", out.Diagnostics.Deal.DataQuality)
	assert.Contains(t, out.Diagnostics.Deal.Warnings, "EBITDA missing")
}

type recordingTracker struct {
	mu      sync.Mutex
	reports []int
}

func (r *recordingTracker) Report(_ context.Context, completed, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, completed)
}

func TestScoreBulkReportsProgress(t *testing.T) {
	st := newMemStore()
	seedStore(st, 12)
	tracker := &recordingTracker{}
	o := newTestOrchestrator(st, Options{BatchSize: 5, Progress: tracker})

	_, err := o.ScoreBulk(context.Background(), BulkRequest{ListingID: "l1", UniverseID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, []int{5, 10, 12}, tracker.reports)
}
