// Package store persists scoring inputs and outputs. Postgres is the
// production backend; SQLite backs local single-user runs.
package store

import (
	"context"

	"github.com/sells-group/dealmatch-cli/internal/model"
)

// BuyerFilter narrows the candidate buyer set for a bulk run.
type BuyerFilter struct {
	UniverseID string   `json:"universe_id"`
	BuyerIDs   []string `json:"buyer_ids,omitempty"`
}

// Store defines the persistence interface for the scoring engine.
type Store interface {
	// Inputs (read-only to this service).
	GetListing(ctx context.Context, id string) (*model.Listing, error)
	GetBuyer(ctx context.Context, id string) (*model.Buyer, error)
	ListBuyers(ctx context.Context, filter BuyerFilter) ([]model.Buyer, error)
	GetUniverse(ctx context.Context, id string) (*model.Universe, error)
	GetTracker(ctx context.Context, id string) (*model.IndustryTracker, error)
	ListAdjustments(ctx context.Context, listingID string) ([]model.ScoringAdjustment, error)
	GetLearningPatterns(ctx context.Context, buyerIDs []string) (map[string]*model.LearningPattern, error)

	// Scored results. Exactly one live row per (listing, buyer, universe).
	UpsertScore(ctx context.Context, result *model.ScoredResult) error
	UpsertScores(ctx context.Context, results []*model.ScoredResult) error
	GetScore(ctx context.Context, listingID, buyerID, universeID string) (*model.ScoredResult, error)
	ListScores(ctx context.Context, listingID, universeID string) ([]model.ScoredResult, error)

	// Audit snapshots, append-only.
	InsertSnapshot(ctx context.Context, snap *model.ScoreSnapshot) error

	// Lifecycle.
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
