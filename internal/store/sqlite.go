package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/dealmatch-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It backs local
// single-user runs where no Postgres is available.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS listings (
	id         TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS buyers (
	id         TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS universes (
	id         TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS universe_buyers (
	universe_id TEXT NOT NULL,
	buyer_id    TEXT NOT NULL,
	PRIMARY KEY (universe_id, buyer_id)
);

CREATE TABLE IF NOT EXISTS industry_trackers (
	id         TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS scoring_adjustments (
	id         TEXT PRIMARY KEY,
	listing_id TEXT NOT NULL,
	buyer_id   TEXT,
	type       TEXT NOT NULL,
	amount     REAL NOT NULL DEFAULT 0,
	reason     TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS learning_patterns (
	buyer_id   TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS scored_results (
	id              TEXT PRIMARY KEY,
	listing_id      TEXT NOT NULL,
	buyer_id        TEXT NOT NULL,
	universe_id     TEXT NOT NULL,
	composite_score REAL NOT NULL,
	tier            TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'pending',
	is_disqualified INTEGER NOT NULL DEFAULT 0,
	needs_review    INTEGER NOT NULL DEFAULT 0,
	data            TEXT NOT NULL,
	scored_at       DATETIME NOT NULL,
	UNIQUE (listing_id, buyer_id, universe_id)
);

CREATE TABLE IF NOT EXISTS score_snapshots (
	id          TEXT PRIMARY KEY,
	result_id   TEXT NOT NULL,
	listing_id  TEXT NOT NULL,
	buyer_id    TEXT NOT NULL,
	universe_id TEXT NOT NULL,
	data        TEXT NOT NULL,
	recorded_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_adjustments_listing ON scoring_adjustments(listing_id);
CREATE INDEX IF NOT EXISTS idx_results_listing_universe ON scored_results(listing_id, universe_id);
CREATE INDEX IF NOT EXISTS idx_snapshots_result ON score_snapshots(result_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) getDoc(ctx context.Context, table, id string, out any) (bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM `+table+` WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: get %s %s", table, id)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, eris.Wrapf(err, "sqlite: unmarshal %s %s", table, id)
	}
	return true, nil
}

func (s *SQLiteStore) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	var listing model.Listing
	found, err := s.getDoc(ctx, "listings", id, &listing)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, eris.Errorf("sqlite: listing not found: %s", id)
	}
	return &listing, nil
}

func (s *SQLiteStore) GetBuyer(ctx context.Context, id string) (*model.Buyer, error) {
	var buyer model.Buyer
	found, err := s.getDoc(ctx, "buyers", id, &buyer)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, eris.Errorf("sqlite: buyer not found: %s", id)
	}
	return &buyer, nil
}

func (s *SQLiteStore) ListBuyers(ctx context.Context, filter BuyerFilter) ([]model.Buyer, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if len(filter.BuyerIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.BuyerIDs)), ",")
		args := make([]any, len(filter.BuyerIDs))
		for i, id := range filter.BuyerIDs {
			args[i] = id
		}
		rows, err = s.db.QueryContext(ctx, `SELECT data FROM buyers WHERE id IN (`+placeholders+`)`, args...)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT b.data FROM buyers b JOIN universe_buyers ub ON ub.buyer_id = b.id WHERE ub.universe_id = ?`,
			filter.UniverseID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list buyers")
	}
	defer rows.Close()

	var buyers []model.Buyer
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan buyer")
		}
		var buyer model.Buyer
		if err := json.Unmarshal(data, &buyer); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal buyer")
		}
		buyers = append(buyers, buyer)
	}
	return buyers, eris.Wrap(rows.Err(), "sqlite: list buyers")
}

func (s *SQLiteStore) GetUniverse(ctx context.Context, id string) (*model.Universe, error) {
	var universe model.Universe
	found, err := s.getDoc(ctx, "universes", id, &universe)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, eris.Errorf("sqlite: universe not found: %s", id)
	}
	return &universe, nil
}

func (s *SQLiteStore) GetTracker(ctx context.Context, id string) (*model.IndustryTracker, error) {
	var tracker model.IndustryTracker
	found, err := s.getDoc(ctx, "industry_trackers", id, &tracker)
	if err != nil || !found {
		return nil, err
	}
	return &tracker, nil
}

func (s *SQLiteStore) ListAdjustments(ctx context.Context, listingID string) ([]model.ScoringAdjustment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, listing_id, COALESCE(buyer_id, ''), type, amount, COALESCE(reason, ''), created_at
		 FROM scoring_adjustments WHERE listing_id = ? ORDER BY created_at`,
		listingID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list adjustments %s", listingID)
	}
	defer rows.Close()

	var adjustments []model.ScoringAdjustment
	for rows.Next() {
		var a model.ScoringAdjustment
		var typ string
		if err := rows.Scan(&a.ID, &a.ListingID, &a.BuyerID, &typ, &a.Amount, &a.Reason, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan adjustment")
		}
		a.Type = model.AdjustmentType(typ)
		adjustments = append(adjustments, a)
	}
	return adjustments, eris.Wrap(rows.Err(), "sqlite: list adjustments")
}

func (s *SQLiteStore) GetLearningPatterns(ctx context.Context, buyerIDs []string) (map[string]*model.LearningPattern, error) {
	patterns := make(map[string]*model.LearningPattern)
	if len(buyerIDs) == 0 {
		return patterns, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(buyerIDs)), ",")
	args := make([]any, len(buyerIDs))
	for i, id := range buyerIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT buyer_id, data FROM learning_patterns WHERE buyer_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get learning patterns")
	}
	defer rows.Close()

	for rows.Next() {
		var buyerID string
		var data []byte
		if err := rows.Scan(&buyerID, &data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan learning pattern")
		}
		var p model.LearningPattern
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal learning pattern %s", buyerID)
		}
		patterns[buyerID] = &p
	}
	return patterns, eris.Wrap(rows.Err(), "sqlite: get learning patterns")
}

func (s *SQLiteStore) UpsertScore(ctx context.Context, result *model.ScoredResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scored_results
		 (id, listing_id, buyer_id, universe_id, composite_score, tier, status, is_disqualified, needs_review, data, scored_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (listing_id, buyer_id, universe_id) DO UPDATE SET
		 id = excluded.id,
		 composite_score = excluded.composite_score,
		 tier = excluded.tier,
		 status = excluded.status,
		 is_disqualified = excluded.is_disqualified,
		 needs_review = excluded.needs_review,
		 data = excluded.data,
		 scored_at = excluded.scored_at`,
		result.ID, result.ListingID, result.BuyerID, result.UniverseID,
		result.CompositeScore, string(result.Tier), string(result.Status),
		result.IsDisqualified, result.NeedsReview, data, result.ScoredAt,
	)
	return eris.Wrapf(err, "sqlite: upsert score %s/%s", result.ListingID, result.BuyerID)
}

func (s *SQLiteStore) UpsertScores(ctx context.Context, results []*model.ScoredResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	for _, r := range results {
		data, err := json.Marshal(r)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal result")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scored_results
			 (id, listing_id, buyer_id, universe_id, composite_score, tier, status, is_disqualified, needs_review, data, scored_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (listing_id, buyer_id, universe_id) DO UPDATE SET
			 id = excluded.id,
			 composite_score = excluded.composite_score,
			 tier = excluded.tier,
			 status = excluded.status,
			 is_disqualified = excluded.is_disqualified,
			 needs_review = excluded.needs_review,
			 data = excluded.data,
			 scored_at = excluded.scored_at`,
			r.ID, r.ListingID, r.BuyerID, r.UniverseID,
			r.CompositeScore, string(r.Tier), string(r.Status),
			r.IsDisqualified, r.NeedsReview, data, r.ScoredAt,
		); err != nil {
			return eris.Wrapf(err, "sqlite: upsert score %s/%s", r.ListingID, r.BuyerID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit scores")
}

func (s *SQLiteStore) GetScore(ctx context.Context, listingID, buyerID, universeID string) (*model.ScoredResult, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM scored_results WHERE listing_id = ? AND buyer_id = ? AND universe_id = ?`,
		listingID, buyerID, universeID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get score %s/%s", listingID, buyerID)
	}

	var result model.ScoredResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal score")
	}
	return &result, nil
}

func (s *SQLiteStore) ListScores(ctx context.Context, listingID, universeID string) ([]model.ScoredResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM scored_results WHERE listing_id = ? AND universe_id = ? ORDER BY composite_score DESC`,
		listingID, universeID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list scores %s", listingID)
	}
	defer rows.Close()

	var results []model.ScoredResult
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan score")
		}
		var r model.ScoredResult
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal score")
		}
		results = append(results, r)
	}
	return results, eris.Wrap(rows.Err(), "sqlite: list scores")
}

func (s *SQLiteStore) InsertSnapshot(ctx context.Context, snap *model.ScoreSnapshot) error {
	data, err := json.Marshal(snap.Result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal snapshot")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO score_snapshots (id, result_id, listing_id, buyer_id, universe_id, data, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.ResultID, snap.ListingID, snap.BuyerID, snap.UniverseID, data, snap.RecordedAt,
	)
	return eris.Wrapf(err, "sqlite: insert snapshot %s", snap.ID)
}
