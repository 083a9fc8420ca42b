package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/dealmatch-cli/internal/db"
	"github.com/sells-group/dealmatch-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot scoring-path lookups.
var preparedStatements = map[string]string{
	"get_listing":  `SELECT data FROM listings WHERE id = $1`,
	"get_buyer":    `SELECT data FROM buyers WHERE id = $1`,
	"get_universe": `SELECT data FROM universes WHERE id = $1`,
	"get_score":    `SELECT data FROM scored_results WHERE listing_id = $1 AND buyer_id = $2 AND universe_id = $3`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS listings (
	id         TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS buyers (
	id         TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS universes (
	id         TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS universe_buyers (
	universe_id TEXT NOT NULL REFERENCES universes(id),
	buyer_id    TEXT NOT NULL REFERENCES buyers(id),
	PRIMARY KEY (universe_id, buyer_id)
);

CREATE TABLE IF NOT EXISTS industry_trackers (
	id         TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS scoring_adjustments (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	listing_id TEXT NOT NULL,
	buyer_id   TEXT,
	type       TEXT NOT NULL,
	amount     DOUBLE PRECISION NOT NULL DEFAULT 0,
	reason     TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS learning_patterns (
	buyer_id   TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS scored_results (
	id              TEXT PRIMARY KEY,
	listing_id      TEXT NOT NULL,
	buyer_id        TEXT NOT NULL,
	universe_id     TEXT NOT NULL,
	composite_score DOUBLE PRECISION NOT NULL,
	tier            TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'pending',
	is_disqualified BOOLEAN NOT NULL DEFAULT false,
	needs_review    BOOLEAN NOT NULL DEFAULT false,
	data            JSONB NOT NULL,
	scored_at       TIMESTAMPTZ NOT NULL,
	UNIQUE (listing_id, buyer_id, universe_id)
);

CREATE TABLE IF NOT EXISTS score_snapshots (
	id          TEXT PRIMARY KEY,
	result_id   TEXT NOT NULL,
	listing_id  TEXT NOT NULL,
	buyer_id    TEXT NOT NULL,
	universe_id TEXT NOT NULL,
	data        JSONB NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_adjustments_listing ON scoring_adjustments(listing_id);
CREATE INDEX IF NOT EXISTS idx_results_listing_universe ON scored_results(listing_id, universe_id);
CREATE INDEX IF NOT EXISTS idx_results_status ON scored_results(status);
CREATE INDEX IF NOT EXISTS idx_snapshots_result ON score_snapshots(result_id);
CREATE INDEX IF NOT EXISTS idx_snapshots_listing ON score_snapshots(listing_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM listings WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: listing not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get listing %s", id)
	}

	var listing model.Listing
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal listing %s", id)
	}
	return &listing, nil
}

func (s *PostgresStore) GetBuyer(ctx context.Context, id string) (*model.Buyer, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM buyers WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: buyer not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get buyer %s", id)
	}

	var buyer model.Buyer
	if err := json.Unmarshal(data, &buyer); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal buyer %s", id)
	}
	return &buyer, nil
}

func (s *PostgresStore) ListBuyers(ctx context.Context, filter BuyerFilter) ([]model.Buyer, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if len(filter.BuyerIDs) > 0 {
		rows, err = s.pool.Query(ctx, `SELECT data FROM buyers WHERE id = ANY($1)`, filter.BuyerIDs)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT b.data FROM buyers b JOIN universe_buyers ub ON ub.buyer_id = b.id WHERE ub.universe_id = $1`,
			filter.UniverseID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list buyers")
	}
	defer rows.Close()

	var buyers []model.Buyer
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan buyer")
		}
		var buyer model.Buyer
		if err := json.Unmarshal(data, &buyer); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal buyer")
		}
		buyers = append(buyers, buyer)
	}
	return buyers, eris.Wrap(rows.Err(), "postgres: list buyers")
}

func (s *PostgresStore) GetUniverse(ctx context.Context, id string) (*model.Universe, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM universes WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: universe not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get universe %s", id)
	}

	var universe model.Universe
	if err := json.Unmarshal(data, &universe); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal universe %s", id)
	}
	return &universe, nil
}

// GetTracker returns nil when the tracker does not exist: trackers are
// optional per buyer.
func (s *PostgresStore) GetTracker(ctx context.Context, id string) (*model.IndustryTracker, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM industry_trackers WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get tracker %s", id)
	}

	var tracker model.IndustryTracker
	if err := json.Unmarshal(data, &tracker); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal tracker %s", id)
	}
	return &tracker, nil
}

func (s *PostgresStore) ListAdjustments(ctx context.Context, listingID string) ([]model.ScoringAdjustment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, listing_id, COALESCE(buyer_id, ''), type, amount, COALESCE(reason, ''), created_at
		 FROM scoring_adjustments WHERE listing_id = $1 ORDER BY created_at`,
		listingID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list adjustments %s", listingID)
	}
	defer rows.Close()

	var adjustments []model.ScoringAdjustment
	for rows.Next() {
		var a model.ScoringAdjustment
		var typ string
		if err := rows.Scan(&a.ID, &a.ListingID, &a.BuyerID, &typ, &a.Amount, &a.Reason, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan adjustment")
		}
		a.Type = model.AdjustmentType(typ)
		adjustments = append(adjustments, a)
	}
	return adjustments, eris.Wrap(rows.Err(), "postgres: list adjustments")
}

func (s *PostgresStore) GetLearningPatterns(ctx context.Context, buyerIDs []string) (map[string]*model.LearningPattern, error) {
	if len(buyerIDs) == 0 {
		return map[string]*model.LearningPattern{}, nil
	}

	rows, err := s.pool.Query(ctx, `SELECT buyer_id, data FROM learning_patterns WHERE buyer_id = ANY($1)`, buyerIDs)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get learning patterns")
	}
	defer rows.Close()

	patterns := make(map[string]*model.LearningPattern)
	for rows.Next() {
		var buyerID string
		var data []byte
		if err := rows.Scan(&buyerID, &data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan learning pattern")
		}
		var p model.LearningPattern
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal learning pattern %s", buyerID)
		}
		patterns[buyerID] = &p
	}
	return patterns, eris.Wrap(rows.Err(), "postgres: get learning patterns")
}

func (s *PostgresStore) UpsertScore(ctx context.Context, result *model.ScoredResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO scored_results
		 (id, listing_id, buyer_id, universe_id, composite_score, tier, status, is_disqualified, needs_review, data, scored_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (listing_id, buyer_id, universe_id) DO UPDATE SET
		 id = EXCLUDED.id,
		 composite_score = EXCLUDED.composite_score,
		 tier = EXCLUDED.tier,
		 status = EXCLUDED.status,
		 is_disqualified = EXCLUDED.is_disqualified,
		 needs_review = EXCLUDED.needs_review,
		 data = EXCLUDED.data,
		 scored_at = EXCLUDED.scored_at`,
		result.ID, result.ListingID, result.BuyerID, result.UniverseID,
		result.CompositeScore, string(result.Tier), string(result.Status),
		result.IsDisqualified, result.NeedsReview, data, result.ScoredAt,
	)
	return eris.Wrapf(err, "postgres: upsert score %s/%s", result.ListingID, result.BuyerID)
}

// UpsertScores commits a whole batch of results in one round trip via a
// temp-table bulk upsert.
func (s *PostgresStore) UpsertScores(ctx context.Context, results []*model.ScoredResult) error {
	if len(results) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(results))
	for _, r := range results {
		data, err := json.Marshal(r)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal result")
		}
		rows = append(rows, []any{
			r.ID, r.ListingID, r.BuyerID, r.UniverseID,
			r.CompositeScore, string(r.Tier), string(r.Status),
			r.IsDisqualified, r.NeedsReview, data, r.ScoredAt,
		})
	}

	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table: "scored_results",
		Columns: []string{
			"id", "listing_id", "buyer_id", "universe_id",
			"composite_score", "tier", "status",
			"is_disqualified", "needs_review", "data", "scored_at",
		},
		ConflictKeys: []string{"listing_id", "buyer_id", "universe_id"},
	}, rows)
	return eris.Wrap(err, "postgres: bulk upsert scores")
}

// GetScore returns nil when no score exists for the triple.
func (s *PostgresStore) GetScore(ctx context.Context, listingID, buyerID, universeID string) (*model.ScoredResult, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM scored_results WHERE listing_id = $1 AND buyer_id = $2 AND universe_id = $3`,
		listingID, buyerID, universeID,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get score %s/%s", listingID, buyerID)
	}

	var result model.ScoredResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal score")
	}
	return &result, nil
}

func (s *PostgresStore) ListScores(ctx context.Context, listingID, universeID string) ([]model.ScoredResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM scored_results WHERE listing_id = $1 AND universe_id = $2 ORDER BY composite_score DESC`,
		listingID, universeID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list scores %s", listingID)
	}
	defer rows.Close()

	var results []model.ScoredResult
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan score")
		}
		var r model.ScoredResult
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal score")
		}
		results = append(results, r)
	}
	return results, eris.Wrap(rows.Err(), "postgres: list scores")
}

// InsertSnapshot appends an audit copy. Snapshots are never updated.
func (s *PostgresStore) InsertSnapshot(ctx context.Context, snap *model.ScoreSnapshot) error {
	data, err := json.Marshal(snap.Result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal snapshot")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO score_snapshots (id, result_id, listing_id, buyer_id, universe_id, data, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		snap.ID, snap.ResultID, snap.ListingID, snap.BuyerID, snap.UniverseID, data, snap.RecordedAt,
	)
	return eris.Wrapf(err, "postgres: insert snapshot %s", snap.ID)
}
