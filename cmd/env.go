package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dealmatch-cli/internal/geo"
	"github.com/sells-group/dealmatch-cli/internal/orchestrator"
	"github.com/sells-group/dealmatch-cli/internal/scorer"
	"github.com/sells-group/dealmatch-cli/internal/snapshot"
	"github.com/sells-group/dealmatch-cli/internal/store"
	"github.com/sells-group/dealmatch-cli/pkg/anthropic"
)

// engineEnv bundles the store, snapshot recorder and orchestrator shared by
// the score, serve and export commands.
type engineEnv struct {
	Store        store.Store
	Recorder     *snapshot.Recorder
	Orchestrator *orchestrator.Orchestrator
}

// Close flushes pending snapshots and releases the store.
func (e *engineEnv) Close() {
	if e.Recorder != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Recorder.Close(ctx); err != nil {
			zap.L().Warn("snapshot recorder close", zap.Error(err))
		}
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres", "":
		poolCfg := &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, poolCfg)
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("cmd: unsupported store driver %q", cfg.Store.Driver)
	}
}

// newClassifier returns nil when no API key is configured or semantic
// matching is disabled; the scorer then runs its deterministic paths only.
func newClassifier() scorer.Classifier {
	if cfg.Anthropic.Key == "" || !cfg.Scoring.SemanticMatch {
		return nil
	}
	client := anthropic.NewClient(cfg.Anthropic.Key)
	return anthropic.NewClassifier(client, cfg.Anthropic.HaikuModel, cfg.Anthropic.CallTimeout())
}

func loadAdjacency() map[string][]string {
	if cfg.Scoring.AdjacencyMapFile == "" {
		return nil
	}
	adjacency, err := scorer.LoadAdjacencyFile(cfg.Scoring.AdjacencyMapFile)
	if err != nil {
		zap.L().Warn("failed to load adjacency map, using built-in defaults",
			zap.String("path", cfg.Scoring.AdjacencyMapFile),
			zap.Error(err))
		return nil
	}
	return adjacency
}

func initEngine(ctx context.Context, opts orchestrator.Options) (*engineEnv, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}

	asm := scorer.NewAssembler(geo.NewStateTable(), newClassifier(), loadAdjacency())
	rec := snapshot.NewRecorder(st, 0)

	if opts.BatchSize <= 0 {
		opts.BatchSize = cfg.Scoring.BatchSize
	}
	if opts.RunTimeout <= 0 && cfg.Scoring.RunTimeoutSecs > 0 {
		opts.RunTimeout = time.Duration(cfg.Scoring.RunTimeoutSecs) * time.Second
	}

	return &engineEnv{
		Store:        st,
		Recorder:     rec,
		Orchestrator: orchestrator.New(st, asm, rec, opts),
	}, nil
}
