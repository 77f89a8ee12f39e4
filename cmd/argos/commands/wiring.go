package commands

import (
	"fmt"

	"github.com/wonny/argos/internal/backtest"
	"github.com/wonny/argos/internal/contracts"
	"github.com/wonny/argos/internal/indicators"
	"github.com/wonny/argos/internal/marketdata"
	"github.com/wonny/argos/internal/scoring"
	"github.com/wonny/argos/internal/snapshot"
	"github.com/wonny/argos/internal/strategyconfig"
	"github.com/wonny/argos/pkg/config"
	"github.com/wonny/argos/pkg/database"
	"github.com/wonny/argos/pkg/logger"
	"github.com/wonny/argos/pkg/redis"
)

// runtime is the config and logger every command starts from.
type runtime struct {
	cfg *config.Config
	log *logger.Logger
}

func initRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &runtime{cfg: cfg, log: logger.New(cfg)}, nil
}

// stores bundles the data access layer the config selects: price history
// from postgres or parquet, snapshots on file or postgres, and an
// optional redis cache.
type stores struct {
	prices  contracts.PriceReader
	sectors contracts.SectorLookup // nil when the source carries no sector data
	snaps   snapshot.Store

	db    *database.DB
	redis *redis.Client
}

func openStores(rt *runtime) (*stores, error) {
	cfg := rt.cfg
	st := &stores{}

	if cfg.Data.Source == "postgres" || cfg.Snapshot.Store == "postgres" {
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		st.db = db
	}

	// The cache is optional: an unreachable redis degrades to no caching.
	rds, err := redis.New(cfg)
	if err != nil {
		rt.log.WithError(err).Warn("Redis unavailable, running without cache")
		disabled := *cfg
		disabled.Redis.Enabled = false
		rds, _ = redis.New(&disabled)
	}
	st.redis = rds

	switch cfg.Data.Source {
	case "postgres":
		repo := marketdata.NewPostgresRepository(st.db.Pool, rt.log.Zerolog())
		st.prices = repo
		st.sectors = repo
		if rds.Enabled() {
			cache := redis.NewCache(rds, "argos")
			st.sectors = marketdata.NewCachedSectorLookup(repo, cache, redis.TTLLong, rt.log.Zerolog())
		}
	case "parquet":
		// Parquet exports carry bars only; rankings then run without the
		// sector-relative component.
		st.prices = marketdata.NewParquetStore(cfg.Data.ParquetDir)
	default:
		st.Close()
		return nil, fmt.Errorf("unknown data source %q", cfg.Data.Source)
	}

	switch cfg.Snapshot.Store {
	case "file":
		fs, err := snapshot.NewFileStore(cfg.Snapshot.Dir, rt.log.Zerolog())
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("open snapshot store: %w", err)
		}
		st.snaps = fs
	case "postgres":
		st.snaps = snapshot.NewPostgresStore(st.db.Pool)
	default:
		st.Close()
		return nil, fmt.Errorf("unknown snapshot store %q", cfg.Snapshot.Store)
	}

	return st, nil
}

// Close releases every connection the stores hold.
func (s *stores) Close() {
	if s.redis != nil {
		s.redis.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
}

// loadStrategy reads and hashes the strategy file, printing any advisory
// warnings it carries. An empty path falls back to the configured file.
func loadStrategy(rt *runtime, path string) (*strategyconfig.Config, string, error) {
	if path == "" {
		path = rt.cfg.StrategyFile
	}

	strat, _, err := strategyconfig.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("load strategy: %w", err)
	}
	hash, err := strategyconfig.Hash(strat)
	if err != nil {
		return nil, "", fmt.Errorf("hash strategy: %w", err)
	}

	for _, w := range strategyconfig.Warn(strat) {
		PrintWarning(fmt.Sprintf("%s: %s", w.Code, w.Message))
	}

	return strat, hash, nil
}

// buildScoringStack creates the indicator builder and ranker a strategy
// configures.
func buildScoringStack(strat *strategyconfig.Config, log *logger.Logger) (*indicators.Builder, *backtest.Ranker) {
	builder := indicators.New(indicators.Config{StalenessDays: strat.Indicators.StalenessDays}, log.Zerolog())
	scorer := scoring.NewTechnicalScorer(strat.Scoring.Weights, log.Zerolog())
	return builder, backtest.NewRanker(scorer, log.Zerolog())
}
