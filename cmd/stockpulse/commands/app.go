package commands

import (
	"context"
	"fmt"

	"github.com/quantlens/stockpulse/internal/analytics"
	"github.com/quantlens/stockpulse/internal/engine"
	"github.com/quantlens/stockpulse/internal/external/marketfeed"
	"github.com/quantlens/stockpulse/internal/normalizer"
	"github.com/quantlens/stockpulse/internal/store"
	"github.com/quantlens/stockpulse/pkg/config"
	"github.com/quantlens/stockpulse/pkg/database"
	"github.com/quantlens/stockpulse/pkg/httputil"
	"github.com/quantlens/stockpulse/pkg/logger"
	"github.com/quantlens/stockpulse/pkg/redis"
)

// app bundles the wired collaborators every command needs. The feed
// client, normalizer and engine are constructed explicitly here; nothing
// lives in package-level state.
type app struct {
	cfg          *config.Config
	log          *logger.Logger
	db           *database.DB
	redisClient  *redis.Client
	snapshotRepo *store.SnapshotRepository
	holdingRepo  *store.HoldingRepository
	resultRepo   *store.ResultRepository
	engine       *engine.Engine
}

// newApp loads config and wires the full dependency graph
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := store.Migrate(context.Background(), db.Pool); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, payload caching disabled")
		redisClient = nil
	}

	var cache *redis.Cache
	if redisClient != nil {
		cache = redis.NewCache(redisClient, "stockpulse")
	}

	httpClient := httputil.New(cfg, log)
	feed := marketfeed.NewClient(cfg, httpClient, cache, log)
	norm := normalizer.New(feed, cfg.Source.UseLive, log)
	scorer := analytics.NewValueScorer(cfg.Engine.SmallCapThreshold, log)

	snapshotRepo := store.NewSnapshotRepository(db.Pool)
	holdingRepo := store.NewHoldingRepository(db.Pool)
	resultRepo := store.NewResultRepository(db.Pool)

	eng := engine.New(
		snapshotRepo, holdingRepo, resultRepo,
		norm, scorer, engine.PacingFromConfig(cfg), log,
	)

	return &app{
		cfg:          cfg,
		log:          log,
		db:           db,
		redisClient:  redisClient,
		snapshotRepo: snapshotRepo,
		holdingRepo:  holdingRepo,
		resultRepo:   resultRepo,
		engine:       eng,
	}, nil
}

// Close releases held connections
func (a *app) Close() {
	if a.redisClient != nil {
		_ = a.redisClient.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
