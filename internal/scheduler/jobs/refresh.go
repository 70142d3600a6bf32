// Package jobs defines the scheduled analytics passes.
package jobs

import (
	"context"
	"fmt"

	"github.com/quantlens/stockpulse/internal/contracts"
	"github.com/quantlens/stockpulse/internal/engine"
	"github.com/quantlens/stockpulse/pkg/logger"
)

// trackedSymbols loads the symbols of user-tracked securities
func trackedSymbols(ctx context.Context, repo contracts.SnapshotRepository) ([]string, error) {
	tracked, err := repo.GetTracked(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tracked securities: %w", err)
	}

	symbols := make([]string, len(tracked))
	for i, s := range tracked {
		symbols[i] = s.Symbol
	}
	return symbols, nil
}

// SnapshotRefreshJob refreshes snapshots for tracked securities and
// rescores the universe afterwards
type SnapshotRefreshJob struct {
	engine       *engine.Engine
	snapshotRepo contracts.SnapshotRepository
	logger       *logger.Logger
}

// NewSnapshotRefreshJob creates a new snapshot refresh job
func NewSnapshotRefreshJob(eng *engine.Engine, snapshotRepo contracts.SnapshotRepository, log *logger.Logger) *SnapshotRefreshJob {
	return &SnapshotRefreshJob{
		engine:       eng,
		snapshotRepo: snapshotRepo,
		logger:       log,
	}
}

// Name returns the job name
func (j *SnapshotRefreshJob) Name() string {
	return "snapshot_refresh"
}

// Schedule returns the cron schedule (every day at 6 PM, after close)
func (j *SnapshotRefreshJob) Schedule() string {
	return "0 0 18 * * *"
}

// Run executes the snapshot refresh and scoring pass
func (j *SnapshotRefreshJob) Run(ctx context.Context) error {
	symbols, err := trackedSymbols(ctx, j.snapshotRepo)
	if err != nil {
		return err
	}
	if len(symbols) == 0 {
		j.logger.Info("No tracked securities, skipping snapshot refresh")
		return nil
	}

	j.engine.RefreshSnapshots(ctx, symbols)

	if _, err := j.engine.ScoreUndervalued(ctx); err != nil {
		return fmt.Errorf("scoring pass: %w", err)
	}

	return nil
}

// HoldingsRefreshJob refreshes institutional holdings for the current
// period
type HoldingsRefreshJob struct {
	engine       *engine.Engine
	snapshotRepo contracts.SnapshotRepository
	logger       *logger.Logger
}

// NewHoldingsRefreshJob creates a new holdings refresh job
func NewHoldingsRefreshJob(eng *engine.Engine, snapshotRepo contracts.SnapshotRepository, log *logger.Logger) *HoldingsRefreshJob {
	return &HoldingsRefreshJob{
		engine:       eng,
		snapshotRepo: snapshotRepo,
		logger:       log,
	}
}

// Name returns the job name
func (j *HoldingsRefreshJob) Name() string {
	return "holdings_refresh"
}

// Schedule returns the cron schedule (every Sunday at 7 AM; shareholding
// data moves quarterly, weekly picks up late filings)
func (j *HoldingsRefreshJob) Schedule() string {
	return "0 0 7 * * SUN"
}

// Run executes the holdings refresh
func (j *HoldingsRefreshJob) Run(ctx context.Context) error {
	symbols, err := trackedSymbols(ctx, j.snapshotRepo)
	if err != nil {
		return err
	}
	if len(symbols) == 0 {
		j.logger.Info("No tracked securities, skipping holdings refresh")
		return nil
	}

	// Empty target means the current period
	if _, err := j.engine.RefreshHoldings(ctx, symbols, ""); err != nil {
		return fmt.Errorf("holdings refresh: %w", err)
	}

	return nil
}

// ResultGenerationJob materializes upcoming quarterly result records
type ResultGenerationJob struct {
	engine *engine.Engine
	logger *logger.Logger
}

// NewResultGenerationJob creates a new result generation job
func NewResultGenerationJob(eng *engine.Engine, log *logger.Logger) *ResultGenerationJob {
	return &ResultGenerationJob{
		engine: eng,
		logger: log,
	}
}

// Name returns the job name
func (j *ResultGenerationJob) Name() string {
	return "result_generation"
}

// Schedule returns the cron schedule (every Monday at 6 AM)
func (j *ResultGenerationJob) Schedule() string {
	return "0 0 6 * * MON"
}

// Run executes the result materialization
func (j *ResultGenerationJob) Run(ctx context.Context) error {
	if _, err := j.engine.GenerateUpcomingResults(ctx, 2); err != nil {
		return fmt.Errorf("generate upcoming results: %w", err)
	}
	return nil
}
