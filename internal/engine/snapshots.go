package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/quantlens/stockpulse/internal/contracts"
	"github.com/quantlens/stockpulse/internal/normalizer"
)

// RefreshSnapshots fetches, normalizes and persists a snapshot for every
// identifier, strictly sequentially under the pacing policy. One
// identifier's failure never blocks the rest; cancellation stops after
// the security in flight.
func (e *Engine) RefreshSnapshots(ctx context.Context, symbols []string) []RefreshResult {
	results := make([]RefreshResult, 0, len(symbols))

	e.logger.WithFields(map[string]interface{}{
		"count":      len(symbols),
		"batch_size": e.pacing.BatchSize,
	}).Info("Starting snapshot refresh")

	for i, raw := range symbols {
		symbol := strings.ToUpper(strings.TrimSpace(raw))
		if symbol == "" {
			results = append(results, RefreshResult{Symbol: raw, Error: "empty identifier"})
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.WithField("processed", len(results)).Warn("Snapshot refresh cancelled")
			return results
		default:
		}

		snap := e.norm.SnapshotFor(ctx, symbol)
		record := e.toSnapshotRecord(snap)

		if err := e.snapshots.Upsert(ctx, record); err != nil {
			e.logger.WithError(err).WithField("symbol", symbol).Error("Failed to save snapshot")
			results = append(results, RefreshResult{Symbol: symbol, Error: err.Error()})
		} else {
			results = append(results, RefreshResult{Symbol: symbol, Success: true, Snapshot: record})
		}

		e.pace(i, len(symbols))
	}

	success := 0
	for _, r := range results {
		if r.Success {
			success++
		}
	}
	e.logger.WithFields(map[string]interface{}{
		"success": success,
		"failed":  len(results) - success,
	}).Info("Snapshot refresh completed")

	return results
}

func (e *Engine) toSnapshotRecord(snap *normalizer.Snapshot) *contracts.SecuritySnapshot {
	return &contracts.SecuritySnapshot{
		Symbol:     snap.Symbol,
		Name:       snap.Name,
		Price:      snap.Price,
		PERatio:    snap.PERatio,
		WeekHigh52: snap.WeekHigh,
		WeekLow52:  snap.WeekLow,
		MarketCap:  snap.MarketCap,
		// New securities join the scheduled universe; the upsert keeps
		// the stored flag on refresh, so untracking sticks
		Tracked:   true,
		Source:    snap.Source,
		UpdatedAt: e.now(),
	}
}

// SetTracked flips whether a security participates in the scheduled
// refresh, scoring and result-generation passes
func (e *Engine) SetTracked(ctx context.Context, symbol string, tracked bool) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return fmt.Errorf("empty identifier")
	}

	existing, err := e.snapshots.GetBySymbol(ctx, symbol)
	if err != nil {
		return fmt.Errorf("load security: %w", err)
	}
	if existing == nil {
		return fmt.Errorf("security %s not found", symbol)
	}

	if err := e.snapshots.SetTracked(ctx, symbol, tracked); err != nil {
		return fmt.Errorf("update tracked flag: %w", err)
	}

	e.logger.WithFields(map[string]interface{}{
		"symbol":  symbol,
		"tracked": tracked,
	}).Info("Tracked flag updated")

	return nil
}
