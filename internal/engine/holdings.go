package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/quantlens/stockpulse/internal/analytics"
	"github.com/quantlens/stockpulse/internal/contracts"
	"github.com/quantlens/stockpulse/internal/quarter"
)

// RefreshHoldings fetches, normalizes and persists institutional
// holdings for every identifier. targetToken selects the requested
// period; empty means the current period. A malformed token is a caller
// error and rejects the whole call before any fetch.
//
// The period stored is the one the normalizer actually satisfied, and
// deltas are computed against the row exactly one quarter before that
// period, whatever row currently exists there. Re-runs are idempotent.
func (e *Engine) RefreshHoldings(ctx context.Context, symbols []string, targetToken string) ([]RefreshResult, error) {
	target := quarter.Current(e.now())
	if targetToken != "" {
		parsed, err := quarter.Parse(targetToken)
		if err != nil {
			return nil, fmt.Errorf("invalid target period: %w", err)
		}
		target = parsed
	}

	e.logger.WithFields(map[string]interface{}{
		"count":  len(symbols),
		"target": target.String(),
	}).Info("Starting holdings refresh")

	results := make([]RefreshResult, 0, len(symbols))

	for i, raw := range symbols {
		symbol := strings.ToUpper(strings.TrimSpace(raw))
		if symbol == "" {
			results = append(results, RefreshResult{Symbol: raw, Error: "empty identifier"})
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.WithField("processed", len(results)).Warn("Holdings refresh cancelled")
			return results, nil
		default:
		}

		record, err := e.refreshHolding(ctx, symbol, target)
		if err != nil {
			e.logger.WithError(err).WithField("symbol", symbol).Error("Failed to refresh holding")
			results = append(results, RefreshResult{Symbol: symbol, Error: err.Error()})
		} else {
			results = append(results, RefreshResult{Symbol: symbol, Success: true, Holding: record})
		}

		e.pace(i, len(symbols))
	}

	return results, nil
}

func (e *Engine) refreshHolding(ctx context.Context, symbol string, target quarter.Period) (*contracts.InstitutionalHolding, error) {
	normalized := e.norm.HoldingsFor(ctx, symbol, target)

	// The satisfied period drives everything downstream, not the request
	actual := normalized.Quarter
	prev := actual.Previous()

	prior, err := e.holdings.GetBySymbolAndQuarter(ctx, symbol, prev.String())
	if err != nil {
		return nil, fmt.Errorf("load prior period: %w", err)
	}

	record := &contracts.InstitutionalHolding{
		Symbol:      symbol,
		Quarter:     actual.String(),
		FIIPct:      normalized.FIIPct,
		DIIPct:      normalized.DIIPct,
		TotalPct:    normalized.TotalPct,
		PrevQuarter: prev.String(),
		Source:      normalized.Source,
		UpdatedAt:   e.now(),
	}

	analytics.ApplyChanges(record, prior)

	if err := e.holdings.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("save holding: %w", err)
	}

	return record, nil
}
