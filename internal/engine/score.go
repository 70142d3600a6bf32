package engine

import (
	"context"
	"fmt"

	"github.com/quantlens/stockpulse/internal/analytics"
	"github.com/quantlens/stockpulse/internal/contracts"
)

// ScoreUndervalued recomputes the undervaluation score over every
// persisted snapshot with a positive price, returns the scored set
// sorted by score descending, and overwrites the stored undervalued
// flags wholesale: after this pass, exactly the qualifying snapshots
// carry the flag.
func (e *Engine) ScoreUndervalued(ctx context.Context) ([]analytics.ScoredSnapshot, error) {
	snapshots, err := e.snapshots.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}

	scored := e.scorer.ScoreAll(snapshots)

	qualifying := make([]string, 0, len(scored))
	for i := range scored {
		if scored[i].Undervalued {
			qualifying = append(qualifying, scored[i].Snapshot.Symbol)
		}
		scored[i].Snapshot.Undervalued = scored[i].Undervalued
	}

	if err := e.snapshots.SetUndervalued(ctx, qualifying); err != nil {
		return nil, fmt.Errorf("overwrite undervalued flags: %w", err)
	}

	e.logger.WithFields(map[string]interface{}{
		"scored":      len(scored),
		"undervalued": len(qualifying),
	}).Info("Scoring pass completed")

	return scored, nil
}

// ActivityRecord joins a significant holding record with its snapshot
// and activity tier
type ActivityRecord struct {
	Snapshot *contracts.SecuritySnapshot     `json:"snapshot,omitempty"`
	Holding  *contracts.InstitutionalHolding `json:"holding"`
	Tier     analytics.ActivityTier          `json:"activity_tier"`
}

// SignificantActivity returns holdings whose largest delta is at least
// minChangePct, joined with snapshots and tiered. Values below the fixed
// significance threshold are clamped up to it; the stored significant
// flag already encodes the 5-point rule.
func (e *Engine) SignificantActivity(ctx context.Context, minChangePct float64) ([]ActivityRecord, error) {
	if minChangePct < analytics.SignificantChangeThreshold {
		minChangePct = analytics.SignificantChangeThreshold
	}

	holdings, err := e.holdings.GetSignificant(ctx, minChangePct)
	if err != nil {
		return nil, fmt.Errorf("load significant holdings: %w", err)
	}

	records := make([]ActivityRecord, 0, len(holdings))
	for _, h := range holdings {
		snap, err := e.snapshots.GetBySymbol(ctx, h.Symbol)
		if err != nil {
			e.logger.WithError(err).WithField("symbol", h.Symbol).Warn("Failed to load snapshot for activity record")
		}

		records = append(records, ActivityRecord{
			Snapshot: snap,
			Holding:  h,
			Tier:     analytics.ClassifyTier(h.MaxAbsChange()),
		})
	}

	return records, nil
}
