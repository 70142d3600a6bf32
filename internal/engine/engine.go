// Package engine orchestrates the analytics passes: snapshot refresh,
// undervaluation scoring, holding refresh with change classification,
// and quarterly result scheduling. Batch operations are sequential by
// design, paced to respect source rate limits, and report per-identifier
// outcomes instead of failing atomically.
package engine

import (
	"time"

	"github.com/quantlens/stockpulse/internal/analytics"
	"github.com/quantlens/stockpulse/internal/contracts"
	"github.com/quantlens/stockpulse/internal/normalizer"
	"github.com/quantlens/stockpulse/pkg/config"
	"github.com/quantlens/stockpulse/pkg/logger"
)

// Pacing is the scheduling policy for sequential batch execution. No
// two fetches run concurrently; the delays are deliberate throttling.
type Pacing struct {
	BatchSize         int
	InterRequestDelay time.Duration
	InterBatchDelay   time.Duration
}

// DefaultPacing returns the standard batch pacing
func DefaultPacing() Pacing {
	return Pacing{
		BatchSize:         10,
		InterRequestDelay: 200 * time.Millisecond,
		InterBatchDelay:   1 * time.Second,
	}
}

// PacingFromConfig builds a pacing policy from config, falling back to
// defaults for unset values
func PacingFromConfig(cfg *config.Config) Pacing {
	p := DefaultPacing()
	if cfg.Engine.BatchSize > 0 {
		p.BatchSize = cfg.Engine.BatchSize
	}
	if cfg.Engine.InterRequestDelay > 0 {
		p.InterRequestDelay = cfg.Engine.InterRequestDelay
	}
	if cfg.Engine.InterBatchDelay > 0 {
		p.InterBatchDelay = cfg.Engine.InterBatchDelay
	}
	return p
}

// Engine is the valuation and institutional-activity analytics engine
type Engine struct {
	snapshots contracts.SnapshotRepository
	holdings  contracts.HoldingRepository
	results   contracts.ResultRepository
	norm      *normalizer.Normalizer
	scorer    *analytics.ValueScorer
	pacing    Pacing
	logger    *logger.Logger
	now       func() time.Time
}

// New creates an Engine. Collaborators are injected; the engine keeps no
// state across batch runs beyond what the repositories persist.
func New(
	snapshots contracts.SnapshotRepository,
	holdings contracts.HoldingRepository,
	results contracts.ResultRepository,
	norm *normalizer.Normalizer,
	scorer *analytics.ValueScorer,
	pacing Pacing,
	log *logger.Logger,
) *Engine {
	return &Engine{
		snapshots: snapshots,
		holdings:  holdings,
		results:   results,
		norm:      norm,
		scorer:    scorer,
		pacing:    pacing,
		logger:    log.WithField("module", "engine"),
		now:       time.Now,
	}
}

// RefreshResult is the per-identifier outcome of a batch refresh
type RefreshResult struct {
	Symbol   string                          `json:"symbol"`
	Success  bool                            `json:"success"`
	Error    string                          `json:"error,omitempty"`
	Snapshot *contracts.SecuritySnapshot     `json:"snapshot,omitempty"`
	Holding  *contracts.InstitutionalHolding `json:"holding,omitempty"`
}

// pace sleeps between items and batches. i is the zero-based position in
// the full symbol list.
func (e *Engine) pace(i, total int) {
	if i >= total-1 {
		return
	}
	if (i+1)%e.pacing.BatchSize == 0 {
		time.Sleep(e.pacing.InterBatchDelay)
		return
	}
	time.Sleep(e.pacing.InterRequestDelay)
}
