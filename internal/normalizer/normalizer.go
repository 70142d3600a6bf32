// Package normalizer turns noisy external payloads into typed snapshots
// and holding records. Live extraction walks a fixed priority chain of
// payload shapes; any failure, and any payload no shape recognizes,
// falls back to the synthetic generator for that one security. Failures
// never propagate to the batch.
package normalizer

import (
	"context"
	"strings"

	"github.com/quantlens/stockpulse/internal/external/marketfeed"
	"github.com/quantlens/stockpulse/internal/quarter"
	"github.com/quantlens/stockpulse/pkg/logger"
)

// Provenance tags. A record carries exactly one; live and synthetic
// fields are never mixed.
const (
	SourceLive      = "live"
	SourceSynthetic = "synthetic"
)

// Snapshot is a normalized per-security valuation snapshot
type Snapshot struct {
	Symbol    string
	Name      string
	Price     float64
	PERatio   *float64
	WeekHigh  float64
	WeekLow   float64
	MarketCap *float64
	Source    string
}

// Holdings is a normalized per-security institutional holding record.
// Quarter is the period the data actually pertains to, which may differ
// from the period the caller requested; consumers must use this one.
type Holdings struct {
	Symbol   string
	Quarter  quarter.Period
	FIIPct   *float64
	DIIPct   *float64
	TotalPct *float64
	Source   string
}

// Normalizer extracts typed values from the market feed. The feed client
// is injected at construction; there is no module-level state.
type Normalizer struct {
	feed    marketfeed.Fetcher
	synth   *Synthetic
	useLive bool
	logger  *logger.Logger
}

// New creates a Normalizer. When useLive is false every request is
// served by the synthetic generator.
func New(feed marketfeed.Fetcher, useLive bool, log *logger.Logger) *Normalizer {
	return &Normalizer{
		feed:    feed,
		synth:   NewSynthetic(),
		useLive: useLive && feed != nil,
		logger:  log.WithField("module", "normalizer"),
	}
}

// SnapshotFor produces a normalized snapshot for a symbol. It never
// fails: when the live source errors or yields nothing usable the
// synthetic generator answers instead.
func (n *Normalizer) SnapshotFor(ctx context.Context, symbol string) *Snapshot {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	if !n.useLive {
		return n.synth.Snapshot(symbol)
	}

	payload, err := n.feed.FetchSecurity(ctx, symbol)
	if err != nil {
		n.logger.WithError(err).WithField("symbol", symbol).Warn("Live fetch failed, using synthetic snapshot")
		return n.synth.Snapshot(symbol)
	}

	snap := extractSnapshot(symbol, payload)
	if snap == nil {
		n.logger.WithField("symbol", symbol).Warn("No snapshot fields extracted, using synthetic")
		return n.synth.Snapshot(symbol)
	}

	return snap
}

// HoldingsFor produces normalized holdings for a symbol. The target
// period is what the caller wants; the returned record reports the
// period actually satisfied. Never fails; synthetic fallback covers
// source errors and unrecognized payloads.
func (n *Normalizer) HoldingsFor(ctx context.Context, symbol string, target quarter.Period) *Holdings {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	if !n.useLive {
		return n.synth.Holdings(symbol, target)
	}

	holdings, shape := n.liveHoldings(ctx, symbol, target)
	if holdings == nil {
		n.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"shape":  shape.String(),
		}).Warn("No holding fields extracted, using synthetic")
		return n.synth.Holdings(symbol, target)
	}

	n.logger.WithFields(map[string]interface{}{
		"symbol":  symbol,
		"shape":   shape.String(),
		"quarter": holdings.Quarter.String(),
	}).Debug("Extracted live holdings")

	return holdings
}

// liveHoldings walks the extraction strategies in strict priority order,
// stopping at the first one yielding at least one target field.
func (n *Normalizer) liveHoldings(ctx context.Context, symbol string, target quarter.Period) (*Holdings, payloadShape) {
	payload, err := n.feed.FetchShareholding(ctx, symbol)
	if err != nil {
		n.logger.WithError(err).WithField("symbol", symbol).Warn("Shareholding fetch failed")
		return nil, shapeUnrecognized
	}

	// 1. Pre-shaped fields at the payload root
	if values := parseDirect(payload); !values.empty() {
		return n.assemble(symbol, values, payload, target), shapeDirect
	}

	// 2. Nested category breakdown
	if container, ok := breakdownContainer(payload); ok {
		if values := parseBreakdown(container); !values.empty() {
			return n.assemble(symbol, values, payload, target), shapeBreakdown
		}
	}

	// 3. Date-keyed time series; the satisfied period comes from the
	// latest date key, not from the request
	if values, actual := parseTimeSeries(payload); !values.empty() && actual != nil {
		h := n.assemble(symbol, values, nil, *actual)
		return h, shapeTimeSeries
	}

	// 4. Last resort: secondary endpoint probe
	if html, err := n.feed.FetchShareholdingPage(ctx, symbol); err == nil {
		if values := parseProbeHTML(html); !values.empty() {
			return n.assemble(symbol, values, nil, target), shapeBreakdown
		}
	}

	return nil, shapeUnrecognized
}

// assemble builds a live Holdings record. When the payload states its
// own period token that wins over the requested one.
func (n *Normalizer) assemble(symbol string, values holdingValues, payload marketfeed.Payload, fallback quarter.Period) *Holdings {
	period := fallback
	if payload != nil {
		if stated := payloadPeriod(payload); stated != nil {
			period = *stated
		}
	}

	h := &Holdings{
		Symbol:  symbol,
		Quarter: period,
		FIIPct:  values.fii,
		DIIPct:  values.dii,
		Source:  SourceLive,
	}

	if values.fii != nil && values.dii != nil {
		total := round2(*values.fii + *values.dii)
		h.TotalPct = &total
	}

	return h
}

// extractSnapshot pulls valuation fields from a quote payload. Sources
// disagree on key names and nesting; both the root and a nested
// priceInfo object are probed. A payload without a positive price is
// unusable.
func extractSnapshot(symbol string, payload marketfeed.Payload) *Snapshot {
	roots := []map[string]interface{}{payload}
	for _, k := range []string{"priceInfo", "quote", "data"} {
		if nested, ok := payload[k].(map[string]interface{}); ok {
			roots = append(roots, nested)
		}
	}

	var snap *Snapshot
	for _, root := range roots {
		price := firstFloat(root, "price", "currentPrice", "lastPrice", "ltp", "close")
		if price == nil || *price <= 0 {
			continue
		}

		snap = &Snapshot{
			Symbol: symbol,
			Name:   symbol,
			Price:  round2(*price),
			Source: SourceLive,
		}

		if name, ok := rowString(root, "name", "companyName", "company_name"); ok {
			snap.Name = name
		}
		if pe := firstFloat(root, "peRatio", "pe", "pe_ratio", "trailingPE"); pe != nil {
			v := round2(*pe)
			snap.PERatio = &v
		}
		if high := firstFloat(root, "weekHigh52", "week52High", "high52", "yearHigh"); high != nil {
			snap.WeekHigh = round2(*high)
		}
		if low := firstFloat(root, "weekLow52", "week52Low", "low52", "yearLow"); low != nil {
			snap.WeekLow = round2(*low)
		}
		if mc := firstFloat(root, "marketCap", "market_cap", "mcap"); mc != nil {
			v := round2(*mc)
			snap.MarketCap = &v
		}
		break
	}

	return snap
}
