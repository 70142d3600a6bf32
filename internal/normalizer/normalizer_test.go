package normalizer

import (
	"context"
	"errors"
	"testing"

	"github.com/quantlens/stockpulse/internal/external/marketfeed"
	"github.com/quantlens/stockpulse/internal/quarter"
	"github.com/quantlens/stockpulse/pkg/logger"
)

// fakeFeed serves canned payloads per symbol
type fakeFeed struct {
	security     map[string]marketfeed.Payload
	shareholding map[string]marketfeed.Payload
	pages        map[string]string
	err          error
}

func (f *fakeFeed) FetchSecurity(ctx context.Context, symbol string) (marketfeed.Payload, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.security[symbol], nil
}

func (f *fakeFeed) FetchShareholding(ctx context.Context, symbol string) (marketfeed.Payload, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.shareholding[symbol], nil
}

func (f *fakeFeed) FetchShareholdingPage(ctx context.Context, symbol string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	page, ok := f.pages[symbol]
	if !ok {
		return "", errors.New("no page")
	}
	return page, nil
}

func q(t *testing.T, token string) quarter.Period {
	t.Helper()
	p, err := quarter.Parse(token)
	if err != nil {
		t.Fatalf("parse %s: %v", token, err)
	}
	return p
}

func TestSnapshotForLive(t *testing.T) {
	feed := &fakeFeed{security: map[string]marketfeed.Payload{
		"ACME": {
			"priceInfo": map[string]interface{}{
				"lastPrice": 450.0,
				"yearHigh":  700.0,
				"yearLow":   300.0,
			},
			"peRatio":   12.5,
			"marketCap": 3_000_000_000.0,
		},
	}}

	n := New(feed, true, logger.NewNop())
	snap := n.SnapshotFor(context.Background(), " acme ")

	if snap.Symbol != "ACME" {
		t.Errorf("symbol = %s, want ACME", snap.Symbol)
	}
	if snap.Source != SourceLive {
		t.Errorf("source = %s, want live", snap.Source)
	}
	if snap.Price != 450.0 {
		t.Errorf("price = %v, want 450", snap.Price)
	}
	if snap.WeekHigh != 700.0 || snap.WeekLow != 300.0 {
		t.Errorf("52w band = [%v, %v], want [300, 700]", snap.WeekLow, snap.WeekHigh)
	}
	if snap.PERatio == nil || *snap.PERatio != 12.5 {
		t.Errorf("pe = %v, want 12.5", snap.PERatio)
	}
}

func TestSnapshotForFallsBackOnError(t *testing.T) {
	feed := &fakeFeed{err: errors.New("connection refused")}
	n := New(feed, true, logger.NewNop())

	snap := n.SnapshotFor(context.Background(), "ACME")
	if snap == nil {
		t.Fatal("expected a synthetic snapshot, got nil")
	}
	if snap.Source != SourceSynthetic {
		t.Errorf("source = %s, want synthetic", snap.Source)
	}
	if snap.Price < 100 || snap.Price > 2100 {
		t.Errorf("synthetic price %v outside [100, 2100]", snap.Price)
	}
}

func TestSnapshotForFallsBackOnUnusablePayload(t *testing.T) {
	feed := &fakeFeed{security: map[string]marketfeed.Payload{
		"ACME": {"status": "ok"}, // no price anywhere
	}}
	n := New(feed, true, logger.NewNop())

	snap := n.SnapshotFor(context.Background(), "ACME")
	if snap.Source != SourceSynthetic {
		t.Errorf("source = %s, want synthetic", snap.Source)
	}
}

func TestSnapshotForSyntheticMode(t *testing.T) {
	n := New(nil, false, logger.NewNop())

	a := n.SnapshotFor(context.Background(), "ACME")
	b := n.SnapshotFor(context.Background(), "ACME")

	if a.Source != SourceSynthetic {
		t.Errorf("source = %s, want synthetic", a.Source)
	}
	if a.Price != b.Price || *a.PERatio != *b.PERatio {
		t.Error("synthetic snapshots for the same symbol should be identical")
	}
}

func TestHoldingsForDirectShape(t *testing.T) {
	feed := &fakeFeed{shareholding: map[string]marketfeed.Payload{
		"ACME": {"fii": 24.5, "dii": 18.25},
	}}
	n := New(feed, true, logger.NewNop())

	h := n.HoldingsFor(context.Background(), "ACME", q(t, "Q1-2025"))

	if h.Source != SourceLive {
		t.Fatalf("source = %s, want live", h.Source)
	}
	if *h.FIIPct != 24.5 || *h.DIIPct != 18.25 {
		t.Errorf("fii/dii = %v/%v, want 24.5/18.25", *h.FIIPct, *h.DIIPct)
	}
	if h.TotalPct == nil || *h.TotalPct != 42.75 {
		t.Errorf("total = %v, want 42.75", h.TotalPct)
	}
	if h.Quarter.String() != "Q1-2025" {
		t.Errorf("quarter = %s, want requested Q1-2025", h.Quarter)
	}
}

func TestHoldingsForBreakdownShape(t *testing.T) {
	feed := &fakeFeed{shareholding: map[string]marketfeed.Payload{
		"ACME": {
			"breakdown": []interface{}{
				map[string]interface{}{"category": "FII/FPI", "percent": 30.0},
				map[string]interface{}{"category": "Mutual Funds", "percent": 8.5},
				map[string]interface{}{"category": "Insurance", "percent": 3.5},
			},
		},
	}}
	n := New(feed, true, logger.NewNop())

	h := n.HoldingsFor(context.Background(), "ACME", q(t, "Q2-2025"))

	if *h.FIIPct != 30.0 {
		t.Errorf("fii = %v, want 30", *h.FIIPct)
	}
	if *h.DIIPct != 12.0 {
		t.Errorf("dii = %v, want 12 (8.5+3.5)", *h.DIIPct)
	}
}

func TestHoldingsForStatedPeriodWins(t *testing.T) {
	feed := &fakeFeed{shareholding: map[string]marketfeed.Payload{
		"ACME": {"fii": 20.0, "quarter": "Q4-2024"},
	}}
	n := New(feed, true, logger.NewNop())

	h := n.HoldingsFor(context.Background(), "ACME", q(t, "Q1-2025"))
	if h.Quarter.String() != "Q4-2024" {
		t.Errorf("quarter = %s, want payload-stated Q4-2024", h.Quarter)
	}
}

func TestHoldingsForTimeSeriesReportsActualPeriod(t *testing.T) {
	feed := &fakeFeed{shareholding: map[string]marketfeed.Payload{
		"ACME": {
			"history": map[string]interface{}{
				"31-Dec-2024": map[string]interface{}{"FII": 22.0, "DII": 11.0},
			},
		},
	}}
	n := New(feed, true, logger.NewNop())

	h := n.HoldingsFor(context.Background(), "ACME", q(t, "Q2-2025"))

	if h.Quarter.String() != "Q4-2024" {
		t.Errorf("quarter = %s, want Q4-2024 from the series date", h.Quarter)
	}
	if *h.FIIPct != 22.0 {
		t.Errorf("fii = %v, want 22", *h.FIIPct)
	}
}

func TestHoldingsForProbeFallback(t *testing.T) {
	feed := &fakeFeed{
		shareholding: map[string]marketfeed.Payload{
			"ACME": {"status": "ok"}, // nothing extractable
		},
		pages: map[string]string{
			"ACME": `<html><body><table>
				<tr><td>FII</td><td>26.75%</td></tr>
				<tr><td>DII</td><td>14.20%</td></tr>
				<tr><td>Promoters</td><td>40.00%</td></tr>
			</table></body></html>`,
		},
	}
	n := New(feed, true, logger.NewNop())

	h := n.HoldingsFor(context.Background(), "ACME", q(t, "Q1-2025"))

	if h.Source != SourceLive {
		t.Fatalf("source = %s, want live from probe", h.Source)
	}
	if *h.FIIPct != 26.75 || *h.DIIPct != 14.2 {
		t.Errorf("fii/dii = %v/%v, want 26.75/14.2", *h.FIIPct, *h.DIIPct)
	}
}

func TestHoldingsForFallsBackToSynthetic(t *testing.T) {
	feed := &fakeFeed{shareholding: map[string]marketfeed.Payload{
		"ACME": {"status": "ok"},
	}}
	n := New(feed, true, logger.NewNop())

	target := q(t, "Q1-2025")
	h := n.HoldingsFor(context.Background(), "ACME", target)

	if h.Source != SourceSynthetic {
		t.Fatalf("source = %s, want synthetic", h.Source)
	}
	if h.Quarter != target {
		t.Errorf("quarter = %s, want requested %s", h.Quarter, target)
	}
	if h.FIIPct == nil || h.DIIPct == nil || h.TotalPct == nil {
		t.Fatal("synthetic record should carry all three percentages")
	}
}

func TestHoldingsForFractionPayload(t *testing.T) {
	feed := &fakeFeed{shareholding: map[string]marketfeed.Payload{
		"ACME": {"fii": 0.225, "dii": 0.101},
	}}
	n := New(feed, true, logger.NewNop())

	h := n.HoldingsFor(context.Background(), "ACME", q(t, "Q1-2025"))
	if *h.FIIPct != 22.5 || *h.DIIPct != 10.1 {
		t.Errorf("fii/dii = %v/%v, want 22.5/10.1 (fractions scaled)", *h.FIIPct, *h.DIIPct)
	}
}
