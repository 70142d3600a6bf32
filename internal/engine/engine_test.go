package engine

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/quantlens/stockpulse/internal/analytics"
	"github.com/quantlens/stockpulse/internal/contracts"
	"github.com/quantlens/stockpulse/internal/normalizer"
	"github.com/quantlens/stockpulse/internal/quarter"
	"github.com/quantlens/stockpulse/pkg/logger"
)

// In-memory repositories for engine tests

type fakeSnapshotRepo struct {
	records map[string]*contracts.SecuritySnapshot
	failFor map[string]bool
}

func newFakeSnapshotRepo() *fakeSnapshotRepo {
	return &fakeSnapshotRepo{
		records: map[string]*contracts.SecuritySnapshot{},
		failFor: map[string]bool{},
	}
}

func (r *fakeSnapshotRepo) GetBySymbol(ctx context.Context, symbol string) (*contracts.SecuritySnapshot, error) {
	return r.records[symbol], nil
}

func (r *fakeSnapshotRepo) GetAll(ctx context.Context) ([]*contracts.SecuritySnapshot, error) {
	out := make([]*contracts.SecuritySnapshot, 0, len(r.records))
	for _, s := range r.records {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (r *fakeSnapshotRepo) GetTracked(ctx context.Context) ([]*contracts.SecuritySnapshot, error) {
	all, _ := r.GetAll(ctx)
	out := all[:0]
	for _, s := range all {
		if s.Tracked {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSnapshotRepo) Upsert(ctx context.Context, snapshot *contracts.SecuritySnapshot) error {
	if r.failFor[snapshot.Symbol] {
		return errors.New("storage unavailable")
	}
	if existing, ok := r.records[snapshot.Symbol]; ok {
		// Tracked and undervalued survive refreshes, as in the SQL upsert
		snapshot.Tracked = existing.Tracked
		snapshot.Undervalued = existing.Undervalued
	}
	r.records[snapshot.Symbol] = snapshot
	return nil
}

func (r *fakeSnapshotRepo) SetTracked(ctx context.Context, symbol string, tracked bool) error {
	if rec, ok := r.records[symbol]; ok {
		rec.Tracked = tracked
	}
	return nil
}

func (r *fakeSnapshotRepo) SetUndervalued(ctx context.Context, symbols []string) error {
	flagged := map[string]bool{}
	for _, s := range symbols {
		flagged[s] = true
	}
	for _, rec := range r.records {
		rec.Undervalued = flagged[rec.Symbol]
	}
	return nil
}

type fakeHoldingRepo struct {
	records map[string]*contracts.InstitutionalHolding
}

func newFakeHoldingRepo() *fakeHoldingRepo {
	return &fakeHoldingRepo{records: map[string]*contracts.InstitutionalHolding{}}
}

func holdingKey(symbol, quarter string) string { return symbol + "|" + quarter }

func (r *fakeHoldingRepo) GetBySymbolAndQuarter(ctx context.Context, symbol, quarter string) (*contracts.InstitutionalHolding, error) {
	return r.records[holdingKey(symbol, quarter)], nil
}

func (r *fakeHoldingRepo) GetBySymbol(ctx context.Context, symbol string) ([]*contracts.InstitutionalHolding, error) {
	var out []*contracts.InstitutionalHolding
	for _, h := range r.records {
		if h.Symbol == symbol {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *fakeHoldingRepo) GetSignificant(ctx context.Context, minChangePct float64) ([]*contracts.InstitutionalHolding, error) {
	var out []*contracts.InstitutionalHolding
	for _, h := range r.records {
		if h.Significant && h.MaxAbsChange() >= minChangePct {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (r *fakeHoldingRepo) Upsert(ctx context.Context, holding *contracts.InstitutionalHolding) error {
	r.records[holdingKey(holding.Symbol, holding.Quarter)] = holding
	return nil
}

type fakeResultRepo struct {
	records map[string]*contracts.QuarterResult
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{records: map[string]*contracts.QuarterResult{}}
}

func (r *fakeResultRepo) GetBySymbolAndQuarter(ctx context.Context, symbol, quarter string) (*contracts.QuarterResult, error) {
	return r.records[holdingKey(symbol, quarter)], nil
}

func (r *fakeResultRepo) GetBySymbol(ctx context.Context, symbol string) ([]*contracts.QuarterResult, error) {
	var out []*contracts.QuarterResult
	for _, q := range r.records {
		if q.Symbol == symbol {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *fakeResultRepo) GetUnannounced(ctx context.Context) ([]*contracts.QuarterResult, error) {
	var out []*contracts.QuarterResult
	for _, q := range r.records {
		if !q.Announced {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpectedDate.Before(out[j].ExpectedDate) })
	return out, nil
}

func (r *fakeResultRepo) Upsert(ctx context.Context, result *contracts.QuarterResult) error {
	r.records[holdingKey(result.Symbol, result.Quarter)] = result
	return nil
}

// testEngine wires an engine over the fakes, in synthetic mode with zero
// pacing delays and a frozen clock
type testEngine struct {
	eng      *Engine
	snaps    *fakeSnapshotRepo
	holdings *fakeHoldingRepo
	results  *fakeResultRepo
}

var testNow = time.Date(2025, time.May, 15, 12, 0, 0, 0, time.UTC) // inside Q2-2025

func newTestEngine() *testEngine {
	snaps := newFakeSnapshotRepo()
	holdings := newFakeHoldingRepo()
	results := newFakeResultRepo()

	norm := normalizer.New(nil, false, logger.NewNop())
	scorer := analytics.NewValueScorer(50_000_000_000, logger.NewNop())

	pacing := Pacing{BatchSize: 10, InterRequestDelay: 0, InterBatchDelay: 0}
	eng := New(snaps, holdings, results, norm, scorer, pacing, logger.NewNop())
	eng.now = func() time.Time { return testNow }

	return &testEngine{eng: eng, snaps: snaps, holdings: holdings, results: results}
}

func fp(v float64) *float64 { return &v }

func mustPeriod(t *testing.T, token string) quarter.Period {
	t.Helper()
	p, err := quarter.Parse(token)
	if err != nil {
		t.Fatalf("parse %s: %v", token, err)
	}
	return p
}
