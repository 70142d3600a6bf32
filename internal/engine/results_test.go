package engine

import (
	"context"
	"testing"
	"time"

	"github.com/quantlens/stockpulse/internal/contracts"
)

func trackSymbols(te *testEngine, symbols ...string) {
	for _, s := range symbols {
		te.snaps.records[s] = &contracts.SecuritySnapshot{Symbol: s, Price: 100, Tracked: true}
	}
}

func TestGenerateUpcomingResults(t *testing.T) {
	te := newTestEngine()
	trackSymbols(te, "ACME", "GLOBEX")

	outcomes, err := te.eng.GenerateUpcomingResults(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}

	// Two securities across Q2-2025 and Q3-2025
	if len(outcomes) != 4 {
		t.Fatalf("got %d outcomes, want 4", len(outcomes))
	}
	for _, o := range outcomes {
		if !o.Success {
			t.Errorf("%s %s: %s", o.Symbol, o.Quarter, o.Error)
		}
	}

	r := te.results.records[holdingKey("ACME", "Q2-2025")]
	if r == nil {
		t.Fatal("missing ACME Q2-2025 record")
	}
	wantEnd := time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)
	if !r.PeriodEnd.Equal(wantEnd) {
		t.Errorf("period end = %v, want %v", r.PeriodEnd, wantEnd)
	}
	if got, want := r.ExpectedDate, wantEnd.AddDate(0, 0, 45); !got.Equal(want) {
		t.Errorf("expected date = %v, want %v", got, want)
	}
	if r.Announced {
		t.Error("materialized records start unannounced")
	}
}

func TestGenerateUpcomingResultsDefaultHorizon(t *testing.T) {
	te := newTestEngine()
	trackSymbols(te, "ACME")

	outcomes, err := te.eng.GenerateUpcomingResults(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 2 {
		t.Errorf("got %d outcomes, want 2 (default horizon)", len(outcomes))
	}
}

func TestGenerateUpcomingResultsIdempotent(t *testing.T) {
	te := newTestEngine()
	trackSymbols(te, "ACME")
	ctx := context.Background()

	te.eng.GenerateUpcomingResults(ctx, 2)
	te.eng.GenerateUpcomingResults(ctx, 2)

	if len(te.results.records) != 2 {
		t.Errorf("got %d rows, want 2 (natural-key upsert)", len(te.results.records))
	}
}

func TestGenerateUpcomingResultsPreservesAnnouncedState(t *testing.T) {
	te := newTestEngine()
	trackSymbols(te, "ACME")
	ctx := context.Background()

	// An already-announced record for a closed period
	actual := time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC)
	te.results.records[holdingKey("ACME", "Q1-2025")] = &contracts.QuarterResult{
		Symbol:       "ACME",
		Quarter:      "Q1-2025",
		PeriodEnd:    time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC),
		ExpectedDate: time.Date(2025, time.May, 15, 0, 0, 0, 0, time.UTC),
		Announced:    true,
		ActualDate:   &actual,
		Revenue:      fp(1_000_000),
	}

	// Move the clock so Q1-2025 falls inside the generation window and
	// its period end is in the past
	te.eng.now = func() time.Time { return time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC) }

	outcomes, err := te.eng.GenerateUpcomingResults(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 1 || outcomes[0].Quarter != "Q2-2025" {
		// April sits in Q2; the announced Q1 record is outside the window
		t.Fatalf("unexpected outcomes %+v", outcomes)
	}

	r := te.results.records[holdingKey("ACME", "Q1-2025")]
	if !r.Announced || r.ActualDate == nil || !r.ActualDate.Equal(actual) {
		t.Error("generation must never touch records outside its window")
	}
}

func TestGenerateUpcomingResultsRegenerationKeepsAnnouncement(t *testing.T) {
	te := newTestEngine()
	trackSymbols(te, "ACME")
	ctx := context.Background()

	// Materialize Q2-2025, announce it, then advance the clock past the
	// period end and regenerate over a window that still includes Q2
	te.eng.GenerateUpcomingResults(ctx, 1)

	actual := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)
	if _, err := te.eng.MarkAnnounced(ctx, "ACME", "Q2-2025", actual, nil, nil, nil); err != nil {
		t.Fatal(err)
	}

	te.eng.now = func() time.Time { return time.Date(2025, time.August, 20, 0, 0, 0, 0, time.UTC) }
	// August is Q3; reach back is impossible through generation, so
	// regenerate directly at the materialization level
	outcome := te.eng.materializeResult(ctx, "ACME", mustPeriod(t, "Q2-2025"))
	if !outcome.Success {
		t.Fatalf("regeneration failed: %s", outcome.Error)
	}

	r := te.results.records[holdingKey("ACME", "Q2-2025")]
	if !r.Announced {
		t.Error("regenerating a closed period must keep it announced")
	}
	if r.ActualDate == nil || !r.ActualDate.Equal(actual) {
		t.Error("regeneration must keep the recorded actual date")
	}
}

func TestMarkAnnounced(t *testing.T) {
	te := newTestEngine()
	ctx := context.Background()

	actual := time.Date(2025, time.May, 12, 0, 0, 0, 0, time.UTC)
	record, err := te.eng.MarkAnnounced(ctx, "ACME", "Q1-2025", actual, fp(2_500_000), fp(400_000), fp(12.5))
	if err != nil {
		t.Fatal(err)
	}

	if !record.Announced {
		t.Error("record must be announced")
	}
	if record.ActualDate == nil || !record.ActualDate.Equal(actual) {
		t.Errorf("actual date = %v, want %v", record.ActualDate, actual)
	}
	if record.Revenue == nil || *record.Revenue != 2_500_000 {
		t.Errorf("revenue = %v", record.Revenue)
	}

	// Announcing a period with no existing row materializes it first
	wantEnd := time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)
	if !record.PeriodEnd.Equal(wantEnd) {
		t.Errorf("period end = %v, want %v", record.PeriodEnd, wantEnd)
	}
}

func TestMarkAnnouncedIdempotent(t *testing.T) {
	te := newTestEngine()
	ctx := context.Background()

	first := time.Date(2025, time.May, 12, 0, 0, 0, 0, time.UTC)
	if _, err := te.eng.MarkAnnounced(ctx, "ACME", "Q1-2025", first, nil, nil, nil); err != nil {
		t.Fatal(err)
	}

	// A second announcement with a different date is a no-op
	later := first.AddDate(0, 0, 7)
	record, err := te.eng.MarkAnnounced(ctx, "ACME", "Q1-2025", later, fp(999), nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	if !record.ActualDate.Equal(first) {
		t.Errorf("actual date = %v, want original %v", record.ActualDate, first)
	}
	if record.Revenue != nil {
		t.Error("re-announcement must not overwrite figures")
	}
}

func TestMarkAnnouncedNormalizesSymbol(t *testing.T) {
	te := newTestEngine()
	ctx := context.Background()

	// Canonical unannounced row, as the generation pass writes it
	te.eng.materializeResult(ctx, "INFY", mustPeriod(t, "Q1-2025"))

	actual := time.Date(2025, time.May, 12, 0, 0, 0, 0, time.UTC)
	record, err := te.eng.MarkAnnounced(ctx, " infy ", "Q1-2025", actual, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	if record.Symbol != "INFY" {
		t.Errorf("symbol = %q, want canonical INFY", record.Symbol)
	}
	if canonical := te.results.records["INFY|Q1-2025"]; canonical == nil || !canonical.Announced {
		t.Error("canonical record must be announced")
	}
	if len(te.results.records) != 1 {
		t.Errorf("got %d result rows, want 1 (no duplicate under the raw symbol)", len(te.results.records))
	}

	if _, err := te.eng.MarkAnnounced(ctx, "  ", "Q1-2025", actual, nil, nil, nil); err == nil {
		t.Error("blank identifier must be rejected")
	}
}

func TestMarkAnnouncedMalformedToken(t *testing.T) {
	te := newTestEngine()

	if _, err := te.eng.MarkAnnounced(context.Background(), "ACME", "Q5-2025", time.Now(), nil, nil, nil); err == nil {
		t.Error("out-of-range quarter token must be rejected")
	}
	if _, err := te.eng.MarkAnnounced(context.Background(), "ACME", "1Q25", time.Now(), nil, nil, nil); err == nil {
		t.Error("malformed quarter token must be rejected")
	}
}

func TestResultOverdueComputedAtQueryTime(t *testing.T) {
	r := &contracts.QuarterResult{
		ExpectedDate: time.Date(2025, time.May, 15, 0, 0, 0, 0, time.UTC),
	}

	before := time.Date(2025, time.May, 14, 0, 0, 0, 0, time.UTC)
	after := time.Date(2025, time.May, 16, 0, 0, 0, 0, time.UTC)

	if r.OverdueAt(before) {
		t.Error("not overdue before the expected date")
	}
	if !r.OverdueAt(after) {
		t.Error("overdue after the expected date when unannounced")
	}

	r.Announced = true
	if r.OverdueAt(after) {
		t.Error("announced records are never overdue")
	}
}
