package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quantlens/stockpulse/internal/contracts"
	"github.com/quantlens/stockpulse/internal/quarter"
)

// ResultGenOutcome is the per-(security, period) outcome of a result
// materialization pass
type ResultGenOutcome struct {
	Symbol  string                   `json:"symbol"`
	Quarter string                   `json:"quarter"`
	Success bool                     `json:"success"`
	Error   string                   `json:"error,omitempty"`
	Record  *contracts.QuarterResult `json:"record,omitempty"`
}

// GenerateUpcomingResults materializes expected-result records for every
// tracked security across the current period and the periods after it
// (periodsAhead total, default 2). Expected dates are derived from the
// period alone. Existing announced state is preserved; this pass never
// announces and never un-announces.
func (e *Engine) GenerateUpcomingResults(ctx context.Context, periodsAhead int) ([]ResultGenOutcome, error) {
	if periodsAhead <= 0 {
		periodsAhead = 2
	}

	tracked, err := e.snapshots.GetTracked(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tracked securities: %w", err)
	}

	periods := make([]quarter.Period, 0, periodsAhead)
	p := quarter.Current(e.now())
	for i := 0; i < periodsAhead; i++ {
		periods = append(periods, p)
		p = p.Next()
	}

	outcomes := make([]ResultGenOutcome, 0, len(tracked)*len(periods))

	for _, sec := range tracked {
		for _, period := range periods {
			outcome := e.materializeResult(ctx, sec.Symbol, period)
			outcomes = append(outcomes, outcome)
		}
	}

	success := 0
	for _, o := range outcomes {
		if o.Success {
			success++
		}
	}
	e.logger.WithFields(map[string]interface{}{
		"securities": len(tracked),
		"periods":    len(periods),
		"success":    success,
	}).Info("Result materialization completed")

	return outcomes, nil
}

func (e *Engine) materializeResult(ctx context.Context, symbol string, period quarter.Period) ResultGenOutcome {
	outcome := ResultGenOutcome{Symbol: symbol, Quarter: period.String()}

	existing, err := e.results.GetBySymbolAndQuarter(ctx, symbol, period.String())
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	periodEnd := period.EndDate()
	expected := quarter.ExpectedAnnouncementDate(periodEnd)

	record := &contracts.QuarterResult{
		Symbol:       symbol,
		Quarter:      period.String(),
		PeriodEnd:    periodEnd,
		ExpectedDate: expected,
		UpdatedAt:    e.now(),
	}

	if existing != nil {
		if !periodEnd.Before(e.now()) {
			// Record exists and the period is still open: nothing to do
			outcome.Success = true
			outcome.Record = existing
			return outcome
		}
		// Period closed: refresh derived dates, keep announce state
		record.ActualDate = existing.ActualDate
		record.Announced = existing.Announced
		record.Revenue = existing.Revenue
		record.NetProfit = existing.NetProfit
		record.EPS = existing.EPS
	}

	if err := e.results.Upsert(ctx, record); err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Success = true
	outcome.Record = record
	return outcome
}

// MarkAnnounced records the announcement of a quarterly result. The
// unannounced-to-announced transition happens exactly once: re-announcing
// an announced period is an idempotent no-op that keeps the original
// actual date. Announcement is never inferred from clock time.
func (e *Engine) MarkAnnounced(ctx context.Context, symbol, quarterToken string, actualDate time.Time, revenue, netProfit, eps *float64) (*contracts.QuarterResult, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("empty identifier")
	}

	period, err := quarter.Parse(quarterToken)
	if err != nil {
		return nil, fmt.Errorf("invalid period: %w", err)
	}

	record, err := e.results.GetBySymbolAndQuarter(ctx, symbol, period.String())
	if err != nil {
		return nil, fmt.Errorf("load result: %w", err)
	}

	if record == nil {
		periodEnd := period.EndDate()
		record = &contracts.QuarterResult{
			Symbol:       symbol,
			Quarter:      period.String(),
			PeriodEnd:    periodEnd,
			ExpectedDate: quarter.ExpectedAnnouncementDate(periodEnd),
		}
	}

	if record.Announced {
		return record, nil
	}

	record.Announced = true
	record.ActualDate = &actualDate
	record.Revenue = revenue
	record.NetProfit = netProfit
	record.EPS = eps
	record.UpdatedAt = e.now()

	if err := e.results.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("save result: %w", err)
	}

	e.logger.WithFields(map[string]interface{}{
		"symbol":  symbol,
		"quarter": period.String(),
	}).Info("Result marked announced")

	return record, nil
}
