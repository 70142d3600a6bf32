package contracts

import "time"

// SecuritySnapshot is one row per tracked security. Undervalued is
// derived and overwritten wholesale on each scoring run; Tracked is user
// intent and independent of valuation.
type SecuritySnapshot struct {
	Symbol      string    `json:"symbol"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	PERatio     *float64  `json:"pe_ratio,omitempty"`
	WeekHigh52  float64   `json:"week_high_52"`
	WeekLow52   float64   `json:"week_low_52"`
	MarketCap   *float64  `json:"market_cap,omitempty"`
	Tracked     bool      `json:"tracked"`
	Undervalued bool      `json:"undervalued"`
	Source      string    `json:"source"` // "live" or "synthetic"
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasMeaningfulPE reports whether the P/E ratio is present and positive
func (s *SecuritySnapshot) HasMeaningfulPE() bool {
	return s.PERatio != nil && *s.PERatio > 0
}

// InstitutionalHolding is one row per (security, reporting period).
// Deltas are percentage-point changes versus the period exactly one
// quarter earlier by calendar arithmetic, nil until a prior row exists.
type InstitutionalHolding struct {
	Symbol      string    `json:"symbol"`
	Quarter     string    `json:"quarter"`
	FIIPct      *float64  `json:"fii_pct,omitempty"`
	DIIPct      *float64  `json:"dii_pct,omitempty"`
	TotalPct    *float64  `json:"total_pct,omitempty"`
	FIIChange   *float64  `json:"fii_change,omitempty"`
	DIIChange   *float64  `json:"dii_change,omitempty"`
	TotalChange *float64  `json:"total_change,omitempty"`
	Significant bool      `json:"significant"`
	PrevQuarter string    `json:"prev_quarter"`
	Source      string    `json:"source"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MaxAbsChange returns the largest absolute delta across FII, DII and
// total, treating nil as 0.
func (h *InstitutionalHolding) MaxAbsChange() float64 {
	max := 0.0
	for _, d := range []*float64{h.FIIChange, h.DIIChange, h.TotalChange} {
		if d == nil {
			continue
		}
		v := *d
		if v < 0 {
			v = -v
		}
		if v > max {
			max = v
		}
	}
	return max
}

// QuarterResult is one row per (security, reporting period). ExpectedDate
// is always derivable from the period token alone and is never stored
// independently of that derivation rule.
type QuarterResult struct {
	Symbol       string     `json:"symbol"`
	Quarter      string     `json:"quarter"`
	PeriodEnd    time.Time  `json:"period_end"`
	ExpectedDate time.Time  `json:"expected_date"`
	ActualDate   *time.Time `json:"actual_date,omitempty"`
	Announced    bool       `json:"announced"`
	Revenue      *float64   `json:"revenue,omitempty"`
	NetProfit    *float64   `json:"net_profit,omitempty"`
	EPS          *float64   `json:"eps,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// OverdueAt reports whether the result is past its expected date without
// an announcement. Computed at query time, never stored.
func (r *QuarterResult) OverdueAt(now time.Time) bool {
	return now.After(r.ExpectedDate) && !r.Announced
}
