package analytics

import (
	"math"

	"github.com/quantlens/stockpulse/internal/contracts"
)

// SignificantChangeThreshold is the fixed percentage-change threshold for
// flagging a holding record as significant activity. Query-facing
// filters may raise it, never lower it here.
const SignificantChangeThreshold = 5.0

// ActivityTier labels the magnitude of the largest quarter-over-quarter
// holding change. The 5-10% and 10-15% bands share the "high" label;
// the source system collapsed them and that behavior is kept.
type ActivityTier string

const (
	TierNone     ActivityTier = ""
	TierHigh     ActivityTier = "high"
	TierVeryHigh ActivityTier = "very-high"
	TierExtreme  ActivityTier = "extreme"
)

// PercentChange computes (current-prior)/prior*100 rounded to 2
// decimals. A missing value on either side, or a zero prior, yields nil,
// never an error or a non-finite number.
func PercentChange(current, prior *float64) *float64 {
	if current == nil || prior == nil || *prior == 0 {
		return nil
	}

	change := (*current - *prior) / *prior * 100
	change = math.Round(change*100) / 100
	return &change
}

// ClassifyTier maps the largest absolute delta to an activity tier.
// Below the significance threshold no tier is assigned.
func ClassifyTier(maxAbsChange float64) ActivityTier {
	switch {
	case maxAbsChange >= 50:
		return TierExtreme
	case maxAbsChange >= 15:
		return TierVeryHigh
	case maxAbsChange >= 10:
		return TierHigh
	case maxAbsChange >= SignificantChangeThreshold:
		return TierHigh
	default:
		return TierNone
	}
}

// ApplyChanges fills a holding record's deltas and significance from the
// prior-period record. prior is the record exactly one quarter earlier
// by calendar arithmetic; nil means no baseline exists yet and every
// delta stays nil.
func ApplyChanges(current, prior *contracts.InstitutionalHolding) {
	if prior == nil {
		current.FIIChange = nil
		current.DIIChange = nil
		current.TotalChange = nil
		current.Significant = false
		return
	}

	current.FIIChange = PercentChange(current.FIIPct, prior.FIIPct)
	current.DIIChange = PercentChange(current.DIIPct, prior.DIIPct)
	current.TotalChange = PercentChange(current.TotalPct, prior.TotalPct)

	current.Significant = current.MaxAbsChange() >= SignificantChangeThreshold
}
