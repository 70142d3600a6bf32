// Package analytics holds the derived-signal calculators: the
// undervaluation scorer and the institutional-activity classifier.
package analytics

import (
	"sort"

	"github.com/quantlens/stockpulse/internal/contracts"
	"github.com/quantlens/stockpulse/pkg/logger"
)

// UndervaluedThreshold is the minimum additive score for a security to
// be flagged undervalued
const UndervaluedThreshold = 30

// ValueScorer computes the multi-factor undervaluation score. Factors
// are independent and additive; order does not affect the sum, and the
// theoretical range is 0-100 (30+40+20+10).
type ValueScorer struct {
	smallCapThreshold float64
	logger            *logger.Logger
}

// NewValueScorer creates a value scorer. smallCapThreshold is in actual
// currency units.
func NewValueScorer(smallCapThreshold float64, log *logger.Logger) *ValueScorer {
	return &ValueScorer{
		smallCapThreshold: smallCapThreshold,
		logger:            log,
	}
}

// ScoredSnapshot pairs a snapshot with its score and the reasons that
// contributed to it
type ScoredSnapshot struct {
	Snapshot    *contracts.SecuritySnapshot `json:"snapshot"`
	Score       int                         `json:"score"`
	Reasons     []string                    `json:"reasons"`
	Undervalued bool                        `json:"undervalued"`
}

// Score computes the score and reason set for one snapshot. Factors
// whose inputs are absent or degenerate (zero 52-week high) are skipped,
// never an error.
func (s *ValueScorer) Score(snap *contracts.SecuritySnapshot) (int, []string) {
	score := 0
	var reasons []string

	// P/E factor
	if snap.HasMeaningfulPE() {
		pe := *snap.PERatio
		if pe < 15 {
			score += 30
			reasons = append(reasons, "low P/E")
		} else if pe < 20 {
			score += 15
			reasons = append(reasons, "moderate P/E")
		}
	}

	// Distance below 52-week high
	if snap.WeekHigh52 > 0 {
		pctFromHigh := (snap.WeekHigh52 - snap.Price) / snap.WeekHigh52 * 100
		switch {
		case pctFromHigh > 30:
			score += 40
			reasons = append(reasons, "more than 30% below 52-week high")
		case pctFromHigh > 20:
			score += 25
			reasons = append(reasons, "more than 20% below 52-week high")
		case pctFromHigh > 10:
			score += 10
			reasons = append(reasons, "more than 10% below 52-week high")
		}
	}

	// Distance above 52-week low: recovered but not overextended
	if snap.WeekLow52 > 0 {
		pctFromLow := (snap.Price - snap.WeekLow52) / snap.WeekLow52 * 100
		if pctFromLow > 20 && pctFromLow < 50 {
			score += 20
			reasons = append(reasons, "healthy distance above 52-week low")
		}
	}

	// Small-cap factor, actual currency units
	if snap.MarketCap != nil && *snap.MarketCap > 0 && *snap.MarketCap < s.smallCapThreshold {
		score += 10
		reasons = append(reasons, "small cap")
	}

	return score, reasons
}

// ScoreAll scores every snapshot with a positive price and returns the
// results sorted by score descending (stable on ties).
func (s *ValueScorer) ScoreAll(snapshots []*contracts.SecuritySnapshot) []ScoredSnapshot {
	scored := make([]ScoredSnapshot, 0, len(snapshots))

	for _, snap := range snapshots {
		if snap.Price <= 0 {
			continue
		}

		score, reasons := s.Score(snap)
		scored = append(scored, ScoredSnapshot{
			Snapshot:    snap,
			Score:       score,
			Reasons:     reasons,
			Undervalued: score >= UndervaluedThreshold,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	return scored
}
