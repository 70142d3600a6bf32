package normalizer

import (
	"hash/fnv"
	"math/rand"

	"github.com/quantlens/stockpulse/internal/quarter"
)

// Synthetic generates plausible stand-in values when no live source is
// configured or reachable. Values are random but seeded from the symbol
// (and period, for holdings), so repeated runs for the same key produce
// the same record. Output always carries the synthetic provenance tag
// and is never mixed with live fields on the same record.
type Synthetic struct{}

// NewSynthetic creates a synthetic generator
func NewSynthetic() *Synthetic {
	return &Synthetic{}
}

func seededRand(parts ...string) *rand.Rand {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{'|'})
	}
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

// Snapshot generates a synthetic security snapshot: price 100-2100,
// P/E 10-40, 52-week band within +/-30% of price.
func (s *Synthetic) Snapshot(symbol string) *Snapshot {
	r := seededRand("snapshot", symbol)

	price := round2(100 + r.Float64()*2000)
	pe := round2(10 + r.Float64()*30)
	high := round2(price * (1 + 0.05 + r.Float64()*0.25))
	low := round2(price * (1 - 0.05 - r.Float64()*0.25))
	marketCap := round2(price * float64(1_000_000+r.Intn(500_000_000)))

	return &Snapshot{
		Symbol:    symbol,
		Name:      symbol,
		Price:     price,
		PERatio:   &pe,
		WeekHigh:  high,
		WeekLow:   low,
		MarketCap: &marketCap,
		Source:    SourceSynthetic,
	}
}

// Holdings generates synthetic institutional holdings for a period:
// FII 10-40%, DII 5-30%, with roughly a 30% chance of one injected
// quarter-over-quarter swing of at least 10 points so the significance
// classifier sees realistic extremes.
func (s *Synthetic) Holdings(symbol string, p quarter.Period) *Holdings {
	r := seededRand("holdings", symbol, p.String())

	fii := 10 + r.Float64()*30
	dii := 5 + r.Float64()*25

	if r.Float64() < 0.3 {
		swing := 10 + r.Float64()*5
		if r.Intn(2) == 0 {
			fii += swing
		} else {
			dii += swing
		}
	}

	fii = round2(fii)
	dii = round2(dii)
	total := round2(fii + dii)

	return &Holdings{
		Symbol:   symbol,
		Quarter:  p,
		FIIPct:   &fii,
		DIIPct:   &dii,
		TotalPct: &total,
		Source:   SourceSynthetic,
	}
}
