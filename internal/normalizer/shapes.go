package normalizer

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/quantlens/stockpulse/internal/external/marketfeed"
	"github.com/quantlens/stockpulse/internal/quarter"
)

// payloadShape tags the recognized source payload variants. Matchers are
// attempted in declaration order; Unrecognized means no variant yielded
// a single target field.
type payloadShape int

const (
	shapeDirect payloadShape = iota
	shapeBreakdown
	shapeTimeSeries
	shapeUnrecognized
)

func (s payloadShape) String() string {
	switch s {
	case shapeDirect:
		return "direct"
	case shapeBreakdown:
		return "breakdown"
	case shapeTimeSeries:
		return "time-series"
	default:
		return "unrecognized"
	}
}

// holdingValues is the extraction target for one shareholding payload
type holdingValues struct {
	fii *float64
	dii *float64
}

func (v holdingValues) empty() bool {
	return v.fii == nil && v.dii == nil
}

// seriesDateLayouts cover day-month-name-year keys seen in time-series
// payloads, e.g. "31-Mar-2025".
var seriesDateLayouts = []string{"02-Jan-2006", "2-Jan-2006", "02-January-2006"}

// toFloat coerces the numeric encodings the source mixes freely
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(n), "%"))
		s = strings.ReplaceAll(s, ",", "")
		if s == "" || s == "-" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// normalizePct resolves the source's fraction-vs-percentage ambiguity:
// a value in the open interval (0,1) is a fraction and becomes a
// percentage. Output is rounded to 2 decimal places.
func normalizePct(v float64) float64 {
	if v > 0 && v < 1 {
		v *= 100
	}
	return round2(v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// firstFloat returns the first present, coercible value among keys
func firstFloat(p map[string]interface{}, keys ...string) *float64 {
	for _, k := range keys {
		if raw, ok := p[k]; ok {
			if f, ok := toFloat(raw); ok {
				return &f
			}
		}
	}
	return nil
}

// parseDirect handles payloads that carry pre-shaped holding fields at
// the root
func parseDirect(p marketfeed.Payload) holdingValues {
	var out holdingValues

	if f := firstFloat(p, "fii", "fiiPct", "fii_pct", "fiiHolding"); f != nil {
		v := normalizePct(*f)
		out.fii = &v
	}
	if d := firstFloat(p, "dii", "diiPct", "dii_pct", "diiHolding"); d != nil {
		v := normalizePct(*d)
		out.dii = &v
	}

	return out
}

// parseBreakdown handles the nested category-keyed breakdown. The raw
// container is either a category->value map or a list of rows with
// name/value pairs. FII synonyms set the FII field once; DII component
// categories accumulate additively.
func parseBreakdown(raw interface{}) holdingValues {
	var out holdingValues
	var diiSum float64
	diiSeen := false

	add := func(category string, value interface{}) {
		f, ok := toFloat(value)
		if !ok {
			return
		}
		switch classifyCategory(category) {
		case fieldFII:
			if out.fii == nil {
				v := normalizePct(f)
				out.fii = &v
			}
		case fieldDII:
			diiSum += normalizePct(f)
			diiSeen = true
		}
	}

	switch container := raw.(type) {
	case map[string]interface{}:
		// Map iteration order is randomized; sort the categories so the
		// winning FII synonym is stable across runs
		categories := make([]string, 0, len(container))
		for category := range container {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			add(category, container[category])
		}
	case []interface{}:
		for _, item := range container {
			row, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			category, _ := rowString(row, "category", "name", "investorType", "investor_type")
			if category == "" {
				continue
			}
			if value, ok := rowValue(row, "percent", "pct", "percentage", "value", "holding"); ok {
				add(category, value)
			}
		}
	}

	if diiSeen {
		v := round2(diiSum)
		out.dii = &v
	}

	return out
}

// breakdownContainer locates the nested breakdown structure in a payload
func breakdownContainer(p marketfeed.Payload) (interface{}, bool) {
	for _, k := range []string{"breakdown", "shareholding", "categories", "holders"} {
		if raw, ok := p[k]; ok {
			switch raw.(type) {
			case map[string]interface{}, []interface{}:
				return raw, true
			}
		}
	}
	return nil, false
}

// parseTimeSeries handles date-keyed payloads: every key parses as a
// day-month-name-year token, the latest key wins, and its rows go
// through the breakdown rule. The returned period is derived from the
// winning date, which may differ from the period the caller asked for.
func parseTimeSeries(p marketfeed.Payload) (holdingValues, *quarter.Period) {
	series := p
	for _, k := range []string{"history", "timeline", "series"} {
		if raw, ok := p[k].(map[string]interface{}); ok {
			series = raw
			break
		}
	}

	var latest time.Time
	var latestRows interface{}

	for key, rows := range series {
		d, ok := parseSeriesDate(key)
		if !ok {
			continue
		}
		if latestRows == nil || d.After(latest) {
			latest = d
			latestRows = rows
		}
	}

	if latestRows == nil {
		return holdingValues{}, nil
	}

	values := parseBreakdown(latestRows)
	period := quarter.FromDate(latest)
	return values, &period
}

func parseSeriesDate(key string) (time.Time, bool) {
	for _, layout := range seriesDateLayouts {
		if d, err := time.Parse(layout, strings.TrimSpace(key)); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

func rowString(row map[string]interface{}, keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := row[k].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

func rowValue(row map[string]interface{}, keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := row[k]; ok {
			return v, true
		}
	}
	return nil, false
}

// payloadPeriod reads an explicit period token from a payload, when the
// source states which quarter the data pertains to
func payloadPeriod(p marketfeed.Payload) *quarter.Period {
	for _, k := range []string{"quarter", "period"} {
		if s, ok := p[k].(string); ok {
			if period, err := quarter.Parse(s); err == nil {
				return &period
			}
		}
	}
	return nil
}
