package normalizer

import (
	"testing"

	"github.com/quantlens/stockpulse/internal/external/marketfeed"
)

func TestToFloat(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  float64
		ok    bool
	}{
		{"float", 42.5, 42.5, true},
		{"int", 17, 17, true},
		{"string", "23.45", 23.45, true},
		{"string with percent", "23.45%", 23.45, true},
		{"string with commas", "1,234.5", 1234.5, true},
		{"string with spaces", "  12.3  ", 12.3, true},
		{"empty string", "", 0, false},
		{"dash placeholder", "-", 0, false},
		{"garbage string", "n/a", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toFloat(tt.input)
			if ok != tt.ok {
				t.Fatalf("toFloat(%v) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("toFloat(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizePct(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  float64
	}{
		{"fraction becomes percentage", 0.225, 22.5},
		{"fraction rounds to 2dp", 0.12345, 12.35},
		{"already a percentage", 22.5, 22.5},
		{"exactly one stays", 1.0, 1.0},
		{"zero stays", 0, 0},
		{"percentage rounds to 2dp", 23.456, 23.46},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizePct(tt.input); got != tt.want {
				t.Errorf("normalizePct(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDirect(t *testing.T) {
	p := marketfeed.Payload{"fii": 24.5, "dii": "18.25%"}
	got := parseDirect(p)

	if got.fii == nil || *got.fii != 24.5 {
		t.Errorf("fii = %v, want 24.5", got.fii)
	}
	if got.dii == nil || *got.dii != 18.25 {
		t.Errorf("dii = %v, want 18.25", got.dii)
	}
}

func TestParseDirectAlternateKeys(t *testing.T) {
	p := marketfeed.Payload{"fiiPct": 0.31, "dii_pct": 12.0}
	got := parseDirect(p)

	if got.fii == nil || *got.fii != 31.0 {
		t.Errorf("fii = %v, want 31 (fraction scaled)", got.fii)
	}
	if got.dii == nil || *got.dii != 12.0 {
		t.Errorf("dii = %v, want 12", got.dii)
	}
}

func TestParseDirectEmpty(t *testing.T) {
	if got := parseDirect(marketfeed.Payload{"price": 100.0}); !got.empty() {
		t.Errorf("expected empty values, got fii=%v dii=%v", got.fii, got.dii)
	}
}

func TestParseBreakdownMap(t *testing.T) {
	raw := map[string]interface{}{
		"FII":                 28.4,
		"Mutual Funds":        9.1,
		"Insurance Companies": 4.2,
		"Banks":               1.7,
		"Promoters":           45.0,
	}

	got := parseBreakdown(raw)

	if got.fii == nil || *got.fii != 28.4 {
		t.Errorf("fii = %v, want 28.4", got.fii)
	}
	// DII components accumulate, unclassified categories are ignored
	if got.dii == nil || *got.dii != 15.0 {
		t.Errorf("dii = %v, want 15 (9.1+4.2+1.7)", got.dii)
	}
}

func TestParseBreakdownRows(t *testing.T) {
	raw := []interface{}{
		map[string]interface{}{"category": "Foreign Institutional Investors", "percent": "22.5"},
		map[string]interface{}{"category": "Domestic Institutional Investors", "percent": 11.0},
		map[string]interface{}{"category": "Public", "percent": 30.0},
		map[string]interface{}{"notes": "no category key"},
	}

	got := parseBreakdown(raw)

	if got.fii == nil || *got.fii != 22.5 {
		t.Errorf("fii = %v, want 22.5", got.fii)
	}
	if got.dii == nil || *got.dii != 11.0 {
		t.Errorf("dii = %v, want 11", got.dii)
	}
}

func TestParseBreakdownFIIFirstMatchWins(t *testing.T) {
	raw := []interface{}{
		map[string]interface{}{"category": "FII", "percent": 20.0},
		map[string]interface{}{"category": "FPI", "percent": 99.0},
	}

	got := parseBreakdown(raw)
	if got.fii == nil || *got.fii != 20.0 {
		t.Errorf("fii = %v, want 20 (first match sets it)", got.fii)
	}
}

func TestParseBreakdownMapDeterministicFIIWinner(t *testing.T) {
	raw := map[string]interface{}{
		"FII": 20.0,
		"FPI": 99.0,
	}

	// Categories are visited in sorted order, so the winner never
	// depends on map iteration order
	for i := 0; i < 50; i++ {
		got := parseBreakdown(raw)
		if got.fii == nil || *got.fii != 20.0 {
			t.Fatalf("fii = %v, want 20 (sorted first synonym wins)", got.fii)
		}
	}
}

func TestParseTimeSeriesLatestDateWins(t *testing.T) {
	p := marketfeed.Payload{
		"history": map[string]interface{}{
			"31-Dec-2024": map[string]interface{}{"FII": 20.0, "DII": 10.0},
			"31-Mar-2025": map[string]interface{}{"FII": 25.0, "DII": 12.0},
			"30-Sep-2024": map[string]interface{}{"FII": 18.0, "DII": 9.0},
		},
	}

	values, period := parseTimeSeries(p)

	if values.fii == nil || *values.fii != 25.0 {
		t.Errorf("fii = %v, want 25 (latest entry)", values.fii)
	}
	if period == nil {
		t.Fatal("expected a derived period")
	}
	if period.String() != "Q1-2025" {
		t.Errorf("period = %s, want Q1-2025", period)
	}
}

func TestParseTimeSeriesDateKeysAtRoot(t *testing.T) {
	p := marketfeed.Payload{
		"30-Jun-2025": map[string]interface{}{"FII": 31.5},
	}

	values, period := parseTimeSeries(p)
	if values.fii == nil || *values.fii != 31.5 {
		t.Errorf("fii = %v, want 31.5", values.fii)
	}
	if period == nil || period.String() != "Q2-2025" {
		t.Errorf("period = %v, want Q2-2025", period)
	}
}

func TestParseTimeSeriesNoDates(t *testing.T) {
	values, period := parseTimeSeries(marketfeed.Payload{"foo": "bar"})
	if !values.empty() || period != nil {
		t.Errorf("expected no extraction, got %+v period=%v", values, period)
	}
}

func TestPayloadPeriod(t *testing.T) {
	if p := payloadPeriod(marketfeed.Payload{"quarter": "Q3-2024"}); p == nil || p.String() != "Q3-2024" {
		t.Errorf("payloadPeriod = %v, want Q3-2024", p)
	}
	if p := payloadPeriod(marketfeed.Payload{"quarter": "FY2024"}); p != nil {
		t.Errorf("malformed token should be ignored, got %v", p)
	}
	if p := payloadPeriod(marketfeed.Payload{}); p != nil {
		t.Errorf("missing token should yield nil, got %v", p)
	}
}

func TestClassifyCategory(t *testing.T) {
	tests := []struct {
		name string
		want holdingField
	}{
		{"FII", fieldFII},
		{"fpi", fieldFII},
		{"  Foreign Institutional Investors  ", fieldFII},
		{"DII", fieldDII},
		{"Mutual Funds", fieldDII},
		{"INSURANCE COMPANIES", fieldDII},
		{"Promoters", fieldNone},
		{"Public", fieldNone},
	}

	for _, tt := range tests {
		if got := classifyCategory(tt.name); got != tt.want {
			t.Errorf("classifyCategory(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
