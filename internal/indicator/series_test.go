package indicator

import (
	"math"
	"testing"
	"time"

	"trade-advisor/internal/market"
)

func barsFromCloses(closes []float64) []market.Bar {
	bars := make([]market.Bar, len(closes))
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = market.Bar{
			OpenTime: ts.Add(time.Duration(i) * time.Hour),
			Open:     c, High: c + 0.5, Low: c - 0.5, Close: c,
			Volume: 1000,
		}
	}
	return bars
}

func TestSMAWarmupAndValue(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5}
	sma := SMA(series, 3)

	if !math.IsNaN(sma[0]) || !math.IsNaN(sma[1]) {
		t.Error("values before the first full window must be NaN")
	}
	if sma[2] != 2 || sma[3] != 3 || sma[4] != 4 {
		t.Errorf("unexpected SMA values: %v", sma)
	}
}

func TestSMAInsufficientData(t *testing.T) {
	sma := SMA([]float64{1, 2}, 5)
	for i, v := range sma {
		if !math.IsNaN(v) {
			t.Errorf("index %d: expected NaN for short series, got %v", i, v)
		}
	}
}

func TestEMASeedsFromSMA(t *testing.T) {
	series := []float64{2, 4, 6, 8}
	ema := EMA(series, 3)

	if !math.IsNaN(ema[0]) || !math.IsNaN(ema[1]) {
		t.Error("EMA warm-up values must be NaN")
	}
	if ema[2] != 4 {
		t.Errorf("seed should equal first SMA window mean, got %v", ema[2])
	}
	// mult = 0.5 for period 3: 8*0.5 + 4*0.5 = 6
	if ema[3] != 6 {
		t.Errorf("expected 6, got %v", ema[3])
	}
}

func TestRSIFlatSeriesIsFifty(t *testing.T) {
	series := make([]float64, 40)
	for i := range series {
		series[i] = 100
	}
	rsi := RSI(series, 14)

	last := rsi[len(rsi)-1]
	if last != 50 {
		t.Errorf("flat series should give RSI 50, got %v", last)
	}
}

func TestRSIBounds(t *testing.T) {
	up := make([]float64, 40)
	for i := range up {
		up[i] = 100 + float64(i)
	}
	rsi := RSI(up, 14)

	last := rsi[len(rsi)-1]
	if last != 100 {
		t.Errorf("monotonic gains should saturate RSI at 100, got %v", last)
	}
}

func TestATRFlatBarsMatchesRange(t *testing.T) {
	bars := barsFromCloses(make([]float64, 30))
	for i := range bars {
		bars[i].Open = 100
		bars[i].High = 101
		bars[i].Low = 99
		bars[i].Close = 100
	}
	atr := ATR(bars, 14)

	last := atr[len(atr)-1]
	if math.Abs(last-2) > 1e-9 {
		t.Errorf("constant 2-point range should give ATR 2, got %v", last)
	}
}

func TestBollingerFlatSeries(t *testing.T) {
	series := make([]float64, 30)
	for i := range series {
		series[i] = 100
	}
	upper, middle, lower, percentB, width := Bollinger(series, 20, 2)

	n := len(series) - 1
	if upper[n] != 100 || middle[n] != 100 || lower[n] != 100 {
		t.Errorf("flat series bands should collapse: %v %v %v", upper[n], middle[n], lower[n])
	}
	if percentB[n] != 0.5 {
		t.Errorf("degenerate band %%B should be 0.5, got %v", percentB[n])
	}
	if width[n] != 0 {
		t.Errorf("flat series width should be 0, got %v", width[n])
	}
}

func TestOBVAccumulates(t *testing.T) {
	close := []float64{100, 101, 100, 102}
	volume := []float64{10, 20, 30, 40}
	obv := OBV(close, volume)

	want := []float64{0, 20, -10, 30}
	for i, w := range want {
		if obv[i] != w {
			t.Errorf("index %d: expected %v, got %v", i, w, obv[i])
		}
	}
}

func TestDetectPatternsBullishEngulfing(t *testing.T) {
	bars := barsFromCloses([]float64{100, 100, 100})
	// Small bearish bar fully engulfed by a larger bullish one.
	bars[1] = market.Bar{Open: 101, High: 101.5, Low: 99.5, Close: 100, Volume: 1000}
	bars[2] = market.Bar{Open: 99.5, High: 103, Low: 99, Close: 102.5, Volume: 1000}

	patterns := DetectPatterns(bars)
	found := false
	for _, p := range patterns {
		if p.Name == "bullish_engulfing" && p.Direction == market.PatternBullish {
			found = true
		}
	}
	if !found {
		t.Errorf("expected bullish_engulfing, got %v", patterns)
	}
}

func TestFindSupportResistanceFractals(t *testing.T) {
	// A valley at index 5 and a peak at index 11 inside 2-bar fractals.
	closes := []float64{100, 99, 98, 97, 96, 95, 96, 97, 98, 99, 100, 101, 100, 99, 98, 97, 98, 99, 100, 101}
	bars := barsFromCloses(closes)

	support, resistance := FindSupportResistance(bars)
	if len(support) == 0 {
		t.Error("expected at least one support level")
	}
	if len(resistance) == 0 {
		t.Error("expected at least one resistance level")
	}
}

func TestProviderComputeShortHistory(t *testing.T) {
	p := NewProvider()

	snap := p.Compute(barsFromCloses([]float64{100, 101, 102}))
	if snap == nil {
		t.Fatal("snapshot must never be nil")
	}
	if len(snap.Bars) != 3 {
		t.Errorf("expected 3 bars, got %d", len(snap.Bars))
	}
	// All long-window series stay NaN with only three bars.
	if market.Usable(market.Last(snap.SMA20)) {
		t.Error("SMA20 should be unusable with three bars")
	}
}
