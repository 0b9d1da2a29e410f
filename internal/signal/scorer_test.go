package signal

import (
	"math"
	"reflect"
	"testing"
	"time"

	"trade-advisor/internal/indicator"
	"trade-advisor/internal/market"
)

func flatBars(n int) []market.Bar {
	bars := make([]market.Bar, n)
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = market.Bar{
			OpenTime: t.Add(time.Duration(i) * time.Hour),
			Open:     100, High: 100, Low: 100, Close: 100,
			Volume: 1000,
		}
	}
	return bars
}

func barsFromCloses(closes []float64) []market.Bar {
	bars := make([]market.Bar, len(closes))
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		high, low := c*1.002, c*0.998
		open := c
		if i > 0 {
			open = closes[i-1]
			if open > high {
				high = open
			}
			if open < low {
				low = open
			}
		}
		bars[i] = market.Bar{
			OpenTime: t.Add(time.Duration(i) * time.Hour),
			Open:     open, High: high, Low: low, Close: c,
			Volume: 1000,
		}
	}
	return bars
}

// uptrendBars produces a steady climb with pullbacks that keeps RSI in the
// bullish band instead of pinning it at overbought.
func uptrendBars(n int) []market.Bar {
	closes := make([]float64, n)
	price := 100.0
	deltas := []float64{1, 1, -1}
	for i := range closes {
		if i > 0 {
			price += deltas[(i-1)%len(deltas)]
		}
		closes[i] = price
	}
	return barsFromCloses(closes)
}

func TestScoreFlatMarketIsNeutral(t *testing.T) {
	snap := indicator.NewProvider().Compute(flatBars(250))
	sig := NewScorer(DefaultWeights()).Score(snap, nil)

	if sig.Type != Neutral {
		t.Fatalf("flat market signal = %s (score %v), want NEUTRAL", sig.Type, sig.Score)
	}
	if sig.Confidence != 0.5 {
		t.Errorf("confidence = %v, want exactly 0.5", sig.Confidence)
	}
	if sig.Score != 0 {
		t.Errorf("score = %v, want 0", sig.Score)
	}
	if len(sig.Reasons) == 0 {
		t.Error("expected at least one reason")
	}
}

func TestScoreEmptySnapshotIsNeutral(t *testing.T) {
	snap := indicator.NewProvider().Compute(nil)
	sig := NewScorer(DefaultWeights()).Score(snap, nil)

	if sig.Type != Neutral || sig.Confidence != 0.5 {
		t.Fatalf("empty snapshot got %s/%v, want NEUTRAL/0.5", sig.Type, sig.Confidence)
	}
	if len(sig.Reasons) != 1 {
		t.Errorf("reasons = %v, want exactly one", sig.Reasons)
	}
}

func TestScoreUptrendIsBuy(t *testing.T) {
	snap := indicator.NewProvider().Compute(uptrendBars(250))
	sig := NewScorer(DefaultWeights()).Score(snap, nil)

	if !sig.Type.IsBuy() {
		t.Fatalf("uptrend signal = %s (score %v, components %+v)", sig.Type, sig.Score, sig.Components)
	}
	if sig.Type == WeakBuy {
		t.Errorf("uptrend signal = WEAK_BUY (score %v), want BUY or STRONG_BUY", sig.Score)
	}
	if sig.Confidence <= 0.6 {
		t.Errorf("confidence = %v, want > 0.6", sig.Confidence)
	}
	if !(sig.StopLoss < sig.EntryPrice && sig.EntryPrice < sig.TakeProfit) {
		t.Errorf("levels not bracketing entry: stop %v entry %v target %v",
			sig.StopLoss, sig.EntryPrice, sig.TakeProfit)
	}
}

func TestScoreDowntrendIsSell(t *testing.T) {
	closes := make([]float64, 250)
	price := 500.0
	deltas := []float64{-1, -1, 1}
	for i := range closes {
		if i > 0 {
			price += deltas[(i-1)%len(deltas)]
		}
		closes[i] = price
	}
	snap := indicator.NewProvider().Compute(barsFromCloses(closes))
	sig := NewScorer(DefaultWeights()).Score(snap, nil)

	if !sig.Type.IsSell() {
		t.Fatalf("downtrend signal = %s (score %v)", sig.Type, sig.Score)
	}
	if !(sig.StopLoss > sig.EntryPrice && sig.EntryPrice > sig.TakeProfit) {
		t.Errorf("levels not bracketing entry for sell: stop %v entry %v target %v",
			sig.StopLoss, sig.EntryPrice, sig.TakeProfit)
	}
}

func TestScoreIsIdempotent(t *testing.T) {
	snap := indicator.NewProvider().Compute(uptrendBars(250))
	scorer := NewScorer(DefaultWeights())

	first := scorer.Score(snap, nil)
	second := scorer.Score(snap, nil)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical input produced different signals:\n%+v\n%+v", first, second)
	}
}

func TestScoreConfidenceAlwaysBounded(t *testing.T) {
	fixtures := [][]market.Bar{
		flatBars(250),
		uptrendBars(250),
		flatBars(5),
		nil,
	}
	scorer := NewScorer(DefaultWeights())
	provider := indicator.NewProvider()
	for i, bars := range fixtures {
		sig := scorer.Score(provider.Compute(bars), nil)
		if sig.Confidence < 0 || sig.Confidence > 1 {
			t.Errorf("fixture %d: confidence %v out of [0,1]", i, sig.Confidence)
		}
		if math.IsNaN(sig.Score) || math.IsNaN(sig.EntryPrice) ||
			math.IsNaN(sig.StopLoss) || math.IsNaN(sig.TakeProfit) {
			t.Errorf("fixture %d: NaN crossed the boundary: %+v", i, sig)
		}
	}
}

func TestTypeForScoreBands(t *testing.T) {
	cases := []struct {
		score float64
		want  Type
	}{
		{0.9, StrongBuy},
		{0.71, StrongBuy},
		{0.7, Buy},
		{0.31, Buy},
		{0.3, WeakBuy},
		{0.11, WeakBuy},
		{0.1, Neutral},
		{0, Neutral},
		{-0.09, Neutral},
		{-0.1, WeakSell},
		{-0.3, Sell},
		{-0.31, Sell},
		{-0.7, StrongSell},
		{-0.71, StrongSell},
		{-1, StrongSell},
	}
	for _, c := range cases {
		if got := typeForScore(c.score); got != c.want {
			t.Errorf("typeForScore(%v) = %s, want %s", c.score, got, c.want)
		}
	}
}

// Raising ADX past the amplification threshold must never shrink an
// established trend contribution.
func TestTrendScoreADXMonotonic(t *testing.T) {
	nan := math.NaN()
	base := &market.Snapshot{
		Close:  []float64{100, 101, 102},
		SMA20:  []float64{98, 98.5, 99},
		SMA50:  []float64{97, 97.2, 97.5},
		SMA200: []float64{nan, nan, nan},
	}

	prev := 0.0
	for i, adx := range []float64{10, 20, 26, 40} {
		snap := *base
		snap.ADX = []float64{adx, adx, adx}
		got := trendScore(&snap)
		if got < 0 {
			t.Fatalf("ADX %v: trend score %v negative for bullish stack", adx, got)
		}
		if i > 0 && got < prev {
			t.Errorf("ADX %v: trend score %v < %v at lower ADX", adx, got, prev)
		}
		prev = got
	}
}

func TestRiskLevelMultiplesClamped(t *testing.T) {
	snap := indicator.NewProvider().Compute(uptrendBars(250))
	atr := market.Last(snap.ATR)
	entry := market.Last(snap.Close)

	stop, target := riskLevels(snap, StrongBuy, entry)
	stopMult := (entry - stop) / atr
	targetMult := (target - entry) / atr

	if stopMult < minStopMultiple-1e-9 || stopMult > maxStopMultiple+1e-9 {
		t.Errorf("stop multiple %v outside [%v,%v]", stopMult, minStopMultiple, maxStopMultiple)
	}
	if targetMult < minTargetMultiple-1e-9 || targetMult > maxTargetMultiple+1e-9 {
		t.Errorf("target multiple %v outside [%v,%v]", targetMult, minTargetMultiple, maxTargetMultiple)
	}
}
