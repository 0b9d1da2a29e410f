package advisor

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"trade-advisor/internal/market"
	"trade-advisor/internal/regime"
	"trade-advisor/internal/signal"
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

func uptrendBars(n int) []market.Bar {
	bars := make([]market.Bar, n)
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	price := 100.0
	deltas := []float64{1, 1, -1}
	for i := range bars {
		open := price
		if i > 0 {
			price += deltas[(i-1)%len(deltas)]
		}
		high, low := price*1.002, price*0.998
		if open > high {
			high = open
		}
		if open < low {
			low = open
		}
		bars[i] = market.Bar{
			OpenTime: t.Add(time.Duration(i) * time.Hour),
			Open:     open, High: high, Low: low, Close: price,
			Volume: 1000,
		}
	}
	return bars
}

func newAdvisor() *Advisor {
	return New(DefaultConfig(), nil, zerolog.Nop())
}

// A flat market must pass through the whole pipeline as a non-event: ranging
// regime, neutral signal at exactly 0.5 confidence, no position.
func TestAnalyzeFlatMarket(t *testing.T) {
	res := newAdvisor().Analyze(context.Background(), Request{
		Bars:         flatBars(250),
		Capital:      10000,
		CurrentPrice: 100,
	})

	if res.Regime.Type != regime.Ranging {
		t.Errorf("regime = %s, want ranging", res.Regime.Type)
	}
	if res.Signal.Type != signal.Neutral {
		t.Errorf("signal = %s, want NEUTRAL", res.Signal.Type)
	}
	if res.Signal.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5", res.Signal.Confidence)
	}
	if res.Position.PositionSizeUSD != 0 {
		t.Errorf("position size = %v, want 0", res.Position.PositionSizeUSD)
	}
	if res.Error != "" {
		t.Errorf("unexpected error: %s", res.Error)
	}
}

func TestAnalyzeUptrendProducesSizedPosition(t *testing.T) {
	res := newAdvisor().Analyze(context.Background(), Request{
		Bars:         uptrendBars(250),
		Capital:      10000,
		CurrentPrice: res0Price(uptrendBars(250)),
	})

	if !res.Signal.Type.IsBuy() {
		t.Fatalf("signal = %s, want buy-side", res.Signal.Type)
	}
	if res.Position.PositionSizeUSD <= 0 {
		t.Errorf("no position sized for %s at confidence %v", res.Signal.Type, res.Validation.AdjustedConfidence)
	}
	max := 10000 * res.Position.MaxPositionPercent / 100
	if res.Position.PositionSizeUSD > max {
		t.Errorf("position %v exceeds cap %v", res.Position.PositionSizeUSD, max)
	}
	if res.Validation.AdjustedConfidence < 0 || res.Validation.AdjustedConfidence > 0.95 {
		t.Errorf("validated confidence %v outside [0, 0.95]", res.Validation.AdjustedConfidence)
	}
}

func TestAnalyzeWithoutCapitalSkipsSizing(t *testing.T) {
	res := newAdvisor().Analyze(context.Background(), Request{Bars: uptrendBars(250)})

	if res.Position.TotalCapital != 0 || res.Position.PositionSizeUSD != 0 {
		t.Errorf("sizing ran without capital: %+v", res.Position)
	}
	if res.Signal.Type == "" {
		t.Error("signal stage skipped")
	}
}

func TestAnalyzeEmptyHistory(t *testing.T) {
	res := newAdvisor().Analyze(context.Background(), Request{Capital: 10000, CurrentPrice: 100})

	if res.Signal.Type != signal.Neutral || res.Signal.Confidence != 0.5 {
		t.Fatalf("empty history got %s/%v, want NEUTRAL/0.5", res.Signal.Type, res.Signal.Confidence)
	}
	if res.Regime.Type != regime.Unknown {
		t.Errorf("regime = %s, want unknown", res.Regime.Type)
	}
}

func res0Price(bars []market.Bar) float64 {
	return bars[len(bars)-1].Close
}
