package indicator

import (
	"sort"

	"trade-advisor/internal/market"
)

const (
	levelLookback = 100
	maxLevels     = 3
)

// FindSupportResistance identifies pivot levels from local extremes over the
// last levelLookback bars: a bar whose high exceeds its two neighbors on each
// side is a resistance pivot; the mirror condition on lows gives support.
// Returns the nearest maxLevels supports below and resistances above the
// latest close, sorted ascending.
func FindSupportResistance(bars []market.Bar) (support, resistance []float64) {
	if len(bars) < 5 {
		return nil, nil
	}
	window := bars
	if len(window) > levelLookback {
		window = window[len(window)-levelLookback:]
	}

	seenSup := map[float64]bool{}
	seenRes := map[float64]bool{}
	for i := 2; i < len(window)-2; i++ {
		h := window[i].High
		if h > window[i-1].High && h > window[i-2].High && h > window[i+1].High && h > window[i+2].High {
			seenRes[h] = true
		}
		l := window[i].Low
		if l < window[i-1].Low && l < window[i-2].Low && l < window[i+1].Low && l < window[i+2].Low {
			seenSup[l] = true
		}
	}

	latest := bars[len(bars)-1].Close
	for level := range seenSup {
		if level < latest {
			support = append(support, level)
		}
	}
	for level := range seenRes {
		if level > latest {
			resistance = append(resistance, level)
		}
	}
	sort.Float64s(support)
	sort.Float64s(resistance)

	// Keep the closest levels on each side.
	if len(support) > maxLevels {
		support = support[len(support)-maxLevels:]
	}
	if len(resistance) > maxLevels {
		resistance = resistance[:maxLevels]
	}
	return support, resistance
}

// divergenceLookback is the window used when comparing price extremes with
// oscillator extremes.
const divergenceLookback = 20

// DetectDivergence compares the direction of recent price extremes with the
// direction of RSI extremes. Price making a lower low while RSI makes a
// higher low is bullish; the mirror is bearish.
func DetectDivergence(close, rsi []float64) market.DivergenceDirection {
	n := len(close)
	if n < divergenceLookback || len(rsi) != n {
		return market.DivergenceNone
	}
	half := divergenceLookback / 2

	priorLow, priorLowRSI, ok1 := windowLow(close, rsi, n-divergenceLookback, n-half)
	recentLow, recentLowRSI, ok2 := windowLow(close, rsi, n-half, n)
	if ok1 && ok2 && recentLow < priorLow && recentLowRSI > priorLowRSI {
		return market.DivergenceBullish
	}

	priorHigh, priorHighRSI, ok1 := windowHigh(close, rsi, n-divergenceLookback, n-half)
	recentHigh, recentHighRSI, ok2 := windowHigh(close, rsi, n-half, n)
	if ok1 && ok2 && recentHigh > priorHigh && recentHighRSI < priorHighRSI {
		return market.DivergenceBearish
	}
	return market.DivergenceNone
}

func windowLow(close, rsi []float64, from, to int) (price, osc float64, ok bool) {
	ok = false
	for i := from; i < to; i++ {
		if !market.Usable(rsi[i]) {
			continue
		}
		if !ok || close[i] < price {
			price, osc, ok = close[i], rsi[i], true
		}
	}
	return price, osc, ok
}

func windowHigh(close, rsi []float64, from, to int) (price, osc float64, ok bool) {
	ok = false
	for i := from; i < to; i++ {
		if !market.Usable(rsi[i]) {
			continue
		}
		if !ok || close[i] > price {
			price, osc, ok = close[i], rsi[i], true
		}
	}
	return price, osc, ok
}
