package signal

import (
	"trade-advisor/internal/market"
)

// Stop and target distances start from fixed ATR multiples and pass through
// a chain of documented adjustments, one per market condition. Each factor
// is applied once; the final multiples are clamped to hard bounds.
const (
	baseStopMultiple   = 1.5
	baseTargetMultiple = 2.0
	minStopMultiple    = 1.0
	maxStopMultiple    = 3.0
	minTargetMultiple  = 1.5
	maxTargetMultiple  = 4.0
)

// riskPair is a stop/target multiplier pair for one adjustment.
type riskPair struct {
	stop   float64
	target float64
}

// patternRisk maps detected candle patterns to their adjustment pair,
// applied when the pattern agrees with the signal direction. A doji is
// direction-neutral indecision and always widens the stop slightly.
var patternRisk = map[string]riskPair{
	"doji":              {1.1, 0.9},
	"hammer":            {0.9, 1.15},
	"bullish_engulfing": {0.95, 1.2},
	"bearish_engulfing": {0.95, 1.2},
	"morning_star":      {0.9, 1.25},
	"evening_star":      {0.9, 1.25},
}

// riskLevels derives stop-loss and take-profit prices for a directional
// signal. Returns zeroes for NEUTRAL or when ATR is unusable; a zero ATR
// collapses both levels onto the entry, which downstream sizing treats as
// the flat-percentage fallback.
func riskLevels(snap *market.Snapshot, sigType Type, entry float64) (stopLoss, takeProfit float64) {
	if sigType == Neutral {
		return 0, 0
	}
	atr := market.Last(snap.ATR)
	if !market.Usable(atr) || atr < 0 {
		return 0, 0
	}

	stopMult, targetMult := baseStopMultiple, baseTargetMultiple

	// Trend strength: strong trends run further, weak ones get tighter
	// brackets on both sides.
	adx := market.Last(snap.ADX)
	if market.Usable(adx) {
		if adx > 30 {
			targetMult *= 1.5
		} else if adx < 20 {
			stopMult *= 0.8
			targetMult *= 0.8
		}
	}

	// Volatility regime from band width vs its average.
	width := market.Last(snap.BBWidth)
	widthAvg := usableMean(snap.BBWidth)
	if market.Usable(width) && widthAvg > 0 {
		if width > widthAvg*1.5 {
			stopMult *= 1.2
			targetMult *= 1.3
		} else if width < widthAvg*0.5 {
			stopMult *= 0.8
			targetMult *= 0.8
		}
	}

	// RSI extremes cut the target: stretched conditions revert.
	rsi := market.Last(snap.RSI14)
	if market.Usable(rsi) && (rsi > 70 || rsi < 30) {
		targetMult *= 0.8
	}

	// Level proximity.
	if market.Usable(entry) && entry > 0 {
		if nearLevel(entry, snap.SupportLevels) {
			targetMult *= 1.2
		}
		if nearLevel(entry, snap.ResistanceLevels) {
			stopMult *= 0.8
		}
	}

	// Candle patterns that agree with the direction, plus dojis.
	for _, p := range snap.Patterns {
		pair, ok := patternRisk[p.Name]
		if !ok {
			continue
		}
		aligned := p.Direction == market.PatternNeutral ||
			(sigType.IsBuy() && p.Direction == market.PatternBullish) ||
			(sigType.IsSell() && p.Direction == market.PatternBearish)
		if aligned {
			stopMult *= pair.stop
			targetMult *= pair.target
		}
	}

	// Divergence tilts the target toward or away from the reversal.
	switch snap.Divergence {
	case market.DivergenceBullish:
		targetMult *= 1.2
	case market.DivergenceBearish:
		targetMult *= 0.8
	}

	// Volume confirmation: each flow gauge aligned with direction extends
	// the target.
	dir := 1.0
	if sigType.IsSell() {
		dir = -1.0
	}
	if slopeSign(seriesSlope(snap.OBV, 5)) == int(dir) {
		targetMult *= 1.1
	}
	cmf := market.Last(snap.CMF)
	if market.Usable(cmf) && ((dir > 0 && cmf > 0.05) || (dir < 0 && cmf < -0.05)) {
		targetMult *= 1.1
	}

	if sigType.IsStrong() {
		targetMult *= 1.2
	}

	stopMult = market.Clamp(stopMult, minStopMultiple, maxStopMultiple)
	targetMult = market.Clamp(targetMult, minTargetMultiple, maxTargetMultiple)

	if sigType.IsBuy() {
		return entry - stopMult*atr, entry + targetMult*atr
	}
	return entry + stopMult*atr, entry - targetMult*atr
}

func slopeSign(s float64) int {
	if s > 0 {
		return 1
	}
	if s < 0 {
		return -1
	}
	return 0
}
