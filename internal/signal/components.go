package signal

import (
	"trade-advisor/internal/market"
)

// Each component score is a pure function of the snapshot returning a value
// in [-1,1]. Comparisons are strict so that degenerate inputs (flat price,
// zero range) contribute exactly zero rather than picking a side.

// trendScore rates the moving average stack and recent crossovers. A strong
// ADX reading amplifies whatever direction the averages already show.
func trendScore(snap *market.Snapshot) float64 {
	close := market.Last(snap.Close)
	score := 0.0

	for _, cmp := range []struct {
		ma     float64
		weight float64
	}{
		{market.Last(snap.SMA20), 0.2},
		{market.Last(snap.SMA50), 0.3},
		{market.Last(snap.SMA200), 0.5},
	} {
		if !market.Usable(cmp.ma) {
			continue
		}
		if close > cmp.ma {
			score += cmp.weight
		} else if close < cmp.ma {
			score -= cmp.weight
		}
	}

	score += crossoverScore(snap.SMA20, snap.SMA50, 0.5)
	score += crossoverScore(snap.SMA50, snap.SMA200, 0.7)

	adx := market.Last(snap.ADX)
	if market.Usable(adx) && adx > 25 {
		score *= 1.2
	}

	return market.Clamp(score, -1, 1)
}

// crossoverScore returns +weight on a golden cross of fast over slow on the
// latest bar, -weight on a death cross, 0 otherwise.
func crossoverScore(fast, slow []float64, weight float64) float64 {
	curFast, curSlow := market.Last(fast), market.Last(slow)
	prevFast, prevSlow := market.Prev(fast), market.Prev(slow)
	if !market.Usable(curFast) || !market.Usable(curSlow) ||
		!market.Usable(prevFast) || !market.Usable(prevSlow) {
		return 0
	}
	if curFast > curSlow && prevFast <= prevSlow {
		return weight
	}
	if curFast < curSlow && prevFast >= prevSlow {
		return -weight
	}
	return 0
}

// momentumScore averages RSI and stochastic readings against their
// overbought/oversold thresholds.
func momentumScore(snap *market.Snapshot) float64 {
	rsi := market.Last(snap.RSI14)
	rsiScore := 0.0
	if market.Usable(rsi) {
		switch {
		case rsi > 70:
			rsiScore = -0.8
		case rsi < 30:
			rsiScore = 0.8
		case rsi > 50:
			rsiScore = 0.4
		case rsi < 50:
			rsiScore = -0.4
		}
	}

	k, d := market.Last(snap.StochK), market.Last(snap.StochD)
	stochScore := 0.0
	if market.Usable(k) && market.Usable(d) {
		switch {
		case k > 80 && d > 80:
			stochScore = -0.7
		case k < 20 && d < 20:
			stochScore = 0.7
		}
		stochScore += crossoverScore(snap.StochK, snap.StochD, 0.3)
	}

	return market.Clamp((rsiScore+stochScore)/2, -1, 1)
}

// volatilityScore reads the Bollinger %B position, band width relative to
// its rolling average, and ATR as a fraction of price. Overextension scores
// negative; compressed, mean-revertable conditions score positive.
func volatilityScore(snap *market.Snapshot) float64 {
	bbScore := 0.0
	pb := market.Last(snap.BBPercentB)
	if market.Usable(pb) {
		switch {
		case pb > 1:
			bbScore = -0.7
		case pb < 0:
			bbScore = 0.7
		case pb > 0.8:
			bbScore = -0.3
		case pb < 0.2:
			bbScore = 0.3
		}
	}

	width := market.Last(snap.BBWidth)
	widthAvg := usableMean(snap.BBWidth)
	if market.Usable(width) && widthAvg > 0 {
		if width > widthAvg*1.5 {
			bbScore -= 0.3
		} else if width < widthAvg*0.5 {
			bbScore += 0.2
		}
	}

	atrScore := 0.0
	atr := market.Last(snap.ATR)
	close := market.Last(snap.Close)
	if market.Usable(atr) && close > 0 {
		atrPct := atr / close
		if atrPct > 0.03 {
			atrScore = -0.3
		} else if atrPct > 0 && atrPct < 0.01 {
			atrScore = 0.3
		}
	}

	return market.Clamp((bbScore+atrScore)/2, -1, 1)
}

// volumeScore combines the short and long volume trends with OBV, CMF and
// volume-weighted MACD alignment, boosted when all three flow indicators
// corroborate.
func volumeScore(snap *market.Snapshot) float64 {
	n := snap.Len()
	score := 0.0

	// Above-average volume confirming the latest move.
	vol := market.Last(snap.Volume)
	volSMA := market.Last(snap.VolumeSMA20)
	if market.Usable(vol) && market.Usable(volSMA) && vol > volSMA*1.5 && n >= 2 {
		if snap.Close[n-1] > snap.Close[n-2] {
			score += 0.6
		} else if snap.Close[n-1] < snap.Close[n-2] {
			score -= 0.6
		}
	}

	obvSlope := seriesSlope(snap.OBV, 5)
	if obvSlope > 0 {
		score += 0.4
	} else if obvSlope < 0 {
		score -= 0.4
	}

	volSlope := seriesSlope(snap.Volume, 20)
	if volSlope > 0 {
		score += 0.1
	} else if volSlope < 0 {
		score -= 0.1
	}

	cmf := market.Last(snap.CMF)
	cmfSign := 0
	if market.Usable(cmf) {
		if cmf > 0.05 {
			score += 0.1
			cmfSign = 1
		} else if cmf < -0.05 {
			score -= 0.1
			cmfSign = -1
		}
	}

	vmacdHist := market.Last(snap.VMACDHist)
	vmacdSign := 0
	if market.Usable(vmacdHist) {
		if vmacdHist > 0 {
			score += 0.1
			vmacdSign = 1
		} else if vmacdHist < 0 {
			score -= 0.1
			vmacdSign = -1
		}
	}

	// All three flow gauges agreeing is a stronger statement than the sum
	// of their individual weights.
	obvSign := 0
	if obvSlope > 0 {
		obvSign = 1
	} else if obvSlope < 0 {
		obvSign = -1
	}
	if obvSign != 0 && obvSign == cmfSign && obvSign == vmacdSign {
		score *= 1.2
	}

	return market.Clamp(score, -1, 1)
}

// patternScore is the normalized balance of bullish versus bearish candle
// patterns over the detection window. Neutral patterns count toward the
// denominator only.
func patternScore(snap *market.Snapshot) float64 {
	if len(snap.Patterns) == 0 {
		return 0
	}
	bull, bear := 0, 0
	for _, p := range snap.Patterns {
		switch p.Direction {
		case market.PatternBullish:
			bull++
		case market.PatternBearish:
			bear++
		}
	}
	return market.Clamp(float64(bull-bear)/float64(len(snap.Patterns)), -1, 1)
}

// supportResistanceScore rewards price sitting on support and penalizes
// price pressed against resistance, using a 2% proximity band.
func supportResistanceScore(snap *market.Snapshot) float64 {
	close := market.Last(snap.Close)
	if !market.Usable(close) || close <= 0 {
		return 0
	}
	score := 0.0
	if nearLevel(close, snap.SupportLevels) {
		score += 0.7
	}
	if nearLevel(close, snap.ResistanceLevels) {
		score -= 0.7
	}
	return score
}

const levelProximity = 0.02

func nearLevel(price float64, levels []float64) bool {
	for _, lv := range levels {
		if market.Usable(lv) && abs(price-lv)/price < levelProximity {
			return true
		}
	}
	return false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// seriesSlope is the least-squares slope of the last n usable values.
func seriesSlope(series []float64, n int) float64 {
	if len(series) < n {
		return 0
	}
	window := series[len(series)-n:]
	for _, v := range window {
		if !market.Usable(v) {
			return 0
		}
	}
	s := market.Slope(window)
	if !market.Usable(s) {
		return 0
	}
	return s
}

// usableMean averages the defined values of a series, 0 if none.
func usableMean(series []float64) float64 {
	sum, count := 0.0, 0
	for _, v := range series {
		if market.Usable(v) {
			sum += v
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
