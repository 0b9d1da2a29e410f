package indicator

import (
	"math"

	"trade-advisor/internal/market"
)

// patternLookback limits pattern detection to the most recent bars, where a
// pattern still says something about the next move.
const patternLookback = 10

// DetectPatterns scans the tail of the window for candle patterns.
func DetectPatterns(bars []market.Bar) []market.Pattern {
	var patterns []market.Pattern
	start := len(bars) - patternLookback
	if start < 2 {
		start = 2
	}

	for i := start; i < len(bars); i++ {
		curr, prev := bars[i], bars[i-1]

		if isDoji(curr) {
			patterns = append(patterns, market.Pattern{Name: "doji", Direction: market.PatternNeutral, BarIndex: i})
		}
		if isHammer(curr) {
			patterns = append(patterns, market.Pattern{Name: "hammer", Direction: market.PatternBullish, BarIndex: i})
		}
		if isBullishEngulfing(prev, curr) {
			patterns = append(patterns, market.Pattern{Name: "bullish_engulfing", Direction: market.PatternBullish, BarIndex: i})
		}
		if isBearishEngulfing(prev, curr) {
			patterns = append(patterns, market.Pattern{Name: "bearish_engulfing", Direction: market.PatternBearish, BarIndex: i})
		}
		if i >= 2 {
			first, middle := bars[i-2], bars[i-1]
			if isMorningStar(first, middle, curr) {
				patterns = append(patterns, market.Pattern{Name: "morning_star", Direction: market.PatternBullish, BarIndex: i})
			}
			if isEveningStar(first, middle, curr) {
				patterns = append(patterns, market.Pattern{Name: "evening_star", Direction: market.PatternBearish, BarIndex: i})
			}
		}
	}
	return patterns
}

func body(b market.Bar) float64      { return math.Abs(b.Close - b.Open) }
func fullRange(b market.Bar) float64 { return b.High - b.Low }
func isBullish(b market.Bar) bool    { return b.Close > b.Open }
func isBearish(b market.Bar) bool    { return b.Close < b.Open }

// isDoji: body is at most 10% of the candle range.
func isDoji(b market.Bar) bool {
	r := fullRange(b)
	return r > 0 && body(b) <= 0.1*r
}

// isHammer: long lower shadow, negligible upper shadow.
func isHammer(b market.Bar) bool {
	r := fullRange(b)
	if r <= 0 {
		return false
	}
	upper := b.High - math.Max(b.Open, b.Close)
	lower := math.Min(b.Open, b.Close) - b.Low
	return lower > 2*body(b) && upper < 0.1*lower
}

func isBullishEngulfing(prev, curr market.Bar) bool {
	return isBullish(curr) && isBearish(prev) &&
		curr.Open < prev.Close && curr.Close > prev.Open
}

func isBearishEngulfing(prev, curr market.Bar) bool {
	return isBearish(curr) && isBullish(prev) &&
		curr.Open > prev.Close && curr.Close < prev.Open
}

func isMorningStar(first, middle, last market.Bar) bool {
	return isBearish(first) &&
		isDoji(middle) &&
		isBullish(last) &&
		last.Close > (first.Close+first.Open)/2
}

func isEveningStar(first, middle, last market.Bar) bool {
	return isBullish(first) &&
		isDoji(middle) &&
		isBearish(last) &&
		last.Close < (first.Close+first.Open)/2
}
