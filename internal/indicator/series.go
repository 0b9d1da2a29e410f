package indicator

import (
	"math"

	"trade-advisor/internal/market"
)

// ============================================================================
// MOVING AVERAGES
// ============================================================================

// SMA computes a simple moving average series. Values before the first full
// window are NaN.
func SMA(series []float64, period int) []float64 {
	out := nanSeries(len(series))
	if period <= 0 || len(series) < period {
		return out
	}
	sum := 0.0
	for i, v := range series {
		sum += v
		if i >= period {
			sum -= series[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA computes an exponential moving average series seeded from the first
// full SMA window.
func EMA(series []float64, period int) []float64 {
	out := nanSeries(len(series))
	if period <= 0 || len(series) < period {
		return out
	}
	seed := 0.0
	for i := 0; i < period; i++ {
		seed += series[i]
	}
	seed /= float64(period)
	out[period-1] = seed

	mult := 2.0 / float64(period+1)
	prev := seed
	for i := period; i < len(series); i++ {
		prev = (series[i] * mult) + (prev * (1 - mult))
		out[i] = prev
	}
	return out
}

// ============================================================================
// RSI (Relative Strength Index)
// ============================================================================

// RSI computes Wilder's RSI series. When the window contains no price
// movement at all, the value is the neutral 50 rather than 100/0.
func RSI(close []float64, period int) []float64 {
	out := nanSeries(len(close))
	if period <= 0 || len(close) < period+1 {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := close[i] - close[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(close); i++ {
		change := close[i] - close[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgGain == 0 && avgLoss == 0 {
		return 50.0
	}
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// ============================================================================
// STOCHASTIC OSCILLATOR
// ============================================================================

// Stochastic computes the %K and %D series. A zero high-low range in the
// lookback yields the neutral 50.
func Stochastic(bars []market.Bar, kPeriod, smooth, dPeriod int) (k, d []float64) {
	rawK := nanSeries(len(bars))
	for i := kPeriod - 1; i < len(bars); i++ {
		hi, lo := bars[i].High, bars[i].Low
		for j := i - kPeriod + 1; j <= i; j++ {
			if bars[j].High > hi {
				hi = bars[j].High
			}
			if bars[j].Low < lo {
				lo = bars[j].Low
			}
		}
		if hi == lo {
			rawK[i] = 50.0
			continue
		}
		rawK[i] = (bars[i].Close - lo) / (hi - lo) * 100
	}
	k = rollingMean(rawK, smooth)
	d = rollingMean(k, dPeriod)
	return k, d
}

// ============================================================================
// MACD (Moving Average Convergence Divergence)
// ============================================================================

// MACD computes the MACD line, signal line and histogram series.
func MACD(close []float64, fast, slow, signal int) (line, sig, hist []float64) {
	fastEMA := EMA(close, fast)
	slowEMA := EMA(close, slow)

	line = nanSeries(len(close))
	for i := range close {
		if market.Usable(fastEMA[i]) && market.Usable(slowEMA[i]) {
			line[i] = fastEMA[i] - slowEMA[i]
		}
	}
	sig = emaOfValid(line, signal)
	hist = nanSeries(len(close))
	for i := range close {
		if market.Usable(line[i]) && market.Usable(sig[i]) {
			hist[i] = line[i] - sig[i]
		}
	}
	return line, sig, hist
}

// ============================================================================
// BOLLINGER BANDS
// ============================================================================

// Bollinger computes the band series plus %B (price position within the
// bands) and normalized band width. Zero-width bands give the neutral %B 0.5.
func Bollinger(close []float64, period int, stdMult float64) (upper, middle, lower, percentB, width []float64) {
	middle = SMA(close, period)
	upper = nanSeries(len(close))
	lower = nanSeries(len(close))
	percentB = nanSeries(len(close))
	width = nanSeries(len(close))

	for i := period - 1; i < len(close); i++ {
		m := middle[i]
		if !market.Usable(m) {
			continue
		}
		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := close[j] - m
			variance += d * d
		}
		sd := math.Sqrt(variance / float64(period))
		upper[i] = m + sd*stdMult
		lower[i] = m - sd*stdMult

		if span := upper[i] - lower[i]; span > 0 {
			percentB[i] = (close[i] - lower[i]) / span
		} else {
			percentB[i] = 0.5
		}
		if m != 0 {
			width[i] = (upper[i] - lower[i]) / m
		} else {
			width[i] = 0
		}
	}
	return upper, middle, lower, percentB, width
}

// ============================================================================
// ATR (Average True Range)
// ============================================================================

// ATR computes the average true range series over period.
func ATR(bars []market.Bar, period int) []float64 {
	out := nanSeries(len(bars))
	if len(bars) < period+1 {
		return out
	}
	tr := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		tr[i] = trueRange(bars[i], bars[i-1].Close)
	}
	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += tr[i]
	}
	out[period] = sum / float64(period)
	for i := period + 1; i < len(bars); i++ {
		sum += tr[i] - tr[i-period]
		out[i] = sum / float64(period)
	}
	return out
}

func trueRange(b market.Bar, prevClose float64) float64 {
	return math.Max(b.High-b.Low, math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
}

// ============================================================================
// ADX (Average Directional Index)
// ============================================================================

// ADX computes the average directional index series from +DM/-DM and true
// range. A window with no directional movement or no range is reported as
// ADX 0 (no trend), not as missing data.
func ADX(bars []market.Bar, period int) []float64 {
	out := nanSeries(len(bars))
	if len(bars) < 2*period {
		return out
	}

	plusDM := make([]float64, len(bars))
	minusDM := make([]float64, len(bars))
	tr := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		up := bars[i].High - bars[i-1].High
		down := bars[i-1].Low - bars[i].Low
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
		tr[i] = trueRange(bars[i], bars[i-1].Close)
	}

	dx := nanSeries(len(bars))
	for i := period; i < len(bars); i++ {
		var sumPlus, sumMinus, sumTR float64
		for j := i - period + 1; j <= i; j++ {
			sumPlus += plusDM[j]
			sumMinus += minusDM[j]
			sumTR += tr[j]
		}
		if sumTR == 0 {
			dx[i] = 0
			continue
		}
		plusDI := 100 * sumPlus / sumTR
		minusDI := 100 * sumMinus / sumTR
		if plusDI+minusDI == 0 {
			dx[i] = 0
			continue
		}
		dx[i] = 100 * math.Abs(plusDI-minusDI) / (plusDI + minusDI)
	}

	for i := 2*period - 1; i < len(bars); i++ {
		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			sum += dx[j]
		}
		out[i] = sum / float64(period)
	}
	return out
}

// ============================================================================
// VOLUME INDICATORS
// ============================================================================

// OBV computes the on-balance volume series.
func OBV(close, volume []float64) []float64 {
	out := make([]float64, len(close))
	for i := 1; i < len(close); i++ {
		switch {
		case close[i] > close[i-1]:
			out[i] = out[i-1] + volume[i]
		case close[i] < close[i-1]:
			out[i] = out[i-1] - volume[i]
		default:
			out[i] = out[i-1]
		}
	}
	return out
}

// CMF computes the Chaikin Money Flow series over period.
func CMF(bars []market.Bar, period int) []float64 {
	out := nanSeries(len(bars))
	if len(bars) < period {
		return out
	}
	mfv := make([]float64, len(bars))
	for i, b := range bars {
		span := b.High - b.Low
		if span == 0 {
			mfv[i] = 0
			continue
		}
		mult := ((b.Close - b.Low) - (b.High - b.Close)) / span
		mfv[i] = mult * b.Volume
	}
	for i := period - 1; i < len(bars); i++ {
		var sumMFV, sumVol float64
		for j := i - period + 1; j <= i; j++ {
			sumMFV += mfv[j]
			sumVol += bars[j].Volume
		}
		if sumVol == 0 {
			out[i] = 0
			continue
		}
		out[i] = sumMFV / sumVol
	}
	return out
}

// VMACD computes a volume-weighted MACD: the spread between 12- and
// 26-period volume-weighted EMAs of price, with a 9-period signal line.
func VMACD(close, volume []float64) (line, sig, hist []float64) {
	pv := make([]float64, len(close))
	for i := range close {
		pv[i] = close[i] * volume[i]
	}
	vw12 := vwEMA(pv, volume, 12)
	vw26 := vwEMA(pv, volume, 26)

	line = nanSeries(len(close))
	for i := range close {
		if market.Usable(vw12[i]) && market.Usable(vw26[i]) {
			line[i] = vw12[i] - vw26[i]
		}
	}
	sig = emaOfValid(line, 9)
	hist = nanSeries(len(close))
	for i := range close {
		if market.Usable(line[i]) && market.Usable(sig[i]) {
			hist[i] = line[i] - sig[i]
		}
	}
	return line, sig, hist
}

func vwEMA(pv, volume []float64, period int) []float64 {
	pvEMA := EMA(pv, period)
	volEMA := EMA(volume, period)
	out := nanSeries(len(pv))
	for i := range pv {
		if market.Usable(pvEMA[i]) && market.Usable(volEMA[i]) {
			out[i] = market.SafeDiv(pvEMA[i], volEMA[i], 0)
		}
	}
	return out
}

// ============================================================================
// HELPERS
// ============================================================================

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// rollingMean averages the last period values, producing NaN until period
// consecutive usable values exist.
func rollingMean(series []float64, period int) []float64 {
	out := nanSeries(len(series))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(series); i++ {
		sum := 0.0
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if !market.Usable(series[j]) {
				ok = false
				break
			}
			sum += series[j]
		}
		if ok {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// emaOfValid applies an EMA over the usable suffix of a series that starts
// with NaN warm-up values.
func emaOfValid(series []float64, period int) []float64 {
	out := nanSeries(len(series))
	start := -1
	for i, v := range series {
		if market.Usable(v) {
			start = i
			break
		}
	}
	if start < 0 || len(series)-start < period {
		return out
	}
	sub := EMA(series[start:], period)
	copy(out[start:], sub)
	return out
}
