package market

// PatternDirection classifies a detected candle pattern.
type PatternDirection string

const (
	PatternBullish PatternDirection = "bullish"
	PatternBearish PatternDirection = "bearish"
	PatternNeutral PatternDirection = "neutral"
)

// Pattern is a candle pattern detected near the end of the window.
type Pattern struct {
	Name      string           `json:"name"`
	Direction PatternDirection `json:"direction"`
	BarIndex  int              `json:"bar_index"`
}

// DivergenceDirection classifies an oscillator-vs-price divergence.
type DivergenceDirection string

const (
	DivergenceBullish DivergenceDirection = "bullish"
	DivergenceBearish DivergenceDirection = "bearish"
	DivergenceNone    DivergenceDirection = "none"
)

// Snapshot is a read-only window of per-bar indicator values computed by the
// indicator provider. Values preceding an indicator's minimum window are NaN;
// consumers must check with Usable before branching on them.
type Snapshot struct {
	Bars []Bar

	Close  []float64
	Volume []float64

	SMA20  []float64
	SMA50  []float64
	SMA200 []float64
	EMA9   []float64
	EMA21  []float64

	MACD       []float64
	MACDSignal []float64
	MACDHist   []float64

	RSI14  []float64
	StochK []float64
	StochD []float64

	BBUpper    []float64
	BBMiddle   []float64
	BBLower    []float64
	BBPercentB []float64
	BBWidth    []float64

	ATR []float64
	ADX []float64

	OBV         []float64
	CMF         []float64
	VMACD       []float64
	VMACDSignal []float64
	VMACDHist   []float64
	VolumeSMA20 []float64

	Patterns         []Pattern
	SupportLevels    []float64
	ResistanceLevels []float64
	Divergence       DivergenceDirection
}

// Len returns the number of bars in the window.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Close)
}

// Last returns the most recent value of a series, or NaN when empty.
func Last(series []float64) float64 {
	if len(series) == 0 {
		return nan()
	}
	return series[len(series)-1]
}

// Prev returns the second most recent value of a series, or NaN.
func Prev(series []float64) float64 {
	if len(series) < 2 {
		return nan()
	}
	return series[len(series)-2]
}
