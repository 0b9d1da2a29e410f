// Package regime classifies current market behavior as trending, ranging or
// volatile, with trend strength and a volatility level. A window too short to
// classify produces the explicit "unknown" regime with zeroed fields; this is
// a reported degraded state, not an error.
package regime

import (
	"math"

	"trade-advisor/internal/market"
)

// Type is the market regime classification.
type Type string

const (
	Trending Type = "trending"
	Ranging  Type = "ranging"
	Volatile Type = "volatile"
	Unknown  Type = "unknown"
)

// VolatilityLevel buckets annualized return volatility.
type VolatilityLevel string

const (
	VolatilityLow     VolatilityLevel = "low"
	VolatilityMedium  VolatilityLevel = "medium"
	VolatilityHigh    VolatilityLevel = "high"
	VolatilityUnknown VolatilityLevel = "unknown"
)

// Regime is the classified market state. Immutable once produced.
type Regime struct {
	Type            Type            `json:"type"`
	TrendStrength   float64         `json:"trend_strength"`
	TrendDirection  int             `json:"trend_direction"`
	Volatility      VolatilityLevel `json:"volatility"`
	ADX             float64         `json:"adx"`
	VolatilityValue float64         `json:"volatility_value"`
}

// UnknownRegime is the degraded-state result for unusable input.
func UnknownRegime() Regime {
	return Regime{Type: Unknown, Volatility: VolatilityUnknown}
}

// Config holds the classifier thresholds.
type Config struct {
	MinBars          int     `json:"min_bars"`
	TrendingADX      float64 `json:"trending_adx"`
	VolatileRatio    float64 `json:"volatile_ratio"`
	HighVolatility   float64 `json:"high_volatility"`
	MediumVolatility float64 `json:"medium_volatility"`
	VolatilityWindow int     `json:"volatility_window"`
	TradingDays      float64 `json:"trading_days"`
}

// DefaultConfig returns the canonical thresholds.
func DefaultConfig() Config {
	return Config{
		MinBars:          20,
		TrendingADX:      25,
		VolatileRatio:    1.5,
		HighVolatility:   0.30,
		MediumVolatility: 0.15,
		VolatilityWindow: 20,
		TradingDays:      252,
	}
}

// Classifier derives market regimes from indicator snapshots.
type Classifier struct {
	cfg Config
}

// NewClassifier creates a classifier with the given thresholds.
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify determines the market regime for the snapshot window. Requires at
// least MinBars bars and a defined latest ADX; otherwise returns the unknown
// regime.
func (c *Classifier) Classify(snap *market.Snapshot) Regime {
	if snap == nil || snap.Len() < c.cfg.MinBars {
		return UnknownRegime()
	}

	adx := market.Last(snap.ADX)
	if !market.Usable(adx) {
		return UnknownRegime()
	}
	if adx < 0 {
		adx = 0
	}

	latestVol, meanVol := c.rollingVolatility(snap.Close)

	trendStrength := market.Clamp(adx/100, 0, 1)

	regimeType := Ranging
	switch {
	case adx > c.cfg.TrendingADX:
		regimeType = Trending
	case market.Usable(latestVol) && market.Usable(meanVol) && latestVol > meanVol*c.cfg.VolatileRatio:
		regimeType = Volatile
	}

	volLevel := VolatilityLow
	volValue := 0.0
	if market.Usable(latestVol) {
		volValue = latestVol
		switch {
		case latestVol > c.cfg.HighVolatility:
			volLevel = VolatilityHigh
		case latestVol > c.cfg.MediumVolatility:
			volLevel = VolatilityMedium
		}
	}

	return Regime{
		Type:            regimeType,
		TrendStrength:   trendStrength,
		TrendDirection:  c.trendDirection(snap),
		Volatility:      volLevel,
		ADX:             adx,
		VolatilityValue: volValue,
	}
}

// rollingVolatility computes the annualized standard deviation of returns
// over the trailing window, plus the mean of that rolling series, which the
// volatile-regime test compares against.
func (c *Classifier) rollingVolatility(close []float64) (latest, mean float64) {
	window := c.cfg.VolatilityWindow
	returns := make([]float64, 0, len(close)-1)
	for i := 1; i < len(close); i++ {
		returns = append(returns, market.SafeDiv(close[i]-close[i-1], close[i-1], 0))
	}
	if len(returns) < window {
		return math.NaN(), math.NaN()
	}

	annualize := math.Sqrt(c.cfg.TradingDays)
	var series []float64
	for i := window; i <= len(returns); i++ {
		sd := market.Stdev(returns[i-window : i])
		if market.Usable(sd) {
			series = append(series, sd*annualize)
		}
	}
	if len(series) == 0 {
		return math.NaN(), math.NaN()
	}
	return series[len(series)-1], market.Mean(series)
}

// trendDirection is +1 when the short average sits above the long one, -1
// otherwise. Falls back to the 20-bar price change when averages are not
// yet populated.
func (c *Classifier) trendDirection(snap *market.Snapshot) int {
	sma20 := market.Last(snap.SMA20)
	sma50 := market.Last(snap.SMA50)
	if market.Usable(sma20) && market.Usable(sma50) {
		if sma20 > sma50 {
			return 1
		}
		return -1
	}
	n := snap.Len()
	if n > 20 && snap.Close[n-1] > snap.Close[n-21] {
		return 1
	}
	return -1
}
