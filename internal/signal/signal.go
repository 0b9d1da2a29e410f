// Package signal scores indicator snapshots into actionable trade signals.
// Scoring is a pure function of the snapshot: six weighted component scores
// produce an overall score in [-1,1], mapped to a seven-level signal type
// with confidence (score+1)/2, plus ATR-derived entry, stop and target
// prices. Missing or degenerate data always yields a structurally valid
// NEUTRAL signal, never an error.
package signal

import (
	"trade-advisor/internal/regime"
)

// Type is the seven-level signal classification.
type Type string

const (
	StrongBuy  Type = "STRONG_BUY"
	Buy        Type = "BUY"
	WeakBuy    Type = "WEAK_BUY"
	Neutral    Type = "NEUTRAL"
	WeakSell   Type = "WEAK_SELL"
	Sell       Type = "SELL"
	StrongSell Type = "STRONG_SELL"
)

// IsBuy reports whether the signal is long-directional.
func (t Type) IsBuy() bool {
	return t == StrongBuy || t == Buy || t == WeakBuy
}

// IsSell reports whether the signal is short-directional.
func (t Type) IsSell() bool {
	return t == StrongSell || t == Sell || t == WeakSell
}

// IsStrong reports whether the signal is a strong conviction signal.
func (t Type) IsStrong() bool {
	return t == StrongBuy || t == StrongSell
}

// typeForScore maps an overall score to a signal type.
func typeForScore(score float64) Type {
	switch {
	case score > 0.7:
		return StrongBuy
	case score > 0.3:
		return Buy
	case score > 0.1:
		return WeakBuy
	case score > -0.1:
		return Neutral
	case score > -0.3:
		return WeakSell
	case score > -0.7:
		return Sell
	default:
		return StrongSell
	}
}

// ComponentScores holds the six factor scores, each in [-1,1].
type ComponentScores struct {
	Trend             float64 `json:"trend"`
	Momentum          float64 `json:"momentum"`
	Volatility        float64 `json:"volatility"`
	Volume            float64 `json:"volume"`
	Pattern           float64 `json:"pattern"`
	SupportResistance float64 `json:"support_resistance"`
}

// Signal is the scored analysis for one snapshot. Built by the scorer, its
// confidence is later adjusted by the validator; the type never changes
// after scoring.
type Signal struct {
	Type             Type            `json:"signal"`
	Confidence       float64         `json:"confidence"`
	Score            float64         `json:"score"`
	Reasons          []string        `json:"reasons"`
	Components       ComponentScores `json:"component_scores"`
	Regime           regime.Regime   `json:"market_regime"`
	SupportLevels    []float64       `json:"support_levels"`
	ResistanceLevels []float64       `json:"resistance_levels"`
	EntryPrice       float64         `json:"entry_price"`
	StopLoss         float64         `json:"stop_loss"`
	TakeProfit       float64         `json:"take_profit"`
	ATR              float64         `json:"atr"`
}
