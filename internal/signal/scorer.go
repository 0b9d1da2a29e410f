package signal

import (
	"trade-advisor/internal/market"
	"trade-advisor/internal/regime"
)

// Weights are the fixed component weights; they must sum to 1.0.
type Weights struct {
	Trend             float64 `json:"trend"`
	Momentum          float64 `json:"momentum"`
	Volatility        float64 `json:"volatility"`
	Volume            float64 `json:"volume"`
	Pattern           float64 `json:"pattern"`
	SupportResistance float64 `json:"support_resistance"`
}

// DefaultWeights returns the canonical component weighting.
func DefaultWeights() Weights {
	return Weights{
		Trend:             0.30,
		Momentum:          0.20,
		Volatility:        0.10,
		Volume:            0.15,
		Pattern:           0.10,
		SupportResistance: 0.15,
	}
}

// Scorer turns indicator snapshots into signals.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer with the given weights.
func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Score computes the signal for a snapshot. The regime is optional and only
// annotates the result; when nil, the unknown regime is recorded. Score
// never fails: with no usable data it returns NEUTRAL at confidence 0.5
// with a single explanatory reason.
func (s *Scorer) Score(snap *market.Snapshot, reg *regime.Regime) Signal {
	r := regime.UnknownRegime()
	if reg != nil {
		r = *reg
	}

	if snap.Len() == 0 {
		return Signal{
			Type:       Neutral,
			Confidence: 0.5,
			Reasons:    []string{"Insufficient data for analysis"},
			Regime:     r,
		}
	}

	components := ComponentScores{
		Trend:             trendScore(snap),
		Momentum:          momentumScore(snap),
		Volatility:        volatilityScore(snap),
		Volume:            volumeScore(snap),
		Pattern:           patternScore(snap),
		SupportResistance: supportResistanceScore(snap),
	}

	score := components.Trend*s.weights.Trend +
		components.Momentum*s.weights.Momentum +
		components.Volatility*s.weights.Volatility +
		components.Volume*s.weights.Volume +
		components.Pattern*s.weights.Pattern +
		components.SupportResistance*s.weights.SupportResistance
	score = market.Clamp(market.Sanitize(score, 0), -1, 1)

	sigType := typeForScore(score)
	confidence := (score + 1) / 2

	entry := market.Sanitize(market.Last(snap.Close), 0)
	stopLoss, takeProfit := riskLevels(snap, sigType, entry)

	return Signal{
		Type:             sigType,
		Confidence:       market.Clamp(confidence, 0, 1),
		Score:            score,
		Reasons:          buildReasons(components, snap),
		Components:       components,
		Regime:           r,
		SupportLevels:    snap.SupportLevels,
		ResistanceLevels: snap.ResistanceLevels,
		EntryPrice:       entry,
		StopLoss:         market.Sanitize(stopLoss, 0),
		TakeProfit:       market.Sanitize(takeProfit, 0),
		ATR:              market.Sanitize(market.Last(snap.ATR), 0),
	}
}
