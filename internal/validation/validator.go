// Package validation cross-checks a scored signal against the market regime,
// indicator agreement and historical outcomes, adjusting its confidence.
// Validation never changes the signal type and never fails: every check is a
// bounded multiplier, and an unreachable history store means no historical
// adjustment rather than an error.
package validation

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"trade-advisor/internal/market"
	"trade-advisor/internal/regime"
	"trade-advisor/internal/signal"
)

// confidenceCeiling is deliberately below 1.0: validation can never certify
// a signal, only reduce residual doubt.
const confidenceCeiling = 0.95

// Outcome is one historical result for a comparable signal.
type Outcome struct {
	Accurate bool
}

// HistoryStore is the persistent record of issued signals and their
// outcomes. Reads may be slightly stale; Record must be durable before the
// returned id is handed out.
type HistoryStore interface {
	Record(ctx context.Context, rec SignalRecord) (string, error)
	QuerySimilar(ctx context.Context, signalType, regimeType string) ([]Outcome, error)
	MarkOutcome(ctx context.Context, id string, accurate bool, exitPrice float64) error
}

// SignalRecord is the persisted form of an issued signal.
type SignalRecord struct {
	ID                 string    `json:"id"`
	Timestamp          time.Time `json:"timestamp"`
	SignalType         string    `json:"signal_type"`
	Confidence         float64   `json:"confidence"`
	AdjustedConfidence float64   `json:"adjusted_confidence"`
	RegimeType         string    `json:"regime_type"`
	EntryPrice         float64   `json:"entry_price"`
	Validated          bool      `json:"validated"`
	Accurate           *bool     `json:"accurate,omitempty"`
	ExitPrice          *float64  `json:"exit_price,omitempty"`
}

// Result reports how validation arrived at the adjusted confidence.
type Result struct {
	Signal              signal.Signal `json:"signal"`
	OriginalConfidence  float64       `json:"original_confidence"`
	AdjustedConfidence  float64       `json:"adjusted_confidence"`
	RegimeCompatibility float64       `json:"regime_compatibility"`
	HistoricalAccuracy  float64       `json:"historical_accuracy"`
	WarningFlags        []string      `json:"warning_flags"`
}

// Validator adjusts signal confidence from contextual checks. The store is
// optional; without one the historical check contributes nothing.
type Validator struct {
	store        HistoryStore
	storeTimeout time.Duration
	log          zerolog.Logger
}

// NewValidator creates a validator. store may be nil.
func NewValidator(store HistoryStore, storeTimeout time.Duration, log zerolog.Logger) *Validator {
	if storeTimeout <= 0 {
		storeTimeout = 500 * time.Millisecond
	}
	return &Validator{store: store, storeTimeout: storeTimeout, log: log}
}

// Validate runs every check and returns the signal with adjusted confidence
// plus the audit trail. Checks multiply together; high regime volatility
// dampens every adjustment toward neutral before it is applied.
func (v *Validator) Validate(ctx context.Context, sig signal.Signal, snap *market.Snapshot, reg regime.Regime) Result {
	res := Result{
		OriginalConfidence: sig.Confidence,
		WarningFlags:       []string{},
	}

	dampen := reg.Volatility == regime.VolatilityHigh
	product := 1.0
	apply := func(m float64) {
		if dampen {
			m = 1 + (m-1)*0.8
		}
		product *= m
	}

	regimeMult := v.regimeCompatibility(sig.Type, reg, &res)
	res.RegimeCompatibility = regimeMult
	apply(regimeMult)

	apply(v.trendOpposition(sig, snap, reg, &res))
	apply(v.strengthConsistency(sig, &res))
	apply(v.levelProximity(sig, snap, &res))
	apply(v.indicatorConflicts(sig, &res))

	hist := v.historicalAdjustment(ctx, sig, reg)
	res.HistoricalAccuracy = hist
	apply(1 + hist)

	if dampen {
		res.WarningFlags = append(res.WarningFlags, "High market volatility - consider reducing position size")
	}

	res.AdjustedConfidence = market.Clamp(sig.Confidence*product, 0, confidenceCeiling)
	sig.Confidence = res.AdjustedConfidence
	res.Signal = sig
	return res
}

// regimeCompatibility rewards signals suited to the regime and penalizes
// mismatches. Trending regimes scale the reward by trend strength.
func (v *Validator) regimeCompatibility(sigType signal.Type, reg regime.Regime, res *Result) float64 {
	score := 0.0
	switch reg.Type {
	case regime.Trending:
		switch {
		case sigType.IsStrong():
			score = 0.2
		case sigType == signal.Buy || sigType == signal.Sell:
			score = 0.1
		default:
			score = -0.1
		}
		score *= 1 + reg.TrendStrength
	case regime.Ranging:
		switch sigType {
		case signal.WeakBuy, signal.WeakSell:
			score = 0.15
		case signal.Neutral:
			score = 0.1
		default:
			score = -0.15
		}
	case regime.Volatile:
		if sigType.IsStrong() {
			score = -0.2
		} else if sigType == signal.Neutral {
			score = 0.1
		}
	}

	if score < -0.1 {
		res.WarningFlags = append(res.WarningFlags, "Signal may not suit current market regime - reduced confidence")
	}
	return 1 + score
}

// trendOpposition penalizes fighting a strong trend and mildly rewards
// riding it. Direction comes from the moving average stack.
func (v *Validator) trendOpposition(sig signal.Signal, snap *market.Snapshot, reg regime.Regime, res *Result) float64 {
	if reg.Type != regime.Trending || reg.TrendStrength <= 0.5 {
		return 1
	}
	if !sig.Type.IsBuy() && !sig.Type.IsSell() {
		return 1
	}
	uptrend := isUptrend(snap)
	if (sig.Type.IsBuy() && !uptrend) || (sig.Type.IsSell() && uptrend) {
		res.WarningFlags = append(res.WarningFlags, "Signal against prevailing trend - reduced confidence")
		return 0.6
	}
	return 1.1
}

// strengthConsistency requires strong signals to be backed by the primary
// component scores.
func (v *Validator) strengthConsistency(sig signal.Signal, res *Result) float64 {
	if !sig.Type.IsStrong() {
		return 1
	}
	weak := false
	for _, score := range []float64{sig.Components.Trend, sig.Components.Momentum} {
		if sig.Type.IsBuy() && score < 0.3 {
			weak = true
		}
		if sig.Type.IsSell() && score > -0.3 {
			weak = true
		}
	}
	if weak {
		res.WarningFlags = append(res.WarningFlags, "Strong signal with weak trend or momentum scores")
		return 0.85
	}
	return 1
}

const levelProximityBand = 0.02

// levelProximity flags buying into resistance or selling into support.
func (v *Validator) levelProximity(sig signal.Signal, snap *market.Snapshot, res *Result) float64 {
	if snap == nil || snap.Len() == 0 {
		return 1
	}
	close := market.Last(snap.Close)
	if !market.Usable(close) || close <= 0 {
		return 1
	}
	if sig.Type.IsBuy() {
		for _, lv := range snap.ResistanceLevels {
			if absRatio(close, lv) < levelProximityBand {
				res.WarningFlags = append(res.WarningFlags, "Buy signal near resistance level")
				return 0.9
			}
		}
	}
	if sig.Type.IsSell() {
		for _, lv := range snap.SupportLevels {
			if absRatio(close, lv) < levelProximityBand {
				res.WarningFlags = append(res.WarningFlags, "Sell signal near support level")
				return 0.9
			}
		}
	}
	return 1
}

// indicatorConflicts penalizes disagreement inside and across the trend and
// momentum indicator groups.
func (v *Validator) indicatorConflicts(sig signal.Signal, res *Result) float64 {
	c := sig.Components
	mult := 1.0

	if groupConflict(c.Trend, c.SupportResistance) {
		res.WarningFlags = append(res.WarningFlags, "Conflicting trend indicators")
		mult *= 0.9
	}
	if groupConflict(c.Momentum, c.Pattern) {
		res.WarningFlags = append(res.WarningFlags, "Conflicting momentum indicators")
		mult *= 0.9
	}
	if c.Trend*c.Momentum < 0 && abs(c.Trend) > 0.3 && abs(c.Momentum) > 0.3 {
		res.WarningFlags = append(res.WarningFlags, "Trend and momentum indicators in conflict")
		mult *= 0.85
	}
	return mult
}

// historicalAdjustment is the signed accuracy adjustment centered at zero,
// scaled down for small samples. Any store failure or timeout collapses to
// zero adjustment.
func (v *Validator) historicalAdjustment(ctx context.Context, sig signal.Signal, reg regime.Regime) float64 {
	if v.store == nil {
		return 0
	}
	ctx, cancel := context.WithTimeout(ctx, v.storeTimeout)
	defer cancel()

	outcomes, err := v.store.QuerySimilar(ctx, string(sig.Type), string(reg.Type))
	if err != nil {
		v.log.Warn().Err(err).Msg("history store unavailable, skipping historical adjustment")
		return 0
	}
	if len(outcomes) == 0 {
		return 0
	}
	accurate := 0
	for _, o := range outcomes {
		if o.Accurate {
			accurate++
		}
	}
	accuracy := float64(accurate) / float64(len(outcomes))
	sampleFactor := float64(len(outcomes)) / 20
	if sampleFactor > 1 {
		sampleFactor = 1
	}
	return (accuracy - 0.5) * sampleFactor
}

func groupConflict(a, b float64) bool {
	return (a > 0.2 && b < -0.2) || (a < -0.2 && b > 0.2)
}

func isUptrend(snap *market.Snapshot) bool {
	if snap == nil || snap.Len() < 20 {
		return false
	}
	close := market.Last(snap.Close)
	sma20 := market.Last(snap.SMA20)
	sma50 := market.Last(snap.SMA50)
	if market.Usable(sma20) && market.Usable(sma50) {
		return close > sma20 && sma20 > sma50
	}
	n := snap.Len()
	return snap.Close[n-1] > snap.Close[n-20]
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func absRatio(price, level float64) float64 {
	if !market.Usable(level) || price == 0 {
		return 1
	}
	return abs(price-level) / price
}
