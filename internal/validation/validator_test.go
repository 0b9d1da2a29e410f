package validation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"trade-advisor/internal/market"
	"trade-advisor/internal/regime"
	"trade-advisor/internal/signal"
)

type fakeStore struct {
	outcomes []Outcome
	err      error
}

func (f *fakeStore) Record(ctx context.Context, rec SignalRecord) (string, error) {
	return "id", nil
}

func (f *fakeStore) QuerySimilar(ctx context.Context, signalType, regimeType string) ([]Outcome, error) {
	return f.outcomes, f.err
}

func (f *fakeStore) MarkOutcome(ctx context.Context, id string, accurate bool, exitPrice float64) error {
	return nil
}

func strongBuySignal(confidence float64) signal.Signal {
	return signal.Signal{
		Type:       signal.StrongBuy,
		Confidence: confidence,
		Components: signal.ComponentScores{
			Trend:    0.6,
			Momentum: 0.5,
		},
		EntryPrice: 100,
		StopLoss:   95,
		TakeProfit: 110,
	}
}

func uptrendSnapshot() *market.Snapshot {
	n := 30
	snap := &market.Snapshot{
		Close: make([]float64, n),
		SMA20: make([]float64, n),
		SMA50: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		snap.Close[i] = 100 + float64(i)
		snap.SMA20[i] = 95 + float64(i)
		snap.SMA50[i] = 90 + float64(i)
	}
	return snap
}

func newValidator(store HistoryStore) *Validator {
	return NewValidator(store, time.Second, zerolog.Nop())
}

func hasFlag(flags []string, substr string) bool {
	for _, f := range flags {
		if strings.Contains(f, substr) {
			return true
		}
	}
	return false
}

func TestValidateVolatileRegimePenalizesStrongSignal(t *testing.T) {
	sig := strongBuySignal(0.8)
	reg := regime.Regime{Type: regime.Volatile, Volatility: regime.VolatilityMedium}

	res := newValidator(nil).Validate(context.Background(), sig, uptrendSnapshot(), reg)

	if res.AdjustedConfidence >= res.OriginalConfidence {
		t.Fatalf("adjusted %v not below original %v in volatile regime",
			res.AdjustedConfidence, res.OriginalConfidence)
	}
	if !hasFlag(res.WarningFlags, "reduced confidence") {
		t.Errorf("missing reduced-confidence flag, got %v", res.WarningFlags)
	}
	if res.Signal.Type != signal.StrongBuy {
		t.Errorf("validation changed signal type to %s", res.Signal.Type)
	}
}

func TestValidateConfidenceCeiling(t *testing.T) {
	sig := strongBuySignal(0.94)
	reg := regime.Regime{Type: regime.Trending, TrendStrength: 0.9, Volatility: regime.VolatilityMedium}
	store := &fakeStore{outcomes: allAccurate(40)}

	res := newValidator(store).Validate(context.Background(), sig, uptrendSnapshot(), reg)

	if res.AdjustedConfidence > 0.95 {
		t.Fatalf("adjusted confidence %v above 0.95 ceiling", res.AdjustedConfidence)
	}
	if res.AdjustedConfidence < res.OriginalConfidence {
		t.Errorf("aligned signal with perfect history lost confidence: %v < %v",
			res.AdjustedConfidence, res.OriginalConfidence)
	}
}

func TestValidateTrendOpposition(t *testing.T) {
	sig := signal.Signal{
		Type:       signal.Sell,
		Confidence: 0.7,
		Components: signal.ComponentScores{Trend: -0.4, Momentum: -0.4},
		EntryPrice: 100,
	}
	reg := regime.Regime{Type: regime.Trending, TrendStrength: 0.8, Volatility: regime.VolatilityMedium}

	res := newValidator(nil).Validate(context.Background(), sig, uptrendSnapshot(), reg)

	if !hasFlag(res.WarningFlags, "against prevailing trend") {
		t.Fatalf("missing trend opposition flag, got %v", res.WarningFlags)
	}
	if res.AdjustedConfidence >= res.OriginalConfidence {
		t.Errorf("selling into an uptrend did not reduce confidence: %v >= %v",
			res.AdjustedConfidence, res.OriginalConfidence)
	}
}

func TestValidateStrengthConsistency(t *testing.T) {
	sig := strongBuySignal(0.8)
	sig.Components.Momentum = 0.1 // strong signal, weak corroboration
	reg := regime.Regime{Type: regime.Ranging, Volatility: regime.VolatilityMedium}

	res := newValidator(nil).Validate(context.Background(), sig, uptrendSnapshot(), reg)

	if !hasFlag(res.WarningFlags, "Strong signal with weak") {
		t.Errorf("missing strength consistency flag, got %v", res.WarningFlags)
	}
}

func TestValidateIndicatorConflict(t *testing.T) {
	sig := signal.Signal{
		Type:       signal.Buy,
		Confidence: 0.7,
		Components: signal.ComponentScores{Trend: 0.5, Momentum: -0.5},
	}
	reg := regime.Regime{Type: regime.Ranging, Volatility: regime.VolatilityMedium}

	res := newValidator(nil).Validate(context.Background(), sig, uptrendSnapshot(), reg)

	if !hasFlag(res.WarningFlags, "in conflict") {
		t.Errorf("missing cross-group conflict flag, got %v", res.WarningFlags)
	}
}

func TestValidateStoreFailureMeansNoAdjustment(t *testing.T) {
	sig := strongBuySignal(0.8)
	reg := regime.Regime{Type: regime.Trending, TrendStrength: 0.6, Volatility: regime.VolatilityMedium}

	broken := newValidator(&fakeStore{err: errors.New("connection refused")}).
		Validate(context.Background(), sig, uptrendSnapshot(), reg)
	absent := newValidator(nil).
		Validate(context.Background(), sig, uptrendSnapshot(), reg)

	if broken.AdjustedConfidence != absent.AdjustedConfidence {
		t.Errorf("store failure changed result: %v vs %v (no store)",
			broken.AdjustedConfidence, absent.AdjustedConfidence)
	}
	if broken.HistoricalAccuracy != 0 {
		t.Errorf("historical accuracy = %v after store failure, want 0", broken.HistoricalAccuracy)
	}
}

func TestValidateHistoricalAccuracySmallSampleScaling(t *testing.T) {
	sig := strongBuySignal(0.6)
	reg := regime.Regime{Type: regime.Trending, TrendStrength: 0.6, Volatility: regime.VolatilityMedium}
	v := newValidator(&fakeStore{outcomes: allAccurate(5)})

	res := v.Validate(context.Background(), sig, uptrendSnapshot(), reg)

	// 100% accuracy on 5 samples scales to (1.0-0.5)*(5/20) = 0.125.
	if res.HistoricalAccuracy != 0.125 {
		t.Errorf("historical accuracy = %v, want 0.125", res.HistoricalAccuracy)
	}
}

func TestValidateHighVolatilityDampensAdjustments(t *testing.T) {
	// Confidence low enough that neither arm hits the 0.95 ceiling.
	sig := strongBuySignal(0.6)
	base := regime.Regime{Type: regime.Trending, TrendStrength: 0.6, Volatility: regime.VolatilityMedium}
	damp := base
	damp.Volatility = regime.VolatilityHigh

	resBase := newValidator(nil).Validate(context.Background(), sig, uptrendSnapshot(), base)
	resDamp := newValidator(nil).Validate(context.Background(), sig, uptrendSnapshot(), damp)

	baseGain := resBase.AdjustedConfidence - sig.Confidence
	dampGain := resDamp.AdjustedConfidence - sig.Confidence
	if baseGain <= 0 {
		t.Fatalf("expected positive adjustment in trending regime, got %v", baseGain)
	}
	if dampGain >= baseGain {
		t.Errorf("high volatility did not dampen adjustment: %v >= %v", dampGain, baseGain)
	}
	if !hasFlag(resDamp.WarningFlags, "High market volatility") {
		t.Errorf("missing high volatility flag, got %v", resDamp.WarningFlags)
	}
}

func allAccurate(n int) []Outcome {
	out := make([]Outcome, n)
	for i := range out {
		out[i] = Outcome{Accurate: true}
	}
	return out
}
