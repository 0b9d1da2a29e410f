// Package advisor runs the full analysis pipeline over a bar history:
// indicators, regime classification, signal scoring, validation and position
// sizing. Each run is a pure synchronous computation over an immutable
// snapshot; the only shared resource is the signal history store consumed
// during validation.
package advisor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"trade-advisor/internal/capital"
	"trade-advisor/internal/indicator"
	"trade-advisor/internal/market"
	"trade-advisor/internal/regime"
	"trade-advisor/internal/signal"
	"trade-advisor/internal/validation"
)

// Request is one analysis request. Capital and CurrentPrice must be
// positive when sizing is wanted; with Capital 0 the position stages are
// skipped.
type Request struct {
	Bars          []market.Bar `json:"bars"`
	Capital       float64      `json:"capital"`
	CurrentPrice  float64      `json:"current_price"`
	VolatileAsset bool         `json:"volatile_asset"`
}

// Result is the complete pipeline output. Always structurally valid; every
// numeric field is a real number.
type Result struct {
	Regime      regime.Regime            `json:"market_regime"`
	TrendChange regime.TrendChange       `json:"trend_change"`
	Signal      signal.Signal            `json:"signal"`
	Validation  validation.Result        `json:"validation"`
	Position    capital.PositionPlan     `json:"position"`
	Pyramiding  capital.PyramidingPlan   `json:"pyramiding"`
	Efficiency  capital.EfficiencyReport `json:"efficiency"`
	RecordID    string                   `json:"record_id,omitempty"`
	Error       string                   `json:"error,omitempty"`
}

// Advisor wires the pipeline stages together.
type Advisor struct {
	provider   *indicator.Provider
	classifier *regime.Classifier
	scorer     *signal.Scorer
	validator  *validation.Validator
	sizer      *capital.Sizer
	store      validation.HistoryStore
	log        zerolog.Logger
}

// New assembles an advisor. store may be nil; signals are then not recorded
// and validation skips the historical check.
func New(cfg Config, store validation.HistoryStore, log zerolog.Logger) *Advisor {
	return &Advisor{
		provider:   indicator.NewProvider(),
		classifier: regime.NewClassifier(cfg.Regime),
		scorer:     signal.NewScorer(cfg.Weights),
		validator:  validation.NewValidator(store, cfg.StoreTimeout, log),
		sizer:      capital.NewSizer(cfg.Sizing),
		store:      store,
		log:        log,
	}
}

// Config collects the per-stage tuning knobs.
type Config struct {
	Regime       regime.Config
	Weights      signal.Weights
	Sizing       capital.Config
	StoreTimeout time.Duration
}

// DefaultConfig returns the canonical pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Regime:       regime.DefaultConfig(),
		Weights:      signal.DefaultWeights(),
		Sizing:       capital.DefaultConfig(),
		StoreTimeout: 500 * time.Millisecond,
	}
}

// Analyze runs the full pipeline. It never returns an error: malformed
// input that escapes the per-stage guards is caught at this boundary and
// reported inside a structurally valid default result.
func (a *Advisor) Analyze(ctx context.Context, req Request) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error().Interface("panic", r).Msg("analysis pipeline panicked")
			res = Result{
				Regime: regime.UnknownRegime(),
				Signal: signal.Signal{
					Type:       signal.Neutral,
					Confidence: 0.5,
					Reasons:    []string{"Analysis failed, defaulting to neutral"},
					Regime:     regime.UnknownRegime(),
				},
				Error: "internal analysis error",
			}
		}
	}()

	snap := a.provider.Compute(req.Bars)

	reg := a.classifier.Classify(snap)
	res.Regime = reg
	res.TrendChange = regime.DetectTrendChange(snap)

	scored := a.scorer.Score(snap, &reg)
	res.Signal = scored

	res.Validation = a.validator.Validate(ctx, scored, snap, reg)
	validated := res.Validation.Signal

	if req.Capital > 0 && req.CurrentPrice > 0 {
		sizeReq := capital.SizeRequest{
			Signal:        validated,
			Capital:       req.Capital,
			Price:         req.CurrentPrice,
			Regime:        &reg,
			VolatileAsset: req.VolatileAsset,
		}
		res.Position = a.sizer.Size(sizeReq)
		res.Pyramiding = a.sizer.PyramidingLevels(sizeReq)
		res.Efficiency = capital.AnalyzeEfficiency(validated, res.Position)
	}

	if a.store != nil && validated.Type != signal.Neutral {
		id, err := a.store.Record(ctx, validation.SignalRecord{
			Timestamp:          time.Now().UTC(),
			SignalType:         string(validated.Type),
			Confidence:         res.Validation.OriginalConfidence,
			AdjustedConfidence: res.Validation.AdjustedConfidence,
			RegimeType:         string(reg.Type),
			EntryPrice:         validated.EntryPrice,
		})
		if err != nil {
			a.log.Warn().Err(err).Msg("failed to record signal history")
		} else {
			res.RecordID = id
		}
	}

	return res
}

// ClassifyRegime exposes the regime stage on its own.
func (a *Advisor) ClassifyRegime(bars []market.Bar) regime.Regime {
	return a.classifier.Classify(a.provider.Compute(bars))
}

// ScoreSignal exposes the scoring stage on its own.
func (a *Advisor) ScoreSignal(bars []market.Bar) signal.Signal {
	snap := a.provider.Compute(bars)
	reg := a.classifier.Classify(snap)
	return a.scorer.Score(snap, &reg)
}

// SizePosition exposes the sizing stage on its own.
func (a *Advisor) SizePosition(sig signal.Signal, capitalUSD, price float64, reg *regime.Regime, volatileAsset bool) capital.PositionPlan {
	return a.sizer.Size(capital.SizeRequest{
		Signal:        sig,
		Capital:       capitalUSD,
		Price:         price,
		Regime:        reg,
		VolatileAsset: volatileAsset,
	})
}

// PortfolioRisk exposes the portfolio aggregation stage.
func (a *Advisor) PortfolioRisk(plans []capital.PositionPlan, capitalUSD float64) capital.PortfolioRiskSummary {
	return a.sizer.AggregatePortfolioRisk(plans, capitalUSD)
}

// MarkOutcome records the realized outcome for an issued signal.
func (a *Advisor) MarkOutcome(ctx context.Context, id string, accurate bool, exitPrice float64) error {
	if a.store == nil {
		return nil
	}
	return a.store.MarkOutcome(ctx, id, accurate, exitPrice)
}
