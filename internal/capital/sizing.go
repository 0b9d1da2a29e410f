// Package capital turns validated signals into risk-bounded position plans:
// risk-percent sizing with regime overrides, a Kelly overlay, hard position
// caps, staged pyramiding entries and portfolio-level risk aggregation.
// Sizing never fails; every degenerate input has a documented fallback.
package capital

import (
	"trade-advisor/internal/market"
	"trade-advisor/internal/regime"
	"trade-advisor/internal/signal"
)

// Config holds the sizing limits.
type Config struct {
	BaseRiskPercent      float64 `json:"base_risk_percent"`
	MaxRiskPercent       float64 `json:"max_risk_percent"`
	MinRiskPercent       float64 `json:"min_risk_percent"`
	MaxPositionPercent   float64 `json:"max_position_percent"`
	VolatileClassPercent float64 `json:"volatile_class_percent"`
	FallbackPercent      float64 `json:"fallback_percent"`
	PortfolioRiskCeiling float64 `json:"portfolio_risk_ceiling"`
}

// DefaultConfig returns the canonical sizing limits.
func DefaultConfig() Config {
	return Config{
		BaseRiskPercent:      1.0,
		MaxRiskPercent:       1.5,
		MinRiskPercent:       0.5,
		MaxPositionPercent:   10.0,
		VolatileClassPercent: 5.0,
		FallbackPercent:      2.0,
		PortfolioRiskCeiling: 6.0,
	}
}

// SizeRequest bundles the sizing inputs. Capital and Price must be positive;
// the caller validates that. Regime is optional. VolatileAsset marks assets
// in the volatile class, which get a tighter position cap.
type SizeRequest struct {
	Signal        signal.Signal
	Capital       float64
	Price         float64
	Regime        *regime.Regime
	VolatileAsset bool
}

// PositionPlan is the sized, risk-bounded order plan. All monetary fields
// are in quote currency.
type PositionPlan struct {
	TotalCapital         float64 `json:"total_capital"`
	RiskPercent          float64 `json:"risk_percent"`
	RiskAmount           float64 `json:"risk_amount"`
	MaxPositionPercent   float64 `json:"max_position_percent"`
	PositionSizeUSD      float64 `json:"position_size_usd"`
	PositionSizeUnits    float64 `json:"position_size_units"`
	EntryPrice           float64 `json:"entry_price"`
	StopLossPrice        float64 `json:"stop_loss_price"`
	TakeProfitPrice      float64 `json:"take_profit_price"`
	StopLossUSD          float64 `json:"stop_loss_usd"`
	PotentialProfitUSD   float64 `json:"potential_profit_usd"`
	RiskRewardRatio      float64 `json:"risk_reward_ratio"`
	KellyFraction        float64 `json:"kelly_fraction"`
	PortfolioRiskPercent float64 `json:"portfolio_risk_percent"`
	UsedFallback         bool    `json:"used_fallback"`
}

// Sizer computes position plans under the configured limits.
type Sizer struct {
	cfg Config
}

// NewSizer creates a sizer with the given limits.
func NewSizer(cfg Config) *Sizer {
	return &Sizer{cfg: cfg}
}

// Size produces the position plan for a validated signal. NEUTRAL signals
// get a zero plan. A stop loss on the wrong side of entry (or missing)
// falls back to flat-percentage sizing.
func (s *Sizer) Size(req SizeRequest) PositionPlan {
	plan := PositionPlan{
		TotalCapital:       req.Capital,
		MaxPositionPercent: s.cfg.MaxPositionPercent,
		EntryPrice:         req.Signal.EntryPrice,
		StopLossPrice:      req.Signal.StopLoss,
		TakeProfitPrice:    req.Signal.TakeProfit,
	}
	if req.VolatileAsset {
		plan.MaxPositionPercent = s.cfg.VolatileClassPercent
	}
	if req.Signal.Type == signal.Neutral || req.Capital <= 0 || req.Price <= 0 {
		return plan
	}

	entry := req.Signal.EntryPrice
	if entry <= 0 {
		entry = req.Price
		plan.EntryPrice = entry
	}

	plan.RiskPercent = s.riskPercent(req.Signal, req.Regime)
	plan.RiskAmount = req.Capital * plan.RiskPercent / 100

	// Directional distance to the stop. Zero or negative means the stop is
	// missing or on the wrong side; size a flat slice of capital instead.
	priceRisk := entry - req.Signal.StopLoss
	if req.Signal.Type.IsSell() {
		priceRisk = req.Signal.StopLoss - entry
	}
	if req.Signal.StopLoss <= 0 {
		priceRisk = 0
	}

	var usd, units float64
	if priceRisk > 0 {
		units = plan.RiskAmount / priceRisk
		usd = units * req.Price

		plan.KellyFraction = Kelly(req.Signal.Confidence, rewardRiskRatio(req.Signal, entry, priceRisk))
		usd *= plan.KellyFraction
	} else {
		usd = req.Capital * s.cfg.FallbackPercent / 100
		plan.UsedFallback = true
	}

	maxUSD := req.Capital * plan.MaxPositionPercent / 100
	if usd > maxUSD {
		usd = maxUSD
	}
	units = usd / req.Price

	plan.PositionSizeUSD = round2(usd)
	plan.PositionSizeUnits = round4(units)

	if priceRisk > 0 {
		plan.StopLossUSD = round2(units * priceRisk)
	}
	if req.Signal.TakeProfit > 0 {
		reward := req.Signal.TakeProfit - entry
		if req.Signal.Type.IsSell() {
			reward = entry - req.Signal.TakeProfit
		}
		if reward > 0 {
			plan.PotentialProfitUSD = round2(units * reward)
		}
	}
	if plan.StopLossUSD > 0 {
		plan.RiskRewardRatio = round2(plan.PotentialProfitUSD / plan.StopLossUSD)
		plan.PortfolioRiskPercent = round4(plan.StopLossUSD / req.Capital * 100)
	}

	return sanitizePlan(plan)
}

// riskPercent is the risk ladder: confidence-scaled base risk, then regime
// overrides with a volatility sub-adjustment, bounded to the ceiling.
func (s *Sizer) riskPercent(sig signal.Signal, reg *regime.Regime) float64 {
	var rp float64
	if sig.Type.IsStrong() {
		rp = s.cfg.BaseRiskPercent + sig.Confidence
		if rp > s.cfg.MaxRiskPercent {
			rp = s.cfg.MaxRiskPercent
		}
	} else {
		rp = sig.Confidence
		if rp < s.cfg.MinRiskPercent {
			rp = s.cfg.MinRiskPercent
		}
	}

	if reg != nil {
		switch reg.Type {
		case regime.Trending:
			if sig.Confidence > 0.7 {
				rp = 1.2
			}
		case regime.Ranging:
			rp = 0.8
		case regime.Volatile:
			rp = 0.6
		}
		switch reg.Volatility {
		case regime.VolatilityHigh:
			rp *= 0.8
		case regime.VolatilityLow:
			rp *= 1.2
		}
	}

	return market.Clamp(rp, 0, s.cfg.MaxRiskPercent)
}

// Kelly returns the Kelly fraction for win probability p and win/loss ratio
// b, clamped to [0, 0.5]. A non-positive ratio yields 0 rather than dividing
// by zero.
func Kelly(p, b float64) float64 {
	if b <= 0 || !market.Usable(b) {
		return 0
	}
	k := (p*(b+1) - 1) / b
	return market.Clamp(market.Sanitize(k, 0), 0, 0.5)
}

// rewardRiskRatio is reward-per-unit over risk-per-unit for the Kelly input.
func rewardRiskRatio(sig signal.Signal, entry, priceRisk float64) float64 {
	if sig.TakeProfit <= 0 || priceRisk <= 0 {
		return 0
	}
	reward := sig.TakeProfit - entry
	if sig.Type.IsSell() {
		reward = entry - sig.TakeProfit
	}
	if reward <= 0 {
		return 0
	}
	return reward / priceRisk
}

func sanitizePlan(p PositionPlan) PositionPlan {
	p.RiskPercent = market.Sanitize(p.RiskPercent, 0)
	p.RiskAmount = market.Sanitize(p.RiskAmount, 0)
	p.PositionSizeUSD = market.Sanitize(p.PositionSizeUSD, 0)
	p.PositionSizeUnits = market.Sanitize(p.PositionSizeUnits, 0)
	p.StopLossUSD = market.Sanitize(p.StopLossUSD, 0)
	p.PotentialProfitUSD = market.Sanitize(p.PotentialProfitUSD, 0)
	p.RiskRewardRatio = market.Sanitize(p.RiskRewardRatio, 0)
	p.KellyFraction = market.Sanitize(p.KellyFraction, 0)
	p.PortfolioRiskPercent = market.Sanitize(p.PortfolioRiskPercent, 0)
	return p
}

func round2(v float64) float64 { return roundTo(v, 100) }
func round4(v float64) float64 { return roundTo(v, 10000) }

func roundTo(v, scale float64) float64 {
	if !market.Usable(v) {
		return 0
	}
	if v < 0 {
		return float64(int64(v*scale-0.5)) / scale
	}
	return float64(int64(v*scale+0.5)) / scale
}
