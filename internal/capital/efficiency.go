package capital

import (
	"trade-advisor/internal/market"
	"trade-advisor/internal/signal"
)

// EfficiencyReport compares the sized position against a Kelly-optimal
// allocation and estimates the trade's expected value.
type EfficiencyReport struct {
	ExpectedValue          float64 `json:"expected_value"`
	CapitalUsagePercent    float64 `json:"capital_usage_percent"`
	EstimatedWinRate       float64 `json:"estimated_win_rate"`
	KellyCriterion         float64 `json:"kelly_criterion"`
	OptimalPositionPercent float64 `json:"optimal_position_percent"`
	PositionVsOptimal      float64 `json:"position_vs_optimal"`
}

// AnalyzeEfficiency estimates how well the plan uses capital. Win rate is
// derived from confidence and capped well below certainty; a degenerate
// risk/reward ratio is treated as 1:1.
func AnalyzeEfficiency(sig signal.Signal, plan PositionPlan) EfficiencyReport {
	rr := plan.RiskRewardRatio
	if rr <= 0 || !market.Usable(rr) {
		rr = 1.0
	}

	winRate := 0.4 + sig.Confidence*0.5
	if winRate > 0.65 {
		winRate = 0.65
	}

	capital := plan.TotalCapital
	if capital <= 0 || !market.Usable(capital) {
		capital = 1
	}
	usage := plan.PositionSizeUSD / capital

	kelly := 0.0
	if rr > 0 {
		k := winRate - (1-winRate)/rr
		if k > 0 {
			kelly = k
		}
	}
	optimal := kelly
	if optimal > 0.25 {
		optimal = 0.25
	}

	vsOptimal := 0.0
	if optimal > 0 {
		vsOptimal = usage / optimal
	}

	return EfficiencyReport{
		ExpectedValue:          round4(winRate*rr - (1 - winRate)),
		CapitalUsagePercent:    round4(usage),
		EstimatedWinRate:       round4(winRate),
		KellyCriterion:         round4(kelly),
		OptimalPositionPercent: round4(optimal),
		PositionVsOptimal:      round4(vsOptimal),
	}
}
