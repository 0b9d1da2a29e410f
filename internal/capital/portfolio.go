package capital

// PortfolioRiskSummary aggregates stop-loss exposure across open plans.
type PortfolioRiskSummary struct {
	TotalCapital     float64 `json:"total_capital"`
	TotalRiskUSD     float64 `json:"total_risk_usd"`
	TotalRiskPercent float64 `json:"total_risk_percent"`
	RiskCeiling      float64 `json:"risk_ceiling_percent"`
	CeilingExceeded  bool    `json:"ceiling_exceeded"`
	PositionCount    int     `json:"position_count"`
}

// AggregatePortfolioRisk sums the loss-at-stop of every open plan as a
// percentage of capital and flags a breach of the configured ceiling.
func (s *Sizer) AggregatePortfolioRisk(plans []PositionPlan, capital float64) PortfolioRiskSummary {
	summary := PortfolioRiskSummary{
		TotalCapital: capital,
		RiskCeiling:  s.cfg.PortfolioRiskCeiling,
	}
	for _, p := range plans {
		if p.StopLossUSD > 0 {
			summary.TotalRiskUSD += p.StopLossUSD
			summary.PositionCount++
		}
	}
	if capital > 0 {
		summary.TotalRiskPercent = round4(summary.TotalRiskUSD / capital * 100)
	}
	summary.TotalRiskUSD = round2(summary.TotalRiskUSD)
	summary.CeilingExceeded = summary.TotalRiskPercent > summary.RiskCeiling
	return summary
}
