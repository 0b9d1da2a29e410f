package signal

import (
	"fmt"

	"trade-advisor/internal/market"
)

// buildReasons renders the component scores as ordered human-readable
// statements. Always returns at least one reason.
func buildReasons(c ComponentScores, snap *market.Snapshot) []string {
	var reasons []string

	switch {
	case c.Trend > 0.5:
		reasons = append(reasons, "Strong uptrend identified with price above key moving averages")
	case c.Trend > 0.2:
		reasons = append(reasons, "Moderate uptrend with price above short-term moving averages")
	case c.Trend < -0.5:
		reasons = append(reasons, "Strong downtrend identified with price below key moving averages")
	case c.Trend < -0.2:
		reasons = append(reasons, "Moderate downtrend with price below short-term moving averages")
	}

	adx := market.Last(snap.ADX)
	if market.Usable(adx) && adx > 25 {
		reasons = append(reasons, fmt.Sprintf("Strong trend detected (ADX: %.2f)", adx))
	}

	switch {
	case c.Momentum > 0.5:
		reasons = append(reasons, "Strong bullish momentum indicated by oscillators")
	case c.Momentum > 0.2:
		reasons = append(reasons, "Improving momentum with oscillators in bullish territory")
	case c.Momentum < -0.5:
		reasons = append(reasons, "Strong bearish momentum indicated by oscillators")
	case c.Momentum < -0.2:
		reasons = append(reasons, "Deteriorating momentum with oscillators in bearish territory")
	}

	if c.Volatility > 0.5 {
		reasons = append(reasons, "Price is near lower Bollinger Band, suggesting potential oversold condition")
	} else if c.Volatility < -0.5 {
		reasons = append(reasons, "Price is near upper Bollinger Band, suggesting potential overbought condition")
	}

	if c.Volume > 0.5 {
		reasons = append(reasons, "Strong volume supporting price action")
	} else if c.Volume < -0.5 {
		reasons = append(reasons, "Volume indicators suggesting potential weakness")
	}

	if c.SupportResistance > 0.5 {
		reasons = append(reasons, "Price is near key support level")
	} else if c.SupportResistance < -0.5 {
		reasons = append(reasons, "Price is testing key resistance level")
	}

	for _, p := range snap.Patterns {
		reasons = append(reasons, fmt.Sprintf("Detected %s pattern", p.Name))
	}

	switch snap.Divergence {
	case market.DivergenceBullish:
		reasons = append(reasons, "Bullish divergence between price and RSI")
	case market.DivergenceBearish:
		reasons = append(reasons, "Bearish divergence between price and RSI")
	}

	if len(reasons) == 0 {
		total := c.Trend + c.Momentum + c.Volatility + c.Volume + c.Pattern + c.SupportResistance
		if total > 0 {
			reasons = append(reasons, "Multiple technical indicators showing bullish signals")
		} else if total < 0 {
			reasons = append(reasons, "Multiple technical indicators showing bearish signals")
		} else {
			reasons = append(reasons, "Indicators balanced with no directional edge")
		}
	}

	return reasons
}
