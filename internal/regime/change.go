package regime

import "trade-advisor/internal/market"

// TrendChange reports a detected shift in trend direction.
type TrendChange struct {
	Changed   bool   `json:"changed"`
	Direction string `json:"direction"`
	Reason    string `json:"reason"`
}

// DetectTrendChange looks for a short/long moving average crossover on the
// most recent bar. Used to annotate analyses with early reversal hints; it
// does not alter the regime classification itself.
func DetectTrendChange(snap *market.Snapshot) TrendChange {
	if snap == nil || snap.Len() < 2 {
		return TrendChange{}
	}
	fast, slow := snap.EMA9, snap.EMA21
	curFast, curSlow := market.Last(fast), market.Last(slow)
	prevFast, prevSlow := market.Prev(fast), market.Prev(slow)
	if !market.Usable(curFast) || !market.Usable(curSlow) ||
		!market.Usable(prevFast) || !market.Usable(prevSlow) {
		return TrendChange{}
	}
	if prevFast <= prevSlow && curFast > curSlow {
		return TrendChange{Changed: true, Direction: "bullish", Reason: "EMA9 crossed above EMA21"}
	}
	if prevFast >= prevSlow && curFast < curSlow {
		return TrendChange{Changed: true, Direction: "bearish", Reason: "EMA9 crossed below EMA21"}
	}
	return TrendChange{}
}
