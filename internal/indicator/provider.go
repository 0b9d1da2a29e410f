// Package indicator computes the per-bar technical indicator series that the
// decision pipeline consumes. Computation is deterministic for identical bar
// input; values preceding an indicator's minimum window are NaN and must be
// checked with market.Usable before use.
package indicator

import (
	"trade-advisor/internal/market"
)

// Provider computes indicator snapshots from raw bars.
type Provider struct{}

// NewProvider creates an indicator provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Compute builds the full indicator snapshot for a window of bars. It never
// fails: short histories simply produce NaN warm-up values that downstream
// stages treat as missing data.
func (p *Provider) Compute(bars []market.Bar) *market.Snapshot {
	close := market.Closes(bars)
	volume := market.Volumes(bars)

	snap := &market.Snapshot{
		Bars:   bars,
		Close:  close,
		Volume: volume,

		SMA20:  SMA(close, 20),
		SMA50:  SMA(close, 50),
		SMA200: SMA(close, 200),
		EMA9:   EMA(close, 9),
		EMA21:  EMA(close, 21),

		RSI14: RSI(close, 14),

		ATR: ATR(bars, 14),
		ADX: ADX(bars, 14),

		OBV:         OBV(close, volume),
		CMF:         CMF(bars, 20),
		VolumeSMA20: SMA(volume, 20),
	}

	snap.MACD, snap.MACDSignal, snap.MACDHist = MACD(close, 12, 26, 9)
	snap.StochK, snap.StochD = Stochastic(bars, 14, 3, 3)
	snap.BBUpper, snap.BBMiddle, snap.BBLower, snap.BBPercentB, snap.BBWidth = Bollinger(close, 20, 2.0)
	snap.VMACD, snap.VMACDSignal, snap.VMACDHist = VMACD(close, volume)

	snap.Patterns = DetectPatterns(bars)
	snap.SupportLevels, snap.ResistanceLevels = FindSupportResistance(bars)
	snap.Divergence = DetectDivergence(close, snap.RSI14)

	return snap
}
