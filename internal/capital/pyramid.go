package capital

const (
	pyramidLevels      = 3
	pyramidSizeDecay   = 0.7
	pyramidATRSpacing  = 1.5
	pyramidMinStrength = 0.5
)

// PyramidLevel is one staged entry.
type PyramidLevel struct {
	Level           int     `json:"level"`
	Price           float64 `json:"price"`
	PositionDollars float64 `json:"position_dollars"`
	PositionUnits   float64 `json:"position_units"`
}

// PyramidingPlan is the staged-entry schedule for trend following.
type PyramidingPlan struct {
	Enabled              bool           `json:"pyramiding_enabled"`
	TotalPositionDollars float64        `json:"total_position_dollars,omitempty"`
	TotalPositionPercent float64        `json:"total_position_percent,omitempty"`
	Levels               []PyramidLevel `json:"levels,omitempty"`
}

// PyramidingLevels builds staged entries for strong signals in strong
// trends: three entries, each 70% of the prior dollar size, spaced 1.5 ATR
// apart in the trend direction. Anything else disables pyramiding.
func (s *Sizer) PyramidingLevels(req SizeRequest) PyramidingPlan {
	if !req.Signal.Type.IsStrong() {
		return PyramidingPlan{}
	}
	if req.Regime == nil || req.Regime.TrendStrength < pyramidMinStrength {
		return PyramidingPlan{}
	}

	base := s.Size(req)
	if base.PositionSizeUSD <= 0 {
		return PyramidingPlan{}
	}

	entry := base.EntryPrice
	atr := req.Signal.ATR
	if atr <= 0 {
		atr = req.Price * 0.01
	}
	spacing := atr * pyramidATRSpacing
	if req.Signal.Type.IsSell() {
		spacing = -spacing
	}

	levels := make([]PyramidLevel, 0, pyramidLevels)
	price, dollars, total := entry, base.PositionSizeUSD, 0.0
	for i := 0; i < pyramidLevels; i++ {
		if price <= 0 {
			break
		}
		levels = append(levels, PyramidLevel{
			Level:           i + 1,
			Price:           round2(price),
			PositionDollars: round2(dollars),
			PositionUnits:   round4(dollars / price),
		})
		total += dollars
		price += spacing
		dollars *= pyramidSizeDecay
	}

	return PyramidingPlan{
		Enabled:              true,
		TotalPositionDollars: round2(total),
		TotalPositionPercent: round4(total / req.Capital * 100),
		Levels:               levels,
	}
}
