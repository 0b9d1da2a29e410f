package database

// AccuracyBucket aggregates validated outcomes for one grouping key.
type AccuracyBucket struct {
	Key      string  `json:"key"`
	Total    int     `json:"total"`
	Accurate int     `json:"accurate"`
	Accuracy float64 `json:"accuracy"`
}

// AccuracyMetrics summarizes historical signal accuracy.
type AccuracyMetrics struct {
	TotalSignals     int              `json:"total_signals"`
	ValidatedSignals int              `json:"validated_signals"`
	AccurateSignals  int              `json:"accurate_signals"`
	OverallAccuracy  float64          `json:"overall_accuracy"`
	BySignalType     []AccuracyBucket `json:"by_signal_type"`
	ByRegimeType     []AccuracyBucket `json:"by_regime_type"`
}
