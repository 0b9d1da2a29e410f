package market

import "math"

func nan() float64 { return math.NaN() }

// Usable reports whether a value is safe to branch on (finite, not NaN).
func Usable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SafeDiv divides a by b, returning fallback when b is zero or the result
// would not be finite.
func SafeDiv(a, b, fallback float64) float64 {
	if b == 0 {
		return fallback
	}
	v := a / b
	if !Usable(v) {
		return fallback
	}
	return v
}

// Sanitize replaces NaN/Inf with the given sentinel so values never cross
// the pipeline boundary unnormalized.
func Sanitize(v, sentinel float64) float64 {
	if !Usable(v) {
		return sentinel
	}
	return v
}

// Mean returns the arithmetic mean of the usable values in series, or NaN
// when none are usable.
func Mean(series []float64) float64 {
	sum := 0.0
	n := 0
	for _, v := range series {
		if Usable(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return nan()
	}
	return sum / float64(n)
}

// Stdev returns the population standard deviation of the usable values.
func Stdev(series []float64) float64 {
	m := Mean(series)
	if !Usable(m) {
		return nan()
	}
	sum := 0.0
	n := 0
	for _, v := range series {
		if Usable(v) {
			d := v - m
			sum += d * d
			n++
		}
	}
	if n == 0 {
		return nan()
	}
	return math.Sqrt(sum / float64(n))
}

// Slope returns the least-squares slope of series over its index, ignoring
// nothing: callers pass fully-populated windows.
func Slope(series []float64) float64 {
	n := len(series)
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range series {
		if !Usable(v) {
			return 0
		}
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	denom := float64(n)*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (float64(n)*sumXY - sumX*sumY) / denom
}
