package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// PopVariance returns the population variance (no Bessel correction) of values,
// or 0 for an empty slice.
func PopVariance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.PopVariance(values, nil)
}

// PercentDiff returns the change from oldVal to newVal in percent.
// A zero baseline yields 0 instead of an infinite or undefined result.
func PercentDiff(oldVal, newVal float64) float64 {
	if oldVal == 0 {
		return 0
	}
	return (newVal - oldVal) / oldVal * 100
}

// Normalize scales values in place so they sum to 1 and returns the slice.
// When the sum is zero or not finite every element is set to 1/len(values).
func Normalize(values []float64) []float64 {
	if len(values) == 0 {
		return values
	}

	sum := floats.Sum(values)
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		uniform := 1 / float64(len(values))
		for i := range values {
			values[i] = uniform
		}
		return values
	}

	floats.Scale(1/sum, values)
	return values
}
