// Package stats computes the descriptive statistics behind the benchmark
// tables. Everything is recomputed from scratch each run; there is no
// incremental update model.
package stats

import (
	"math"
	"sort"
)

// Quantile returns the q-th quantile (0 <= q <= 1) of values using linear
// interpolation between closest ranks, matching the convention the
// benchmark consumers already expect. The input is not modified.
func Quantile(values []float64, q float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}
	h := float64(n-1) * q
	lo := int(math.Floor(h))
	hi := lo + 1
	if hi >= n {
		return sorted[lo]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// Median is the 0.5 quantile.
func Median(values []float64) float64 {
	return Quantile(values, 0.5)
}

// Mean returns the arithmetic mean.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDevPop returns the population standard deviation (ddof = 0).
func StdDevPop(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	mean := Mean(values)
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}

// CV returns the coefficient of variation, population standard deviation
// over mean: a scale-free dispersion measure.
func CV(values []float64) float64 {
	mean := Mean(values)
	if mean == 0 || math.IsNaN(mean) {
		return math.NaN()
	}
	return StdDevPop(values) / mean
}

// Min returns the smallest value.
func Min(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Max returns the largest value.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
