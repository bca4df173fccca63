// Package util
//
// This file summarises a set of samples, e.g. the number of operations each
// worker goroutine completed during a perf run, and rates how evenly the work
// was spread across them.
package util

import (
	"math"
)

// Stats describes a sample set
type Stats struct {
	StdDeviation float64 `json:"std_deviation" yaml:"std_deviation"`
	Min          float64 `json:"min" yaml:"min"`
	Max          float64 `json:"max" yaml:"max"`
	Mean         float64 `json:"mean" yaml:"mean"`
	MinMaxRatio  float64 `json:"min_max_ratio" yaml:"min_max_ratio"`
}

// NewStats computes mean, population standard deviation, min and max of values
func NewStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	min, max := values[0], values[0]
	var sum float64
	for _, v := range values {
		sum += v
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	mean := sum / float64(len(values))

	var sumSquaredDiffs float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiffs += diff * diff
	}

	minMaxRatio := 1.0
	if max > 0 {
		minMaxRatio = min / max
	}

	return Stats{
		StdDeviation: math.Sqrt(sumSquaredDiffs / float64(len(values))),
		Min:          min,
		Max:          max,
		Mean:         mean,
		MinMaxRatio:  minMaxRatio,
	}
}

// DistributionStats extends Stats with a single fairness score in [0, 1]
type DistributionStats struct {
	Stats
	DistributionQuality float64 `json:"distribution_quality" yaml:"distribution_quality"`
}

// NewDistributionStats rates how evenly values are spread.
// 1.0 means every sample is equal; lower CV and a higher min/max ratio score better.
func NewDistributionStats(values []float64) DistributionStats {
	stats := NewStats(values)

	var cv float64
	if stats.Mean > 0 {
		cv = stats.StdDeviation / stats.Mean
	}

	return DistributionStats{
		Stats:               stats,
		DistributionQuality: (1.0-math.Min(1.0, cv))*0.5 + stats.MinMaxRatio*0.5,
	}
}
