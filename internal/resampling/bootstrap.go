// Package resampling implements the percentile bootstrap and a generic k-fold
// cross-validation harness. Both are deterministic for a given seed.
package resampling

import (
	"math"
	"sort"

	"goethos/domain/stats"
	apperrors "goethos/internal/errors"
	"goethos/internal/rng"
	"goethos/internal/statistics"

	mstats "github.com/montanaflynn/stats"
)

// DefaultBootstrapIterations is used when callers pass iterations <= 0 through
// configuration-driven entry points.
const DefaultBootstrapIterations = 1000

// MaxBootstrapIterations bounds the work a single call may request
const MaxBootstrapIterations = 1_000_000

// Percentiles of the 95% percentile interval
const (
	lowerPercentile = 2.5
	upperPercentile = 97.5
)

// MeanStatistic is the sample mean as a stats.Statistic
func MeanStatistic(s stats.Sample) (float64, error) {
	return mstats.Mean([]float64(s))
}

// MedianStatistic is the sample median as a stats.Statistic
func MedianStatistic(s stats.Sample) (float64, error) {
	return mstats.Median([]float64(s))
}

// BootstrapInterval draws iterations resamples with replacement of the same
// size as sample, applies statistic to each, and returns the 2.5th and 97.5th
// percentiles of the resulting distribution. The same seed always gives the
// same interval.
func BootstrapInterval(sample stats.Sample, statistic stats.Statistic, iterations int, seed int64) (stats.BootstrapResult, error) {
	var res stats.BootstrapResult

	if err := sample.Validate(); err != nil {
		return res, err
	}
	if len(sample) < 2 {
		return res, apperrors.InsufficientSample("bootstrap", len(sample), 2)
	}
	if statistic == nil {
		return res, apperrors.InvalidInput("bootstrap statistic is nil")
	}
	if iterations < 1 || iterations > MaxBootstrapIterations {
		return res, apperrors.InvalidInputf("bootstrap iterations must be in [1, %d], got %d", MaxBootstrapIterations, iterations)
	}

	estimate, err := applyStatistic(statistic, sample)
	if err != nil {
		return res, err
	}

	r := rng.New(seed)
	n := len(sample)
	resample := make(stats.Sample, n)
	distribution := make([]float64, iterations)

	for i := 0; i < iterations; i++ {
		for j := 0; j < n; j++ {
			resample[j] = sample[r.Intn(n)]
		}
		v, err := applyStatistic(statistic, resample)
		if err != nil {
			return res, apperrors.Wrapf(err, "bootstrap iteration %d", i)
		}
		distribution[i] = v
	}

	sort.Float64s(distribution)

	res = stats.BootstrapResult{
		Interval: stats.Interval{
			Low:  statistics.PercentileSorted(distribution, lowerPercentile),
			High: statistics.PercentileSorted(distribution, upperPercentile),
		},
		Iterations: iterations,
		Seed:       seed,
		Estimate:   estimate,
		Confidence: 0.95,
	}
	if iterations > 1 {
		sd, err := mstats.StandardDeviationSample(distribution)
		if err == nil {
			res.StdError = sd
		}
	}
	return res, nil
}

func applyStatistic(statistic stats.Statistic, s stats.Sample) (float64, error) {
	v, err := statistic(s)
	if err != nil {
		return 0, apperrors.Wrap(err, "statistic failed")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, apperrors.InvalidInputf("statistic returned a non-finite value: %v", v)
	}
	return v, nil
}
