// Package statistics holds the descriptive statistics used across goethos:
// confidence evidence for a sample, percentiles and inter-rater agreement.
// Every function validates its input and fails with a typed error instead of
// letting NaN flow into the result.
package statistics

import (
	"math"
	"sort"

	"goethos/domain/stats"
	apperrors "goethos/internal/errors"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultConfidenceLevel is the two-tailed level used by ConfidenceInterval
const DefaultConfidenceLevel = 0.95

// MinSampleForVariance is the smallest sample with a defined (n-1) variance
const MinSampleForVariance = 2

// ConfidenceInterval computes confidence evidence at the 95% level.
//
// A sample of size 0 or 1 fails with INSUFFICIENT_SAMPLE: the sample variance
// is undefined for n = 1 and we do not substitute zero.
func ConfidenceInterval(sample stats.Sample) (stats.ConfidenceEvidence, error) {
	return ConfidenceIntervalAt(sample, DefaultConfidenceLevel)
}

// ConfidenceIntervalAt computes confidence evidence at the given level in (0, 1)
func ConfidenceIntervalAt(sample stats.Sample, level float64) (stats.ConfidenceEvidence, error) {
	var ev stats.ConfidenceEvidence

	if err := sample.Validate(); err != nil {
		return ev, err
	}
	if len(sample) < MinSampleForVariance {
		return ev, apperrors.InsufficientSample("confidence interval", len(sample), MinSampleForVariance)
	}
	if math.IsNaN(level) || level <= 0 || level >= 1 {
		return ev, apperrors.InvalidInputf("confidence level must be in (0, 1), got %v", level)
	}

	data := []float64(sample)
	n := float64(len(data))

	mean, err := mstats.Mean(data)
	if err != nil {
		return ev, apperrors.Wrap(err, "mean")
	}
	variance, err := mstats.SampleVariance(data)
	if err != nil {
		return ev, apperrors.Wrap(err, "sample variance")
	}
	// Guard against tiny negative values from floating point cancellation.
	variance = math.Max(variance, 0)

	sd := math.Sqrt(variance)
	se := math.Sqrt(variance / n)

	df := n - 1
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	tCritical := tDist.Quantile(1 - (1-level)/2)
	margin := tCritical * se

	ev = stats.ConfidenceEvidence{
		SampleSize:         len(data),
		Mean:               mean,
		Variance:           variance,
		StandardError:      se,
		ConfidenceLevel:    level,
		ConfidenceInterval: stats.Interval{Low: mean - margin, High: mean + margin},
	}

	if se == 0 {
		// Degenerate sample: the mean is known exactly. The effect size is
		// undefined and reported as zero.
		if mean == 0 {
			ev.PValue = 1
		}
		return ev, nil
	}

	ev.TStatistic = mean / se
	ev.PValue = clampProbability(2 * (1 - tDist.CDF(math.Abs(ev.TStatistic))))
	ev.EffectSize = mean / sd
	return ev, nil
}

// Mean validates the sample and returns its arithmetic mean
func Mean(sample stats.Sample) (float64, error) {
	if err := sample.Validate(); err != nil {
		return 0, err
	}
	return mstats.Mean([]float64(sample))
}

// Median validates the sample and returns its median
func Median(sample stats.Sample) (float64, error) {
	if err := sample.Validate(); err != nil {
		return 0, err
	}
	return mstats.Median([]float64(sample))
}

// SampleStdDev returns the (n-1) standard deviation; n < 2 is an error
func SampleStdDev(sample stats.Sample) (float64, error) {
	if err := sample.Validate(); err != nil {
		return 0, err
	}
	if len(sample) < MinSampleForVariance {
		return 0, apperrors.InsufficientSample("standard deviation", len(sample), MinSampleForVariance)
	}
	v, err := mstats.SampleVariance([]float64(sample))
	if err != nil {
		return 0, err
	}
	return math.Sqrt(math.Max(v, 0)), nil
}

// Percentile returns the p-th percentile (0-100) with linear interpolation
// between order statistics. The input is not modified.
func Percentile(sample stats.Sample, p float64) (float64, error) {
	if err := sample.Validate(); err != nil {
		return 0, err
	}
	if math.IsNaN(p) || p < 0 || p > 100 {
		return 0, apperrors.InvalidInputf("percentile must be in [0, 100], got %v", p)
	}
	sorted := []float64(sample.Clone())
	sort.Float64s(sorted)
	return PercentileSorted(sorted, p), nil
}

// PercentileSorted is Percentile for already sorted, validated, non-empty data
func PercentileSorted(sorted []float64, p float64) float64 {
	index := (p / 100.0) * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func clampProbability(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 1
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
