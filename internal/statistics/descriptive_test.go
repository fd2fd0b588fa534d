package statistics

import (
	stderrors "errors"
	"math"
	"testing"

	"goethos/domain/stats"
	apperrors "goethos/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tacticStrengths = stats.Sample{0.7, 0.8, 0.6, 0.9, 0.75, 0.65, 0.85, 0.7, 0.8, 0.75}

func TestConfidenceInterval_TacticStrengths(t *testing.T) {
	ev, err := ConfidenceInterval(tacticStrengths)
	require.NoError(t, err)

	assert.Equal(t, 10, ev.SampleSize)
	assert.InDelta(t, 0.75, ev.Mean, 1e-9)
	assert.InDelta(t, 0.0083333, ev.Variance, 1e-6)
	assert.InDelta(t, math.Sqrt(ev.Variance/10), ev.StandardError, 1e-12)
	assert.True(t, ev.ExcludesZero(), "interval %+v should exclude zero", ev.ConfidenceInterval)
	assert.Greater(t, ev.EffectSize, 0.0)
	assert.Less(t, ev.PValue, 0.001)

	// t(9, 0.975) = 2.262
	assert.InDelta(t, 0.75-2.2622*ev.StandardError, ev.ConfidenceInterval.Low, 1e-4)
	assert.InDelta(t, 0.75+2.2622*ev.StandardError, ev.ConfidenceInterval.High, 1e-4)
}

func TestConfidenceInterval_MeanInsideInterval(t *testing.T) {
	samples := []stats.Sample{
		{1, 2},
		{-5, 3, 8, 0.5},
		{100, 100.1, 99.9},
		{-0.3, -0.2, -0.4, -0.1, -0.25},
		{4, 4, 4, 4},
	}
	for _, s := range samples {
		ev, err := ConfidenceInterval(s)
		require.NoError(t, err)
		assert.LessOrEqual(t, ev.ConfidenceInterval.Low, ev.Mean)
		assert.GreaterOrEqual(t, ev.ConfidenceInterval.High, ev.Mean)
		assert.GreaterOrEqual(t, ev.Variance, 0.0)
		assert.GreaterOrEqual(t, ev.PValue, 0.0)
		assert.LessOrEqual(t, ev.PValue, 1.0)
	}
}

func TestConfidenceInterval_EmptySample(t *testing.T) {
	_, err := ConfidenceInterval(stats.Sample{})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, apperrors.ErrInsufficientSample))
	assert.Equal(t, apperrors.CodeInsufficientSample, apperrors.GetCode(err))
}

func TestConfidenceInterval_SingleObservation(t *testing.T) {
	_, err := ConfidenceInterval(stats.Sample{0.4})
	assert.True(t, stderrors.Is(err, apperrors.ErrInsufficientSample))
}

func TestConfidenceInterval_NaN(t *testing.T) {
	_, err := ConfidenceInterval(stats.Sample{0.4, math.NaN(), 0.2})
	assert.True(t, stderrors.Is(err, apperrors.ErrInvalidInput))

	_, err = ConfidenceInterval(stats.Sample{0.4, math.Inf(1)})
	assert.True(t, stderrors.Is(err, apperrors.ErrInvalidInput))
}

func TestConfidenceIntervalAt_InvalidLevel(t *testing.T) {
	for _, level := range []float64{0, 1, -0.5, 1.2, math.NaN()} {
		_, err := ConfidenceIntervalAt(tacticStrengths, level)
		assert.True(t, stderrors.Is(err, apperrors.ErrInvalidInput), "level %v", level)
	}
}

func TestConfidenceIntervalAt_WiderAtHigherLevel(t *testing.T) {
	ev90, err := ConfidenceIntervalAt(tacticStrengths, 0.90)
	require.NoError(t, err)
	ev99, err := ConfidenceIntervalAt(tacticStrengths, 0.99)
	require.NoError(t, err)
	assert.Greater(t, ev99.ConfidenceInterval.Width(), ev90.ConfidenceInterval.Width())
}

func TestConfidenceInterval_ConstantSample(t *testing.T) {
	ev, err := ConfidenceInterval(stats.Sample{0.5, 0.5, 0.5, 0.5})
	require.NoError(t, err)
	assert.Equal(t, 0.0, ev.Variance)
	assert.Equal(t, stats.Interval{Low: 0.5, High: 0.5}, ev.ConfidenceInterval)
	assert.Equal(t, 0.0, ev.PValue)
	assert.Equal(t, 0.0, ev.EffectSize)

	ev, err = ConfidenceInterval(stats.Sample{0, 0})
	require.NoError(t, err)
	assert.Equal(t, 1.0, ev.PValue)
}

func TestPercentile(t *testing.T) {
	s := stats.Sample{5, 1, 4, 2, 3}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{25, 2},
		{50, 3},
		{100, 5},
		{62.5, 3.5},
	}
	for _, tt := range tests {
		got, err := Percentile(s, tt.p)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-12, "p=%v", tt.p)
	}
	assert.Equal(t, stats.Sample{5, 1, 4, 2, 3}, s, "input must not be reordered")

	_, err := Percentile(s, 101)
	assert.True(t, stderrors.Is(err, apperrors.ErrInvalidInput))
}

func TestSampleStdDev(t *testing.T) {
	sd, err := SampleStdDev(stats.Sample{2, 4, 4, 4, 5, 5, 7, 9})
	require.NoError(t, err)
	assert.InDelta(t, 2.138, sd, 1e-3)

	_, err = SampleStdDev(stats.Sample{1})
	assert.True(t, stderrors.Is(err, apperrors.ErrInsufficientSample))
}
