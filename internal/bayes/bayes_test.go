package bayes

import (
	stderrors "errors"
	"math"
	"testing"

	"goethos/domain/stats"
	apperrors "goethos/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseline = stats.Sample{0.3, 0.35, 0.4, 0.25, 0.3}

func TestUpdate_PosteriorMonotoneInEvidence(t *testing.T) {
	prev := -1.0
	for _, level := range []float64{0.0, 0.1, 0.2, 0.3, 0.5, 0.7, 0.9, 1.0} {
		evidence := stats.Sample{level, level, level}
		u, err := Update(evidence, 0.3, baseline)
		require.NoError(t, err)
		assert.Greater(t, u.Posterior, prev, "posterior must increase at evidence %v", level)
		prev = u.Posterior
	}
}

func TestUpdate_DirectionMatchesEvidence(t *testing.T) {
	strong, err := Update(stats.Sample{0.8, 0.9, 0.85}, 0.5, baseline)
	require.NoError(t, err)
	assert.Greater(t, strong.Posterior, 0.5)
	assert.Greater(t, strong.BayesFactor, 1.0)
	assert.InDelta(t, math.Exp(LikelihoodSensitivity*strong.EvidenceStrength), strong.BayesFactor, 1e-9)

	weak, err := Update(stats.Sample{0.1, 0.05}, 0.5, baseline)
	require.NoError(t, err)
	assert.Less(t, weak.Posterior, 0.5)
	assert.Less(t, weak.BayesFactor, 1.0)

	neutral, err := Update(stats.Sample{0.32}, 0.4, baseline)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, neutral.Posterior, 1e-9)
	assert.InDelta(t, 1.0, neutral.BayesFactor, 1e-9)
}

func TestUpdate_CredibleInterval(t *testing.T) {
	u, err := Update(stats.Sample{0.6, 0.7, 0.65, 0.55, 0.6, 0.7}, 0.4, baseline)
	require.NoError(t, err)
	assert.True(t, u.CredibleInterval.Contains(u.Posterior), "%+v", u)
	assert.GreaterOrEqual(t, u.CredibleInterval.Low, 0.0)
	assert.LessOrEqual(t, u.CredibleInterval.High, 1.0)

	more := make(stats.Sample, 60)
	for i := range more {
		more[i] = 0.6
	}
	u2, err := Update(more, 0.4, baseline)
	require.NoError(t, err)
	assert.Less(t, u2.CredibleInterval.Width(), u.CredibleInterval.Width(), "more evidence should narrow the interval")
}

func TestUpdate_InvalidInput(t *testing.T) {
	_, err := Update(stats.Sample{}, 0.5, baseline)
	assert.True(t, stderrors.Is(err, apperrors.ErrInsufficientSample))

	_, err = Update(stats.Sample{0.5}, 0.5, stats.Sample{})
	assert.True(t, stderrors.Is(err, apperrors.ErrInsufficientSample))

	for _, prior := range []float64{0, 1, -0.1, 1.5, math.NaN()} {
		_, err = Update(stats.Sample{0.5}, prior, baseline)
		assert.True(t, stderrors.Is(err, apperrors.ErrInvalidInput), "prior %v", prior)
	}

	_, err = Update(stats.Sample{0.5, math.NaN()}, 0.5, baseline)
	assert.True(t, stderrors.Is(err, apperrors.ErrInvalidInput))
}

func TestUpdateMany(t *testing.T) {
	out, err := UpdateMany(map[string]stats.Sample{
		"care": {0.9, 0.8},
		"duty": {0.1, 0.2},
	}, 0.3, baseline)
	require.NoError(t, err)
	assert.Greater(t, out["care"].Posterior, out["duty"].Posterior)
}

func TestIndividualModel_Converges(t *testing.T) {
	model := IndividualModel{PopulationMean: 0.5, PopulationSD: 0.2}
	data := stats.Sample{0.7, 0.8, 0.6, 0.9, 0.75, 0.65, 0.85, 0.7, 0.8, 0.75}

	summary, err := model.Fit(data, DefaultSamplerConfig(42))
	require.NoError(t, err)

	assert.True(t, summary.Converged, "R-hat %f", summary.RHat)
	assert.Empty(t, summary.Warning)
	assert.Less(t, summary.RHat, DefaultRHatThreshold)
	assert.Len(t, summary.Chains, DefaultChains)
	for _, c := range summary.Chains {
		assert.Equal(t, DefaultSamples, c.Draws)
		assert.Greater(t, c.AcceptanceRate, 0.2)
		assert.Less(t, c.AcceptanceRate, 0.95)
	}

	// Normal-normal conjugate posterior mean, shrunk towards 0.5.
	sigma2 := 0.075 / 9
	precision := 1/0.04 + 10/sigma2
	analytic := (0.5/0.04 + 7.5/sigma2) / precision
	assert.InDelta(t, analytic, summary.Mean, 0.01)
	assert.Less(t, summary.Mean, 0.75)
	assert.True(t, summary.CredibleInterval.Contains(summary.Mean))
	assert.Greater(t, summary.Shrinkage, 0.0)
	assert.Less(t, summary.Shrinkage, 1.0)
}

func TestIndividualModel_Deterministic(t *testing.T) {
	model := IndividualModel{PopulationMean: 0, PopulationSD: 1, ObservationSD: 0.5}
	data := stats.Sample{0.2, -0.1, 0.4}

	a, err := model.Fit(data, DefaultSamplerConfig(9))
	require.NoError(t, err)
	b, err := model.Fit(data, DefaultSamplerConfig(9))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestIndividualModel_NonConvergenceIsAWarning(t *testing.T) {
	model := IndividualModel{PopulationMean: 0, PopulationSD: 5, ObservationSD: 1}
	cfg := DefaultSamplerConfig(3)
	cfg.ProposalScale = 1e-6
	cfg.Samples = 200
	cfg.BurnIn = 1

	summary, err := model.Fit(stats.Sample{0.1, 0.2, 0.3}, cfg)
	require.NoError(t, err)
	assert.False(t, summary.Converged)
	assert.Greater(t, summary.RHat, DefaultRHatThreshold)
	assert.Contains(t, summary.Warning, "R-hat")
}

func TestIndividualModel_InvalidInput(t *testing.T) {
	_, err := IndividualModel{PopulationSD: 0}.Fit(stats.Sample{1, 2}, DefaultSamplerConfig(1))
	assert.True(t, stderrors.Is(err, apperrors.ErrInvalidInput))

	_, err = IndividualModel{PopulationSD: 1}.Fit(stats.Sample{}, DefaultSamplerConfig(1))
	assert.True(t, stderrors.Is(err, apperrors.ErrInsufficientSample))

	_, err = IndividualModel{PopulationSD: 1}.Fit(stats.Sample{1}, DefaultSamplerConfig(1))
	assert.True(t, stderrors.Is(err, apperrors.ErrInsufficientSample))

	cfg := DefaultSamplerConfig(1)
	cfg.Chains = 1
	_, err = IndividualModel{PopulationSD: 1, ObservationSD: 1}.Fit(stats.Sample{1}, cfg)
	assert.True(t, stderrors.Is(err, apperrors.ErrInvalidInput))
}

func TestGelmanRubin(t *testing.T) {
	same := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 1.0, GelmanRubin([][]float64{same, same, same}), 0.2)

	apart := [][]float64{{0, 0.1, -0.1, 0.05}, {10, 10.1, 9.9, 10.05}}
	assert.Greater(t, GelmanRubin(apart), 10.0)

	frozen := [][]float64{{1, 1, 1}, {2, 2, 2}}
	assert.Equal(t, rHatCap, GelmanRubin(frozen))

	assert.True(t, math.IsNaN(GelmanRubin([][]float64{same})))
}

func TestUpdate_SaturatedPosteriorKeepsFiniteInterval(t *testing.T) {
	cases := []struct {
		name     string
		evidence stats.Sample
		prior    float64
	}{
		{"prior just below one, strong evidence", stats.Sample{10}, 1 - 1.2e-16},
		{"smallest prior, negative evidence", stats.Sample{-10}, 5e-324},
		{"moderate prior", stats.Sample{10}, 0.999999999},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var u stats.BayesianUpdate
			require.NotPanics(t, func() {
				var err error
				u, err = Update(tc.evidence, tc.prior, stats.Sample{0})
				require.NoError(t, err)
			})
			assert.GreaterOrEqual(t, u.Posterior, 0.0)
			assert.LessOrEqual(t, u.Posterior, 1.0)
			assert.False(t, math.IsNaN(u.CredibleInterval.Low), "%+v", u)
			assert.False(t, math.IsNaN(u.CredibleInterval.High), "%+v", u)
			assert.LessOrEqual(t, u.CredibleInterval.Low, u.CredibleInterval.High)
		})
	}
}

func TestIndividualModel_SamplerBounds(t *testing.T) {
	model := IndividualModel{PopulationSD: 1, ObservationSD: 1}
	data := stats.Sample{0.5, 0.6}

	for _, cfg := range []SamplerConfig{
		{Chains: 2, Samples: 1 << 60},
		{Chains: MaxChains + 1, Samples: 100},
		{Chains: 2, Samples: 100, BurnIn: MaxBurnIn + 1},
		{Chains: 2, Samples: 100, BurnIn: -2},
	} {
		var err error
		require.NotPanics(t, func() { _, err = model.Fit(data, cfg) })
		assert.True(t, stderrors.Is(err, apperrors.ErrInvalidInput), "%+v: %v", cfg, err)
	}
}

func TestIndividualModel_NoBurnInKeepsEveryDraw(t *testing.T) {
	model := IndividualModel{PopulationSD: 1, ObservationSD: 1}
	cfg := SamplerConfig{Chains: 2, Samples: 50, BurnIn: NoBurnIn, Seed: 5}

	summary, err := model.Fit(stats.Sample{0.5, 0.6}, cfg)
	require.NoError(t, err)
	for _, chain := range summary.Chains {
		assert.Equal(t, 50, chain.Draws)
	}

	normalized, err := normalizeConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, normalized.BurnIn)

	cfg.BurnIn = 0
	normalized, err = normalizeConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, 25, normalized.BurnIn)
}
