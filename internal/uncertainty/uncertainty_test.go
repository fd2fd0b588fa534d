package uncertainty

import (
	stderrors "errors"
	"math"
	"math/rand"
	"testing"

	"goethos/domain/stats"
	"goethos/domain/survey"
	apperrors "goethos/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func components(s, i, c, m float64) stats.UncertaintyComponents {
	return stats.UncertaintyComponents{
		Semantic:   stats.UncertaintyComponent{Value: s},
		Individual: stats.UncertaintyComponent{Value: i},
		Cultural:   stats.UncertaintyComponent{Value: c},
		Model:      stats.UncertaintyComponent{Value: m},
	}
}

func TestDecompose_WeightedTotal(t *testing.T) {
	d, err := Decompose(components(0.5, 0.2, 0.1, 0.4))
	require.NoError(t, err)
	assert.InDelta(t, 0.3*0.5+0.3*0.2+0.2*0.1+0.2*0.4, d.Total.Value, 1e-12)
	assert.Equal(t, stats.ConfidenceMedium, d.Total.Confidence)
	assert.Equal(t, stats.ReliabilityFair, d.Total.Reliability)
	assert.Equal(t, stats.SourceSemantic, d.Dominant)
	assert.InDelta(t, 1.0, SemanticWeight+IndividualWeight+CulturalWeight+ModelWeight, 1e-12)
}

func TestDecompose_TotalIsConvexCombination(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		in := []float64{r.Float64(), r.Float64(), r.Float64(), r.Float64()}
		d, err := Decompose(components(in[0], in[1], in[2], in[3]))
		require.NoError(t, err)

		lo, hi := in[0], in[0]
		for _, v := range in[1:] {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		assert.GreaterOrEqual(t, d.Total.Value, lo-1e-12)
		assert.LessOrEqual(t, d.Total.Value, hi+1e-12)
	}
}

func TestConfidenceFor(t *testing.T) {
	tests := []struct {
		total float64
		want  stats.ConfidenceLabel
	}{
		{0, stats.ConfidenceHigh},
		{0.199, stats.ConfidenceHigh},
		{0.2, stats.ConfidenceMedium},
		{0.399, stats.ConfidenceMedium},
		{0.4, stats.ConfidenceLow},
		{0.699, stats.ConfidenceLow},
		{0.7, stats.ConfidenceVeryLow},
		{1, stats.ConfidenceVeryLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ConfidenceFor(tt.total), "total %v", tt.total)
	}
}

func TestReliabilityFor(t *testing.T) {
	assert.Equal(t, stats.ReliabilityExcellent, ReliabilityFor(0.1))
	assert.Equal(t, stats.ReliabilityGood, ReliabilityFor(0.15))
	assert.Equal(t, stats.ReliabilityFair, ReliabilityFor(0.3))
	assert.Equal(t, stats.ReliabilityPoor, ReliabilityFor(0.5))
}

func TestDecompose_Recommendations(t *testing.T) {
	c := components(0.9, 0.9, 0.9, 0.9)
	c.ResponseCount = 2
	d, err := Decompose(c)
	require.NoError(t, err)
	assert.Len(t, d.Recommendations, 6)
	assert.Contains(t, d.Recommendations[0], "sample size insufficient")
	assert.Equal(t, stats.ConfidenceVeryLow, d.Total.Confidence)

	c = components(0.1, 0.1, 0.1, 0.1)
	c.ResponseCount = 12
	d, err = Decompose(c)
	require.NoError(t, err)
	assert.Empty(t, d.Recommendations)
	assert.NotNil(t, d.Recommendations)
}

func TestDecompose_InvalidInput(t *testing.T) {
	for _, bad := range []float64{-0.1, 1.1, math.NaN()} {
		_, err := Decompose(components(0.1, bad, 0.1, 0.1))
		assert.True(t, stderrors.Is(err, apperrors.ErrInvalidInput), "value %v", bad)
	}
	c := components(0.1, 0.1, 0.1, 0.1)
	c.ResponseCount = -1
	_, err := Decompose(c)
	assert.True(t, stderrors.Is(err, apperrors.ErrInvalidInput))
}

func TestNormalizedEntropy(t *testing.T) {
	h, err := NormalizedEntropy([]float64{1, 1, 1, 1})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, h, 1e-12)

	h, err = NormalizedEntropy([]float64{1, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, h)

	h, err = NormalizedEntropy([]float64{3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, h)

	raw, err := ShannonEntropy([]float64{0.5, 0.5})
	require.NoError(t, err)
	assert.InDelta(t, math.Ln2, raw, 1e-12)

	_, err = ShannonEntropy(nil)
	assert.True(t, stderrors.Is(err, apperrors.ErrInsufficientSample))
	_, err = ShannonEntropy([]float64{0, 0})
	assert.True(t, stderrors.Is(err, apperrors.ErrInvalidInput))
	_, err = ShannonEntropy([]float64{0.5, -0.5})
	assert.True(t, stderrors.Is(err, apperrors.ErrInvalidInput))
}

func TestSemantic(t *testing.T) {
	focused := survey.Responses{
		{ChosenOption: "A", Reasoning: "It is my duty, a rule and an obligation I must keep."},
		{ChosenOption: "B", Reasoning: "A promise is a principle and breaking it is wrong, a duty."},
	}
	vague := survey.Responses{
		{ChosenOption: "A", Reasoning: "idk"},
		{ChosenOption: "B", Reasoning: "seemed ok"},
	}

	f, err := Semantic(focused)
	require.NoError(t, err)
	v, err := Semantic(vague)
	require.NoError(t, err)
	assert.Less(t, f.Value, v.Value)
	assert.InDelta(t, 1.0, v.Value, 1e-12)
	assert.NotEmpty(t, v.Sources)

	_, err = Semantic(nil)
	assert.True(t, stderrors.Is(err, apperrors.ErrInsufficientSample))
}

func TestIndividual(t *testing.T) {
	few := survey.Responses{{ChosenOption: "A", PerceivedDifficulty: 5}}
	many := make(survey.Responses, 25)
	for i := range many {
		many[i] = survey.Response{ChosenOption: "A", PerceivedDifficulty: 5 + i%2}
	}

	a, err := Individual(few)
	require.NoError(t, err)
	b, err := Individual(many)
	require.NoError(t, err)
	assert.Greater(t, a.Value, b.Value)

	_, err = Individual(survey.Responses{{ChosenOption: "A", PerceivedDifficulty: 11}})
	assert.True(t, stderrors.Is(err, apperrors.ErrInvalidInput))
}

func TestCultural(t *testing.T) {
	rs := survey.Responses{
		{ChosenOption: "A", Domain: "medical"},
		{ChosenOption: "B", Domain: "business"},
	}
	half, err := Cultural(rs, 4)
	require.NoError(t, err)
	assert.InDelta(t, 0.55, half.Value, 1e-12)

	full, err := Cultural(rs, 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, full.Value, 1e-12)

	_, err = Cultural(rs, 0)
	assert.True(t, stderrors.Is(err, apperrors.ErrInvalidInput))
}

func TestModel(t *testing.T) {
	none, err := Model(nil)
	require.NoError(t, err)
	assert.Equal(t, 0.5, none.Value)

	stable, err := Model(&stats.CrossValidationResult{Folds: []float64{0.8, 0.8}, Mean: 0.8, Std: 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, stable.Value)

	shaky, err := Model(&stats.CrossValidationResult{Folds: []float64{0.1, 0.9}, Mean: 0.5, Std: 0.566})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, shaky.Value, 1e-12)
}
