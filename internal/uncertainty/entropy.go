package uncertainty

import (
	"math"

	apperrors "goethos/internal/errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ShannonEntropy returns the entropy in nats of a non-negative weight vector.
// Weights are normalized to sum to one first.
func ShannonEntropy(weights []float64) (float64, error) {
	p, err := normalize(weights)
	if err != nil {
		return 0, err
	}
	return stat.Entropy(p), nil
}

// NormalizedEntropy divides the entropy by log(len(weights)), the maximum
// possible, giving a value in [0, 1]. A single category has entropy 0.
func NormalizedEntropy(weights []float64) (float64, error) {
	h, err := ShannonEntropy(weights)
	if err != nil {
		return 0, err
	}
	if len(weights) < 2 {
		return 0, nil
	}
	return clamp01(h / math.Log(float64(len(weights)))), nil
}

func normalize(weights []float64) ([]float64, error) {
	if len(weights) == 0 {
		return nil, apperrors.InsufficientSample("entropy", 0, 1)
	}
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return nil, apperrors.InvalidInputf("weight %d must be a non-negative finite number, got %v", i, w)
		}
	}
	total := floats.Sum(weights)
	if total == 0 {
		return nil, apperrors.InvalidInput("weights sum to zero")
	}
	p := make([]float64, len(weights))
	floats.ScaleTo(p, 1/total, weights)
	return p, nil
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
