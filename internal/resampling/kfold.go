package resampling

import (
	"math"

	"goethos/domain/stats"
	apperrors "goethos/internal/errors"
	"goethos/internal/rng"

	mstats "github.com/montanaflynn/stats"
)

// TrainFunc fits a model on the training subset
type TrainFunc[T, M any] func(train []T) (M, error)

// EvaluateFunc scores a model on the held-out subset
type EvaluateFunc[T, M any] func(model M, test []T) (float64, error)

// KFoldOptions controls fold assignment
type KFoldOptions struct {
	Shuffle bool  // Shuffle indices with Seed before cutting contiguous folds
	Seed    int64 // Only used when Shuffle is set
}

// Fold holds the indices of one split
type Fold struct {
	Train []int
	Test  []int
}

// KFoldSplits partitions n indices into k folds. The first n%k folds hold one
// extra item; every index appears in exactly one test set, and each fold's
// train set is the disjoint union of the other folds' test sets.
func KFoldSplits(n, k int, opts KFoldOptions) ([]Fold, error) {
	if k < 2 {
		return nil, apperrors.InvalidInputf("k must be at least 2, got %d", k)
	}
	if n < k {
		return nil, apperrors.InsufficientSample("k-fold cross-validation", n, k)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if opts.Shuffle {
		r := rng.New(rng.Derive(opts.Seed, "kfold"))
		r.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	folds := make([]Fold, k)
	base, extra := n/k, n%k
	start := 0
	for f := 0; f < k; f++ {
		size := base
		if f < extra {
			size++
		}
		end := start + size

		test := make([]int, size)
		copy(test, order[start:end])

		train := make([]int, 0, n-size)
		train = append(train, order[:start]...)
		train = append(train, order[end:]...)

		folds[f] = Fold{Train: train, Test: test}
		start = end
	}
	return folds, nil
}

// KFoldCrossValidate trains k models, each holding out one fold, and scores
// every model on its held-out fold. The harness knows nothing about what a
// model is.
func KFoldCrossValidate[T, M any](data []T, k int, train TrainFunc[T, M], evaluate EvaluateFunc[T, M], opts KFoldOptions) (stats.CrossValidationResult, error) {
	var res stats.CrossValidationResult

	if train == nil || evaluate == nil {
		return res, apperrors.InvalidInput("train and evaluate functions are required")
	}

	folds, err := KFoldSplits(len(data), k, opts)
	if err != nil {
		return res, err
	}

	scores := make([]float64, 0, k)
	for i, fold := range folds {
		model, err := train(pick(data, fold.Train))
		if err != nil {
			return res, apperrors.Wrapf(err, "training fold %d", i)
		}
		score, err := evaluate(model, pick(data, fold.Test))
		if err != nil {
			return res, apperrors.Wrapf(err, "evaluating fold %d", i)
		}
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return res, apperrors.InvalidInputf("fold %d produced a non-finite score: %v", i, score)
		}
		scores = append(scores, score)
	}

	res.Folds = scores
	res.Mean, res.Std = foldSummary(scores)
	return res, nil
}

// foldSummary returns the mean and sample standard deviation. Identical
// scores short-circuit so a constant evaluator reports exactly its value and
// zero spread.
func foldSummary(scores []float64) (mean, std float64) {
	allEqual := true
	for _, s := range scores[1:] {
		if s != scores[0] {
			allEqual = false
			break
		}
	}
	if allEqual {
		return scores[0], 0
	}
	mean, _ = mstats.Mean(scores)
	std, _ = mstats.StandardDeviationSample(scores)
	return mean, std
}

func pick[T any](data []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = data[j]
	}
	return out
}

// MeanModelError cross-validates the simplest predictor of a sample, its
// training mean, scoring each held-out fold by mean squared error.
func MeanModelError(sample stats.Sample, k int, opts KFoldOptions) (stats.CrossValidationResult, error) {
	if err := sample.Validate(); err != nil {
		return stats.CrossValidationResult{}, err
	}
	train := func(xs []float64) (float64, error) {
		return mstats.Mean(xs)
	}
	evaluate := func(mean float64, xs []float64) (float64, error) {
		mse := 0.0
		for _, x := range xs {
			mse += (x - mean) * (x - mean)
		}
		return mse / float64(len(xs)), nil
	}
	return KFoldCrossValidate([]float64(sample), k, train, evaluate, opts)
}
