// Package bayes holds the two Bayesian pieces of the analysis: a closed-form
// tactic-probability update and a small hierarchical individual model fitted
// with random-walk Metropolis-Hastings.
//
// Neither is rigorous probabilistic inference. The update approximates the
// likelihood from the mean evidence strength relative to a baseline, and the
// sampler is a toy with a naive R-hat check. Both are useful for ranking and
// for flagging weak evidence, not for publishing posteriors.
package bayes

import (
	"math"

	"goethos/domain/stats"
	apperrors "goethos/internal/errors"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// LikelihoodSensitivity scales evidence strength into log-odds
	LikelihoodSensitivity = 4.0

	// PriorPseudoCount is the weight, in observations, given to the prior
	// when building the Beta credible interval
	PriorPseudoCount = 2.0

	likelihoodFloor = 1e-6
)

// Update performs the simplified Bayesian tactic-probability update.
//
// Evidence strength is mean(evidence) - mean(baseline). The likelihood of the
// evidence under "tactic present" is logistic(LikelihoodSensitivity*strength),
// and its complement under "tactic absent", so the Bayes factor is
// exp(LikelihoodSensitivity*strength). The posterior is therefore strictly
// increasing in evidence strength for a fixed prior and baseline.
//
// The credible interval is the central 95% of Beta(a, b) with mean equal to
// the posterior and a+b = len(evidence) + PriorPseudoCount. A posterior that
// rounds to exactly 0 or 1 is held at the likelihood floor for the interval so
// both Beta parameters stay positive.
func Update(evidence stats.Sample, prior float64, baseline stats.Sample) (stats.BayesianUpdate, error) {
	var res stats.BayesianUpdate

	if err := evidence.Validate(); err != nil {
		return res, apperrors.Wrap(err, "evidence")
	}
	if err := baseline.Validate(); err != nil {
		return res, apperrors.Wrap(err, "baseline")
	}
	if math.IsNaN(prior) || prior <= 0 || prior >= 1 {
		return res, apperrors.InvalidInputf("prior must be in (0, 1), got %v", prior)
	}

	meanEvidence, err := mstats.Mean([]float64(evidence))
	if err != nil {
		return res, err
	}
	meanBaseline, err := mstats.Mean([]float64(baseline))
	if err != nil {
		return res, err
	}
	strength := meanEvidence - meanBaseline

	likelihood := logistic(LikelihoodSensitivity * strength)
	likelihood = math.Min(math.Max(likelihood, likelihoodFloor), 1-likelihoodFloor)

	marginal := likelihood*prior + (1-likelihood)*(1-prior)
	posterior := likelihood * prior / marginal

	res = stats.BayesianUpdate{
		Prior:            prior,
		Posterior:        posterior,
		Likelihood:       likelihood,
		BayesFactor:      likelihood / (1 - likelihood),
		EvidenceStrength: strength,
		EvidenceCount:    len(evidence),
		CredibleInterval: betaCredibleInterval(posterior, float64(len(evidence))+PriorPseudoCount, 0.95),
	}
	return res, nil
}

// UpdateMany applies Update to several evidence vectors sharing a prior and
// baseline, returning results keyed like the input.
func UpdateMany(evidence map[string]stats.Sample, prior float64, baseline stats.Sample) (map[string]stats.BayesianUpdate, error) {
	out := make(map[string]stats.BayesianUpdate, len(evidence))
	for key, ev := range evidence {
		u, err := Update(ev, prior, baseline)
		if err != nil {
			return nil, apperrors.Wrapf(err, "update %s", key)
		}
		out[key] = u
	}
	return out, nil
}

func betaCredibleInterval(mean, concentration, level float64) stats.Interval {
	mean = math.Min(math.Max(mean, likelihoodFloor), 1-likelihoodFloor)
	beta := distuv.Beta{
		Alpha: mean * concentration,
		Beta:  (1 - mean) * concentration,
	}
	tail := (1 - level) / 2
	return stats.Interval{
		Low:  beta.Quantile(tail),
		High: beta.Quantile(1 - tail),
	}
}

func logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
