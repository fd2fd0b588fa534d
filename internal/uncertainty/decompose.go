// Package uncertainty combines four independent uncertainty sources
// (semantic, individual, cultural, model) into a single labelled total and a
// list of recommendations, and estimates each source from survey responses.
package uncertainty

import (
	"math"

	"goethos/domain/stats"
	apperrors "goethos/internal/errors"
)

// Fixed source weights. They sum to one, so the total is a convex
// combination of the inputs.
const (
	SemanticWeight   = 0.3
	IndividualWeight = 0.3
	CulturalWeight   = 0.2
	ModelWeight      = 0.2
)

// MinResponses is the response count below which a profile is flagged as
// resting on an insufficient sample
const MinResponses = 3

// componentAlert is the per-source level above which a recommendation is made
const componentAlert = 0.5

// Weights returns the fixed weights keyed by source
func Weights() map[stats.UncertaintySource]float64 {
	return map[stats.UncertaintySource]float64{
		stats.SourceSemantic:   SemanticWeight,
		stats.SourceIndividual: IndividualWeight,
		stats.SourceCultural:   CulturalWeight,
		stats.SourceModel:      ModelWeight,
	}
}

// Decompose validates the four components and builds the decomposition
func Decompose(c stats.UncertaintyComponents) (stats.UncertaintyDecomposition, error) {
	var d stats.UncertaintyDecomposition

	ordered := []struct {
		source stats.UncertaintySource
		comp   stats.UncertaintyComponent
		weight float64
	}{
		{stats.SourceSemantic, c.Semantic, SemanticWeight},
		{stats.SourceIndividual, c.Individual, IndividualWeight},
		{stats.SourceCultural, c.Cultural, CulturalWeight},
		{stats.SourceModel, c.Model, ModelWeight},
	}

	for _, o := range ordered {
		v := o.comp.Value
		if math.IsNaN(v) || v < 0 || v > 1 {
			return d, apperrors.InvalidInputf("%s uncertainty must be in [0, 1], got %v", o.source, v)
		}
	}
	if c.ResponseCount < 0 {
		return d, apperrors.InvalidInputf("response count must be non-negative, got %d", c.ResponseCount)
	}

	contributions := make(map[stats.UncertaintySource]float64, len(ordered))
	total := 0.0
	var dominant stats.UncertaintySource
	best := -1.0
	for _, o := range ordered {
		contrib := o.weight * o.comp.Value
		contributions[o.source] = contrib
		total += contrib
		if contrib > best {
			best, dominant = contrib, o.source
		}
	}
	total = clamp01(total)

	d = stats.UncertaintyDecomposition{
		Semantic:      c.Semantic,
		Individual:    c.Individual,
		Cultural:      c.Cultural,
		Model:         c.Model,
		Weights:       Weights(),
		Contributions: contributions,
		Total: stats.TotalUncertainty{
			Value:       total,
			Confidence:  ConfidenceFor(total),
			Reliability: ReliabilityFor(total),
		},
		Dominant: dominant,
	}
	d.Recommendations = recommendations(c, total)
	return d, nil
}

// ConfidenceFor maps total uncertainty onto the confidence label
func ConfidenceFor(total float64) stats.ConfidenceLabel {
	switch {
	case total < 0.2:
		return stats.ConfidenceHigh
	case total < 0.4:
		return stats.ConfidenceMedium
	case total < 0.7:
		return stats.ConfidenceLow
	default:
		return stats.ConfidenceVeryLow
	}
}

// ReliabilityFor maps total uncertainty onto the reliability label
func ReliabilityFor(total float64) stats.ReliabilityLabel {
	switch {
	case total < 0.15:
		return stats.ReliabilityExcellent
	case total < 0.3:
		return stats.ReliabilityGood
	case total < 0.5:
		return stats.ReliabilityFair
	default:
		return stats.ReliabilityPoor
	}
}

func recommendations(c stats.UncertaintyComponents, total float64) []string {
	recs := []string{}
	if c.ResponseCount > 0 && c.ResponseCount < MinResponses {
		recs = append(recs, "sample size insufficient: collect at least 3 responses before drawing conclusions")
	}
	if c.Semantic.Value > componentAlert {
		recs = append(recs, "reasoning is ambiguous: ask for longer free-text explanations")
	}
	if c.Individual.Value > componentAlert {
		recs = append(recs, "individual answers are unstable: add repeated or parallel dilemmas")
	}
	if c.Cultural.Value > componentAlert {
		recs = append(recs, "domain coverage is narrow: present dilemmas from more domains")
	}
	if c.Model.Value > componentAlert {
		recs = append(recs, "tactic model is unstable across folds: treat tactic labels as tentative")
	}
	if total >= 0.7 {
		recs = append(recs, "overall confidence is very low: do not publish a values profile yet")
	}
	return recs
}
