package uncertainty

import (
	"fmt"
	"math"

	"goethos/domain/stats"
	"goethos/domain/survey"
	apperrors "goethos/internal/errors"
	"goethos/internal/statistics"
)

// ShortReasoningRunes is the length under which a reasoning text is too brief
// to interpret reliably
const ShortReasoningRunes = 20

// Semantic estimates how ambiguous the free-text reasoning is: the mean
// normalized entropy of each response's tactic activations (responses that
// activate no tactic count as maximally ambiguous), blended with the share of
// very short answers.
func Semantic(rs survey.Responses) (stats.UncertaintyComponent, error) {
	if len(rs) == 0 {
		return stats.UncertaintyComponent{}, apperrors.InsufficientSample("semantic uncertainty", 0, 1)
	}

	entropySum := 0.0
	silent, short := 0, 0
	for _, r := range rs {
		if len([]rune(r.Reasoning)) < ShortReasoningRunes {
			short++
		}
		act := survey.ConceptActivations(r.Reasoning)
		if act == nil {
			silent++
			entropySum += 1
			continue
		}
		h, err := NormalizedEntropy(act)
		if err != nil {
			return stats.UncertaintyComponent{}, err
		}
		entropySum += h
	}

	n := float64(len(rs))
	meanEntropy := entropySum / n
	brevity := float64(short) / n
	value := clamp01(0.7*meanEntropy + 0.3*brevity)

	sources := []string{fmt.Sprintf("mean normalized concept entropy %.2f", meanEntropy)}
	if silent > 0 {
		sources = append(sources, fmt.Sprintf("%d of %d responses matched no reasoning tactic", silent, len(rs)))
	}
	if short > 0 {
		sources = append(sources, fmt.Sprintf("%d of %d reasoning texts shorter than %d characters", short, len(rs), ShortReasoningRunes))
	}
	return stats.UncertaintyComponent{Value: value, Sources: sources}, nil
}

// Individual estimates how far a respondent's answers can be trusted to
// reflect stable preferences: small samples and widely spread difficulty
// ratings both raise it.
func Individual(rs survey.Responses) (stats.UncertaintyComponent, error) {
	if len(rs) == 0 {
		return stats.UncertaintyComponent{}, apperrors.InsufficientSample("individual uncertainty", 0, 1)
	}
	if err := rs.Validate(); err != nil {
		return stats.UncertaintyComponent{}, err
	}

	sizeTerm := 1 / math.Sqrt(float64(len(rs)))
	sources := []string{fmt.Sprintf("%d responses", len(rs))}

	spread := 0.0
	difficulties := rs.Difficulties()
	if len(difficulties) >= statistics.MinSampleForVariance {
		sd, err := statistics.SampleStdDev(difficulties)
		if err != nil {
			return stats.UncertaintyComponent{}, err
		}
		// A uniform spread over 1-10 has sd ~2.9; scale so that reads as 1.
		spread = clamp01(sd / 2.9)
		sources = append(sources, fmt.Sprintf("perceived difficulty sd %.2f", sd))
	} else {
		spread = 0.5
		sources = append(sources, "too few difficulty ratings to judge consistency")
	}

	value := clamp01(0.6*sizeTerm + 0.4*spread)
	return stats.UncertaintyComponent{Value: value, Sources: sources}, nil
}

// Cultural estimates how narrow the context of the answers is from how many
// of the expected dilemma domains were covered. A floor of 0.1 remains
// because the respondent's cultural background is never observed.
func Cultural(rs survey.Responses, expectedDomains int) (stats.UncertaintyComponent, error) {
	if expectedDomains < 1 {
		return stats.UncertaintyComponent{}, apperrors.InvalidInputf("expected domains must be positive, got %d", expectedDomains)
	}
	if len(rs) == 0 {
		return stats.UncertaintyComponent{}, apperrors.InsufficientSample("cultural uncertainty", 0, 1)
	}

	covered := len(rs.Domains())
	coverage := math.Min(1, float64(covered)/float64(expectedDomains))
	value := clamp01(0.1 + 0.9*(1-coverage))

	sources := []string{
		fmt.Sprintf("%d of %d dilemma domains covered", covered, expectedDomains),
		"respondent cultural background not observed",
	}
	return stats.UncertaintyComponent{Value: value, Sources: sources}, nil
}

// Model estimates tactic-model instability from cross-validation: the
// coefficient of variation of fold scores, capped at 1. Without a
// cross-validation result the model is treated as half-trusted.
func Model(cv *stats.CrossValidationResult) (stats.UncertaintyComponent, error) {
	if cv == nil || len(cv.Folds) == 0 {
		return stats.UncertaintyComponent{
			Value:   0.5,
			Sources: []string{"no cross-validation available"},
		}, nil
	}
	if math.IsNaN(cv.Mean) || math.IsNaN(cv.Std) || cv.Std < 0 {
		return stats.UncertaintyComponent{}, apperrors.InvalidInputf("cross-validation summary is not usable: mean=%v std=%v", cv.Mean, cv.Std)
	}

	var value float64
	if cv.Mean == 0 {
		value = 1
		if cv.Std == 0 {
			value = 0.5
		}
	} else {
		value = clamp01(cv.Std / math.Abs(cv.Mean))
	}
	sources := []string{fmt.Sprintf("%d folds, mean score %.3f, sd %.3f", len(cv.Folds), cv.Mean, cv.Std)}
	return stats.UncertaintyComponent{Value: value, Sources: sources}, nil
}
