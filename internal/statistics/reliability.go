package statistics

import (
	"math"

	"goethos/domain/stats"
	apperrors "goethos/internal/errors"
)

// CohenKappa measures agreement between two raters labelling the same items,
// corrected for the agreement expected by chance.
func CohenKappa(raterA, raterB []string) (stats.AgreementResult, error) {
	var res stats.AgreementResult

	if len(raterA) != len(raterB) {
		return res, apperrors.InvalidInputf("raters labelled different item counts: %d vs %d", len(raterA), len(raterB))
	}
	if len(raterA) == 0 {
		return res, apperrors.InsufficientSample("cohen's kappa", 0, 1)
	}

	n := float64(len(raterA))
	countsA := make(map[string]float64)
	countsB := make(map[string]float64)
	agree := 0.0
	for i := range raterA {
		if raterA[i] == "" || raterB[i] == "" {
			return res, apperrors.InvalidInputf("item %d has an empty label", i)
		}
		countsA[raterA[i]]++
		countsB[raterB[i]]++
		if raterA[i] == raterB[i] {
			agree++
		}
	}

	po := agree / n
	pe := 0.0
	for label, ca := range countsA {
		pe += (ca / n) * (countsB[label] / n)
	}

	res = stats.AgreementResult{
		Items:             len(raterA),
		ObservedAgreement: po,
		ExpectedAgreement: pe,
	}
	if pe >= 1 {
		// Both raters used a single identical label: chance explains
		// everything and kappa is conventionally 1 when they agree.
		res.Kappa = 1
	} else {
		res.Kappa = (po - pe) / (1 - pe)
	}
	res.Interpretation = InterpretKappa(res.Kappa)
	return res, nil
}

// InterpretKappa maps kappa onto the Landis & Koch bands
func InterpretKappa(kappa float64) string {
	switch {
	case math.IsNaN(kappa):
		return "undefined"
	case kappa < 0:
		return "poor"
	case kappa <= 0.20:
		return "slight"
	case kappa <= 0.40:
		return "fair"
	case kappa <= 0.60:
		return "moderate"
	case kappa <= 0.80:
		return "substantial"
	default:
		return "almost_perfect"
	}
}
