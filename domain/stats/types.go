package stats

import (
	"math"

	apperrors "goethos/internal/errors"
)

// ============================================================================
// SAMPLES
// ============================================================================

// Sample is an ordered sequence of observations (tactic strengths, reasoning
// lengths, difficulty ratings). It has no identity and is built per call.
type Sample []float64

// Len returns the number of observations
func (s Sample) Len() int { return len(s) }

// Validate rejects empty samples and non-finite observations
func (s Sample) Validate() error {
	if len(s) == 0 {
		return apperrors.InsufficientSample("sample", 0, 1)
	}
	for i, x := range s {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return apperrors.InvalidInputf("sample[%d] is not a finite number: %v", i, x)
		}
	}
	return nil
}

// Clone returns an independent copy so callers can sort without aliasing
func (s Sample) Clone() Sample {
	out := make(Sample, len(s))
	copy(out, s)
	return out
}

// ============================================================================
// CONFIDENCE EVIDENCE
// ============================================================================

// Interval is a closed [Low, High] range
type Interval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Contains reports whether v lies inside the interval
func (i Interval) Contains(v float64) bool {
	return v >= i.Low && v <= i.High
}

// Width returns High - Low
func (i Interval) Width() float64 {
	return i.High - i.Low
}

// ConfidenceEvidence summarizes a sample. It is derived purely from its input.
// INVARIANTS:
// - Variance >= 0
// - ConfidenceInterval.Low <= Mean <= ConfidenceInterval.High
// - PValue in [0, 1]
type ConfidenceEvidence struct {
	SampleSize         int      `json:"sample_size"`
	Mean               float64  `json:"mean"`
	Variance           float64  `json:"variance"`       // Sample (n-1) variance
	StandardError      float64  `json:"standard_error"` // sqrt(variance/n)
	ConfidenceLevel    float64  `json:"confidence_level"`
	ConfidenceInterval Interval `json:"confidence_interval"`
	TStatistic         float64  `json:"t_statistic"`
	PValue             float64  `json:"p_value"`     // Two-tailed test of mean against zero
	EffectSize         float64  `json:"effect_size"` // mean / sd, Cohen's d against zero
}

// ExcludesZero reports whether the interval lies entirely on one side of zero
func (c ConfidenceEvidence) ExcludesZero() bool {
	return !c.ConfidenceInterval.Contains(0)
}

// ============================================================================
// RESAMPLING
// ============================================================================

// Statistic reduces a sample to a single number (mean, median, ...)
type Statistic func(Sample) (float64, error)

// BootstrapResult is a percentile bootstrap interval
type BootstrapResult struct {
	Interval
	Iterations int     `json:"iterations"`
	Seed       int64   `json:"seed"`
	Estimate   float64 `json:"estimate"`   // Statistic on the original sample
	StdError   float64 `json:"std_error"`  // SD of the bootstrap distribution
	Confidence float64 `json:"confidence"` // Always 0.95 for the percentile interval
}

// CrossValidationResult is the outcome of a k-fold run
type CrossValidationResult struct {
	Folds []float64 `json:"folds"` // One score per held-out fold, in fold order
	Mean  float64   `json:"mean"`
	Std   float64   `json:"std"` // Sample standard deviation of Folds
}

// ============================================================================
// BAYESIAN
// ============================================================================

// BayesianUpdate is the closed-form tactic-probability update
type BayesianUpdate struct {
	Prior            float64  `json:"prior"`
	Posterior        float64  `json:"posterior"`
	Likelihood       float64  `json:"likelihood"`
	CredibleInterval Interval `json:"credible_interval"`
	BayesFactor      float64  `json:"bayes_factor"`
	EvidenceStrength float64  `json:"evidence_strength"` // Mean evidence minus mean baseline
	EvidenceCount    int      `json:"evidence_count"`
}

// ChainSummary summarizes one Metropolis-Hastings chain after burn-in
type ChainSummary struct {
	Mean           float64 `json:"mean"`
	Variance       float64 `json:"variance"`
	AcceptanceRate float64 `json:"acceptance_rate"`
	Draws          int     `json:"draws"`
}

// PosteriorSummary is the pooled result of the hierarchical individual model
type PosteriorSummary struct {
	Mean             float64        `json:"mean"`
	StdDev           float64        `json:"std_dev"`
	CredibleInterval Interval       `json:"credible_interval"`
	RHat             float64        `json:"r_hat"`
	Converged        bool           `json:"converged"`
	Warning          string         `json:"warning,omitempty"` // Set when R-hat exceeds the threshold
	Chains           []ChainSummary `json:"chains"`
	Shrinkage        float64        `json:"shrinkage"` // 0 = data only, 1 = population prior only
}

// ============================================================================
// UNCERTAINTY
// ============================================================================

// ConfidenceLabel is the four-level confidence bucket for total uncertainty
type ConfidenceLabel string

const (
	ConfidenceHigh    ConfidenceLabel = "high"
	ConfidenceMedium  ConfidenceLabel = "medium"
	ConfidenceLow     ConfidenceLabel = "low"
	ConfidenceVeryLow ConfidenceLabel = "very_low"
)

// ReliabilityLabel is the four-level reliability bucket for total uncertainty
type ReliabilityLabel string

const (
	ReliabilityExcellent ReliabilityLabel = "excellent"
	ReliabilityGood      ReliabilityLabel = "good"
	ReliabilityFair      ReliabilityLabel = "fair"
	ReliabilityPoor      ReliabilityLabel = "poor"
)

// UncertaintySource names one of the four independent contributors
type UncertaintySource string

const (
	SourceSemantic   UncertaintySource = "semantic"
	SourceIndividual UncertaintySource = "individual"
	SourceCultural   UncertaintySource = "cultural"
	SourceModel      UncertaintySource = "model"
)

// UncertaintyComponent is a scalar in [0,1] with the reasons behind it
type UncertaintyComponent struct {
	Value   float64  `json:"value"`
	Sources []string `json:"sources,omitempty"`
}

// UncertaintyComponents are the inputs to decomposition
type UncertaintyComponents struct {
	Semantic   UncertaintyComponent `json:"semantic"`
	Individual UncertaintyComponent `json:"individual"`
	Cultural   UncertaintyComponent `json:"cultural"`
	Model      UncertaintyComponent `json:"model"`

	// ResponseCount drives the sample size recommendation; zero means unknown.
	ResponseCount int `json:"response_count,omitempty"`
}

// TotalUncertainty is the weighted combination and its labels
type TotalUncertainty struct {
	Value       float64          `json:"value"`
	Confidence  ConfidenceLabel  `json:"confidence"`
	Reliability ReliabilityLabel `json:"reliability"`
}

// UncertaintyDecomposition is built once per analysis and never mutated
type UncertaintyDecomposition struct {
	Semantic        UncertaintyComponent          `json:"semantic"`
	Individual      UncertaintyComponent          `json:"individual"`
	Cultural        UncertaintyComponent          `json:"cultural"`
	Model           UncertaintyComponent          `json:"model"`
	Weights         map[UncertaintySource]float64 `json:"weights"`
	Contributions   map[UncertaintySource]float64 `json:"contributions"` // weight * value
	Total           TotalUncertainty              `json:"total"`
	Dominant        UncertaintySource             `json:"dominant"`
	Recommendations []string                      `json:"recommendations"`
}

// ============================================================================
// RELIABILITY
// ============================================================================

// AgreementResult is inter-rater agreement between two raters
type AgreementResult struct {
	Items             int     `json:"items"`
	ObservedAgreement float64 `json:"observed_agreement"`
	ExpectedAgreement float64 `json:"expected_agreement"`
	Kappa             float64 `json:"kappa"`
	Interpretation    string  `json:"interpretation"`
}
