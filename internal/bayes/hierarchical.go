package bayes

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"goethos/domain/stats"
	apperrors "goethos/internal/errors"
	"goethos/internal/rng"
	"goethos/internal/statistics"

	mstats "github.com/montanaflynn/stats"
)

// Sampler defaults
const (
	DefaultChains        = 4
	DefaultSamples       = 1000
	DefaultRHatThreshold = 1.1

	// MaxChains and MaxSamples bound the draws a single fit may hold in memory
	MaxChains  = 64
	MaxSamples = 100_000
	MaxBurnIn  = MaxSamples

	// NoBurnIn requests that every draw be kept; a zero BurnIn means the default
	NoBurnIn = -1

	// rHatCap keeps the diagnostic finite when every chain is frozen
	rHatCap = 1e6
)

// SamplerConfig controls the Metropolis-Hastings run
type SamplerConfig struct {
	Chains        int     // Independent chains, at least 2 for R-hat
	Samples       int     // Retained draws per chain
	BurnIn        int     // Discarded draws per chain; 0 means Samples/2, NoBurnIn keeps every draw
	ProposalScale float64 // Random-walk step SD; 0 means the analytic posterior SD
	RHatThreshold float64
	Seed          int64
}

// DefaultSamplerConfig returns 4 chains x 1000 samples with R-hat 1.1
func DefaultSamplerConfig(seed int64) SamplerConfig {
	return SamplerConfig{
		Chains:        DefaultChains,
		Samples:       DefaultSamples,
		BurnIn:        DefaultSamples / 2,
		RHatThreshold: DefaultRHatThreshold,
		Seed:          seed,
	}
}

// IndividualModel places one respondent's latent tactic preference theta
// under a population prior:
//
//	theta ~ Normal(PopulationMean, PopulationSD)
//	y_i   ~ Normal(theta, ObservationSD)
//
// ObservationSD of zero means "estimate from the data".
type IndividualModel struct {
	PopulationMean float64
	PopulationSD   float64
	ObservationSD  float64
}

// Validate checks the model parameters
func (m IndividualModel) Validate() error {
	if math.IsNaN(m.PopulationMean) || math.IsInf(m.PopulationMean, 0) {
		return apperrors.InvalidInputf("population mean is not finite: %v", m.PopulationMean)
	}
	if !(m.PopulationSD > 0) || math.IsInf(m.PopulationSD, 0) {
		return apperrors.InvalidInputf("population sd must be positive, got %v", m.PopulationSD)
	}
	if m.ObservationSD < 0 || math.IsNaN(m.ObservationSD) || math.IsInf(m.ObservationSD, 0) {
		return apperrors.InvalidInputf("observation sd must be non-negative, got %v", m.ObservationSD)
	}
	return nil
}

// Fit samples the posterior of theta. An R-hat above the threshold does not
// fail the call: the summary comes back with Converged=false and a warning.
func (m IndividualModel) Fit(data stats.Sample, cfg SamplerConfig) (stats.PosteriorSummary, error) {
	var summary stats.PosteriorSummary

	if err := m.Validate(); err != nil {
		return summary, err
	}
	if err := data.Validate(); err != nil {
		return summary, err
	}
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return summary, err
	}

	sigma := m.ObservationSD
	if sigma == 0 {
		sd, err := statistics.SampleStdDev(data)
		if err != nil {
			return summary, apperrors.Wrap(err, "observation sd must be given for a single observation")
		}
		if sd == 0 {
			return summary, apperrors.InvalidInput("observation sd cannot be estimated from a constant sample")
		}
		sigma = sd
	}

	n := float64(len(data))
	priorPrecision := 1 / (m.PopulationSD * m.PopulationSD)
	dataPrecision := n / (sigma * sigma)
	posteriorSD := math.Sqrt(1 / (priorPrecision + dataPrecision))

	step := cfg.ProposalScale
	if step == 0 {
		step = posteriorSD
	}

	logPosterior := func(theta float64) float64 {
		z := (theta - m.PopulationMean) / m.PopulationSD
		lp := -0.5 * z * z
		for _, y := range data {
			r := (y - theta) / sigma
			lp -= 0.5 * r * r
		}
		return lp
	}

	streams := rng.Streams{}
	chains := make([][]float64, cfg.Chains)
	summary.Chains = make([]stats.ChainSummary, cfg.Chains)
	for c := 0; c < cfg.Chains; c++ {
		r := streams.SeededStream(fmt.Sprintf("chain-%d", c), cfg.Seed)
		// Overdispersed start: two population SDs around the prior mean.
		start := m.PopulationMean + 2*m.PopulationSD*r.NormFloat64()
		draws, accepted := runChain(r, logPosterior, start, step, cfg.BurnIn, cfg.Samples)
		chains[c] = draws

		mean, _ := mstats.Mean(draws)
		variance, _ := mstats.SampleVariance(draws)
		summary.Chains[c] = stats.ChainSummary{
			Mean:           mean,
			Variance:       variance,
			AcceptanceRate: float64(accepted) / float64(cfg.BurnIn+cfg.Samples),
			Draws:          len(draws),
		}
	}

	pooled := make([]float64, 0, cfg.Chains*cfg.Samples)
	for _, draws := range chains {
		pooled = append(pooled, draws...)
	}
	mean, _ := mstats.Mean(pooled)
	sd, _ := mstats.StandardDeviationSample(pooled)
	sort.Float64s(pooled)

	summary.Mean = mean
	summary.StdDev = sd
	summary.CredibleInterval = stats.Interval{
		Low:  statistics.PercentileSorted(pooled, 2.5),
		High: statistics.PercentileSorted(pooled, 97.5),
	}
	summary.Shrinkage = priorPrecision / (priorPrecision + dataPrecision)
	summary.RHat = GelmanRubin(chains)
	summary.Converged = summary.RHat <= cfg.RHatThreshold
	if !summary.Converged {
		summary.Warning = apperrors.NonConvergence(summary.RHat, cfg.RHatThreshold).Error()
	}
	return summary, nil
}

// runChain performs burnIn+samples random-walk Metropolis steps and returns
// the retained draws plus the number of accepted proposals.
func runChain(r *rand.Rand, logPosterior func(float64) float64, start, step float64, burnIn, samples int) ([]float64, int) {
	current := start
	currentLP := logPosterior(current)
	draws := make([]float64, 0, samples)
	accepted := 0

	for i := 0; i < burnIn+samples; i++ {
		proposal := current + step*r.NormFloat64()
		proposalLP := logPosterior(proposal)
		if math.Log(r.Float64()) < proposalLP-currentLP {
			current, currentLP = proposal, proposalLP
			accepted++
		}
		if i >= burnIn {
			draws = append(draws, current)
		}
	}
	return draws, accepted
}

// GelmanRubin computes the naive potential scale reduction factor over
// equal-length chains. Values near 1 indicate the chains agree.
func GelmanRubin(chains [][]float64) float64 {
	m := len(chains)
	if m < 2 || len(chains[0]) < 2 {
		return math.NaN()
	}
	n := float64(len(chains[0]))

	means := make([]float64, m)
	withinSum := 0.0
	for i, c := range chains {
		means[i], _ = mstats.Mean(c)
		v, _ := mstats.SampleVariance(c)
		withinSum += v
	}
	w := withinSum / float64(m)
	grand, _ := mstats.Mean(means)

	between := 0.0
	for _, mu := range means {
		between += (mu - grand) * (mu - grand)
	}
	b := n * between / float64(m-1)

	if w == 0 {
		if b == 0 {
			return 1
		}
		return rHatCap
	}
	varHat := (n-1)/n*w + b/n
	return math.Min(math.Sqrt(varHat/w), rHatCap)
}

func normalizeConfig(cfg SamplerConfig) (SamplerConfig, error) {
	if cfg.Chains == 0 {
		cfg.Chains = DefaultChains
	}
	if cfg.Samples == 0 {
		cfg.Samples = DefaultSamples
	}
	switch cfg.BurnIn {
	case 0:
		cfg.BurnIn = cfg.Samples / 2
	case NoBurnIn:
		cfg.BurnIn = 0
	}
	if cfg.RHatThreshold == 0 {
		cfg.RHatThreshold = DefaultRHatThreshold
	}
	switch {
	case cfg.Chains < 2 || cfg.Chains > MaxChains:
		return cfg, apperrors.InvalidInputf("chains must be in [2, %d], got %d", MaxChains, cfg.Chains)
	case cfg.Samples < 2 || cfg.Samples > MaxSamples:
		return cfg, apperrors.InvalidInputf("samples per chain must be in [2, %d], got %d", MaxSamples, cfg.Samples)
	case cfg.BurnIn < 0 || cfg.BurnIn > MaxBurnIn:
		return cfg, apperrors.InvalidInputf("burn-in must be in [0, %d] or NoBurnIn, got %d", MaxBurnIn, cfg.BurnIn)
	case cfg.ProposalScale < 0 || math.IsNaN(cfg.ProposalScale):
		return cfg, apperrors.InvalidInputf("proposal scale must be non-negative, got %v", cfg.ProposalScale)
	case cfg.RHatThreshold < 1:
		return cfg, apperrors.InvalidInputf("R-hat threshold must be at least 1, got %v", cfg.RHatThreshold)
	}
	return cfg, nil
}
