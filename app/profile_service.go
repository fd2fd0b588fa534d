package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"goethos/domain/stats"
	"goethos/domain/survey"
	"goethos/internal/bayes"
	"goethos/internal/cache"
	"goethos/internal/config"
	"goethos/internal/errors"
	"goethos/internal/logging"
	"goethos/internal/resampling"
	"goethos/internal/rng"
	"goethos/internal/statistics"
	"goethos/internal/uncertainty"
	"goethos/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// Population prior for the individual model, on the tactic strength scale
	populationSD = 0.25

	// Keyword-strength noise for one response
	observationSD = 0.25

	profileCachePrefix = "profile:"
)

// ProfileService analyzes survey sessions and caches the resulting profiles
type ProfileService struct {
	reader ports.ResponseReader
	cache  *cache.Typed[Profile]
	cfg    config.AnalysisConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewProfileService creates a profile service. Profiles are cached in store
// for ttl.
func NewProfileService(reader ports.ResponseReader, store cache.Store, ttl time.Duration, cfg config.AnalysisConfig, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		reader: reader,
		cache:  cache.NewTyped[Profile](store, profileCachePrefix, ttl),
		cfg:    cfg,
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
}

// Profile returns the cached profile for a session, analyzing it on a miss
func (s *ProfileService) Profile(ctx context.Context, sessionID uuid.UUID) (*Profile, error) {
	key := sessionID.String()
	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("profile cache read failed", zap.String("session_id", key), zap.Error(err))
	} else if ok {
		s.logger.Debug("profile cache hit", zap.String("session_id", key))
		return &cached, nil
	}

	profile, err := s.Analyze(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, *profile); err != nil {
		s.logger.Warn("profile cache write failed", zap.String("session_id", key), zap.Error(err))
	}
	return profile, nil
}

// Evict drops a session's cached profile
func (s *ProfileService) Evict(ctx context.Context, sessionID uuid.UUID) error {
	return s.cache.Evict(ctx, sessionID.String())
}

// AnalyzeSessions profiles several sessions concurrently, bounded by the
// configured concurrency. The first failure cancels the rest.
func (s *ProfileService) AnalyzeSessions(ctx context.Context, sessionIDs []uuid.UUID) ([]*Profile, error) {
	profiles := make([]*Profile, len(sessionIDs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.cfg.Concurrency))
	for i, id := range sessionIDs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := s.Profile(ctx, id)
			if err != nil {
				return errors.Wrapf(err, "session %s", id)
			}
			profiles[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Analyze computes a fresh profile for a session without consulting the
// cache. Statistics that the responses cannot support are skipped and
// reported in Warnings; only a missing or invalid session fails.
func (s *ProfileService) Analyze(ctx context.Context, sessionID uuid.UUID) (*Profile, error) {
	start := s.now()

	responses, err := s.reader.SessionResponses(ctx, sessionID, ports.ResponseFilters{})
	if err != nil {
		return nil, errors.Wrapf(err, "load responses for %s", sessionID)
	}
	if err := responses.Validate(); err != nil {
		return nil, err
	}

	seed := rng.Derive(s.cfg.Seed, sessionID.String())
	p := &Profile{
		ID:            uuid.New(),
		SessionID:     sessionID,
		ResponseCount: len(responses),
		Seed:          seed,
		GeneratedAt:   start.UTC(),
		Tactics:       make(map[survey.Tactic]TacticProfile, len(survey.AllTactics)),
		Warnings:      []string{},
	}
	log := s.logger.With(zap.String("session_id", sessionID.String()), zap.Int("responses", len(responses)))

	s.analyzeTactics(p, responses, seed)

	if ev, err := statistics.ConfidenceIntervalAt(responses.ReasoningLengths(), s.cfg.ConfidenceLevel); err != nil {
		p.warn("reasoning length", err)
	} else {
		p.ReasoningLength = &ev
	}

	if len(responses) >= s.cfg.Folds {
		cv, err := TacticStability(responses, s.cfg.Folds, seed)
		if err != nil {
			p.warn("tactic stability", err)
		} else {
			p.Stability = &cv
		}
	} else {
		p.Warnings = append(p.Warnings, fmt.Sprintf("tactic stability: %d responses are fewer than %d folds", len(responses), s.cfg.Folds))
	}

	s.fitIndividual(p, responses, seed, log)

	decomposition, err := s.decompose(responses, p.Stability)
	if err != nil {
		return nil, errors.Wrap(err, "decompose uncertainty")
	}
	p.Uncertainty = decomposition

	log.Info("session analyzed",
		zap.String("dominant_tactic", string(p.Dominant)),
		zap.Float64("total_uncertainty", decomposition.Total.Value),
		zap.Int("warnings", len(p.Warnings)),
		zap.Duration("elapsed", s.now().Sub(start)))
	return p, nil
}

// analyzeTactics fills per-tactic evidence, bootstrap and Bayesian updates.
// The baseline for every update is the pooled strength of all tactics.
func (s *ProfileService) analyzeTactics(p *Profile, responses survey.Responses, seed int64) {
	samples := make(map[survey.Tactic]stats.Sample, len(survey.AllTactics))
	var baseline stats.Sample
	for _, t := range survey.AllTactics {
		samples[t] = responses.TacticSample(t)
		baseline = append(baseline, samples[t]...)
	}

	bestPosterior := 0.0
	for _, t := range survey.AllTactics {
		sample := samples[t]
		var tp TacticProfile

		if ev, err := statistics.ConfidenceIntervalAt(sample, s.cfg.ConfidenceLevel); err != nil {
			p.warn(string(t)+" evidence", err)
		} else {
			tp.Evidence = &ev
		}

		if br, err := resampling.BootstrapInterval(sample, resampling.MeanStatistic, s.cfg.BootstrapIterations, rng.Derive(seed, "bootstrap-"+string(t))); err != nil {
			p.warn(string(t)+" bootstrap", err)
		} else {
			tp.Bootstrap = &br
		}

		if u, err := bayes.Update(sample, s.cfg.Prior, baseline); err != nil {
			p.warn(string(t)+" update", err)
		} else {
			tp.Update = &u
			if u.EvidenceStrength > 0 && u.Posterior > bestPosterior {
				bestPosterior = u.Posterior
				p.Dominant = t
			}
		}

		p.Tactics[t] = tp
	}
}

// fitIndividual runs the hierarchical model on the dominant tactic's
// strengths, shrinking toward the pooled mean of all tactics.
func (s *ProfileService) fitIndividual(p *Profile, responses survey.Responses, seed int64, log *zap.Logger) {
	if p.Dominant == "" {
		p.Warnings = append(p.Warnings, "individual model: no tactic stood out from the baseline")
		return
	}

	var pooled stats.Sample
	for _, t := range survey.AllTactics {
		pooled = append(pooled, responses.TacticSample(t)...)
	}
	populationMean, err := statistics.Mean(pooled)
	if err != nil {
		p.warn("individual model", err)
		return
	}

	model := bayes.IndividualModel{
		PopulationMean: populationMean,
		PopulationSD:   populationSD,
		ObservationSD:  observationSD,
	}
	cfg := bayes.SamplerConfig{
		Chains:        s.cfg.Chains,
		Samples:       s.cfg.Samples,
		BurnIn:        s.cfg.Samples / 2,
		RHatThreshold: s.cfg.RHatThreshold,
		Seed:          rng.Derive(seed, "individual"),
	}
	summary, err := model.Fit(responses.TacticSample(p.Dominant), cfg)
	if err != nil {
		p.warn("individual model", err)
		return
	}
	if !summary.Converged {
		log.Warn("individual model did not converge",
			zap.Float64("r_hat", summary.RHat),
			zap.Float64("threshold", s.cfg.RHatThreshold))
		p.Warnings = append(p.Warnings, "individual model: "+summary.Warning)
	}
	p.Individual = &summary
}

func (s *ProfileService) decompose(responses survey.Responses, cv *stats.CrossValidationResult) (stats.UncertaintyDecomposition, error) {
	var (
		components stats.UncertaintyComponents
		err        error
	)
	if components.Semantic, err = uncertainty.Semantic(responses); err != nil {
		return stats.UncertaintyDecomposition{}, err
	}
	if components.Individual, err = uncertainty.Individual(responses); err != nil {
		return stats.UncertaintyDecomposition{}, err
	}
	if components.Cultural, err = uncertainty.Cultural(responses, s.cfg.ExpectedDomains); err != nil {
		return stats.UncertaintyDecomposition{}, err
	}
	if components.Model, err = uncertainty.Model(cv); err != nil {
		return stats.UncertaintyDecomposition{}, err
	}
	components.ResponseCount = len(responses)
	return uncertainty.Decompose(components)
}

func (p *Profile) warn(what string, err error) {
	p.Warnings = append(p.Warnings, fmt.Sprintf("%s: %v", what, err))
}

// TacticStability cross-validates the dominant-tactic model: each fold
// learns the tactic with the highest summed strength on its training
// responses and scores the share of held-out responses whose own dominant
// tactic agrees.
func TacticStability(responses survey.Responses, k int, seed int64) (stats.CrossValidationResult, error) {
	train := func(rs []survey.Response) (survey.Tactic, error) {
		totals := make(map[survey.Tactic]float64, len(survey.AllTactics))
		for _, r := range rs {
			for t, v := range survey.TacticStrengths(r.Reasoning) {
				totals[t] += v
			}
		}
		ranked := append([]survey.Tactic(nil), survey.AllTactics...)
		sort.SliceStable(ranked, func(i, j int) bool { return totals[ranked[i]] > totals[ranked[j]] })
		if totals[ranked[0]] == 0 {
			return "", nil
		}
		return ranked[0], nil
	}
	evaluate := func(model survey.Tactic, test []survey.Response) (float64, error) {
		agree := 0
		for _, r := range test {
			if r.DominantTactic() == model {
				agree++
			}
		}
		return float64(agree) / float64(len(test)), nil
	}
	return resampling.KFoldCrossValidate([]survey.Response(responses), k, train, evaluate,
		resampling.KFoldOptions{Shuffle: true, Seed: seed})
}
