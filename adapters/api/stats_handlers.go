package api

import (
	"net/http"

	"goethos/domain/stats"
	"goethos/internal/bayes"
	"goethos/internal/resampling"
	"goethos/internal/statistics"
	"goethos/internal/uncertainty"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type confidenceRequest struct {
	Sample          []float64 `json:"sample" binding:"required"`
	ConfidenceLevel float64   `json:"confidence_level"`
}

func (h *Handler) handleConfidence(c *gin.Context) {
	var req confidenceRequest
	if !bind(c, &req) {
		return
	}
	level := req.ConfidenceLevel
	if level == 0 {
		level = statistics.DefaultConfidenceLevel
	}
	ev, err := statistics.ConfidenceIntervalAt(req.Sample, level)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

type bootstrapRequest struct {
	Sample     []float64 `json:"sample" binding:"required"`
	Iterations int       `json:"iterations"`
	Seed       *int64    `json:"seed" binding:"required"`
	Statistic  string    `json:"statistic" binding:"omitempty,oneof=mean median"`
}

func (h *Handler) handleBootstrap(c *gin.Context) {
	var req bootstrapRequest
	if !bind(c, &req) {
		return
	}
	iterations := req.Iterations
	if iterations == 0 {
		iterations = resampling.DefaultBootstrapIterations
	}
	statistic := resampling.MeanStatistic
	if req.Statistic == "median" {
		statistic = resampling.MedianStatistic
	}
	res, err := resampling.BootstrapInterval(req.Sample, statistic, iterations, *req.Seed)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type kfoldRequest struct {
	Sample  []float64 `json:"sample" binding:"required"`
	K       int       `json:"k" binding:"required"`
	Shuffle bool      `json:"shuffle"`
	Seed    int64     `json:"seed"`
}

func (h *Handler) handleKFold(c *gin.Context) {
	var req kfoldRequest
	if !bind(c, &req) {
		return
	}
	res, err := resampling.MeanModelError(req.Sample, req.K, resampling.KFoldOptions{Shuffle: req.Shuffle, Seed: req.Seed})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type bayesRequest struct {
	Evidence []float64 `json:"evidence" binding:"required"`
	Baseline []float64 `json:"baseline" binding:"required"`
	Prior    float64   `json:"prior" binding:"required"`
}

func (h *Handler) handleBayes(c *gin.Context) {
	var req bayesRequest
	if !bind(c, &req) {
		return
	}
	res, err := bayes.Update(req.Evidence, req.Prior, req.Baseline)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type mcmcRequest struct {
	Data           []float64 `json:"data" binding:"required"`
	PopulationMean float64   `json:"population_mean"`
	PopulationSD   float64   `json:"population_sd" binding:"required"`
	ObservationSD  float64   `json:"observation_sd"`
	Chains         int       `json:"chains" binding:"omitempty,min=2,max=64"`
	Samples        int       `json:"samples" binding:"omitempty,min=2,max=100000"`
	BurnIn         int       `json:"burn_in" binding:"min=-1,max=100000"` // 0 is Samples/2, -1 keeps every draw
	ProposalScale  float64   `json:"proposal_scale"`
	RHatThreshold  float64   `json:"rhat_threshold"`
	Seed           *int64    `json:"seed" binding:"required"`
}

func (h *Handler) handleMCMC(c *gin.Context) {
	var req mcmcRequest
	if !bind(c, &req) {
		return
	}
	model := bayes.IndividualModel{
		PopulationMean: req.PopulationMean,
		PopulationSD:   req.PopulationSD,
		ObservationSD:  req.ObservationSD,
	}
	cfg := bayes.SamplerConfig{
		Chains:        req.Chains,
		Samples:       req.Samples,
		BurnIn:        req.BurnIn,
		ProposalScale: req.ProposalScale,
		RHatThreshold: req.RHatThreshold,
		Seed:          *req.Seed,
	}
	summary, err := model.Fit(req.Data, cfg)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !summary.Converged {
		h.logger.Warn("mcmc request did not converge", zap.Float64("r_hat", summary.RHat))
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) handleUncertainty(c *gin.Context) {
	var req stats.UncertaintyComponents
	if !bind(c, &req) {
		return
	}
	res, err := uncertainty.Decompose(req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type kappaRequest struct {
	RaterA []string `json:"rater_a" binding:"required"`
	RaterB []string `json:"rater_b" binding:"required"`
}

func (h *Handler) handleKappa(c *gin.Context) {
	var req kappaRequest
	if !bind(c, &req) {
		return
	}
	res, err := statistics.CohenKappa(req.RaterA, req.RaterB)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
