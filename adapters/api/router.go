// Package api exposes the statistics and session profiles over HTTP with gin.
package api

import (
	"context"
	"net/http"
	"time"

	"goethos/app"
	"goethos/internal/errors"
	"goethos/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProfileProvider is the slice of app.ProfileService the handlers need
type ProfileProvider interface {
	Profile(ctx context.Context, sessionID uuid.UUID) (*app.Profile, error)
	Evict(ctx context.Context, sessionID uuid.UUID) error
}

// Handler serves the JSON API
type Handler struct {
	profiles ProfileProvider
	logger   *zap.Logger
}

// NewHandler creates a handler; profiles may be nil when only the stateless
// statistics endpoints are served
func NewHandler(profiles ProfileProvider, logger *zap.Logger) *Handler {
	return &Handler{profiles: profiles, logger: logging.OrNop(logger)}
}

// NewRouter builds the gin engine with every route registered
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.CustomRecovery(h.recoverPanic), h.requestLogger())

	router.GET("/healthz", h.handleHealth)

	v1 := router.Group("/api/v1")
	{
		statsGroup := v1.Group("/stats")
		statsGroup.POST("/confidence", h.handleConfidence)
		statsGroup.POST("/bootstrap", h.handleBootstrap)
		statsGroup.POST("/kfold", h.handleKFold)
		statsGroup.POST("/bayes", h.handleBayes)
		statsGroup.POST("/mcmc", h.handleMCMC)
		statsGroup.POST("/uncertainty", h.handleUncertainty)
		statsGroup.POST("/kappa", h.handleKappa)

		if h.profiles != nil {
			v1.GET("/sessions/:id/profile", h.handleGetProfile)
			v1.DELETE("/sessions/:id/profile", h.handleEvictProfile)
		}
	}
	return router
}

// recoverPanic answers 500 in the API's error shape instead of gin's empty body
func (h *Handler) recoverPanic(c *gin.Context, recovered interface{}) {
	h.logger.Error("handler panicked", zap.String("path", c.FullPath()), zap.Any("panic", recovered))
	appErr := errors.InternalError("internal error")
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Code: appErr.Code, Error: appErr.Message})
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) handleGetProfile(c *gin.Context) {
	id, ok := sessionParam(c)
	if !ok {
		return
	}
	profile, err := h.profiles.Profile(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) handleEvictProfile(c *gin.Context) {
	id, ok := sessionParam(c)
	if !ok {
		return
	}
	if err := h.profiles.Evict(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func sessionParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Code: errors.CodeInvalidInput, Error: "invalid session id"})
		return uuid.Nil, false
	}
	return id, true
}

type errorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// writeError maps application error codes onto HTTP statuses
func (h *Handler) writeError(c *gin.Context, err error) {
	if !errors.IsAppError(err) {
		err = errors.Wrap(err, "unexpected error")
	}
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.CodeInvalidInput, errors.CodeValidationError:
		status = http.StatusBadRequest
	case errors.CodeInsufficientSample:
		status = http.StatusUnprocessableEntity
	case errors.CodeNotFound:
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.String("code", code), zap.Error(err))
		c.JSON(status, errorBody{Code: code, Error: "internal error"})
		return
	}
	c.JSON(status, errorBody{Code: code, Error: err.Error()})
}

// bind decodes the JSON body, answering 400 on failure
func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		appErr := errors.ValidationError(err.Error())
		c.JSON(http.StatusBadRequest, errorBody{Code: appErr.Code, Error: appErr.Message})
		return false
	}
	return true
}
