package app

import (
	"time"

	"goethos/domain/stats"
	"goethos/domain/survey"

	"github.com/google/uuid"
)

// TacticProfile is the evidence gathered for one reasoning tactic. Any part
// that could not be computed is nil and explained in Profile.Warnings.
type TacticProfile struct {
	Evidence  *stats.ConfidenceEvidence `json:"evidence,omitempty"`
	Bootstrap *stats.BootstrapResult    `json:"bootstrap,omitempty"`
	Update    *stats.BayesianUpdate     `json:"update,omitempty"`
}

// Profile is the complete statistical analysis of one survey session
type Profile struct {
	ID            uuid.UUID                       `json:"id"`
	SessionID     uuid.UUID                       `json:"session_id"`
	ResponseCount int                             `json:"response_count"`
	Seed          int64                           `json:"seed"`
	GeneratedAt   time.Time                       `json:"generated_at"`
	Tactics       map[survey.Tactic]TacticProfile `json:"tactics"`
	Dominant      survey.Tactic                   `json:"dominant_tactic,omitempty"`

	ReasoningLength *stats.ConfidenceEvidence      `json:"reasoning_length,omitempty"`
	Stability       *stats.CrossValidationResult   `json:"stability,omitempty"`
	Individual      *stats.PosteriorSummary        `json:"individual,omitempty"`
	Uncertainty     stats.UncertaintyDecomposition `json:"uncertainty"`

	Warnings []string `json:"warnings"`
}
