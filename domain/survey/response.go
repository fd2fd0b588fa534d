package survey

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"goethos/domain/stats"
	apperrors "goethos/internal/errors"

	"github.com/google/uuid"
)

// Difficulty bounds for PerceivedDifficulty
const (
	MinDifficulty = 1
	MaxDifficulty = 10
)

// Response is one answered dilemma. The survey layer owns its schema and
// storage; the statistics code only reads it.
type Response struct {
	ID                  uuid.UUID `json:"id" db:"id"`
	SessionID           uuid.UUID `json:"session_id" db:"session_id"`
	DilemmaID           string    `json:"dilemma_id" db:"dilemma_id"`
	ChosenOption        string    `json:"chosen_option" db:"chosen_option"`
	Reasoning           string    `json:"reasoning" db:"reasoning"`
	Domain              string    `json:"domain" db:"domain"`
	PerceivedDifficulty int       `json:"perceived_difficulty" db:"perceived_difficulty"` // 1-10, 0 when not given
	ResponseTimeMs      int64     `json:"response_time_ms" db:"response_time_ms"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}

// Validate checks the fields the statistics layer depends on
func (r Response) Validate() error {
	if strings.TrimSpace(r.ChosenOption) == "" {
		return apperrors.InvalidInput("response has no chosen option")
	}
	if r.PerceivedDifficulty != 0 && (r.PerceivedDifficulty < MinDifficulty || r.PerceivedDifficulty > MaxDifficulty) {
		return apperrors.InvalidInputf("perceived difficulty %d outside [%d, %d]", r.PerceivedDifficulty, MinDifficulty, MaxDifficulty)
	}
	if r.ResponseTimeMs < 0 {
		return apperrors.InvalidInputf("negative response time %d", r.ResponseTimeMs)
	}
	return nil
}

// HasReasoning reports whether any free text was supplied
func (r Response) HasReasoning() bool {
	return strings.TrimSpace(r.Reasoning) != ""
}

// Responses is a read-only batch of responses for one session or cohort
type Responses []Response

// Validate validates every response, reporting the first failure with its index
func (rs Responses) Validate() error {
	for i, r := range rs {
		if err := r.Validate(); err != nil {
			return apperrors.Wrapf(err, "response %d", i)
		}
	}
	return nil
}

// ReasoningLengths returns the rune length of each reasoning text
func (rs Responses) ReasoningLengths() stats.Sample {
	out := make(stats.Sample, 0, len(rs))
	for _, r := range rs {
		out = append(out, float64(utf8.RuneCountInString(strings.TrimSpace(r.Reasoning))))
	}
	return out
}

// Difficulties returns the perceived difficulty of responses that supplied one
func (rs Responses) Difficulties() stats.Sample {
	out := make(stats.Sample, 0, len(rs))
	for _, r := range rs {
		if r.PerceivedDifficulty > 0 {
			out = append(out, float64(r.PerceivedDifficulty))
		}
	}
	return out
}

// ResponseTimes returns latencies in seconds for responses that recorded one
func (rs Responses) ResponseTimes() stats.Sample {
	out := make(stats.Sample, 0, len(rs))
	for _, r := range rs {
		if r.ResponseTimeMs > 0 {
			out = append(out, float64(r.ResponseTimeMs)/1000.0)
		}
	}
	return out
}

// ByDomain groups responses by domain, preserving input order within a group
func (rs Responses) ByDomain() map[string]Responses {
	groups := make(map[string]Responses)
	for _, r := range rs {
		d := r.Domain
		if d == "" {
			d = "unspecified"
		}
		groups[d] = append(groups[d], r)
	}
	return groups
}

// Domains returns the distinct domains in sorted order
func (rs Responses) Domains() []string {
	groups := rs.ByDomain()
	out := make([]string, 0, len(groups))
	for d := range groups {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// OptionCounts counts how often each option was chosen
func (rs Responses) OptionCounts() map[string]int {
	counts := make(map[string]int)
	for _, r := range rs {
		counts[strings.ToUpper(strings.TrimSpace(r.ChosenOption))]++
	}
	return counts
}

// OptionDistribution returns chosen-option frequencies in sorted option order
func (rs Responses) OptionDistribution() (options []string, probs []float64) {
	counts := rs.OptionCounts()
	for opt := range counts {
		options = append(options, opt)
	}
	sort.Strings(options)
	if len(rs) == 0 {
		return options, nil
	}
	probs = make([]float64, len(options))
	for i, opt := range options {
		probs[i] = float64(counts[opt]) / float64(len(rs))
	}
	return options, probs
}
