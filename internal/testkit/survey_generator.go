// Package testkit generates synthetic survey sessions for tests, demos and
// load checks. Output is fully determined by the seed.
package testkit

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strings"
	"time"

	"goethos/domain/survey"
	"goethos/internal/errors"

	"github.com/google/uuid"
)

// SurveyGeneratorConfig configures the survey data generator
type SurveyGeneratorConfig struct {
	Sessions            int       `json:"sessions"`
	ResponsesPerSession int       `json:"responses_per_session"`
	Domains             []string  `json:"domains"`
	Consistency         float64   `json:"consistency"` // Chance a response argues from the session's preferred tactic
	StartDate           time.Time `json:"start_date"`
	Seed                int64     `json:"seed"`
}

// DefaultSurveyConfig returns sensible defaults for survey generation
func DefaultSurveyConfig() SurveyGeneratorConfig {
	return SurveyGeneratorConfig{
		Sessions:            20,
		ResponsesPerSession: 12,
		Domains:             []string{"medical", "business", "personal", "legal", "environmental"},
		Consistency:         0.7,
		StartDate:           time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Seed:                42,
	}
}

// reasoningFragments are phrases that trigger each tactic's keywords
var reasoningFragments = map[survey.Tactic][]string{
	survey.TacticUtilitarian:   {"the outcome that helps the most people", "it brings the greatest benefit overall", "less harm and more welfare for the greater good", "the consequence for everyone's welfare"},
	survey.TacticDeontological: {"it is my duty to follow the rule", "breaking a promise is wrong", "there is a principle I must keep", "people have rights that must be respected as a matter of principle"},
	survey.TacticVirtue:        {"an honest person with integrity would do this", "it takes courage and character", "it is what a kind and moral person does", "wisdom and honesty guide me"},
	survey.TacticCare:          {"I care about my family and friends", "we must protect the vulnerable", "compassion for the people in the relationship", "empathy and love come first"},
	survey.TacticFairness:      {"everyone deserves equal treatment", "justice means a fair share", "reciprocity and equity matter", "it removes bias so it is fair"},
	survey.TacticAuthority:     {"the law is clear on this", "I defer to the institution and its policy", "tradition and order should be kept", "legal authority deserves respect"},
}

var fillerFragments = []string{"hard to say", "I am not sure", "it depends", "just a feeling"}

// SurveyDataGenerator generates survey responses
type SurveyDataGenerator struct {
	config SurveyGeneratorConfig
	rng    *rand.Rand
}

// NewSurveyDataGenerator creates a new survey data generator
func NewSurveyDataGenerator(config SurveyGeneratorConfig) *SurveyDataGenerator {
	return &SurveyDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate produces every session's responses, sessions in order
func (g *SurveyDataGenerator) Generate() (survey.Responses, error) {
	if g.config.Sessions < 1 || g.config.ResponsesPerSession < 1 {
		return nil, errors.InvalidInputf("sessions and responses per session must be positive, got %d and %d",
			g.config.Sessions, g.config.ResponsesPerSession)
	}
	if len(g.config.Domains) == 0 {
		return nil, errors.InvalidInput("at least one domain is required")
	}
	if g.config.Consistency < 0 || g.config.Consistency > 1 {
		return nil, errors.InvalidInputf("consistency must be in [0, 1], got %v", g.config.Consistency)
	}

	var responses survey.Responses
	for i := 0; i < g.config.Sessions; i++ {
		responses = append(responses, g.generateSession()...)
	}
	return responses, nil
}

// generateSession draws one respondent with a preferred tactic
func (g *SurveyDataGenerator) generateSession() survey.Responses {
	sessionID := g.uuid()
	preferred := survey.AllTactics[g.rng.Intn(len(survey.AllTactics))]
	// Each respondent finds dilemmas roughly equally hard, with some noise
	baseDifficulty := 3 + g.rng.Float64()*4
	at := g.config.StartDate.Add(time.Duration(g.rng.Intn(30*24)) * time.Hour)

	out := make(survey.Responses, 0, g.config.ResponsesPerSession)
	for j := 0; j < g.config.ResponsesPerSession; j++ {
		tactic := preferred
		if g.rng.Float64() >= g.config.Consistency {
			tactic = survey.AllTactics[g.rng.Intn(len(survey.AllTactics))]
		}

		difficulty := int(math.Round(baseDifficulty + g.rng.NormFloat64()*1.5))
		difficulty = min(10, max(1, difficulty))
		latency := int64(2000 + g.rng.ExpFloat64()*6000)
		at = at.Add(time.Duration(latency) * time.Millisecond)

		option := "A"
		if g.rng.Intn(2) == 1 {
			option = "B"
		}

		out = append(out, survey.Response{
			ID:                  g.uuid(),
			SessionID:           sessionID,
			DilemmaID:           fmt.Sprintf("dilemma_%02d", j+1),
			ChosenOption:        option,
			Reasoning:           g.reasoning(tactic),
			Domain:              g.config.Domains[j%len(g.config.Domains)],
			PerceivedDifficulty: difficulty,
			ResponseTimeMs:      latency,
			CreatedAt:           at,
		})
	}
	return out
}

// reasoning joins one or two fragments; a few answers are vague filler
func (g *SurveyDataGenerator) reasoning(t survey.Tactic) string {
	if g.rng.Float64() < 0.1 {
		return fillerFragments[g.rng.Intn(len(fillerFragments))]
	}
	frags := reasoningFragments[t]
	parts := []string{frags[g.rng.Intn(len(frags))]}
	if g.rng.Float64() < 0.5 {
		parts = append(parts, frags[g.rng.Intn(len(frags))])
	}
	text := strings.Join(parts, " and ")
	return strings.ToUpper(text[:1]) + text[1:] + "."
}

// uuid draws a v4-shaped id from the seeded stream
func (g *SurveyDataGenerator) uuid() uuid.UUID {
	var id uuid.UUID
	g.rng.Read(id[:])
	id[6] = (id[6] & 0x0f) | 0x40
	id[8] = (id[8] & 0x3f) | 0x80
	return id
}

// exportResponse mirrors the survey application's export keys
type exportResponse struct {
	ID                  string `json:"id"`
	DilemmaID           string `json:"dilemmaId"`
	ChosenOption        string `json:"chosenOption"`
	Reasoning           string `json:"reasoning"`
	Domain              string `json:"domain"`
	PerceivedDifficulty int    `json:"perceivedDifficulty"`
	ResponseTimeMs      int64  `json:"responseTimeMs"`
	CreatedAt           string `json:"createdAt"`
}

type exportSession struct {
	ID        string           `json:"id"`
	Responses []exportResponse `json:"responses"`
}

// WriteExport writes responses in the survey application's JSON export format
func WriteExport(path string, responses survey.Responses) error {
	var sessions []exportSession
	index := make(map[uuid.UUID]int)
	for _, r := range responses {
		i, ok := index[r.SessionID]
		if !ok {
			i = len(sessions)
			index[r.SessionID] = i
			sessions = append(sessions, exportSession{ID: r.SessionID.String()})
		}
		sessions[i].Responses = append(sessions[i].Responses, exportResponse{
			ID:                  r.ID.String(),
			DilemmaID:           r.DilemmaID,
			ChosenOption:        r.ChosenOption,
			Reasoning:           r.Reasoning,
			Domain:              r.Domain,
			PerceivedDifficulty: r.PerceivedDifficulty,
			ResponseTimeMs:      r.ResponseTimeMs,
			CreatedAt:           r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	data, err := json.MarshalIndent(map[string]interface{}{"sessions": sessions}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode export")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
