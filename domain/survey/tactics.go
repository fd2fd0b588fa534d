package survey

import (
	"math"
	"strings"
	"unicode"

	"goethos/domain/stats"
)

// Tactic is a pattern of ethical reasoning inferred from free text
type Tactic string

const (
	TacticUtilitarian   Tactic = "utilitarian_maximization"
	TacticDeontological Tactic = "duty_based_reasoning"
	TacticVirtue        Tactic = "virtue_ethics"
	TacticCare          Tactic = "care_ethics"
	TacticFairness      Tactic = "fairness_reciprocity"
	TacticAuthority     Tactic = "authority_deference"
)

// AllTactics lists tactics in stable order
var AllTactics = []Tactic{
	TacticUtilitarian,
	TacticDeontological,
	TacticVirtue,
	TacticCare,
	TacticFairness,
	TacticAuthority,
}

var tacticKeywords = map[Tactic][]string{
	TacticUtilitarian:   {"outcome", "consequence", "greater good", "most people", "maximize", "benefit", "harm", "overall", "welfare", "utility"},
	TacticDeontological: {"duty", "rule", "obligation", "right", "wrong", "principle", "promise", "never", "must", "rights"},
	TacticVirtue:        {"character", "virtue", "integrity", "honest", "courage", "kind", "person i want", "wisdom", "moral person"},
	TacticCare:          {"care", "relationship", "family", "friend", "empathy", "vulnerable", "protect", "compassion", "love"},
	TacticFairness:      {"fair", "equal", "justice", "deserve", "reciprocity", "equity", "bias", "everyone"},
	TacticAuthority:     {"law", "authority", "tradition", "policy", "legal", "institution", "order", "respect"},
}

// keywordSaturation is the number of keyword hits at which a tactic's strength reaches 1
const keywordSaturation = 3.0

// TacticStrengths scores each tactic in [0,1] by keyword hits in the reasoning.
// The result has an entry for every tactic.
func TacticStrengths(reasoning string) map[Tactic]float64 {
	text := normalizeText(reasoning)
	out := make(map[Tactic]float64, len(AllTactics))
	for _, t := range AllTactics {
		hits := 0
		for _, kw := range tacticKeywords[t] {
			hits += strings.Count(text, " "+strings.ReplaceAll(kw, " ", "  ")+" ")
		}
		out[t] = math.Min(1, float64(hits)/keywordSaturation)
	}
	return out
}

// ConceptActivations returns the normalized tactic activation distribution
// over AllTactics. All-zero activation yields nil.
func ConceptActivations(reasoning string) []float64 {
	strengths := TacticStrengths(reasoning)
	total := 0.0
	for _, v := range strengths {
		total += v
	}
	if total == 0 {
		return nil
	}
	out := make([]float64, len(AllTactics))
	for i, t := range AllTactics {
		out[i] = strengths[t] / total
	}
	return out
}

// TacticSample collects one tactic's strength across responses
func (rs Responses) TacticSample(t Tactic) stats.Sample {
	out := make(stats.Sample, 0, len(rs))
	for _, r := range rs {
		out = append(out, TacticStrengths(r.Reasoning)[t])
	}
	return out
}

// DominantTactic returns the strongest tactic for the response, or "" when none fired
func (r Response) DominantTactic() Tactic {
	strengths := TacticStrengths(r.Reasoning)
	var best Tactic
	bestScore := 0.0
	for _, t := range AllTactics {
		if strengths[t] > bestScore {
			best, bestScore = t, strengths[t]
		}
	}
	return best
}

// normalizeText lowercases and rewrites the text as words separated and
// padded by two spaces, so " kw " matches whole words and adjacent repeats
// are each counted.
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(2*len(s) + 2)
	b.WriteByte(' ')
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteString("  ")
			lastSpace = true
		}
	}
	if !lastSpace {
		b.WriteByte(' ')
	}
	return b.String()
}
