package mastery

import (
	"time"

	"github.com/abhisek/jurisprep/internal/config"
)

// Strength is a learner's self-assessed comfort with a unit, collected
// during onboarding.
type Strength string

const (
	StrengthStrong  Strength = "strong"
	StrengthNeutral Strength = "neutral"
	StrengthWeak    Strength = "weak"
)

// PriorFor maps a self-assessment to an initial mastery probability.
// Unknown values fall back to the neutral prior.
func PriorFor(s Strength, cfg config.Mastery) float64 {
	switch s {
	case StrengthStrong:
		return cfg.PriorStrong
	case StrengthWeak:
		return cfg.PriorWeak
	default:
		return cfg.PriorNeutral
	}
}

// SeedStates builds initial mastery records for the given skills from
// onboarding self-assessments, keyed by skill ID. Invoked once at profile
// creation; skills missing from the assessment map get the neutral prior.
func SeedStates(learnerID string, skillIDs []string, assessments map[string]Strength, now time.Time, cfg config.Mastery) []State {
	states := make([]State, 0, len(skillIDs))
	for _, skillID := range skillIDs {
		states = append(states, NewState(learnerID, skillID, PriorFor(assessments[skillID], cfg), now))
	}
	return states
}
