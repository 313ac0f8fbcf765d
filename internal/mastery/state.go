package mastery

import (
	"fmt"
	"math"
	"time"

	"github.com/abhisek/jurisprep/internal/config"
)

// State holds the mastery record for one (learner, skill) pair. Created
// lazily on first attempt; mutated only through Apply.
type State struct {
	LearnerID string
	SkillID   string

	// PMastery is the 0-1 mastery probability estimate.
	PMastery float64
	// Stability is a coarse confidence measure in days, distinct from the
	// SM-2 interval. Grows multiplicatively with every attempt.
	Stability float64

	AttemptCount int
	CorrectCount int

	LastPracticedAt time.Time
	NextReviewDate  time.Time

	// IsVerified is set once a dedicated verification attempt clears the
	// configured bar.
	IsVerified bool
}

// ErrInvalidScore rejects normalized scores outside [0,1] before any
// state mutation.
type ErrInvalidScore struct {
	Score float64
}

func (e *ErrInvalidScore) Error() string {
	return fmt.Sprintf("score %.3f outside [0,1]", e.Score)
}

// NewState returns a fresh record seeded with the given prior.
func NewState(learnerID, skillID string, prior float64, now time.Time) State {
	return State{
		LearnerID: learnerID,
		SkillID:   skillID,
		PMastery:  clamp(prior, 0, 1),
		Stability: 1,
	}
}

// Apply folds one graded attempt into the state and returns the updated
// copy. The delta is an asymmetric-clamped EMA step: rises are capped
// tighter than drops so a single lucky attempt can't inflate mastery,
// while consistent improvement still accumulates.
func Apply(s State, scoreNorm float64, now time.Time, cfg config.Mastery) (State, error) {
	if scoreNorm < 0 || scoreNorm > 1 {
		return s, &ErrInvalidScore{Score: scoreNorm}
	}

	delta := (scoreNorm - s.PMastery) * cfg.Gain
	if delta > cfg.MaxRise {
		delta = cfg.MaxRise
	}
	if delta < -cfg.MaxDrop {
		delta = -cfg.MaxDrop
	}
	s.PMastery = clamp(s.PMastery+delta, 0, 1)

	if s.Stability < 1 {
		s.Stability = 1
	}
	s.Stability = math.Min(cfg.StabilityCapDays, s.Stability*cfg.StabilityGrowth)

	s.AttemptCount++
	if scoreNorm >= cfg.CorrectBar {
		s.CorrectCount++
	}

	s.LastPracticedAt = now
	s.NextReviewDate = now.AddDate(0, 0, int(math.Ceil(s.Stability)))
	return s, nil
}

// Accuracy returns the lifetime correct ratio.
func (s State) Accuracy() float64 {
	if s.AttemptCount == 0 {
		return 0
	}
	return float64(s.CorrectCount) / float64(s.AttemptCount)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
