package pacing

import (
	"fmt"

	"github.com/abhisek/jurisprep/internal/config"
)

// Urgency grades a break suggestion.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Suggestion is an advisory break recommendation. The engine never
// enforces it; the caller decides what to do with it.
type Suggestion struct {
	Urgency      Urgency
	BreakMinutes int
	Reason       string
}

// RollingState is the live-session view the rules evaluate against.
type RollingState struct {
	MinutesStudied    float64
	MinutesSinceBreak float64
	// RecentScores holds the last ~10 normalized scores, oldest first.
	RecentScores     []float64
	ConsecutiveWrong int
}

// Check runs the break rules in priority order and returns the first
// match, or nil when no rule fires. Stateless: once a condition clears,
// the suggestion simply stops being produced.
func Check(s RollingState, cfg config.Pacing) *Suggestion {
	if s.MinutesSinceBreak >= float64(cfg.ExtendedSessionMinutes) {
		return &Suggestion{
			Urgency:      UrgencyHigh,
			BreakMinutes: cfg.ExtendedBreakMinutes,
			Reason:       fmt.Sprintf("You've studied %.0f minutes without a break", s.MinutesSinceBreak),
		}
	}

	if s.ConsecutiveWrong >= cfg.FatigueWrongStreak {
		return &Suggestion{
			Urgency:      UrgencyMedium,
			BreakMinutes: cfg.FatigueBreakMinutes,
			Reason:       fmt.Sprintf("%d wrong in a row often means fatigue, not ability", s.ConsecutiveWrong),
		}
	}

	if drop, ok := scoreDrop(s.RecentScores); ok && drop >= cfg.ScoreDropThreshold {
		return &Suggestion{
			Urgency:      UrgencyMedium,
			BreakMinutes: cfg.FatigueBreakMinutes,
			Reason:       "Your recent accuracy dropped sharply; a short reset usually helps",
		}
	}

	if s.MinutesSinceBreak >= float64(cfg.LongSessionMinutes) {
		return &Suggestion{
			Urgency:      UrgencyLow,
			BreakMinutes: cfg.LongBreakMinutes,
			Reason:       fmt.Sprintf("%.0f minutes in; a proper break keeps the rest productive", s.MinutesSinceBreak),
		}
	}

	if s.MinutesSinceBreak >= float64(cfg.PomodoroMinutes) {
		return &Suggestion{
			Urgency:      UrgencyLow,
			BreakMinutes: cfg.PomodoroBreakMinutes,
			Reason:       "Pomodoro checkpoint",
		}
	}

	return nil
}

// scoreDrop compares the mean of the last 3 scores against the mean of
// the scores before them. Needs at least 5 scores to say anything.
func scoreDrop(scores []float64) (float64, bool) {
	if len(scores) < 5 {
		return 0, false
	}
	recent := scores[len(scores)-3:]
	prior := scores[:len(scores)-3]
	return mean(prior) - mean(recent), true
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// SwitchAdvice suggests substituting the next queued skill when the
// learner keeps missing on the same one. Advisory only: accepting or
// declining never touches mastery state.
type SwitchAdvice struct {
	FromSkillID string
	ToSkillID   string
	Reason      string
}

// CheckSwitch fires when the same-skill wrong streak reaches the
// configured limit and there is a queued skill to switch to.
func CheckSwitch(skillID string, wrongStreakOnSkill int, nextQueued string, cfg config.Pacing) *SwitchAdvice {
	if wrongStreakOnSkill < cfg.SwitchWrongStreak || nextQueued == "" || nextQueued == skillID {
		return nil
	}
	return &SwitchAdvice{
		FromSkillID: skillID,
		ToSkillID:   nextQueued,
		Reason:      fmt.Sprintf("%d misses in a row on the same skill; coming back fresh usually goes better", wrongStreakOnSkill),
	}
}
