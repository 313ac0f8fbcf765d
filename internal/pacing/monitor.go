package pacing

import (
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/jurisprep/internal/config"
)

// scoreWindow is how many recent scores the monitor retains.
const scoreWindow = 10

// Monitor accumulates rolling session state and evaluates the pacing
// rules against it. One monitor per live session; not safe for
// concurrent use from multiple goroutines.
type Monitor struct {
	cfg config.Pacing
	log *zap.SugaredLogger

	sessionStart time.Time
	lastBreak    time.Time

	recentScores     []float64
	consecutiveWrong int

	currentSkillID string
	skillWrong     int
}

// NewMonitor starts a monitor at session start.
func NewMonitor(cfg config.Pacing, start time.Time, log *zap.SugaredLogger) *Monitor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Monitor{
		cfg:          cfg,
		log:          log,
		sessionStart: start,
		lastBreak:    start,
	}
}

// ObserveAttempt feeds one graded attempt into the rolling state.
func (m *Monitor) ObserveAttempt(skillID string, scoreNorm float64, correctBar float64, now time.Time) {
	m.recentScores = append(m.recentScores, scoreNorm)
	if len(m.recentScores) > scoreWindow {
		m.recentScores = m.recentScores[len(m.recentScores)-scoreWindow:]
	}

	if scoreNorm >= correctBar {
		m.consecutiveWrong = 0
	} else {
		m.consecutiveWrong++
	}

	if skillID != m.currentSkillID {
		m.currentSkillID = skillID
		m.skillWrong = 0
	}
	if scoreNorm >= correctBar {
		m.skillWrong = 0
	} else {
		m.skillWrong++
	}
}

// RecordBreak resets the break clock and fatigue signals. The score
// window clears too: pre-break accuracy says nothing about a rested
// learner, and a stale drop would re-trigger the fatigue rule
// immediately.
func (m *Monitor) RecordBreak(now time.Time) {
	m.lastBreak = now
	m.consecutiveWrong = 0
	m.recentScores = nil
}

// State materializes the rolling state at time now.
func (m *Monitor) State(now time.Time) RollingState {
	return RollingState{
		MinutesStudied:    now.Sub(m.sessionStart).Minutes(),
		MinutesSinceBreak: now.Sub(m.lastBreak).Minutes(),
		RecentScores:      append([]float64(nil), m.recentScores...),
		ConsecutiveWrong:  m.consecutiveWrong,
	}
}

// Evaluate runs the break rules against the current state.
func (m *Monitor) Evaluate(now time.Time) *Suggestion {
	return Check(m.State(now), m.cfg)
}

// EvaluateSwitch runs the switch advisor for the skill currently being
// practiced, given the next queued skill.
func (m *Monitor) EvaluateSwitch(nextQueued string) *SwitchAdvice {
	return CheckSwitch(m.currentSkillID, m.skillWrong, nextQueued, m.cfg)
}

// RecordSwitchDecision logs whether the learner took a switch
// suggestion. Logged for product analytics; deliberately has no effect
// on mastery or the plan.
func (m *Monitor) RecordSwitchDecision(advice *SwitchAdvice, accepted bool) {
	if advice == nil {
		return
	}
	m.log.Infow("switch suggestion decided",
		"from_skill", advice.FromSkillID,
		"to_skill", advice.ToSkillID,
		"accepted", accepted,
	)
}
