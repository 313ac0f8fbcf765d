package remediation

import (
	"fmt"
	"sort"
	"time"

	"github.com/abhisek/jurisprep/internal/attempt"
	"github.com/abhisek/jurisprep/internal/config"
	"github.com/abhisek/jurisprep/internal/gates"
	"github.com/abhisek/jurisprep/internal/mastery"
)

// Snapshot is everything diagnosis reads: mastery state, the current gate
// report, and the skill's recent attempts in chronological order.
type Snapshot struct {
	LearnerID string
	SkillID   string
	Mastery   mastery.State
	Gate      gates.Report
	// Attempts targeting the skill, oldest first.
	Attempts []attempt.Attempt
	Now      time.Time
}

// finding is one fired rule: the severity floor it sets and why.
type finding struct {
	floor  Severity
	reason string
	focus  []string
}

// rule inspects a snapshot and reports a finding, or nil when it doesn't
// apply. Rules are pure; the diagnosis is a reduction over them taking
// the maximum severity triggered.
type rule func(snap Snapshot, cfg config.Remediation) *finding

func defaultRules() []rule {
	return []rule{
		lowMasteryRule,
		gateFailureRule,
		recurringPatternRule,
		consecutiveFailRule,
	}
}

func lowMasteryRule(snap Snapshot, cfg config.Remediation) *finding {
	p := snap.Mastery.PMastery
	switch {
	case p < cfg.SevereMasteryBelow:
		return &finding{
			floor:  SeveritySevere,
			reason: fmt.Sprintf("Mastery estimate %.0f%% is critically low", p*100),
		}
	case p < cfg.ModerateMasteryBelow:
		return &finding{
			floor:  SeverityModerate,
			reason: fmt.Sprintf("Mastery estimate %.0f%% is below the comfort zone", p*100),
		}
	}
	return nil
}

func gateFailureRule(snap Snapshot, cfg config.Remediation) *finding {
	var reasons []string
	reasons = append(reasons, snap.Gate.FailureReasons...)
	if len(reasons) == 0 {
		return nil
	}
	f := &finding{floor: SeverityModerate, reason: reasons[0]}
	for _, r := range reasons[1:] {
		f.reason += "; " + r
	}
	for _, cr := range []gates.CategoryResult{snap.Gate.MemoryCheck, snap.Gate.Quiz, snap.Gate.RuleDrill, snap.Gate.IssueSpotter} {
		if !cr.Passing {
			f.focus = append(f.focus, string(cr.Activity))
		}
	}
	return f
}

func recurringPatternRule(snap Snapshot, cfg config.Remediation) *finding {
	cutoff := snap.Now.AddDate(0, 0, -cfg.PatternLookbackDays)
	tagCounts := make(map[string]int)
	for _, a := range snap.Attempts {
		if a.Timestamp.Before(cutoff) {
			continue
		}
		for _, tag := range a.ErrorTags {
			tagCounts[tag]++
		}
	}

	var recurring []string
	for tag, n := range tagCounts {
		if n >= cfg.RecurringTagMinCount {
			recurring = append(recurring, tag)
		}
	}
	if len(recurring) == 0 {
		return nil
	}
	sort.Strings(recurring)

	floor := SeverityModerate
	if len(recurring) >= cfg.SeverePatternCount {
		floor = SeveritySevere
	}
	return &finding{
		floor:  floor,
		reason: fmt.Sprintf("%d recurring error pattern(s) in the last %d days", len(recurring), cfg.PatternLookbackDays),
		focus:  recurring,
	}
}

func consecutiveFailRule(snap Snapshot, cfg config.Remediation) *finding {
	streak := 0
	for i := len(snap.Attempts) - 1; i >= 0; i-- {
		if snap.Attempts[i].ScoreNorm >= cfg.FailScore {
			break
		}
		streak++
	}
	if streak < cfg.ConsecutiveFailLimit {
		return nil
	}
	// Unconditional: a fail streak means severe even at high mastery.
	return &finding{
		floor:  SeveritySevere,
		reason: fmt.Sprintf("%d failed attempts in a row", streak),
	}
}

// Diagnose runs the rule reduction over a snapshot. Returns nil when no
// rule fired: no remediation is needed. Deterministic and idempotent for
// a fixed snapshot.
func Diagnose(snap Snapshot, cfg config.Remediation) *Prescription {
	severity := Severity("")
	var reasons []string
	focusSet := make(map[string]bool)

	for _, r := range defaultRules() {
		f := r(snap, cfg)
		if f == nil {
			continue
		}
		severity = maxSeverity(severity, f.floor)
		reasons = append(reasons, f.reason)
		for _, fa := range f.focus {
			focusSet[fa] = true
		}
	}

	if severity == "" {
		return nil
	}

	var focus []string
	for fa := range focusSet {
		focus = append(focus, fa)
	}
	sort.Strings(focus)

	p := &Prescription{
		LearnerID:  snap.LearnerID,
		SkillID:    snap.SkillID,
		Severity:   severity,
		Reasons:    reasons,
		Activities: mixFor(severity),
		FocusAreas: focus,
	}
	p.EstimatedMinutes = estimateMinutes(p.Activities, cfg)
	return p
}
