package remediation

import (
	"github.com/abhisek/jurisprep/internal/attempt"
	"github.com/abhisek/jurisprep/internal/config"
)

// Dose is one prescribed activity: what to do, how many, and how hard.
type Dose struct {
	Activity   attempt.Activity
	Count      int
	Difficulty attempt.Difficulty
}

// Prescription is the diagnosis output. Derived, not a source of truth:
// recomputed on demand from attempt history and cached per session.
type Prescription struct {
	LearnerID string
	SkillID   string
	Severity  Severity
	Reasons   []string
	// Activities are ordered: foundational reinforcement first.
	Activities       []Dose
	FocusAreas       []string
	EstimatedMinutes int
}

// mixFor returns the fixed activity mix for a severity tier. Severe
// deliberately excludes issue-spotter and essay formats: fundamentals
// have to stabilize before stretch work helps.
func mixFor(s Severity) []Dose {
	switch s {
	case SeveritySevere:
		return []Dose{
			{Activity: attempt.ActivityFlashcards, Count: 12, Difficulty: attempt.DifficultyEasy},
			{Activity: attempt.ActivityMemoryCheck, Count: 2, Difficulty: attempt.DifficultyEasy},
			{Activity: attempt.ActivityRuleDrill, Count: 4, Difficulty: attempt.DifficultyEasy},
			{Activity: attempt.ActivityErrorCorrection, Count: 3, Difficulty: attempt.DifficultyEasy},
			{Activity: attempt.ActivityReading, Count: 1, Difficulty: attempt.DifficultyEasy},
		}
	case SeverityModerate:
		return []Dose{
			{Activity: attempt.ActivityFlashcards, Count: 8, Difficulty: attempt.DifficultyEasy},
			{Activity: attempt.ActivityMemoryCheck, Count: 1, Difficulty: attempt.DifficultyEasy},
			{Activity: attempt.ActivityQuiz, Count: 1, Difficulty: attempt.DifficultyEasy},
			{Activity: attempt.ActivityRuleDrill, Count: 2, Difficulty: attempt.DifficultyEasy},
			{Activity: attempt.ActivityErrorCorrection, Count: 2, Difficulty: attempt.DifficultyEasy},
		}
	default:
		return []Dose{
			{Activity: attempt.ActivityFlashcards, Count: 8, Difficulty: attempt.DifficultyEasy},
			{Activity: attempt.ActivityMemoryCheck, Count: 1, Difficulty: attempt.DifficultyEasy},
			{Activity: attempt.ActivityQuiz, Count: 1, Difficulty: attempt.DifficultyEasy},
		}
	}
}

// estimateMinutes sums count x per-activity minutes.
func estimateMinutes(doses []Dose, cfg config.Remediation) int {
	total := 0
	for _, d := range doses {
		per, ok := cfg.ActivityMinutes[string(d.Activity)]
		if !ok {
			per = cfg.FallbackMinutes
		}
		total += d.Count * per
	}
	return total
}

// ApplyToMix blends a prescription into a planned activity mix. The
// policy trades off "don't derail the plan" against "don't ignore the
// signal":
//   - severe replaces the planned mix outright
//   - moderate halves every original dose (forcing easy difficulty),
//     then adds half of each prescribed dose, merging counts where
//     activity types coincide
//   - mild keeps the plan intact and bumps flashcard/memory-check counts
//     by a small fixed increment
func ApplyToMix(original []Dose, p *Prescription, cfg config.Remediation) []Dose {
	if p == nil {
		return original
	}

	switch p.Severity {
	case SeveritySevere:
		out := make([]Dose, len(p.Activities))
		copy(out, p.Activities)
		return out

	case SeverityModerate:
		merged := make([]Dose, 0, len(original)+len(p.Activities))
		index := make(map[attempt.Activity]int)
		for _, d := range original {
			d.Count = halfUp(d.Count)
			d.Difficulty = attempt.DifficultyEasy
			index[d.Activity] = len(merged)
			merged = append(merged, d)
		}
		for _, d := range p.Activities {
			add := halfUp(d.Count)
			if i, ok := index[d.Activity]; ok {
				merged[i].Count += add
			} else {
				merged = append(merged, Dose{Activity: d.Activity, Count: add, Difficulty: attempt.DifficultyEasy})
			}
		}
		return merged

	default: // mild
		out := make([]Dose, len(original))
		copy(out, original)
		bumped := false
		for i := range out {
			if out[i].Activity == attempt.ActivityFlashcards || out[i].Activity == attempt.ActivityMemoryCheck {
				out[i].Count += cfg.MildBump
				bumped = true
			}
		}
		if !bumped {
			out = append(out, Dose{Activity: attempt.ActivityFlashcards, Count: cfg.MildBump, Difficulty: attempt.DifficultyEasy})
		}
		return out
	}
}

func halfUp(n int) int {
	return (n + 1) / 2
}
