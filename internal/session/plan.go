package session

import (
	"time"

	"github.com/abhisek/jurisprep/internal/attempt"
	"github.com/abhisek/jurisprep/internal/remediation"
)

// Category is the reason a skill was included in the plan.
type Category string

const (
	CategoryReview      Category = "review"
	CategoryNewLearning Category = "new_learning"
	CategoryPractice    Category = "practice"
)

// ItemStatus tracks a plan item through the day.
type ItemStatus string

const (
	StatusQueued     ItemStatus = "queued"
	StatusInProgress ItemStatus = "in_progress"
	StatusCompleted  ItemStatus = "completed"
	StatusSkipped    ItemStatus = "skipped"
)

// PlanItem is one block in the day's queue. Priority is the queue
// position (lower = sooner); Rationale is mandatory so a learner can
// always see why the engine chose this.
type PlanItem struct {
	ID               string
	SkillID          string
	Category         Category
	EstimatedMinutes int
	Priority         int
	Rationale        string
	Status           ItemStatus
	// Activities is the planned activity mix for the block; remediation
	// may rewrite it.
	Activities []remediation.Dose
}

// Plan is the daily session queue for one learner. Generated once per
// calendar day; re-invocation returns the existing plan.
type Plan struct {
	ID        string
	LearnerID string
	// Date is the calendar day, in the engine's working timezone.
	Date  time.Time
	Phase string
	Items []PlanItem
	// Degraded notes which inputs failed during a best-effort build.
	Degraded  []string
	CreatedAt time.Time
}

// TotalMinutes sums the plan's estimated time.
func (p *Plan) TotalMinutes() int {
	total := 0
	for _, it := range p.Items {
		total += it.EstimatedMinutes
	}
	return total
}

// SkillSet returns the set of skills the plan touches.
func (p *Plan) SkillSet() map[string]bool {
	set := make(map[string]bool, len(p.Items))
	for _, it := range p.Items {
		set[it.SkillID] = true
	}
	return set
}

// NextQueuedSkill returns the first still-queued skill after the given
// one, for the pacing switch advisor. Empty string when there is none.
func (p *Plan) NextQueuedSkill(afterSkillID string) string {
	for _, it := range p.Items {
		if it.Status == StatusQueued && it.SkillID != afterSkillID {
			return it.SkillID
		}
	}
	return ""
}

// defaultMixes returns the planned activity mix for a category.
func defaultMix(cat Category) []remediation.Dose {
	switch cat {
	case CategoryReview:
		return []remediation.Dose{
			{Activity: attempt.ActivityFlashcards, Count: 10, Difficulty: attempt.DifficultyMedium},
			{Activity: attempt.ActivityMemoryCheck, Count: 1, Difficulty: attempt.DifficultyMedium},
		}
	case CategoryNewLearning:
		return []remediation.Dose{
			{Activity: attempt.ActivityReading, Count: 1, Difficulty: attempt.DifficultyMedium},
			{Activity: attempt.ActivityFlashcards, Count: 8, Difficulty: attempt.DifficultyEasy},
			{Activity: attempt.ActivityQuiz, Count: 1, Difficulty: attempt.DifficultyEasy},
		}
	default:
		return []remediation.Dose{
			{Activity: attempt.ActivityQuiz, Count: 1, Difficulty: attempt.DifficultyMedium},
			{Activity: attempt.ActivityRuleDrill, Count: 2, Difficulty: attempt.DifficultyMedium},
		}
	}
}
