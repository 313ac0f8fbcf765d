package spacedrep

import (
	"math"
	"sort"
	"time"

	"github.com/abhisek/jurisprep/internal/config"
)

// ExamPlan is the optimizer's output: which due cards to review today and
// how many brand-new cards it is still safe to introduce.
type ExamPlan struct {
	Cards        []Card
	NewCardCount int
}

// scoredCard pairs a card with its exam-priority score for sorting.
type scoredCard struct {
	card  Card
	score float64
}

// OptimizeForExam scores each due card against the exam calendar and
// returns the dailyTarget top-scoring cards. Scoring favors overdue
// material, weak units, low estimated retention, and (near the exam)
// mature cards worth consolidating. The recommended new-card count
// shrinks as the exam approaches and is 0 inside the freeze window.
func OptimizeForExam(cards []Card, daysUntilExam int, weakUnits map[string]bool, dailyTarget int, now time.Time, cfg config.SpacedRep) ExamPlan {
	var scored []scoredCard
	for _, c := range cards {
		if !c.IsDue(now) {
			continue
		}
		scored = append(scored, scoredCard{card: c, score: examScore(c, daysUntilExam, weakUnits, now, cfg)})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].card.ContentID < scored[j].card.ContentID
	})

	if dailyTarget > 0 && len(scored) > dailyTarget {
		scored = scored[:dailyTarget]
	}

	selected := make([]Card, len(scored))
	for i, sc := range scored {
		selected[i] = sc.card
	}

	return ExamPlan{
		Cards:        selected,
		NewCardCount: recommendedNewCards(daysUntilExam, dailyTarget, len(selected), cfg),
	}
}

func examScore(c Card, daysUntilExam int, weakUnits map[string]bool, now time.Time, cfg config.SpacedRep) float64 {
	// Overdue bonus, capped so a long-abandoned card can't drown out
	// everything else.
	score := math.Min(c.OverdueDays(now), 30) * 2

	if weakUnits[c.UnitID] {
		score += cfg.WeakUnitBonus
	}

	// Retention gap: the further below full recall, the more urgent.
	score += (1 - c.Retention(now)) * 30

	// Near the exam, consolidating mature material beats rescuing
	// material that was never going to make it.
	if daysUntilExam >= 0 && daysUntilExam <= cfg.MatureExamWindowDays && c.IsMature() {
		score += 15
	}

	return score
}

func recommendedNewCards(daysUntilExam, dailyTarget, dueSelected int, cfg config.SpacedRep) int {
	if daysUntilExam >= 0 && daysUntilExam <= cfg.NewCardFreezeDays {
		return 0
	}
	n := dailyTarget - dueSelected
	if n < 0 {
		return 0
	}
	return n
}
