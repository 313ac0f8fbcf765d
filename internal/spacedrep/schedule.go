package spacedrep

import (
	"sort"
	"time"
)

// DueCards filters cards due at or before now and orders them for review:
// most overdue first, then harder material (lower easiness), then mature
// material (higher repetitions) so consolidation isn't starved by new
// cards. Truncates to limit when limit > 0.
func DueCards(cards []Card, now time.Time, limit int) []Card {
	var due []Card
	for _, c := range cards {
		if c.IsDue(now) {
			due = append(due, c)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		if !due[i].NextReviewDate.Equal(due[j].NextReviewDate) {
			return due[i].NextReviewDate.Before(due[j].NextReviewDate)
		}
		if due[i].EasinessFactor != due[j].EasinessFactor {
			return due[i].EasinessFactor < due[j].EasinessFactor
		}
		if due[i].Repetitions != due[j].Repetitions {
			return due[i].Repetitions > due[j].Repetitions
		}
		return due[i].ContentID < due[j].ContentID
	})

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due
}
