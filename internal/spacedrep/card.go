package spacedrep

import (
	"math"
	"time"
)

// Card holds the spaced repetition state for one (learner, content) pair.
type Card struct {
	LearnerID string `json:"learner_id"`
	ContentID string `json:"content_id"`
	// SkillID is the skill the content exercises; review plan items
	// queue by it.
	SkillID string `json:"skill_id"`
	// UnitID is the syllabus unit the content belongs to; drives the
	// weak-unit bonus in the exam optimizer.
	UnitID string `json:"unit_id"`

	EasinessFactor float64   `json:"easiness_factor"`
	IntervalDays   int       `json:"interval_days"`
	Repetitions    int       `json:"repetitions"`
	NextReviewDate time.Time `json:"next_review_date"`
	LastReviewedAt time.Time `json:"last_reviewed_at"`

	TotalReviews   int `json:"total_reviews"`
	CorrectReviews int `json:"correct_reviews"`
}

// NewCard initializes a card for content first entering the review rotation.
func NewCard(learnerID, contentID, skillID, unitID string, now time.Time) Card {
	return Card{
		LearnerID:      learnerID,
		ContentID:      contentID,
		SkillID:        skillID,
		UnitID:         unitID,
		EasinessFactor: 2.5,
		IntervalDays:   1,
		Repetitions:    0,
		NextReviewDate: now.AddDate(0, 0, 1),
		LastReviewedAt: now,
	}
}

// IsDue returns true if the card is at or past its review date.
func (c Card) IsDue(now time.Time) bool {
	return !now.Before(c.NextReviewDate)
}

// OverdueDays returns how many days past due the card is. Returns 0 if
// not yet due.
func (c Card) OverdueDays(now time.Time) float64 {
	if now.Before(c.NextReviewDate) {
		return 0
	}
	return now.Sub(c.NextReviewDate).Hours() / 24.0
}

// IsMature reports whether the card has survived enough consecutive
// successful reviews to count as consolidated material.
func (c Card) IsMature() bool {
	return c.Repetitions >= 3
}

// Retention estimates the probability the content is still recallable at
// time now, from an exponential forgetting curve over the card's current
// interval stretched by its easiness.
func (c Card) Retention(now time.Time) float64 {
	if c.LastReviewedAt.IsZero() || c.IntervalDays <= 0 {
		return 0
	}
	elapsed := now.Sub(c.LastReviewedAt).Hours() / 24.0
	if elapsed <= 0 {
		return 1
	}
	strength := float64(c.IntervalDays) * c.EasinessFactor
	return math.Exp(-elapsed / strength)
}
