package store

import "time"

// MasteryStateRow persists one (learner, skill) mastery record. The
// unique index is what makes the record a single row per pair; writes
// are serialized upstream by the mastery service.
type MasteryStateRow struct {
	ID        string `gorm:"primaryKey"`
	LearnerID string `gorm:"uniqueIndex:idx_mastery_learner_skill;index"`
	SkillID   string `gorm:"uniqueIndex:idx_mastery_learner_skill"`

	PMastery     float64
	Stability    float64
	AttemptCount int
	CorrectCount int

	LastPracticedAt time.Time
	NextReviewDate  time.Time
	IsVerified      bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CardRow persists one (learner, content) spaced-repetition card.
type CardRow struct {
	ID        string `gorm:"primaryKey"`
	LearnerID string `gorm:"uniqueIndex:idx_card_learner_content;index"`
	ContentID string `gorm:"uniqueIndex:idx_card_learner_content"`
	SkillID   string `gorm:"index"`
	UnitID    string

	EasinessFactor float64
	IntervalDays   int
	Repetitions    int
	NextReviewDate time.Time
	LastReviewedAt time.Time
	TotalReviews   int
	CorrectReviews int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AttemptRow is the append-only attempt log. SkillIDs and ErrorTags are
// JSON-encoded string slices; queries that need them filter in memory
// after a learner-scoped scan.
type AttemptRow struct {
	ID        string `gorm:"primaryKey"`
	LearnerID string `gorm:"index:idx_attempt_learner_time"`
	ItemID    string

	SkillIDs  string // JSON array
	Format    string
	Mode      string
	Activity  string
	ScoreNorm float64
	ErrorTags string // JSON array

	AttemptedAt time.Time `gorm:"index:idx_attempt_learner_time"`
	CreatedAt   time.Time
}

// PlanRow is one daily plan. The unique index enforces one plan per
// learner per calendar day at the storage layer; racing builders get a
// constraint error, not a duplicate.
type PlanRow struct {
	ID        string    `gorm:"primaryKey"`
	LearnerID string    `gorm:"uniqueIndex:idx_plan_learner_date;index"`
	Date      time.Time `gorm:"uniqueIndex:idx_plan_learner_date"`
	Phase     string
	Degraded  string // JSON array
	CreatedAt time.Time
}

// PlanItemRow is one block of a daily plan.
type PlanItemRow struct {
	ID     string `gorm:"primaryKey"`
	PlanID string `gorm:"index"`

	SkillID          string `gorm:"index"`
	Category         string
	EstimatedMinutes int
	Priority         int
	Rationale        string
	Status           string
	Activities       string // JSON array of doses

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ExamProfileRow holds the learner's exam cycle. One row per learner.
type ExamProfileRow struct {
	LearnerID       string `gorm:"primaryKey"`
	WrittenExamDate time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
