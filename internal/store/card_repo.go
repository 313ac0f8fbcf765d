package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/abhisek/jurisprep/internal/spacedrep"
)

// CardRepo persists spaced-repetition cards. Satisfies the orchestrator's
// card source.
type CardRepo struct {
	s *Store
}

func (s *Store) CardRepo() *CardRepo {
	return &CardRepo{s: s}
}

func (r *CardRepo) CardsForLearner(ctx context.Context, learnerID string) ([]spacedrep.Card, error) {
	var rows []CardRow
	err := r.s.conn(ctx).
		Where("learner_id = ?", learnerID).
		Order("next_review_date, content_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	cards := make([]spacedrep.Card, len(rows))
	for i, row := range rows {
		cards[i] = cardFromRow(row)
	}
	return cards, nil
}

func (r *CardRepo) Get(ctx context.Context, learnerID, contentID string) (spacedrep.Card, bool, error) {
	var rows []CardRow
	err := r.s.conn(ctx).
		Where("learner_id = ? AND content_id = ?", learnerID, contentID).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return spacedrep.Card{}, false, fmt.Errorf("load card: %w", err)
	}
	if len(rows) == 0 {
		return spacedrep.Card{}, false, nil
	}
	return cardFromRow(rows[0]), true, nil
}

func (r *CardRepo) Save(ctx context.Context, c spacedrep.Card) error {
	row := rowFromCard(c)
	err := r.s.conn(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "learner_id"}, {Name: "content_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"skill_id", "unit_id", "easiness_factor", "interval_days",
				"repetitions", "next_review_date", "last_reviewed_at",
				"total_reviews", "correct_reviews", "updated_at",
			}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("save card: %w", err)
	}
	return nil
}

func cardFromRow(row CardRow) spacedrep.Card {
	return spacedrep.Card{
		LearnerID:      row.LearnerID,
		ContentID:      row.ContentID,
		SkillID:        row.SkillID,
		UnitID:         row.UnitID,
		EasinessFactor: row.EasinessFactor,
		IntervalDays:   row.IntervalDays,
		Repetitions:    row.Repetitions,
		NextReviewDate: row.NextReviewDate,
		LastReviewedAt: row.LastReviewedAt,
		TotalReviews:   row.TotalReviews,
		CorrectReviews: row.CorrectReviews,
	}
}

func rowFromCard(c spacedrep.Card) CardRow {
	return CardRow{
		ID:             uuid.NewString(),
		LearnerID:      c.LearnerID,
		ContentID:      c.ContentID,
		SkillID:        c.SkillID,
		UnitID:         c.UnitID,
		EasinessFactor: c.EasinessFactor,
		IntervalDays:   c.IntervalDays,
		Repetitions:    c.Repetitions,
		NextReviewDate: c.NextReviewDate,
		LastReviewedAt: c.LastReviewedAt,
		TotalReviews:   c.TotalReviews,
		CorrectReviews: c.CorrectReviews,
	}
}
