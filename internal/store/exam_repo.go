package store

import (
	"context"
	"fmt"
	"math"

	"gorm.io/gorm/clause"

	"github.com/abhisek/jurisprep/internal/config"
	"github.com/abhisek/jurisprep/internal/content"
)

// ExamRepo stores exam profiles and answers the calendar question the
// orchestrator plans around.
type ExamRepo struct {
	s   *Store
	now config.Clock
}

func (s *Store) ExamRepo(now config.Clock) *ExamRepo {
	return &ExamRepo{s: s, now: now}
}

// DaysUntilWritten returns whole days until the learner's written exam,
// floored at zero once the date has passed. Learners without a profile
// get content.ErrNoExamProfile so callers can route to onboarding.
func (r *ExamRepo) DaysUntilWritten(ctx context.Context, learnerID string) (int, error) {
	var rows []ExamProfileRow
	err := r.s.conn(ctx).
		Where("learner_id = ?", learnerID).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return 0, fmt.Errorf("load exam profile: %w", err)
	}
	if len(rows) == 0 {
		return 0, content.ErrNoExamProfile
	}

	days := int(math.Ceil(rows[0].WrittenExamDate.Sub(r.now()).Hours() / 24))
	if days < 0 {
		days = 0
	}
	return days, nil
}

// SaveProfile upserts the learner's exam profile.
func (r *ExamRepo) SaveProfile(ctx context.Context, profile ExamProfileRow) error {
	err := r.s.conn(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "learner_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"written_exam_date", "updated_at"}),
		}).
		Create(&profile).Error
	if err != nil {
		return fmt.Errorf("save exam profile: %w", err)
	}
	return nil
}
