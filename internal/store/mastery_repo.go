package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/abhisek/jurisprep/internal/mastery"
)

// MasteryRepo implements mastery.Repo on SQLite.
type MasteryRepo struct {
	s *Store
}

func (s *Store) MasteryRepo() *MasteryRepo {
	return &MasteryRepo{s: s}
}

func (r *MasteryRepo) Get(ctx context.Context, learnerID, skillID string) (mastery.State, bool, error) {
	var rows []MasteryStateRow
	err := r.s.conn(ctx).
		Where("learner_id = ? AND skill_id = ?", learnerID, skillID).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return mastery.State{}, false, fmt.Errorf("load mastery state: %w", err)
	}
	if len(rows) == 0 {
		return mastery.State{}, false, nil
	}
	return stateFromRow(rows[0]), true, nil
}

func (r *MasteryRepo) Save(ctx context.Context, st mastery.State) error {
	row := rowFromState(st)
	err := r.s.conn(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "learner_id"}, {Name: "skill_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"p_mastery", "stability", "attempt_count", "correct_count",
				"last_practiced_at", "next_review_date", "is_verified", "updated_at",
			}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("save mastery state: %w", err)
	}
	return nil
}

// ListForLearner returns every mastery record for a learner, for stats
// and weak-unit derivation.
func (r *MasteryRepo) ListForLearner(ctx context.Context, learnerID string) ([]mastery.State, error) {
	var rows []MasteryStateRow
	err := r.s.conn(ctx).
		Where("learner_id = ?", learnerID).
		Order("skill_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list mastery states: %w", err)
	}
	states := make([]mastery.State, len(rows))
	for i, row := range rows {
		states[i] = stateFromRow(row)
	}
	return states, nil
}

func stateFromRow(row MasteryStateRow) mastery.State {
	return mastery.State{
		LearnerID:       row.LearnerID,
		SkillID:         row.SkillID,
		PMastery:        row.PMastery,
		Stability:       row.Stability,
		AttemptCount:    row.AttemptCount,
		CorrectCount:    row.CorrectCount,
		LastPracticedAt: row.LastPracticedAt,
		NextReviewDate:  row.NextReviewDate,
		IsVerified:      row.IsVerified,
	}
}

func rowFromState(st mastery.State) MasteryStateRow {
	return MasteryStateRow{
		ID:              uuid.NewString(),
		LearnerID:       st.LearnerID,
		SkillID:         st.SkillID,
		PMastery:        st.PMastery,
		Stability:       st.Stability,
		AttemptCount:    st.AttemptCount,
		CorrectCount:    st.CorrectCount,
		LastPracticedAt: st.LastPracticedAt,
		NextReviewDate:  st.NextReviewDate,
		IsVerified:      st.IsVerified,
	}
}
