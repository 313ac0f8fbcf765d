package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/abhisek/jurisprep/internal/attempt"
)

// AttemptRepo is the append-only attempt log.
type AttemptRepo struct {
	s *Store
}

func (s *Store) AttemptRepo() *AttemptRepo {
	return &AttemptRepo{s: s}
}

// Append writes one attempt fact. Attempts are never updated or deleted.
func (r *AttemptRepo) Append(ctx context.Context, a attempt.Attempt) error {
	row, err := rowFromAttempt(a)
	if err != nil {
		return err
	}
	if err := r.s.conn(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("append attempt: %w", err)
	}
	return nil
}

// Since returns a learner's attempts at or after the cutoff, oldest
// first. Skill filtering happens in memory: skill ids live in a JSON
// column and learner-scoped scans are small.
func (r *AttemptRepo) Since(ctx context.Context, learnerID string, cutoff time.Time) ([]attempt.Attempt, error) {
	var rows []AttemptRow
	err := r.s.conn(ctx).
		Where("learner_id = ? AND attempted_at >= ?", learnerID, cutoff).
		Order("attempted_at").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	attempts := make([]attempt.Attempt, 0, len(rows))
	for _, row := range rows {
		a, err := attemptFromRow(row)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, nil
}

// SinceForSkill narrows Since to attempts targeting one skill.
func (r *AttemptRepo) SinceForSkill(ctx context.Context, learnerID, skillID string, cutoff time.Time) ([]attempt.Attempt, error) {
	all, err := r.Since(ctx, learnerID, cutoff)
	if err != nil {
		return nil, err
	}
	var filtered []attempt.Attempt
	for _, a := range all {
		if a.TargetsSkill(skillID) {
			filtered = append(filtered, a)
		}
	}
	return filtered, nil
}

// Count returns the learner's lifetime attempt count, used to decide
// when to trigger background plan regeneration.
func (r *AttemptRepo) Count(ctx context.Context, learnerID string) (int64, error) {
	var n int64
	err := r.s.conn(ctx).
		Model(&AttemptRow{}).
		Where("learner_id = ?", learnerID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return n, nil
}

func rowFromAttempt(a attempt.Attempt) (AttemptRow, error) {
	skillIDs, err := json.Marshal(a.SkillIDs)
	if err != nil {
		return AttemptRow{}, fmt.Errorf("encode skill ids: %w", err)
	}
	tags, err := json.Marshal(a.ErrorTags)
	if err != nil {
		return AttemptRow{}, fmt.Errorf("encode error tags: %w", err)
	}
	return AttemptRow{
		ID:          a.ID,
		LearnerID:   a.LearnerID,
		ItemID:      a.ItemID,
		SkillIDs:    string(skillIDs),
		Format:      string(a.Format),
		Mode:        string(a.Mode),
		Activity:    string(a.Activity),
		ScoreNorm:   a.ScoreNorm,
		ErrorTags:   string(tags),
		AttemptedAt: a.Timestamp,
	}, nil
}

func attemptFromRow(row AttemptRow) (attempt.Attempt, error) {
	a := attempt.Attempt{
		ID:        row.ID,
		LearnerID: row.LearnerID,
		ItemID:    row.ItemID,
		Format:    attempt.Format(row.Format),
		Mode:      attempt.Mode(row.Mode),
		Activity:  attempt.Activity(row.Activity),
		ScoreNorm: row.ScoreNorm,
		Timestamp: row.AttemptedAt,
	}
	if row.SkillIDs != "" {
		if err := json.Unmarshal([]byte(row.SkillIDs), &a.SkillIDs); err != nil {
			return attempt.Attempt{}, fmt.Errorf("decode skill ids: %w", err)
		}
	}
	if row.ErrorTags != "" {
		if err := json.Unmarshal([]byte(row.ErrorTags), &a.ErrorTags); err != nil {
			return attempt.Attempt{}, fmt.Errorf("decode error tags: %w", err)
		}
	}
	return a, nil
}
