package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/abhisek/jurisprep/internal/remediation"
	"github.com/abhisek/jurisprep/internal/session"
)

// PlanRepo persists daily plans and their items. It backs both the
// orchestrator's plan storage and its practice-history source.
type PlanRepo struct {
	s *Store
}

func (s *Store) PlanRepo() *PlanRepo {
	return &PlanRepo{s: s}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (r *PlanRepo) PlanForDate(ctx context.Context, learnerID string, date time.Time) (*session.Plan, error) {
	var rows []PlanRow
	err := r.s.conn(ctx).
		Where("learner_id = ? AND date = ?", learnerID, dateOnly(date)).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return r.hydrate(ctx, rows[0])
}

func (r *PlanRepo) hydrate(ctx context.Context, row PlanRow) (*session.Plan, error) {
	var itemRows []PlanItemRow
	err := r.s.conn(ctx).
		Where("plan_id = ?", row.ID).
		Order("priority").
		Find(&itemRows).Error
	if err != nil {
		return nil, fmt.Errorf("load plan items: %w", err)
	}

	plan := &session.Plan{
		ID:        row.ID,
		LearnerID: row.LearnerID,
		Date:      row.Date,
		Phase:     row.Phase,
		CreatedAt: row.CreatedAt,
	}
	if row.Degraded != "" {
		if err := json.Unmarshal([]byte(row.Degraded), &plan.Degraded); err != nil {
			return nil, fmt.Errorf("decode degraded markers: %w", err)
		}
	}
	for _, ir := range itemRows {
		item := session.PlanItem{
			ID:               ir.ID,
			SkillID:          ir.SkillID,
			Category:         session.Category(ir.Category),
			EstimatedMinutes: ir.EstimatedMinutes,
			Priority:         ir.Priority,
			Rationale:        ir.Rationale,
			Status:           session.ItemStatus(ir.Status),
		}
		if ir.Activities != "" {
			if err := json.Unmarshal([]byte(ir.Activities), &item.Activities); err != nil {
				return nil, fmt.Errorf("decode activities: %w", err)
			}
		}
		plan.Items = append(plan.Items, item)
	}
	return plan, nil
}

// SavePlan stores a plan and its items in one transaction. The unique
// (learner, date) index turns a same-day race into session.ErrPlanExists.
func (r *PlanRepo) SavePlan(ctx context.Context, p *session.Plan) error {
	degraded, err := json.Marshal(p.Degraded)
	if err != nil {
		return fmt.Errorf("encode degraded markers: %w", err)
	}

	return r.s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		row := PlanRow{
			ID:        p.ID,
			LearnerID: p.LearnerID,
			Date:      dateOnly(p.Date),
			Phase:     p.Phase,
			Degraded:  string(degraded),
			CreatedAt: p.CreatedAt,
		}
		if err := tx.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return session.ErrPlanExists
			}
			return fmt.Errorf("save plan: %w", err)
		}

		for _, it := range p.Items {
			activities, err := json.Marshal(it.Activities)
			if err != nil {
				return fmt.Errorf("encode activities: %w", err)
			}
			itemRow := PlanItemRow{
				ID:               it.ID,
				PlanID:           p.ID,
				SkillID:          it.SkillID,
				Category:         string(it.Category),
				EstimatedMinutes: it.EstimatedMinutes,
				Priority:         it.Priority,
				Rationale:        it.Rationale,
				Status:           string(it.Status),
				Activities:       string(activities),
			}
			if err := tx.Create(&itemRow).Error; err != nil {
				return fmt.Errorf("save plan item: %w", err)
			}
		}
		return nil
	})
}

// ReplacePlan swaps out the learner's plan for the day atomically.
// Used by regeneration; SavePlan's uniqueness guard does not apply.
func (r *PlanRepo) ReplacePlan(ctx context.Context, p *session.Plan) error {
	return r.s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []PlanRow
		err := tx.
			Where("learner_id = ? AND date = ?", p.LearnerID, dateOnly(p.Date)).
			Find(&rows).Error
		if err != nil {
			return fmt.Errorf("load existing plan: %w", err)
		}
		for _, row := range rows {
			if err := tx.Where("plan_id = ?", row.ID).Delete(&PlanItemRow{}).Error; err != nil {
				return fmt.Errorf("delete plan items: %w", err)
			}
			if err := tx.Delete(&PlanRow{}, "id = ?", row.ID).Error; err != nil {
				return fmt.Errorf("delete plan: %w", err)
			}
		}
		txCtx := context.WithValue(ctx, txKey{}, tx)
		return r.SavePlan(txCtx, p)
	})
}

func (r *PlanRepo) UpdateItemStatus(ctx context.Context, planID, itemID string, status session.ItemStatus) error {
	res := r.s.conn(ctx).
		Model(&PlanItemRow{}).
		Where("id = ? AND plan_id = ?", itemID, planID).
		Update("status", string(status))
	if res.Error != nil {
		return fmt.Errorf("update item status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("plan item not found: %q", itemID)
	}
	return nil
}

// UpdateItemActivities persists a remediation-rewritten activity mix.
func (r *PlanRepo) UpdateItemActivities(ctx context.Context, planID, itemID string, doses []remediation.Dose, rationale string) error {
	activities, err := json.Marshal(doses)
	if err != nil {
		return fmt.Errorf("encode activities: %w", err)
	}
	res := r.s.conn(ctx).
		Model(&PlanItemRow{}).
		Where("id = ? AND plan_id = ?", itemID, planID).
		Updates(map[string]any{
			"activities": string(activities),
			"rationale":  rationale,
		})
	if res.Error != nil {
		return fmt.Errorf("update item activities: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("plan item not found: %q", itemID)
	}
	return nil
}

// PracticedSkills returns every skill that appears in a completed plan
// item for the learner, score-blind. This is the exposure signal the
// coverage-debt computation consumes.
func (r *PlanRepo) PracticedSkills(ctx context.Context, learnerID string) (map[string]bool, error) {
	var skillIDs []string
	err := r.s.conn(ctx).
		Model(&PlanItemRow{}).
		Distinct("plan_item_rows.skill_id").
		Joins("JOIN plan_rows ON plan_rows.id = plan_item_rows.plan_id").
		Where("plan_rows.learner_id = ? AND plan_item_rows.status = ?", learnerID, string(session.StatusCompleted)).
		Pluck("plan_item_rows.skill_id", &skillIDs).Error
	if err != nil {
		return nil, fmt.Errorf("list practiced skills: %w", err)
	}
	practiced := make(map[string]bool, len(skillIDs))
	for _, id := range skillIDs {
		practiced[id] = true
	}
	return practiced, nil
}
