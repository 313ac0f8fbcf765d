package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/abhisek/jurisprep/internal/config"
	"github.com/abhisek/jurisprep/internal/content"
	"github.com/abhisek/jurisprep/internal/remediation"
	"github.com/abhisek/jurisprep/internal/skillgraph"
	"github.com/abhisek/jurisprep/internal/spacedrep"
)

// ErrNeedsOnboarding signals that orchestration was requested before the
// learner has an exam profile. Distinct from ordinary failures so callers
// can route the learner to onboarding instead of showing an error.
var ErrNeedsOnboarding = errors.New("learner needs onboarding before planning")

// ErrPlanExists is returned by PlanRepo.SavePlan when a plan already
// exists for the learner and date, so a racing builder can re-read
// instead of duplicating.
var ErrPlanExists = errors.New("plan already exists for this day")

// CardSource supplies a learner's spaced-repetition cards.
type CardSource interface {
	CardsForLearner(ctx context.Context, learnerID string) ([]spacedrep.Card, error)
}

// HistorySource supplies which skills a learner has ever been exposed to
// through a completed session block, score-blind.
type HistorySource interface {
	PracticedSkills(ctx context.Context, learnerID string) (map[string]bool, error)
}

// PlanRepo persists daily plans. PlanForDate returns (nil, nil) when no
// plan exists yet for the calendar day.
type PlanRepo interface {
	PlanForDate(ctx context.Context, learnerID string, date time.Time) (*Plan, error)
	SavePlan(ctx context.Context, p *Plan) error
	ReplacePlan(ctx context.Context, p *Plan) error
	UpdateItemStatus(ctx context.Context, planID, itemID string, status ItemStatus) error
}

// Orchestrator builds the daily session queue: due reviews first, then
// new learning by coverage debt, then practice, inside the active
// phase's time budget. One plan per learner per calendar day.
type Orchestrator struct {
	graph    *skillgraph.Graph
	cards    CardSource
	history  HistorySource
	plans    PlanRepo
	calendar content.ExamCalendar
	cfg      config.Session
	now      config.Clock
	log      *zap.SugaredLogger

	// group collapses concurrent same-day builds for one learner.
	group singleflight.Group
}

func NewOrchestrator(
	graph *skillgraph.Graph,
	cards CardSource,
	history HistorySource,
	plans PlanRepo,
	calendar content.ExamCalendar,
	cfg config.Session,
	now config.Clock,
	log *zap.SugaredLogger,
) *Orchestrator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Orchestrator{
		graph:    graph,
		cards:    cards,
		history:  history,
		plans:    plans,
		calendar: calendar,
		cfg:      cfg,
		now:      now,
		log:      log,
	}
}

// dayOf truncates a timestamp to its calendar day.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DailyPlan returns today's plan for the learner, building it if
// necessary. Re-invocation on the same calendar day returns the stored
// plan unchanged.
func (o *Orchestrator) DailyPlan(ctx context.Context, learnerID string) (*Plan, error) {
	today := dayOf(o.now())

	key := learnerID + "\x00" + today.Format("2006-01-02")
	v, err, _ := o.group.Do(key, func() (any, error) {
		existing, err := o.plans.PlanForDate(ctx, learnerID, today)
		if err != nil {
			return nil, fmt.Errorf("load plan: %w", err)
		}
		if existing != nil {
			return existing, nil
		}

		plan, err := o.buildPlan(ctx, learnerID, today)
		if err != nil {
			return nil, err
		}

		if err := o.plans.SavePlan(ctx, plan); err != nil {
			if errors.Is(err, ErrPlanExists) {
				// Lost a race with another builder. Theirs wins.
				return o.plans.PlanForDate(ctx, learnerID, today)
			}
			return nil, fmt.Errorf("save plan: %w", err)
		}
		return plan, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Plan), nil
}

func (o *Orchestrator) buildPlan(ctx context.Context, learnerID string, today time.Time) (*Plan, error) {
	daysToWritten, err := o.calendar.DaysUntilWritten(ctx, learnerID)
	if err != nil {
		if errors.Is(err, content.ErrNoExamProfile) {
			return nil, ErrNeedsOnboarding
		}
		return nil, fmt.Errorf("exam calendar: %w", err)
	}
	phase := PhaseFor(daysToWritten, o.cfg)

	plan := &Plan{
		ID:        uuid.NewString(),
		LearnerID: learnerID,
		Date:      today,
		Phase:     phase.Name,
		CreatedAt: o.now(),
	}

	reviewBudget := int(math.Round(float64(phase.DailyMinutes) * phase.ReviewRatio))
	newBudget := int(math.Round(float64(phase.DailyMinutes) * phase.NewRatio))
	practiceBudget := int(math.Round(float64(phase.DailyMinutes) * phase.PracticeRatio))

	queued := make(map[string]bool)

	// Degraded inputs produce a best-effort plan, never a failed one.
	dueBySkill := o.dueSkills(ctx, learnerID, plan)
	o.addReviewItems(plan, dueBySkill, reviewBudget, queued)

	practiced, practicedOK := o.practicedSkills(ctx, learnerID, plan)
	debts := CoverageDebt(o.graph, practiced)
	o.addNewLearningItems(plan, debts, practiced, practicedOK, newBudget, queued)

	o.addPracticeItems(plan, practiceBudget, queued)

	if len(plan.Items) > phase.SessionsPerDay {
		plan.Items = plan.Items[:phase.SessionsPerDay]
	}
	for i := range plan.Items {
		plan.Items[i].Priority = i + 1
		if len(plan.Degraded) > 0 {
			plan.Items[i].Rationale += " [planned with partial data]"
		}
	}

	o.log.Infow("daily plan built",
		"learner", learnerID,
		"phase", phase.Name,
		"items", len(plan.Items),
		"minutes", plan.TotalMinutes(),
		"degraded", plan.Degraded,
	)
	return plan, nil
}

// dueSkills fetches the learner's cards and returns due skills in review
// order with the most overdue card for each. Failure degrades the plan
// instead of aborting it.
func (o *Orchestrator) dueSkills(ctx context.Context, learnerID string, plan *Plan) []spacedrep.Card {
	cards, err := o.cards.CardsForLearner(ctx, learnerID)
	if err != nil {
		o.log.Warnw("card fetch failed, planning without reviews", "learner", learnerID, "error", err)
		plan.Degraded = append(plan.Degraded, "spaced-repetition reviews unavailable")
		return nil
	}
	return spacedrep.DueCards(cards, o.now(), 0)
}

func (o *Orchestrator) practicedSkills(ctx context.Context, learnerID string, plan *Plan) (map[string]bool, bool) {
	practiced, err := o.history.PracticedSkills(ctx, learnerID)
	if err != nil {
		o.log.Warnw("practice history fetch failed, assuming full coverage debt", "learner", learnerID, "error", err)
		plan.Degraded = append(plan.Degraded, "coverage history unavailable")
		return map[string]bool{}, false
	}
	return practiced, true
}

// addReviewItems queues due reviews, one block per skill, most urgent
// first, until the review-minutes budget runs out. Reviews always come
// before new learning: due material decays faster than material never
// started.
func (o *Orchestrator) addReviewItems(plan *Plan, due []spacedrep.Card, budget int, queued map[string]bool) {
	spent := 0
	for _, c := range due {
		if spent+o.cfg.ReviewItemMinutes > budget {
			break
		}
		if c.SkillID == "" || queued[c.SkillID] {
			continue
		}
		skill, err := o.graph.Skill(c.SkillID)
		if err != nil || !skill.IsActive {
			continue
		}
		overdue := int(c.OverdueDays(o.now()))
		rationale := fmt.Sprintf("Review due for %s", skill.Name)
		if overdue > 0 {
			rationale = fmt.Sprintf("Review %d day(s) overdue for %s", overdue, skill.Name)
		}
		plan.Items = append(plan.Items, PlanItem{
			ID:               uuid.NewString(),
			SkillID:          c.SkillID,
			Category:         CategoryReview,
			EstimatedMinutes: o.cfg.ReviewItemMinutes,
			Rationale:        rationale,
			Status:           StatusQueued,
			Activities:       defaultMix(CategoryReview),
		})
		queued[c.SkillID] = true
		spent += o.cfg.ReviewItemMinutes
	}
}

// addNewLearningItems queues unpracticed skills from the most
// coverage-indebted units first, ties broken by exam weight.
func (o *Orchestrator) addNewLearningItems(plan *Plan, debts []UnitDebt, practiced map[string]bool, practicedOK bool, budget int, queued map[string]bool) {
	sort.SliceStable(debts, func(i, j int) bool {
		if debts[i].Debt != debts[j].Debt {
			return debts[i].Debt > debts[j].Debt
		}
		return debts[i].ExamWeight > debts[j].ExamWeight
	})

	spent := 0
	for _, d := range debts {
		if d.Debt == 0 {
			continue
		}
		for _, s := range o.graph.ByUnit(d.UnitID) {
			if spent+o.cfg.NewItemMinutes > budget {
				return
			}
			cur, err := o.graph.Skill(s.ID)
			if err != nil || !cur.IsActive {
				continue
			}
			if queued[s.ID] || practiced[s.ID] {
				continue
			}
			unit, _ := o.graph.Unit(d.UnitID)
			rationale := fmt.Sprintf("New material: %.0f%% of %s not yet started", d.Debt*100, unit.Name)
			if !practicedOK {
				rationale = fmt.Sprintf("New material from %s", unit.Name)
			}
			plan.Items = append(plan.Items, PlanItem{
				ID:               uuid.NewString(),
				SkillID:          s.ID,
				Category:         CategoryNewLearning,
				EstimatedMinutes: o.cfg.NewItemMinutes,
				Rationale:        rationale,
				Status:           StatusQueued,
				Activities:       defaultMix(CategoryNewLearning),
			})
			queued[s.ID] = true
			spent += o.cfg.NewItemMinutes
		}
	}
}

// addPracticeItems reinforces skills already queued today so the learner
// practices what they just reviewed or learned. Skills not on today's
// queue are only drawn in if nothing is queued at all.
func (o *Orchestrator) addPracticeItems(plan *Plan, budget int, queued map[string]bool) {
	spent := 0
	seen := make(map[string]bool)

	add := func(skillID, rationale string) bool {
		if spent+o.cfg.PracticeItemMinutes > budget {
			return false
		}
		if seen[skillID] {
			return true
		}
		plan.Items = append(plan.Items, PlanItem{
			ID:               uuid.NewString(),
			SkillID:          skillID,
			Category:         CategoryPractice,
			EstimatedMinutes: o.cfg.PracticeItemMinutes,
			Rationale:        rationale,
			Status:           StatusQueued,
			Activities:       defaultMix(CategoryPractice),
		})
		seen[skillID] = true
		spent += o.cfg.PracticeItemMinutes
		return true
	}

	// Snapshot order from the plan itself, reviews and new learning in
	// queue order.
	for _, it := range plan.Items {
		if it.Category == CategoryPractice {
			continue
		}
		skill, err := o.graph.Skill(it.SkillID)
		if err != nil {
			continue
		}
		if !add(it.SkillID, fmt.Sprintf("Reinforces %s from earlier in today's queue", skill.Name)) {
			return
		}
	}

	if len(seen) > 0 {
		return
	}
	// Nothing queued today (everything consolidated and covered); fall
	// back to general reinforcement in curriculum order.
	for _, s := range o.graph.TopologicalOrder() {
		cur, err := o.graph.Skill(s.ID)
		if err != nil || !cur.IsActive {
			continue
		}
		if !add(s.ID, fmt.Sprintf("General reinforcement for %s", cur.Name)) {
			return
		}
	}
}

// Regenerate rebuilds today's plan from current state, carrying over
// the status of items the learner already started or finished. Called
// from background work after every Nth attempt, not on every read.
func (o *Orchestrator) Regenerate(ctx context.Context, learnerID string) (*Plan, error) {
	today := dayOf(o.now())

	existing, err := o.plans.PlanForDate(ctx, learnerID, today)
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}

	plan, err := o.buildPlan(ctx, learnerID, today)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		// Progress survives regeneration: match on skill and category.
		type key struct {
			skill    string
			category Category
		}
		statuses := make(map[key]ItemStatus)
		for _, it := range existing.Items {
			if it.Status != StatusQueued {
				statuses[key{it.SkillID, it.Category}] = it.Status
			}
		}
		for i := range plan.Items {
			if st, ok := statuses[key{plan.Items[i].SkillID, plan.Items[i].Category}]; ok {
				plan.Items[i].Status = st
			}
		}
	}

	if err := o.plans.ReplacePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("replace plan: %w", err)
	}
	return plan, nil
}

// ApplyRemediation rewrites the activity mix of every plan item for the
// prescribed skill and persists nothing; callers save through the repo.
// A nil prescription is a no-op.
func (o *Orchestrator) ApplyRemediation(plan *Plan, skillID string, p *remediation.Prescription, cfg config.Remediation) {
	if p == nil || plan == nil {
		return
	}
	for i := range plan.Items {
		it := &plan.Items[i]
		if it.SkillID != skillID || it.Status == StatusCompleted || it.Status == StatusSkipped {
			continue
		}
		it.Activities = remediation.ApplyToMix(it.Activities, p, cfg)
		it.Rationale = fmt.Sprintf("%s; adjusted for %s remediation", it.Rationale, p.Severity)
	}
}

// legal item status transitions
var itemTransitions = map[ItemStatus][]ItemStatus{
	StatusQueued:     {StatusInProgress, StatusSkipped},
	StatusInProgress: {StatusCompleted, StatusSkipped},
}

// MarkItem transitions a plan item's status and persists it. Rejects
// transitions outside queued -> in_progress -> completed|skipped.
func (o *Orchestrator) MarkItem(ctx context.Context, plan *Plan, itemID string, status ItemStatus) error {
	for i := range plan.Items {
		it := &plan.Items[i]
		if it.ID != itemID {
			continue
		}
		allowed := false
		for _, next := range itemTransitions[it.Status] {
			if next == status {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("cannot move item from %q to %q", it.Status, status)
		}
		if err := o.plans.UpdateItemStatus(ctx, plan.ID, itemID, status); err != nil {
			return fmt.Errorf("update item status: %w", err)
		}
		it.Status = status
		return nil
	}
	return fmt.Errorf("plan item not found: %q", itemID)
}
