package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/jurisprep/internal/config"
	"github.com/abhisek/jurisprep/internal/content"
	"github.com/abhisek/jurisprep/internal/skillgraph"
	"github.com/abhisek/jurisprep/internal/spacedrep"
)

func testGraph(t *testing.T) *skillgraph.Graph {
	t.Helper()
	units := []skillgraph.Unit{
		{ID: "contracts", Name: "Contracts", ExamWeight: 0.5},
		{ID: "torts", Name: "Torts", ExamWeight: 0.3},
	}
	skills := []skillgraph.Skill{
		{ID: "offer", Code: "K1", Name: "Offer and acceptance", UnitID: "contracts", ExamWeight: 0.5, Tier: skillgraph.TierFoundation, IsActive: true},
		{ID: "consideration", Code: "K2", Name: "Consideration", UnitID: "contracts", ExamWeight: 0.5, Tier: skillgraph.TierCore, Prerequisites: []string{"offer"}, IsActive: true},
		{ID: "negligence", Code: "T1", Name: "Negligence", UnitID: "torts", ExamWeight: 1.0, Tier: skillgraph.TierFoundation, IsActive: true},
	}
	g, err := skillgraph.NewGraph(units, skills)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	return g
}

type fakeCards struct {
	cards []spacedrep.Card
	err   error
}

func (f fakeCards) CardsForLearner(ctx context.Context, learnerID string) ([]spacedrep.Card, error) {
	return f.cards, f.err
}

type fakeHistory struct {
	practiced map[string]bool
	err       error
}

func (f fakeHistory) PracticedSkills(ctx context.Context, learnerID string) (map[string]bool, error) {
	return f.practiced, f.err
}

type fakeCalendar struct {
	days int
	err  error
}

func (f fakeCalendar) DaysUntilWritten(ctx context.Context, learnerID string) (int, error) {
	return f.days, f.err
}

type memPlanRepo struct {
	mu    sync.Mutex
	plans map[string]*Plan
	saves int
}

func newMemPlanRepo() *memPlanRepo {
	return &memPlanRepo{plans: make(map[string]*Plan)}
}

func planKey(learnerID string, date time.Time) string {
	return learnerID + "|" + date.Format("2006-01-02")
}

func (r *memPlanRepo) PlanForDate(ctx context.Context, learnerID string, date time.Time) (*Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.plans[planKey(learnerID, date)], nil
}

func (r *memPlanRepo) SavePlan(ctx context.Context, p *Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := planKey(p.LearnerID, p.Date)
	if _, ok := r.plans[key]; ok {
		return ErrPlanExists
	}
	r.plans[key] = p
	r.saves++
	return nil
}

func (r *memPlanRepo) ReplacePlan(ctx context.Context, p *Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[planKey(p.LearnerID, p.Date)] = p
	return nil
}

func (r *memPlanRepo) UpdateItemStatus(ctx context.Context, planID, itemID string, status ItemStatus) error {
	return nil
}

func fixedClock(t time.Time) config.Clock {
	return func() time.Time { return t }
}

func newTestOrchestrator(t *testing.T, cards CardSource, history HistorySource, repo PlanRepo, cal content.ExamCalendar) *Orchestrator {
	t.Helper()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return NewOrchestrator(testGraph(t), cards, history, repo, cal, config.Default().Session, fixedClock(now), nil)
}

func TestPhaseFor(t *testing.T) {
	cfg := config.Default().Session
	tests := []struct {
		days int
		want string
	}{
		{365, "foundation"},
		{181, "foundation"},
		{180, "intensive"},
		{61, "intensive"},
		{60, "revision"},
		{15, "revision"},
		{14, "final"},
		{10, "final"},
		{0, "final"},
	}
	for _, tt := range tests {
		if got := PhaseFor(tt.days, cfg); got.Name != tt.want {
			t.Errorf("PhaseFor(%d) = %q, want %q", tt.days, got.Name, tt.want)
		}
	}
}

func TestCoverageDebtBounds(t *testing.T) {
	g := testGraph(t)

	none := CoverageDebt(g, map[string]bool{})
	for _, d := range none {
		if d.Debt != 1 {
			t.Errorf("unit %s with nothing practiced: debt = %v, want 1", d.UnitID, d.Debt)
		}
	}

	all := CoverageDebt(g, map[string]bool{"offer": true, "consideration": true, "negligence": true})
	for _, d := range all {
		if d.Debt != 0 {
			t.Errorf("unit %s fully practiced: debt = %v, want 0", d.UnitID, d.Debt)
		}
	}
}

func TestCoverageDebtIgnoresInactive(t *testing.T) {
	g := testGraph(t)
	if err := g.Deactivate("consideration"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	debts := CoverageDebt(g, map[string]bool{"offer": true})
	for _, d := range debts {
		if d.UnitID != "contracts" {
			continue
		}
		if d.Total != 1 || d.Debt != 0 {
			t.Errorf("contracts debt = %+v, want total 1 debt 0 after deactivation", d)
		}
	}
}

func TestDailyPlanOrdering(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	due := spacedrep.NewCard("lrn", "card-1", "offer", "contracts", now.AddDate(0, 0, -3))
	o := newTestOrchestrator(t,
		fakeCards{cards: []spacedrep.Card{due}},
		fakeHistory{practiced: map[string]bool{"offer": true}},
		newMemPlanRepo(),
		fakeCalendar{days: 200},
	)

	plan, err := o.DailyPlan(context.Background(), "lrn")
	if err != nil {
		t.Fatalf("DailyPlan: %v", err)
	}
	if plan.Phase != "foundation" {
		t.Errorf("phase = %q, want foundation", plan.Phase)
	}
	if len(plan.Items) == 0 {
		t.Fatal("empty plan")
	}

	// Strict category ordering: reviews, then new learning, then practice.
	rank := map[Category]int{CategoryReview: 0, CategoryNewLearning: 1, CategoryPractice: 2}
	last := -1
	for _, it := range plan.Items {
		if rank[it.Category] < last {
			t.Fatalf("category %q out of order in %v", it.Category, plan.Items)
		}
		last = rank[it.Category]
		if it.Rationale == "" {
			t.Errorf("item %s has empty rationale", it.SkillID)
		}
	}

	maxItems := config.Default().Session.Foundation.SessionsPerDay
	if len(plan.Items) > maxItems {
		t.Errorf("plan has %d items, cap is %d", len(plan.Items), maxItems)
	}

	if plan.Items[0].Category != CategoryReview || plan.Items[0].SkillID != "offer" {
		t.Errorf("first item = %+v, want the due review of offer", plan.Items[0])
	}

	// Priorities are the queue positions.
	for i, it := range plan.Items {
		if it.Priority != i+1 {
			t.Errorf("item %d priority = %d, want %d", i, it.Priority, i+1)
		}
	}
}

func TestDailyPlanFinalPhaseLimitsNewLearning(t *testing.T) {
	o := newTestOrchestrator(t,
		fakeCards{},
		fakeHistory{practiced: map[string]bool{}},
		newMemPlanRepo(),
		fakeCalendar{days: 10},
	)

	plan, err := o.DailyPlan(context.Background(), "lrn")
	if err != nil {
		t.Fatalf("DailyPlan: %v", err)
	}
	if plan.Phase != "final" {
		t.Fatalf("phase = %q, want final", plan.Phase)
	}

	cfg := config.Default().Session
	newMinutes := 0
	for _, it := range plan.Items {
		if it.Category == CategoryNewLearning {
			newMinutes += it.EstimatedMinutes
		}
	}
	budget := int(float64(cfg.Final.DailyMinutes) * cfg.Final.NewRatio)
	if newMinutes > budget {
		t.Errorf("new-learning minutes = %d, exceeds final-phase budget %d", newMinutes, budget)
	}
}

func TestDailyPlanIdempotentForDay(t *testing.T) {
	repo := newMemPlanRepo()
	o := newTestOrchestrator(t,
		fakeCards{},
		fakeHistory{practiced: map[string]bool{}},
		repo,
		fakeCalendar{days: 90},
	)

	first, err := o.DailyPlan(context.Background(), "lrn")
	if err != nil {
		t.Fatalf("first DailyPlan: %v", err)
	}
	second, err := o.DailyPlan(context.Background(), "lrn")
	if err != nil {
		t.Fatalf("second DailyPlan: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("plan ids differ across same-day calls: %s vs %s", first.ID, second.ID)
	}
	if repo.saves != 1 {
		t.Errorf("saves = %d, want 1", repo.saves)
	}
}

func TestDailyPlanNeedsOnboarding(t *testing.T) {
	o := newTestOrchestrator(t,
		fakeCards{},
		fakeHistory{},
		newMemPlanRepo(),
		fakeCalendar{err: content.ErrNoExamProfile},
	)

	_, err := o.DailyPlan(context.Background(), "lrn")
	if !errors.Is(err, ErrNeedsOnboarding) {
		t.Fatalf("err = %v, want ErrNeedsOnboarding", err)
	}
}

func TestDailyPlanDegradedWithoutCards(t *testing.T) {
	o := newTestOrchestrator(t,
		fakeCards{err: errors.New("db unavailable")},
		fakeHistory{practiced: map[string]bool{}},
		newMemPlanRepo(),
		fakeCalendar{days: 200},
	)

	plan, err := o.DailyPlan(context.Background(), "lrn")
	if err != nil {
		t.Fatalf("DailyPlan: %v", err)
	}
	if len(plan.Degraded) == 0 {
		t.Fatal("expected degraded markers on a best-effort plan")
	}
	if len(plan.Items) == 0 {
		t.Fatal("degraded build should still produce a plan")
	}
	for _, it := range plan.Items {
		if it.Category == CategoryReview {
			t.Errorf("review item %s queued despite card failure", it.SkillID)
		}
	}
}

func TestRegenerateCarriesOverProgress(t *testing.T) {
	repo := newMemPlanRepo()
	o := newTestOrchestrator(t,
		fakeCards{},
		fakeHistory{practiced: map[string]bool{}},
		repo,
		fakeCalendar{days: 90},
	)
	ctx := context.Background()

	plan, err := o.DailyPlan(ctx, "lrn")
	if err != nil {
		t.Fatalf("DailyPlan: %v", err)
	}
	first := plan.Items[0]
	if err := o.MarkItem(ctx, plan, first.ID, StatusInProgress); err != nil {
		t.Fatalf("MarkItem: %v", err)
	}

	regen, err := o.Regenerate(ctx, "lrn")
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if regen.ID == plan.ID {
		t.Error("regenerated plan should be a fresh plan")
	}
	found := false
	for _, it := range regen.Items {
		if it.SkillID == first.SkillID && it.Category == first.Category {
			found = true
			if it.Status != StatusInProgress {
				t.Errorf("status = %q after regeneration, want in_progress carried over", it.Status)
			}
		}
	}
	if !found {
		t.Errorf("started skill %s missing from regenerated plan", first.SkillID)
	}
}

func TestMarkItemTransitions(t *testing.T) {
	repo := newMemPlanRepo()
	o := newTestOrchestrator(t,
		fakeCards{},
		fakeHistory{practiced: map[string]bool{}},
		repo,
		fakeCalendar{days: 90},
	)

	plan, err := o.DailyPlan(context.Background(), "lrn")
	if err != nil {
		t.Fatalf("DailyPlan: %v", err)
	}
	item := plan.Items[0]

	if err := o.MarkItem(context.Background(), plan, item.ID, StatusCompleted); err == nil {
		t.Error("queued -> completed should be rejected")
	}
	if err := o.MarkItem(context.Background(), plan, item.ID, StatusInProgress); err != nil {
		t.Fatalf("queued -> in_progress: %v", err)
	}
	if err := o.MarkItem(context.Background(), plan, item.ID, StatusCompleted); err != nil {
		t.Fatalf("in_progress -> completed: %v", err)
	}
	if err := o.MarkItem(context.Background(), plan, item.ID, StatusQueued); err == nil {
		t.Error("completed -> queued should be rejected")
	}
	if err := o.MarkItem(context.Background(), plan, "nope", StatusInProgress); err == nil {
		t.Error("unknown item id should be rejected")
	}
}
