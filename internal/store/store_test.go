package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/jurisprep/internal/attempt"
	"github.com/abhisek/jurisprep/internal/config"
	"github.com/abhisek/jurisprep/internal/content"
	"github.com/abhisek/jurisprep/internal/mastery"
	"github.com/abhisek/jurisprep/internal/session"
	"github.com/abhisek/jurisprep/internal/spacedrep"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	// A file-backed database: the connection pool makes :memory: unsafe.
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMasteryRepoRoundtrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.MasteryRepo()
	ctx := context.Background()

	_, found, err := repo.Get(ctx, "lrn", "offer")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Fatal("found a record in an empty store")
	}

	st := mastery.State{
		LearnerID:       "lrn",
		SkillID:         "offer",
		PMastery:        0.56,
		Stability:       1.3,
		AttemptCount:    1,
		CorrectCount:    1,
		LastPracticedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		NextReviewDate:  time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC),
	}
	if err := repo.Save(ctx, st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, found, err := repo.Get(ctx, "lrn", "offer")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatal("record not found after save")
	}
	if got.PMastery != 0.56 || got.AttemptCount != 1 {
		t.Errorf("got %+v, want saved state back", got)
	}

	// Second save for the same pair updates in place.
	st.PMastery = 0.62
	st.AttemptCount = 2
	if err := repo.Save(ctx, st); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	states, err := repo.ListForLearner(ctx, "lrn")
	if err != nil {
		t.Fatalf("ListForLearner: %v", err)
	}
	if len(states) != 1 {
		t.Fatalf("got %d rows after upsert, want 1", len(states))
	}
	if states[0].PMastery != 0.62 {
		t.Errorf("PMastery = %v after upsert, want 0.62", states[0].PMastery)
	}
}

func TestCardRepoRoundtrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.CardRepo()
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	card := spacedrep.NewCard("lrn", "content-1", "offer", "contracts", now)
	if err := repo.Save(ctx, card); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, found, err := repo.Get(ctx, "lrn", "content-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatal("card not found after save")
	}
	if got.EasinessFactor != 2.5 || got.SkillID != "offer" {
		t.Errorf("got %+v, want saved card back", got)
	}

	// Review and re-save must not create a second row.
	reviewed, err := spacedrep.Review(got, 5, now.AddDate(0, 0, 1), config.Default().SpacedRep)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if err := repo.Save(ctx, reviewed); err != nil {
		t.Fatalf("re-Save: %v", err)
	}
	cards, err := repo.CardsForLearner(ctx, "lrn")
	if err != nil {
		t.Fatalf("CardsForLearner: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("got %d cards after upsert, want 1", len(cards))
	}
	if cards[0].Repetitions != 1 {
		t.Errorf("Repetitions = %d after review, want 1", cards[0].Repetitions)
	}
}

func TestAttemptRepoAppendAndQuery(t *testing.T) {
	s := openTestStore(t)
	repo := s.AttemptRepo()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, skill := range []string{"offer", "offer", "negligence"} {
		a := attempt.Attempt{
			ID:        uuid.NewString(),
			LearnerID: "lrn",
			ItemID:    "item",
			SkillIDs:  []string{skill},
			Format:    attempt.FormatMCQ,
			Mode:      attempt.ModePractice,
			Activity:  attempt.ActivityQuiz,
			ScoreNorm: 0.8,
			Timestamp: base.AddDate(0, 0, i),
			ErrorTags: []string{"misses-counteroffer"},
		}
		if err := repo.Append(ctx, a); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	all, err := repo.Since(ctx, "lrn", base)
	if err != nil {
		t.Fatalf("Since: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d attempts, want 3", len(all))
	}
	if all[0].ErrorTags[0] != "misses-counteroffer" {
		t.Errorf("error tags lost in roundtrip: %+v", all[0])
	}

	offerOnly, err := repo.SinceForSkill(ctx, "lrn", "offer", base)
	if err != nil {
		t.Fatalf("SinceForSkill: %v", err)
	}
	if len(offerOnly) != 2 {
		t.Errorf("got %d offer attempts, want 2", len(offerOnly))
	}

	recent, err := repo.Since(ctx, "lrn", base.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("Since cutoff: %v", err)
	}
	if len(recent) != 1 {
		t.Errorf("got %d attempts after cutoff, want 1", len(recent))
	}

	n, err := repo.Count(ctx, "lrn")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
}

func testPlan(learnerID string, date time.Time) *session.Plan {
	return &session.Plan{
		ID:        uuid.NewString(),
		LearnerID: learnerID,
		Date:      date,
		Phase:     "intensive",
		Items: []session.PlanItem{
			{
				ID:               uuid.NewString(),
				SkillID:          "offer",
				Category:         session.CategoryReview,
				EstimatedMinutes: 15,
				Priority:         1,
				Rationale:        "Review due",
				Status:           session.StatusQueued,
			},
			{
				ID:               uuid.NewString(),
				SkillID:          "negligence",
				Category:         session.CategoryNewLearning,
				EstimatedMinutes: 25,
				Priority:         2,
				Rationale:        "New material",
				Status:           session.StatusQueued,
			},
		},
		CreatedAt: date,
	}
}

func TestPlanRepoSaveAndLoad(t *testing.T) {
	s := openTestStore(t)
	repo := s.PlanRepo()
	ctx := context.Background()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	none, err := repo.PlanForDate(ctx, "lrn", day)
	if err != nil {
		t.Fatalf("PlanForDate: %v", err)
	}
	if none != nil {
		t.Fatal("found a plan in an empty store")
	}

	p := testPlan("lrn", day)
	if err := repo.SavePlan(ctx, p); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}

	got, err := repo.PlanForDate(ctx, "lrn", day)
	if err != nil {
		t.Fatalf("PlanForDate: %v", err)
	}
	if got == nil {
		t.Fatal("plan not found after save")
	}
	if got.ID != p.ID || len(got.Items) != 2 {
		t.Errorf("got %+v, want saved plan back", got)
	}
	if got.Items[0].Category != session.CategoryReview {
		t.Errorf("items out of priority order: %+v", got.Items)
	}

	// Second plan for the same day hits the unique index.
	dupe := testPlan("lrn", day)
	if err := repo.SavePlan(ctx, dupe); !errors.Is(err, session.ErrPlanExists) {
		t.Errorf("duplicate SavePlan err = %v, want ErrPlanExists", err)
	}

	// A different learner on the same day is fine.
	if err := repo.SavePlan(ctx, testPlan("other", day)); err != nil {
		t.Errorf("SavePlan for other learner: %v", err)
	}
}

func TestPlanRepoReplacePlan(t *testing.T) {
	s := openTestStore(t)
	repo := s.PlanRepo()
	ctx := context.Background()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	if err := repo.SavePlan(ctx, testPlan("lrn", day)); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}

	replacement := testPlan("lrn", day)
	replacement.Phase = "revision"
	if err := repo.ReplacePlan(ctx, replacement); err != nil {
		t.Fatalf("ReplacePlan: %v", err)
	}

	got, err := repo.PlanForDate(ctx, "lrn", day)
	if err != nil {
		t.Fatalf("PlanForDate: %v", err)
	}
	if got == nil || got.ID != replacement.ID || got.Phase != "revision" {
		t.Errorf("got %+v, want the replacement plan", got)
	}
	if len(got.Items) != 2 {
		t.Errorf("got %d items, want the replacement's 2", len(got.Items))
	}
}

func TestPlanRepoPracticedSkills(t *testing.T) {
	s := openTestStore(t)
	repo := s.PlanRepo()
	ctx := context.Background()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	p := testPlan("lrn", day)
	if err := repo.SavePlan(ctx, p); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}

	practiced, err := repo.PracticedSkills(ctx, "lrn")
	if err != nil {
		t.Fatalf("PracticedSkills: %v", err)
	}
	if len(practiced) != 0 {
		t.Fatalf("practiced = %v before any completion, want empty", practiced)
	}

	if err := repo.UpdateItemStatus(ctx, p.ID, p.Items[0].ID, session.StatusCompleted); err != nil {
		t.Fatalf("UpdateItemStatus: %v", err)
	}

	practiced, err = repo.PracticedSkills(ctx, "lrn")
	if err != nil {
		t.Fatalf("PracticedSkills: %v", err)
	}
	if !practiced["offer"] || practiced["negligence"] {
		t.Errorf("practiced = %v, want only the completed skill", practiced)
	}

	// Skipped items don't count as exposure.
	if err := repo.UpdateItemStatus(ctx, p.ID, p.Items[1].ID, session.StatusSkipped); err != nil {
		t.Fatalf("UpdateItemStatus: %v", err)
	}
	practiced, _ = repo.PracticedSkills(ctx, "lrn")
	if practiced["negligence"] {
		t.Error("skipped item counted as practiced")
	}

	if err := repo.UpdateItemStatus(ctx, p.ID, "missing", session.StatusCompleted); err == nil {
		t.Error("UpdateItemStatus for unknown item should fail")
	}
}

func TestExamRepoDaysUntilWritten(t *testing.T) {
	s := openTestStore(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo := s.ExamRepo(func() time.Time { return now })
	ctx := context.Background()

	_, err := repo.DaysUntilWritten(ctx, "lrn")
	if !errors.Is(err, content.ErrNoExamProfile) {
		t.Fatalf("err = %v, want ErrNoExamProfile", err)
	}

	profile := ExamProfileRow{
		LearnerID:       "lrn",
		WrittenExamDate: now.AddDate(0, 0, 45),
	}
	if err := repo.SaveProfile(ctx, profile); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	days, err := repo.DaysUntilWritten(ctx, "lrn")
	if err != nil {
		t.Fatalf("DaysUntilWritten: %v", err)
	}
	if days != 45 {
		t.Errorf("days = %d, want 45", days)
	}

	// Past exams floor at zero.
	profile.WrittenExamDate = now.AddDate(0, 0, -3)
	if err := repo.SaveProfile(ctx, profile); err != nil {
		t.Fatalf("SaveProfile update: %v", err)
	}
	days, err = repo.DaysUntilWritten(ctx, "lrn")
	if err != nil {
		t.Fatalf("DaysUntilWritten: %v", err)
	}
	if days != 0 {
		t.Errorf("days = %d for a past exam, want 0", days)
	}
}

func TestAtomicallyRollsBack(t *testing.T) {
	s := openTestStore(t)
	repo := s.MasteryRepo()
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.Atomically(ctx, func(txCtx context.Context) error {
		st := mastery.State{LearnerID: "lrn", SkillID: "offer", PMastery: 0.5, Stability: 1}
		if err := repo.Save(txCtx, st); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the inner error", err)
	}

	_, found, err := repo.Get(ctx, "lrn", "offer")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Error("write survived a rolled-back transaction")
	}
}
