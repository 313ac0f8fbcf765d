package skillgraph

import (
	"strings"
	"testing"
)

func testUnits() []Unit {
	return []Unit{
		{ID: "contracts", Name: "Contracts"},
		{ID: "torts", Name: "Torts"},
	}
}

func testSkills() []Skill {
	return []Skill{
		{ID: "k-formation", Code: "K1", Name: "Contract Formation", UnitID: "contracts", ExamWeight: 0.5, Tier: TierFoundation, IsActive: true},
		{ID: "k-remedies", Code: "K2", Name: "Contract Remedies", UnitID: "contracts", ExamWeight: 0.5, Tier: TierCore, Prerequisites: []string{"k-formation"}, IsActive: true},
		{ID: "t-negligence", Code: "T1", Name: "Negligence", UnitID: "torts", ExamWeight: 0.6, Tier: TierFoundation, IsActive: true},
		{ID: "t-strict", Code: "T2", Name: "Strict Liability", UnitID: "torts", ExamWeight: 0.4, Tier: TierAdvanced, Prerequisites: []string{"t-negligence"}, IsActive: true},
	}
}

func mustGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := NewGraph(testUnits(), testSkills())
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	return g
}

func TestSkill_Exists(t *testing.T) {
	g := mustGraph(t)
	s, err := g.Skill("k-remedies")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.UnitID != "contracts" {
		t.Errorf("got unit %q, want contracts", s.UnitID)
	}
	if s.Tier != TierCore {
		t.Errorf("got tier %q, want core", s.Tier)
	}
}

func TestSkill_NotFound(t *testing.T) {
	g := mustGraph(t)
	if _, err := g.Skill("nonexistent"); err == nil {
		t.Fatal("expected error for nonexistent skill, got nil")
	}
}

func TestTopologicalOrder_PrereqsFirst(t *testing.T) {
	g := mustGraph(t)
	pos := make(map[string]int)
	for i, s := range g.TopologicalOrder() {
		pos[s.ID] = i
	}
	if pos["k-formation"] > pos["k-remedies"] {
		t.Error("k-formation should precede k-remedies in topological order")
	}
	if pos["t-negligence"] > pos["t-strict"] {
		t.Error("t-negligence should precede t-strict in topological order")
	}
}

func TestIsUnlocked(t *testing.T) {
	g := mustGraph(t)
	mastered := map[string]bool{"k-formation": true}

	if !g.IsUnlocked("k-remedies", mastered) {
		t.Error("k-remedies should be unlocked with k-formation mastered")
	}
	if g.IsUnlocked("t-strict", mastered) {
		t.Error("t-strict should stay locked without t-negligence")
	}
}

func TestAvailableSkills_SkipsMasteredAndInactive(t *testing.T) {
	g := mustGraph(t)
	mastered := map[string]bool{"t-negligence": true}

	if err := g.Deactivate("k-formation"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	var ids []string
	for _, s := range g.AvailableSkills(mastered) {
		ids = append(ids, s.ID)
	}
	want := map[string]bool{"t-strict": true}
	for _, id := range ids {
		if !want[id] {
			t.Errorf("unexpected available skill %q", id)
		}
	}
	if len(ids) != 1 {
		t.Errorf("got %d available skills %v, want 1", len(ids), ids)
	}
}

func TestDependents(t *testing.T) {
	g := mustGraph(t)
	deps := g.Dependents("k-formation")
	if len(deps) != 1 || deps[0].ID != "k-remedies" {
		t.Errorf("Dependents(k-formation) = %v, want [k-remedies]", deps)
	}
}

func TestNewGraph_RejectsCycle(t *testing.T) {
	skills := testSkills()
	skills[0].Prerequisites = []string{"k-remedies"}
	_, err := NewGraph(testUnits(), skills)
	if err == nil {
		t.Fatal("expected cycle error, got nil")
	}
	if !strings.Contains(err.Error(), "cycle") {
		t.Errorf("error %q should mention cycle", err)
	}
}

func TestNewGraph_RejectsBadWeights(t *testing.T) {
	skills := testSkills()
	skills[2].ExamWeight = 0.9 // torts now sums to 1.3
	_, err := NewGraph(testUnits(), skills)
	if err == nil {
		t.Fatal("expected weight error, got nil")
	}
	if !strings.Contains(err.Error(), "exam weights sum") {
		t.Errorf("error %q should mention weight sum", err)
	}
}

func TestNewGraph_RejectsDanglingPrereq(t *testing.T) {
	skills := testSkills()
	skills[3].Prerequisites = []string{"no-such-skill"}
	_, err := NewGraph(testUnits(), skills)
	if err == nil {
		t.Fatal("expected dangling prerequisite error, got nil")
	}
}
