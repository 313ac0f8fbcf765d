package session

import "github.com/abhisek/jurisprep/internal/skillgraph"

// UnitDebt is one unit's exposure debt: the fraction of its skills the
// learner has never practiced. Deliberately score-blind; mastery debt
// is the gate/remediation system's job, this measures coverage only.
type UnitDebt struct {
	UnitID     string
	ExamWeight float64
	Total      int
	Practiced  int
	Debt       float64
}

// CoverageDebt computes per-unit exposure debt. A skill counts as
// practiced if it appears in any completed session block's target-skill
// set, regardless of how it scored. Inactive skills don't count against
// coverage.
func CoverageDebt(graph *skillgraph.Graph, practiced map[string]bool) []UnitDebt {
	var debts []UnitDebt
	for _, u := range graph.Units() {
		d := UnitDebt{UnitID: u.ID, ExamWeight: u.ExamWeight}
		for _, s := range graph.ByUnit(u.ID) {
			// Re-resolve by ID: Deactivate mutates the canonical record,
			// not the per-unit ordering.
			cur, err := graph.Skill(s.ID)
			if err != nil || !cur.IsActive {
				continue
			}
			d.Total++
			if practiced[s.ID] {
				d.Practiced++
			}
		}
		if d.Total > 0 {
			d.Debt = 1 - float64(d.Practiced)/float64(d.Total)
		}
		debts = append(debts, d)
	}
	return debts
}
