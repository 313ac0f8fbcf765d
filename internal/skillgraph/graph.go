package skillgraph

import (
	"fmt"
	"slices"
	"sort"
)

// Graph holds the skill DAG with precomputed indices. Build once at
// startup from the curriculum file; safe for concurrent reads.
type Graph struct {
	skills     []Skill
	units      []Unit
	byID       map[string]*Skill
	byUnit     map[string][]Skill
	unitByID   map[string]*Unit
	dependents map[string][]string
	topoOrder  []Skill
	topoIndex  map[string]int
}

// NewGraph constructs and validates a graph from units and skills.
// It builds all indices including topological order (Kahn's algorithm).
func NewGraph(units []Unit, skills []Skill) (*Graph, error) {
	if err := validateCatalog(units, skills); err != nil {
		return nil, err
	}

	g := &Graph{
		skills:     skills,
		units:      units,
		byID:       make(map[string]*Skill, len(skills)),
		byUnit:     make(map[string][]Skill),
		unitByID:   make(map[string]*Unit, len(units)),
		dependents: make(map[string][]string),
		topoIndex:  make(map[string]int, len(skills)),
	}

	for i := range g.skills {
		g.byID[g.skills[i].ID] = &g.skills[i]
	}
	for i := range g.units {
		g.unitByID[g.units[i].ID] = &g.units[i]
	}

	// Reverse edges.
	for i := range g.skills {
		for _, prereqID := range g.skills[i].Prerequisites {
			g.dependents[prereqID] = append(g.dependents[prereqID], g.skills[i].ID)
		}
	}

	// Topological sort (Kahn's algorithm).
	inDegree := make(map[string]int, len(skills))
	for i := range skills {
		inDegree[skills[i].ID] = len(skills[i].Prerequisites)
	}

	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	var topoOrder []Skill
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		topoOrder = append(topoOrder, *g.byID[id])

		deps := slices.Clone(g.dependents[id])
		sort.Strings(deps)
		for _, depID := range deps {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				queue = append(queue, depID)
			}
		}
	}

	g.topoOrder = topoOrder
	for i, s := range g.topoOrder {
		g.topoIndex[s.ID] = i
	}

	// Group by unit, in topological order within each unit.
	for _, s := range g.topoOrder {
		g.byUnit[s.UnitID] = append(g.byUnit[s.UnitID], s)
	}

	return g, nil
}

// Skill returns a skill by ID, or an error if not found.
func (g *Graph) Skill(id string) (Skill, error) {
	s, ok := g.byID[id]
	if !ok {
		return Skill{}, fmt.Errorf("skill not found: %q", id)
	}
	return *s, nil
}

// Unit returns a unit by ID, or an error if not found.
func (g *Graph) Unit(id string) (Unit, error) {
	u, ok := g.unitByID[id]
	if !ok {
		return Unit{}, fmt.Errorf("unit not found: %q", id)
	}
	return *u, nil
}

// AllSkills returns all skills in the graph.
func (g *Graph) AllSkills() []Skill {
	return slices.Clone(g.skills)
}

// Units returns all units in declaration order.
func (g *Graph) Units() []Unit {
	return slices.Clone(g.units)
}

// ByUnit returns a unit's skills in topological order.
func (g *Graph) ByUnit(unitID string) []Skill {
	return slices.Clone(g.byUnit[unitID])
}

// Dependents returns skills that directly depend on the given skill ID.
func (g *Graph) Dependents(id string) []Skill {
	depIDs := g.dependents[id]
	result := make([]Skill, 0, len(depIDs))
	for _, depID := range depIDs {
		if s, ok := g.byID[depID]; ok {
			result = append(result, *s)
		}
	}
	return result
}

// IsUnlocked reports whether every prerequisite of the skill is in the
// mastered set.
func (g *Graph) IsUnlocked(id string, mastered map[string]bool) bool {
	s, ok := g.byID[id]
	if !ok {
		return false
	}
	for _, prereqID := range s.Prerequisites {
		if !mastered[prereqID] {
			return false
		}
	}
	return true
}

// AvailableSkills returns active skills that are unlocked but not yet
// mastered, in topological order.
func (g *Graph) AvailableSkills(mastered map[string]bool) []Skill {
	var result []Skill
	for _, s := range g.topoOrder {
		// Activity is checked through byID so Deactivate takes effect
		// without rebuilding the precomputed orderings.
		if !g.byID[s.ID].IsActive {
			continue
		}
		if !mastered[s.ID] && g.IsUnlocked(s.ID, mastered) {
			result = append(result, *g.byID[s.ID])
		}
	}
	return result
}

// TopologicalOrder returns all skills in a valid topological order.
func (g *Graph) TopologicalOrder() []Skill {
	return slices.Clone(g.topoOrder)
}

// Deactivate marks a skill inactive. The only runtime mutation the
// catalog permits.
func (g *Graph) Deactivate(id string) error {
	s, ok := g.byID[id]
	if !ok {
		return fmt.Errorf("skill not found: %q", id)
	}
	s.IsActive = false
	return nil
}
