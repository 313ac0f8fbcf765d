package skillgraph

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// weightTolerance is how far a unit's exam weights may drift from 1.0
// before the catalog is rejected.
const weightTolerance = 0.01

// validateCatalog performs all structural checks on the given catalog.
// Returns a combined error describing all problems found, or nil if valid.
func validateCatalog(units []Unit, skills []Skill) error {
	var errs []string

	unitSet := make(map[string]bool, len(units))
	for _, u := range units {
		if unitSet[u.ID] {
			errs = append(errs, fmt.Sprintf("duplicate unit ID: %q", u.ID))
		}
		unitSet[u.ID] = true
	}

	idSet := make(map[string]bool, len(skills))
	for _, s := range skills {
		if idSet[s.ID] {
			errs = append(errs, fmt.Sprintf("duplicate skill ID: %q", s.ID))
		}
		idSet[s.ID] = true

		if !unitSet[s.UnitID] {
			errs = append(errs, fmt.Sprintf("skill %q references nonexistent unit %q", s.ID, s.UnitID))
		}
		if s.ExamWeight < 0 || s.ExamWeight > 1 {
			errs = append(errs, fmt.Sprintf("skill %q has exam weight %.3f outside [0,1]", s.ID, s.ExamWeight))
		}
		switch s.Tier {
		case TierFoundation, TierCore, TierAdvanced:
		default:
			errs = append(errs, fmt.Sprintf("skill %q has unknown tier %q", s.ID, s.Tier))
		}
	}

	// Dangling prerequisites.
	for _, s := range skills {
		for _, prereqID := range s.Prerequisites {
			if !idSet[prereqID] {
				errs = append(errs, fmt.Sprintf("skill %q references nonexistent prerequisite %q", s.ID, prereqID))
			}
		}
	}

	// Per-unit exam weights must sum to 1.
	weightSums := make(map[string]float64)
	for _, s := range skills {
		weightSums[s.UnitID] += s.ExamWeight
	}
	for _, u := range units {
		if sum, ok := weightSums[u.ID]; ok && math.Abs(sum-1.0) > weightTolerance {
			errs = append(errs, fmt.Sprintf("unit %q exam weights sum to %.3f, want 1.0", u.ID, sum))
		}
	}

	// Cycle detection using Kahn's algorithm.
	inDegree := make(map[string]int, len(skills))
	adjList := make(map[string][]string)
	for _, s := range skills {
		inDegree[s.ID] = len(s.Prerequisites)
		for _, prereqID := range s.Prerequisites {
			adjList[prereqID] = append(adjList[prereqID], s.ID)
		}
	}

	var queue []string
	for _, s := range skills {
		if inDegree[s.ID] == 0 {
			queue = append(queue, s.ID)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, depID := range adjList[id] {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				queue = append(queue, depID)
			}
		}
	}

	if visited != len(skills) {
		var cyclic []string
		for id, deg := range inDegree {
			if deg > 0 {
				cyclic = append(cyclic, id)
			}
		}
		sort.Strings(cyclic)
		errs = append(errs, fmt.Sprintf("prerequisite cycle involving: %s", strings.Join(cyclic, ", ")))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid curriculum:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
