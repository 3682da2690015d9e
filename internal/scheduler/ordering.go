package scheduler

import (
	"sort"

	"MarketMind/internal/domain/models"
)

// orderAgents sorts the selected agents by ascending priority and then
// applies dependency resolution rounds. The resulting order is advisory
// for sequential/priority execution; it is never a runtime gate.
func orderAgents(specs []models.AgentSpec) []models.AgentSpec {
	sorted := make([]models.AgentSpec, len(specs))
	copy(sorted, specs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	ordered := make([]models.AgentSpec, 0, len(sorted))
	placed := make(map[string]bool, len(sorted))
	remaining := sorted

	for len(remaining) > 0 {
		// remaining stays priority-sorted, so the first eligible agent
		// is the lowest-priority one
		idx := -1
		for i, sp := range remaining {
			if depsPlaced(sp, placed) {
				idx = i
				break
			}
		}
		if idx < 0 {
			// cycle, or a dependency filtered out during selection;
			// give up and keep priority order for the rest
			ordered = append(ordered, remaining...)
			break
		}
		sp := remaining[idx]
		ordered = append(ordered, sp)
		placed[sp.Name] = true
		remaining = append(remaining[:idx:idx], remaining[idx+1:]...)
	}
	return ordered
}

func depsPlaced(sp models.AgentSpec, placed map[string]bool) bool {
	for _, dep := range sp.Dependencies {
		if !placed[dep] {
			return false
		}
	}
	return true
}
