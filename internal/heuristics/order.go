package heuristics

import (
	"github.com/mj1618/focusorder/internal/model"
)

// rolePriority breaks ties between candidates that share a row and column
// band. Lower sorts first.
var rolePriority = map[model.Role]int{
	model.RoleButton:   0,
	model.RoleLink:     1,
	model.RoleTab:      2,
	model.RoleTextbox:  3,
	model.RoleCheckbox: 4,
	model.RoleSwitch:   4,
	model.RoleSlider:   4,
}

func priority(n model.NodeSnapshot) int {
	if p, ok := rolePriority[n.Role]; ok {
		return p
	}
	return 5
}

func byPriority(a, b model.NodeSnapshot) int {
	return priority(a) - priority(b)
}

// ComputeOrder sorts candidates into reading order and returns one focus
// item per focusable candidate, numbered 1..N. It is pure: the same input
// always yields the same output.
func ComputeOrder(candidates []model.NodeSnapshot) []model.FocusItem {
	sorted := model.ReadingOrder(candidates,
		func(n model.NodeSnapshot) model.Geometry { return n.Geometry },
		model.RowTolerance, byPriority)

	var (
		items []model.FocusItem
		nodes = make(map[string]model.NodeSnapshot)
		seen  = make(map[string]bool)
	)
	for _, n := range sorted {
		if !n.Focusable || seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		nodes[n.ID] = n
		items = append(items, model.FocusItem{
			ID:       n.ID,
			Label:    Label(n),
			Role:     itemRole(n),
			Position: &model.Position{X: n.Geometry.X, Y: n.Geometry.Y},
			Source:   model.SourceHeuristic,
		})
	}
	items = Disambiguate(items, nodes)
	return model.Reindex(items)
}

// Order is ComputeOrder(ExtractCandidates(trees...)).
func Order(trees ...model.NodeSnapshot) []model.FocusItem {
	return ComputeOrder(ExtractCandidates(trees...))
}

// CountFocusable returns the number of focusable candidates in the trees.
func CountFocusable(trees ...model.NodeSnapshot) int {
	n := 0
	for _, c := range ExtractCandidates(trees...) {
		if c.Focusable {
			n++
		}
	}
	return n
}

func itemRole(n model.NodeSnapshot) model.Role {
	if model.IsFocusRole(n.Role) {
		return n.Role
	}
	if n.Hint != nil && model.IsFocusRole(n.Hint.Role) {
		return n.Hint.Role
	}
	return model.RoleButton
}
