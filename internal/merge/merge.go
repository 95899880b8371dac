// Package merge combines heuristic, model and manual focus orders.
package merge

import (
	"github.com/mj1618/focusorder/internal/model"
)

// Merge builds one sequence from the three sources. Manual entries come
// first, then model entries for nodes without a manual entry, then
// heuristic entries for nodes covered by neither. Each source keeps its own
// order, duplicate ids are dropped, every item is tagged with its source,
// and the result is renumbered 1..N regardless of the order values carried
// in.
func Merge(heuristic, ai, manual []model.FocusItem) []model.FocusItem {
	seen := make(map[string]bool, len(heuristic)+len(ai)+len(manual))
	out := make([]model.FocusItem, 0, len(heuristic)+len(ai)+len(manual))

	add := func(items []model.FocusItem, src model.Source) {
		for _, it := range items {
			if it.ID == "" || seen[it.ID] {
				continue
			}
			seen[it.ID] = true
			it.Source = src
			out = append(out, it)
		}
	}
	add(manual, model.SourceManual)
	add(ai, model.SourceAI)
	add(heuristic, model.SourceHeuristic)

	return model.Reindex(out)
}

// Manual returns the manual entries of a saved sequence.
func Manual(saved []model.FocusItem) []model.FocusItem {
	var out []model.FocusItem
	for _, it := range saved {
		if it.Source == model.SourceManual {
			out = append(out, it)
		}
	}
	return out
}

// CarryForward matches saved manual entries to a fresh tree by node id.
// Entries whose node no longer exists are dropped and their ids returned.
func CarryForward(saved []model.FocusItem, trees ...model.NodeSnapshot) (kept []model.FocusItem, dropped []string) {
	ids := model.IDSet(trees...)
	for _, it := range Manual(saved) {
		if _, ok := ids[it.ID]; ok {
			kept = append(kept, it)
		} else {
			dropped = append(dropped, it.ID)
		}
	}
	return kept, dropped
}
