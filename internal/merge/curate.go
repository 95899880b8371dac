package merge

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mj1618/focusorder/internal/model"
)

// Edit is a set of human corrections to a sequence, keyed by node id.
type Edit struct {
	// Moves places an item at a 1-based position.
	Moves  map[string]int
	Roles  map[string]model.Role
	Labels map[string]string
}

// Curate applies e to items. Every item of the result is marked manual,
// since a curated sequence is accepted as a whole. Moves are applied in
// ascending target position; positions past the end clamp to the end.
func Curate(items []model.FocusItem, e Edit) ([]model.FocusItem, error) {
	out := slices.Clone(items)
	index := func(id string) int {
		return slices.IndexFunc(out, func(it model.FocusItem) bool { return it.ID == id })
	}

	for id, role := range e.Roles {
		i := index(id)
		if i < 0 {
			return nil, fmt.Errorf("role: unknown item %q", id)
		}
		if !model.IsFocusRole(role) {
			return nil, fmt.Errorf("role: %q is not a focusable role", role)
		}
		out[i].Role = role
	}
	for id, label := range e.Labels {
		i := index(id)
		if i < 0 {
			return nil, fmt.Errorf("label: unknown item %q", id)
		}
		label = strings.Join(strings.Fields(label), " ")
		if label == "" {
			return nil, fmt.Errorf("label: empty label for %q", id)
		}
		out[i].Label = label
	}

	moves := make([]string, 0, len(e.Moves))
	for id, pos := range e.Moves {
		if index(id) < 0 {
			return nil, fmt.Errorf("move: unknown item %q", id)
		}
		if pos < 1 {
			return nil, fmt.Errorf("move: position %d for %q must be at least 1", pos, id)
		}
		moves = append(moves, id)
	}
	slices.SortFunc(moves, func(a, b string) int {
		if e.Moves[a] != e.Moves[b] {
			return e.Moves[a] - e.Moves[b]
		}
		return strings.Compare(a, b)
	})
	for _, id := range moves {
		i := index(id)
		it := out[i]
		out = slices.Delete(out, i, i+1)
		pos := min(e.Moves[id]-1, len(out))
		out = slices.Insert(out, pos, it)
	}

	for i := range out {
		out[i].Source = model.SourceManual
	}
	return model.Reindex(out), nil
}
