// Package heuristics derives a deterministic focus order from a snapshot
// tree without any external model.
package heuristics

import (
	"github.com/mj1618/focusorder/internal/model"
)

// ExtractCandidates flattens a tree into the nodes worth ordering: nodes
// already marked focusable, nodes whose name matches an interactive pattern,
// nodes carrying an inference hint, and text-bearing nodes. Returned nodes
// have no children. A focusable container without its own text takes the
// first text found beneath it.
func ExtractCandidates(trees ...model.NodeSnapshot) []model.NodeSnapshot {
	var out []model.NodeSnapshot
	for i := range trees {
		trees[i].Walk(func(n *model.NodeSnapshot) bool {
			if !n.Visible {
				return false
			}
			if !isCandidate(*n) {
				return true
			}
			c := *n
			c.Children = nil
			if c.Focusable && c.Text == "" {
				c.Text = firstText(n.Children)
			}
			out = append(out, c)
			return true
		})
	}
	return out
}

func isCandidate(n model.NodeSnapshot) bool {
	if n.Focusable || n.Hint != nil || n.Text != "" {
		return true
	}
	return model.IsFocusRole(model.RoleFromName(n.Name))
}

func firstText(nodes []model.NodeSnapshot) string {
	for i := range nodes {
		var found string
		nodes[i].Walk(func(n *model.NodeSnapshot) bool {
			if found != "" {
				return false
			}
			if n.Visible && n.Text != "" {
				found = n.Text
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}
