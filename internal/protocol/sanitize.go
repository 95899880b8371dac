package protocol

import (
	"strings"

	"github.com/mj1618/focusorder/internal/heuristics"
	"github.com/mj1618/focusorder/internal/model"
)

// SanitizeResult reports what Sanitize kept and threw away.
type SanitizeResult struct {
	Items      []model.FocusItem
	Unknown    int
	Duplicates int
}

// Sanitize turns untrusted model entries into focus items. Entries whose id
// is not in universe, or that repeat an earlier id, are dropped. A missing
// or unknown role or label is filled from the heuristic item for the same
// node, then from the node itself. Items come back tagged as ai, in model
// order, numbered 1..N.
func Sanitize(entries []ModelEntry, universe map[string]model.NodeSnapshot, heuristic []model.FocusItem, platform model.Platform) SanitizeResult {
	byID := make(map[string]model.FocusItem, len(heuristic))
	for _, it := range heuristic {
		byID[it.ID] = it
	}

	var res SanitizeResult
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		id := strings.TrimSpace(e.ID)
		node, ok := universe[id]
		if !ok {
			res.Unknown++
			continue
		}
		if seen[id] {
			res.Duplicates++
			continue
		}
		seen[id] = true

		fallback, hasFallback := byID[id]
		item := model.FocusItem{ID: id, Source: model.SourceAI}

		if r, known := model.ParseRole(e.Role); known && r != model.RoleNone {
			item.Role = r
		} else if hasFallback {
			item.Role = fallback.Role
		} else if model.IsFocusRole(node.Role) {
			item.Role = node.Role
		} else {
			item.Role = model.RoleButton
		}
		item.Role = platform.NormalizeRole(item.Role)

		item.Label = strings.Join(strings.Fields(e.Label), " ")
		if item.Label == "" {
			if hasFallback {
				item.Label = fallback.Label
			} else {
				item.Label = heuristics.Label(node)
			}
		}

		switch {
		case e.Position != nil:
			pos := *e.Position
			item.Position = &pos
		case hasFallback && fallback.Position != nil:
			pos := *fallback.Position
			item.Position = &pos
		default:
			item.Position = &model.Position{X: node.Geometry.X, Y: node.Geometry.Y}
		}
		res.Items = append(res.Items, item)
	}
	res.Items = model.Reindex(res.Items)
	return res
}
