package serialize

import (
	"github.com/mj1618/focusorder/internal/model"
)

// Reclassify fills role and focusable on snapshot nodes that arrive without
// a role, as older clients send them. Nodes that already carry a role are
// left alone.
func Reclassify(root *model.NodeSnapshot, platform model.Platform) {
	root.Walk(func(n *model.NodeSnapshot) bool {
		if n.Role != "" {
			return true
		}
		if n.Type == "text" {
			n.Role = model.RoleText
			return true
		}
		n.Role = platform.NormalizeRole(model.RoleFromName(n.Name))
		if model.IsFocusRole(n.Role) {
			n.Focusable = true
		}
		return true
	})
}
