package model

// containerTypes are node types that only group other nodes.
var containerTypes = map[string]bool{
	"frame":     true,
	"group":     true,
	"section":   true,
	"component": true,
	"instance":  true,
}

// isStructural returns true if the node is an anonymous container that adds
// nothing for a focus-order consumer: not focusable, no role, no text, and a
// generic name.
func isStructural(n NodeSnapshot) bool {
	return containerTypes[n.Type] && !n.Focusable &&
		(n.Role == "" || n.Role == RoleNone) &&
		n.Text == "" && n.Hint == nil && IsGenericName(n.Name)
}

// PruneStructural removes anonymous structural containers below the root,
// promoting their children to the parent. The root itself is always kept.
func PruneStructural(root NodeSnapshot) NodeSnapshot {
	root.Children = pruneChildren(root.Children)
	return root
}

func pruneChildren(nodes []NodeSnapshot) []NodeSnapshot {
	var result []NodeSnapshot
	for _, n := range nodes {
		children := pruneChildren(n.Children)
		if isStructural(n) {
			for i := range children {
				if children[i].ParentName == n.Name {
					children[i].ParentName = n.ParentName
				}
			}
			result = append(result, children...)
			continue
		}
		pruned := n
		pruned.Children = children
		result = append(result, pruned)
	}
	return result
}

// PruneToBudget shrinks a tree to at most budget nodes. Structural
// containers are pruned first; if that is not enough the tree is truncated
// in pre-order, keeping focusable nodes ahead of everything else. It reports
// whether any node was dropped.
func PruneToBudget(root NodeSnapshot, budget int) (NodeSnapshot, bool) {
	if budget <= 0 || root.Count() <= budget {
		return root, false
	}
	root = PruneStructural(root)
	if root.Count() <= budget {
		return root, true
	}

	keep := map[string]bool{root.ID: true}
	remaining := budget - 1
	// Focus stops and their ancestors first, then the rest in pre-order.
	for _, pass := range []func(NodeSnapshot) bool{
		func(n NodeSnapshot) bool { return n.Focusable },
		func(NodeSnapshot) bool { return true },
	} {
		markWithAncestors(&root, nil, pass, keep, &remaining)
	}
	return filterKept(root, keep), true
}

func markWithAncestors(n *NodeSnapshot, ancestors []*NodeSnapshot, want func(NodeSnapshot) bool, keep map[string]bool, remaining *int) {
	if *remaining <= 0 {
		return
	}
	if want(*n) && !keep[n.ID] {
		var missing []*NodeSnapshot
		for _, a := range ancestors {
			if !keep[a.ID] {
				missing = append(missing, a)
			}
		}
		if len(missing)+1 <= *remaining {
			for _, a := range missing {
				keep[a.ID] = true
			}
			keep[n.ID] = true
			*remaining -= len(missing) + 1
		}
	}
	path := append(ancestors, n)
	for i := range n.Children {
		markWithAncestors(&n.Children[i], path, want, keep, remaining)
	}
}

func filterKept(n NodeSnapshot, keep map[string]bool) NodeSnapshot {
	var children []NodeSnapshot
	for _, c := range n.Children {
		if keep[c.ID] {
			children = append(children, filterKept(c, keep))
		}
	}
	n.Children = children
	return n
}
