package model

// FlatNode is a snapshot with its ancestry recorded as a breadcrumb instead
// of children.
type FlatNode struct {
	Node     NodeSnapshot `json:"node"            yaml:"node"`
	ParentID string       `json:"parentId"        yaml:"parentId"`
	Depth    int          `json:"depth"           yaml:"depth"`
	Path     string       `json:"path,omitempty"  yaml:"path,omitempty"`
}

// Flatten converts a tree into a pre-order list. Each entry's Path joins the
// names of its ancestors with " > "; Node.Children is cleared.
func Flatten(roots ...NodeSnapshot) []FlatNode {
	var result []FlatNode
	for _, r := range roots {
		flattenRecursive(r, "", "", 0, &result)
	}
	return result
}

func flattenRecursive(n NodeSnapshot, parentID, parentPath string, depth int, result *[]FlatNode) {
	currentPath := n.Name
	if parentPath != "" {
		currentPath = parentPath + " > " + n.Name
	}

	flat := FlatNode{
		Node:     n,
		ParentID: parentID,
		Depth:    depth,
		Path:     parentPath,
	}
	flat.Node.Children = nil
	*result = append(*result, flat)

	for _, child := range n.Children {
		flattenRecursive(child, n.ID, currentPath, depth+1, result)
	}
}
