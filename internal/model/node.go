package model

// Geometry is a node's box in the frame's absolute coordinate space.
type Geometry struct {
	X      float64 `json:"x"      yaml:"x"`
	Y      float64 `json:"y"      yaml:"y"`
	Width  float64 `json:"width"  yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// InferenceHint carries a shape-based role guess and any text found under a
// node whose own name says nothing useful (e.g. "Frame 24").
type InferenceHint struct {
	Role Role   `json:"role"           yaml:"role"`
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
}

// NodeSnapshot is the bounded, annotated serialization of one host node at
// request time. Semantic leaves never carry Children.
type NodeSnapshot struct {
	ID         string         `json:"id"                      yaml:"id"`
	Name       string         `json:"name"                    yaml:"name"`
	Type       string         `json:"type"                    yaml:"type"`
	Visible    bool           `json:"visible"                 yaml:"visible"`
	Geometry   Geometry       `json:"geometry"                yaml:"geometry"`
	Role       Role           `json:"role,omitempty"          yaml:"role,omitempty"`
	Focusable  bool           `json:"focusable"               yaml:"focusable"`
	Text       string         `json:"text,omitempty"          yaml:"text,omitempty"`
	ParentName string         `json:"parentName,omitempty"    yaml:"parentName,omitempty"`
	Hint       *InferenceHint `json:"inferenceHint,omitempty" yaml:"inferenceHint,omitempty"`
	Children   []NodeSnapshot `json:"children,omitempty"      yaml:"children,omitempty"`
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the node's children.
func (n *NodeSnapshot) Walk(fn func(node *NodeSnapshot) bool) {
	if !fn(n) {
		return
	}
	for i := range n.Children {
		n.Children[i].Walk(fn)
	}
}

// Count returns the number of nodes in the tree rooted at n.
func (n *NodeSnapshot) Count() int {
	total := 0
	n.Walk(func(*NodeSnapshot) bool {
		total++
		return true
	})
	return total
}

// Clone returns a deep copy of the tree rooted at n.
func (n NodeSnapshot) Clone() NodeSnapshot {
	out := n
	if n.Hint != nil {
		h := *n.Hint
		out.Hint = &h
	}
	if n.Children != nil {
		out.Children = make([]NodeSnapshot, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// IDSet returns every node id in the tree, keyed to its snapshot.
func IDSet(roots ...NodeSnapshot) map[string]NodeSnapshot {
	set := make(map[string]NodeSnapshot)
	for i := range roots {
		roots[i].Walk(func(n *NodeSnapshot) bool {
			if n.ID != "" {
				set[n.ID] = *n
			}
			return true
		})
	}
	return set
}
