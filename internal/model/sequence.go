package model

import "time"

// Source records which stage produced a focus item.
type Source string

const (
	SourceHeuristic Source = "heuristic"
	SourceAI        Source = "ai"
	SourceManual    Source = "manual"
)

// Position is the overlay anchor for a focus item.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// FocusItem is one stop in a focus order. ID always references a node in the
// originating tree.
type FocusItem struct {
	ID       string    `json:"id"                 yaml:"id"`
	Label    string    `json:"label"              yaml:"label"`
	Role     Role      `json:"role"               yaml:"role"`
	Order    int       `json:"order"              yaml:"order"`
	Position *Position `json:"position,omitempty" yaml:"position,omitempty"`
	Source   Source    `json:"source,omitempty"   yaml:"source,omitempty"`
}

// FocusSequence is an ordered focus order plus provenance. It is also the
// unit persisted per frame, always replaced whole.
type FocusSequence struct {
	FrameID   string      `json:"frameId"         yaml:"frameId"`
	FrameName string      `json:"frameName"       yaml:"frameName"`
	Platform  Platform    `json:"platform"        yaml:"platform"`
	Checksum  string      `json:"checksum"        yaml:"checksum"`
	Items     []FocusItem `json:"items"           yaml:"items"`
	Notes     string      `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt time.Time   `json:"createdAt"       yaml:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"       yaml:"updatedAt"`
}

// Reindex rewrites Order as a contiguous 1..N over the slice order.
func Reindex(items []FocusItem) []FocusItem {
	out := make([]FocusItem, len(items))
	for i, it := range items {
		it.Order = i + 1
		out[i] = it
	}
	return out
}

// IsContiguous reports whether the order values are exactly {1..N}.
func IsContiguous(items []FocusItem) bool {
	seen := make([]bool, len(items)+1)
	for _, it := range items {
		if it.Order < 1 || it.Order > len(items) || seen[it.Order] {
			return false
		}
		seen[it.Order] = true
	}
	return true
}
