package model

// ChangeType represents the kind of focus-order change detected.
type ChangeType string

const (
	ChangeAdded   ChangeType = "added"
	ChangeRemoved ChangeType = "removed"
	ChangeMoved   ChangeType = "moved"
	ChangeChanged ChangeType = "changed"
)

// SequenceChange is one difference between two focus orders.
type SequenceChange struct {
	Type    ChangeType           `json:"type"              yaml:"type"`
	ID      string               `json:"id"                yaml:"id"`
	Label   string               `json:"label,omitempty"   yaml:"label,omitempty"`
	From    int                  `json:"from,omitempty"    yaml:"from,omitempty"`
	To      int                  `json:"to,omitempty"      yaml:"to,omitempty"`
	Changes map[string][2]string `json:"changes,omitempty" yaml:"changes,omitempty"`
}

// DiffSequences compares two focus orders. Items are matched by node id, not
// by position, so an insertion does not report every later item as changed.
func DiffSequences(prev, curr []FocusItem) []SequenceChange {
	prevMap := make(map[string]FocusItem, len(prev))
	for _, it := range prev {
		prevMap[it.ID] = it
	}
	currMap := make(map[string]FocusItem, len(curr))
	for _, it := range curr {
		currMap[it.ID] = it
	}

	var changes []SequenceChange

	for _, it := range curr {
		old, existed := prevMap[it.ID]
		if !existed {
			changes = append(changes, SequenceChange{Type: ChangeAdded, ID: it.ID, Label: it.Label, To: it.Order})
			continue
		}
		if old.Order != it.Order {
			changes = append(changes, SequenceChange{Type: ChangeMoved, ID: it.ID, Label: it.Label, From: old.Order, To: it.Order})
		}
		if diffs := diffItemProperties(old, it); diffs != nil {
			changes = append(changes, SequenceChange{Type: ChangeChanged, ID: it.ID, Label: it.Label, Changes: diffs})
		}
	}

	for _, it := range prev {
		if _, exists := currMap[it.ID]; !exists {
			changes = append(changes, SequenceChange{Type: ChangeRemoved, ID: it.ID, Label: it.Label, From: it.Order})
		}
	}

	return changes
}

// diffItemProperties compares the user-visible fields of two matched items.
func diffItemProperties(prev, curr FocusItem) map[string][2]string {
	diffs := make(map[string][2]string)
	if prev.Label != curr.Label {
		diffs["label"] = [2]string{prev.Label, curr.Label}
	}
	if prev.Role != curr.Role {
		diffs["role"] = [2]string{string(prev.Role), string(curr.Role)}
	}
	if len(diffs) == 0 {
		return nil
	}
	return diffs
}
