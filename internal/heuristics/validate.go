package heuristics

import (
	"fmt"

	"github.com/mj1618/focusorder/internal/model"
)

// BackwardJumpThreshold is how far, in layout units, a focus stop may sit
// above its predecessor before it is reported.
const BackwardJumpThreshold = 120.0

// Issue codes reported by Validate.
const (
	IssueNonContiguous = "non_contiguous"
	IssueDuplicateID   = "duplicate_id"
	IssueNoInteractive = "no_interactive"
	IssueBackwardJump  = "backward_jump"
	IssueUnknownID     = "unknown_id"
	IssueNonFocusRole  = "non_focus_role"
)

// Issue is an advisory finding about a sequence. Issues never block output.
type Issue struct {
	Code    string `json:"code"         yaml:"code"`
	ID      string `json:"id,omitempty" yaml:"id,omitempty"`
	Message string `json:"message"      yaml:"message"`
}

// Validate checks a finished sequence. candidates is the set the sequence
// was built from and may be nil, which skips the unknown-id check.
func Validate(items []model.FocusItem, candidates []model.NodeSnapshot) []Issue {
	var issues []Issue

	if !model.IsContiguous(items) {
		issues = append(issues, Issue{
			Code:    IssueNonContiguous,
			Message: fmt.Sprintf("order values are not exactly 1..%d", len(items)),
		})
	}

	known := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		known[c.ID] = true
	}
	seen := make(map[string]bool)
	for _, it := range items {
		if seen[it.ID] {
			issues = append(issues, Issue{Code: IssueDuplicateID, ID: it.ID, Message: "node appears more than once"})
		}
		seen[it.ID] = true
		if candidates != nil && !known[it.ID] {
			issues = append(issues, Issue{Code: IssueUnknownID, ID: it.ID, Message: "node is not a candidate in the tree"})
		}
		if it.Role != "" && !model.IsFocusRole(it.Role) {
			issues = append(issues, Issue{
				Code:    IssueNonFocusRole,
				ID:      it.ID,
				Message: fmt.Sprintf("role %q is not a focus stop", it.Role),
			})
		}
	}

	if len(items) == 0 {
		for _, c := range candidates {
			if c.Focusable {
				issues = append(issues, Issue{
					Code:    IssueNoInteractive,
					Message: "sequence is empty but the tree has focusable nodes",
				})
				break
			}
		}
	}

	for i := 1; i < len(items); i++ {
		prev, cur := items[i-1].Position, items[i].Position
		if prev == nil || cur == nil {
			continue
		}
		if jump := prev.Y - cur.Y; jump > BackwardJumpThreshold {
			issues = append(issues, Issue{
				Code:    IssueBackwardJump,
				ID:      items[i].ID,
				Message: fmt.Sprintf("order %d sits %.0f units above order %d", items[i].Order, jump, items[i-1].Order),
			})
		}
	}
	return issues
}
