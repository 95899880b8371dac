package model

import (
	"fmt"
	"testing"
)

func TestPruneStructural_PromotesChildren(t *testing.T) {
	root := NodeSnapshot{
		ID: "root", Name: "Screen", Type: "frame",
		Children: []NodeSnapshot{
			{
				ID: "g", Name: "Frame 12", Type: "frame", ParentName: "Screen",
				Children: []NodeSnapshot{
					{ID: "b", Name: "Button", Type: "instance", Role: RoleButton, Focusable: true, ParentName: "Frame 12"},
				},
			},
		},
	}
	pruned := PruneStructural(root)
	if len(pruned.Children) != 1 || pruned.Children[0].ID != "b" {
		t.Fatalf("expected button promoted to root, got %+v", pruned.Children)
	}
	if pruned.Children[0].ParentName != "Screen" {
		t.Errorf("promoted child parentName: got %q, want Screen", pruned.Children[0].ParentName)
	}
}

func TestPruneStructural_KeepsNamedContainers(t *testing.T) {
	root := NodeSnapshot{
		ID: "root", Name: "Screen", Type: "frame",
		Children: []NodeSnapshot{
			{ID: "row", Name: "Set Row 1", Type: "frame", Children: []NodeSnapshot{{ID: "x", Name: "Input", Type: "instance"}}},
		},
	}
	pruned := PruneStructural(root)
	if len(pruned.Children) != 1 || pruned.Children[0].ID != "row" {
		t.Errorf("named container should survive pruning, got %+v", pruned.Children)
	}
}

func TestPruneToBudget_UnderBudgetUntouched(t *testing.T) {
	root := sampleTree()
	got, truncated := PruneToBudget(root, 10)
	if truncated {
		t.Error("tree under budget should not be truncated")
	}
	if got.Count() != root.Count() {
		t.Errorf("count changed: %d -> %d", root.Count(), got.Count())
	}
}

func TestPruneToBudget_KeepsFocusableFirst(t *testing.T) {
	root := NodeSnapshot{ID: "root", Name: "Screen", Type: "frame"}
	for i := 0; i < 20; i++ {
		root.Children = append(root.Children, NodeSnapshot{
			ID: fmt.Sprintf("t%d", i), Name: fmt.Sprintf("Label %d", i), Type: "text", Text: "x",
		})
	}
	root.Children = append(root.Children, NodeSnapshot{
		ID: "cta", Name: "Continue", Type: "instance", Role: RoleButton, Focusable: true,
	})

	got, truncated := PruneToBudget(root, 5)
	if !truncated {
		t.Fatal("expected truncation")
	}
	if n := got.Count(); n > 5 {
		t.Errorf("expected at most 5 nodes, got %d", n)
	}
	if _, ok := IDSet(got)["cta"]; !ok {
		t.Error("focusable node should survive truncation")
	}
	if got.ID != "root" {
		t.Error("root must always be kept")
	}
}
