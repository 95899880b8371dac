package heuristics

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/mj1618/focusorder/internal/host"
	"github.com/mj1618/focusorder/internal/model"
	"github.com/mj1618/focusorder/internal/serialize"
)

func box(x, y, w, h float64) *model.Geometry {
	return &model.Geometry{X: x, Y: y, Width: w, Height: h}
}

func workout() model.NodeSnapshot {
	root := &host.RawNode{
		NodeID: "1:1", NodeName: "Workout", Type: "FRAME", Box: box(0, 0, 375, 812),
		Kids: []*host.RawNode{
			{
				NodeID: "1:2", NodeName: "Header", Type: "FRAME", Box: box(0, 0, 375, 80),
				Kids: []*host.RawNode{
					{NodeID: "1:3", NodeName: "Title", Type: "TEXT", Text: "Your Workout", Box: box(16, 24, 200, 32)},
				},
			},
			{
				NodeID: "1:4", NodeName: "Button/Swap", Type: "INSTANCE", Box: box(16, 120, 120, 44),
				Kids: []*host.RawNode{{NodeID: "1:5", NodeName: "label", Type: "TEXT", Text: "Swap", Box: box(40, 130, 60, 20)}},
			},
			{NodeID: "1:7", NodeName: "Tab/Train", Type: "INSTANCE", Box: box(0, 760, 120, 52)},
		},
	}
	snap, _ := serialize.Serialize(root, model.PlatformNative, serialize.DefaultOptions())
	return snap
}

func TestOrder_WorkoutScenario(t *testing.T) {
	got := Order(workout())
	want := []model.FocusItem{
		{ID: "1:4", Label: "Swap", Role: model.RoleButton, Order: 1, Position: &model.Position{X: 16, Y: 120}, Source: model.SourceHeuristic},
		{ID: "1:7", Label: "Train", Role: model.RoleTab, Order: 2, Position: &model.Position{X: 0, Y: 760}, Source: model.SourceHeuristic},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestOrder_RowLabelsDiffer(t *testing.T) {
	row := func(id, name string, y float64) *host.RawNode {
		return &host.RawNode{
			NodeID: id, NodeName: name, Type: "FRAME", Box: box(0, y, 375, 60),
			Kids: []*host.RawNode{{
				NodeID: id + ":f", NodeName: "Frame 24", Type: "INSTANCE", Box: box(16, y+8, 280, 44),
				Kids: []*host.RawNode{
					{NodeID: id + ":t", NodeName: "placeholder", Type: "TEXT", Text: "Weight", Box: box(24, y+18, 100, 20)},
				},
			}},
		}
	}
	root := &host.RawNode{
		NodeID: "f", NodeName: "Log Set", Type: "FRAME",
		Kids:   []*host.RawNode{row("r1", "Set Row 1", 100), row("r2", "Set Row 2", 200)},
	}
	snap, _ := serialize.Serialize(root, model.PlatformNative, serialize.DefaultOptions())
	items := Order(snap)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Label != "Weight (Row 1)" || items[1].Label != "Weight (Row 2)" {
		t.Errorf("labels: %q, %q", items[0].Label, items[1].Label)
	}
}

func TestExtractCandidates(t *testing.T) {
	cands := ExtractCandidates(workout())
	var got []string
	for _, c := range cands {
		got = append(got, c.ID)
		if len(c.Children) != 0 {
			t.Errorf("%s: candidates must not carry children", c.ID)
		}
	}
	want := []string{"1:3", "1:4", "1:7"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("candidates (-want +got):\n%s", diff)
	}
}

func TestExtractCandidates_FocusableAbsorbsText(t *testing.T) {
	tree := model.NodeSnapshot{
		ID: "root", Name: "Screen", Type: "frame", Visible: true,
		Children: []model.NodeSnapshot{{
			ID: "btn", Name: "Submit Button", Type: "frame", Visible: true, Role: model.RoleButton, Focusable: true,
			Children: []model.NodeSnapshot{
				{ID: "icon", Name: "Icon", Type: "vector", Visible: true},
				{ID: "txt", Name: "label", Type: "text", Visible: true, Role: model.RoleText, Text: "Send"},
			},
		}},
	}
	items := Order(tree)
	if len(items) != 1 || items[0].Label != "Send" {
		t.Errorf("expected a single 'Send' item, got %+v", items)
	}
}

func TestComputeOrder_TieBreakWithinBand(t *testing.T) {
	cands := []model.NodeSnapshot{
		{ID: "field", Role: model.RoleTextbox, Focusable: true, Name: "Search Field", Geometry: model.Geometry{X: 10, Y: 10}},
		{ID: "go", Role: model.RoleButton, Focusable: true, Name: "Go Button", Geometry: model.Geometry{X: 12, Y: 12}},
		{ID: "later", Role: model.RoleButton, Focusable: true, Name: "Later Button", Geometry: model.Geometry{X: 0, Y: 300}},
	}
	items := ComputeOrder(cands)
	var got []string
	for _, it := range items {
		got = append(got, it.ID)
	}
	if diff := cmp.Diff([]string{"go", "field", "later"}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestComputeOrder_ReadingOrderDominatesPriority(t *testing.T) {
	cands := []model.NodeSnapshot{
		{ID: "button", Role: model.RoleButton, Focusable: true, Name: "Next Button", Geometry: model.Geometry{X: 0, Y: 400}},
		{ID: "field", Role: model.RoleTextbox, Focusable: true, Name: "Email Input", Geometry: model.Geometry{X: 0, Y: 100}},
	}
	items := ComputeOrder(cands)
	if items[0].ID != "field" {
		t.Errorf("a field above a button must come first, got %s", items[0].ID)
	}
}

func TestComputeOrder_Empty(t *testing.T) {
	if got := ComputeOrder(nil); len(got) != 0 {
		t.Errorf("expected no items, got %d", len(got))
	}
	text := []model.NodeSnapshot{{ID: "t", Type: "text", Text: "Hello", Visible: true}}
	if got := ComputeOrder(text); len(got) != 0 {
		t.Errorf("text-only candidates should produce no items, got %d", len(got))
	}
}

func TestCountFocusable(t *testing.T) {
	if n := CountFocusable(workout()); n != 2 {
		t.Errorf("got %d, want 2", n)
	}
}

// genScreen builds a random flat screen of buttons, fields and text.
func genScreen(kinds []int, ys []int) *host.RawNode {
	names := []string{"Go Button", "Email Input", "Caption", "Terms link", "Frame 3"}
	root := &host.RawNode{NodeID: "root", NodeName: "Screen", Type: "FRAME", Box: box(0, 0, 400, 900)}
	for i, k := range kinds {
		y := 0.0
		if i < len(ys) {
			y = float64(ys[i])
		}
		n := &host.RawNode{
			NodeID: fmt.Sprintf("n%d", i), NodeName: names[k%len(names)], Type: "FRAME",
			Box: box(float64((i*37)%300), y, 120, 44),
		}
		if k%len(names) == 2 {
			n.Type, n.Text = "TEXT", "Caption"
		}
		root.Kids = append(root.Kids, n)
	}
	return root
}

func TestOrder_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	gens := []gopter.Gen{
		gen.SliceOfN(12, gen.IntRange(0, 4)),
		gen.SliceOfN(12, gen.IntRange(0, 800)),
	}

	properties.Property("ordering is deterministic", prop.ForAll(
		func(kinds, ys []int) bool {
			a, _ := serialize.Serialize(genScreen(kinds, ys), model.PlatformWeb, serialize.DefaultOptions())
			b, _ := serialize.Serialize(genScreen(kinds, ys), model.PlatformWeb, serialize.DefaultOptions())
			return cmp.Equal(Order(a), Order(b))
		},
		gens...,
	))

	properties.Property("orders are contiguous", prop.ForAll(
		func(kinds, ys []int) bool {
			snap, _ := serialize.Serialize(genScreen(kinds, ys), model.PlatformWeb, serialize.DefaultOptions())
			return model.IsContiguous(Order(snap))
		},
		gens...,
	))

	properties.Property("every item references a tree node", prop.ForAll(
		func(kinds, ys []int) bool {
			snap, _ := serialize.Serialize(genScreen(kinds, ys), model.PlatformWeb, serialize.DefaultOptions())
			ids := model.IDSet(snap)
			for _, it := range Order(snap) {
				if _, ok := ids[it.ID]; !ok {
					return false
				}
			}
			return true
		},
		gens...,
	))

	properties.Property("labels are unique and non-empty", prop.ForAll(
		func(kinds, ys []int) bool {
			snap, _ := serialize.Serialize(genScreen(kinds, ys), model.PlatformWeb, serialize.DefaultOptions())
			seen := map[string]bool{}
			for _, it := range Order(snap) {
				if it.Label == "" || seen[it.Label] {
					return false
				}
				seen[it.Label] = true
			}
			return true
		},
		gens...,
	))

	properties.TestingRun(t)
}
