package merge

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mj1618/focusorder/internal/model"
)

func TestCurate_Moves(t *testing.T) {
	tests := []struct {
		name  string
		moves map[string]int
		want  []string
	}{
		{"none", nil, []string{"a", "b", "c", "d"}},
		{"to front", map[string]int{"d": 1}, []string{"d", "a", "b", "c"}},
		{"two moves", map[string]int{"d": 1, "a": 3}, []string{"d", "b", "a", "c"}},
		{"past end clamps", map[string]int{"a": 99}, []string{"b", "c", "d", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Curate(items(model.SourceHeuristic, "a", "b", "c", "d"), Edit{Moves: tt.moves})
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, idsOf(got)); diff != "" {
				t.Errorf("order (-want +got):\n%s", diff)
			}
			if !model.IsContiguous(got) {
				t.Errorf("not contiguous: %+v", got)
			}
		})
	}
}

func TestCurate_MarksEverythingManual(t *testing.T) {
	in := append(items(model.SourceAI, "a"), items(model.SourceHeuristic, "b")...)
	got, err := Curate(in, Edit{
		Roles:  map[string]model.Role{"b": model.RoleLink},
		Labels: map[string]string{"a": "  Sign   in "},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, it := range got {
		if it.Source != model.SourceManual {
			t.Errorf("%s: source = %q, want manual", it.ID, it.Source)
		}
	}
	if got[0].Label != "Sign in" {
		t.Errorf("label = %q", got[0].Label)
	}
	if got[1].Role != model.RoleLink {
		t.Errorf("role = %q", got[1].Role)
	}
	if in[0].Source != model.SourceAI || in[0].Label != "ai:a" {
		t.Error("input was mutated")
	}
}

func TestCurate_Errors(t *testing.T) {
	base := items(model.SourceHeuristic, "a", "b")
	tests := []struct {
		name string
		edit Edit
	}{
		{"unknown move", Edit{Moves: map[string]int{"z": 1}}},
		{"zero position", Edit{Moves: map[string]int{"a": 0}}},
		{"unknown role target", Edit{Roles: map[string]model.Role{"z": model.RoleButton}}},
		{"non-focus role", Edit{Roles: map[string]model.Role{"a": model.RoleText}}},
		{"unknown label target", Edit{Labels: map[string]string{"z": "x"}}},
		{"empty label", Edit{Labels: map[string]string{"a": "   "}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Curate(base, tt.edit); err == nil {
				t.Error("expected error")
			}
		})
	}
}
