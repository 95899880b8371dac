package host

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"FRAME", KindFrame},
		{"section", KindFrame},
		{"INSTANCE", KindInstance},
		{"COMPONENT_SET", KindComponent},
		{"BOOLEAN_OPERATION", KindVector},
		{"text", KindText},
		{"sticky", KindOther},
		{"", KindOther},
	}
	for _, tt := range tests {
		if got := ParseKind(tt.in); got != tt.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKindPredicates(t *testing.T) {
	if !KindInstance.IsReusable() || !KindComponent.IsReusable() {
		t.Error("instances and components should be reusable")
	}
	if KindFrame.IsReusable() {
		t.Error("frames are not reusable")
	}
	for _, k := range []Kind{KindText, KindRectangle, KindVector, KindEllipse, KindLine, KindImage} {
		if !k.IsPrimitive() {
			t.Errorf("%s should be primitive", k)
		}
	}
	for _, k := range []Kind{KindFrame, KindGroup, KindInstance, KindOther} {
		if k.IsPrimitive() {
			t.Errorf("%s should not be primitive", k)
		}
	}
}

const sampleJSON = `{
  "id": "1:1", "name": "Login", "type": "FRAME",
  "geometry": {"x": 0, "y": 0, "width": 375, "height": 812},
  "children": [
    {"id": "1:2", "name": "Email Input", "type": "INSTANCE", "tags": {"a11y.label": "Email"}},
    {"id": "1:3", "name": "Hint", "type": "TEXT", "characters": "Forgot password?", "hidden": true}
  ]
}`

func TestDecodeNodes_SingleObject(t *testing.T) {
	nodes, err := DecodeNodes(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected 1 root, got %d", len(nodes))
	}
	root := nodes[0]
	if root.Kind() != KindFrame {
		t.Errorf("kind: got %s", root.Kind())
	}
	if g, ok := root.Geometry(); !ok || g.Width != 375 {
		t.Errorf("geometry: got %+v ok=%v", g, ok)
	}
	kids := root.Children()
	if len(kids) != 2 {
		t.Fatalf("expected 2 children, got %d", len(kids))
	}
	if _, ok := kids[0].Geometry(); ok {
		t.Error("missing geometry should report ok=false")
	}
	if v, ok := kids[0].Tag(TagLabel); !ok || v != "Email" {
		t.Errorf("tag: got %q ok=%v", v, ok)
	}
	if kids[1].Visible() {
		t.Error("hidden node should not be visible")
	}
	if got := Characters(kids[1]); got != "Forgot password?" {
		t.Errorf("characters: got %q", got)
	}
}

func TestDecodeNodes_Array(t *testing.T) {
	nodes, err := DecodeNodes(strings.NewReader(`[{"id":"a","type":"FRAME"},{"id":"b","type":"FRAME"}]`))
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 2 {
		t.Errorf("expected 2 roots, got %d", len(nodes))
	}
}

func TestDecodeNodes_Invalid(t *testing.T) {
	if _, err := DecodeNodes(strings.NewReader(`{"id":`)); err == nil {
		t.Error("expected error for truncated JSON")
	}
}

func TestCharacters_TextFallsBackToName(t *testing.T) {
	n := &RawNode{NodeID: "t", NodeName: "Continue", Type: "TEXT"}
	if got := Characters(n); got != "Continue" {
		t.Errorf("got %q, want Continue", got)
	}
	frame := &RawNode{NodeID: "f", NodeName: "Card", Type: "FRAME"}
	if got := Characters(frame); got != "" {
		t.Errorf("non-text node should have no characters, got %q", got)
	}
}

func TestMemorySource(t *testing.T) {
	nodes, err := DecodeNodes(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatal(err)
	}
	src := NewMemorySource(nodes...)
	n, err := src.Node(context.Background(), "1:2")
	if err != nil {
		t.Fatal(err)
	}
	if n.Name() != "Email Input" {
		t.Errorf("got %q", n.Name())
	}
	if _, err := src.Node(context.Background(), "9:9"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("expected ErrNodeNotFound, got %v", err)
	}
}

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	if v, _ := s.GetSpec(ctx, "x"); v != "" {
		t.Errorf("expected empty value, got %q", v)
	}
	if err := s.SetSpec(ctx, "x", "payload"); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.GetSpec(ctx, "x"); v != "payload" {
		t.Errorf("got %q", v)
	}
}

func TestProvider_ExportImage(t *testing.T) {
	ctx := context.Background()
	var empty *Provider
	if _, _, err := empty.ExportImage(ctx, &RawNode{}); !errors.Is(err, ErrNoExporter) {
		t.Errorf("nil provider: expected ErrNoExporter, got %v", err)
	}
	p := &Provider{Exporter: StaticExporter{Data: []byte{1, 2}, MIME: "image/png"}}
	data, mime, err := p.ExportImage(ctx, &RawNode{})
	if err != nil || len(data) != 2 || mime != "image/png" {
		t.Errorf("got %v %q %v", data, mime, err)
	}
}
