package host

import (
	"context"
	"errors"
	"strings"

	"github.com/mj1618/focusorder/internal/model"
)

// Kind is the host's category for a node.
type Kind string

const (
	KindFrame     Kind = "frame"
	KindGroup     Kind = "group"
	KindComponent Kind = "component"
	KindInstance  Kind = "instance"
	KindText      Kind = "text"
	KindRectangle Kind = "rectangle"
	KindVector    Kind = "vector"
	KindEllipse   Kind = "ellipse"
	KindLine      Kind = "line"
	KindImage     Kind = "image"
	KindOther     Kind = "other"
)

// kindAliases maps host type names (any case) to a Kind.
var kindAliases = map[string]Kind{
	"frame":             KindFrame,
	"section":           KindFrame,
	"group":             KindGroup,
	"component":         KindComponent,
	"component_set":     KindComponent,
	"instance":          KindInstance,
	"text":              KindText,
	"rectangle":         KindRectangle,
	"rect":              KindRectangle,
	"vector":            KindVector,
	"star":              KindVector,
	"polygon":           KindVector,
	"boolean_operation": KindVector,
	"ellipse":           KindEllipse,
	"line":              KindLine,
	"image":             KindImage,
}

// ParseKind converts a host type name to a Kind. Unknown names map to
// KindOther.
func ParseKind(s string) Kind {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k
	}
	return KindOther
}

// IsReusable reports whether nodes of this kind are component definitions
// or instances.
func (k Kind) IsReusable() bool {
	return k == KindComponent || k == KindInstance
}

// IsPrimitive reports whether nodes of this kind are plain shapes or text
// that can never hold other nodes.
func (k Kind) IsPrimitive() bool {
	switch k {
	case KindText, KindRectangle, KindVector, KindEllipse, KindLine, KindImage:
		return true
	}
	return false
}

// Override tags a designer can set on a node to correct the heuristics.
const (
	TagRole      = "a11y.role"
	TagFocusable = "a11y.focusable"
	TagLabel     = "a11y.label"
)

// SpecKey is the per-node storage key holding the curated focus order.
const SpecKey = "focusOrderSpec"

// Node is the capability set the serializer needs from a host node.
type Node interface {
	ID() string
	Name() string
	Kind() Kind
	Visible() bool
	// Geometry returns the node's absolute box. ok is false when the host
	// has no geometry for the node.
	Geometry() (g model.Geometry, ok bool)
	Children() []Node
	Tag(key string) (string, bool)
}

// TextNode is implemented by nodes that expose their rendered characters.
type TextNode interface {
	Characters() string
}

// NodeSource resolves root nodes by id.
type NodeSource interface {
	Node(ctx context.Context, id string) (Node, error)
}

// ImageExporter rasterizes a node subtree.
type ImageExporter interface {
	Export(ctx context.Context, node Node) (data []byte, mime string, err error)
}

// SpecStorage reads and writes an opaque per-node string.
type SpecStorage interface {
	GetSpec(ctx context.Context, nodeID string) (string, error)
	SetSpec(ctx context.Context, nodeID, value string) error
}

// Provider bundles the host collaborators. Exporter and Storage are
// optional.
type Provider struct {
	Source   NodeSource
	Exporter ImageExporter
	Storage  SpecStorage
}

// ErrNodeNotFound is returned when a node id does not resolve.
var ErrNodeNotFound = errors.New("node not found")

// ErrNoExporter is returned by ExportImage when the provider cannot render.
var ErrNoExporter = errors.New("image export not available")

// ExportImage renders node through the provider's exporter.
func (p *Provider) ExportImage(ctx context.Context, node Node) ([]byte, string, error) {
	if p == nil || p.Exporter == nil {
		return nil, "", ErrNoExporter
	}
	return p.Exporter.Export(ctx, node)
}

// Characters returns the rendered text of n, falling back to its name for
// text nodes that do not expose characters.
func Characters(n Node) string {
	if tn, ok := n.(TextNode); ok {
		if c := tn.Characters(); c != "" {
			return c
		}
	}
	if n.Kind() == KindText {
		return n.Name()
	}
	return ""
}
