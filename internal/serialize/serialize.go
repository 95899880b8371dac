// Package serialize turns a host node tree into a bounded, annotated
// NodeSnapshot tree.
package serialize

import (
	"strconv"
	"strings"

	"github.com/mj1618/focusorder/internal/host"
	"github.com/mj1618/focusorder/internal/model"
	"go.uber.org/zap"
)

const (
	DefaultMaxDepth = 10
	DefaultMaxNodes = 800
)

// Options bounds a traversal. Zero values fall back to the defaults.
type Options struct {
	MaxDepth     int
	MaxNodes     int
	RowTolerance float64
}

// DefaultOptions returns the standard traversal bounds.
func DefaultOptions() Options {
	return Options{
		MaxDepth:     DefaultMaxDepth,
		MaxNodes:     DefaultMaxNodes,
		RowTolerance: model.RowTolerance,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	if o.RowTolerance <= 0 {
		o.RowTolerance = model.RowTolerance
	}
	return o
}

// Stats describes what a traversal produced.
type Stats struct {
	Nodes          int  `json:"nodes"          yaml:"nodes"`
	DepthTruncated bool `json:"depthTruncated" yaml:"depthTruncated"`
	CountTruncated bool `json:"countTruncated" yaml:"countTruncated"`
	Boundaries     int  `json:"boundaries"     yaml:"boundaries"`
}

// Truncated reports whether either bound cut the traversal short.
func (s Stats) Truncated() bool { return s.DepthTruncated || s.CountTruncated }

// Serializer converts host trees into snapshots. It is safe for concurrent
// use; each call keeps its own traversal state.
type Serializer struct {
	opts   Options
	logger *zap.Logger
}

// New returns a Serializer. A nil logger disables logging.
func New(opts Options, logger *zap.Logger) *Serializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Serializer{opts: opts.withDefaults(), logger: logger}
}

// Serialize is a convenience for New(opts, nil).Serialize.
func Serialize(root host.Node, platform model.Platform, opts Options) (model.NodeSnapshot, Stats) {
	return New(opts, nil).Serialize(root, platform)
}

// walk holds per-call traversal state.
type walk struct {
	opts     Options
	platform model.Platform
	stats    Stats
}

// Serialize walks root in pre-order and never fails: once a bound is hit the
// remaining nodes are left out and the truncation is reported in Stats.
func (s *Serializer) Serialize(root host.Node, platform model.Platform) (model.NodeSnapshot, Stats) {
	w := &walk{opts: s.opts, platform: platform}
	snap := w.visit(root, 0, "", "0")
	if w.stats.Truncated() {
		s.logger.Debug("serialization truncated",
			zap.String("root", root.ID()),
			zap.Int("nodes", w.stats.Nodes),
			zap.Bool("depth", w.stats.DepthTruncated),
			zap.Bool("count", w.stats.CountTruncated),
		)
	}
	return snap, w.stats
}

func (w *walk) visit(n host.Node, depth int, parentName, path string) model.NodeSnapshot {
	w.stats.Nodes++

	geom, _ := n.Geometry()
	id := n.ID()
	if id == "" {
		id = "path:" + path
	}
	snap := model.NodeSnapshot{
		ID:         id,
		Name:       n.Name(),
		Type:       string(n.Kind()),
		Visible:    n.Visible(),
		Geometry:   geom,
		ParentName: parentName,
	}
	tagged := w.classify(n, &snap)

	visible := visibleChildren(n)
	if len(visible) == 0 {
		return snap
	}

	if isSemanticLeaf(n, visible) {
		w.stats.Boundaries++
		text := joinText(visible)
		if snap.Text == "" {
			snap.Text = text
		}
		if !tagged && snap.Role == model.RoleNone && model.IsGenericName(snap.Name) {
			if hint := inferShape(geom, text); hint != nil {
				snap.Hint = hint
				if model.IsFocusRole(hint.Role) {
					snap.Role = w.platform.NormalizeRole(hint.Role)
					snap.Focusable = true
				}
			}
		}
		return snap
	}

	if depth+1 > w.opts.MaxDepth {
		w.stats.DepthTruncated = true
		return snap
	}

	ordered := model.ReadingOrder(visible, nodeGeometry, w.opts.RowTolerance, nil)
	for i, c := range ordered {
		if w.stats.Nodes >= w.opts.MaxNodes {
			w.stats.CountTruncated = true
			break
		}
		snap.Children = append(snap.Children, w.visit(c, depth+1, snap.Name, path+"."+strconv.Itoa(i)))
	}
	return snap
}

// classify fills role, focusable and text. It reports whether an override
// tag decided the role.
func (w *walk) classify(n host.Node, snap *model.NodeSnapshot) bool {
	if label, ok := n.Tag(host.TagLabel); ok && strings.TrimSpace(label) != "" {
		snap.Text = strings.TrimSpace(label)
	}

	if n.Kind() == host.KindText {
		snap.Role = model.RoleText
		if snap.Text == "" {
			snap.Text = strings.TrimSpace(host.Characters(n))
		}
	} else {
		snap.Role = w.platform.NormalizeRole(model.RoleFromName(snap.Name))
		snap.Focusable = model.IsFocusRole(snap.Role)
	}

	tagged := false
	if v, ok := n.Tag(host.TagRole); ok {
		if r, known := model.ParseRole(v); known {
			snap.Role = w.platform.NormalizeRole(r)
			snap.Focusable = true
			tagged = true
		}
	}
	if v, ok := n.Tag(host.TagFocusable); ok {
		if f, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			snap.Focusable = f
			tagged = true
			if f && !model.IsFocusRole(snap.Role) {
				snap.Role = model.RoleButton
			}
		}
	}
	return tagged
}

func visibleChildren(n host.Node) []host.Node {
	var out []host.Node
	for _, c := range n.Children() {
		if c != nil && c.Visible() {
			out = append(out, c)
		}
	}
	return out
}

func nodeGeometry(n host.Node) model.Geometry {
	g, _ := n.Geometry()
	return g
}

// isSemanticLeaf reports whether n is a component or instance whose visible
// children are all plain shapes or text.
func isSemanticLeaf(n host.Node, visible []host.Node) bool {
	if !n.Kind().IsReusable() {
		return false
	}
	for _, c := range visible {
		if !c.Kind().IsPrimitive() {
			return false
		}
	}
	return true
}

// joinText collects the characters of text children in reading order.
func joinText(nodes []host.Node) string {
	var parts []string
	for _, c := range model.ReadingOrder(nodes, nodeGeometry, model.RowTolerance, nil) {
		if c.Kind() != host.KindText {
			continue
		}
		if t := strings.TrimSpace(host.Characters(c)); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
