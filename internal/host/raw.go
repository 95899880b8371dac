package host

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mj1618/focusorder/internal/model"
)

// RawNode is a JSON-decodable Node. It is what the CLI reads from tree
// files and what tests build fixtures from.
type RawNode struct {
	NodeID     string            `json:"id"                   yaml:"id"`
	NodeName   string            `json:"name"                 yaml:"name"`
	Type       string            `json:"type"                 yaml:"type"`
	Hidden     bool              `json:"hidden,omitempty"     yaml:"hidden,omitempty"`
	Box        *model.Geometry   `json:"geometry,omitempty"   yaml:"geometry,omitempty"`
	Text       string            `json:"characters,omitempty" yaml:"characters,omitempty"`
	Tags       map[string]string `json:"tags,omitempty"       yaml:"tags,omitempty"`
	Kids       []*RawNode        `json:"children,omitempty"   yaml:"children,omitempty"`
}

var (
	_ Node     = (*RawNode)(nil)
	_ TextNode = (*RawNode)(nil)
)

func (n *RawNode) ID() string    { return n.NodeID }
func (n *RawNode) Name() string  { return n.NodeName }
func (n *RawNode) Kind() Kind    { return ParseKind(n.Type) }
func (n *RawNode) Visible() bool { return !n.Hidden }

func (n *RawNode) Geometry() (model.Geometry, bool) {
	if n.Box == nil {
		return model.Geometry{}, false
	}
	return *n.Box, true
}

func (n *RawNode) Children() []Node {
	out := make([]Node, 0, len(n.Kids))
	for _, c := range n.Kids {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

func (n *RawNode) Tag(key string) (string, bool) {
	v, ok := n.Tags[key]
	return v, ok
}

func (n *RawNode) Characters() string { return n.Text }

// DecodeNodes reads either a single node object or an array of nodes.
func DecodeNodes(r io.Reader) ([]*RawNode, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode node tree: %w", err)
	}
	var many []*RawNode
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, nil
	}
	var one RawNode
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, fmt.Errorf("decode node tree: %w", err)
	}
	return []*RawNode{&one}, nil
}
