package vision

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/mj1618/focusorder/internal/model"
	"github.com/mj1618/focusorder/internal/protocol"
)

//go:embed prompt.tmpl
var promptSource string

var promptTemplate = template.Must(template.New("prompt").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(promptSource))

type promptData struct {
	Platform string
	Hint     string
	HasImage bool
	FrameIDs []string
	Controls []promptControl
	Tree     string
}

// promptControl is one focusable node with the names of its ancestors.
type promptControl struct {
	ID   string
	Role string
	Text string
	Path string
}

func controls(frames []protocol.Frame) []promptControl {
	roots := make([]model.NodeSnapshot, len(frames))
	for i, f := range frames {
		roots[i] = protocol.FrameRoot(f)
	}
	var out []promptControl
	for _, fn := range model.Flatten(roots...) {
		if !fn.Node.Focusable {
			continue
		}
		text := fn.Node.Text
		if text == "" && fn.Node.Hint != nil {
			text = fn.Node.Hint.Text
		}
		out = append(out, promptControl{ID: fn.Node.ID, Role: string(fn.Node.Role), Text: text, Path: fn.Path})
	}
	return out
}

// RenderPrompt fills the instruction template for in.
func RenderPrompt(in Input) (string, error) {
	tree, err := json.MarshalIndent(in.Frames, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal frames: %w", err)
	}
	data := promptData{
		Platform: string(in.Platform),
		Hint:     strings.TrimSpace(in.Prompt),
		HasImage: in.Image != nil && len(in.Image.Data) > 0,
		Controls: controls(in.Frames),
		Tree:     string(tree),
	}
	for _, f := range in.Frames {
		data.FrameIDs = append(data.FrameIDs, f.ID)
	}
	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}
