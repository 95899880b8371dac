package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mj1618/focusorder/internal/model"
)

// wireRequest accepts the current frames shape and the two legacy shapes:
// a single tree and a flat list of selected nodes.
type wireRequest struct {
	Platform string               `json:"platform"`
	Frames   []Frame              `json:"frames"`
	Tree     *model.NodeSnapshot  `json:"tree"`
	Nodes    []model.NodeSnapshot `json:"nodes"`
	Image    string               `json:"image"`
	Prompt   string               `json:"prompt"`
}

// DecodeRequest parses and validates an annotate body. Errors are
// *RequestError values.
func DecodeRequest(r io.Reader) (AnnotateRequest, error) {
	var w wireRequest
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return AnnotateRequest{}, PayloadTooLarge(fmt.Sprintf("body exceeds %d bytes", maxErr.Limit))
		}
		return AnnotateRequest{}, BadRequest("malformed_json")
	}

	req := AnnotateRequest{
		Platform: model.Platform(strings.ToLower(strings.TrimSpace(w.Platform))),
		Frames:   w.Frames,
		Image:    w.Image,
		Prompt:   w.Prompt,
	}
	if len(req.Frames) == 0 {
		switch {
		case w.Tree != nil:
			req.Frames = []Frame{FrameFromSnapshot(*w.Tree)}
		case len(w.Nodes) > 0:
			for _, n := range w.Nodes {
				req.Frames = append(req.Frames, FrameFromSnapshot(n))
			}
		}
	}
	if err := Validate(req); err != nil {
		return AnnotateRequest{}, err
	}
	return req, nil
}

// Validate checks that a request names a known platform and at least one
// identifiable frame.
func Validate(req AnnotateRequest) error {
	if req.Platform == "" {
		return BadRequest("missing_platform")
	}
	if _, err := model.ParsePlatform(string(req.Platform)); err != nil {
		return BadRequest("unknown_platform")
	}
	if len(req.Frames) == 0 {
		return BadRequest("missing_tree")
	}
	seen := make(map[string]bool, len(req.Frames))
	for _, f := range req.Frames {
		if f.ID == "" {
			return BadRequest("frame_missing_id")
		}
		if seen[f.ID] {
			return BadRequest("duplicate_frame_id")
		}
		seen[f.ID] = true
	}
	return nil
}

// FrameFromSnapshot adapts a serialized root to a Frame.
func FrameFromSnapshot(s model.NodeSnapshot) Frame {
	return Frame{
		ID:       s.ID,
		Name:     s.Name,
		Box:      Box{X: s.Geometry.X, Y: s.Geometry.Y, W: s.Geometry.Width, H: s.Geometry.Height},
		Children: s.Children,
	}
}

// FrameRoot rebuilds the root snapshot of a frame.
func FrameRoot(f Frame) model.NodeSnapshot {
	return model.NodeSnapshot{
		ID:       f.ID,
		Name:     f.Name,
		Type:     "frame",
		Visible:  true,
		Geometry: model.Geometry{X: f.Box.X, Y: f.Box.Y, Width: f.Box.W, Height: f.Box.H},
		Role:     model.RoleNone,
		Children: f.Children,
	}
}

// Roots returns the root snapshot of every frame in the request.
func (r AnnotateRequest) Roots() []model.NodeSnapshot {
	out := make([]model.NodeSnapshot, len(r.Frames))
	for i, f := range r.Frames {
		out[i] = FrameRoot(f)
	}
	return out
}

// NodeCount returns the number of nodes across all frames.
func (r AnnotateRequest) NodeCount() int {
	total := 0
	for _, root := range r.Roots() {
		total += root.Count()
	}
	return total
}
