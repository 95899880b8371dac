// Package protocol defines the annotate request and response and the rules
// for trusting what the external model sends back.
package protocol

import (
	"github.com/mj1618/focusorder/internal/model"
)

// EmptyStateMessage is the notes text for a selection with nothing to focus.
const EmptyStateMessage = "No focusable elements in this selection."

// Box is a frame's bounding box.
type Box struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	W float64 `json:"w" yaml:"w"`
	H float64 `json:"h" yaml:"h"`
}

// Frame is one selected top-level frame and its serialized children.
type Frame struct {
	ID       string               `json:"id"                 yaml:"id"`
	Name     string               `json:"name"               yaml:"name"`
	Box      Box                  `json:"box"                yaml:"box"`
	Children []model.NodeSnapshot `json:"children,omitempty" yaml:"children,omitempty"`
}

// AnnotateRequest is the body of POST /annotate.
type AnnotateRequest struct {
	Platform model.Platform `json:"platform"         yaml:"platform"`
	Frames   []Frame        `json:"frames"           yaml:"frames"`
	Image    string         `json:"image,omitempty"  yaml:"image,omitempty"`
	Prompt   string         `json:"prompt,omitempty" yaml:"prompt,omitempty"`
}

// Annotation is the focus order for one frame.
type Annotation struct {
	FrameID string            `json:"frameId" yaml:"frameId"`
	Order   []model.FocusItem `json:"order"   yaml:"order"`
	Notes   string            `json:"notes"   yaml:"notes"`
}

// AnnotateResponse is the body returned by POST /annotate.
type AnnotateResponse struct {
	OK          bool         `json:"ok"                    yaml:"ok"`
	Checksum    string       `json:"checksum,omitempty"    yaml:"checksum,omitempty"`
	Cache       bool         `json:"cache,omitempty"       yaml:"cache,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Error       string       `json:"error,omitempty"       yaml:"error,omitempty"`
	Reason      string       `json:"reason,omitempty"      yaml:"reason,omitempty"`
}

// Annotation returns the annotation for frameID, or nil.
func (r *AnnotateResponse) Annotation(frameID string) *Annotation {
	for i := range r.Annotations {
		if r.Annotations[i].FrameID == frameID {
			return &r.Annotations[i]
		}
	}
	return nil
}

// Clone returns a deep copy so cached responses are never shared.
func (r AnnotateResponse) Clone() AnnotateResponse {
	out := r
	if r.Annotations == nil {
		return out
	}
	out.Annotations = make([]Annotation, len(r.Annotations))
	for i, a := range r.Annotations {
		if a.Order != nil {
			a.Order = append(make([]model.FocusItem, 0, len(a.Order)), a.Order...)
		}
		for j := range a.Order {
			if p := a.Order[j].Position; p != nil {
				pos := *p
				a.Order[j].Position = &pos
			}
		}
		out.Annotations[i] = a
	}
	return out
}

// Health is the body of GET /health.
type Health struct {
	Status  string `json:"status"  yaml:"status"`
	Model   string `json:"model"   yaml:"model"`
	HasKey  bool   `json:"hasKey"  yaml:"hasKey"`
	Cache   string `json:"cache"   yaml:"cache"`
	Version string `json:"version" yaml:"version"`
}

// ModelEntry is one focus stop as returned by the external model. Nothing
// in it is trusted until Sanitize has checked it.
type ModelEntry struct {
	ID       string          `json:"id"`
	Label    string          `json:"label,omitempty"`
	Role     string          `json:"role,omitempty"`
	Position *model.Position `json:"position,omitempty"`
}

// ModelAnnotation is the external model's order for one frame.
type ModelAnnotation struct {
	FrameID string       `json:"frameId"`
	Order   []ModelEntry `json:"order"`
	Notes   string       `json:"notes,omitempty"`
}

// ModelOutput is the strict JSON shape the external model must return.
type ModelOutput struct {
	Annotations []ModelAnnotation `json:"annotations"`
}

// ForFrame returns the model's annotation for frameID. When the request had
// a single frame and the model returned a single annotation, it is used
// even if the model got the frame id wrong.
func (o ModelOutput) ForFrame(frameID string, frameCount int) (ModelAnnotation, bool) {
	for _, a := range o.Annotations {
		if a.FrameID == frameID {
			return a, true
		}
	}
	if frameCount == 1 && len(o.Annotations) == 1 {
		return o.Annotations[0], true
	}
	return ModelAnnotation{}, false
}
