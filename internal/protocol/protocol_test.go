package protocol

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mj1618/focusorder/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequest_Frames(t *testing.T) {
	body := `{"platform":"Web","frames":[{"id":"1:1","name":"Login","box":{"x":0,"y":0,"w":375,"h":812},
		"children":[{"id":"1:2","name":"Submit Button","type":"instance","visible":true,"focusable":true,"role":"button"}]}],
		"prompt":"mobile login"}`
	req, err := DecodeRequest(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, model.PlatformWeb, req.Platform)
	require.Len(t, req.Frames, 1)
	assert.Equal(t, "Login", req.Frames[0].Name)
	assert.Equal(t, 2, req.NodeCount())
	assert.Equal(t, "mobile login", req.Prompt)
}

func TestDecodeRequest_LegacyTree(t *testing.T) {
	body := `{"platform":"native","tree":{"id":"9:1","name":"Home","type":"frame","visible":true,
		"geometry":{"x":0,"y":0,"width":390,"height":844},
		"children":[{"id":"9:2","name":"Back","type":"instance","visible":true}]}}`
	req, err := DecodeRequest(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, req.Frames, 1)
	f := req.Frames[0]
	assert.Equal(t, "9:1", f.ID)
	assert.Equal(t, Box{W: 390, H: 844}, f.Box)
	assert.Len(t, f.Children, 1)
}

func TestDecodeRequest_LegacyNodes(t *testing.T) {
	body := `{"platform":"web","nodes":[{"id":"a","name":"One"},{"id":"b","name":"Two"}]}`
	req, err := DecodeRequest(strings.NewReader(body))
	require.NoError(t, err)
	assert.Len(t, req.Frames, 2)
}

func TestDecodeRequest_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		reason string
	}{
		{"malformed", `{"platform":`, "malformed_json"},
		{"missing platform", `{"frames":[{"id":"a"}]}`, "missing_platform"},
		{"unknown platform", `{"platform":"tv","frames":[{"id":"a"}]}`, "unknown_platform"},
		{"missing tree", `{"platform":"web"}`, "missing_tree"},
		{"frame without id", `{"platform":"web","frames":[{"name":"x"}]}`, "frame_missing_id"},
		{"duplicate frame", `{"platform":"web","frames":[{"id":"a"},{"id":"a"}]}`, "duplicate_frame_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRequest(strings.NewReader(tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrBadRequest))
			var reqErr *RequestError
			require.True(t, errors.As(err, &reqErr))
			assert.Equal(t, tt.reason, reqErr.Reason)
		})
	}
}

func TestDecodeRequest_PayloadTooLarge(t *testing.T) {
	body := `{"platform":"web","frames":[{"id":"a","name":"` + strings.Repeat("x", 256) + `"}]}`
	r := http.MaxBytesReader(httptest.NewRecorder(), ioNopCloser(body), 64)
	_, err := DecodeRequest(r)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPayloadTooLarge))
	assert.Equal(t, CodePayloadTooLarge, ErrorResponse(err).Error)
}

type nopCloser struct{ *bytes.Reader }

func (nopCloser) Close() error { return nil }

func ioNopCloser(s string) nopCloser { return nopCloser{bytes.NewReader([]byte(s))} }

func TestErrorResponse(t *testing.T) {
	resp := ErrorResponse(BadRequest("missing_tree"))
	assert.False(t, resp.OK)
	assert.Equal(t, "bad_request", resp.Error)
	assert.Equal(t, "missing_tree", resp.Reason)

	resp = ErrorResponse(errors.New("boom"))
	assert.Equal(t, "boom", resp.Error)
	assert.Empty(t, resp.Reason)
}

func TestBuildRequest_RoundTripsThroughRoots(t *testing.T) {
	root := model.NodeSnapshot{
		ID: "1:1", Name: "Login", Type: "frame", Visible: true,
		Geometry: model.Geometry{Width: 375, Height: 812},
		Children: []model.NodeSnapshot{{ID: "1:2", Name: "Email Input", Type: "instance", Visible: true, Role: model.RoleTextbox, Focusable: true}},
	}
	req := BuildRequest(model.PlatformWeb, []model.NodeSnapshot{root}, BuildOptions{Prompt: "p"})
	require.NoError(t, Validate(req))

	got := req.Roots()[0]
	assert.Equal(t, root.ID, got.ID)
	assert.Equal(t, root.Geometry, got.Geometry)
	assert.Equal(t, root.Children, got.Children)
}

func TestChecksum_IgnoresFrameBoxAndIDs(t *testing.T) {
	mk := func(id string, x float64) AnnotateRequest {
		return AnnotateRequest{Platform: model.PlatformWeb, Frames: []Frame{{
			ID: id, Name: "Login", Box: Box{X: x, W: 100, H: 100},
			Children: []model.NodeSnapshot{{ID: id + ":c", Name: "Go Button", Type: "instance", Visible: true, Role: model.RoleButton, Focusable: true}},
		}}}
	}
	a, err := mk("1", 0).Checksum()
	require.NoError(t, err)
	b, err := mk("2", 500).Checksum()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "web:abc", CacheKey(model.PlatformWeb, "abc", ""))
	assert.NotEqual(t, CacheKey(model.PlatformWeb, "abc", ""), CacheKey(model.PlatformNative, "abc", ""))
	withPrompt := CacheKey(model.PlatformWeb, "abc", "focus the form")
	assert.True(t, strings.HasPrefix(withPrompt, "web:abc:"))
	assert.NotEqual(t, withPrompt, CacheKey(model.PlatformWeb, "abc", "other"))
}

func TestModelOutput_ForFrame(t *testing.T) {
	out := ModelOutput{Annotations: []ModelAnnotation{{FrameID: "wrong", Order: []ModelEntry{{ID: "x"}}}}}
	a, ok := out.ForFrame("1:1", 1)
	assert.True(t, ok, "single frame should accept a single annotation")
	assert.Equal(t, "wrong", a.FrameID)

	_, ok = out.ForFrame("1:1", 2)
	assert.False(t, ok, "multi-frame requests must match by id")
}

func TestResponseClone(t *testing.T) {
	orig := AnnotateResponse{OK: true, Annotations: []Annotation{{
		FrameID: "f", Order: []model.FocusItem{{ID: "a", Position: &model.Position{X: 1}}},
	}}}
	c := orig.Clone()
	c.Annotations[0].Order[0].Label = "changed"
	c.Annotations[0].Order[0].Position.X = 99
	assert.Empty(t, orig.Annotations[0].Order[0].Label)
	assert.Equal(t, 1.0, orig.Annotations[0].Order[0].Position.X)
	assert.NotNil(t, c.Annotation("f"))
	assert.Nil(t, c.Annotation("missing"))
}
