package protocol

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/mj1618/focusorder/internal/model"
)

// BuildOptions carries the optional parts of a request.
type BuildOptions struct {
	Prompt string
	// Image is a base64 data URL of the rendered selection.
	Image string
}

// BuildRequest assembles a request from serialized frame roots.
func BuildRequest(platform model.Platform, roots []model.NodeSnapshot, opts BuildOptions) AnnotateRequest {
	req := AnnotateRequest{
		Platform: platform,
		Image:    opts.Image,
		Prompt:   opts.Prompt,
	}
	for _, r := range roots {
		req.Frames = append(req.Frames, FrameFromSnapshot(r))
	}
	return req
}

// Checksum hashes the normalized frames of the request.
func (r AnnotateRequest) Checksum() (string, error) {
	return model.Checksum(r.Roots()...)
}

// CacheKey combines platform and tree checksum. A free-text prompt changes
// what the model is asked, so it is folded into the key when present.
func CacheKey(platform model.Platform, checksum, prompt string) string {
	key := string(platform) + ":" + checksum
	if prompt != "" {
		sum := sha256.Sum256([]byte(prompt))
		key += ":" + hex.EncodeToString(sum[:8])
	}
	return key
}
