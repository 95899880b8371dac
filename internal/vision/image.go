package vision

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"math"
	"net/url"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultMaxImageDim caps the longer side of an image sent to the model.
const DefaultMaxImageDim = 1536

// ParseDataURL decodes a base64 data URL ("data:image/png;base64,...").
func ParseDataURL(s string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "data:")
	if !ok {
		return nil, "", fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("data URL has no payload")
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if mime == "" {
		mime = "text/plain"
	}
	if !isBase64 {
		decoded, err := url.PathUnescape(payload)
		if err != nil {
			return nil, "", fmt.Errorf("decode data URL: %w", err)
		}
		return []byte(decoded), mime, nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data URL: %w", err)
	}
	return data, mime, nil
}

// PrepareImage decodes a PNG, JPEG or WebP image and, when its longer side
// exceeds maxDim, scales it down and re-encodes it as PNG. WebP input is
// always re-encoded. Other images already small enough are returned
// unchanged.
func PrepareImage(data []byte, mime string, maxDim int) (*Image, error) {
	if maxDim <= 0 {
		maxDim = DefaultMaxImageDim
	}
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim && format != "webp" {
		if mime == "" {
			mime = "image/" + format
		}
		return &Image{Data: data, MIME: mime}, nil
	}

	scale := 1.0
	if w > h && w > maxDim {
		scale = float64(maxDim) / float64(w)
	} else if h > maxDim {
		scale = float64(maxDim) / float64(h)
	}
	dw := max(1, int(math.Round(float64(w)*scale)))
	dh := max(1, int(math.Round(float64(h)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return &Image{Data: buf.Bytes(), MIME: "image/png"}, nil
}

// ImageFromDataURL parses and prepares a request's image payload.
func ImageFromDataURL(s string, maxDim int) (*Image, error) {
	data, mime, err := ParseDataURL(s)
	if err != nil {
		return nil, err
	}
	return PrepareImage(data, mime, maxDim)
}

// DataURL encodes the image as a base64 data URL.
func (img *Image) DataURL() string {
	return "data:" + img.MIME + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
