// Package vision talks to the external model that proposes focus orders.
// Everything it returns is untrusted and must go through
// protocol.Sanitize before use.
package vision

import (
	"context"
	"errors"

	"github.com/mj1618/focusorder/internal/model"
	"github.com/mj1618/focusorder/internal/protocol"
)

var (
	// ErrNoCredential is returned when no API key is configured.
	ErrNoCredential = errors.New("vision: no model credential configured")
	// ErrInvalidJSON is returned when the model's reply is not the
	// expected JSON shape.
	ErrInvalidJSON = errors.New("vision: invalid JSON from model")
)

// Image is a rendered selection sent alongside the tree.
type Image struct {
	Data []byte
	MIME string
}

// Input is everything the model sees for one request.
type Input struct {
	Platform model.Platform
	Frames   []protocol.Frame
	Prompt   string
	Image    *Image
}

// Model proposes focus orders.
type Model interface {
	Annotate(ctx context.Context, in Input) (protocol.ModelOutput, error)
	Name() string
}

// ModelFunc adapts a function to the Model interface.
type ModelFunc func(ctx context.Context, in Input) (protocol.ModelOutput, error)

func (f ModelFunc) Annotate(ctx context.Context, in Input) (protocol.ModelOutput, error) {
	return f(ctx, in)
}

func (f ModelFunc) Name() string { return "func" }
