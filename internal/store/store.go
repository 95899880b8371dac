// Package store persists curated focus sequences per frame.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/mj1618/focusorder/internal/model"
)

// ErrNotFound is returned when no sequence is saved for a frame.
var ErrNotFound = errors.New("store: sequence not found")

// Store saves one FocusSequence per frame. Put always replaces the whole
// sequence.
type Store interface {
	Get(ctx context.Context, frameID string) (model.FocusSequence, error)
	// Put saves seq, stamping UpdatedAt and keeping the CreatedAt of any
	// earlier save. It returns the sequence as stored.
	Put(ctx context.Context, seq model.FocusSequence) (model.FocusSequence, error)
	Delete(ctx context.Context, frameID string) error
	List(ctx context.Context) ([]model.FocusSequence, error)
}

// stamp sets the timestamps of seq given the previously stored version.
func stamp(seq model.FocusSequence, prev *model.FocusSequence, now time.Time) model.FocusSequence {
	now = now.UTC()
	seq.UpdatedAt = now
	switch {
	case prev != nil && !prev.CreatedAt.IsZero():
		seq.CreatedAt = prev.CreatedAt
	case seq.CreatedAt.IsZero():
		seq.CreatedAt = now
	}
	seq.Items = model.Reindex(seq.Items)
	return seq
}
