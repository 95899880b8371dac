package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/mj1618/focusorder/internal/host"
	"github.com/mj1618/focusorder/internal/model"
)

// Node stores each sequence on its frame node through the host's per-node
// storage, under host.SpecKey. The host cannot enumerate stored keys, so
// List only returns frames written through this value.
type Node struct {
	storage host.SpecStorage
	now     func() time.Time

	mu     sync.Mutex
	frames map[string]bool
}

// NewNode wraps host storage.
func NewNode(storage host.SpecStorage) *Node {
	return &Node{storage: storage, now: time.Now, frames: make(map[string]bool)}
}

func (n *Node) Get(ctx context.Context, frameID string) (model.FocusSequence, error) {
	raw, err := n.storage.GetSpec(ctx, frameID)
	if err != nil {
		if errors.Is(err, host.ErrNodeNotFound) {
			return model.FocusSequence{}, ErrNotFound
		}
		return model.FocusSequence{}, fmt.Errorf("read %s on %s: %w", host.SpecKey, frameID, err)
	}
	if raw == "" {
		return model.FocusSequence{}, ErrNotFound
	}
	return decodeSeq(raw)
}

func (n *Node) Put(ctx context.Context, seq model.FocusSequence) (model.FocusSequence, error) {
	if seq.FrameID == "" {
		return model.FocusSequence{}, errors.New("store: sequence has no frame id")
	}
	var prev *model.FocusSequence
	switch p, err := n.Get(ctx, seq.FrameID); {
	case err == nil:
		prev = &p
	case !errors.Is(err, ErrNotFound):
		return model.FocusSequence{}, err
	}
	seq = stamp(seq, prev, n.now())
	raw, err := json.Marshal(seq)
	if err != nil {
		return model.FocusSequence{}, fmt.Errorf("failed to encode spec: %w", err)
	}
	if err := n.storage.SetSpec(ctx, seq.FrameID, string(raw)); err != nil {
		return model.FocusSequence{}, fmt.Errorf("write %s on %s: %w", host.SpecKey, seq.FrameID, err)
	}
	n.mu.Lock()
	n.frames[seq.FrameID] = true
	n.mu.Unlock()
	return seq, nil
}

func (n *Node) Delete(ctx context.Context, frameID string) error {
	if err := n.storage.SetSpec(ctx, frameID, ""); err != nil {
		return err
	}
	n.mu.Lock()
	delete(n.frames, frameID)
	n.mu.Unlock()
	return nil
}

func (n *Node) List(ctx context.Context) ([]model.FocusSequence, error) {
	n.mu.Lock()
	ids := make([]string, 0, len(n.frames))
	for id := range n.frames {
		ids = append(ids, id)
	}
	n.mu.Unlock()
	slices.Sort(ids)

	var out []model.FocusSequence
	for _, id := range ids {
		seq, err := n.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, seq)
	}
	return out, nil
}
