package store

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mj1618/focusorder/internal/model"
)

// Memory is an in-process Store.
type Memory struct {
	mu   sync.RWMutex
	seqs map[string]model.FocusSequence
	now  func() time.Time
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{seqs: make(map[string]model.FocusSequence), now: time.Now}
}

func (m *Memory) Get(_ context.Context, frameID string) (model.FocusSequence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seq, ok := m.seqs[frameID]
	if !ok {
		return model.FocusSequence{}, ErrNotFound
	}
	return cloneSeq(seq), nil
}

func (m *Memory) Put(_ context.Context, seq model.FocusSequence) (model.FocusSequence, error) {
	if seq.FrameID == "" {
		return model.FocusSequence{}, errors.New("store: sequence has no frame id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var prev *model.FocusSequence
	if p, ok := m.seqs[seq.FrameID]; ok {
		prev = &p
	}
	seq = stamp(cloneSeq(seq), prev, m.now())
	m.seqs[seq.FrameID] = seq
	return cloneSeq(seq), nil
}

func (m *Memory) Delete(_ context.Context, frameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seqs, frameID)
	return nil
}

func (m *Memory) List(_ context.Context) ([]model.FocusSequence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.FocusSequence, 0, len(m.seqs))
	for _, s := range m.seqs {
		out = append(out, cloneSeq(s))
	}
	slices.SortFunc(out, func(a, b model.FocusSequence) int { return strings.Compare(a.FrameID, b.FrameID) })
	return out, nil
}

func cloneSeq(s model.FocusSequence) model.FocusSequence {
	if s.Items == nil {
		return s
	}
	items := make([]model.FocusItem, len(s.Items))
	for i, it := range s.Items {
		if it.Position != nil {
			p := *it.Position
			it.Position = &p
		}
		items[i] = it
	}
	s.Items = items
	return s
}
