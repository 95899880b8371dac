package host

import (
	"context"
	"fmt"
	"sync"
)

// MemorySource resolves nodes from a set of in-memory trees.
type MemorySource struct {
	roots []*RawNode
}

// NewMemorySource indexes the given trees.
func NewMemorySource(roots ...*RawNode) *MemorySource {
	return &MemorySource{roots: roots}
}

func (s *MemorySource) Node(_ context.Context, id string) (Node, error) {
	for _, r := range s.roots {
		if found := findRaw(r, id); found != nil {
			return found, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
}

func findRaw(n *RawNode, id string) *RawNode {
	if n == nil {
		return nil
	}
	if n.NodeID == id {
		return n
	}
	for _, c := range n.Kids {
		if found := findRaw(c, id); found != nil {
			return found
		}
	}
	return nil
}

// MemoryStorage is a SpecStorage backed by a map.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStorage returns an empty storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) GetSpec(_ context.Context, nodeID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[nodeID], nil
}

func (m *MemoryStorage) SetSpec(_ context.Context, nodeID, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[nodeID] = value
	return nil
}

// StaticExporter returns the same image for every node.
type StaticExporter struct {
	Data []byte
	MIME string
}

func (e StaticExporter) Export(context.Context, Node) ([]byte, string, error) {
	if len(e.Data) == 0 {
		return nil, "", ErrNoExporter
	}
	return e.Data, e.MIME, nil
}
