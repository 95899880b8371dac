package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mj1618/focusorder/internal/protocol"
)

// DefaultSize is the number of responses kept in memory.
const DefaultSize = 1024

// Memory is an in-process LRU with per-entry expiry.
type Memory struct {
	lru *expirable.LRU[string, protocol.AnnotateResponse]
}

var _ Cache = (*Memory)(nil)

// NewMemory creates a cache of at most size entries, each living ttl.
func NewMemory(size int, ttl time.Duration) *Memory {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{lru: expirable.NewLRU[string, protocol.AnnotateResponse](size, nil, ttl)}
}

func (m *Memory) Get(_ context.Context, key string) (protocol.AnnotateResponse, bool, error) {
	resp, ok := m.lru.Get(key)
	if !ok {
		return protocol.AnnotateResponse{}, false, nil
	}
	return resp.Clone(), true, nil
}

func (m *Memory) Set(_ context.Context, key string, resp protocol.AnnotateResponse) error {
	m.lru.Add(key, resp.Clone())
	return nil
}

func (m *Memory) Purge(context.Context) error {
	m.lru.Purge()
	return nil
}

// Len returns the number of live entries.
func (m *Memory) Len() int { return m.lru.Len() }

func (m *Memory) Name() string { return "memory" }
