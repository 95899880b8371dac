// Package cache stores annotate responses keyed by platform and tree
// checksum.
package cache

import (
	"context"
	"time"

	"github.com/mj1618/focusorder/internal/protocol"
)

// DefaultTTL is how long a computed response stays valid.
const DefaultTTL = 15 * time.Minute

// Cache is a key to response store with time-based expiry. Writes are
// single-key upserts; last writer wins.
type Cache interface {
	Get(ctx context.Context, key string) (protocol.AnnotateResponse, bool, error)
	Set(ctx context.Context, key string, resp protocol.AnnotateResponse) error
	Purge(ctx context.Context) error
	Name() string
}
