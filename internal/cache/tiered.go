package cache

import (
	"context"
	"errors"

	"github.com/mj1618/focusorder/internal/protocol"
)

// Tiered reads through a fast local cache to a shared one. Writes go to
// both.
type Tiered struct {
	Local  Cache
	Shared Cache
}

var _ Cache = (*Tiered)(nil)

func (t *Tiered) Get(ctx context.Context, key string) (protocol.AnnotateResponse, bool, error) {
	if resp, ok, err := t.Local.Get(ctx, key); err == nil && ok {
		return resp, true, nil
	}
	resp, ok, err := t.Shared.Get(ctx, key)
	if err != nil || !ok {
		return resp, ok, err
	}
	_ = t.Local.Set(ctx, key, resp)
	return resp, true, nil
}

func (t *Tiered) Set(ctx context.Context, key string, resp protocol.AnnotateResponse) error {
	return errors.Join(t.Local.Set(ctx, key, resp), t.Shared.Set(ctx, key, resp))
}

func (t *Tiered) Purge(ctx context.Context) error {
	return errors.Join(t.Local.Purge(ctx), t.Shared.Purge(ctx))
}

func (t *Tiered) Name() string { return t.Local.Name() + "+" + t.Shared.Name() }
