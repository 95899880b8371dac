package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/focusorder/internal/host"
	"github.com/mj1618/focusorder/internal/model"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func sequence(frameID string, ids ...string) model.FocusSequence {
	seq := model.FocusSequence{FrameID: frameID, FrameName: "Login", Platform: model.PlatformWeb, Checksum: "abc"}
	for i, id := range ids {
		seq.Items = append(seq.Items, model.FocusItem{
			ID: id, Label: "Item " + id, Role: model.RoleButton, Order: i + 5,
			Position: &model.Position{X: 1, Y: float64(i)}, Source: model.SourceManual,
		})
	}
	return seq
}

func backends(t *testing.T, c *clock) map[string]Store {
	t.Helper()
	mem := NewMemory()
	mem.now = c.now

	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "specs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })
	sq.now = c.now

	node := NewNode(host.NewMemoryStorage())
	node.now = c.now

	return map[string]Store{"memory": mem, "sqlite": sq, "node": node}
}

func TestStore_Contract(t *testing.T) {
	for _, name := range []string{"memory", "sqlite", "node"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
			s := backends(t, c)[name]

			_, err := s.Get(ctx, "f1")
			require.ErrorIs(t, err, ErrNotFound)

			saved, err := s.Put(ctx, sequence("f1", "a", "b"))
			require.NoError(t, err)
			assert.True(t, saved.CreatedAt.Equal(c.t))
			assert.True(t, saved.UpdatedAt.Equal(c.t))
			assert.Equal(t, []int{1, 2}, orders(saved.Items))

			got, err := s.Get(ctx, "f1")
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, ids(got.Items))
			assert.Equal(t, model.SourceManual, got.Items[0].Source)
			assert.Equal(t, "abc", got.Checksum)

			created := c.t
			c.advance(time.Hour)
			_, err = s.Put(ctx, sequence("f1", "c"))
			require.NoError(t, err)
			got, err = s.Get(ctx, "f1")
			require.NoError(t, err)
			assert.Equal(t, []string{"c"}, ids(got.Items), "put replaces the whole sequence")
			assert.True(t, got.CreatedAt.Equal(created))
			assert.True(t, got.UpdatedAt.Equal(c.t))

			_, err = s.Put(ctx, sequence("f0", "z"))
			require.NoError(t, err)
			all, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "f0", all[0].FrameID)
			assert.Equal(t, "f1", all[1].FrameID)

			require.NoError(t, s.Delete(ctx, "f1"))
			_, err = s.Get(ctx, "f1")
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = s.Put(ctx, model.FocusSequence{})
			assert.Error(t, err)
		})
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	_, err := s.Put(ctx, sequence("f1", "a"))
	require.NoError(t, err)

	got, err := s.Get(ctx, "f1")
	require.NoError(t, err)
	got.Items[0].Label = "changed"
	got.Items[0].Position.X = 99

	again, err := s.Get(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "Item a", again.Items[0].Label)
	assert.Equal(t, 1.0, again.Items[0].Position.X)
}

func TestNode_WritesSpecKeyOnFrame(t *testing.T) {
	ctx := context.Background()
	storage := host.NewMemoryStorage()
	s := NewNode(storage)

	_, err := s.Put(ctx, sequence("1:1", "a"))
	require.NoError(t, err)
	raw, err := storage.GetSpec(ctx, "1:1")
	require.NoError(t, err)
	assert.Contains(t, raw, `"frameId":"1:1"`)

	require.NoError(t, storage.SetSpec(ctx, "1:1", "{broken"))
	_, err = s.Get(ctx, "1:1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

type failingStorage struct{}

func (failingStorage) GetSpec(context.Context, string) (string, error) { return "", nil }

func (failingStorage) SetSpec(context.Context, string, string) error {
	return errors.New("document is read-only")
}

func TestNode_WriteFailure(t *testing.T) {
	_, err := NewNode(failingStorage{}).Put(context.Background(), sequence("f1", "a"))
	assert.ErrorContains(t, err, "read-only")
}

func ids(items []model.FocusItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func orders(items []model.FocusItem) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.Order
	}
	return out
}
