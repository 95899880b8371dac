package client

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mj1618/focusorder/internal/cache"
	"github.com/mj1618/focusorder/internal/host"
	"github.com/mj1618/focusorder/internal/model"
	"github.com/mj1618/focusorder/internal/protocol"
	"github.com/mj1618/focusorder/internal/server"
	"github.com/mj1618/focusorder/internal/store"
	"github.com/mj1618/focusorder/internal/vision"
)

func box(x, y, w, h float64) *model.Geometry {
	return &model.Geometry{X: x, Y: y, Width: w, Height: h}
}

func control(id, name, role, text string, g *model.Geometry) *host.RawNode {
	return &host.RawNode{
		NodeID: id, NodeName: name, Type: "INSTANCE", Box: g,
		Tags: map[string]string{host.TagRole: role},
		Kids: []*host.RawNode{{NodeID: id + ":t", NodeName: "label", Type: "TEXT", Text: text, Box: g}},
	}
}

func loginFrame() *host.RawNode {
	return &host.RawNode{
		NodeID: "1:1", NodeName: "Login", Type: "FRAME", Box: box(0, 0, 375, 812),
		Kids: []*host.RawNode{
			control("1:2", "Input/Email", "textbox", "Email", box(16, 100, 343, 48)),
			control("1:3", "Button/Primary", "button", "Sign in", box(16, 200, 343, 48)),
			control("1:4", "Link/Forgot", "link", "Forgot password?", box(16, 280, 200, 24)),
		},
	}
}

func provider(exporter host.ImageExporter) *host.Provider {
	return &host.Provider{Source: host.NewMemorySource(loginFrame()), Exporter: exporter}
}

func ids(items []model.FocusItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func sources(items []model.FocusItem) []model.Source {
	out := make([]model.Source, len(items))
	for i, it := range items {
		out[i] = it.Source
	}
	return out
}

func serviceURL(t *testing.T, m vision.Model) string {
	t.Helper()
	svc := server.NewService(cache.NewMemory(16, time.Minute), m, server.DefaultOptions(), nil)
	srv := httptest.NewServer(server.Handler(svc, server.HTTPConfig{}, nil))
	t.Cleanup(srv.Close)
	return srv.URL
}

func webOpts() RunOptions { return RunOptions{Platform: model.PlatformWeb} }

func TestAnnotator_LocalOnly(t *testing.T) {
	st := store.NewMemory()
	a := NewAnnotator(Config{Provider: provider(nil), Store: st})

	results, err := a.Run(context.Background(), []string{"1:1"}, webOpts())
	require.NoError(t, err)
	require.Len(t, results, 1)
	res := results[0]
	assert.False(t, res.Remote)
	assert.True(t, res.Persisted)
	assert.Equal(t, []string{"1:2", "1:3", "1:4"}, ids(res.Sequence.Items))
	assert.Equal(t, "Sign in", res.Sequence.Items[1].Label)
	assert.NotEmpty(t, res.Sequence.Checksum)
	assert.Empty(t, res.Issues)

	saved, err := st.Get(context.Background(), "1:1")
	require.NoError(t, err)
	assert.Equal(t, res.Sequence.Items, saved.Items)
}

func TestAnnotator_CarriesForwardManualEdits(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	first, err := st.Put(ctx, model.FocusSequence{
		FrameID: "1:1", Platform: model.PlatformWeb,
		Items: []model.FocusItem{
			{ID: "1:4", Label: "Reset password", Role: model.RoleLink, Source: model.SourceManual},
			{ID: "9:9", Label: "Gone", Role: model.RoleButton, Source: model.SourceManual},
			{ID: "1:2", Label: "Email", Role: model.RoleTextbox, Source: model.SourceHeuristic},
		},
	})
	require.NoError(t, err)

	a := NewAnnotator(Config{Provider: provider(nil), Store: st})
	results, err := a.Run(ctx, []string{"1:1"}, webOpts())
	require.NoError(t, err)
	res := results[0]

	assert.Equal(t, []string{"1:4", "1:2", "1:3"}, ids(res.Sequence.Items))
	assert.Equal(t, []model.Source{model.SourceManual, model.SourceHeuristic, model.SourceHeuristic}, sources(res.Sequence.Items))
	assert.Equal(t, "Reset password", res.Sequence.Items[0].Label)
	assert.Equal(t, []string{"9:9"}, res.Dropped)
	assert.NotEmpty(t, res.Changes)
	assert.True(t, res.Sequence.CreatedAt.Equal(first.CreatedAt))
	assert.True(t, model.IsContiguous(res.Sequence.Items))
}

func TestAnnotator_UsesService(t *testing.T) {
	var calls atomic.Int32
	m := vision.ModelFunc(func(_ context.Context, in vision.Input) (protocol.ModelOutput, error) {
		calls.Add(1)
		return protocol.ModelOutput{Annotations: []protocol.ModelAnnotation{{
			FrameID: in.Frames[0].ID,
			Order:   []protocol.ModelEntry{{ID: "1:3", Label: "Sign in"}, {ID: "1:2", Label: "Email address"}},
		}}}, nil
	})
	c := New(serviceURL(t, m), time.Second)
	defer c.Close()
	a := NewAnnotator(Config{Provider: provider(nil), Client: c, Store: store.NewMemory()})

	results, err := a.Run(context.Background(), []string{"1:1"}, webOpts())
	require.NoError(t, err)
	res := results[0]
	assert.True(t, res.Remote)
	assert.False(t, res.Cache)
	assert.Equal(t, []string{"1:3", "1:2", "1:4"}, ids(res.Sequence.Items))
	assert.Equal(t, []model.Source{model.SourceAI, model.SourceAI, model.SourceHeuristic}, sources(res.Sequence.Items))
	assert.Equal(t, "Email address", res.Sequence.Items[1].Label)

	again, err := a.Run(context.Background(), []string{"1:1"}, webOpts())
	require.NoError(t, err)
	assert.True(t, again[0].Cache)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAnnotator_SendsImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))

	var sawImage atomic.Bool
	m := vision.ModelFunc(func(_ context.Context, in vision.Input) (protocol.ModelOutput, error) {
		sawImage.Store(in.Image != nil)
		return protocol.ModelOutput{}, errors.New("no answer")
	})
	c := New(serviceURL(t, m), time.Second)
	defer c.Close()
	exporter := host.StaticExporter{Data: buf.Bytes(), MIME: "image/png"}
	a := NewAnnotator(Config{Provider: provider(exporter), Client: c})

	opts := webOpts()
	opts.Image = true
	results, err := a.Run(context.Background(), []string{"1:1"}, opts)
	require.NoError(t, err)
	assert.True(t, sawImage.Load())
	assert.Equal(t, server.NoteModelFailed, results[0].Sequence.Notes)
}

func TestAnnotator_ServiceDownFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"ok":false,"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := New(srv.URL, time.Second)
	defer c.Close()

	a := NewAnnotator(Config{Provider: provider(nil), Client: c})
	results, err := a.Run(context.Background(), []string{"1:1"}, webOpts())
	require.NoError(t, err)
	assert.False(t, results[0].Remote)
	assert.Equal(t, []string{"1:2", "1:3", "1:4"}, ids(results[0].Sequence.Items))
	assert.False(t, results[0].Persisted)
}

type brokenStore struct{ store.Store }

func (brokenStore) Get(context.Context, string) (model.FocusSequence, error) {
	return model.FocusSequence{}, store.ErrNotFound
}

func (brokenStore) Put(context.Context, model.FocusSequence) (model.FocusSequence, error) {
	return model.FocusSequence{}, errors.New("disk full")
}

func TestAnnotator_PersistenceFailureIsNotFatal(t *testing.T) {
	a := NewAnnotator(Config{Provider: provider(nil), Store: brokenStore{}})
	results, err := a.Run(context.Background(), []string{"1:1"}, webOpts())
	require.NoError(t, err)
	assert.False(t, results[0].Persisted)
	assert.Len(t, results[0].Sequence.Items, 3)
}

func TestAnnotator_EmptySelection(t *testing.T) {
	empty := &host.RawNode{NodeID: "2:1", NodeName: "Splash", Type: "FRAME", Box: box(0, 0, 375, 812),
		Kids: []*host.RawNode{{NodeID: "2:2", NodeName: "Logo", Type: "VECTOR", Box: box(100, 100, 80, 80)}}}
	a := NewAnnotator(Config{Provider: &host.Provider{Source: host.NewMemorySource(empty)}})

	results, err := a.Run(context.Background(), []string{"2:1"}, webOpts())
	require.NoError(t, err)
	assert.Empty(t, results[0].Sequence.Items)
	assert.Equal(t, protocol.EmptyStateMessage, results[0].Sequence.Notes)
}

func TestAnnotator_Errors(t *testing.T) {
	a := NewAnnotator(Config{Provider: provider(nil)})
	ctx := context.Background()

	_, err := a.Run(ctx, nil, webOpts())
	assert.Error(t, err)
	_, err = a.Run(ctx, []string{"404"}, webOpts())
	assert.ErrorIs(t, err, host.ErrNodeNotFound)
	_, err = a.Run(ctx, []string{"1:1"}, RunOptions{Platform: "tv"})
	assert.Error(t, err)
}

func TestAnnotator_GuardSkipsUnchangedOrder(t *testing.T) {
	g := NewGuard()
	a := NewAnnotator(Config{Provider: provider(nil), Guard: g})
	opts := webOpts()
	opts.SelectionID = "sel-1"

	first, err := a.Run(context.Background(), []string{"1:1"}, opts)
	require.NoError(t, err)
	assert.False(t, first[0].Unchanged)

	again, err := a.Run(context.Background(), []string{"1:1"}, opts)
	require.NoError(t, err)
	assert.True(t, again[0].Unchanged)
	assert.Equal(t, first[0].Sequence.Items, again[0].Sequence.Items)
}

func TestAnnotator_GuardDiscardsStaleSelection(t *testing.T) {
	g := NewGuard()
	svc := server.NewService(cache.NewMemory(16, time.Minute), nil, server.DefaultOptions(), nil)
	h := server.Handler(svc, server.HTTPConfig{}, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/annotate" {
			// The user picks another frame while the request is in flight.
			g.Select("sel-2", "7:7")
		}
		h.ServeHTTP(w, r)
	}))
	defer srv.Close()
	c := New(srv.URL, time.Second)
	defer c.Close()

	st := store.NewMemory()
	a := NewAnnotator(Config{Provider: provider(nil), Client: c, Store: st, Guard: g})
	opts := webOpts()
	opts.SelectionID = "sel-1"

	results, err := a.Run(context.Background(), []string{"1:1"}, opts)
	assert.ErrorIs(t, err, ErrStaleSelection)
	assert.Empty(t, results)
	_, err = st.Get(context.Background(), "1:1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestClient_BadRequest(t *testing.T) {
	c := New(serviceURL(t, nil), time.Second)
	defer c.Close()

	_, err := c.Annotate(context.Background(), protocol.AnnotateRequest{Platform: model.PlatformWeb})
	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Status)
	assert.Equal(t, protocol.CodeBadRequest, se.Code)
	assert.Equal(t, "missing_tree", se.Reason)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL, 50*time.Millisecond)
	defer c.Close()
	_, err := c.Health(context.Background())
	assert.Error(t, err)
}

func TestClient_Warmup(t *testing.T) {
	ignore := goleak.IgnoreCurrent()
	defer goleak.VerifyNone(t, ignore)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","model":"fake","hasKey":true,"cache":"memory","version":"dev"}`))
	}))
	defer srv.Close()
	c := New(srv.URL, time.Second)
	defer c.Close()

	err, ok := <-c.Warmup(context.Background())
	require.True(t, ok)
	assert.NoError(t, err)

	down := New("http://127.0.0.1:1", 200*time.Millisecond)
	defer down.Close()
	done := down.Warmup(context.Background())
	assert.Error(t, <-done)
	_, open := <-done
	assert.False(t, open)
}
