package client

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mj1618/focusorder/internal/heuristics"
	"github.com/mj1618/focusorder/internal/host"
	"github.com/mj1618/focusorder/internal/merge"
	"github.com/mj1618/focusorder/internal/model"
	"github.com/mj1618/focusorder/internal/protocol"
	"github.com/mj1618/focusorder/internal/serialize"
	"github.com/mj1618/focusorder/internal/store"
	"github.com/mj1618/focusorder/internal/vision"
)

// Config wires an Annotator. Only Provider.Source is required: without a
// Client the order is computed locally, and without a Store nothing is
// persisted or carried forward.
type Config struct {
	Provider *host.Provider
	Client   *Client
	Store    store.Store
	// Guard, when set, discards results for a selection the user has left
	// and flags orders that match what was last applied.
	Guard     *Guard
	Serialize serialize.Options
	// MaxImageDim caps the exported image before upload.
	MaxImageDim int
	Logger      *zap.Logger
}

// RunOptions are per-run choices.
type RunOptions struct {
	Platform model.Platform
	Prompt   string
	// Image exports the first frame and sends it to the service.
	Image bool
	// SelectionID identifies the selection this run answers, for Guard.
	SelectionID string
}

// Result is the outcome for one frame.
type Result struct {
	Sequence model.FocusSequence    `json:"sequence"          yaml:"sequence"`
	Issues   []heuristics.Issue     `json:"issues,omitempty"  yaml:"issues,omitempty"`
	Dropped  []string               `json:"dropped,omitempty" yaml:"dropped,omitempty"`
	Changes  []model.SequenceChange `json:"changes,omitempty" yaml:"changes,omitempty"`
	Remote   bool                   `json:"remote"            yaml:"remote"`
	Cache    bool                   `json:"cache,omitempty"   yaml:"cache,omitempty"`
	// Truncated reports that serialization stopped at a depth or count
	// bound.
	Truncated bool `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	// Unchanged reports that the order matches the one last applied for
	// the selection.
	Unchanged bool `json:"unchanged,omitempty" yaml:"unchanged,omitempty"`
	Persisted bool `json:"persisted"           yaml:"persisted"`
}

// Annotator runs the client pipeline for a selection.
type Annotator struct {
	provider    *host.Provider
	client      *Client
	store       store.Store
	guard       *Guard
	serializer  *serialize.Serializer
	maxImageDim int
	logger      *zap.Logger
}

// NewAnnotator builds an Annotator.
func NewAnnotator(cfg Config) *Annotator {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Annotator{
		provider:    cfg.Provider,
		client:      cfg.Client,
		store:       cfg.Store,
		guard:       cfg.Guard,
		serializer:  serialize.New(cfg.Serialize, logger),
		maxImageDim: cfg.MaxImageDim,
		logger:      logger,
	}
}

type frameState struct {
	node  host.Node
	snap  model.NodeSnapshot
	stats serialize.Stats
	local []model.FocusItem
}

// Run annotates the given frames. It fails when a frame cannot be resolved,
// or with ErrStaleSelection when the selection changed before any frame was
// answered. Service and persistence failures degrade to local results.
func (a *Annotator) Run(ctx context.Context, frameIDs []string, opts RunOptions) ([]Result, error) {
	if len(frameIDs) == 0 {
		return nil, errors.New("no frames selected")
	}
	if a.provider == nil || a.provider.Source == nil {
		return nil, errors.New("no node source configured")
	}
	if _, err := model.ParsePlatform(string(opts.Platform)); err != nil {
		return nil, err
	}

	if a.guard != nil {
		a.guard.Select(opts.SelectionID, frameIDs...)
	}

	var warm <-chan error
	if a.client != nil {
		warm = a.client.Warmup(ctx)
	}

	frames := make([]frameState, len(frameIDs))
	for i, id := range frameIDs {
		node, err := a.provider.Source.Node(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolve frame %s: %w", id, err)
		}
		snap, stats := a.serializer.Serialize(node, opts.Platform)
		frames[i] = frameState{node: node, snap: snap, stats: stats, local: heuristics.Order(snap)}
	}

	resp, remote := a.callService(ctx, frames, opts)
	if warm != nil {
		select {
		case err := <-warm:
			if err != nil {
				a.logger.Debug("warm-up probe failed", zap.Error(err))
			}
		default:
		}
	}

	results := make([]Result, 0, len(frames))
	for i, f := range frames {
		order, notes := f.local, ""
		if remote {
			if ann := resp.Annotation(f.snap.ID); ann != nil {
				order, notes = ann.Order, ann.Notes
			} else {
				a.logger.Warn("service returned no annotation for frame", zap.String("frame", f.snap.ID))
			}
		}
		res := a.finish(ctx, f, order, notes, opts.Platform)
		if a.guard != nil {
			changed, err := a.guard.CheckOrder(opts.SelectionID, frameIDs[i], res.Sequence.Items)
			if errors.Is(err, ErrStaleSelection) {
				a.logger.Info("selection changed, discarding result", zap.String("frame", f.snap.ID))
				continue
			}
			if err != nil {
				a.logger.Warn("order checksum failed", zap.String("frame", f.snap.ID), zap.Error(err))
			}
			res.Unchanged = err == nil && !changed
		}
		a.persist(ctx, &res)
		res.Remote = remote
		res.Cache = remote && resp.Cache
		results = append(results, res)
	}
	if len(results) == 0 {
		return nil, ErrStaleSelection
	}
	return results, nil
}

func (a *Annotator) callService(ctx context.Context, frames []frameState, opts RunOptions) (protocol.AnnotateResponse, bool) {
	if a.client == nil {
		return protocol.AnnotateResponse{}, false
	}
	roots := make([]model.NodeSnapshot, len(frames))
	for i, f := range frames {
		roots[i] = f.snap
	}
	build := protocol.BuildOptions{Prompt: opts.Prompt}
	if opts.Image {
		build.Image = a.exportImage(ctx, frames[0].node)
	}
	resp, err := a.client.Annotate(ctx, protocol.BuildRequest(opts.Platform, roots, build))
	if err != nil {
		a.logger.Warn("annotation service failed, using local order", zap.Error(err))
		return protocol.AnnotateResponse{}, false
	}
	return resp, true
}

func (a *Annotator) exportImage(ctx context.Context, node host.Node) string {
	data, mime, err := a.provider.ExportImage(ctx, node)
	if err != nil {
		a.logger.Debug("image export skipped", zap.Error(err))
		return ""
	}
	img, err := vision.PrepareImage(data, mime, a.maxImageDim)
	if err != nil {
		a.logger.Warn("image preparation failed", zap.Error(err))
		return ""
	}
	return img.DataURL()
}

func (a *Annotator) finish(ctx context.Context, f frameState, order []model.FocusItem, notes string, platform model.Platform) Result {
	res := Result{Truncated: f.stats.Truncated()}

	var saved *model.FocusSequence
	if a.store != nil {
		switch s, err := a.store.Get(ctx, f.snap.ID); {
		case err == nil:
			saved = &s
		case !errors.Is(err, store.ErrNotFound):
			a.logger.Warn("reading saved sequence failed", zap.String("frame", f.snap.ID), zap.Error(err))
		}
	}

	var ai, heuristic, kept []model.FocusItem
	for _, it := range order {
		if it.Source == model.SourceAI {
			ai = append(ai, it)
		} else {
			heuristic = append(heuristic, it)
		}
	}
	if saved != nil {
		kept, res.Dropped = merge.CarryForward(saved.Items, f.snap)
	}
	items := merge.Merge(heuristic, ai, kept)
	if len(items) == 0 && notes == "" {
		notes = protocol.EmptyStateMessage
	}

	checksum, err := model.Checksum(f.snap)
	if err != nil {
		a.logger.Warn("checksum failed", zap.String("frame", f.snap.ID), zap.Error(err))
	}
	res.Sequence = model.FocusSequence{
		FrameID:   f.snap.ID,
		FrameName: f.snap.Name,
		Platform:  platform,
		Checksum:  checksum,
		Items:     items,
		Notes:     notes,
	}
	res.Issues = heuristics.Validate(items, heuristics.ExtractCandidates(f.snap))
	if saved != nil {
		res.Changes = model.DiffSequences(saved.Items, items)
		res.Sequence.CreatedAt = saved.CreatedAt
	}
	return res
}

func (a *Annotator) persist(ctx context.Context, res *Result) {
	if a.store == nil {
		return
	}
	stored, err := a.store.Put(ctx, res.Sequence)
	if err != nil {
		a.logger.Warn("persisting sequence failed", zap.String("frame", res.Sequence.FrameID), zap.Error(err))
		return
	}
	res.Sequence = stored
	res.Persisted = true
}
