// Package server implements the annotation service and its HTTP and MCP
// surfaces.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mj1618/focusorder/internal/cache"
	"github.com/mj1618/focusorder/internal/heuristics"
	"github.com/mj1618/focusorder/internal/merge"
	"github.com/mj1618/focusorder/internal/model"
	"github.com/mj1618/focusorder/internal/protocol"
	"github.com/mj1618/focusorder/internal/serialize"
	"github.com/mj1618/focusorder/internal/version"
	"github.com/mj1618/focusorder/internal/vision"
)

// TrivialFocusable is the largest focusable count answered without the
// model.
const TrivialFocusable = 2

// Notes attached to each kind of answer.
const (
	NoteTrivial        = "Heuristic order: selection has too few controls to need the model."
	NoteNoModel        = "Heuristic order: no model is configured."
	NoteModelFailed    = "Heuristic order: the model call failed."
	NoteModelUnusable  = "Heuristic order: the model returned no usable items."
	NoteModelDefault   = "Model order, completed with heuristic stops."
	noteDroppedPattern = " Dropped %d unknown and %d duplicate ids from the model."
)

// Options tunes the pipeline.
type Options struct {
	// ModelNodeBudget caps how many nodes per request are sent to the model.
	ModelNodeBudget int
	// MaxNodes rejects requests above this many nodes with
	// payload_too_large. Zero disables the check.
	MaxNodes     int
	ModelTimeout time.Duration
	MaxImageDim  int
}

// DefaultOptions returns the standard pipeline settings.
func DefaultOptions() Options {
	return Options{
		ModelNodeBudget: 800,
		MaxNodes:        5000,
		ModelTimeout:    30 * time.Second,
		MaxImageDim:     vision.DefaultMaxImageDim,
	}
}

// Service answers annotate requests. The cache is its only shared mutable
// state; concurrent misses for one key are computed once.
type Service struct {
	cache  cache.Cache
	model  vision.Model
	opts   Options
	logger *zap.Logger
	group  singleflight.Group
}

// NewService builds a Service. model may be nil, in which case every
// request is answered heuristically.
func NewService(c cache.Cache, m vision.Model, opts Options, logger *zap.Logger) *Service {
	if c == nil {
		c = cache.NewMemory(cache.DefaultSize, cache.DefaultTTL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ModelNodeBudget <= 0 {
		opts.ModelNodeBudget = DefaultOptions().ModelNodeBudget
	}
	if opts.ModelTimeout <= 0 {
		opts.ModelTimeout = DefaultOptions().ModelTimeout
	}
	return &Service{cache: c, model: m, opts: opts, logger: logger}
}

// Health reports service status for warm-up probes.
func (s *Service) Health() protocol.Health {
	h := protocol.Health{Status: "ok", Cache: s.cache.Name(), Version: version.Version}
	if s.model != nil {
		h.Model = s.model.Name()
		h.HasKey = true
	}
	return h
}

// Annotate runs the request pipeline: validate, checksum, cache lookup,
// fast paths, model call with fallback, cache store.
func (s *Service) Annotate(ctx context.Context, req protocol.AnnotateRequest) (protocol.AnnotateResponse, error) {
	if err := protocol.Validate(req); err != nil {
		return protocol.AnnotateResponse{}, err
	}
	if s.opts.MaxNodes > 0 {
		if n := req.NodeCount(); n > s.opts.MaxNodes {
			return protocol.AnnotateResponse{}, protocol.PayloadTooLarge(
				fmt.Sprintf("%d nodes exceeds limit of %d", n, s.opts.MaxNodes))
		}
	}

	frames := make([]protocol.Frame, len(req.Frames))
	for i, f := range req.Frames {
		root := protocol.FrameRoot(f).Clone()
		serialize.Reclassify(&root, req.Platform)
		f.Children = root.Children
		frames[i] = f
	}
	req.Frames = frames

	checksum, err := req.Checksum()
	if err != nil {
		return protocol.AnnotateResponse{}, fmt.Errorf("checksum request: %w", err)
	}
	key := protocol.CacheKey(req.Platform, checksum, req.Prompt)
	ids := requestIDs(req)

	if stored, ok := s.lookup(ctx, key); ok {
		s.logger.Debug("cache hit", zap.String("key", key))
		resp := ids.attach(stored)
		resp.Cache = true
		return resp, nil
	}

	// The computation outlives a caller that gives up: its result is still
	// cached for the next request. Callers sharing a flight may carry
	// different ids, so the flight yields the stored form.
	detached := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(key, func() (any, error) {
		if stored, ok := s.lookup(detached, key); ok {
			return flight{stored: stored, hit: true}, nil
		}
		stored := ids.detach(s.compute(detached, req, checksum))
		if err := s.cache.Set(detached, key, stored); err != nil {
			s.logger.Warn("cache store failed", zap.String("key", key), zap.Error(err))
		}
		return flight{stored: stored}, nil
	})
	if err != nil {
		return protocol.AnnotateResponse{}, err
	}
	f := v.(flight)
	resp := ids.attach(f.stored)
	resp.Cache = f.hit
	return resp, nil
}

type flight struct {
	stored protocol.AnnotateResponse
	hit    bool
}

func (s *Service) lookup(ctx context.Context, key string) (protocol.AnnotateResponse, bool) {
	resp, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
		return protocol.AnnotateResponse{}, false
	}
	return resp, ok
}

func (s *Service) compute(ctx context.Context, req protocol.AnnotateRequest, checksum string) protocol.AnnotateResponse {
	roots := req.Roots()
	heuristic := make([][]model.FocusItem, len(roots))
	for i, r := range roots {
		heuristic[i] = heuristics.Order(r)
	}
	resp := protocol.AnnotateResponse{OK: true, Checksum: checksum}

	focusable := heuristics.CountFocusable(roots...)
	switch {
	case focusable == 0:
		s.logger.Debug("fast path: empty selection", zap.String("checksum", checksum))
		for _, f := range req.Frames {
			resp.Annotations = append(resp.Annotations, emptyAnnotation(f.ID))
		}
		return resp
	case focusable <= TrivialFocusable:
		s.logger.Debug("fast path: trivial selection", zap.Int("focusable", focusable))
		return withHeuristic(resp, req.Frames, heuristic, NoteTrivial)
	case s.model == nil:
		return withHeuristic(resp, req.Frames, heuristic, NoteNoModel)
	}

	out, err := s.callModel(ctx, req, roots)
	if err != nil {
		s.logger.Warn("model call failed, using heuristic order", zap.Error(err))
		return withHeuristic(resp, req.Frames, heuristic, NoteModelFailed)
	}

	for i, f := range req.Frames {
		if len(heuristic[i]) == 0 {
			resp.Annotations = append(resp.Annotations, emptyAnnotation(f.ID))
			continue
		}
		ann := protocol.Annotation{FrameID: f.ID}
		mAnn, ok := out.ForFrame(f.ID, len(req.Frames))
		var res protocol.SanitizeResult
		if ok {
			res = protocol.Sanitize(mAnn.Order, model.IDSet(roots[i]), heuristic[i], req.Platform)
		}
		if len(res.Items) == 0 {
			s.logger.Warn("model output unusable, using heuristic order", zap.String("frame", f.ID),
				zap.Int("unknown", res.Unknown), zap.Int("duplicates", res.Duplicates))
			ann.Order = heuristic[i]
			ann.Notes = NoteModelUnusable
			resp.Annotations = append(resp.Annotations, ann)
			continue
		}
		ann.Order = merge.Merge(heuristic[i], res.Items, nil)
		ann.Notes = mAnn.Notes
		if ann.Notes == "" {
			ann.Notes = NoteModelDefault
		}
		if res.Unknown > 0 || res.Duplicates > 0 {
			ann.Notes += fmt.Sprintf(noteDroppedPattern, res.Unknown, res.Duplicates)
		}
		resp.Annotations = append(resp.Annotations, ann)
	}
	return resp
}

func (s *Service) callModel(ctx context.Context, req protocol.AnnotateRequest, roots []model.NodeSnapshot) (protocol.ModelOutput, error) {
	budget := s.opts.ModelNodeBudget / len(roots)
	if budget < 1 {
		budget = 1
	}
	in := vision.Input{Platform: req.Platform, Prompt: req.Prompt}
	for _, r := range roots {
		pruned, truncated := model.PruneToBudget(r, budget)
		if truncated {
			s.logger.Debug("pruned tree for model", zap.String("frame", r.ID), zap.Int("budget", budget))
		}
		in.Frames = append(in.Frames, protocol.FrameFromSnapshot(pruned))
	}
	if req.Image != "" {
		img, err := vision.ImageFromDataURL(req.Image, s.opts.MaxImageDim)
		if err != nil {
			s.logger.Warn("ignoring request image", zap.Error(err))
		} else {
			in.Image = img
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.ModelTimeout)
	defer cancel()
	out, err := s.model.Annotate(ctx, in)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return protocol.ModelOutput{}, fmt.Errorf("model timed out after %s: %w", s.opts.ModelTimeout, err)
		}
		return protocol.ModelOutput{}, err
	}
	return out, nil
}

// withHeuristic answers every frame with its heuristic order. Frames with
// no focusable nodes get the empty state.
func withHeuristic(resp protocol.AnnotateResponse, frames []protocol.Frame, heuristic [][]model.FocusItem, notes string) protocol.AnnotateResponse {
	for i, f := range frames {
		if len(heuristic[i]) == 0 {
			resp.Annotations = append(resp.Annotations, emptyAnnotation(f.ID))
			continue
		}
		resp.Annotations = append(resp.Annotations, protocol.Annotation{
			FrameID: f.ID, Order: heuristic[i], Notes: notes,
		})
	}
	return resp
}

func emptyAnnotation(frameID string) protocol.Annotation {
	return protocol.Annotation{FrameID: frameID, Order: []model.FocusItem{}, Notes: protocol.EmptyStateMessage}
}
