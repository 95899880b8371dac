package server

import (
	"strconv"
	"strings"

	"github.com/mj1618/focusorder/internal/model"
	"github.com/mj1618/focusorder/internal/protocol"
)

// Cached responses are keyed by a checksum that ignores node ids, so two
// requests with the same structure share an entry while carrying different
// ids. The stored form replaces every id with its pre-order position in the
// frame, and every frame id with the frame's index; callers map it back onto
// their own tree.

const posPrefix = "#"

// treeIDs holds the pre-order node ids of each frame in a request, frame
// root first.
type treeIDs [][]string

func requestIDs(req protocol.AnnotateRequest) treeIDs {
	roots := req.Roots()
	ids := make(treeIDs, len(roots))
	for i := range roots {
		roots[i].Walk(func(n *model.NodeSnapshot) bool {
			ids[i] = append(ids[i], n.ID)
			return true
		})
	}
	return ids
}

// detach rewrites resp into its id-independent stored form.
func (t treeIDs) detach(resp protocol.AnnotateResponse) protocol.AnnotateResponse {
	out := resp
	out.Cache = false
	out.Annotations = make([]protocol.Annotation, 0, len(resp.Annotations))
	for _, ann := range resp.Annotations {
		frame := t.frameIndex(ann.FrameID)
		if frame < 0 {
			continue
		}
		pos := make(map[string]int, len(t[frame]))
		for i, id := range t[frame] {
			if _, ok := pos[id]; !ok {
				pos[id] = i
			}
		}
		stored := protocol.Annotation{FrameID: position(frame), Notes: ann.Notes, Order: make([]model.FocusItem, 0, len(ann.Order))}
		for _, it := range ann.Order {
			p, ok := pos[it.ID]
			if !ok {
				continue
			}
			it.ID = position(p)
			it.Position = clonePosition(it.Position)
			stored.Order = append(stored.Order, it)
		}
		out.Annotations = append(out.Annotations, stored)
	}
	return out
}

// attach maps a stored response onto this request's frame and node ids.
// Entries pointing outside the tree are dropped.
func (t treeIDs) attach(stored protocol.AnnotateResponse) protocol.AnnotateResponse {
	out := stored
	out.Annotations = make([]protocol.Annotation, 0, len(stored.Annotations))
	for _, ann := range stored.Annotations {
		frame, ok := parsePosition(ann.FrameID, len(t))
		if !ok {
			continue
		}
		ids := t[frame]
		live := protocol.Annotation{FrameID: ids[0], Notes: ann.Notes, Order: make([]model.FocusItem, 0, len(ann.Order))}
		for _, it := range ann.Order {
			p, ok := parsePosition(it.ID, len(ids))
			if !ok || ids[p] == "" {
				continue
			}
			it.ID = ids[p]
			it.Position = clonePosition(it.Position)
			live.Order = append(live.Order, it)
		}
		live.Order = model.Reindex(live.Order)
		out.Annotations = append(out.Annotations, live)
	}
	return out
}

func (t treeIDs) frameIndex(frameID string) int {
	for i, ids := range t {
		if len(ids) > 0 && ids[0] == frameID {
			return i
		}
	}
	return -1
}

func position(i int) string { return posPrefix + strconv.Itoa(i) }

func parsePosition(s string, n int) (int, bool) {
	rest, ok := strings.CutPrefix(s, posPrefix)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(rest)
	if err != nil || i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

func clonePosition(p *model.Position) *model.Position {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
