package client

import (
	"errors"
	"sync"

	"github.com/mj1618/focusorder/internal/model"
	"github.com/mj1618/focusorder/internal/protocol"
)

// ErrStaleSelection is returned when a result arrives for a selection the
// user has since left.
var ErrStaleSelection = errors.New("client: result is for a stale selection")

// Guard decides whether a response may be applied to the view. It tracks
// the current selection and the order checksum last applied per frame.
type Guard struct {
	mu        sync.Mutex
	selection string
	frames    map[string]bool
	applied   map[string]string
}

// NewGuard returns a guard with no current selection.
func NewGuard() *Guard {
	return &Guard{frames: make(map[string]bool), applied: make(map[string]string)}
}

// Select makes selectionID current. Changing selection forgets what was
// applied before.
func (g *Guard) Select(selectionID string, frameIDs ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if selectionID != g.selection {
		g.applied = make(map[string]string)
	}
	g.selection = selectionID
	g.frames = make(map[string]bool, len(frameIDs))
	for _, id := range frameIDs {
		g.frames[id] = true
	}
}

// Check reports whether the annotation for frameID in resp changes what is
// shown. It returns ErrStaleSelection when selectionID or frameID is no
// longer current. A true result records the order as applied.
func (g *Guard) Check(selectionID, frameID string, resp protocol.AnnotateResponse) (bool, error) {
	ann := resp.Annotation(frameID)
	if ann == nil {
		return false, g.current(selectionID, frameID)
	}
	return g.CheckOrder(selectionID, frameID, ann.Order)
}

// CheckOrder is Check for an order already extracted from a response.
func (g *Guard) CheckOrder(selectionID, frameID string, items []model.FocusItem) (bool, error) {
	sum, err := model.OrderChecksum(items)
	if err != nil {
		return false, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if selectionID != g.selection || !g.frames[frameID] {
		return false, ErrStaleSelection
	}
	if g.applied[frameID] == sum {
		return false, nil
	}
	g.applied[frameID] = sum
	return true, nil
}

func (g *Guard) current(selectionID, frameID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if selectionID != g.selection || !g.frames[frameID] {
		return ErrStaleSelection
	}
	return nil
}

// ShouldApply is Check without the reason.
func (g *Guard) ShouldApply(selectionID, frameID string, resp protocol.AnnotateResponse) bool {
	ok, err := g.Check(selectionID, frameID, resp)
	return ok && err == nil
}
