package wiring

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/OpenTraceLab/circuitwire/pkg/geom"
	"github.com/OpenTraceLab/circuitwire/pkg/history"
)

// MoveState is the state of a MoveSession.
type MoveState int

const (
	Idle MoveState = iota
	Active
	Computing
	Finalized
)

var moveStateNames = map[MoveState]string{
	Idle:      "Idle",
	Active:    "Active",
	Computing: "Computing",
	Finalized: "Finalized",
}

func (s MoveState) String() string {
	if name, ok := moveStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("MoveState(%d)", int(s))
}

// RouteResult is the immutable output of one routing task.
type RouteResult struct {
	ToAdd    []geom.Wire  // routed paths
	ToRemove []geom.Wire  // committed wires the paths replace
	Failed   []geom.Point // anchors (at their moved position) left unrouted
}

// MoveSession follows one drag gesture. It is created by Board.InitMove,
// updated by Move and consumed once by Finalize.
type MoveSession struct {
	board  *Board
	detach bool

	// Immutable after InitMove. Component positions change under the board
	// lock.
	components []*Component
	wires      []geom.Wire
	anchors    []geom.Point

	mu     sync.Mutex
	state  MoveState
	dx, dy int
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
	result *RouteResult
}

// InitMove starts a drag of sel. With detach the elements are taken off the
// board, their ports and wire ends become anchors to route back to, and a
// history group is opened that Finalize closes. Without detach the elements
// are new (for example pasted) and not yet on the board. A session that is
// still open is finalized first.
func (b *Board) InitMove(sel Selection, detach bool) *MoveSession {
	if prev := b.Moving(); prev != nil {
		if _, err := prev.Finalize(); err != nil {
			b.log.Warn("finalizing previous move", "error", err)
		}
	}

	s := &MoveSession{
		board:      b,
		detach:     detach,
		components: append([]*Component(nil), sel.Components...),
		state:      Active,
	}
	for _, w := range sel.Wires {
		s.wires = append(s.wires, geom.NewWire(w.X, w.Y, w.Length, w.Horizontal))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if detach {
		for _, c := range s.components {
			for i := range c.Ports {
				s.anchors = append(s.anchors, c.PortPoint(i))
			}
		}
		for _, w := range s.wires {
			s.anchors = append(s.anchors, w.Start(), w.End())
		}
		b.hist.BeginGroup()
		b.removeElementsLocked(Selection{Components: s.components, Wires: s.wires})
	}
	b.moving = s

	b.log.Debug("move started", "components", len(s.components), "wires", len(s.wires),
		"anchors", len(s.anchors), "detach", detach)
	return s
}

// State returns the session state.
func (s *MoveSession) State() MoveState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Delta returns the current cumulative displacement.
func (s *MoveSession) Delta() (dx, dy int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dx, s.dy
}

// Result returns the latest published routing result, or nil while none is
// available.
func (s *MoveSession) Result() *RouteResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Move sets the displacement to (dx, dy). Repeating the current delta does
// nothing. Any routing task in flight is cancelled; with extendWires a new
// one is started and Move waits up to Config.RouteWait for it.
func (s *MoveSession) Move(dx, dy int, extendWires bool) error {
	b := s.board

	s.mu.Lock()
	if s.state == Finalized {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if dx == s.dx && dy == s.dy {
		s.mu.Unlock()
		return nil
	}
	ddx, ddy := dx-s.dx, dy-s.dy
	s.dx, s.dy = dx, dy
	s.stopLocked()

	b.mu.Lock()
	for _, c := range s.components {
		c.X += ddx
		c.Y += ddy
	}
	b.mu.Unlock()

	if !extendWires || len(s.anchors) == 0 {
		s.mu.Unlock()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.state = Computing
	task := &routeTask{
		session: s,
		gen:     s.gen,
		dx:      dx,
		dy:      dy,
		anchors: sortAnchors(s.anchors, dx, dy),
		done:    done,
	}
	s.mu.Unlock()

	go task.run(ctx)

	timer := time.NewTimer(b.cfg.RouteWait)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
	}
	return nil
}

// stopLocked cancels the task in flight and invalidates its result.
func (s *MoveSession) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.result = nil
	if s.state == Computing {
		s.state = Active
	}
}

// Wait blocks until the latest routing task has finished or ctx is done.
func (s *MoveSession) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// publish stores res if gen is still current. It reports whether res was
// stored.
func (s *MoveSession) publish(gen uint64, res *RouteResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.state == Finalized {
		return false
	}
	s.result = res
	s.state = Active
	s.cancel = nil
	return true
}

// Finalize ends the drag. It cancels any routing in flight, takes the last
// published result and commits the elements at their new position through
// AddComponent and AddWire. It returns the new selection: the dragged
// components and every committed wire equal to or overlapping a dragged
// wire. When the elements cannot be dropped here they are restored to their
// starting position and ErrCannotMove is returned.
func (s *MoveSession) Finalize() (Selection, error) {
	s.mu.Lock()
	if s.state == Finalized {
		s.mu.Unlock()
		return Selection{}, ErrSessionClosed
	}
	res := s.result
	s.stopLocked()
	s.state = Finalized
	dx, dy := s.dx, s.dy
	s.mu.Unlock()

	return s.board.finalizeMove(s, res, dx, dy)
}

func (b *Board) finalizeMove(s *MoveSession, res *RouteResult, dx, dy int) (Selection, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !s.detach {
		b.hist.BeginGroup()
	}

	cannot := false
	for _, c := range s.components {
		if !b.isValidLocationLocked(c) {
			cannot = true
		}
	}
	for _, w := range s.wires {
		if w.Translate(dx, dy).Negative() {
			cannot = true
		}
	}

	var toAdd, toRemove []geom.Wire
	if res != nil && !cannot {
		toAdd, toRemove = res.ToAdd, res.ToRemove
	}
	if cannot {
		for _, c := range s.components {
			c.X -= dx
			c.Y -= dy
		}
		dx, dy = 0, 0
	}

	b.beginBatch()
	b.removeElementsLocked(Selection{Wires: toRemove})

	var errs []error
	for _, c := range s.components {
		b.hist.BeginGroup()
		if !cannot {
			b.hist.Record(history.MoveElement, MoveEdit{Component: c, DX: dx, DY: dy})
		}
		if err := b.addComponentLocked(c); err != nil {
			b.hist.ClearGroup()
			errs = append(errs, err)
		}
		b.hist.EndGroup()
	}

	var moved []geom.Wire
	add := func(w geom.Wire, keep bool) {
		b.hist.BeginGroup()
		defer b.hist.EndGroup()
		if err := b.addWireLocked(w); err != nil {
			b.hist.ClearGroup()
			errs = append(errs, err)
			return
		}
		if keep {
			moved = append(moved, w)
		}
	}
	for _, w := range s.wires {
		add(w.Translate(dx, dy), !cannot)
	}
	for _, w := range toAdd {
		add(w, false)
	}
	b.endBatch()

	var sel Selection
	if !cannot {
		sel.Components = s.components
		if len(moved) > 0 {
			for _, id := range b.sortedWireIDs() {
				w := b.wires[id].wire
				for _, m := range moved {
					if w == m || w.Overlaps(m) {
						sel.Wires = append(sel.Wires, w)
						break
					}
				}
			}
			sortWires(sel.Wires)
		}
		if s.detach && dx == 0 && dy == 0 {
			b.hist.ClearGroup()
		}
	} else if s.detach {
		b.hist.ClearGroup()
	}
	b.hist.EndGroup()

	if b.moving == s {
		b.moving = nil
	}

	if cannot {
		b.log.Debug("move rejected", "components", len(s.components), "wires", len(s.wires))
		return Selection{}, ErrCannotMove
	}
	if len(errs) > 0 {
		return sel, errors.Join(errs...)
	}
	return sel, nil
}

// sortAnchors orders anchors for routing. All anchors moved by the same
// delta, so they are equally far from where they started; ties go along
// the axis of movement, trailing anchors first.
func sortAnchors(anchors []geom.Point, dx, dy int) []geom.Point {
	out := append([]geom.Point(nil), anchors...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.X == b.X {
			if dy > 0 {
				return a.Y < b.Y
			}
			return a.Y > b.Y
		}
		if dx > 0 {
			return a.X < b.X
		}
		return a.X > b.X
	})
	return out
}
