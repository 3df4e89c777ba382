package wiring

import (
	"context"
	"errors"

	"github.com/OpenTraceLab/circuitwire/pkg/geom"
	"github.com/OpenTraceLab/circuitwire/pkg/pathfind"
)

// routeTask reconnects the anchors of one Move call. It only reads the
// board and reports through MoveSession.publish.
type routeTask struct {
	session *MoveSession
	gen     uint64
	dx, dy  int
	anchors []geom.Point
	done    chan struct{}

	paths    []geom.Wire
	consumed map[WireID]bool
	removed  []geom.Wire
	failed   []geom.Point
	moved    map[geom.Point]bool
}

func (t *routeTask) run(ctx context.Context) {
	defer close(t.done)

	b := t.session.board
	log := b.log.With("gen", t.gen)
	log.Debug("route task started", "anchors", len(t.anchors), "dx", t.dx, "dy", t.dy)

	t.consumed = make(map[WireID]bool)
	t.moved = make(map[geom.Point]bool, len(t.anchors))
	for _, a := range t.anchors {
		t.moved[a.Add(t.dx, t.dy)] = true
	}

	seen := make(map[geom.Point]bool)
	for _, anchor := range t.anchors {
		if ctx.Err() != nil {
			log.Debug("route task superseded")
			return
		}
		dst := anchor.Add(t.dx, t.dy)
		if seen[dst] {
			continue
		}
		seen[dst] = true

		err := t.routeAnchor(ctx, anchor, dst)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			log.Debug("route task superseded")
			return
		default:
			if errors.Is(err, pathfind.ErrExpansionLimit) {
				log.Warn("route gave up", "anchor", anchor, "dst", dst, "error", err)
			} else {
				log.Debug("route failed", "anchor", anchor, "dst", dst, "error", err)
			}
			t.failed = append(t.failed, dst)
		}
	}

	res := &RouteResult{ToAdd: t.paths, ToRemove: t.removed, Failed: t.failed}
	if !t.session.publish(t.gen, res) {
		log.Debug("route result discarded")
		return
	}
	log.Debug("route result published", "paths", len(res.ToAdd), "consumed", len(res.ToRemove),
		"failed", len(res.Failed))
	if hook := b.cfg.OnRouteResult; hook != nil {
		hook(*res)
	}
}

// routeAnchor connects one anchor, now at dst, back to the committed
// topology it was attached to before the drag.
func (t *routeTask) routeAnchor(ctx context.Context, anchor, dst geom.Point) error {
	b := t.session.board
	b.mu.Lock()
	defer b.mu.Unlock()

	conns := b.index.AtPoint(anchor)
	if len(conns) == 0 {
		// Nothing stayed behind: the anchor only joined other dragged elements.
		return nil
	}

	src := anchor
	var traversed []WireID
	if l := b.sourceLink(conns); l != nil && !hasPort(conns) {
		src, traversed = b.walkChain(anchor, l)
	}
	if src == dst {
		return nil
	}

	pass := make(map[WireID]bool, len(traversed))
	for _, id := range traversed {
		pass[id] = true
	}
	path, err := b.router.BestPath(ctx, src, dst, t.cellFunc(src, dst, pass))
	if err != nil {
		return err
	}
	if len(path) == 0 {
		return pathfind.ErrNoPath
	}

	t.paths = append(t.paths, path...)
	for _, id := range traversed {
		if !t.consumed[id] {
			t.consumed[id] = true
			t.removed = append(t.removed, b.wires[id].wire)
		}
	}
	return nil
}

// sourceLink returns the link joined at an anchor through a port or a wire
// endpoint.
func (b *Board) sourceLink(conns []Connection) *Link {
	var found *Link
	for _, c := range conns {
		if c.Kind == ConnWire && !c.Endpoint {
			continue
		}
		l := b.linkOf(c)
		if l == nil {
			continue
		}
		if found != nil && found != l {
			invariant("move", "links %d and %d meet at (%d,%d)", found.id, l.id, c.X, c.Y)
		}
		found = l
	}
	return found
}

// walkChain follows the wires of l from start through points holding
// exactly two connections. It stops at the first fork or port and returns
// that point with the wires walked. A dead end, or a chain that never
// reaches one, leaves start unchanged and consumes nothing. The walk is
// bounded by the number of wires in l.
func (b *Board) walkChain(start geom.Point, l *Link) (geom.Point, []WireID) {
	remaining := make(map[WireID]geom.Wire, len(l.wires))
	for id, w := range l.wires {
		remaining[id] = w
	}

	var traversed []WireID
	cur := start
	for len(remaining) > 0 {
		var next geom.Point
		var nextID WireID
		n := 0
		for id, w := range remaining {
			switch cur {
			case w.Start():
				next, nextID = w.End(), id
				n++
			case w.End():
				next, nextID = w.Start(), id
				n++
			}
			if n > 1 {
				break
			}
		}
		if n != 1 {
			break
		}
		delete(remaining, nextID)
		traversed = append(traversed, nextID)

		conns := b.index.AtPoint(next)
		switch {
		case len(conns) < 2:
			return start, nil
		case len(conns) > 2 || hasPort(conns):
			return next, traversed
		}
		cur = next
	}
	return start, nil
}

// cellFunc classifies grid cells for one anchor's route. The source and
// destination are always preferred. Ports, other anchors, component
// footprints, wires of the same orientation and wire endpoints are
// obstacles, except for wires this move is replacing.
func (t *routeTask) cellFunc(src, dst geom.Point, pass map[WireID]bool) pathfind.ValidFunc {
	b := t.session.board
	return func(x, y int, horizontal bool) pathfind.Preference {
		p := geom.Pt(x, y)
		if p == src || p == dst {
			return pathfind.Prefer
		}
		if t.moved[p] {
			return pathfind.Invalid
		}
		for _, w := range t.paths {
			if w.Contains(p) && (w.Horizontal == horizontal || w.IsEndpoint(p)) {
				return pathfind.Invalid
			}
		}
		for _, c := range b.index.At(x, y) {
			if c.Kind == ConnPort {
				return pathfind.Invalid
			}
			if t.consumed[c.Wire] || pass[c.Wire] {
				continue
			}
			if c.Endpoint || b.wires[c.Wire].wire.Horizontal == horizontal {
				return pathfind.Invalid
			}
		}
		for _, c := range b.components {
			if c.Contains(p) {
				return pathfind.Invalid
			}
		}
		for _, c := range t.session.components {
			if c.Contains(p) {
				return pathfind.Invalid
			}
		}
		return pathfind.Valid
	}
}

func hasPort(conns []Connection) bool {
	for _, c := range conns {
		if c.Kind == ConnPort {
			return true
		}
	}
	return false
}
