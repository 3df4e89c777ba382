package wiring

import (
	"fmt"

	"github.com/OpenTraceLab/circuitwire/pkg/history"
)

// IsValidLocation reports whether c may be placed at its current origin:
// coordinates are non-negative and no other component, placed or being
// dragged, shares the origin.
func (b *Board) IsValidLocation(c *Component) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.isValidLocationLocked(c)
}

func (b *Board) isValidLocationLocked(c *Component) bool {
	if c.X < 0 || c.Y < 0 {
		return false
	}
	clash := func(other *Component) bool {
		return other != c && other.X == c.X && other.Y == c.Y
	}
	for _, other := range b.components {
		if clash(other) {
			return false
		}
	}
	if b.moving != nil {
		for _, other := range b.moving.components {
			if clash(other) {
				return false
			}
		}
	}
	return true
}

// AddComponent places c. Wires whose interior passes through one of its
// ports are split there so the port becomes a junction.
func (b *Board) AddComponent(c *Component) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addComponentLocked(c)
}

func (b *Board) addComponentLocked(c *Component) error {
	if b.hasComponent(c) {
		return fmt.Errorf("%w: %s is already placed", ErrInvalidPlacement, c)
	}
	if !b.isValidLocationLocked(c) {
		b.log.Debug("placement rejected", "component", c.Name, "x", c.X, "y", c.Y)
		return fmt.Errorf("%w: cannot place %s", ErrInvalidPlacement, c)
	}

	b.beginBatch()
	defer b.endBatch()
	b.hist.Disable()

	b.components = append(b.components, c)

	var reAdd []WireID
	seen := make(map[WireID]bool)
	conns := make([]Connection, 0, len(c.Ports))
	for i := range c.Ports {
		ref := PortRef{Component: c, Index: i}
		pc := portConnection(ref)

		var target *Link
		for _, a := range snapshot(b.index.At(pc.X, pc.Y)) {
			l := b.linkOf(a)
			if l == nil {
				// Another lone port: the two now form a link.
				l = b.newLink()
				l.addPort(a.Port, a.Point())
				b.ports[a.Port] = l
			}
			if target == nil {
				target = l
			} else {
				b.mergeLinks(target, l)
			}
			if a.Kind == ConnWire && !a.Endpoint && !seen[a.Wire] {
				seen[a.Wire] = true
				reAdd = append(reAdd, a.Wire)
			}
		}
		if target != nil {
			target.addPort(ref, pc.Point())
			b.ports[ref] = target
		}

		b.index.Add(pc)
		conns = append(conns, pc)
	}
	b.portConns[c] = conns

	for _, id := range reAdd {
		rec, ok := b.wires[id]
		if !ok {
			continue
		}
		w := rec.wire
		b.detachWire(id)
		if err := b.addWireLocked(w); err != nil {
			invariant("AddComponent", "re-adding %v: %v", w, err)
		}
	}

	b.hist.Enable()
	b.hist.Record(history.AddComponent, c)
	return nil
}

// removeComponentLocked detaches c's ports. It reports false when c is not
// on the board.
func (b *Board) removeComponentLocked(c *Component) bool {
	at := -1
	for i, existing := range b.components {
		if existing == c {
			at = i
			break
		}
	}
	if at < 0 {
		return false
	}

	for _, pc := range b.portConns[c] {
		b.index.Remove(pc)
		l := b.ports[pc.Port]
		if l == nil {
			continue
		}
		l.removePort(pc.Port)
		delete(b.ports, pc.Port)
		if l.Empty() {
			b.discardLink(l)
		}
	}
	delete(b.portConns, c)
	b.components = append(b.components[:at], b.components[at+1:]...)

	b.hist.Record(history.RemoveComponent, c)
	return true
}

// UpdateComponent replaces old with updated as one edit. If updated cannot
// be placed, old is restored and the placement error returned.
func (b *Board) UpdateComponent(old, updated *Component) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hist.BeginGroup()
	defer b.hist.EndGroup()
	b.beginBatch()
	defer b.endBatch()

	b.hist.Disable()
	if !b.removeComponentLocked(old) {
		b.hist.Enable()
		return fmt.Errorf("%w: %s", ErrUnknownComponent, old)
	}
	if err := b.addComponentLocked(updated); err != nil {
		if rerr := b.addComponentLocked(old); rerr != nil {
			invariant("UpdateComponent", "restoring %s: %v", old, rerr)
		}
		b.hist.Enable()
		return err
	}
	b.hist.Enable()
	b.hist.Record(history.UpdateComponent, UpdateEdit{Old: old, New: updated})
	return nil
}
