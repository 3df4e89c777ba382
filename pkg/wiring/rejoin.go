package wiring

import "github.com/OpenTraceLab/circuitwire/pkg/geom"

// rejoinWires coalesces collinear wires that meet end to end at a point
// holding exactly two connections, until no pair is left. Edits made here
// are not recorded.
func (b *Board) rejoinWires() {
	b.hist.Disable()
	defer b.hist.Enable()

	for changed := true; changed; {
		changed = false
		for _, id := range b.sortedWireIDs() {
			if _, ok := b.wires[id]; !ok {
				continue
			}
			if b.rejoinAt(id) {
				changed = true
			}
		}
	}
}

// rejoinAt absorbs the collinear neighbours of wire id at either end.
func (b *Board) rejoinAt(id WireID) bool {
	rec := b.wires[id]
	merged := rec.wire
	var absorbed []WireID

	for _, end := range []geom.Point{rec.wire.Start(), rec.wire.End()} {
		conns := b.index.AtPoint(end)
		if len(conns) != 2 {
			continue
		}
		for _, c := range conns {
			if c.Kind != ConnWire || c.Wire == id || !c.Endpoint {
				continue
			}
			other := b.wires[c.Wire]
			if other.wire.Horizontal != rec.wire.Horizontal {
				continue
			}
			if other.link != rec.link {
				invariant("rejoinWires", "wires %d and %d touch at %v in different links", id, c.Wire, end)
			}
			merged = merged.Join(other.wire)
			absorbed = append(absorbed, c.Wire)
		}
	}
	if len(absorbed) == 0 {
		return false
	}

	l := rec.link
	for _, a := range absorbed {
		b.detachWire(a)
	}
	b.detachWire(id)
	b.attachWire(l, merged)
	return true
}
