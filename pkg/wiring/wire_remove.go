package wiring

import (
	"github.com/OpenTraceLab/circuitwire/pkg/geom"
	"github.com/OpenTraceLab/circuitwire/pkg/history"
)

// RemoveElements removes components and wire geometry from the board.
//
// A wire in sel need not match a committed wire exactly: every committed
// wire of the same orientation sharing a stretch with it is handled by one
// of four cases. An identical wire, or one lying within the removed range,
// is removed outright. A committed wire containing the removed range keeps
// its remainders and has an exact clone of the range substituted for
// removal. A partial overlap is split in three: the overlapping middle and
// the committed remainder stay in the committed wire's link, the middle is
// removed, and the removed wire's own remainder is queued for removal.
// Affected links are regrouped afterwards. Elements not on the board are
// ignored.
func (b *Board) RemoveElements(sel Selection) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeElementsLocked(sel)
}

func (b *Board) removeElementsLocked(sel Selection) {
	b.hist.BeginGroup()
	defer b.hist.EndGroup()
	b.beginBatch()
	defer b.endBatch()

	for _, c := range sel.Components {
		b.removeComponentLocked(c)
	}

	removed := make(map[*Link][]WireID)
	var order []*Link
	mark := func(id WireID) {
		rec := b.wires[id]
		b.dropConnections(id, rec.wire)
		if _, ok := removed[rec.link]; !ok {
			order = append(order, rec.link)
		}
		removed[rec.link] = append(removed[rec.link], id)
	}

	work := make([]geom.Wire, 0, len(sel.Wires))
	for _, w := range sel.Wires {
		w = geom.NewWire(w.X, w.Y, w.Length, w.Horizontal)
		if w.Length > 0 {
			work = append(work, w)
		}
	}

	for len(work) > 0 {
		r := work[len(work)-1]
		work = work[:len(work)-1]

		id, ok := b.findOverlap(r)
		if !ok {
			continue
		}
		rec := b.wires[id]
		w, l := rec.wire, rec.link

		switch {
		case w == r:
			mark(id)
		case w.IsWithin(r):
			mark(id)
			work = append(work, r.Splice(w)...)
		case r.IsWithin(w):
			b.detachWire(id)
			for _, piece := range w.Splice(r) {
				b.attachWire(l, piece)
			}
			mark(b.attachWire(l, r))
		default:
			b.detachWire(id)
			own, middle, other := r.SpliceOverlap(w)
			work = append(work, own)
			b.attachWire(l, other)
			mark(b.attachWire(l, middle))
		}
	}

	for _, l := range order {
		ids := removed[l]
		for _, id := range ids {
			b.hist.Record(history.RemoveWire, b.wires[id].wire)
			delete(b.wires, id)
		}
		b.replaceLink(l, l.splitWires(ids, b.allocLinkID))
	}
}

// findOverlap returns a committed wire of r's orientation sharing a stretch
// of positive length with r.
func (b *Board) findOverlap(r geom.Wire) (WireID, bool) {
	for i := 0; i <= r.Length; i++ {
		for _, c := range b.index.AtPoint(r.At(i)) {
			if c.Kind != ConnWire {
				continue
			}
			if w := b.wires[c.Wire].wire; w.Overlaps(r) {
				return c.Wire, true
			}
		}
	}
	return 0, false
}

// replaceLink retires old and installs the links it split into.
func (b *Board) replaceLink(old *Link, parts []*Link) {
	delete(b.links, old)
	for ref := range old.ports {
		if b.ports[ref] == old {
			delete(b.ports, ref)
		}
	}
	for _, l := range parts {
		b.links[l] = struct{}{}
		for id := range l.wires {
			b.wires[id].link = l
		}
		for ref := range l.ports {
			b.ports[ref] = l
		}
	}
	if len(parts) != 1 {
		b.log.Debug("link split", "link", old.id, "parts", len(parts))
	}
}
