package wiring

import (
	"fmt"

	"github.com/OpenTraceLab/circuitwire/pkg/geom"
)

// AddWire adds a wire starting at (x, y). A negative length extends left or
// up. The run is cut into pieces at every port and wire endpoint it meets,
// and wires whose interior is touched at either end of the run are split
// there. Pieces already covered by a committed wire are skipped.
func (b *Board) AddWire(x, y, length int, horizontal bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addWireLocked(geom.NewWire(x, y, length, horizontal))
}

type splitAt struct {
	id WireID
	at geom.Point
}

func (b *Board) addWireLocked(w geom.Wire) error {
	if w.Length == 0 {
		return fmt.Errorf("%w: zero length wire at (%d,%d)", ErrInvalidPlacement, w.X, w.Y)
	}
	if w.Negative() {
		return fmt.Errorf("%w: %v reaches negative space", ErrInvalidPlacement, w)
	}

	b.hist.BeginGroup()
	defer b.hist.EndGroup()
	b.beginBatch()
	defer b.endBatch()

	l := b.newLink()

	// Wires whose interior is touched get split once the pieces are in. A
	// later touch of the same wire replaces the earlier split point.
	var splits []splitAt
	splitIndex := make(map[WireID]int)
	touch := func(c Connection) {
		b.handleConnection(c, l)
		if c.Kind == ConnWire && !c.Endpoint {
			if i, ok := splitIndex[c.Wire]; ok {
				splits[i].at = c.Point()
				return
			}
			splitIndex[c.Wire] = len(splits)
			splits = append(splits, splitAt{id: c.Wire, at: c.Point()})
		}
	}

	for _, c := range snapshot(b.index.AtPoint(w.Start())) {
		touch(c)
	}

	var pieces []geom.Wire
	last := w.Start()
	for i := 1; i <= w.Length; i++ {
		p := w.At(i)
		conns := snapshot(b.index.AtPoint(p))
		final := i == w.Length
		cut := final
		for _, c := range conns {
			if c.Kind == ConnPort || c.Endpoint {
				cut = true
			}
		}
		if !cut {
			continue
		}

		piece := geom.Wire{X: last.X, Y: last.Y, Length: last.Manhattan(p), Horizontal: w.Horizontal}
		if !b.coveredLocked(piece) {
			pieces = append(pieces, piece)
		}
		for _, c := range conns {
			if final || c.Kind == ConnPort || c.Endpoint {
				touch(c)
			}
		}
		last = p
	}

	for _, piece := range pieces {
		b.attachWire(l, piece)
	}
	for _, s := range splits {
		b.splitWire(s.id, s.at)
	}
	return nil
}

// coveredLocked reports whether piece lies within a committed wire.
func (b *Board) coveredLocked(piece geom.Wire) bool {
	for _, c := range b.index.AtPoint(piece.Start()) {
		if c.Kind == ConnWire && piece.IsWithin(b.wires[c.Wire].wire) {
			return true
		}
	}
	return false
}

// splitWire replaces a wire by two pieces meeting at at. Nothing happens
// when at is not an interior point of the wire.
func (b *Board) splitWire(id WireID, at geom.Point) {
	rec, ok := b.wires[id]
	if !ok {
		return
	}
	w := rec.wire
	off, on := w.Offset(at)
	if !on || off == 0 || off == w.Length {
		return
	}
	l := rec.link
	b.detachWire(id)
	b.attachWire(l, geom.Wire{X: w.X, Y: w.Y, Length: off, Horizontal: w.Horizontal})
	b.attachWire(l, geom.Wire{X: at.X, Y: at.Y, Length: w.Length - off, Horizontal: w.Horizontal})
}

// snapshot copies an index bucket so the index can change while the copy
// is walked.
func snapshot(conns []Connection) []Connection {
	if len(conns) == 0 {
		return nil
	}
	return append([]Connection(nil), conns...)
}
