package wiring

import (
	"sort"

	"github.com/OpenTraceLab/circuitwire/pkg/geom"
)

// Link is one electrical node: a set of wires and ports joined through
// shared coordinates. Links own handles only; the board keeps the wire
// records and the index.
type Link struct {
	id    int
	wires map[WireID]geom.Wire
	ports map[PortRef]geom.Point
}

func newLink(id int) *Link {
	return &Link{
		id:    id,
		wires: make(map[WireID]geom.Wire),
		ports: make(map[PortRef]geom.Point),
	}
}

// ID returns the board-unique link number.
func (l *Link) ID() int { return l.id }

func (l *Link) addWire(id WireID, w geom.Wire) { l.wires[id] = w }

func (l *Link) removeWire(id WireID) { delete(l.wires, id) }

func (l *Link) addPort(ref PortRef, at geom.Point) { l.ports[ref] = at }

func (l *Link) removePort(ref PortRef) { delete(l.ports, ref) }

// merge absorbs other's members. The caller retires other.
func (l *Link) merge(other *Link) {
	if other == l {
		return
	}
	for id, w := range other.wires {
		l.wires[id] = w
	}
	for ref, at := range other.ports {
		l.ports[ref] = at
	}
}

// Empty reports whether the link no longer joins anything: no wires and at
// most one port.
func (l *Link) Empty() bool {
	return len(l.wires) == 0 && len(l.ports) <= 1
}

// IsValid reports whether every port on the link declares the same width.
func (l *Link) IsValid() bool {
	return len(l.BitWidths()) <= 1
}

// BitWidths returns the distinct port widths on the link in ascending order.
func (l *Link) BitWidths() []int {
	seen := make(map[int]bool)
	var widths []int
	for ref := range l.ports {
		w := ref.BitWidth()
		if !seen[w] {
			seen[w] = true
			widths = append(widths, w)
		}
	}
	sort.Ints(widths)
	return widths
}

// Err returns a *WidthMismatchError for an invalid link, or nil.
func (l *Link) Err() error {
	if widths := l.BitWidths(); len(widths) > 1 {
		return &WidthMismatchError{Link: l.id, Widths: widths}
	}
	return nil
}

// Wires returns the link's wire geometry in a stable order.
func (l *Link) Wires() []geom.Wire {
	out := make([]geom.Wire, 0, len(l.wires))
	for _, w := range l.wires {
		out = append(out, w)
	}
	sortWires(out)
	return out
}

// Ports returns the link's ports ordered by component name, then index.
func (l *Link) Ports() []PortRef {
	out := make([]PortRef, 0, len(l.ports))
	for ref := range l.ports {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Component.Name != out[j].Component.Name {
			return out[i].Component.Name < out[j].Component.Name
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// HasWire reports whether w is one of the link's wires.
func (l *Link) HasWire(w geom.Wire) bool {
	for _, lw := range l.wires {
		if lw == w {
			return true
		}
	}
	return false
}

func (l *Link) clone() *Link {
	cp := newLink(l.id)
	cp.merge(l)
	return cp
}

// splitWires drops removed from the link and regroups what is left into
// connected Links. Wires join when their endpoints coincide, a port joins
// every wire passing through its point, and ports at the same point join
// each other. Groups that end up Empty are discarded. nextID allocates the
// ids of the returned links.
func (l *Link) splitWires(removed []WireID, nextID func() int) []*Link {
	for _, id := range removed {
		delete(l.wires, id)
	}

	ids := make([]WireID, 0, len(l.wires))
	for id := range l.wires {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	refs := l.Ports()

	// Nodes 0..len(ids)-1 are wires, the rest are ports.
	uf := newUnionFind(len(ids) + len(refs))
	endpoints := make(map[geom.Point]int)
	joinAt := func(p geom.Point, node int) {
		if first, ok := endpoints[p]; ok {
			uf.union(first, node)
			return
		}
		endpoints[p] = node
	}
	for i, id := range ids {
		w := l.wires[id]
		joinAt(w.Start(), i)
		joinAt(w.End(), i)
	}
	for j, ref := range refs {
		node := len(ids) + j
		at := l.ports[ref]
		joinAt(at, node)
		for i, id := range ids {
			if l.wires[id].Contains(at) {
				uf.union(i, node)
			}
		}
	}

	groups := make(map[int]*Link)
	var order []int
	group := func(node int) *Link {
		root := uf.find(node)
		g, ok := groups[root]
		if !ok {
			g = newLink(0)
			groups[root] = g
			order = append(order, root)
		}
		return g
	}
	for i, id := range ids {
		group(i).addWire(id, l.wires[id])
	}
	for j, ref := range refs {
		group(len(ids)+j).addPort(ref, l.ports[ref])
	}

	out := make([]*Link, 0, len(order))
	for _, root := range order {
		g := groups[root]
		if g.Empty() {
			continue
		}
		g.id = nextID()
		out = append(out, g)
	}
	return out
}

// unionFind groups link members by connectivity, with union by rank and
// path compression.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	root := x
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for x != root {
		next := uf.parent[x]
		uf.parent[x] = root
		x = next
	}
	return root
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	switch {
	case uf.rank[ra] < uf.rank[rb]:
		uf.parent[ra] = rb
	case uf.rank[ra] > uf.rank[rb]:
		uf.parent[rb] = ra
	default:
		uf.parent[rb] = ra
		uf.rank[ra]++
	}
}

// sortWires orders wires by row, column, orientation and length.
func sortWires(ws []geom.Wire) {
	sort.Slice(ws, func(i, j int) bool {
		a, b := ws[i], ws[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Horizontal != b.Horizontal {
			return a.Horizontal
		}
		return a.Length < b.Length
	})
}
