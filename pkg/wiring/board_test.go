package wiring

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/circuitwire/pkg/geom"
	"github.com/OpenTraceLab/circuitwire/pkg/history"
)

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return cfg
}

func newTestBoard(t *testing.T) *Board {
	t.Helper()
	b, err := NewBoard(testConfig())
	require.NoError(t, err)
	return b
}

func h(x, y, l int) geom.Wire { return geom.NewWire(x, y, l, true) }
func v(x, y, l int) geom.Wire { return geom.NewWire(x, y, l, false) }

func addWires(t *testing.T, b *Board, ws ...geom.Wire) {
	t.Helper()
	for _, w := range ws {
		require.NoError(t, b.AddWire(w.X, w.Y, w.Length, w.Horizontal))
	}
}

func sorted(ws ...geom.Wire) []geom.Wire {
	out := append([]geom.Wire(nil), ws...)
	sortWires(out)
	return out
}

// describeAt renders the connections at a point independent of wire ids.
func describeAt(b *Board, x, y int) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, c := range b.index.At(x, y) {
		if c.IsPort() {
			out = append(out, "port "+c.Port.String())
			continue
		}
		out = append(out, fmt.Sprintf("%v+%d", b.wires[c.Wire].wire, c.Offset))
	}
	sort.Strings(out)
	return out
}

// checkConsistent verifies that the index, the wire arena and the links
// agree with each other.
func checkConsistent(t *testing.T, b *Board) {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()

	want := 0
	for id, rec := range b.wires {
		want += rec.wire.Length + 1
		_, inLinks := b.links[rec.link]
		assert.True(t, inLinks, "wire %d points at a retired link", id)
		assert.Contains(t, rec.link.wires, id)
		for _, c := range wireConnections(id, rec.wire) {
			assert.Contains(t, b.index.At(c.X, c.Y), c)
		}
	}
	for _, conns := range b.portConns {
		want += len(conns)
	}
	assert.Equal(t, want, b.index.Len(), "index holds stale connections")

	for l := range b.links {
		assert.False(t, l.Empty(), "empty link %d kept", l.id)
		for id := range l.wires {
			assert.Equal(t, l, b.wires[id].link)
		}
		for ref := range l.ports {
			assert.Equal(t, l, b.ports[ref])
		}
	}
}

func TestAddWireRejects(t *testing.T) {
	b := newTestBoard(t)

	tests := []struct {
		name       string
		x, y, l    int
		horizontal bool
	}{
		{"zero length", 2, 2, 0, true},
		{"negative origin", -1, 2, 3, true},
		{"runs into negative space", 2, 2, -3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := b.AddWire(tt.x, tt.y, tt.l, tt.horizontal)
			assert.ErrorIs(t, err, ErrInvalidPlacement)
			assert.Empty(t, b.Wires())
			assert.Equal(t, 0, b.History().(interface{ UndoDepth() int }).UndoDepth())
		})
	}
}

func TestAddWireNegativeLength(t *testing.T) {
	b := newTestBoard(t)
	require.NoError(t, b.AddWire(5, 1, -5, true))
	assert.Equal(t, []geom.Wire{h(0, 1, 5)}, b.Wires())
}

func TestAddWireJoinsCollinear(t *testing.T) {
	b := newTestBoard(t)
	addWires(t, b, h(0, 0, 3), h(3, 0, 2))
	assert.Equal(t, []geom.Wire{h(0, 0, 5)}, b.Wires())
	require.Len(t, b.Links(), 1)
	checkConsistent(t, b)
}

func TestAddWireCorner(t *testing.T) {
	b := newTestBoard(t)
	addWires(t, b, h(0, 0, 5), v(5, 0, 3))
	assert.Equal(t, sorted(h(0, 0, 5), v(5, 0, 3)), b.Wires())
	links := b.Links()
	require.Len(t, links, 1)
	assert.Len(t, links[0].Wires(), 2)
	checkConsistent(t, b)
}

func TestAddWireTeeSplitsInterior(t *testing.T) {
	b := newTestBoard(t)
	addWires(t, b, h(0, 0, 6), v(3, 0, 4))
	assert.Equal(t, sorted(h(0, 0, 3), h(3, 0, 3), v(3, 0, 4)), b.Wires())
	assert.Len(t, b.Links(), 1)
	checkConsistent(t, b)
}

func TestAddWireCrossingIsNotJunction(t *testing.T) {
	b := newTestBoard(t)
	addWires(t, b, h(0, 2, 6), v(3, 0, 4))
	assert.Equal(t, sorted(h(0, 2, 6), v(3, 0, 4)), b.Wires())
	assert.Len(t, b.Links(), 2)
	checkConsistent(t, b)
}

func TestAddWireWithinExisting(t *testing.T) {
	b := newTestBoard(t)
	addWires(t, b, h(0, 0, 10), h(2, 0, 3))
	assert.Equal(t, []geom.Wire{h(0, 0, 10)}, b.Wires())
	assert.Len(t, b.Links(), 1)
	checkConsistent(t, b)
}

func TestAddWireExtendsOverlap(t *testing.T) {
	b := newTestBoard(t)
	addWires(t, b, h(0, 0, 4), h(2, 0, 4))
	assert.Equal(t, []geom.Wire{h(0, 0, 6)}, b.Wires())
	checkConsistent(t, b)
}

func TestAddWireCutsAtPort(t *testing.T) {
	b := newTestBoard(t)
	c := &Component{Name: "u1", X: 3, Y: 0, Width: 0, Height: 0, Ports: []Port{{Name: "p", BitWidth: 1}}}
	require.NoError(t, b.AddComponent(c))

	addWires(t, b, h(0, 0, 6))
	assert.Equal(t, sorted(h(0, 0, 3), h(3, 0, 3)), b.Wires(), "a port stops rejoining")
	links := b.Links()
	require.Len(t, links, 1)
	assert.Equal(t, []PortRef{{Component: c}}, links[0].Ports())
	checkConsistent(t, b)
}

// Two horizontal wires plus a vertical wire joining their interiors form a
// single link of five pieces.
func TestTwoRailsBridged(t *testing.T) {
	b := newTestBoard(t)
	addWires(t, b, h(0, 0, 5), h(0, 1, 5))
	require.Len(t, b.Links(), 2)

	addWires(t, b, v(2, 0, 1))

	want := sorted(h(0, 0, 2), h(2, 0, 3), h(0, 1, 2), h(2, 1, 3), v(2, 0, 1))
	assert.Equal(t, want, b.Wires())
	links := b.Links()
	require.Len(t, links, 1)
	assert.Equal(t, want, links[0].Wires())
	checkConsistent(t, b)
}

func TestRemoveContainingWire(t *testing.T) {
	b := newTestBoard(t)
	addWires(t, b, h(0, 0, 10), v(4, 0, 3))
	require.Len(t, b.Wires(), 3)

	// Both horizontal pieces lie within the removed range.
	b.RemoveElements(Selection{Wires: []geom.Wire{h(0, 0, 10)}})
	assert.Equal(t, []geom.Wire{v(4, 0, 3)}, b.Wires())
	assert.Len(t, b.Links(), 1)
	checkConsistent(t, b)
}

func TestRemoveInnerRange(t *testing.T) {
	b := newTestBoard(t)
	addWires(t, b, h(0, 0, 10))

	b.RemoveElements(Selection{Wires: []geom.Wire{h(3, 0, 2)}})
	assert.Equal(t, sorted(h(0, 0, 3), h(5, 0, 5)), b.Wires())
	assert.Len(t, b.Links(), 2)
	checkConsistent(t, b)
}

func TestRemovePartialOverlap(t *testing.T) {
	b := newTestBoard(t)
	addWires(t, b, h(0, 0, 6), v(0, 0, 2))

	b.RemoveElements(Selection{Wires: []geom.Wire{h(4, 0, 5)}})
	assert.Equal(t, sorted(h(0, 0, 4), v(0, 0, 2)), b.Wires())
	assert.Len(t, b.Links(), 1)
	checkConsistent(t, b)
}

func TestRemoveAcrossSeveralWires(t *testing.T) {
	b := newTestBoard(t)
	addWires(t, b, h(0, 0, 10), v(3, 0, 2), v(7, 0, 2))
	require.Len(t, b.Wires(), 5)

	b.RemoveElements(Selection{Wires: []geom.Wire{h(2, 0, 6)}})
	assert.Equal(t, sorted(h(0, 0, 2), h(8, 0, 2), v(3, 0, 2), v(7, 0, 2)), b.Wires())
	assert.Len(t, b.Links(), 4)
	checkConsistent(t, b)
}

func TestRemoveMissingWire(t *testing.T) {
	b := newTestBoard(t)
	addWires(t, b, h(0, 0, 4))
	b.RemoveElements(Selection{Wires: []geom.Wire{v(0, 0, 4), h(0, 5, 2)}})
	assert.Equal(t, []geom.Wire{h(0, 0, 4)}, b.Wires())

	// A component that was never placed is ignored as well.
	depth := undoDepth(b)
	b.RemoveElements(Selection{Components: []*Component{{Name: "ghost", X: 0, Y: 0}}})
	assert.Equal(t, []geom.Wire{h(0, 0, 4)}, b.Wires())
	assert.Equal(t, depth, undoDepth(b))
	checkConsistent(t, b)
}

func TestAddRemoveRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		setup []geom.Wire
		wire  geom.Wire
	}{
		{"empty board", nil, h(1, 1, 4)},
		{"tee into rail", []geom.Wire{h(0, 0, 6)}, v(3, 0, 4)},
		{"extends rail", []geom.Wire{h(0, 0, 3)}, h(3, 0, 3)},
		{"bridges rails", []geom.Wire{h(0, 0, 5), h(0, 2, 5)}, v(2, 0, 2)},
		{"crosses rail", []geom.Wire{h(0, 2, 6)}, v(3, 0, 4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBoard(t)
			addWires(t, b, tt.setup...)

			points := tt.wire.Points()
			before := make(map[geom.Point][]string)
			for _, p := range points {
				before[p] = describeAt(b, p.X, p.Y)
			}

			addWires(t, b, tt.wire)
			b.RemoveElements(Selection{Wires: []geom.Wire{tt.wire}})

			for _, p := range points {
				assert.Equal(t, before[p], describeAt(b, p.X, p.Y), "connections at %v", p)
			}
			checkConsistent(t, b)
		})
	}
}

func TestRejoinIdempotent(t *testing.T) {
	b := newTestBoard(t)
	addWires(t, b, h(0, 0, 6), v(3, 0, 4), h(3, 4, 3), h(6, 4, 2))
	b.RemoveElements(Selection{Wires: []geom.Wire{v(3, 0, 4)}})

	first := b.Wires()
	b.RejoinWires()
	assert.Equal(t, first, b.Wires())
	b.RejoinWires()
	assert.Equal(t, first, b.Wires())
	assert.Equal(t, sorted(h(0, 0, 6), h(3, 4, 5)), first)
}

func TestBatchDefersRejoin(t *testing.T) {
	b := newTestBoard(t)
	b.BeginBatch()
	b.BeginBatch()
	addWires(t, b, h(0, 0, 2), h(2, 0, 2))
	b.EndBatch()
	assert.Len(t, b.Wires(), 2, "inner EndBatch does not rejoin")
	b.EndBatch()
	assert.Equal(t, []geom.Wire{h(0, 0, 4)}, b.Wires())

	assert.Panics(t, func() { b.EndBatch() })
}

func TestAddComponentSplitsWire(t *testing.T) {
	b := newTestBoard(t)
	addWires(t, b, h(0, 3, 10))

	c := &Component{Name: "tap", X: 4, Y: 1, Width: 2, Height: 2, Ports: []Port{{Name: "in", DX: 0, DY: 2, BitWidth: 1}}}
	require.NoError(t, b.AddComponent(c))

	assert.Equal(t, sorted(h(0, 3, 4), h(4, 3, 6)), b.Wires())
	links := b.Links()
	require.Len(t, links, 1)
	assert.Equal(t, []PortRef{{Component: c}}, links[0].Ports())
	checkConsistent(t, b)

	// Removing the component lets the halves rejoin.
	b.RemoveElements(Selection{Components: []*Component{c}})
	assert.Equal(t, []geom.Wire{h(0, 3, 10)}, b.Wires())
	assert.Empty(t, b.Components())
	checkConsistent(t, b)
}

func TestAddComponentPortsMeet(t *testing.T) {
	b := newTestBoard(t)
	a := &Component{Name: "a", X: 0, Y: 0, Width: 2, Height: 2, Ports: []Port{{Name: "o", DX: 2, DY: 1, BitWidth: 1}}}
	c := &Component{Name: "c", X: 2, Y: 0, Width: 2, Height: 2, Ports: []Port{{Name: "i", DX: 0, DY: 1, BitWidth: 1}}}
	require.NoError(t, b.AddComponent(a))
	assert.Empty(t, b.Links(), "a lone port is not a link")

	require.NoError(t, b.AddComponent(c))
	links := b.Links()
	require.Len(t, links, 1)
	assert.Len(t, links[0].Ports(), 2)
	checkConsistent(t, b)

	b.RemoveElements(Selection{Components: []*Component{c}})
	assert.Empty(t, b.Links())
	checkConsistent(t, b)
}

func TestIsValidLocation(t *testing.T) {
	b := newTestBoard(t)
	a := &Component{Name: "a", X: 2, Y: 2}
	require.NoError(t, b.AddComponent(a))

	assert.True(t, b.IsValidLocation(a))
	assert.False(t, b.IsValidLocation(&Component{Name: "b", X: 2, Y: 2}))
	assert.False(t, b.IsValidLocation(&Component{Name: "b", X: -1, Y: 2}))
	assert.True(t, b.IsValidLocation(&Component{Name: "b", X: 3, Y: 2}))

	err := b.AddComponent(&Component{Name: "b", X: 2, Y: 2})
	assert.ErrorIs(t, err, ErrInvalidPlacement)
	assert.ErrorIs(t, b.AddComponent(a), ErrInvalidPlacement)
	assert.Len(t, b.Components(), 1)
}

func TestPlacementBlockedByDraggedComponent(t *testing.T) {
	b := newTestBoard(t)
	c := &Component{Name: "c", X: 2, Y: 2, Width: 1, Height: 1}
	require.NoError(t, b.AddComponent(c))

	s := b.InitMove(Selection{Components: []*Component{c}}, true)
	require.NoError(t, s.Move(3, 0, false))

	err := b.AddComponent(&Component{Name: "d", X: 5, Y: 2})
	assert.ErrorIs(t, err, ErrInvalidPlacement)
	// The origin the drag left is free again.
	require.NoError(t, b.AddComponent(&Component{Name: "e", X: 2, Y: 2}))

	_, err = s.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 5, c.X)
	assert.Len(t, b.Components(), 2)
	checkConsistent(t, b)
}

func TestBadLinks(t *testing.T) {
	b := newTestBoard(t)
	narrow := &Component{Name: "narrow", X: 0, Y: 0, Width: 1, Height: 2, Ports: []Port{{Name: "o", DX: 1, DY: 1, BitWidth: 1}}}
	wide := &Component{Name: "wide", X: 6, Y: 0, Width: 1, Height: 2, Ports: []Port{{Name: "i", DX: 0, DY: 1, BitWidth: 8}}}
	require.NoError(t, b.AddComponent(narrow))
	require.NoError(t, b.AddComponent(wide))
	assert.NoError(t, b.LastError())

	addWires(t, b, h(1, 1, 5))
	require.Len(t, b.BadLinks(), 1)
	var mismatch *WidthMismatchError
	require.True(t, errors.As(b.LastError(), &mismatch))
	assert.Equal(t, []int{1, 8}, mismatch.Widths)

	// The link stays intact.
	assert.Equal(t, []geom.Wire{h(1, 1, 5)}, b.BadLinks()[0].Wires())

	b.RemoveElements(Selection{Wires: []geom.Wire{h(1, 1, 5)}})
	assert.Empty(t, b.BadLinks())
	assert.NoError(t, b.LastError())
}

func TestUpdateComponent(t *testing.T) {
	b := newTestBoard(t)
	src := &Component{Name: "src", X: 0, Y: 0, Width: 1, Height: 2, Ports: []Port{{Name: "o", DX: 1, DY: 1, BitWidth: 4}}}
	dst := &Component{Name: "dst", X: 6, Y: 0, Width: 1, Height: 2, Ports: []Port{{Name: "i", DX: 0, DY: 1, BitWidth: 4}}}
	require.NoError(t, b.AddComponent(src))
	require.NoError(t, b.AddComponent(dst))
	addWires(t, b, h(1, 1, 5))
	require.Empty(t, b.BadLinks())

	wider := dst.Clone()
	wider.Ports[0].BitWidth = 8
	require.NoError(t, b.UpdateComponent(dst, wider))
	assert.Equal(t, []*Component{src, wider}, b.Components())
	assert.Len(t, b.BadLinks(), 1)
	checkConsistent(t, b)

	clash := wider.Clone()
	clash.X, clash.Y = 0, 0
	err := b.UpdateComponent(wider, clash)
	assert.ErrorIs(t, err, ErrInvalidPlacement)
	assert.Equal(t, []*Component{src, wider}, b.Components(), "old component restored")
	assert.Len(t, b.Links()[0].Ports(), 2)
	checkConsistent(t, b)

	assert.ErrorIs(t, b.UpdateComponent(dst, clash), ErrUnknownComponent)
}

func TestUndoRedoWire(t *testing.T) {
	b := newTestBoard(t)
	addWires(t, b, h(0, 0, 6))
	addWires(t, b, v(3, 0, 4))
	require.Len(t, b.Wires(), 3)

	ok, err := b.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []geom.Wire{h(0, 0, 6)}, b.Wires())
	checkConsistent(t, b)

	ok, err = b.Redo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sorted(h(0, 0, 3), h(3, 0, 3), v(3, 0, 4)), b.Wires())
	checkConsistent(t, b)

	_, err = b.Undo()
	require.NoError(t, err)
	_, err = b.Undo()
	require.NoError(t, err)
	assert.Empty(t, b.Wires())

	ok, err = b.Undo()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUndoComponentEdits(t *testing.T) {
	b := newTestBoard(t)
	c := &Component{Name: "u1", X: 1, Y: 1, Ports: []Port{{Name: "p", BitWidth: 1}}}
	require.NoError(t, b.AddComponent(c))
	b.RemoveElements(Selection{Components: []*Component{c}})
	require.Empty(t, b.Components())

	_, err := b.Undo()
	require.NoError(t, err)
	assert.Equal(t, []*Component{c}, b.Components())

	_, err = b.Undo()
	require.NoError(t, err)
	assert.Empty(t, b.Components())
}

func TestApplyRejectsBadPayload(t *testing.T) {
	b := newTestBoard(t)
	err := b.Apply(history.Edit{Kind: history.AddWire, Payload: "not a wire"}, false)
	assert.ErrorContains(t, err, "payload string")
}

func TestNetlistJSON(t *testing.T) {
	b := newTestBoard(t)
	a := &Component{Name: "a", X: 0, Y: 0, Width: 1, Height: 2, Ports: []Port{{Name: "o", DX: 1, DY: 1, BitWidth: 1}}}
	c := &Component{Name: "c", X: 5, Y: 0, Width: 1, Height: 2, Ports: []Port{{Name: "i", DX: 0, DY: 1, BitWidth: 1}}}
	require.NoError(t, b.AddComponent(a))
	require.NoError(t, b.AddComponent(c))
	addWires(t, b, h(1, 1, 4))

	nets := b.Netlist()
	require.Len(t, nets, 1)
	assert.Equal(t, []string{"a.o", "c.i"}, nets[0].Ports)
	assert.True(t, nets[0].Valid)

	data, err := b.ExportJSON()
	require.NoError(t, err)
	var out struct {
		NetCount int          `json:"net_count"`
		Nets     []NetSummary `json:"nets"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, 1, out.NetCount)
	assert.Equal(t, []geom.Wire{h(1, 1, 4)}, out.Nets[0].Wires)
}
