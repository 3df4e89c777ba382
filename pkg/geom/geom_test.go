package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWireNormalizesNegativeLength(t *testing.T) {
	w := NewWire(5, 2, -3, true)
	assert.Equal(t, Wire{X: 2, Y: 2, Length: 3, Horizontal: true}, w)

	v := NewWire(1, 4, -4, false)
	assert.Equal(t, Wire{X: 1, Y: 0, Length: 4, Horizontal: false}, v)
}

func TestWireOffset(t *testing.T) {
	w := NewWire(2, 3, 4, true)

	off, ok := w.Offset(Pt(4, 3))
	assert.True(t, ok)
	assert.Equal(t, 2, off)

	_, ok = w.Offset(Pt(4, 4))
	assert.False(t, ok)
	_, ok = w.Offset(Pt(7, 3))
	assert.False(t, ok)

	assert.True(t, w.IsEndpoint(Pt(6, 3)))
	assert.False(t, w.IsEndpoint(Pt(5, 3)))
	assert.Len(t, w.Points(), 5)
}

func TestWithinAndOverlaps(t *testing.T) {
	outer := NewWire(0, 0, 10, true)

	tests := []struct {
		name     string
		w        Wire
		within   bool
		overlaps bool
	}{
		{"inside", NewWire(2, 0, 3, true), true, true},
		{"identical", outer, true, true},
		{"partial", NewWire(8, 0, 5, true), false, true},
		{"touching end", NewWire(10, 0, 3, true), false, false},
		{"other row", NewWire(2, 1, 3, true), false, false},
		{"perpendicular", NewWire(2, 0, 3, false), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.within, tt.w.IsWithin(outer))
			assert.Equal(t, tt.overlaps, tt.w.Overlaps(outer))
		})
	}
}

func TestSplice(t *testing.T) {
	outer := NewWire(0, 0, 10, false)

	assert.ElementsMatch(t,
		[]Wire{NewWire(0, 0, 3, false), NewWire(0, 5, 5, false)},
		outer.Splice(NewWire(0, 3, 2, false)))
	assert.Equal(t, []Wire{NewWire(0, 4, 6, false)}, outer.Splice(NewWire(0, 0, 4, false)))
	assert.Empty(t, outer.Splice(outer))

	assert.Panics(t, func() { outer.Splice(NewWire(1, 0, 2, false)) })
}

func TestSpliceOverlap(t *testing.T) {
	a := NewWire(0, 0, 6, true)
	b := NewWire(4, 0, 6, true)

	own, mid, other := a.SpliceOverlap(b)
	assert.Equal(t, NewWire(0, 0, 4, true), own)
	assert.Equal(t, NewWire(4, 0, 2, true), mid)
	assert.Equal(t, NewWire(6, 0, 4, true), other)

	own, mid, other = b.SpliceOverlap(a)
	assert.Equal(t, NewWire(6, 0, 4, true), own)
	assert.Equal(t, NewWire(4, 0, 2, true), mid)
	assert.Equal(t, NewWire(0, 0, 4, true), other)
}

func TestJoin(t *testing.T) {
	a := NewWire(0, 3, 2, true)
	b := NewWire(2, 3, 5, true)
	assert.Equal(t, NewWire(0, 3, 7, true), a.Join(b))
	assert.Equal(t, NewWire(0, 3, 7, true), b.Join(a))
}

func TestPointKeyDistinct(t *testing.T) {
	assert.NotEqual(t, Pt(1, 2).Key(), Pt(2, 1).Key())
	assert.NotEqual(t, Pt(-1, 0).Key(), Pt(0, -1).Key())
	assert.Equal(t, 7, Pt(1, 2).Manhattan(Pt(4, -2)))
}
