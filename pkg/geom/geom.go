// Package geom provides the integer grid geometry shared by the wiring engine
// and the router: points and axis-aligned wire segments.
package geom

import "fmt"

// Point is a coordinate on the editing grid.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point {
	return Point{X: x, Y: y}
}

// Add returns p translated by (dx, dy).
func (p Point) Add(dx, dy int) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Manhattan returns the grid distance between two points.
func (p Point) Manhattan(o Point) int {
	return abs(p.X-o.X) + abs(p.Y-o.Y)
}

// Negative reports whether either coordinate is below zero.
func (p Point) Negative() bool {
	return p.X < 0 || p.Y < 0
}

// Key packs the point into a single map key.
func (p Point) Key() uint64 {
	return uint64(uint32(p.X))<<32 | uint64(uint32(p.Y))
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Wire is an axis-aligned segment starting at (X, Y) and extending Length
// units right (Horizontal) or down. A normalized wire has Length > 0.
type Wire struct {
	X          int  `json:"x"`
	Y          int  `json:"y"`
	Length     int  `json:"length"`
	Horizontal bool `json:"horizontal"`
}

// NewWire builds a normalized wire. A negative length moves the origin so
// the stored length is positive; the caller must reject a zero length.
func NewWire(x, y, length int, horizontal bool) Wire {
	if length < 0 {
		if horizontal {
			x += length
		} else {
			y += length
		}
		length = -length
	}
	return Wire{X: x, Y: y, Length: length, Horizontal: horizontal}
}

// Start returns the first endpoint.
func (w Wire) Start() Point {
	return Point{X: w.X, Y: w.Y}
}

// End returns the last endpoint.
func (w Wire) End() Point {
	return w.At(w.Length)
}

// At returns the point at offset i along the wire.
func (w Wire) At(i int) Point {
	if w.Horizontal {
		return Point{X: w.X + i, Y: w.Y}
	}
	return Point{X: w.X, Y: w.Y + i}
}

// Points returns all Length+1 grid points covered by the wire.
func (w Wire) Points() []Point {
	pts := make([]Point, 0, w.Length+1)
	for i := 0; i <= w.Length; i++ {
		pts = append(pts, w.At(i))
	}
	return pts
}

// Offset returns the offset of p along the wire and whether p lies on it.
func (w Wire) Offset(p Point) (int, bool) {
	if w.Horizontal {
		if p.Y != w.Y || p.X < w.X || p.X > w.X+w.Length {
			return 0, false
		}
		return p.X - w.X, true
	}
	if p.X != w.X || p.Y < w.Y || p.Y > w.Y+w.Length {
		return 0, false
	}
	return p.Y - w.Y, true
}

// Contains reports whether p lies on the wire, endpoints included.
func (w Wire) Contains(p Point) bool {
	_, ok := w.Offset(p)
	return ok
}

// IsEndpoint reports whether p is the start or end of the wire.
func (w Wire) IsEndpoint(p Point) bool {
	return p == w.Start() || p == w.End()
}

// Negative reports whether any part of the wire lies in negative space.
func (w Wire) Negative() bool {
	return w.X < 0 || w.Y < 0
}

// Translate returns the wire moved by (dx, dy).
func (w Wire) Translate(dx, dy int) Wire {
	w.X += dx
	w.Y += dy
	return w
}

// lo and hi give the covered range along the wire's axis.
func (w Wire) lo() int {
	if w.Horizontal {
		return w.X
	}
	return w.Y
}

func (w Wire) hi() int {
	return w.lo() + w.Length
}

// cross is the fixed coordinate perpendicular to the axis.
func (w Wire) cross() int {
	if w.Horizontal {
		return w.Y
	}
	return w.X
}

// IsWithin reports whether w lies entirely inside o (same orientation).
func (w Wire) IsWithin(o Wire) bool {
	return w.Horizontal == o.Horizontal && w.cross() == o.cross() &&
		w.lo() >= o.lo() && w.hi() <= o.hi()
}

// Overlaps reports whether two same-orientation wires share a stretch of
// positive length.
func (w Wire) Overlaps(o Wire) bool {
	if w.Horizontal != o.Horizontal || w.cross() != o.cross() {
		return false
	}
	return !(o.lo() >= w.hi() || w.lo() >= o.hi())
}

// Splice returns the parts of w that lie outside inner, which must be
// within w. The result holds zero, one or two wires.
func (w Wire) Splice(inner Wire) []Wire {
	if !inner.IsWithin(w) {
		panic(fmt.Sprintf("geom: %v is not within %v", inner, w))
	}
	var out []Wire
	if w.lo() < inner.lo() {
		out = append(out, w.span(w.lo(), inner.lo()))
	}
	if inner.hi() < w.hi() {
		out = append(out, w.span(inner.hi(), w.hi()))
	}
	return out
}

// SpliceOverlap splits a partially overlapping pair into three pieces: the
// part of w outside o, the shared middle, and the part of o outside w.
func (w Wire) SpliceOverlap(o Wire) (own, middle, other Wire) {
	if !w.Overlaps(o) {
		panic(fmt.Sprintf("geom: %v does not overlap %v", w, o))
	}
	left, right := w, o
	if o.lo() < w.lo() {
		left, right = o, w
	}
	leftPiece := w.span(left.lo(), right.lo())
	middle = w.span(right.lo(), left.hi())
	rightPiece := w.span(left.hi(), right.hi())
	if left == w {
		return leftPiece, middle, rightPiece
	}
	return rightPiece, middle, leftPiece
}

// span builds a wire on w's line covering [from, to].
func (w Wire) span(from, to int) Wire {
	if w.Horizontal {
		return Wire{X: from, Y: w.Y, Length: to - from, Horizontal: true}
	}
	return Wire{X: w.X, Y: from, Length: to - from, Horizontal: false}
}

// Join merges two collinear wires meeting end to end.
func (w Wire) Join(o Wire) Wire {
	lo, hi := w.lo(), w.hi()
	if o.lo() < lo {
		lo = o.lo()
	}
	if o.hi() > hi {
		hi = o.hi()
	}
	return w.span(lo, hi)
}

func (w Wire) String() string {
	dir := "v"
	if w.Horizontal {
		dir = "h"
	}
	return fmt.Sprintf("wire(%d,%d,%d,%s)", w.X, w.Y, w.Length, dir)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
