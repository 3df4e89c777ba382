package wiring

import "github.com/OpenTraceLab/circuitwire/pkg/geom"

// Index maps grid points to the connections passing through them. Buckets
// are small slices keyed by the packed point; empty buckets are deleted so
// the map only holds occupied points.
type Index struct {
	cells map[uint64][]Connection
	count int
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{cells: make(map[uint64][]Connection)}
}

// Add registers c at its position.
func (ix *Index) Add(c Connection) {
	key := c.Point().Key()
	ix.cells[key] = append(ix.cells[key], c)
	ix.count++
}

// Remove unregisters c. It reports whether c was present.
func (ix *Index) Remove(c Connection) bool {
	key := c.Point().Key()
	bucket := ix.cells[key]
	for i := range bucket {
		if bucket[i] != c {
			continue
		}
		last := len(bucket) - 1
		bucket[i] = bucket[last]
		bucket[last] = Connection{}
		bucket = bucket[:last]
		if len(bucket) == 0 {
			delete(ix.cells, key)
		} else {
			ix.cells[key] = bucket
		}
		ix.count--
		return true
	}
	return false
}

// At returns the connections at (x, y). The slice is owned by the index and
// is only valid until the next Add or Remove.
func (ix *Index) At(x, y int) []Connection {
	return ix.cells[geom.Pt(x, y).Key()]
}

// AtPoint is At for a geom.Point.
func (ix *Index) AtPoint(p geom.Point) []Connection {
	return ix.cells[p.Key()]
}

// Any returns one connection at (x, y), if there is one.
func (ix *Index) Any(x, y int) (Connection, bool) {
	bucket := ix.At(x, y)
	if len(bucket) == 0 {
		return Connection{}, false
	}
	return bucket[0], true
}

// Len returns the total number of registered connections.
func (ix *Index) Len() int {
	return ix.count
}

// Points returns the number of occupied grid points.
func (ix *Index) Points() int {
	return len(ix.cells)
}
