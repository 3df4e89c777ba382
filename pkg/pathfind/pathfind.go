// Package pathfind routes Manhattan wire paths across the editing grid.
//
// BestPath runs an A* search whose state is a grid point plus the direction
// the point was entered from. Every candidate cell is classified by a caller
// supplied callback as Invalid (pruned), Valid (one unit of length) or Prefer
// (free), so the caller decides what counts as an obstacle without the
// router knowing anything about components or links.
//
// The search is cooperative: the context is checked before every expansion
// and a hard expansion cap bounds the work done for unreachable targets.
package pathfind

import (
	"container/heap"
	"context"
	"errors"
	"fmt"

	"github.com/OpenTraceLab/circuitwire/pkg/geom"
)

// DefaultMaxExpansions bounds the number of nodes popped before giving up.
const DefaultMaxExpansions = 5000

// TurnCost is the priority added for each change of direction.
const TurnCost = 5

var (
	// ErrNoPath is returned when the frontier empties before the destination
	// is reached.
	ErrNoPath = errors.New("pathfind: no path")

	// ErrExpansionLimit is returned when the search exceeds its expansion cap.
	ErrExpansionLimit = errors.New("pathfind: expansion limit reached")

	// ErrInvalidDestination is returned for destinations in negative space.
	ErrInvalidDestination = errors.New("pathfind: destination out of bounds")
)

// Preference classifies a cell for the router.
type Preference uint8

const (
	Invalid Preference = iota // never part of a path
	Valid                     // allowed, costs one unit of length
	Prefer                    // allowed and free
)

func (p Preference) String() string {
	switch p {
	case Invalid:
		return "invalid"
	case Valid:
		return "valid"
	case Prefer:
		return "prefer"
	default:
		return fmt.Sprintf("Preference(%d)", uint8(p))
	}
}

// ValidFunc reports whether a wire may pass through (x, y) in the given
// orientation.
type ValidFunc func(x, y int, horizontal bool) Preference

// Option tweaks a single search.
type Option func(*options)

type options struct {
	maxExpansions int
}

// WithMaxExpansions overrides DefaultMaxExpansions.
func WithMaxExpansions(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxExpansions = n
		}
	}
}

type direction int8

const (
	dirNone direction = iota - 1
	dirRight
	dirLeft
	dirDown
	dirUp
)

var dirVectors = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

func (d direction) opposite() direction {
	switch d {
	case dirRight:
		return dirLeft
	case dirLeft:
		return dirRight
	case dirDown:
		return dirUp
	case dirUp:
		return dirDown
	}
	return dirNone
}

func (d direction) horizontal() bool {
	return d == dirRight || d == dirLeft
}

// BestPath finds the cheapest wire path from (sx, sy) to (dx, dy).
//
// The priority of a node is TurnCost*turns + length + the Manhattan distance
// to the destination. A turn onto the destination's row or column is not
// charged. The returned wires cover the path with one wire per straight run.
// A path from a point to itself is empty with a nil error.
func BestPath(ctx context.Context, sx, sy, dx, dy int, valid ValidFunc, opts ...Option) ([]geom.Wire, error) {
	o := options{maxExpansions: DefaultMaxExpansions}
	for _, opt := range opts {
		opt(&o)
	}

	if dx < 0 || dy < 0 {
		return nil, ErrInvalidDestination
	}

	source := geom.Pt(sx, sy)
	dest := geom.Pt(dx, dy)

	// parents doubles as the closed set: the first pop of a point wins.
	parents := make(map[geom.Point]geom.Point)
	pq := &nodeQueue{}
	heap.Init(pq)
	heap.Push(pq, &node{point: source, dir: dirNone, root: true})

	var seq uint64
	expansions := 0
	for pq.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		expansions++
		if expansions >= o.maxExpansions {
			return nil, ErrExpansionLimit
		}

		cur := heap.Pop(pq).(*node)
		if _, seen := parents[cur.point]; seen {
			continue
		}
		if cur.root {
			parents[cur.point] = cur.point
		} else {
			parents[cur.point] = cur.parent
		}

		if cur.point == dest {
			return constructPath(parents, source, dest), nil
		}

		for d := dirRight; d <= dirUp; d++ {
			if cur.dir != dirNone && d == cur.dir.opposite() {
				continue
			}
			next := cur.point.Add(dirVectors[d][0], dirVectors[d][1])
			if next.Negative() {
				continue
			}
			if _, seen := parents[next]; seen {
				continue
			}

			var extra int
			switch valid(next.X, next.Y, d.horizontal()) {
			case Prefer:
				extra = 0
			case Valid:
				extra = 1
			default:
				continue
			}

			turns := cur.turns
			if cur.dir != dirNone && d != cur.dir && next.X != dest.X && next.Y != dest.Y {
				turns++
			}

			seq++
			heap.Push(pq, &node{
				point:  next,
				parent: cur.point,
				dir:    d,
				length: cur.length + extra,
				turns:  turns,
				score:  TurnCost*turns + cur.length + extra + next.Manhattan(dest),
				seq:    seq,
			})
		}
	}

	return nil, ErrNoPath
}

// constructPath walks the parent chain back from dest and emits one wire per
// straight run.
func constructPath(parents map[geom.Point]geom.Point, source, dest geom.Point) []geom.Wire {
	var path []geom.Wire
	if source == dest {
		return path
	}

	runStart := dest
	current := dest
	for current != source {
		next := parents[current]
		sameX := runStart.X == current.X && current.X == next.X
		sameY := runStart.Y == current.Y && current.Y == next.Y
		if !sameX && !sameY {
			path = append(path, runWire(runStart, current))
			runStart = current
		}
		current = next
	}
	if runStart != current {
		path = append(path, runWire(runStart, current))
	}
	return path
}

func runWire(from, to geom.Point) geom.Wire {
	if from.Y == to.Y {
		return geom.NewWire(from.X, from.Y, to.X-from.X, true)
	}
	return geom.NewWire(from.X, from.Y, to.Y-from.Y, false)
}

// Finder adapts BestPath to an interface so callers can substitute their own
// router in tests.
type Finder struct {
	MaxExpansions int
}

// BestPath routes between two points with the finder's expansion cap.
func (f Finder) BestPath(ctx context.Context, src, dst geom.Point, valid ValidFunc) ([]geom.Wire, error) {
	return BestPath(ctx, src.X, src.Y, dst.X, dst.Y, valid, WithMaxExpansions(f.MaxExpansions))
}
