package wiring

import (
	"fmt"

	"github.com/OpenTraceLab/circuitwire/pkg/geom"
)

// Port is a connection point at a fixed offset from its component's origin.
type Port struct {
	Name     string
	DX, DY   int
	BitWidth int
}

// Component is a placed element with a rectangular footprint. The board
// holds components by pointer and moves them in place while dragging.
type Component struct {
	Name          string
	X, Y          int
	Width, Height int
	Ports         []Port
}

// Origin returns the component's placement coordinate.
func (c *Component) Origin() geom.Point {
	return geom.Pt(c.X, c.Y)
}

// PortPoint returns the grid position of port i.
func (c *Component) PortPoint(i int) geom.Point {
	return geom.Pt(c.X+c.Ports[i].DX, c.Y+c.Ports[i].DY)
}

// Contains reports whether p lies inside the footprint, borders included.
func (c *Component) Contains(p geom.Point) bool {
	return p.X >= c.X && p.X <= c.X+c.Width && p.Y >= c.Y && p.Y <= c.Y+c.Height
}

// Clone returns a copy of the component with its own port slice.
func (c *Component) Clone() *Component {
	cp := *c
	cp.Ports = append([]Port(nil), c.Ports...)
	return &cp
}

func (c *Component) String() string {
	return fmt.Sprintf("%s@%v", c.Name, c.Origin())
}

// PortRef identifies one port of one component.
type PortRef struct {
	Component *Component
	Index     int
}

// Point returns the port's current position.
func (r PortRef) Point() geom.Point {
	return r.Component.PortPoint(r.Index)
}

// BitWidth returns the declared width of the port.
func (r PortRef) BitWidth() int {
	return r.Component.Ports[r.Index].BitWidth
}

func (r PortRef) String() string {
	return r.Component.Name + "." + r.Component.Ports[r.Index].Name
}

// Selection is a set of elements handed to RemoveElements or InitMove, and
// returned by Finalize.
type Selection struct {
	Components []*Component
	Wires      []geom.Wire
}

// Empty reports whether the selection holds nothing.
func (s Selection) Empty() bool {
	return len(s.Components) == 0 && len(s.Wires) == 0
}
