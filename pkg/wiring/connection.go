package wiring

import (
	"fmt"

	"github.com/OpenTraceLab/circuitwire/pkg/geom"
)

// WireID is the stable handle of a committed wire.
type WireID uint64

// ConnKind distinguishes port connections from wire connections.
type ConnKind uint8

const (
	ConnWire ConnKind = iota
	ConnPort
)

var connKindNames = map[ConnKind]string{
	ConnWire: "wire",
	ConnPort: "port",
}

func (k ConnKind) String() string {
	if name, ok := connKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ConnKind(%d)", uint8(k))
}

// Connection is one point of geometry registered in the Index: either a
// component port, or one grid point along a wire. A wire of length L
// contributes L+1 connections, offsets 0 through L.
type Connection struct {
	Kind ConnKind
	X, Y int

	// Wire connections
	Wire     WireID
	Offset   int
	Endpoint bool

	// Port connections
	Port PortRef
}

// Point returns the connection's position.
func (c Connection) Point() geom.Point {
	return geom.Pt(c.X, c.Y)
}

// IsPort reports whether the connection belongs to a component port.
func (c Connection) IsPort() bool {
	return c.Kind == ConnPort
}

func (c Connection) String() string {
	if c.Kind == ConnPort {
		return fmt.Sprintf("port %s at (%d,%d)", c.Port, c.X, c.Y)
	}
	return fmt.Sprintf("wire %d+%d at (%d,%d)", c.Wire, c.Offset, c.X, c.Y)
}

func wireConnections(id WireID, w geom.Wire) []Connection {
	conns := make([]Connection, 0, w.Length+1)
	for i := 0; i <= w.Length; i++ {
		p := w.At(i)
		conns = append(conns, Connection{
			Kind:     ConnWire,
			X:        p.X,
			Y:        p.Y,
			Wire:     id,
			Offset:   i,
			Endpoint: i == 0 || i == w.Length,
		})
	}
	return conns
}

func portConnection(ref PortRef) Connection {
	p := ref.Point()
	return Connection{Kind: ConnPort, X: p.X, Y: p.Y, Port: ref}
}
