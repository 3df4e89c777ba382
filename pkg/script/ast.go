package script

import (
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/OpenTraceLab/circuitwire/pkg/geom"
)

// Script is a parsed board script: a sequence of statements executed in
// order.
type Script struct {
	Statements []*Statement `@@*`
}

// Statement is one script command.
// Example: wire 0 0 5 h;
type Statement struct {
	Pos lexer.Position

	Component *ComponentStmt `(  @@`
	Wire      *WireSpec      ` | "wire" @@`
	Remove    *RemoveStmt    ` | @@`
	Drag      *DragStmt      ` | @@`
	Update    *UpdateStmt    ` | @@`
	Undo      bool           ` | @"undo"`
	Redo      bool           ` | @"redo" ) ";"`
}

// ComponentStmt places a component.
// Example: component and at 2 2 size 3 2 { port out at 3 1 width 1; }
type ComponentStmt struct {
	Name   string      `"component" @Ident`
	X      int         `"at" @Int`
	Y      int         `@Int`
	Width  int         `( "size" @Int`
	Height int         `  @Int )?`
	Ports  []*PortDecl `( "{" @@* "}" )?`
}

// PortDecl declares a port relative to the component origin. The bit width
// defaults to 1.
type PortDecl struct {
	Name     string `"port" @Ident`
	DX       int    `"at" @Int`
	DY       int    `@Int`
	BitWidth int    `( "width" @Int )? ";"`
}

// WireSpec is a wire run: start point, length and orientation.
type WireSpec struct {
	X           int    `@Int`
	Y           int    `@Int`
	Length      int    `@Int`
	Orientation string `@( "h" | "v" )`
}

// Wire returns the normalized wire.
func (w *WireSpec) Wire() geom.Wire {
	return geom.NewWire(w.X, w.Y, w.Length, w.Orientation == "h")
}

// Target names a component or a wire run.
type Target struct {
	Wire      *WireSpec `  "wire" @@`
	Component string    `| @Ident`
}

// RemoveStmt removes components and wire runs as one selection.
// Example: remove u1, wire 0 0 3 h;
type RemoveStmt struct {
	Targets []*Target `"remove" @@ ( "," @@ )*`
}

// DragStmt drags a selection by a delta and drops it.
// Example: drag u1 by 3 0 extend;
type DragStmt struct {
	Targets []*Target `"drag" @@ ( "," @@ )*`
	DX      int       `"by" @Int`
	DY      int       `@Int`
	Extend  bool      `@"extend"?`
}

// UpdateStmt replaces a component by a modified copy.
// Example: update u1 at 4 4 width out 8;
type UpdateStmt struct {
	Name   string       `"update" @Ident`
	At     *Coord       `( "at" @@ )?`
	Widths []*WidthSpec `@@*`
}

// Coord is an absolute grid position.
type Coord struct {
	X int `@Int`
	Y int `@Int`
}

// WidthSpec changes the bit width of one port.
type WidthSpec struct {
	Port     string `"width" @Ident`
	BitWidth int    `@Int`
}
