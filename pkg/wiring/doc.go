// Package wiring maintains the electrical topology of a circuit diagram.
//
// A Board tracks placed components, wire segments and the Links (electrical
// nodes) they form. Every structural edit keeps three views consistent:
//
//   - the Index, mapping each grid point to the connections passing through it
//   - the Links, each owning a set of wire IDs and port references
//   - the wire arena, mapping wire IDs to their geometry and owning Link
//
// # Overview
//
// Adding a wire walks the requested run and cuts it at every port or wire
// endpoint it meets, merging Links at each touched connection and splitting
// wires whose interior is touched at the ends of the run. Removing wires
// splices partially covered wires, drops the removed pieces and recomputes
// the affected Links with a union-find pass. After each logical operation the
// board coalesces collinear pieces that meet with no third branch.
//
// # Usage
//
//	board, err := wiring.NewBoard(wiring.DefaultConfig())
//	if err != nil {
//		return err
//	}
//
//	and := &wiring.Component{Name: "and", X: 2, Y: 2, Width: 3, Height: 2,
//		Ports: []wiring.Port{{Name: "out", DX: 3, DY: 1, BitWidth: 1}}}
//	if err := board.AddComponent(and); err != nil {
//		return err
//	}
//	if err := board.AddWire(5, 3, 6, true); err != nil {
//		return err
//	}
//
// # Dragging
//
// A MoveSession follows a drag gesture. Each Move repositions the dragged
// elements and, when asked to extend wires, starts one background routing
// task that connects every anchor back to the committed topology. Results
// of superseded tasks are never published. Finalize commits the latest
// result through the normal add paths:
//
//	s := board.InitMove(wiring.Selection{Components: []*wiring.Component{and}}, true)
//	_ = s.Move(3, 0, true)
//	sel, err := s.Finalize()
package wiring
