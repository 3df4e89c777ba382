package wiring

import (
	"fmt"

	"github.com/OpenTraceLab/circuitwire/pkg/geom"
	"github.com/OpenTraceLab/circuitwire/pkg/history"
)

// UpdateEdit is the payload of a history.UpdateComponent edit.
type UpdateEdit struct {
	Old, New *Component
}

// MoveEdit is the payload of a history.MoveElement edit.
type MoveEdit struct {
	Component *Component
	DX, DY    int
}

// Apply replays a recorded edit, inverted when reverse is set. It makes the
// board a history.Applier.
func (b *Board) Apply(e history.Edit, reverse bool) error {
	switch e.Kind {
	case history.AddWire, history.RemoveWire:
		w, ok := e.Payload.(geom.Wire)
		if !ok {
			return payloadError(e)
		}
		if (e.Kind == history.AddWire) != reverse {
			return b.AddWire(w.X, w.Y, w.Length, w.Horizontal)
		}
		b.RemoveElements(Selection{Wires: []geom.Wire{w}})
		return nil

	case history.AddComponent, history.RemoveComponent:
		c, ok := e.Payload.(*Component)
		if !ok {
			return payloadError(e)
		}
		if (e.Kind == history.AddComponent) != reverse {
			return b.AddComponent(c)
		}
		b.RemoveElements(Selection{Components: []*Component{c}})
		return nil

	case history.UpdateComponent:
		u, ok := e.Payload.(UpdateEdit)
		if !ok {
			return payloadError(e)
		}
		if reverse {
			return b.UpdateComponent(u.New, u.Old)
		}
		return b.UpdateComponent(u.Old, u.New)

	case history.MoveElement:
		m, ok := e.Payload.(MoveEdit)
		if !ok {
			return payloadError(e)
		}
		if reverse {
			return b.shiftComponent(m.Component, -m.DX, -m.DY)
		}
		return b.shiftComponent(m.Component, m.DX, m.DY)
	}
	return fmt.Errorf("wiring: unknown edit kind %s", e.Kind)
}

func payloadError(e history.Edit) error {
	return fmt.Errorf("wiring: %s edit has payload %T", e.Kind, e.Payload)
}

// shiftComponent moves c by (dx, dy). A placed component is taken off the
// board and placed again so its ports re-splice.
func (b *Board) shiftComponent(c *Component, dx, dy int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.hasComponent(c) {
		c.X += dx
		c.Y += dy
		return nil
	}

	b.beginBatch()
	defer b.endBatch()
	b.hist.Disable()
	defer b.hist.Enable()

	b.removeComponentLocked(c)
	c.X += dx
	c.Y += dy
	if err := b.addComponentLocked(c); err != nil {
		c.X -= dx
		c.Y -= dy
		if rerr := b.addComponentLocked(c); rerr != nil {
			invariant("shiftComponent", "restoring %s: %v", c, rerr)
		}
		return err
	}
	return nil
}

// Undo reverts the most recent edit group. It reports false when there is
// nothing to undo.
func (b *Board) Undo() (bool, error) {
	return b.hist.Undo(b)
}

// Redo reapplies the most recently undone group.
func (b *Board) Redo() (bool, error) {
	return b.hist.Redo(b)
}
