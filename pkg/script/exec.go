package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/OpenTraceLab/circuitwire/pkg/geom"
	"github.com/OpenTraceLab/circuitwire/pkg/wiring"
)

var (
	// ErrUnknownName is returned for a statement naming a component the
	// script never declared.
	ErrUnknownName = errors.New("script: unknown component")
	// ErrDuplicateName is returned when a component name is declared twice.
	ErrDuplicateName = errors.New("script: duplicate component")
)

// Runner executes scripts against a board. Component names stay bound to
// the component most recently declared or updated under that name, and
// follow the placed component across undo and redo.
type Runner struct {
	board      *wiring.Board
	log        *slog.Logger
	components map[string]*wiring.Component
}

// NewRunner creates a runner for board. A nil logger uses slog.Default().
func NewRunner(board *wiring.Board, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		board:      board,
		log:        log.With("component", "script"),
		components: make(map[string]*wiring.Component),
	}
}

// Board returns the board the runner drives.
func (r *Runner) Board() *wiring.Board {
	return r.board
}

// Component returns the component bound to name.
func (r *Runner) Component(name string) (*wiring.Component, bool) {
	c, ok := r.components[name]
	return c, ok
}

// Run executes the statements of s in order and stops at the first error.
func (r *Runner) Run(ctx context.Context, s *Script) error {
	for _, st := range s.Statements {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.exec(ctx, st); err != nil {
			return &Error{Pos: st.Pos, Err: err}
		}
	}
	return nil
}

func (r *Runner) exec(ctx context.Context, st *Statement) error {
	switch {
	case st.Component != nil:
		return r.component(st.Component)
	case st.Wire != nil:
		w := st.Wire
		return r.board.AddWire(w.X, w.Y, w.Length, w.Orientation == "h")
	case st.Remove != nil:
		sel, err := r.selection(st.Remove.Targets)
		if err != nil {
			return err
		}
		r.board.RemoveElements(sel)
		return nil
	case st.Drag != nil:
		return r.drag(ctx, st.Drag)
	case st.Update != nil:
		return r.update(st.Update)
	case st.Undo:
		ok, err := r.board.Undo()
		if !ok {
			r.log.Debug("nothing to undo")
		}
		r.rebind()
		return err
	case st.Redo:
		ok, err := r.board.Redo()
		if !ok {
			r.log.Debug("nothing to redo")
		}
		r.rebind()
		return err
	}
	return fmt.Errorf("script: empty statement")
}

func (r *Runner) component(cs *ComponentStmt) error {
	if _, ok := r.components[cs.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, cs.Name)
	}
	c := &wiring.Component{
		Name:   cs.Name,
		X:      cs.X,
		Y:      cs.Y,
		Width:  cs.Width,
		Height: cs.Height,
	}
	for _, p := range cs.Ports {
		width := p.BitWidth
		if width == 0 {
			width = 1
		}
		c.Ports = append(c.Ports, wiring.Port{Name: p.Name, DX: p.DX, DY: p.DY, BitWidth: width})
	}
	if err := r.board.AddComponent(c); err != nil {
		return err
	}
	r.components[cs.Name] = c
	return nil
}

func (r *Runner) selection(targets []*Target) (wiring.Selection, error) {
	var sel wiring.Selection
	for _, t := range targets {
		if t.Wire != nil {
			sel.Wires = append(sel.Wires, t.Wire.Wire())
			continue
		}
		c, ok := r.components[t.Component]
		if !ok {
			return wiring.Selection{}, fmt.Errorf("%w: %s", ErrUnknownName, t.Component)
		}
		sel.Components = append(sel.Components, c)
	}
	return sel, nil
}

func (r *Runner) drag(ctx context.Context, ds *DragStmt) error {
	sel, err := r.selection(ds.Targets)
	if err != nil {
		return err
	}

	s := r.board.InitMove(sel, true)
	if err := s.Move(ds.DX, ds.DY, ds.Extend); err != nil {
		return err
	}
	if err := s.Wait(ctx); err != nil {
		// Drop what we have rather than leave the session open.
		if _, ferr := s.Finalize(); ferr != nil {
			r.log.Warn("finalizing interrupted drag", "error", ferr)
		}
		return err
	}
	if res := s.Result(); res != nil && len(res.Failed) > 0 {
		r.log.Info("drag left anchors unrouted", "failed", formatPoints(res.Failed))
	}
	_, err = s.Finalize()
	return err
}

func (r *Runner) update(us *UpdateStmt) error {
	old, ok := r.components[us.Name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownName, us.Name)
	}
	updated := old.Clone()
	if us.At != nil {
		updated.X, updated.Y = us.At.X, us.At.Y
	}
	for _, ws := range us.Widths {
		i := portIndex(updated, ws.Port)
		if i < 0 {
			return fmt.Errorf("script: %s has no port %q", us.Name, ws.Port)
		}
		updated.Ports[i].BitWidth = ws.BitWidth
	}
	if err := r.board.UpdateComponent(old, updated); err != nil {
		return err
	}
	r.components[us.Name] = updated
	return nil
}

// rebind points names whose component left the board during undo or redo
// at the placed component of the same name. Replaying an update swaps the
// old and new component values.
func (r *Runner) rebind() {
	placed := make(map[string]*wiring.Component)
	for _, c := range r.board.Components() {
		placed[c.Name] = c
	}
	for name, c := range r.components {
		if p, ok := placed[name]; ok && p != c {
			r.log.Debug("rebinding component", "name", name)
			r.components[name] = p
		}
	}
}

func portIndex(c *wiring.Component, name string) int {
	for i, p := range c.Ports {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func formatPoints(pts []geom.Point) []string {
	out := make([]string, len(pts))
	for i, p := range pts {
		out[i] = p.String()
	}
	return out
}
