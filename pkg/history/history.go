// Package history records editor changes as nested groups of edits and
// replays them for undo and redo.
//
// Recording is re-entrant: BeginGroup/EndGroup pairs may nest and every edit
// recorded while any group is open lands in the outermost group. Disable and
// Enable nest the same way and suppress recording entirely, which is how
// replay avoids recording the edits it performs.
package history

import (
	"fmt"
	"slices"
	"sync"
)

// DefaultMaxDepth is the number of groups kept on the undo stack.
const DefaultMaxDepth = 300

// Kind identifies what an edit did.
type Kind int

const (
	AddWire Kind = iota
	RemoveWire
	AddComponent
	RemoveComponent
	UpdateComponent
	MoveElement
)

var kindNames = map[Kind]string{
	AddWire:         "AddWire",
	RemoveWire:      "RemoveWire",
	AddComponent:    "AddComponent",
	RemoveComponent: "RemoveComponent",
	UpdateComponent: "UpdateComponent",
	MoveElement:     "MoveElement",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Edit is a single recorded change. The payload is owned by whoever
// recorded it and is handed back unchanged to the Applier on replay.
type Edit struct {
	Kind    Kind
	Payload any
}

// Applier replays edits. Reverse is true when undoing.
type Applier interface {
	Apply(e Edit, reverse bool) error
	BeginBatch()
	EndBatch()
}

// Recorder is the default edit history.
type Recorder struct {
	mu sync.Mutex

	maxDepth     int
	disableDepth int
	groupDepth   int
	groups       [][]Edit

	undo [][]Edit
	redo [][]Edit

	listeners []func(Edit)
}

// New creates a recorder keeping at most maxDepth undo groups.
func New(maxDepth int) *Recorder {
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	return &Recorder{maxDepth: maxDepth}
}

// AddListener registers fn to be called for every recorded or replayed edit.
func (r *Recorder) AddListener(fn func(Edit)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Disable suppresses recording until the matching Enable.
func (r *Recorder) Disable() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disableDepth++
}

// Enable undoes one Disable.
func (r *Recorder) Enable() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disableDepth--
	if r.disableDepth < 0 {
		panic("history: Enable without matching Disable")
	}
}

// BeginGroup opens a (possibly nested) group.
func (r *Recorder) BeginGroup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beginGroup()
}

func (r *Recorder) beginGroup() {
	r.groupDepth++
	r.groups = append(r.groups, nil)
}

// EndGroup closes the innermost group. Closing the outermost group pushes
// its edits onto the undo stack if it holds any.
func (r *Recorder) EndGroup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endGroup()
}

func (r *Recorder) endGroup() {
	if r.groupDepth == 0 {
		panic("history: mismatched EndGroup")
	}
	r.groupDepth--
	if r.groupDepth > 0 {
		r.groups[r.groupDepth-1] = append(r.groups[r.groupDepth-1], r.groups[r.groupDepth]...)
		r.groups = r.groups[:r.groupDepth]
		return
	}

	edits := r.groups[0]
	r.groups = r.groups[:0]
	if len(edits) == 0 {
		return
	}
	r.undo = append(r.undo, edits)
	if len(r.undo) > r.maxDepth {
		r.undo = r.undo[len(r.undo)-r.maxDepth:]
	}
}

// ClearGroup drops everything recorded in the innermost open group and in
// any group nested below it.
func (r *Recorder) ClearGroup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.groupDepth == 0 {
		panic("history: ClearGroup without open group")
	}
	r.groups[r.groupDepth-1] = nil
	r.groups = r.groups[:r.groupDepth]
}

// Record adds an edit to the open group, or as a group of its own when no
// group is open. New edits invalidate the redo stack.
func (r *Recorder) Record(kind Kind, payload any) {
	r.mu.Lock()
	if r.disableDepth > 0 {
		r.mu.Unlock()
		return
	}
	e := Edit{Kind: kind, Payload: payload}
	r.beginGroup()
	r.groups[r.groupDepth-1] = append(r.groups[r.groupDepth-1], e)
	r.endGroup()
	r.redo = nil
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(e)
	}
}

// UndoDepth returns the number of groups available to undo, counting a
// currently open group.
func (r *Recorder) UndoDepth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.undo)
	if r.groupDepth > 0 {
		n++
	}
	return n
}

// RedoDepth returns the number of groups available to redo.
func (r *Recorder) RedoDepth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.redo)
}

// Undo reverts the most recent group through a. It reports false when there
// was nothing to undo.
func (r *Recorder) Undo(a Applier) (bool, error) {
	r.mu.Lock()
	if len(r.undo) == 0 {
		r.mu.Unlock()
		return false, nil
	}
	group := r.undo[len(r.undo)-1]
	r.undo = r.undo[:len(r.undo)-1]
	r.redo = append(r.redo, group)
	r.mu.Unlock()

	return true, r.replay(a, group, true)
}

// Redo reapplies the most recently undone group through a.
func (r *Recorder) Redo(a Applier) (bool, error) {
	r.mu.Lock()
	if len(r.redo) == 0 {
		r.mu.Unlock()
		return false, nil
	}
	group := r.redo[len(r.redo)-1]
	r.redo = r.redo[:len(r.redo)-1]
	r.undo = append(r.undo, group)
	if len(r.undo) > r.maxDepth {
		r.undo = r.undo[len(r.undo)-r.maxDepth:]
	}
	r.mu.Unlock()

	return true, r.replay(a, group, false)
}

func (r *Recorder) replay(a Applier, group []Edit, reverse bool) error {
	r.Disable()
	defer r.Enable()

	a.BeginBatch()
	defer a.EndBatch()

	r.mu.Lock()
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()

	apply := func(e Edit) error {
		if err := a.Apply(e, reverse); err != nil {
			return fmt.Errorf("history: replay %s: %w", e.Kind, err)
		}
		for _, fn := range listeners {
			fn(e)
		}
		return nil
	}

	if reverse {
		for i := len(group) - 1; i >= 0; i-- {
			if err := apply(group[i]); err != nil {
				return err
			}
		}
		return nil
	}
	for _, e := range group {
		if err := apply(e); err != nil {
			return err
		}
	}
	return nil
}
