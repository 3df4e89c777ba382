package wiring

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/OpenTraceLab/circuitwire/pkg/geom"
	"github.com/OpenTraceLab/circuitwire/pkg/history"
)

type wireRec struct {
	wire geom.Wire
	link *Link
}

// Board is the committed topology of one circuit: components, wires, the
// connection index and the Links. All methods are safe for concurrent use;
// structural edits are serialized and background routing reads under the
// same lock.
type Board struct {
	mu sync.Mutex

	cfg    *Config
	log    *slog.Logger
	hist   History
	router Router

	index      *Index
	wires      map[WireID]*wireRec
	ports      map[PortRef]*Link
	portConns  map[*Component][]Connection
	links      map[*Link]struct{}
	components []*Component

	nextWire WireID
	nextLink int

	// batch counts nested structural operations; the consistency pass runs
	// when it returns to zero.
	batch    int
	badLinks []*Link
	lastErr  error

	moving *MoveSession
}

// NewBoard creates an empty board. A nil cfg uses DefaultConfig.
func NewBoard(cfg *Config) (*Board, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Board{
		cfg:       cfg,
		log:       cfg.Logger.With("component", "wiring"),
		hist:      cfg.History,
		router:    cfg.Router,
		index:     NewIndex(),
		wires:     make(map[WireID]*wireRec),
		ports:     make(map[PortRef]*Link),
		portConns: make(map[*Component][]Connection),
		links:     make(map[*Link]struct{}),
	}, nil
}

// History returns the recorder the board reports edits to.
func (b *Board) History() History {
	return b.hist
}

// BeginBatch defers the consistency pass until the matching EndBatch. Calls
// nest.
func (b *Board) BeginBatch() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.beginBatch()
}

// EndBatch closes one BeginBatch and runs the consistency pass when the
// outermost batch closes.
func (b *Board) EndBatch() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.endBatch()
}

func (b *Board) beginBatch() {
	b.batch++
}

func (b *Board) endBatch() {
	b.batch--
	if b.batch < 0 {
		invariant("EndBatch", "unbalanced batch counter")
	}
	if b.batch > 0 {
		return
	}
	b.rejoinWires()
	b.pruneLinks()
	b.updateBadLinks()
}

// RejoinWires runs the rejoin pass immediately, or at the end of the open
// batch if there is one.
func (b *Board) RejoinWires() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.beginBatch()
	b.endBatch()
}

// ConnectionsAt returns a copy of the connections at (x, y).
func (b *Board) ConnectionsAt(x, y int) []Connection {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Connection(nil), b.index.At(x, y)...)
}

// AnyAt returns one connection at (x, y).
func (b *Board) AnyAt(x, y int) (Connection, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index.Any(x, y)
}

// Components returns the placed components in placement order.
func (b *Board) Components() []*Component {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Component(nil), b.components...)
}

// Links returns snapshots of every link ordered by id.
func (b *Board) Links() []*Link {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Link, 0, len(b.links))
	for _, l := range b.sortedLinks() {
		out = append(out, l.clone())
	}
	return out
}

// LinkAt returns a snapshot of the link joined at (x, y), or nil.
func (b *Board) LinkAt(x, y int) *Link {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.index.At(x, y) {
		if l := b.linkOf(c); l != nil {
			return l.clone()
		}
	}
	return nil
}

// Wires returns every committed wire in a stable order.
func (b *Board) Wires() []geom.Wire {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]geom.Wire, 0, len(b.wires))
	for _, rec := range b.wires {
		out = append(out, rec.wire)
	}
	sortWires(out)
	return out
}

// BadLinks returns snapshots of the links whose ports disagree on width.
func (b *Board) BadLinks() []*Link {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Link, 0, len(b.badLinks))
	for _, l := range b.badLinks {
		out = append(out, l.clone())
	}
	return out
}

// LastError returns the diagnostic of the first bad link, or nil.
func (b *Board) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// Moving returns the open move session, or nil.
func (b *Board) Moving() *MoveSession {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.moving
}

func (b *Board) newLink() *Link {
	b.nextLink++
	l := newLink(b.nextLink)
	b.links[l] = struct{}{}
	return l
}

func (b *Board) allocLinkID() int {
	b.nextLink++
	return b.nextLink
}

func (b *Board) sortedLinks() []*Link {
	out := make([]*Link, 0, len(b.links))
	for l := range b.links {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (b *Board) sortedWireIDs() []WireID {
	ids := make([]WireID, 0, len(b.wires))
	for id := range b.wires {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// linkOf returns the link owning c, or nil for an unattached port.
func (b *Board) linkOf(c Connection) *Link {
	if c.Kind == ConnPort {
		return b.ports[c.Port]
	}
	rec, ok := b.wires[c.Wire]
	if !ok {
		invariant("linkOf", "index holds unknown wire %d", c.Wire)
	}
	return rec.link
}

// attachWire commits w into l and registers its connections.
func (b *Board) attachWire(l *Link, w geom.Wire) WireID {
	b.nextWire++
	id := b.nextWire
	b.wires[id] = &wireRec{wire: w, link: l}
	l.addWire(id, w)
	b.links[l] = struct{}{}
	for _, c := range wireConnections(id, w) {
		b.index.Add(c)
	}
	b.hist.Record(history.AddWire, w)
	return id
}

// detachWire removes a wire from the index, its link and the arena.
func (b *Board) detachWire(id WireID) geom.Wire {
	rec, ok := b.wires[id]
	if !ok {
		invariant("detachWire", "unknown wire %d", id)
	}
	b.dropConnections(id, rec.wire)
	rec.link.removeWire(id)
	delete(b.wires, id)
	b.hist.Record(history.RemoveWire, rec.wire)
	return rec.wire
}

func (b *Board) dropConnections(id WireID, w geom.Wire) {
	for _, c := range wireConnections(id, w) {
		if !b.index.Remove(c) {
			invariant("dropConnections", "wire %d missing from index at (%d,%d)", id, c.X, c.Y)
		}
	}
}

// handleConnection joins c's owner into l, merging links when c already
// belongs to another one.
func (b *Board) handleConnection(c Connection, l *Link) {
	other := b.linkOf(c)
	switch {
	case other == nil:
		l.addPort(c.Port, c.Point())
		b.ports[c.Port] = l
	case other != l:
		b.mergeLinks(l, other)
	}
	b.links[l] = struct{}{}
}

// mergeLinks moves every member of from into into and retires from.
func (b *Board) mergeLinks(into, from *Link) {
	if into == from {
		return
	}
	for id := range from.wires {
		b.wires[id].link = into
	}
	for ref := range from.ports {
		b.ports[ref] = into
	}
	into.merge(from)
	delete(b.links, from)
}

// discardLink retires l and releases its remaining ports.
func (b *Board) discardLink(l *Link) {
	for ref := range l.ports {
		if b.ports[ref] == l {
			delete(b.ports, ref)
		}
	}
	delete(b.links, l)
}

func (b *Board) pruneLinks() {
	for l := range b.links {
		if l.Empty() {
			b.discardLink(l)
		}
	}
}

func (b *Board) updateBadLinks() {
	b.badLinks = b.badLinks[:0]
	b.lastErr = nil
	for _, l := range b.sortedLinks() {
		err := l.Err()
		if err == nil {
			continue
		}
		if b.lastErr == nil {
			b.lastErr = err
		}
		b.badLinks = append(b.badLinks, l)
	}
	if len(b.badLinks) > 0 {
		b.log.Debug("bad links", "count", len(b.badLinks), "first", b.lastErr)
	}
}

func (b *Board) hasComponent(c *Component) bool {
	for _, existing := range b.components {
		if existing == c {
			return true
		}
	}
	return false
}
