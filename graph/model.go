// Package graph holds the authoritative routing graph: the nodes, their
// positions and the connections between them. The Model is owned by the
// control goroutine; the audio goroutine only ever sees immutable snapshots
// published with an atomic pointer swap.
package graph

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync/atomic"

	"github.com/vsariola/patchbay"
	"go.uber.org/zap"
)

type (
	// Model is the single source of truth of the routing graph. All the
	// methods, except Snapshot, must be called from the same goroutine.
	//
	// Mutations are batched: every mutating method opens a change unless one
	// is already open, and listeners are notified once when the outermost
	// change is done. Call Change to group several mutations of a single user
	// gesture into one notification.
	Model struct {
		d modelData

		// derived from d, rebuilt when d changes structurally
		nodeIndex  map[patchbay.NodeID]int
		connIndex  map[patchbay.Connection]int
		inputOwner map[patchbay.Pin]patchbay.Connection

		nextID  patchbay.NodeID
		factory patchbay.UnitFactory
		logger  *zap.Logger

		changeLevel    int
		changeKind     string
		changeSeverity ChangeSeverity
		changeCancel   bool
		changeBackup   modelData
		pending        ChangeEvent

		prevUndoKind string
		undoStack    []modelData
		redoStack    []modelData

		iterating int

		listeners      []listener
		nextListenerID int

		version  uint64
		snapshot atomic.Pointer[patchbay.Snapshot]
	}

	// modelData is the part of the model that gets saved in the undo history
	modelData struct {
		Nodes            []nodeData
		Connections      []patchbay.Connection
		ChangedSinceSave bool
	}

	nodeData struct {
		ID         patchbay.NodeID
		Unit       patchbay.Unit
		Descriptor patchbay.Descriptor
		Position   patchbay.Position
	}

	// ChangeEvent is delivered to the listeners once per committed change.
	// Removed lists the nodes that no longer exist after the change.
	ChangeEvent struct {
		Kind    string
		Flags   ChangeFlags
		Removed []patchbay.NodeID
		Version uint64
	}

	ChangeFlags int

	// ChangeSeverity tells if a change should always get its own undo step
	// (MajorChange), or if consecutive changes of the same kind are coalesced
	// into one step (MinorChange), e.g. when dragging a node around.
	ChangeSeverity int

	listener struct {
		id int
		f  func(ChangeEvent)
	}
)

const (
	NodesChanged ChangeFlags = 1 << iota
	ConnectionsChanged
	PositionsChanged

	// StructureChanged is set when the audio engine needs a new snapshot
	StructureChanged = NodesChanged | ConnectionsChanged
)

const (
	MajorChange ChangeSeverity = iota
	MinorChange
)

const maxUndo = 64

// ErrIDsExhausted is returned by AddNode when no more unique node ids can be
// allocated.
var ErrIDsExhausted = errors.New("node ids exhausted")

// New creates an empty graph. factory is used to instantiate the units of new
// nodes; logger may be nil.
func New(factory patchbay.UnitFactory, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Model{factory: factory, logger: logger}
	m.updateDerived()
	m.snapshot.Store(patchbay.NewSnapshot(0, nil, nil))
	return m
}

// Change opens a change of given kind; the returned function must be called
// to close it, typically with defer. Changes nest: only when the outermost
// change closes, the snapshot is published, the undo history is updated and
// the listeners are notified, and only if something actually changed.
func (m *Model) Change(kind string, severity ChangeSeverity) func() {
	if m.changeLevel == 0 {
		m.changeKind = kind
		m.changeSeverity = severity
		m.changeCancel = false
		m.changeBackup = m.d.Copy()
		m.pending = ChangeEvent{Kind: kind}
	}
	m.changeLevel++
	return func() {
		m.changeLevel--
		if m.changeLevel > 0 {
			return
		}
		if m.changeCancel {
			m.d = m.changeBackup
			m.updateDerived()
			return
		}
		if m.pending.Flags == 0 {
			return
		}
		m.d.ChangedSinceSave = true
		if m.changeSeverity == MajorChange || m.prevUndoKind != m.changeKind {
			m.undoStack = appendLimited(m.undoStack, m.changeBackup)
			m.redoStack = m.redoStack[:0]
		}
		m.prevUndoKind = m.changeKind
		if m.changeSeverity == MajorChange {
			m.prevUndoKind = ""
		}
		m.commit(m.pending)
	}
}

// Cancel reverts all the mutations done in the currently open change. The
// listeners are not notified.
func (m *Model) Cancel() { m.changeCancel = true }

// Subscribe registers f to be called after every committed change. The
// returned function unregisters it.
func (m *Model) Subscribe(f func(ChangeEvent)) (unsubscribe func()) {
	m.nextListenerID++
	id := m.nextListenerID
	m.listeners = append(m.listeners, listener{id: id, f: f})
	return func() {
		m.listeners = slices.DeleteFunc(m.listeners, func(l listener) bool { return l.id == id })
	}
}

// Snapshot returns the latest published snapshot of the graph. It is
// wait-free and safe to call from any goroutine, including the audio
// goroutine.
func (m *Model) Snapshot() *patchbay.Snapshot { return m.snapshot.Load() }

// AddNode instantiates a unit for the descriptor and adds it to the graph at
// the given normalized position. The position is stored as is; clamping is
// the responsibility of whoever converts pixels into normalized coordinates.
func (m *Model) AddNode(desc patchbay.Descriptor, x, y float64) (patchbay.NodeID, error) {
	if m.factory == nil {
		return 0, fmt.Errorf("cannot instantiate %q: no unit factory", desc.Kind)
	}
	unit, err := m.factory.NewUnit(desc)
	if err != nil {
		return 0, fmt.Errorf("cannot instantiate %q: %w", desc.Kind, err)
	}
	return m.AddUnit(unit, desc, x, y)
}

// AddUnit adds an already instantiated unit to the graph.
func (m *Model) AddUnit(unit patchbay.Unit, desc patchbay.Descriptor, x, y float64) (patchbay.NodeID, error) {
	if unit == nil {
		return 0, errors.New("cannot add a nil unit")
	}
	m.mutating()
	if m.nextID == math.MaxUint32 {
		return 0, ErrIDsExhausted
	}
	defer m.Change("AddNode", MajorChange)()
	m.nextID++
	id := m.nextID
	m.d.Nodes = append(m.d.Nodes, nodeData{ID: id, Unit: unit, Descriptor: desc, Position: patchbay.Position{X: x, Y: y}})
	m.nodeIndex[id] = len(m.d.Nodes) - 1
	m.pending.Flags |= NodesChanged
	return id, nil
}

// RemoveNode removes the node and every connection touching it. Unknown ids
// are silently ignored, as removal requests may arrive late.
func (m *Model) RemoveNode(id patchbay.NodeID) {
	m.mutating()
	i, ok := m.nodeIndex[id]
	if !ok {
		return
	}
	defer m.Change("RemoveNode", MajorChange)()
	m.removeConnectionsOf(id)
	m.d.Nodes = slices.Delete(m.d.Nodes, i, i+1)
	m.updateDerived()
	m.pending.Flags |= NodesChanged
	m.pending.Removed = append(m.pending.Removed, id)
}

// DisconnectNode removes all the connections touching the node.
func (m *Model) DisconnectNode(id patchbay.NodeID) {
	m.mutating()
	if _, ok := m.nodeIndex[id]; !ok {
		return
	}
	defer m.Change("DisconnectNode", MajorChange)()
	m.removeConnectionsOf(id)
}

// SetNodePosition moves the node to a normalized position. Unknown ids are
// ignored.
func (m *Model) SetNodePosition(id patchbay.NodeID, x, y float64) {
	m.mutating()
	i, ok := m.nodeIndex[id]
	if !ok {
		return
	}
	p := patchbay.Position{X: x, Y: y}
	if m.d.Nodes[i].Position == p {
		return
	}
	defer m.Change("SetNodePosition", MinorChange)()
	m.d.Nodes[i].Position = p
	m.pending.Flags |= PositionsChanged
}

// NodePosition returns the normalized position of the node; ok is false if
// there is no such node.
func (m *Model) NodePosition(id patchbay.NodeID) (x, y float64, ok bool) {
	i, ok := m.nodeIndex[id]
	if !ok {
		return 0, 0, false
	}
	p := m.d.Nodes[i].Position
	return p.X, p.Y, true
}

// AddConnection adds the connection if CheckConnection allows it. Returns
// false if the connection was rejected; rejections are not errors.
func (m *Model) AddConnection(c patchbay.Connection) bool {
	m.mutating()
	if err := m.CheckConnection(c); err != nil {
		m.logger.Debug("connection rejected", zap.Stringer("connection", c), zap.Error(err))
		return false
	}
	defer m.Change("AddConnection", MajorChange)()
	m.d.Connections = append(m.d.Connections, c)
	m.connIndex[c] = len(m.d.Connections) - 1
	m.inputOwner[c.DestPin()] = c
	m.pending.Flags |= ConnectionsChanged
	return true
}

// RemoveConnection removes the connection. Removing a connection that does
// not exist is a no-op.
func (m *Model) RemoveConnection(c patchbay.Connection) {
	m.mutating()
	i, ok := m.connIndex[c]
	if !ok {
		return
	}
	defer m.Change("RemoveConnection", MajorChange)()
	m.d.Connections = slices.Delete(m.d.Connections, i, i+1)
	m.updateDerived()
	m.pending.Flags |= ConnectionsChanged
}

// ConnectionBetween returns the connection with exactly the given endpoints,
// if it exists.
func (m *Model) ConnectionBetween(c patchbay.Connection) (patchbay.Connection, bool) {
	i, ok := m.connIndex[c]
	if !ok {
		return patchbay.Connection{}, false
	}
	return m.d.Connections[i], true
}

// Unit returns the unit of the node, or nil if there is no such node.
func (m *Model) Unit(id patchbay.NodeID) patchbay.Unit {
	i, ok := m.nodeIndex[id]
	if !ok {
		return nil
	}
	return m.d.Nodes[i].Unit
}

// Descriptor returns the descriptor the node's unit was created from.
func (m *Model) Descriptor(id patchbay.NodeID) (patchbay.Descriptor, bool) {
	i, ok := m.nodeIndex[id]
	if !ok {
		return patchbay.Descriptor{}, false
	}
	return m.d.Nodes[i].Descriptor, true
}

func (m *Model) HasNode(id patchbay.NodeID) bool {
	_, ok := m.nodeIndex[id]
	return ok
}

func (m *Model) NumNodes() int       { return len(m.d.Nodes) }
func (m *Model) NumConnections() int { return len(m.d.Connections) }

// Nodes iterates over the node ids in the order they were added. The graph
// must not be mutated during the iteration.
func (m *Model) Nodes(yield func(patchbay.NodeID) bool) {
	m.iterating++
	defer func() { m.iterating-- }()
	for _, n := range m.d.Nodes {
		if !yield(n.ID) {
			return
		}
	}
}

// Connections iterates over the connections in the order they were added.
// The graph must not be mutated during the iteration.
func (m *Model) Connections(yield func(patchbay.Connection) bool) {
	m.iterating++
	defer func() { m.iterating-- }()
	for _, c := range m.d.Connections {
		if !yield(c) {
			return
		}
	}
}

// ConnectionsOf iterates over the connections touching the node.
func (m *Model) ConnectionsOf(id patchbay.NodeID) func(yield func(patchbay.Connection) bool) {
	return func(yield func(patchbay.Connection) bool) {
		for c := range m.Connections {
			if c.Touches(id) && !yield(c) {
				return
			}
		}
	}
}

// ChangedSinceSave tells if the graph has been modified after the last Load
// or MarkSaved.
func (m *Model) ChangedSinceSave() bool { return m.d.ChangedSinceSave }

func (m *Model) MarkSaved() { m.d.ChangedSinceSave = false }

func (m *Model) removeConnectionsOf(id patchbay.NodeID) {
	n := len(m.d.Connections)
	m.d.Connections = slices.DeleteFunc(m.d.Connections, func(c patchbay.Connection) bool { return c.Touches(id) })
	if len(m.d.Connections) != n {
		m.updateDerived()
		m.pending.Flags |= ConnectionsChanged
	}
}

// mutating panics if the graph is being enumerated: the enumerations must be
// stable for the duration of a reconciliation pass.
func (m *Model) mutating() {
	if m.iterating > 0 {
		panic("graph: mutation during enumeration")
	}
}

// commit publishes a new snapshot, if the structure changed, and notifies the
// listeners.
func (m *Model) commit(e ChangeEvent) {
	if e.Flags&StructureChanged != 0 {
		m.version++
		m.snapshot.Store(m.buildSnapshot())
	}
	e.Version = m.version
	for _, l := range slices.Clone(m.listeners) {
		l.f(e)
	}
}

func (m *Model) buildSnapshot() *patchbay.Snapshot {
	nodes := make([]patchbay.SnapshotNode, len(m.d.Nodes))
	for i, n := range m.d.Nodes {
		nodes[i] = patchbay.SnapshotNode{ID: n.ID, Unit: n.Unit}
	}
	return patchbay.NewSnapshot(m.version, nodes, m.d.Connections)
}

func (m *Model) updateDerived() {
	m.nodeIndex = make(map[patchbay.NodeID]int, len(m.d.Nodes))
	for i, n := range m.d.Nodes {
		m.nodeIndex[n.ID] = i
	}
	m.connIndex = make(map[patchbay.Connection]int, len(m.d.Connections))
	m.inputOwner = make(map[patchbay.Pin]patchbay.Connection, len(m.d.Connections))
	for i, c := range m.d.Connections {
		m.connIndex[c] = i
		m.inputOwner[c.DestPin()] = c
	}
}

func (d *modelData) Copy() modelData {
	return modelData{
		Nodes:            slices.Clone(d.Nodes),
		Connections:      slices.Clone(d.Connections),
		ChangedSinceSave: d.ChangedSinceSave,
	}
}

func appendLimited(stack []modelData, d modelData) []modelData {
	stack = append(stack, d)
	if len(stack) > maxUndo {
		copy(stack, stack[len(stack)-maxUndo:])
		stack = stack[:maxUndo]
	}
	return stack
}
