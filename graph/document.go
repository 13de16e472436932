package graph

import (
	"fmt"

	"github.com/vsariola/patchbay"
	"go.uber.org/zap"
)

// Document returns the persisted form of the graph.
func (m *Model) Document() patchbay.Document {
	doc := patchbay.Document{
		Nodes:       make([]patchbay.DocumentNode, len(m.d.Nodes)),
		Connections: make([]patchbay.Connection, len(m.d.Connections)),
	}
	for i, n := range m.d.Nodes {
		doc.Nodes[i] = patchbay.DocumentNode{ID: n.ID, Descriptor: n.Descriptor, X: n.Position.X, Y: n.Position.Y}
	}
	copy(doc.Connections, m.d.Connections)
	return doc
}

// Load replaces the whole graph with the document. The units are
// instantiated with the factory and the node ids of the document are kept.
// Connections that are not legal with the instantiated units are dropped and
// logged. The undo history is cleared. If any unit fails to instantiate, the
// graph is left untouched.
func (m *Model) Load(doc patchbay.Document) error {
	m.mutating()
	if m.changeLevel > 0 {
		return fmt.Errorf("cannot load a document during change %q", m.changeKind)
	}
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}
	if m.factory == nil {
		return fmt.Errorf("cannot load a document: no unit factory")
	}
	nodes := make([]nodeData, 0, len(doc.Nodes))
	maxID := m.nextID
	for _, n := range doc.Nodes {
		unit, err := m.factory.NewUnit(n.Descriptor)
		if err != nil {
			return fmt.Errorf("cannot instantiate node %d (%q): %w", n.ID, n.Descriptor.Kind, err)
		}
		nodes = append(nodes, nodeData{ID: n.ID, Unit: unit, Descriptor: n.Descriptor, Position: patchbay.Position{X: n.X, Y: n.Y}})
		maxID = max(maxID, n.ID)
	}
	old := m.d
	m.d = modelData{Nodes: nodes}
	m.nextID = maxID
	m.updateDerived()
	for _, c := range doc.Connections {
		if err := m.CheckConnection(c); err != nil {
			m.logger.Warn("dropping connection from document", zap.Stringer("connection", c), zap.Error(err))
			continue
		}
		m.d.Connections = append(m.d.Connections, c)
		m.connIndex[c] = len(m.d.Connections) - 1
		m.inputOwner[c.DestPin()] = c
	}
	m.undoStack = m.undoStack[:0]
	m.redoStack = m.redoStack[:0]
	m.prevUndoKind = ""
	e := diff("Load", old, m.d)
	e.Flags |= NodesChanged | ConnectionsChanged
	m.commit(e)
	return nil
}
