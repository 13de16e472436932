package graph

import "github.com/vsariola/patchbay"

func (m *Model) CanUndo() bool { return len(m.undoStack) > 0 }
func (m *Model) CanRedo() bool { return len(m.redoStack) > 0 }

// Undo reverts the last recorded change. Node ids are not rewound: nodes
// created after an undo still get fresh ids.
func (m *Model) Undo() {
	m.mutating()
	if m.changeLevel > 0 || !m.CanUndo() {
		return
	}
	m.redoStack = appendLimited(m.redoStack, m.d.Copy())
	d := m.undoStack[len(m.undoStack)-1]
	m.undoStack = m.undoStack[:len(m.undoStack)-1]
	m.restore("Undo", d)
}

// Redo applies again the last change reverted by Undo.
func (m *Model) Redo() {
	m.mutating()
	if m.changeLevel > 0 || !m.CanRedo() {
		return
	}
	m.undoStack = appendLimited(m.undoStack, m.d.Copy())
	d := m.redoStack[len(m.redoStack)-1]
	m.redoStack = m.redoStack[:len(m.redoStack)-1]
	m.restore("Redo", d)
}

// restore replaces the model data and notifies the listeners of everything
// that is different.
func (m *Model) restore(kind string, d modelData) {
	old := m.d
	m.d = d
	m.d.ChangedSinceSave = true
	m.prevUndoKind = ""
	m.updateDerived()
	m.commit(diff(kind, old, m.d))
}

func diff(kind string, old, cur modelData) ChangeEvent {
	e := ChangeEvent{Kind: kind}
	curPos := make(map[patchbay.NodeID]patchbay.Position, len(cur.Nodes))
	for _, n := range cur.Nodes {
		curPos[n.ID] = n.Position
	}
	for _, n := range old.Nodes {
		p, ok := curPos[n.ID]
		if !ok {
			e.Removed = append(e.Removed, n.ID)
			e.Flags |= NodesChanged
			continue
		}
		if p != n.Position {
			e.Flags |= PositionsChanged
		}
	}
	if len(cur.Nodes) != len(old.Nodes)-len(e.Removed) {
		e.Flags |= NodesChanged
	}
	if len(old.Connections) != len(cur.Connections) {
		e.Flags |= ConnectionsChanged
	} else {
		oldConns := make(map[patchbay.Connection]bool, len(old.Connections))
		for _, c := range old.Connections {
			oldConns[c] = true
		}
		for _, c := range cur.Connections {
			if !oldConns[c] {
				e.Flags |= ConnectionsChanged
				break
			}
		}
	}
	return e
}
