package patchbay

import (
	"slices"
)

type (
	// Snapshot is an immutable copy of the routing graph, published by the
	// control goroutine for the audio goroutine. Nothing in a Snapshot may be
	// modified after it has been published; a new Snapshot is built for every
	// committed change instead.
	Snapshot struct {
		Version     uint64
		Nodes       []SnapshotNode // sorted by ID
		Connections []Connection   // sorted with Connection.Less
	}

	SnapshotNode struct {
		ID   NodeID
		Unit Unit
	}
)

// NewSnapshot builds a snapshot, sorting copies of the given nodes and
// connections.
func NewSnapshot(version uint64, nodes []SnapshotNode, connections []Connection) *Snapshot {
	n := slices.Clone(nodes)
	slices.SortFunc(n, func(a, b SnapshotNode) int { return int(a.ID) - int(b.ID) })
	c := slices.Clone(connections)
	slices.SortFunc(c, func(a, b Connection) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	return &Snapshot{Version: version, Nodes: n, Connections: c}
}

// Unit returns the unit of the node with the given id, or nil if there's no
// such node in the snapshot.
func (s *Snapshot) Unit(id NodeID) Unit {
	if s == nil {
		return nil
	}
	i, ok := slices.BinarySearchFunc(s.Nodes, id, func(n SnapshotNode, id NodeID) int { return int(n.ID) - int(id) })
	if !ok {
		return nil
	}
	return s.Nodes[i].Unit
}

// Inputs iterates over the connections whose destination is the given node.
func (s *Snapshot) Inputs(id NodeID) func(yield func(Connection) bool) {
	return func(yield func(Connection) bool) {
		if s == nil {
			return
		}
		for _, c := range s.Connections {
			if c.Dest == id && !yield(c) {
				return
			}
		}
	}
}
