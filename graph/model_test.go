package graph_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/vsariola/patchbay"
	"github.com/vsariola/patchbay/graph"
)

type testUnit struct {
	name            string
	ins, outs       int
	midiIn, midiOut bool
}

func (u *testUnit) NumInputChannels() int  { return u.ins }
func (u *testUnit) NumOutputChannels() int { return u.outs }
func (u *testUnit) AcceptsMIDI() bool      { return u.midiIn }
func (u *testUnit) ProducesMIDI() bool     { return u.midiOut }
func (u *testUnit) Name() string           { return u.name }

var testFactory = patchbay.UnitFactoryFunc(func(desc patchbay.Descriptor) (patchbay.Unit, error) {
	if desc.Kind == "broken" {
		return nil, errors.New("broken unit")
	}
	return &testUnit{name: desc.Name, ins: desc.NumInputs, outs: desc.NumOutputs, midiIn: desc.AcceptsMIDI, midiOut: desc.ProducesMIDI}, nil
})

func desc(name string, ins, outs int, midiIn, midiOut bool) patchbay.Descriptor {
	return patchbay.Descriptor{Kind: "test", Name: name, NumInputs: ins, NumOutputs: outs, AcceptsMIDI: midiIn, ProducesMIDI: midiOut}
}

func addNode(t *testing.T, m *graph.Model, d patchbay.Descriptor) patchbay.NodeID {
	t.Helper()
	id, err := m.AddNode(d, 0.5, 0.5)
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}
	return id
}

func conn(src patchbay.NodeID, sc patchbay.Channel, dst patchbay.NodeID, dc patchbay.Channel) patchbay.Connection {
	return patchbay.Connection{Source: src, SourceChannel: sc, Dest: dst, DestChannel: dc}
}

func TestNodeIDsAreUniqueAndNeverReused(t *testing.T) {
	m := graph.New(testFactory, nil)
	seen := map[patchbay.NodeID]bool{}
	for i := 0; i < 10; i++ {
		id := addNode(t, m, desc("n", 1, 1, false, false))
		if id == 0 {
			t.Fatalf("AddNode returned the zero id")
		}
		if seen[id] {
			t.Fatalf("id %d was allocated twice", id)
		}
		seen[id] = true
		if i%2 == 0 {
			m.RemoveNode(id)
		}
	}
	if got := m.NumNodes(); got != 5 {
		t.Errorf("expected 5 nodes, got %d", got)
	}
}

func TestAddNodeFactoryError(t *testing.T) {
	m := graph.New(testFactory, nil)
	if _, err := m.AddNode(patchbay.Descriptor{Kind: "broken"}, 0, 0); err == nil {
		t.Fatalf("expected an error from a failing factory")
	}
	if m.NumNodes() != 0 {
		t.Errorf("a failed AddNode should not add a node")
	}
}

func TestRemoveNodeCascadesConnections(t *testing.T) {
	m := graph.New(testFactory, nil)
	a := addNode(t, m, desc("a", 0, 2, false, true))
	b := addNode(t, m, desc("b", 2, 2, true, false))
	c := addNode(t, m, desc("c", 2, 0, false, false))
	for _, cn := range []patchbay.Connection{conn(a, 0, b, 0), conn(a, patchbay.MIDIChannel, b, patchbay.MIDIChannel), conn(b, 1, c, 1)} {
		if !m.AddConnection(cn) {
			t.Fatalf("AddConnection(%v) was rejected", cn)
		}
	}
	m.RemoveNode(b)
	if m.NumConnections() != 0 {
		t.Errorf("expected all connections touching node %d to be removed, got %d left", b, m.NumConnections())
	}
	m.RemoveNode(b) // unknown ids are ignored
	if m.HasNode(b) || !m.HasNode(a) || !m.HasNode(c) {
		t.Errorf("wrong nodes left after removal")
	}
}

func TestConnectionLegality(t *testing.T) {
	m := graph.New(testFactory, nil)
	src := addNode(t, m, desc("src", 0, 2, false, true))
	dst := addNode(t, m, desc("dst", 2, 2, true, false))
	other := addNode(t, m, desc("other", 0, 1, false, false))
	if !m.AddConnection(conn(src, 0, dst, 0)) {
		t.Fatalf("valid connection was rejected")
	}
	tests := []struct {
		name string
		c    patchbay.Connection
		err  error
	}{
		{"UnknownSource", conn(99, 0, dst, 1), graph.ErrUnknownNode},
		{"UnknownDest", conn(src, 0, 99, 0), graph.ErrUnknownNode},
		{"ChannelOutOfRange", conn(src, 5, dst, 1), graph.ErrInvalidChannel},
		{"NegativeChannel", conn(src, -1, dst, 1), graph.ErrInvalidChannel},
		{"MIDIWithoutFlag", conn(other, patchbay.MIDIChannel, dst, patchbay.MIDIChannel), graph.ErrInvalidChannel},
		{"MIDIWrongDirection", conn(dst, patchbay.MIDIChannel, src, patchbay.MIDIChannel), graph.ErrWrongDirection},
		{"SourceIsInput", conn(dst, 0, dst, 1), graph.ErrSelfLoop},
		{"DestIsOutputOnly", conn(other, 0, src, 0), graph.ErrWrongDirection},
		{"FanIn", conn(other, 0, dst, 0), graph.ErrInputOccupied},
		{"SelfLoop", conn(dst, 1, dst, 1), graph.ErrSelfLoop},
		{"Duplicate", conn(src, 0, dst, 0), graph.ErrDuplicate},
		{"Valid", conn(src, 1, dst, 1), nil},
		{"ValidMIDI", conn(src, patchbay.MIDIChannel, dst, patchbay.MIDIChannel), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.CheckConnection(tt.c)
			if tt.err == nil {
				if err != nil {
					t.Fatalf("expected %v to be legal, got %v", tt.c, err)
				}
				if !m.CanConnect(tt.c) {
					t.Fatalf("CanConnect(%v) returned false", tt.c)
				}
				return
			}
			if !errors.Is(err, tt.err) {
				t.Fatalf("CheckConnection(%v) = %v, expected %v", tt.c, err, tt.err)
			}
			if m.CanConnect(tt.c) {
				t.Fatalf("CanConnect(%v) returned true", tt.c)
			}
		})
	}
	if m.NumConnections() != 1 {
		t.Errorf("CheckConnection should not have side effects")
	}
}

func TestDirectionMismatch(t *testing.T) {
	m := graph.New(testFactory, nil)
	// a has 2 inputs and 1 output, so channel 1 exists only as an input
	a := addNode(t, m, desc("a", 2, 1, false, false))
	b := addNode(t, m, desc("b", 2, 2, false, false))
	if err := m.CheckConnection(conn(a, 1, b, 0)); !errors.Is(err, graph.ErrWrongDirection) {
		t.Errorf("expected ErrWrongDirection, got %v", err)
	}
}

func TestFanInAfterRemoval(t *testing.T) {
	m := graph.New(testFactory, nil)
	s1 := addNode(t, m, desc("s1", 0, 1, false, false))
	s2 := addNode(t, m, desc("s2", 0, 1, false, false))
	d := addNode(t, m, desc("d", 1, 0, false, false))
	if !m.AddConnection(conn(s1, 0, d, 0)) {
		t.Fatalf("first connection rejected")
	}
	if m.AddConnection(conn(s2, 0, d, 0)) {
		t.Fatalf("second writer to the same input was accepted")
	}
	m.RemoveConnection(conn(s1, 0, d, 0))
	m.RemoveConnection(conn(s1, 0, d, 0))
	if !m.AddConnection(conn(s2, 0, d, 0)) {
		t.Fatalf("input should be free after removing its writer")
	}
	if _, ok := m.ConnectionBetween(conn(s2, 0, d, 0)); !ok {
		t.Errorf("ConnectionBetween did not find the connection")
	}
}

func TestSimpleChain(t *testing.T) {
	m := graph.New(testFactory, nil)
	in := addNode(t, m, desc("in", 0, 2, false, false))
	out := addNode(t, m, desc("out", 2, 0, false, false))
	for ch := patchbay.Channel(0); ch < 2; ch++ {
		if !m.AddConnection(conn(in, ch, out, ch)) {
			t.Fatalf("channel %v connection rejected", ch)
		}
	}
	var got []patchbay.Connection
	for c := range m.Connections {
		got = append(got, c)
	}
	if len(got) != 2 || got[0] != conn(in, 0, out, 0) || got[1] != conn(in, 1, out, 1) {
		t.Errorf("unexpected connections: %v", got)
	}
	s := m.Snapshot()
	if len(s.Nodes) != 2 || len(s.Connections) != 2 {
		t.Errorf("snapshot does not match the model: %+v", s)
	}
}

func TestBatchedChangeNotifiesOnce(t *testing.T) {
	m := graph.New(testFactory, nil)
	var events []graph.ChangeEvent
	unsubscribe := m.Subscribe(func(e graph.ChangeEvent) { events = append(events, e) })
	func() {
		defer m.Change("Gesture", graph.MajorChange)()
		a := addNode(t, m, desc("a", 0, 1, false, false))
		b := addNode(t, m, desc("b", 1, 0, false, false))
		m.AddConnection(conn(a, 0, b, 0))
		m.SetNodePosition(a, 0.1, 0.1)
		if len(events) != 0 {
			t.Fatalf("listeners notified before the change was done")
		}
		if len(m.Snapshot().Nodes) != 0 {
			t.Fatalf("partial state was published")
		}
	}()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	want := graph.NodesChanged | graph.ConnectionsChanged | graph.PositionsChanged
	if events[0].Flags != want {
		t.Errorf("expected flags %v, got %v", want, events[0].Flags)
	}
	if s := m.Snapshot(); len(s.Nodes) != 2 || len(s.Connections) != 1 || s.Version != events[0].Version {
		t.Errorf("snapshot not published after the change: %+v", s)
	}
	unsubscribe()
	addNode(t, m, desc("c", 0, 0, false, false))
	if len(events) != 1 {
		t.Errorf("unsubscribed listener was notified")
	}
}

func TestRejectedMutationDoesNotNotify(t *testing.T) {
	m := graph.New(testFactory, nil)
	a := addNode(t, m, desc("a", 0, 1, false, false))
	count := 0
	m.Subscribe(func(graph.ChangeEvent) { count++ })
	m.AddConnection(conn(a, 0, a, 0))
	m.RemoveConnection(conn(a, 0, 42, 0))
	m.RemoveNode(42)
	x, y, _ := m.NodePosition(a)
	m.SetNodePosition(a, x, y)
	if count != 0 {
		t.Errorf("expected no notifications, got %d", count)
	}
}

func TestCancelRevertsChange(t *testing.T) {
	m := graph.New(testFactory, nil)
	a := addNode(t, m, desc("a", 0, 1, false, false))
	func() {
		defer m.Change("Cancelled", graph.MajorChange)()
		m.RemoveNode(a)
		m.Cancel()
	}()
	if !m.HasNode(a) {
		t.Errorf("cancelled removal was not reverted")
	}
}

func TestRemoveNotificationCarriesIDs(t *testing.T) {
	m := graph.New(testFactory, nil)
	a := addNode(t, m, desc("a", 0, 1, false, false))
	var removed []patchbay.NodeID
	m.Subscribe(func(e graph.ChangeEvent) { removed = append(removed, e.Removed...) })
	m.RemoveNode(a)
	if len(removed) != 1 || removed[0] != a {
		t.Errorf("expected removed ids [%d], got %v", a, removed)
	}
}

func TestMutationDuringEnumerationPanics(t *testing.T) {
	m := graph.New(testFactory, nil)
	addNode(t, m, desc("a", 0, 1, false, false))
	defer func() {
		if recover() == nil {
			t.Errorf("mutation during enumeration did not panic")
		}
	}()
	for id := range m.Nodes {
		m.RemoveNode(id)
	}
}

func TestUndoRedo(t *testing.T) {
	m := graph.New(testFactory, nil)
	a := addNode(t, m, desc("a", 0, 1, false, false))
	b := addNode(t, m, desc("b", 1, 0, false, false))
	m.AddConnection(conn(a, 0, b, 0))
	for i := 1; i <= 5; i++ {
		m.SetNodePosition(a, float64(i)/10, 0)
	}
	m.Undo() // the drag is coalesced into one step
	if x, _, _ := m.NodePosition(a); x != 0.5 {
		t.Errorf("expected undo to restore x = 0.5, got %v", x)
	}
	m.Undo()
	if m.NumConnections() != 0 {
		t.Errorf("expected undo to remove the connection")
	}
	m.Undo()
	if m.HasNode(b) {
		t.Errorf("expected undo to remove node b")
	}
	m.Redo()
	if !m.HasNode(b) {
		t.Errorf("expected redo to restore node b")
	}
	c := addNode(t, m, desc("c", 0, 0, false, false))
	if c == b {
		t.Errorf("id %d was reused after undo", c)
	}
	if m.CanRedo() {
		t.Errorf("a new change should clear the redo stack")
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	m := graph.New(testFactory, nil)
	a := addNode(t, m, desc("a", 0, 2, false, true))
	b := addNode(t, m, desc("b", 2, 0, true, false))
	m.AddConnection(conn(a, 1, b, 0))
	m.AddConnection(conn(a, patchbay.MIDIChannel, b, patchbay.MIDIChannel))
	var buf bytes.Buffer
	if err := m.Document().Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	doc, err := patchbay.ReadDocument(&buf)
	if err != nil {
		t.Fatalf("ReadDocument failed: %v", err)
	}
	m2 := graph.New(testFactory, nil)
	if err := m2.Load(doc); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m2.NumNodes() != 2 || m2.NumConnections() != 2 {
		t.Fatalf("loaded graph has %d nodes and %d connections", m2.NumNodes(), m2.NumConnections())
	}
	if !m2.HasNode(a) || !m2.HasNode(b) {
		t.Errorf("node ids were not kept")
	}
	if m2.ChangedSinceSave() {
		t.Errorf("freshly loaded graph should not be marked as changed")
	}
	if id := addNode(t, m2, desc("c", 0, 0, false, false)); id <= b {
		t.Errorf("new id %d collides with the loaded ids", id)
	}
	if !m2.ChangedSinceSave() {
		t.Errorf("adding a node should mark the graph as changed")
	}
}

func TestLoadDropsIllegalConnections(t *testing.T) {
	doc := patchbay.Document{
		Nodes: []patchbay.DocumentNode{
			{ID: 1, Descriptor: desc("a", 0, 1, false, false)},
			{ID: 2, Descriptor: desc("b", 1, 0, false, false)},
			{ID: 3, Descriptor: desc("c", 0, 1, false, false)},
		},
		Connections: []patchbay.Connection{conn(1, 0, 2, 0), conn(3, 0, 2, 0), conn(1, 3, 2, 0)},
	}
	m := graph.New(testFactory, nil)
	if err := m.Load(doc); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.NumConnections() != 1 {
		t.Errorf("expected 1 connection to survive, got %d", m.NumConnections())
	}
}

// checkInvariants verifies the structural invariants that must hold after
// every operation.
func checkInvariants(t *testing.T, path string, m *graph.Model) {
	t.Helper()
	nodes := map[patchbay.NodeID]bool{}
	for id := range m.Nodes {
		if id == 0 || nodes[id] {
			t.Fatalf("Path: %s invalid or duplicate node id %d", path, id)
		}
		nodes[id] = true
	}
	seen := map[patchbay.Connection]bool{}
	writers := map[patchbay.Pin]bool{}
	for c := range m.Connections {
		if !nodes[c.Source] || !nodes[c.Dest] {
			t.Fatalf("Path: %s dangling connection %v", path, c)
		}
		if c.Source == c.Dest {
			t.Fatalf("Path: %s self loop %v", path, c)
		}
		if seen[c] {
			t.Fatalf("Path: %s duplicate connection %v", path, c)
		}
		seen[c] = true
		if writers[c.DestPin()] {
			t.Fatalf("Path: %s input %v has several writers", path, c.DestPin())
		}
		writers[c.DestPin()] = true
		if !patchbay.HasPin(m.Unit(c.Source), c.SourceChannel, false) || !patchbay.HasPin(m.Unit(c.Dest), c.DestChannel, true) {
			t.Fatalf("Path: %s connection %v refers to missing pins", path, c)
		}
		if err := m.CheckConnection(c); !errors.Is(err, graph.ErrDuplicate) {
			t.Fatalf("Path: %s CheckConnection(%v) of an existing connection = %v", path, c, err)
		}
	}
	s := m.Snapshot()
	if len(s.Nodes) != len(nodes) || len(s.Connections) != len(seen) {
		t.Fatalf("Path: %s snapshot out of sync: %d/%d nodes, %d/%d connections", path, len(s.Nodes), len(nodes), len(s.Connections), len(seen))
	}
	for _, c := range s.Connections {
		if !seen[c] {
			t.Fatalf("Path: %s snapshot has %v which is not in the graph", path, c)
		}
	}
}

func FuzzModel(f *testing.F) {
	f.Add([]byte{0, 2, 4, 6, 8, 10, 12, 14})
	f.Fuzz(func(t *testing.T, slice []byte) {
		reader := bytes.NewReader(slice)
		m := graph.New(testFactory, nil)
		var ids []patchbay.NodeID
		pick := func(seed int) patchbay.NodeID {
			if len(ids) == 0 {
				return patchbay.NodeID(seed % 4)
			}
			return ids[seed%len(ids)]
		}
		path := ""
		for v, err := binary.ReadVarint(reader); err == nil; v, err = binary.ReadVarint(reader) {
			seed := int(v)
			if seed < 0 {
				seed = -seed
			}
			op := seed % 7
			seed /= 7
			path += fmt.Sprintf("%d:%d. ", op, seed)
			switch op {
			case 0:
				if id, err := m.AddNode(desc("n", seed%3, (seed/3)%3, seed%2 == 0, seed%5 == 0), 0.5, 0.5); err == nil {
					ids = append(ids, id)
				}
			case 1:
				m.RemoveNode(pick(seed))
			case 2, 3:
				ch := func(s int) patchbay.Channel {
					if s%4 == 3 {
						return patchbay.MIDIChannel
					}
					return patchbay.Channel(s % 4)
				}
				m.AddConnection(conn(pick(seed), ch(seed/5), pick(seed/3), ch(seed/11)))
			case 4:
				var victim patchbay.Connection
				found, i := false, 0
				for c := range m.Connections {
					if i == seed%max(m.NumConnections(), 1) {
						victim, found = c, true
						break
					}
					i++
				}
				if found {
					m.RemoveConnection(victim)
				}
			case 5:
				m.Undo()
			case 6:
				m.Redo()
			}
			checkInvariants(t, path, m)
		}
	})
}

func TestConnectRejectRemoveScenario(t *testing.T) {
	m := graph.New(testFactory, nil)
	a := addNode(t, m, desc("a", 2, 2, false, false))
	b := addNode(t, m, desc("b", 2, 2, false, false))
	if !m.AddConnection(conn(a, 0, b, 0)) {
		t.Fatalf("AddConnection(a,0,b,0) was rejected")
	}
	if _, ok := m.ConnectionBetween(conn(a, 0, b, 0)); !ok {
		t.Fatalf("ConnectionBetween(a,0,b,0) found nothing")
	}
	if m.AddConnection(conn(a, 1, b, 0)) {
		t.Fatalf("AddConnection(a,1,b,0) should be rejected, input 0 of b is taken")
	}
	if m.AddConnection(conn(a, 0, b, 0)) || m.NumConnections() != 1 {
		t.Fatalf("adding the same connection twice should yield exactly one connection")
	}
	m.RemoveNode(a)
	if _, ok := m.ConnectionBetween(conn(a, 0, b, 0)); ok {
		t.Fatalf("connection survived the removal of its source")
	}
}

func TestSnapshotIsImmutable(t *testing.T) {
	m := graph.New(testFactory, nil)
	a := addNode(t, m, desc("a", 0, 1, false, false))
	b := addNode(t, m, desc("b", 1, 0, false, false))
	m.AddConnection(conn(a, 0, b, 0))
	s := m.Snapshot()
	m.RemoveNode(a)
	if len(s.Nodes) != 2 || len(s.Connections) != 1 {
		t.Errorf("published snapshot was modified")
	}
	s2 := m.Snapshot()
	if s2.Version <= s.Version || s2.Unit(a) != nil || s2.Unit(b) == nil {
		t.Errorf("new snapshot does not reflect the removal: %+v", s2)
	}
	m.SetNodePosition(b, 0.1, 0.1)
	if m.Snapshot() != s2 {
		t.Errorf("position changes should not publish a new snapshot")
	}
}

// TestRandomOperationsKeepInvariants runs a random sequence of edits and
// checks after each one that the graph is consistent and that the published
// snapshot matches it.
func TestRandomOperationsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	m := graph.New(testFactory, nil)
	randomNode := func() patchbay.NodeID {
		var ids []patchbay.NodeID
		for id := range m.Nodes {
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			return patchbay.NodeID(rng.IntN(5) + 1)
		}
		return ids[rng.IntN(len(ids))]
	}
	randomChannel := func() patchbay.Channel {
		if rng.IntN(4) == 0 {
			return patchbay.MIDIChannel
		}
		return patchbay.Channel(rng.IntN(3))
	}
	for step := 0; step < 2000; step++ {
		switch op := rng.IntN(10); {
		case op < 2:
			d := desc("n", rng.IntN(3), rng.IntN(3), rng.IntN(2) == 0, rng.IntN(2) == 0)
			if _, err := m.AddNode(d, rng.Float64(), rng.Float64()); err != nil {
				t.Fatalf("step %d: AddNode failed: %v", step, err)
			}
		case op < 3:
			m.RemoveNode(randomNode())
		case op < 6:
			c := conn(randomNode(), randomChannel(), randomNode(), randomChannel())
			existed := isConnected(m, c)
			if added := m.AddConnection(c); added != (!existed && isConnected(m, c)) {
				t.Fatalf("step %d: AddConnection(%v) = %v disagrees with the graph", step, c, added)
			}
		case op < 7:
			var conns []patchbay.Connection
			for c := range m.Connections {
				conns = append(conns, c)
			}
			if len(conns) > 0 {
				m.RemoveConnection(conns[rng.IntN(len(conns))])
			}
		case op < 8:
			m.DisconnectNode(randomNode())
		case op < 9:
			m.Undo()
		default:
			m.Redo()
		}
		checkInvariants(t, fmt.Sprintf("step %d", step), m)
	}
}

func isConnected(m *graph.Model, c patchbay.Connection) bool {
	_, ok := m.ConnectionBetween(c)
	return ok
}
