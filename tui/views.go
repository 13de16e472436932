package tui

import (
	"fmt"
	"maps"
	"slices"

	"github.com/vsariola/patchbay"
	"github.com/vsariola/patchbay/editor"
	"github.com/vsariola/patchbay/graph"
)

type (
	// Views holds the view objects the editor has created; they only store
	// the latest info and are drawn all at once.
	Views struct {
		model   *graph.Model
		nodes   map[patchbay.NodeID]*nodeView
		pins    map[patchbay.Pin]*pinView
		conns   map[patchbay.Connection]*connectionView
		draft   *connectionView
		windows []*window
	}

	nodeView struct {
		views *Views
		id    patchbay.NodeID
		info  editor.NodeInfo
	}

	pinView struct {
		views *Views
		pin   patchbay.Pin
		info  editor.PinInfo
	}

	connectionView struct {
		views *Views
		key   patchbay.Connection
		draft bool
		info  editor.ConnectionInfo
	}

	window struct {
		views  *Views
		node   patchbay.NodeID
		kind   editor.WindowKind
		x, y   float64
		closed bool
	}
)

func NewViews(model *graph.Model) *Views {
	return &Views{
		model: model,
		nodes: map[patchbay.NodeID]*nodeView{},
		pins:  map[patchbay.Pin]*pinView{},
		conns: map[patchbay.Connection]*connectionView{},
	}
}

func (v *Views) NewNodeView(id patchbay.NodeID) editor.NodeView {
	ret := &nodeView{views: v, id: id}
	v.nodes[id] = ret
	return ret
}

func (v *Views) NewPinView(pin patchbay.Pin) editor.PinView {
	ret := &pinView{views: v, pin: pin}
	v.pins[pin] = ret
	return ret
}

func (v *Views) NewConnectionView(c patchbay.Connection) editor.ConnectionView {
	ret := &connectionView{views: v, key: c}
	v.conns[c] = ret
	return ret
}

func (v *Views) NewDraftView() editor.ConnectionView {
	v.draft = &connectionView{views: v, draft: true}
	return v.draft
}

// OpenWindow shows a unit window; x and y are the normalized position of
// its top left corner.
func (v *Views) OpenWindow(node patchbay.NodeID, kind editor.WindowKind, x, y float64) (editor.Window, error) {
	if !v.model.HasNode(node) {
		return nil, fmt.Errorf("no node %d", node)
	}
	w := &window{views: v, node: node, kind: kind, x: x, y: y}
	v.windows = append(v.windows, w)
	return w, nil
}

func (n *nodeView) Refresh(info editor.NodeInfo) { n.info = info }

func (n *nodeView) Destroy() {
	if n.views.nodes[n.id] == n {
		delete(n.views.nodes, n.id)
	}
}

func (p *pinView) Refresh(info editor.PinInfo) { p.info = info }

func (p *pinView) Destroy() {
	if p.views.pins[p.pin] == p {
		delete(p.views.pins, p.pin)
	}
}

func (c *connectionView) Refresh(info editor.ConnectionInfo) { c.info = info }

func (c *connectionView) Destroy() {
	if c.draft {
		if c.views.draft == c {
			c.views.draft = nil
		}
		return
	}
	if c.views.conns[c.key] == c {
		delete(c.views.conns, c.key)
	}
}

func (w *window) Close() {
	w.closed = true
	w.views.windows = slices.DeleteFunc(w.views.windows, func(o *window) bool { return o == w })
}

func (v *Views) NumNodeViews() int       { return len(v.nodes) }
func (v *Views) NumConnectionViews() int { return len(v.conns) }
func (v *Views) NumWindows() int         { return len(v.windows) }

func (v *Views) sortedNodes() []*nodeView {
	ret := make([]*nodeView, 0, len(v.nodes))
	for _, id := range slices.Sorted(maps.Keys(v.nodes)) {
		ret = append(ret, v.nodes[id])
	}
	return ret
}

func (v *Views) sortedConnections() []*connectionView {
	keys := slices.SortedFunc(maps.Keys(v.conns), func(a, b patchbay.Connection) int {
		if a.Less(b) {
			return -1
		}
		if b.Less(a) {
			return 1
		}
		return 0
	})
	ret := make([]*connectionView, len(keys))
	for i, k := range keys {
		ret[i] = v.conns[k]
	}
	return ret
}

func (v *Views) sortedPins() []*pinView {
	ret := slices.Collect(maps.Values(v.pins))
	slices.SortFunc(ret, func(a, b *pinView) int {
		switch {
		case a.pin.Node != b.pin.Node:
			return int(a.pin.Node) - int(b.pin.Node)
		case a.pin.IsInput != b.pin.IsInput:
			if a.pin.IsInput {
				return -1
			}
			return 1
		}
		return int(a.pin.Channel) - int(b.pin.Channel)
	})
	return ret
}

// windowLines is the content of a unit window.
func (w *window) lines() []string {
	m := w.views.model
	desc, ok := m.Descriptor(w.node)
	u := m.Unit(w.node)
	if !ok || u == nil {
		return nil
	}
	switch w.kind {
	case editor.WindowPrograms:
		return []string{"1: Default"}
	case editor.WindowParameters:
		return []string{"(no parameters)"}
	}
	yesNo := func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	}
	ret := []string{
		"Kind: " + desc.Kind,
		fmt.Sprintf("Inputs: %d  Outputs: %d", u.NumInputChannels(), u.NumOutputChannels()),
		fmt.Sprintf("MIDI in: %s  MIDI out: %s", yesNo(u.AcceptsMIDI()), yesNo(u.ProducesMIDI())),
	}
	if desc.FileOrIdentifier != "" {
		ret = append(ret, "File: "+desc.FileOrIdentifier)
	}
	return ret
}

func (w *window) title() string {
	name := ""
	if u := w.views.model.Unit(w.node); u != nil {
		name = editor.DisplayName(u.Name())
	}
	return fmt.Sprintf("%s: %v", name, w.kind)
}
