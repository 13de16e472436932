package editor

import "github.com/vsariola/patchbay"

type (
	// NodeView is the view object of a node. Views are created, refreshed and
	// destroyed only by the Reconciler; they never own graph state.
	NodeView interface {
		Refresh(info NodeInfo)
		Destroy()
	}

	PinView interface {
		Refresh(info PinInfo)
		Destroy()
	}

	// ConnectionView is the view object of a connection, or of the connection
	// being drafted.
	ConnectionView interface {
		Refresh(info ConnectionInfo)
		Destroy()
	}

	// ViewFactory creates the view objects. It is implemented by the view
	// layer.
	ViewFactory interface {
		NewNodeView(id patchbay.NodeID) NodeView
		NewPinView(pin patchbay.Pin) PinView
		NewConnectionView(c patchbay.Connection) ConnectionView
		NewDraftView() ConnectionView
	}

	// NodeInfo is derived from the model and the canvas size; a node view is
	// refreshed only when its NodeInfo changes.
	NodeInfo struct {
		ID           patchbay.NodeID
		Name         string
		NumInputs    int
		NumOutputs   int
		AcceptsMIDI  bool
		ProducesMIDI bool
		Position     patchbay.Position
		Bounds       Rect
	}

	PinInfo struct {
		Pin     patchbay.Pin
		Center  Point
		Tooltip string
	}

	// ConnectionInfo holds the end points of a connection line in canvas
	// pixels; From is always the output end.
	ConnectionInfo struct {
		Connection patchbay.Connection
		From, To   Point
		MIDI       bool
		Draft      bool
		Tooltip    string
	}
)

// Pins returns the input or output pins of the node, audio channels first
// and the MIDI pin last.
func (n NodeInfo) Pins(isInput bool) []patchbay.Pin {
	count, midi := n.NumOutputs, n.ProducesMIDI
	if isInput {
		count, midi = n.NumInputs, n.AcceptsMIDI
	}
	ret := make([]patchbay.Pin, 0, count+1)
	for i := 0; i < count; i++ {
		ret = append(ret, patchbay.Pin{Node: n.ID, Channel: patchbay.Channel(i), IsInput: isInput})
	}
	if midi {
		ret = append(ret, patchbay.Pin{Node: n.ID, Channel: patchbay.MIDIChannel, IsInput: isInput})
	}
	return ret
}

// samePins tells if the two nodes have the same set of pins, so the pin
// views can be kept.
func (n NodeInfo) samePins(o NodeInfo) bool {
	return n.NumInputs == o.NumInputs && n.NumOutputs == o.NumOutputs &&
		n.AcceptsMIDI == o.AcceptsMIDI && n.ProducesMIDI == o.ProducesMIDI
}
