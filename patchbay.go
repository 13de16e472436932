// Package patchbay contains the data types shared by the routing graph, the
// interactive editor and the real-time audio engine: node ids, pins,
// connections, processing-unit handles and the immutable snapshot that is
// handed from the control goroutine to the audio goroutine.
package patchbay

import (
	"fmt"
)

type (
	// NodeID identifies a node for the lifetime of a graph. Zero is never a
	// valid id, so it can be used to denote "no node".
	NodeID uint32

	// Channel is the index of an audio channel of a node, or MIDIChannel to
	// denote the MIDI pin of the node.
	Channel int

	// Pin is an addressable input or output endpoint of a node. Pins are not
	// stored anywhere; they exist exactly when the channel counts (and MIDI
	// flags) of the node's unit say they should.
	Pin struct {
		Node    NodeID
		Channel Channel
		IsInput bool
	}

	// Connection is a directed edge from an output pin of one node to an input
	// pin of another node. A Connection is comparable and the 4-tuple is its
	// identity: at most one Connection with the same fields exists in a graph.
	Connection struct {
		Source        NodeID  `yaml:"source" json:"source" toml:"source"`
		SourceChannel Channel `yaml:"sourcechannel" json:"sourcechannel" toml:"sourcechannel"`
		Dest          NodeID  `yaml:"dest" json:"dest" toml:"dest"`
		DestChannel   Channel `yaml:"destchannel" json:"destchannel" toml:"destchannel"`
	}

	// Position is a node position normalized to the canvas size, so (0,0) is
	// the top left corner and (1,1) the bottom right corner of the canvas.
	Position struct {
		X, Y float64
	}
)

// MIDIChannel is the reserved channel index denoting the MIDI pin of a node.
const MIDIChannel Channel = 0x1000

func (c Channel) IsMIDI() bool { return c == MIDIChannel }

func (c Channel) String() string {
	if c == MIDIChannel {
		return "midi"
	}
	return fmt.Sprintf("%d", int(c))
}

func (p Pin) IsMIDI() bool { return p.Channel == MIDIChannel }

func (p Pin) String() string {
	dir := "out"
	if p.IsInput {
		dir = "in"
	}
	return fmt.Sprintf("%d:%s:%v", p.Node, dir, p.Channel)
}

func (c Connection) SourcePin() Pin { return Pin{Node: c.Source, Channel: c.SourceChannel} }
func (c Connection) DestPin() Pin   { return Pin{Node: c.Dest, Channel: c.DestChannel, IsInput: true} }

// Touches returns true if either end of the connection is on the given node.
func (c Connection) Touches(id NodeID) bool { return c.Source == id || c.Dest == id }

// IsMIDI returns true if the connection carries MIDI instead of audio.
func (c Connection) IsMIDI() bool {
	return c.SourceChannel == MIDIChannel || c.DestChannel == MIDIChannel
}

func (c Connection) String() string {
	return fmt.Sprintf("%d:%v -> %d:%v", c.Source, c.SourceChannel, c.Dest, c.DestChannel)
}

// ConnectionFromPins builds a connection from two pins, regardless of the order
// they are given in. ok is false if the pins are not one output and one input.
func ConnectionFromPins(a, b Pin) (c Connection, ok bool) {
	if a.IsInput == b.IsInput {
		return Connection{}, false
	}
	if a.IsInput {
		a, b = b, a
	}
	return Connection{Source: a.Node, SourceChannel: a.Channel, Dest: b.Node, DestChannel: b.Channel}, true
}

// Less orders connections by source, then destination, then channels, giving
// a deterministic order for snapshots and documents.
func (c Connection) Less(o Connection) bool {
	if c.Source != o.Source {
		return c.Source < o.Source
	}
	if c.Dest != o.Dest {
		return c.Dest < o.Dest
	}
	if c.SourceChannel != o.SourceChannel {
		return c.SourceChannel < o.SourceChannel
	}
	return c.DestChannel < o.DestChannel
}

// Clamp limits the position to the normalized canvas range [0,1]x[0,1].
func (p Position) Clamp() Position {
	return Position{X: max(min(p.X, 1), 0), Y: max(min(p.Y, 1), 0)}
}

func (p Position) Add(q Position) Position { return Position{X: p.X + q.X, Y: p.Y + q.Y} }
