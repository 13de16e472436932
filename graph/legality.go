package graph

import (
	"errors"
	"fmt"

	"github.com/vsariola/patchbay"
)

// Reasons why a connection cannot be formed. CheckConnection wraps them with
// details, so use errors.Is to test for them.
var (
	ErrUnknownNode    = errors.New("unknown node")
	ErrInvalidChannel = errors.New("no such channel")
	ErrWrongDirection = errors.New("pin has the wrong direction")
	ErrInputOccupied  = errors.New("input is already connected")
	ErrSelfLoop       = errors.New("node cannot be connected to itself")
	ErrDuplicate      = errors.New("connection already exists")
)

// CanConnect reports whether the connection could be added to the graph
// right now. It has no side effects, so it can be called speculatively, e.g.
// to decide hover feedback while drafting a connection.
func (m *Model) CanConnect(c patchbay.Connection) bool {
	return m.CheckConnection(c) == nil
}

// CheckConnection returns nil if the connection could be added to the graph,
// or an error telling which rule rejected it. The rules are evaluated in
// order: both nodes exist; both channels exist on their nodes; the source is
// an output pin and the destination an input pin; the destination input has
// no other writer; the connection is not a direct self loop; the connection
// does not already exist. Cycles through several nodes are allowed; the audio
// engine resolves them when ordering the processing.
func (m *Model) CheckConnection(c patchbay.Connection) error {
	src := m.Unit(c.Source)
	if src == nil {
		return fmt.Errorf("source %d: %w", c.Source, ErrUnknownNode)
	}
	dst := m.Unit(c.Dest)
	if dst == nil {
		return fmt.Errorf("destination %d: %w", c.Dest, ErrUnknownNode)
	}
	if !channelExists(src, c.SourceChannel) {
		return fmt.Errorf("source channel %v of node %d: %w", c.SourceChannel, c.Source, ErrInvalidChannel)
	}
	if !channelExists(dst, c.DestChannel) {
		return fmt.Errorf("destination channel %v of node %d: %w", c.DestChannel, c.Dest, ErrInvalidChannel)
	}
	if !patchbay.HasPin(src, c.SourceChannel, false) {
		return fmt.Errorf("source channel %v of node %d is not an output: %w", c.SourceChannel, c.Source, ErrWrongDirection)
	}
	if !patchbay.HasPin(dst, c.DestChannel, true) {
		return fmt.Errorf("destination channel %v of node %d is not an input: %w", c.DestChannel, c.Dest, ErrWrongDirection)
	}
	if existing, ok := m.inputOwner[c.DestPin()]; ok && existing != c {
		return fmt.Errorf("%v is fed by %v: %w", c.DestPin(), existing, ErrInputOccupied)
	}
	if c.Source == c.Dest {
		return fmt.Errorf("node %d: %w", c.Source, ErrSelfLoop)
	}
	if _, ok := m.connIndex[c]; ok {
		return fmt.Errorf("%v: %w", c, ErrDuplicate)
	}
	return nil
}

// channelExists reports whether the channel names any pin of the unit,
// regardless of the direction.
func channelExists(u patchbay.Unit, ch patchbay.Channel) bool {
	return patchbay.HasPin(u, ch, true) || patchbay.HasPin(u, ch, false)
}
