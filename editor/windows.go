package editor

import (
	"fmt"

	"github.com/vsariola/patchbay"
)

type (
	WindowKind int

	// Window is a unit window opened by the view layer.
	Window interface {
		Close()
	}

	// WindowOpener opens unit windows. It is implemented by the view layer;
	// a nil opener makes the registry only track the records.
	WindowOpener interface {
		OpenWindow(node patchbay.NodeID, kind WindowKind, x, y float64) (Window, error)
	}

	// WindowRegistry owns the unit windows of one editor. Each node has at
	// most one window of each kind. The record of a window outlives the
	// window, so a reopened window appears where it was last; the records of
	// a node are dropped when the node is removed.
	WindowRegistry struct {
		opener  WindowOpener
		records map[windowKey]*WindowRecord
	}

	WindowRecord struct {
		Node   patchbay.NodeID
		Kind   WindowKind
		X, Y   float64
		window Window
	}

	windowKey struct {
		node patchbay.NodeID
		kind WindowKind
	}
)

const (
	WindowNormal WindowKind = iota
	WindowGeneric
	WindowPrograms
	WindowParameters
)

// default position of a window that has never been opened
const defaultWindowPos = 0.5

func (k WindowKind) String() string {
	switch k {
	case WindowNormal:
		return "unit"
	case WindowGeneric:
		return "generic"
	case WindowPrograms:
		return "programs"
	case WindowParameters:
		return "parameters"
	}
	return fmt.Sprintf("WindowKind(%d)", int(k))
}

func NewWindowRegistry(opener WindowOpener) *WindowRegistry {
	return &WindowRegistry{opener: opener, records: map[windowKey]*WindowRecord{}}
}

// Open opens the window of given kind for the node, or returns the already
// open one.
func (r *WindowRegistry) Open(node patchbay.NodeID, kind WindowKind) (*WindowRecord, error) {
	key := windowKey{node, kind}
	rec, ok := r.records[key]
	if !ok {
		rec = &WindowRecord{Node: node, Kind: kind, X: defaultWindowPos, Y: defaultWindowPos}
		r.records[key] = rec
	}
	if rec.window != nil || r.opener == nil {
		if r.opener == nil {
			rec.window = nopWindow{}
		}
		return rec, nil
	}
	w, err := r.opener.OpenWindow(node, kind, rec.X, rec.Y)
	if err != nil {
		return nil, fmt.Errorf("could not open %v window of node %d: %w", kind, node, err)
	}
	rec.window = w
	return rec, nil
}

// Moved remembers the position of a window, e.g. when the user moves it.
func (r *WindowRegistry) Moved(node patchbay.NodeID, kind WindowKind, x, y float64) {
	if rec, ok := r.records[windowKey{node, kind}]; ok {
		rec.X, rec.Y = x, y
	}
}

// Close closes the window but keeps its record.
func (r *WindowRegistry) Close(node patchbay.NodeID, kind WindowKind) {
	if rec, ok := r.records[windowKey{node, kind}]; ok {
		rec.close()
	}
}

// CloseFor closes all the windows of the node and forgets their records.
func (r *WindowRegistry) CloseFor(node patchbay.NodeID) {
	for key, rec := range r.records {
		if key.node == node {
			rec.close()
			delete(r.records, key)
		}
	}
}

// CloseAll closes all the windows and forgets all records.
func (r *WindowRegistry) CloseAll() {
	for key, rec := range r.records {
		rec.close()
		delete(r.records, key)
	}
}

func (r *WindowRegistry) IsOpen(node patchbay.NodeID, kind WindowKind) bool {
	rec, ok := r.records[windowKey{node, kind}]
	return ok && rec.window != nil
}

// Record returns the record of a window, open or not.
func (r *WindowRegistry) Record(node patchbay.NodeID, kind WindowKind) (WindowRecord, bool) {
	rec, ok := r.records[windowKey{node, kind}]
	if !ok {
		return WindowRecord{}, false
	}
	return *rec, true
}

func (r *WindowRegistry) NumOpen() int {
	n := 0
	for _, rec := range r.records {
		if rec.window != nil {
			n++
		}
	}
	return n
}

func (rec *WindowRecord) close() {
	if rec.window != nil {
		rec.window.Close()
		rec.window = nil
	}
}

type nopWindow struct{}

func (nopWindow) Close() {}
