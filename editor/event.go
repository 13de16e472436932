package editor

import "fmt"

type (
	// Event is a pointer event, normalized from whatever the view layer
	// receives, in canvas pixel coordinates. Secondary is set for context menu
	// triggers (e.g. right click). Clicks counts consecutive presses, so 2
	// means a double click.
	Event struct {
		Kind      EventKind
		X, Y      float64
		Secondary bool
		Clicks    int
	}

	EventKind int
)

const (
	Press EventKind = iota
	Drag
	Release
	Move
)

func (k EventKind) String() string {
	switch k {
	case Press:
		return "press"
	case Drag:
		return "drag"
	case Release:
		return "release"
	case Move:
		return "move"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

func (e Event) Point() Point { return Point{X: e.X, Y: e.Y} }
