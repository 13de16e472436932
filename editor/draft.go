package editor

import (
	"fmt"

	"github.com/vsariola/patchbay"
	"github.com/vsariola/patchbay/graph"
)

type (
	// DraftController drives the gesture of drawing a connection: it starts
	// from a pin, or from an existing connection that is torn off, follows the
	// pointer and either commits the connection on release over a compatible
	// pin or silently vanishes.
	DraftController struct {
		model *graph.Model
		hit   HitTester
		views ViewFactory

		draft Draft
		view  ConnectionView
		info  ConnectionInfo

		// regrab is the change kind shared by the removal of a torn off
		// connection and the add on release, so they undo as one step.
		regrab  string
		regrabs int
	}

	DraftState int

	// Draft is the connection being drawn. Anchor is the fixed end; End is
	// where the free end is drawn, which is the center of Snapped when the
	// free end has snapped to a compatible pin.
	Draft struct {
		State   DraftState
		Anchor  patchbay.Pin
		End     Point
		Snapped patchbay.Pin
		Snap    bool
		Tooltip string
	}
)

const (
	DraftIdle DraftState = iota
	// DraftingFreeSource is anchored at an output pin; the free end looks for
	// an input pin.
	DraftingFreeSource
	// DraftingFreeDest is anchored at an input pin; the free end looks for an
	// output pin.
	DraftingFreeDest
)

func (s DraftState) String() string {
	switch s {
	case DraftIdle:
		return "idle"
	case DraftingFreeSource:
		return "drafting from output"
	case DraftingFreeDest:
		return "drafting from input"
	}
	return fmt.Sprintf("DraftState(%d)", int(s))
}

func NewDraftController(model *graph.Model, hit HitTester, views ViewFactory) *DraftController {
	return &DraftController{model: model, hit: hit, views: views}
}

// Draft returns the current draft; ok is false when idle.
func (d *DraftController) Draft() (Draft, bool) {
	return d.draft, d.draft.State != DraftIdle
}

func (d *DraftController) State() DraftState { return d.draft.State }

// BeginFromPin starts a draft anchored at the pin pressed at (x, y).
func (d *DraftController) BeginFromPin(pin patchbay.Pin, x, y float64) {
	d.Cancel()
	if !patchbay.HasPin(d.model.Unit(pin.Node), pin.Channel, pin.IsInput) {
		return
	}
	d.begin(pin, x, y)
}

// BeginFromConnection tears off the connection pressed at (x, y): the
// connection is removed from the model and a draft is started, anchored at
// the end farther from the press point, so the nearer end follows the
// pointer.
func (d *DraftController) BeginFromConnection(c patchbay.Connection, x, y float64) {
	d.Cancel()
	src, ok1 := d.hit.PinCenter(c.SourcePin())
	dst, ok2 := d.hit.PinCenter(c.DestPin())
	if !ok1 || !ok2 {
		return
	}
	d.regrabs++
	kind := fmt.Sprintf("Regrab.%d", d.regrabs)
	func() {
		defer d.model.Change(kind, graph.MinorChange)()
		d.model.RemoveConnection(c)
	}()
	p := Point{X: x, Y: y}
	if p.Dist(src) < p.Dist(dst) {
		d.begin(c.DestPin(), x, y)
	} else {
		d.begin(c.SourcePin(), x, y)
	}
	d.regrab = kind
}

func (d *DraftController) begin(anchor patchbay.Pin, x, y float64) {
	d.draft = Draft{State: DraftingFreeSource, Anchor: anchor}
	if anchor.IsInput {
		d.draft.State = DraftingFreeDest
	}
	d.view = d.views.NewDraftView()
	d.info = ConnectionInfo{}
	d.Move(x, y)
}

// Move moves the free end of the draft. Over a pin the draft could be
// connected to, the free end snaps to the pin center and the draft gets the
// pin's tooltip.
func (d *DraftController) Move(x, y float64) {
	if d.draft.State == DraftIdle {
		return
	}
	d.draft.End = Point{X: x, Y: y}
	d.draft.Snap = false
	d.draft.Snapped = patchbay.Pin{}
	d.draft.Tooltip = ""
	if pin, c, ok := d.candidate(x, y); ok && d.model.CanConnect(c) {
		if center, ok := d.hit.PinCenter(pin); ok {
			d.draft.End = center
			d.draft.Snapped = pin
			d.draft.Snap = true
			d.draft.Tooltip = PinTooltip(d.model.Unit(pin.Node), pin)
		}
	}
	d.refresh()
}

// Release ends the draft. If the pointer is over a pin of the free end's
// direction, the connection is added to the model; returns true if a
// connection was added. Rejections are silent.
func (d *DraftController) Release(x, y float64) bool {
	if d.draft.State == DraftIdle {
		return false
	}
	defer d.Cancel()
	_, c, ok := d.candidate(x, y)
	if !ok {
		return false
	}
	if d.regrab != "" {
		defer d.model.Change(d.regrab, graph.MinorChange)()
	}
	return d.model.AddConnection(c)
}

// Cancel discards the draft without touching the model.
func (d *DraftController) Cancel() {
	if d.view != nil {
		d.view.Destroy()
		d.view = nil
	}
	d.draft = Draft{}
	d.regrab = ""
}

// candidate returns the pin under the pointer and the connection it would
// form with the anchor, if the pin has the direction the free end needs.
func (d *DraftController) candidate(x, y float64) (patchbay.Pin, patchbay.Connection, bool) {
	pin, ok := d.hit.PinAt(x, y)
	if !ok || pin.IsInput == d.draft.Anchor.IsInput {
		return patchbay.Pin{}, patchbay.Connection{}, false
	}
	c, ok := patchbay.ConnectionFromPins(d.draft.Anchor, pin)
	return pin, c, ok
}

func (d *DraftController) refresh() {
	anchor, ok := d.hit.PinCenter(d.draft.Anchor)
	if !ok {
		d.Cancel()
		return
	}
	info := ConnectionInfo{From: anchor, To: d.draft.End, MIDI: d.draft.Anchor.IsMIDI(), Draft: true, Tooltip: d.draft.Tooltip}
	if d.draft.Anchor.IsInput {
		info.From, info.To = info.To, info.From
	}
	if d.draft.Snap {
		info.Connection, _ = patchbay.ConnectionFromPins(d.draft.Anchor, d.draft.Snapped)
	}
	if info != d.info && d.view != nil {
		d.info = info
		d.view.Refresh(info)
	}
}
