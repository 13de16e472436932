// Package editor implements the interactive editing of a routing graph: the
// gestures for drawing connections and moving nodes, context menus, unit
// windows, and the reconciliation of view objects against the graph model.
// The package knows nothing about how the views are drawn; the view layer
// implements ViewFactory and feeds pointer events to Editor.HandleEvent.
package editor

import (
	"github.com/vsariola/patchbay"
	"github.com/vsariola/patchbay/graph"
	"go.uber.org/zap"
)

type (
	// Editor routes the normalized pointer event stream to the gesture state
	// machines. All methods must be called on the goroutine that owns the
	// model.
	Editor struct {
		Selection  *Selection
		Lasso      *Lasso
		Drafts     *DraftController
		Mover      *GroupMover
		Reconciler *Reconciler
		Windows    *WindowRegistry

		model   *graph.Model
		layout  *Layout
		hit     HitTester
		catalog []patchbay.Descriptor
		logger  *zap.Logger

		gesture gesture
		pressed Point
		regrab  patchbay.Connection

		menu     Menu
		menuOpen bool
		err      error

		unsubscribe func()
	}

	Options struct {
		Width, Height float64
		// Catalog lists the units offered in the canvas context menu.
		Catalog []patchbay.Descriptor
		// Hit overrides the default hit testing of Layout.
		Hit     HitTester
		Windows WindowOpener
		Logger  *zap.Logger
	}

	gesture int
)

const (
	gestureNone gesture = iota
	gestureDraft
	gesturePendingRegrab
	gestureMove
	gestureLasso
)

// New creates an editor for the model, populates the views and keeps them
// in sync with the model until Close is called.
func New(model *graph.Model, views ViewFactory, opts Options) *Editor {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	layout := NewLayout(model, opts.Width, opts.Height)
	var hit HitTester = layout
	if opts.Hit != nil {
		hit = opts.Hit
	}
	sel := &Selection{}
	e := &Editor{
		Selection:  sel,
		Lasso:      NewLasso(hit, sel),
		Drafts:     NewDraftController(model, hit, views),
		Mover:      NewGroupMover(model, layout, sel),
		Reconciler: NewReconciler(model, layout, views),
		Windows:    NewWindowRegistry(opts.Windows),
		model:      model,
		layout:     layout,
		hit:        hit,
		catalog:    opts.Catalog,
		logger:     logger,
	}
	e.unsubscribe = model.Subscribe(e.modelChanged)
	e.reconcile()
	return e
}

// Close tears down the views and the windows and stops following the model.
func (e *Editor) Close() {
	e.unsubscribe()
	e.Drafts.Cancel()
	e.Windows.CloseAll()
	e.Reconciler.DestroyAll()
}

func (e *Editor) Model() *graph.Model { return e.model }
func (e *Editor) Layout() *Layout     { return e.layout }

// SetCanvas resizes the canvas; the views follow.
func (e *Editor) SetCanvas(width, height float64) {
	if w, h := e.layout.Size(); w == width && h == height {
		return
	}
	e.layout.SetSize(width, height)
	e.reconcile()
}

// HandleEvent processes one pointer event.
func (e *Editor) HandleEvent(ev Event) {
	switch ev.Kind {
	case Press:
		e.press(ev)
	case Drag:
		e.drag(ev)
	case Move:
		if e.gesture == gestureDraft {
			e.Drafts.Move(ev.X, ev.Y)
		}
	case Release:
		e.release(ev)
	}
}

func (e *Editor) press(ev Event) {
	e.menuOpen = false
	if e.gesture != gestureNone {
		e.cancelGesture()
	}
	e.pressed = ev.Point()
	if pin, ok := e.hit.PinAt(ev.X, ev.Y); ok {
		if ev.Secondary {
			return
		}
		e.Drafts.BeginFromPin(pin, ev.X, ev.Y)
		if e.Drafts.State() != DraftIdle {
			e.gesture = gestureDraft
		}
		return
	}
	if id, ok := e.hit.NodeAt(ev.X, ev.Y); ok {
		switch {
		case ev.Secondary:
			e.Selection.Set(id)
			e.showMenu(e.nodeMenu(id, ev.X, ev.Y))
		case ev.Clicks >= 2:
			e.openWindow(id, WindowNormal).Do()
		default:
			e.Mover.Begin(id, ev.X, ev.Y)
			e.gesture = gestureMove
		}
		return
	}
	if c, ok := e.hit.ConnectionAt(ev.X, ev.Y); ok && !ev.Secondary {
		e.regrab = c
		e.gesture = gesturePendingRegrab
		return
	}
	if ev.Secondary {
		e.Selection.Clear()
		e.showMenu(e.canvasMenu(ev.X, ev.Y))
		return
	}
	e.Lasso.Begin(ev.X, ev.Y)
	e.gesture = gestureLasso
}

func (e *Editor) drag(ev Event) {
	switch e.gesture {
	case gestureDraft:
		e.Drafts.Move(ev.X, ev.Y)
	case gesturePendingRegrab:
		e.Drafts.BeginFromConnection(e.regrab, e.pressed.X, e.pressed.Y)
		e.gesture = gestureNone
		if e.Drafts.State() != DraftIdle {
			e.gesture = gestureDraft
			e.Drafts.Move(ev.X, ev.Y)
		}
	case gestureMove:
		e.Mover.Drag(ev.X, ev.Y)
	case gestureLasso:
		e.Lasso.Drag(ev.X, ev.Y)
	}
}

func (e *Editor) release(ev Event) {
	switch e.gesture {
	case gestureDraft:
		e.Drafts.Release(ev.X, ev.Y)
	case gestureMove:
		e.Mover.End()
	case gestureLasso:
		e.Lasso.End()
	}
	e.gesture = gestureNone
}

func (e *Editor) cancelGesture() {
	e.Drafts.Cancel()
	e.Mover.End()
	e.Lasso.End()
	e.gesture = gestureNone
}

// Tooltip returns the tooltip of the pin at the point, if any.
func (e *Editor) Tooltip(x, y float64) (string, bool) {
	pin, ok := e.hit.PinAt(x, y)
	if !ok {
		return "", false
	}
	return PinTooltip(e.model.Unit(pin.Node), pin), true
}

// ContextMenu returns the menu requested by the last secondary press, until
// the next press or CloseMenu.
func (e *Editor) ContextMenu() (Menu, bool) { return e.menu, e.menuOpen }

func (e *Editor) CloseMenu() { e.menuOpen = false }

func (e *Editor) showMenu(m Menu) {
	e.menu = m
	e.menuOpen = true
}

func (e *Editor) Undo() Action {
	return MakeEnabledAction(e.model.Undo, e.model.CanUndo)
}

func (e *Editor) Redo() Action {
	return MakeEnabledAction(e.model.Redo, e.model.CanRedo)
}

// DeleteSelected removes all the selected nodes in one undo step.
func (e *Editor) DeleteSelected() Action {
	return MakeEnabledAction(func() {
		defer e.model.Change("DeleteSelected", graph.MajorChange)()
		ids := make([]patchbay.NodeID, 0, e.Selection.Len())
		for id := range e.Selection.Items {
			ids = append(ids, id)
		}
		for _, id := range ids {
			e.model.RemoveNode(id)
		}
	}, func() bool { return e.Selection.Len() > 0 })
}

// SelectAll selects every node of the graph.
func (e *Editor) SelectAll() Action {
	return MakeEnabledAction(func() {
		ids := make([]patchbay.NodeID, 0, e.model.NumNodes())
		for id := range e.model.Nodes {
			ids = append(ids, id)
		}
		e.Selection.Set(ids...)
	}, func() bool { return e.model.NumNodes() > 0 })
}

// Cancel aborts the gesture in progress and closes the context menu; a
// connection being drafted is discarded.
func (e *Editor) Cancel() Action {
	return MakeEnabledAction(func() {
		e.menuOpen = false
		e.cancelGesture()
	}, func() bool { return e.menuOpen || e.gesture != gestureNone })
}

// Err returns the last error of a failed action, e.g. a unit that could not
// be instantiated, and clears it.
func (e *Editor) Err() error {
	err := e.err
	e.err = nil
	return err
}

func (e *Editor) fail(msg string, err error, fields ...zap.Field) {
	e.logger.Error(msg, append(fields, zap.Error(err))...)
	e.err = err
}

func (e *Editor) modelChanged(ev graph.ChangeEvent) {
	for _, id := range ev.Removed {
		e.Selection.Remove(id)
		e.Windows.CloseFor(id)
	}
	e.reconcile()
}

func (e *Editor) reconcile() {
	stats := e.Reconciler.Reconcile()
	if stats.Changed() {
		e.logger.Debug("views reconciled", zap.Int("created", stats.Created), zap.Int("destroyed", stats.Destroyed), zap.Int("refreshed", stats.Refreshed))
	}
	if e.gesture == gestureDraft {
		if d, ok := e.Drafts.Draft(); ok {
			// anchor may have moved or vanished
			if !e.model.HasNode(d.Anchor.Node) {
				e.Drafts.Cancel()
				e.gesture = gestureNone
			}
		}
	}
}
