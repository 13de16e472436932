// Package tui is a terminal front end for the graph editor, drawn with
// tcell. It implements the view factory and the unit windows of the editor
// and translates terminal mouse and key events into editor events and
// actions.
package tui

import (
	"context"
	"fmt"
	"time"
	"unicode"

	"github.com/gdamore/tcell/v2"
	"github.com/vsariola/patchbay"
	"github.com/vsariola/patchbay/config"
	"github.com/vsariola/patchbay/editor"
	"github.com/vsariola/patchbay/graph"
	"go.uber.org/zap"
)

type (
	App struct {
		screen tcell.Screen
		editor *editor.Editor
		views  *Views
		keys   config.KeyMap
		levels func() map[patchbay.NodeID]float32
		save   func() error
		logger *zap.Logger

		buttons   tcell.ButtonMask
		lastPress time.Time
		lastCell  [2]int
		clicks    int
		mouse     editor.Point
		dragging  *window
		grab      [2]int
		swallow   bool // press went to a menu or a window

		status    string
		statusErr bool
		quit      bool
	}

	Options struct {
		Keys config.KeyMap
		// Levels returns the peak level of each node, e.g. Engine.Levels.
		Levels  func() map[patchbay.NodeID]float32
		Save    func() error
		Catalog []patchbay.Descriptor
		Logger  *zap.Logger
	}
)

const (
	doubleClickTime = 400 * time.Millisecond
	redrawInterval  = 50 * time.Millisecond
)

// New creates the editor for the model on the screen, which must already be
// initialized.
func New(screen tcell.Screen, model *graph.Model, opts Options) *App {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Keys == nil {
		opts.Keys = config.KeyMap{}
	}
	a := &App{
		screen: screen,
		views:  NewViews(model),
		keys:   opts.Keys,
		levels: opts.Levels,
		save:   opts.Save,
		logger: opts.Logger,
	}
	w, _ := screen.Size()
	a.editor = editor.New(model, a.views, editor.Options{
		Width:   float64(w * CellWidth),
		Height:  float64(a.canvasRows() * CellHeight),
		Catalog: opts.Catalog,
		Windows: a.views,
		Logger:  opts.Logger,
	})
	return a
}

func (a *App) Editor() *editor.Editor { return a.editor }

// Run processes terminal events until the user quits or the context is
// done. The model must not be touched by other goroutines while Run runs.
func (a *App) Run(ctx context.Context) error {
	a.screen.EnableMouse()
	defer a.screen.DisableMouse()
	events := make(chan tcell.Event, 64)
	quit := make(chan struct{})
	defer close(quit)
	go a.screen.ChannelEvents(events, quit)
	ticker := time.NewTicker(redrawInterval)
	defer ticker.Stop()
	defer a.editor.Close()
	a.draw()
	for !a.quit {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			a.HandleEvent(ev)
		case <-ticker.C:
		}
		a.draw()
	}
	return nil
}

// HandleEvent processes one terminal event.
func (a *App) HandleEvent(ev tcell.Event) {
	switch e := ev.(type) {
	case *tcell.EventResize:
		a.screen.Sync()
		w, _ := a.screen.Size()
		a.editor.SetCanvas(float64(w*CellWidth), float64(a.canvasRows()*CellHeight))
	case *tcell.EventKey:
		a.key(e)
	case *tcell.EventMouse:
		a.mouseEvent(e)
	}
	if err := a.editor.Err(); err != nil {
		a.setStatus(err.Error(), true)
	}
}

func (a *App) setStatus(text string, isErr bool) {
	a.status, a.statusErr = text, isErr
}

func (a *App) key(ev *tcell.EventKey) {
	combo := keyCombo(ev)
	name, ok := a.keys.Action(combo)
	if !ok {
		return
	}
	action, ok := a.action(name)
	if !ok {
		a.logger.Warn("unknown action in keybindings", zap.String("action", name))
		return
	}
	a.setStatus("", false)
	action.Do()
}

func (a *App) action(name string) (editor.Action, bool) {
	switch name {
	case "Undo":
		return a.editor.Undo(), true
	case "Redo":
		return a.editor.Redo(), true
	case "DeleteSelected":
		return a.editor.DeleteSelected(), true
	case "SelectAll":
		return a.editor.SelectAll(), true
	case "Cancel":
		return a.editor.Cancel(), true
	case "Save":
		return editor.MakeEnabledAction(a.doSave, func() bool { return a.save != nil }), true
	case "Quit":
		return editor.MakeAction(editor.DoFunc(func() { a.quit = true })), true
	}
	return editor.Action{}, false
}

func (a *App) doSave() {
	if err := a.save(); err != nil {
		a.logger.Error("save failed", zap.Error(err))
		a.setStatus(fmt.Sprintf("save failed: %v", err), true)
		return
	}
	a.editor.Model().MarkSaved()
	a.setStatus("saved", false)
}

func keyCombo(ev *tcell.EventKey) config.KeyCombo {
	mod := ev.Modifiers()
	c := config.KeyCombo{Ctrl: mod&tcell.ModCtrl != 0, Shift: mod&tcell.ModShift != 0, Alt: mod&tcell.ModAlt != 0}
	switch k := ev.Key(); {
	case k == tcell.KeyRune:
		r := ev.Rune()
		if unicode.IsUpper(r) {
			c.Shift = true
			r = unicode.ToLower(r)
		}
		c.Key = string(r)
	case k == tcell.KeyDelete:
		c.Key = "Delete"
	case k == tcell.KeyBackspace || k == tcell.KeyBackspace2:
		c.Key = "Backspace"
	case k == tcell.KeyEscape:
		c.Key = "Escape"
	case k == tcell.KeyEnter:
		c.Key = "Enter"
	case k == tcell.KeyTab:
		c.Key = "Tab"
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		c.Key = string(rune('a' + k - tcell.KeyCtrlA))
		c.Ctrl = true
	default:
		c.Key = ev.Name()
	}
	return c
}

func (a *App) mouseEvent(ev *tcell.EventMouse) {
	col, row := ev.Position()
	p := a.pointAt(col, row)
	buttons := ev.Buttons() & (tcell.Button1 | tcell.Button2 | tcell.Button3)
	prev := a.buttons
	a.buttons = buttons
	a.mouse = p
	switch {
	case prev == 0 && buttons != 0:
		a.press(col, row, p, buttons)
	case prev != 0 && buttons == 0:
		if a.swallow {
			a.swallow = false
			a.dragging = nil
			return
		}
		a.editor.HandleEvent(editor.Event{Kind: editor.Release, X: p.X, Y: p.Y})
	case buttons != 0:
		if a.swallow {
			a.dragWindow(col, row)
			return
		}
		a.editor.HandleEvent(editor.Event{Kind: editor.Drag, X: p.X, Y: p.Y})
	default:
		a.editor.HandleEvent(editor.Event{Kind: editor.Move, X: p.X, Y: p.Y})
	}
}

// pointAt maps a cell to a canvas point. A cell showing a pin maps to the
// pin center, as cells are coarser than the pin hit areas.
func (a *App) pointAt(col, row int) editor.Point {
	for _, p := range a.views.pins {
		if c, r := toCell(p.info.Center); c == col && r == row {
			return p.info.Center
		}
	}
	return cellCenter(col, row)
}

func (a *App) press(col, row int, p editor.Point, buttons tcell.ButtonMask) {
	a.setStatus("", false)
	if row >= a.canvasRows() {
		a.swallow = true
		return
	}
	if a.menuPress(col, row) || a.windowPress(col, row) {
		a.swallow = true
		return
	}
	now := time.Now()
	if now.Sub(a.lastPress) < doubleClickTime && a.lastCell == [2]int{col, row} {
		a.clicks++
	} else {
		a.clicks = 1
	}
	a.lastPress, a.lastCell = now, [2]int{col, row}
	a.editor.HandleEvent(editor.Event{
		Kind:      editor.Press,
		X:         p.X,
		Y:         p.Y,
		Secondary: buttons&tcell.Button2 != 0,
		Clicks:    a.clicks,
	})
}

// menuPress runs the menu item under the pointer. A press outside an open
// menu closes it and is handled as usual.
func (a *App) menuPress(col, row int) bool {
	m, ok := a.editor.ContextMenu()
	if !ok {
		return false
	}
	a.editor.CloseMenu()
	mc, mr, width := menuGeometry(m)
	i := row - mr
	if col < mc || col >= mc+width || i < 0 || i >= len(m.Items) {
		return false
	}
	m.Items[i].Action.Do()
	return true
}

// windowPress closes the topmost window under the pointer if [x] was
// pressed, or starts dragging it by its title bar.
func (a *App) windowPress(col, row int) bool {
	ws := a.views.windows
	for i := len(ws) - 1; i >= 0; i-- {
		w := ws[i]
		wc, wr := a.windowOrigin(w)
		if col < wc || col >= wc+windowWidth || row < wr || row >= wr+windowHeight {
			continue
		}
		if row == wr && col >= wc+windowWidth-3 {
			a.editor.Windows.Close(w.node, w.kind)
			return true
		}
		if row == wr {
			a.dragging = w
			a.grab = [2]int{col - wc, row - wr}
		}
		return true
	}
	return false
}

func (a *App) dragWindow(col, row int) {
	w := a.dragging
	if w == nil {
		return
	}
	sw, _ := a.screen.Size()
	spanX, spanY := max(sw-windowWidth, 1), max(a.canvasRows()-windowHeight, 1)
	pos := patchbay.Position{X: float64(col-a.grab[0]) / float64(spanX), Y: float64(row-a.grab[1]) / float64(spanY)}.Clamp()
	w.x, w.y = pos.X, pos.Y
	a.editor.Windows.Moved(w.node, w.kind, w.x, w.y)
}
