package tui

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/vsariola/patchbay"
	"github.com/vsariola/patchbay/editor"
)

// The canvas is measured in pixels like any other; every terminal cell
// covers CellWidth x CellHeight pixels of it.
const (
	CellWidth  = 8
	CellHeight = 16

	statusRows   = 1
	windowWidth  = 34
	windowHeight = 7
)

var (
	baseStyle      = tcell.StyleDefault
	nodeStyle      = baseStyle.Foreground(tcell.ColorSilver)
	selectedStyle  = baseStyle.Foreground(tcell.ColorYellow).Bold(true)
	audioStyle     = baseStyle.Foreground(tcell.ColorGreen)
	midiStyle      = baseStyle.Foreground(tcell.ColorFuchsia)
	draftStyle     = baseStyle.Foreground(tcell.ColorAqua)
	lassoStyle     = baseStyle.Foreground(tcell.ColorTeal)
	meterStyle     = baseStyle.Foreground(tcell.ColorLime)
	clipStyle      = baseStyle.Foreground(tcell.ColorRed)
	menuStyle      = baseStyle.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite)
	menuDisabled   = menuStyle.Foreground(tcell.ColorGray)
	windowStyle    = baseStyle.Background(tcell.ColorDarkSlateGray).Foreground(tcell.ColorWhite)
	statusStyle    = baseStyle.Reverse(true)
	errStatusStyle = statusStyle.Foreground(tcell.ColorRed)
)

func toCell(p editor.Point) (col, row int) {
	return int(math.Floor(p.X / CellWidth)), int(math.Floor(p.Y / CellHeight))
}

// cellCenter is the canvas point a mouse event in the cell maps to.
func cellCenter(col, row int) editor.Point {
	return editor.Point{X: float64(col*CellWidth + CellWidth/2), Y: float64(row*CellHeight + CellHeight/2)}
}

func (a *App) draw() {
	s := a.screen
	s.Clear()
	var levels map[patchbay.NodeID]float32
	if a.levels != nil {
		levels = a.levels()
	}
	v := a.views
	for _, c := range v.sortedConnections() {
		style := audioStyle
		if c.info.MIDI {
			style = midiStyle
		}
		a.drawLine(c.info.From, c.info.To, style)
	}
	if v.draft != nil {
		a.drawLine(v.draft.info.From, v.draft.info.To, draftStyle)
	}
	for _, n := range v.sortedNodes() {
		a.drawNode(n.info, a.editor.Selection.Contains(n.id), levels[n.id])
	}
	for _, p := range v.sortedPins() {
		a.drawPin(p.info)
	}
	if r, ok := a.editor.Lasso.Rect(); ok {
		a.drawBox(r, lassoStyle, false)
	}
	for _, w := range v.windows {
		a.drawWindow(w)
	}
	if m, ok := a.editor.ContextMenu(); ok {
		a.drawMenu(m)
	}
	a.drawStatus()
	s.Show()
}

func (a *App) canvasRows() int {
	_, h := a.screen.Size()
	return max(h-statusRows, 0)
}

// setCell draws only inside the canvas area.
func (a *App) setCell(col, row int, style tcell.Style, r rune) {
	w, _ := a.screen.Size()
	if col < 0 || row < 0 || col >= w || row >= a.canvasRows() {
		return
	}
	a.screen.SetContent(col, row, r, nil, style)
}

func (a *App) drawText(col, row int, style tcell.Style, text string, maxWidth int) {
	for i, r := range []rune(text) {
		if i >= maxWidth {
			return
		}
		a.setCell(col+i, row, style, r)
	}
}

// drawLine plots a straight connection with Bresenham's algorithm.
func (a *App) drawLine(from, to editor.Point, style tcell.Style) {
	x0, y0 := toCell(from)
	x1, y1 := toCell(to)
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	e := dx + dy
	for {
		a.setCell(x0, y0, style, tcell.RuneBullet)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (a *App) drawBox(r editor.Rect, style tcell.Style, fill bool) (x0, y0, x1, y1 int) {
	x0, y0 = toCell(r.Min)
	x1, y1 = toCell(editor.Point{X: r.Max.X - 1, Y: r.Max.Y - 1})
	x1, y1 = max(x1, x0+1), max(y1, y0+1)
	if fill {
		for y := y0 + 1; y < y1; y++ {
			for x := x0 + 1; x < x1; x++ {
				a.setCell(x, y, style, ' ')
			}
		}
	}
	for x := x0 + 1; x < x1; x++ {
		a.setCell(x, y0, style, tcell.RuneHLine)
		a.setCell(x, y1, style, tcell.RuneHLine)
	}
	for y := y0 + 1; y < y1; y++ {
		a.setCell(x0, y, style, tcell.RuneVLine)
		a.setCell(x1, y, style, tcell.RuneVLine)
	}
	a.setCell(x0, y0, style, tcell.RuneULCorner)
	a.setCell(x1, y0, style, tcell.RuneURCorner)
	a.setCell(x0, y1, style, tcell.RuneLLCorner)
	a.setCell(x1, y1, style, tcell.RuneLRCorner)
	return
}

func (a *App) drawNode(info editor.NodeInfo, selected bool, level float32) {
	style := nodeStyle
	if selected {
		style = selectedStyle
	}
	x0, y0, x1, y1 := a.drawBox(info.Bounds, style, true)
	inner := x1 - x0 - 1
	name := []rune(info.Name)
	start := x0 + 1 + max((inner-len(name))/2, 0)
	a.drawText(start, y0+1, style, info.Name, inner)
	if y1-y0 > 2 && level > 0 {
		ms := meterStyle
		if level > 1 {
			ms = clipStyle
		}
		n := int(math.Ceil(float64(min(level, 1)) * float64(inner)))
		for i := 0; i < n; i++ {
			a.setCell(x0+1+i, y1-1, ms, tcell.RuneBlock)
		}
	}
}

func (a *App) drawPin(info editor.PinInfo) {
	col, row := toCell(info.Center)
	style, r := audioStyle, 'o'
	if info.Pin.IsMIDI() {
		style, r = midiStyle, 'M'
	}
	a.setCell(col, row, style, r)
}

// windowOrigin converts the normalized window position to the top left cell.
func (a *App) windowOrigin(w *window) (col, row int) {
	sw, _ := a.screen.Size()
	return int(w.x * float64(max(sw-windowWidth, 0))), int(w.y * float64(max(a.canvasRows()-windowHeight, 0)))
}

func (a *App) drawWindow(w *window) {
	col, row := a.windowOrigin(w)
	for y := row; y < row+windowHeight; y++ {
		for x := col; x < col+windowWidth; x++ {
			a.setCell(x, y, windowStyle, ' ')
		}
	}
	a.drawText(col+1, row, windowStyle.Bold(true), w.title(), windowWidth-5)
	a.drawText(col+windowWidth-3, row, windowStyle, "[x]", 3)
	for i, line := range w.lines() {
		if i+2 >= windowHeight {
			break
		}
		a.drawText(col+1, row+1+i, windowStyle, line, windowWidth-2)
	}
}

// menuGeometry returns the top left cell and the width of the menu.
func menuGeometry(m editor.Menu) (col, row, width int) {
	col, row = toCell(editor.Point{X: m.X, Y: m.Y})
	for _, item := range m.Items {
		width = max(width, len([]rune(item.Text))+2)
	}
	return
}

func (a *App) drawMenu(m editor.Menu) {
	col, row, width := menuGeometry(m)
	for i, item := range m.Items {
		style := menuStyle
		if !item.Action.Enabled() {
			style = menuDisabled
		}
		for x := 0; x < width; x++ {
			a.setCell(col+x, row+i, style, ' ')
		}
		a.drawText(col+1, row+i, style, item.Text, width-2)
	}
}

func (a *App) drawStatus() {
	w, h := a.screen.Size()
	row := h - 1
	if row < 0 {
		return
	}
	style := statusStyle
	text := a.status
	if a.statusErr {
		style = errStatusStyle
	}
	if text == "" {
		text, _ = a.editor.Tooltip(a.mouse.X, a.mouse.Y)
	}
	m := a.editor.Model()
	right := fmt.Sprintf("%d units  %d connections", m.NumNodes(), m.NumConnections())
	if m.ChangedSinceSave() {
		right += "  [modified]"
	}
	for x := 0; x < w; x++ {
		a.screen.SetContent(x, row, ' ', nil, style)
	}
	for i, r := range []rune(text) {
		a.screen.SetContent(i, row, r, nil, style)
	}
	rr := []rune(right)
	for i, r := range rr {
		a.screen.SetContent(w-len(rr)+i, row, r, nil, statusStyle)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x < 0:
		return -1
	case x > 0:
		return 1
	}
	return 0
}
