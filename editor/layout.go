package editor

import (
	"math"

	"github.com/vsariola/patchbay"
	"github.com/vsariola/patchbay/graph"
)

type (
	Point struct {
		X, Y float64
	}

	// Rect is an axis aligned rectangle; Min is inclusive, Max exclusive.
	Rect struct {
		Min, Max Point
	}

	// HitTester resolves pointer coordinates into the graph elements under
	// the pointer. Layout is the default implementation; a view layer with
	// its own widget geometry can provide another one.
	HitTester interface {
		PinAt(x, y float64) (patchbay.Pin, bool)
		NodeAt(x, y float64) (patchbay.NodeID, bool)
		ConnectionAt(x, y float64) (patchbay.Connection, bool)
		PinCenter(pin patchbay.Pin) (Point, bool)
		NodesIn(r Rect) []patchbay.NodeID
	}

	// Layout computes the pixel geometry of the graph: node rectangles, pin
	// positions and connection end points, from the normalized node positions
	// of the model and the size of the canvas.
	Layout struct {
		model         *graph.Model
		width, height float64
	}
)

const (
	PinSize = 16

	minNodeWidth   = 100
	pinSpacing     = 20
	nodeHeight     = 60
	tallNodeHeight = 100
	maxNameWidth   = 300
	charWidth      = 7

	// a press closer than connectorHitDistance to a connection line hits it,
	// unless it is within connectorEndMargin of either end of the line
	connectorHitDistance = 5
	connectorEndMargin   = 7
)

func NewLayout(model *graph.Model, width, height float64) *Layout {
	return &Layout{model: model, width: width, height: height}
}

func (l *Layout) SetSize(width, height float64) {
	l.width, l.height = width, height
}

func (l *Layout) Size() (width, height float64) { return l.width, l.height }

// ToPixels converts a normalized position into canvas pixels.
func (l *Layout) ToPixels(p patchbay.Position) Point {
	return Point{X: p.X * l.width, Y: p.Y * l.height}
}

// ToNormalized converts canvas pixels into a normalized position, clamped to
// the canvas.
func (l *Layout) ToNormalized(p Point) patchbay.Position {
	return l.Delta(p).Clamp()
}

// Delta converts a pixel offset into a normalized offset, without clamping.
func (l *Layout) Delta(d Point) patchbay.Position {
	if l.width <= 0 || l.height <= 0 {
		return patchbay.Position{}
	}
	return patchbay.Position{X: d.X / l.width, Y: d.Y / l.height}
}

// NodeInfo returns everything the view layer needs to draw the node. ok is
// false if the node or its unit does not exist.
func (l *Layout) NodeInfo(id patchbay.NodeID) (info NodeInfo, ok bool) {
	unit := l.model.Unit(id)
	if unit == nil {
		return NodeInfo{}, false
	}
	x, y, ok := l.model.NodePosition(id)
	if !ok {
		return NodeInfo{}, false
	}
	info = NodeInfo{
		ID:           id,
		Name:         DisplayName(unit.Name()),
		NumInputs:    unit.NumInputChannels(),
		NumOutputs:   unit.NumOutputChannels(),
		AcceptsMIDI:  unit.AcceptsMIDI(),
		ProducesMIDI: unit.ProducesMIDI(),
		Position:     patchbay.Position{X: x, Y: y},
	}
	w, h := nodeSize(info)
	c := l.ToPixels(info.Position)
	info.Bounds = Rect{
		Min: Point{X: math.Round(c.X - w/2), Y: math.Round(c.Y - h/2)},
		Max: Point{X: math.Round(c.X-w/2) + w, Y: math.Round(c.Y-h/2) + h},
	}
	return info, true
}

// nodeSize makes the node wide enough for all its pins and its name.
func nodeSize(info NodeInfo) (w, h float64) {
	ins, outs := info.NumInputs, info.NumOutputs
	if info.AcceptsMIDI {
		ins++
	}
	if info.ProducesMIDI {
		outs++
	}
	w = max(minNodeWidth, float64(max(ins, outs)+1)*pinSpacing)
	textWidth := float64(len([]rune(info.Name)) * charWidth)
	w = max(w, PinSize+min(textWidth, maxNameWidth))
	h = nodeHeight
	if textWidth > maxNameWidth {
		h = tallNodeHeight
	}
	return w, h
}

func (l *Layout) NodeBounds(id patchbay.NodeID) (Rect, bool) {
	info, ok := l.NodeInfo(id)
	return info.Bounds, ok
}

// PinCenter returns the center of the pin in canvas pixels. Input pins sit on
// the top edge of the node and output pins on the bottom edge, evenly spread
// with the MIDI pin last.
func (l *Layout) PinCenter(pin patchbay.Pin) (Point, bool) {
	info, ok := l.NodeInfo(pin.Node)
	if !ok {
		return Point{}, false
	}
	return pinCenter(info, pin)
}

func pinCenter(info NodeInfo, pin patchbay.Pin) (Point, bool) {
	pins := info.Pins(pin.IsInput)
	for i, p := range pins {
		if p != pin {
			continue
		}
		b := info.Bounds
		x := math.Round(b.Min.X + b.Dx()*float64(1+i)/float64(len(pins)+1))
		if pin.IsInput {
			return Point{X: x, Y: b.Min.Y + PinSize/2}, true
		}
		return Point{X: x, Y: b.Max.Y - PinSize/2}, true
	}
	return Point{}, false
}

func pinBounds(center Point) Rect {
	return Rect{
		Min: Point{X: center.X - PinSize/2, Y: center.Y - PinSize/2},
		Max: Point{X: center.X + PinSize/2, Y: center.Y + PinSize/2},
	}
}

// NodeAt returns the topmost node under the point. Nodes added later are
// drawn on top.
func (l *Layout) NodeAt(x, y float64) (ret patchbay.NodeID, ok bool) {
	p := Point{X: x, Y: y}
	for id := range l.model.Nodes {
		if b, found := l.NodeBounds(id); found && b.Contains(p) {
			ret, ok = id, true
		}
	}
	return
}

// PinAt returns the pin under the point, if any.
func (l *Layout) PinAt(x, y float64) (ret patchbay.Pin, ok bool) {
	p := Point{X: x, Y: y}
	for id := range l.model.Nodes {
		info, found := l.NodeInfo(id)
		if !found {
			continue
		}
		for _, isInput := range []bool{true, false} {
			for _, pin := range info.Pins(isInput) {
				c, _ := pinCenter(info, pin)
				if pinBounds(c).Contains(p) {
					ret, ok = pin, true
				}
			}
		}
	}
	return
}

// ConnectionAt returns the connection whose line passes near the point. The
// ends of the line are excluded, so that presses there reach the pins.
func (l *Layout) ConnectionAt(x, y float64) (ret patchbay.Connection, ok bool) {
	p := Point{X: x, Y: y}
	for c := range l.model.Connections {
		from, ok1 := l.PinCenter(c.SourcePin())
		to, ok2 := l.PinCenter(c.DestPin())
		if !ok1 || !ok2 {
			continue
		}
		if p.Dist(from) < connectorEndMargin || p.Dist(to) < connectorEndMargin {
			continue
		}
		if segmentDist(p, from, to) <= connectorHitDistance {
			ret, ok = c, true
		}
	}
	return
}

// NodesIn returns the nodes whose rectangles intersect r, in the order they
// were added.
func (l *Layout) NodesIn(r Rect) []patchbay.NodeID {
	var ret []patchbay.NodeID
	for id := range l.model.Nodes {
		if b, ok := l.NodeBounds(id); ok && b.Intersects(r) {
			ret = append(ret, id)
		}
	}
	return ret
}

func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// RectFromPoints returns the rectangle spanned by two corners given in any
// order.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		Min: Point{X: min(a.X, b.X), Y: min(a.Y, b.Y)},
		Max: Point{X: max(a.X, b.X), Y: max(a.Y, b.Y)},
	}
}

func (r Rect) Dx() float64 { return r.Max.X - r.Min.X }
func (r Rect) Dy() float64 { return r.Max.Y - r.Min.Y }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X < r.Max.X && p.Y >= r.Min.Y && p.Y < r.Max.Y
}

func (r Rect) Intersects(o Rect) bool {
	return r.Min.X <= o.Max.X && o.Min.X <= r.Max.X && r.Min.Y <= o.Max.Y && o.Min.Y <= r.Max.Y
}

func segmentDist(p, a, b Point) float64 {
	d := b.Sub(a)
	l2 := d.X*d.X + d.Y*d.Y
	if l2 == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*d.X + (p.Y-a.Y)*d.Y) / l2
	t = max(0, min(1, t))
	return p.Dist(Point{X: a.X + t*d.X, Y: a.Y + t*d.Y})
}
