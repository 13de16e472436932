package editor

import (
	"fmt"

	"github.com/vsariola/patchbay"
	"github.com/vsariola/patchbay/graph"
)

type (
	// GroupMover drags the selected nodes. Every drag sets the positions from
	// the positions recorded at the start of the gesture plus the total
	// pointer delta, so the result depends only on the start and the current
	// pointer position.
	GroupMover struct {
		model     *graph.Model
		layout    *Layout
		selection *Selection

		origin    Point
		originals []movedNode
		gesture   int
	}

	movedNode struct {
		id  patchbay.NodeID
		pos patchbay.Position
	}
)

func NewGroupMover(model *graph.Model, layout *Layout, selection *Selection) *GroupMover {
	return &GroupMover{model: model, layout: layout, selection: selection}
}

// Begin starts dragging the node pressed at (x, y). If the node is selected,
// the whole selection moves; otherwise the selection is replaced by the
// pressed node alone.
func (g *GroupMover) Begin(id patchbay.NodeID, x, y float64) {
	g.originals = g.originals[:0]
	if !g.model.HasNode(id) {
		return
	}
	if !g.selection.Contains(id) {
		g.selection.Set(id)
	}
	for sel := range g.selection.Items {
		if x, y, ok := g.model.NodePosition(sel); ok {
			g.originals = append(g.originals, movedNode{id: sel, pos: patchbay.Position{X: x, Y: y}})
		}
	}
	g.origin = Point{X: x, Y: y}
	g.gesture++
}

func (g *GroupMover) Drag(x, y float64) {
	if len(g.originals) == 0 {
		return
	}
	delta := g.clampDelta(g.layout.Delta(Point{X: x, Y: y}.Sub(g.origin)))
	// one undo step per gesture
	defer g.model.Change(fmt.Sprintf("MoveNodes.%d", g.gesture), graph.MinorChange)()
	for _, n := range g.originals {
		p := n.pos.Add(delta)
		g.model.SetNodePosition(n.id, p.X, p.Y)
	}
}

// clampDelta limits the delta to what the whole group can move without any
// node leaving the canvas, so the group keeps its shape at the edges. A node
// already outside the canvas is never pushed further out.
func (g *GroupMover) clampDelta(d patchbay.Position) patchbay.Position {
	lo, hi := g.originals[0].pos, g.originals[0].pos
	for _, n := range g.originals[1:] {
		lo.X, lo.Y = min(lo.X, n.pos.X), min(lo.Y, n.pos.Y)
		hi.X, hi.Y = max(hi.X, n.pos.X), max(hi.Y, n.pos.Y)
	}
	d.X = min(max(d.X, min(-lo.X, 0)), max(1-hi.X, 0))
	d.Y = min(max(d.Y, min(-lo.Y, 0)), max(1-hi.Y, 0))
	return d
}

func (g *GroupMover) End() { g.originals = g.originals[:0] }

func (g *GroupMover) Active() bool { return len(g.originals) > 0 }
