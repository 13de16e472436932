package editor

import (
	"slices"

	"github.com/vsariola/patchbay"
)

type (
	// Selection is an ordered set of nodes. It lives only as long as the
	// editing session.
	Selection struct {
		ids []patchbay.NodeID
	}

	// Lasso selects the nodes whose rectangles intersect the rectangle
	// dragged on the empty canvas.
	Lasso struct {
		hit       HitTester
		selection *Selection
		start     Point
		rect      Rect
		active    bool
	}
)

func (s *Selection) Contains(id patchbay.NodeID) bool { return slices.Contains(s.ids, id) }
func (s *Selection) Len() int                         { return len(s.ids) }
func (s *Selection) Clear()                           { s.ids = s.ids[:0] }

func (s *Selection) Add(id patchbay.NodeID) {
	if !s.Contains(id) {
		s.ids = append(s.ids, id)
	}
}

func (s *Selection) Remove(id patchbay.NodeID) {
	s.ids = slices.DeleteFunc(s.ids, func(i patchbay.NodeID) bool { return i == id })
}

func (s *Selection) Toggle(id patchbay.NodeID) {
	if s.Contains(id) {
		s.Remove(id)
		return
	}
	s.Add(id)
}

// Set replaces the selection with the given nodes, dropping duplicates.
func (s *Selection) Set(ids ...patchbay.NodeID) {
	s.Clear()
	for _, id := range ids {
		s.Add(id)
	}
}

func (s *Selection) Items(yield func(patchbay.NodeID) bool) {
	for _, id := range s.ids {
		if !yield(id) {
			return
		}
	}
}

func NewLasso(hit HitTester, selection *Selection) *Lasso {
	return &Lasso{hit: hit, selection: selection}
}

func (l *Lasso) Begin(x, y float64) {
	l.start = Point{X: x, Y: y}
	l.rect = Rect{Min: l.start, Max: l.start}
	l.active = true
	l.selection.Clear()
}

func (l *Lasso) Drag(x, y float64) {
	if !l.active {
		return
	}
	l.rect = RectFromPoints(l.start, Point{X: x, Y: y})
	l.selection.Set(l.hit.NodesIn(l.rect)...)
}

func (l *Lasso) End() { l.active = false }

// Rect returns the current lasso rectangle; ok is false when no lasso is
// being dragged.
func (l *Lasso) Rect() (r Rect, ok bool) { return l.rect, l.active }
