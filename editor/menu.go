package editor

import (
	"github.com/vsariola/patchbay"
	"go.uber.org/zap"
)

type (
	// Menu is a context menu requested by a secondary press, shown by the view
	// layer at X, Y.
	Menu struct {
		X, Y  float64
		Items []MenuItem
	}

	MenuItem struct {
		Text   string
		Action Action
	}
)

func (e *Editor) nodeMenu(id patchbay.NodeID, x, y float64) Menu {
	m := e.model
	return Menu{X: x, Y: y, Items: []MenuItem{
		{Text: "Delete this unit", Action: MakeAction(DoFunc(func() { m.RemoveNode(id) }))},
		{Text: "Disconnect all pins", Action: MakeEnabledAction(
			func() { m.DisconnectNode(id) },
			func() bool {
				for range m.ConnectionsOf(id) {
					return true
				}
				return false
			})},
		{Text: "Show unit window", Action: e.openWindow(id, WindowNormal)},
		{Text: "Show all programs", Action: e.openWindow(id, WindowPrograms)},
		{Text: "Show all parameters", Action: e.openWindow(id, WindowParameters)},
	}}
}

func (e *Editor) canvasMenu(x, y float64) Menu {
	menu := Menu{X: x, Y: y}
	pos := e.layout.ToNormalized(Point{X: x, Y: y})
	for _, desc := range e.catalog {
		menu.Items = append(menu.Items, MenuItem{
			Text: "Add " + DisplayName(desc.Name),
			Action: MakeAction(DoFunc(func() {
				if _, err := e.model.AddNode(desc, pos.X, pos.Y); err != nil {
					e.fail("could not add unit", err, zap.String("kind", desc.Kind))
				}
			})),
		})
	}
	return menu
}

func (e *Editor) openWindow(id patchbay.NodeID, kind WindowKind) Action {
	return MakeAction(DoFunc(func() {
		if _, err := e.Windows.Open(id, kind); err != nil {
			e.fail("could not open window", err, zap.Uint32("node", uint32(id)))
		}
	}))
}
