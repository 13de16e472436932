package editor

import (
	"github.com/vsariola/patchbay"
	"github.com/vsariola/patchbay/graph"
)

type (
	// Reconciler keeps the view objects in sync with the model. The views are
	// a pure function of the model: Reconcile destroys views of vanished
	// nodes and connections, creates views for new ones and refreshes only
	// the views whose derived info changed. The view of the connection being
	// drafted is owned by the DraftController and is never touched.
	Reconciler struct {
		model  *graph.Model
		layout *Layout
		views  ViewFactory

		nodes map[patchbay.NodeID]*nodeRecord
		conns map[patchbay.Connection]*connRecord
	}

	// Stats counts the view operations of one Reconcile call.
	Stats struct {
		Created, Destroyed, Refreshed int
	}

	nodeRecord struct {
		unit patchbay.Unit
		view NodeView
		info NodeInfo
		pins []pinRecord
	}

	pinRecord struct {
		view PinView
		info PinInfo
	}

	connRecord struct {
		view ConnectionView
		info ConnectionInfo
	}
)

func NewReconciler(model *graph.Model, layout *Layout, views ViewFactory) *Reconciler {
	return &Reconciler{
		model:  model,
		layout: layout,
		views:  views,
		nodes:  map[patchbay.NodeID]*nodeRecord{},
		conns:  map[patchbay.Connection]*connRecord{},
	}
}

func (s Stats) Changed() bool { return s != Stats{} }

func (s *Stats) add(o Stats) {
	s.Created += o.Created
	s.Destroyed += o.Destroyed
	s.Refreshed += o.Refreshed
}

// Reconcile brings the views up to date with the model. Running it twice
// without a model change in between does nothing the second time.
func (r *Reconciler) Reconcile() (stats Stats) {
	// 1. nodes that vanished, or whose unit was replaced or disappeared
	for id, rec := range r.nodes {
		if unit := r.model.Unit(id); unit == nil || unit != rec.unit {
			stats.add(rec.destroy())
			delete(r.nodes, id)
		}
	}
	// 2. connections that vanished; the rest follow their end points
	for c, rec := range r.conns {
		info, ok := r.connectionInfo(c)
		if !ok {
			rec.view.Destroy()
			stats.Destroyed++
			delete(r.conns, c)
			continue
		}
		if info != rec.info {
			rec.info = info
			rec.view.Refresh(info)
			stats.Refreshed++
		}
	}
	// 3. nodes
	for id := range r.model.Nodes {
		info, ok := r.layout.NodeInfo(id)
		if !ok {
			continue
		}
		rec, ok := r.nodes[id]
		if !ok {
			rec = &nodeRecord{unit: r.model.Unit(id), view: r.views.NewNodeView(id), info: info}
			rec.view.Refresh(info)
			stats.Created++
			stats.add(r.createPins(rec))
			r.nodes[id] = rec
			continue
		}
		if info == rec.info {
			continue
		}
		samePins := info.samePins(rec.info)
		rec.info = info
		rec.view.Refresh(info)
		stats.Refreshed++
		if !samePins {
			stats.add(rec.destroyPins())
			stats.add(r.createPins(rec))
			continue
		}
		for i := range rec.pins {
			pi := r.pinInfo(rec, rec.pins[i].info.Pin)
			if pi != rec.pins[i].info {
				rec.pins[i].info = pi
				rec.pins[i].view.Refresh(pi)
				stats.Refreshed++
			}
		}
	}
	// 4. connections
	for c := range r.model.Connections {
		if _, ok := r.conns[c]; ok {
			continue
		}
		info, ok := r.connectionInfo(c)
		if !ok {
			continue
		}
		rec := &connRecord{view: r.views.NewConnectionView(c), info: info}
		rec.view.Refresh(info)
		stats.Created++
		r.conns[c] = rec
	}
	return stats
}

// DestroyAll destroys every view object, e.g. when the editor is closed.
func (r *Reconciler) DestroyAll() (stats Stats) {
	for c, rec := range r.conns {
		rec.view.Destroy()
		stats.Destroyed++
		delete(r.conns, c)
	}
	for id, rec := range r.nodes {
		stats.add(rec.destroy())
		delete(r.nodes, id)
	}
	return stats
}

func (r *Reconciler) NumNodeViews() int       { return len(r.nodes) }
func (r *Reconciler) NumConnectionViews() int { return len(r.conns) }

func (r *Reconciler) connectionInfo(c patchbay.Connection) (ConnectionInfo, bool) {
	if _, ok := r.model.ConnectionBetween(c); !ok {
		return ConnectionInfo{}, false
	}
	from, ok1 := r.layout.PinCenter(c.SourcePin())
	to, ok2 := r.layout.PinCenter(c.DestPin())
	if !ok1 || !ok2 {
		return ConnectionInfo{}, false
	}
	return ConnectionInfo{Connection: c, From: from, To: to, MIDI: c.IsMIDI()}, true
}

func (r *Reconciler) pinInfo(rec *nodeRecord, pin patchbay.Pin) PinInfo {
	c, _ := pinCenter(rec.info, pin)
	return PinInfo{Pin: pin, Center: c, Tooltip: PinTooltip(rec.unit, pin)}
}

func (r *Reconciler) createPins(rec *nodeRecord) (stats Stats) {
	for _, isInput := range []bool{true, false} {
		for _, pin := range rec.info.Pins(isInput) {
			pr := pinRecord{view: r.views.NewPinView(pin), info: r.pinInfo(rec, pin)}
			pr.view.Refresh(pr.info)
			stats.Created++
			rec.pins = append(rec.pins, pr)
		}
	}
	return stats
}

func (rec *nodeRecord) destroyPins() (stats Stats) {
	for _, p := range rec.pins {
		p.view.Destroy()
		stats.Destroyed++
	}
	rec.pins = nil
	return stats
}

func (rec *nodeRecord) destroy() Stats {
	stats := rec.destroyPins()
	rec.view.Destroy()
	stats.Destroyed++
	return stats
}
