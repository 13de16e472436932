package engine

import (
	"slices"
	"sync/atomic"

	"github.com/vsariola/patchbay"
	"gitlab.com/gomidi/midi/v2"
)

type (
	// plan is the execution order of one snapshot, together with all the
	// buffers needed to render it. A plan is built on the control goroutine
	// and afterwards only touched by the audio goroutine, except for the
	// atomic levels.
	plan struct {
		version uint64
		steps   []step
		index   map[patchbay.NodeID]int
	}

	step struct {
		id      patchbay.NodeID
		proc    patchbay.Processor
		inputs  [][]float32
		outputs [][]float32
		routes  []route
		// steps whose MIDI output feeds this step's MIDI input
		midiSources []int
		midiIn      []midi.Message
		midiOut     []midi.Message
		ctx         patchbay.ProcessContext
		tmp         []float32
		level       atomic.Uint32
	}

	// route sums output channel srcChannel of step src into input channel
	// dstChannel.
	route struct {
		src        int
		srcChannel int
		dstChannel int
	}
)

const midiCapacity = 256

// order sorts the nodes topologically with Kahn's algorithm, always picking
// the ready node with the smallest id. Nodes on cycles can never become
// ready; they are appended last in id order.
func order(s *patchbay.Snapshot) []patchbay.NodeID {
	indegree := make(map[patchbay.NodeID]int, len(s.Nodes))
	successors := make(map[patchbay.NodeID][]patchbay.NodeID, len(s.Nodes))
	for _, c := range s.Connections {
		if s.Unit(c.Source) == nil || s.Unit(c.Dest) == nil {
			continue
		}
		indegree[c.Dest]++
		successors[c.Source] = append(successors[c.Source], c.Dest)
	}
	var ready []patchbay.NodeID
	for _, n := range s.Nodes {
		if indegree[n.ID] == 0 {
			ready = append(ready, n.ID)
		}
	}
	ret := make([]patchbay.NodeID, 0, len(s.Nodes))
	done := make(map[patchbay.NodeID]bool, len(s.Nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		ret = append(ret, id)
		done[id] = true
		for _, next := range successors[id] {
			indegree[next]--
			if indegree[next] == 0 {
				i, _ := slices.BinarySearch(ready, next)
				ready = slices.Insert(ready, i, next)
			}
		}
	}
	for _, n := range s.Nodes {
		if !done[n.ID] {
			ret = append(ret, n.ID)
		}
	}
	return ret
}

func newPlan(s *patchbay.Snapshot, blockSize int) *plan {
	ids := order(s)
	p := &plan{version: s.Version, steps: make([]step, len(ids)), index: make(map[patchbay.NodeID]int, len(ids))}
	for i, id := range ids {
		p.index[id] = i
	}
	for i, id := range ids {
		unit := s.Unit(id)
		st := &p.steps[i]
		st.id = id
		st.proc, _ = unit.(patchbay.Processor)
		st.inputs = makeBuffers(unit.NumInputChannels(), blockSize)
		st.outputs = makeBuffers(unit.NumOutputChannels(), blockSize)
		st.tmp = make([]float32, blockSize)
		st.ctx.Inputs = make([][]float32, len(st.inputs))
		st.ctx.Outputs = make([][]float32, len(st.outputs))
		if unit.AcceptsMIDI() {
			st.midiIn = make([]midi.Message, 0, midiCapacity)
		}
		if unit.ProducesMIDI() {
			st.midiOut = make([]midi.Message, 0, midiCapacity)
		}
		for c := range s.Inputs(id) {
			src, ok := p.index[c.Source]
			if !ok {
				continue
			}
			if c.IsMIDI() {
				p.steps[i].midiSources = append(p.steps[i].midiSources, src)
				continue
			}
			p.steps[i].routes = append(p.steps[i].routes, route{src: src, srcChannel: int(c.SourceChannel), dstChannel: int(c.DestChannel)})
		}
	}
	return p
}

func makeBuffers(channels, length int) [][]float32 {
	ret := make([][]float32, channels)
	for i := range ret {
		ret[i] = make([]float32, length)
	}
	return ret
}
