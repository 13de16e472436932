// Package engine renders the audio of a routing graph. The control goroutine
// gives the engine snapshots of the graph; for each snapshot the engine builds
// a plan, i.e. the processing order and all the buffers, and publishes it with
// an atomic pointer swap. The audio goroutine picks up the latest plan at the
// start of every block, so it never waits for the control goroutine.
package engine

import (
	"math"
	"slices"
	"sync/atomic"

	"github.com/viterin/vek/vek32"
	"github.com/vsariola/patchbay"
	"github.com/vsariola/patchbay/graph"
	"gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"
)

type (
	Engine struct {
		plan       atomic.Pointer[plan]
		midi       chan midi.Message
		hostMIDI   []midi.Message // owned by the audio goroutine
		blockSize  int
		sampleRate int
		logger     *zap.Logger
	}

	Options struct {
		// BlockSize is the maximum number of frames processed at once; longer
		// buffers are rendered in several blocks.
		BlockSize  int
		SampleRate int
		Logger     *zap.Logger
	}
)

const (
	defaultBlockSize  = 512
	defaultSampleRate = 44100
	midiQueueSize     = 1024
)

func New(opts Options) *Engine {
	if opts.BlockSize <= 0 {
		opts.BlockSize = defaultBlockSize
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = defaultSampleRate
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Engine{
		midi:       make(chan midi.Message, midiQueueSize),
		hostMIDI:   make([]midi.Message, 0, midiQueueSize),
		blockSize:  opts.BlockSize,
		sampleRate: opts.SampleRate,
		logger:     opts.Logger,
	}
}

// Update builds a new plan for the snapshot and publishes it. Must be called
// on the control goroutine; snapshots older than the current plan are
// ignored.
func (e *Engine) Update(s *patchbay.Snapshot) {
	if s == nil {
		return
	}
	if cur := e.plan.Load(); cur != nil && cur.version > s.Version {
		return
	}
	p := newPlan(s, e.blockSize)
	e.plan.Store(p)
	planUpdatesTotal.Inc()
	planNodes.Set(float64(len(p.steps)))
	e.logger.Debug("engine plan updated", zap.Uint64("version", s.Version), zap.Int("nodes", len(p.steps)), zap.Int("connections", len(s.Connections)))
}

// Attach makes the engine follow the model: the current snapshot is taken
// immediately and every structural change publishes a new plan. The returned
// function detaches the engine.
func (e *Engine) Attach(model *graph.Model) (detach func()) {
	e.Update(model.Snapshot())
	return model.Subscribe(func(ev graph.ChangeEvent) {
		if ev.Flags&graph.StructureChanged != 0 {
			e.Update(model.Snapshot())
		}
	})
}

// QueueMIDI queues a MIDI message for the MIDI input units. It never blocks;
// returns false if the queue is full and the message was dropped.
func (e *Engine) QueueMIDI(msg midi.Message) bool {
	if !TrySend(e.midi, slices.Clone(msg)) {
		midiDroppedTotal.Inc()
		return false
	}
	return true
}

// Source returns the engine as an audio source for an AudioContext, with no
// device input.
func (e *Engine) Source() patchbay.AudioSource {
	return func(buf patchbay.AudioBuffer) error {
		e.Render(buf, nil)
		return nil
	}
}

// Render renders len(out) frames of audio into out; input is the audio from
// the input device, or nil. Render must be called only from the audio
// goroutine. It does not block and does not allocate.
func (e *Engine) Render(out, input patchbay.AudioBuffer) {
	out.Fill()
	e.drainMIDI()
	p := e.plan.Load()
	if p == nil {
		return
	}
	for start := 0; start < len(out); start += e.blockSize {
		end := min(start+e.blockSize, len(out))
		var in patchbay.AudioBuffer
		if len(input) >= end {
			in = input[start:end]
		}
		e.renderBlock(p, out[start:end], in)
		blocksRenderedTotal.Inc()
		e.hostMIDI = e.hostMIDI[:0] // delivered in the first block only
	}
}

func (e *Engine) drainMIDI() {
	e.hostMIDI = e.hostMIDI[:0]
	for len(e.hostMIDI) < cap(e.hostMIDI) {
		select {
		case msg := <-e.midi:
			e.hostMIDI = append(e.hostMIDI, msg)
		default:
			return
		}
	}
}

func (e *Engine) renderBlock(p *plan, out, in patchbay.AudioBuffer) {
	frames := len(out)
	for i := range p.steps {
		st := &p.steps[i]
		for ch := range st.inputs {
			vek32.Zeros_Into(st.inputs[ch], frames)
		}
		// sources later in the order are on a cycle; their outputs still
		// hold the previous block
		for _, r := range st.routes {
			vek32.Add_Inplace(st.inputs[r.dstChannel][:frames], p.steps[r.src].outputs[r.srcChannel][:frames])
		}
		st.midiIn = st.midiIn[:0]
		for _, src := range st.midiSources {
			for _, msg := range p.steps[src].midiOut {
				if len(st.midiIn) < cap(st.midiIn) {
					st.midiIn = append(st.midiIn, msg)
				}
			}
		}
		for ch := range st.outputs {
			vek32.Zeros_Into(st.outputs[ch], frames)
		}
		st.midiOut = st.midiOut[:0]
		if st.proc != nil {
			st.ctx.Frames = frames
			for ch := range st.inputs {
				st.ctx.Inputs[ch] = st.inputs[ch][:frames]
			}
			for ch := range st.outputs {
				st.ctx.Outputs[ch] = st.outputs[ch][:frames]
			}
			st.ctx.MIDIIn = st.midiIn
			st.ctx.MIDIOut = st.midiOut
			st.ctx.HostMIDI = e.hostMIDI
			st.ctx.HostInput = in
			st.ctx.HostOutput = out
			st.ctx.SampleRate = e.sampleRate
			st.proc.Process(&st.ctx)
			st.midiOut = st.ctx.MIDIOut
		}
		st.level.Store(math.Float32bits(st.peak(frames)))
	}
}

// peak is the largest absolute sample of the outputs, or of the inputs for
// units with no outputs, e.g. the audio output.
func (st *step) peak(frames int) float32 {
	bufs := st.outputs
	if len(bufs) == 0 {
		bufs = st.inputs
	}
	var ret float32
	for _, b := range bufs {
		abs := vek32.Abs_Into(st.tmp[:frames], b[:frames])
		if frames > 0 {
			ret = max(ret, vek32.Max(abs))
		}
	}
	return ret
}

// Order returns the processing order of the current plan.
func (e *Engine) Order() []patchbay.NodeID {
	p := e.plan.Load()
	if p == nil {
		return nil
	}
	ret := make([]patchbay.NodeID, len(p.steps))
	for i := range p.steps {
		ret[i] = p.steps[i].id
	}
	return ret
}

// Levels returns the peak level of every node during the last rendered
// block. Safe to call from any goroutine.
func (e *Engine) Levels() map[patchbay.NodeID]float32 {
	p := e.plan.Load()
	if p == nil {
		return nil
	}
	ret := make(map[patchbay.NodeID]float32, len(p.steps))
	for i := range p.steps {
		ret[p.steps[i].id] = math.Float32frombits(p.steps[i].level.Load())
	}
	return ret
}

// TrySend is a helper function to send a value to a channel if it is not full.
// It is guaranteed to be non-blocking. Return true if the value was sent, false
// otherwise.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}
