package units

import (
	"math"

	"github.com/viterin/vek/vek32"
	"github.com/vsariola/patchbay"
	"gitlab.com/gomidi/midi/v2"
)

type (
	audioInput struct {
		base
		stereo
	}

	audioOutput struct {
		base
		stereo
	}

	midiInput struct {
		base
	}

	gain struct {
		base
		stereo
		amount float32
	}

	mixer struct {
		base
	}

	// oscillator is a monophonic sine voice played with MIDI notes; the last
	// note wins.
	oscillator struct {
		base
		sampleRate float64
		phase      float64
		freq       float64
		amp        float32
		note       uint8
	}
)

const defaultGain = 0.5

func (u *audioInput) Process(ctx *patchbay.ProcessContext) {
	for ch := range ctx.Outputs {
		if len(ctx.HostInput) < ctx.Frames {
			vek32.Zeros_Into(ctx.Outputs[ch], ctx.Frames)
			continue
		}
		ctx.HostInput[:ctx.Frames].Channel(ch, ctx.Outputs[ch])
	}
}

func (u *audioOutput) Process(ctx *patchbay.ProcessContext) {
	out := ctx.HostOutput
	for ch, in := range ctx.Inputs {
		for i := 0; i < ctx.Frames && i < len(out); i++ {
			out[i][ch] += in[i]
		}
	}
}

func (u *midiInput) Process(ctx *patchbay.ProcessContext) {
	ctx.MIDIOut = append(ctx.MIDIOut, ctx.HostMIDI...)
}

func (u *gain) Process(ctx *patchbay.ProcessContext) {
	for ch := range ctx.Outputs {
		vek32.MulNumber_Into(ctx.Outputs[ch], ctx.Inputs[ch], u.amount)
	}
}

func (u *mixer) Process(ctx *patchbay.ProcessContext) {
	vek32.Add_Into(ctx.Outputs[0], ctx.Inputs[0], ctx.Inputs[2])
	vek32.Add_Into(ctx.Outputs[1], ctx.Inputs[1], ctx.Inputs[3])
}

func (u *oscillator) Process(ctx *patchbay.ProcessContext) {
	for _, msg := range ctx.MIDIIn {
		u.handle(msg)
	}
	left, right := ctx.Outputs[0], ctx.Outputs[1]
	if u.amp == 0 {
		vek32.Zeros_Into(left, ctx.Frames)
		vek32.Zeros_Into(right, ctx.Frames)
		return
	}
	step := 2 * math.Pi * u.freq / u.sampleRate
	for i := 0; i < ctx.Frames; i++ {
		left[i] = u.amp * float32(math.Sin(u.phase))
		u.phase += step
	}
	u.phase = math.Mod(u.phase, 2*math.Pi)
	copy(right, left[:ctx.Frames])
}

func (u *oscillator) handle(msg midi.Message) {
	var channel, key, velocity uint8
	switch {
	case msg.GetNoteOn(&channel, &key, &velocity) && velocity > 0:
		u.note = key
		u.freq = 440 * math.Pow(2, (float64(key)-69)/12)
		u.amp = float32(velocity) / 127
	case msg.GetNoteOff(&channel, &key, &velocity), msg.GetNoteOn(&channel, &key, &velocity):
		if key == u.note {
			u.amp = 0
		}
	}
}
