// Package units implements the processing units that can be hosted by the
// nodes of a routing graph: the device input and output, the MIDI input, and
// a few simple internal processors.
package units

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vsariola/patchbay"
)

// Unit kinds understood by the Factory.
const (
	AudioInput  = "audio-input"
	MIDIInput   = "midi-input"
	AudioOutput = "audio-output"
	Gain        = "gain"
	Mixer       = "mixer"
	Oscillator  = "oscillator"
	Plugin      = "plugin"
)

var (
	ErrUnsupported = errors.New("unit kind is not supported")
	ErrUnknownKind = errors.New("unknown unit kind")
)

type (
	// Factory instantiates the units. The zero value is usable and assumes
	// 44100 Hz sample rate.
	Factory struct {
		SampleRate int
	}

	// base holds the channel layout and the name shared by all the units.
	base struct {
		name            string
		ins, outs       int
		midiIn, midiOut bool
	}
)

const defaultSampleRate = 44100

var catalog = []patchbay.Descriptor{
	{Kind: AudioInput, Name: "audio input"},
	{Kind: MIDIInput, Name: "MIDI input"},
	{Kind: AudioOutput, Name: "audio output"},
	{Kind: Gain, Name: "gain"},
	{Kind: Mixer, Name: "mixer"},
	{Kind: Oscillator, Name: "oscillator"},
}

// Catalog lists the descriptors of all the units the Factory can
// instantiate.
func Catalog() []patchbay.Descriptor { return slices.Clone(catalog) }

// DefaultDocument is the graph a new editing session starts with: the audio
// input, the MIDI input and the audio output, unconnected.
func DefaultDocument() patchbay.Document {
	return patchbay.Document{Nodes: []patchbay.DocumentNode{
		{ID: 1, Descriptor: catalog[0], X: 0.5, Y: 0.2},
		{ID: 2, Descriptor: catalog[1], X: 0.3, Y: 0.2},
		{ID: 3, Descriptor: catalog[2], X: 0.5, Y: 0.8},
	}}
}

func (f Factory) NewUnit(desc patchbay.Descriptor) (patchbay.Unit, error) {
	name := func(def string) string {
		if desc.Name != "" {
			return desc.Name
		}
		return def
	}
	switch desc.Kind {
	case AudioInput:
		return &audioInput{base: base{name: name("audio input"), outs: 2}}, nil
	case MIDIInput:
		return &midiInput{base{name: name("MIDI input"), midiOut: true}}, nil
	case AudioOutput:
		return &audioOutput{base: base{name: name("audio output"), ins: 2}}, nil
	case Gain:
		return &gain{base: base{name: name("gain"), ins: 2, outs: 2}, amount: defaultGain}, nil
	case Mixer:
		return &mixer{base{name: name("mixer"), ins: 4, outs: 2}}, nil
	case Oscillator:
		rate := f.SampleRate
		if rate <= 0 {
			rate = defaultSampleRate
		}
		return &oscillator{base: base{name: name("oscillator"), outs: 2, midiIn: true}, sampleRate: float64(rate)}, nil
	case Plugin:
		return nil, fmt.Errorf("%q: %w", desc.FileOrIdentifier, ErrUnsupported)
	}
	return nil, fmt.Errorf("%q: %w", desc.Kind, ErrUnknownKind)
}

func (b *base) NumInputChannels() int  { return b.ins }
func (b *base) NumOutputChannels() int { return b.outs }
func (b *base) AcceptsMIDI() bool      { return b.midiIn }
func (b *base) ProducesMIDI() bool     { return b.midiOut }
func (b *base) Name() string           { return b.name }

// stereo names the channels of the units with a plain stereo pair.
type stereo struct{}

func (stereo) InputChannelName(i int) string  { return stereoName(i) }
func (stereo) OutputChannelName(i int) string { return stereoName(i) }

func stereoName(i int) string {
	switch i {
	case 0:
		return "Left"
	case 1:
		return "Right"
	}
	return ""
}
