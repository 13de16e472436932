package patchbay

import (
	"gitlab.com/gomidi/midi/v2"
)

type (
	// Unit is the handle of a processing unit hosted by a node. The graph and
	// the editor treat it opaquely, beyond its channel counts, MIDI flags and
	// display name.
	Unit interface {
		NumInputChannels() int
		NumOutputChannels() int
		AcceptsMIDI() bool
		ProducesMIDI() bool
		Name() string
	}

	// ChannelNamer can optionally be implemented by a Unit to give its
	// channels human readable names, shown e.g. in pin tooltips. Empty names
	// fall back to "Input N" / "Output N".
	ChannelNamer interface {
		InputChannelName(index int) string
		OutputChannelName(index int) string
	}

	// Descriptor describes what kind of unit should be instantiated for a
	// node. It is persisted in documents, so a graph can be rebuilt by giving
	// the descriptors to a UnitFactory again.
	Descriptor struct {
		Kind             string `yaml:"kind" json:"kind" toml:"kind"`
		FileOrIdentifier string `yaml:"file,omitempty" json:"file,omitempty" toml:"file,omitempty"`
		Name             string `yaml:"name,omitempty" json:"name,omitempty" toml:"name,omitempty"`
		NumInputs        int    `yaml:"inputs,omitempty" json:"inputs,omitempty" toml:"inputs,omitempty"`
		NumOutputs       int    `yaml:"outputs,omitempty" json:"outputs,omitempty" toml:"outputs,omitempty"`
		AcceptsMIDI      bool   `yaml:"acceptsmidi,omitempty" json:"acceptsmidi,omitempty" toml:"acceptsmidi,omitempty"`
		ProducesMIDI     bool   `yaml:"producesmidi,omitempty" json:"producesmidi,omitempty" toml:"producesmidi,omitempty"`
	}

	// UnitFactory instantiates processing units from descriptors.
	UnitFactory interface {
		NewUnit(desc Descriptor) (Unit, error)
	}

	// UnitFactoryFunc adapts a function into a UnitFactory.
	UnitFactoryFunc func(desc Descriptor) (Unit, error)

	// Processor is implemented by units that actually produce or consume
	// audio. Process is called on the audio goroutine, once per block, and must
	// not block or allocate. Units that are not Processors output silence.
	Processor interface {
		Process(ctx *ProcessContext)
	}

	// ProcessContext is the data given to a Processor for one block. Inputs
	// and Outputs have one slice per audio channel of the unit, each Frames
	// long. Inputs are already summed from all the connected sources. MIDIIn
	// holds the messages routed to the MIDI input pin; messages appended to
	// MIDIOut are routed to the units connected to the MIDI output pin.
	// HostInput and HostOutput are the device buffers, used by the I/O units.
	ProcessContext struct {
		Frames     int
		Inputs     [][]float32
		Outputs    [][]float32
		MIDIIn     []midi.Message
		MIDIOut    []midi.Message
		HostMIDI   []midi.Message
		HostInput  AudioBuffer
		HostOutput AudioBuffer
		SampleRate int
	}
)

func (f UnitFactoryFunc) NewUnit(desc Descriptor) (Unit, error) { return f(desc) }

// HasPin reports whether the unit has the given pin: either an audio channel
// within its channel count, or the MIDI pin when the unit accepts (inputs) or
// produces (outputs) MIDI.
func HasPin(u Unit, ch Channel, isInput bool) bool {
	if u == nil {
		return false
	}
	if ch == MIDIChannel {
		if isInput {
			return u.AcceptsMIDI()
		}
		return u.ProducesMIDI()
	}
	if ch < 0 {
		return false
	}
	if isInput {
		return int(ch) < u.NumInputChannels()
	}
	return int(ch) < u.NumOutputChannels()
}
