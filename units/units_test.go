package units_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsariola/patchbay"
	"github.com/vsariola/patchbay/graph"
	"github.com/vsariola/patchbay/units"
	"gitlab.com/gomidi/midi/v2"
)

func TestCatalogUnitsCanBeInstantiated(t *testing.T) {
	f := units.Factory{SampleRate: 48000}
	for _, desc := range units.Catalog() {
		u, err := f.NewUnit(desc)
		require.NoError(t, err, desc.Kind)
		assert.NotEmpty(t, u.Name())
		_, ok := u.(patchbay.Processor)
		assert.True(t, ok, "%s should be a processor", desc.Kind)
	}
}

func TestChannelLayouts(t *testing.T) {
	tests := []struct {
		kind            string
		ins, outs       int
		midiIn, midiOut bool
	}{
		{units.AudioInput, 0, 2, false, false},
		{units.MIDIInput, 0, 0, false, true},
		{units.AudioOutput, 2, 0, false, false},
		{units.Gain, 2, 2, false, false},
		{units.Mixer, 4, 2, false, false},
		{units.Oscillator, 0, 2, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			u, err := units.Factory{}.NewUnit(patchbay.Descriptor{Kind: tt.kind})
			require.NoError(t, err)
			assert.Equal(t, tt.ins, u.NumInputChannels())
			assert.Equal(t, tt.outs, u.NumOutputChannels())
			assert.Equal(t, tt.midiIn, u.AcceptsMIDI())
			assert.Equal(t, tt.midiOut, u.ProducesMIDI())
		})
	}
}

func TestUnsupportedKinds(t *testing.T) {
	_, err := units.Factory{}.NewUnit(patchbay.Descriptor{Kind: units.Plugin, FileOrIdentifier: "synth.dll"})
	assert.ErrorIs(t, err, units.ErrUnsupported)
	_, err = units.Factory{}.NewUnit(patchbay.Descriptor{Kind: "theremin"})
	assert.ErrorIs(t, err, units.ErrUnknownKind)
}

func TestDescriptorNameOverrides(t *testing.T) {
	u, err := units.Factory{}.NewUnit(patchbay.Descriptor{Kind: units.Gain, Name: "trim"})
	require.NoError(t, err)
	assert.Equal(t, "trim", u.Name())
}

func TestStereoChannelNames(t *testing.T) {
	u, err := units.Factory{}.NewUnit(patchbay.Descriptor{Kind: units.AudioOutput})
	require.NoError(t, err)
	namer, ok := u.(patchbay.ChannelNamer)
	require.True(t, ok)
	assert.Equal(t, "Left", namer.InputChannelName(0))
	assert.Equal(t, "Right", namer.InputChannelName(1))
}

func TestDefaultDocument(t *testing.T) {
	m := graph.New(units.Factory{}, nil)
	require.NoError(t, m.Load(units.DefaultDocument()))
	assert.Equal(t, 3, m.NumNodes())
	x, y, ok := m.NodePosition(2)
	require.True(t, ok)
	assert.Equal(t, 0.3, x)
	assert.Equal(t, 0.2, y)
	d, ok := m.Descriptor(3)
	require.True(t, ok)
	assert.Equal(t, units.AudioOutput, d.Kind)
}

func process(t *testing.T, kind string, inputs [][]float32, msgs ...midi.Message) [][]float32 {
	t.Helper()
	u, err := units.Factory{}.NewUnit(patchbay.Descriptor{Kind: kind})
	require.NoError(t, err)
	frames := 8
	ctx := patchbay.ProcessContext{Frames: frames, Inputs: inputs, MIDIIn: msgs, SampleRate: 44100}
	for i := 0; i < u.NumOutputChannels(); i++ {
		ctx.Outputs = append(ctx.Outputs, make([]float32, frames))
	}
	u.(patchbay.Processor).Process(&ctx)
	return ctx.Outputs
}

func TestMixer(t *testing.T) {
	in := [][]float32{
		{1, 1, 1, 1, 1, 1, 1, 1},
		{2, 2, 2, 2, 2, 2, 2, 2},
		{3, 3, 3, 3, 3, 3, 3, 3},
		{4, 4, 4, 4, 4, 4, 4, 4},
	}
	out := process(t, units.Mixer, in)
	assert.Equal(t, float32(4), out[0][7])
	assert.Equal(t, float32(6), out[1][0])
}

func TestOscillatorFollowsNotes(t *testing.T) {
	out := process(t, units.Oscillator, nil)
	assert.Equal(t, make([]float32, 8), out[0])
	out = process(t, units.Oscillator, nil, midi.NoteOn(0, 81, 127))
	assert.NotEqual(t, make([]float32, 8), out[0])
	assert.Equal(t, out[0], out[1])
}
