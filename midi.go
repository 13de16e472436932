package patchbay

import (
	"errors"

	"gitlab.com/gomidi/midi/v2"
)

type (
	// MIDIContext represents the MIDI input drivers.
	MIDIContext interface {
		InputDevices(yield func(MIDIDevice) bool)
		// TryToOpenBy opens the first input device whose name starts with
		// namePrefix, or the first device at all if takeFirst is set.
		TryToOpenBy(namePrefix string, takeFirst bool) error
		HasDeviceOpen() bool
		Close()
	}

	MIDIDevice interface {
		String() string
		Open() error
	}

	// MIDISink receives messages from the MIDI input. It must not block;
	// returns false if the message was dropped.
	MIDISink func(msg midi.Message) bool

	// NullMIDIContext is used when no MIDI drivers are available.
	NullMIDIContext struct{}
)

var ErrNoMIDIDriver = errors.New("no MIDI driver available")

func (NullMIDIContext) InputDevices(yield func(MIDIDevice) bool) {}

func (NullMIDIContext) TryToOpenBy(namePrefix string, takeFirst bool) error {
	if namePrefix == "" && !takeFirst {
		return nil
	}
	return ErrNoMIDIDriver
}

func (NullMIDIContext) HasDeviceOpen() bool { return false }
func (NullMIDIContext) Close()              {}
