// Package gomidi reads MIDI input devices with the rtmidi driver of
// gitlab.com/gomidi/midi/v2 and forwards the messages to a MIDISink, usually
// the audio engine. The rtmidi driver needs cgo.
package gomidi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vsariola/patchbay"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"go.uber.org/zap"
)

type (
	RTMIDIContext struct {
		driver             *rtmididrv.Driver
		currentIn          drivers.In
		stop               func()
		inputDevices       []RTMIDIDevice
		devicesInitialized bool
		sink               patchbay.MIDISink
		logger             *zap.Logger
	}

	RTMIDIDevice struct {
		context *RTMIDIContext
		in      drivers.In
	}
)

// NewContext opens the driver. If that fails, the context has no devices.
func NewContext(sink patchbay.MIDISink, logger *zap.Logger) *RTMIDIContext {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := RTMIDIContext{sink: sink, logger: logger}
	var err error
	if m.driver, err = rtmididrv.New(); err != nil {
		logger.Warn("MIDI driver unavailable", zap.Error(err))
		m.driver = nil
	}
	return &m
}

func (m *RTMIDIContext) InputDevices(yield func(patchbay.MIDIDevice) bool) {
	if m.devicesInitialized {
		m.yieldCachedInputDevices(yield)
	} else {
		m.initInputDevices(yield)
	}
}

func (m *RTMIDIContext) yieldCachedInputDevices(yield func(patchbay.MIDIDevice) bool) {
	for _, device := range m.inputDevices {
		if !yield(device) {
			break
		}
	}
}

func (m *RTMIDIContext) initInputDevices(yield func(patchbay.MIDIDevice) bool) {
	if m.driver == nil {
		return
	}
	ins, err := m.driver.Ins()
	if err != nil {
		m.logger.Warn("could not list MIDI inputs", zap.Error(err))
		return
	}
	m.inputDevices = m.inputDevices[:0]
	for _, in := range ins {
		m.inputDevices = append(m.inputDevices, RTMIDIDevice{context: m, in: in})
	}
	m.devicesInitialized = true
	m.yieldCachedInputDevices(yield)
}

// Open an input device while closing the currently open if necessary.
func (d RTMIDIDevice) Open() error {
	c := d.context
	if c.currentIn == d.in {
		return nil
	}
	if c.driver == nil {
		return patchbay.ErrNoMIDIDriver
	}
	c.closeCurrent()
	if err := d.in.Open(); err != nil {
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	stop, err := midi.ListenTo(d.in, c.HandleMessage)
	if err != nil {
		d.in.Close()
		return fmt.Errorf("listening to MIDI input failed: %w", err)
	}
	c.currentIn = d.in
	c.stop = stop
	c.logger.Info("MIDI input opened", zap.String("device", d.in.String()))
	return nil
}

func (d RTMIDIDevice) String() string {
	return d.in.String()
}

func (c *RTMIDIContext) closeCurrent() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	if c.currentIn != nil && c.currentIn.IsOpen() {
		c.currentIn.Close()
	}
	c.currentIn = nil
}

func (c *RTMIDIContext) Close() {
	if c.driver == nil {
		return
	}
	c.closeCurrent()
	c.driver.Close()
}

func (c *RTMIDIContext) HasDeviceOpen() bool {
	return c.currentIn != nil && c.currentIn.IsOpen()
}

func (c *RTMIDIContext) TryToOpenBy(namePrefix string, takeFirst bool) error {
	if namePrefix == "" && !takeFirst {
		return nil
	}
	if c.driver == nil {
		return patchbay.ErrNoMIDIDriver
	}
	for input := range c.InputDevices {
		if takeFirst || strings.HasPrefix(input.String(), namePrefix) {
			return input.Open()
		}
	}
	if takeFirst {
		return errors.New("could not find any MIDI input")
	}
	return fmt.Errorf("could not find any MIDI input starting with %q", namePrefix)
}

// HandleMessage is called on the driver goroutine. Only channel voice
// messages the units understand are forwarded; if the sink is full, the
// message is dropped.
func (c *RTMIDIContext) HandleMessage(msg midi.Message, timestampms int32) {
	if !forwarded(msg) {
		return
	}
	if !c.sink(msg) {
		c.logger.Debug("MIDI message dropped", zap.Stringer("msg", msg))
	}
}

func forwarded(msg midi.Message) bool {
	var channel, key, value uint8
	return msg.GetNoteOn(&channel, &key, &value) ||
		msg.GetNoteOff(&channel, &key, &value) ||
		msg.GetControlChange(&channel, &key, &value)
}
