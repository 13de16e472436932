//go:build !cgo

package cmd

import (
	"github.com/vsariola/patchbay"
	"go.uber.org/zap"
)

func NewMIDIContext(sink patchbay.MIDISink, logger *zap.Logger) patchbay.MIDIContext {
	// with no cgo, we cannot use MIDI, so return a null context
	return patchbay.NullMIDIContext{}
}
