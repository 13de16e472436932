//go:build cgo

package cmd

import (
	"github.com/vsariola/patchbay"
	"github.com/vsariola/patchbay/gomidi"
	"go.uber.org/zap"
)

func NewMIDIContext(sink patchbay.MIDISink, logger *zap.Logger) patchbay.MIDIContext {
	return gomidi.NewContext(sink, logger)
}
