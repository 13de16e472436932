// Package oto plays the audio of a patchbay.AudioSource through the sound
// card using github.com/ebitengine/oto/v3.
package oto

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/vsariola/patchbay"
)

type (
	OtoContext struct {
		context    *oto.Context
		sampleRate int
	}

	OtoOutput struct {
		player *oto.Player
		reader *sourceReader
	}

	// sourceReader adapts an AudioSource to the io.Reader oto pulls from.
	sourceReader struct {
		source  patchbay.AudioSource
		buffer  patchbay.AudioBuffer
		pending []byte
		mu      sync.Mutex
		err     error
	}
)

const (
	bytesPerFrame = 8
	// maxFramesPerRead bounds how much audio is rendered ahead at once.
	maxFramesPerRead = 1024
)

// NewContext opens the default audio device.
func NewContext(sampleRate int) (*OtoContext, error) {
	context, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &OtoContext{context: context, sampleRate: sampleRate}, nil
}

func (c *OtoContext) SampleRate() int { return c.sampleRate }

// Play starts pulling audio from the source on the oto goroutine.
func (c *OtoContext) Play(source patchbay.AudioSource) io.Closer {
	r := &sourceReader{source: source, buffer: make(patchbay.AudioBuffer, maxFramesPerRead)}
	p := c.context.NewPlayer(r)
	p.Play()
	return &OtoOutput{player: p, reader: r}
}

func (c *OtoContext) Close() error {
	if err := c.context.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

// Close stops the playback. Returns the first error the source returned, if
// any.
func (o *OtoOutput) Close() error {
	o.player.Pause()
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	o.reader.mu.Lock()
	defer o.reader.mu.Unlock()
	return o.reader.err
}

func (r *sourceReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, io.EOF
	}
	if len(r.pending) == 0 {
		frames := min(max(len(p)/bytesPerFrame, 1), maxFramesPerRead)
		buf := r.buffer[:frames]
		if err := r.source(buf); err != nil {
			r.err = err
			if errors.Is(err, io.EOF) {
				r.err = nil
			}
			return 0, io.EOF
		}
		r.pending = BufferToFloat32LE(buf, r.pending[:0])
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}
