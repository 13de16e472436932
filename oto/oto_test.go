package oto

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsariola/patchbay"
)

func TestBufferToFloat32LE(t *testing.T) {
	buf := patchbay.AudioBuffer{{0.5, -2}, {float32(math.NaN()), 1}}
	b := BufferToFloat32LE(buf, nil)
	require.Len(t, b, 16)
	want := []float32{0.5, -1, 0, 1}
	for i, w := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
		assert.Equal(t, w, got, "sample %d", i)
	}
}

func TestSourceReaderPullsFromSource(t *testing.T) {
	calls := 0
	r := &sourceReader{
		source: func(buf patchbay.AudioBuffer) error {
			calls++
			for i := range buf {
				buf[i] = [2]float32{0.25, 0.25}
			}
			return nil
		},
		buffer: make(patchbay.AudioBuffer, maxFramesPerRead),
	}
	p := make([]byte, 12) // one frame and a half
	n, err := r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.Equal(t, 1, calls)
	n, err = r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 4, n, "the rest of the rendered frame is returned first")
	assert.Equal(t, 1, calls)
}

func TestSourceReaderStopsOnError(t *testing.T) {
	failure := errors.New("boom")
	r := &sourceReader{
		source: func(buf patchbay.AudioBuffer) error { return failure },
		buffer: make(patchbay.AudioBuffer, maxFramesPerRead),
	}
	_, err := r.Read(make([]byte, 64))
	assert.Equal(t, io.EOF, err)
	assert.ErrorIs(t, r.err, failure)
}
