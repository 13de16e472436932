package patchbay

import (
	"io"
)

type (
	// AudioBuffer is a buffer of stereo audio frames.
	AudioBuffer [][2]float32

	// AudioContext represents the low-level audio drivers. Play starts pulling
	// audio from the source until the returned Closer is closed.
	AudioContext interface {
		Play(source AudioSource) io.Closer
		Close() error
	}

	// AudioSource fills the given buffer completely with audio.
	AudioSource func(buf AudioBuffer) error
)

// Fill sets all the frames of the buffer to silence.
func (b AudioBuffer) Fill() {
	for i := range b {
		b[i] = [2]float32{}
	}
}

// Channel copies one channel of the buffer into dst, which must be at least
// as long as the buffer. Returns dst[:len(b)].
func (b AudioBuffer) Channel(ch int, dst []float32) []float32 {
	dst = dst[:len(b)]
	for i := range b {
		dst[i] = b[i][ch]
	}
	return dst
}

// Interleave appends the frames of the buffer as interleaved float32
// samples to dst.
func (b AudioBuffer) Interleave(dst []float32) []float32 {
	for _, f := range b {
		dst = append(dst, f[0], f[1])
	}
	return dst
}
