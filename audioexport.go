package patchbay

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

type (
	// riffHeader and fmtChunk follow the WAVE layout at
	// http://www-mmsp.ece.mcgill.ca/Documents/AudioFormats/WAVE/WAVE.html
	riffHeader struct {
		ID     [4]byte
		Size   uint32
		Format [4]byte
	}

	fmtChunk struct {
		ID            [4]byte
		Size          uint32
		AudioFormat   uint16
		Channels      uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
	}

	chunkHeader struct {
		ID   [4]byte
		Size uint32
	}
)

const (
	wavePCM   = 1
	waveFloat = 3
)

// Wav converts the stereo buffer into a .wav file, either as float32 samples
// or, if pcm16 is set, as 16-bit signed integers.
func (b AudioBuffer) Wav(pcm16 bool, sampleRate int) ([]byte, error) {
	var buf bytes.Buffer
	if err := b.WriteWav(&buf, pcm16, sampleRate); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Raw converts the stereo buffer into interleaved little-endian samples with
// no header.
func (b AudioBuffer) Raw(pcm16 bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := b.writeSamples(&buf, pcm16); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteWav writes the buffer as a .wav file. Float files carry the fact
// chunk and the extension size field that non-PCM formats require.
func (b AudioBuffer) WriteWav(w io.Writer, pcm16 bool, sampleRate int) error {
	const channels = 2
	bytesPerSample := 4
	format := uint16(waveFloat)
	if pcm16 {
		bytesPerSample = 2
		format = wavePCM
	}
	dataSize := uint32(len(b) * channels * bytesPerSample)
	f := fmtChunk{
		ID:            [4]byte{'f', 'm', 't', ' '},
		Size:          16,
		AudioFormat:   format,
		Channels:      channels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * channels * bytesPerSample),
		BlockAlign:    uint16(channels * bytesPerSample),
		BitsPerSample: uint16(8 * bytesPerSample),
	}
	var extra []any
	if !pcm16 {
		f.Size = 18
		extra = append(extra, uint16(0), chunkHeader{ID: [4]byte{'f', 'a', 'c', 't'}, Size: 4}, uint32(len(b)))
	}
	size := 4 + 8 + f.Size + 8 + dataSize
	if !pcm16 {
		size += 12 // fact chunk
	}
	parts := []any{riffHeader{ID: [4]byte{'R', 'I', 'F', 'F'}, Size: size, Format: [4]byte{'W', 'A', 'V', 'E'}}, f}
	parts = append(parts, extra...)
	parts = append(parts, chunkHeader{ID: [4]byte{'d', 'a', 't', 'a'}, Size: dataSize})
	for _, p := range parts {
		if err := binary.Write(w, binary.LittleEndian, p); err != nil {
			return fmt.Errorf("could not write wav header: %w", err)
		}
	}
	return b.writeSamples(w, pcm16)
}

func (b AudioBuffer) writeSamples(w io.Writer, pcm16 bool) error {
	var data any = b
	if pcm16 {
		ints := make([][2]int16, len(b))
		for i, f := range b {
			ints[i] = [2]int16{toInt16(f[0]), toInt16(f[1])}
		}
		data = ints
	}
	if err := binary.Write(w, binary.LittleEndian, data); err != nil {
		return fmt.Errorf("could not write samples: %w", err)
	}
	return nil
}

func toInt16(v float32) int16 {
	if v != v {
		return 0
	}
	return int16(min(max(float64(v)*math.MaxInt16, math.MinInt16), math.MaxInt16))
}
