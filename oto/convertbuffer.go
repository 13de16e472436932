package oto

import (
	"encoding/binary"
	"math"

	"github.com/vsariola/patchbay"
)

// BufferToFloat32LE appends the frames as interleaved little-endian float32
// samples to dst, clamping them into [-1,1]. NaNs are written as silence.
func BufferToFloat32LE(buf patchbay.AudioBuffer, dst []byte) []byte {
	for _, f := range buf {
		for _, v := range f {
			switch {
			case v != v:
				v = 0
			case v < -1:
				v = -1
			case v > 1:
				v = 1
			}
			dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
		}
	}
	return dst
}
