// ABOUTME: PCM16 audio encoder
// ABOUTME: Encodes float32 samples to 16-bit little-endian PCM bytes
package encode

import (
	"encoding/binary"

	"github.com/moonai/salestrainer-go/pkg/audio"
)

// PCM16 converts float samples to 16-bit signed little-endian PCM.
// Samples are clamped to [-1, 1] before scaling.
func PCM16(samples []float32) []byte {
	output := make([]byte, len(samples)*2)
	for i, sample := range samples {
		s16 := audio.SampleToPCM16(sample)
		binary.LittleEndian.PutUint16(output[i*2:], uint16(s16))
	}
	return output
}
