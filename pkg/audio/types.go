// ABOUTME: Audio type definitions
// ABOUTME: Defines stream formats, decoded buffers and PCM16 sample conversions
package audio

import "time"

const (
	// MaxPCM16 and MinPCM16 bound the 16-bit signed sample range
	MaxPCM16 = 32767
	MinPCM16 = -32768

	// PCM16Scale is the divisor used when converting PCM16 to float samples
	PCM16Scale = 32768.0
)

// Format describes a PCM audio stream format
type Format struct {
	SampleRate int
	Channels   int
}

// Buffer represents decoded mono PCM audio as float samples in [-1, 1]
type Buffer struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the playback duration of the buffer
func (b Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(b.Samples)) / float64(b.SampleRate) * float64(time.Second))
}

// SampleToPCM16 converts a float sample to int16, clamping to [-1, 1] before scaling
func SampleToPCM16(s float32) int16 {
	if s > 1.0 {
		s = 1.0
	} else if s < -1.0 {
		s = -1.0
	}
	return int16(s * MaxPCM16)
}

// SampleFromPCM16 converts an int16 sample to a float sample in [-1, 1)
func SampleFromPCM16(s int16) float32 {
	return float32(s) / PCM16Scale
}
