// ABOUTME: Raw PCM16 fallback decoder
// ABOUTME: Interprets headerless payloads as 16-bit LE mono PCM with a guessed sample rate
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/moonai/salestrainer-go/pkg/audio"
)

// Sample rates a playback device can be opened at. Headerless PCM carries
// no rate metadata, so candidates outside this range are rejected.
const (
	minPlayableRate = 8000
	maxPlayableRate = 192000
)

// DefaultSampleRates is the candidate order for headerless PCM payloads.
// The order matters: downstream pitch correctness depends on it, and the
// first playable candidate wins.
var DefaultSampleRates = []int{24000, 22050, 44100, 16000}

// RawPCM16 decodes a headerless payload as 16-bit little-endian mono PCM.
// The payload must contain a whole number of samples; the sample rate is
// taken from the first candidate that a playback buffer can be allocated at.
type RawPCM16 struct {
	candidateRates []int
}

// NewRawPCM16 creates a raw PCM decoder with the given candidate rates.
// Passing nil uses DefaultSampleRates.
func NewRawPCM16(candidateRates []int) *RawPCM16 {
	if len(candidateRates) == 0 {
		candidateRates = DefaultSampleRates
	}
	return &RawPCM16{candidateRates: candidateRates}
}

// Decode converts raw PCM16 bytes to a mono buffer
func (d *RawPCM16) Decode(data []byte) (audio.Buffer, error) {
	if len(data) == 0 {
		return audio.Buffer{}, fmt.Errorf("empty pcm payload")
	}

	if len(data)%2 != 0 {
		return audio.Buffer{}, fmt.Errorf("pcm payload length %d is not a whole number of 16-bit samples", len(data))
	}

	rate, err := d.pickRate()
	if err != nil {
		return audio.Buffer{}, err
	}

	numSamples := len(data) / 2
	samples := make([]float32, numSamples)
	for i := 0; i < numSamples; i++ {
		s16 := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = audio.SampleFromPCM16(s16)
	}

	return audio.Buffer{
		Samples:    samples,
		SampleRate: rate,
	}, nil
}

// pickRate returns the first candidate rate a playback buffer can use
func (d *RawPCM16) pickRate() (int, error) {
	for _, rate := range d.candidateRates {
		if rate >= minPlayableRate && rate <= maxPlayableRate {
			return rate, nil
		}
	}
	return 0, fmt.Errorf("no playable sample rate among candidates %v", d.candidateRates)
}

// Close releases decoder resources
func (d *RawPCM16) Close() error {
	return nil
}
