// ABOUTME: Opus trial decoder
// ABOUTME: Decodes single Opus frames at 48 kHz mono
package decode

import (
	"fmt"

	"gopkg.in/hraban/opus.v2"

	"github.com/moonai/salestrainer-go/pkg/audio"
)

const (
	opusSampleRate = 48000
	opusChannels   = 1

	// Largest frame Opus allows at 48 kHz: 120 ms
	opusMaxFrameSamples = 5760

	// RFC 6716 caps an Opus packet at 1275 bytes; anything larger is
	// some other format and must fall through to the PCM trial
	opusMaxPacketBytes = 1275
)

// Opus decodes raw Opus frames. The remote protocol never negotiates a
// codec, so this runs as a trial between the MP3 and raw-PCM attempts.
type Opus struct {
	decoder *opus.Decoder
}

// NewOpus creates an Opus decoder
func NewOpus() (*Opus, error) {
	dec, err := opus.NewDecoder(opusSampleRate, opusChannels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}
	return &Opus{decoder: dec}, nil
}

// Decode converts one Opus frame to a mono buffer
func (d *Opus) Decode(data []byte) (audio.Buffer, error) {
	if len(data) == 0 {
		return audio.Buffer{}, fmt.Errorf("empty opus payload")
	}
	if len(data) > opusMaxPacketBytes {
		return audio.Buffer{}, fmt.Errorf("payload of %d bytes exceeds the opus packet limit", len(data))
	}

	pcm16 := make([]int16, opusMaxFrameSamples*opusChannels)
	n, err := d.decoder.Decode(data, pcm16)
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("opus decode failed: %w", err)
	}

	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		samples[i] = audio.SampleFromPCM16(pcm16[i])
	}

	return audio.Buffer{
		Samples:    samples,
		SampleRate: opusSampleRate,
	}, nil
}

// Close releases decoder resources
func (d *Opus) Close() error {
	return nil
}
