// ABOUTME: MP3 trial decoder
// ABOUTME: Decodes MP3 payloads to mono float samples using the stream's own sample rate
package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"

	"github.com/moonai/salestrainer-go/pkg/audio"
)

// MP3 decodes self-describing MP3 payloads. The sample rate comes from the
// stream metadata, so no rate guessing is needed on this path.
type MP3 struct{}

// NewMP3 creates an MP3 decoder
func NewMP3() *MP3 {
	return &MP3{}
}

// Decode converts an MP3 payload to a mono buffer. go-mp3 always emits
// 16-bit stereo frames; the two channels are averaged down to mono.
func (d *MP3) Decode(data []byte) (audio.Buffer, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("not an mp3 payload: %w", err)
	}

	pcm, err := io.ReadAll(dec)
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("mp3 decode failed: %w", err)
	}

	// 4 bytes per stereo frame: L int16, R int16
	frames := len(pcm) / 4
	if frames == 0 {
		return audio.Buffer{}, fmt.Errorf("mp3 payload produced no frames")
	}

	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		left := int16(binary.LittleEndian.Uint16(pcm[i*4:]))
		right := int16(binary.LittleEndian.Uint16(pcm[i*4+2:]))
		samples[i] = (audio.SampleFromPCM16(left) + audio.SampleFromPCM16(right)) / 2
	}

	return audio.Buffer{
		Samples:    samples,
		SampleRate: dec.SampleRate(),
	}, nil
}

// Close releases decoder resources
func (d *MP3) Close() error {
	return nil
}
