// ABOUTME: Inbound audio normalizer
// ABOUTME: Canonicalizes payloads of unknown format into playable mono buffers
package decode

import (
	"fmt"
	"log"

	"github.com/moonai/salestrainer-go/pkg/audio"
)

// Normalizer turns inbound audio payloads of a-priori unknown format into
// decoded buffers. Attempts run in a fixed order, first success wins:
//
//  1. MP3 (self-describing, carries its own sample rate)
//  2. Opus single frame
//  3. Raw 16-bit LE mono PCM with a candidate sample-rate list
//
// A payload no attempt can decode is dropped; the caller continues with the
// next queued payload.
type Normalizer struct {
	mp3  *MP3
	opus *Opus
	pcm  *RawPCM16
}

// NewNormalizer creates a normalizer with the default trial chain.
// The Opus trial is skipped if the codec cannot be initialized.
func NewNormalizer() *Normalizer {
	n := &Normalizer{
		mp3: NewMP3(),
		pcm: NewRawPCM16(nil),
	}

	opusDec, err := NewOpus()
	if err != nil {
		log.Printf("Opus trial decoder unavailable: %v", err)
	} else {
		n.opus = opusDec
	}

	return n
}

// Normalize decodes one payload, trying each format in order
func (n *Normalizer) Normalize(data []byte) (audio.Buffer, error) {
	if len(data) == 0 {
		return audio.Buffer{}, fmt.Errorf("empty audio payload")
	}

	if buf, err := n.mp3.Decode(data); err == nil {
		return buf, nil
	}

	if n.opus != nil {
		if buf, err := n.opus.Decode(data); err == nil {
			return buf, nil
		}
	}

	buf, err := n.pcm.Decode(data)
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("payload not decodable as mp3, opus or raw pcm16: %w", err)
	}
	return buf, nil
}

// Close releases all trial decoders
func (n *Normalizer) Close() error {
	n.mp3.Close()
	if n.opus != nil {
		n.opus.Close()
	}
	n.pcm.Close()
	return nil
}
