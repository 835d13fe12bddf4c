// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for format-specific trial decoders
package decode

import "github.com/moonai/salestrainer-go/pkg/audio"

// Decoder decodes one audio payload into a mono float buffer
type Decoder interface {
	// Decode converts an encoded payload to a playable buffer
	Decode(data []byte) (audio.Buffer, error)

	// Close releases decoder resources
	Close() error
}
