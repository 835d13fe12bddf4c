// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for playback backends
package output

// Output represents an audio playback device
type Output interface {
	// Open initializes the output device for the given format
	Open(sampleRate, channels int) error

	// Write outputs float samples (blocks until consumed)
	Write(samples []float32) error

	// Close releases output resources
	Close() error
}
