// ABOUTME: Tests for audio type conversions
// ABOUTME: Covers PCM16 sample conversion, clamping and buffer duration
package audio

import (
	"testing"
	"time"
)

func TestSampleToPCM16(t *testing.T) {
	if got := SampleToPCM16(0); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}

	if got := SampleToPCM16(1.0); got != MaxPCM16 {
		t.Errorf("expected %d for full-scale sample, got %d", MaxPCM16, got)
	}

	if got := SampleToPCM16(-1.0); got != -MaxPCM16 {
		t.Errorf("expected %d for negative full-scale sample, got %d", -MaxPCM16, got)
	}

	if got := SampleToPCM16(0.5); got != 16383 {
		t.Errorf("expected 16383 for half-scale sample, got %d", got)
	}
}

func TestSampleToPCM16_Clamping(t *testing.T) {
	// Samples beyond [-1, 1] must clamp, not wrap
	if got := SampleToPCM16(2.5); got != MaxPCM16 {
		t.Errorf("expected clamp to %d, got %d", MaxPCM16, got)
	}

	if got := SampleToPCM16(-3.0); got != -MaxPCM16 {
		t.Errorf("expected clamp to %d, got %d", -MaxPCM16, got)
	}
}

func TestSampleFromPCM16(t *testing.T) {
	if got := SampleFromPCM16(0); got != 0 {
		t.Errorf("expected 0, got %f", got)
	}

	// PCM16 decode divides by 32768
	if got := SampleFromPCM16(16384); got != 0.5 {
		t.Errorf("expected 0.5, got %f", got)
	}

	if got := SampleFromPCM16(MinPCM16); got != -1.0 {
		t.Errorf("expected -1.0, got %f", got)
	}
}

func TestBufferDuration(t *testing.T) {
	buf := Buffer{
		Samples:    make([]float32, 24000),
		SampleRate: 24000,
	}

	if got := buf.Duration(); got != time.Second {
		t.Errorf("expected 1s, got %v", got)
	}

	half := Buffer{
		Samples:    make([]float32, 8000),
		SampleRate: 16000,
	}

	if got := half.Duration(); got != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %v", got)
	}
}

func TestBufferDuration_ZeroRate(t *testing.T) {
	buf := Buffer{Samples: make([]float32, 100)}

	if got := buf.Duration(); got != 0 {
		t.Errorf("expected 0 for zero sample rate, got %v", got)
	}
}
