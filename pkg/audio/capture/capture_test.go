// ABOUTME: Tests for the capture pipeline helpers
// ABOUTME: Covers chunking, sample conversion and acquisition error classification
package capture

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"testing"
	"time"
)

// fakeSender records sent chunks and toggles readiness
type fakeSender struct {
	mu    sync.Mutex
	ready bool
	sent  [][]byte
}

func (s *fakeSender) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *fakeSender) SendAudio(pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, pcm)
	return nil
}

// samplesToBytes builds a mono FormatF32 device buffer
func samplesToBytes(samples []float32) []byte {
	data := make([]byte, len(samples)*4)
	for i, v := range samples {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	return data
}

func TestChunker_EmitsFixedSizeChunks(t *testing.T) {
	ch := newChunker(4)

	chunks := ch.Push(make([]float32, 3))
	if len(chunks) != 0 {
		t.Fatalf("expected no chunk from 3 samples, got %d", len(chunks))
	}
	if ch.Pending() != 3 {
		t.Errorf("expected 3 pending samples, got %d", ch.Pending())
	}

	chunks = ch.Push(make([]float32, 6))
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks from 9 accumulated samples, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) != 4 {
			t.Errorf("chunk %d has %d samples, expected 4", i, len(chunk))
		}
	}
	if ch.Pending() != 1 {
		t.Errorf("expected 1 pending sample, got %d", ch.Pending())
	}
}

func TestChunker_PreservesOrder(t *testing.T) {
	ch := newChunker(2)

	chunks := ch.Push([]float32{1, 2, 3, 4, 5})
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0][0] != 1 || chunks[0][1] != 2 || chunks[1][0] != 3 || chunks[1][1] != 4 {
		t.Errorf("chunks out of order: %v", chunks)
	}
	if ch.Pending() != 1 {
		t.Errorf("expected the fifth sample pending, got %d pending", ch.Pending())
	}
}

func TestChunker_Reset(t *testing.T) {
	ch := newChunker(8)

	ch.Push(make([]float32, 5))
	ch.Reset()

	if ch.Pending() != 0 {
		t.Errorf("expected empty chunker after reset, got %d pending", ch.Pending())
	}
}

func TestBytesToFloat32(t *testing.T) {
	values := []float32{0.5, -0.25, 1.0}
	data := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}

	samples := bytesToFloat32(data, len(values))
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	for i, v := range values {
		if samples[i] != v {
			t.Errorf("sample %d: expected %f, got %f", i, v, samples[i])
		}
	}
}

func TestBytesToFloat32_TruncatedBuffer(t *testing.T) {
	// 6 bytes cannot hold 2 full samples; only the first is decoded
	data := make([]byte, 6)
	binary.LittleEndian.PutUint32(data, math.Float32bits(0.75))

	samples := bytesToFloat32(data, 2)
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample from truncated buffer, got %d", len(samples))
	}
	if samples[0] != 0.75 {
		t.Errorf("expected 0.75, got %f", samples[0])
	}
}

func TestClassifyInitError(t *testing.T) {
	cases := []struct {
		msg  string
		want error
	}{
		{"Access Denied", ErrPermissionDenied},
		{"operation requires permission", ErrPermissionDenied},
		{"No Device found", ErrNoDevice},
		{"device not found", ErrNoDevice},
		{"device busy", ErrDeviceBusy},
		{"resource in use", ErrDeviceBusy},
		{"something exploded", ErrBackendUnavailable},
	}

	for _, tc := range cases {
		got := classifyInitError(errors.New(tc.msg))
		if !errors.Is(got, tc.want) {
			t.Errorf("%q: expected %v, got %v", tc.msg, tc.want, got)
		}
	}
}

func TestNew_InvalidRates(t *testing.T) {
	if _, err := New(nil, Config{DeviceRate: 16000, TargetRate: 48000}); err == nil {
		t.Fatal("expected error for upsampling configuration")
	}
}

func TestOnSamples_CountsSentAndSkipped(t *testing.T) {
	sender := &fakeSender{}
	c, err := New(sender, Config{DeviceRate: 48000, TargetRate: 16000, ChunkSamples: 6})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	// Gate closed: the chunk is dropped, not buffered
	c.onSamples(samplesToBytes(make([]float32, 6)), 6)

	sent, skipped := c.Stats()
	if sent != 0 || skipped != 1 {
		t.Errorf("expected 0 sent / 1 skipped, got %d / %d", sent, skipped)
	}

	sender.mu.Lock()
	sender.ready = true
	sender.mu.Unlock()

	c.onSamples(samplesToBytes(make([]float32, 12)), 12)

	sent, skipped = c.Stats()
	if sent != 2 || skipped != 1 {
		t.Errorf("expected 2 sent / 1 skipped, got %d / %d", sent, skipped)
	}
	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.sent) != 2 {
		t.Errorf("expected 2 delivered chunks, got %d", len(sender.sent))
	}
}

func TestStop_DoesNotBlockAgainstCallback(t *testing.T) {
	sender := &fakeSender{ready: true}
	c, err := New(sender, Config{DeviceRate: 48000, TargetRate: 16000, ChunkSamples: 6})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	// Hammer the device callback path from another goroutine while Stop and
	// Stats run, the way a live device delivers buffers during teardown
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := samplesToBytes(make([]float32, 6))
		for {
			select {
			case <-stop:
				return
			default:
				c.onSamples(buf, 6)
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			c.Stats()
			c.Stop()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop deadlocked against the audio callback path")
	}

	close(stop)
	wg.Wait()
}
