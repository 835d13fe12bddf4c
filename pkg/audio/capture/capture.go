// ABOUTME: Malgo-based microphone capture pipeline
// ABOUTME: Accumulates fixed-size chunks, downsamples and streams them to a sender
package capture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/moonai/salestrainer-go/pkg/audio/encode"
	"github.com/moonai/salestrainer-go/pkg/audio/resample"
)

const (
	// DefaultDeviceRate is the capture rate requested from the device
	DefaultDeviceRate = 48000

	// DefaultTargetRate is the rate the remote agent expects
	DefaultTargetRate = 16000

	// DefaultChunkSamples is the number of device-rate samples gathered
	// before a chunk is downsampled and sent
	DefaultChunkSamples = 4096
)

// Microphone acquisition failures, classified so the UI can tell the user
// what to fix
var (
	ErrPermissionDenied   = errors.New("microphone access denied")
	ErrNoDevice           = errors.New("no microphone found")
	ErrDeviceBusy         = errors.New("microphone is in use by another application")
	ErrBackendUnavailable = errors.New("audio backend unavailable")
)

// Sender receives encoded microphone chunks. Chunks are only sent while the
// sender reports ready.
type Sender interface {
	Ready() bool
	SendAudio(pcm []byte) error
}

// Config holds capture configuration
type Config struct {
	// DeviceRate requested from the microphone; DefaultDeviceRate when zero
	DeviceRate int

	// TargetRate of the outbound stream; DefaultTargetRate when zero
	TargetRate int

	// ChunkSamples per outbound chunk at the device rate;
	// DefaultChunkSamples when zero
	ChunkSamples int
}

// Capture owns the microphone device and streams downsampled PCM16 chunks
// to a sender for as long as it runs
type Capture struct {
	sender Sender
	cfg    Config

	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	running  bool

	chunker *chunker
	dec     *resample.Decimator

	// Counters are atomics because the audio callback bumps them while
	// Stop holds c.mu waiting for that same callback to return
	sent    atomic.Int64
	skipped atomic.Int64
}

// New creates a capture pipeline feeding the given sender
func New(sender Sender, cfg Config) (*Capture, error) {
	if cfg.DeviceRate == 0 {
		cfg.DeviceRate = DefaultDeviceRate
	}
	if cfg.TargetRate == 0 {
		cfg.TargetRate = DefaultTargetRate
	}
	if cfg.ChunkSamples == 0 {
		cfg.ChunkSamples = DefaultChunkSamples
	}

	dec, err := resample.New(cfg.DeviceRate, cfg.TargetRate)
	if err != nil {
		return nil, fmt.Errorf("capture resampler: %w", err)
	}

	return &Capture{
		sender:  sender,
		cfg:     cfg,
		chunker: newChunker(cfg.ChunkSamples),
		dec:     dec,
	}, nil
}

// Start acquires the microphone and begins streaming. Acquisition failures
// are classified into the exported sentinel errors.
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	c.malgoCtx = malgoCtx

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(c.cfg.DeviceRate)
	deviceConfig.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, pInputSamples []byte, frameCount uint32) {
			c.onSamples(pInputSamples, frameCount)
		},
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		c.teardownLocked()
		return classifyInitError(err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		c.teardownLocked()
		return classifyInitError(err)
	}

	c.device = device
	c.running = true

	log.Printf("Microphone capture started: %dHz -> %dHz, %d-sample chunks",
		c.cfg.DeviceRate, c.cfg.TargetRate, c.cfg.ChunkSamples)

	return nil
}

// onSamples runs on the audio thread; it accumulates samples and ships
// complete chunks. It must never take c.mu: the device's Stop blocks until
// this callback returns.
func (c *Capture) onSamples(data []byte, frameCount uint32) {
	samples := bytesToFloat32(data, int(frameCount))

	for _, chunk := range c.chunker.Push(samples) {
		if !c.sender.Ready() {
			c.skipped.Add(1)
			continue
		}

		pcm := encode.PCM16(c.dec.Resample(chunk))
		if err := c.sender.SendAudio(pcm); err != nil {
			// Fire and forget: a failed send never stops capture
			log.Printf("Failed to send microphone chunk: %v", err)
			continue
		}

		c.sent.Add(1)
	}
}

// Running reports whether the microphone is currently streaming
func (c *Capture) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Stats returns the sent and skipped chunk counters
func (c *Capture) Stats() (sent, skipped int64) {
	return c.sent.Load(), c.skipped.Load()
}

// Stop releases the microphone. Safe to call more than once.
// The device is stopped after c.mu is released: stopping blocks until the
// in-flight audio callback returns, so holding the mutex here would deadlock
// against anything the callback path locks.
func (c *Capture) Stop() {
	c.mu.Lock()
	device := c.device
	malgoCtx := c.malgoCtx
	wasRunning := c.running
	c.device = nil
	c.malgoCtx = nil
	c.running = false
	c.mu.Unlock()

	if device == nil && malgoCtx == nil {
		return
	}

	if device != nil {
		if err := device.Stop(); err != nil {
			log.Printf("Warning: capture device stop error: %v", err)
		}
		device.Uninit()
	}

	if malgoCtx != nil {
		if err := malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		malgoCtx.Free()
	}

	c.chunker.Reset()

	if wasRunning {
		log.Printf("Microphone capture stopped")
	}
}

// teardownLocked releases the malgo context (must hold c.mu)
func (c *Capture) teardownLocked() {
	if c.malgoCtx != nil {
		if err := c.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		c.malgoCtx.Free()
		c.malgoCtx = nil
	}
}

// classifyInitError maps a backend failure onto one of the sentinel errors
// so callers can explain the problem to the user
func classifyInitError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "access denied") || strings.Contains(msg, "permission"):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	case strings.Contains(msg, "no device") || strings.Contains(msg, "device not found"):
		return fmt.Errorf("%w: %v", ErrNoDevice, err)
	case strings.Contains(msg, "busy") || strings.Contains(msg, "in use"):
		return fmt.Errorf("%w: %v", ErrDeviceBusy, err)
	default:
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
}

// bytesToFloat32 reinterprets a mono FormatF32 capture buffer
func bytesToFloat32(data []byte, frameCount int) []float32 {
	samples := make([]float32, 0, frameCount)
	for i := 0; i+4 <= len(data) && len(samples) < frameCount; i += 4 {
		bits := binary.LittleEndian.Uint32(data[i:])
		samples = append(samples, math.Float32frombits(bits))
	}
	return samples
}

// chunker accumulates samples and emits fixed-size chunks
type chunker struct {
	size int

	mu  sync.Mutex
	buf []float32
}

func newChunker(size int) *chunker {
	return &chunker{size: size}
}

// Push appends samples and returns every complete chunk now available
func (ch *chunker) Push(samples []float32) [][]float32 {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.buf = append(ch.buf, samples...)

	var chunks [][]float32
	for len(ch.buf) >= ch.size {
		chunk := make([]float32, ch.size)
		copy(chunk, ch.buf[:ch.size])
		ch.buf = ch.buf[ch.size:]
		chunks = append(chunks, chunk)
	}
	return chunks
}

// Pending returns the number of buffered samples not yet forming a chunk
func (ch *chunker) Pending() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return len(ch.buf)
}

// Reset discards any partial chunk
func (ch *chunker) Reset() {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.buf = nil
}
