// ABOUTME: Self-clocked playback scheduler
// ABOUTME: Drains a FIFO of raw audio payloads into gapless sequential playback
package player

import (
	"log"
	"sync"
	"time"

	"github.com/moonai/salestrainer-go/pkg/audio"
	"github.com/moonai/salestrainer-go/pkg/audio/output"
	"github.com/moonai/salestrainer-go/pkg/audio/resample"
)

// DefaultSettleDelay is the pause between segments; it masks clicking at
// segment boundaries
const DefaultSettleDelay = 10 * time.Millisecond

// Normalizer canonicalizes one raw payload into a playable buffer
type Normalizer interface {
	Normalize(data []byte) (audio.Buffer, error)
}

// Clock abstracts wall time so scheduling is testable
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Config holds scheduler configuration
type Config struct {
	// PlaybackRate speeds playback up; 1.0 is natural speed.
	// Rates below 1.0 are clamped to 1.0.
	PlaybackRate float64

	// SettleDelay between segments; DefaultSettleDelay when zero
	SettleDelay time.Duration

	// Clock defaults to wall time
	Clock Clock
}

// Stats tracks scheduler counters
type Stats struct {
	Received int64
	Played   int64
	Dropped  int64
}

// Scheduler plays decoded buffers back-to-back. Each segment starts at the
// later of "now" and the end of the previous segment, so playback never
// overlaps and never leaves a gap. The schedule resets once the queue fully
// drains; a later burst of audio starts fresh rather than inheriting stale
// timing.
type Scheduler struct {
	sink  output.Output
	norm  Normalizer
	clock Clock

	rate   float64
	settle time.Duration

	mu        sync.Mutex
	queue     [][]byte
	playing   bool
	stopped   bool
	nextStart time.Time
	stats     Stats

	decimators map[int]*resample.Decimator
}

// NewScheduler creates a scheduler feeding the given sink
func NewScheduler(sink output.Output, norm Normalizer, cfg Config) *Scheduler {
	rate := cfg.PlaybackRate
	if rate < 1.0 {
		rate = 1.0
	}
	settle := cfg.SettleDelay
	if settle == 0 {
		settle = DefaultSettleDelay
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}

	return &Scheduler{
		sink:       sink,
		norm:       norm,
		clock:      clock,
		rate:       rate,
		settle:     settle,
		decimators: make(map[int]*resample.Decimator),
	}
}

// Enqueue appends one raw payload and starts a drain run if none is active
func (s *Scheduler) Enqueue(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	s.queue = append(s.queue, payload)
	s.stats.Received++

	if !s.playing {
		s.playing = true
		go s.drain()
	}
}

// drain pops payloads in arrival order until the queue is empty
func (s *Scheduler) drain() {
	for {
		s.mu.Lock()
		if s.stopped || len(s.queue) == 0 {
			s.playing = false
			s.nextStart = time.Time{}
			s.mu.Unlock()
			return
		}
		payload := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.playOne(payload)

		s.clock.Sleep(s.settle)
	}
}

// playOne normalizes and plays a single payload. A payload that cannot be
// decoded is dropped; it never stalls the rest of the queue.
func (s *Scheduler) playOne(payload []byte) {
	buf, err := s.norm.Normalize(payload)
	if err != nil {
		log.Printf("Dropping undecodable audio frame: %v", err)
		s.mu.Lock()
		s.stats.Dropped++
		s.mu.Unlock()
		return
	}

	now := s.clock.Now()

	s.mu.Lock()
	start := now
	if s.nextStart.After(now) {
		start = s.nextStart
	}
	duration := time.Duration(float64(buf.Duration()) / s.rate)
	s.nextStart = start.Add(duration)
	s.mu.Unlock()

	if wait := start.Sub(now); wait > 0 {
		s.clock.Sleep(wait)
	}

	play := s.speedAdjust(buf)

	if err := s.sink.Open(play.SampleRate, 1); err != nil {
		log.Printf("Failed to open playback sink: %v", err)
		s.mu.Lock()
		s.stats.Dropped++
		s.mu.Unlock()
		return
	}
	if err := s.sink.Write(play.Samples); err != nil {
		log.Printf("Playback write failed: %v", err)
		return
	}

	s.mu.Lock()
	s.stats.Played++
	s.mu.Unlock()
}

// speedAdjust time-compresses a buffer for playback rates above 1.0 by
// decimating its samples while keeping the device rate unchanged
func (s *Scheduler) speedAdjust(buf audio.Buffer) audio.Buffer {
	if s.rate == 1.0 {
		return buf
	}

	target := int(float64(buf.SampleRate) / s.rate)
	dec, ok := s.decimators[buf.SampleRate]
	if !ok {
		var err error
		dec, err = resample.New(buf.SampleRate, target)
		if err != nil {
			log.Printf("Playback-rate resampler unavailable: %v", err)
			return buf
		}
		s.decimators[buf.SampleRate] = dec
	}

	return audio.Buffer{
		Samples:    dec.Resample(buf.Samples),
		SampleRate: buf.SampleRate,
	}
}

// ScheduledUntil returns the end of the currently scheduled playback, or the
// zero time when the queue has fully drained
func (s *Scheduler) ScheduledUntil() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextStart
}

// Stats returns a snapshot of the scheduler counters
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Stop halts playback, clears the queue and releases the sink. Safe to call
// more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.queue = nil
	s.nextStart = time.Time{}
	s.mu.Unlock()

	s.sink.Close()
}
