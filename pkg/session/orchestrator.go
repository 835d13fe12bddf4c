// ABOUTME: Session orchestrator tying the backend, socket, mic and speaker together
// ABOUTME: Runs one rehearsal call at a time from creation through scoring
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/moonai/salestrainer-go/pkg/audio/capture"
	"github.com/moonai/salestrainer-go/pkg/audio/decode"
	"github.com/moonai/salestrainer-go/pkg/audio/output"
	"github.com/moonai/salestrainer-go/pkg/player"
	"github.com/moonai/salestrainer-go/pkg/protocol"
	"github.com/moonai/salestrainer-go/pkg/transcript"
)

var (
	// ErrSessionActive is returned when a rehearsal call is already running
	ErrSessionActive = errors.New("a session is already active")

	// ErrNoSession is returned when there is nothing to complete
	ErrNoSession = errors.New("no session to complete")

	// ErrCallActive is returned when scoring is requested while the stream
	// is still live
	ErrCallActive = errors.New("call is still active, stop it before scoring")

	// ErrEmptyTranscript is returned when a call produced no conversation
	// worth scoring
	ErrEmptyTranscript = errors.New("transcript is empty, nothing to score")
)

// Backend is the slice of the REST API the orchestrator needs
type Backend interface {
	CreateSession(ctx context.Context, form Form) (*Session, error)
	CompleteSession(ctx context.Context, id int64, conversationLog string) (*Session, error)
}

// Capturer streams microphone audio for the duration of a call
type Capturer interface {
	Start() error
	Stop()
}

// CaptureFactory builds a capturer feeding the given sender
type CaptureFactory func(sender capture.Sender) (Capturer, error)

// defaultCaptureFactory opens the real microphone
func defaultCaptureFactory(sender capture.Sender) (Capturer, error) {
	return capture.New(sender, capture.Config{})
}

// Config holds orchestrator configuration
type Config struct {
	// Source and Version identify this client in the stream handshake
	Source  string
	Version string

	// PlaybackRate for agent audio; 1.0 when zero
	PlaybackRate float64

	// Sink for agent audio; a real speaker when nil
	Sink output.Output

	// NewCapture builds the microphone pipeline; the real device when nil
	NewCapture CaptureFactory

	// OnTranscript is called for every transcript fragment as it arrives
	OnTranscript func(transcript.Entry)

	// OnStateChange is called on stream state transitions
	OnStateChange func(protocol.State)

	// OnError is called for recoverable stream errors
	OnError func(error)
}

// Orchestrator drives one rehearsal call at a time: it creates the session,
// opens the audio stream, pipes the mic out and agent audio in, and collects
// the transcript for scoring
type Orchestrator struct {
	api Backend
	cfg Config

	log *transcript.Log

	mu       sync.Mutex
	active   bool
	session  *Session
	client   *protocol.Client
	mic      Capturer
	sched    *player.Scheduler
	stopOnce *sync.Once
	pumps    sync.WaitGroup
}

// NewOrchestrator creates an orchestrator against the given backend
func NewOrchestrator(api Backend, cfg Config) *Orchestrator {
	if cfg.Source == "" {
		cfg.Source = "salestrainer-go"
	}
	if cfg.NewCapture == nil {
		cfg.NewCapture = defaultCaptureFactory
	}

	return &Orchestrator{
		api: api,
		cfg: cfg,
		log: transcript.New(),
	}
}

// Start creates a session on the backend and brings up the full audio loop.
// Only one session can run at a time.
func (o *Orchestrator) Start(ctx context.Context, form Form) (*Session, error) {
	o.mu.Lock()
	if o.active {
		o.mu.Unlock()
		return nil, ErrSessionActive
	}
	o.active = true
	o.mu.Unlock()

	sess, err := o.start(ctx, form)
	if err != nil {
		o.mu.Lock()
		o.active = false
		o.mu.Unlock()
		return nil, err
	}
	return sess, nil
}

func (o *Orchestrator) start(ctx context.Context, form Form) (*Session, error) {
	sess, err := o.api.CreateSession(ctx, form)
	if err != nil {
		return nil, err
	}

	o.log.Reset()
	if form.FirstMessage != "" {
		o.log.Append(transcript.SpeakerAgent, form.FirstMessage)
	}

	sink := o.cfg.Sink
	if sink == nil {
		sink = output.NewOto()
	}
	sched := player.NewScheduler(sink, decode.NewNormalizer(), player.Config{
		PlaybackRate: o.cfg.PlaybackRate,
	})

	client := protocol.NewClient(protocol.Config{
		Source:        o.cfg.Source,
		Version:       o.cfg.Version,
		OnStateChange: o.cfg.OnStateChange,
	})

	err = client.Open(ctx, protocol.HandshakeInfo{
		Endpoint:         sess.SignedWSURL,
		ConfigOverride:   sess.ConfigOverride,
		DynamicVariables: sess.DynamicVariables,
	})
	if err != nil {
		sched.Stop()
		return nil, fmt.Errorf("open stream: %w", err)
	}

	mic, err := o.cfg.NewCapture(client)
	if err != nil {
		client.Close()
		sched.Stop()
		return nil, fmt.Errorf("prepare microphone: %w", err)
	}
	if err := mic.Start(); err != nil {
		client.Close()
		sched.Stop()
		return nil, fmt.Errorf("start microphone: %w", err)
	}

	o.mu.Lock()
	o.session = sess
	o.client = client
	o.mic = mic
	o.sched = sched
	o.stopOnce = &sync.Once{}
	o.mu.Unlock()

	o.pumps.Add(3)
	go o.pumpAudio(client, sched)
	go o.pumpTranscript(client)
	go o.pumpErrors(client)

	log.Printf("Session %d started for %s", sess.ID, form.ManagerName)
	return sess, nil
}

// pumpAudio feeds inbound agent audio into the playback scheduler
func (o *Orchestrator) pumpAudio(client *protocol.Client, sched *player.Scheduler) {
	defer o.pumps.Done()

	for payload := range client.Audio {
		sched.Enqueue(payload)
	}
}

// pumpTranscript records transcript fragments and forwards them to the UI
func (o *Orchestrator) pumpTranscript(client *protocol.Client) {
	defer o.pumps.Done()

	for ev := range client.Transcript {
		speaker := transcript.SpeakerUser
		if ev.Speaker == "agent" {
			speaker = transcript.SpeakerAgent
		}
		o.log.Append(speaker, ev.Text)

		if o.cfg.OnTranscript != nil {
			o.cfg.OnTranscript(transcript.Entry{Speaker: speaker, Text: ev.Text})
		}
	}
}

// pumpErrors surfaces recoverable stream errors without tearing the call down
func (o *Orchestrator) pumpErrors(client *protocol.Client) {
	defer o.pumps.Done()

	for err := range client.Errors {
		log.Printf("Stream error: %v", err)
		if o.cfg.OnError != nil {
			o.cfg.OnError(err)
		}
	}
}

// Transcript returns the running transcript log
func (o *Orchestrator) Transcript() *transcript.Log {
	return o.log
}

// Active reports whether a call is currently running
func (o *Orchestrator) Active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// Stop tears the call down: microphone first, then the stream, then playback.
// Safe to call more than once; the transcript survives for Complete.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	once := o.stopOnce
	mic := o.mic
	client := o.client
	sched := o.sched
	o.mu.Unlock()

	if once == nil {
		return
	}

	once.Do(func() {
		if mic != nil {
			mic.Stop()
		}
		if client != nil {
			if err := client.Close(); err != nil {
				log.Printf("Warning: stream close error: %v", err)
			}
		}
		o.pumps.Wait()
		if sched != nil {
			sched.Stop()
		}

		o.mu.Lock()
		o.active = false
		o.mu.Unlock()

		log.Printf("Session stopped")
	})
}

// Complete submits the transcript for scoring. It fails fast while the
// stream is still live: callers stop the call first.
func (o *Orchestrator) Complete(ctx context.Context) (*Session, error) {
	o.mu.Lock()
	sess := o.session
	client := o.client
	o.mu.Unlock()

	if sess == nil {
		return nil, ErrNoSession
	}
	if client != nil {
		switch client.State() {
		case protocol.StateConnecting, protocol.StateConnected:
			return nil, ErrCallActive
		}
	}

	flat := o.log.Flatten()
	if flat == "" {
		return nil, ErrEmptyTranscript
	}

	scored, err := o.api.CompleteSession(ctx, sess.ID, flat)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.session = scored
	o.mu.Unlock()

	if scored.Score != nil {
		log.Printf("Session %d scored: %.1f", scored.ID, *scored.Score)
	}
	return scored, nil
}
