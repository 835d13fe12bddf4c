// ABOUTME: WebSocket client for the conversational-voice protocol
// ABOUTME: Owns the connection lifecycle, handshake gate and message dispatch
package protocol

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// State is the connection lifecycle state
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateError
	StateStopped
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// HandshakeInfo carries everything needed to open one conversation.
// Supplied once by the session-lifecycle collaborator, consumed once.
type HandshakeInfo struct {
	Endpoint         string
	ConfigOverride   map[string]any
	DynamicVariables map[string]any
}

// TranscriptEvent is one inbound text fragment
type TranscriptEvent struct {
	Speaker string // "agent" or "user"
	Text    string
}

// Config holds client configuration
type Config struct {
	// Source and Version populate the initiation message's source_info
	Source  string
	Version string

	// OnStateChange is called on every lifecycle transition
	OnStateChange func(State)
}

// Client is the protocol state machine over one WebSocket connection.
// Audio frames and transcript fragments are delivered on channels in strict
// arrival order; pings are answered inline before any other processing.
type Client struct {
	config Config

	// id tags this connection in log output
	id string

	mu      sync.Mutex
	conn    *websocket.Conn
	state   State
	closing bool

	writeMu sync.Mutex

	initialized atomic.Bool

	// Message channels, closed when the read loop exits
	Audio      chan []byte
	Transcript chan TranscriptEvent
	Errors     chan error

	closeOnce sync.Once
	done      chan struct{}
}

// NewClient creates a client in the idle state
func NewClient(config Config) *Client {
	return &Client{
		config:     config,
		id:         uuid.New().String()[:8],
		state:      StateIdle,
		Audio:      make(chan []byte, 64),
		Transcript: make(chan TranscriptEvent, 16),
		Errors:     make(chan error, 4),
		done:       make(chan struct{}),
	}
}

// Open dials the endpoint and sends the initiation message. It returns once
// the connection is open and the initiation frame has been dispatched; it
// does not wait for the remote's initiation metadata.
func (c *Client) Open(ctx context.Context, info HandshakeInfo) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return fmt.Errorf("cannot open from state %s", c.state)
	}
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, info.Endpoint, nil)
	if err != nil {
		c.transition(StateError)
		return fmt.Errorf("dial failed: %w", err)
	}

	initiation, err := MarshalInitiation(SourceInfo{
		Source:  c.config.Source,
		Version: c.config.Version,
	}, info.ConfigOverride, info.DynamicVariables)
	if err != nil {
		conn.Close()
		c.transition(StateError)
		return fmt.Errorf("failed to build initiation message: %w", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, initiation); err != nil {
		conn.Close()
		c.transition(StateError)
		return fmt.Errorf("failed to send initiation message: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.setStateLocked(StateConnected)
	c.mu.Unlock()

	go c.readLoop(conn)

	log.Printf("Stream %s connected", c.id)
	return nil
}

// ID returns the connection tag used in log output
func (c *Client) ID() string {
	return c.id
}

// Initialized reports whether the remote has sent its initiation metadata.
// Outbound audio must not flow until this is true.
func (c *Client) Initialized() bool {
	return c.initialized.Load()
}

// Ready reports whether audio may be sent right now
func (c *Client) Ready() bool {
	return c.State() == StateConnected && c.initialized.Load()
}

// State returns the current lifecycle state
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed when the read loop has exited
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// SendAudio sends one capture frame. It is a silent no-op when the socket is
// not open: live audio is never buffered or retried.
func (c *Client) SendAudio(pcm []byte) error {
	c.mu.Lock()
	conn := c.conn
	open := c.state == StateConnected
	c.mu.Unlock()

	if !open || conn == nil {
		return nil
	}

	frame, err := MarshalAudioChunk(pcm)
	if err != nil {
		return fmt.Errorf("failed to frame audio chunk: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, frame)
}

// Close performs a clean shutdown. Safe to call repeatedly and from any
// state; a clean close frame (code 1000) is sent if the socket is open.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return nil
	}
	c.closing = true
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		c.writeMu.Lock()
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		conn.Close()
	} else {
		c.transition(StateStopped)
		c.closeChannels()
	}

	return nil
}

// readLoop reads and dispatches frames until the connection dies
func (c *Client) readLoop(conn *websocket.Conn) {
	defer c.closeChannels()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			c.handleDisconnect(err)
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			// Native binary audio bypasses JSON parsing entirely
			c.deliverAudio(data)

		case websocket.TextMessage:
			c.dispatch(conn, data)

		default:
			log.Printf("Ignoring WebSocket message type %d", messageType)
		}
	}
}

// dispatch routes one classified text frame
func (c *Client) dispatch(conn *websocket.Conn, data []byte) {
	msg, err := ParseInbound(data)
	if err != nil {
		log.Printf("Dropping malformed frame: %v", err)
		return
	}

	switch msg.Kind {
	case KindPing:
		// Answer before any other processing so the reply is never
		// delayed behind queued work
		pong, err := MarshalPong(msg.EventID)
		if err == nil {
			c.writeMu.Lock()
			if err := conn.WriteMessage(websocket.TextMessage, pong); err != nil {
				log.Printf("Failed to send pong: %v", err)
			}
			c.writeMu.Unlock()
		}

	case KindInitiation:
		c.initialized.Store(true)
		log.Printf("Conversation initialized, outbound audio unlocked")

	case KindAgentResponse:
		if msg.Text != "" {
			c.deliverTranscript(TranscriptEvent{Speaker: "agent", Text: msg.Text})
		}

	case KindUserTranscript:
		if msg.Text != "" {
			c.deliverTranscript(TranscriptEvent{Speaker: "user", Text: msg.Text})
		}

	case KindAudio:
		if len(msg.Audio) > 0 {
			c.deliverAudio(msg.Audio)
		}

	case KindError:
		// Surfaced to the user without closing the connection
		c.deliverError(fmt.Errorf("remote agent error: %s", msg.Text))

	default:
		log.Printf("Ignoring unrecognized frame")
	}
}

// handleDisconnect classifies the read error and finishes the lifecycle
func (c *Client) handleDisconnect(err error) {
	c.mu.Lock()
	userClose := c.closing
	c.mu.Unlock()

	if userClose {
		log.Printf("Stream %s closed", c.id)
		c.transition(StateStopped)
		return
	}

	state, surfaced := classifyClose(err)
	c.transition(state)
	if surfaced != nil {
		c.deliverError(surfaced)
	}
}

// classifyClose maps a socket read error to a terminal state and an optional
// user-facing error
func classifyClose(err error) (State, error) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		switch ce.Code {
		case websocket.CloseNormalClosure:
			return StateStopped, nil
		case websocket.CloseProtocolError:
			return StateError, fmt.Errorf(
				"connection closed due to a protocol violation (code 1002): %s; check the conversation override payload and that the remote agent is active", ce.Text)
		case websocket.CloseAbnormalClosure:
			return StateError, fmt.Errorf(
				"connection lost unexpectedly (code 1006): network failure or server fault")
		default:
			return StateError, fmt.Errorf("connection closed with code %d: %s", ce.Code, ce.Text)
		}
	}

	return StateError, fmt.Errorf("connection error: %w", err)
}

// transition moves to a new lifecycle state and notifies the callback
func (c *Client) transition(state State) {
	c.mu.Lock()
	c.setStateLocked(state)
	c.mu.Unlock()
}

func (c *Client) setStateLocked(state State) {
	if c.state == state {
		return
	}
	c.state = state
	if c.config.OnStateChange != nil {
		// Callback runs without the lock held
		cb := c.config.OnStateChange
		go cb(state)
	}
}

func (c *Client) deliverAudio(data []byte) {
	select {
	case c.Audio <- data:
	default:
		log.Printf("Audio channel full, dropping %d-byte frame", len(data))
	}
}

func (c *Client) deliverTranscript(ev TranscriptEvent) {
	select {
	case c.Transcript <- ev:
	default:
		log.Printf("Transcript channel full, dropping fragment")
	}
}

func (c *Client) deliverError(err error) {
	select {
	case c.Errors <- err:
	default:
		log.Printf("Error channel full, dropping: %v", err)
	}
}

func (c *Client) closeChannels() {
	// The read loop is the only sender; closing here lets consumers drain
	// and terminate
	c.closeOnce.Do(func() {
		close(c.Audio)
		close(c.Transcript)
		close(c.Errors)
		close(c.done)
	})
}
