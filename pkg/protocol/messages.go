// ABOUTME: Wire message types and inbound frame classification
// ABOUTME: Field-path probe tables absorb the protocol's historical JSON shapes
package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Kind identifies the logical meaning of an inbound frame
type Kind int

const (
	KindUnknown Kind = iota
	KindPing
	KindInitiation
	KindAgentResponse
	KindUserTranscript
	KindAudio
	KindError
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindPing:
		return "ping"
	case KindInitiation:
		return "initiation"
	case KindAgentResponse:
		return "agent_response"
	case KindUserTranscript:
		return "user_transcript"
	case KindAudio:
		return "audio"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Inbound is one classified inbound control frame
type Inbound struct {
	Kind    Kind
	EventID int    // ping correlation id
	Text    string // transcript / agent text / error detail
	Audio   []byte // decoded audio payload
}

// InitiationMessage is sent once after the socket opens. Empty override and
// variable maps are omitted entirely; the remote rejects empty objects.
type InitiationMessage struct {
	Type                       string         `json:"type"`
	SourceInfo                 SourceInfo     `json:"source_info"`
	ConversationConfigOverride map[string]any `json:"conversation_config_override,omitempty"`
	DynamicVariables           map[string]any `json:"dynamic_variables,omitempty"`
}

// SourceInfo identifies this client to the remote agent
type SourceInfo struct {
	Source  string `json:"source"`
	Version string `json:"version"`
}

// PongMessage answers a ping, echoing its event id
type PongMessage struct {
	Type    string `json:"type"`
	EventID int    `json:"event_id"`
}

// AudioChunkMessage carries one outbound capture frame
type AudioChunkMessage struct {
	UserAudioChunk string `json:"user_audio_chunk"`
}

// MarshalInitiation builds the initiation frame for a handshake
func MarshalInitiation(source SourceInfo, configOverride, dynamicVariables map[string]any) ([]byte, error) {
	msg := InitiationMessage{
		Type:       "conversation_initiation_client_data",
		SourceInfo: source,
	}
	if len(configOverride) > 0 {
		msg.ConversationConfigOverride = configOverride
	}
	if len(dynamicVariables) > 0 {
		msg.DynamicVariables = dynamicVariables
	}
	return json.Marshal(msg)
}

// MarshalAudioChunk frames PCM16 bytes as a base64 audio chunk
func MarshalAudioChunk(pcm []byte) ([]byte, error) {
	return json.Marshal(AudioChunkMessage{
		UserAudioChunk: base64.StdEncoding.EncodeToString(pcm),
	})
}

// MarshalPong builds the pong reply for a ping event id
func MarshalPong(eventID int) ([]byte, error) {
	return json.Marshal(PongMessage{Type: "pong", EventID: eventID})
}

// Field-path probes, one ordered list per message kind. The upstream protocol
// has shipped several JSON shapes for the same logical event; each probe list
// is tried in priority order and the first non-empty string wins.
var (
	agentTextProbes = [][]string{
		{"agent_response_event", "agent_response"},
		{"agent_response"},
		{"response"},
		{"text"},
		{"message"},
	}

	userTextProbes = [][]string{
		{"user_transcription_event", "user_transcript"},
		{"user_transcript"},
		{"transcript"},
		{"text"},
	}

	audioProbes = [][]string{
		{"audio_event", "audio_base_64"},
		{"audio_event", "audio_base64"},
		{"audio_event", "audio"},
		{"audio_base_64"},
		{"audio"},
		{"data"},
	}

	errorProbes = [][]string{
		{"error_event", "message"},
		{"message"},
		{"error"},
		{"reason"},
	}
)

// ParseInbound classifies one JSON text frame. Unrecognized types come back
// as KindUnknown; malformed JSON is an error the caller logs and drops.
func ParseInbound(data []byte) (Inbound, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Inbound{}, fmt.Errorf("malformed frame: %w", err)
	}

	msgType, _ := raw["type"].(string)

	switch msgType {
	case "ping":
		return Inbound{Kind: KindPing, EventID: pingEventID(raw)}, nil

	case "conversation_initiation_metadata":
		return Inbound{Kind: KindInitiation}, nil

	case "agent_response", "response":
		// Missing text is a no-op frame, not a failure
		return Inbound{Kind: KindAgentResponse, Text: probeString(raw, agentTextProbes)}, nil

	case "user_transcription", "user_transcript", "transcript":
		return Inbound{Kind: KindUserTranscript, Text: probeString(raw, userTextProbes)}, nil

	case "audio", "agent_audio_chunk", "audio_chunk":
		b64 := probeString(raw, audioProbes)
		if b64 == "" {
			return Inbound{Kind: KindAudio}, nil
		}
		decoded, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return Inbound{}, fmt.Errorf("invalid base64 audio payload: %w", err)
		}
		return Inbound{Kind: KindAudio, Audio: decoded}, nil

	case "error":
		text := probeString(raw, errorProbes)
		if text == "" {
			text = "remote agent reported an error"
		}
		return Inbound{Kind: KindError, Text: text}, nil

	default:
		return Inbound{Kind: KindUnknown}, nil
	}
}

// pingEventID extracts ping_event.event_id, tolerating a flat event_id
func pingEventID(raw map[string]any) int {
	if event, ok := raw["ping_event"].(map[string]any); ok {
		if id, ok := event["event_id"].(float64); ok {
			return int(id)
		}
	}
	if id, ok := raw["event_id"].(float64); ok {
		return int(id)
	}
	return 0
}

// probeString walks each field path in order and returns the first non-empty
// string found
func probeString(raw map[string]any, probes [][]string) string {
	for _, path := range probes {
		node := any(raw)
		for _, key := range path {
			obj, ok := node.(map[string]any)
			if !ok {
				node = nil
				break
			}
			node = obj[key]
		}
		if s, ok := node.(string); ok && s != "" {
			return s
		}
	}
	return ""
}
