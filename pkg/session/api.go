// ABOUTME: REST client for the rehearsal backend
// ABOUTME: Creates sessions, submits transcripts for scoring and fetches results
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultHTTPTimeout = 30 * time.Second

// Form is what the manager fills in before a rehearsal call
type Form struct {
	ManagerName       string `json:"manager_name"`
	ClientDescription string `json:"client_description,omitempty"`
	DifficultyLevel   string `json:"difficulty_level,omitempty"`
	ClientType        string `json:"client_type,omitempty"`
	FirstMessage      string `json:"first_message,omitempty"`
}

// Session is the backend's record of one rehearsal call. Scores are
// fractional on a 0-10 scale.
type Session struct {
	ID                  int64    `json:"id"`
	ManagerName         string   `json:"manager_name,omitempty"`
	ConversationLog     string   `json:"conversation_log,omitempty"`
	AIAnalysis          string   `json:"ai_analysis,omitempty"`
	Score               *float64 `json:"score,omitempty"`
	Feedback            string   `json:"feedback,omitempty"`
	Status              string   `json:"status,omitempty"`
	SignedWSURL         string   `json:"signed_ws_url,omitempty"`
	ConversationID      string   `json:"conversation_id,omitempty"`
	SessionSystemPrompt string   `json:"session_system_prompt,omitempty"`

	// Populated from the create response envelope, never part of the
	// session record itself
	ConfigOverride   map[string]any `json:"-"`
	DynamicVariables map[string]any `json:"-"`
}

// startResponse is the create endpoint's envelope: the stored session plus
// the streaming credentials for it
type startResponse struct {
	Session             Session        `json:"session"`
	SignedWSURL         string         `json:"signed_ws_url"`
	ConversationID      string         `json:"conversation_id"`
	SessionSystemPrompt string         `json:"session_system_prompt"`
	ConfigOverride      map[string]any `json:"conversation_config_override"`
	DynamicVariables    map[string]any `json:"dynamic_variables"`
}

// API talks to the rehearsal backend over HTTP
type API struct {
	baseURL string
	client  *http.Client
}

// NewAPI creates a client for the backend at baseURL
func NewAPI(baseURL string) *API {
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// CreateSession registers a new rehearsal call and returns its signed
// streaming endpoint
func (a *API) CreateSession(ctx context.Context, form Form) (*Session, error) {
	var resp startResponse
	if err := a.do(ctx, http.MethodPost, "/api/sessions", form, &resp); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if resp.SignedWSURL == "" {
		return nil, fmt.Errorf("create session: backend returned no streaming endpoint")
	}
	if resp.Session.ID == 0 {
		return nil, fmt.Errorf("create session: backend returned no session id")
	}

	s := resp.Session
	s.SignedWSURL = resp.SignedWSURL
	s.ConversationID = resp.ConversationID
	s.SessionSystemPrompt = resp.SessionSystemPrompt
	s.ConfigOverride = resp.ConfigOverride
	s.DynamicVariables = resp.DynamicVariables
	return &s, nil
}

// CompleteSession submits the flattened transcript for scoring and returns
// the scored session
func (a *API) CompleteSession(ctx context.Context, id int64, conversationLog string) (*Session, error) {
	body := map[string]string{"conversation_log": conversationLog}

	var s Session
	if err := a.do(ctx, http.MethodPost, sessionPath(id)+"/complete", body, &s); err != nil {
		return nil, fmt.Errorf("complete session %d: %w", id, err)
	}
	return &s, nil
}

// GetSession fetches the current state of a session
func (a *API) GetSession(ctx context.Context, id int64) (*Session, error) {
	var s Session
	if err := a.do(ctx, http.MethodGet, sessionPath(id), nil, &s); err != nil {
		return nil, fmt.Errorf("get session %d: %w", id, err)
	}
	return &s, nil
}

func sessionPath(id int64) string {
	return "/api/sessions/" + strconv.FormatInt(id, 10)
}

// do performs one JSON round trip against the backend
func (a *API) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
