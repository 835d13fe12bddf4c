// ABOUTME: Bubbletea model for the rehearsal call TUI
// ABOUTME: Defines application state and update logic
package ui

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/moonai/salestrainer-go/pkg/protocol"
	"github.com/moonai/salestrainer-go/pkg/transcript"
)

// maxTranscriptLines caps how much conversation the view keeps on screen
const maxTranscriptLines = 12

// Model represents the TUI state
type Model struct {
	// Session
	phase       string
	managerName string
	sessionID   string

	// Stream
	streamState protocol.State

	// Conversation
	lines []string

	// Scoring
	score    *float64
	feedback string

	// Errors
	lastError string

	// Controls
	ctrl *Control

	// Dimensions
	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case SessionMsg:
		m.phase = "in-call"
		m.sessionID = strconv.FormatInt(msg.ID, 10)
		m.lastError = ""
		m.score = nil
		m.feedback = ""
		m.lines = nil
	case StreamStateMsg:
		m.streamState = protocol.State(msg)
	case TranscriptMsg:
		m.lines = append(m.lines, formatLine(msg.Speaker, msg.Text))
		if len(m.lines) > maxTranscriptLines {
			m.lines = m.lines[len(m.lines)-maxTranscriptLines:]
		}
	case ScoringMsg:
		m.phase = "scoring"
	case ScoreMsg:
		m.phase = "scored"
		score := msg.Score
		m.score = &score
		m.feedback = msg.Feedback
	case ErrorMsg:
		m.lastError = msg.Err.Error()
		if m.phase == "starting" || m.phase == "scoring" {
			m.phase = "idle"
		}
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderTranscript()
	s += m.renderResult()
	s += m.renderHelp()

	return s
}

// renderHeader renders session and stream status
func (m Model) renderHeader() string {
	phase := m.phase
	if phase == "" {
		phase = "idle"
	}

	status := fmt.Sprintf("%s (%s)", phase, m.streamState)
	if m.sessionID != "" {
		status = fmt.Sprintf("%s  session %s", status, truncate(m.sessionID, 12))
	}

	return fmt.Sprintf(`┌─ Sales Trainer ──────────────────────────────────────┐
│ Manager: %s │
│ Status:  %s │
├──────────────────────────────────────────────────────┤
`, pad(truncate(m.managerName, 43), 43), pad(truncate(status, 43), 43))
}

// renderTranscript renders the rolling conversation window
func (m Model) renderTranscript() string {
	if len(m.lines) == 0 {
		return "│ (no conversation yet)                                │\n"
	}

	s := ""
	for _, line := range m.lines {
		s += fmt.Sprintf("│ %s │\n", pad(truncate(line, 52), 52))
	}
	return s
}

// renderResult renders the score, feedback or the last error
func (m Model) renderResult() string {
	s := "├──────────────────────────────────────────────────────┤\n"

	if m.lastError != "" {
		s += fmt.Sprintf("│ Error: %s │\n", pad(truncate(m.lastError, 45), 45))
	}

	switch m.phase {
	case "scoring":
		s += "│ Scoring the call...                                  │\n"
	case "scored":
		if m.score != nil {
			s += fmt.Sprintf("│ Score: %s │\n", pad(formatScore(*m.score), 45))
		}
		if m.feedback != "" {
			s += fmt.Sprintf("│ %s │\n", pad(truncate(m.feedback, 52), 52))
		}
	}

	return s
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ s:Start call  e:End & score  q:Quit                  │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.ctrl != nil {
			select {
			case m.ctrl.Quit <- struct{}{}:
			default:
			}
		}
		return m, tea.Quit
	case "s":
		if m.phase == "" || m.phase == "idle" || m.phase == "scored" {
			m.phase = "starting"
			if m.ctrl != nil {
				select {
				case m.ctrl.Start <- struct{}{}:
				default:
				}
			}
		}
	case "e":
		if m.phase == "in-call" {
			if m.ctrl != nil {
				select {
				case m.ctrl.End <- struct{}{}:
				default:
				}
			}
		}
	}

	return m, nil
}

// formatLine renders one transcript fragment for the rolling window
func formatLine(speaker transcript.Speaker, text string) string {
	label := "Client"
	if speaker == transcript.SpeakerUser {
		label = "You"
	}
	return fmt.Sprintf("%s: %s", label, text)
}

// SessionMsg announces a freshly started session
type SessionMsg struct {
	ID int64
}

// StreamStateMsg carries a stream state transition
type StreamStateMsg protocol.State

// TranscriptMsg carries one conversation fragment
type TranscriptMsg struct {
	Speaker transcript.Speaker
	Text    string
}

// ScoringMsg marks the call as submitted for scoring
type ScoringMsg struct{}

// ScoreMsg carries the final score and feedback
type ScoreMsg struct {
	Score    float64
	Feedback string
}

// ErrorMsg carries a recoverable error for display
type ErrorMsg struct {
	Err error
}

// formatScore prints whole scores without a trailing .0
func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// truncate shortens s to at most length runes, never splitting a rune
func truncate(s string, length int) string {
	if utf8.RuneCountInString(s) <= length {
		return s
	}
	r := []rune(s)
	return string(r[:length-3]) + "..."
}

// pad right-pads s with spaces to width runes so box borders line up
func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
