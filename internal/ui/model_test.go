// ABOUTME: Tests for the TUI model
// ABOUTME: Covers key handling, message application and view rendering
package ui

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/moonai/salestrainer-go/pkg/protocol"
	"github.com/moonai/salestrainer-go/pkg/transcript"
)

func pressKey(m Model, key string) Model {
	var msg tea.KeyMsg
	switch key {
	case "ctrl+c":
		msg = tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func apply(m Model, msg tea.Msg) Model {
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func TestStartKey_SignalsControl(t *testing.T) {
	ctrl := NewControl()
	m := NewModel("Anna", ctrl)

	m = pressKey(m, "s")

	if m.phase != "starting" {
		t.Errorf("expected starting phase, got %q", m.phase)
	}
	select {
	case <-ctrl.Start:
	default:
		t.Error("expected start signal on control channel")
	}
}

func TestStartKey_IgnoredDuringCall(t *testing.T) {
	ctrl := NewControl()
	m := NewModel("Anna", ctrl)
	m = apply(m, SessionMsg{ID: 1})

	m = pressKey(m, "s")

	if m.phase != "in-call" {
		t.Errorf("expected phase unchanged, got %q", m.phase)
	}
	select {
	case <-ctrl.Start:
		t.Error("start must not fire while a call is active")
	default:
	}
}

func TestEndKey_OnlyDuringCall(t *testing.T) {
	ctrl := NewControl()
	m := NewModel("Anna", ctrl)

	m = pressKey(m, "e")
	select {
	case <-ctrl.End:
		t.Error("end must not fire while idle")
	default:
	}

	m = apply(m, SessionMsg{ID: 1})
	m = pressKey(m, "e")
	select {
	case <-ctrl.End:
	default:
		t.Error("expected end signal during a call")
	}
}

func TestQuitKey_SignalsControl(t *testing.T) {
	ctrl := NewControl()
	m := NewModel("Anna", ctrl)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	_ = updated
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	select {
	case <-ctrl.Quit:
	default:
		t.Error("expected quit signal on control channel")
	}
}

func TestSessionMsg_ResetsPreviousResult(t *testing.T) {
	m := NewModel("Anna", nil)
	m = apply(m, ScoreMsg{Score: 7, Feedback: "ok"})
	m = apply(m, SessionMsg{ID: 2})

	if m.phase != "in-call" || m.sessionID != "2" {
		t.Errorf("unexpected state after new session: %q / %q", m.phase, m.sessionID)
	}
	if m.score != nil || m.feedback != "" || len(m.lines) != 0 {
		t.Error("expected previous result cleared")
	}
}

func TestTranscriptWindow_Caps(t *testing.T) {
	m := NewModel("Anna", nil)

	for i := 0; i < maxTranscriptLines+5; i++ {
		m = apply(m, TranscriptMsg{Speaker: transcript.SpeakerAgent, Text: fmt.Sprintf("line %d", i)})
	}

	if len(m.lines) != maxTranscriptLines {
		t.Errorf("expected %d lines, got %d", maxTranscriptLines, len(m.lines))
	}
	if !strings.Contains(m.lines[len(m.lines)-1], "line 16") {
		t.Errorf("expected newest line kept, got %q", m.lines[len(m.lines)-1])
	}
}

func TestErrorMsg_ReturnsToIdleFromStarting(t *testing.T) {
	m := NewModel("Anna", nil)
	m = pressKey(m, "s")
	m = apply(m, ErrorMsg{Err: errors.New("microphone access denied")})

	if m.phase != "idle" {
		t.Errorf("expected idle after failed start, got %q", m.phase)
	}
	if m.lastError == "" {
		t.Error("expected last error recorded")
	}
}

func TestView_RendersScore(t *testing.T) {
	m := NewModel("Anna", nil)
	m = apply(m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = apply(m, SessionMsg{ID: 1})
	m = apply(m, TranscriptMsg{Speaker: transcript.SpeakerAgent, Text: "Здравствуйте"})
	m = apply(m, ScoreMsg{Score: 8.5, Feedback: "solid objection handling"})

	view := m.View()
	if !strings.Contains(view, "Score: 8.5") {
		t.Errorf("expected score in view:\n%s", view)
	}
	if !strings.Contains(view, "Client: Здравствуйте") {
		t.Errorf("expected transcript line in view:\n%s", view)
	}
	if !strings.Contains(view, "solid objection handling") {
		t.Errorf("expected feedback in view:\n%s", view)
	}
}

func TestView_BeforeSizing(t *testing.T) {
	m := NewModel("Anna", nil)
	if m.View() != "Loading..." {
		t.Errorf("expected loading placeholder, got %q", m.View())
	}
}

func TestTruncate_RuneSafe(t *testing.T) {
	long := "Здравствуйте, меня зовут Анна, я звоню по поводу вашего заказа"
	got := truncate(long, 20)

	if !utf8.ValidString(got) {
		t.Fatalf("truncate produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 20 {
		t.Errorf("expected 20 runes, got %d (%q)", n, got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}

	short := "Алло"
	if truncate(short, 20) != short {
		t.Errorf("short string must pass through unchanged")
	}
}

func TestView_CyrillicLinesKeepBordersAligned(t *testing.T) {
	m := NewModel("Анна", nil)
	m = apply(m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = apply(m, TranscriptMsg{Speaker: transcript.SpeakerAgent, Text: "Здравствуйте, слушаю вас"})
	m = apply(m, TranscriptMsg{Speaker: transcript.SpeakerUser, Text: "Good afternoon"})

	view := m.View()
	if !utf8.ValidString(view) {
		t.Fatal("view produced invalid UTF-8")
	}

	var widths []int
	for _, line := range strings.Split(view, "\n") {
		if !strings.HasPrefix(line, "│ ") {
			continue
		}
		if !strings.HasSuffix(line, " │") {
			t.Errorf("line lost its right border: %q", line)
		}
		widths = append(widths, utf8.RuneCountInString(line))
	}

	if len(widths) < 2 {
		t.Fatalf("expected at least two boxed lines, got %d", len(widths))
	}
	for _, w := range widths {
		if w != widths[0] {
			t.Errorf("misaligned box line widths: %v", widths)
			break
		}
	}
}

func TestStreamStateMsg(t *testing.T) {
	m := NewModel("Anna", nil)
	m = apply(m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = apply(m, StreamStateMsg(protocol.StateConnected))

	if !strings.Contains(m.View(), "connected") {
		t.Errorf("expected stream state in view:\n%s", m.View())
	}
}
