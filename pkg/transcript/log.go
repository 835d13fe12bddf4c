// ABOUTME: Append-only conversation transcript log
// ABOUTME: Collects speaker-tagged fragments and flattens them for scoring
package transcript

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Speaker tags who produced a transcript fragment
type Speaker string

const (
	SpeakerAgent  Speaker = "agent"
	SpeakerUser   Speaker = "user"
	SpeakerSystem Speaker = "system"
)

// Entry is one transcript fragment in arrival order
type Entry struct {
	Speaker Speaker
	Text    string
	At      time.Time
}

// Log is an append-only, arrival-ordered transcript for one session
type Log struct {
	mu      sync.Mutex
	entries []Entry
}

// New creates an empty transcript log
func New() *Log {
	return &Log{}
}

// Append records one fragment with the receipt timestamp
func (l *Log) Append(speaker Speaker, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, Entry{
		Speaker: speaker,
		Text:    text,
		At:      time.Now(),
	})
}

// Len returns the number of recorded fragments
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Entries returns a copy of all fragments in arrival order
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Reset clears the log for a fresh session
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// Flatten renders the conversation as one labeled text block, the shape the
// scoring collaborator expects
func (l *Log) Flatten() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var b strings.Builder
	for i, e := range l.entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", speakerLabel(e.Speaker), e.Text)
	}
	return b.String()
}

// speakerLabel maps a speaker tag to its transcript label
func speakerLabel(s Speaker) string {
	switch s {
	case SpeakerAgent:
		return "Client"
	case SpeakerUser:
		return "Manager"
	default:
		return "System"
	}
}
