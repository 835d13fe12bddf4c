// ABOUTME: Tests for trainer application wiring
// ABOUTME: Covers construction and idle shutdown behavior
package app

import (
	"context"
	"testing"

	"github.com/moonai/salestrainer-go/internal/config"
	"github.com/moonai/salestrainer-go/internal/ui"
	"github.com/moonai/salestrainer-go/pkg/session"
)

func TestNew(t *testing.T) {
	cfg := &config.Config{
		BackendURL:   "http://localhost:8000",
		PlaybackRate: 1.0,
	}
	tr := New(cfg, session.Form{ManagerName: "Anna"})

	if tr.orch == nil {
		t.Fatal("expected orchestrator to be wired")
	}
	if tr.form.ManagerName != "Anna" {
		t.Errorf("unexpected form: %+v", tr.form)
	}
}

func TestUpdateTUI_NilSafe(t *testing.T) {
	cfg := &config.Config{BackendURL: "http://localhost:8000"}
	tr := New(cfg, session.Form{ManagerName: "Anna"})

	// No TUI running: must not panic
	tr.updateTUI(ui.SessionMsg{ID: 1})
}

func TestShutdown_IdleNoOp(t *testing.T) {
	cfg := &config.Config{BackendURL: "http://localhost:8000"}
	tr := New(cfg, session.Form{ManagerName: "Anna"})

	// Nothing running: shutdown must return without touching the backend
	tr.shutdown(context.Background())
}
