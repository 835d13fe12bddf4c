// ABOUTME: Main trainer application orchestration
// ABOUTME: Coordinates the backend, the call orchestrator and the TUI
package app

import (
	"context"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/moonai/salestrainer-go/internal/config"
	"github.com/moonai/salestrainer-go/internal/ui"
	"github.com/moonai/salestrainer-go/internal/version"
	"github.com/moonai/salestrainer-go/pkg/protocol"
	"github.com/moonai/salestrainer-go/pkg/session"
	"github.com/moonai/salestrainer-go/pkg/transcript"
)

// Trainer represents the main trainer application
type Trainer struct {
	cfg  *config.Config
	form session.Form
	orch *session.Orchestrator

	ctrl    *ui.Control
	tuiProg *tea.Program
}

// New creates a new trainer
func New(cfg *config.Config, form session.Form) *Trainer {
	t := &Trainer{
		cfg:  cfg,
		form: form,
	}

	api := session.NewAPI(cfg.BackendURL)
	t.orch = session.NewOrchestrator(api, session.Config{
		Source:       version.Source,
		Version:      version.Version,
		PlaybackRate: cfg.PlaybackRate,
		OnTranscript: func(e transcript.Entry) {
			t.updateTUI(ui.TranscriptMsg{Speaker: e.Speaker, Text: e.Text})
		},
		OnStateChange: func(s protocol.State) {
			t.updateTUI(ui.StreamStateMsg(s))
		},
		OnError: func(err error) {
			t.updateTUI(ui.ErrorMsg{Err: err})
		},
	})

	return t
}

// updateTUI sends a message to the TUI when one is running
func (t *Trainer) updateTUI(msg tea.Msg) {
	if t.tuiProg != nil {
		t.tuiProg.Send(msg)
	}
}

// Run drives the application until the context is cancelled or the user quits
func (t *Trainer) Run(ctx context.Context) error {
	if t.cfg.Headless {
		return t.runHeadless(ctx)
	}
	return t.runTUI(ctx)
}

// runTUI starts the terminal UI and serves user intent until quit
func (t *Trainer) runTUI(ctx context.Context) error {
	t.ctrl = ui.NewControl()

	tuiProg, err := ui.Run(t.form.ManagerName, t.ctrl)
	if err != nil {
		return fmt.Errorf("failed to start TUI: %w", err)
	}
	t.tuiProg = tuiProg

	go func() {
		if _, err := tuiProg.Run(); err != nil {
			log.Printf("TUI error: %v", err)
		}
	}()

	for {
		select {
		case <-t.ctrl.Start:
			sess, err := t.orch.Start(ctx, t.form)
			if err != nil {
				log.Printf("Failed to start call: %v", err)
				t.updateTUI(ui.ErrorMsg{Err: err})
				continue
			}
			t.updateTUI(ui.SessionMsg{ID: sess.ID})

		case <-t.ctrl.End:
			t.updateTUI(ui.ScoringMsg{})
			t.orch.Stop()
			scored, err := t.orch.Complete(ctx)
			if err != nil {
				log.Printf("Failed to score call: %v", err)
				t.updateTUI(ui.ErrorMsg{Err: err})
				continue
			}
			score := 0.0
			if scored.Score != nil {
				score = *scored.Score
			}
			t.updateTUI(ui.ScoreMsg{Score: score, Feedback: scored.Feedback})

		case <-t.ctrl.Quit:
			log.Printf("Received quit signal from TUI")
			t.shutdown(ctx)
			return nil

		case <-ctx.Done():
			t.shutdown(context.Background())
			t.tuiProg.Quit()
			return nil
		}
	}
}

// runHeadless starts one call immediately and scores it on shutdown
func (t *Trainer) runHeadless(ctx context.Context) error {
	sess, err := t.orch.Start(ctx, t.form)
	if err != nil {
		return fmt.Errorf("failed to start call: %w", err)
	}
	log.Printf("Call started, session %d. Interrupt to end and score.", sess.ID)

	<-ctx.Done()

	t.orch.Stop()
	scored, err := t.orch.Complete(context.Background())
	if err != nil {
		return fmt.Errorf("failed to score call: %w", err)
	}

	if scored.Score != nil {
		log.Printf("Final score: %.1f", *scored.Score)
	}
	if scored.Feedback != "" {
		log.Printf("Feedback: %s", scored.Feedback)
	}
	return nil
}

// shutdown ends any running call, scoring it when a conversation happened
func (t *Trainer) shutdown(ctx context.Context) {
	if !t.orch.Active() {
		return
	}

	t.orch.Stop()
	if _, err := t.orch.Complete(ctx); err != nil {
		log.Printf("Skipping scoring on shutdown: %v", err)
	}
}
