// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for the rehearsal call UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Control holds channels for user intent coming out of the TUI
type Control struct {
	Start chan struct{}
	End   chan struct{}
	Quit  chan struct{}
}

// NewControl creates a new control handler
func NewControl() *Control {
	return &Control{
		Start: make(chan struct{}, 1),
		End:   make(chan struct{}, 1),
		Quit:  make(chan struct{}, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(managerName string, ctrl *Control) Model {
	return Model{
		managerName: managerName,
		phase:       "idle",
		ctrl:        ctrl,
	}
}

// Run starts the TUI
func Run(managerName string, ctrl *Control) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(managerName, ctrl), tea.WithAltScreen())
	return p, nil
}
