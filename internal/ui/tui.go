// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and forwards orchestrator events
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Sendspin/multitrack-go/pkg/multitrack"
)

// TUI owns the bubbletea program for one controller
type TUI struct {
	program *tea.Program
	updates chan tea.Msg
	Quit    chan struct{}
}

// New creates a TUI; call Run to take over the terminal
func New(name string, ctrl Controller) *TUI {
	quit := make(chan struct{}, 1)
	return &TUI{
		program: tea.NewProgram(NewModel(name, ctrl, quit), tea.WithAltScreen()),
		updates: make(chan tea.Msg, 64),
		Quit:    quit,
	}
}

// Run blocks until the user quits
func (t *TUI) Run() error {
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case msg := <-t.updates:
				t.program.Send(msg)
			case <-done:
				return
			}
		}
	}()

	_, err := t.program.Run()
	return err
}

// NotifyState forwards a state change
func (t *TUI) NotifyState(state multitrack.State) {
	t.post(StateMsg(state))
}

// NotifyPosition forwards a position update
func (t *TUI) NotifyPosition(position time.Duration) {
	t.post(PositionMsg(position))
}

// NotifyFinished forwards the end of the group
func (t *TUI) NotifyFinished() {
	t.post(FinishedMsg{})
}

func (t *TUI) post(msg tea.Msg) {
	select {
	case t.updates <- msg:
	default:
		// Don't block the timeline if the UI is behind
	}
}

// Stop exits the program
func (t *TUI) Stop() {
	t.program.Quit()
}
