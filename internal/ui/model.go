// ABOUTME: Bubbletea model for the multitrack transport TUI
// ABOUTME: Defines application state, key handling and rendering
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Sendspin/multitrack-go/pkg/multitrack"
	"github.com/Sendspin/multitrack-go/pkg/track"
)

const (
	// SeekStep is the left/right seek distance
	SeekStep = 10 * time.Second
	// DelayStep is the [ / ] delay adjustment
	DelayStep = 500 * time.Millisecond
	// GainStep is the up/down gain adjustment
	GainStep = 0.1
	// MaxGain bounds the up key
	MaxGain = 2.0

	barWidth = 48
)

// Controller is the transport surface the TUI drives.
// *multitrack.Orchestrator implements it.
type Controller interface {
	Play() error
	Pause()
	Stop()
	Reload()
	Seek(delta time.Duration) time.Duration
	SetDelay(delay time.Duration, index int) error
	SetGain(gain float64, index int) error
	State() multitrack.State
	CurrentTime() time.Duration
	Duration() time.Duration
	Tracks() []track.Item
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	spanStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Faint(true)
)

// Model represents the TUI state
type Model struct {
	ctrl Controller
	name string

	state    multitrack.State
	position time.Duration
	duration time.Duration
	tracks   []track.Item
	selected int
	finished bool
	lastErr  error

	quitting bool
	quit     chan struct{}

	width  int
	height int
}

// StateMsg reports a transport state change
type StateMsg multitrack.State

// PositionMsg reports a timeline position update
type PositionMsg time.Duration

// FinishedMsg reports that the group reached its end
type FinishedMsg struct{}

// refreshMsg carries a controller snapshot after a command
type refreshMsg struct {
	state    multitrack.State
	position time.Duration
	duration time.Duration
	tracks   []track.Item
	err      error
}

// NewModel creates a model bound to a controller
func NewModel(name string, ctrl Controller, quit chan struct{}) Model {
	m := Model{
		ctrl: ctrl,
		name: name,
		quit: quit,
	}
	m.apply(snapshot(ctrl, nil))
	return m
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
	case StateMsg:
		m.state = multitrack.State(msg)
		if m.state == multitrack.StatePlaying {
			m.finished = false
		}
	case PositionMsg:
		m.position = time.Duration(msg)
	case FinishedMsg:
		m.finished = true
	case refreshMsg:
		m.apply(msg)
	}

	return m, nil
}

// handleKey maps keys to controller commands. Commands run as tea.Cmds so
// controller callbacks that Send back to the program never block Update.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		if m.quit != nil {
			select {
			case m.quit <- struct{}{}:
			default:
			}
		}
		return m, tea.Quit
	case " ", "space":
		return m, m.command(func(c Controller) error {
			if c.State() == multitrack.StatePlaying {
				c.Pause()
				return nil
			}
			return c.Play()
		})
	case "s":
		return m, m.command(func(c Controller) error { c.Stop(); return nil })
	case "r":
		return m, m.command(func(c Controller) error { c.Reload(); return nil })
	case "left":
		return m, m.command(func(c Controller) error { c.Seek(-SeekStep); return nil })
	case "right":
		return m, m.command(func(c Controller) error { c.Seek(SeekStep); return nil })
	case "tab":
		if len(m.tracks) > 0 {
			m.selected = (m.selected + 1) % len(m.tracks)
		}
	case "shift+tab":
		if len(m.tracks) > 0 {
			m.selected = (m.selected + len(m.tracks) - 1) % len(m.tracks)
		}
	case "up", "down":
		item, ok := m.selectedItem()
		if !ok {
			return m, nil
		}
		gain := item.Gain + GainStep
		if msg.String() == "down" {
			gain = item.Gain - GainStep
		}
		gain = clampGain(gain)
		index := m.selected
		return m, m.command(func(c Controller) error { return c.SetGain(gain, index) })
	case "[", "]":
		item, ok := m.selectedItem()
		if !ok {
			return m, nil
		}
		delay := item.Delay + DelayStep
		if msg.String() == "[" {
			delay = item.Delay - DelayStep
		}
		if delay < 0 {
			delay = 0
		}
		index := m.selected
		return m, m.command(func(c Controller) error { return c.SetDelay(delay, index) })
	}

	return m, nil
}

func (m Model) command(fn func(Controller) error) tea.Cmd {
	if m.ctrl == nil {
		return nil
	}
	ctrl := m.ctrl
	return func() tea.Msg {
		err := fn(ctrl)
		return snapshot(ctrl, err)
	}
}

func snapshot(ctrl Controller, err error) refreshMsg {
	if ctrl == nil {
		return refreshMsg{err: err}
	}
	return refreshMsg{
		state:    ctrl.State(),
		position: ctrl.CurrentTime(),
		duration: ctrl.Duration(),
		tracks:   ctrl.Tracks(),
		err:      err,
	}
}

func (m *Model) apply(msg refreshMsg) {
	m.state = msg.state
	m.position = msg.position
	m.duration = msg.duration
	m.tracks = msg.tracks
	m.lastErr = msg.err
	if m.selected >= len(m.tracks) {
		m.selected = 0
	}
}

func (m Model) selectedItem() (track.Item, bool) {
	if m.selected < 0 || m.selected >= len(m.tracks) {
		return track.Item{}, false
	}
	return m.tracks[m.selected], true
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Stopping playback...\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(m.name))
	b.WriteString("\n\n")

	state := m.state.String()
	if m.finished && m.state == multitrack.StateStopped {
		state = "finished"
	}
	b.WriteString(headerStyle.Render("State:    "))
	b.WriteString(valueStyle.Render(state))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Position: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%s / %s", formatDuration(m.position), formatDuration(m.duration))))
	b.WriteString("\n")
	b.WriteString("           " + renderCursor(m.position, m.duration, barWidth))
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render(fmt.Sprintf("Tracks (%d)", len(m.tracks))))
	b.WriteString("\n")
	if len(m.tracks) == 0 {
		b.WriteString(valueStyle.Render("  No tracks loaded"))
		b.WriteString("\n")
	}
	for i, item := range m.tracks {
		marker := "  "
		name := fmt.Sprintf("%-24s", truncate(item.Name(), 24))
		if i == m.selected {
			marker = "> "
			name = selectedStyle.Render(name)
		}
		b.WriteString(marker + name + " ")
		b.WriteString(spanStyle.Render(renderSpan(item.Delay, item.Duration(), m.duration, barWidth)))
		b.WriteString(valueStyle.Render(fmt.Sprintf(" +%s gain %.1f", formatDuration(item.Delay), item.Gain)))
		b.WriteString("\n")
	}

	if m.lastErr != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + m.lastErr.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space:Play/Pause  s:Stop  r:Reload  ←/→:Seek 10s  tab:Select  ↑/↓:Gain  [/]:Delay  q:Quit"))
	b.WriteString("\n")

	return b.String()
}

// renderSpan draws where a track sounds on the group timeline
func renderSpan(delay, length, total time.Duration, width int) string {
	if total <= 0 {
		return strings.Repeat("·", width)
	}
	start := column(delay, total, width)
	end := column(length, total, width)
	if end <= start && length > delay {
		end = start + 1
	}

	var b strings.Builder
	for i := 0; i < width; i++ {
		if i >= start && i < end {
			b.WriteString("█")
		} else {
			b.WriteString("·")
		}
	}
	return b.String()
}

// renderCursor marks the playback position on a bar of the same width
func renderCursor(position, total time.Duration, width int) string {
	col := 0
	if total > 0 {
		col = column(position, total, width)
		if col >= width {
			col = width - 1
		}
	}
	return strings.Repeat(" ", col) + "▲"
}

func column(d, total time.Duration, width int) int {
	c := int(int64(d) * int64(width) / int64(total))
	if c < 0 {
		return 0
	}
	if c > width {
		return width
	}
	return c
}

func clampGain(g float64) float64 {
	// round off accumulated float steps
	g = float64(int(g*10+0.5)) / 10
	if g < 0 {
		return 0
	}
	if g > MaxGain {
		return MaxGain
	}
	return g
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(100 * time.Millisecond)
	m := d / time.Minute
	s := float64(d%time.Minute) / float64(time.Second)
	return fmt.Sprintf("%d:%04.1f", m, s)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
