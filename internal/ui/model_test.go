// ABOUTME: Tests for the transport TUI model
// ABOUTME: Drives a real orchestrator on the memory engine through key presses
package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sendspin/multitrack-go/pkg/clock"
	"github.com/Sendspin/multitrack-go/pkg/multitrack"
	"github.com/Sendspin/multitrack-go/pkg/render/memory"
	"github.com/Sendspin/multitrack-go/pkg/source"
)

func newOrchestrator(t *testing.T) *multitrack.Orchestrator {
	t.Helper()
	o, err := multitrack.New(multitrack.Config{
		Engine: memory.NewEngine(nil),
		Clock:  clock.NewManual(),
	})
	require.NoError(t, err)

	_, err = o.AppendTrack(source.Static{SourceName: "drums", Length: 5 * 44100, Rate: 44100}, 0, 1)
	require.NoError(t, err)
	_, err = o.AppendTrack(source.Static{SourceName: "bass", Length: 5 * 44100, Rate: 44100}, 2*time.Second, 1)
	require.NoError(t, err)
	return o
}

// press sends a key and runs the returned command synchronously
func press(t *testing.T, m Model, key tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(key)
	m = next.(Model)
	if cmd != nil {
		next, _ = m.Update(cmd())
		m = next.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModelSnapshot(t *testing.T) {
	m := NewModel("Session", newOrchestrator(t), nil)

	assert.Equal(t, multitrack.StateStopped, m.state)
	assert.Equal(t, 7*time.Second, m.duration)
	assert.Len(t, m.tracks, 2)
}

func TestSpaceTogglesPlayPause(t *testing.T) {
	o := newOrchestrator(t)
	m := NewModel("Session", o, nil)

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, multitrack.StatePlaying, o.State())
	assert.Equal(t, multitrack.StatePlaying, m.state)

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, multitrack.StatePaused, o.State())
	assert.Equal(t, multitrack.StatePaused, m.state)
}

func TestSeekKeysClamp(t *testing.T) {
	o := newOrchestrator(t)
	m := NewModel("Session", o, nil)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 7*time.Second, o.CurrentTime())
	assert.Equal(t, 7*time.Second, m.position)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, time.Duration(0), m.position)
}

func TestStopAndReload(t *testing.T) {
	o := newOrchestrator(t)
	m := NewModel("Session", o, nil)

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m = press(t, m, runes("s"))
	assert.Equal(t, multitrack.StateStopped, m.state)

	m = press(t, m, runes("r"))
	assert.Equal(t, time.Duration(0), m.position)
}

func TestTabSelectsAndGainKeys(t *testing.T) {
	o := newOrchestrator(t)
	m := NewModel("Session", o, nil)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, m.selected)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.InDelta(t, 0.9, o.Tracks()[1].Gain, 1e-9)
	assert.InDelta(t, 1.0, o.Tracks()[0].Gain, 1e-9)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 0, m.selected)
	for i := 0; i < 15; i++ {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	}
	assert.InDelta(t, MaxGain, o.Tracks()[0].Gain, 1e-9)
}

func TestDelayKeys(t *testing.T) {
	o := newOrchestrator(t)
	m := NewModel("Session", o, nil)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = press(t, m, runes("]"))
	assert.Equal(t, 2500*time.Millisecond, o.Tracks()[1].Delay)
	assert.Equal(t, 7500*time.Millisecond, m.duration)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = press(t, m, runes("["))
	assert.Equal(t, time.Duration(0), o.Tracks()[0].Delay)
}

func TestQuitSignals(t *testing.T) {
	quit := make(chan struct{}, 1)
	m := NewModel("Session", newOrchestrator(t), quit)

	next, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.True(t, next.(Model).quitting)

	select {
	case <-quit:
	default:
		t.Fatal("quit not signalled")
	}
}

func TestEventMessages(t *testing.T) {
	m := NewModel("Session", newOrchestrator(t), nil)

	next, _ := m.Update(PositionMsg(3 * time.Second))
	m = next.(Model)
	assert.Equal(t, 3*time.Second, m.position)

	next, _ = m.Update(FinishedMsg{})
	m = next.(Model)
	assert.True(t, m.finished)
	assert.Contains(t, m.View(), "finished")

	next, _ = m.Update(StateMsg(multitrack.StatePlaying))
	m = next.(Model)
	assert.False(t, m.finished)
}

func TestViewListsTracks(t *testing.T) {
	m := NewModel("Session", newOrchestrator(t), nil)
	view := m.View()

	assert.Contains(t, view, "Session")
	assert.Contains(t, view, "drums")
	assert.Contains(t, view, "bass")
	assert.Contains(t, view, "Tracks (2)")
}

func TestRenderSpan(t *testing.T) {
	tests := []struct {
		name   string
		delay  time.Duration
		length time.Duration
		total  time.Duration
		want   string
	}{
		{"full", 0, 4 * time.Second, 4 * time.Second, "████"},
		{"delayed", 2 * time.Second, 4 * time.Second, 4 * time.Second, "··██"},
		{"short", 0, time.Second, 4 * time.Second, "█···"},
		{"empty group", 0, 0, 0, "····"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderSpan(tt.delay, tt.length, tt.total, 4))
		})
	}
}

func TestRenderCursor(t *testing.T) {
	assert.Equal(t, "▲", renderCursor(0, 4*time.Second, 4))
	assert.Equal(t, "  ▲", renderCursor(2*time.Second, 4*time.Second, 4))
	assert.Equal(t, "   ▲", renderCursor(4*time.Second, 4*time.Second, 4))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:00.0", formatDuration(0))
	assert.Equal(t, "1:05.5", formatDuration(65500*time.Millisecond))
	assert.Equal(t, "0:00.0", formatDuration(-time.Second))
}
