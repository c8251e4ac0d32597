// ABOUTME: Deterministic clock advanced by hand
// ABOUTME: Used by tests to drive timelines without real time passing
package clock

import (
	"sync"
	"time"
)

// Manual is a Clock whose time only moves on Advance
type Manual struct {
	mu      sync.Mutex
	onTick  func(time.Duration)
	running bool
	elapsed time.Duration
	starts  int
}

// NewManual creates a stopped manual clock
func NewManual() *Manual {
	return &Manual{}
}

// OnTick registers the tick callback
func (m *Manual) OnTick(fn func(elapsed time.Duration)) {
	m.mu.Lock()
	m.onTick = fn
	m.mu.Unlock()
}

// Start begins a new segment at zero
func (m *Manual) Start() {
	m.mu.Lock()
	m.running = true
	m.elapsed = 0
	m.starts++
	m.mu.Unlock()
}

// Stop freezes elapsed time
func (m *Manual) Stop() {
	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
}

// Elapsed returns time since the last Start
func (m *Manual) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.elapsed
}

// Running reports whether the clock is counting
func (m *Manual) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Starts returns how many times Start has been called
func (m *Manual) Starts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts
}

// Advance moves time forward and fires one tick if running.
// The callback runs synchronously on the caller's goroutine.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.elapsed += d
	fn := m.onTick
	elapsed := m.elapsed
	m.mu.Unlock()

	if fn != nil {
		fn(elapsed)
	}
}
