// ABOUTME: Logical playback-position clock built on a periodic Clock
// ABOUTME: Authoritative for current time independent of the render clock
package timeline

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sendspin/multitrack-go/pkg/clock"
)

// Config holds timeline configuration
type Config struct {
	// Clock drives ticks; defaults to a 100ms Ticker
	Clock clock.Clock

	// OnPosition receives the current time on every tick that is not end-of-range
	OnPosition func(time.Duration)

	// OnEnd is raised once when the position reaches the end of the range
	OnEnd func()

	Logger *logrus.Entry
}

// Timeline tracks the logical playback position.
// currentTime = clamp(accumulated + running segment elapsed, 0, range)
type Timeline struct {
	config Config
	clock  clock.Clock
	log    *logrus.Entry

	mu          sync.Mutex
	accumulated time.Duration
	running     bool
	rangeLength time.Duration
}

// New creates a stopped timeline at zero with an empty range
func New(config Config) *Timeline {
	if config.Clock == nil {
		config.Clock = clock.NewTicker(clock.DefaultInterval)
	}
	if config.Logger == nil {
		config.Logger = logrus.NewEntry(logrus.StandardLogger())
	}

	t := &Timeline{
		config: config,
		clock:  config.Clock,
		log:    config.Logger.WithField("component", "timeline"),
	}
	t.clock.OnTick(t.handleTick)
	return t
}

// Start marks the timeline running. No-op if already running.
// With an empty range it signals end-of-range immediately and stays stopped.
func (t *Timeline) Start() {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}

	if t.rangeLength == 0 {
		t.accumulated = 0
		t.mu.Unlock()
		t.log.Debug("Start on empty range, ending immediately")
		t.emitEnd()
		return
	}

	t.running = true
	t.clock.Start()
	t.mu.Unlock()
}

// Pause folds the running segment into the accumulated position
func (t *Timeline) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return
	}

	t.accumulated = t.currentLocked()
	t.clock.Stop()
	t.running = false
}

// Reset stops the timeline and returns the position to zero
func (t *Timeline) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.clock.Stop()
	t.accumulated = 0
	t.running = false
}

// Seek moves the position by a signed delta, clamped into the range.
// A running timeline restarts its clock segment from the new position.
// Returns the new position.
func (t *Timeline) Seek(delta time.Duration) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.accumulated = t.clamp(t.currentLocked() + delta)
	if t.running {
		t.clock.Start()
	}
	return t.accumulated
}

// SetRange updates the range length, clamping the stored position into it
func (t *Timeline) SetRange(length time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if length < 0 {
		length = 0
	}
	if t.running {
		t.accumulated = t.currentLocked()
		t.clock.Start()
	}
	t.rangeLength = length
	t.accumulated = t.clamp(t.accumulated)
}

// CurrentTime returns the clamped logical position
func (t *Timeline) CurrentTime() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentLocked()
}

// IsRunning reports whether the timeline is advancing
func (t *Timeline) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Range returns the current range length
func (t *Timeline) Range() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rangeLength
}

// handleTick re-samples the clock under the lock; the passed elapsed value
// may belong to a segment that was restarted after it was read.
func (t *Timeline) handleTick(time.Duration) {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}

	current := t.currentLocked()
	if current >= t.rangeLength {
		t.clock.Stop()
		t.running = false
		t.accumulated = t.rangeLength
		t.mu.Unlock()

		t.log.Debugf("Reached end of range at %v", current)
		t.emitEnd()
		return
	}
	t.mu.Unlock()

	if t.config.OnPosition != nil {
		t.config.OnPosition(current)
	}
}

func (t *Timeline) emitEnd() {
	if t.config.OnEnd != nil {
		t.config.OnEnd()
	}
}

func (t *Timeline) currentLocked() time.Duration {
	current := t.accumulated
	if t.running {
		current += t.clock.Elapsed()
	}
	return t.clamp(current)
}

func (t *Timeline) clamp(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > t.rangeLength {
		return t.rangeLength
	}
	return d
}
