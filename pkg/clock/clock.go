// ABOUTME: Clock interface and the time.Ticker-backed implementation
// ABOUTME: Each running segment owns one goroutine; stale ticks are dropped by generation
package clock

import (
	"sync"
	"time"
)

// DefaultInterval is the tick period used when none is given
const DefaultInterval = 100 * time.Millisecond

// Clock produces elapsed-time notifications since the last Start
type Clock interface {
	// Start begins counting from zero; restarts the segment if already running
	Start()
	// Stop halts ticking; idempotent and non-blocking
	Stop()
	// Elapsed returns time since the last Start, frozen after Stop
	Elapsed() time.Duration
	// Running reports whether the clock is counting
	Running() bool
	// OnTick registers the callback invoked every period while running
	OnTick(fn func(elapsed time.Duration))
}

// Ticker is a Clock driven by time.Ticker
type Ticker struct {
	interval time.Duration
	now      func() time.Time

	mu         sync.Mutex
	onTick     func(time.Duration)
	running    bool
	started    time.Time
	frozen     time.Duration
	generation uint64
	stopCh     chan struct{}
}

// NewTicker creates a ticker clock with the given period
func NewTicker(interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Ticker{
		interval: interval,
		now:      time.Now,
	}
}

// Interval returns the tick period
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

// OnTick registers the tick callback
func (t *Ticker) OnTick(fn func(elapsed time.Duration)) {
	t.mu.Lock()
	t.onTick = fn
	t.mu.Unlock()
}

// Start begins a new running segment
func (t *Ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		close(t.stopCh)
	}

	t.generation++
	t.running = true
	t.started = t.now()
	t.frozen = 0
	t.stopCh = make(chan struct{})

	go t.run(t.generation, t.stopCh)
}

// Stop halts the running segment
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return
	}

	t.frozen = t.now().Sub(t.started)
	t.running = false
	t.generation++
	close(t.stopCh)
	t.stopCh = nil
}

// Elapsed returns time since the last Start
func (t *Ticker) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return t.now().Sub(t.started)
	}
	return t.frozen
}

// Running reports whether a segment is active
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *Ticker) run(generation uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			if t.generation != generation {
				t.mu.Unlock()
				return
			}
			fn := t.onTick
			elapsed := t.now().Sub(t.started)
			t.mu.Unlock()

			if fn != nil {
				fn(elapsed)
			}
		}
	}
}
