// ABOUTME: Tests for the logical timeline
// ABOUTME: Drives the timeline with a manual clock for deterministic positions
package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sendspin/multitrack-go/pkg/clock"
)

type recorder struct {
	positions []time.Duration
	ends      int
}

func newTimeline(rangeLength time.Duration) (*Timeline, *clock.Manual, *recorder) {
	c := clock.NewManual()
	rec := &recorder{}
	tl := New(Config{
		Clock:      c,
		OnPosition: func(d time.Duration) { rec.positions = append(rec.positions, d) },
		OnEnd:      func() { rec.ends++ },
	})
	tl.SetRange(rangeLength)
	return tl, c, rec
}

func TestStartAdvances(t *testing.T) {
	tl, c, rec := newTimeline(10 * time.Second)

	tl.Start()
	require.True(t, tl.IsRunning())

	c.Advance(100 * time.Millisecond)
	c.Advance(100 * time.Millisecond)

	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, rec.positions)
	assert.Equal(t, 200*time.Millisecond, tl.CurrentTime())
}

func TestStartIsNoOpWhenRunning(t *testing.T) {
	tl, c, _ := newTimeline(10 * time.Second)

	tl.Start()
	c.Advance(time.Second)
	tl.Start()

	assert.Equal(t, 1, c.Starts())
	assert.Equal(t, time.Second, tl.CurrentTime())
}

func TestPauseFreezesPosition(t *testing.T) {
	tl, c, _ := newTimeline(10 * time.Second)

	tl.Start()
	c.Advance(time.Second)
	tl.Pause()
	tl.Pause()

	c.Advance(time.Second)
	assert.Equal(t, time.Second, tl.CurrentTime())
	assert.False(t, tl.IsRunning())

	tl.Start()
	c.Advance(500 * time.Millisecond)
	assert.Equal(t, 1500*time.Millisecond, tl.CurrentTime())
}

func TestMonotonicAcrossPauseResume(t *testing.T) {
	tl, c, _ := newTimeline(time.Minute)

	var last time.Duration
	for i := 0; i < 20; i++ {
		if i%3 == 0 {
			tl.Pause()
			frozen := tl.CurrentTime()
			c.Advance(250 * time.Millisecond)
			assert.Equal(t, frozen, tl.CurrentTime(), "paused position must not move")
			tl.Start()
		}
		c.Advance(100 * time.Millisecond)
		now := tl.CurrentTime()
		assert.GreaterOrEqual(t, now, last)
		last = now
	}
}

func TestSeek(t *testing.T) {
	tests := []struct {
		name  string
		start time.Duration
		delta time.Duration
		want  time.Duration
	}{
		{"forward", time.Second, 2 * time.Second, 3 * time.Second},
		{"backward", 3 * time.Second, -time.Second, 2 * time.Second},
		{"clamp low", time.Second, -5 * time.Second, 0},
		{"clamp high", time.Second, 30 * time.Second, 7 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl, _, _ := newTimeline(7 * time.Second)
			tl.Seek(tt.start)

			got := tl.Seek(tt.delta)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, tl.CurrentTime())
			assert.False(t, tl.IsRunning())
		})
	}
}

func TestSeekWhileRunningRestartsSegment(t *testing.T) {
	tl, c, _ := newTimeline(10 * time.Second)

	tl.Start()
	c.Advance(time.Second)
	tl.Seek(2 * time.Second)

	assert.Equal(t, 2, c.Starts())
	assert.Equal(t, 3*time.Second, tl.CurrentTime())
	assert.True(t, tl.IsRunning())

	c.Advance(time.Second)
	assert.Equal(t, 4*time.Second, tl.CurrentTime())
}

func TestSeekThenResetIsZero(t *testing.T) {
	tl, c, _ := newTimeline(10 * time.Second)

	tl.Start()
	c.Advance(time.Second)
	tl.Seek(4 * time.Second)
	tl.Reset()

	assert.Equal(t, time.Duration(0), tl.CurrentTime())
	assert.False(t, tl.IsRunning())
	assert.False(t, c.Running())
}

func TestEndOfRange(t *testing.T) {
	tl, c, rec := newTimeline(time.Second)

	tl.Start()
	c.Advance(600 * time.Millisecond)
	c.Advance(600 * time.Millisecond)

	assert.Equal(t, 1, rec.ends)
	assert.Equal(t, []time.Duration{600 * time.Millisecond}, rec.positions)
	assert.False(t, tl.IsRunning())
	assert.False(t, c.Running())
	assert.Equal(t, time.Second, tl.CurrentTime())

	// Further ticks are ignored
	c.Advance(time.Second)
	assert.Equal(t, 1, rec.ends)
}

func TestZeroRangeEndsOnStart(t *testing.T) {
	tl, c, rec := newTimeline(0)

	tl.Start()

	assert.Equal(t, 1, rec.ends)
	assert.False(t, tl.IsRunning())
	assert.False(t, c.Running())
	assert.Equal(t, time.Duration(0), tl.CurrentTime())
}

func TestSetRangeClampsPosition(t *testing.T) {
	tl, _, _ := newTimeline(10 * time.Second)
	tl.Seek(8 * time.Second)

	tl.SetRange(5 * time.Second)
	assert.Equal(t, 5*time.Second, tl.CurrentTime())
	assert.Equal(t, 5*time.Second, tl.Range())

	tl.SetRange(-time.Second)
	assert.Equal(t, time.Duration(0), tl.Range())
	assert.Equal(t, time.Duration(0), tl.CurrentTime())
}

func TestSetRangeWhileRunningKeepsPosition(t *testing.T) {
	tl, c, _ := newTimeline(10 * time.Second)

	tl.Start()
	c.Advance(2 * time.Second)
	tl.SetRange(20 * time.Second)

	assert.True(t, tl.IsRunning())
	assert.Equal(t, 2*time.Second, tl.CurrentTime())
	c.Advance(time.Second)
	assert.Equal(t, 3*time.Second, tl.CurrentTime())
}

func TestCallbackMayReenter(t *testing.T) {
	c := clock.NewManual()
	var tl *Timeline
	restarted := false
	tl = New(Config{
		Clock: c,
		OnEnd: func() {
			if !restarted {
				restarted = true
				tl.Reset()
				tl.Start()
			}
		},
	})
	tl.SetRange(time.Second)

	tl.Start()
	c.Advance(2 * time.Second)

	assert.True(t, restarted)
	assert.True(t, tl.IsRunning())
	assert.Equal(t, time.Duration(0), tl.CurrentTime())
}

func TestDefaultClock(t *testing.T) {
	tl := New(Config{})
	_, ok := tl.clock.(*clock.Ticker)
	assert.True(t, ok)
}
