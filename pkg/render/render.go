// ABOUTME: Render engine and per-track sink interfaces
// ABOUTME: The playback core issues fire-and-forget commands through these
package render

import (
	"time"

	"github.com/Sendspin/multitrack-go/pkg/audio"
	"github.com/Sendspin/multitrack-go/pkg/source"
)

// Time is an instant on an engine's render clock
type Time struct {
	SampleTime int64
	SampleRate int
}

// IsZero reports whether t carries no instant
func (t Time) IsZero() bool {
	return t.SampleRate == 0
}

// Duration converts the instant to elapsed render time
func (t Time) Duration() time.Duration {
	return audio.FramesToDuration(t.SampleTime, t.SampleRate)
}

// Anchor positions a render request relative to when the sink plays
type Anchor struct {
	// Frames is the offset from the play instant, in the source's frames
	Frames int64
	// Now requests rendering to begin immediately
	Now bool
}

// Immediately is the anchor for "start now"
var Immediately = Anchor{Now: true}

// AtFrame anchors a request n frames after the play instant.
// Zero is equivalent to Immediately.
func AtFrame(n int64) Anchor {
	if n <= 0 {
		return Immediately
	}
	return Anchor{Frames: n}
}

// Offset returns the anchor offset in frames
func (a Anchor) Offset() int64 {
	if a.Now {
		return 0
	}
	return a.Frames
}

// Sink is one track's render endpoint.
// Commands never block and never fail; Stop discards queued requests.
type Sink interface {
	// ScheduleFull queues the whole source at anchor
	ScheduleFull(src source.Source, at Anchor)
	// SchedulePartial queues frames [from, to) of the source at anchor
	SchedulePartial(src source.Source, from, to int64, at Anchor)
	// Play starts rendering queued requests at the given render instant.
	// Ignored when already playing.
	Play(at Time)
	Pause()
	Stop()
	IsPlaying() bool
	// RenderTime returns the sink's current render-clock instant
	RenderTime() Time
	SetGain(gain float64)
}

// Engine owns the render graph that sinks attach to
type Engine interface {
	// Attach creates a sink connected with the given format
	Attach(format audio.Format) (Sink, error)
	// Detach disconnects a sink
	Detach(sink Sink)
	// Start begins rendering at the reference format
	Start(format audio.Format) error
	IsRunning() bool
	// Now returns the engine render clock
	Now() Time
	Close() error
}
