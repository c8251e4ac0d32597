// ABOUTME: Immutable-per-version description of one schedulable track
// ABOUTME: Derived length and duration are always computed from source and delay
package track

import (
	"time"

	"github.com/google/uuid"

	"github.com/Sendspin/multitrack-go/pkg/audio"
	"github.com/Sendspin/multitrack-go/pkg/source"
)

// DefaultGain is unity gain
const DefaultGain = 1.0

// Item describes one audio source placed on the group timeline.
// Items are values: edits return a new Item with the same ID.
type Item struct {
	ID     string
	Source source.Source
	Delay  time.Duration
	Gain   float64
}

// New creates an item with a fresh ID. Negative delays clamp to zero.
func New(src source.Source, delay time.Duration, gain float64) Item {
	return Item{
		ID:     uuid.NewString(),
		Source: src,
		Delay:  clampDelay(delay),
		Gain:   gain,
	}
}

// WithDelay returns a copy with a new delay
func (i Item) WithDelay(delay time.Duration) Item {
	i.Delay = clampDelay(delay)
	return i
}

// WithGain returns a copy with a new gain
func (i Item) WithGain(gain float64) Item {
	i.Gain = gain
	return i
}

// SampleRate returns the source's native rate
func (i Item) SampleRate() int {
	if i.Source == nil {
		return 0
	}
	return i.Source.SampleRate()
}

// SourceFrames returns the source length in frames
func (i Item) SourceFrames() int64 {
	if i.Source == nil {
		return 0
	}
	return i.Source.Frames()
}

// DelayFrames returns the delay in frames at the native rate
func (i Item) DelayFrames() int64 {
	return audio.DurationToFrames(i.Delay, i.SampleRate())
}

// LengthFrames returns delay plus source length in frames
func (i Item) LengthFrames() int64 {
	return i.DelayFrames() + i.SourceFrames()
}

// Duration returns the item's span on the group timeline
func (i Item) Duration() time.Duration {
	return audio.FramesToDuration(i.LengthFrames(), i.SampleRate())
}

// Format returns the source's native format
func (i Item) Format() audio.Format {
	if i.Source == nil {
		return audio.Format{}
	}
	return source.FormatOf(i.Source)
}

// Name returns the source name
func (i Item) Name() string {
	if i.Source == nil {
		return ""
	}
	return i.Source.Name()
}

func clampDelay(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
