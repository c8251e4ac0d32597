// ABOUTME: Track player binding one item and scheduler to one render sink
// ABOUTME: Exposes transport primitives in frame and time units
package player

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sendspin/multitrack-go/pkg/audio"
	"github.com/Sendspin/multitrack-go/pkg/render"
	"github.com/Sendspin/multitrack-go/pkg/schedule"
	"github.com/Sendspin/multitrack-go/pkg/track"
)

// Track drives one render sink for one track item
type Track struct {
	item      track.Item
	sink      render.Sink
	scheduler *schedule.Scheduler
	log       *logrus.Entry
}

// New binds an item to a sink. The item's delay becomes its start frame and
// its gain is applied to the sink. Nothing is scheduled yet.
func New(item track.Item, sink render.Sink, logger *logrus.Entry) *Track {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	t := &Track{
		item:      item,
		sink:      sink,
		scheduler: schedule.New(item.Source, sink, item.DelayFrames()),
		log:       logger.WithFields(logrus.Fields{"track": item.Name(), "id": item.ID}),
	}
	sink.SetGain(item.Gain)
	return t
}

// Item returns the bound item
func (t *Track) Item() track.Item {
	return t.item
}

// Sink returns the render sink
func (t *Track) Sink() render.Sink {
	return t.sink
}

// Scheduler returns the segment scheduler
func (t *Track) Scheduler() *schedule.Scheduler {
	return t.scheduler
}

// SetItem replaces the item and applies its gain. Start frames are reset to
// the delay only when the delay frame changed, so a custom SetStartFrames
// schedule survives gain edits. The caller re-seeks to make a new delay audible.
func (t *Track) SetItem(item track.Item) {
	delayChanged := item.DelayFrames() != t.item.DelayFrames()
	t.item = item
	t.scheduler.SetSource(item.Source)
	if delayChanged {
		t.scheduler.SetStartFrames(item.DelayFrames())
	}
	t.sink.SetGain(item.Gain)
}

// Play starts the sink at the shared anchor instant
func (t *Track) Play(at render.Time) {
	t.sink.Play(at)
}

// Pause pauses the sink
func (t *Track) Pause() {
	t.sink.Pause()
}

// Stop stops the sink, discarding queued requests
func (t *Track) Stop() {
	t.sink.Stop()
}

// IsPlaying reports the sink's play state
func (t *Track) IsPlaying() bool {
	return t.sink.IsPlaying()
}

// RenderTime returns the sink's render clock
func (t *Track) RenderTime() render.Time {
	return t.sink.RenderTime()
}

// Seek reschedules from a group timeline position, converted with this
// track's own sample rate
func (t *Track) Seek(to time.Duration, playing bool) []schedule.Request {
	return t.SeekFrame(audio.DurationToFrames(to, t.item.SampleRate()), playing)
}

// SeekFrame reschedules from a timeline frame. The sink is stopped first so
// the new plan supersedes anything queued; when playing it restarts at the
// sink's current render time.
func (t *Track) SeekFrame(frame int64, playing bool) []schedule.Request {
	t.sink.Stop()
	plan := t.scheduler.ScheduleFrom(frame)

	t.log.Debugf("Seek to frame %d: %v", frame, plan)

	if playing {
		t.sink.Play(t.sink.RenderTime())
	}
	return plan
}

// Reload stops the sink and schedules from the start
func (t *Track) Reload() []schedule.Request {
	t.sink.Stop()
	return t.scheduler.ScheduleFromStart()
}
