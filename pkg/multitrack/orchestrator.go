// ABOUTME: Playback orchestrator for a group of synchronized tracks
// ABOUTME: Fans transport commands to track players against one shared timeline
package multitrack

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sendspin/multitrack-go/pkg/audio"
	"github.com/Sendspin/multitrack-go/pkg/clock"
	"github.com/Sendspin/multitrack-go/pkg/player"
	"github.com/Sendspin/multitrack-go/pkg/render"
	"github.com/Sendspin/multitrack-go/pkg/source"
	"github.com/Sendspin/multitrack-go/pkg/timeline"
	"github.com/Sendspin/multitrack-go/pkg/track"
)

// DefaultUpdateInterval is the position notification cadence
const DefaultUpdateInterval = 100 * time.Millisecond

// Config holds orchestrator configuration
type Config struct {
	// Engine renders the tracks (required)
	Engine render.Engine

	// Provider opens files for AppendFile; defaults to a FileProvider
	Provider source.Provider

	// Clock drives the timeline; defaults to a Ticker at UpdateInterval
	Clock clock.Clock

	// UpdateInterval is the position update cadence (default 100ms)
	UpdateInterval time.Duration

	// Policy reduces tracks to duration and reference format
	Policy Policy

	// Callbacks run outside the orchestrator lock and may call back into it
	OnPositionUpdate   func(position time.Duration)
	OnPlaybackFinished func()
	OnStateChange      func(state State)

	Logger *logrus.Entry
}

type entry struct {
	item   track.Item
	player *player.Track
}

// Orchestrator owns the timeline and the track players of one group
type Orchestrator struct {
	config   Config
	engine   render.Engine
	provider source.Provider
	policy   Policy
	timeline *timeline.Timeline
	log      *logrus.Entry

	mu       sync.Mutex
	entries  []*entry
	state    State
	duration time.Duration

	// set while OnPlaybackFinished runs
	finishing atomic.Bool
}

// events collects notifications to deliver after the lock is released
type events struct {
	state    *State
	position *time.Duration
	finished bool
}

// New creates an empty, stopped orchestrator
func New(config Config) (*Orchestrator, error) {
	if config.Engine == nil {
		return nil, ErrNoEngine
	}
	if config.UpdateInterval <= 0 {
		config.UpdateInterval = DefaultUpdateInterval
	}
	if config.Clock == nil {
		config.Clock = clock.NewTicker(config.UpdateInterval)
	}
	if config.Logger == nil {
		config.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if config.Provider == nil {
		config.Provider = source.NewFileProvider(config.Logger)
	}

	o := &Orchestrator{
		config:   config,
		engine:   config.Engine,
		provider: config.Provider,
		policy:   config.Policy.withDefaults(),
		log:      config.Logger.WithField("component", "orchestrator"),
	}
	o.timeline = timeline.New(timeline.Config{
		Clock:      config.Clock,
		OnPosition: o.handlePosition,
		OnEnd:      o.handleEnd,
		Logger:     config.Logger,
	})
	return o, nil
}

// Play starts the group from the current position, rewinding first when the
// playhead sits at the end. No-op when already playing or when there are no
// tracks. A zero-length group reports finished at once, except when Play is
// called from OnPlaybackFinished itself.
func (o *Orchestrator) Play() error {
	o.mu.Lock()
	var ev events
	err := o.playLocked(&ev, true)
	o.mu.Unlock()

	o.fire(ev)
	return err
}

func (o *Orchestrator) playLocked(ev *events, rewindAtEnd bool) error {
	if o.state == StatePlaying || len(o.entries) == 0 {
		return nil
	}

	if !o.engine.IsRunning() {
		format := o.referenceFormatLocked()
		if err := o.engine.Start(format); err != nil {
			o.log.WithError(err).Warn("Render engine failed to start")
			return fmt.Errorf("%w: %v", ErrEngineStart, err)
		}
		o.log.Infof("Render engine started at %d Hz, %d channels", format.SampleRate, format.Channels)
	}

	if o.duration == 0 {
		o.setState(ev, StateStopped)
		ev.finished = !o.finishing.Load()
		return nil
	}

	if rewindAtEnd && o.timeline.CurrentTime() >= o.duration {
		o.timeline.Reset()
		for _, e := range o.entries {
			e.player.Seek(0, false)
		}
	}

	o.timeline.Start()

	anchor := o.entries[0].player.RenderTime()
	for _, e := range o.entries {
		e.player.Play(anchor)
	}

	o.log.Debugf("Playing %d tracks from %v at anchor %d", len(o.entries), o.timeline.CurrentTime(), anchor.SampleTime)
	o.setState(ev, StatePlaying)
	return nil
}

// Pause holds every track at the current position. No-op unless playing.
func (o *Orchestrator) Pause() {
	o.mu.Lock()
	var ev events
	o.pauseLocked(&ev)
	o.mu.Unlock()

	o.fire(ev)
}

func (o *Orchestrator) pauseLocked(ev *events) {
	if o.state != StatePlaying {
		return
	}

	o.timeline.Pause()
	for _, e := range o.entries {
		e.player.Pause()
	}
	o.setState(ev, StatePaused)
}

// Stop rewinds to zero and reschedules every track from the start
func (o *Orchestrator) Stop() {
	o.rewind(false)
}

// Reload is Stop that also re-applies each item's start frames
func (o *Orchestrator) Reload() {
	o.rewind(true)
}

func (o *Orchestrator) rewind(reapply bool) {
	o.mu.Lock()
	var ev events

	o.timeline.Reset()
	for _, e := range o.entries {
		if reapply {
			e.player.SetItem(e.item)
		}
		e.player.Reload()
	}
	o.setState(&ev, StateStopped)
	zero := time.Duration(0)
	ev.position = &zero
	o.mu.Unlock()

	o.fire(ev)
}

// Reset removes every track and returns to the just-constructed state
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	var ev events
	o.resetLocked(&ev)
	o.mu.Unlock()

	o.fire(ev)
}

func (o *Orchestrator) resetLocked(ev *events) {
	o.timeline.Reset()
	for _, e := range o.entries {
		e.player.Stop()
		o.engine.Detach(e.player.Sink())
	}
	o.entries = nil
	o.updateDurationLocked()
	o.setState(ev, StateStopped)
}

// Seek moves the group by a signed delta, clamped into [0, Duration].
// Every track is rescheduled at the new position with the current running
// state. Returns the new position.
func (o *Orchestrator) Seek(delta time.Duration) time.Duration {
	o.mu.Lock()
	var ev events
	pos := o.seekLocked(delta, &ev)
	o.mu.Unlock()

	o.fire(ev)
	return pos
}

// SeekTo moves the group to an absolute position
func (o *Orchestrator) SeekTo(position time.Duration) time.Duration {
	o.mu.Lock()
	var ev events
	pos := o.seekLocked(position-o.timeline.CurrentTime(), &ev)
	o.mu.Unlock()

	o.fire(ev)
	return pos
}

func (o *Orchestrator) seekLocked(delta time.Duration, ev *events) time.Duration {
	pos := clampDuration(o.timeline.Seek(delta), o.duration)

	playing := o.state == StatePlaying
	for _, e := range o.entries {
		e.player.Seek(pos, playing)
	}

	if !playing {
		ev.position = &pos
	}
	return pos
}

// AppendTrack adds a source to the group. A track added mid-playback joins
// at the current position.
func (o *Orchestrator) AppendTrack(src source.Source, delay time.Duration, gain float64) (track.Item, error) {
	if src == nil {
		return track.Item{}, fmt.Errorf("%w: nil source", source.ErrUnreadable)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	sink, err := o.engine.Attach(source.FormatOf(src))
	if err != nil {
		return track.Item{}, fmt.Errorf("failed to attach track %s: %w", src.Name(), err)
	}

	item := track.New(src, delay, gain)
	p := player.New(item, sink, o.config.Logger)
	o.entries = append(o.entries, &entry{item: item, player: p})
	o.updateDurationLocked()

	p.Seek(o.timeline.CurrentTime(), o.state == StatePlaying)

	o.log.WithFields(logrus.Fields{
		"track":    item.Name(),
		"delay":    item.Delay,
		"gain":     item.Gain,
		"duration": item.Duration(),
	}).Info("Track added")
	return item, nil
}

// AppendFile opens path with the provider and appends it.
// Unreadable files surface source.ErrUnreadable and are not added.
func (o *Orchestrator) AppendFile(path string, delay time.Duration, gain float64) (track.Item, error) {
	src, err := o.provider.Open(path)
	if err != nil {
		return track.Item{}, err
	}
	return o.AppendTrack(src, delay, gain)
}

// RemoveTrack detaches the track at index
func (o *Orchestrator) RemoveTrack(index int) error {
	o.mu.Lock()
	var ev events

	if err := o.checkIndexLocked(index); err != nil {
		o.mu.Unlock()
		return err
	}

	e := o.entries[index]
	e.player.Stop()
	o.engine.Detach(e.player.Sink())
	o.entries = append(o.entries[:index], o.entries[index+1:]...)
	o.updateDurationLocked()

	if len(o.entries) == 0 {
		o.timeline.Reset()
		o.setState(&ev, StateStopped)
	}
	o.mu.Unlock()

	o.fire(ev)
	return nil
}

// SetDelay changes one track's start delay. A playing group is paused for
// the edit and resumed with a fresh shared anchor. When the shorter group
// leaves the playhead at the end it resumes there, and the next tick reports
// playback finished.
func (o *Orchestrator) SetDelay(delay time.Duration, index int) error {
	o.mu.Lock()
	var ev events

	if err := o.checkIndexLocked(index); err != nil {
		o.mu.Unlock()
		return err
	}

	wasPlaying := o.state == StatePlaying
	o.pauseLocked(&ev)

	e := o.entries[index]
	e.item = e.item.WithDelay(delay)
	e.player.SetItem(e.item)
	o.updateDurationLocked()
	e.player.Seek(o.timeline.CurrentTime(), false)

	var err error
	if wasPlaying {
		err = o.playLocked(&ev, false)
	}
	if o.state == StatePlaying && wasPlaying {
		ev.state = nil
	}
	o.mu.Unlock()

	o.fire(ev)
	return err
}

// SetGain changes one track's gain without rescheduling
func (o *Orchestrator) SetGain(gain float64, index int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.checkIndexLocked(index); err != nil {
		return err
	}

	e := o.entries[index]
	e.item = e.item.WithGain(gain)
	e.player.SetItem(e.item)
	return nil
}

// IsPlaying reports whether the group is playing
func (o *Orchestrator) IsPlaying() bool {
	return o.State() == StatePlaying
}

// State returns the transport state
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Duration returns the group length
func (o *Orchestrator) Duration() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.duration
}

// CurrentTime returns the timeline position
func (o *Orchestrator) CurrentTime() time.Duration {
	return o.timeline.CurrentTime()
}

// Len returns the number of tracks
func (o *Orchestrator) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.entries)
}

// Tracks returns the items in insertion order
func (o *Orchestrator) Tracks() []track.Item {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.itemsLocked()
}

// ReferenceFormat returns the format the engine is started with
func (o *Orchestrator) ReferenceFormat() audio.Format {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.referenceFormatLocked()
}

// Close resets the group and closes the render engine
func (o *Orchestrator) Close() error {
	o.Reset()
	if err := o.engine.Close(); err != nil {
		return fmt.Errorf("failed to close render engine: %w", err)
	}
	return nil
}

func (o *Orchestrator) handlePosition(pos time.Duration) {
	o.mu.Lock()
	pos = clampDuration(pos, o.duration)
	o.mu.Unlock()

	if o.config.OnPositionUpdate != nil {
		o.config.OnPositionUpdate(pos)
	}
}

// handleEnd leaves players running out their queues; the caller decides
// whether to loop. An end that a seek or restart overtook is dropped.
func (o *Orchestrator) handleEnd() {
	o.mu.Lock()
	if o.state != StatePlaying || o.timeline.IsRunning() || o.timeline.CurrentTime() < o.duration {
		o.mu.Unlock()
		o.log.Debug("Ignoring stale end of range")
		return
	}
	ev := events{finished: true}
	o.setState(&ev, StateStopped)
	o.mu.Unlock()

	o.log.Info("Playback finished")
	o.fire(ev)
}

func (o *Orchestrator) fire(ev events) {
	if ev.state != nil && o.config.OnStateChange != nil {
		o.config.OnStateChange(*ev.state)
	}
	if ev.position != nil && o.config.OnPositionUpdate != nil {
		o.config.OnPositionUpdate(*ev.position)
	}
	if ev.finished && o.config.OnPlaybackFinished != nil {
		o.finishing.Store(true)
		defer o.finishing.Store(false)
		o.config.OnPlaybackFinished()
	}
}

func (o *Orchestrator) setState(ev *events, s State) {
	if o.state == s {
		return
	}
	o.log.Debugf("State %s -> %s", o.state, s)
	o.state = s
	ev.state = &s
}

func (o *Orchestrator) updateDurationLocked() {
	o.duration = o.policy.Duration(o.itemsLocked())
	o.timeline.SetRange(o.duration)
}

func (o *Orchestrator) referenceFormatLocked() audio.Format {
	return o.policy.Format(o.itemsLocked())
}

func (o *Orchestrator) itemsLocked() []track.Item {
	items := make([]track.Item, len(o.entries))
	for i, e := range o.entries {
		items[i] = e.item
	}
	return items
}

func (o *Orchestrator) checkIndexLocked(index int) error {
	if index < 0 || index >= len(o.entries) {
		return fmt.Errorf("%w: %d (have %d)", ErrTrackIndex, index, len(o.entries))
	}
	return nil
}

func clampDuration(d, max time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > max {
		return max
	}
	return d
}
