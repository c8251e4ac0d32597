// ABOUTME: Recording in-memory render engine
// ABOUTME: Captures every command for tests and dry runs without audio hardware
package memory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Sendspin/multitrack-go/pkg/audio"
	"github.com/Sendspin/multitrack-go/pkg/render"
	"github.com/Sendspin/multitrack-go/pkg/source"
)

// ErrClosed is returned when attaching to a closed engine
var ErrClosed = errors.New("engine closed")

// Engine is a render.Engine that renders nothing and records everything.
// Its render clock only moves on Advance.
type Engine struct {
	// StartErr, when set, makes Start fail with it
	StartErr error

	log *logrus.Entry

	mu      sync.Mutex
	running bool
	closed  bool
	format  audio.Format
	now     int64
	rate    int
	sinks   []*Sink
	starts  int
}

// NewEngine creates a stopped engine
func NewEngine(logger *logrus.Entry) *Engine {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Engine{
		log:  logger.WithField("engine", "memory"),
		rate: 48000,
	}
}

// Attach creates a recording sink
func (e *Engine) Attach(format audio.Format) (render.Sink, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrClosed
	}

	s := &Sink{engine: e, format: format, gain: 1}
	e.sinks = append(e.sinks, s)
	return s, nil
}

// Detach removes a sink
func (e *Engine) Detach(sink render.Sink) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, s := range e.sinks {
		if render.Sink(s) == sink {
			s.detached = true
			e.sinks = append(e.sinks[:i], e.sinks[i+1:]...)
			return
		}
	}
}

// Start marks the engine running at the reference format
func (e *Engine) Start(format audio.Format) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.starts++
	if e.StartErr != nil {
		return fmt.Errorf("memory engine start: %w", e.StartErr)
	}
	if e.closed {
		return ErrClosed
	}

	e.running = true
	e.format = format
	if format.SampleRate > 0 {
		e.rate = format.SampleRate
	}
	e.log.Debugf("Started at %d Hz, %d channels", format.SampleRate, format.Channels)
	return nil
}

// IsRunning reports whether Start succeeded
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Now returns the render clock
func (e *Engine) Now() render.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return render.Time{SampleTime: e.now, SampleRate: e.rate}
}

// Advance moves the render clock by n frames at the engine rate
func (e *Engine) Advance(n int64) {
	e.mu.Lock()
	e.now += n
	e.mu.Unlock()
}

// Format returns the reference format of the last successful Start
func (e *Engine) Format() audio.Format {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.format
}

// Starts returns how many times Start was called
func (e *Engine) Starts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.starts
}

// Sinks returns the attached sinks in attach order
func (e *Engine) Sinks() []*Sink {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Sink, len(e.sinks))
	copy(out, e.sinks)
	return out
}

// Close stops the engine and detaches all sinks
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.running = false
	e.closed = true
	for _, s := range e.sinks {
		s.detached = true
	}
	e.sinks = nil
	return nil
}

// Kind names a recorded sink command
type Kind string

const (
	KindFull    Kind = "full"
	KindPartial Kind = "partial"
	KindPlay    Kind = "play"
	KindPause   Kind = "pause"
	KindStop    Kind = "stop"
	KindGain    Kind = "gain"
)

// Command is one recorded sink call
type Command struct {
	Kind   Kind
	Source source.Source
	From   int64
	To     int64
	At     render.Anchor
	PlayAt render.Time
	Gain   float64
}

// Sink records the commands it receives and keeps the pending queue
type Sink struct {
	engine *Engine
	format audio.Format

	mu       sync.Mutex
	playing  bool
	gain     float64
	queue    []Command
	log      []Command
	playAt   render.Time
	detached bool
}

// ScheduleFull queues the whole source
func (s *Sink) ScheduleFull(src source.Source, at render.Anchor) {
	s.record(Command{Kind: KindFull, Source: src, To: src.Frames(), At: at})
}

// SchedulePartial queues [from, to) of the source
func (s *Sink) SchedulePartial(src source.Source, from, to int64, at render.Anchor) {
	s.record(Command{Kind: KindPartial, Source: src, From: from, To: to, At: at})
}

// Play starts the sink; ignored while playing
func (s *Sink) Play(at render.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playing {
		return
	}
	s.playing = true
	s.playAt = at
	s.log = append(s.log, Command{Kind: KindPlay, PlayAt: at})
}

// Pause holds the queue
func (s *Sink) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.playing = false
	s.log = append(s.log, Command{Kind: KindPause})
}

// Stop halts playback and discards the queue
func (s *Sink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.playing = false
	s.queue = nil
	s.log = append(s.log, Command{Kind: KindStop})
}

// IsPlaying reports the play state
func (s *Sink) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// RenderTime returns the shared engine clock
func (s *Sink) RenderTime() render.Time {
	return s.engine.Now()
}

// SetGain records the gain
func (s *Sink) SetGain(gain float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gain = gain
	s.log = append(s.log, Command{Kind: KindGain, Gain: gain})
}

// Gain returns the last gain set
func (s *Sink) Gain() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gain
}

// Format returns the format the sink was attached with
func (s *Sink) Format() audio.Format {
	return s.format
}

// Queue returns the pending schedule requests
func (s *Sink) Queue() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Command, len(s.queue))
	copy(out, s.queue)
	return out
}

// Log returns every command received
func (s *Sink) Log() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Command, len(s.log))
	copy(out, s.log)
	return out
}

// PlayedAt returns the anchor of the last accepted Play
func (s *Sink) PlayedAt() render.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playAt
}

// Detached reports whether the sink was detached or its engine closed
func (s *Sink) Detached() bool {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()
	return s.detached
}

// ClearLog forgets recorded commands but keeps the queue
func (s *Sink) ClearLog() {
	s.mu.Lock()
	s.log = nil
	s.mu.Unlock()
}

func (s *Sink) record(c Command) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue = append(s.queue, c)
	s.log = append(s.log, c)
}
