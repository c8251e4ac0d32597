// ABOUTME: Per-track segment scheduler
// ABOUTME: Re-derives which part of a source to render after an arbitrary seek
package schedule

import (
	"fmt"

	"github.com/Sendspin/multitrack-go/pkg/render"
	"github.com/Sendspin/multitrack-go/pkg/source"
)

// Request is one render command for a sink
type Request struct {
	// Full renders the whole source; otherwise [From, To) is rendered
	Full bool
	From int64
	To   int64
	At   render.Anchor
}

// String formats the request for logs and tooling
func (r Request) String() string {
	at := "now"
	if !r.At.Now {
		at = fmt.Sprintf("+%d", r.At.Frames)
	}
	if r.Full {
		return fmt.Sprintf("full@%s", at)
	}
	return fmt.Sprintf("partial[%d,%d)@%s", r.From, r.To, at)
}

// Scheduler issues render requests for one source against one sink.
// Each start frame is a position on the group timeline, in the source's own
// frames, where a full play-through of the source begins.
type Scheduler struct {
	src         source.Source
	sink        render.Sink
	startFrames []int64
}

// New creates a scheduler; with no start frames the source begins at frame 0
func New(src source.Source, sink render.Sink, startFrames ...int64) *Scheduler {
	s := &Scheduler{src: src, sink: sink}
	s.SetStartFrames(startFrames...)
	return s
}

// SetStartFrames replaces the start frame list.
// Negative entries are clamped to zero.
func (s *Scheduler) SetStartFrames(startFrames ...int64) {
	if len(startFrames) == 0 {
		startFrames = []int64{0}
	}
	s.startFrames = make([]int64, len(startFrames))
	for i, f := range startFrames {
		if f < 0 {
			f = 0
		}
		s.startFrames[i] = f
	}
}

// StartFrames returns a copy of the start frame list
func (s *Scheduler) StartFrames() []int64 {
	out := make([]int64, len(s.startFrames))
	copy(out, s.startFrames)
	return out
}

// SetSource swaps the scheduled source
func (s *Scheduler) SetSource(src source.Source) {
	s.src = src
}

// Source returns the scheduled source
func (s *Scheduler) Source() source.Source {
	return s.src
}

func (s *Scheduler) length() int64 {
	if s.src == nil {
		return 0
	}
	return s.src.Frames()
}

// Plan returns the requests for playback from the start of the timeline
func (s *Scheduler) Plan() []Request {
	length := s.length()
	if length <= 0 {
		return nil
	}

	plan := make([]Request, 0, len(s.startFrames))
	for _, start := range s.startFrames {
		plan = append(plan, Request{Full: true, To: length, At: render.AtFrame(start)})
	}
	return plan
}

// PlanFrom returns the requests for playback from timeline frame f.
// A start at exactly f counts as not yet started.
func (s *Scheduler) PlanFrom(f int64) []Request {
	length := s.length()
	if length <= 0 {
		return nil
	}

	var plan []Request
	for _, start := range s.startFrames {
		end := start + length
		switch {
		case start < f && f < end:
			// Mid-playback: render the rest of the source now
			plan = append(plan, Request{From: f - start, To: length, At: render.Immediately})
		case start >= f:
			plan = append(plan, Request{Full: true, To: length, At: render.AtFrame(start - f)})
		default:
			// Entirely in the past
		}
	}
	return plan
}

// ScheduleFromStart issues Plan to the sink
func (s *Scheduler) ScheduleFromStart() []Request {
	plan := s.Plan()
	s.issue(plan)
	return plan
}

// ScheduleFrom issues PlanFrom(f) to the sink
func (s *Scheduler) ScheduleFrom(f int64) []Request {
	plan := s.PlanFrom(f)
	s.issue(plan)
	return plan
}

func (s *Scheduler) issue(plan []Request) {
	if s.sink == nil {
		return
	}
	for _, r := range plan {
		if r.Full {
			s.sink.ScheduleFull(s.src, r.At)
		} else {
			s.sink.SchedulePartial(s.src, r.From, r.To, r.At)
		}
	}
}
