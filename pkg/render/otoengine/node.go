// ABOUTME: Per-track render node fed to an oto player
// ABOUTME: Slices scheduled source frames, resamples, maps channels, applies gain
package otoengine

import (
	"encoding/binary"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Sendspin/multitrack-go/pkg/audio"
	"github.com/Sendspin/multitrack-go/pkg/audio/resample"
	"github.com/Sendspin/multitrack-go/pkg/render"
	"github.com/Sendspin/multitrack-go/pkg/source"
)

// blockFrames is how many track frames are mixed per render step
const blockFrames = 512

// devicePlayer is the subset of *oto.Player a node drives
type devicePlayer interface {
	Play()
	Pause()
	Seek(offset int64, whence int) (int64, error)
	Err() error
	Close() error
}

// region is one scheduled request placed on the node's local timeline
type region struct {
	reader source.FrameReader
	from   int64 // first source frame
	to     int64 // end source frame, exclusive
	at     int64 // node frame where the region begins
}

func (r region) length() int64 {
	return r.to - r.from
}

// node implements render.Sink and io.ReadSeeker.
// Its cursor counts track frames since the play instant of the current queue.
type node struct {
	engine *Engine
	track  audio.Format // native format of the track
	output audio.Format // engine output format
	log    *logrus.Entry

	mu        sync.Mutex
	player    devicePlayer
	regions   []region
	cursor    int64
	silence   int64 // output frames of lead-in before the cursor advances
	playing   bool
	gain      float64
	resampler *resample.Resampler
	fifo      []int32 // resampled, channel-mapped output samples
	warned    bool

	mix     []int32
	acc     []int64
	scratch []int32
	out     []int32
}

func newNode(engine *Engine, track, output audio.Format, logger *logrus.Entry) *node {
	if track.Channels <= 0 {
		track.Channels = 2
	}
	if track.SampleRate <= 0 {
		track.SampleRate = output.SampleRate
	}
	return &node{
		engine:    engine,
		track:     track,
		output:    output,
		log:       logger,
		gain:      1,
		resampler: resample.New(track.SampleRate, output.SampleRate, track.Channels),
		mix:       make([]int32, blockFrames*track.Channels),
		acc:       make([]int64, blockFrames*track.Channels),
		scratch:   make([]int32, blockFrames*track.Channels),
	}
}

// ScheduleFull queues the whole source
func (n *node) ScheduleFull(src source.Source, at render.Anchor) {
	n.SchedulePartial(src, 0, src.Frames(), at)
}

// SchedulePartial queues [from, to) of the source
func (n *node) SchedulePartial(src source.Source, from, to int64, at render.Anchor) {
	reader, ok := src.(source.FrameReader)

	n.mu.Lock()
	defer n.mu.Unlock()

	if !ok {
		if !n.warned {
			n.log.Warnf("Source %s has no PCM access, rendering silence", src.Name())
			n.warned = true
		}
		return
	}
	if to <= from {
		return
	}

	n.regions = append(n.regions, region{
		reader: reader,
		from:   from,
		to:     to,
		at:     n.cursor + at.Offset(),
	})
}

// Play starts rendering with the queue anchored at the given instant
func (n *node) Play(at render.Time) {
	now := n.engine.Now()

	n.mu.Lock()
	if n.playing {
		n.mu.Unlock()
		return
	}
	n.playing = true
	n.alignLocked(at, now)
	p := n.player
	n.mu.Unlock()

	if p != nil {
		p.Play()
	}
}

// alignLocked compensates for the distance between the anchor and now:
// a future anchor becomes lead-in silence, a past one skips track frames
func (n *node) alignLocked(at, now render.Time) {
	if at.IsZero() || now.IsZero() {
		return
	}

	diff := at.SampleTime - now.SampleTime
	switch {
	case diff > 0:
		n.silence += diff
	case diff < 0:
		late := audio.FramesToDuration(-diff, now.SampleRate)
		n.cursor += audio.DurationToFrames(late, n.track.SampleRate)
	}
}

// Pause holds the node in place
func (n *node) Pause() {
	n.mu.Lock()
	n.playing = false
	p := n.player
	n.mu.Unlock()

	if p != nil {
		p.Pause()
	}
}

// Stop discards queued regions and the device buffer
func (n *node) Stop() {
	n.mu.Lock()
	n.playing = false
	n.resetLocked()
	p := n.player
	n.mu.Unlock()

	if p != nil {
		p.Pause()
		// Seeking the player drops whatever it buffered from the old queue
		if _, err := p.Seek(0, io.SeekStart); err != nil {
			n.log.WithError(err).Debug("Failed to flush player buffer")
		}
	}
}

func (n *node) resetLocked() {
	n.regions = nil
	n.cursor = 0
	n.silence = 0
	n.fifo = n.fifo[:0]
	n.resampler.Reset()
}

// IsPlaying reports the play state
func (n *node) IsPlaying() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.playing
}

// RenderTime returns the engine clock
func (n *node) RenderTime() render.Time {
	return n.engine.Now()
}

// SetGain sets the software gain applied at render
func (n *node) SetGain(gain float64) {
	if gain < 0 {
		gain = 0
	}
	n.mu.Lock()
	n.gain = gain
	n.mu.Unlock()
}

func (n *node) attachPlayer(p devicePlayer) {
	n.mu.Lock()
	n.player = p
	playing := n.playing
	n.mu.Unlock()

	if playing {
		p.Play()
	}
}

func (n *node) detachPlayer() devicePlayer {
	n.mu.Lock()
	defer n.mu.Unlock()
	p := n.player
	n.player = nil
	return p
}

// Read renders int16 little-endian output for the device player.
// It always fills p; silence is rendered where nothing is scheduled.
func (n *node) Read(p []byte) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	outCh := n.output.Channels
	frames := len(p) / (2 * outCh)
	if frames == 0 {
		return 0, nil
	}

	samples := n.renderLocked(frames)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(audio.SampleToInt16(s)))
	}
	return len(samples) * 2, nil
}

// Seek only supports rewinding to the start, which the player uses to flush
func (n *node) Seek(offset int64, whence int) (int64, error) {
	return 0, nil
}

// renderLocked produces exactly frames output frames of 24-bit samples
func (n *node) renderLocked(frames int) []int32 {
	outCh := n.output.Channels
	need := frames * outCh

	if cap(n.out) < need {
		n.out = make([]int32, need)
	}
	out := n.out[:need]

	written := 0
	for written < need && n.silence > 0 {
		out[written] = 0
		written++
		if written%outCh == 0 {
			n.silence--
		}
	}

	for len(n.fifo) < need-written {
		n.renderBlockLocked()
	}

	copy(out[written:], n.fifo[:need-written])
	n.fifo = n.fifo[:copy(n.fifo, n.fifo[need-written:])]

	applyGain(out, n.gain)
	return out
}

// renderBlockLocked mixes one block of track frames and appends it to the
// fifo at the output rate and channel count
func (n *node) renderBlockLocked() {
	inCh := n.track.Channels
	mix, acc, scratch := n.mix, n.acc, n.scratch
	for i := range acc {
		acc[i] = 0
	}

	start := n.cursor
	end := start + blockFrames

	for _, r := range n.regions {
		rEnd := r.at + r.length()
		if rEnd <= start || r.at >= end {
			continue
		}

		lo := max(start, r.at)
		hi := min(end, rEnd)
		count := int(hi - lo)
		got := r.reader.ReadFrames(scratch[:count*inCh], r.from+(lo-r.at))

		base := int(lo-start) * inCh
		for i := 0; i < got*inCh; i++ {
			acc[base+i] += int64(scratch[i])
		}
	}

	for i, v := range acc {
		mix[i] = audio.ClampTo24Bit(v)
	}
	n.cursor = end
	n.pruneLocked()

	resampled := make([]int32, n.resampler.MaxOutputSamples(len(mix)))
	count := n.resampler.Resample(mix, resampled)
	n.fifo = append(n.fifo, mapChannels(resampled[:count], inCh, n.output.Channels)...)
}

// pruneLocked drops regions that are fully rendered
func (n *node) pruneLocked() {
	kept := n.regions[:0]
	for _, r := range n.regions {
		if r.at+r.length() > n.cursor {
			kept = append(kept, r)
		}
	}
	n.regions = kept
}

// mapChannels converts interleaved samples between channel counts.
// Mono is duplicated across outputs; down-mixing to mono averages.
func mapChannels(in []int32, inCh, outCh int) []int32 {
	if inCh == outCh {
		return in
	}

	frames := len(in) / inCh
	out := make([]int32, frames*outCh)
	for f := 0; f < frames; f++ {
		frame := in[f*inCh : (f+1)*inCh]
		if outCh == 1 {
			var sum int64
			for _, s := range frame {
				sum += int64(s)
			}
			out[f] = int32(sum / int64(inCh))
			continue
		}
		for c := 0; c < outCh; c++ {
			out[f*outCh+c] = frame[c%inCh]
		}
	}
	return out
}

// applyGain scales samples in place with clipping protection
func applyGain(samples []int32, gain float64) {
	if gain == 1 {
		return
	}
	for i, sample := range samples {
		samples[i] = audio.ClampTo24Bit(int64(float64(sample) * gain))
	}
}

// retarget switches the node to the engine's final output format
func (n *node) retarget(output audio.Format) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.output = output
	n.resampler = resample.New(n.track.SampleRate, output.SampleRate, n.track.Channels)
	n.fifo = n.fifo[:0]
}
