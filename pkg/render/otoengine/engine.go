// ABOUTME: oto-backed render engine
// ABOUTME: One oto player per track; oto mixes the players on the device
package otoengine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/Sendspin/multitrack-go/pkg/audio"
	"github.com/Sendspin/multitrack-go/pkg/render"
)

// ErrClosed is returned when using a closed engine
var ErrClosed = errors.New("oto engine closed")

// DefaultBufferSize is the device buffer requested from oto
const DefaultBufferSize = 100 * time.Millisecond

// Engine renders tracks through oto. oto allows a single context per
// process, so the output format is fixed by the first Start.
type Engine struct {
	log        *logrus.Entry
	bufferSize time.Duration

	// newPlayer creates the device player for a node; swapped in tests
	newPlayer func(n *node) devicePlayer
	now       func() time.Time

	mu        sync.Mutex
	otoCtx    *oto.Context
	format    audio.Format
	running   bool
	closed    bool
	startedAt time.Time
	nodes     []*node
}

// New creates an engine; nothing touches the device until Start
func New(logger *logrus.Entry) *Engine {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	e := &Engine{
		log:        logger.WithField("engine", "oto"),
		bufferSize: DefaultBufferSize,
		now:        time.Now,
	}
	e.newPlayer = e.otoPlayer
	return e
}

// SetBufferSize sets the device buffer used by the next first Start
func (e *Engine) SetBufferSize(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if d > 0 {
		e.bufferSize = d
	}
}

// Attach creates a node for a track of the given native format
func (e *Engine) Attach(format audio.Format) (render.Sink, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrClosed
	}

	output := e.format
	if !e.running {
		// Placeholder until Start fixes the output format
		output = format
	}

	n := newNode(e, format, output, e.log.WithField("rate", format.SampleRate))
	e.nodes = append(e.nodes, n)

	if e.running {
		n.attachPlayer(e.newPlayer(n))
	}
	return n, nil
}

// Detach closes the node's player
func (e *Engine) Detach(sink render.Sink) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, n := range e.nodes {
		if render.Sink(n) != sink {
			continue
		}
		e.nodes = append(e.nodes[:i], e.nodes[i+1:]...)
		if p := n.detachPlayer(); p != nil {
			if err := p.Close(); err != nil {
				e.log.WithError(err).Warn("Failed to close player")
			}
		}
		return
	}
}

// Start opens the oto context at the reference format and creates a player
// for every attached node
func (e *Engine) Start(format audio.Format) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if e.running {
		return nil
	}
	if format.SampleRate <= 0 || format.Channels <= 0 {
		return fmt.Errorf("invalid output format: %d Hz, %d channels", format.SampleRate, format.Channels)
	}

	if e.otoCtx == nil {
		op := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   e.bufferSize,
		}

		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			return fmt.Errorf("failed to create oto context: %w", err)
		}
		<-ready

		e.otoCtx = ctx
		e.format = format
		e.format.BitDepth = 16
	} else {
		if err := e.otoCtx.Resume(); err != nil {
			return fmt.Errorf("failed to resume oto context: %w", err)
		}
		if format.SampleRate != e.format.SampleRate || format.Channels != e.format.Channels {
			e.log.Warnf("Format change requested (%dHz %dch -> %dHz %dch) but oto cannot reinitialize, keeping existing context",
				e.format.SampleRate, e.format.Channels, format.SampleRate, format.Channels)
		}
	}

	e.running = true
	e.startedAt = e.now()

	for _, n := range e.nodes {
		n.retarget(e.format)
		n.attachPlayer(e.newPlayer(n))
	}

	e.log.Infof("Audio output initialized: %dHz, %d channels", e.format.SampleRate, e.format.Channels)
	return nil
}

func (e *Engine) otoPlayer(n *node) devicePlayer {
	return otoPlayer{e.otoCtx.NewPlayer(n)}
}

// otoPlayer adapts *oto.Player to devicePlayer
type otoPlayer struct {
	*oto.Player
}

func (p otoPlayer) Close() error {
	p.Player.Close()
	return p.Err()
}

// IsRunning reports whether Start succeeded
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Now returns output frames rendered since Start
func (e *Engine) Now() render.Time {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return render.Time{}
	}
	return render.Time{
		SampleTime: audio.DurationToFrames(e.now().Sub(e.startedAt), e.format.SampleRate),
		SampleRate: e.format.SampleRate,
	}
}

// Errors collects asynchronous player failures
func (e *Engine) Errors() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var result *multierror.Error
	for _, n := range e.nodes {
		n.mu.Lock()
		p := n.player
		n.mu.Unlock()
		if p == nil {
			continue
		}
		if err := p.Err(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Close closes every player and suspends the device
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var result *multierror.Error
	for _, n := range e.nodes {
		if p := n.detachPlayer(); p != nil {
			if err := p.Close(); err != nil {
				result = multierror.Append(result, fmt.Errorf("close player: %w", err))
			}
		}
	}
	e.nodes = nil

	if e.otoCtx != nil && e.running {
		if err := e.otoCtx.Suspend(); err != nil {
			result = multierror.Append(result, fmt.Errorf("suspend oto context: %w", err))
		}
	}
	e.running = false
	e.closed = true

	return result.ErrorOrNil()
}
