// ABOUTME: Main player application orchestration
// ABOUTME: Wires session config into the engine, orchestrator, remote and UI
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/Sendspin/multitrack-go/internal/config"
	"github.com/Sendspin/multitrack-go/internal/remote"
	"github.com/Sendspin/multitrack-go/internal/ui"
	"github.com/Sendspin/multitrack-go/pkg/audio"
	"github.com/Sendspin/multitrack-go/pkg/clock"
	"github.com/Sendspin/multitrack-go/pkg/multitrack"
	"github.com/Sendspin/multitrack-go/pkg/render"
	"github.com/Sendspin/multitrack-go/pkg/render/memory"
	"github.com/Sendspin/multitrack-go/pkg/render/otoengine"
	"github.com/Sendspin/multitrack-go/pkg/source"
	"github.com/Sendspin/multitrack-go/pkg/track"
)

// Config holds player configuration
type Config struct {
	// Session is the loaded settings and track list (required)
	Session *config.Config

	// Name identifies the player in the TUI and on the network
	Name string

	// UseTUI runs the terminal UI in Run
	UseTUI bool

	// Engine, Clock and Provider override what Session selects
	Engine   render.Engine
	Clock    clock.Clock
	Provider source.Provider

	// OnError receives non-fatal asynchronous failures
	OnError func(error)

	Logger *logrus.Entry
}

// observer receives orchestrator notifications
type observer interface {
	NotifyState(state multitrack.State)
	NotifyPosition(position time.Duration)
	NotifyFinished()
}

// Player represents the main player application
type Player struct {
	config Config
	log    *logrus.Entry
	engine render.Engine
	orch   *multitrack.Orchestrator
	remote *remote.Server
	tui    *ui.TUI

	mu        sync.RWMutex
	observers []observer

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New builds the engine and orchestrator. Tracks are not loaded until LoadTracks.
func New(cfg Config) (*Player, error) {
	if cfg.Session == nil {
		return nil, fmt.Errorf("session config is required")
	}
	if cfg.Name == "" {
		cfg.Name = "Multitrack Player"
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Player{
		config: cfg,
		log:    cfg.Logger.WithField("component", "app"),
		ctx:    ctx,
		cancel: cancel,
	}

	engine := cfg.Engine
	if engine == nil {
		engine = newEngine(cfg.Session.Player, cfg.Logger)
	}
	p.engine = engine

	provider := cfg.Provider
	if provider == nil {
		provider = source.NewFileProvider(cfg.Logger)
	}

	orch, err := multitrack.New(multitrack.Config{
		Engine:             engine,
		Provider:           provider,
		Clock:              cfg.Clock,
		UpdateInterval:     cfg.Session.Player.UpdateInterval.Duration,
		Policy:             policyFor(cfg.Session.Player),
		OnPositionUpdate:   p.handlePosition,
		OnPlaybackFinished: p.handleFinished,
		OnStateChange:      p.handleState,
		Logger:             cfg.Logger,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}
	p.orch = orch

	if cfg.Session.Remote.Enabled {
		name := cfg.Session.Remote.Name
		if name == "" {
			name = cfg.Name
		}
		srv, err := remote.NewServer(remote.Config{
			Port:       cfg.Session.Remote.Port,
			Name:       name,
			Controller: orch,
			EnableMDNS: cfg.Session.Remote.MDNS,
			Logger:     cfg.Logger,
		})
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to create remote server: %w", err)
		}
		p.remote = srv
		p.addObserver(srv)
	}

	if cfg.UseTUI {
		p.tui = ui.New(cfg.Name, orch)
		p.addObserver(p.tui)
	}

	return p, nil
}

func newEngine(cfg config.PlayerConfig, logger *logrus.Entry) render.Engine {
	if cfg.Engine == "memory" {
		return memory.NewEngine(logger)
	}
	e := otoengine.New(logger)
	e.SetBufferSize(cfg.BufferSize.Duration)
	return e
}

// policyFor maps the config's policy names onto reducers
func policyFor(cfg config.PlayerConfig) multitrack.Policy {
	policy := multitrack.DefaultPolicy()
	if cfg.Duration == "shortest" {
		policy.Duration = multitrack.ShortestDuration
	}
	if cfg.Format == "highest" {
		policy.Format = multitrack.HighestSampleRate
	}
	if cfg.SampleRate > 0 {
		pick := policy.Format
		rate := cfg.SampleRate
		policy.Format = func(items []track.Item) audio.Format {
			f := pick(items)
			f.SampleRate = rate
			return f
		}
	}
	return policy
}

// Orchestrator returns the underlying transport
func (p *Player) Orchestrator() *multitrack.Orchestrator {
	return p.orch
}

// LoadTracks appends every session track. Files that fail to open are
// skipped; their errors are returned together.
func (p *Player) LoadTracks() error {
	var result *multierror.Error

	for _, t := range p.config.Session.Tracks {
		item, err := p.orch.AppendFile(t.Path, t.Delay.Duration, t.GainOrDefault())
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		p.log.WithFields(logrus.Fields{
			"track": item.Name(),
			"delay": item.Delay,
			"gain":  item.Gain,
		}).Infof("Loaded %s (%s)", t.Path, item.Duration().Round(time.Millisecond))
	}

	p.log.Infof("Session ready: %d tracks, %s", p.orch.Len(), p.orch.Duration().Round(time.Millisecond))
	return result.ErrorOrNil()
}

// Start brings up the remote-control server when enabled and optionally
// begins playback
func (p *Player) Start(autoplay bool) error {
	if p.remote != nil {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			if err := p.remote.Start(); err != nil {
				p.notifyError(err)
			}
		}()
	}

	if reporter, ok := p.engine.(errorReporter); ok {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.watchEngine(reporter, time.Second)
		}()
	}

	if autoplay {
		if err := p.orch.Play(); err != nil {
			return fmt.Errorf("failed to start playback: %w", err)
		}
	}
	return nil
}

// errorReporter is implemented by engines with asynchronous device errors
type errorReporter interface {
	Errors() error
}

// watchEngine reports engine errors as they change
func (p *Player) watchEngine(r errorReporter, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-ticker.C:
			err := r.Errors()
			if err == nil {
				last = ""
				continue
			}
			if err.Error() != last {
				last = err.Error()
				p.notifyError(fmt.Errorf("render engine: %w", err))
			}
		case <-p.ctx.Done():
			return
		}
	}
}

// Run blocks until ctx is done, the TUI quits, or Close is called
func (p *Player) Run(ctx context.Context) error {
	if p.tui == nil {
		select {
		case <-ctx.Done():
		case <-p.ctx.Done():
		}
		return nil
	}

	go func() {
		select {
		case <-ctx.Done():
			p.tui.Stop()
		case <-p.ctx.Done():
			p.tui.Stop()
		case <-p.tui.Quit:
		}
	}()

	if err := p.tui.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// Close stops every surface and releases the engine
func (p *Player) Close() error {
	var result *multierror.Error

	p.closeOnce.Do(func() {
		p.cancel()

		if p.remote != nil {
			p.remote.Stop()
		}
		p.wg.Wait()

		if err := p.orch.Close(); err != nil {
			result = multierror.Append(result, err)
		}

		p.log.Info("Player stopped")
	})

	return result.ErrorOrNil()
}

func (p *Player) addObserver(o observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, o)
}

func (p *Player) snapshot() []observer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]observer(nil), p.observers...)
}

func (p *Player) handleState(state multitrack.State) {
	p.log.Debugf("Transport state: %s", state)
	for _, o := range p.snapshot() {
		o.NotifyState(state)
	}
}

func (p *Player) handlePosition(position time.Duration) {
	for _, o := range p.snapshot() {
		o.NotifyPosition(position)
	}
}

func (p *Player) handleFinished() {
	p.log.Debug("Notifying playback finished")
	for _, o := range p.snapshot() {
		o.NotifyFinished()
	}

	if p.config.Session.Player.Loop && p.ctx.Err() == nil {
		if p.orch.Duration() == 0 {
			p.log.Warn("Not looping a zero-length session")
			return
		}
		if err := p.orch.Play(); err != nil {
			p.notifyError(fmt.Errorf("failed to restart loop: %w", err))
		}
	}
}

func (p *Player) notifyError(err error) {
	p.log.WithError(err).Warn("Player error")
	if p.config.OnError != nil {
		p.config.OnError(err)
	}
}
