// ABOUTME: Tests for the player application wiring
// ABOUTME: Runs sessions on the memory engine with a manual clock
package app

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sendspin/multitrack-go/internal/config"
	"github.com/Sendspin/multitrack-go/pkg/clock"
	"github.com/Sendspin/multitrack-go/pkg/multitrack"
	"github.com/Sendspin/multitrack-go/pkg/render/memory"
	"github.com/Sendspin/multitrack-go/pkg/source"
	"github.com/Sendspin/multitrack-go/pkg/track"
)

func writeWAV(t *testing.T, path string, rate, frames int) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: rate},
		Data:           make([]int, frames),
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

func memorySession() *config.Config {
	cfg := config.Default()
	cfg.Player.Engine = "memory"
	return cfg
}

func newTestPlayer(t *testing.T, session *config.Config) (*Player, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual()
	p, err := New(Config{Session: session, Clock: clk})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p, clk
}

type recorder struct {
	mu       sync.Mutex
	states   []multitrack.State
	finished int
}

func (r *recorder) NotifyState(s multitrack.State) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *recorder) NotifyPosition(time.Duration) {}

func (r *recorder) NotifyFinished() {
	r.mu.Lock()
	r.finished++
	r.mu.Unlock()
}

func TestNewRequiresSession(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestNewSelectsMemoryEngine(t *testing.T) {
	p, _ := newTestPlayer(t, memorySession())
	_, ok := p.engine.(*memory.Engine)
	assert.True(t, ok)
	assert.Nil(t, p.remote)
	assert.Nil(t, p.tui)
}

func TestNewWithRemote(t *testing.T) {
	session := memorySession()
	session.Remote.Enabled = true
	session.Remote.MDNS = false

	p, _ := newTestPlayer(t, session)
	require.NotNil(t, p.remote)
	assert.Equal(t, 8928, p.remote.Port())
}

func TestLoadTracksCollectsFailures(t *testing.T) {
	dir := t.TempDir()
	drums := filepath.Join(dir, "drums.wav")
	bass := filepath.Join(dir, "bass.wav")
	writeWAV(t, drums, 8000, 8000*3)
	writeWAV(t, bass, 8000, 8000*2)

	session := memorySession()
	session.Tracks = []config.TrackConfig{
		{Path: drums},
		{Path: filepath.Join(dir, "missing.wav")},
		{Path: bass, Delay: config.Duration{Duration: 2 * time.Second}},
		{Path: filepath.Join(dir, "notes.txt")},
	}

	p, _ := newTestPlayer(t, session)
	err := p.LoadTracks()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.wav")
	assert.Contains(t, err.Error(), "notes.txt")
	assert.ErrorIs(t, err, source.ErrUnreadable)

	o := p.Orchestrator()
	assert.Equal(t, 2, o.Len())
	assert.Equal(t, 4*time.Second, o.Duration())
}

func TestAutoplayAndObservers(t *testing.T) {
	p, clk := newTestPlayer(t, memorySession())
	_, err := p.Orchestrator().AppendTrack(source.Static{SourceName: "a", Length: 44100, Rate: 44100}, 0, 1)
	require.NoError(t, err)

	rec := &recorder{}
	p.addObserver(rec)

	require.NoError(t, p.Start(true))
	assert.Equal(t, multitrack.StatePlaying, p.Orchestrator().State())

	clk.Advance(2 * time.Second)
	assert.Equal(t, multitrack.StateStopped, p.Orchestrator().State())
	assert.Equal(t, 1, rec.finished)
	assert.Equal(t, []multitrack.State{multitrack.StatePlaying, multitrack.StateStopped}, rec.states)
}

func TestLoopRestartsOnFinish(t *testing.T) {
	session := memorySession()
	session.Player.Loop = true
	p, clk := newTestPlayer(t, session)
	_, err := p.Orchestrator().AppendTrack(source.Static{SourceName: "a", Length: 44100, Rate: 44100}, 0, 1)
	require.NoError(t, err)

	require.NoError(t, p.Start(true))
	clk.Advance(1500 * time.Millisecond)

	assert.Equal(t, multitrack.StatePlaying, p.Orchestrator().State())
	assert.Equal(t, 2, clk.Starts())
	assert.Equal(t, time.Duration(0), p.Orchestrator().CurrentTime())
}

func TestLoopSkipsZeroLengthSession(t *testing.T) {
	session := memorySession()
	session.Player.Loop = true
	p, _ := newTestPlayer(t, session)
	_, err := p.Orchestrator().AppendTrack(source.Static{SourceName: "empty", Length: 0, Rate: 44100}, 0, 1)
	require.NoError(t, err)

	rec := &recorder{}
	p.addObserver(rec)

	require.NoError(t, p.Start(true))
	assert.Equal(t, 1, rec.finished)
	assert.Equal(t, multitrack.StateStopped, p.Orchestrator().State())
}

func TestPolicyFor(t *testing.T) {
	items := []track.Item{
		track.New(source.Static{Length: 44100 * 4, Rate: 44100}, 0, 1),
		track.New(source.Static{Length: 48000 * 2, Rate: 48000, Chans: 1}, 0, 1),
	}

	def := policyFor(config.Default().Player)
	assert.Equal(t, 4*time.Second, def.Duration(items))
	assert.Equal(t, 44100, def.Format(items).SampleRate)

	cfg := config.Default().Player
	cfg.Duration = "shortest"
	cfg.Format = "highest"
	p := policyFor(cfg)
	assert.Equal(t, 2*time.Second, p.Duration(items))
	assert.Equal(t, 48000, p.Format(items).SampleRate)
	assert.Equal(t, 2, p.Format(items).Channels)

	cfg.SampleRate = 96000
	assert.Equal(t, 96000, policyFor(cfg).Format(items).SampleRate)
}

type flakyEngine struct {
	*memory.Engine
	err error
}

func (f *flakyEngine) Errors() error { return f.err }

func TestWatchEngineReportsOnce(t *testing.T) {
	var (
		mu       sync.Mutex
		reported []error
	)
	engine := &flakyEngine{Engine: memory.NewEngine(nil), err: errors.New("device lost")}

	p, err := New(Config{
		Session: memorySession(),
		Engine:  engine,
		Clock:   clock.NewManual(),
		OnError: func(err error) {
			mu.Lock()
			reported = append(reported, err)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		p.watchEngine(engine, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, p.Close())
	<-done

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, reported, 1)
	assert.Contains(t, reported[0].Error(), "device lost")
}

func TestCloseIdempotent(t *testing.T) {
	p, _ := newTestPlayer(t, memorySession())
	require.NoError(t, p.Close())
	assert.NoError(t, p.Close())
}
