package memory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sendspin/multitrack-go/pkg/audio"
	"github.com/Sendspin/multitrack-go/pkg/render"
	"github.com/Sendspin/multitrack-go/pkg/source"
)

var stereo48k = audio.Format{SampleRate: 48000, Channels: 2, BitDepth: 24}

func TestEngineStart(t *testing.T) {
	e := NewEngine(nil)
	assert.False(t, e.IsRunning())

	require.NoError(t, e.Start(audio.Format{SampleRate: 44100, Channels: 2}))
	assert.True(t, e.IsRunning())
	assert.Equal(t, 44100, e.Now().SampleRate)
	assert.Equal(t, 1, e.Starts())
}

func TestEngineStartFailure(t *testing.T) {
	boom := errors.New("no device")
	e := NewEngine(nil)
	e.StartErr = boom

	err := e.Start(stereo48k)
	assert.True(t, errors.Is(err, boom))
	assert.False(t, e.IsRunning())
}

func TestSinkRecordsAndStopClearsQueue(t *testing.T) {
	e := NewEngine(nil)
	s, err := e.Attach(stereo48k)
	require.NoError(t, err)
	sink := s.(*Sink)

	src := source.Static{SourceName: "a", Length: 1000, Rate: 48000}
	sink.ScheduleFull(src, render.AtFrame(10))
	sink.SchedulePartial(src, 200, 1000, render.Immediately)
	require.Len(t, sink.Queue(), 2)
	assert.Equal(t, int64(1000), sink.Queue()[0].To)

	sink.Stop()
	assert.Empty(t, sink.Queue())
	assert.Len(t, sink.Log(), 3)
}

func TestSinkPlayIgnoredWhilePlaying(t *testing.T) {
	e := NewEngine(nil)
	s, _ := e.Attach(stereo48k)
	sink := s.(*Sink)

	first := render.Time{SampleTime: 10, SampleRate: 48000}
	sink.Play(first)
	sink.Play(render.Time{SampleTime: 99, SampleRate: 48000})

	assert.True(t, sink.IsPlaying())
	assert.Equal(t, first, sink.PlayedAt())

	sink.Pause()
	assert.False(t, sink.IsPlaying())
}

func TestSharedRenderClock(t *testing.T) {
	e := NewEngine(nil)
	a, _ := e.Attach(stereo48k)
	b, _ := e.Attach(stereo48k)

	e.Advance(480)
	assert.Equal(t, a.RenderTime(), b.RenderTime())
	assert.Equal(t, int64(480), a.RenderTime().SampleTime)
}

func TestDetachAndClose(t *testing.T) {
	e := NewEngine(nil)
	a, _ := e.Attach(stereo48k)
	b, _ := e.Attach(stereo48k)

	e.Detach(a)
	assert.True(t, a.(*Sink).Detached())
	assert.Len(t, e.Sinks(), 1)

	require.NoError(t, e.Close())
	assert.True(t, b.(*Sink).Detached())

	_, err := e.Attach(stereo48k)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestGain(t *testing.T) {
	e := NewEngine(nil)
	s, _ := e.Attach(stereo48k)
	s.SetGain(0.25)
	assert.Equal(t, 0.25, s.(*Sink).Gain())
}
